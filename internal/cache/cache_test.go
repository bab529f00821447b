//go:build !integration

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"opportunityHub/domain"
)

type fakeRemote struct {
	mu      sync.Mutex
	entries map[string]Entry
	getErr  error
	setErr  error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{entries: make(map[string]Entry)}
}

func (f *fakeRemote) Get(_ context.Context, key string) (*Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	entry, ok := f.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (f *fakeRemote) Set(_ context.Context, key string, entry Entry, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = entry
	return nil
}

func newTestCache(remote RemoteTier, ttl time.Duration) *Tiered {
	return NewTiered(
		map[domain.RecommendationKind]KindConfig{
			domain.KindOpportunity: {TTL: ttl, MaxEntries: 16},
		},
		remote,
		time.Second,
		nil,
	)
}

func TestGetOrCompute_ConcurrentCallersShareOneComputation(t *testing.T) {
	c := newTestCache(newFakeRemote(), time.Minute)

	var computations int32
	compute := func(context.Context) ([]domain.ScoredItem, error) {
		atomic.AddInt32(&computations, 1)
		time.Sleep(100 * time.Millisecond)
		return []domain.ScoredItem{{TargetID: 1, Score: 0.5}}, nil
	}

	const callers = 16
	results := make([][]domain.ScoredItem, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			items, err := c.GetOrCompute(context.Background(), 42, domain.KindOpportunity, "v1", compute)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = items
		}(i)
	}
	wg.Wait()

	if n := atomic.LoadInt32(&computations); n != 1 {
		t.Errorf("computations = %d, want exactly 1", n)
	}
	for i, items := range results {
		if len(items) != 1 || items[0].TargetID != 1 {
			t.Errorf("caller %d got %v, want the shared result", i, items)
		}
	}
}

func TestGetOrCompute_MemoryHitSkipsCompute(t *testing.T) {
	c := newTestCache(newFakeRemote(), time.Minute)

	var computations int32
	compute := func(context.Context) ([]domain.ScoredItem, error) {
		atomic.AddInt32(&computations, 1)
		return []domain.ScoredItem{{TargetID: 7, Score: 1}}, nil
	}

	for i := 0; i < 3; i++ {
		if _, err := c.GetOrCompute(context.Background(), 1, domain.KindOpportunity, "v1", compute); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	if n := atomic.LoadInt32(&computations); n != 1 {
		t.Errorf("computations = %d, want 1 (later calls served from memory)", n)
	}
}

func TestGetOrCompute_ExpiredEntryRecomputes(t *testing.T) {
	c := newTestCache(nil, 30*time.Millisecond)

	var computations int32
	compute := func(context.Context) ([]domain.ScoredItem, error) {
		atomic.AddInt32(&computations, 1)
		return nil, nil
	}

	if _, err := c.GetOrCompute(context.Background(), 1, domain.KindOpportunity, "v1", compute); err != nil {
		t.Fatal(err)
	}

	time.Sleep(60 * time.Millisecond)

	if _, err := c.GetOrCompute(context.Background(), 1, domain.KindOpportunity, "v1", compute); err != nil {
		t.Fatal(err)
	}

	if n := atomic.LoadInt32(&computations); n != 2 {
		t.Errorf("computations = %d, want 2 after TTL expiry", n)
	}
}

func TestGetOrCompute_RemoteFailureIsOpen(t *testing.T) {
	remote := newFakeRemote()
	remote.getErr = errors.New("remote tier down")
	remote.setErr = errors.New("remote tier down")

	c := newTestCache(remote, time.Minute)

	items, err := c.GetOrCompute(context.Background(), 1, domain.KindOpportunity, "v1", func(context.Context) ([]domain.ScoredItem, error) {
		return []domain.ScoredItem{{TargetID: 3, Score: 0.2}}, nil
	})
	if err != nil {
		t.Fatalf("remote tier failure must not fail the read: %v", err)
	}
	if len(items) != 1 || items[0].TargetID != 3 {
		t.Errorf("items = %v, want computed result", items)
	}
}

func TestGetOrCompute_ComputeErrorSurfaces(t *testing.T) {
	c := newTestCache(nil, time.Minute)

	wantErr := errors.New("signal store down")
	_, err := c.GetOrCompute(context.Background(), 1, domain.KindOpportunity, "v1", func(context.Context) ([]domain.ScoredItem, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestGetOrCompute_UnconfiguredKindFails(t *testing.T) {
	c := newTestCache(nil, time.Minute)

	_, err := c.GetOrCompute(context.Background(), 1, domain.KindMentor, "v1", func(context.Context) ([]domain.ScoredItem, error) {
		return nil, nil
	})
	if err == nil {
		t.Error("expected error for kind without a configured tier")
	}
}

func TestInstall_KeepsLaterComputationStart(t *testing.T) {
	remote := newFakeRemote()
	c := newTestCache(remote, time.Minute)

	key := Key{UserID: 1, Kind: domain.KindOpportunity, AlgorithmVersion: "v1"}
	newer := Entry{Items: []domain.ScoredItem{{TargetID: 2, Score: 1}}, ComputedAt: time.Now()}
	older := Entry{Items: []domain.ScoredItem{{TargetID: 9, Score: 1}}, ComputedAt: time.Now().Add(-time.Minute)}

	c.install(key, newer, time.Minute)
	c.install(key, older, time.Minute)

	entry, ok := c.memory[domain.KindOpportunity].Get(key.String())
	if !ok {
		t.Fatal("entry missing from memory tier")
	}
	if entry.Items[0].TargetID != 2 {
		t.Errorf("memory tier holds target %d, want the newer computation", entry.Items[0].TargetID)
	}

	stored := remote.entries[key.String()]
	if stored.Items[0].TargetID != 2 {
		t.Errorf("remote tier holds target %d, want the newer computation", stored.Items[0].TargetID)
	}
}
