package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Cache behavior per recommendation kind and tier (memory/remote).
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_cache_hits_total",
		Help: "Recommendation cache hits by kind and tier",
	}, []string{"kind", "tier"})

	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_cache_misses_total",
		Help: "Recommendation cache misses by kind",
	}, []string{"kind"})

	CacheEvictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_cache_evictions_total",
		Help: "Recommendation cache evictions by kind",
	}, []string{"kind"})

	ActivityEventsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_events_recorded_total",
		Help: "Activity events appended to the event log by type",
	}, []string{"activity_type"})

	ActivityEventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "activity_events_dropped_total",
		Help: "Activity events lost to store errors (best-effort path)",
	})

	ReactorEventsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "interest_reactor_events_processed_total",
		Help: "Activity events applied by the interest auto-tuning reactor",
	})

	ReactorEventsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "interest_reactor_events_skipped_total",
		Help: "Reactor deliveries skipped as duplicates or failures",
	})
)

func Init() {
	prometheus.MustRegister(
		CacheHitsTotal,
		CacheMissesTotal,
		CacheEvictionsTotal,
		ActivityEventsRecorded,
		ActivityEventsDropped,
		ReactorEventsProcessed,
		ReactorEventsSkipped,
	)
}
