package recommendation

import (
	"sort"

	"opportunityHub/domain"
)

const (
	AlgorithmName    = "co_occurrence"
	AlgorithmVersion = "v1"
)

// Success probability weights. When the conversion term is undefined
// its weight is redistributed pro rata over the other two, keeping the
// score inside [0,1].
const (
	weightCompleteness = 0.3
	weightTagOverlap   = 0.4
	weightConversion   = 0.3
)

// Confidence buckets. Thresholds are exact contract values.
const (
	ConfidenceHigh     = "HIGH"
	ConfidenceMedium   = "MEDIUM"
	ConfidenceModerate = "MODERATE"
	ConfidenceLow      = "LOW"
)

func ConfidenceBucket(probability float64) string {
	switch {
	case probability >= 0.8:
		return ConfidenceHigh
	case probability >= 0.6:
		return ConfidenceMedium
	case probability >= 0.4:
		return ConfidenceModerate
	default:
		return ConfidenceLow
	}
}

func AdviceFor(bucket string) string {
	switch bucket {
	case ConfidenceHigh:
		return "Strong match - apply as soon as possible"
	case ConfidenceMedium:
		return "Good match - worth applying"
	case ConfidenceModerate:
		return "Possible match - review the requirements first"
	default:
		return "Weak match - strengthen your profile before applying"
	}
}

// ConversionRate returns distinct applied over distinct viewed. The
// rate is undefined (ok=false) when nothing was viewed; callers must
// not treat that as 0%.
func ConversionRate(viewed, applied int64) (float64, bool) {
	if viewed <= 0 {
		return 0, false
	}

	rate := float64(applied) / float64(viewed)
	return clamp01(rate), true
}

// RankBySharedTargets orders similarity candidates by shared distinct
// targets descending; ties go to the lower user ID so rankings are
// reproducible. Input is not modified.
func RankBySharedTargets(rows []domain.SharedUser) []domain.SharedUser {
	out := make([]domain.SharedUser, len(rows))
	copy(out, rows)

	sort.Slice(out, func(i, j int) bool {
		if out[i].SharedCount == out[j].SharedCount {
			return out[i].UserID < out[j].UserID
		}
		return out[i].SharedCount > out[j].SharedCount
	})

	return out
}

// FilterSeen removes candidates the user already interacted with.
// Pure set subtraction; filtering an already-filtered set is a no-op.
func FilterSeen(candidates []domain.ScoredItem, seen []uint64) []domain.ScoredItem {
	if len(seen) == 0 {
		out := make([]domain.ScoredItem, len(candidates))
		copy(out, candidates)
		return out
	}

	seenSet := make(map[uint64]struct{}, len(seen))
	for _, id := range seen {
		seenSet[id] = struct{}{}
	}

	out := make([]domain.ScoredItem, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seenSet[c.TargetID]; ok {
			continue
		}
		out = append(out, c)
	}

	return out
}

// TagOverlap is the fraction of the target's tags the user shares.
func TagOverlap(userTags, targetTags []string) float64 {
	if len(targetTags) == 0 {
		return 0
	}

	userSet := make(map[string]struct{}, len(userTags))
	for _, t := range userTags {
		userSet[t] = struct{}{}
	}

	matched := 0
	for _, t := range targetTags {
		if _, ok := userSet[t]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(targetTags))
}

// SuccessProbability combines profile completeness, interest overlap
// and historical conversion into a bounded [0,1] score. Deterministic;
// not a learned model.
func SuccessProbability(completeness, tagOverlap, conversionRate float64, conversionDefined bool) float64 {
	completeness = clamp01(completeness)
	tagOverlap = clamp01(tagOverlap)

	if conversionDefined {
		return clamp01(weightCompleteness*completeness +
			weightTagOverlap*tagOverlap +
			weightConversion*clamp01(conversionRate))
	}

	base := weightCompleteness*completeness + weightTagOverlap*tagOverlap
	return clamp01(base / (weightCompleteness + weightTagOverlap))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
