package domain

import (
	"time"
)

type RecommendationKind string

const (
	KindOpportunity RecommendationKind = "opportunity"
	KindContent     RecommendationKind = "content"
	KindMentor      RecommendationKind = "mentor"
)

var validRecommendationKinds = map[RecommendationKind]bool{
	KindOpportunity: true,
	KindContent:     true,
	KindMentor:      true,
}

func ValidRecommendationKind(k RecommendationKind) bool {
	return validRecommendationKinds[k]
}

// TargetTypeFor maps a recommendation kind to the catalog target type
// its candidates are drawn from.
func TargetTypeFor(k RecommendationKind) TargetType {
	switch k {
	case KindContent:
		return TargetModule
	case KindMentor:
		return TargetMentor
	default:
		return TargetOpportunity
	}
}

// ScoredItem is one ranked recommendation.
type ScoredItem struct {
	TargetID uint64  `json:"target_id"`
	Score    float64 `json:"score"`
}

// RecommendationHistory is one served recommendation instance and the
// user's reaction to it. Lifecycle transitions set their timestamp once;
// repeated transition calls are no-ops.
type RecommendationHistory struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	UserID             uint               `gorm:"column:user_id;index;not null" json:"user_id"`
	RecommendationType RecommendationKind `gorm:"column:recommendation_type;not null" json:"recommendation_type"`
	RecommendedItemID  uint64             `gorm:"column:recommended_item_id;not null" json:"recommended_item_id"`
	Score              float64            `gorm:"column:score;not null" json:"score"`
	AlgorithmName      string             `gorm:"column:algorithm_name;not null" json:"algorithm_name"`
	AlgorithmVersion   string             `gorm:"column:algorithm_version;not null" json:"algorithm_version"`
	WasViewed          bool               `gorm:"column:was_viewed;default:false" json:"was_viewed"`
	WasClicked         bool               `gorm:"column:was_clicked;default:false" json:"was_clicked"`
	WasApplied         bool               `gorm:"column:was_applied;default:false" json:"was_applied"`
	ViewedAt           *time.Time         `gorm:"column:viewed_at" json:"viewed_at,omitempty"`
	ClickedAt          *time.Time         `gorm:"column:clicked_at" json:"clicked_at,omitempty"`
	AppliedAt          *time.Time         `gorm:"column:applied_at" json:"applied_at,omitempty"`
	TimeSpentSeconds   int                `gorm:"column:time_spent_seconds;default:0" json:"time_spent_seconds"`
	FeedbackRating     *int               `gorm:"column:feedback_rating" json:"feedback_rating,omitempty"`
	FeedbackComment    string             `gorm:"column:feedback_comment" json:"feedback_comment,omitempty"`
	FeedbackAt         *time.Time         `gorm:"column:feedback_at" json:"feedback_at,omitempty"`
	IsActive           bool               `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (RecommendationHistory) TableName() string {
	return "recommendation_history"
}

// SuccessPrediction is the response of the success-probability estimator.
type SuccessPrediction struct {
	SuccessProbability float64 `json:"success_probability"`
	ConfidenceLevel    string  `json:"confidence_level"`
	Recommendation     string  `json:"recommendation"`
}
