package domain

import (
	"time"
)

type InterestLevel string

const (
	InterestLow    InterestLevel = "LOW"
	InterestMedium InterestLevel = "MEDIUM"
	InterestHigh   InterestLevel = "HIGH"
)

// LevelRank maps a level to its sort rank so top-interest ordering is a
// plain ORDER BY on the stored column.
func LevelRank(level InterestLevel) int16 {
	switch level {
	case InterestHigh:
		return 3
	case InterestMedium:
		return 2
	default:
		return 1
	}
}

type InterestSource string

const (
	SourceUserSelected  InterestSource = "USER_SELECTED"
	SourceAIInferred    InterestSource = "AI_INFERRED"
	SourceActivityBased InterestSource = "ACTIVITY_BASED"
	SourceSurvey        InterestSource = "SURVEY"
	SourceImported      InterestSource = "IMPORTED"
)

var validInterestSources = map[InterestSource]bool{
	SourceUserSelected:  true,
	SourceAIInferred:    true,
	SourceActivityBased: true,
	SourceSurvey:        true,
	SourceImported:      true,
}

func ValidInterestSource(s InterestSource) bool {
	return validInterestSources[s]
}

// AutoTunable reports whether the reactor may re-level this entry.
// Explicit user selections are never relabeled.
func AutoTunable(s InterestSource) bool {
	return s == SourceActivityBased || s == SourceAIInferred
}

// InterestProfile is one (user, tag) interest entry. Never hard-deleted,
// only deactivated when the owning user is soft-deleted.
type InterestProfile struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"column:user_id;uniqueIndex:idx_user_tag;not null" json:"user_id"`
	Tag              string         `gorm:"column:tag;uniqueIndex:idx_user_tag;not null" json:"tag"`
	Level            InterestLevel  `gorm:"column:level;not null;default:LOW" json:"level"`
	LevelRank        int16          `gorm:"column:level_rank;not null;default:1" json:"-"`
	Source           InterestSource `gorm:"column:source;not null" json:"source"`
	ConfidenceScore  float64        `gorm:"column:confidence_score;default:0" json:"confidence_score"`
	InteractionCount int64          `gorm:"column:interaction_count;default:0" json:"interaction_count"`
	IsPrimary        bool           `gorm:"column:is_primary;default:false" json:"is_primary"`
	LastInteraction  *time.Time     `gorm:"column:last_interaction" json:"last_interaction,omitempty"`
	IsActive         bool           `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (InterestProfile) TableName() string {
	return "interest_profiles"
}

// ProcessedInterestEvent is the reactor's dedupe ledger: one row per
// (event, tag) increment that has already been applied.
type ProcessedInterestEvent struct {
	EventUID    string    `gorm:"column:event_uid;primaryKey"`
	Tag         string    `gorm:"column:tag;primaryKey"`
	ProcessedAt time.Time `gorm:"column:processed_at;autoCreateTime"`
}

func (ProcessedInterestEvent) TableName() string {
	return "processed_interest_events"
}
