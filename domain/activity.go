package domain

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityView     ActivityType = "VIEW"
	ActivityApply    ActivityType = "APPLY"
	ActivityComplete ActivityType = "COMPLETE"
	ActivityLogin    ActivityType = "LOGIN"
	ActivitySearch   ActivityType = "SEARCH"
	ActivityContact  ActivityType = "CONTACT"
)

type TargetType string

const (
	TargetOpportunity TargetType = "opportunity"
	TargetModule      TargetType = "module"
	TargetMentor      TargetType = "mentor"
	TargetPost        TargetType = "post"
)

var validActivityTypes = map[ActivityType]bool{
	ActivityView:     true,
	ActivityApply:    true,
	ActivityComplete: true,
	ActivityLogin:    true,
	ActivitySearch:   true,
	ActivityContact:  true,
}

var validTargetTypes = map[TargetType]bool{
	TargetOpportunity: true,
	TargetModule:      true,
	TargetMentor:      true,
	TargetPost:        true,
}

// Known metadata keys per activity type, schema version 1.
// Payloads carrying keys outside this set are rejected as input errors.
var knownMetadataKeys = map[ActivityType]map[string]bool{
	ActivityView:     {"source": true, "duration_seconds": true, "referrer": true},
	ActivityApply:    {"application_id": true, "channel": true},
	ActivityComplete: {"module_id": true, "score": true},
	ActivityLogin:    {"platform": true, "ip_address": true},
	ActivitySearch:   {"query": true, "results_count": true},
	ActivityContact:  {"mentor_id": true, "channel": true},
}

func ValidActivityType(t ActivityType) bool {
	return validActivityTypes[t]
}

func ValidTargetType(t TargetType) bool {
	return validTargetTypes[t]
}

func ValidateMetadata(t ActivityType, metadata datatypes.JSONMap) error {
	if len(metadata) == 0 {
		return nil
	}
	known := knownMetadataKeys[t]
	for k := range metadata {
		if !known[k] {
			return fmt.Errorf("unknown metadata key %q for activity type %s", k, t)
		}
	}
	return nil
}

// ActivityEvent is an immutable record of a single user action.
// Rows are never updated; they age out via the retention sweep and are
// excluded from aggregation when the owning user is deactivated.
type ActivityEvent struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	EventUID     string                      `gorm:"column:event_uid;uniqueIndex;not null" json:"event_uid"`
	UserID       uint                        `gorm:"column:user_id;index;not null" json:"user_id"`
	ActivityType ActivityType                `gorm:"column:activity_type;not null" json:"activity_type"`
	TargetID     *uint64                     `gorm:"column:target_id;index" json:"target_id,omitempty"`
	TargetType   *TargetType                 `gorm:"column:target_type" json:"target_type,omitempty"`
	SessionID    string                      `gorm:"column:session_id" json:"session_id,omitempty"`
	Tags         datatypes.JSONSlice[string] `gorm:"column:tags;type:jsonb" json:"tags,omitempty"`
	Metadata     datatypes.JSONMap           `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	IsActive     bool                        `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (ActivityEvent) TableName() string {
	return "activity_events"
}

// TargetCount is a windowed interaction count for one target.
type TargetCount struct {
	TargetID uint64 `json:"target_id"`
	Count    int64  `json:"count"`
}

// SharedUser is a similarity candidate and the number of distinct
// targets shared with the reference user.
type SharedUser struct {
	UserID      uint  `json:"user_id"`
	SharedCount int64 `json:"shared_count"`
}

// TypeCount is a per-activity-type count used by behavior insights.
type TypeCount struct {
	ActivityType ActivityType `json:"activity_type"`
	Count        int64        `json:"count"`
}

type BehaviorSummary struct {
	UserID          uint                   `json:"user_id"`
	CountsByType    map[ActivityType]int64 `json:"counts_by_type"`
	EngagementScore float64                `json:"engagement_score"`
	LastActivityAt  *time.Time             `json:"last_activity_at,omitempty"`
}
