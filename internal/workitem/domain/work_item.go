package domain

import "time"

// WorkItem is a single classified, persisted unit derived from one source message.
// The (UserID, SourceType, SourceID) triple is unique; the composite index backs
// the atomic insert-if-absent used by the ingestion pipeline.
type WorkItem struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	UserID     string     `json:"user_id" gorm:"not null;index;uniqueIndex:idx_work_items_dedup,priority:1;index:idx_work_items_urgency,priority:1;index:idx_work_items_created,priority:1;index:idx_work_items_class,priority:1;index:idx_work_items_completed,priority:1;index:idx_work_items_source_date,priority:1;index:idx_work_items_date_class,priority:1"`
	SourceType SourceType `json:"source_type" gorm:"not null;uniqueIndex:idx_work_items_dedup,priority:2"`
	SourceID   string     `json:"source_id" gorm:"not null;uniqueIndex:idx_work_items_dedup,priority:3"`

	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Content string `json:"content"`

	// SourceDate is the origin message's own timestamp. It is nil when the
	// native timestamp was absent or unparsable; such items are excluded from
	// date-filtered listings except via the created_at fallback windows.
	SourceDate *time.Time `json:"source_date,omitempty" gorm:"index:idx_work_items_source_date,priority:2;index:idx_work_items_date_class,priority:2"`

	// Classification payload, produced by the external classifier.
	Classification string   `json:"classification" gorm:"index:idx_work_items_class,priority:2;index:idx_work_items_date_class,priority:3"`
	Summary        string   `json:"summary"`
	ActionItems    []string `json:"action_items" gorm:"serializer:json"`
	Sentiment      string   `json:"sentiment"`
	UrgencyScore   int      `json:"urgency_score" gorm:"index:idx_work_items_urgency,priority:2"`
	EffortEstimate string   `json:"effort_estimate"`
	Deadline       string   `json:"deadline"`
	ContextTags    []string `json:"context_tags" gorm:"serializer:json"`
	Stakeholders   []string `json:"stakeholders" gorm:"serializer:json"`
	BusinessImpact string   `json:"business_impact"`
	FollowUpNeeded bool     `json:"follow_up_needed"`

	IsCompleted bool       `json:"is_completed" gorm:"default:false;index:idx_work_items_completed,priority:2"`
	IsSnoozed   bool       `json:"is_snoozed" gorm:"default:false"`
	SnoozeUntil *time.Time `json:"snooze_until,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_work_items_created,priority:2"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListQuery holds the read-path filter parameters, each independently optional.
// Search is a fuzzy match applied in memory over subject, sender and content.
type ListQuery struct {
	Limit          int
	Offset         int
	Classification *string
	IsCompleted    *bool
	Start          *time.Time
	End            *time.Time
	Search         string
}

// SyncResult summarizes one ingestion run. It is always populated, even on
// total failure, so callers can render a consistent outcome.
type SyncResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}
