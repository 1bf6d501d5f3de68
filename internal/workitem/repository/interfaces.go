package repository

import (
	"time"

	"triage-backend/internal/workitem/domain"
)

// WorkItemRepository defines data access operations for work items
type WorkItemRepository interface {
	// CreateIfAbsent inserts the item unless one already exists for the same
	// (user, source, source id) triple. Returns true when a row was inserted.
	CreateIfAbsent(item *domain.WorkItem) (bool, error)

	// Exists is the deduplication point lookup, called before spending a
	// classifier call on a candidate message.
	Exists(userID string, source domain.SourceType, sourceID string) (bool, error)

	FindByID(id string) (*domain.WorkItem, error)
	FindByUserID(userID string, q domain.ListQuery, now time.Time) ([]*domain.WorkItem, error)
	Update(item *domain.WorkItem) error
	Delete(id string) error

	// FindExpiredSnoozes returns snoozed items whose snooze_until has passed.
	FindExpiredSnoozes(now time.Time) ([]*domain.WorkItem, error)
}
