package usecase

import (
	"context"
	"time"

	"triage-backend/internal/workitem/domain"
)

// EventService defines interface for sending push updates
type EventService interface {
	SendToUser(userID string, eventType string, payload interface{})
}

// Notifier delivers out-of-band notifications for high-urgency items.
type Notifier interface {
	NotifyHighUrgency(ctx context.Context, userID string, item *domain.WorkItem)
}

// WorkItemUsecase is the read/mutation surface for work items.
type WorkItemUsecase interface {
	List(userID string, q domain.ListQuery) ([]*domain.WorkItem, error)
	Complete(userID, id string) (*domain.WorkItem, error)
	Snooze(userID, id string, until time.Time) (*domain.WorkItem, error)
	Unsnooze(userID, id string) (*domain.WorkItem, error)
	Delete(userID, id string) error
	StartSnoozeChecker()
}

// SyncUsecase runs the ingestion pipeline for one user and source.
type SyncUsecase interface {
	Sync(ctx context.Context, userID string, source domain.SourceType, targetDay *time.Time) (domain.SyncResult, error)
}
