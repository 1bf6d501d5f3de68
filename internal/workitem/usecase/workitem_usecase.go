package usecase

import (
	"fmt"
	"log"
	"time"

	"triage-backend/internal/metrics"
	"triage-backend/internal/workitem/cache"
	"triage-backend/internal/workitem/domain"
	"triage-backend/internal/workitem/repository"
	"triage-backend/pkg/fuzzy"
)

const snoozeCheckInterval = time.Minute

type workItemUsecase struct {
	repo   repository.WorkItemRepository
	cache  *cache.QueryCache
	events EventService
	now    func() time.Time
}

// NewWorkItemUsecase creates the read/mutation usecase. events may be nil.
func NewWorkItemUsecase(repo repository.WorkItemRepository, queryCache *cache.QueryCache, events EventService) WorkItemUsecase {
	return &workItemUsecase{
		repo:   repo,
		cache:  queryCache,
		events: events,
		now:    time.Now,
	}
}

func (u *workItemUsecase) List(userID string, q domain.ListQuery) ([]*domain.WorkItem, error) {
	if q.Start != nil && q.End != nil && !q.Start.Before(*q.End) {
		return nil, domain.ErrInvalidRange
	}

	key := cache.Key(userID, q)
	if items, ok := u.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		return items, nil
	}
	metrics.CacheMisses.Inc()

	items, err := u.repo.FindByUserID(userID, q, u.now())
	if err != nil {
		return nil, fmt.Errorf("unable to list work items: %v", err)
	}

	valid := make([]*domain.WorkItem, 0, len(items))
	for _, item := range items {
		if !validStoredItem(item) {
			log.Printf("[WorkItem] Dropping corrupt row from listing for user %s", userID)
			continue
		}
		if q.Search != "" && !fuzzy.MatchWorkItem(q.Search, item.Subject, item.Sender, item.Content) {
			continue
		}
		valid = append(valid, item)
	}

	u.cache.Put(key, valid)
	return valid, nil
}

func (u *workItemUsecase) Complete(userID, id string) (*domain.WorkItem, error) {
	item, err := u.ownedItem(userID, id)
	if err != nil {
		return nil, err
	}
	item.IsCompleted = true
	return u.save(userID, item)
}

func (u *workItemUsecase) Snooze(userID, id string, until time.Time) (*domain.WorkItem, error) {
	item, err := u.ownedItem(userID, id)
	if err != nil {
		return nil, err
	}
	item.IsSnoozed = true
	item.SnoozeUntil = &until
	return u.save(userID, item)
}

func (u *workItemUsecase) Unsnooze(userID, id string) (*domain.WorkItem, error) {
	item, err := u.ownedItem(userID, id)
	if err != nil {
		return nil, err
	}
	item.IsSnoozed = false
	item.SnoozeUntil = nil
	return u.save(userID, item)
}

func (u *workItemUsecase) Delete(userID, id string) error {
	item, err := u.ownedItem(userID, id)
	if err != nil {
		return err
	}
	if err := u.repo.Delete(item.ID); err != nil {
		return fmt.Errorf("unable to delete work item: %v", err)
	}
	u.cache.InvalidateUser(userID)
	u.sendEvent(userID, "item_deleted", map[string]string{"id": item.ID})
	return nil
}

// StartSnoozeChecker wakes expired snoozes in the background.
func (u *workItemUsecase) StartSnoozeChecker() {
	go func() {
		ticker := time.NewTicker(snoozeCheckInterval)
		defer ticker.Stop()
		for range ticker.C {
			u.wakeExpiredSnoozes()
		}
	}()
	log.Println("[WorkItem] Snooze checker started")
}

func (u *workItemUsecase) wakeExpiredSnoozes() {
	items, err := u.repo.FindExpiredSnoozes(u.now())
	if err != nil {
		log.Printf("[WorkItem] Failed to query expired snoozes: %v", err)
		return
	}
	for _, item := range items {
		item.IsSnoozed = false
		item.SnoozeUntil = nil
		if err := u.repo.Update(item); err != nil {
			log.Printf("[WorkItem] Failed to wake item %s: %v", item.ID, err)
			continue
		}
		u.cache.InvalidateUser(item.UserID)
		u.sendEvent(item.UserID, "item_updated", item)
	}
}

// ownedItem loads the item and enforces ownership. A foreign item looks
// identical to a missing one from the caller's side.
func (u *workItemUsecase) ownedItem(userID, id string) (*domain.WorkItem, error) {
	item, err := u.repo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("unable to load work item: %v", err)
	}
	if item == nil || item.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (u *workItemUsecase) save(userID string, item *domain.WorkItem) (*domain.WorkItem, error) {
	if err := u.repo.Update(item); err != nil {
		return nil, fmt.Errorf("unable to update work item: %v", err)
	}
	u.cache.InvalidateUser(userID)
	u.sendEvent(userID, "item_updated", item)
	return item, nil
}

func (u *workItemUsecase) sendEvent(userID, eventType string, payload interface{}) {
	if u.events != nil {
		u.events.SendToUser(userID, eventType, payload)
	}
}
