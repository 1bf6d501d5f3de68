package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"triage-backend/internal/workitem/domain"
)

// gormWorkItemRepository implements WorkItemRepository using GORM
type gormWorkItemRepository struct {
	db *gorm.DB
}

// NewGormWorkItemRepository creates a new GORM-based WorkItemRepository
func NewGormWorkItemRepository(db *gorm.DB) WorkItemRepository {
	return &gormWorkItemRepository{db: db}
}

// CreateIfAbsent relies on the unique (user_id, source_type, source_id) index:
// a concurrent ingestion racing past the Exists check loses here instead of
// producing a duplicate row.
func (r *gormWorkItemRepository) CreateIfAbsent(item *domain.WorkItem) (bool, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "source_type"}, {Name: "source_id"}},
		DoNothing: true,
	}).Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormWorkItemRepository) Exists(userID string, source domain.SourceType, sourceID string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.WorkItem{}).
		Where("user_id = ? AND source_type = ? AND source_id = ?", userID, source, sourceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormWorkItemRepository) FindByID(id string) (*domain.WorkItem, error) {
	var item domain.WorkItem
	err := r.db.Where("id = ?", id).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *gormWorkItemRepository) FindByUserID(userID string, q domain.ListQuery, now time.Time) ([]*domain.WorkItem, error) {
	var items []*domain.WorkItem

	query := r.db.Model(&domain.WorkItem{}).Where("user_id = ?", userID)
	if q.Classification != nil {
		query = query.Where("classification = ?", *q.Classification)
	}
	if q.IsCompleted != nil {
		query = query.Where("is_completed = ?", *q.IsCompleted)
	}

	filter := DateFilter{Start: q.Start, End: q.End, Now: now}
	query = query.Scopes(filter.Scope())

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	err := query.Order("urgency_score DESC, source_date DESC, created_at DESC").
		Limit(limit).Offset(q.Offset).Find(&items).Error
	return items, err
}

func (r *gormWorkItemRepository) Update(item *domain.WorkItem) error {
	item.UpdatedAt = time.Now()
	return r.db.Save(item).Error
}

func (r *gormWorkItemRepository) Delete(id string) error {
	return r.db.Delete(&domain.WorkItem{}, "id = ?", id).Error
}

func (r *gormWorkItemRepository) FindExpiredSnoozes(now time.Time) ([]*domain.WorkItem, error) {
	var items []*domain.WorkItem
	err := r.db.Where("is_snoozed = ? AND snooze_until IS NOT NULL AND snooze_until <= ?", true, now).
		Find(&items).Error
	return items, err
}
