package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"triage-backend/internal/auth/domain"
)

// FCMTokenRepository provides access to registered device tokens
type FCMTokenRepository interface {
	Register(userID, token string) error
	Unregister(token string) error
	TokensForUser(userID string) ([]string, error)
}

// gormFCMTokenRepository implements FCMTokenRepository using GORM
type gormFCMTokenRepository struct {
	db *gorm.DB
}

// NewFCMTokenRepository creates a new GORM-based FCMTokenRepository
func NewFCMTokenRepository(db *gorm.DB) FCMTokenRepository {
	return &gormFCMTokenRepository{db: db}
}

func (r *gormFCMTokenRepository) Register(userID, token string) error {
	var existing domain.FCMToken
	err := r.db.Where("token = ?", token).First(&existing).Error
	if err == nil {
		// Token already registered, possibly by another user on the same device.
		existing.UserID = userID
		return r.db.Save(&existing).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	return r.db.Create(&domain.FCMToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     token,
		CreatedAt: time.Now(),
	}).Error
}

func (r *gormFCMTokenRepository) Unregister(token string) error {
	return r.db.Where("token = ?", token).Delete(&domain.FCMToken{}).Error
}

func (r *gormFCMTokenRepository) TokensForUser(userID string) ([]string, error) {
	var tokens []domain.FCMToken
	if err := r.db.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Token)
	}
	return out, nil
}
