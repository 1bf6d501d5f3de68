package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"triage-backend/internal/auth/domain"
)

// AccountRepository provides access to connected source accounts
type AccountRepository interface {
	FindBySource(userID, source string) (*domain.ConnectedAccount, error)
	FindByEmail(email string) (*domain.ConnectedAccount, error)
	Save(account *domain.ConnectedAccount) error
	UpdateTokens(id, accessToken, refreshToken string, expiry time.Time) error
}

// gormAccountRepository implements AccountRepository using GORM
type gormAccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new GORM-based AccountRepository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &gormAccountRepository{db: db}
}

func (r *gormAccountRepository) FindBySource(userID, source string) (*domain.ConnectedAccount, error) {
	var account domain.ConnectedAccount
	err := r.db.Where("user_id = ? AND source = ?", userID, source).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *gormAccountRepository) FindByEmail(email string) (*domain.ConnectedAccount, error) {
	var account domain.ConnectedAccount
	err := r.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *gormAccountRepository) Save(account *domain.ConnectedAccount) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
		account.CreatedAt = time.Now()
	}
	account.UpdatedAt = time.Now()
	return r.db.Save(account).Error
}

func (r *gormAccountRepository) UpdateTokens(id, accessToken, refreshToken string, expiry time.Time) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"token_expiry": expiry,
		"updated_at":   time.Now(),
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.Model(&domain.ConnectedAccount{}).Where("id = ?", id).Updates(updates).Error
}
