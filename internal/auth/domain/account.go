package domain

import "time"

// ConnectedAccount holds the credentials for one (user, source) pair.
// Token acquisition and refresh happen in the OAuth layer; the ingestion
// pipeline only reads from here.
type ConnectedAccount struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;uniqueIndex:idx_accounts_user_source,priority:1"`
	Source string `json:"source" gorm:"not null;uniqueIndex:idx_accounts_user_source,priority:2"`

	// Email is the address at the source, used to map inbound Gmail watch
	// notifications back to a user.
	Email string `json:"email" gorm:"index"`

	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"token_expiry"`

	// Slack: the conversation to read during sync.
	Channel string `json:"channel,omitempty"`

	// IMAP
	ImapServer   string `json:"imap_server,omitempty"`
	ImapPort     int    `json:"imap_port,omitempty"`
	ImapUsername string `json:"imap_username,omitempty"`
	ImapPassword string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FCMToken represents a registered device token for push notifications
type FCMToken struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}
