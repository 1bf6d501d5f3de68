package domain

import (
	"context"
	"errors"
	"time"
)

// SourceType identifies an external communication platform.
type SourceType string

const (
	SourceGmail SourceType = "gmail"
	SourceSlack SourceType = "slack"
	SourceIMAP  SourceType = "imap"
)

// TimestampFormat tags the native timestamp encoding of a source. Each source
// declares its format explicitly instead of every call site guessing.
type TimestampFormat string

const (
	TimestampEpochMillis  TimestampFormat = "epoch_ms"
	TimestampEpochSeconds TimestampFormat = "epoch_s"
	TimestampRFC3339      TimestampFormat = "rfc3339"
	TimestampUnknown      TimestampFormat = ""
)

// NativeTimestamp is a source timestamp in its original wire encoding.
// Parsing is the validator's job, not the fetcher's.
type NativeTimestamp struct {
	Format TimestampFormat
	Value  string
}

// RawMessage is an unprocessed message as returned by a source provider.
type RawMessage struct {
	SourceID  string
	Subject   string
	Content   string
	Sender    string
	Timestamp NativeTimestamp
}

// Credentials carries whatever a source provider needs to act on a user's
// behalf. Token refresh and expiry handling live with the auth collaborator.
type Credentials struct {
	AccessToken  string
	RefreshToken string

	// Slack: the conversation to read.
	Channel string

	// IMAP
	Server   string
	Port     int
	Username string
	Password string
}

// SourceProvider fetches raw messages from one external platform. When
// targetDay is non-nil the provider translates the UTC day window into its
// native query syntax. Providers return an empty slice (not an error) on
// missing credentials or malformed upstream payloads; only an expired
// credential is surfaced, as ErrCredentialExpired.
type SourceProvider interface {
	Source() SourceType
	FetchMessages(ctx context.Context, creds Credentials, targetDay *time.Time) ([]RawMessage, error)
}

// ErrCredentialExpired signals a 401 from the upstream source. It is never
// retried; the credential must be refreshed by the auth collaborator.
var ErrCredentialExpired = errors.New("source credential expired")

// ErrInvalidRange is returned when both range bounds are present and
// start is not strictly before end.
var ErrInvalidRange = errors.New("start must be before end")

// ErrUnknownSource is returned when a sync names a source with no provider.
var ErrUnknownSource = errors.New("unknown source")

// ErrNotFound is returned when a work item does not exist or belongs to
// another user.
var ErrNotFound = errors.New("work item not found")
