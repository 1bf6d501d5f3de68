package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"triage-backend/internal/workitem/domain"
	"triage-backend/pkg/dates"
)

const (
	maxAttempts  = 3
	pageSize     = 50
	fetchWorkers = 5
)

// Service fetches messages from the Gmail API as a triage source.
type Service struct {
	clientID     string
	clientSecret string
	limiter      *rate.Limiter
	retryBase    time.Duration
}

// NewService creates a Gmail source provider. Calls are spaced at least
// 200ms apart to stay under the per-user quota.
func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		limiter:      rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		retryBase:    time.Second,
	}
}

func (s *Service) Source() domain.SourceType {
	return domain.SourceGmail
}

// DayQuery translates a normalized UTC day window into Gmail's query syntax.
// Gmail's after:/before: operators take epoch seconds and behave as an
// inclusive start / exclusive end pair, matching the window directly.
func DayQuery(start, end time.Time) string {
	return fmt.Sprintf("after:%d before:%d", start.Unix(), end.Unix())
}

// FetchMessages returns raw messages for the user, scoped to targetDay when
// given. Missing credentials and malformed responses yield an empty slice;
// a 401 yields domain.ErrCredentialExpired.
func (s *Service) FetchMessages(ctx context.Context, creds domain.Credentials, targetDay *time.Time) ([]domain.RawMessage, error) {
	if creds.AccessToken == "" {
		log.Printf("[Gmail] no access token, skipping fetch")
		return []domain.RawMessage{}, nil
	}

	srv, err := s.newGmailService(ctx, creds)
	if err != nil {
		log.Printf("[Gmail] unable to create service: %v", err)
		return []domain.RawMessage{}, nil
	}

	q := ""
	if targetDay != nil {
		if start, end, ok := dates.UTCDayBounds(*targetDay); ok {
			q = DayQuery(start, end)
		}
	}

	listCall := srv.Users.Messages.List("me").MaxResults(pageSize)
	if q != "" {
		listCall = listCall.Q(q)
	}

	var listResp *gmail.ListMessagesResponse
	err = s.withRetry(ctx, func() error {
		var callErr error
		listResp, callErr = listCall.Do()
		return callErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrCredentialExpired) {
			return nil, err
		}
		log.Printf("[Gmail] list failed after retries: %v", err)
		return []domain.RawMessage{}, nil
	}

	// Fetch full messages in parallel with a bounded worker count.
	type fetchResult struct {
		msg *domain.RawMessage
		err error
	}
	results := make(chan fetchResult, len(listResp.Messages))
	semaphore := make(chan struct{}, fetchWorkers)

	for _, m := range listResp.Messages {
		go func(msgID string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			var full *gmail.Message
			err := s.withRetry(ctx, func() error {
				var callErr error
				full, callErr = srv.Users.Messages.Get("me", msgID).Format("full").Do()
				return callErr
			})
			if err != nil {
				results <- fetchResult{nil, err}
				return
			}
			raw := convertMessage(full)
			results <- fetchResult{&raw, nil}
		}(m.Id)
	}

	messages := make([]domain.RawMessage, 0, len(listResp.Messages))
	for range listResp.Messages {
		r := <-results
		if r.err != nil {
			if errors.Is(r.err, domain.ErrCredentialExpired) {
				return nil, r.err
			}
			log.Printf("[Gmail] skipping message: %v", r.err)
			continue
		}
		messages = append(messages, *r.msg)
	}

	return messages, nil
}

func (s *Service) newGmailService(ctx context.Context, creds domain.Credentials) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	client := oauth2.NewClient(ctx, config.TokenSource(ctx, token))
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}
	return srv, nil
}

// withRetry runs call up to maxAttempts times, waiting on the rate limiter
// before each attempt. 429s honor the Retry-After hint, 5xx backs off
// exponentially, 401 aborts immediately as ErrCredentialExpired.
func (s *Service) withRetry(ctx context.Context, call func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		delay, retry, fatal := classifyError(err, s.retryBase, attempt)
		if fatal != nil {
			return fatal
		}
		if !retry {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// classifyError decides how to handle an API error: a fatal credential error,
// a retryable status with its delay, or a terminal failure.
func classifyError(err error, base time.Duration, attempt int) (delay time.Duration, retry bool, fatal error) {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		// Transport-level failure, retry with backoff.
		return base << attempt, true, nil
	}

	switch {
	case gerr.Code == 401:
		return 0, false, domain.ErrCredentialExpired
	case gerr.Code == 429:
		if ra := gerr.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second, true, nil
			}
		}
		return base << attempt, true, nil
	case gerr.Code >= 500:
		return base << attempt, true, nil
	default:
		return 0, false, nil
	}
}

func convertMessage(msg *gmail.Message) domain.RawMessage {
	return domain.RawMessage{
		SourceID: msg.Id,
		Subject:  getHeader(msg.Payload, "Subject"),
		Sender:   getHeader(msg.Payload, "From"),
		Content:  extractBody(msg.Payload),
		Timestamp: domain.NativeTimestamp{
			Format: domain.TimestampEpochMillis,
			Value:  strconv.FormatInt(msg.InternalDate, 10),
		},
	}
}

func getHeader(payload *gmail.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, header := range payload.Headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// extractBody pulls the text content of a message, preferring text/plain
// parts and stripping tags from text/html fallbacks.
func extractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	var plainBody, htmlBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part == nil {
				continue
			}
			if part.Body != nil && part.Body.Data != "" {
				data, err := base64.URLEncoding.DecodeString(part.Body.Data)
				if err == nil {
					switch part.MimeType {
					case "text/plain":
						if plainBody == "" {
							plainBody = string(data)
						}
					case "text/html":
						if htmlBody == "" {
							htmlBody = string(data)
						}
					}
				}
			}
			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}
	findBody(append([]*gmail.MessagePart{payload}, payload.Parts...))

	if plainBody != "" {
		return plainBody
	}
	if htmlBody != "" {
		stripped := tagPattern.ReplaceAllString(htmlBody, " ")
		return strings.Join(strings.Fields(stripped), " ")
	}
	return ""
}
