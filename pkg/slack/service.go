package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"triage-backend/internal/workitem/domain"
	"triage-backend/pkg/dates"
)

const (
	maxAttempts = 3
	pageLimit   = 50
)

// Service fetches messages from a Slack workspace as a triage source.
// It reads the conversation configured on the user's connected account.
type Service struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryBase  time.Duration
}

// NewService creates a Slack source provider against the public API.
func NewService() *Service {
	return NewServiceWithBaseURL("https://slack.com/api")
}

// NewServiceWithBaseURL exists so tests can point the provider at a local server.
func NewServiceWithBaseURL(baseURL string) *Service {
	return &Service{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(1200*time.Millisecond), 1),
		retryBase:  time.Second,
	}
}

func (s *Service) Source() domain.SourceType {
	return domain.SourceSlack
}

// DayParams translates a normalized UTC day window into Slack's
// conversations.history form values. Slack timestamps are epoch seconds
// with a fractional part; oldest is inclusive and latest exclusive.
func DayParams(start, end time.Time) (oldest, latest string) {
	return fmt.Sprintf("%d.000000", start.Unix()), fmt.Sprintf("%d.000000", end.Unix())
}

type historyResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Messages []struct {
		Type string `json:"type"`
		User string `json:"user"`
		Text string `json:"text"`
		TS   string `json:"ts"`
	} `json:"messages"`
}

// FetchMessages returns raw messages from the configured conversation,
// scoped to targetDay when given. Missing credentials and malformed
// payloads yield an empty slice; a revoked token yields
// domain.ErrCredentialExpired.
func (s *Service) FetchMessages(ctx context.Context, creds domain.Credentials, targetDay *time.Time) ([]domain.RawMessage, error) {
	if creds.AccessToken == "" || creds.Channel == "" {
		log.Printf("[Slack] missing token or channel, skipping fetch")
		return []domain.RawMessage{}, nil
	}

	form := url.Values{}
	form.Set("channel", creds.Channel)
	form.Set("limit", strconv.Itoa(pageLimit))
	if targetDay != nil {
		if start, end, ok := dates.UTCDayBounds(*targetDay); ok {
			oldest, latest := DayParams(start, end)
			form.Set("oldest", oldest)
			form.Set("latest", latest)
			form.Set("inclusive", "true")
		}
	}

	body, err := s.postWithRetry(ctx, "/conversations.history", creds.AccessToken, form)
	if err != nil {
		if err == domain.ErrCredentialExpired {
			return nil, err
		}
		log.Printf("[Slack] history failed after retries: %v", err)
		return []domain.RawMessage{}, nil
	}

	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Printf("[Slack] malformed response: %v", err)
		return []domain.RawMessage{}, nil
	}
	if !resp.OK {
		if resp.Error == "invalid_auth" || resp.Error == "token_revoked" || resp.Error == "token_expired" {
			return nil, domain.ErrCredentialExpired
		}
		log.Printf("[Slack] API error: %s", resp.Error)
		return []domain.RawMessage{}, nil
	}

	messages := make([]domain.RawMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		if m.Type != "message" || m.TS == "" {
			continue
		}
		messages = append(messages, domain.RawMessage{
			// A Slack message is identified by its ts within the channel.
			SourceID: creds.Channel + ":" + m.TS,
			Content:  m.Text,
			Sender:   m.User,
			Timestamp: domain.NativeTimestamp{
				Format: domain.TimestampEpochSeconds,
				Value:  m.TS,
			},
		})
	}
	return messages, nil
}

// postWithRetry posts the form up to maxAttempts times. 429 honors the
// Retry-After header, 5xx backs off exponentially, 401 aborts immediately.
func (s *Service) postWithRetry(ctx context.Context, path, token string, form url.Values) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+path, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryBase << attempt):
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, domain.ErrCredentialExpired
		case resp.StatusCode == http.StatusTooManyRequests:
			delay := s.retryBase << attempt
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
					delay = time.Duration(secs) * time.Second
				}
			}
			lastErr = fmt.Errorf("rate limited (429)")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error (%d)", resp.StatusCode)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryBase << attempt):
			}
			continue
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		if readErr != nil {
			return nil, readErr
		}
		return body, nil
	}
	return nil, lastErr
}
