package gmail

import (
	"encoding/base64"
	"errors"
	"net/http"
	"testing"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"triage-backend/internal/workitem/domain"
)

func TestDayQuery(t *testing.T) {
	start := time.Date(2026, 7, 24, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	got := DayQuery(start, end)
	want := "after:1784851200 before:1784937600"
	if got != want {
		t.Errorf("DayQuery = %q, want %q", got, want)
	}
}

func TestClassifyError(t *testing.T) {
	base := time.Second

	t.Run("401 is fatal", func(t *testing.T) {
		_, _, fatal := classifyError(&googleapi.Error{Code: 401}, base, 0)
		if !errors.Is(fatal, domain.ErrCredentialExpired) {
			t.Errorf("fatal = %v, want ErrCredentialExpired", fatal)
		}
	})

	t.Run("429 honors retry-after", func(t *testing.T) {
		header := http.Header{}
		header.Set("Retry-After", "7")
		delay, retry, fatal := classifyError(&googleapi.Error{Code: 429, Header: header}, base, 0)
		if fatal != nil || !retry {
			t.Fatalf("retry = %v fatal = %v, want retryable", retry, fatal)
		}
		if delay != 7*time.Second {
			t.Errorf("delay = %v, want 7s", delay)
		}
	})

	t.Run("429 without hint backs off", func(t *testing.T) {
		delay, retry, _ := classifyError(&googleapi.Error{Code: 429}, base, 2)
		if !retry || delay != 4*time.Second {
			t.Errorf("delay = %v retry = %v, want 4s backoff", delay, retry)
		}
	})

	t.Run("5xx backs off exponentially", func(t *testing.T) {
		delay, retry, fatal := classifyError(&googleapi.Error{Code: 503}, base, 1)
		if fatal != nil || !retry || delay != 2*time.Second {
			t.Errorf("delay = %v retry = %v fatal = %v, want 2s backoff", delay, retry, fatal)
		}
	})

	t.Run("4xx is terminal", func(t *testing.T) {
		_, retry, fatal := classifyError(&googleapi.Error{Code: 404}, base, 0)
		if retry || fatal != nil {
			t.Errorf("retry = %v fatal = %v, want terminal non-fatal", retry, fatal)
		}
	})

	t.Run("transport error retries", func(t *testing.T) {
		delay, retry, _ := classifyError(errors.New("connection reset"), base, 0)
		if !retry || delay != time.Second {
			t.Errorf("delay = %v retry = %v, want base backoff", delay, retry)
		}
	})
}

func TestConvertMessage(t *testing.T) {
	body := base64.URLEncoding.EncodeToString([]byte("meeting moved to 3pm"))
	msg := &gmailapi.Message{
		Id:           "msg-1",
		InternalDate: 1721822400000,
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "Subject", Value: "Schedule change"},
				{Name: "From", Value: "pm@example.com"},
			},
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: body}},
			},
		},
	}

	raw := convertMessage(msg)
	if raw.SourceID != "msg-1" {
		t.Errorf("SourceID = %q", raw.SourceID)
	}
	if raw.Subject != "Schedule change" || raw.Sender != "pm@example.com" {
		t.Errorf("headers = %q / %q", raw.Subject, raw.Sender)
	}
	if raw.Content != "meeting moved to 3pm" {
		t.Errorf("Content = %q", raw.Content)
	}
	if raw.Timestamp.Format != domain.TimestampEpochMillis || raw.Timestamp.Value != "1721822400000" {
		t.Errorf("Timestamp = %+v", raw.Timestamp)
	}
}

func TestExtractBodyPrefersPlainText(t *testing.T) {
	plain := base64.URLEncoding.EncodeToString([]byte("plain version"))
	html := base64.URLEncoding.EncodeToString([]byte("<p>html <b>version</b></p>"))

	payload := &gmailapi.MessagePart{
		Parts: []*gmailapi.MessagePart{
			{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: html}},
			{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: plain}},
		},
	}
	if got := extractBody(payload); got != "plain version" {
		t.Errorf("got %q, want the text/plain part", got)
	}

	htmlOnly := &gmailapi.MessagePart{
		Parts: []*gmailapi.MessagePart{
			{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: html}},
		},
	}
	if got := extractBody(htmlOnly); got != "html version" {
		t.Errorf("got %q, want stripped html", got)
	}
}
