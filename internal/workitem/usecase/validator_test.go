package usecase

import (
	"testing"
	"time"

	"triage-backend/internal/workitem/domain"
)

func TestParseNativeTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		ts     domain.NativeTimestamp
		want   time.Time
		wantOK bool
	}{
		{
			name:   "epoch millis",
			ts:     domain.NativeTimestamp{Format: domain.TimestampEpochMillis, Value: "1721822400000"},
			want:   time.Date(2024, 7, 24, 12, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "epoch seconds with fraction",
			ts:     domain.NativeTimestamp{Format: domain.TimestampEpochSeconds, Value: "1721822400.500000"},
			want:   time.Date(2024, 7, 24, 12, 0, 0, 500000000, time.UTC),
			wantOK: true,
		},
		{
			name:   "rfc3339",
			ts:     domain.NativeTimestamp{Format: domain.TimestampRFC3339, Value: "2024-07-24T12:00:00Z"},
			want:   time.Date(2024, 7, 24, 12, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "unknown format tries epoch millis first",
			ts:     domain.NativeTimestamp{Value: "1721822400000"},
			want:   time.Date(2024, 7, 24, 12, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "unknown format falls back to date string",
			ts:     domain.NativeTimestamp{Value: "2024-07-24"},
			want:   time.Date(2024, 7, 24, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "empty value",
			ts:     domain.NativeTimestamp{Format: domain.TimestampEpochMillis, Value: ""},
			wantOK: false,
		},
		{
			name:   "garbage",
			ts:     domain.NativeTimestamp{Format: domain.TimestampEpochMillis, Value: "not-a-number"},
			wantOK: false,
		},
		{
			name:   "negative epoch rejected",
			ts:     domain.NativeTimestamp{Format: domain.TimestampEpochSeconds, Value: "-5"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseNativeTimestamp(tt.ts)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidRawMessage(t *testing.T) {
	if validRawMessage(domain.RawMessage{SourceID: "  "}) {
		t.Error("blank source id should be invalid")
	}
	if !validRawMessage(domain.RawMessage{SourceID: "msg-1"}) {
		t.Error("message with source id should be valid")
	}
}

func TestNormalizeContent(t *testing.T) {
	tests := []struct {
		name string
		msg  domain.RawMessage
		want string
	}{
		{"body wins", domain.RawMessage{Subject: "s", Content: "body"}, "body"},
		{"subject stands in for empty body", domain.RawMessage{Subject: "Quarterly review", Content: "  "}, "Quarterly review"},
		{"placeholder when both empty", domain.RawMessage{}, "(no content)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeContent(tt.msg); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidStoredItem(t *testing.T) {
	if validStoredItem(nil) {
		t.Error("nil item should be invalid")
	}
	if validStoredItem(&domain.WorkItem{ID: "a"}) {
		t.Error("missing user id should be invalid")
	}
	if !validStoredItem(&domain.WorkItem{ID: "a", UserID: "u"}) {
		t.Error("item with id and user id should be valid")
	}
}
