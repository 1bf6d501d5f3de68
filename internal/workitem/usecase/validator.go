package usecase

import (
	"strconv"
	"strings"
	"time"

	"triage-backend/internal/workitem/domain"
)

// validRawMessage checks the minimal structure a message needs before it may
// enter the pipeline: a native identifier.
func validRawMessage(msg domain.RawMessage) bool {
	return strings.TrimSpace(msg.SourceID) != ""
}

// parseNativeTimestamp resolves a source timestamp into a point in time.
// Each source tags its encoding; an untagged value falls back to trying
// epoch-milliseconds first, then generic date-string parsing.
func parseNativeTimestamp(ts domain.NativeTimestamp) (time.Time, bool) {
	v := strings.TrimSpace(ts.Value)
	if v == "" {
		return time.Time{}, false
	}

	switch ts.Format {
	case domain.TimestampEpochMillis:
		return parseEpochMillis(v)
	case domain.TimestampEpochSeconds:
		return parseEpochSeconds(v)
	case domain.TimestampRFC3339:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		if t, ok := parseEpochMillis(v); ok {
			return t, true
		}
		for _, layout := range []string{time.RFC3339, time.RFC1123Z, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
}

func parseEpochMillis(v string) (time.Time, bool) {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

// parseEpochSeconds accepts a fractional part ("1721800000.123456").
func parseEpochSeconds(v string) (time.Time, bool) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return time.Time{}, false
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), true
}

// normalizeContent never drops a message purely for an empty body: automated
// senders legitimately send subject-only mail. The subject stands in, or a
// literal placeholder when there is no subject either.
func normalizeContent(msg domain.RawMessage) string {
	content := strings.TrimSpace(msg.Content)
	if content != "" {
		return content
	}
	if subject := strings.TrimSpace(msg.Subject); subject != "" {
		return subject
	}
	return "(no content)"
}

// validStoredItem filters corrupt rows out of the read path instead of
// crashing it.
func validStoredItem(item *domain.WorkItem) bool {
	return item != nil && item.ID != "" && item.UserID != ""
}
