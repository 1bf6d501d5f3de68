package ai

import (
	"strings"
	"testing"
)

func TestParseAnalysis(t *testing.T) {
	t.Run("clean json", func(t *testing.T) {
		a := parseAnalysis(`{"classification":"urgent","summary":"server down","urgency_score":5,"sentiment":"negative"}`)
		if a.Classification != "urgent" || a.UrgencyScore != 5 {
			t.Errorf("got %+v", a)
		}
	})

	t.Run("markdown fences", func(t *testing.T) {
		a := parseAnalysis("```json\n{\"classification\":\"waiting\",\"urgency_score\":2}\n```")
		if a.Classification != "waiting" || a.UrgencyScore != 2 {
			t.Errorf("got %+v", a)
		}
	})

	t.Run("prose around the object", func(t *testing.T) {
		a := parseAnalysis(`Here is the analysis: {"classification":"fyi","urgency_score":1} Hope that helps!`)
		if a.Classification != "fyi" || a.UrgencyScore != 1 {
			t.Errorf("got %+v", a)
		}
	})

	t.Run("garbage degrades to default", func(t *testing.T) {
		a := parseAnalysis("I could not process this message.")
		if a.Classification != "fyi" || a.UrgencyScore != 3 || a.Sentiment != "neutral" {
			t.Errorf("got %+v, want the default record", a)
		}
	})

	t.Run("urgency clamped into range", func(t *testing.T) {
		a := parseAnalysis(`{"classification":"urgent","urgency_score":11}`)
		if a.UrgencyScore != 5 {
			t.Errorf("UrgencyScore = %d, want clamped to 5", a.UrgencyScore)
		}
		a = parseAnalysis(`{"classification":"low_priority","urgency_score":0}`)
		if a.UrgencyScore != 1 {
			t.Errorf("UrgencyScore = %d, want clamped to 1", a.UrgencyScore)
		}
	})

	t.Run("nil slices normalized", func(t *testing.T) {
		a := parseAnalysis(`{"classification":"fyi","urgency_score":2}`)
		if a.ActionItems == nil || a.ContextTags == nil || a.Stakeholders == nil {
			t.Error("expected slice fields to be non-nil")
		}
	})
}

func TestBuildPromptTruncatesContent(t *testing.T) {
	long := strings.Repeat("a", maxContentLength+500)
	prompt := buildPrompt(long, "gmail")
	if strings.Count(prompt, "a") > maxContentLength {
		t.Error("expected content to be truncated")
	}
	if !strings.Contains(prompt, "gmail") {
		t.Error("expected source type in the prompt")
	}
}
