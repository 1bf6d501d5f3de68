package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxContentLength = 5000

func buildPrompt(content, sourceType string) string {
	// Truncate to avoid token limits
	if len(content) > maxContentLength {
		content = content[:maxContentLength]
	}

	return fmt.Sprintf(`You are a work triage assistant. Analyze the following %s message and return ONLY a JSON object with exactly these fields:

{
  "classification": one of "urgent" | "action_required" | "waiting" | "fyi" | "low_priority",
  "summary": one-sentence summary,
  "action_items": array of short action strings,
  "sentiment": one of "positive" | "neutral" | "negative",
  "urgency_score": integer 1-5,
  "effort_estimate": one of "minutes" | "hours" | "days" | "unknown",
  "deadline": deadline mentioned in the message, or "none",
  "context_tags": array of topic tags,
  "stakeholders": array of people or teams mentioned,
  "business_impact": one of "high" | "medium" | "low" | "unknown",
  "follow_up_needed": boolean
}

Return ONLY the JSON object, no markdown fences, no other text.

MESSAGE:
%s`, sourceType, content)
}

// parseAnalysis extracts an Analysis from raw model text. Models wrap JSON in
// markdown fences or prepend prose often enough that we cut out the first
// top-level object before unmarshalling. Unparsable output degrades to the
// default record instead of failing the item.
func parseAnalysis(text string) *Analysis {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}

	var a Analysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return DefaultAnalysis()
	}
	return sanitize(&a)
}
