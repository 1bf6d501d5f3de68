package ai

import "context"

// Analysis is the structured record produced by the classifier for one message.
type Analysis struct {
	Classification string   `json:"classification"`
	Summary        string   `json:"summary"`
	ActionItems    []string `json:"action_items"`
	Sentiment      string   `json:"sentiment"`
	UrgencyScore   int      `json:"urgency_score"`
	EffortEstimate string   `json:"effort_estimate"`
	Deadline       string   `json:"deadline"`
	ContextTags    []string `json:"context_tags"`
	Stakeholders   []string `json:"stakeholders"`
	BusinessImpact string   `json:"business_impact"`
	FollowUpNeeded bool     `json:"follow_up_needed"`
}

// Classifier is the interface for language-model-backed message analysis.
// Implement this interface to add new AI providers (Gemini, Ollama, etc.)
type Classifier interface {
	Classify(ctx context.Context, content, sourceType string) (*Analysis, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)

// DefaultAnalysis is the safe record used when the model returns output we
// cannot parse; degrading beats failing the whole item.
func DefaultAnalysis() *Analysis {
	return &Analysis{
		Classification: "fyi",
		Summary:        "",
		ActionItems:    []string{},
		Sentiment:      "neutral",
		UrgencyScore:   3,
		EffortEstimate: "unknown",
		Deadline:       "none",
		ContextTags:    []string{},
		Stakeholders:   []string{},
		BusinessImpact: "unknown",
		FollowUpNeeded: false,
	}
}

// sanitize clamps model output into the ranges the rest of the system assumes.
func sanitize(a *Analysis) *Analysis {
	if a.UrgencyScore < 1 {
		a.UrgencyScore = 1
	}
	if a.UrgencyScore > 5 {
		a.UrgencyScore = 5
	}
	if a.Classification == "" {
		a.Classification = "fyi"
	}
	if a.ActionItems == nil {
		a.ActionItems = []string{}
	}
	if a.ContextTags == nil {
		a.ContextTags = []string{}
	}
	if a.Stakeholders == nil {
		a.Stakeholders = []string{}
	}
	return a
}
