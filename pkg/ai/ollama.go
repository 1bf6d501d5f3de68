package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaService implements Classifier using an Ollama local LLM. Base URL and
// model are read through getters on every call so the settings API can change
// them at runtime.
type OllamaService struct {
	baseURL func() string
	model   func() string
}

// NewOllamaService creates a new Ollama service with fixed settings
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaService{
		baseURL: func() string { return baseURL },
		model:   func() string { return model },
	}
}

// NewDynamicOllamaService creates an Ollama service whose settings are
// resolved per request
func NewDynamicOllamaService(getBaseURL, getModel func() string) *OllamaService {
	return &OllamaService{baseURL: getBaseURL, model: getModel}
}

// Classify analyzes a message with the local model. Output that fails to parse
// degrades to DefaultAnalysis, same as the Gemini provider.
func (o *OllamaService) Classify(ctx context.Context, content, sourceType string) (*Analysis, error) {
	url := o.baseURL() + "/api/generate"

	payload := map[string]interface{}{
		"model":  o.model(),
		"prompt": buildPrompt(content, sourceType),
		"stream": false,
		"format": "json",
		"options": map[string]interface{}{
			"temperature": 0.2,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return DefaultAnalysis(), nil
	}

	return parseAnalysis(result.Response), nil
}
