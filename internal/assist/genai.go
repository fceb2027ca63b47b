package assist

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// GenAIModel calls the Gemini API and asks for JSON-only responses.
type GenAIModel struct {
	client *genai.Client
	model  string
}

// NewGenAIModel creates a model provider backed by the hosted Gemini API.
func NewGenAIModel(ctx context.Context, apiKey, model string) (*GenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIModel{client: client, model: model}, nil
}

// GenerateJSON implements Model.
func (m *GenAIModel) GenerateJSON(ctx context.Context, req Request, out any) error {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, med := range req.Media {
		parts = append(parts, genai.NewPartFromBytes(med.Data, med.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("model call failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return fmt.Errorf("model returned empty response")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("model returned malformed JSON: %w", err)
	}
	return nil
}

// HealthPing verifies the API is reachable with a cheap token count call.
func (m *GenAIModel) HealthPing(ctx context.Context) error {
	contents := []*genai.Content{genai.NewContentFromText("ping", genai.RoleUser)}
	if _, err := m.client.Models.CountTokens(ctx, m.model, contents, nil); err != nil {
		return fmt.Errorf("genai ping failed: %w", err)
	}
	return nil
}
