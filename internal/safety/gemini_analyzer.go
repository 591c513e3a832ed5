package safety

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiAnalyzer runs semantic classification on Google's Gemini API.
type GeminiAnalyzer struct {
	client  *genai.Client
	modelID string
}

// NewGeminiAnalyzer creates a Gemini-backed analyzer.
func NewGeminiAnalyzer(ctx context.Context, apiKey, modelID string) (*GeminiAnalyzer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("safety: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("safety: failed to create gemini client: %w", err)
	}

	return &GeminiAnalyzer{client: client, modelID: modelID}, nil
}

// Analyze sends the classification prompt to the model and parses its verdict.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, text string) (AnalyzerResult, error) {
	model := a.client.GenerativeModel(a.modelID)
	model.SetTemperature(0.1)
	model.SetMaxOutputTokens(200)

	resp, err := model.GenerateContent(ctx, genai.Text(buildAnalyzerPrompt(text)))
	if err != nil {
		return AnalyzerResult{}, fmt.Errorf("%w: %v", ErrAnalyzerUnavailable, err)
	}

	raw := geminiOutputText(resp)
	if raw == "" {
		return AnalyzerResult{}, fmt.Errorf("%w: empty gemini completion", ErrAnalyzerUnavailable)
	}
	return parseAnalyzerOutput(raw)
}

// Close releases the underlying API client.
func (a *GeminiAnalyzer) Close() error {
	return a.client.Close()
}

func geminiOutputText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
