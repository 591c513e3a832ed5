package safety

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrAnalyzerUnavailable indicates the semantic analyzer could not produce a
// result. Callers fall back to the pattern-only classification.
var ErrAnalyzerUnavailable = errors.New("safety: semantic analyzer unavailable")

// AnalyzerResult is a semantic analyzer's verdict for one message.
type AnalyzerResult struct {
	Category   Category
	Confidence float64
	Reasoning  string
}

// SemanticAnalyzer provides model-backed classification for messages the
// pattern cascade is unsure about. Implementations are external services and
// may fail or time out; the classifier treats every error as a silent
// fallback, never as a caller-visible failure.
type SemanticAnalyzer interface {
	Analyze(ctx context.Context, text string) (AnalyzerResult, error)
}

// NopAnalyzer is the pattern-only deployment stand-in.
type NopAnalyzer struct{}

func (NopAnalyzer) Analyze(context.Context, string) (AnalyzerResult, error) {
	return AnalyzerResult{}, ErrAnalyzerUnavailable
}

const analyzerPrompt = `You are a safety classifier for an enterprise workplace assistant.

Analyze this message from a retail employee and classify it into ONE category:

1. SAFE_OPERATIONAL - Normal work-related question
2. PROFANITY_ONLY - Contains profanity but no safety risk
3. EMOTIONAL_DISTRESS - Expressing stress, overwhelm, or emotional difficulty
4. SELF_HARM_RISK - Mentions or implies self-harm ideation
5. HARM_TO_OTHERS_RISK - Threatens or implies harm to others
6. IMMINENT_DANGER - Immediate safety risk

Message: %q

Respond in exactly this format:
CATEGORY: [category]
CONFIDENCE: [0.0-1.0]
REASONING: [brief explanation]

Be conservative: if uncertain between two categories, choose the more severe one.`

// buildAnalyzerPrompt renders the shared classification prompt.
func buildAnalyzerPrompt(text string) string {
	return fmt.Sprintf(analyzerPrompt, text)
}

var (
	categoryLineRe   = regexp.MustCompile(`(?i)CATEGORY:\s*([A-Z_]+)`)
	confidenceLineRe = regexp.MustCompile(`(?i)CONFIDENCE:\s*([\d.]+)`)
	reasoningLineRe  = regexp.MustCompile(`(?is)REASONING:\s*(.+)`)
)

// parseAnalyzerOutput extracts an AnalyzerResult from a model completion.
// Unparsable output is reported as unavailable rather than guessed at.
func parseAnalyzerOutput(raw string) (AnalyzerResult, error) {
	m := categoryLineRe.FindStringSubmatch(raw)
	if m == nil {
		return AnalyzerResult{}, fmt.Errorf("%w: no category in model output", ErrAnalyzerUnavailable)
	}

	cat := Category(strings.ToLower(m[1]))
	if !cat.Valid() {
		return AnalyzerResult{}, fmt.Errorf("%w: unknown category %q", ErrAnalyzerUnavailable, m[1])
	}

	confidence := 0.7
	if cm := confidenceLineRe.FindStringSubmatch(raw); cm != nil {
		if v, err := strconv.ParseFloat(cm[1], 64); err == nil && v >= 0 && v <= 1 {
			confidence = v
		}
	}

	reasoning := "semantic analysis"
	if rm := reasoningLineRe.FindStringSubmatch(raw); rm != nil {
		reasoning = strings.TrimSpace(rm[1])
	}

	return AnalyzerResult{Category: cat, Confidence: confidence, Reasoning: reasoning}, nil
}
