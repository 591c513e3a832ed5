package safety

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	result AnalyzerResult
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(context.Context, string) (AnalyzerResult, error) {
	s.calls++
	return s.result, s.err
}

func newTestClassifier(analyzer SemanticAnalyzer) *Classifier {
	return NewClassifier(DefaultPatternLibrary(), analyzer, time.Second, nil)
}

func TestClassify_EmptyMessage(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(), "   ", Context{})
	assert.Equal(t, CategorySafeOperational, got.Category)
	assert.Equal(t, SeverityNone, got.Severity)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestClassify_OperationalQuestion(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(), "What is the return policy for opened electronics?", Context{})
	assert.Equal(t, CategorySafeOperational, got.Category)
	assert.Equal(t, SeverityNone, got.Severity)
	assert.Empty(t, got.DetectedPatterns)
}

func TestClassify_ProfanityOnly(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(), "This damn scanner is broken again", Context{})
	assert.Equal(t, CategoryProfanityOnly, got.Category)
	assert.Equal(t, SeverityLow, got.Severity)
	assert.Contains(t, got.DetectedPatterns, "profanity.mild")
}

func TestClassify_EmotionalDistress(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(), "I can't take it anymore, every shift is worse", Context{})
	assert.Equal(t, CategoryEmotionalDistress, got.Category)
	assert.Equal(t, SeverityMedium, got.Severity)
}

func TestClassify_DistressManyIndicatorsEscalates(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(),
		"I'm so stressed, completely overwhelmed, and at my limit", Context{})
	assert.Equal(t, CategoryEmotionalDistress, got.Category)
	assert.Equal(t, SeverityHigh, got.Severity)
}

func TestClassify_SelfHarm(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(), "I want to kill myself, I can't do this anymore", Context{})
	assert.Equal(t, CategorySelfHarmRisk, got.Category)
	assert.Equal(t, SeverityCritical, got.Severity)
	assert.Contains(t, got.DetectedPatterns, "selfharm.kill_self")
}

func TestClassify_SelfHarmImmediacyBumpsSeverity(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(), "I don't want to be here anymore, maybe tonight it ends", Context{})
	assert.Equal(t, CategorySelfHarmRisk, got.Category)
	// cant_go_on is medium; the timeframe bumps it to high.
	assert.Equal(t, SeverityHigh, got.Severity)
}

func TestClassify_HarmWithMeansAndTimeframe(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(), "I'm bringing a gun to work tomorrow", Context{})
	assert.Equal(t, CategoryHarmToOthersRisk, got.Category)
	assert.Equal(t, SeverityCritical, got.Severity)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestClassify_ImminentDanger(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(), "There's an active shooter near the registers, call 911", Context{})
	assert.Equal(t, CategoryImminentDanger, got.Category)
	assert.Equal(t, SeverityCritical, got.Severity)
}

// When several layers match, the most dangerous category wins regardless of
// relative confidence.
func TestClassify_PriorityOrdering(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(), "I will kill my boss and then kill myself", Context{})
	assert.Equal(t, CategoryHarmToOthersRisk, got.Category)
}

func TestClassify_NegatedThreatIsSafe(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(), "I'm not going to hurt anyone, I just need a break", Context{})
	assert.Equal(t, CategorySafeOperational, got.Category)
}

func TestClassify_SemanticOverridesSafe(t *testing.T) {
	stub := &stubAnalyzer{result: AnalyzerResult{
		Category:   CategoryEmotionalDistress,
		Confidence: 0.8,
		Reasoning:  "indirect language suggests distress",
	}}
	c := newTestClassifier(stub)

	got := c.Classify(context.Background(), "Everything is fine, just like it always is, forever", Context{})
	require.Equal(t, 1, stub.calls)
	assert.Equal(t, CategoryEmotionalDistress, got.Category)
	assert.Equal(t, SeverityMedium, got.Severity)
	assert.Equal(t, []string{"semantic_analysis"}, got.DetectedPatterns)
	assert.Contains(t, got.Reasoning, "semantic analysis")
}

func TestClassify_SemanticCannotDowngrade(t *testing.T) {
	stub := &stubAnalyzer{result: AnalyzerResult{Category: CategorySafeOperational, Confidence: 0.9}}
	c := newTestClassifier(stub)

	// at_limit matches at 0.6, under the semantic cutoff, so the analyzer
	// is consulted; its safer verdict must not win.
	got := c.Classify(context.Background(), "I'm desperate here", Context{})
	require.Equal(t, 1, stub.calls)
	assert.Equal(t, CategoryEmotionalDistress, got.Category)
}

func TestClassify_SemanticSkippedWhenConfident(t *testing.T) {
	stub := &stubAnalyzer{result: AnalyzerResult{Category: CategorySafeOperational, Confidence: 0.9}}
	c := newTestClassifier(stub)

	got := c.Classify(context.Background(), "I want to kill myself", Context{})
	assert.Equal(t, CategorySelfHarmRisk, got.Category)
	assert.Equal(t, 0, stub.calls)
}

func TestClassify_AnalyzerFailureFallsBack(t *testing.T) {
	stub := &stubAnalyzer{err: errors.New("model timeout")}
	c := newTestClassifier(stub)

	got := c.Classify(context.Background(), "Nothing matters anyway I guess", Context{})
	require.Equal(t, 1, stub.calls)
	assert.Equal(t, CategorySafeOperational, got.Category)
	assert.Equal(t, 0.5, got.Confidence)
	assert.Contains(t, got.Reasoning, "semantic analyzer unavailable")
}

func TestClassify_PatternOnlyMode(t *testing.T) {
	c := newTestClassifier(nil)
	got := c.Classify(context.Background(), "Just checking the schedule", Context{})
	assert.Equal(t, CategorySafeOperational, got.Category)
	assert.Equal(t, 0.95, got.Confidence)
}
