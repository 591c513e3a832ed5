package safety

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/storeassist/safety-platform/pkg/logging"
)

var classifierTracer = otel.Tracer("safetyplatform/classifier")

// semanticCutoff: below this pattern confidence the analyzer is consulted.
const semanticCutoff = 0.7

// cascadeOrder is the strict priority order of the classification layers.
// The first layer whose confidence clears its threshold wins.
var cascadeOrder = []Category{
	CategoryImminentDanger,
	CategoryHarmToOthersRisk,
	CategorySelfHarmRisk,
	CategoryEmotionalDistress,
	CategoryProfanityOnly,
}

// analyzerSeverity assigns a default severity to analyzer-derived categories,
// which only report category and confidence.
var analyzerSeverity = map[Category]Severity{
	CategorySafeOperational:   SeverityNone,
	CategoryProfanityOnly:     SeverityLow,
	CategoryEmotionalDistress: SeverityMedium,
	CategorySelfHarmRisk:      SeverityHigh,
	CategoryHarmToOthersRisk:  SeverityCritical,
	CategoryImminentDanger:    SeverityCritical,
}

// Classifier runs the pattern cascade and, when inconclusive, the semantic
// analyzer. It never returns an error: classification must not be the reason
// a user gets no response.
type Classifier struct {
	lib             *PatternLibrary
	analyzer        SemanticAnalyzer
	analyzerTimeout time.Duration
	logger          *logging.Logger
}

// NewClassifier creates a classifier. A nil analyzer means pattern-only mode.
func NewClassifier(lib *PatternLibrary, analyzer SemanticAnalyzer, analyzerTimeout time.Duration, logger *logging.Logger) *Classifier {
	if lib == nil {
		lib = DefaultPatternLibrary()
	}
	if analyzerTimeout <= 0 {
		analyzerTimeout = 3 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Classifier{
		lib:             lib,
		analyzer:        analyzer,
		analyzerTimeout: analyzerTimeout,
		logger:          logger,
	}
}

// Classify evaluates one message. Empty input is safe by definition.
func (c *Classifier) Classify(ctx context.Context, text string, mctx Context) Classification {
	ctx, span := classifierTracer.Start(ctx, "safety.classify")
	defer span.End()

	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Classification{
			Category:   CategorySafeOperational,
			Severity:   SeverityNone,
			Confidence: 1.0,
			Reasoning:  "empty message",
		}
	}

	result := c.cascade(text)
	result = c.foldSemantic(ctx, text, result)

	span.SetAttributes(
		attribute.String("safety.category", string(result.Category)),
		attribute.String("safety.severity", string(result.Severity)),
		attribute.Float64("safety.confidence", result.Confidence),
		attribute.Int("safety.pattern_count", len(result.DetectedPatterns)),
		attribute.String("safety.store_id", mctx.StoreID),
	)

	if result.Category != CategorySafeOperational {
		c.logger.Info("safety classification",
			"category", result.Category,
			"severity", result.Severity,
			"confidence", result.Confidence,
			"patterns", result.DetectedPatterns,
			"store_id", mctx.StoreID,
			"session_id", mctx.SessionID,
		)
	}

	return result
}

// cascade runs the fixed-order pattern layers and short-circuits at the first
// category that clears its threshold.
func (c *Classifier) cascade(text string) Classification {
	toks := tokenize(text)
	immediacy := hasImmediacy(text)
	means := hasMeans(text, toks)

	for _, cat := range cascadeOrder {
		m := c.lib.evaluate(cat, text, toks)
		if len(m.ruleIDs) == 0 {
			continue
		}

		switch cat {
		case CategoryHarmToOthersRisk:
			// Threats carrying a timeframe or a named weapon are credible.
			if immediacy || means {
				m.severity = SeverityCritical
				m.confidence += 0.1
			}
		case CategorySelfHarmRisk:
			// Plan or timeframe language escalates ideation.
			if immediacy {
				m.severity = m.severity.Bump()
			}
		case CategoryEmotionalDistress:
			if len(m.ruleIDs) >= 3 {
				m.severity = MaxSeverity(m.severity, SeverityHigh)
			}
		}
		if m.confidence > 1.0 {
			m.confidence = 1.0
		}

		if m.confidence < c.lib.Threshold(cat) {
			continue
		}

		return Classification{
			Category:         cat,
			Severity:         m.severity,
			Confidence:       m.confidence,
			DetectedPatterns: m.ruleIDs,
			Reasoning:        fmt.Sprintf("matched %d %s indicator(s), pattern library %s", len(m.ruleIDs), cat, c.lib.Version()),
		}
	}

	return Classification{
		Category:   CategorySafeOperational,
		Severity:   SeverityNone,
		Confidence: 0.95,
		Reasoning:  "no safety concerns detected",
	}
}

// foldSemantic consults the analyzer when the pattern result is safe or
// low-confidence, and keeps whichever result is more severe. Analyzer
// failures never surface: the pattern result stands, annotated when it was
// the safe default.
func (c *Classifier) foldSemantic(ctx context.Context, text string, pattern Classification) Classification {
	if c.analyzer == nil {
		return pattern
	}
	inconclusive := pattern.Category == CategorySafeOperational ||
		pattern.Confidence < semanticCutoff
	if !inconclusive {
		return pattern
	}

	actx, cancel := context.WithTimeout(ctx, c.analyzerTimeout)
	defer cancel()

	verdict, err := c.analyzer.Analyze(actx, text)
	if err != nil || !verdict.Category.Valid() {
		c.logger.Warn("semantic analyzer fallback", "error", err)
		if pattern.Category == CategorySafeOperational {
			pattern.Confidence = 0.5
			pattern.Reasoning = "no safety concerns detected (semantic analyzer unavailable)"
		}
		return pattern
	}

	semantic := Classification{
		Category:         verdict.Category,
		Severity:         analyzerSeverity[verdict.Category],
		Confidence:       verdict.Confidence,
		DetectedPatterns: []string{"semantic_analysis"},
		Reasoning:        "semantic analysis: " + verdict.Reasoning,
	}

	// Conservative bias: higher severity wins, then higher category rank.
	if semantic.Severity.Rank() > pattern.Severity.Rank() {
		return semantic
	}
	if semantic.Severity.Rank() == pattern.Severity.Rank() &&
		semantic.Category.Rank() > pattern.Category.Rank() {
		return semantic
	}
	return pattern
}
