// Package pipeline composes classification, policy, and confidential
// reporting into the single entry point the API surface calls per message.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/storeassist/safety-platform/internal/observability/metrics"
	"github.com/storeassist/safety-platform/internal/policy"
	"github.com/storeassist/safety-platform/internal/report"
	"github.com/storeassist/safety-platform/internal/safety"
	"github.com/storeassist/safety-platform/pkg/logging"
)

// fallbackMessage is served when a report could not be filed for an
// escalating incident. Deliberately hardcoded: it must work when every
// backend is down, so it carries national resources only.
const fallbackMessage = "I'm having trouble reaching our support systems right now, but please don't wait on us. " +
	"If you or anyone else is in immediate danger, call 911. " +
	"The 988 Suicide & Crisis Lifeline is available 24/7 - call or text 988. " +
	"Please also reach out to your manager or HR directly."

// Request is one inbound message to evaluate.
type Request struct {
	UserID  string
	Message string
	Context safety.Context
}

// Response is the user-facing outcome for one message.
type Response struct {
	Message            string                    `json:"message,omitempty"`
	SupportResources   []policy.ResourceRef      `json:"support_resources,omitempty"`
	AllowContinuation  bool                      `json:"allow_continuation"`
	EscalationPriority policy.EscalationPriority `json:"escalation_priority"`
	Category           safety.Category           `json:"category"`
	Severity           safety.Severity           `json:"severity"`
	ReportID           string                    `json:"report_id,omitempty"`
}

// Pipeline runs classify, decide, report for each message.
type Pipeline struct {
	classifier *safety.Classifier
	engine     *policy.Engine
	reports    *report.Service
	metrics    *metrics.SafetyMetrics
	logger     *logging.Logger
}

// New creates a pipeline. Classifier, engine, and report service are
// required; metrics is optional.
func New(classifier *safety.Classifier, engine *policy.Engine, reports *report.Service, m *metrics.SafetyMetrics, logger *logging.Logger) *Pipeline {
	if classifier == nil {
		panic("pipeline: classifier cannot be nil")
	}
	if engine == nil {
		panic("pipeline: policy engine cannot be nil")
	}
	if reports == nil {
		panic("pipeline: report service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Pipeline{
		classifier: classifier,
		engine:     engine,
		reports:    reports,
		metrics:    m,
		logger:     logger,
	}
}

// HandleMessage evaluates one message end to end. It never returns an
// error: a user in crisis always gets a response, falling back to hardcoded
// resources when reporting infrastructure is unavailable.
func (p *Pipeline) HandleMessage(ctx context.Context, req Request) Response {
	classification := p.classifier.Classify(ctx, req.Message, req.Context)
	if p.metrics != nil {
		p.metrics.ClassificationObserved(string(classification.Category), string(classification.Severity))
	}

	decision := p.engine.GenerateResponse(classification)
	resp := Response{
		Message:            decision.Message,
		SupportResources:   decision.SupportResources,
		AllowContinuation:  decision.AllowContinuation,
		EscalationPriority: decision.EscalationPriority,
		Category:           classification.Category,
		Severity:           classification.Severity,
	}

	if !decision.RequiresEscalation {
		return resp
	}

	rep, err := p.reports.SubmitReport(ctx, report.SubmitInput{
		UserID:         req.UserID,
		Message:        req.Message,
		Context:        req.Context,
		Classification: classification,
		Decision:       decision,
	})
	switch {
	case err == nil, errors.Is(err, report.ErrPublish):
		// On ErrPublish the report is durable and operators were alerted;
		// the user flow continues unchanged.
		resp.ReportID = rep.ReportID
		resp.Message = fmt.Sprintf("%s\n\nReference: %s", decision.Message, rep.ReportID)
	default:
		p.logger.Error("report submission failed, serving fallback",
			"category", classification.Category,
			"severity", classification.Severity,
			"error", err,
		)
		resp.Message = fallbackMessage
	}
	return resp
}
