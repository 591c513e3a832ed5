// Package policy maps safety classifications to user-facing responses and
// escalation decisions. The engine is a pure lookup/render function: no I/O,
// no side effects, total over the category x severity product.
package policy

import (
	"github.com/storeassist/safety-platform/internal/safety"
)

// RecipientRole identifies a responder team for an escalated incident.
type RecipientRole string

const (
	RoleHR               RecipientRole = "hr"
	RoleSecurity         RecipientRole = "security"
	RoleMentalHealthTeam RecipientRole = "mental_health_team"
	RoleStoreManager     RecipientRole = "store_manager"
)

// EscalationPriority drives which routing topic an incident lands on.
type EscalationPriority string

const (
	PriorityNone              EscalationPriority = "none"
	PriorityMedium            EscalationPriority = "medium"
	PriorityHigh              EscalationPriority = "high"
	PriorityCritical          EscalationPriority = "critical"
	PriorityCriticalImmediate EscalationPriority = "critical_immediate"
)

// ResourceRef is a support resource surfaced to the user.
type ResourceRef struct {
	Name         string `json:"name"`
	Contact      string `json:"contact"`
	Availability string `json:"availability"`
}

// Response is the engine's decision for one classification.
type Response struct {
	Message            string             `json:"message"`
	SupportResources   []ResourceRef      `json:"support_resources"`
	RequiresEscalation bool               `json:"requires_escalation"`
	EscalationPriority EscalationPriority `json:"escalation_priority"`
	Recipients         []RecipientRole    `json:"recipients"`
	AllowContinuation  bool               `json:"allow_continuation"`
}

// Resources holds the contact strings rendered into response templates.
// Templates are parameterized only with these, never with user text.
type Resources struct {
	EAPPhone          string
	HRPhone           string
	SecurityExtension string
	CrisisLine        string
}

// DefaultResources returns placeholder contacts for development.
func DefaultResources() Resources {
	return Resources{
		EAPPhone:          "1-800-555-0199",
		HRPhone:           "1-800-555-0145",
		SecurityExtension: "Ext. 999",
		CrisisLine:        "988",
	}
}

// Engine renders policy responses from classifications.
type Engine struct {
	res Resources
}

// NewEngine creates a policy engine with the given resource contacts.
func NewEngine(res Resources) *Engine {
	if res.CrisisLine == "" {
		res.CrisisLine = "988"
	}
	return &Engine{res: res}
}

// GenerateResponse maps a classification to a response. Deterministic: the
// same classification always yields the same response.
func (e *Engine) GenerateResponse(c safety.Classification) Response {
	switch c.Category {
	case safety.CategoryProfanityOnly:
		return e.profanityResponse()
	case safety.CategoryEmotionalDistress:
		return e.distressResponse(c.Severity)
	case safety.CategorySelfHarmRisk:
		return e.selfHarmResponse(c.Severity)
	case safety.CategoryHarmToOthersRisk:
		return e.harmToOthersResponse(c.Severity)
	case safety.CategoryImminentDanger:
		return e.imminentDangerResponse()
	default:
		return e.safeResponse()
	}
}

func (e *Engine) safeResponse() Response {
	return Response{
		EscalationPriority: PriorityNone,
		AllowContinuation:  true,
	}
}

// profanityResponse redirects without shaming. The EAP resource is offered
// but nothing is reported.
func (e *Engine) profanityResponse() Response {
	return Response{
		Message:            profanityMessage,
		SupportResources:   []ResourceRef{e.eapResource()},
		EscalationPriority: PriorityNone,
		AllowContinuation:  true,
	}
}

func (e *Engine) distressResponse(sev safety.Severity) Response {
	resp := Response{
		Message:           renderDistressMessage(e.res),
		SupportResources:  []ResourceRef{e.eapResource(), e.hrResource()},
		AllowContinuation: true,
	}
	switch {
	case sev.Rank() <= safety.SeverityLow.Rank():
		resp.EscalationPriority = PriorityNone
	case sev == safety.SeverityMedium:
		resp.RequiresEscalation = true
		resp.EscalationPriority = PriorityMedium
		resp.Recipients = []RecipientRole{RoleHR}
	default: // High and Critical
		resp.RequiresEscalation = true
		resp.EscalationPriority = PriorityHigh
		resp.Recipients = []RecipientRole{RoleHR, RoleStoreManager}
	}
	return resp
}

func (e *Engine) selfHarmResponse(sev safety.Severity) Response {
	resp := Response{
		Message:            renderSelfHarmMessage(e.res),
		SupportResources:   []ResourceRef{e.crisisResource(), e.eapResource()},
		RequiresEscalation: true,
	}
	switch {
	case sev.Rank() <= safety.SeverityMedium.Rank():
		resp.EscalationPriority = PriorityHigh
		resp.Recipients = []RecipientRole{RoleHR, RoleMentalHealthTeam}
		resp.AllowContinuation = true
		if sev.Rank() < safety.SeverityMedium.Rank() {
			resp.EscalationPriority = PriorityMedium
		}
	case sev == safety.SeverityHigh:
		resp.EscalationPriority = PriorityHigh
		resp.Recipients = []RecipientRole{RoleHR, RoleMentalHealthTeam, RoleStoreManager}
		resp.AllowContinuation = false
	default: // Critical
		resp.EscalationPriority = PriorityCriticalImmediate
		resp.Recipients = []RecipientRole{RoleHR, RoleMentalHealthTeam, RoleStoreManager}
		resp.AllowContinuation = false
	}
	return resp
}

func (e *Engine) harmToOthersResponse(sev safety.Severity) Response {
	resp := Response{
		Message:            renderHarmToOthersMessage(e.res),
		SupportResources:   []ResourceRef{e.securityResource(), e.hrResource(), e.eapResource()},
		RequiresEscalation: true,
	}
	switch {
	case sev.Rank() <= safety.SeverityMedium.Rank():
		resp.EscalationPriority = PriorityHigh
		resp.Recipients = []RecipientRole{RoleHR}
		resp.AllowContinuation = true
		if sev.Rank() < safety.SeverityMedium.Rank() {
			resp.EscalationPriority = PriorityMedium
		}
	default: // High and Critical
		resp.EscalationPriority = PriorityCriticalImmediate
		resp.Recipients = []RecipientRole{RoleSecurity, RoleStoreManager, RoleHR}
		resp.AllowContinuation = false
	}
	return resp
}

// imminentDangerResponse surfaces external authorities in the message text.
// Emergency services are never auto-dialed.
func (e *Engine) imminentDangerResponse() Response {
	return Response{
		Message:            renderImminentDangerMessage(e.res),
		SupportResources:   []ResourceRef{e.crisisResource(), e.securityResource()},
		RequiresEscalation: true,
		EscalationPriority: PriorityCriticalImmediate,
		Recipients:         []RecipientRole{RoleSecurity, RoleStoreManager},
		AllowContinuation:  false,
	}
}

func (e *Engine) eapResource() ResourceRef {
	return ResourceRef{
		Name:         "Employee Assistance Program (EAP)",
		Contact:      e.res.EAPPhone,
		Availability: "24/7",
	}
}

func (e *Engine) hrResource() ResourceRef {
	return ResourceRef{
		Name:         "HR Support Line",
		Contact:      e.res.HRPhone,
		Availability: "Monday-Friday, 9am-5pm",
	}
}

func (e *Engine) securityResource() ResourceRef {
	return ResourceRef{
		Name:         "Store Security",
		Contact:      e.res.SecurityExtension,
		Availability: "Store hours",
	}
}

func (e *Engine) crisisResource() ResourceRef {
	return ResourceRef{
		Name:         "988 Suicide & Crisis Lifeline",
		Contact:      e.res.CrisisLine,
		Availability: "24/7",
	}
}
