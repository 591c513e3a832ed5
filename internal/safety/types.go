package safety

// Category classifies the safety posture of an inbound message.
type Category string

const (
	CategorySafeOperational  Category = "safe_operational"
	CategoryProfanityOnly    Category = "profanity_only"
	CategoryEmotionalDistress Category = "emotional_distress"
	CategorySelfHarmRisk     Category = "self_harm_risk"
	CategoryHarmToOthersRisk Category = "harm_to_others_risk"
	CategoryImminentDanger   Category = "imminent_danger"
)

// categoryRank orders categories from least to most severe. Used for the
// conservative tie-break when folding in semantic analysis.
var categoryRank = map[Category]int{
	CategorySafeOperational:   0,
	CategoryProfanityOnly:     1,
	CategoryEmotionalDistress: 2,
	CategorySelfHarmRisk:      3,
	CategoryHarmToOthersRisk:  4,
	CategoryImminentDanger:    5,
}

// Rank returns the category's position in the severity ordering.
func (c Category) Rank() int {
	return categoryRank[c]
}

// Valid reports whether c is one of the closed set of categories.
func (c Category) Valid() bool {
	_, ok := categoryRank[c]
	return ok
}

// Severity grades how serious a classified message is.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the severity's position in the total order None < Low < Medium < High < Critical.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Bump raises the severity one level, saturating at Critical.
func (s Severity) Bump() Severity {
	switch s {
	case SeverityNone:
		return SeverityLow
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Classification is the immutable result of classifying one message.
type Classification struct {
	Category         Category `json:"category"`
	Severity         Severity `json:"severity"`
	Confidence       float64  `json:"confidence"`
	DetectedPatterns []string `json:"detected_patterns"`
	Reasoning        string   `json:"reasoning"`
}

// Context carries opaque operational identifiers alongside a message. None of
// these are anonymized; they are needed for incident correlation.
type Context struct {
	StoreID   string `json:"store_id,omitempty"`
	DeviceID  string `json:"device_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}
