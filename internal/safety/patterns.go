package safety

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// RuleConfig is the declarative form of one detection rule.
type RuleConfig struct {
	ID        string   `json:"id"`
	Category  Category `json:"category"`
	Pattern   string   `json:"pattern"`
	Weight    float64  `json:"weight"`
	Severity  Severity `json:"severity"`
	Negatable bool     `json:"negatable,omitempty"`
}

// PatternConfig is the versioned, declarative pattern library. It is what
// gets stored in S3 for hot-swapping; LoadPatternLibrary compiles it.
type PatternConfig struct {
	Version        string               `json:"version"`
	NegationWindow int                  `json:"negation_window"`
	Thresholds     map[Category]float64 `json:"thresholds"`
	Rules          []RuleConfig         `json:"rules"`
}

type rule struct {
	id        string
	re        *regexp.Regexp
	weight    float64
	severity  Severity
	negatable bool
}

// PatternLibrary is an immutable compiled rule set. Construct once, share
// freely across goroutines.
type PatternLibrary struct {
	version        string
	negationWindow int
	thresholds     map[Category]float64
	rules          map[Category][]*rule
}

// negators cancel a nearby negatable match ("not going to hurt anyone").
var negators = map[string]struct{}{
	"not": {}, "never": {}, "no": {}, "nobody": {}, "without": {},
	"won't": {}, "wont": {}, "wouldn't": {}, "wouldnt": {},
	"don't": {}, "dont": {}, "doesn't": {}, "doesnt": {},
	"isn't": {}, "isnt": {}, "aren't": {}, "arent": {},
}

// immediacyTerms signal a time-bound threat or an active emergency.
var immediacyTerms = []string{
	"right now", "today", "tonight", "tomorrow", "about to", "going to", "gonna",
}

// meansTerms signal access to a weapon alongside a threat.
var meansTerms = []string{"gun", "weapon", "knife", "firearm"}

// LoadPatternLibrary compiles a declarative config into an immutable library.
func LoadPatternLibrary(cfg PatternConfig) (*PatternLibrary, error) {
	if len(cfg.Rules) == 0 {
		return nil, fmt.Errorf("safety: pattern config %q has no rules", cfg.Version)
	}

	lib := &PatternLibrary{
		version:        cfg.Version,
		negationWindow: cfg.NegationWindow,
		thresholds:     make(map[Category]float64, len(cfg.Thresholds)),
		rules:          make(map[Category][]*rule),
	}
	if lib.version == "" {
		lib.version = "unversioned"
	}
	if lib.negationWindow <= 0 {
		lib.negationWindow = 4
	}

	for cat, th := range cfg.Thresholds {
		if !cat.Valid() {
			return nil, fmt.Errorf("safety: threshold for unknown category %q", cat)
		}
		if th <= 0 || th > 1 {
			return nil, fmt.Errorf("safety: threshold %.2f for %s out of range", th, cat)
		}
		lib.thresholds[cat] = th
	}

	seen := make(map[string]struct{}, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		if rc.ID == "" {
			return nil, fmt.Errorf("safety: rule with pattern %q has no id", rc.Pattern)
		}
		if _, dup := seen[rc.ID]; dup {
			return nil, fmt.Errorf("safety: duplicate rule id %q", rc.ID)
		}
		seen[rc.ID] = struct{}{}
		if !rc.Category.Valid() || rc.Category == CategorySafeOperational {
			return nil, fmt.Errorf("safety: rule %q has invalid category %q", rc.ID, rc.Category)
		}
		if rc.Weight <= 0 || rc.Weight > 1 {
			return nil, fmt.Errorf("safety: rule %q weight %.2f out of range", rc.ID, rc.Weight)
		}
		re, err := regexp.Compile("(?i)" + rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("safety: rule %q: %w", rc.ID, err)
		}
		sev := rc.Severity
		if sev == "" {
			sev = SeverityMedium
		}
		lib.rules[rc.Category] = append(lib.rules[rc.Category], &rule{
			id:        rc.ID,
			re:        re,
			weight:    rc.Weight,
			severity:  sev,
			negatable: rc.Negatable,
		})
	}

	return lib, nil
}

// MustLoadPatternLibrary panics on an invalid config. Only for built-in configs.
func MustLoadPatternLibrary(cfg PatternConfig) *PatternLibrary {
	lib, err := LoadPatternLibrary(cfg)
	if err != nil {
		panic(err)
	}
	return lib
}

// Version returns the library's config version string.
func (l *PatternLibrary) Version() string {
	return l.version
}

// Threshold returns the confidence cutoff for a category.
func (l *PatternLibrary) Threshold(cat Category) float64 {
	if th, ok := l.thresholds[cat]; ok {
		return th
	}
	return 0.5
}

// layerMatch is the outcome of evaluating one category's rules against a message.
type layerMatch struct {
	ruleIDs    []string
	confidence float64
	severity   Severity
}

// evaluate runs every rule for cat against the message. A negatable rule whose
// match sits within negationWindow tokens of a negator does not count.
func (l *PatternLibrary) evaluate(cat Category, text string, toks []token) layerMatch {
	var out layerMatch
	out.severity = SeverityNone

	maxWeight := 0.0
	for _, r := range l.rules[cat] {
		loc := r.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if r.negatable && l.negatedAt(toks, loc[0]) {
			continue
		}
		out.ruleIDs = append(out.ruleIDs, r.id)
		if r.weight > maxWeight {
			maxWeight = r.weight
		}
		out.severity = MaxSeverity(out.severity, r.severity)
	}

	if len(out.ruleIDs) == 0 {
		return out
	}

	// Multiple distinct rules compound confidence, capped at 1.0.
	out.confidence = maxWeight + float64(len(out.ruleIDs)-1)*0.1
	if out.confidence > 1.0 {
		out.confidence = 1.0
	}
	return out
}

// negatedAt reports whether a negator appears within the negation window of
// tokens preceding the match at byte offset off.
func (l *PatternLibrary) negatedAt(toks []token, off int) bool {
	idx := len(toks)
	for i, t := range toks {
		if t.start >= off {
			idx = i
			break
		}
	}
	lo := idx - l.negationWindow
	if lo < 0 {
		lo = 0
	}
	for _, t := range toks[lo:idx] {
		if _, ok := negators[t.word]; ok {
			return true
		}
	}
	return false
}

type token struct {
	word  string
	start int
}

// tokenize splits lowered text into words with byte offsets, keeping
// apostrophes so contractions like "won't" survive.
func tokenize(text string) []token {
	var toks []token
	start := -1
	for i, r := range text {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
		if isWord && start < 0 {
			start = i
		}
		if !isWord && start >= 0 {
			toks = append(toks, token{word: text[start:i], start: start})
			start = -1
		}
	}
	if start >= 0 {
		toks = append(toks, token{word: text[start:], start: start})
	}
	return toks
}

// hasImmediacy reports whether the message contains a time-bound marker.
func hasImmediacy(text string) bool {
	for _, term := range immediacyTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// hasMeans reports whether the message names a weapon.
func hasMeans(text string, toks []token) bool {
	for _, t := range toks {
		for _, m := range meansTerms {
			if t.word == m || t.word == m+"s" {
				return true
			}
		}
	}
	_ = text
	return false
}

// DefaultPatternConfig is the built-in library shipped with the service.
// Deployments override it with a versioned config from S3.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		Version:        "builtin-v1",
		NegationWindow: 4,
		Thresholds: map[Category]float64{
			CategoryImminentDanger:    0.50,
			CategoryHarmToOthersRisk:  0.50,
			CategorySelfHarmRisk:      0.45,
			CategoryEmotionalDistress: 0.40,
			CategoryProfanityOnly:     0.30,
		},
		Rules: []RuleConfig{
			// Active emergencies. Not negatable: "there's no fire" is rare
			// enough that a false escalation beats a missed one.
			{ID: "danger.active_shooter", Category: CategoryImminentDanger, Pattern: `\b(active shooter|shots fired|shooting (in|at) the)\b`, Weight: 0.95, Severity: SeverityCritical},
			{ID: "danger.weapon_present", Category: CategoryImminentDanger, Pattern: `\b(has|have|got|holding|pulled( out)?) a (gun|knife|weapon)\b`, Weight: 0.9, Severity: SeverityCritical},
			{ID: "danger.fire", Category: CategoryImminentDanger, Pattern: `\b(there('s| is) a fire|building is on fire|fire in the (store|building|stockroom|backroom))\b`, Weight: 0.9, Severity: SeverityCritical},
			{ID: "danger.medical", Category: CategoryImminentDanger, Pattern: `\b(collapsed|not breathing|unconscious|having a (seizure|heart attack)|overdosing)\b`, Weight: 0.85, Severity: SeverityCritical},
			{ID: "danger.emergency_call", Category: CategoryImminentDanger, Pattern: `\b(call 911|need an ambulance|medical emergency)\b`, Weight: 0.8, Severity: SeverityCritical},

			// Threats to others.
			{ID: "harm.kill_target", Category: CategoryHarmToOthersRisk, Pattern: `\b(kill|murder) (him|her|them|you|everyone|my (boss|manager|coworker|supervisor))\b`, Weight: 0.9, Severity: SeverityCritical, Negatable: true},
			{ID: "harm.shoot_up", Category: CategoryHarmToOthersRisk, Pattern: `\bshoot up (the |this |my )?(store|place|work|building)\b`, Weight: 0.95, Severity: SeverityCritical},
			{ID: "harm.bring_weapon", Category: CategoryHarmToOthersRisk, Pattern: `\b(bring|bringing) a (gun|weapon|knife)\b`, Weight: 0.9, Severity: SeverityCritical},
			{ID: "harm.violent_intent", Category: CategoryHarmToOthersRisk, Pattern: `\b(hurt|beat up|attack|stab|shoot|strangle) (him|her|them|you|someone|somebody|anyone|people|my (boss|manager|coworker|supervisor))\b`, Weight: 0.8, Severity: SeverityHigh, Negatable: true},
			{ID: "harm.revenge", Category: CategoryHarmToOthersRisk, Pattern: `\b(make (them|him|her) pay|get revenge|teach (them|him|her) a lesson)\b`, Weight: 0.6, Severity: SeverityMedium, Negatable: true},

			// Self-harm ideation, intent and plan language. Thresholds for
			// this layer run low on purpose: false positives are preferred.
			{ID: "selfharm.kill_self", Category: CategorySelfHarmRisk, Pattern: `\bkill(ing)? myself\b`, Weight: 0.95, Severity: SeverityCritical, Negatable: true},
			{ID: "selfharm.end_life", Category: CategorySelfHarmRisk, Pattern: `\bend (my|it) (life|all)\b`, Weight: 0.9, Severity: SeverityCritical, Negatable: true},
			{ID: "selfharm.suicide", Category: CategorySelfHarmRisk, Pattern: `\b(suicide|suicidal)\b`, Weight: 0.85, Severity: SeverityHigh, Negatable: true},
			{ID: "selfharm.want_to_die", Category: CategorySelfHarmRisk, Pattern: `\bwant to die\b`, Weight: 0.9, Severity: SeverityHigh, Negatable: true},
			{ID: "selfharm.hurt_self", Category: CategorySelfHarmRisk, Pattern: `\b(hurt|cut|harm)(ing)? myself\b`, Weight: 0.8, Severity: SeverityHigh, Negatable: true},
			{ID: "selfharm.not_worth_living", Category: CategorySelfHarmRisk, Pattern: `\b(no reason to live|life (isn'?t|is not) worth|better off dead)\b`, Weight: 0.75, Severity: SeverityHigh},
			{ID: "selfharm.cant_go_on", Category: CategorySelfHarmRisk, Pattern: `\b(can'?t go on|don'?t want to (live|be here)( anymore)?)\b`, Weight: 0.7, Severity: SeverityMedium},
			{ID: "selfharm.goodbye", Category: CategorySelfHarmRisk, Pattern: `\bgoodbye world\b`, Weight: 0.6, Severity: SeverityMedium},

			// Distress without harm markers.
			{ID: "distress.panic", Category: CategoryEmotionalDistress, Pattern: `\b(panic attack|anxiety attack|mental breakdown|breaking down|falling apart)\b`, Weight: 0.8, Severity: SeverityMedium},
			{ID: "distress.cant_take_it", Category: CategoryEmotionalDistress, Pattern: `\bcan'?t (take|do|handle) (it|this)( anymore)?\b`, Weight: 0.7, Severity: SeverityMedium},
			{ID: "distress.hopeless", Category: CategoryEmotionalDistress, Pattern: `\b(hopeless|worthless|hate myself)\b`, Weight: 0.7, Severity: SeverityMedium},
			{ID: "distress.crying", Category: CategoryEmotionalDistress, Pattern: `\bcan'?t stop crying\b`, Weight: 0.7, Severity: SeverityMedium},
			{ID: "distress.overwhelmed", Category: CategoryEmotionalDistress, Pattern: `\b(overwhelm(ed|ing)|drowning|suffocating)\b`, Weight: 0.65, Severity: SeverityMedium},
			{ID: "distress.at_limit", Category: CategoryEmotionalDistress, Pattern: `\b(at my limit|breaking point|last straw|desperate)\b`, Weight: 0.6, Severity: SeverityLow},
			{ID: "distress.stressed", Category: CategoryEmotionalDistress, Pattern: `\b(so stressed|stressed out|burn(ed|t) out)\b`, Weight: 0.55, Severity: SeverityLow},

			// Profanity with no safety markers.
			{ID: "profanity.strong", Category: CategoryProfanityOnly, Pattern: `\b(f[u*]ck\w*|sh[i*]t\w*|b[i*]tch\w*|[a@]sshole\w*)\b`, Weight: 0.9, Severity: SeverityLow},
			{ID: "profanity.mild", Category: CategoryProfanityOnly, Pattern: `\b(damn|dammit|goddamn|crap|piss(ed)?( off)?|bastard)\b`, Weight: 0.7, Severity: SeverityLow},
		},
	}
}

// DefaultPatternLibrary compiles the built-in config.
func DefaultPatternLibrary() *PatternLibrary {
	return MustLoadPatternLibrary(DefaultPatternConfig())
}
