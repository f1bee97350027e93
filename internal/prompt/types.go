package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// Domain selects the built-in template pair and system persona.
type Domain string

const (
	// DomainMedical is the default domain. Its analysis pass asks the model
	// to classify the task and audience, and its response pass is routed on
	// that classification.
	DomainMedical Domain = "medical"

	// DomainGeneral uses a single domain-neutral template pair.
	DomainGeneral Domain = "general"
)

// Domains lists every supported domain in display order.
var Domains = []Domain{DomainMedical, DomainGeneral}

// Valid reports whether d is a supported domain.
func (d Domain) Valid() bool {
	return d == DomainMedical || d == DomainGeneral
}

// ErrUnknownDomain is returned by ParseDomain for unsupported names.
var ErrUnknownDomain = errors.New("prompt: unknown domain")

// ParseDomain converts a case-insensitive name to a Domain. An empty name
// yields DomainMedical.
func ParseDomain(s string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "medical":
		return DomainMedical, nil
	case "general":
		return DomainGeneral, nil
	default:
		return "", fmt.Errorf("%w: %q (must be medical or general)", ErrUnknownDomain, s)
	}
}

// Template placeholders. They are replaced literally; no other syntax is
// recognized.
const (
	PlaceholderInput    = "{input}"
	PlaceholderAnalysis = "{analysis}"
)

// ErrMissingPlaceholder is returned when a template lacks a placeholder it
// must contain.
var ErrMissingPlaceholder = errors.New("prompt: missing placeholder")

// PlaceholderError lists the placeholders a template lacks. It matches
// ErrMissingPlaceholder under errors.Is.
type PlaceholderError struct {
	Missing []string
}

func (e *PlaceholderError) Error() string {
	return fmt.Sprintf("%s %s", ErrMissingPlaceholder, strings.Join(e.Missing, ", "))
}

func (e *PlaceholderError) Is(target error) bool {
	return target == ErrMissingPlaceholder
}

// MissingPlaceholders returns the entries of required that do not occur in
// tmpl, in the order given.
func MissingPlaceholders(tmpl string, required ...string) []string {
	var missing []string
	for _, p := range required {
		if !strings.Contains(tmpl, p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// CheckAnalysisTemplate reports whether tmpl can serve as a Pass 1 template.
func CheckAnalysisTemplate(tmpl string) error {
	return checkTemplate(tmpl, PlaceholderInput)
}

// CheckResponseTemplate reports whether tmpl can serve as a Pass 2 template.
func CheckResponseTemplate(tmpl string) error {
	return checkTemplate(tmpl, PlaceholderInput, PlaceholderAnalysis)
}

func checkTemplate(tmpl string, required ...string) error {
	if missing := MissingPlaceholders(tmpl, required...); len(missing) > 0 {
		return &PlaceholderError{Missing: missing}
	}
	return nil
}

// TaskType classifies a medical request from its Pass 1 analysis.
type TaskType string

const (
	// TaskConversation is health advice for a person. It is the default.
	TaskConversation TaskType = "CONVERSATION"

	// TaskTechnical is a pure documentation request (SOAP note, ICD codes).
	TaskTechnical TaskType = "TECHNICAL"

	// TaskHybrid is a documentation request that also needs clinical
	// reasoning embedded in the output.
	TaskHybrid TaskType = "HYBRID"

	// TaskEmergency is an urgent situation needing step-by-step guidance.
	TaskEmergency TaskType = "EMERGENCY"
)

// Audience identifies who a conversational medical request comes from.
type Audience string

const (
	AudiencePatient      Audience = "PATIENT"
	AudienceProfessional Audience = "HEALTH_PROFESSIONAL"
	AudienceUnclear      Audience = "UNCLEAR"
)

// Route is the response variant chosen for a medical Pass 2. Audience is
// empty unless Task is TaskConversation.
type Route struct {
	Task     TaskType `json:"task_type" yaml:"task_type"`
	Audience Audience `json:"audience,omitempty" yaml:"audience,omitempty"`
}

// IsZero reports whether no routing took place.
func (r Route) IsZero() bool {
	return r.Task == "" && r.Audience == ""
}
