package bodhi

import (
	"encoding/json"
	"time"

	"github.com/bimmerbailey/bodhi/internal/prompt"
)

// CompletionResult is the outcome of one Complete call. The Orchestrator
// keeps no reference to it.
type CompletionResult struct {
	// Content is the Pass 2 reply, or the only reply in single-pass mode.
	Content string `json:"content" yaml:"content"`
	// Analysis is the Pass 1 reply. It is empty in single-pass mode.
	Analysis string `json:"analysis" yaml:"analysis"`

	Metadata Metadata `json:"metadata" yaml:"metadata"`
}

// String returns the final content.
func (r CompletionResult) String() string {
	return r.Content
}

// Metadata describes how a result was produced.
type Metadata struct {
	// PassDurations holds one entry per invocation, in order.
	PassDurations []time.Duration
	Domain        prompt.Domain
	TwoPass       bool
	// Route is the medical response variant used for Pass 2. It is zero in
	// single-pass mode, for the general domain and for custom response
	// templates.
	Route prompt.Route
}

// PassDurationsMs returns PassDurations in fractional milliseconds.
func (m Metadata) PassDurationsMs() []float64 {
	ms := make([]float64, len(m.PassDurations))
	for i, d := range m.PassDurations {
		ms[i] = float64(d) / float64(time.Millisecond)
	}
	return ms
}

// metadataView is the serialized shape of Metadata.
type metadataView struct {
	PassDurationsMs []float64       `json:"pass_durations_ms" yaml:"pass_durations_ms"`
	Domain          prompt.Domain   `json:"domain" yaml:"domain"`
	TwoPass         bool            `json:"two_pass" yaml:"two_pass"`
	TaskType        prompt.TaskType `json:"task_type,omitempty" yaml:"task_type,omitempty"`
	Audience        prompt.Audience `json:"audience,omitempty" yaml:"audience,omitempty"`
}

func (m Metadata) view() metadataView {
	return metadataView{
		PassDurationsMs: m.PassDurationsMs(),
		Domain:          m.Domain,
		TwoPass:         m.TwoPass,
		TaskType:        m.Route.Task,
		Audience:        m.Route.Audience,
	}
}

// MarshalJSON implements json.Marshaler.
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.view())
}

// MarshalYAML implements yaml.Marshaler.
func (m Metadata) MarshalYAML() (interface{}, error) {
	return m.view(), nil
}
