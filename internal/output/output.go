// Package output renders bodhi results and templates. It supports text,
// JSON and YAML formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bimmerbailey/bodhi/internal/bodhi"
	"github.com/bimmerbailey/bodhi/internal/llm"
	"github.com/bimmerbailey/bodhi/internal/prompt"
)

// Format represents an output format type.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
	color  ColorMode
}

// New creates a new output Writer. Colors are applied only when w is a
// terminal; see WithColor.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format, color: ColorAuto}
}

// WithColor sets the color mode for text headers and returns wr.
func (wr *Writer) WithColor(mode ColorMode) *Writer {
	wr.color = mode
	return wr
}

// Format returns the configured output format.
func (wr *Writer) Format() Format {
	return wr.format
}

// WriteResult outputs a completion result. Structured formats always carry
// the full result; text shows only the content unless showAnalysis is set.
func (wr *Writer) WriteResult(res *bodhi.CompletionResult, showAnalysis bool) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(res)
	case FormatYAML:
		return wr.WriteYAML(res)
	default:
		return wr.writeResultText(res, showAnalysis)
	}
}

func (wr *Writer) writeResultText(res *bodhi.CompletionResult, showAnalysis bool) error {
	colorize := shouldColorize(wr.color, wr.w)

	if !showAnalysis {
		_, err := fmt.Fprintln(wr.w, res.Content)
		return err
	}

	if res.Analysis != "" {
		fmt.Fprintln(wr.w, colorizeHeader(sectionAnalysis, "", "=== Analysis ===", colorize))
		fmt.Fprintln(wr.w)
		fmt.Fprintln(wr.w, res.Analysis)
		fmt.Fprintln(wr.w)
	}

	fmt.Fprintln(wr.w, colorizeHeader(sectionResponse, res.Metadata.Route.Task, responseHeader(res.Metadata), colorize))
	fmt.Fprintln(wr.w)
	fmt.Fprintln(wr.w, res.Content)
	fmt.Fprintln(wr.w)

	_, err := fmt.Fprintln(wr.w, colorizeHeader(sectionFooter, "", footer(res.Metadata), colorize))
	return err
}

// responseHeader names the response section, including the route when one
// was taken.
func responseHeader(m bodhi.Metadata) string {
	switch {
	case m.Route.Task == "":
		return "=== Response ==="
	case m.Route.Audience != "":
		return fmt.Sprintf("=== Response (%s, %s) ===", m.Route.Task, m.Route.Audience)
	default:
		return fmt.Sprintf("=== Response (%s) ===", m.Route.Task)
	}
}

func footer(m bodhi.Metadata) string {
	mode := "two-pass"
	if !m.TwoPass {
		mode = "single-pass"
	}

	durations := make([]string, len(m.PassDurations))
	for i, d := range m.PassDurations {
		durations[i] = d.Round(time.Millisecond).String()
	}
	return fmt.Sprintf("domain: %s, mode: %s, passes: %s", m.Domain, mode, strings.Join(durations, " + "))
}

// AnalysisOutput is the structured form of an analyze run.
type AnalysisOutput struct {
	Domain   prompt.Domain `json:"domain" yaml:"domain"`
	Prompt   string        `json:"prompt" yaml:"prompt"`
	Analysis string        `json:"analysis" yaml:"analysis"`
}

// WriteAnalysis outputs a Pass 1 analysis.
func (wr *Writer) WriteAnalysis(a AnalysisOutput) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(a)
	case FormatYAML:
		return wr.WriteYAML(a)
	default:
		_, err := fmt.Fprintln(wr.w, a.Analysis)
		return err
	}
}

// WriteMessages outputs a rendered conversation, one block per message.
func (wr *Writer) WriteMessages(msgs []llm.Message) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(msgs)
	case FormatYAML:
		return wr.WriteYAML(msgs)
	}

	colorize := shouldColorize(wr.color, wr.w)
	for i, m := range msgs {
		if i > 0 {
			fmt.Fprintln(wr.w)
		}
		fmt.Fprintln(wr.w, colorizeHeader(sectionAnalysis, "", "["+string(m.Role)+"]", colorize))
		if _, err := fmt.Fprintln(wr.w, m.Content); err != nil {
			return err
		}
	}
	return nil
}

// TemplateSet is the resolved prompt configuration for one domain.
type TemplateSet struct {
	Domain   prompt.Domain `json:"domain" yaml:"domain"`
	System   string        `json:"system" yaml:"system"`
	Analysis string        `json:"analysis" yaml:"analysis"`
	Response string        `json:"response" yaml:"response"`

	// Routes lists the routed response variants in display order. It is
	// empty when routing does not apply.
	Routes []RoutedTemplate `json:"routes,omitempty" yaml:"routes,omitempty"`
}

// RoutedTemplate is one medical response variant.
type RoutedTemplate struct {
	Route    prompt.Route `json:"route" yaml:"route"`
	Template string       `json:"template" yaml:"template"`
}

// WriteTemplates outputs a TemplateSet.
func (wr *Writer) WriteTemplates(set TemplateSet) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(set)
	case FormatYAML:
		return wr.WriteYAML(set)
	}

	colorize := shouldColorize(wr.color, wr.w)
	writeSection := func(title, body string) {
		fmt.Fprintln(wr.w, colorizeHeader(sectionAnalysis, "", "=== "+title+" ===", colorize))
		fmt.Fprintln(wr.w)
		fmt.Fprintln(wr.w, body)
		fmt.Fprintln(wr.w)
	}

	writeSection(fmt.Sprintf("System (%s)", set.Domain), set.System)
	writeSection("Analysis template", set.Analysis)
	if len(set.Routes) == 0 {
		writeSection("Response template", set.Response)
		return nil
	}
	for _, rt := range set.Routes {
		title := "Response template: " + string(rt.Route.Task)
		if rt.Route.Audience != "" {
			title += "/" + string(rt.Route.Audience)
		}
		writeSection(title, rt.Template)
	}
	return nil
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML outputs any value as YAML.
func (wr *Writer) WriteYAML(v interface{}) error {
	enc := yaml.NewEncoder(wr.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
