package prompt_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/bimmerbailey/bodhi/internal/llm"
	"github.com/bimmerbailey/bodhi/internal/prompt"
)

const chestPain = "I have chest pain"

// TestParseDomain verifies names, case folding and the empty default.
func TestParseDomain(t *testing.T) {
	tests := []struct {
		input   string
		want    prompt.Domain
		wantErr bool
	}{
		{"medical", prompt.DomainMedical, false},
		{"MEDICAL", prompt.DomainMedical, false},
		{" general ", prompt.DomainGeneral, false},
		{"", prompt.DomainMedical, false},
		{"legal", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := prompt.ParseDomain(tt.input)
			if tt.wantErr {
				if !errors.Is(err, prompt.ErrUnknownDomain) {
					t.Errorf("ParseDomain(%q) error = %v, want ErrUnknownDomain", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDomain(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDomain(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestDefaultTemplates_Placeholders verifies every built-in template carries
// the placeholders its pass requires.
func TestDefaultTemplates_Placeholders(t *testing.T) {
	for _, d := range prompt.Domains {
		t.Run(string(d), func(t *testing.T) {
			if err := prompt.CheckAnalysisTemplate(prompt.DefaultAnalysisTemplate(d)); err != nil {
				t.Errorf("analysis template: %v", err)
			}
			if err := prompt.CheckResponseTemplate(prompt.DefaultResponseTemplate(d)); err != nil {
				t.Errorf("response template: %v", err)
			}
		})
	}

	routes := []prompt.Route{
		{Task: prompt.TaskTechnical},
		{Task: prompt.TaskHybrid},
		{Task: prompt.TaskEmergency},
		{Task: prompt.TaskConversation, Audience: prompt.AudiencePatient},
		{Task: prompt.TaskConversation, Audience: prompt.AudienceProfessional},
		{Task: prompt.TaskConversation, Audience: prompt.AudienceUnclear},
	}
	seen := map[string]bool{}
	for _, r := range routes {
		tmpl := prompt.MedicalResponseTemplate(r)
		if err := prompt.CheckResponseTemplate(tmpl); err != nil {
			t.Errorf("medical response %+v: %v", r, err)
		}
		if seen[tmpl] {
			t.Errorf("medical response %+v is not distinct", r)
		}
		seen[tmpl] = true
	}
}

// TestDefaultTemplates_DomainsDistinct verifies the general pair differs
// from the medical pair.
func TestDefaultTemplates_DomainsDistinct(t *testing.T) {
	if prompt.DefaultAnalysisTemplate(prompt.DomainMedical) == prompt.DefaultAnalysisTemplate(prompt.DomainGeneral) {
		t.Error("analysis templates should differ between domains")
	}
	if prompt.DefaultResponseTemplate(prompt.DomainMedical) == prompt.DefaultResponseTemplate(prompt.DomainGeneral) {
		t.Error("response templates should differ between domains")
	}
	if prompt.SystemPrompt(prompt.DomainMedical) == prompt.SystemPrompt(prompt.DomainGeneral) {
		t.Error("system prompts should differ between domains")
	}
}

// TestCheckTemplates verifies missing placeholders are named in the error.
func TestCheckTemplates(t *testing.T) {
	tests := []struct {
		name     string
		check    func(string) error
		tmpl     string
		wantErr  bool
		wantName string
	}{
		{"analysis ok", prompt.CheckAnalysisTemplate, "Think about {input}", false, ""},
		{"analysis missing input", prompt.CheckAnalysisTemplate, "Think hard", true, "{input}"},
		{"response ok", prompt.CheckResponseTemplate, "{analysis}\n---\n{input}", false, ""},
		{"response missing analysis", prompt.CheckResponseTemplate, "Answer {input}", true, "{analysis}"},
		{"response missing input", prompt.CheckResponseTemplate, "Use {analysis}", true, "{input}"},
		{"wrong case", prompt.CheckAnalysisTemplate, "{INPUT}", true, "{input}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.tmpl)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, prompt.ErrMissingPlaceholder) {
				t.Fatalf("error = %v, want ErrMissingPlaceholder", err)
			}
			if !strings.Contains(err.Error(), tt.wantName) {
				t.Errorf("error %q should name %s", err, tt.wantName)
			}
		})
	}
}

func TestMissingPlaceholders(t *testing.T) {
	got := prompt.MissingPlaceholders("nothing here", prompt.PlaceholderInput, prompt.PlaceholderAnalysis)
	if len(got) != 2 || got[0] != prompt.PlaceholderInput || got[1] != prompt.PlaceholderAnalysis {
		t.Errorf("MissingPlaceholders() = %v", got)
	}
	if got := prompt.MissingPlaceholders("{input}", prompt.PlaceholderInput); got != nil {
		t.Errorf("MissingPlaceholders() = %v, want nil", got)
	}
}

// TestSubstitute_Literal verifies inserted text is never re-interpreted.
func TestSubstitute_Literal(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		input    string
		analysis string
		want     string
	}{
		{
			name:     "plain",
			tmpl:     "Q: {input}\nA: {analysis}",
			input:    "headache",
			analysis: "tension type likely",
			want:     "Q: headache\nA: tension type likely",
		},
		{
			name:     "analysis contains input placeholder",
			tmpl:     "Q: {input}\nA: {analysis}",
			input:    "headache",
			analysis: "the user wrote {input}",
			want:     "Q: headache\nA: the user wrote {input}",
		},
		{
			name:     "input contains analysis placeholder",
			tmpl:     "{analysis} / {input}",
			input:    "what is {analysis}?",
			analysis: "x",
			want:     "x / what is {analysis}?",
		},
		{
			name:     "repeated placeholders",
			tmpl:     "{input} {input} {analysis}",
			input:    "a",
			analysis: "b",
			want:     "a a b",
		},
		{
			name:     "other braces untouched",
			tmpl:     `{"q": "{input}", "n": {count}} {analysis}`,
			input:    "x",
			analysis: "y",
			want:     `{"q": "x", "n": {count}} y`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := prompt.RenderResponse(tt.tmpl, tt.input, tt.analysis)
			if got != tt.want {
				t.Errorf("RenderResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestRenderAnalysis_OnlyInput verifies {analysis} in an analysis template
// is left alone.
func TestRenderAnalysis_OnlyInput(t *testing.T) {
	got := prompt.RenderAnalysis("{input} then {analysis}", "cough")
	if got != "cough then {analysis}" {
		t.Errorf("RenderAnalysis() = %q", got)
	}
}

func TestSubstitute_NoValues(t *testing.T) {
	if got := prompt.Substitute("{input}", nil); got != "{input}" {
		t.Errorf("Substitute() = %q", got)
	}
}

// TestMessages_Structure verifies roles, order and content of each pass.
func TestMessages_Structure(t *testing.T) {
	d := prompt.DomainMedical

	pass1 := prompt.AnalysisMessages(d, prompt.DefaultAnalysisTemplate(d), chestPain)
	assertRoles(t, pass1, llm.RoleSystem, llm.RoleUser)
	if pass1[0].Content != prompt.SystemPrompt(d) {
		t.Error("pass 1 system message should carry the domain persona")
	}
	if !strings.Contains(pass1[1].Content, chestPain) {
		t.Errorf("pass 1 user message should embed the prompt: %q", pass1[1].Content)
	}

	pass2 := prompt.ResponseMessages(d, prompt.DefaultResponseTemplate(d), chestPain, "ANALYSIS-TEXT")
	assertRoles(t, pass2, llm.RoleSystem, llm.RoleUser)
	if !strings.Contains(pass2[1].Content, chestPain) || !strings.Contains(pass2[1].Content, "ANALYSIS-TEXT") {
		t.Errorf("pass 2 user message should embed prompt and analysis: %q", pass2[1].Content)
	}

	direct := prompt.DirectMessages(chestPain)
	assertRoles(t, direct, llm.RoleUser)
	if direct[0].Content != chestPain {
		t.Errorf("direct message = %q, want prompt verbatim", direct[0].Content)
	}
}

// TestAnalysisMessages_Deterministic verifies identical inputs render
// identical messages.
func TestAnalysisMessages_Deterministic(t *testing.T) {
	tmpl := prompt.DefaultAnalysisTemplate(prompt.DomainGeneral)
	a := prompt.AnalysisMessages(prompt.DomainGeneral, tmpl, "plan a trip")
	b := prompt.AnalysisMessages(prompt.DomainGeneral, tmpl, "plan a trip")
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("message %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func assertRoles(t *testing.T, msgs []llm.Message, want ...llm.Role) {
	t.Helper()
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i, r := range want {
		if msgs[i].Role != r {
			t.Errorf("message %d role = %q, want %q", i, msgs[i].Role, r)
		}
	}
}
