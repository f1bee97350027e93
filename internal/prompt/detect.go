package prompt

import "strings"

const (
	taskDeclarationWindow     = 80
	audienceDeclarationWindow = 60
)

var (
	emergencyPhrases = []string{
		"someone collapse", "collapsed", "unconscious", "not breathing",
		"stopped breathing", "choking", "severe bleeding", "call 911",
	}

	documentTypes = []string{
		"soap note", "icd code", "cpt code", "mychart note", "discharge summary",
	}

	documentActions = []string{
		"write a", "create a", "provide the", "edit this", "rewrite", "correct this",
	}

	clinicalReasoningSignals = []string{
		"differential", "uncertainty", "rule out", "consider",
		"unclear", "depends on", "need more information", "clinical reasoning",
	}

	professionalSignals = []string{
		"as a nurse", "as a physician", "as a doctor", "medical student",
		"clinical question", "differential diagnosis", "treatment protocol",
		"icd code", "cpt code", "soap note", "chart note",
	}

	patientSignals = []string{
		"my symptom", "i have", "my child", "my husband", "my wife",
		"should i", "is it normal", "worried about", "scared", "anxious",
	}
)

// DetectTaskType classifies a medical Pass 1 analysis. An explicit
// "task type:" declaration wins; otherwise emergency phrases, then
// documentation requests are looked for. Anything else is a conversation.
func DetectTaskType(analysis string) TaskType {
	text := strings.ToLower(analysis)

	if decl, ok := declaration(text, "task type:", taskDeclarationWindow); ok {
		switch {
		case strings.Contains(decl, "hybrid"):
			return TaskHybrid
		case strings.Contains(decl, "technical"):
			return TaskTechnical
		case strings.Contains(decl, "emergency"):
			return TaskEmergency
		}
	}

	if containsAny(text, emergencyPhrases) {
		return TaskEmergency
	}

	if containsAny(text, documentTypes) && containsAny(text, documentActions) {
		if containsAny(text, clinicalReasoningSignals) {
			return TaskHybrid
		}
		return TaskTechnical
	}

	return TaskConversation
}

// DetectAudience classifies who a conversational request comes from. An
// explicit "audience:" declaration wins; otherwise the analysis must show
// signals of exactly one audience.
func DetectAudience(analysis string) Audience {
	text := strings.ToLower(analysis)

	if decl, ok := declaration(text, "audience:", audienceDeclarationWindow); ok {
		switch {
		case strings.Contains(decl, "professional"):
			return AudienceProfessional
		case strings.Contains(decl, "patient"), strings.Contains(decl, "caregiver"):
			return AudiencePatient
		}
	}

	professional := containsAny(text, professionalSignals)
	patient := containsAny(text, patientSignals)
	switch {
	case professional && !patient:
		return AudienceProfessional
	case patient && !professional:
		return AudiencePatient
	}
	return AudienceUnclear
}

// declaration returns up to window bytes following the first occurrence of
// marker in text.
func declaration(text, marker string, window int) (string, bool) {
	_, after, found := strings.Cut(text, marker)
	if !found {
		return "", false
	}
	if len(after) > window {
		after = after[:window]
	}
	return after, true
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
