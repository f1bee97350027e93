package prompt

import (
	"sort"
	"strings"

	"github.com/bimmerbailey/bodhi/internal/llm"
)

// DefaultAnalysisTemplate returns the built-in Pass 1 template for d.
// Unknown domains get the general template.
func DefaultAnalysisTemplate(d Domain) string {
	if d == DomainMedical {
		return medicalAnalysis
	}
	return generalAnalysis
}

// DefaultResponseTemplate returns the built-in Pass 2 template for d. For
// the medical domain this is the variant used when neither task type nor
// audience can be determined; see [RouteResponse] for the routed variants.
func DefaultResponseTemplate(d Domain) string {
	if d == DomainMedical {
		return medicalUnclearResponse
	}
	return generalResponse
}

// MedicalResponseTemplate returns the medical Pass 2 variant for a route.
func MedicalResponseTemplate(r Route) string {
	switch r.Task {
	case TaskTechnical:
		return medicalTechnicalResponse
	case TaskEmergency:
		return medicalEmergencyResponse
	case TaskHybrid:
		return medicalHybridResponse
	}

	switch r.Audience {
	case AudiencePatient:
		return medicalPatientResponse
	case AudienceProfessional:
		return medicalProfessionalResponse
	default:
		return medicalUnclearResponse
	}
}

// RouteResponse picks the default Pass 2 template for d given the Pass 1
// analysis. Only the medical domain routes; for other domains the returned
// Route is zero.
func RouteResponse(d Domain, analysis string) (string, Route) {
	if d != DomainMedical {
		return DefaultResponseTemplate(d), Route{}
	}

	r := Route{Task: DetectTaskType(analysis)}
	if r.Task == TaskConversation {
		r.Audience = DetectAudience(analysis)
	}
	return MedicalResponseTemplate(r), r
}

// Substitute replaces every placeholder key in tmpl with its value in a
// single left-to-right scan. Inserted values are never rescanned, so a
// value containing "{input}" stays verbatim.
func Substitute(tmpl string, values map[string]string) string {
	if len(values) == 0 {
		return tmpl
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, values[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// RenderAnalysis fills the Pass 1 template. Only {input} is substituted.
func RenderAnalysis(tmpl, input string) string {
	return Substitute(tmpl, map[string]string{PlaceholderInput: input})
}

// RenderResponse fills the Pass 2 template with the prompt and analysis.
func RenderResponse(tmpl, input, analysis string) string {
	return Substitute(tmpl, map[string]string{
		PlaceholderInput:    input,
		PlaceholderAnalysis: analysis,
	})
}

// AnalysisMessages builds the Pass 1 conversation: the domain persona
// followed by the rendered analysis template.
func AnalysisMessages(d Domain, tmpl, input string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt(d)},
		{Role: llm.RoleUser, Content: RenderAnalysis(tmpl, input)},
	}
}

// ResponseMessages builds the Pass 2 conversation.
func ResponseMessages(d Domain, tmpl, input, analysis string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt(d)},
		{Role: llm.RoleUser, Content: RenderResponse(tmpl, input, analysis)},
	}
}

// DirectMessages forwards the prompt unchanged as a single user message.
// It backs single-pass mode, which bypasses templates entirely.
func DirectMessages(input string) []llm.Message {
	return []llm.Message{{Role: llm.RoleUser, Content: input}}
}

const medicalAnalysis = `Analyze this input carefully.

Input:
{input}

Provide your analysis:

1. TASK TYPE: Is this a CONVERSATION (health advice), TECHNICAL (documentation task), HYBRID (technical format + clinical reasoning), or EMERGENCY?

2. AUDIENCE: Who is asking? (PATIENT/CAREGIVER = use simple warm language, HEALTH_PROFESSIONAL = use clinical terminology, UNCLEAR = default to accessible)

3. WHAT I THINK: Your best assessment (be honest about confidence)

4. KEY UNCERTAINTIES: What information is missing that would change your advice?

5. QUESTIONS TO ASK: 1-2 specific clarifying questions (if needed)

6. RED FLAGS: Any urgent warning signs (or "None")

7. SAFE RECOMMENDATIONS: What can you confidently advise regardless of unknowns?

Be genuinely curious and humble. Acknowledge what you don't know.`

const generalAnalysis = `Analyze this request with intellectual humility.

Request:
{input}

Think carefully and provide:

1. WHAT I THINK: Your best understanding of what's needed
2. WHAT I'M UNSURE ABOUT: Key uncertainties or ambiguities
3. WHAT I NEED TO KNOW: Questions that would help me assist better
4. IMPORTANT CONSIDERATIONS: Any critical factors to keep in mind
5. CONFIDENT ADVICE: What I can reliably help with regardless of uncertainty

Be genuinely curious and humble. Don't pretend to know more than you do.`

const generalResponse = `Now respond to the user helpfully.

Your analysis:
{analysis}

Request:
{input}

Write a helpful, natural response:`

const medicalTechnicalResponse = `Based on your analysis, this is a TECHNICAL/DOCUMENTATION task.

Your analysis:
{analysis}

Original request:
{input}

INSTRUCTIONS (Follow exactly):
- Provide ONLY the specific output format requested (SOAP note, ICD codes, summary, etc.)
- Match the user's formatting instructions precisely
- Use professional medical documentation style
- Do NOT add conversational advice
- Do NOT add clarifying questions
- Do NOT add disclaimers or caveats unless part of standard documentation

If the request asks for a specific format, provide ONLY that format.

Provide the requested output:`

const medicalEmergencyResponse = `Based on your analysis, this may be an EMERGENCY situation.

Your analysis:
{analysis}

Original request:
{input}

PROVIDE EMERGENCY GUIDANCE:
1. First, state what to check (responsiveness, breathing, pulse) in order
2. Give clear, step-by-step instructions
3. Say when to call emergency services
4. Keep it brief and actionable

Respond now:`

const medicalHybridResponse = `This task requires BOTH technical format AND clinical reasoning.

Your analysis:
{analysis}

Original request:
{input}

HYBRID RESPONSE GUIDELINES:

1. PRIMARY OUTPUT:
   - Provide the requested format (SOAP note, ICD codes, etc.) as the main output
   - Follow formatting instructions precisely

2. EMBEDDED CLINICAL REASONING:
   - WITHIN that format, include appropriate uncertainty markers
   - For SOAP notes: In Assessment, note differentials and uncertainties
   - For ICD codes: Provide codes, then note "If [condition], also consider [code]"

3. BE COMPLETE:
   - Address all aspects of the request
   - Don't just defer; provide information for each scenario
   - Include relevant differentials

4. OPTIONAL FOLLOW-UP:
   If helpful, add a brief note about what additional context would refine the plan.

Provide the formatted response with embedded clinical reasoning:`

const medicalPatientResponse = `Write a warm, helpful response for this patient/caregiver.

Your analysis:
{analysis}

Original request:
{input}

RESPONSE GUIDELINES:
- First, directly answer their main question
- Address ALL parts of what they asked

BE SPECIFIC:
- Include specific numbers: dosages, frequencies, timeframes
- Example: "Take ibuprofen 200-400mg every 4-6 hours, max 1200mg per day"
- Mention emergency numbers: "Call 911 (in the US)" when relevant

ACTIVELY ASK about concerning symptoms:
- Don't say "if you experience X"; instead ASK "Are you experiencing X right now?"
- Example: "Are you having any chest pain, shortness of breath, or fever?"

INCLUDE ALTERNATIVES when they exist:
- Don't just give one option; mention alternatives
- Example: "See a doctor within 24-48 hours, or sooner if symptoms worsen"

Include warning signs and when to see a doctor.
Use warm, simple language. Be reassuring but honest.

Write your response:`

const medicalProfessionalResponse = `Write a helpful response for this health professional.

Your analysis:
{analysis}

Original request:
{input}

RESPONSE GUIDELINES:
- Directly address their clinical question first
- Address ALL aspects of what they asked

BE SPECIFIC:
- Include specific dosing, frequencies, lab values when relevant
- Provide concrete differential diagnoses with distinguishing features
- Suggest specific workup: "Consider CBC, CMP, imaging with CT/MRI"

INCLUDE ALTERNATIVES:
- "If X is confirmed, consider Y; if Z instead, consider W"
- Mention multiple management options where appropriate

If key info is missing, ask directly: "Is the patient currently experiencing [symptom]?"

Write your response:`

const medicalUnclearResponse = `Write a helpful response to the user.

Your analysis:
{analysis}

Original request:
{input}

RESPONSE GUIDELINES:
- Lead with a clear, direct answer to their main question
- Address ALL parts of what they asked

BE SPECIFIC:
- Include specific numbers, dosages, timeframes when relevant
- Mention emergency contacts: "Call 911 (US) or your local emergency number"

ACTIVELY ASK about concerning symptoms:
- Don't say "if you experience"; ASK directly: "Are you having [symptom] right now?"

INCLUDE ALTERNATIVES:
- When multiple options exist, mention all of them

Include what to monitor and when to seek care.
Use accessible language and explain any medical terms.

Write your response:`
