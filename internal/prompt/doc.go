// Package prompt holds bodhi's built-in templates and the renderer that
// turns a template plus runtime values into an []llm.Message conversation.
//
// # Templates
//
// Every [Domain] has a Pass 1 (analysis) and a Pass 2 (response) template.
// Analysis templates must contain {input}; response templates must contain
// both {input} and {analysis}. Rendering is literal: [Substitute] replaces
// placeholders in one scan and never re-reads inserted text, so a prompt or
// analysis containing "{analysis}" is passed through unchanged.
//
// # Medical routing
//
// The medical analysis template asks the model to declare a task type and an
// audience. When the default medical response template is in effect,
// [RouteResponse] reads those declarations (falling back to keyword
// heuristics) and picks one of five response variants:
//
//   - [TaskTechnical]    documentation only, no advice or questions
//   - [TaskHybrid]       documentation with embedded clinical reasoning
//   - [TaskEmergency]    brief step-by-step emergency guidance
//   - [TaskConversation] patient, professional or unclear-audience advice
//
// # Basic usage
//
//	tmpl := prompt.DefaultAnalysisTemplate(prompt.DomainMedical)
//	msgs := prompt.AnalysisMessages(prompt.DomainMedical, tmpl, "I have chest pain")
//	analysis, err := chat.Chat(ctx, msgs)
//	if err != nil {
//	    return err
//	}
//
//	respTmpl, route := prompt.RouteResponse(prompt.DomainMedical, analysis)
//	msgs = prompt.ResponseMessages(prompt.DomainMedical, respTmpl, "I have chest pain", analysis)
package prompt
