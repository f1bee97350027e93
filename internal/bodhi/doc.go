// Package bodhi wraps a text-generation capability with a two-pass
// prompting strategy.
//
// Pass 1 asks the model to analyze the request: what it thinks, what it is
// unsure of, what it would ask, and which red flags apply. Pass 2 asks for the
// final answer with the original prompt and the Pass 1 analysis embedded
// verbatim. The result biases answers toward clarifying questions,
// calibrated uncertainty and concrete recommendations.
//
// The package depends only on [llm.ChatFunction]; provider clients are
// built elsewhere and passed in.
//
//	cfg, err := bodhi.NewConfig(bodhi.WithDomain(prompt.DomainMedical))
//	if err != nil {
//	    return err
//	}
//	o, err := bodhi.New(chat, cfg, logger)
//	if err != nil {
//	    return err
//	}
//
//	res, err := o.Complete(ctx, "I have chest pain")
//	if err != nil {
//	    var genErr *bodhi.GenerationError
//	    if errors.As(err, &genErr) {
//	        log.Printf("pass %d failed", genErr.Pass)
//	    }
//	    return err
//	}
//	fmt.Println(res.Content)
//
// An Orchestrator holds only read-only state and is safe for concurrent use
// when its ChatFunction is.
package bodhi
