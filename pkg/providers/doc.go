// Package providers implements the call protocol shared by the LLM provider
// integrations.
//
// # Overview
//
// A provider turns one prompt into one piece of generated text. The variants
// (openai, anthropic, cohere subpackages) differ only in the request they
// build and where the text sits in the response; the control flow is the
// same for all of them and lives in HTTPProvider.Execute:
//
//  1. Ask the RateGate. A denial returns a rate_limited CallError and sends
//     nothing.
//  2. Make up to MaxRetries attempts. Each attempt POSTs JSON with a bearer
//     token and a per-attempt timeout.
//  3. A transport failure, a non-200 status, or a response without the text
//     field logs one warning and moves on to the next attempt.
//  4. Between attempts, wait Base * Multiplier^(n-1), capped at Max. The
//     wait blocks the caller and ends early if the context is cancelled.
//  5. When every attempt failed, log one error through LogAPIError (which
//     alerts) and return an exhausted_retries CallError.
//
// # Usage
//
//	provider, err := openai.NewProvider(cfg, providers.Dependencies{
//	    Gate:    limiter,
//	    Logger:  logger,
//	    Metrics: collector,
//	})
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	text, err := provider.Call(ctx, prompt)
//
// # Errors
//
// Every failure is a *CallError. Use IsKind to branch on its Kind:
//
//	if providers.IsKind(err, providers.KindRateLimited) {
//	    ...
//	}
package providers
