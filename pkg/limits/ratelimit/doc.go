// Package ratelimit provides the per-provider fixed-window request limiter.
//
// # Overview
//
// Every provider has a per-minute ceiling and one counting window:
//
//   - No window, or the window is 60 seconds old: open a new window with a
//     count of 1 and admit.
//   - Count below the ceiling: increment and admit.
//   - Otherwise: deny without touching the window.
//
// Windows are retained for 70 seconds after they open; after that they read
// as absent and Cleanup removes them from the backend.
//
// # Ceilings
//
// The effective ceiling is resolved in order:
//
//  1. A ceiling persisted with SetRateLimit
//  2. A configured override (config rate_limits, reloadable)
//  3. The built-in default (openai 60, anthropic 45, cohere 30)
//  4. 30
//
// # Usage
//
//	limiter := ratelimit.NewLimiter(ratelimit.Config{
//	    Backend:   backend,
//	    Overrides: cfg.RateLimits,
//	    Defaults:  config.DefaultRateLimits,
//	    Logger:    logger,
//	})
//
//	if !limiter.CanMakeRequest(ctx, "openai") {
//	    wait := limiter.ResetTime(ctx, "openai")
//	    ...
//	}
//
// # Thread Safety
//
// The read-check-increment sequence runs under a per-provider mutex and as a
// single backend Update. The sqlite backend runs Update in a BEGIN IMMEDIATE
// transaction, so processes sharing the database never both admit the last
// request of a window.
package ratelimit
