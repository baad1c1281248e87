// Package health provides the readiness checks behind the admin server's
// /ready endpoint.
//
// Components register a check under a name; Check runs them concurrently,
// each bounded by the checker timeout:
//
//	checker := health.New(2 * time.Second)
//	checker.Register("content_store", store.Ping)
//	checker.Register("providers", func(ctx context.Context) error {
//	    if manager.GetHealthSummary().Healthy == 0 {
//	        return errors.New("no healthy provider")
//	    }
//	    return nil
//	})
//
// A degraded response names the failing components:
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "activity_log": {"status": "ok", "duration_ms": 0.2},
//	        "providers": {"status": "unhealthy", "message": "no healthy provider", "duration_ms": 0.01}
//	    },
//	    "timestamp": "2024-05-01T10:00:00Z"
//	}
package health
