package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name        string
		checks      map[string]CheckFunc
		wantStatus  string
		wantFailing []string
	}{
		{
			name:       "no checks",
			wantStatus: StatusReady,
		},
		{
			name: "all pass",
			checks: map[string]CheckFunc{
				"activity_log":  func(context.Context) error { return nil },
				"content_store": func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one fails",
			checks: map[string]CheckFunc{
				"activity_log": func(context.Context) error { return nil },
				"providers":    func(context.Context) error { return errors.New("no healthy provider") },
			},
			wantStatus:  StatusDegraded,
			wantFailing: []string{"providers"},
		},
		{
			name: "several fail",
			checks: map[string]CheckFunc{
				"rate_limit_store": func(context.Context) error { return errors.New("locked") },
				"content_store":    func(context.Context) error { return errors.New("closed") },
			},
			wantStatus:  StatusDegraded,
			wantFailing: []string{"content_store", "rate_limit_store"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.Register(name, check)
			}

			report := c.Check(context.Background())
			if report.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", report.Status, tt.wantStatus)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("Checks = %d, want %d", len(report.Checks), len(tt.checks))
			}
			if got := report.Failing(); !reflect.DeepEqual(got, tt.wantFailing) {
				t.Errorf("Failing() = %v, want %v", got, tt.wantFailing)
			}
		})
	}
}

func TestChecker_FailureMessage(t *testing.T) {
	c := New(time.Second)
	c.Register("providers", func(context.Context) error { return errors.New("no healthy provider") })

	result := c.Check(context.Background()).Checks["providers"]
	if result.Status != StatusUnhealthy || result.Message != "no healthy provider" {
		t.Errorf("result = %+v, want unhealthy with the error message", result)
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	start := time.Now()
	result := c.Check(context.Background()).Checks["slow"]
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Check() took %v, want it bounded by the timeout", elapsed)
	}
	if result.Status != StatusUnhealthy || result.Message != ErrCheckTimeout.Error() {
		t.Errorf("result = %+v, want a timeout", result)
	}
}

func TestChecker_RegisterReplaces(t *testing.T) {
	c := New(0)
	c.Register("content_store", func(context.Context) error { return errors.New("down") })
	c.Register("content_store", func(context.Context) error { return nil })
	c.Register("activity_log", func(context.Context) error { return nil })

	if got := c.Names(); !reflect.DeepEqual(got, []string{"activity_log", "content_store"}) {
		t.Errorf("Names() = %v", got)
	}
	if !c.Check(context.Background()).Ready() {
		t.Error("Ready() = false after replacing the failing check")
	}
}

func TestReadinessHandler(t *testing.T) {
	c := New(time.Second)
	healthy := true
	c.Register("content_store", func(context.Context) error {
		if !healthy {
			return errors.New("database is closed")
		}
		return nil
	})

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want 200", rec.Code)
	}

	healthy = false
	rec = httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", rec.Code)
	}

	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Status != StatusDegraded || report.Checks["content_store"].Message != "database is closed" {
		t.Errorf("report = %+v", report)
	}

	rec = httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodHead, "/ready", nil))
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD body = %q, want empty", rec.Body.String())
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("0.1.0", "abc123", "2024-05-01")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if info.Version != "0.1.0" || info.Commit != "abc123" || !strings.HasPrefix(info.GoVersion, "go") {
		t.Errorf("info = %+v", info)
	}
}
