package logging

import (
	"context"
	"testing"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithUser(ctx, "admin")
	ctx = WithRunID(ctx, "run-42")
	ctx = WithProvider(ctx, "openai")

	if got := GetUser(ctx); got != "admin" {
		t.Errorf("expected user %q, got %q", "admin", got)
	}
	if got := GetRunID(ctx); got != "run-42" {
		t.Errorf("expected run id %q, got %q", "run-42", got)
	}
	if got := GetProvider(ctx); got != "openai" {
		t.Errorf("expected provider %q, got %q", "openai", got)
	}

	fields := extractContextFields(ctx)
	if len(fields) != 2 || fields["run_id"] != "run-42" || fields["provider"] != "openai" {
		t.Errorf("unexpected context fields %v", fields)
	}
}

func TestContextValues_Missing(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	if GetUser(nil) != "" || GetRunID(nil) != "" || GetProvider(nil) != "" {
		t.Error("expected empty values for nil context")
	}
	if len(extractContextFields(context.Background())) != 0 {
		t.Error("expected no fields for empty context")
	}
}
