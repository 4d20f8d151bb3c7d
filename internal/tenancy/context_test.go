package tenancy

import (
	"context"
	"testing"
)

func TestOrgIDRoundTrip(t *testing.T) {
	ctx := WithOrgID(context.Background(), "org-123")
	got, ok := OrgIDFromContext(ctx)
	if !ok {
		t.Fatal("expected org id to be present")
	}
	if got != "org-123" {
		t.Fatalf("expected org-123, got %s", got)
	}
}

func TestOrgIDMissing(t *testing.T) {
	if _, ok := OrgIDFromContext(context.Background()); ok {
		t.Fatal("expected no org id in empty context")
	}
}

func TestOrgIDEmptyString(t *testing.T) {
	ctx := WithOrgID(context.Background(), "")
	if _, ok := OrgIDFromContext(ctx); ok {
		t.Fatal("empty org id should not be treated as present")
	}
}
