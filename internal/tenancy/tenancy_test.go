package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestTenantID_EmptyContext(t *testing.T) {
	if id, ok := TenantID(context.Background()); ok || id != uuid.Nil {
		t.Fatalf("expected no tenant on empty context, got %v ok=%v", id, ok)
	}
}

func TestWithTenant_RoundTrip(t *testing.T) {
	want := uuid.New()
	ctx := WithTenant(context.Background(), want)
	got, ok := TenantID(ctx)
	if !ok || got != want {
		t.Fatalf("expected tenant %v, got %v ok=%v", want, got, ok)
	}
}

func TestClear_RemovesTenant(t *testing.T) {
	ctx := WithTenant(context.Background(), uuid.New())
	ctx = Clear(ctx)
	if _, ok := TenantID(ctx); ok {
		t.Fatalf("expected cleared context to have no tenant")
	}
}

func TestWithTenant_NilBehavesLikeClear(t *testing.T) {
	ctx := WithTenant(context.Background(), uuid.New())
	ctx = WithTenant(ctx, uuid.Nil)
	if _, ok := TenantID(ctx); ok {
		t.Fatalf("expected nil tenant to clear context")
	}
}

func TestRequire_MissingTenant(t *testing.T) {
	_, err := Require(context.Background())
	if !errors.Is(err, ErrMissingTenantContext) {
		t.Fatalf("expected ErrMissingTenantContext, got %v", err)
	}
}
