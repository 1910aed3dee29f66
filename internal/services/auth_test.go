package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

func newTestUser(tenantID uuid.UUID) *types.User {
	return &types.User{
		ID:       uuid.New(),
		TenantID: &tenantID,
		Email:    "student@example.test",
		Role:     types.RoleStudent,
		Level:    1,
	}
}

func TestRegisterFailsClosedWithoutTenant(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	// No DB handle needed: the tenant check runs before any storage access.
	svc := NewAuthService(nil, log, nil, "secret")

	_, err = svc.Register(context.Background(), RegisterInput{
		Email:    "student@example.test",
		Password: "hunter2",
		Name:     "Student",
	})
	if !errors.Is(err, tenancy.ErrMissingTenantContext) {
		t.Fatalf("err = %v, want ErrMissingTenantContext", err)
	}
}

func TestTokenRoundTripCarriesTenant(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	svc := NewAuthService(nil, log, nil, "secret").(*authService)

	tenantID := uuid.New()
	u := newTestUser(tenantID)
	token, err := svc.generateAccessToken(u)
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	ctx, claims, err := svc.ContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ContextFromToken: %v", err)
	}
	if claims.UserID != u.ID || claims.TenantID != tenantID {
		t.Fatalf("claims = %+v", claims)
	}
	got, err := tenancy.Require(ctx)
	if err != nil {
		t.Fatalf("token context should carry the tenant: %v", err)
	}
	if got != tenantID {
		t.Fatalf("tenant = %s, want %s", got, tenantID)
	}
}

func TestContextFromTokenRejectsWrongKey(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	issuer := NewAuthService(nil, log, nil, "secret-a").(*authService)
	verifier := NewAuthService(nil, log, nil, "secret-b")

	token, err := issuer.generateAccessToken(newTestUser(uuid.New()))
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	_, _, err = verifier.ContextFromToken(context.Background(), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
