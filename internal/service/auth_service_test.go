package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/core/auth"
	"estate-crm/internal/repo/memstore"
)

func TestLoginIssuesRoleBearingToken(t *testing.T) {
	store := memstore.New()
	seedPrincipal(t, store, "U-admin", "admin@example.com", "s3cret-pass", auth.RoleAdmin)
	jwter := newJWT()
	svc := NewAuthService(store, jwter, zap.NewNop())

	res, err := svc.Login(context.Background(), "  Admin@Example.com ", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, err := jwter.Authenticate(res.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.ID != "U-admin" || id.Role != auth.RoleAdmin {
		t.Fatalf("identity = %+v", id)
	}
	if res.Principal.ID != "U-admin" || res.ExpiresAt.IsZero() {
		t.Fatalf("result = %+v", res)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	store := memstore.New()
	seedPrincipal(t, store, "U1", "agent@example.com", "right-pass", auth.RoleAgent)
	off := seedPrincipal(t, store, "U2", "off@example.com", "right-pass", auth.RoleAgent)
	off.IsActive = false
	store.State.Principals["U2"] = off
	gone := seedPrincipal(t, store, "U3", "gone@example.com", "right-pass", auth.RoleAgent)
	gone.DeletedAt.Valid = true
	store.State.Principals["U3"] = gone

	svc := NewAuthService(store, newJWT(), zap.NewNop())
	cases := []struct{ email, password string }{
		{"agent@example.com", "wrong-pass"},
		{"nobody@example.com", "right-pass"},
		{"off@example.com", "right-pass"},
		{"gone@example.com", "right-pass"},
	}
	for _, c := range cases {
		_, err := svc.Login(context.Background(), c.email, c.password)
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			t.Fatalf("%s: want *apperr.Error, got %v", c.email, err)
		}
		if ae.Kind != apperr.KindAuthentication || ae.Msg != MsgInvalidCredentials || apperr.HTTPStatus(err) != http.StatusUnauthorized {
			t.Fatalf("%s: got %+v", c.email, ae)
		}
	}
}

func TestMeListsCapabilities(t *testing.T) {
	store := memstore.New()
	seedPrincipal(t, store, "A1", "a1@example.com", "pass-123", auth.RoleAgent)
	svc := NewAuthService(store, newJWT(), zap.NewNop())

	me, err := svc.Me(context.Background(), agentA1)
	if err != nil {
		t.Fatal(err)
	}
	if len(me.Capabilities) != 5 || me.Email != "a1@example.com" {
		t.Fatalf("me = %+v", me)
	}
}

func TestChangePassword(t *testing.T) {
	store := memstore.New()
	seedPrincipal(t, store, "A1", "a1@example.com", "old-pass", auth.RoleAgent)
	svc := NewAuthService(store, newJWT(), zap.NewNop())
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, agentA1, "nope", "new-pass"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("wrong current password: got %v", err)
	}
	if err := svc.ChangePassword(ctx, agentA1, "old-pass", "123"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("short password: got %v", err)
	}
	if err := svc.ChangePassword(ctx, agentA1, "old-pass", "new-pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(ctx, "a1@example.com", "old-pass"); err == nil {
		t.Fatal("old password still accepted")
	}
	if _, err := svc.Login(ctx, "a1@example.com", "new-pass"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestUpdateProfileKeepsRole(t *testing.T) {
	store := memstore.New()
	seedPrincipal(t, store, "A1", "a1@example.com", "pass-123", auth.RoleAgent)
	svc := NewAuthService(store, newJWT(), zap.NewNop())
	ctx := context.Background()

	p, err := svc.UpdateProfile(ctx, agentA1, ProfileInput{Name: ptr(" Alice "), Phone: ptr("555-0101")})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if p.Name != "Alice" || p.Phone != "555-0101" || p.Role != auth.RoleAgent {
		t.Fatalf("p = %+v", p)
	}
	if got := store.State.Principals["A1"]; got.Name != "Alice" || got.Email != "a1@example.com" {
		t.Fatalf("stored = %+v", got)
	}

	_, err = svc.UpdateProfile(ctx, agentA1, ProfileInput{Role: ptr("admin")})
	if apperr.KindOf(err) != apperr.KindAuthorization {
		t.Fatalf("self promotion: got %v", err)
	}
	if store.State.Principals["A1"].Role != auth.RoleAgent {
		t.Fatal("role changed")
	}
	if _, err := svc.UpdateProfile(ctx, agentA1, ProfileInput{Role: ptr("Agent"), Name: ptr("Alice B")}); err != nil {
		t.Fatalf("same role rejected: %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, agentA1, ProfileInput{Name: ptr("  ")}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("blank name: got %v", err)
	}
}
