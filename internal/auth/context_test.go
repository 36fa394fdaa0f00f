package auth

import (
	"context"
	"testing"
)

func TestIdentityRoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, ok := IdentityFromContext(ctx); ok {
		t.Fatal("empty context must not carry an identity")
	}

	id := Identity{Subject: "alice", Roles: []string{"ROLE_USER"}}
	ctx = ContextWithIdentity(ctx, id)

	got, ok := IdentityFromContext(ctx)
	if !ok {
		t.Fatal("identity not found in context")
	}
	if got.Subject != "alice" || !got.HasRole("ROLE_USER") {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if got.Anonymous() {
		t.Fatal("identity with subject must not be anonymous")
	}
}

func TestAnonymousIdentity(t *testing.T) {
	var id Identity
	if !id.Anonymous() {
		t.Fatal("zero identity must be anonymous")
	}
	if id.HasRole("ROLE_USER") {
		t.Fatal("anonymous identity has no roles")
	}
	if id.HasAnyRole([]string{"ROLE_USER", "ROLE_ADMIN"}) {
		t.Fatal("anonymous identity intersects no role set")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	ctx := ContextWithToken(context.Background(), "raw-token")
	if got, ok := TokenFromContext(ctx); !ok || got != "raw-token" {
		t.Fatalf("token round trip failed: %q %v", got, ok)
	}
	if _, ok := TokenFromContext(context.Background()); ok {
		t.Fatal("empty context must not carry a token")
	}
}
