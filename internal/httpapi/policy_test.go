package httpapi

import "testing"

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/healthz", "/healthz", true},
		{"/healthz", "/healthz/", false},
		{"/api/recovery/*", "/api/recovery", true},
		{"/api/recovery/*", "/api/recovery/password", true},
		{"/api/recovery/*", "/api/recoveryX", false},
		{"/ws/*", "/ws", true},
		{"/ws/*", "/ws/anything/below", true},
		{"/", "/", true},
		{"/", "/api", false},
	}
	for _, tc := range cases {
		if got := matchPattern(tc.pattern, tc.path); got != tc.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tc.pattern, tc.path, got, tc.want)
		}
	}
}

func TestDefaultPolicyAllowlist(t *testing.T) {
	p := DefaultPolicy()
	public := []string{
		"/",
		"/healthz",
		"/readyz",
		"/metrics",
		"/api/auth/login",
		"/api/auth/refresh/token",
		"/api/auth/user/createAccount",
		"/api/registrationConfirm",
		"/api/recovery/password",
		"/api/post/download/posts/abc",
		"/ws",
	}
	for _, path := range public {
		if !p.IsAllowlisted(path) {
			t.Errorf("expected %q to be allowlisted", path)
		}
	}
	protected := []string{
		"/api/post/save",
		"/api/auth/accounts",
		"/api/notification/list",
		"/api/auth/password",
	}
	for _, path := range protected {
		if p.IsAllowlisted(path) {
			t.Errorf("expected %q to require authentication", path)
		}
	}
}

func TestDefaultPolicyRoles(t *testing.T) {
	p := DefaultPolicy()

	roles := p.RequiredRoles("GET", "/api/auth/accounts")
	if len(roles) != 1 || roles[0] != RoleAdmin {
		t.Fatalf("admin listing roles = %v, want [ROLE_ADMIN]", roles)
	}

	roles = p.RequiredRoles("POST", "/api/post/save")
	if len(roles) != 2 || roles[0] != RoleUser || roles[1] != RoleAdmin {
		t.Fatalf("post roles = %v, want user-or-admin", roles)
	}

	// PUT /api/auth/password is not admin-gated: any authenticated identity.
	if roles := p.RequiredRoles("PUT", "/api/auth/password"); roles != nil {
		t.Fatalf("password change roles = %v, want nil", roles)
	}

	// First match wins: role routes are admin-only for every method.
	roles = p.RequiredRoles("PUT", "/api/auth/role/addToUser")
	if len(roles) != 1 || roles[0] != RoleAdmin {
		t.Fatalf("role grant roles = %v, want [ROLE_ADMIN]", roles)
	}
}
