package httpapi

import "strings"

// RouteRule restricts (method, pattern) to the listed roles. An empty
// method matches every method; empty roles mean any authenticated identity.
type RouteRule struct {
	Method  string
	Pattern string
	Roles   []string
}

// Policy is the ordered authorization table. Evaluation order is fixed:
// allowlist first, then the rules top to bottom (first match wins), then
// the authenticated-only default. The same request always takes the same
// path through the table.
type Policy struct {
	Allowlist []string
	Rules     []RouteRule
}

// matchPattern supports exact paths and a trailing "/*" wildcard. "/x/*"
// matches "/x", "/x/" and anything below it.
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		base := strings.TrimSuffix(pattern, "/*")
		return path == base || strings.HasPrefix(path, base+"/")
	}
	return path == pattern
}

// IsAllowlisted reports whether the path skips authentication entirely.
// Allowlisted routes never see token errors: a present-but-invalid token on
// a public route does not block the request.
func (p *Policy) IsAllowlisted(path string) bool {
	for _, pattern := range p.Allowlist {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// RequiredRoles returns the role set the request must hold, or nil when any
// authenticated identity suffices.
func (p *Policy) RequiredRoles(method, path string) []string {
	for _, rule := range p.Rules {
		if rule.Method != "" && rule.Method != method {
			continue
		}
		if matchPattern(rule.Pattern, path) {
			return rule.Roles
		}
	}
	return nil
}

const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// DefaultPolicy mirrors the service's security configuration: public auth
// and liveness routes, admin-only account administration, user-or-admin for
// every social route, authenticated-only for the rest.
func DefaultPolicy() *Policy {
	userOrAdmin := []string{RoleUser, RoleAdmin}
	return &Policy{
		Allowlist: []string{
			"/",
			"/error",
			"/healthz",
			"/readyz",
			"/metrics",
			"/api/auth/login",
			"/api/auth/refresh/*",
			"/api/auth/user/createAccount/*",
			"/api/auth/password/token",
			"/api/registrationConfirm",
			"/api/recovery/*",
			"/api/resend/*",
			"/api/post/download/*",
			"/api/user/save/*",
			"/ws/*",
		},
		Rules: []RouteRule{
			{Method: "GET", Pattern: "/api/auth/*", Roles: []string{RoleAdmin}},
			{Pattern: "/api/auth/role/*", Roles: []string{RoleAdmin}},
			{Pattern: "/api/post/*", Roles: userOrAdmin},
			{Pattern: "/api/comment/*", Roles: userOrAdmin},
			{Pattern: "/api/like/*", Roles: userOrAdmin},
			{Pattern: "/api/user/*", Roles: userOrAdmin},
			{Pattern: "/api/friend/*", Roles: userOrAdmin},
			{Pattern: "/api/notification/*", Roles: userOrAdmin},
			{Pattern: "/api/chat/*", Roles: userOrAdmin},
		},
	}
}
