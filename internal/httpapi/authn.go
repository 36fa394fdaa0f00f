package httpapi

import (
	"errors"
	"net/http"

	"shareme.org/internal/auth"
)

// writeAuthError maps a verification failure onto the 401/403 envelope.
// Every 401 carries WWW-Authenticate so clients know the expected scheme.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		w.Header().Set("WWW-Authenticate", `Bearer realm="shareme"`)
		writeError(w, http.StatusUnauthorized, "missing_credentials", "authentication required")
	case errors.Is(err, auth.ErrTokenExpired):
		w.Header().Set("WWW-Authenticate", `Bearer realm="shareme", error="invalid_token"`)
		writeError(w, http.StatusUnauthorized, "token_expired", "token expired")
	case errors.Is(err, auth.ErrInvalidSignature):
		w.Header().Set("WWW-Authenticate", `Bearer realm="shareme", error="invalid_token"`)
		writeError(w, http.StatusUnauthorized, "invalid_signature", "token signature invalid")
	case errors.Is(err, auth.ErrInsufficientRole):
		writeError(w, http.StatusForbidden, "insufficient_role", "role not sufficient for this route")
	default:
		w.Header().Set("WWW-Authenticate", `Bearer realm="shareme", error="invalid_token"`)
		writeError(w, http.StatusUnauthorized, "malformed_token", "token malformed")
	}
}

// withAuth is the request filter: allowlist check, bearer extraction, token
// verification, role check, identity attachment. On protected routes a
// token failure is terminal; it is never downgraded to anonymous access.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if a.policy.IsAllowlisted(r.URL.Path) {
			// Public route. A valid token still attaches an identity so
			// handlers that work for both anonymous and signed-in callers
			// can tell them apart; a bad or missing token is ignored.
			if token, err := extractBearerToken(r.Header.Get("Authorization")); err == nil {
				if claims, err := a.authn.Tokens().VerifyAccess(token); err == nil {
					ctx := auth.ContextWithIdentity(r.Context(), auth.Identity{Subject: claims.Subject, Roles: claims.Roles})
					r = r.WithContext(auth.ContextWithToken(ctx, token))
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeAuthError(w, err)
			return
		}

		claims, err := a.authn.Tokens().VerifyAccess(token)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		identity := auth.Identity{Subject: claims.Subject, Roles: claims.Roles}
		if required := a.policy.RequiredRoles(r.Method, r.URL.Path); len(required) > 0 {
			if !identity.HasAnyRole(required) {
				writeAuthError(w, auth.ErrInsufficientRole)
				return
			}
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
