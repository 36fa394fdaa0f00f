package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"shareme.org/internal/auth"
	"shareme.org/internal/bucket"
	"shareme.org/internal/email"
	"shareme.org/internal/social"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the error envelope {"error":{"code","message"}} every
// failure path uses, machine code first.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", auth.ErrMissingCredentials
	}
	const bearer = "Bearer "
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", auth.ErrMissingCredentials
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", auth.ErrMissingCredentials
	}
	return token, nil
}

// writeDomainError maps service and store errors onto status codes. Unknown
// errors become opaque 500s so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, social.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, social.ErrNotFound), errors.Is(err, bucket.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, social.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", "resource already exists")
	case errors.Is(err, social.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "not allowed")
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, auth.ErrUserExists):
		writeError(w, http.StatusConflict, "already_exists", "username already taken")
	case errors.Is(err, auth.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, "bad_credentials", "invalid username or password")
	case errors.Is(err, auth.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "credential storage unavailable")
	case errors.Is(err, email.ErrTokenInvalid):
		writeError(w, http.StatusBadRequest, "token_invalid", "token invalid")
	case errors.Is(err, email.ErrTokenExpired):
		writeError(w, http.StatusBadRequest, "token_expired", "token expired")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
