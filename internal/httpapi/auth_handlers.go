package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shareme.org/internal/audit"
	"shareme.org/internal/auth"
	"shareme.org/internal/email"
	"shareme.org/internal/social"
)

// Login exchanges username/password for a token pair.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	pair, err := a.authn.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		// A missing user answers like a wrong password so login does not
		// become a username oracle.
		if errors.Is(err, auth.ErrUserNotFound) {
			err = auth.ErrBadCredentials
		}
		writeDomainError(w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{"username": req.Username})
	writeJSON(w, http.StatusOK, pair)
}

// Refresh reads the refresh token from the Authorization header and returns
// a fresh access token together with the same refresh token.
func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := extractBearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	pair, err := a.authn.RefreshAccessToken(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrStorageUnavailable):
			writeDomainError(w, err)
		default:
			writeAuthError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// CreateAccount registers a disabled account plus its profile and mails a
// confirmation token. The account stays disabled until the token comes back
// on /api/registrationConfirm.
func (a *API) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "invalid_input", "username, email and a password of at least 8 characters are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := a.accounts.CreateAccount(r.Context(), req.Username, req.Email, hash, []string{RoleUser}); err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := a.social.SaveProfile(r.Context(), &social.UserProfile{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := a.sendAccountToken(r, req.Username, req.Email, email.PurposeConfirmRegistration); err != nil {
		writeDomainError(w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.create_account", map[string]any{"username": req.Username})
	writeJSON(w, http.StatusCreated, map[string]string{"status": "confirmation email sent"})
}

// ConfirmRegistration consumes the emailed token and enables the account.
func (a *API) ConfirmRegistration(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "token query parameter is required")
		return
	}
	username, err := a.oneTimeTokens.ConsumeToken(r.Context(), token, email.PurposeConfirmRegistration)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := a.accounts.EnableAccount(r.Context(), username); err != nil {
		writeDomainError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.registration_confirmed", map[string]any{"username": username})
	writeJSON(w, http.StatusOK, map[string]string{"status": "account enabled"})
}

// StartPasswordRecovery mints a recovery token and mails it. The response
// is identical whether or not the user exists.
func (a *API) StartPasswordRecovery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	a.startAccountTokenFlow(w, r, req.Username, email.PurposePasswordRecovery)
}

// ResendRegistrationToken mints a fresh confirmation token for an account
// that never confirmed. Same non-oracle response shape as recovery.
func (a *API) ResendRegistrationToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	a.startAccountTokenFlow(w, r, req.Username, email.PurposeConfirmRegistration)
}

func (a *API) startAccountTokenFlow(w http.ResponseWriter, r *http.Request, username, purpose string) {
	username = strings.TrimSpace(username)
	if username == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "username is required")
		return
	}
	profile, err := a.social.ProfileByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "email sent"})
			return
		}
		writeDomainError(w, err)
		return
	}
	if err := a.sendAccountToken(r, username, profile.Email, purpose); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "email sent"})
}

func (a *API) sendAccountToken(r *http.Request, username, to, purpose string) error {
	token := email.NewToken()
	expiresAt := time.Now().Add(email.TokenTTL)
	if err := a.oneTimeTokens.CreateToken(r.Context(), token, username, purpose, expiresAt); err != nil {
		return err
	}
	var subject, body string
	switch purpose {
	case email.PurposeConfirmRegistration:
		subject = "Confirm your registration"
		body = fmt.Sprintf("Confirm your account: /api/registrationConfirm?token=%s", token)
	default:
		subject = "Password recovery"
		body = fmt.Sprintf("Reset your password with token %s", token)
	}
	return a.mail.Send(r.Context(), to, subject, body)
}

// ChangePasswordByToken sets a new password using a recovery token. Public
// route: the token is the credential.
func (a *API) ChangePasswordByToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "invalid_input", "password must be at least 8 characters")
		return
	}
	username, err := a.oneTimeTokens.ConsumeToken(r.Context(), req.Token, email.PurposePasswordRecovery)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := a.accounts.UpdatePassword(r.Context(), username, hash); err != nil {
		writeDomainError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password_reset", map[string]any{"username": username})
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// ChangePassword rotates the caller's own password after re-checking the
// current one.
func (a *API) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "invalid_input", "password must be at least 8 characters")
		return
	}
	account, err := a.accounts.FindByUsername(r.Context(), identity.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := auth.VerifyPassword(account.PasswordHash, req.CurrentPassword); err != nil {
		writeDomainError(w, auth.ErrBadCredentials)
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := a.accounts.UpdatePassword(r.Context(), identity.Subject, hash); err != nil {
		writeDomainError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password_changed", nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// SaveRole registers a role name (admin).
func (a *API) SaveRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "role name is required")
		return
	}
	if err := a.accounts.SaveRole(r.Context(), req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.role_saved", map[string]any{"role": req.Name})
	writeJSON(w, http.StatusCreated, map[string]string{"status": "role saved"})
}

// AddRoleToUser grants a role to an account (admin). The grant takes effect
// on the user's next login or refresh; outstanding access tokens keep the
// role set they were minted with.
func (a *API) AddRoleToUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Role) == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "username and role are required")
		return
	}
	if err := a.accounts.AddRoleToAccount(r.Context(), req.Username, req.Role); err != nil {
		writeDomainError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.role_granted", map[string]any{"username": req.Username, "role": req.Role})
	writeJSON(w, http.StatusOK, map[string]string{"status": "role granted"})
}

// ListAccounts returns every account (admin).
func (a *API) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.accounts.ListAccounts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}
