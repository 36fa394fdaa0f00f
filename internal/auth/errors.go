package auth

import "errors"

// Error taxonomy shared by the token engine, the authenticator and the HTTP
// authorization filter. Verification failures are terminal: callers map them
// to a response, they are never recovered into anonymous access.
var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrTokenMalformed     = errors.New("auth: malformed token")
	ErrInvalidSignature   = errors.New("auth: invalid token signature")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrInsufficientRole   = errors.New("auth: insufficient role")
	ErrBadCredentials     = errors.New("auth: bad credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrUserExists         = errors.New("auth: user already exists")
	ErrStorageUnavailable = errors.New("auth: credential storage unavailable")
)
