package social

import "errors"

var (
	ErrNotFound      = errors.New("social: not found")
	ErrAlreadyExists = errors.New("social: already exists")
	ErrInvalidInput  = errors.New("social: invalid input")
	ErrForbidden     = errors.New("social: forbidden")
)
