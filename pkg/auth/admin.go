package auth

import "errors"

var (
	ErrMissingAdminSecret = errors.New("admin secret not provided")
	ErrInvalidAdminSecret = errors.New("invalid admin secret")
)
