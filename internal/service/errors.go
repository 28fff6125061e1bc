package service

import "errors"

// Closed failure taxonomy for the authentication service. The HTTP layer is
// the only place these are translated into transport status codes.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrInvalidPassword    = errors.New("incorrect password")
	ErrInvalid2FACode     = errors.New("invalid 2fa code")
	ErrInvalid2FASetup    = errors.New("2fa is not set up for this user")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
)
