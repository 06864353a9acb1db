package vault

import "errors"

var (
	// ErrAuthentication is returned for an unknown user and for a wrong
	// password alike.
	ErrAuthentication   = errors.New("invalid username or password")
	ErrDuplicateUser    = errors.New("username already taken")
	ErrDuplicateService = errors.New("a secret for this service already exists")
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrAlreadyAuthenticated is returned by operations that are only
	// allowed while the session is anonymous, such as registration.
	ErrAlreadyAuthenticated = errors.New("already logged in, log out first")
	ErrLoginInProgress      = errors.New("login already in progress")
	ErrSecretNotFound   = errors.New("secret not found")
	ErrInvalidUsername  = errors.New("username must not be empty")
	ErrInvalidService   = errors.New("service must not be empty")
)
