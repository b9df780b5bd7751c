package secret

import "errors"

var (
	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrUnknownProvider indicates a reference to an unregistered provider.
	ErrUnknownProvider = errors.New("secret: provider is not registered")

	// ErrDuplicateProvider indicates a provider name registered twice.
	ErrDuplicateProvider = errors.New("secret: provider already registered")

	// ErrInvalidRegistration indicates an empty name or nil factory.
	ErrInvalidRegistration = errors.New("secret: invalid provider registration")

	// ErrNotFound indicates the provider has no value for the reference.
	ErrNotFound = errors.New("secret: not found")

	// ErrEmpty indicates a strict resolver received an empty value.
	ErrEmpty = errors.New("secret: provider returned empty value")
)
