package config

import "errors"

// Configuration validation errors, returned by Config.Validate.
//
// Design decision: Package-level sentinel errors rather than fmt.Errorf
// in Validate, so callers can use errors.Is while the messages stay
// human-readable.
var (
	// ErrInvalidSeed is returned when the seed is not an absolute
	// http/https URL.
	ErrInvalidSeed = errors.New("invalid seed: must be an absolute http or https URL")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	// Zero disables the delay, which is valid but discouraged.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrInvalidRenderEndpoint is returned for an unparseable render
	// service URL.
	ErrInvalidRenderEndpoint = errors.New("invalid render endpoint URL")

	// ErrLoginDataWithoutURL is returned when login form data is given
	// without a login URL to post it to.
	ErrLoginDataWithoutURL = errors.New("login data specified without --login-url")
)
