package errs

import (
	"errors"
)

var (
	// ErrLoginFailed indicates the service rejected the supplied credentials.
	ErrLoginFailed = errors.New("login failed")
	// ErrLoginTimeout indicates the post-login signal was not observed in time.
	ErrLoginTimeout = errors.New("login timed out")
	// ErrLoginFormMissing indicates the login form could not be located.
	ErrLoginFormMissing = errors.New("login form not found")
	// ErrCatalog indicates a listing page request failed or returned unparseable data.
	ErrCatalog = errors.New("catalog listing failed")
	// ErrVideoUnavailable indicates the requested video cannot be accessed.
	ErrVideoUnavailable = errors.New("video unavailable")
	// ErrNoVariant indicates the resolution response exposed no downloadable variant.
	ErrNoVariant = errors.New("no variant available")
	// ErrResource indicates an unwritable output directory or a failed disk write.
	ErrResource = errors.New("resource error")
)

// IsAuth reports whether err belongs to the fatal authentication class.
func IsAuth(err error) bool {
	return errors.Is(err, ErrLoginFailed) ||
		errors.Is(err, ErrLoginTimeout) ||
		errors.Is(err, ErrLoginFormMissing)
}

// IsFatal reports whether err must abort the whole run. Per-video failures
// (unavailable video, missing variant, transfer errors) are never fatal.
func IsFatal(err error) bool {
	return IsAuth(err) || errors.Is(err, ErrCatalog) || errors.Is(err, ErrResource)
}
