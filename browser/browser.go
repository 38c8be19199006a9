// Package browser acquires an authenticated session by driving a real
// browser through the service's interactive login form. The automation
// engine sits behind the Acquirer interface so catalog and fetch logic never
// touch it directly.
package browser

import (
	"context"
	"time"

	"github.com/streamget/stbak/types"
)

const (
	loginURL = "https://streamable.com/login"

	// videosPathFragment is the post-login landing page; reaching it is the
	// success signal.
	videosPathFragment = "/videos"

	defaultLoginTimeout = 15 * time.Second
	browserTimeout      = 120 * time.Second
)

// Acquirer obtains an authenticated session from login credentials.
// One attempt, fail fast; a two-factor challenge is not detected and
// surfaces as a login timeout.
type Acquirer interface {
	Acquire(ctx context.Context, creds types.Credentials) (*types.Session, error)
}

// Options configure browser startup and the login wait.
type Options struct {
	// Headless runs the browser without a window. Turn it off to watch the
	// login for diagnostics.
	Headless bool
	// ExecPath points at an explicit browser binary. Empty auto-detects.
	ExecPath string
	// LoginTimeout bounds the wait for the post-login signal.
	LoginTimeout time.Duration
}

func (o Options) loginTimeout() time.Duration {
	if o.LoginTimeout > 0 {
		return o.LoginTimeout
	}
	return defaultLoginTimeout
}
