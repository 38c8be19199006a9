package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/streamget/stbak/errs"
	"github.com/streamget/stbak/internal/logger"
	"github.com/streamget/stbak/types"
)

const (
	userAgentValue = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	selectorEmail    = `input[placeholder*="Email" i], input[placeholder*="username" i]`
	selectorPassword = `input[type="password"]`
	selectorSubmit   = `//button[@type="submit" and contains(., "Log In")]`

	settleDelay  = 2 * time.Second
	pollInterval = 500 * time.Millisecond
)

// dismissConsentJS clicks the cookie-consent banner when one is shown.
const dismissConsentJS = `(() => {
	const btn = [...document.querySelectorAll('button')]
		.find(b => /accept all cookies|continue without accepting/i.test(b.textContent));
	if (btn) { btn.click(); return true; }
	return false;
})()`

// ChromeAcquirer drives a Chromium-based browser over CDP.
type ChromeAcquirer struct {
	opts Options
	log  *logger.ComponentLogger
}

// NewChrome creates a ChromeAcquirer with the given options.
func NewChrome(opts Options) *ChromeAcquirer {
	return &ChromeAcquirer{
		opts: opts,
		log:  logger.WithComponent(logger.ComponentBrowser),
	}
}

// Acquire navigates to the login page, submits the credentials, waits for
// the post-login redirect, and extracts the session cookies from the
// browser context. The browser is torn down before returning.
func (a *ChromeAcquirer) Acquire(ctx context.Context, creds types.Credentials) (*types.Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", a.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent(userAgentValue),
	)
	if a.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(a.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancelTimeout := context.WithTimeout(browserCtx, browserTimeout)
	defer cancelTimeout()

	a.log.Info("Opening login page", map[string]interface{}{"headless": a.opts.Headless})

	var dismissed bool
	if err := chromedp.Run(runCtx, chromedp.Tasks{
		chromedp.Navigate(loginURL),
		chromedp.Sleep(settleDelay),
		chromedp.Evaluate(dismissConsentJS, &dismissed),
	}); err != nil {
		return nil, fmt.Errorf("navigate to login page: %w", err)
	}
	if dismissed {
		a.log.Debug("Dismissed cookie consent banner")
	}

	formCtx, cancelForm := context.WithTimeout(runCtx, a.opts.loginTimeout())
	defer cancelForm()
	if err := chromedp.Run(formCtx, chromedp.Tasks{
		chromedp.WaitVisible(selectorEmail, chromedp.ByQuery),
		chromedp.SendKeys(selectorEmail, creds.Email, chromedp.ByQuery),
		chromedp.WaitVisible(selectorPassword, chromedp.ByQuery),
		chromedp.SendKeys(selectorPassword, creds.Password, chromedp.ByQuery),
		chromedp.Click(selectorSubmit, chromedp.BySearch),
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrLoginFormMissing, err)
	}

	if err := a.waitForLogin(runCtx); err != nil {
		return nil, err
	}

	session, err := a.extractSession(runCtx)
	if err != nil {
		return nil, fmt.Errorf("extract session cookies: %w", err)
	}
	a.log.Info("Login successful", map[string]interface{}{"cookies": len(session.Cookies)})
	return session, nil
}

// waitForLogin polls the page location until it reaches the videos page or
// the login timeout elapses. A location still on the login page means the
// credentials were rejected.
func (a *ChromeAcquirer) waitForLogin(ctx context.Context) error {
	deadline := time.Now().Add(a.opts.loginTimeout())
	for {
		var location string
		if err := chromedp.Run(ctx, chromedp.Location(&location)); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrLoginTimeout, err)
		}
		if loginSucceeded(location) {
			return nil
		}
		if time.Now().After(deadline) {
			if strings.Contains(strings.ToLower(location), "login") {
				return fmt.Errorf("%w: still on %s", errs.ErrLoginFailed, location)
			}
			return fmt.Errorf("%w: landed on %s", errs.ErrLoginTimeout, location)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", errs.ErrLoginTimeout, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// extractSession pulls the cookie jar out of the browser context.
func (a *ChromeAcquirer) extractSession(ctx context.Context) (*types.Session, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return sessionFromCookies(cookies), nil
}

// loginSucceeded reports whether the location is the post-login landing page.
func loginSucceeded(location string) bool {
	return strings.Contains(location, videosPathFragment)
}

// sessionFromCookies converts CDP cookies into the session value the rest
// of the tool consumes.
func sessionFromCookies(cookies []*network.Cookie) *types.Session {
	session := &types.Session{Cookies: make([]types.Cookie, 0, len(cookies))}
	for _, c := range cookies {
		if c == nil {
			continue
		}
		cookie := types.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		session.Cookies = append(session.Cookies, cookie)
	}
	return session
}
