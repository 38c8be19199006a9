// Package stbak provides a high-level API for backing up a Streamable
// account: log in through a browser, enumerate the account's videos, and
// download each at the best available quality.
package stbak

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/streamget/stbak/browser"
	"github.com/streamget/stbak/downloader"
	"github.com/streamget/stbak/errs"
	"github.com/streamget/stbak/internal/logger"
	"github.com/streamget/stbak/internal/sanitize"
	"github.com/streamget/stbak/pkg/client"
	"github.com/streamget/stbak/streamable"
	"github.com/streamget/stbak/types"
)

const defaultOutputDir = "./streamable_videos"

// Progress describes current progress of an ongoing download.
// Re-exported so callers do not need to import the downloader package.
type Progress = downloader.Progress

// ArchiveOptions contains configuration for an archiving run.
//
// Use chainable setters on Archiver to populate these options.
type ArchiveOptions struct {
	OutputDir    string
	HTTPClient   *client.Client
	ProgressFunc func(Progress)
	PageSize     int
	Browser      browser.Options
}

// Archiver provides a high-level API for logging in, listing an account's
// videos and downloading them using internal clients and helpers.
type Archiver struct {
	options  ArchiveOptions
	acquirer browser.Acquirer

	// test seams
	listURL    string
	resolveURL string

	log *logger.ComponentLogger
}

// New creates a new Archiver instance with default options.
func New() *Archiver {
	return &Archiver{
		options: ArchiveOptions{OutputDir: defaultOutputDir},
		log:     logger.WithComponent(logger.ComponentApp),
	}
}

// WithOutputDir sets the directory downloaded files are written to. It is
// created on first use.
func (a *Archiver) WithOutputDir(dir string) *Archiver {
	if dir != "" {
		a.options.OutputDir = dir
	}
	return a
}

// WithHTTPClient sets a custom HTTP client to be used for all network calls.
func (a *Archiver) WithHTTPClient(c *client.Client) *Archiver {
	a.options.HTTPClient = c
	return a
}

// WithClientConfig builds the HTTP client from the given configuration.
func (a *Archiver) WithClientConfig(cfg client.Config) *Archiver {
	a.options.HTTPClient = client.NewWith(cfg)
	return a
}

// WithProgress registers a callback that receives download progress updates.
func (a *Archiver) WithProgress(f func(Progress)) *Archiver {
	a.options.ProgressFunc = f
	return a
}

// WithPageSize overrides the catalog page size.
func (a *Archiver) WithPageSize(n int) *Archiver {
	a.options.PageSize = n
	return a
}

// WithBrowser sets browser startup options for the login step.
func (a *Archiver) WithBrowser(opts browser.Options) *Archiver {
	a.options.Browser = opts
	return a
}

// WithAcquirer swaps the session acquirer. Mostly useful in tests.
func (a *Archiver) WithAcquirer(acq browser.Acquirer) *Archiver {
	a.acquirer = acq
	return a
}

// WithAPIEndpoints overrides the listing and resolution endpoints.
// Mostly useful in tests.
func (a *Archiver) WithAPIEndpoints(listURL, resolveURL string) *Archiver {
	a.listURL = listURL
	a.resolveURL = resolveURL
	return a
}

// Login performs the interactive browser login and returns the acquired
// session. The browser is torn down before this returns.
func (a *Archiver) Login(ctx context.Context, creds types.Credentials) (*types.Session, error) {
	acq := a.acquirer
	if acq == nil {
		acq = browser.NewChrome(a.options.Browser)
	}
	return acq.Acquire(ctx, creds)
}

// ListAll enumerates every video in the account. On a catalog failure the
// descriptors gathered so far are returned alongside the error.
func (a *Archiver) ListAll(ctx context.Context, session *types.Session) ([]types.Video, error) {
	return a.api().ListAll(ctx, session)
}

// Fetch downloads a single video. Ordinary failures are recorded in the
// report rather than returned, so a batch keeps going; only resource errors
// (unwritable output directory, disk failures) make the report fatal via
// errs.IsFatal on its Err.
func (a *Archiver) Fetch(ctx context.Context, session *types.Session, video types.Video) types.FetchReport {
	report := types.FetchReport{
		Shortcode: video.Shortcode,
		Title:     video.Title,
	}

	if err := os.MkdirAll(a.options.OutputDir, 0o755); err != nil {
		report.Status = types.FetchFailed
		report.Err = fmt.Errorf("%w: create output dir: %v", errs.ErrResource, err)
		return report
	}

	// Resume check happens before any network call so a rerun over an
	// already-archived account touches nothing.
	path := filepath.Join(a.options.OutputDir, sanitize.OutputName(video.Title, video.Shortcode))
	if fi, err := os.Stat(path); err == nil && fi.Size() > 0 {
		report.Status = types.FetchSkipped
		report.Path = path
		a.log.Debug("Already downloaded", map[string]interface{}{"shortcode": video.Shortcode, "path": path})
		return report
	}

	resolution, err := a.api().Resolve(ctx, session, video.Shortcode)
	if err != nil {
		report.Status = types.FetchFailed
		report.Err = err
		return report
	}
	if resolution.Title != "" && resolution.Title != video.Title {
		report.Title = resolution.Title
		path = filepath.Join(a.options.OutputDir, sanitize.OutputName(resolution.Title, video.Shortcode))
		if fi, serr := os.Stat(path); serr == nil && fi.Size() > 0 {
			report.Status = types.FetchSkipped
			report.Path = path
			return report
		}
	}

	variant, file, ok := streamable.BestVariant(resolution.Files)
	if !ok {
		report.Status = types.FetchFailed
		report.Err = fmt.Errorf("%w: %s", errs.ErrNoVariant, video.Shortcode)
		return report
	}
	report.Variant = variant
	report.Path = path

	httpClient := a.httpClient().WithSession(session)
	dl := downloader.New(httpClient.HTTPClient, a.options.ProgressFunc)
	written, err := dl.Download(ctx, file.URL, path)
	report.BytesWritten = written
	if err != nil {
		report.Status = types.FetchFailed
		report.Err = err
		return report
	}

	report.Status = types.FetchDownloaded
	return report
}

// FetchAll runs Fetch over the descriptors sequentially and accumulates a
// summary. It stops early only on a fatal (resource) error or context
// cancellation; per-video failures are counted and the batch continues.
func (a *Archiver) FetchAll(ctx context.Context, session *types.Session, videos []types.Video) (types.Summary, error) {
	var summary types.Summary
	for i, video := range videos {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		a.log.Info("Fetching video", map[string]interface{}{
			"shortcode": video.Shortcode,
			"index":     i + 1,
			"count":     len(videos),
		})
		report := a.Fetch(ctx, session, video)
		summary.Add(report)

		if report.Err != nil {
			if errors.Is(report.Err, errs.ErrResource) {
				return summary, report.Err
			}
			a.log.Warn("Video failed", map[string]interface{}{
				"shortcode": video.Shortcode,
				"error":     report.Err.Error(),
			})
		}
	}
	return summary, nil
}

// api builds the catalog client from the current options.
func (a *Archiver) api() *streamable.Client {
	c := streamable.New(a.httpClient())
	if a.options.PageSize > 0 {
		c.WithPageSize(a.options.PageSize)
	}
	if a.listURL != "" || a.resolveURL != "" {
		c.WithEndpoints(a.listURL, a.resolveURL)
	}
	return c
}

func (a *Archiver) httpClient() *client.Client {
	if a.options.HTTPClient != nil {
		return a.options.HTTPClient
	}
	return client.New()
}
