package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/streamget/stbak"
	"github.com/streamget/stbak/browser"
	"github.com/streamget/stbak/errs"
	"github.com/streamget/stbak/internal/logger"
	"github.com/streamget/stbak/pkg/client"
	"github.com/streamget/stbak/types"
)

func main() {
	var (
		flagEmail      string
		flagPassword   string
		flagOutput     string
		flagNoHeadless bool
		flagBrowser    string
		flagTimeout    time.Duration
		flagRetries    int
		flagUA         string
		flagProxy      string
		flagPageSize   int
		flagNoProgress bool
	)

	flag.StringVar(&flagEmail, "email", "", "Account email or username (or STBAK_EMAIL)")
	flag.StringVar(&flagPassword, "password", "", "Account password (or STBAK_PASSWORD)")
	flag.StringVar(&flagOutput, "output", "./streamable_videos", "Output directory for downloaded videos")
	flag.BoolVar(&flagNoHeadless, "no-headless", false, "Show the browser window during login")
	flag.StringVar(&flagBrowser, "browser", "", "Path to a Chrome/Chromium binary. Empty auto-detects")
	flag.DurationVar(&flagTimeout, "http-timeout", 30*time.Second, "HTTP timeout (e.g., 30s, 1m)")
	flag.IntVar(&flagRetries, "retries", 3, "HTTP retries for transient errors")
	flag.StringVar(&flagUA, "ua", "", "Override User-Agent header")
	flag.StringVar(&flagProxy, "proxy", "", "Proxy URL (http/https/socks)")
	flag.IntVar(&flagPageSize, "page-size", 0, "Catalog page size (0 uses the default)")
	flag.BoolVar(&flagNoProgress, "no-progress", false, "Disable progress bars")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -email <email> -password <password> [flags]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flagEmail == "" {
		flagEmail = os.Getenv("STBAK_EMAIL")
	}
	if flagPassword == "" {
		flagPassword = os.Getenv("STBAK_PASSWORD")
	}
	if flagEmail == "" || flagPassword == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Logger from environment (STBAK_LOG_LEVEL etc.)
	logCfg := logger.EnvironmentConfig()
	if err := logCfg.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log configuration: %v\n", err)
		os.Exit(2)
	}
	if l, err := logger.CreateLoggerFromConfig(logCfg); err == nil {
		logger.SetGlobalLogger(l)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.NewWith(client.Config{
		Timeout:   flagTimeout,
		Retries:   flagRetries,
		UserAgent: flagUA,
		ProxyURL:  flagProxy,
	})

	arch := stbak.New().
		WithHTTPClient(c).
		WithOutputDir(flagOutput).
		WithPageSize(flagPageSize).
		WithBrowser(browser.Options{
			Headless: !flagNoHeadless,
			ExecPath: flagBrowser,
		})

	fmt.Fprintln(os.Stdout, "Logging in...")
	session, err := arch.Login(ctx, types.Credentials{Email: flagEmail, Password: flagPassword})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stdout, "Listing videos...")
	videos, listErr := arch.ListAll(ctx, session)
	if listErr != nil {
		fmt.Fprintf(os.Stderr, "Listing incomplete: %v\n", listErr)
		if len(videos) == 0 {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Continuing with %d videos gathered so far\n", len(videos))
	}
	if len(videos) == 0 {
		fmt.Fprintln(os.Stdout, "No videos found")
		return
	}
	fmt.Fprintf(os.Stdout, "Found %d videos\n", len(videos))

	var summary types.Summary
	exitCode := 0
	if listErr != nil {
		exitCode = 1
	}

	for i, video := range videos {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "Interrupted")
			exitCode = 1
			break
		}

		var report types.FetchReport
		if flagNoProgress {
			fmt.Fprintf(os.Stdout, "[%d/%d] %s (%s)\n", i+1, len(videos), video.Title, video.Shortcode)
			report = arch.Fetch(ctx, session, video)
		} else {
			report = fetchWithBar(ctx, arch, session, video, i+1, len(videos))
		}
		summary.Add(report)

		switch report.Status {
		case types.FetchDownloaded:
			fmt.Fprintf(os.Stdout, "Saved: %s\n", report.Path)
		case types.FetchSkipped:
			fmt.Fprintf(os.Stdout, "Skipped (already downloaded): %s\n", report.Path)
		case types.FetchFailed:
			fmt.Fprintf(os.Stderr, "Failed %s: %v\n", video.Shortcode, report.Err)
		}

		if report.Err != nil && errors.Is(report.Err, errs.ErrResource) {
			fmt.Fprintf(os.Stderr, "Aborting: %v\n", report.Err)
			exitCode = 1
			break
		}
	}

	fmt.Fprintf(os.Stdout, "\nDownloaded: %d  Skipped: %d  Failed: %d  (total %d)\n",
		summary.Downloaded, summary.Skipped, summary.Failed, summary.Total())
	os.Exit(exitCode)
}

// fetchWithBar runs a single fetch with an mpb progress bar on stdout. The
// bar is created lazily on the first progress callback so skipped videos
// render nothing.
func fetchWithBar(ctx context.Context, arch *stbak.Archiver, session *types.Session, video types.Video, index, count int) types.FetchReport {
	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stdout))
	name := fmt.Sprintf("[%d/%d] %s", index, count, video.Shortcode)

	var bar *mpb.Bar
	arch.WithProgress(func(pr stbak.Progress) {
		if bar == nil {
			bar = p.AddBar(pr.TotalSize,
				mpb.PrependDecorators(
					decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
					decor.Percentage(decor.WCSyncSpace),
				),
				mpb.AppendDecorators(
					decor.CountersKibiByte("% .1f / % .1f"),
				),
			)
		}
		bar.SetTotal(pr.TotalSize, false)
		bar.SetCurrent(pr.DownloadedSize)
	})

	report := arch.Fetch(ctx, session, video)
	arch.WithProgress(nil)

	if bar != nil {
		if report.Status == types.FetchDownloaded {
			bar.SetTotal(-1, true)
		} else {
			bar.Abort(false)
		}
	}
	p.Wait()
	return report
}
