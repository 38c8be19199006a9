// Package downloader streams media files to disk. Writes go to a temporary
// path that is renamed into place on completion, so a killed process never
// leaves a half-written file at the final path.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/streamget/stbak/errs"
	"github.com/streamget/stbak/internal/logger"
)

const (
	defaultMaxRetries      = 3      // transfer attempts
	temporaryFileSuffix    = ".tmp" // suffix for temp download
	initialBackoffDuration = 200 * time.Millisecond
	maxBackoffDuration     = 3 * time.Second
	copyBufferSizeBytes    = 32 * 1024 // 32KB

	headerRange         = "Range"
	headerContentRange  = "Content-Range"
	headerContentLength = "Content-Length"
)

// Progress holds information about download progress.
type Progress struct {
	TotalSize      int64
	DownloadedSize int64
	Percent        float64
}

// Downloader streams a URL to a file with resume from a partial temp file,
// bounded retry with backoff for transient failures, and progress reporting.
type Downloader struct {
	Client       *http.Client
	ProgressFunc func(Progress)

	maxRetries int
	log        *logger.ComponentLogger
}

// New creates a new downloader instance. If client is nil, a default
// http.Client is used.
func New(client *http.Client, progressFunc func(Progress)) *Downloader {
	if client == nil {
		client = &http.Client{}
	}
	return &Downloader{
		Client:       client,
		ProgressFunc: progressFunc,
		maxRetries:   defaultMaxRetries,
		log:          logger.WithComponent(logger.ComponentDownloader),
	}
}

// Download fetches urlStr into outputPath and returns the bytes written
// during this call. An existing temp file is resumed via a ranged request.
// Disk write failures wrap errs.ErrResource; everything else is a transfer
// error the caller may treat as per-item.
func (d *Downloader) Download(ctx context.Context, urlStr, outputPath string) (int64, error) {
	tmpPath := outputPath + temporaryFileSuffix

	var outFile *os.File
	var err error
	if _, statErr := os.Stat(tmpPath); statErr == nil {
		outFile, err = os.OpenFile(tmpPath, os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, fmt.Errorf("%w: open temp for append: %v", errs.ErrResource, err)
		}
		d.log.Debug("Resuming from existing temp file", map[string]interface{}{"path": tmpPath})
	} else {
		outFile, err = os.Create(tmpPath)
		if err != nil {
			return 0, fmt.Errorf("%w: create temp file: %v", errs.ErrResource, err)
		}
	}
	defer func() { _ = outFile.Close() }()

	info, err := outFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat temp file: %v", errs.ErrResource, err)
	}
	offset := info.Size()

	var written int64
	backoff := initialBackoffDuration
	var lastErr error
	for attempt := 0; attempt < d.maxRetries; attempt++ {
		if attempt > 0 {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoffDuration {
				backoff = maxBackoffDuration
			}
		}

		var n int64
		n, offset, lastErr = d.transfer(ctx, urlStr, outFile, offset)
		written += n
		if lastErr == nil {
			break
		}
		if errs.IsFatal(lastErr) || ctx.Err() != nil {
			return written, lastErr
		}
		d.log.Warn("Transfer attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		})
	}
	if lastErr != nil {
		return written, lastErr
	}

	if fi, err := os.Stat(tmpPath); err == nil && fi.Size() == 0 {
		_ = os.Remove(tmpPath)
		return written, fmt.Errorf("empty download: 0 bytes written")
	}

	if err := outFile.Close(); err != nil {
		return written, fmt.Errorf("%w: close temp file: %v", errs.ErrResource, err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return written, fmt.Errorf("%w: rename temp file: %v", errs.ErrResource, err)
	}
	return written, nil
}

// transfer performs one download attempt starting at offset and returns the
// bytes written this attempt plus the new offset.
func (d *Downloader) transfer(ctx context.Context, urlStr string, outFile *os.File, offset int64) (int64, int64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return 0, offset, err
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Connection", "keep-alive")
	if offset > 0 {
		req.Header.Set(headerRange, fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, offset, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusPartialContent:
		// resuming where we left off
	case resp.StatusCode == http.StatusOK:
		if offset > 0 {
			// Server ignored the range; start over from the beginning.
			if err := outFile.Truncate(0); err != nil {
				return 0, offset, fmt.Errorf("%w: truncate temp file: %v", errs.ErrResource, err)
			}
			if _, err := outFile.Seek(0, io.SeekStart); err != nil {
				return 0, offset, fmt.Errorf("%w: rewind temp file: %v", errs.ErrResource, err)
			}
			offset = 0
		}
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		// The temp file already holds the full resource.
		return 0, offset, nil
	default:
		return 0, offset, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}

	totalSize := totalFromHeaders(resp, offset)
	d.log.Debug("Transfer started", map[string]interface{}{
		"offset": offset,
		"total":  totalSize,
	})

	buf := make([]byte, copyBufferSizeBytes)
	var written int64
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := outFile.Write(buf[:n]); werr != nil {
				return written, offset, fmt.Errorf("%w: write chunk: %v", errs.ErrResource, werr)
			}
			written += int64(n)
			offset += int64(n)
			if d.ProgressFunc != nil {
				p := Progress{TotalSize: totalSize, DownloadedSize: offset}
				if totalSize > 0 {
					p.Percent = float64(offset) / float64(totalSize) * 100
				}
				d.ProgressFunc(p)
			}
		}
		if rerr == io.EOF {
			return written, offset, nil
		}
		if rerr != nil {
			return written, offset, fmt.Errorf("read response body: %v", rerr)
		}
	}
}

// totalFromHeaders infers the full size of the resource from Content-Range
// or Content-Length. Zero means unknown.
func totalFromHeaders(resp *http.Response, offset int64) int64 {
	if cr := resp.Header.Get(headerContentRange); cr != "" {
		parts := strings.Split(cr, "/")
		if len(parts) == 2 {
			if v, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
				return v
			}
		}
	}
	if cl := resp.Header.Get(headerContentLength); cl != "" {
		if v, err := strconv.ParseInt(cl, 10, 64); err == nil {
			return v + offset
		}
	}
	return 0
}
