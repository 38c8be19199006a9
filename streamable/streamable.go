// Package streamable talks to Streamable's listing and resolution endpoints.
//
// The listing endpoint is an internal, undocumented API; this package targets
// its current shape and accepts breakage if that shape changes.
package streamable

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/streamget/stbak/errs"
	"github.com/streamget/stbak/internal/logger"
	"github.com/streamget/stbak/pkg/client"
	"github.com/streamget/stbak/types"
)

const (
	defaultListURL    = "https://api-f.streamable.com/api/v1/videos"
	defaultResolveURL = "https://api.streamable.com/videos"
	defaultPageSize   = 50

	headerContentTypeJSON = "application/json"
)

// remote status codes reported by the listing API
const (
	statusCodeUploading  = 0
	statusCodeProcessing = 1
	statusCodeReady      = 2
)

// Client calls the listing and resolution endpoints with an authenticated
// session.
type Client struct {
	httpClient *client.Client
	listURL    string
	resolveURL string
	pageSize   int
	log        *logger.ComponentLogger
}

// New creates an API client on top of the given HTTP client.
func New(httpClient *client.Client) *Client {
	if httpClient == nil {
		httpClient = client.New()
	}
	return &Client{
		httpClient: httpClient,
		listURL:    defaultListURL,
		resolveURL: defaultResolveURL,
		pageSize:   defaultPageSize,
		log:        logger.WithComponent(logger.ComponentAPI),
	}
}

// WithPageSize overrides the listing page size. Values below 1 keep the default.
func (c *Client) WithPageSize(n int) *Client {
	if n > 0 {
		c.pageSize = n
	}
	return c
}

// WithEndpoints overrides the listing and resolution base URLs.
func (c *Client) WithEndpoints(listURL, resolveURL string) *Client {
	if listURL != "" {
		c.listURL = listURL
	}
	if resolveURL != "" {
		c.resolveURL = resolveURL
	}
	return c
}

type listItem struct {
	Shortcode string `json:"shortcode"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
}

type listResponse struct {
	Videos []listItem `json:"videos"`
	Total  int        `json:"total"`
}

// File is one quality variant exposed by the resolution endpoint.
type File struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

// Resolution is the per-video metadata returned by the resolution endpoint.
type Resolution struct {
	Title string          `json:"title"`
	Files map[string]File `json:"files"`
}

// ListAll enumerates the account's videos, following page numbers until the
// reported total is reached or a page comes back empty. Page order is
// preserved. On a failed page the videos gathered so far are returned
// together with an error wrapping errs.ErrCatalog; the caller decides
// whether the partial list is worth downloading.
func (c *Client) ListAll(ctx context.Context, session *types.Session) ([]types.Video, error) {
	var videos []types.Video
	for page := 1; ; page++ {
		resp, err := c.listPage(ctx, session, page)
		if err != nil {
			return videos, fmt.Errorf("%w: page %d: %v", errs.ErrCatalog, page, err)
		}
		if len(resp.Videos) == 0 {
			break
		}
		for _, item := range resp.Videos {
			videos = append(videos, types.Video{
				Shortcode: item.Shortcode,
				Title:     item.Title,
				Status:    statusFromCode(item.Status),
			})
		}
		c.log.Debug("Fetched listing page", map[string]interface{}{
			"page":      page,
			"collected": len(videos),
			"total":     resp.Total,
		})
		if resp.Total > 0 && len(videos) >= resp.Total {
			break
		}
	}
	return videos, nil
}

func (c *Client) listPage(ctx context.Context, session *types.Session, page int) (*listResponse, error) {
	url := c.listURL +
		"?sort=date_added&sortd=DESC" +
		"&count=" + strconv.Itoa(c.pageSize) +
		"&page=" + strconv.Itoa(page)

	body, status, err := c.get(ctx, session, url)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("HTTP status %d", status)
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse listing response: %v", err)
	}
	return &resp, nil
}

// Resolve fetches the quality variants available for a shortcode.
func (c *Client) Resolve(ctx context.Context, session *types.Session, shortcode string) (*Resolution, error) {
	body, status, err := c.get(ctx, session, c.resolveURL+"/"+shortcode)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return nil, fmt.Errorf("%w: HTTP status %d", errs.ErrVideoUnavailable, status)
	case status != http.StatusOK:
		return nil, fmt.Errorf("HTTP status %d", status)
	}

	var res Resolution
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("parse resolution response: %v", err)
	}
	for variant, f := range res.Files {
		f.URL = NormalizeURL(f.URL)
		res.Files[variant] = f
	}
	return &res, nil
}

// get performs an authenticated GET and returns the decoded body.
func (c *Client) get(ctx context.Context, session *types.Session, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", headerContentTypeJSON)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Referer", "https://streamable.com/")
	req.Header.Set("Origin", "https://streamable.com")
	req.Header.Set("Connection", "keep-alive")
	attachSessionCookies(req, session)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	// Handle compressed response
	var reader io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, resp.StatusCode, fmt.Errorf("failed to create gzip reader: %v", err)
		}
		defer func() { _ = gzReader.Close() }()
		reader = gzReader
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		// raw DEFLATE data, no wrapper
		reader = resp.Body
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %v", err)
	}
	return body, resp.StatusCode, nil
}

// attachSessionCookies adds the session cookies that apply to the request host.
func attachSessionCookies(req *http.Request, session *types.Session) {
	if session == nil {
		return
	}
	host := req.URL.Hostname()
	for _, c := range session.Cookies {
		if !cookieApplies(c.Domain, host) {
			continue
		}
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
}

// cookieApplies reports whether a cookie domain covers the given host.
// An empty domain matches any host.
func cookieApplies(domain, host string) bool {
	domain = strings.TrimPrefix(domain, ".")
	if domain == "" {
		return true
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// statusFromCode maps the listing API's numeric status onto Status. Unknown
// codes degrade to unavailable so new remote states fail per-item, not fatally.
func statusFromCode(code int) types.Status {
	switch code {
	case statusCodeReady:
		return types.StatusReady
	case statusCodeUploading, statusCodeProcessing:
		return types.StatusProcessing
	default:
		return types.StatusUnavailable
	}
}

// NormalizeURL prepends https: to protocol-relative URLs.
func NormalizeURL(url string) string {
	if strings.HasPrefix(url, "//") {
		return "https:" + url
	}
	return url
}
