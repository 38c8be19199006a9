package types

import "time"

// Status describes the remote processing state of a video.
type Status int

const (
	// StatusReady means the video is fully processed and downloadable.
	StatusReady Status = iota
	// StatusProcessing means the video is still uploading or transcoding.
	StatusProcessing
	// StatusUnavailable means the video is deleted, errored, or otherwise gone.
	StatusUnavailable
)

var statusNames = map[Status]string{
	StatusReady:       "ready",
	StatusProcessing:  "processing",
	StatusUnavailable: "unavailable",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unavailable"
}

// Credentials hold the account login pair. Supplied once at process start,
// never persisted.
type Credentials struct {
	Email    string
	Password string
}

// Cookie is a single browser cookie captured after login.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	Secure   bool
	HTTPOnly bool
}

// Session is the authenticated state extracted from the browser context.
// Read-only after acquisition, valid for the process lifetime.
type Session struct {
	Cookies []Cookie
}

// Video describes one uploaded video as reported by the listing API.
type Video struct {
	Shortcode string
	Title     string
	Status    Status
}

// FetchStatus is the outcome class of a single fetch.
type FetchStatus int

const (
	// FetchDownloaded means the file was written to disk during this run.
	FetchDownloaded FetchStatus = iota
	// FetchSkipped means the output path already existed with data.
	FetchSkipped
	// FetchFailed means resolution or download failed; the batch continues.
	FetchFailed
)

var fetchStatusNames = map[FetchStatus]string{
	FetchDownloaded: "downloaded",
	FetchSkipped:    "skipped",
	FetchFailed:     "failed",
}

func (s FetchStatus) String() string {
	if name, ok := fetchStatusNames[s]; ok {
		return name
	}
	return "failed"
}

// FetchReport is the per-video outcome of a fetch.
type FetchReport struct {
	Shortcode    string
	Title        string
	Status       FetchStatus
	Variant      string
	Path         string
	BytesWritten int64
	Err          error
}

// Summary accumulates per-video outcomes for the end-of-run report.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Add records one report into the summary.
func (s *Summary) Add(r FetchReport) {
	switch r.Status {
	case FetchDownloaded:
		s.Downloaded++
	case FetchSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Total returns the number of videos accounted for.
func (s *Summary) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}
