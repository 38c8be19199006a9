package sanitize

import (
	"regexp"
	"strings"
)

const (
	// MaxTitleLength is the maximum allowed length for the sanitized title.
	MaxTitleLength = 200
	// DefaultTitle is the replacement name when the title sanitizes to nothing.
	DefaultTitle = "untitled"
	// Ext is the fixed output extension; every variant the service offers is MP4.
	Ext = ".mp4"
)

var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// CleanTitle strips filesystem-unsafe characters from a title. The transform
// is deterministic: resume detection relies on the same title always mapping
// to the same name across runs.
func CleanTitle(title string) string {
	name := unsafeChars.ReplaceAllString(title, "")
	name = strings.Trim(name, ". ")
	if name == "" {
		return DefaultTitle
	}
	if runes := []rune(name); len(runes) > MaxTitleLength {
		name = string(runes[:MaxTitleLength])
	}
	return name
}

// OutputName builds the on-disk filename for a video. The
// "{title}_{shortcode}.mp4" shape is a user-visible contract; title
// collisions are disambiguated only by the shortcode suffix.
func OutputName(title, shortcode string) string {
	return CleanTitle(title) + "_" + shortcode + Ext
}
