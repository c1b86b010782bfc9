package youtube

import (
	"fmt"
	"regexp"
)

// VideoIDLen is the length of every YouTube video ID.
const VideoIDLen = 11

// locatorRe accepts watch?v=, youtu.be/, embed/, v/ and /u/x/ URL forms.
// The seventh group holds the candidate video ID.
var locatorRe = regexp.MustCompile(`^.*((youtu.be/)|(v/)|(/u/\w/)|(embed/)|(watch\?))\??v?=?([^#&?]*).*`)

// ParseVideoID extracts the 11-character video ID from a YouTube URL.
func ParseVideoID(url string) (string, bool) {
	m := locatorRe.FindStringSubmatch(url)
	if m == nil || len(m[7]) != VideoIDLen {
		return "", false
	}
	return m[7], true
}

// EmbedURL returns the iframe URL for a video ID.
func EmbedURL(videoID string, autoplay bool) string {
	ap := 0
	if autoplay {
		ap = 1
	}
	return fmt.Sprintf("https://www.youtube.com/embed/%s?autoplay=%d&controls=1&rel=0&modestbranding=1&fs=1", videoID, ap)
}
