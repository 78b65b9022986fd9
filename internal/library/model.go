package library

import (
	"fmt"
	"time"
)

// TranscriptSegment is a single timed caption entry from a video transcript.
type TranscriptSegment struct {
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
	Text  string  `json:"text"`
}

// Chapter is a chapter marker, usually taken from the uploader's description.
type Chapter struct {
	Title string  `json:"title"`
	Start float64 `json:"start"` // seconds
}

// Video is the core entity: one ingested YouTube video.
//
// The 1-based library index shown to users is never stored on the entity —
// it is derived from the position in the List() ordering at call time and
// shifts when earlier videos are removed.
type Video struct {
	VideoID      string              `json:"video_id"` // 11-char YouTube ID
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	Channel      string              `json:"channel,omitempty"`
	Duration     float64             `json:"duration"` // seconds
	ThumbnailURL string              `json:"thumbnail_url,omitempty"`
	Chapters     []Chapter           `json:"chapters,omitempty"`
	Transcript   []TranscriptSegment `json:"transcript,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	AddedAt      time.Time           `json:"added_at"`
}

// URL returns the canonical watch URL derived from the video ID.
func (v *Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.VideoID
}

// SearchResult is a single semantic search hit from the vector index.
type SearchResult struct {
	VideoID string  `json:"video_id"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Score   float64 `json:"score"` // cosine similarity, higher = closer
}

// FormatSeconds renders seconds as a YouTube t= parameter value ("93s").
func FormatSeconds(seconds float64) string {
	return fmt.Sprintf("%ds", int(seconds))
}

// FormatTimestamp renders seconds as MM:SS for display.
func FormatTimestamp(seconds float64) string {
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%02d:%02d", mins, secs)
}
