package youtube

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/library"
)

// ResolveStreamURL returns a direct media URL for a video, suitable for
// handing to ffmpeg. Progressive mp4 formats are preferred (video+audio in
// one stream); video-only adaptive mp4 is an acceptable fallback since frame
// extraction needs no audio.
func (c *Client) ResolveStreamURL(ctx context.Context, videoID string) (string, error) {
	library.IncrStreamResolution()

	player, err := c.fetchPlayerWithFallback(ctx, videoID)
	if err != nil {
		return "", err
	}
	if player.StreamingData == nil {
		return "", fmt.Errorf("no streaming data for %s", videoID)
	}

	if u := bestMP4(player.StreamingData.Formats); u != "" {
		return u, nil
	}
	if u := bestMP4(player.StreamingData.AdaptiveFormats); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("no usable mp4 stream for %s", videoID)
}

// bestMP4 picks the widest mp4 format with a direct (unciphered) URL.
func bestMP4(formats []streamFormat) string {
	best := ""
	width := -1
	for _, f := range formats {
		if f.URL == "" || !strings.HasPrefix(f.MimeType, "video/mp4") {
			continue
		}
		if f.Width > width {
			best = f.URL
			width = f.Width
		}
	}
	return best
}
