package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_tube/internal/library"
)

// urlPatterns cover the standard YouTube URL forms.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?.*v=([\w-]{11})`),
	regexp.MustCompile(`youtu\.be/([\w-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([\w-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([\w-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([\w-]{11})`),
}

// ParseVideoID extracts the 11-character video ID from a YouTube URL.
// Supports watch, youtu.be, /embed/, /shorts/, and /v/ forms, with query
// parameter parsing as a fallback.
func (c *Client) ParseVideoID(rawURL string) (string, error) {
	for _, re := range urlPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) >= 2 {
			return m[1], nil
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		host := strings.TrimPrefix(u.Hostname(), "www.")
		if host == "youtube.com" || host == "m.youtube.com" || host == "youtu.be" {
			if v := u.Query().Get("v"); len(v) == 11 {
				return v, nil
			}
		}
	}
	return "", fmt.Errorf("could not extract video ID from URL: %s", rawURL)
}

// Extract fetches metadata and the timed transcript for a YouTube URL and
// returns a populated Video. A missing transcript is not fatal — the video
// is still usable for frames and reports, just not semantically searchable.
func (c *Client) Extract(ctx context.Context, rawURL string) (*library.Video, error) {
	videoID, err := c.ParseVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	player, err := c.fetchPlayerWithFallback(ctx, videoID)
	if err != nil {
		return nil, err
	}
	details := player.VideoDetails

	duration, _ := strconv.ParseFloat(details.LengthSeconds, 64)

	video := &library.Video{
		VideoID:      videoID,
		Title:        details.Title,
		Description:  details.ShortDescription,
		Channel:      details.Author,
		Duration:     duration,
		ThumbnailURL: bestThumbnail(player),
		Chapters:     parseChapters(details.ShortDescription),
		AddedAt:      time.Now().UTC(),
	}

	segments, err := c.fetchTranscript(ctx, player)
	if err != nil {
		slog.Warn("no transcript available",
			slog.String("video_id", videoID), slog.Any("error", err))
	} else {
		video.Transcript = segments
	}
	return video, nil
}

// fetchPlayerWithFallback tries the ANDROID /player endpoint first and falls
// back to scraping ytInitialPlayerResponse from the watch page.
func (c *Client) fetchPlayerWithFallback(ctx context.Context, videoID string) (*playerResponse, error) {
	player, err := c.fetchPlayer(ctx, videoID)
	if err == nil && playable(player) {
		return player, nil
	}
	if err != nil {
		slog.Warn("innertube player failed, scraping watch page",
			slog.String("video_id", videoID), slog.Any("error", err))
	}

	scraped, serr := c.scrapePlayer(ctx, videoID)
	if serr == nil && playable(scraped) {
		return scraped, nil
	}

	if player != nil && player.PlayabilityStatus != nil && player.PlayabilityStatus.Reason != "" {
		return nil, fmt.Errorf("video %s not playable: %s", videoID, player.PlayabilityStatus.Reason)
	}
	if serr != nil {
		return nil, fmt.Errorf("extract %s: %w", videoID, serr)
	}
	return nil, fmt.Errorf("extract %s: no video details in player response", videoID)
}

func playable(p *playerResponse) bool {
	return p != nil && p.VideoDetails != nil && p.VideoDetails.Title != ""
}

// bestThumbnail picks the widest thumbnail variant.
func bestThumbnail(p *playerResponse) string {
	best := ""
	width := -1
	for _, t := range p.VideoDetails.Thumbnail.Thumbnails {
		if t.Width > width {
			best = t.URL
			width = t.Width
		}
	}
	return best
}

// chapterLineRe matches uploader chapter lines like "0:00 Intro" or
// "1:02:45 - Closing thoughts".
var chapterLineRe = regexp.MustCompile(`^\s*\(?((?:\d{1,2}:)?\d{1,2}:\d{2})\)?\s*[-–—:]?\s*(.+?)\s*$`)

// parseChapters extracts chapter markers from description timestamp lines,
// the place uploaders actually put them. Requires at least two markers with
// the first at 0:00, matching how YouTube itself detects chapters.
func parseChapters(description string) []library.Chapter {
	var chapters []library.Chapter
	for _, line := range strings.Split(description, "\n") {
		m := chapterLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, err := parseClock(m[1])
		if err != nil {
			continue
		}
		title := strings.TrimSpace(m[2])
		if title == "" {
			continue
		}
		chapters = append(chapters, library.Chapter{Title: title, Start: start})
	}
	if len(chapters) < 2 || chapters[0].Start != 0 {
		return nil
	}
	for i := 1; i < len(chapters); i++ {
		if chapters[i].Start <= chapters[i-1].Start {
			return nil
		}
	}
	return chapters
}

// parseClock parses "MM:SS" or "H:MM:SS" into seconds.
func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("bad clock: %s", s)
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, err
		}
		total = total*60 + n
	}
	return float64(total), nil
}
