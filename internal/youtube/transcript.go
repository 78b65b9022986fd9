package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/library"
)

// Caption track selection and timedtext parsing.

// needsPoToken reports whether a caption track URL requires a PoToken
// (browser-only). Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the language
// preferences: manual track in a preferred language, then auto-generated in
// a preferred language, then any English track, then whatever is left.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// --- timedtext XML ---

type timedText struct {
	Lines []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

var captionTagRe = regexp.MustCompile(`<[^>]+>`)

// cleanCaption strips markup and decodes the HTML entities YouTube
// double-encodes into caption text ("&amp;#39;" needs two passes).
func cleanCaption(s string) string {
	s = captionTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(html.UnescapeString(s))
	return strings.Join(strings.Fields(s), " ")
}

// parseTimedText converts timedtext XML into ordered transcript segments.
// Lines without text are dropped; start times are non-decreasing in the
// source and preserved as-is.
func parseTimedText(body []byte) ([]library.TranscriptSegment, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}
	segments := make([]library.TranscriptSegment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := cleanCaption(line.Text)
		if text == "" {
			continue
		}
		segments = append(segments, library.TranscriptSegment{
			Start: line.Start,
			End:   line.Start + line.Dur,
			Text:  text,
		})
	}
	return segments, nil
}

// fetchTranscript downloads and parses the best caption track from an
// already-fetched player response.
func (c *Client) fetchTranscript(ctx context.Context, player *playerResponse) ([]library.TranscriptSegment, error) {
	library.IncrTranscriptFetch()

	if player.Captions == nil {
		return nil, errors.New("no captions in player response")
	}
	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errors.New("no caption tracks")
	}
	track, ok := pickBestTrack(tracks, c.langs)
	if !ok {
		return nil, errors.New("all caption tracks require PoToken")
	}

	resp, err := retryHTTP(ctx, defaultRetry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgentChrome)
		return c.http.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, err
	}
	segments, err := parseTimedText(body)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, errors.New("empty transcript")
	}
	return segments, nil
}
