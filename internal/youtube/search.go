package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/library"
)

// Topic search — Data API v3 when a key is configured, ytInitialData
// scraping otherwise.

const (
	ytDataAPIBase       = "https://www.googleapis.com/youtube/v3"
	ytInitialDataMarker = "var ytInitialData = "
	ytSearchFilter      = "EgIQAQ%3D%3D" // videos-only filter param
)

// Result is a single search hit.
type Result struct {
	VideoID     string  `json:"video_id"`
	Title       string  `json:"title"`
	Channel     string  `json:"channel,omitempty"`
	Duration    float64 `json:"duration,omitempty"` // seconds; 0 when unknown
	Description string  `json:"description,omitempty"`
}

// URL returns the canonical watch URL.
func (r Result) URL() string {
	return "https://www.youtube.com/watch?v=" + r.VideoID
}

// Search searches YouTube videos for a topic.
func (c *Client) Search(ctx context.Context, topic string, limit int) ([]Result, error) {
	library.IncrYouTubeSearch()
	if limit <= 0 || limit > 25 {
		limit = 15
	}
	if c.apiKey != "" {
		return c.searchDataAPI(ctx, topic, limit)
	}
	return c.searchInitialData(ctx, topic, limit)
}

// searchDataAPI searches via YouTube Data API v3, falling back to the
// secondary key on quota errors.
func (c *Client) searchDataAPI(ctx context.Context, topic string, limit int) ([]Result, error) {
	keys := []string{c.apiKey}
	if c.apiKeyFallback != "" {
		keys = append(keys, c.apiKeyFallback)
	}
	var lastErr error
	for _, key := range keys {
		results, err := c.doDataSearch(ctx, topic, limit, key)
		if err == nil {
			return results, nil
		}
		lastErr = err
		slog.Debug("youtube data API key failed, trying fallback", slog.Any("error", err))
	}
	return nil, lastErr
}

type ytDataSearchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

func (c *Client) doDataSearch(ctx context.Context, topic string, limit int, apiKey string) ([]Result, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", topic)
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprintf("%d", limit))
	params.Set("key", apiKey)

	apiURL := ytDataAPIBase + "/search?" + params.Encode()
	resp, err := retryHTTP(ctx, defaultRetry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		return c.http.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube data API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("youtube data API %d: %s", resp.StatusCode, string(body))
	}

	var result ytDataSearchResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode youtube data API: %w", err)
	}

	results := make([]Result, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, Result{
			VideoID:     item.ID.VideoID,
			Title:       item.Snippet.Title,
			Channel:     item.Snippet.ChannelTitle,
			Description: item.Snippet.Description,
		})
	}
	return results, nil
}

// searchInitialData scrapes YouTube search results by parsing ytInitialData.
func (c *Client) searchInitialData(ctx context.Context, topic string, limit int) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL := "https://www.youtube.com/results?search_query=" + url.QueryEscape(topic) + "&sp=" + ytSearchFilter
	resp, err := retryHTTP(ctx, defaultRetry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgentChrome)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return c.http.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube search page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read youtube search response: %w", err)
	}

	idx := strings.Index(string(body), ytInitialDataMarker)
	if idx < 0 {
		return nil, fmt.Errorf("ytInitialData not found in search response")
	}
	jsonData := extractJSON(body[idx+len(ytInitialDataMarker):])
	if jsonData == nil {
		return nil, fmt.Errorf("failed to extract ytInitialData JSON")
	}
	return extractResultsFromInitialData(jsonData, limit), nil
}

// videoRenderer is the subset of a ytInitialData search entry we consume.
type videoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		Runs []struct{ Text string } `json:"runs"`
	} `json:"title"`
	OwnerText struct {
		Runs []struct{ Text string } `json:"runs"`
	} `json:"ownerText"`
	LengthText *struct {
		SimpleText string `json:"simpleText"`
	} `json:"lengthText"`
	DescriptionSnippet *struct {
		Runs []struct{ Text string } `json:"runs"`
	} `json:"descriptionSnippet"`
}

// extractResultsFromInitialData recursively walks ytInitialData for
// videoRenderer entries.
func extractResultsFromInitialData(data []byte, limit int) []Result {
	var results []Result
	var walk func(v json.RawMessage)
	walk = func(v json.RawMessage) {
		if len(results) >= limit {
			return
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err == nil {
			if raw, ok := obj["videoRenderer"]; ok {
				var vr videoRenderer
				if err := json.Unmarshal(raw, &vr); err == nil && vr.VideoID != "" {
					r := Result{VideoID: vr.VideoID}
					if len(vr.Title.Runs) > 0 {
						r.Title = vr.Title.Runs[0].Text
					}
					if len(vr.OwnerText.Runs) > 0 {
						r.Channel = vr.OwnerText.Runs[0].Text
					}
					if vr.LengthText != nil {
						if d, err := parseClock(vr.LengthText.SimpleText); err == nil {
							r.Duration = d
						}
					}
					if vr.DescriptionSnippet != nil {
						var parts []string
						for _, run := range vr.DescriptionSnippet.Runs {
							parts = append(parts, run.Text)
						}
						r.Description = strings.Join(parts, "")
					}
					results = append(results, r)
					return
				}
			}
			for _, child := range obj {
				if len(results) >= limit {
					return
				}
				walk(child)
			}
			return
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(v, &arr); err == nil {
			for _, item := range arr {
				if len(results) >= limit {
					return
				}
				walk(item)
			}
		}
	}
	walk(data)
	return results
}
