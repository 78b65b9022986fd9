package tubeserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/library"
	"github.com/anatolykoptev/go_tube/internal/youtube"
)

type searchLibraryInput struct {
	Query   string   `json:"query"`
	VideoID string   `json:"video_id,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// SearchHit is one semantic match, with the video title joined in and the
// timestamp rendered for display.
type SearchHit struct {
	VideoID   string  `json:"video_id"`
	Title     string  `json:"title,omitempty"`
	Timestamp string  `json:"timestamp"`
	Start     float64 `json:"start"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	URL       string  `json:"url"`
}

type searchLibraryOutput struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

func registerSearchLibrary(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_library",
		Description: "Semantic search over the transcripts of ingested videos. Returns matching transcript moments with timestamps and deep links. Scope with video_id (one video) or tags (videos carrying any of the tags); both empty searches the whole library.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input searchLibraryInput) (*mcp.CallToolResult, searchLibraryOutput, error) {
		if input.Query == "" {
			return nil, searchLibraryOutput{}, errors.New("query is required")
		}
		results, err := deps.Service.Search(ctx, input.Query, input.VideoID, input.Tags, input.Limit)
		if err != nil {
			return nil, searchLibraryOutput{}, err
		}
		return nil, searchLibraryOutput{
			Query:   input.Query,
			Results: toHits(ctx, results),
		}, nil
	})
}

// toHits joins titles from the listing and builds timestamped watch links.
func toHits(ctx context.Context, results []library.SearchResult) []SearchHit {
	titles := make(map[string]string)
	if listing, err := deps.Service.ListVideos(ctx); err == nil {
		for _, v := range listing {
			titles[v.VideoID] = v.Title
		}
	}
	hits := make([]SearchHit, len(results))
	for i, r := range results {
		hits[i] = SearchHit{
			VideoID:   r.VideoID,
			Title:     titles[r.VideoID],
			Timestamp: library.FormatTimestamp(r.Start),
			Start:     r.Start,
			Text:      r.Text,
			Score:     r.Score,
			URL:       watchAt(r.VideoID, r.Start),
		}
	}
	return hits
}

func watchAt(videoID string, seconds float64) string {
	return (&library.Video{VideoID: videoID}).URL() + "&t=" + library.FormatSeconds(seconds)
}

type searchYouTubeInput struct {
	Topic string `json:"topic"`
	Limit int    `json:"limit,omitempty"`
}

type searchYouTubeOutput struct {
	Topic   string           `json:"topic"`
	Results []youtube.Result `json:"results"`
}

func registerSearchYouTube(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_youtube",
		Description: "Search YouTube for videos on a topic. Returns raw search results (not curated); use discover_videos for LLM-curated clusters. Results are candidates for add_video.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input searchYouTubeInput) (*mcp.CallToolResult, searchYouTubeOutput, error) {
		if input.Topic == "" {
			return nil, searchYouTubeOutput{}, errors.New("topic is required")
		}
		results, err := deps.YouTube.Search(ctx, input.Topic, input.Limit)
		if err != nil {
			return nil, searchYouTubeOutput{}, err
		}
		return nil, searchYouTubeOutput{Topic: input.Topic, Results: results}, nil
	})
}
