package tubeserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/assist"
)

type discoverVideosInput struct {
	Topic string `json:"topic"`
	Limit int    `json:"limit,omitempty"`
}

func registerDiscoverVideos(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "discover_videos",
		Description: "Search YouTube for a topic and have the LLM curate the results: off-topic and clickbait hits dropped, the rest clustered by theme with a one-line reason each. Results are candidates for add_video.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input discoverVideosInput) (*mcp.CallToolResult, *assist.DiscoveryResult, error) {
		if deps.Assist == nil {
			return nil, nil, errNoLLM
		}
		if input.Topic == "" {
			return nil, nil, errors.New("topic is required")
		}
		candidates, err := deps.YouTube.Search(ctx, input.Topic, input.Limit)
		if err != nil {
			return nil, nil, err
		}
		result, err := deps.Assist.Discover(ctx, input.Topic, candidates)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}

type classifyVideoOutput struct {
	VideoID string   `json:"video_id"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
}

func registerClassifyVideo(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "classify_video",
		Description: "Assign 3-5 topic tags to a library video using the LLM and persist them. Tags drive the tags filter in search_library and synthesize. Query accepts a video ID, a 1-based index, or a title/channel substring.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input videoQueryInput) (*mcp.CallToolResult, classifyVideoOutput, error) {
		if deps.Assist == nil {
			return nil, classifyVideoOutput{}, errNoLLM
		}
		video, err := resolveForTool(ctx, input.Query)
		if err != nil {
			return nil, classifyVideoOutput{}, err
		}
		tags, err := deps.Service.ClassifyVideo(ctx, video.VideoID)
		if err != nil {
			return nil, classifyVideoOutput{}, err
		}
		return nil, classifyVideoOutput{
			VideoID: video.VideoID,
			Title:   video.Title,
			Tags:    tags,
		}, nil
	})
}
