package tubeserver

import (
	"context"
	"encoding/base64"
	"errors"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/library"
)

type getFrameInput struct {
	VideoID   string  `json:"video_id"`
	Timestamp float64 `json:"timestamp"`
}

type getFrameOutput struct {
	VideoID   string  `json:"video_id"`
	Timestamp float64 `json:"timestamp"`
	Path      string  `json:"path"`
}

func registerGetFrame(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_frame",
		Description: "Extract a single JPEG frame from a library video at a timestamp (seconds). The frame is cached on disk and its path returned; use get_frame_data for the image bytes.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input getFrameInput) (*mcp.CallToolResult, getFrameOutput, error) {
		if input.VideoID == "" {
			return nil, getFrameOutput{}, errors.New("video_id is required")
		}
		path, err := deps.Service.GetFrame(ctx, input.VideoID, input.Timestamp)
		if err != nil {
			return nil, getFrameOutput{}, err
		}
		return nil, getFrameOutput{
			VideoID:   input.VideoID,
			Timestamp: input.Timestamp,
			Path:      path,
		}, nil
	})
}

type frameByQueryInput struct {
	VideoID string `json:"video_id"`
	Query   string `json:"query"`
}

type frameByQueryOutput struct {
	VideoID   string  `json:"video_id"`
	Path      string  `json:"path"`
	Timestamp string  `json:"timestamp"`
	Start     float64 `json:"start"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
}

func registerGetFrameByQuery(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_frame_by_query",
		Description: "Find the moment in a video's transcript best matching a query, then extract the frame at that moment. Returns the frame path plus the matched transcript text and timestamp.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input frameByQueryInput) (*mcp.CallToolResult, frameByQueryOutput, error) {
		if input.VideoID == "" || input.Query == "" {
			return nil, frameByQueryOutput{}, errors.New("video_id and query are required")
		}
		match, err := deps.Service.GetFrameByQuery(ctx, input.VideoID, input.Query)
		if err != nil {
			return nil, frameByQueryOutput{}, err
		}
		return nil, frameByQueryOutput{
			VideoID:   input.VideoID,
			Path:      match.Path,
			Timestamp: library.FormatTimestamp(match.Start),
			Start:     match.Start,
			Text:      match.Text,
			Score:     match.Score,
		}, nil
	})
}

type frameDataOutput struct {
	VideoID   string  `json:"video_id"`
	Timestamp float64 `json:"timestamp"`
	MimeType  string  `json:"mime_type"`
	Data      string  `json:"data"` // base64 JPEG
}

func registerGetFrameData(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_frame_data",
		Description: "Extract a frame like get_frame but return the JPEG bytes base64-encoded, for clients that cannot read server-local paths.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input getFrameInput) (*mcp.CallToolResult, frameDataOutput, error) {
		if input.VideoID == "" {
			return nil, frameDataOutput{}, errors.New("video_id is required")
		}
		path, err := deps.Service.GetFrame(ctx, input.VideoID, input.Timestamp)
		if err != nil {
			return nil, frameDataOutput{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, frameDataOutput{}, err
		}
		return nil, frameDataOutput{
			VideoID:   input.VideoID,
			Timestamp: input.Timestamp,
			MimeType:  "image/jpeg",
			Data:      base64.StdEncoding.EncodeToString(data),
		}, nil
	})
}
