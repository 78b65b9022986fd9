package tubeserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/library"
)

// VideoSummary is the listing view of a video: metadata only, plus the
// 1-based library index valid at the time of the call.
type VideoSummary struct {
	Index    int      `json:"index"`
	VideoID  string   `json:"video_id"`
	Title    string   `json:"title"`
	Channel  string   `json:"channel,omitempty"`
	Duration string   `json:"duration"`
	Tags     []string `json:"tags,omitempty"`
	URL      string   `json:"url"`
	AddedAt  string   `json:"added_at"`
}

func summarize(i int, v *library.Video) VideoSummary {
	return VideoSummary{
		Index:    i,
		VideoID:  v.VideoID,
		Title:    v.Title,
		Channel:  v.Channel,
		Duration: library.FormatTimestamp(v.Duration),
		Tags:     v.Tags,
		URL:      v.URL(),
		AddedAt:  v.AddedAt.Format("2006-01-02"),
	}
}

type addVideoInput struct {
	URL string `json:"url"`
}

type addVideoOutput struct {
	Video      VideoSummary `json:"video"`
	Transcript int          `json:"transcript_segments"`
	Chapters   int          `json:"chapters"`
	Warning    string       `json:"warning,omitempty"`
}

func registerAddVideo(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_video",
		Description: "Add a YouTube video to the library by URL. Fetches metadata and the timed transcript, stores them, and indexes the transcript for semantic search. Fails if the video is already in the library.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input addVideoInput) (*mcp.CallToolResult, addVideoOutput, error) {
		if input.URL == "" {
			return nil, addVideoOutput{}, errors.New("url is required")
		}
		video, err := deps.Service.AddVideo(ctx, input.URL)

		var partial *library.PartialIngestionError
		warning := ""
		if err != nil {
			if !errors.As(err, &partial) {
				return nil, addVideoOutput{}, err
			}
			// stored but not fully indexed; report it, don't fail
			warning = partial.Error()
		}
		out := addVideoOutput{
			Video:      summarize(0, video),
			Transcript: len(video.Transcript),
			Chapters:   len(video.Chapters),
			Warning:    warning,
		}
		if len(video.Transcript) == 0 {
			out.Warning = "no transcript available; video will not be semantically searchable"
		}
		return nil, out, nil
	})
}

type listVideosInput struct{}

type listVideosOutput struct {
	Count  int            `json:"count"`
	Videos []VideoSummary `json:"videos"`
}

func registerListVideos(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_videos",
		Description: "List all videos in the library in ingestion order. The returned index is 1-based and can be used to reference videos in other tools; it shifts when earlier videos are removed.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ listVideosInput) (*mcp.CallToolResult, listVideosOutput, error) {
		videos, err := deps.Service.ListVideos(ctx)
		if err != nil {
			return nil, listVideosOutput{}, err
		}
		out := listVideosOutput{Count: len(videos), Videos: make([]VideoSummary, len(videos))}
		for i := range videos {
			out.Videos[i] = summarize(i+1, &videos[i])
		}
		return nil, out, nil
	})
}

type videoQueryInput struct {
	Query string `json:"query"`
}

type videoInfoOutput struct {
	Video       VideoSummary      `json:"video"`
	Description string            `json:"description,omitempty"`
	Chapters    []library.Chapter `json:"chapters,omitempty"`
	Transcript  int               `json:"transcript_segments"`
}

func registerGetVideoInfo(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_video_info",
		Description: "Get full details for one video: metadata, chapters, tags, and transcript availability. Query accepts a video ID, a 1-based library index, or a title/channel substring.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input videoQueryInput) (*mcp.CallToolResult, videoInfoOutput, error) {
		video, err := resolveForTool(ctx, input.Query)
		if err != nil {
			return nil, videoInfoOutput{}, err
		}
		return nil, videoInfoOutput{
			Video:       summarize(0, video),
			Description: video.Description,
			Chapters:    video.Chapters,
			Transcript:  len(video.Transcript),
		}, nil
	})
}

type removeVideoOutput struct {
	Removed VideoSummary `json:"removed"`
}

func registerRemoveVideo(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_video",
		Description: "Remove a video from the library, including its transcript search index entries. Query accepts a video ID, a 1-based library index, or a title/channel substring.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input videoQueryInput) (*mcp.CallToolResult, removeVideoOutput, error) {
		if input.Query == "" {
			return nil, removeVideoOutput{}, errors.New("query is required")
		}
		video, err := deps.Service.RemoveVideo(ctx, input.Query)
		if err != nil {
			return nil, removeVideoOutput{}, toolError(err)
		}
		return nil, removeVideoOutput{Removed: summarize(0, video)}, nil
	})
}

// resolveForTool wraps ResolveVideo with the shared empty-query check and
// ambiguity formatting.
func resolveForTool(ctx context.Context, query string) (*library.Video, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}
	video, err := deps.Service.ResolveVideo(ctx, query)
	if err != nil {
		return nil, toolError(err)
	}
	return video, nil
}

// toolError rewrites an ambiguity error so the client sees the candidates
// and can retry with something sharper.
func toolError(err error) error {
	var ambiguous *library.AmbiguousQueryError
	if errors.As(err, &ambiguous) {
		msg := fmt.Sprintf("query %q matches %d videos:", ambiguous.Query, len(ambiguous.Candidates))
		for _, v := range ambiguous.Candidates {
			msg += fmt.Sprintf("\n  %s  %s (%s)", v.VideoID, v.Title, v.Channel)
		}
		return errors.New(msg + "\nuse the video ID to disambiguate")
	}
	return err
}
