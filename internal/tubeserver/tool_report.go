package tubeserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/assist"
	"github.com/anatolykoptev/go_tube/internal/library"
)

var errNoLLM = errors.New("no LLM configured: set LLM_API_KEY")

type generateReportInput struct {
	Queries []string `json:"queries"`
	Focus   string   `json:"focus,omitempty"`
}

type generateReportOutput struct {
	Report   *assist.Report `json:"report"`
	Markdown string         `json:"markdown"`
}

func registerGenerateReport(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_report",
		Description: "Generate a structured report from the transcripts of one or more library videos, with illustrative frames extracted where relevant. Queries accept video IDs, 1-based indexes, or title/channel substrings. Optional focus narrows the report to a question or angle.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input generateReportInput) (*mcp.CallToolResult, generateReportOutput, error) {
		if deps.Reports == nil {
			return nil, generateReportOutput{}, errNoLLM
		}
		if len(input.Queries) == 0 {
			return nil, generateReportOutput{}, errors.New("at least one video query is required")
		}
		videos := make([]*library.Video, 0, len(input.Queries))
		seen := make(map[string]bool)
		for _, q := range input.Queries {
			video, err := resolveForTool(ctx, q)
			if err != nil {
				return nil, generateReportOutput{}, err
			}
			if seen[video.VideoID] {
				continue
			}
			seen[video.VideoID] = true
			videos = append(videos, video)
		}

		report, err := deps.Reports.Generate(ctx, videos, input.Focus)
		if err != nil {
			return nil, generateReportOutput{}, err
		}
		return nil, generateReportOutput{Report: report, Markdown: report.ToMarkdown()}, nil
	})
}

type reportFromQueryInput struct {
	Query string   `json:"query"`
	Tags  []string `json:"tags,omitempty"`
	Limit int      `json:"limit,omitempty"`
}

func registerGenerateReportFromQuery(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_report_from_query",
		Description: "Generate a structured report on whatever the library knows about a topic: semantic search across all transcripts selects the videos, then the report is generated over them with the query as its focus. Optional tags restrict which videos are searched.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input reportFromQueryInput) (*mcp.CallToolResult, generateReportOutput, error) {
		if deps.Reports == nil {
			return nil, generateReportOutput{}, errNoLLM
		}
		if input.Query == "" {
			return nil, generateReportOutput{}, errors.New("query is required")
		}
		report, err := deps.Reports.GenerateFromQuery(ctx, deps.Service, input.Query, input.Tags, input.Limit)
		if err != nil {
			return nil, generateReportOutput{}, err
		}
		return nil, generateReportOutput{Report: report, Markdown: report.ToMarkdown()}, nil
	})
}

type synthesizeInput struct {
	Question string   `json:"question"`
	Tags     []string `json:"tags,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

type synthesizeOutput struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Sources  []SearchHit `json:"sources"`
}

func registerSynthesize(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "synthesize",
		Description: "Answer a question from the whole library: semantic search across all transcripts, then an LLM answer citing videos and timestamps. Optional tags restrict which videos are searched.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input synthesizeInput) (*mcp.CallToolResult, synthesizeOutput, error) {
		if deps.Assist == nil {
			return nil, synthesizeOutput{}, errNoLLM
		}
		if input.Question == "" {
			return nil, synthesizeOutput{}, errors.New("question is required")
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 12
		}
		hits, err := deps.Service.Search(ctx, input.Question, "", input.Tags, limit)
		if err != nil {
			return nil, synthesizeOutput{}, err
		}
		if len(hits) == 0 {
			return nil, synthesizeOutput{
				Question: input.Question,
				Answer:   "Nothing in the library matches this question.",
			}, nil
		}

		titles := make(map[string]string)
		if listing, err := deps.Service.ListVideos(ctx); err == nil {
			for _, v := range listing {
				titles[v.VideoID] = v.Title
			}
		}
		answer, err := deps.Assist.Synthesize(ctx, input.Question, hits, titles)
		if err != nil {
			return nil, synthesizeOutput{}, err
		}
		return nil, synthesizeOutput{
			Question: input.Question,
			Answer:   answer,
			Sources:  toHits(ctx, hits),
		}, nil
	})
}
