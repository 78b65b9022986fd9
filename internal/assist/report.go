package assist

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"

	"github.com/anatolykoptev/go_tube/internal/library"
)

// FrameRef is a frame the report wants inline: a moment in a video plus a
// caption. Path is filled in when frames are rendered.
type FrameRef struct {
	VideoID   string  `json:"video_id"`
	Timestamp float64 `json:"timestamp"`
	Caption   string  `json:"caption,omitempty"`
	Path      string  `json:"path,omitempty"`
}

// ReportSection is one thematic section of a report.
type ReportSection struct {
	Heading string     `json:"heading"`
	Content string     `json:"content"`
	Frames  []FrameRef `json:"frames,omitempty"`
}

// Report is a structured writeup over one or more videos.
type Report struct {
	Title        string          `json:"title"`
	Summary      string          `json:"summary"`
	Sections     []ReportSection `json:"sections"`
	KeyTakeaways []string        `json:"key_takeaways,omitempty"`
	VideoIDs     []string        `json:"video_ids"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// ReportBuilder generates reports from transcripts, pulling illustrative
// frames through the frame extractor when one is wired.
type ReportBuilder struct {
	client *Client
	frames library.FrameExtractor // nil disables frame rendering
}

// NewReportBuilder creates a builder. frames may be nil; reports are then
// text-only.
func NewReportBuilder(client *Client, frames library.FrameExtractor) *ReportBuilder {
	return &ReportBuilder{client: client, frames: frames}
}

const reportPrompt = `Write a structured report about the following YouTube video(s) based on their transcripts.
%s
Return ONLY a JSON object with this shape:
{
  "title": "report title",
  "summary": "2-3 sentence overview",
  "sections": [
    {
      "heading": "section heading",
      "content": "2-4 paragraphs of markdown prose",
      "frames": [{"video_id": "abc123xyz_-", "timestamp": 123.5, "caption": "what this moment shows"}]
    }
  ],
  "key_takeaways": ["takeaway 1", "takeaway 2"]
}

Rules:
- 3-6 sections covering the main themes.
- Frame timestamps must come from transcript timestamps actually discussed in that section; at most 2 frames per section. Omit "frames" if nothing visual is worth showing.
- Ground every claim in the transcripts; do not invent content.

Videos:
%s`

// maxTranscriptChars caps per-video transcript context sent to the LLM.
const maxTranscriptChars = 24000

// transcriptContext renders a video's metadata and timestamped transcript for
// the report prompt.
func transcriptContext(v *library.Video) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\nvideo_id: %s\nChannel: %s\nDuration: %s\n",
		v.Title, v.VideoID, v.Channel, library.FormatTimestamp(v.Duration))
	if len(v.Chapters) > 0 {
		sb.WriteString("Chapters:\n")
		for _, ch := range v.Chapters {
			fmt.Fprintf(&sb, "  [%s] %s\n", library.FormatTimestamp(ch.Start), ch.Title)
		}
	}
	if len(v.Transcript) == 0 {
		sb.WriteString("Transcript: (none available)\n")
		return sb.String()
	}
	sb.WriteString("Transcript:\n")
	budget := maxTranscriptChars
	for _, seg := range v.Transcript {
		line := fmt.Sprintf("[%s] %s\n", library.FormatTimestamp(seg.Start), seg.Text)
		if budget -= len(line); budget < 0 {
			sb.WriteString("... (transcript truncated)\n")
			break
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// Generate produces a report over one or more videos. focus narrows the
// report to a question or angle; empty means a general overview.
func (b *ReportBuilder) Generate(ctx context.Context, videos []*library.Video, focus string) (*Report, error) {
	if len(videos) == 0 {
		return nil, fmt.Errorf("no videos to report on")
	}

	focusLine := ""
	if focus != "" {
		focusLine = fmt.Sprintf("\nFocus the report on: %s\n", focus)
	}
	contexts := make([]string, len(videos))
	ids := make([]string, len(videos))
	for i, v := range videos {
		contexts[i] = transcriptContext(v)
		ids[i] = v.VideoID
	}
	prompt := fmt.Sprintf(reportPrompt, focusLine, strings.Join(contexts, "\n"))

	raw, err := b.client.call(ctx, "", prompt,
		llm.WithChatTemperature(0.4),
		llm.WithChatMaxTokens(4000),
	)
	if err != nil {
		return nil, err
	}

	report, err := parseReport(raw)
	if err != nil {
		return nil, err
	}
	report.VideoIDs = ids
	report.GeneratedAt = time.Now().UTC()

	b.renderFrames(ctx, report, ids)
	return report, nil
}

// VideoFinder locates full video records whose transcripts match a semantic
// query. Satisfied by *library.Service.
type VideoFinder interface {
	VideosByQuery(ctx context.Context, query string, tags []string, limit int) ([]*library.Video, error)
}

// GenerateFromQuery reports on whatever the library knows about a topic:
// semantic search selects the videos, and the query doubles as the report
// focus. tags restricts which videos are searched; limit caps the transcript
// matches the videos are gathered from.
func (b *ReportBuilder) GenerateFromQuery(ctx context.Context, finder VideoFinder, query string, tags []string, limit int) (*Report, error) {
	if limit <= 0 {
		limit = 12
	}
	videos, err := finder.VideosByQuery(ctx, query, tags, limit)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("no videos in the library match %q", query)
	}
	return b.Generate(ctx, videos, query)
}

// parseReport decodes the LLM response, falling back to a single-section
// report when the output isn't valid JSON.
func parseReport(raw string) (*Report, error) {
	var report Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		if strings.TrimSpace(raw) == "" {
			return nil, fmt.Errorf("empty report response")
		}
		return &Report{
			Title:    "Report",
			Sections: []ReportSection{{Heading: "Overview", Content: raw}},
		}, nil
	}
	if report.Title == "" {
		report.Title = "Report"
	}
	return &report, nil
}

// renderFrames extracts each referenced frame to disk. Failures drop the
// frame rather than failing the report; an LLM-suggested timestamp can be
// past the end of a stream.
func (b *ReportBuilder) renderFrames(ctx context.Context, report *Report, validIDs []string) {
	if b.frames == nil {
		return
	}
	valid := make(map[string]bool, len(validIDs))
	for _, id := range validIDs {
		valid[id] = true
	}
	for si := range report.Sections {
		kept := report.Sections[si].Frames[:0]
		for _, f := range report.Sections[si].Frames {
			if !valid[f.VideoID] || f.Timestamp < 0 {
				continue
			}
			path, err := b.frames.ExtractFrame(ctx, f.VideoID, f.Timestamp)
			if err != nil {
				slog.Warn("report frame extraction failed",
					slog.String("video_id", f.VideoID),
					slog.Float64("timestamp", f.Timestamp),
					slog.Any("error", err))
				continue
			}
			f.Path = path
			kept = append(kept, f)
		}
		report.Sections[si].Frames = kept
	}
}

// ToMarkdown renders a report as markdown. Frames appear as image links to
// their local paths.
func (r *Report) ToMarkdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Title)
	if r.Summary != "" {
		sb.WriteString(r.Summary + "\n\n")
	}
	for _, s := range r.Sections {
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", s.Heading, s.Content)
		for _, f := range s.Frames {
			caption := f.Caption
			if caption == "" {
				caption = fmt.Sprintf("%s at %s", f.VideoID, library.FormatTimestamp(f.Timestamp))
			}
			if f.Path != "" {
				fmt.Fprintf(&sb, "![%s](%s)\n\n", caption, f.Path)
			}
		}
	}
	if len(r.KeyTakeaways) > 0 {
		sb.WriteString("## Key Takeaways\n\n")
		for _, t := range r.KeyTakeaways {
			fmt.Fprintf(&sb, "- %s\n", t)
		}
	}
	return sb.String()
}

// ToHTML renders a report as a standalone HTML page with frames inlined as
// base64 data URIs, so the file is self-contained.
func (r *Report) ToHTML() string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(r.Title))
	sb.WriteString("<style>body{font-family:sans-serif;max-width:800px;margin:2em auto;padding:0 1em}img{max-width:100%}figure{margin:1em 0}figcaption{font-size:.9em;color:#555}</style>\n")
	sb.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(r.Title))
	if r.Summary != "" {
		fmt.Fprintf(&sb, "<p>%s</p>\n", html.EscapeString(r.Summary))
	}
	for _, s := range r.Sections {
		fmt.Fprintf(&sb, "<h2>%s</h2>\n", html.EscapeString(s.Heading))
		for _, para := range strings.Split(s.Content, "\n\n") {
			if para = strings.TrimSpace(para); para != "" {
				fmt.Fprintf(&sb, "<p>%s</p>\n", html.EscapeString(para))
			}
		}
		for _, f := range s.Frames {
			if f.Path == "" {
				continue
			}
			data, err := os.ReadFile(f.Path)
			if err != nil {
				continue
			}
			fmt.Fprintf(&sb, "<figure><img src=\"data:image/jpeg;base64,%s\" alt=\"%s\"><figcaption>%s</figcaption></figure>\n",
				base64.StdEncoding.EncodeToString(data),
				html.EscapeString(f.Caption),
				html.EscapeString(f.Caption))
		}
	}
	if len(r.KeyTakeaways) > 0 {
		sb.WriteString("<h2>Key Takeaways</h2>\n<ul>\n")
		for _, t := range r.KeyTakeaways {
			fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(t))
		}
		sb.WriteString("</ul>\n")
	}
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}
