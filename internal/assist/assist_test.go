package assist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_tube/internal/library"
)

func TestStripFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", "[1,2]"},
		{`{"a":1}`, `{"a":1}`},
		{"  plain text  ", "plain text"},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseTags(t *testing.T) {
	tags, err := parseTags(`["Machine Learning", "golang", " cooking ", "golang"]`)
	if err != nil {
		t.Fatalf("parseTags: %v", err)
	}
	want := []string{"machine learning", "golang", "cooking"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestParseTags_DropsJunk(t *testing.T) {
	tags, err := parseTags(`["golang", "", "UPPER IS FINE", "this tag is way too long to be a sensible topic label", "ok-tag"]`)
	if err != nil {
		t.Fatalf("parseTags: %v", err)
	}
	for _, tag := range tags {
		if tag == "" || len(tag) > 40 {
			t.Errorf("junk tag survived: %q", tag)
		}
	}
}

func TestParseTags_CapsAtFive(t *testing.T) {
	tags, err := parseTags(`["a1","b2","c3","d4","e5","f6","g7"]`)
	if err != nil {
		t.Fatalf("parseTags: %v", err)
	}
	if len(tags) != 5 {
		t.Errorf("len = %d, want 5", len(tags))
	}
}

func TestParseTags_Invalid(t *testing.T) {
	for _, raw := range []string{"not json", `{"tags": []}`, `[]`, `[""]`} {
		if _, err := parseTags(raw); err == nil {
			t.Errorf("parseTags(%q) succeeded, want error", raw)
		}
	}
}

func TestParseReport(t *testing.T) {
	raw := `{
	  "title": "Concurrency Deep Dive",
	  "summary": "An overview.",
	  "sections": [
	    {"heading": "Channels", "content": "Typed conduits.",
	     "frames": [{"video_id": "dQw4w9WgXcQ", "timestamp": 123.5, "caption": "diagram"}]}
	  ],
	  "key_takeaways": ["use channels"]
	}`
	report, err := parseReport(raw)
	if err != nil {
		t.Fatalf("parseReport: %v", err)
	}
	if report.Title != "Concurrency Deep Dive" {
		t.Errorf("title = %q", report.Title)
	}
	if len(report.Sections) != 1 || report.Sections[0].Heading != "Channels" {
		t.Fatalf("sections = %+v", report.Sections)
	}
	if len(report.Sections[0].Frames) != 1 || report.Sections[0].Frames[0].Timestamp != 123.5 {
		t.Errorf("frames = %+v", report.Sections[0].Frames)
	}
}

// Non-JSON output degrades to a single-section report instead of failing.
func TestParseReport_FallsBackToProse(t *testing.T) {
	report, err := parseReport("The video covers three main topics...")
	if err != nil {
		t.Fatalf("parseReport: %v", err)
	}
	if len(report.Sections) != 1 {
		t.Fatalf("sections = %+v", report.Sections)
	}
	if !strings.Contains(report.Sections[0].Content, "three main topics") {
		t.Errorf("content = %q", report.Sections[0].Content)
	}
}

func TestParseReport_Empty(t *testing.T) {
	if _, err := parseReport("   "); err == nil {
		t.Error("expected error for empty response")
	}
}

func TestReportToMarkdown(t *testing.T) {
	r := &Report{
		Title:   "T",
		Summary: "S.",
		Sections: []ReportSection{
			{Heading: "H1", Content: "Body text.", Frames: []FrameRef{
				{VideoID: "v", Timestamp: 61, Caption: "cap", Path: "/frames/v_61.00.jpg"},
				{VideoID: "v", Timestamp: 75}, // no Path: extraction failed, skipped
			}},
		},
		KeyTakeaways: []string{"one", "two"},
	}
	md := r.ToMarkdown()

	for _, want := range []string{"# T", "S.", "## H1", "Body text.", "![cap](/frames/v_61.00.jpg)", "## Key Takeaways", "- one", "- two"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "75") {
		t.Error("pathless frame should not be rendered")
	}
}

func TestReportToHTML_Escapes(t *testing.T) {
	r := &Report{
		Title:    `<script>alert("x")</script>`,
		Sections: []ReportSection{{Heading: "H", Content: "a < b"}},
	}
	html := r.ToHTML()
	if strings.Contains(html, "<script>") {
		t.Error("title not escaped")
	}
	if !strings.Contains(html, "a &lt; b") {
		t.Error("content not escaped")
	}
}

type stubFinder struct {
	videos []*library.Video
	err    error
	limit  int
}

func (s *stubFinder) VideosByQuery(_ context.Context, _ string, _ []string, limit int) ([]*library.Video, error) {
	s.limit = limit
	return s.videos, s.err
}

// No matching videos fails before any LLM call is attempted.
func TestGenerateFromQuery_NoMatches(t *testing.T) {
	b := NewReportBuilder(nil, nil)
	finder := &stubFinder{}

	_, err := b.GenerateFromQuery(context.Background(), finder, "quantum physics", nil, 0)
	if err == nil {
		t.Fatal("expected error when nothing matches the query")
	}
	if !strings.Contains(err.Error(), "quantum physics") {
		t.Errorf("error should name the query: %v", err)
	}
	if finder.limit != 12 {
		t.Errorf("limit = %d, want default 12", finder.limit)
	}
}

func TestGenerateFromQuery_FinderError(t *testing.T) {
	b := NewReportBuilder(nil, nil)
	finder := &stubFinder{err: errors.New("no vector index configured")}

	_, err := b.GenerateFromQuery(context.Background(), finder, "channels", nil, 5)
	if err == nil || !strings.Contains(err.Error(), "no vector index") {
		t.Errorf("finder error should propagate, got %v", err)
	}
	if finder.limit != 5 {
		t.Errorf("limit = %d, want 5 passed through", finder.limit)
	}
}

func TestFallbackDiscovery(t *testing.T) {
	result := fallbackDiscovery("go talks", nil)
	if result.Topic != "go talks" || len(result.Clusters) != 1 {
		t.Errorf("result = %+v", result)
	}
}
