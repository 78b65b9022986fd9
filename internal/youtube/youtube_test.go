package youtube

import (
	"strings"
	"testing"
)

func TestParseVideoID(t *testing.T) {
	c := New(Config{})

	cases := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?t=10", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"http://youtube.com/watch?v=abc123XYZ_-", "abc123XYZ_-"},
	}
	for _, tc := range cases {
		got, err := c.ParseVideoID(tc.url)
		if err != nil {
			t.Errorf("ParseVideoID(%q) error: %v", tc.url, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseVideoID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestParseVideoID_Invalid(t *testing.T) {
	c := New(Config{})
	for _, u := range []string{
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=short",
		"not a url",
		"",
	} {
		if _, err := c.ParseVideoID(u); err == nil {
			t.Errorf("ParseVideoID(%q) succeeded, want error", u)
		}
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"0:00", 0},
		{"1:30", 90},
		{"12:05", 725},
		{"1:00:00", 3600},
		{"1:02:45", 3765},
	}
	for _, tc := range cases {
		got, err := parseClock(tc.in)
		if err != nil {
			t.Errorf("parseClock(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseClock(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "90", "1:2:3:4", "a:bc"} {
		if _, err := parseClock(bad); err == nil {
			t.Errorf("parseClock(%q) succeeded, want error", bad)
		}
	}
}

func TestParseChapters(t *testing.T) {
	desc := `Great talk from the conference.

0:00 Introduction
2:15 - The Problem
10:30 — Building the Solution
1:02:45: Closing thoughts

Follow us on social media!`
	chapters := parseChapters(desc)
	if len(chapters) != 4 {
		t.Fatalf("got %d chapters, want 4: %+v", len(chapters), chapters)
	}
	if chapters[0].Title != "Introduction" || chapters[0].Start != 0 {
		t.Errorf("chapters[0] = %+v", chapters[0])
	}
	if chapters[2].Title != "Building the Solution" || chapters[2].Start != 630 {
		t.Errorf("chapters[2] = %+v", chapters[2])
	}
	if chapters[3].Start != 3765 {
		t.Errorf("chapters[3].Start = %v, want 3765", chapters[3].Start)
	}
}

func TestParseChapters_RequiresZeroStart(t *testing.T) {
	desc := "1:00 Not at zero\n2:00 Another"
	if got := parseChapters(desc); got != nil {
		t.Errorf("chapters without a 0:00 marker should be rejected, got %+v", got)
	}
}

func TestParseChapters_RequiresTwoMarkers(t *testing.T) {
	if got := parseChapters("0:00 Only one"); got != nil {
		t.Errorf("single marker should be rejected, got %+v", got)
	}
}

func TestParseChapters_RequiresIncreasing(t *testing.T) {
	desc := "0:00 Intro\n5:00 Middle\n3:00 Goes backwards"
	if got := parseChapters(desc); got != nil {
		t.Errorf("non-increasing markers should be rejected, got %+v", got)
	}
}

func TestParseTimedText(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.08" dur="4.2">hello &amp;amp; welcome</text>
  <text start="4.28" dur="5.52">today we cover &lt;b&gt;testing&lt;/b&gt;</text>
  <text start="9.8" dur="2"> </text>
</transcript>`
	segments, err := parseTimedText([]byte(xml))
	if err != nil {
		t.Fatalf("parseTimedText: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2 (blank line dropped)", len(segments))
	}
	if segments[0].Text != "hello & welcome" {
		t.Errorf("segments[0].Text = %q, want double-encoded entity decoded", segments[0].Text)
	}
	if segments[0].Start != 0.08 || segments[0].End != 4.28 {
		t.Errorf("segments[0] times = %v-%v", segments[0].Start, segments[0].End)
	}
	if segments[1].Text != "today we cover testing" {
		t.Errorf("segments[1].Text = %q, want markup stripped", segments[1].Text)
	}
}

func TestPickBestTrack(t *testing.T) {
	manual := captionTrack{BaseURL: "https://yt/tt?lang=en", LanguageCode: "en"}
	auto := captionTrack{BaseURL: "https://yt/tt?lang=en&kind=asr", LanguageCode: "en", Kind: "asr"}
	german := captionTrack{BaseURL: "https://yt/tt?lang=de", LanguageCode: "de"}
	blocked := captionTrack{BaseURL: "https://yt/tt?lang=en&exp=xpe", LanguageCode: "en"}

	langs := []string{"en"}

	// Manual beats auto-generated in the same language.
	got, ok := pickBestTrack([]captionTrack{auto, manual}, langs)
	if !ok || got.Kind == "asr" {
		t.Errorf("pickBestTrack preferred asr track: %+v", got)
	}

	// Auto-generated is acceptable when it's the only preferred-language track.
	got, ok = pickBestTrack([]captionTrack{german, auto}, langs)
	if !ok || got.Kind != "asr" {
		t.Errorf("expected asr en track, got %+v", got)
	}

	// PoToken-gated tracks are unusable.
	_, ok = pickBestTrack([]captionTrack{blocked}, langs)
	if ok {
		t.Error("PoToken-gated track should not be selected")
	}

	// Last resort: any usable track.
	got, ok = pickBestTrack([]captionTrack{german}, langs)
	if !ok || got.LanguageCode != "de" {
		t.Errorf("expected de fallback, got %+v", got)
	}
}

func TestExtractJSON(t *testing.T) {
	in := []byte(`{"a": {"b": "closing } inside string"}, "c": [1, 2]};var next = 1;`)
	got := extractJSON(in)
	want := `{"a": {"b": "closing } inside string"}, "c": [1, 2]}`
	if string(got) != want {
		t.Errorf("extractJSON = %q, want %q", got, want)
	}

	if extractJSON([]byte(`not json`)) != nil {
		t.Error("expected nil for non-object input")
	}
	if extractJSON([]byte(`{"unterminated": `)) != nil {
		t.Error("expected nil for unterminated object")
	}
}

func TestBestMP4(t *testing.T) {
	formats := []streamFormat{
		{Itag: 18, URL: "http://a/360", MimeType: `video/mp4; codecs="avc1"`, Width: 640},
		{Itag: 22, URL: "http://a/720", MimeType: `video/mp4; codecs="avc1"`, Width: 1280},
		{Itag: 251, URL: "http://a/opus", MimeType: `audio/webm`, Width: 0},
		{Itag: 137, URL: "", MimeType: `video/mp4`, Width: 1920}, // ciphered, no URL
	}
	if got := bestMP4(formats); got != "http://a/720" {
		t.Errorf("bestMP4 = %q, want widest direct mp4", got)
	}
	if got := bestMP4(nil); got != "" {
		t.Errorf("bestMP4(nil) = %q, want empty", got)
	}
}

func TestExtractResultsFromInitialData(t *testing.T) {
	data := []byte(`{
	  "contents": {"sections": [
	    {"videoRenderer": {
	      "videoId": "aaaaaaaaaaa",
	      "title": {"runs": [{"text": "First Result"}]},
	      "ownerText": {"runs": [{"text": "Some Channel"}]},
	      "lengthText": {"simpleText": "10:30"},
	      "descriptionSnippet": {"runs": [{"text": "part one "}, {"text": "part two"}]}
	    }},
	    {"videoRenderer": {
	      "videoId": "bbbbbbbbbbb",
	      "title": {"runs": [{"text": "Second Result"}]}
	    }}
	  ]}
	}`)
	results := extractResultsFromInitialData(data, 10)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	byID := map[string]Result{}
	for _, r := range results {
		byID[r.VideoID] = r
	}
	first := byID["aaaaaaaaaaa"]
	if first.Title != "First Result" || first.Channel != "Some Channel" {
		t.Errorf("first = %+v", first)
	}
	if first.Duration != 630 {
		t.Errorf("first.Duration = %v, want 630", first.Duration)
	}
	if first.Description != "part one part two" {
		t.Errorf("first.Description = %q", first.Description)
	}
	if _, ok := byID["bbbbbbbbbbb"]; !ok {
		t.Error("second result missing")
	}

	limited := extractResultsFromInitialData(data, 1)
	if len(limited) != 1 {
		t.Errorf("limit=1 returned %d results", len(limited))
	}
}

func TestCleanCaption(t *testing.T) {
	in := "  <i>hello</i>   &amp;#39;world&amp;#39;  \n  again "
	got := cleanCaption(in)
	if strings.Contains(got, "<") || strings.Contains(got, "&amp;") {
		t.Errorf("cleanCaption left markup: %q", got)
	}
	if got != "hello 'world' again" {
		t.Errorf("cleanCaption = %q", got)
	}
}
