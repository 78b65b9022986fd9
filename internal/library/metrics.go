package library

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Operational counters across the library. Exposed as plain text through the
// MCP server's metrics endpoint.
var metrics struct {
	Ingests            atomic.Int64
	Removals           atomic.Int64
	Searches           atomic.Int64
	FrameExtractions   atomic.Int64
	FrameCacheHits     atomic.Int64
	TranscriptFetches  atomic.Int64
	YouTubeSearches    atomic.Int64
	StreamResolutions  atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
}

func IncrIngest()           { metrics.Ingests.Add(1) }
func IncrRemoval()          { metrics.Removals.Add(1) }
func IncrSearch()           { metrics.Searches.Add(1) }
func IncrFrameExtraction()  { metrics.FrameExtractions.Add(1) }
func IncrFrameCacheHit()    { metrics.FrameCacheHits.Add(1) }
func IncrTranscriptFetch()  { metrics.TranscriptFetches.Add(1) }
func IncrYouTubeSearch()    { metrics.YouTubeSearches.Add(1) }
func IncrStreamResolution() { metrics.StreamResolutions.Add(1) }
func IncrLLMCall()          { metrics.LLMCalls.Add(1) }
func IncrLLMError()         { metrics.LLMErrors.Add(1) }

// GetMetrics returns a snapshot of all counters.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"ingests":            metrics.Ingests.Load(),
		"removals":           metrics.Removals.Load(),
		"searches":           metrics.Searches.Load(),
		"frame_extractions":  metrics.FrameExtractions.Load(),
		"frame_cache_hits":   metrics.FrameCacheHits.Load(),
		"transcript_fetches": metrics.TranscriptFetches.Load(),
		"youtube_searches":   metrics.YouTubeSearches.Load(),
		"stream_resolutions": metrics.StreamResolutions.Load(),
		"llm_calls":          metrics.LLMCalls.Load(),
		"llm_errors":         metrics.LLMErrors.Load(),
	}
}

// FormatMetrics renders the counters in a simple text format for the HTTP
// metrics endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	keys := []string{
		"ingests", "removals", "searches",
		"frame_extractions", "frame_cache_hits",
		"transcript_fetches", "youtube_searches", "stream_resolutions",
		"llm_calls", "llm_errors",
	}
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}
