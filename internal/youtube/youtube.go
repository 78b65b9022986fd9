// Package youtube extracts video metadata, timed transcripts, search
// results, and direct stream URLs from YouTube without an API key.
//
// Implementation is split by responsibility:
//
//	innertube.go  — Innertube API constants, types, and low-level HTTP primitives
//	extract.go    — URL parsing and full-video extraction into library.Video
//	transcript.go — caption track selection and timedtext parsing
//	stream.go     — direct stream URL resolution for frame extraction
//	search.go     — topic search (Data API v3 with ytInitialData fallback)
//	retry.go      — shared HTTP retry with exponential backoff
package youtube

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultLanguages is the caption language preference order.
var DefaultLanguages = []string{"en", "en-US", "en-GB"}

// Config controls a Client.
type Config struct {
	// HTTPClient used for all requests. A default with sane timeouts is
	// installed when nil.
	HTTPClient *http.Client

	// Languages is the caption language preference order; DefaultLanguages
	// when empty.
	Languages []string

	// DataAPIKey enables YouTube Data API v3 for search. Without it, search
	// scrapes ytInitialData from the results page.
	DataAPIKey string

	// DataAPIKeyFallback is tried when the primary key hits quota errors.
	DataAPIKeyFallback string
}

// Client talks to YouTube. All Innertube and page requests share one rate
// limiter so bursts of parallel extractions stay polite.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	langs   []string

	apiKey         string
	apiKeyFallback string
}

// New creates a Client.
func New(c Config) *Client {
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		}
	}
	langs := c.Languages
	if len(langs) == 0 {
		langs = DefaultLanguages
	}
	return &Client{
		http:           hc,
		limiter:        rate.NewLimiter(rate.Every(200*time.Millisecond), 4),
		langs:          langs,
		apiKey:         c.DataAPIKey,
		apiKeyFallback: c.DataAPIKeyFallback,
	}
}
