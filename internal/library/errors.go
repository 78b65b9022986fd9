package library

import (
	"fmt"
	"strings"
)

// Error taxonomy for resolution, storage, and ingestion. The service layer
// wraps these with operation context but never converts one kind into another.

// NotFoundError reports that no video matched an ID or query.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no video matching: %s", e.Query)
}

// InvalidQueryError reports an empty or malformed resolver query.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return "invalid query: " + e.Reason
}

// IndexOutOfRangeError reports a numeric query outside [1, count]. A numeric
// query never falls through to substring matching, so this is terminal.
type IndexOutOfRangeError struct {
	Index int
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range: library has %d video(s)", e.Index, e.Count)
}

// AmbiguousQueryError reports a substring query that matched more than one
// video. Candidates carries the full match set so callers can present it —
// the resolver never silently picks one.
type AmbiguousQueryError struct {
	Query      string
	Candidates []Video
}

func (e *AmbiguousQueryError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "multiple videos match %q:", e.Query)
	for i, v := range e.Candidates {
		fmt.Fprintf(&sb, "\n  %d. %s (%s)", i+1, v.Title, v.VideoID)
	}
	return sb.String()
}

// DuplicateVideoError reports an attempt to ingest a video already in the
// library. Ingestion is insert-only: remove the video first to re-ingest.
type DuplicateVideoError struct {
	VideoID string
}

func (e *DuplicateVideoError) Error() string {
	return fmt.Sprintf("video already in library: %s (remove it first to re-ingest)", e.VideoID)
}

// PartialIngestionError reports that the store write succeeded but vector
// indexing did not. The video stays in the library (listable, not fully
// searchable); it is not rolled back — removal is left to the user.
type PartialIngestionError struct {
	VideoID string
	Indexed int
	Total   int
	Err     error
}

func (e *PartialIngestionError) Error() string {
	return fmt.Sprintf("video %s stored but only %d/%d segments indexed: %v",
		e.VideoID, e.Indexed, e.Total, e.Err)
}

func (e *PartialIngestionError) Unwrap() error { return e.Err }
