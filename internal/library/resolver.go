package library

import (
	"regexp"
	"strconv"
	"strings"
)

// videoIDRe matches a full 11-character YouTube video ID.
var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Resolve maps a free-form query to a video from the given listing snapshot.
// It is a pure function: the caller supplies the listing so resolution is
// consistent within one operation.
//
// Tiers, first match wins:
//  1. exact video ID (case-sensitive)
//  2. numeric 1-based library index into the listing
//  3. case-insensitive substring match on title or channel
//
// A query that parses as a positive integer is always treated as an index:
// in range it resolves via tier 2, out of range it fails with
// *IndexOutOfRangeError — digit strings never reach substring matching,
// since a digit-substring match is virtually never the caller's intent.
// Substring ambiguity is surfaced via *AmbiguousQueryError, never resolved
// by silently picking the first match.
func Resolve(query string, listing []Video) (*Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &InvalidQueryError{Reason: "empty query"}
	}

	// Tier 1: exact video ID.
	if videoIDRe.MatchString(query) {
		for i := range listing {
			if listing[i].VideoID == query {
				return &listing[i], nil
			}
		}
	}

	// Tier 2: numeric library index.
	if n, err := strconv.Atoi(query); err == nil {
		if n < 1 || n > len(listing) {
			return nil, &IndexOutOfRangeError{Index: n, Count: len(listing)}
		}
		return &listing[n-1], nil
	}

	// Tier 3: case-insensitive substring on title/channel.
	q := strings.ToLower(query)
	var matches []Video
	for _, v := range listing {
		if strings.Contains(strings.ToLower(v.Title), q) ||
			strings.Contains(strings.ToLower(v.Channel), q) {
			matches = append(matches, v)
		}
	}

	switch len(matches) {
	case 1:
		return &matches[0], nil
	case 0:
		return nil, &NotFoundError{Query: query}
	default:
		return nil, &AmbiguousQueryError{Query: query, Candidates: matches}
	}
}
