package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testListing() []Video {
	return []Video{
		{VideoID: "dQw4w9WgXcQ", Title: "Go Concurrency Patterns", Channel: "GopherCon"},
		{VideoID: "abc123XYZ_-", Title: "Cooking with Rust", Channel: "Ferris Kitchen"},
		{VideoID: "zzz999AAA00", Title: "Advanced Go Generics", Channel: "GopherCon"},
	}
}

func TestResolve_ExactVideoID(t *testing.T) {
	v, err := Resolve("abc123XYZ_-", testListing())
	require.NoError(t, err)
	assert.Equal(t, "Cooking with Rust", v.Title)
}

func TestResolve_NumericIndex(t *testing.T) {
	listing := testListing()

	v, err := Resolve("1", listing)
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", v.VideoID)

	v, err = Resolve("3", listing)
	require.NoError(t, err)
	assert.Equal(t, "zzz999AAA00", v.VideoID)
}

func TestResolve_IndexOutOfRange(t *testing.T) {
	listing := testListing()

	for _, q := range []string{"0", "4", "99", "-1"} {
		_, err := Resolve(q, listing)
		var oor *IndexOutOfRangeError
		require.ErrorAs(t, err, &oor, "query %q", q)
		assert.Equal(t, 3, oor.Count)
	}
}

// A digit query that is both a valid index and a title substring resolves by
// index, never by substring.
func TestResolve_NumericIndexBeatsSubstring(t *testing.T) {
	listing := []Video{
		{VideoID: "aaaaaaaaaaa", Title: "Intro to Channels", Channel: "ch"},
		{VideoID: "bbbbbbbbbbb", Title: "Top 1 Go Tip", Channel: "ch"},
	}
	v, err := Resolve("1", listing)
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaaa", v.VideoID)
}

// Digit strings never fall through to substring matching, even when a title
// contains them.
func TestResolve_NumericNeverSubstring(t *testing.T) {
	listing := []Video{
		{VideoID: "aaaaaaaaaaa", Title: "Top 100 Go Tips", Channel: "ch"},
	}
	_, err := Resolve("100", listing)
	var oor *IndexOutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 100, oor.Index)
}

func TestResolve_SubstringSingleMatch(t *testing.T) {
	v, err := Resolve("rust", testListing())
	require.NoError(t, err)
	assert.Equal(t, "abc123XYZ_-", v.VideoID)
}

func TestResolve_SubstringMatchesChannel(t *testing.T) {
	v, err := Resolve("ferris", testListing())
	require.NoError(t, err)
	assert.Equal(t, "abc123XYZ_-", v.VideoID)
}

func TestResolve_SubstringCaseInsensitive(t *testing.T) {
	v, err := Resolve("GENERICS", testListing())
	require.NoError(t, err)
	assert.Equal(t, "zzz999AAA00", v.VideoID)
}

func TestResolve_Ambiguous(t *testing.T) {
	_, err := Resolve("go", testListing())
	var ambiguous *AmbiguousQueryError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Candidates, 2)
	assert.Equal(t, "go", ambiguous.Query)
}

// "gophercon" matches two videos through their channel — ambiguity applies to
// channel matches too, never silently resolved.
func TestResolve_AmbiguousViaChannel(t *testing.T) {
	_, err := Resolve("gophercon", testListing())
	var ambiguous *AmbiguousQueryError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Candidates, 2)
}

func TestResolve_NotFound(t *testing.T) {
	_, err := Resolve("quantum physics", testListing())
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestResolve_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t"} {
		_, err := Resolve(q, testListing())
		var invalid *InvalidQueryError
		require.ErrorAs(t, err, &invalid, "query %q", q)
	}
}

// An ID-shaped query not present in the library falls through to substring
// matching rather than failing outright.
func TestResolve_IDShapedFallsThrough(t *testing.T) {
	listing := []Video{
		{VideoID: "aaaaaaaaaaa", Title: "The GiveYouUp_X Story", Channel: "ch"},
	}
	v, err := Resolve("GiveYouUp_X", listing) // 11 chars, ID-shaped
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaaa", v.VideoID)
}

func TestResolve_EmptyLibrary(t *testing.T) {
	_, err := Resolve("anything", nil)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)

	_, err = Resolve("1", nil)
	var oor *IndexOutOfRangeError
	require.ErrorAs(t, err, &oor)
}
