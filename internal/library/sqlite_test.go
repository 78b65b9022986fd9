package library

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testVideo(id, title string, added time.Time) *Video {
	return &Video{
		VideoID:  id,
		Title:    title,
		Channel:  "test channel",
		Duration: 300,
		Chapters: []Chapter{{Title: "Intro", Start: 0}, {Title: "Main", Start: 60}},
		Transcript: []TranscriptSegment{
			{Start: 0, End: 4.2, Text: "hello and welcome"},
			{Start: 4.2, End: 9.8, Text: "today we talk about testing"},
		},
		Tags:    []string{"testing", "golang"},
		AddedAt: added,
	}
}

func TestSQLiteStore_PutGetRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := testVideo("aaaaaaaaaaa", "First Video", time.Now().UTC())
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "aaaaaaaaaaa")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != want.Title {
		t.Errorf("title = %q, want %q", got.Title, want.Title)
	}
	if len(got.Transcript) != 2 {
		t.Errorf("transcript len = %d, want 2", len(got.Transcript))
	}
	if got.Transcript[1].Text != "today we talk about testing" {
		t.Errorf("transcript[1] = %q", got.Transcript[1].Text)
	}
	if len(got.Chapters) != 2 || got.Chapters[1].Start != 60 {
		t.Errorf("chapters = %+v", got.Chapters)
	}
	if len(got.Tags) != 2 {
		t.Errorf("tags = %v", got.Tags)
	}
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing00000")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
}

func TestSQLiteStore_ListOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// Insert out of chronological order; List must sort by added_at.
	for _, v := range []*Video{
		testVideo("ccccccccccc", "Third", base.Add(2*time.Hour)),
		testVideo("aaaaaaaaaaa", "First", base),
		testVideo("bbbbbbbbbbb", "Second", base.Add(time.Hour)),
	} {
		if err := store.Put(ctx, v); err != nil {
			t.Fatalf("Put %s: %v", v.VideoID, err)
		}
	}

	listing, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	wantOrder := []string{"First", "Second", "Third"}
	if len(listing) != 3 {
		t.Fatalf("listing len = %d, want 3", len(listing))
	}
	for i, want := range wantOrder {
		if listing[i].Title != want {
			t.Errorf("listing[%d] = %q, want %q", i, listing[i].Title, want)
		}
	}
}

func TestSQLiteStore_ListOmitsTranscript(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, testVideo("aaaaaaaaaaa", "V", time.Now().UTC())); err != nil {
		t.Fatalf("Put: %v", err)
	}
	listing, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listing[0].Transcript) != 0 {
		t.Error("listing should not carry transcripts")
	}
	if len(listing[0].Tags) != 2 {
		t.Errorf("listing should carry tags, got %v", listing[0].Tags)
	}
}

func TestSQLiteStore_GetByIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Put(ctx, testVideo("aaaaaaaaaaa", "First", base))
	store.Put(ctx, testVideo("bbbbbbbbbbb", "Second", base.Add(time.Hour)))

	v, err := store.GetByIndex(ctx, 2)
	if err != nil {
		t.Fatalf("GetByIndex(2): %v", err)
	}
	if v.Title != "Second" {
		t.Errorf("title = %q, want Second", v.Title)
	}

	for _, i := range []int{0, 3, -1} {
		_, err := store.GetByIndex(ctx, i)
		var oor *IndexOutOfRangeError
		if !errors.As(err, &oor) {
			t.Errorf("GetByIndex(%d) err = %v, want *IndexOutOfRangeError", i, err)
		}
	}
}

// Removing an earlier video shifts later indexes down — the index is derived
// from the listing, never stored.
func TestSQLiteStore_IndexShiftsAfterDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Put(ctx, testVideo("aaaaaaaaaaa", "First", base))
	store.Put(ctx, testVideo("bbbbbbbbbbb", "Second", base.Add(time.Hour)))
	store.Put(ctx, testVideo("ccccccccccc", "Third", base.Add(2*time.Hour)))

	if err := store.Delete(ctx, "aaaaaaaaaaa"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	v, err := store.GetByIndex(ctx, 1)
	if err != nil {
		t.Fatalf("GetByIndex(1): %v", err)
	}
	if v.Title != "Second" {
		t.Errorf("index 1 = %q after delete, want Second", v.Title)
	}
}

func TestSQLiteStore_DeleteNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.Delete(context.Background(), "missing00000")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
}

func TestSQLiteStore_Exists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "aaaaaaaaaaa")
	if err != nil || ok {
		t.Fatalf("Exists on empty store = %v, %v", ok, err)
	}
	store.Put(ctx, testVideo("aaaaaaaaaaa", "V", time.Now().UTC()))
	ok, err = store.Exists(ctx, "aaaaaaaaaaa")
	if err != nil || !ok {
		t.Fatalf("Exists after Put = %v, %v", ok, err)
	}
}

// Re-putting a video (tag updates) must not move it in the listing.
func TestSQLiteStore_UpsertPreservesAddedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Put(ctx, testVideo("aaaaaaaaaaa", "First", base))
	store.Put(ctx, testVideo("bbbbbbbbbbb", "Second", base.Add(time.Hour)))

	updated := testVideo("aaaaaaaaaaa", "First (retitled)", base.Add(48*time.Hour))
	updated.Tags = []string{"updated"}
	if err := store.Put(ctx, updated); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	listing, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing[0].Title != "First (retitled)" {
		t.Errorf("listing[0] = %q, want the updated video still first", listing[0].Title)
	}
	if !listing[0].AddedAt.Equal(base) {
		t.Errorf("added_at = %v, want original %v", listing[0].AddedAt, base)
	}
	if len(listing[0].Tags) != 1 || listing[0].Tags[0] != "updated" {
		t.Errorf("tags = %v, want [updated]", listing[0].Tags)
	}
}
