package library

import "context"

// Store is the durable video record table. List ordering (added_at ascending,
// video_id as tie-break) is the sole source of truth for the 1-based library
// index users see.
//
// Put is an upsert primitive — duplicate-ingestion policy is enforced one
// level up, in Service.AddVideo, which is insert-only. The store knows
// nothing about the vector index; cascade deletion is composed by the
// service layer.
type Store interface {
	// Put inserts or updates a video record.
	Put(ctx context.Context, video *Video) error

	// Get returns the full record including transcript and chapters.
	// Returns *NotFoundError if absent.
	Get(ctx context.Context, videoID string) (*Video, error)

	// Exists reports whether a video ID is in the store.
	Exists(ctx context.Context, videoID string) (bool, error)

	// List returns all videos ordered by added_at ascending, metadata only —
	// transcript and chapters are omitted; use Get for the full record.
	List(ctx context.Context) ([]Video, error)

	// GetByIndex returns the video at 1-based position i in the List
	// ordering. Returns *IndexOutOfRangeError if i is outside [1, count].
	GetByIndex(ctx context.Context, i int) (*Video, error)

	// Delete removes a record. Returns *NotFoundError if absent.
	Delete(ctx context.Context, videoID string) error

	Close() error
}

// Index is the semantic transcript index. Implementations are opaque
// nearest-neighbor services (ChromaDB, pgvector); the service layer never
// depends on ranking internals beyond "ordered by similarity".
type Index interface {
	// IndexVideo embeds and stores the segments for a video, replacing any
	// previously indexed segments for the same ID. Returns the number of
	// segments indexed.
	IndexVideo(ctx context.Context, videoID string, segments []TranscriptSegment) (int, error)

	// Search returns the closest segments for a natural-language query,
	// ordered by the index's own similarity ranking. A nil or empty
	// videoIDs slice searches the whole library; otherwise results are
	// restricted to the given IDs.
	Search(ctx context.Context, query string, videoIDs []string, limit int) ([]SearchResult, error)

	// DeleteVideo removes every indexed segment for a video.
	DeleteVideo(ctx context.Context, videoID string) error
}

// Extractor turns a YouTube URL into a populated Video.
type Extractor interface {
	ParseVideoID(url string) (string, error)
	Extract(ctx context.Context, url string) (*Video, error)
}

// FrameExtractor produces a single JPEG frame at a timestamp and returns its
// path on disk. Frames are an on-demand artifact, never part of the Video
// entity.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoID string, timestamp float64) (string, error)
}

// Classifier assigns topic tags to a video from its metadata.
type Classifier interface {
	Classify(ctx context.Context, title, channel, description string) ([]string, error)
}
