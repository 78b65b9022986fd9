package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Service is the single orchestration point for all library operations. Both
// the CLI and the MCP tool surface are thin wrappers over it. It is the only
// component allowed to touch two or more of {store, index, extractor} in one
// logical operation.
type Service struct {
	store      Store
	index      Index
	extractor  Extractor
	frames     FrameExtractor
	classifier Classifier
}

// ServiceConfig carries the service dependencies. Store is required; every
// other collaborator is optional and the operations needing it fail with a
// plain error when it is absent.
type ServiceConfig struct {
	Store      Store
	Index      Index
	Extractor  Extractor
	Frames     FrameExtractor
	Classifier Classifier
}

func NewService(c ServiceConfig) *Service {
	return &Service{
		store:      c.Store,
		index:      c.Index,
		extractor:  c.Extractor,
		frames:     c.Frames,
		classifier: c.Classifier,
	}
}

// AddVideo ingests a YouTube video: extract → persist → index transcript →
// best-effort auto-classify. Ingestion is insert-only: an already-present
// video ID fails with *DuplicateVideoError.
//
// The store write is the commit point. If indexing fails afterwards the
// video is NOT rolled back — it stays listable but not fully searchable,
// and the returned error is a *PartialIngestionError alongside the stored
// video.
func (s *Service) AddVideo(ctx context.Context, url string) (*Video, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("add video: no extractor configured")
	}
	videoID, err := s.extractor.ParseVideoID(url)
	if err != nil {
		return nil, fmt.Errorf("add video: %w", err)
	}
	exists, err := s.store.Exists(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("add video: %w", err)
	}
	if exists {
		return nil, &DuplicateVideoError{VideoID: videoID}
	}

	slog.Info("ingesting video", slog.String("url", url))
	IncrIngest()

	video, err := s.extractor.Extract(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("add video: %w", err)
	}
	if err := s.store.Put(ctx, video); err != nil {
		return nil, fmt.Errorf("add video: %w", err)
	}

	if s.index != nil && len(video.Transcript) > 0 {
		indexed, err := s.index.IndexVideo(ctx, video.VideoID, video.Transcript)
		if err != nil {
			return video, &PartialIngestionError{
				VideoID: video.VideoID,
				Indexed: indexed,
				Total:   len(video.Transcript),
				Err:     err,
			}
		}
		slog.Info("indexed transcript segments",
			slog.String("video_id", video.VideoID), slog.Int("count", indexed))
	}

	if s.classifier != nil {
		tags, err := s.classifier.Classify(ctx, video.Title, video.Channel, video.Description)
		if err != nil {
			slog.Warn("auto-classification failed",
				slog.String("video_id", video.VideoID), slog.Any("error", err))
		} else {
			video.Tags = tags
			if err := s.store.Put(ctx, video); err != nil {
				slog.Warn("saving tags failed",
					slog.String("video_id", video.VideoID), slog.Any("error", err))
			}
		}
	}

	slog.Info("video added",
		slog.String("video_id", video.VideoID), slog.String("title", video.Title))
	return video, nil
}

// ListVideos returns the library listing, metadata only, in the order that
// defines the 1-based library index.
func (s *Service) ListVideos(ctx context.Context) ([]Video, error) {
	return s.store.List(ctx)
}

// GetInfo returns the full record for an exact video ID.
func (s *Service) GetInfo(ctx context.Context, videoID string) (*Video, error) {
	return s.store.Get(ctx, videoID)
}

// ResolveVideo resolves a free-form query (ID, 1-based index, or
// title/channel substring) against a snapshot of the current listing and
// returns the full record.
func (s *Service) ResolveVideo(ctx context.Context, query string) (*Video, error) {
	listing, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve video: %w", err)
	}
	match, err := Resolve(query, listing)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, match.VideoID)
}

// RemoveVideo resolves a query and removes the video from the index and the
// store. Index entries go first: a crash mid-operation leaves at worst a
// store record with no index entries (re-indexable), never orphaned vectors.
func (s *Service) RemoveVideo(ctx context.Context, query string) (*Video, error) {
	video, err := s.ResolveVideo(ctx, query)
	if err != nil {
		return nil, err
	}
	if s.index != nil {
		if err := s.index.DeleteVideo(ctx, video.VideoID); err != nil {
			return nil, fmt.Errorf("remove video %s: index cleanup: %w", video.VideoID, err)
		}
	}
	if err := s.store.Delete(ctx, video.VideoID); err != nil {
		return nil, err
	}
	IncrRemoval()
	slog.Info("video removed", slog.String("video_id", video.VideoID))
	return video, nil
}

// Search runs a semantic query over indexed transcripts. videoID scopes the
// search to one video; tags restricts it to videos carrying any of the given
// tags. Results keep the index's own similarity ordering.
func (s *Service) Search(ctx context.Context, query, videoID string, tags []string, limit int) ([]SearchResult, error) {
	if s.index == nil {
		return nil, fmt.Errorf("search: no vector index configured")
	}
	if limit <= 0 {
		limit = 10
	}
	IncrSearch()

	var scope []string
	switch {
	case videoID != "":
		scope = []string{videoID}
	case len(tags) > 0:
		ids, err := s.videoIDsByTags(ctx, tags)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		if len(ids) == 0 {
			return nil, nil
		}
		scope = ids
	}
	return s.index.Search(ctx, query, scope, limit)
}

// videoIDsByTags returns IDs of videos carrying at least one of the tags,
// case-insensitively. Tag filtering is cross-referenced from the store since
// the index only knows video IDs.
func (s *Service) videoIDsByTags(ctx context.Context, tags []string) ([]string, error) {
	listing, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[normalizeTag(t)] = true
	}
	var ids []string
	for _, v := range listing {
		for _, t := range v.Tags {
			if want[normalizeTag(t)] {
				ids = append(ids, v.VideoID)
				break
			}
		}
	}
	return ids, nil
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// VideosByQuery returns the full records of the videos whose transcripts
// match a semantic query, deduplicated in first-hit rank order. tags scopes
// the search the same way it does for Search. This is how report generation
// picks videos when the caller names a topic instead of specific videos.
func (s *Service) VideosByQuery(ctx context.Context, query string, tags []string, limit int) ([]*Video, error) {
	hits, err := s.Search(ctx, query, "", tags, limit)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var videos []*Video
	for _, h := range hits {
		if seen[h.VideoID] {
			continue
		}
		seen[h.VideoID] = true
		video, err := s.store.Get(ctx, h.VideoID)
		if err != nil {
			return nil, fmt.Errorf("videos by query: %w", err)
		}
		videos = append(videos, video)
	}
	return videos, nil
}

// ClassifyVideo (re)classifies a stored video and persists the tags.
func (s *Service) ClassifyVideo(ctx context.Context, videoID string) ([]string, error) {
	if s.classifier == nil {
		return nil, fmt.Errorf("classify: no LLM configured, set an API key")
	}
	video, err := s.store.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	tags, err := s.classifier.Classify(ctx, video.Title, video.Channel, video.Description)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", videoID, err)
	}
	video.Tags = tags
	if err := s.store.Put(ctx, video); err != nil {
		return nil, fmt.Errorf("classify %s: %w", videoID, err)
	}
	return tags, nil
}

// GetFrame extracts a single frame at a timestamp for a stored video.
func (s *Service) GetFrame(ctx context.Context, videoID string, timestamp float64) (string, error) {
	if s.frames == nil {
		return "", fmt.Errorf("get frame: no frame extractor configured")
	}
	exists, err := s.store.Exists(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("get frame: %w", err)
	}
	if !exists {
		return "", &NotFoundError{Query: videoID}
	}
	return s.frames.ExtractFrame(ctx, videoID, timestamp)
}

// FrameMatch is the result of a search-then-extract frame request.
type FrameMatch struct {
	Path  string  `json:"path"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// GetFrameByQuery searches one video's transcript and extracts a frame at
// the best-matching moment.
func (s *Service) GetFrameByQuery(ctx context.Context, videoID, query string) (*FrameMatch, error) {
	if s.frames == nil {
		return nil, fmt.Errorf("frame by query: no frame extractor configured")
	}
	results, err := s.Search(ctx, query, videoID, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, &NotFoundError{Query: query}
	}
	best := results[0]
	path, err := s.frames.ExtractFrame(ctx, videoID, best.Start)
	if err != nil {
		return nil, err
	}
	return &FrameMatch{
		Path:  path,
		Start: best.Start,
		End:   best.End,
		Text:  best.Text,
		Score: best.Score,
	}, nil
}
