package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/anatolykoptev/go_tube/internal/library"
)

const (
	chromaCollection = "go_tube_transcripts"
	chromaBatchSize  = 500
)

// ChromaIndex talks to a ChromaDB server over its REST API. Segment IDs are
// "{video_id}_{n}" so a video's segments can be replaced atomically by
// deleting on the video_id metadata field first.
type ChromaIndex struct {
	baseURL      string
	embedder     Embedder
	http         *http.Client
	collectionID string
}

// NewChromaIndex connects to a ChromaDB server and ensures the transcript
// collection exists.
func NewChromaIndex(ctx context.Context, baseURL string, embedder Embedder) (*ChromaIndex, error) {
	c := &ChromaIndex{
		baseURL:  baseURL,
		embedder: embedder,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
	id, err := c.getOrCreateCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("chroma collection: %w", err)
	}
	c.collectionID = id
	return c, nil
}

func (c *ChromaIndex) getOrCreateCollection(ctx context.Context) (string, error) {
	body := map[string]any{
		"name":          chromaCollection,
		"get_or_create": true,
		"metadata":      map[string]any{"hnsw:space": "cosine"},
	}
	resp, err := c.post(ctx, "/api/v1/collections", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode collection: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("collection response missing id")
	}
	return out.ID, nil
}

// IndexVideo replaces all indexed segments for a video. Embedding and upload
// happen in batches so long transcripts don't hit request size limits.
func (c *ChromaIndex) IndexVideo(ctx context.Context, videoID string, segments []library.TranscriptSegment) (int, error) {
	if err := c.DeleteVideo(ctx, videoID); err != nil {
		return 0, err
	}
	total := 0
	for start := 0; start < len(segments); start += chromaBatchSize {
		end := min(start+chromaBatchSize, len(segments))
		batch := segments[start:end]

		texts := make([]string, len(batch))
		for i, seg := range batch {
			texts[i] = seg.Text
		}
		embeddings, err := c.embedder.Embed(ctx, texts)
		if err != nil {
			return total, err
		}

		ids := make([]string, len(batch))
		metadatas := make([]map[string]any, len(batch))
		for i, seg := range batch {
			ids[i] = fmt.Sprintf("%s_%d", videoID, start+i)
			metadatas[i] = map[string]any{
				"video_id": videoID,
				"start":    seg.Start,
				"end":      seg.End,
			}
		}

		body := map[string]any{
			"ids":        ids,
			"embeddings": embeddings,
			"documents":  texts,
			"metadatas":  metadatas,
		}
		resp, err := c.post(ctx, "/api/v1/collections/"+url.PathEscape(c.collectionID)+"/add", body)
		if err != nil {
			return total, fmt.Errorf("chroma add: %w", err)
		}
		if err := drainOK(resp, "chroma add"); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}

// Search embeds the query and returns the nearest segments, optionally
// restricted to a set of video IDs via a metadata where clause.
func (c *ChromaIndex) Search(ctx context.Context, query string, videoIDs []string, limit int) ([]library.SearchResult, error) {
	embeddings, err := c.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"query_embeddings": embeddings,
		"n_results":        limit,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if len(videoIDs) == 1 {
		body["where"] = map[string]any{"video_id": videoIDs[0]}
	} else if len(videoIDs) > 1 {
		body["where"] = map[string]any{"video_id": map[string]any{"$in": videoIDs}}
	}

	resp, err := c.post(ctx, "/api/v1/collections/"+url.PathEscape(c.collectionID)+"/query", body)
	if err != nil {
		return nil, fmt.Errorf("chroma query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chroma query: status %d: %s", resp.StatusCode, string(b))
	}

	var raw struct {
		Documents [][]string         `json:"documents"`
		Metadatas [][]map[string]any `json:"metadatas"`
		Distances [][]float64        `json:"distances"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("chroma query decode: %w", err)
	}
	if len(raw.Documents) == 0 {
		return nil, nil
	}

	docs := raw.Documents[0]
	results := make([]library.SearchResult, 0, len(docs))
	for i, doc := range docs {
		r := library.SearchResult{Text: doc}
		if len(raw.Metadatas) > 0 && i < len(raw.Metadatas[0]) {
			md := raw.Metadatas[0][i]
			if v, ok := md["video_id"].(string); ok {
				r.VideoID = v
			}
			if v, ok := md["start"].(float64); ok {
				r.Start = v
			}
			if v, ok := md["end"].(float64); ok {
				r.End = v
			}
		}
		if len(raw.Distances) > 0 && i < len(raw.Distances[0]) {
			// cosine distance -> similarity
			r.Score = 1 - raw.Distances[0][i]
		}
		results = append(results, r)
	}
	return results, nil
}

// DeleteVideo removes every segment indexed under a video ID.
func (c *ChromaIndex) DeleteVideo(ctx context.Context, videoID string) error {
	body := map[string]any{
		"where": map[string]any{"video_id": videoID},
	}
	resp, err := c.post(ctx, "/api/v1/collections/"+url.PathEscape(c.collectionID)+"/delete", body)
	if err != nil {
		return fmt.Errorf("chroma delete: %w", err)
	}
	return drainOK(resp, "chroma delete")
}

func (c *ChromaIndex) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

func drainOK(resp *http.Response, op string) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(b))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
