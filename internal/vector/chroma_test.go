package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anatolykoptev/go_tube/internal/library"
)

// fakeEmbedder returns deterministic unit vectors.
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// fakeChroma is a minimal in-memory ChromaDB REST endpoint.
type fakeChroma struct {
	adds    []map[string]any
	deletes []map[string]any
	queries []map[string]any
}

func (f *fakeChroma) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "col-1"})
	})
	mux.HandleFunc("/api/v1/collections/col-1/add", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.adds = append(f.adds, body)
		w.Write([]byte("true"))
	})
	mux.HandleFunc("/api/v1/collections/col-1/delete", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.deletes = append(f.deletes, body)
		w.Write([]byte("[]"))
	})
	mux.HandleFunc("/api/v1/collections/col-1/query", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.queries = append(f.queries, body)
		json.NewEncoder(w).Encode(map[string]any{
			"documents": [][]string{{"channels are typed conduits"}},
			"metadatas": [][]map[string]any{{{
				"video_id": "dQw4w9WgXcQ",
				"start":    5.0,
				"end":      11.0,
			}}},
			"distances": [][]float64{{0.25}},
		})
	})
	return mux
}

func newTestChroma(t *testing.T) (*ChromaIndex, *fakeChroma, *fakeEmbedder) {
	t.Helper()
	fake := &fakeChroma{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	embedder := &fakeEmbedder{}
	idx, err := NewChromaIndex(context.Background(), srv.URL, embedder)
	if err != nil {
		t.Fatalf("NewChromaIndex: %v", err)
	}
	return idx, fake, embedder
}

func TestChromaIndex_IndexVideo(t *testing.T) {
	idx, fake, _ := newTestChroma(t)

	segments := []library.TranscriptSegment{
		{Start: 0, End: 5, Text: "welcome everyone"},
		{Start: 5, End: 11, Text: "channels are typed conduits"},
	}
	n, err := idx.IndexVideo(context.Background(), "dQw4w9WgXcQ", segments)
	if err != nil {
		t.Fatalf("IndexVideo: %v", err)
	}
	if n != 2 {
		t.Errorf("indexed = %d, want 2", n)
	}

	// Replace semantics: delete by video_id runs before the add.
	if len(fake.deletes) != 1 {
		t.Fatalf("deletes = %d, want 1", len(fake.deletes))
	}
	where := fake.deletes[0]["where"].(map[string]any)
	if where["video_id"] != "dQw4w9WgXcQ" {
		t.Errorf("delete where = %v", where)
	}

	if len(fake.adds) != 1 {
		t.Fatalf("adds = %d, want 1", len(fake.adds))
	}
	ids := fake.adds[0]["ids"].([]any)
	if len(ids) != 2 || ids[0] != "dQw4w9WgXcQ_0" || ids[1] != "dQw4w9WgXcQ_1" {
		t.Errorf("ids = %v", ids)
	}
}

func TestChromaIndex_Search(t *testing.T) {
	idx, fake, embedder := newTestChroma(t)

	results, err := idx.Search(context.Background(), "what are channels", nil, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if embedder.calls != 1 {
		t.Errorf("embedder calls = %d, want 1", embedder.calls)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	r := results[0]
	if r.VideoID != "dQw4w9WgXcQ" || r.Start != 5 || r.End != 11 {
		t.Errorf("result = %+v", r)
	}
	if r.Score != 0.75 {
		t.Errorf("score = %v, want 1-distance = 0.75", r.Score)
	}

	// Unscoped search sends no where clause.
	if _, ok := fake.queries[0]["where"]; ok {
		t.Error("unscoped query must not carry a where clause")
	}
}

func TestChromaIndex_SearchScoped(t *testing.T) {
	idx, fake, _ := newTestChroma(t)
	ctx := context.Background()

	if _, err := idx.Search(ctx, "q", []string{"aaaaaaaaaaa"}, 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
	where := fake.queries[0]["where"].(map[string]any)
	if where["video_id"] != "aaaaaaaaaaa" {
		t.Errorf("single-ID where = %v", where)
	}

	if _, err := idx.Search(ctx, "q", []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}, 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
	where = fake.queries[1]["where"].(map[string]any)
	in := where["video_id"].(map[string]any)["$in"].([]any)
	if len(in) != 2 {
		t.Errorf("multi-ID where = %v", where)
	}
}

func TestChromaIndex_DeleteVideo(t *testing.T) {
	idx, fake, _ := newTestChroma(t)

	if err := idx.DeleteVideo(context.Background(), "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("DeleteVideo: %v", err)
	}
	if len(fake.deletes) != 1 {
		t.Fatalf("deletes = %d, want 1", len(fake.deletes))
	}
}
