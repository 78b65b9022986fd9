package vector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/anatolykoptev/go_tube/internal/library"
)

// vector(1536) matches text-embedding-3-small dimensions.
const pgSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS transcript_segments (
	id        TEXT PRIMARY KEY,
	video_id  TEXT NOT NULL,
	start_sec DOUBLE PRECISION NOT NULL,
	end_sec   DOUBLE PRECISION NOT NULL,
	text      TEXT NOT NULL,
	embedding vector(1536) NOT NULL
);
CREATE INDEX IF NOT EXISTS transcript_segments_video_id_idx ON transcript_segments (video_id);
`

// PgIndex stores transcript embeddings in Postgres with the pgvector
// extension. Ranking uses cosine distance (<=> operator).
type PgIndex struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

// NewPgIndex connects to Postgres and ensures the schema exists.
func NewPgIndex(ctx context.Context, dsn string, embedder Embedder) (*PgIndex, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create pgvector schema: %w", err)
	}
	return &PgIndex{pool: pool, embedder: embedder}, nil
}

// Close releases the connection pool.
func (p *PgIndex) Close() {
	p.pool.Close()
}

// IndexVideo replaces all indexed segments for a video inside a transaction.
func (p *PgIndex) IndexVideo(ctx context.Context, videoID string, segments []library.TranscriptSegment) (int, error) {
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	embeddings, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM transcript_segments WHERE video_id = $1`, videoID); err != nil {
		return 0, fmt.Errorf("delete segments: %w", err)
	}
	for i, seg := range segments {
		_, err := tx.Exec(ctx,
			`INSERT INTO transcript_segments (id, video_id, start_sec, end_sec, text, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			fmt.Sprintf("%s_%d", videoID, i), videoID, seg.Start, seg.End, seg.Text,
			pgvector.NewVector(embeddings[i]))
		if err != nil {
			return 0, fmt.Errorf("insert segment: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(segments), nil
}

// Search returns the nearest segments by cosine similarity.
func (p *PgIndex) Search(ctx context.Context, query string, videoIDs []string, limit int) ([]library.SearchResult, error) {
	embeddings, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	qvec := pgvector.NewVector(embeddings[0])

	var rows pgx.Rows
	if len(videoIDs) > 0 {
		rows, err = p.pool.Query(ctx,
			`SELECT video_id, text, start_sec, end_sec, 1 - (embedding <=> $1) AS score
			 FROM transcript_segments
			 WHERE video_id = ANY($2)
			 ORDER BY embedding <=> $1
			 LIMIT $3`,
			qvec, videoIDs, limit)
	} else {
		rows, err = p.pool.Query(ctx,
			`SELECT video_id, text, start_sec, end_sec, 1 - (embedding <=> $1) AS score
			 FROM transcript_segments
			 ORDER BY embedding <=> $1
			 LIMIT $2`,
			qvec, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var results []library.SearchResult
	for rows.Next() {
		var r library.SearchResult
		if err := rows.Scan(&r.VideoID, &r.Text, &r.Start, &r.End, &r.Score); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeleteVideo removes every segment indexed under a video ID.
func (p *PgIndex) DeleteVideo(ctx context.Context, videoID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM transcript_segments WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("delete segments: %w", err)
	}
	return nil
}
