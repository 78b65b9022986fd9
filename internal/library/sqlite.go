package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default Store backend. Transcript, chapters, and tags
// live in JSON columns — the vector index handles searchable storage, so the
// relational schema stays flat. Single connection: SQLite allows one writer.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `CREATE TABLE IF NOT EXISTS videos (
	video_id      TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	channel       TEXT NOT NULL DEFAULT '',
	duration      REAL NOT NULL DEFAULT 0,
	thumbnail_url TEXT NOT NULL DEFAULT '',
	chapters      TEXT NOT NULL DEFAULT '[]',
	transcript    TEXT NOT NULL DEFAULT '[]',
	tags          TEXT NOT NULL DEFAULT '[]',
	added_at      TEXT NOT NULL
)`

// NewSQLiteStore opens (or creates) the library database at path.
// Use ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("library: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("library: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Put inserts or updates a video record. added_at is preserved on update so
// the library ordering never shifts when tags are re-saved.
func (s *SQLiteStore) Put(ctx context.Context, video *Video) error {
	chapters, err := json.Marshal(video.Chapters)
	if err != nil {
		return fmt.Errorf("library: marshal chapters: %w", err)
	}
	transcript, err := json.Marshal(video.Transcript)
	if err != nil {
		return fmt.Errorf("library: marshal transcript: %w", err)
	}
	tags, err := json.Marshal(video.Tags)
	if err != nil {
		return fmt.Errorf("library: marshal tags: %w", err)
	}

	addedAt := video.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO videos (
		video_id, title, description, channel, duration,
		thumbnail_url, chapters, transcript, tags, added_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(video_id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		channel = excluded.channel,
		duration = excluded.duration,
		thumbnail_url = excluded.thumbnail_url,
		chapters = excluded.chapters,
		transcript = excluded.transcript,
		tags = excluded.tags`,
		video.VideoID, video.Title, video.Description, video.Channel, video.Duration,
		video.ThumbnailURL, string(chapters), string(transcript), string(tags),
		addedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("library: put %s: %w", video.VideoID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, videoID string) (*Video, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT video_id, title, description, channel, duration,
		        thumbnail_url, chapters, transcript, tags, added_at
		 FROM videos WHERE video_id = ?`, videoID)
	video, err := scanVideo(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Query: videoID}
	}
	if err != nil {
		return nil, fmt.Errorf("library: get %s: %w", videoID, err)
	}
	return video, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, videoID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM videos WHERE video_id = ? LIMIT 1`, videoID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("library: exists %s: %w", videoID, err)
	}
	return true, nil
}

// List returns metadata for all videos, ordered by added_at ascending with
// video_id as tie-break. This ordering defines the 1-based library index.
func (s *SQLiteStore) List(ctx context.Context) ([]Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT video_id, title, description, channel, duration,
		        thumbnail_url, chapters, transcript, tags, added_at
		 FROM videos ORDER BY added_at ASC, video_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("library: list: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		video, err := scanVideo(rows, false)
		if err != nil {
			return nil, fmt.Errorf("library: list scan: %w", err)
		}
		videos = append(videos, *video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("library: list rows: %w", err)
	}
	return videos, nil
}

func (s *SQLiteStore) GetByIndex(ctx context.Context, i int) (*Video, error) {
	listing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if i < 1 || i > len(listing) {
		return nil, &IndexOutOfRangeError{Index: i, Count: len(listing)}
	}
	return &listing[i-1], nil
}

func (s *SQLiteStore) Delete(ctx context.Context, videoID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE video_id = ?`, videoID)
	if err != nil {
		return fmt.Errorf("library: delete %s: %w", videoID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("library: delete %s: %w", videoID, err)
	}
	if n == 0 {
		return &NotFoundError{Query: videoID}
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanVideo converts a row into a Video. With full=false the transcript and
// chapter JSON is not deserialized — listings stay cheap for large libraries.
func scanVideo(row scanner, full bool) (*Video, error) {
	var v Video
	var chapters, transcript, tags, addedAt string
	if err := row.Scan(&v.VideoID, &v.Title, &v.Description, &v.Channel, &v.Duration,
		&v.ThumbnailURL, &chapters, &transcript, &tags, &addedAt); err != nil {
		return nil, err
	}
	if full {
		if err := json.Unmarshal([]byte(chapters), &v.Chapters); err != nil {
			return nil, fmt.Errorf("chapters json: %w", err)
		}
		if err := json.Unmarshal([]byte(transcript), &v.Transcript); err != nil {
			return nil, fmt.Errorf("transcript json: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(tags), &v.Tags); err != nil {
		return nil, fmt.Errorf("tags json: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, addedAt)
	if err != nil {
		return nil, fmt.Errorf("added_at: %w", err)
	}
	v.AddedAt = t
	return &v, nil
}
