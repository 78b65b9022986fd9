// Package frames extracts single JPEG frames from YouTube videos with ffmpeg,
// reading directly from a resolved stream URL so nothing is downloaded in
// full. Extracted frames are cached on disk keyed by video ID and timestamp.
package frames

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go_tube/internal/library"
)

// StreamResolver resolves a video ID to a direct media URL ffmpeg can read.
type StreamResolver interface {
	ResolveStreamURL(ctx context.Context, videoID string) (string, error)
}

// Extractor extracts and caches video frames.
type Extractor struct {
	dir      string
	resolver StreamResolver
	ffmpeg   string
	timeout  time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFFmpegPath overrides the ffmpeg binary path.
func WithFFmpegPath(path string) Option {
	return func(e *Extractor) { e.ffmpeg = path }
}

// WithTimeout overrides the per-extraction timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

// New creates an Extractor caching frames under dir.
func New(dir string, resolver StreamResolver, opts ...Option) (*Extractor, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}
	e := &Extractor{
		dir:      dir,
		resolver: resolver,
		ffmpeg:   "ffmpeg",
		timeout:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// framePath is the cache location for a frame. Timestamps are fixed to two
// decimals so repeated requests for the same moment hit the cache.
func (e *Extractor) framePath(videoID string, timestamp float64) string {
	return filepath.Join(e.dir, fmt.Sprintf("%s_%.2f.jpg", videoID, timestamp))
}

// ExtractFrame returns the path to a JPEG frame at the given timestamp,
// extracting it if not already cached.
func (e *Extractor) ExtractFrame(ctx context.Context, videoID string, timestamp float64) (string, error) {
	if timestamp < 0 {
		return "", fmt.Errorf("negative timestamp: %f", timestamp)
	}

	path := e.framePath(videoID, timestamp)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		library.IncrFrameCacheHit()
		return path, nil
	}

	streamURL, err := e.resolver.ResolveStreamURL(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("resolve stream for %s: %w", videoID, err)
	}

	library.IncrFrameExtraction()
	if err := e.runFFmpeg(ctx, streamURL, timestamp, path); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// runFFmpeg seeks into the stream and grabs one frame. -ss before -i makes
// ffmpeg seek over HTTP byte ranges instead of decoding from the start.
func (e *Extractor) runFFmpeg(ctx context.Context, streamURL string, timestamp float64, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{
		"-ss", fmt.Sprintf("%.2f", timestamp),
		"-i", streamURL,
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		outPath,
	}
	cmd := exec.CommandContext(ctx, e.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > 512 {
			tail = tail[len(tail)-512:]
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, tail)
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("ffmpeg produced no output at %.2fs", timestamp)
	}
	slog.Debug("frame extracted",
		slog.String("path", outPath),
		slog.Duration("took", time.Since(start)))
	return nil
}
