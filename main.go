// go_tube — queryable YouTube video library.
//
// Ingests videos (metadata + timed transcript), stores them in SQLite,
// indexes transcripts for semantic search, extracts frames with ffmpeg, and
// generates LLM reports. Runs as an MCP server (serve) or as a CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/assist"
	"github.com/anatolykoptev/go_tube/internal/frames"
	"github.com/anatolykoptev/go_tube/internal/library"
	"github.com/anatolykoptev/go_tube/internal/tubeserver"
	"github.com/anatolykoptev/go_tube/internal/vector"
	"github.com/anatolykoptev/go_tube/internal/youtube"
)

var version = "dev"

const usage = `go_tube — queryable YouTube video library

Usage:
  go_tube serve                      run the MCP server
  go_tube add <url>                  add a video to the library
  go_tube list                       list library videos
  go_tube info <query>               show full details for a video
  go_tube remove <query>             remove a video
  go_tube search <query>             semantic search over transcripts
  go_tube frame <video_id> <secs>    extract a frame at a timestamp
  go_tube frame-query <video_id> <query>  extract the frame matching a query
  go_tube classify <query>           assign topic tags with the LLM
  go_tube report <query>...          generate a report (flags: -focus, -html, -o)
  go_tube report-query <query>       report on what the library knows about a topic
  go_tube discover <topic>           search YouTube and curate with the LLM
  go_tube synthesize <question>      answer a question from the library

<query> is a video ID, a 1-based library index, or a title/channel substring.`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	app, err := initApp()
	if err != nil {
		slog.Error("init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer app.close()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "serve" {
		runServe(app)
		return
	}

	ctx := context.Background()
	if err := runCommand(ctx, app, cmd, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app bundles the wired components for both the CLI and the server.
type app struct {
	service *library.Service
	store   *library.SQLiteStore
	youtube *youtube.Client
	assist  *assist.Client
	reports *assist.ReportBuilder
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func initApp() (*app, error) {
	dataDir := env.Str("GO_TUBE_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".go_tube")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := library.NewSQLiteStore(filepath.Join(dataDir, "videos.db"))
	if err != nil {
		return nil, err
	}

	yt := youtube.New(youtube.Config{
		Languages:          env.List("TRANSCRIPT_LANGUAGES", ""),
		DataAPIKey:         env.Str("YOUTUBE_API_KEY", ""),
		DataAPIKeyFallback: env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
	})

	index := initIndex(context.Background())

	frameExtractor, err := frames.New(filepath.Join(dataDir, "frames"), yt,
		frames.WithFFmpegPath(env.Str("FFMPEG_PATH", "ffmpeg")),
		frames.WithTimeout(env.Duration("FRAME_TIMEOUT", 60*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	a := &app{store: store, youtube: yt}

	if apiKey := env.Str("LLM_API_KEY", ""); apiKey != "" {
		llmClient := llm.NewClient(
			env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
			apiKey,
			env.Str("LLM_MODEL", "gemini-2.5-flash"),
			llm.WithFallbackKeys(env.List("LLM_API_KEY_FALLBACKS", "")),
			llm.WithMaxTokens(env.Int("LLM_MAX_TOKENS", 8192)),
			llm.WithTemperature(env.Float("LLM_TEMPERATURE", 0.3)),
			llm.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
		)
		a.assist = assist.New(llmClient)
		a.reports = assist.NewReportBuilder(a.assist, frameExtractor)
	} else {
		slog.Warn("LLM_API_KEY not set; classify, report, discover, and synthesize are disabled")
	}

	var classifier library.Classifier
	if a.assist != nil {
		classifier = a.assist
	}
	a.service = library.NewService(library.ServiceConfig{
		Store:      store,
		Index:      index,
		Extractor:  yt,
		Frames:     frameExtractor,
		Classifier: classifier,
	})
	return a, nil
}

// initIndex wires the vector backend. Missing configuration degrades to a
// nil index (search disabled) rather than failing startup, so add/list/frame
// keep working without an embeddings key.
func initIndex(ctx context.Context) library.Index {
	embedKey := env.Str("EMBEDDINGS_API_KEY", env.Str("OPENAI_API_KEY", ""))
	if embedKey == "" {
		slog.Warn("no embeddings API key; semantic search is disabled")
		return nil
	}
	embedder := vector.NewOpenAIEmbedder(
		env.Str("EMBEDDINGS_API_BASE", ""),
		embedKey,
		env.Str("EMBEDDINGS_MODEL", ""),
	)

	switch backend := env.Str("VECTOR_BACKEND", "chroma"); backend {
	case "pgvector":
		dsn := env.Str("DATABASE_URL", "")
		if dsn == "" {
			slog.Warn("VECTOR_BACKEND=pgvector but DATABASE_URL not set; semantic search is disabled")
			return nil
		}
		idx, err := vector.NewPgIndex(ctx, dsn, embedder)
		if err != nil {
			slog.Warn("pgvector init failed; semantic search is disabled", slog.Any("error", err))
			return nil
		}
		return idx
	case "chroma":
		idx, err := vector.NewChromaIndex(ctx, env.Str("CHROMA_URL", "http://127.0.0.1:8000"), embedder)
		if err != nil {
			slog.Warn("chroma init failed; semantic search is disabled", slog.Any("error", err))
			return nil
		}
		return idx
	default:
		slog.Warn("unknown VECTOR_BACKEND; semantic search is disabled", slog.String("backend", backend))
		return nil
	}
}

func runServe(a *app) {
	mcpPort := env.Str("MCP_PORT", "8893")
	slog.Info("starting go_tube", slog.String("port", mcpPort))

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_tube",
		Version: version,
	}, nil)

	tubeserver.Init(tubeserver.Deps{
		Service: a.service,
		YouTube: a.youtube,
		Assist:  a.assist,
		Reports: a.reports,
	})
	tubeserver.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", 14))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_tube",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      library.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func runCommand(ctx context.Context, a *app, cmd string, args []string) error {
	switch cmd {
	case "add":
		return cmdAdd(ctx, a, args)
	case "list":
		return cmdList(ctx, a)
	case "info":
		return cmdInfo(ctx, a, args)
	case "remove":
		return cmdRemove(ctx, a, args)
	case "search":
		return cmdSearch(ctx, a, args)
	case "frame":
		return cmdFrame(ctx, a, args)
	case "frame-query":
		return cmdFrameQuery(ctx, a, args)
	case "classify":
		return cmdClassify(ctx, a, args)
	case "report":
		return cmdReport(ctx, a, args)
	case "report-query":
		return cmdReportQuery(ctx, a, args)
	case "discover":
		return cmdDiscover(ctx, a, args)
	case "synthesize":
		return cmdSynthesize(ctx, a, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func cmdAdd(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: go_tube add <url>")
	}
	video, err := a.service.AddVideo(ctx, args[0])

	var partial *library.PartialIngestionError
	if err != nil && !errors.As(err, &partial) {
		return err
	}
	fmt.Printf("added %s  %s (%s)\n", video.VideoID, video.Title, library.FormatTimestamp(video.Duration))
	if len(video.Transcript) == 0 {
		fmt.Println("  no transcript available; not semantically searchable")
	} else {
		fmt.Printf("  %d transcript segments", len(video.Transcript))
		if partial != nil {
			fmt.Printf(" (indexing incomplete: %v)", partial.Err)
		}
		fmt.Println()
	}
	if len(video.Tags) > 0 {
		fmt.Printf("  tags: %s\n", strings.Join(video.Tags, ", "))
	}
	return nil
}

func cmdList(ctx context.Context, a *app) error {
	videos, err := a.service.ListVideos(ctx)
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		fmt.Println("library is empty")
		return nil
	}
	for i, v := range videos {
		fmt.Printf("%3d. [%s] %s — %s (%s)\n",
			i+1, v.VideoID, v.Title, v.Channel, library.FormatTimestamp(v.Duration))
		if len(v.Tags) > 0 {
			fmt.Printf("     tags: %s\n", strings.Join(v.Tags, ", "))
		}
	}
	return nil
}

func cmdInfo(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: go_tube info <query>")
	}
	v, err := a.service.ResolveVideo(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s\n%s\n", v.Title, v.URL())
	fmt.Printf("channel:  %s\nduration: %s\nadded:    %s\n",
		v.Channel, library.FormatTimestamp(v.Duration), v.AddedAt.Format("2006-01-02"))
	if len(v.Tags) > 0 {
		fmt.Printf("tags:     %s\n", strings.Join(v.Tags, ", "))
	}
	fmt.Printf("transcript: %d segments\n", len(v.Transcript))
	if len(v.Chapters) > 0 {
		fmt.Println("chapters:")
		for _, ch := range v.Chapters {
			fmt.Printf("  [%s] %s\n", library.FormatTimestamp(ch.Start), ch.Title)
		}
	}
	return nil
}

func cmdRemove(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: go_tube remove <query>")
	}
	v, err := a.service.RemoveVideo(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("removed %s  %s\n", v.VideoID, v.Title)
	return nil
}

func cmdSearch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	videoID := fs.String("video", "", "restrict to one video ID")
	tags := fs.String("tags", "", "restrict to videos with any of these comma-separated tags")
	limit := fs.Int("limit", 10, "max results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: go_tube search [-video id] [-tags a,b] [-limit n] <query>")
	}
	query := strings.Join(fs.Args(), " ")

	var tagList []string
	if *tags != "" {
		tagList = strings.Split(*tags, ",")
	}
	results, err := a.service.Search(ctx, query, *videoID, tagList, *limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, r := range results {
		fmt.Printf("[%s] %s (%.2f)\n  %s\n",
			library.FormatTimestamp(r.Start), r.VideoID, r.Score, r.Text)
	}
	return nil
}

func cmdFrame(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: go_tube frame <video_id> <seconds>")
	}
	var ts float64
	if _, err := fmt.Sscanf(args[1], "%f", &ts); err != nil {
		return fmt.Errorf("bad timestamp %q", args[1])
	}
	path, err := a.service.GetFrame(ctx, args[0], ts)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func cmdFrameQuery(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: go_tube frame-query <video_id> <query>")
	}
	match, err := a.service.GetFrameByQuery(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Printf("%s\n  [%s] %s\n", match.Path, library.FormatTimestamp(match.Start), match.Text)
	return nil
}

func cmdClassify(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: go_tube classify <query>")
	}
	v, err := a.service.ResolveVideo(ctx, args[0])
	if err != nil {
		return err
	}
	tags, err := a.service.ClassifyVideo(ctx, v.VideoID)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", v.Title, strings.Join(tags, ", "))
	return nil
}

func cmdReport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	focus := fs.String("focus", "", "narrow the report to a question or angle")
	asHTML := fs.Bool("html", false, "render HTML with inlined frames instead of markdown")
	out := fs.String("o", "", "write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: go_tube report [-focus q] [-html] [-o file] <query>...")
	}
	if a.reports == nil {
		return errors.New("no LLM configured: set LLM_API_KEY")
	}

	var videos []*library.Video
	for _, q := range fs.Args() {
		v, err := a.service.ResolveVideo(ctx, q)
		if err != nil {
			return err
		}
		videos = append(videos, v)
	}
	report, err := a.reports.Generate(ctx, videos, *focus)
	if err != nil {
		return err
	}
	return emitReport(report, *asHTML, *out)
}

func cmdReportQuery(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("report-query", flag.ContinueOnError)
	tags := fs.String("tags", "", "restrict to videos with any of these comma-separated tags")
	limit := fs.Int("limit", 12, "max transcript matches to gather videos from")
	asHTML := fs.Bool("html", false, "render HTML with inlined frames instead of markdown")
	out := fs.String("o", "", "write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: go_tube report-query [-tags a,b] [-limit n] [-html] [-o file] <query>")
	}
	if a.reports == nil {
		return errors.New("no LLM configured: set LLM_API_KEY")
	}

	var tagList []string
	if *tags != "" {
		tagList = strings.Split(*tags, ",")
	}
	report, err := a.reports.GenerateFromQuery(ctx, a.service, strings.Join(fs.Args(), " "), tagList, *limit)
	if err != nil {
		return err
	}
	return emitReport(report, *asHTML, *out)
}

func emitReport(report *assist.Report, asHTML bool, out string) error {
	rendered := report.ToMarkdown()
	if asHTML {
		rendered = report.ToHTML()
	}
	if out != "" {
		if err := os.WriteFile(out, []byte(rendered), 0o644); err != nil {
			return err
		}
		fmt.Println("wrote", out)
		return nil
	}
	fmt.Println(rendered)
	return nil
}

func cmdDiscover(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: go_tube discover <topic>")
	}
	if a.assist == nil {
		return errors.New("no LLM configured: set LLM_API_KEY")
	}
	topic := strings.Join(args, " ")
	candidates, err := a.youtube.Search(ctx, topic, 15)
	if err != nil {
		return err
	}
	result, err := a.assist.Discover(ctx, topic, candidates)
	if err != nil {
		return err
	}
	if result.Summary != "" {
		fmt.Println(result.Summary)
		fmt.Println()
	}
	for _, cluster := range result.Clusters {
		fmt.Printf("## %s\n", cluster.Name)
		for _, v := range cluster.Videos {
			fmt.Printf("  %s — %s (%s)\n", v.Title, v.Channel, v.URL)
			if v.Reason != "" {
				fmt.Printf("    %s\n", v.Reason)
			}
		}
	}
	return nil
}

func cmdSynthesize(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: go_tube synthesize <question>")
	}
	if a.assist == nil {
		return errors.New("no LLM configured: set LLM_API_KEY")
	}
	question := strings.Join(args, " ")
	hits, err := a.service.Search(ctx, question, "", nil, 12)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("nothing in the library matches this question")
		return nil
	}

	titles := make(map[string]string)
	if listing, err := a.service.ListVideos(ctx); err == nil {
		for _, v := range listing {
			titles[v.VideoID] = v.Title
		}
	}
	answer, err := a.assist.Synthesize(ctx, question, hits, titles)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}
