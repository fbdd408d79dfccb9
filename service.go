package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ewintr.nl/ytsum/fetcher"
	"ewintr.nl/ytsum/ingest"
	"ewintr.nl/ytsum/process"
	"ewintr.nl/ytsum/storage"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const usage = `usage: ytsum <command> [arguments]

commands:
  serve                      run the http api
  summarize <link>           summarize one video and save it
  ingest [-c N] <playlist>   summarize all videos of a playlist
  list                       show the history, newest first
  delete <video id>          remove one video from the history
  clear                      remove all videos from the history
  schedule <playlist>        ingest the playlist on the SCHEDULE cron spec
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "could not load .env file: %v\n", err)
		os.Exit(1)
	}
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("unable to start", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "serve":
		err = cmdServe(ctx, a)
	case "summarize":
		err = cmdSummarize(ctx, a, args, os.Stdout)
	case "ingest":
		err = cmdIngest(ctx, a, args, os.Stdout)
	case "list":
		err = cmdList(ctx, a, os.Stdout)
	case "delete":
		err = cmdDelete(ctx, a, args, os.Stdout)
	case "clear":
		err = cmdClear(ctx, a, os.Stdout)
	case "schedule":
		err = cmdSchedule(ctx, a, args, os.Stdout)
	default:
		fmt.Fprint(os.Stderr, usage)
		a.Close()
		os.Exit(2)
	}
	if err != nil {
		logger.Error(command+" failed", slog.String("error", err.Error()))
		a.Close()
		os.Exit(1)
	}
}

// app holds the long lived dependencies. The summarizing parts are only
// built by the commands that need them, so that listing the history works
// without credentials.
type app struct {
	cfg     Config
	logger  *slog.Logger
	store   storage.HistoryStore
	mirror  *storage.Mirror
	yt      *fetcher.Youtube
	closers []func() error
}

func newApp(ctx context.Context, cfg Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
	}

	var store storage.HistoryStore
	var err error
	switch cfg.StorageBackend {
	case backendPostgres:
		store, err = storage.NewPostgres(ctx, cfg.Postgres)
	default:
		store, err = storage.NewSQLite(ctx, cfg.SQLitePath)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open %s store: %w", cfg.StorageBackend, err)
	}
	a.closers = append(a.closers, store.Close)
	a.store = store

	if cfg.Weaviate.Host != "" {
		index, err := storage.NewWeaviate(cfg.Weaviate)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("unable to create weaviate client: %w", err)
		}
		a.mirror = storage.NewMirror(store, index, logger)
		a.store = a.mirror
	}

	if err := a.store.Init(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("unable to initialize store: %w", err)
	}
	logger.Debug("store ready", slog.String("backend", cfg.StorageBackend), slog.Bool("index", a.mirror != nil))

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("could not close resource", slog.String("error", err.Error()))
		}
	}
	a.closers = nil
}

func (a *app) youtube(ctx context.Context) (*fetcher.Youtube, error) {
	if a.cfg.YoutubeApiKey == "" || a.yt != nil {
		return a.yt, nil
	}
	ytClient, err := youtube.NewService(ctx, option.WithAPIKey(a.cfg.YoutubeApiKey))
	if err != nil {
		return nil, fmt.Errorf("unable to create youtube service: %w", err)
	}
	a.yt = fetcher.NewYoutube(ytClient)

	return a.yt, nil
}

func (a *app) summarizer(ctx context.Context) (process.Summarizer, error) {
	if err := a.cfg.checkSummarizer(); err != nil {
		return nil, err
	}
	if a.cfg.SummarizerBackend == backendVertex {
		vertex, err := process.NewVertexSummarizer(ctx, a.cfg.Vertex)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, vertex.Close)
		return vertex, nil
	}

	return process.NewOpenAISummarizer(a.cfg.OpenAI), nil
}

func (a *app) processor(ctx context.Context) (*process.Processor, error) {
	summarizer, err := a.summarizer(ctx)
	if err != nil {
		return nil, err
	}
	yt, err := a.youtube(ctx)
	if err != nil {
		return nil, err
	}

	var metadata fetcher.MetadataFetcher
	if yt != nil {
		metadata = yt
	}
	transcripts := fetcher.NewYoutubeTranscript(http.DefaultClient, a.cfg.TranscriptLanguages, a.cfg.YoutubeRPS, a.logger)
	info := fetcher.NewInfo(transcripts, metadata, a.logger)

	return process.NewProcessor(info, summarizer, a.logger), nil
}

func (a *app) orchestrator(ctx context.Context, processor ingest.VideoProcessor) (*ingest.Orchestrator, error) {
	yt, err := a.youtube(ctx)
	if err != nil {
		return nil, err
	}

	var feeds fetcher.FeedReader
	if a.cfg.Miniflux.Endpoint != "" {
		feeds = fetcher.NewMiniflux(a.cfg.Miniflux)
	}
	source := fetcher.NewPlaylistSource(yt, feeds)

	return ingest.NewOrchestrator(source, processor, a.store, a.cfg.Concurrency, a.cfg.CourtesyDelay, a.logger), nil
}
