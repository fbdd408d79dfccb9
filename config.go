package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ewintr.nl/ytsum/fetcher"
	"ewintr.nl/ytsum/ingest"
	"ewintr.nl/ytsum/process"
	"ewintr.nl/ytsum/storage"
	"golang.org/x/exp/slog"
)

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrMissingCredential = errors.New("missing summarizer credential")
)

const (
	backendOpenAI   = "openai"
	backendVertex   = "vertex"
	backendSQLite   = "sqlite"
	backendPostgres = "postgres"
)

type Config struct {
	SummarizerBackend   string
	OpenAI              process.OpenAIInfo
	Vertex              process.VertexInfo
	YoutubeApiKey       string
	TranscriptLanguages []string
	YoutubeRPS          float64
	StorageBackend      string
	SQLitePath          string
	Postgres            storage.PostgresInfo
	Weaviate            storage.WeaviateInfo
	Miniflux            fetcher.MinifluxInfo
	Concurrency         int
	CourtesyDelay       time.Duration
	Port                int
	Schedule            string
	LogLevel            slog.Level
}

func loadConfig() (Config, error) {
	language := getParam("SUMMARY_LANGUAGE", "")
	model := getParam("SUMMARIZER_MODEL", "")
	cfg := Config{
		SummarizerBackend: strings.ToLower(getParam("SUMMARIZER_BACKEND", backendOpenAI)),
		OpenAI: process.OpenAIInfo{
			ApiKey:   getParam("SUMMARIZER_API_KEY", getParam("GEMINI_API_KEY", "")),
			BaseURL:  getParam("SUMMARIZER_BASE_URL", process.DefaultBaseURL),
			Model:    model,
			Language: language,
		},
		Vertex: process.VertexInfo{
			Project:         getParam("GOOGLE_CLOUD_PROJECT", ""),
			Location:        getParam("GOOGLE_CLOUD_LOCATION", "europe-west1"),
			CredentialsFile: getParam("GOOGLE_APPLICATION_CREDENTIALS", ""),
			Model:           model,
			Language:        language,
		},
		YoutubeApiKey:       getParam("YOUTUBE_API_KEY", ""),
		TranscriptLanguages: splitList(getParam("TRANSCRIPT_LANGUAGES", "it,en")),
		StorageBackend:      strings.ToLower(getParam("STORAGE_BACKEND", backendSQLite)),
		SQLitePath:          getParam("SQLITE_PATH", "history.db"),
		Postgres: storage.PostgresInfo{
			Host:     getParam("POSTGRES_HOST", "localhost"),
			Port:     getParam("POSTGRES_PORT", "5432"),
			User:     getParam("POSTGRES_USER", "ytsum"),
			Password: getParam("POSTGRES_PASSWORD", "ytsum"),
			Database: getParam("POSTGRES_DB", "ytsum"),
		},
		Weaviate: storage.WeaviateInfo{
			Scheme:       getParam("WEAVIATE_SCHEME", "http"),
			Host:         getParam("WEAVIATE_HOST", ""),
			ApiKey:       getParam("WEAVIATE_APIKEY", ""),
			OpenAIApiKey: getParam("OPENAI_API_KEY", ""),
		},
		Miniflux: fetcher.MinifluxInfo{
			Endpoint: getParam("MINIFLUX_ENDPOINT", ""),
			ApiKey:   getParam("MINIFLUX_APIKEY", ""),
		},
		Schedule: getParam("SCHEDULE", "@daily"),
	}

	var err error
	if cfg.YoutubeRPS, err = strconv.ParseFloat(getParam("YOUTUBE_RPS", "2"), 64); err != nil || cfg.YoutubeRPS <= 0 {
		return Config{}, fmt.Errorf("%w: YOUTUBE_RPS must be a positive number", ErrInvalidConfig)
	}
	if cfg.Concurrency, err = strconv.Atoi(getParam("CONCURRENCY", strconv.Itoa(ingest.DefaultConcurrency))); err != nil || cfg.Concurrency <= 0 {
		return Config{}, fmt.Errorf("%w: CONCURRENCY must be a positive number", ErrInvalidConfig)
	}
	if cfg.CourtesyDelay, err = time.ParseDuration(getParam("COURTESY_DELAY", ingest.DefaultCourtesyDelay.String())); err != nil || cfg.CourtesyDelay < 0 {
		return Config{}, fmt.Errorf("%w: COURTESY_DELAY must be a duration like 1s", ErrInvalidConfig)
	}
	if cfg.Port, err = strconv.Atoi(getParam("API_PORT", "8080")); err != nil {
		return Config{}, fmt.Errorf("%w: invalid port: %w", ErrInvalidConfig, err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getParam("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch cfg.SummarizerBackend {
	case backendOpenAI, backendVertex:
	default:
		return Config{}, fmt.Errorf("%w: unknown summarizer backend %q", ErrInvalidConfig, cfg.SummarizerBackend)
	}
	switch cfg.StorageBackend {
	case backendSQLite, backendPostgres:
	default:
		return Config{}, fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, cfg.StorageBackend)
	}

	return cfg, nil
}

// checkSummarizer reports a missing credential for the selected backend.
// Only the commands that summarize need it.
func (c Config) checkSummarizer() error {
	switch {
	case c.SummarizerBackend == backendOpenAI && c.OpenAI.ApiKey == "":
		return fmt.Errorf("%w: set SUMMARIZER_API_KEY or GEMINI_API_KEY", ErrMissingCredential)
	case c.SummarizerBackend == backendVertex && c.Vertex.Project == "":
		return fmt.Errorf("%w: set GOOGLE_CLOUD_PROJECT", ErrMissingCredential)
	}

	return nil
}

func getParam(param, def string) string {
	if val, ok := os.LookupEnv(param); ok {
		return val
	}
	return def
}

func splitList(s string) []string {
	var res []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}
	return res
}
