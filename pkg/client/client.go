package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/horiagug/youtube-transcript-fetch/internal/repository"
	"github.com/horiagug/youtube-transcript-fetch/internal/service"
	"github.com/horiagug/youtube-transcript-fetch/pkg/formatters"
	"github.com/horiagug/youtube-transcript-fetch/pkg/models"
)

const defaultTimeout = 30 * time.Second

// TranscriptService is the provider the client delegates to.
type TranscriptService interface {
	Fetch(ctx context.Context, videoID string, languages ...string) (*models.FetchedTranscript, error)
	ListTranscripts(ctx context.Context, videoID string) ([]models.TranscriptInfo, error)
}

type Client struct {
	transcriptService TranscriptService
	timeout           time.Duration
	formatter         formatters.Formatter
	cache             *repository.Cache

	preserveFormatting bool
	fetcherOpts        []repository.FetcherOption
}

func New(options ...Option) *Client {
	client := &Client{
		timeout:   defaultTimeout,
		formatter: formatters.NewJSONFormatter(),
	}

	for _, opt := range options {
		opt(client)
	}

	if client.transcriptService == nil {
		fetcher := repository.NewHTMLFetcher(client.fetcherOpts...)
		client.transcriptService = service.NewTranscriptService(fetcher,
			service.WithPreserveFormatting(client.preserveFormatting))
	}

	return client
}

// Fetch returns the transcript for videoID in the first available language.
// It satisfies transcript.Provider.
func (c *Client) Fetch(ctx context.Context, videoID string, languages ...string) (*models.FetchedTranscript, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	key := repository.CacheKey(videoID, languages...)
	if cached, ok := c.cache.Get(ctx, key); ok {
		return cached, nil
	}

	transcript, err := c.transcriptService.Fetch(ctx, videoID, languages...)
	if err != nil {
		return nil, err
	}

	c.cache.Set(ctx, key, transcript)
	return transcript, nil
}

func (c *Client) ListTranscripts(ctx context.Context, videoID string) ([]models.TranscriptInfo, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.transcriptService.ListTranscripts(ctx, videoID)
}

func (c *Client) GetFormattedTranscript(ctx context.Context, videoID string, languages ...string) (string, error) {
	transcript, err := c.Fetch(ctx, videoID, languages...)
	if err != nil {
		return "", err
	}
	return c.formatter.Format(*transcript)
}

func (c *Client) Close() error {
	if err := c.cache.Close(); err != nil {
		slog.Debug("cache close failed", slog.Any("error", err))
		return fmt.Errorf("close cache: %w", err)
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// httpClientFor builds the transport used when no client is injected.
func httpClientFor(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 15 * time.Second,
		},
	}
}
