package client

import (
	"net/http"
	"time"

	"github.com/horiagug/youtube-transcript-fetch/internal/repository"
	"github.com/horiagug/youtube-transcript-fetch/internal/service"
	"github.com/horiagug/youtube-transcript-fetch/pkg/formatters"
)

type Option func(*Client)

// WithCustomFetcher replaces the HTTP layer, e.g. with a mock in tests.
func WithCustomFetcher(fetcher repository.HTMLFetcherType) Option {
	return func(c *Client) {
		c.transcriptService = service.NewTranscriptService(fetcher,
			service.WithPreserveFormatting(c.preserveFormatting))
	}
}

// WithTranscriptService replaces the provider entirely.
func WithTranscriptService(s TranscriptService) Option {
	return func(c *Client) {
		c.transcriptService = s
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
		c.fetcherOpts = append(c.fetcherOpts, repository.WithHTTPClient(httpClientFor(timeout)))
	}
}

func WithFormatter(formatter formatters.Formatter) Option {
	return func(c *Client) {
		c.formatter = formatter
	}
}

func WithCache(cache *repository.Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.fetcherOpts = append(c.fetcherOpts, repository.WithHTTPClient(httpClient))
	}
}

func WithRetry(rc repository.RetryConfig) Option {
	return func(c *Client) {
		c.fetcherOpts = append(c.fetcherOpts, repository.WithRetry(rc))
	}
}

func WithAcceptLanguage(lang string) Option {
	return func(c *Client) {
		c.fetcherOpts = append(c.fetcherOpts, repository.WithAcceptLanguage(lang))
	}
}

// WithPreserveFormatting keeps <b>, <i> and similar tags in snippet text.
// It must come before WithCustomFetcher to affect it.
func WithPreserveFormatting(preserve bool) Option {
	return func(c *Client) {
		c.preserveFormatting = preserve
	}
}
