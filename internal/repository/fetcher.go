package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v5"

	yterrors "github.com/horiagug/youtube-transcript-fetch/pkg/errors"
)

const (
	defaultBaseURL       = "https://www.youtube.com"
	innertubeClientName  = "ANDROID"
	innertubeVersion     = "20.10.38"
	maxPageBytes         = 6 * 1024 * 1024
	maxInnertubeBytes    = 3 * 1024 * 1024
	defaultFetchAttempts = 3
)

type HTMLFetcherType interface {
	Fetch(url string, cookie *http.Cookie) ([]byte, error)
	FetchWithContext(ctx context.Context, url string, cookie *http.Cookie) ([]byte, error)
	FetchVideo(ctx context.Context, videoID string) ([]byte, error)
	FetchInnertubeData(ctx context.Context, videoID string, apiKey string, cookie *http.Cookie) (map[string]interface{}, error)
}

// RetryConfig controls how transient HTTP failures are retried.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts: defaultFetchAttempts,
	InitialWait: time.Second,
	MaxWait:     10 * time.Second,
}

type HTMLFetcher struct {
	client         *http.Client
	retry          RetryConfig
	acceptLanguage string
	baseURL        string

	mu      sync.Mutex
	consent *http.Cookie
}

type FetcherOption func(*HTMLFetcher)

func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *HTMLFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

func WithRetry(rc RetryConfig) FetcherOption {
	return func(f *HTMLFetcher) {
		f.retry = rc
	}
}

func WithAcceptLanguage(lang string) FetcherOption {
	return func(f *HTMLFetcher) {
		if lang != "" {
			f.acceptLanguage = lang
		}
	}
}

// WithBaseURL points the fetcher at another host, e.g. an httptest server.
func WithBaseURL(u string) FetcherOption {
	return func(f *HTMLFetcher) {
		f.baseURL = strings.TrimRight(u, "/")
	}
}

func NewHTMLFetcher(opts ...FetcherOption) *HTMLFetcher {
	f := &HTMLFetcher{
		client:         &http.Client{Timeout: 30 * time.Second},
		retry:          DefaultRetryConfig,
		acceptLanguage: "en-US",
		baseURL:        defaultBaseURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTMLFetcher) Fetch(url string, cookie *http.Cookie) ([]byte, error) {
	return f.FetchWithContext(context.Background(), url, cookie)
}

func (f *HTMLFetcher) FetchWithContext(ctx context.Context, url string, cookie *http.Cookie) ([]byte, error) {
	body, err := f.do(ctx, http.MethodGet, url, nil, cookie, maxPageBytes, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch after retries: %w", err)
	}
	return body, nil
}

func (f *HTMLFetcher) watchURL(videoID string) string {
	return f.baseURL + "/watch?v=" + videoID
}

func (f *HTMLFetcher) FetchVideo(ctx context.Context, videoID string) ([]byte, error) {
	videoURL := f.watchURL(videoID)

	body, err := f.FetchWithContext(ctx, videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video page: %w", err)
	}

	if !consentRequired(body) {
		return body, nil
	}

	slog.Info("consent required, setting cookie and retrying", slog.String("video_id", videoID))
	cookie, err := createConsentCookie(body)
	if err != nil {
		return nil, fmt.Errorf("failed to create consent cookie: %w", err)
	}
	f.setConsent(cookie)

	body, err = f.FetchWithContext(ctx, videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video page after setting consent: %w", err)
	}
	if consentRequired(body) {
		return nil, yterrors.ErrFailedToCreateConsentCookie
	}
	return body, nil
}

type innertubeRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

func (f *HTMLFetcher) FetchInnertubeData(ctx context.Context, videoID string, apiKey string, cookie *http.Cookie) (map[string]interface{}, error) {
	var payload innertubeRequest
	payload.Context.Client.ClientName = innertubeClientName
	payload.Context.Client.ClientVersion = innertubeVersion
	payload.VideoID = videoID

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode innertube request: %w", err)
	}

	endpoint := f.baseURL + "/youtubei/v1/player?key=" + apiKey
	headers := map[string]string{"Content-Type": "application/json"}

	body, err := f.do(ctx, http.MethodPost, endpoint, reqBody, cookie, maxInnertubeBytes, headers)
	if err != nil {
		return nil, fmt.Errorf("innertube player request failed: %w", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode innertube response: %w", err)
	}
	return data, nil
}

// do sends one request, retrying transport errors and 5xx with exponential backoff.
// 429 is permanent: YouTube keeps blocking the IP for a while.
func (f *HTMLFetcher) do(ctx context.Context, method, url string, reqBody []byte, cookie *http.Cookie, limit int64, headers map[string]string) ([]byte, error) {
	if cookie == nil {
		cookie = f.getConsent()
	}

	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		var rd io.Reader
		if reqBody != nil {
			rd = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rd)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept-Language", f.acceptLanguage)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if cookie != nil {
			req.AddCookie(cookie)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		defer resp.Body.Close()

		if isRetryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			if resp.StatusCode == http.StatusTooManyRequests {
				return nil, backoff.Permanent(yterrors.ErrTooManyRequests)
			}
			return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		if len(body) == 0 {
			return nil, fmt.Errorf("empty response body")
		}
		return body, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.retry.InitialWait
	bo.MaxInterval = f.retry.MaxWait

	tries := f.retry.MaxAttempts
	if tries < 1 {
		tries = 1
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(tries)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Debug("retrying request",
				slog.String("url", url),
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait),
				slog.Any("error", err))
		}),
	)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (f *HTMLFetcher) setConsent(c *http.Cookie) {
	f.mu.Lock()
	f.consent = c
	f.mu.Unlock()
}

func (f *HTMLFetcher) getConsent() *http.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.consent
}

func createConsentCookie(page []byte) (*http.Cookie, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse consent page: %w", err)
	}

	value, ok := doc.Find(`input[name="v"]`).First().Attr("value")
	if !ok || value == "" {
		return nil, yterrors.ErrFailedToCreateConsentCookie
	}

	return &http.Cookie{
		Name:   "CONSENT",
		Value:  "YES+" + value,
		Domain: ".youtube.com",
	}, nil
}

var consentRegex = regexp.MustCompile(`action="https://consent\.youtube\.com/s`)

func consentRequired(body []byte) bool {
	return consentRegex.Match(body)
}
