package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/horiagug/youtube-transcript-fetch/internal/repository"
	yterrors "github.com/horiagug/youtube-transcript-fetch/pkg/errors"
	"github.com/horiagug/youtube-transcript-fetch/pkg/models"
)

// DefaultLanguages is used when a caller does not ask for any language.
var DefaultLanguages = []string{"en"}

const (
	reasonBotDetected      = "Sign in to confirm you"
	reasonAgeRestricted    = "This video may be inappropriate for some users"
	reasonVideoUnavailable = "This video is unavailable"
	poTokenMarker          = "&exp=xpe"
)

var apiKeyRegex = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)

type TranscriptService struct {
	fetcher            repository.HTMLFetcherType
	preserveFormatting bool
}

type Option func(*TranscriptService)

func WithPreserveFormatting(preserve bool) Option {
	return func(t *TranscriptService) {
		t.preserveFormatting = preserve
	}
}

func NewTranscriptService(fetcher repository.HTMLFetcherType, opts ...Option) *TranscriptService {
	t := &TranscriptService{fetcher: fetcher}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type videoTranscriptData struct {
	Title  string
	Tracks []models.CaptionTrack
}

// Fetch retrieves the first transcript matching languages, in priority order.
// Manually created transcripts win over generated ones for the same language.
func (t *TranscriptService) Fetch(ctx context.Context, videoID string, languages ...string) (*models.FetchedTranscript, error) {
	videoID = sanitizeVideoId(videoID)
	if len(languages) == 0 {
		languages = DefaultLanguages
	}

	data, err := t.extractTranscriptList(ctx, videoID)
	if err != nil {
		return nil, yterrors.NewVideoError(videoID, err)
	}

	track, err := t.findTranscript(languages, data.Tracks)
	if err != nil {
		return nil, yterrors.NewVideoError(videoID, err)
	}

	snippets, err := t.getTranscriptFromTrack(ctx, track)
	if err != nil {
		return nil, yterrors.NewVideoError(videoID, err)
	}

	return &models.FetchedTranscript{
		VideoID:      videoID,
		VideoTitle:   data.Title,
		Language:     track.Name.String(),
		LanguageCode: track.LanguageCode,
		IsGenerated:  track.IsGenerated(),
		Snippets:     snippets,
	}, nil
}

// ListTranscripts returns every transcript YouTube offers for the video.
func (t *TranscriptService) ListTranscripts(ctx context.Context, videoID string) ([]models.TranscriptInfo, error) {
	videoID = sanitizeVideoId(videoID)

	data, err := t.extractTranscriptList(ctx, videoID)
	if err != nil {
		return nil, yterrors.NewVideoError(videoID, err)
	}

	infos := make([]models.TranscriptInfo, 0, len(data.Tracks))
	for _, tr := range data.Tracks {
		infos = append(infos, models.TranscriptInfo{
			VideoID:        videoID,
			Language:       tr.Name.String(),
			LanguageCode:   tr.LanguageCode,
			IsGenerated:    tr.IsGenerated(),
			IsTranslatable: tr.IsTranslatable,
			BaseUrl:        tr.BaseUrl,
		})
	}
	return infos, nil
}

func extractTitle(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		slog.Debug("failed to parse video page for title", slog.Any("error", err))
		return ""
	}

	var title string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = n.FirstChild.Data
				return
			}
		}
		for c := n.FirstChild; c != nil && title == ""; c = c.NextSibling {
			f(c)
		}
	}

	f(doc)
	return title
}

func (t *TranscriptService) extractTranscriptList(ctx context.Context, videoID string) (*videoTranscriptData, error) {
	page, err := t.fetcher.FetchVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video page: %w", err)
	}

	body := string(page)
	title := extractTitle(body)

	match := apiKeyRegex.FindStringSubmatch(body)
	if len(match) < 2 {
		if strings.Contains(body, `class="g-recaptcha"`) {
			return nil, yterrors.ErrTooManyRequests
		}
		return nil, yterrors.ErrDataUnparsable
	}

	data, err := t.fetcher.FetchInnertubeData(ctx, videoID, match[1], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch innertube data: %w", err)
	}

	if err := assertPlayability(videoID, data); err != nil {
		return nil, err
	}

	details, err := extractInnertubeVideoDetails(data)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.CaptionTrack, 0, len(details.CaptionTracks))
	for _, tr := range details.CaptionTracks {
		tr.BaseUrl = strings.Replace(tr.BaseUrl, "&fmt=srv3", "", 1)
		tracks = append(tracks, tr)
	}

	return &videoTranscriptData{Title: title, Tracks: tracks}, nil
}

func assertPlayability(videoID string, data map[string]interface{}) error {
	ps, ok := data["playabilityStatus"].(map[string]interface{})
	if !ok {
		return nil
	}
	status, _ := ps["status"].(string)
	if status == "" || status == "OK" {
		return nil
	}
	reason, _ := ps["reason"].(string)

	switch status {
	case "LOGIN_REQUIRED":
		if strings.HasPrefix(reason, reasonBotDetected) {
			return yterrors.ErrRequestBlocked
		}
		if strings.HasPrefix(reason, reasonAgeRestricted) {
			return yterrors.ErrAgeRestricted
		}
	case "ERROR":
		if strings.HasPrefix(reason, reasonVideoUnavailable) {
			if strings.HasPrefix(videoID, "http://") || strings.HasPrefix(videoID, "https://") {
				return yterrors.ErrInvalidVideoID
			}
			return yterrors.ErrVideoUnavailable
		}
	}

	if reason == "" {
		return fmt.Errorf("%w: status %s", yterrors.ErrVideoUnplayable, status)
	}
	return fmt.Errorf("%w: %s", yterrors.ErrVideoUnplayable, reason)
}

func extractInnertubeVideoDetails(data map[string]interface{}) (*models.TranscriptData, error) {
	captions, ok := data["captions"]
	if !ok || captions == nil {
		return nil, yterrors.ErrTranscriptsDisabled
	}

	raw, err := json.Marshal(captions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", yterrors.ErrDataUnparsable, err)
	}

	var details models.VideoDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("%w: %v", yterrors.ErrDataUnparsable, err)
	}

	if details.PlayerCaptionsTracklistRenderer == nil || len(details.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return nil, yterrors.ErrTranscriptsDisabled
	}
	return details.PlayerCaptionsTracklistRenderer, nil
}

func (t *TranscriptService) findTranscript(languages []string, tracks []models.CaptionTrack) (models.CaptionTrack, error) {
	manual := make(map[string]models.CaptionTrack, len(tracks))
	generated := make(map[string]models.CaptionTrack, len(tracks))
	for _, tr := range tracks {
		if tr.IsGenerated() {
			if _, ok := generated[tr.LanguageCode]; !ok {
				generated[tr.LanguageCode] = tr
			}
			continue
		}
		if _, ok := manual[tr.LanguageCode]; !ok {
			manual[tr.LanguageCode] = tr
		}
	}

	for _, lang := range languages {
		if tr, ok := manual[lang]; ok {
			return tr, nil
		}
		if tr, ok := generated[lang]; ok {
			return tr, nil
		}
	}

	available := make([]string, 0, len(tracks))
	for _, tr := range tracks {
		available = append(available, tr.LanguageCode)
	}
	sort.Strings(available)

	return models.CaptionTrack{}, fmt.Errorf("%w for languages %v (available: %s)",
		yterrors.ErrNoTranscriptFound, languages, strings.Join(available, ", "))
}

func (t *TranscriptService) getTranscriptFromTrack(ctx context.Context, track models.CaptionTrack) ([]models.Snippet, error) {
	if strings.Contains(track.BaseUrl, poTokenMarker) {
		return nil, yterrors.ErrPoTokenRequired
	}

	body, err := t.fetcher.FetchWithContext(ctx, track.BaseUrl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}

	parser := repository.NewTranscriptParser(t.preserveFormatting)

	snippets, err := parser.Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return snippets, nil
}

func sanitizeVideoId(videoID string) string {
	if !strings.HasPrefix(videoID, "http://") && !strings.HasPrefix(videoID, "https://") && !strings.HasPrefix(videoID, "www.") {
		return videoID
	}

	raw := videoID
	if strings.HasPrefix(raw, "www.") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		slog.Warn("failed to parse video URL", slog.String("input", videoID), slog.Any("error", err))
		return videoID
	}

	switch {
	case strings.HasSuffix(u.Host, "youtu.be"):
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id
		}
	case strings.Contains(u.Host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				return strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")
			}
		}
	default:
		slog.Warn("input does not look like a youtube video, trying it as-is", slog.String("input", videoID))
	}
	return videoID
}
