package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/horiagug/youtube-transcript-fetch/internal/repository/fixtures"
	yterrors "github.com/horiagug/youtube-transcript-fetch/pkg/errors"
	"github.com/horiagug/youtube-transcript-fetch/pkg/models"
)

const watchPage = `<html><head><title>Test Video</title></head><body><script>ytcfg.set({"INNERTUBE_API_KEY":"test_key"});</script></body></html>`

const singleLineXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>
	<text start="0" dur="1">Hello world</text>
</transcript>`

func track(url, name, code, kind string) map[string]interface{} {
	t := map[string]interface{}{
		"baseUrl":        url,
		"name":           map[string]interface{}{"simpleText": name},
		"languageCode":   code,
		"isTranslatable": true,
	}
	if kind != "" {
		t["kind"] = kind
	}
	return t
}

func innertubeData(tracks ...map[string]interface{}) map[string]interface{} {
	list := make([]interface{}, 0, len(tracks))
	for _, t := range tracks {
		list = append(list, t)
	}
	return map[string]interface{}{
		"playabilityStatus": map[string]interface{}{"status": "OK"},
		"captions": map[string]interface{}{
			"playerCaptionsTracklistRenderer": map[string]interface{}{
				"captionTracks": list,
			},
		},
	}
}

func unplayable(status, reason string) map[string]interface{} {
	return map[string]interface{}{
		"playabilityStatus": map[string]interface{}{"status": status, "reason": reason},
	}
}

func TestNewTranscriptService(t *testing.T) {
	fetcher := &fixtures.MockHTMLFetcher{}
	service := NewTranscriptService(fetcher)
	assert.NotNil(t, service, "Service should not be nil")
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name              string
		videoID           string
		languages         []string
		mockVideoHTML     string
		mockInnertube     map[string]interface{}
		mockTranscriptXML string
		expectedErr       error
		expectedResult    *models.FetchedTranscript
	}{
		{
			name:              "Success case - default language",
			videoID:           "abc123",
			mockVideoHTML:     watchPage,
			mockInnertube:     innertubeData(track("http://example.com/transcript&fmt=srv3", "English", "en", "asr")),
			mockTranscriptXML: singleLineXML,
			expectedResult: &models.FetchedTranscript{
				VideoID:      "abc123",
				VideoTitle:   "Test Video",
				Language:     "English",
				LanguageCode: "en",
				IsGenerated:  true,
				Snippets: []models.Snippet{
					{Text: "Hello world", Start: 0, Duration: 1},
				},
			},
		},
		{
			name:              "Manual track preferred over generated",
			videoID:           "https://www.youtube.com/watch?v=abc123",
			languages:         []string{"de", "en"},
			mockVideoHTML:     watchPage,
			mockInnertube:     innertubeData(track("http://example.com/asr", "English (auto)", "en", "asr"), track("http://example.com/manual", "English", "en", "")),
			mockTranscriptXML: singleLineXML,
			expectedResult: &models.FetchedTranscript{
				VideoID:      "abc123",
				VideoTitle:   "Test Video",
				Language:     "English",
				LanguageCode: "en",
				IsGenerated:  false,
				Snippets: []models.Snippet{
					{Text: "Hello world", Start: 0, Duration: 1},
				},
			},
		},
		{
			name:          "Too many requests",
			videoID:       "abc123",
			mockVideoHTML: `<div class="g-recaptcha"></div>`,
			expectedErr:   yterrors.ErrTooManyRequests,
		},
		{
			name:          "Unparsable page",
			videoID:       "abc123",
			mockVideoHTML: `{"someOtherData": true}`,
			expectedErr:   yterrors.ErrDataUnparsable,
		},
		{
			name:          "Bot detection",
			videoID:       "abc123",
			mockVideoHTML: watchPage,
			mockInnertube: unplayable("LOGIN_REQUIRED", "Sign in to confirm you’re not a bot"),
			expectedErr:   yterrors.ErrRequestBlocked,
		},
		{
			name:          "Age restricted",
			videoID:       "abc123",
			mockVideoHTML: watchPage,
			mockInnertube: unplayable("LOGIN_REQUIRED", "This video may be inappropriate for some users."),
			expectedErr:   yterrors.ErrAgeRestricted,
		},
		{
			name:          "Video unavailable",
			videoID:       "nonexistent",
			mockVideoHTML: watchPage,
			mockInnertube: unplayable("ERROR", "This video is unavailable"),
			expectedErr:   yterrors.ErrVideoUnavailable,
		},
		{
			name:          "Unrecognised URL",
			videoID:       "https://example.com/x",
			mockVideoHTML: watchPage,
			mockInnertube: unplayable("ERROR", "This video is unavailable"),
			expectedErr:   yterrors.ErrInvalidVideoID,
		},
		{
			name:          "Unplayable",
			videoID:       "abc123",
			mockVideoHTML: watchPage,
			mockInnertube: unplayable("UNPLAYABLE", "Video unavailable in your country"),
			expectedErr:   yterrors.ErrVideoUnplayable,
		},
		{
			name:          "Transcripts disabled",
			videoID:       "abc123",
			mockVideoHTML: watchPage,
			mockInnertube: map[string]interface{}{"playabilityStatus": map[string]interface{}{"status": "OK"}},
			expectedErr:   yterrors.ErrTranscriptsDisabled,
		},
		{
			name:          "No transcript in requested language",
			videoID:       "abc123",
			languages:     []string{"fr"},
			mockVideoHTML: watchPage,
			mockInnertube: innertubeData(track("http://example.com/en", "English", "en", "")),
			expectedErr:   yterrors.ErrNoTranscriptFound,
		},
		{
			name:          "PO token required",
			videoID:       "abc123",
			mockVideoHTML: watchPage,
			mockInnertube: innertubeData(track("http://example.com/en?x=1&exp=xpe", "English", "en", "")),
			expectedErr:   yterrors.ErrPoTokenRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fixtures.MockHTMLFetcher{}

			fetcher.On("FetchVideo", mock.AnythingOfType("string")).Return([]byte(tt.mockVideoHTML), nil)
			if tt.mockInnertube != nil {
				fetcher.On("FetchInnertubeData", mock.AnythingOfType("string"), "test_key").Return(tt.mockInnertube, nil)
			}
			if tt.mockTranscriptXML != "" {
				fetcher.On("FetchWithContext", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return([]byte(tt.mockTranscriptXML), nil)
			}

			service := NewTranscriptService(fetcher)
			result, err := service.Fetch(context.Background(), tt.videoID, tt.languages...)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				var videoErr *yterrors.VideoError
				assert.ErrorAs(t, err, &videoErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedResult, result)
			}

			fetcher.AssertExpectations(t)
		})
	}
}

func TestFetchStripsSrv3Format(t *testing.T) {
	fetcher := &fixtures.MockHTMLFetcher{}
	fetcher.On("FetchVideo", "abc123").Return([]byte(watchPage), nil)
	fetcher.On("FetchInnertubeData", "abc123", "test_key").
		Return(innertubeData(track("http://example.com/t?lang=en&fmt=srv3", "English", "en", "")), nil)
	fetcher.On("FetchWithContext", mock.Anything, "http://example.com/t?lang=en", mock.Anything).
		Return([]byte(singleLineXML), nil)

	_, err := NewTranscriptService(fetcher).Fetch(context.Background(), "abc123")
	require.NoError(t, err)
	fetcher.AssertExpectations(t)
}

func TestFetchPropagatesFetcherError(t *testing.T) {
	fetcher := &fixtures.MockHTMLFetcher{}
	fetcher.On("FetchVideo", "abc123").Return([]byte{}, errors.New("connection refused"))

	_, err := NewTranscriptService(fetcher).Fetch(context.Background(), "abc123")
	require.Error(t, err)
	assert.Equal(t,
		"could not retrieve a transcript for the video https://www.youtube.com/watch?v=abc123: failed to fetch video page: connection refused",
		err.Error())
}

func TestListTranscripts(t *testing.T) {
	fetcher := &fixtures.MockHTMLFetcher{}
	fetcher.On("FetchVideo", "abc123").Return([]byte(watchPage), nil)
	fetcher.On("FetchInnertubeData", "abc123", "test_key").
		Return(innertubeData(
			track("http://example.com/en", "English", "en", ""),
			track("http://example.com/es", "Spanish", "es", "asr"),
		), nil)

	infos, err := NewTranscriptService(fetcher).ListTranscripts(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "en", infos[0].LanguageCode)
	assert.False(t, infos[0].IsGenerated)
	assert.Equal(t, "Spanish", infos[1].Language)
	assert.True(t, infos[1].IsGenerated)
}

func TestSanitizeVideoID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Regular video ID",
			input:    "dQw4w9WgXcQ",
			expected: "dQw4w9WgXcQ",
		},
		{
			name:     "YouTube URL",
			input:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			expected: "dQw4w9WgXcQ",
		},
		{
			name:     "YouTube URL with additional parameters",
			input:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s",
			expected: "dQw4w9WgXcQ",
		},
		{
			name:     "Short URL",
			input:    "https://youtu.be/dQw4w9WgXcQ",
			expected: "dQw4w9WgXcQ",
		},
		{
			name:     "Shorts URL",
			input:    "https://www.youtube.com/shorts/dQw4w9WgXcQ",
			expected: "dQw4w9WgXcQ",
		},
		{
			name:     "Scheme-less URL",
			input:    "www.youtube.com/watch?v=dQw4w9WgXcQ",
			expected: "dQw4w9WgXcQ",
		},
		{
			name:     "Invalid URL",
			input:    "https://example.com/video",
			expected: "https://example.com/video",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeVideoId(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFindTranscript(t *testing.T) {
	asr := "asr"
	tracks := []models.CaptionTrack{
		{LanguageCode: "en", Kind: &asr, Name: models.LanguageName{SimpleText: "English (auto)"}},
		{LanguageCode: "es", Name: models.LanguageName{SimpleText: "Spanish"}},
	}
	service := TranscriptService{}

	tr, err := service.findTranscript([]string{"en"}, tracks)
	require.NoError(t, err)
	assert.True(t, tr.IsGenerated())

	tr, err = service.findTranscript([]string{"fr", "es"}, tracks)
	require.NoError(t, err)
	assert.Equal(t, "es", tr.LanguageCode)

	_, err = service.findTranscript([]string{"fr"}, tracks)
	assert.ErrorIs(t, err, yterrors.ErrNoTranscriptFound)
	assert.Contains(t, err.Error(), "available: en, es")
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name          string
		inputHTML     string
		expectedTitle string
	}{
		{
			name:          "Valid title tag",
			inputHTML:     `<html><head><title>My Video Title</title></head><body>Hello</body></html>`,
			expectedTitle: "My Video Title",
		},
		{
			name:          "Title tag with HTML entities",
			inputHTML:     `<html><head><title>My Video &amp; Title</title></head><body></body></html>`,
			expectedTitle: "My Video & Title",
		},
		{
			name:          "No title tag",
			inputHTML:     `<html><head></head><body>No title here</body></html>`,
			expectedTitle: "",
		},
		{
			name:          "Empty title tag",
			inputHTML:     `<html><head><title></title></head><body></body></html>`,
			expectedTitle: "",
		},
		{
			name:          "Multiple title tags (first should be picked)",
			inputHTML:     `<html><head><title>First Title</title><title>Second Title</title></head><body></body></html>`,
			expectedTitle: "First Title",
		},
		{
			name:          "Escaped characters in title",
			inputHTML:     `<html><body><title>What&#39;s new in Go</title></body></html>`,
			expectedTitle: "What's new in Go",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractTitle(tt.inputHTML)
			assert.Equal(t, tt.expectedTitle, result)
		})
	}
}
