// Package transcript turns a provider's transcript into the flat segment list
// printed by the CLI, or into a single error record when the fetch fails.
package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/horiagug/youtube-transcript-fetch/pkg/models"
)

// DefaultLanguage is the language the CLI reports when none is given.
const DefaultLanguage = "en"

// Provider retrieves transcripts by video ID.
type Provider interface {
	Fetch(ctx context.Context, videoID string, languages ...string) (*models.FetchedTranscript, error)
}

// Segment is one caption unit with its timing in seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Result is either a list of segments or an error message, never both.
type Result struct {
	Segments []Segment
	Err      string

	// Transcript is the provider's full answer, kept for non-JSON output.
	Transcript *models.FetchedTranscript
}

// Failed reports whether the result carries an error.
func (r Result) Failed() bool {
	return r.Err != ""
}

type errorRecord struct {
	Error string `json:"error"`
}

// ErrorResult builds the single-key error record.
func ErrorResult(msg string) Result {
	return Result{Err: msg}
}

// MarshalJSON renders a segment array on success and {"error": ...} on failure.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return marshal(errorRecord{Error: r.Err})
	}
	segments := r.Segments
	if segments == nil {
		segments = []Segment{}
	}
	return marshal(segments)
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Fetch asks the provider for videoID's transcript and flattens it into segments.
//
// lang is accepted for interface compatibility but is not forwarded, so the
// provider's default language preference applies.
func Fetch(ctx context.Context, provider Provider, videoID, lang string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("transcript provider panicked", slog.String("video_id", videoID), slog.Any("panic", r))
			result = ErrorResult(fmt.Sprint(r))
		}
	}()

	slog.Debug("fetching transcript", slog.String("video_id", videoID), slog.String("lang", lang))

	fetched, err := provider.Fetch(ctx, videoID)
	if err != nil {
		slog.Warn("transcript fetch failed", slog.String("video_id", videoID), slog.Any("error", err))
		return ErrorResult(err.Error())
	}
	if fetched == nil {
		return Result{Segments: []Segment{}}
	}

	segments := make([]Segment, 0, len(fetched.Snippets))
	for _, s := range fetched.Snippets {
		segments = append(segments, Segment{
			Text:     s.Text,
			Start:    s.Start,
			Duration: s.Duration,
		})
	}

	return Result{Segments: segments, Transcript: fetched}
}
