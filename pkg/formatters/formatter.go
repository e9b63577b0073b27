package formatters

import (
	"fmt"
	"strings"

	"github.com/horiagug/youtube-transcript-fetch/pkg/models"
)

// Formatter defines the interface for transcript formatters
type Formatter interface {
	// Format converts a fetched transcript into a specific format
	Format(transcript models.FetchedTranscript) (string, error)
}

// BaseFormatter contains common formatting utilities
type BaseFormatter struct {
	IncludeTimestamps bool
}

// FormatterOption is a function type for formatter configuration
type FormatterOption func(f *BaseFormatter)

// WithTimestamps configures whether timestamps should be included
func WithTimestamps(include bool) FormatterOption {
	return func(f *BaseFormatter) {
		f.IncludeTimestamps = include
	}
}

// ByName returns the formatter registered under name: json, text, srt or webvtt.
func ByName(name string, options ...FormatterOption) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return NewJSONFormatter(options...), nil
	case "text", "txt":
		return NewTextFormatter(options...), nil
	case "srt":
		return NewSRTFormatter(), nil
	case "webvtt", "vtt":
		return NewWebVTTFormatter(), nil
	}
	return nil, fmt.Errorf("unknown formatter %q", name)
}
