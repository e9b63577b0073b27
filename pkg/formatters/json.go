package formatters

import (
	"bytes"
	"encoding/json"

	"github.com/horiagug/youtube-transcript-fetch/pkg/models"
)

// JSONFormatterOption is specifically for JSON formatter options
type JSONFormatterOption func(*JSONFormatter)

type JSONFormatter struct {
	BaseFormatter
	PrettyPrint bool
}

type jsonSnippet struct {
	Text     string   `json:"text"`
	Start    *float64 `json:"start,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

func NewJSONFormatter(baseOptions ...FormatterOption) *JSONFormatter {
	f := &JSONFormatter{
		BaseFormatter: BaseFormatter{
			IncludeTimestamps: true,
		},
		PrettyPrint: false,
	}

	for _, opt := range baseOptions {
		opt(&f.BaseFormatter)
	}
	return f
}

// WithPrettyPrint returns a function that sets the PrettyPrint option
func WithPrettyPrint(pretty bool) JSONFormatterOption {
	return func(f *JSONFormatter) {
		f.PrettyPrint = pretty
	}
}

// Configure allows applying JSON-specific options after creation
func (f *JSONFormatter) Configure(options ...JSONFormatterOption) {
	for _, opt := range options {
		opt(f)
	}
}

// Format renders the snippets as a JSON array. Compact output is a single line.
func (f *JSONFormatter) Format(transcript models.FetchedTranscript) (string, error) {
	out := make([]jsonSnippet, len(transcript.Snippets))
	for i, s := range transcript.Snippets {
		out[i] = jsonSnippet{Text: s.Text}
		if f.IncludeTimestamps {
			start, duration := s.Start, s.Duration
			out[i].Start = &start
			out[i].Duration = &duration
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if f.PrettyPrint {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return "", err
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
