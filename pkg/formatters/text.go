package formatters

import (
	"fmt"
	"strings"

	"github.com/horiagug/youtube-transcript-fetch/pkg/models"
)

type TextFormatter struct {
	BaseFormatter
}

func NewTextFormatter(options ...FormatterOption) *TextFormatter {
	f := &TextFormatter{
		BaseFormatter: BaseFormatter{
			IncludeTimestamps: false,
		},
	}

	for _, opt := range options {
		opt(&f.BaseFormatter)
	}

	return f
}

// Format writes one snippet per line, optionally prefixed with its start time.
func (t *TextFormatter) Format(transcript models.FetchedTranscript) (string, error) {
	var text strings.Builder

	for i, snippet := range transcript.Snippets {
		if i > 0 {
			text.WriteByte('\n')
		}
		if t.IncludeTimestamps {
			fmt.Fprintf(&text, "[%s] ", formatTimestamp(snippet.Start, ".", false))
		}
		text.WriteString(snippet.Text)
	}

	return text.String(), nil
}
