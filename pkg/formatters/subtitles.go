package formatters

import (
	"fmt"
	"math"
	"strings"

	"github.com/horiagug/youtube-transcript-fetch/pkg/models"
)

// SRTFormatter renders SubRip subtitles.
type SRTFormatter struct{}

func NewSRTFormatter() *SRTFormatter {
	return &SRTFormatter{}
}

func (f *SRTFormatter) Format(transcript models.FetchedTranscript) (string, error) {
	return formatCues(transcript.Snippets, ",", true), nil
}

// WebVTTFormatter renders WebVTT subtitles.
type WebVTTFormatter struct{}

func NewWebVTTFormatter() *WebVTTFormatter {
	return &WebVTTFormatter{}
}

func (f *WebVTTFormatter) Format(transcript models.FetchedTranscript) (string, error) {
	return "WEBVTT\n\n" + formatCues(transcript.Snippets, ".", false), nil
}

// formatCues writes one cue per snippet. A cue ends when the next one starts,
// or at start+duration if that comes first.
func formatCues(snippets []models.Snippet, msSep string, numbered bool) string {
	var sb strings.Builder
	for i, s := range snippets {
		end := s.Start + s.Duration
		if i < len(snippets)-1 && snippets[i+1].Start < end {
			end = snippets[i+1].Start
		}
		if numbered {
			fmt.Fprintf(&sb, "%d\n", i+1)
		}
		fmt.Fprintf(&sb, "%s --> %s\n%s\n",
			formatTimestamp(s.Start, msSep, true),
			formatTimestamp(end, msSep, true),
			s.Text)
		if i < len(snippets)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// formatTimestamp renders seconds as HH:MM:SS<sep>mmm, dropping the hours when
// they are zero and alwaysHours is false.
func formatTimestamp(seconds float64, msSep string, alwaysHours bool) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	ms := total % 1000
	secs := (total / 1000) % 60
	mins := (total / 60000) % 60
	hours := total / 3600000

	if hours == 0 && !alwaysHours {
		return fmt.Sprintf("%02d:%02d%s%03d", mins, secs, msSep, ms)
	}
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, mins, secs, msSep, ms)
}
