package repository

import (
	"encoding/xml"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/horiagug/youtube-transcript-fetch/pkg/models"
)

// TranscriptParser turns timedtext XML into snippets.
type TranscriptParser struct {
	preserveFormatting bool
}

// Formatting tags to preserve
var formattingTags = []string{
	"strong", "em", "b", "i", "mark", "small", "del", "ins", "sub", "sup",
}

var (
	htmlRegex        = regexp.MustCompile(`(?i)<[^>]*>`)
	formatTagMatcher = regexp.MustCompile(`(?i)^</?(?:` + strings.Join(formattingTags, "|") + `)\b`)
)

// NewTranscriptParser strips all markup, or everything but formatting tags when preserveFormatting is set.
func NewTranscriptParser(preserveFormatting bool) *TranscriptParser {
	return &TranscriptParser{preserveFormatting: preserveFormatting}
}

func (p *TranscriptParser) clean(text string) string {
	if !p.preserveFormatting {
		return htmlRegex.ReplaceAllString(text, "")
	}
	return htmlRegex.ReplaceAllStringFunc(text, func(tag string) string {
		if formatTagMatcher.MatchString(tag) {
			return tag
		}
		return ""
	})
}

type xmlTranscript struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Text     string `xml:",chardata"`
		Start    string `xml:"start,attr"`
		Duration string `xml:"dur,attr"`
	} `xml:"text"`
}

// Parse extracts text, start time and duration from timedtext XML, in document order.
func (p *TranscriptParser) Parse(plainData string) ([]models.Snippet, error) {
	var parsed xmlTranscript
	if err := xml.Unmarshal([]byte(plainData), &parsed); err != nil {
		return nil, err
	}

	results := make([]models.Snippet, 0, len(parsed.Texts))
	for _, entry := range parsed.Texts {
		// chardata is already entity-decoded once; captions are often double-escaped
		text := html.UnescapeString(entry.Text)
		text = p.clean(text)

		results = append(results, models.Snippet{
			Text:     text,
			Start:    parseSeconds(entry.Start),
			Duration: parseSeconds(entry.Duration),
		})
	}
	return results, nil
}

// parseSeconds reads a timing attribute; unparsable or non-finite values are 0.
func parseSeconds(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
