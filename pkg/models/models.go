package models

// LanguageName is the display name YouTube attaches to a caption track.
type LanguageName struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs,omitempty"`
}

// String returns the simple text, falling back to the joined runs.
func (n LanguageName) String() string {
	if n.SimpleText != "" {
		return n.SimpleText
	}
	var s string
	for _, r := range n.Runs {
		s += r.Text
	}
	return s
}

type CaptionTrack struct {
	BaseUrl        string       `json:"baseUrl"`
	Name           LanguageName `json:"name"`
	LanguageCode   string       `json:"languageCode"`
	Kind           *string      `json:"kind,omitempty"`
	IsTranslatable bool         `json:"isTranslatable"`
}

// IsGenerated reports whether the track was produced by speech recognition.
func (c CaptionTrack) IsGenerated() bool {
	return c.Kind != nil && *c.Kind == "asr"
}

type TranscriptData struct {
	CaptionTracks []CaptionTrack `json:"captionTracks"`
}

type VideoDetails struct {
	PlayerCaptionsTracklistRenderer *TranscriptData `json:"playerCaptionsTracklistRenderer"`
}

// TranscriptInfo describes one transcript available for a video.
type TranscriptInfo struct {
	VideoID        string `json:"video_id"`
	Language       string `json:"language"`
	LanguageCode   string `json:"language_code"`
	IsGenerated    bool   `json:"is_generated"`
	IsTranslatable bool   `json:"is_translatable"`
	BaseUrl        string `json:"-"`
}

// Snippet is one caption unit. Start and Duration are in seconds.
type Snippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type FetchedTranscript struct {
	VideoID      string    `json:"video_id"`
	VideoTitle   string    `json:"video_title,omitempty"`
	Language     string    `json:"language"`
	LanguageCode string    `json:"language_code"`
	IsGenerated  bool      `json:"is_generated"`
	Snippets     []Snippet `json:"snippets"`
}
