package errors

import "fmt"

type TranscriptError string

func (e TranscriptError) Error() string {
	return string(e)
}

const (
	ErrNoTranscriptFound           = TranscriptError("no transcript found")
	ErrInvalidVideoID              = TranscriptError("invalid video ID")
	ErrTooManyRequests             = TranscriptError("too many requests")
	ErrRequestBlocked              = TranscriptError("request blocked by YouTube")
	ErrVideoUnavailable            = TranscriptError("video is no longer available")
	ErrVideoUnplayable             = TranscriptError("video is unplayable")
	ErrAgeRestricted               = TranscriptError("video is age restricted")
	ErrTranscriptsDisabled         = TranscriptError("subtitles are disabled for this video")
	ErrPoTokenRequired             = TranscriptError("transcript requires a PO token")
	ErrDataUnparsable              = TranscriptError("video page data could not be parsed")
	ErrFailedToCreateConsentCookie = TranscriptError("failed to automatically give consent to saving cookies")
)

const watchURL = "https://www.youtube.com/watch?v="

// VideoError ties a retrieval failure to the video it happened for.
type VideoError struct {
	VideoID string
	Cause   error
}

func NewVideoError(videoID string, cause error) *VideoError {
	return &VideoError{VideoID: videoID, Cause: cause}
}

func (e *VideoError) Error() string {
	return fmt.Sprintf("could not retrieve a transcript for the video %s%s: %v", watchURL, e.VideoID, e.Cause)
}

func (e *VideoError) Unwrap() error {
	return e.Cause
}
