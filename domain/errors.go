package domain

import "errors"

// Error kinds reported by the coordinator's collaborators. Adapters wrap these
// with fmt.Errorf("...: %w") and callers classify with errors.Is.
var (
	ErrNetworkFailure        = errors.New("network failure")
	ErrMalformedResponse     = errors.New("malformed response")
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrRecognitionFailure    = errors.New("recognition failure")
	ErrClipboardFailure      = errors.New("clipboard failure")
	ErrEmptyText             = errors.New("text is empty")
	ErrPlaybackFailure       = errors.New("playback failure")
)

// ErrUtteranceEnded is returned by a recognition session that no longer takes
// audio because the recognizer closed the utterance itself. The transcript is
// still collected with End.
var ErrUtteranceEnded = errors.New("utterance ended by recognizer")
