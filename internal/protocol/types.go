package protocol

import "errors"

// Limits constrains codec memory use.
type Limits struct {
	MaxMessageBytes int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxMessageBytes: 8 * 1024 * 1024,
	}
}

var (
	// ErrMessageTooLarge is returned when a line exceeds Limits.MaxMessageBytes.
	ErrMessageTooLarge = errors.New("protocol: message too large")
	// ErrMalformedMessage is returned for a line that is not valid JSON.
	ErrMalformedMessage = errors.New("protocol: malformed message")
	// ErrEmptyMessage is returned for a blank line.
	ErrEmptyMessage = errors.New("protocol: empty message")
)
