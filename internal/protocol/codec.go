// Package protocol is the JSON-lines wire codec for stream channels.
//
// Each message is one JSON value terminated by a newline. A JSON array is the
// sequence shape ([topic, arg0, ...]); any other JSON value is a bare payload.
package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// EncodeMessage serializes payload as a single JSON line and writes it to w.
// Returns an error if marshaling or writing fails.
func EncodeMessage(w io.Writer, payload any, limits Limits) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if limits.MaxMessageBytes > 0 && len(data) > limits.MaxMessageBytes {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(data))
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Decoder reads JSON-lines messages from a stream.
type Decoder struct {
	r      *bufio.Reader
	limits Limits
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader, limits Limits) *Decoder {
	return &Decoder{
		r:      bufio.NewReader(r),
		limits: limits,
	}
}

// Decode reads the next message. JSON arrays decode to []any, objects to
// map[string]any and numbers to float64. It returns io.EOF at a clean end of
// stream.
func (d *Decoder) Decode() (any, error) {
	line, err := d.readLine()
	if err != nil {
		return nil, err
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, ErrEmptyMessage
	}

	var payload any
	if err := json.Unmarshal(line, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w: %w", ErrMalformedMessage, err)
	}
	return payload, nil
}

func (d *Decoder) readLine() ([]byte, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := d.r.ReadLine()
		if err != nil {
			if err == io.EOF && len(buf) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		buf = append(buf, chunk...)
		if d.limits.MaxMessageBytes > 0 && len(buf) > d.limits.MaxMessageBytes {
			return nil, fmt.Errorf("%w: over %d bytes", ErrMessageTooLarge, d.limits.MaxMessageBytes)
		}
		if !isPrefix {
			return buf, nil
		}
	}
}
