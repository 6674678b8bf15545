package encode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxSize is the largest file accepted for analysis.
const MaxSize = 10 << 20

var (
	// ErrSizeExceeded is returned when the declared file size is above MaxSize.
	ErrSizeExceeded = errors.New("encode: file exceeds 10 MiB limit")
	// ErrUnsupportedType is returned when the declared media type is not audio.
	ErrUnsupportedType = errors.New("encode: file is not an audio type")
)

// Validate checks the declared size and media type of a file without reading
// any of its bytes. It is called before an upload enters the encode step.
func Validate(size int64, mediaType string) error {
	if size > MaxSize {
		return ErrSizeExceeded
	}
	if !strings.HasPrefix(mediaType, "audio/") {
		return ErrUnsupportedType
	}
	return nil
}

// Payload converts a file into a transport-safe data URI payload for the
// remote analyzer. The declared size and media type are validated before the
// reader is consumed, so a rejected file is never read.
func Payload(size int64, mediaType string, r io.Reader) (string, error) {
	if err := Validate(size, mediaType); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("data:")
	sb.WriteString(mediaType)
	sb.WriteString(";base64,")
	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	if _, err := io.Copy(enc, r); err != nil {
		return "", fmt.Errorf("encode: couldn't read file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode: couldn't encode file: %w", err)
	}
	return sb.String(), nil
}
