package encode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		size      int64
		mediaType string
		want      error
	}{
		{"small mp3", 3 << 20, "audio/mpeg", nil},
		{"exact limit", 10 << 20, "audio/wav", nil},
		{"over limit", 12 << 20, "audio/wav", ErrSizeExceeded},
		{"one byte over", 10<<20 + 1, "audio/mpeg", ErrSizeExceeded},
		{"video", 1 << 20, "video/mp4", ErrUnsupportedType},
		{"text", 10, "text/plain", ErrUnsupportedType},
		{"empty type", 10, "", ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.size, tt.mediaType)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate(%d, %q) = %v; want %v", tt.size, tt.mediaType, err, tt.want)
			}
		})
	}
}

func TestPayload(t *testing.T) {
	data := "not really audio"
	got, err := Payload(int64(len(data)), "audio/mpeg", strings.NewReader(data))
	if err != nil {
		t.Fatalf("Payload() err = %v; want nil", err)
	}
	want := fmt.Sprintf("data:audio/mpeg;base64,%s", base64.StdEncoding.EncodeToString([]byte(data)))
	if got != want {
		t.Fatalf("Payload() = %q; want %q", got, want)
	}

	// Deterministic for identical input
	again, err := Payload(int64(len(data)), "audio/mpeg", strings.NewReader(data))
	if err != nil {
		t.Fatalf("Payload() err = %v; want nil", err)
	}
	if again != got {
		t.Fatalf("Payload() second call = %q; want %q", again, got)
	}
}

// failReader fails on any read, so a rejected file must never reach it.
type failReader struct{ t *testing.T }

func (r *failReader) Read([]byte) (int, error) {
	r.t.Fatal("Read() called for a rejected file")
	return 0, nil
}

func TestPayloadValidatesBeforeRead(t *testing.T) {
	if _, err := Payload(20<<20, "audio/mpeg", &failReader{t}); !errors.Is(err, ErrSizeExceeded) {
		t.Fatalf("Payload() err = %v; want %v", err, ErrSizeExceeded)
	}
	if _, err := Payload(10, "application/pdf", &failReader{t}); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("Payload() err = %v; want %v", err, ErrUnsupportedType)
	}
}
