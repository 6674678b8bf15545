package analyze

import "testing"

func TestMediaType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"song.mp3", "audio/mpeg"},
		{"SONG.MP3", "audio/mpeg"},
		{"take.wav", "audio/wav"},
		{"dir/take.WAV", "audio/wav"},
		{"readme.txt", "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := MediaType(tt.path); got != tt.want {
				t.Fatalf("MediaType(%q) = %q; want %q", tt.path, got, tt.want)
			}
		})
	}
}
