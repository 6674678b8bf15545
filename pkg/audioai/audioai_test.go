package audioai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(&Config{
		Token:  "test-token",
		Host:   srv.URL + "/v1",
		Client: srv.Client(),
	})
}

func chatResponse(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
}

func TestAnalyze(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Errorf("missing bearer token in request")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatResponse(`{"bpm":128,"key":"A Minor","mood":"melancholic and soft","explanation":"Steady four on the floor around 128, tonal center on A with a minor third."}`))
	})

	got, err := client.Analyze(context.Background(), "data:audio/mpeg;base64,AAAA", "audio/mpeg")
	if err != nil {
		t.Fatalf("Analyze() err = %v; want nil", err)
	}
	if got.BPM != 128 {
		t.Fatalf("Analyze() BPM = %d; want 128", got.BPM)
	}
	if got.Key != "A Minor" {
		t.Fatalf("Analyze() Key = %q; want %q", got.Key, "A Minor")
	}
	if got.Mood == "" || got.Explanation == "" {
		t.Fatalf("Analyze() = %+v; want all fields populated", got)
	}
}

func TestAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			"empty body",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, chatResponse(""))
			},
		},
		{
			"no choices",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"choices":[]}`)
			},
		},
		{
			"missing field",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, chatResponse(`{"bpm":90,"key":"C Major","mood":""}`))
			},
		},
		{
			"zero bpm",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, chatResponse(`{"bpm":0,"key":"C Major","mood":"bright","explanation":"n/a"}`))
			},
		},
		{
			"not json",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, chatResponse("tempo is around 120"))
			},
		},
		{
			"server error",
			func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, tt.handler)
			_, err := client.Analyze(context.Background(), "data:audio/mpeg;base64,AAAA", "audio/mpeg")
			if !errors.Is(err, ErrRemoteAnalysis) {
				t.Fatalf("Analyze() err = %v; want %v", err, ErrRemoteAnalysis)
			}
		})
	}
}
