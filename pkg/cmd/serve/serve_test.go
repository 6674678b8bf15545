package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/sjokstudio/sjok-2025/pkg/assetstore"
	"github.com/sjokstudio/sjok-2025/pkg/audioai"
	"github.com/sjokstudio/sjok-2025/pkg/session"
)

type fakeAnalyzer struct {
	result *audioai.Analysis
	err    error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, payload, mediaType string) (*audioai.Analysis, error) {
	return f.result, f.err
}

func newTestSession(t *testing.T, analyzer session.Analyzer) *session.Session {
	t.Helper()
	store, err := assetstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("assetstore.New() err = %v; want nil", err)
	}
	sess, err := session.New(&session.Config{Analyzer: analyzer, Store: store})
	if err != nil {
		t.Fatalf("session.New() err = %v; want nil", err)
	}
	t.Cleanup(sess.Close)
	return sess
}

func multipartUpload(t *testing.T, name, mediaType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", mediaType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart() err = %v; want nil", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write() err = %v; want nil", err)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestUploadAndPoll(t *testing.T) {
	sess := newTestSession(t, &fakeAnalyzer{
		result: &audioai.Analysis{BPM: 128, Key: "A Minor", Mood: "melancholic", Explanation: "minor key, steady beat"},
	})

	body, contentType := multipartUpload(t, "song.mp3", "audio/mpeg", []byte("mp3 bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handleUpload(context.Background(), sess)(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload status = %d; want %d", rec.Code, http.StatusAccepted)
	}

	// Poll until the analysis lands.
	deadline := time.Now().Add(2 * time.Second)
	var snap session.Snapshot
	for {
		rec := httptest.NewRecorder()
		handleSnapshot(sess)(rec, httptest.NewRequest(http.MethodGet, "/api/analysis", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("poll status = %d; want %d", rec.Code, http.StatusOK)
		}
		if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
			t.Fatalf("Decode() err = %v; want nil", err)
		}
		if snap.State == session.Completed || snap.State == session.Errored {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("state = %s; analysis never finished", snap.State)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if snap.State != session.Completed {
		t.Fatalf("state = %s; want %s", snap.State, session.Completed)
	}
	if snap.Result == nil || snap.Result.BPM != 128 || snap.Result.Key != "A Minor" {
		t.Fatalf("result = %+v; want bpm 128, key A Minor", snap.Result)
	}
}

func TestUploadRejected(t *testing.T) {
	sess := newTestSession(t, &fakeAnalyzer{})

	body, contentType := multipartUpload(t, "movie.mp4", "video/mp4", []byte("not audio"))
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handleUpload(context.Background(), sess)(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("upload status = %d; want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	var snap session.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("Decode() err = %v; want nil", err)
	}
	if snap.State != session.Errored || snap.Error == "" {
		t.Fatalf("snapshot = %+v; want errored with message", snap)
	}
}

func TestUploadMissingFile(t *testing.T) {
	sess := newTestSession(t, &fakeAnalyzer{})
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handleUpload(context.Background(), sess)(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("upload status = %d; want %d", rec.Code, http.StatusBadRequest)
	}
}
