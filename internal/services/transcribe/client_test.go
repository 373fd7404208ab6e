package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"subburn/internal/services"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFFfake"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func verboseReply(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	resp := map[string]any{
		"language": "english",
		"segments": []map[string]any{
			{"start": 0.0, "end": 1.5, "text": " Hello there. "},
			{"start": 1.5, "end": 3.0, "text": "How are you?"},
			{"start": 3.0, "end": 3.2, "text": "   "},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Fatalf("encode reply: %v", err)
	}
}

func newTestClient(serverURL string, opts ...Option) *Client {
	cfg := Config{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "whisper-large-v3",
	}
	opts = append(opts, WithSleeper(func(time.Duration) {}))
	return NewClient(cfg, opts...)
}

func TestTranscribe(t *testing.T) {
	var gotModel, gotFormat, gotLanguage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		gotLanguage = r.FormValue("language")
		if _, header, err := r.FormFile("file"); err != nil || header.Filename != "audio.wav" {
			t.Fatalf("form file: %v (%+v)", err, header)
		}
		verboseReply(t, w)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	got, err := client.Transcribe(context.Background(), writeAudio(t), "en")
	if err != nil {
		t.Fatalf("Transcribe() = %v", err)
	}
	if gotModel != "whisper-large-v3" || gotFormat != "verbose_json" || gotLanguage != "en" {
		t.Fatalf("form fields: model=%q format=%q language=%q", gotModel, gotFormat, gotLanguage)
	}
	if got.DetectedLanguage != "english" {
		t.Fatalf("detected language = %q", got.DetectedLanguage)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("kept %d segments, want 2 (blank dropped)", len(got.Segments))
	}
	if got.Segments[0].Text != "Hello there." {
		t.Fatalf("segment text = %q", got.Segments[0].Text)
	}
}

func TestTranscribeOmitsEmptyLanguageHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, ok := r.MultipartForm.Value["language"]; ok {
			t.Fatal("language field sent despite empty hint")
		}
		verboseReply(t, w)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Transcribe(context.Background(), writeAudio(t), ""); err != nil {
		t.Fatalf("Transcribe() = %v", err)
	}
}

func TestTranscribeRetriesOnServerError(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		verboseReply(t, w)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Transcribe(context.Background(), writeAudio(t), ""); err != nil {
		t.Fatalf("Transcribe() = %v", err)
	}
	if requests.Load() != 2 {
		t.Fatalf("made %d requests, want 2", requests.Load())
	}
}

func TestTranscribeCredentialsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Transcribe(context.Background(), writeAudio(t), "")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("Transcribe() = %v, want configuration error", err)
	}
}

func TestTranscribeMissingAudio(t *testing.T) {
	client := newTestClient("http://example.invalid")
	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Transcribe() = %v, want validation error", err)
	}
}

func TestTranscribeEmptySegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"language":"en","segments":[]}`)); err != nil {
			t.Fatalf("write reply: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithRetryMaxAttempts(1))
	if _, err := client.Transcribe(context.Background(), writeAudio(t), ""); err == nil {
		t.Fatal("Transcribe() accepted empty segment list")
	}
}
