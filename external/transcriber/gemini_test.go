package transcriber

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scribeflow/scribeflow/internal/transcriber"
)

func newTestTranscriber(endpoint string) transcriber.Transcriber {
	return NewGeminiTranscriber(GeminiConfig{
		APIKey:          "test-key",
		Model:           "gemini-2.5-flash",
		MaxPayloadBytes: 15 * 1024 * 1024,
		Endpoint:        endpoint,
	})
}

func successResponse(text string) string {
	quoted, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"parts":[{"text":` + string(quoted) + `}]}}]}`
}

func TestTranscribe_Success(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request failed: %v", err)
		}
		_, _ = w.Write([]byte(successResponse("Hello world.")))
	}))
	defer srv.Close()

	payload := []byte("fake audio bytes")
	text, err := newTestTranscriber(srv.URL).Transcribe(context.Background(), payload, "audio/mp3", nil)
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if text != "Hello world." {
		t.Fatalf("expected provider text verbatim, got %q", text)
	}
	if gotPath != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}

	if len(gotReq.Contents) != 1 || len(gotReq.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected request shape: %+v", gotReq)
	}
	inline := gotReq.Contents[0].Parts[0].InlineData
	if inline == nil || inline.MimeType != "audio/mp3" {
		t.Fatalf("expected inline data with declared media type, got %+v", inline)
	}
	decoded, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		t.Fatalf("inline data is not valid base64: %v", err)
	}
	if string(decoded) != string(payload) {
		t.Fatal("encoded payload does not round-trip to the original bytes")
	}
	instruction := gotReq.Contents[0].Parts[1].Text
	if !strings.Contains(instruction, "Transcribe the audio") {
		t.Fatalf("expected the fixed transcription instruction, got %q", instruction)
	}
}

func TestTranscribe_ProgressStages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(successResponse("ok")))
	}))
	defer srv.Close()

	var stages []string
	_, err := newTestTranscriber(srv.URL).Transcribe(context.Background(), []byte("a"), "audio/wav", func(stage string) {
		stages = append(stages, stage)
	})
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	want := []string{"encoding audio", "sending to provider", "processing response"}
	if len(stages) != len(want) {
		t.Fatalf("expected %d stages, got %v", len(want), stages)
	}
	for i, s := range want {
		if stages[i] != s {
			t.Fatalf("stage %d: expected %q, got %q", i, s, stages[i])
		}
	}
}

func TestTranscribe_UnsupportedMediaType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("provider must not be called for a rejected media type")
	}))
	defer srv.Close()

	_, err := newTestTranscriber(srv.URL).Transcribe(context.Background(), []byte("a"), "application/pdf", nil)
	if !errors.Is(err, transcriber.ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
}

func TestTranscribe_PayloadTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("provider must not be called for an oversize payload")
	}))
	defer srv.Close()

	tr := NewGeminiTranscriber(GeminiConfig{
		APIKey:          "k",
		Model:           "m",
		MaxPayloadBytes: 8,
		Endpoint:        srv.URL,
	})
	_, err := tr.Transcribe(context.Background(), []byte("123456789"), "audio/mp3", nil)
	if !errors.Is(err, transcriber.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestTranscribe_EmptyTranscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err := newTestTranscriber(srv.URL).Transcribe(context.Background(), []byte("a"), "audio/mp3", nil)
	if !errors.Is(err, transcriber.ErrEmptyTranscription) {
		t.Fatalf("expected ErrEmptyTranscription, got %v", err)
	}
}

func TestTranscribe_WhitespaceOnlyIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(successResponse("  \n  ")))
	}))
	defer srv.Close()

	_, err := newTestTranscriber(srv.URL).Transcribe(context.Background(), []byte("a"), "audio/mp3", nil)
	if !errors.Is(err, transcriber.ErrEmptyTranscription) {
		t.Fatalf("expected ErrEmptyTranscription for whitespace-only text, got %v", err)
	}
}

func TestTranscribe_ProviderFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestTranscriber(srv.URL).Transcribe(context.Background(), []byte("a"), "audio/mp3", nil)
	if !errors.Is(err, transcriber.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected provider detail in error, got %v", err)
	}
}

func TestTranscribe_Cancelled(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := newTestTranscriber(srv.URL).Transcribe(ctx, []byte("a"), "audio/mp3", nil)
	if !errors.Is(err, transcriber.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestTranscribe_DeadlineExpiryIsProviderFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestTranscriber(srv.URL).Transcribe(ctx, []byte("a"), "audio/mp3", nil)
	if !errors.Is(err, transcriber.ErrProvider) {
		t.Fatalf("expected a hung provider to surface as ErrProvider, got %v", err)
	}
	if errors.Is(err, transcriber.ErrCancelled) {
		t.Fatalf("deadline expiry must not be reported as a cancellation: %v", err)
	}
}

func TestMediaTypeAllowList(t *testing.T) {
	for _, mt := range transcriber.AllowedMediaTypes() {
		if !transcriber.MediaTypeAllowed(mt) {
			t.Fatalf("expected %s to be allowed", mt)
		}
	}
	for _, mt := range []string{"application/pdf", "text/plain", "audio/flac", ""} {
		if transcriber.MediaTypeAllowed(mt) {
			t.Fatalf("expected %s to be rejected", mt)
		}
	}
}
