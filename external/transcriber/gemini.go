package transcriber

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/scribeflow/scribeflow/internal/transcriber"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com"

const transcriptionInstruction = "You are a professional transcriptionist. " +
	"Transcribe the audio in the provided file exactly as spoken. " +
	"Do not add any commentary, timestamps, or speaker labels unless they are very clear. " +
	"Format the output as clean paragraphs."

type GeminiConfig struct {
	APIKey          string
	Model           string
	MaxPayloadBytes int64
	// Endpoint overrides the Gemini API base URL. Empty selects production.
	Endpoint string
}

type GeminiTranscriber struct {
	apiKey          string
	model           string
	maxPayloadBytes int64
	endpoint        string
	client          *http.Client
}

func NewGeminiTranscriber(cfg GeminiConfig) transcriber.Transcriber {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &GeminiTranscriber{
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		maxPayloadBytes: cfg.MaxPayloadBytes,
		endpoint:        endpoint,
		client:          &http.Client{},
	}
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (t *GeminiTranscriber) Transcribe(ctx context.Context, payload []byte, mimeType string, onProgress transcriber.ProgressFunc) (string, error) {
	if onProgress == nil {
		onProgress = func(string) {}
	}
	// Callers validate before invoking; re-check here so a misrouted payload
	// never reaches the provider.
	if !transcriber.MediaTypeAllowed(mimeType) {
		return "", fmt.Errorf("%w: %s", transcriber.ErrUnsupportedMediaType, mimeType)
	}
	if t.maxPayloadBytes > 0 && int64(len(payload)) > t.maxPayloadBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d", transcriber.ErrPayloadTooLarge, len(payload), t.maxPayloadBytes)
	}

	onProgress("encoding audio")
	encoded := base64.StdEncoding.EncodeToString(payload)

	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeType, Data: encoded}},
				{Text: transcriptionInstruction},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("encode provider request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", t.endpoint, t.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", t.apiKey)

	onProgress("sending to provider")
	slog.Info("sending transcription request", "model", t.model, "mime_type", mimeType, "payload_bytes", len(payload))
	resp, err := t.client.Do(req)
	if err != nil {
		// A caller abandoning the exchange is a cancellation; a deadline
		// running out is the provider hanging, which is a provider fault.
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", fmt.Errorf("%w: %v", transcriber.ErrCancelled, ctx.Err())
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", transcriber.ErrProvider, ctx.Err())
		}
		return "", fmt.Errorf("%w: %v", transcriber.ErrProvider, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	onProgress("processing response")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readErrorDetail(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", transcriber.ErrProvider, resp.StatusCode, detail)
	}

	var decoded generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", transcriber.ErrProvider, err)
	}

	var sb strings.Builder
	if len(decoded.Candidates) > 0 {
		for _, p := range decoded.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", transcriber.ErrEmptyTranscription
	}
	return text, nil
}

func readErrorDetail(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil || len(b) == 0 {
		return "no error detail"
	}
	return string(bytes.TrimSpace(b))
}
