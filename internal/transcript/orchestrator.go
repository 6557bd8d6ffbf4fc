// Package transcript owns the transcription job lifecycle: the optimistic
// PROCESSING write, the single provider call, and the reconciliation to a
// terminal COMPLETED or FAILED record.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/scribeflow/scribeflow/internal/storage"
	"github.com/scribeflow/scribeflow/internal/transcriber"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("transcript not found")
)

type SubmitInput struct {
	UserID   string
	FileName string
	MimeType string
	Payload  []byte
}

type Orchestrator struct {
	store           storage.Store
	transcriber     transcriber.Transcriber
	maxPayloadBytes int64
}

func NewOrchestrator(store storage.Store, stt transcriber.Transcriber, maxPayloadBytes int64) *Orchestrator {
	return &Orchestrator{
		store:           store,
		transcriber:     stt,
		maxPayloadBytes: maxPayloadBytes,
	}
}

// Submit runs one transcription job to a terminal state. The PROCESSING
// record is persisted before the provider call so an in-flight job is always
// observable; on any provider outcome the record is reconciled to COMPLETED
// or FAILED before Submit returns. Provider failures are returned alongside
// the persisted FAILED record so the caller-visible error and the stored
// state agree.
func (o *Orchestrator) Submit(ctx context.Context, input SubmitInput, onProgress transcriber.ProgressFunc) (*Transcript, error) {
	if err := o.validateSubmit(ctx, input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &Transcript{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		FileName:  input.FileName,
		FileSize:  int64(len(input.Payload)),
		MimeType:  input.MimeType,
		Content:   "",
		Status:    StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.putTranscript(ctx, t); err != nil {
		return nil, err
	}
	slog.Info("transcription job started", "transcript_id", t.ID, "user_id", t.UserID, "mime_type", t.MimeType, "file_bytes", t.FileSize)

	text, err := o.transcriber.Transcribe(ctx, input.Payload, input.MimeType, onProgress)

	// The provider call may have consumed the caller's deadline or been
	// cancelled outright; the reconciliation write must still land, or the
	// record stays PROCESSING while the caller sees a failure.
	finalizeCtx := context.WithoutCancel(ctx)
	if err != nil {
		t.Status = StatusFailed
		t.Content = fmt.Sprintf("Error: %s", err)
		t.UpdatedAt = time.Now().UTC()
		if putErr := o.putTranscript(finalizeCtx, t); putErr != nil {
			// The one unrecoverable window: the record stays PROCESSING.
			slog.Error("failed to persist FAILED state", "error", putErr, "transcript_id", t.ID)
			return t, putErr
		}
		slog.Warn("transcription job failed", "transcript_id", t.ID, "error", err)
		return t, err
	}

	t.Status = StatusCompleted
	t.Content = text
	t.UpdatedAt = time.Now().UTC()
	if err := o.putTranscript(finalizeCtx, t); err != nil {
		slog.Error("failed to persist COMPLETED state", "error", err, "transcript_id", t.ID)
		return t, err
	}
	slog.Info("transcription job completed", "transcript_id", t.ID, "content_chars", len(text))
	return t, nil
}

func (o *Orchestrator) validateSubmit(ctx context.Context, input SubmitInput) error {
	if input.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	if !transcriber.MediaTypeAllowed(input.MimeType) {
		return fmt.Errorf("%w: media type %q is not allowed", ErrInvalidInput, input.MimeType)
	}
	if len(input.Payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}
	if o.maxPayloadBytes > 0 && int64(len(input.Payload)) > o.maxPayloadBytes {
		return fmt.Errorf("%w: payload of %d bytes exceeds limit of %d", ErrInvalidInput, len(input.Payload), o.maxPayloadBytes)
	}
	// The store enforces no cross-kind constraints; the owning user must
	// exist before a job is written against it.
	if _, err := o.store.Get(ctx, storage.KindUsers, input.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: unknown user %q", ErrInvalidInput, input.UserID)
		}
		return err
	}
	return nil
}

// Edit replaces the content of an existing transcript.
func (o *Orchestrator) Edit(ctx context.Context, id, content string) (*Transcript, error) {
	t, err := o.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Content = content
	t.UpdatedAt = time.Now().UTC()
	if err := o.putTranscript(ctx, t); err != nil {
		return nil, err
	}
	slog.Info("transcript edited", "transcript_id", id)
	return t, nil
}

// Remove deletes a transcript. Removing an absent id is a no-op.
func (o *Orchestrator) Remove(ctx context.Context, id string) error {
	if err := o.store.Delete(ctx, storage.KindTranscripts, id); err != nil {
		return err
	}
	slog.Info("transcript removed", "transcript_id", id)
	return nil
}

func (o *Orchestrator) Get(ctx context.Context, id string) (*Transcript, error) {
	doc, err := o.store.Get(ctx, storage.KindTranscripts, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var t Transcript
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, fmt.Errorf("decode transcript record: %w", err)
	}
	return &t, nil
}

// List returns one user's transcripts, newest first.
func (o *Orchestrator) List(ctx context.Context, userID string) ([]Transcript, error) {
	docs, err := o.store.List(ctx, storage.KindTranscripts)
	if err != nil {
		return nil, err
	}
	var out []Transcript
	for _, doc := range docs {
		var t Transcript
		if err := json.Unmarshal(doc, &t); err != nil {
			return nil, fmt.Errorf("decode transcript record: %w", err)
		}
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// StatsFor recomputes the dashboard projection from the stored transcripts
// on every call; nothing is cached.
func (o *Orchestrator) StatsFor(ctx context.Context, userID string) (*Stats, error) {
	list, err := o.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &Stats{Total: len(list)}
	var totalSeconds float64
	for _, t := range list {
		switch t.Status {
		case StatusCompleted:
			stats.Completed++
		case StatusPending, StatusProcessing:
			stats.Pending++
		}
		totalSeconds += t.Duration
	}
	stats.TotalHours = math.Round(totalSeconds/3600*10) / 10
	return stats, nil
}

func (o *Orchestrator) putTranscript(ctx context.Context, t *Transcript) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transcript record: %w", err)
	}
	return o.store.Put(ctx, storage.KindTranscripts, t.ID, doc)
}
