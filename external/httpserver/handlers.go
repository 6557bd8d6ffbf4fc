package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/scribeflow/scribeflow/internal/identity"
	"github.com/scribeflow/scribeflow/internal/storage"
	"github.com/scribeflow/scribeflow/internal/transcriber"
	"github.com/scribeflow/scribeflow/internal/transcript"
)

// statusClientClosedRequest mirrors the nginx convention for a client that
// went away mid-request.
const statusClientClosedRequest = 499

type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	label := "Internal server error"
	switch {
	case errors.Is(err, transcript.ErrInvalidInput),
		errors.Is(err, transcriber.ErrUnsupportedMediaType):
		status, label = http.StatusBadRequest, "Bad request"
	case errors.Is(err, transcriber.ErrPayloadTooLarge):
		status, label = http.StatusRequestEntityTooLarge, "Request entity too large"
	case errors.Is(err, identity.ErrDuplicateEmail):
		status, label = http.StatusConflict, "Conflict"
	case errors.Is(err, identity.ErrUserNotFound),
		errors.Is(err, transcript.ErrNotFound):
		status, label = http.StatusNotFound, "Not found"
	case errors.Is(err, identity.ErrNoActiveSession):
		status, label = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, transcriber.ErrEmptyTranscription),
		errors.Is(err, transcriber.ErrProvider):
		status, label = http.StatusBadGateway, "External API error"
	case errors.Is(err, transcriber.ErrCancelled):
		status, label = statusClientClosedRequest, "Client closed request"
	case errors.Is(err, storage.ErrUnavailable):
		status, label = http.StatusServiceUnavailable, "Storage unavailable"
	}
	if status >= 500 {
		slog.Error("request failed", "error", err, "status", status)
	}
	writeJSON(w, status, errorResponse{Error: label, Message: err.Error(), Timestamp: time.Now().UTC()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     "Bad request",
			Message:   "request body is not valid JSON",
			Timestamp: time.Now().UTC(),
		})
		return false
	}
	return true
}

// currentUser resolves the session or writes a 401.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) *identity.User {
	user, err := s.identity.ResolveSession(r.Context())
	if err != nil {
		writeError(w, err)
		return nil
	}
	if user == nil {
		writeError(w, identity.ErrNoActiveSession)
		return nil
	}
	return user
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC(),
		"environment": s.cfg.Env,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, err := s.identity.Register(r.Context(), body.Name, body.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, err := s.identity.Login(r.Context(), body.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.identity.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      *string `json:"name"`
		AvatarURL *string `json:"avatarUrl"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, err := s.identity.UpdateProfile(r.Context(), identity.ProfilePatch{
		Name:      body.Name,
		AvatarURL: body.AvatarURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	var body struct {
		FileName   string `json:"fileName"`
		Base64Data string `json:"base64Data"`
		MimeType   string `json:"mimeType"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	payload, err := base64.StdEncoding.DecodeString(body.Base64Data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     "Bad request",
			Message:   "base64Data is not valid base64",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	// A hung provider call would otherwise leave the job PROCESSING forever.
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ProviderTimeout)
	defer cancel()

	result, err := s.jobs.Submit(ctx, transcript.SubmitInput{
		UserID:   user.ID,
		FileName: body.FileName,
		MimeType: body.MimeType,
		Payload:  payload,
	}, func(stage string) {
		slog.Info("transcription progress", "user_id", user.ID, "stage", stage)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	list, err := s.jobs.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []transcript.Transcript{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	if s.currentUser(w, r) == nil {
		return
	}
	t, err := s.jobs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleEditTranscript(w http.ResponseWriter, r *http.Request) {
	if s.currentUser(w, r) == nil {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	t, err := s.jobs.Edit(r.Context(), r.PathValue("id"), body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTranscript(w http.ResponseWriter, r *http.Request) {
	if s.currentUser(w, r) == nil {
		return
	}
	if err := s.jobs.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	stats, err := s.jobs.StatsFor(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
