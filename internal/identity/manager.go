// Package identity creates and authenticates users and owns the session
// pointer. The session token is the raw user id: a placeholder scheme, kept
// on purpose. All of the backend resolves the current user through this
// package, so a real credential scheme can replace it without touching the
// transcription flow.
//
// Email uniqueness is enforced read-then-write. The store only guarantees
// atomicity per single record, so two concurrent registrations of the same
// email can both pass the duplicate check; a single interactive caller per
// deployment is assumed.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/scribeflow/scribeflow/internal/storage"
)

var (
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrUserNotFound    = errors.New("user not found")
	ErrNoActiveSession = errors.New("no active session")
)

// The session pointer is a single record of kind "session" under a fixed id.
const sessionRecordID = "current"

type sessionRecord struct {
	Token string `json:"token"`
}

type Manager struct {
	store storage.Store
}

func NewManager(store storage.Store) *Manager {
	return &Manager{store: store}
}

// Register creates a new user and establishes a session bound to it.
// Email matching is case-sensitive against the stored value.
func (m *Manager) Register(ctx context.Context, name, email string) (*User, error) {
	existing, err := m.findUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	user := &User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      RoleUser,
		AvatarURL: placeholderAvatarURL(name),
		CreatedAt: time.Now().UTC(),
	}
	if err := m.putUser(ctx, user); err != nil {
		return nil, err
	}
	if err := m.setSession(ctx, user.ID); err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login establishes a session for an existing user. No secret is verified;
// credential checking is out of scope for this system.
func (m *Manager) Login(ctx context.Context, email string) (*User, error) {
	user, err := m.findUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := m.setSession(ctx, user.ID); err != nil {
		return nil, err
	}
	slog.Info("user logged in", "user_id", user.ID)
	return user, nil
}

// ResolveSession returns the user the session token points at, or nil when
// no session is active. A token pointing at a deleted user clears the
// session rather than returning a stale identity.
func (m *Manager) ResolveSession(ctx context.Context) (*User, error) {
	doc, err := m.store.Get(ctx, storage.KindSession, sessionRecordID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}

	userDoc, err := m.store.Get(ctx, storage.KindUsers, rec.Token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.Warn("session token points at a missing user; clearing session", "user_id", rec.Token)
			if err := m.store.Delete(ctx, storage.KindSession, sessionRecordID); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, err
	}
	var user User
	if err := json.Unmarshal(userDoc, &user); err != nil {
		return nil, fmt.Errorf("decode user record: %w", err)
	}
	return &user, nil
}

// UpdateProfile merges patch fields into the current user and persists the
// result. Fails when no session is active.
func (m *Manager) UpdateProfile(ctx context.Context, patch ProfilePatch) (*User, error) {
	user, err := m.ResolveSession(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoActiveSession
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = *patch.AvatarURL
	}
	if err := m.putUser(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("profile updated", "user_id", user.ID)
	return user, nil
}

// Logout clears the session. Calling it with no active session is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	return m.store.Delete(ctx, storage.KindSession, sessionRecordID)
}

func (m *Manager) findUserByEmail(ctx context.Context, email string) (*User, error) {
	docs, err := m.store.List(ctx, storage.KindUsers)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		var user User
		if err := json.Unmarshal(doc, &user); err != nil {
			return nil, fmt.Errorf("decode user record: %w", err)
		}
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, nil
}

func (m *Manager) putUser(ctx context.Context, user *User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user record: %w", err)
	}
	return m.store.Put(ctx, storage.KindUsers, user.ID, doc)
}

func (m *Manager) setSession(ctx context.Context, userID string) error {
	doc, err := json.Marshal(sessionRecord{Token: userID})
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	return m.store.Put(ctx, storage.KindSession, sessionRecordID, doc)
}

func placeholderAvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
}
