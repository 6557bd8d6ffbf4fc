// Package storage defines the kind-addressed record store the rest of the
// backend persists through. Records are opaque JSON documents keyed by an
// id within a kind; the store guarantees atomicity per single record and
// nothing across records.
package storage

import (
	"context"
	"errors"
)

type Kind string

const (
	KindUsers       Kind = "users"
	KindTranscripts Kind = "transcripts"
	KindSession     Kind = "session"
)

var (
	// ErrNotFound reports a requested record that does not exist. This is a
	// valid outcome, distinct from the store being unreachable.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable reports that the underlying medium could not be read or
	// written. Callers treat it as fatal to the current operation.
	ErrUnavailable = errors.New("storage unavailable")
)

type Store interface {
	List(ctx context.Context, kind Kind) ([][]byte, error)
	Get(ctx context.Context, kind Kind, id string) ([]byte, error)
	Put(ctx context.Context, kind Kind, id string, doc []byte) error
	Delete(ctx context.Context, kind Kind, id string) error
}
