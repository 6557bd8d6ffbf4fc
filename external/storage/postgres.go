package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scribeflow/scribeflow/internal/storage"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) storage.Store {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) List(ctx context.Context, kind storage.Kind) ([][]byte, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT doc FROM records WHERE kind = $1 ORDER BY created_at ASC`,
		string(kind))
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer rows.Close()
	var docs [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, unavailable("list scan", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list rows", err)
	}
	return docs, nil
}

func (s *PostgresStore) Get(ctx context.Context, kind storage.Kind, id string) ([]byte, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT doc FROM records WHERE kind = $1 AND id = $2`,
		string(kind), id)
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if err == pgx.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, unavailable("get", err)
	}
	return doc, nil
}

func (s *PostgresStore) Put(ctx context.Context, kind storage.Kind, id string, doc []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO records (kind, id, doc)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (kind, id) DO UPDATE SET doc = EXCLUDED.doc`,
		string(kind), id, doc)
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, kind storage.Kind, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM records WHERE kind = $1 AND id = $2`,
		string(kind), id)
	if err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
}
