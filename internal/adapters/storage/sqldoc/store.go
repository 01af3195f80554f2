// Package sqldoc persiste registros de cualquier recurso como documentos JSON
// en una tabla compartida. Sirve tanto para Postgres como para SQLite.
package sqldoc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"procurement-hub/internal/resource"
)

// Dialect cubre las diferencias entre motores que nos importan.
type Dialect struct {
	Name        string
	Numbered    bool   // $1,$2 (postgres) vs ? (sqlite)
	PayloadType string // JSONB | TEXT
	LockSuffix  string // " FOR UPDATE" donde exista
}

var (
	Postgres = Dialect{Name: "postgres", Numbered: true, PayloadType: "JSONB", LockSuffix: " FOR UPDATE"}
	SQLite   = Dialect{Name: "sqlite", PayloadType: "TEXT"}
)

// Rebind convierte placeholders ? al estilo del dialecto.
func (d Dialect) Rebind(q string) string {
	if !d.Numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate crea las tablas si no existen.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS resource_records (
			resource TEXT NOT NULL,
			id BIGINT NOT NULL,
			payload %s NOT NULL,
			PRIMARY KEY (resource, id)
		)`, d.PayloadType),
		`CREATE TABLE IF NOT EXISTS resource_sequences (
			resource TEXT PRIMARY KEY,
			last_id BIGINT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("sqldoc migrate (%s): %w", d.Name, err)
		}
	}
	return nil
}

// Store implementa resource.Store[T] sobre database/sql.
type Store[T any] struct {
	db       *sql.DB
	d        Dialect
	resource string
}

func NewStore[T any](db *sql.DB, d Dialect, resourceName string) *Store[T] {
	return &Store[T]{db: db, d: d, resource: resourceName}
}

func (s *Store[T]) Find(ctx context.Context) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, s.d.Rebind(`
		SELECT payload FROM resource_records
		WHERE resource = ?
		ORDER BY id ASC
	`), s.resource)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.resource, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store[T]) Get(ctx context.Context, id int64) (T, error) {
	return s.load(ctx, s.db, id, false)
}

func (s *Store[T]) Insert(ctx context.Context, build func(id int64) (T, error)) (T, error) {
	var zero T
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer func() { _ = tx.Rollback() }()

	// la secuencia vive en su propia tabla: un rollback la restaura, un delete no
	var id int64
	err = tx.QueryRowContext(ctx, s.d.Rebind(`
		INSERT INTO resource_sequences (resource, last_id) VALUES (?, 1)
		ON CONFLICT (resource) DO UPDATE SET last_id = resource_sequences.last_id + 1
		RETURNING last_id
	`), s.resource).Scan(&id)
	if err != nil {
		return zero, fmt.Errorf("next id %s: %w", s.resource, err)
	}

	v, err := build(id)
	if err != nil {
		return zero, err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return zero, err
	}
	if _, err := tx.ExecContext(ctx, s.d.Rebind(`
		INSERT INTO resource_records (resource, id, payload) VALUES (?, ?, ?)
	`), s.resource, id, string(payload)); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return v, nil
}

func (s *Store[T]) Update(ctx context.Context, id int64, mutate func(cur T) (T, error)) (T, error) {
	var zero T
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := s.load(ctx, tx, id, true)
	if err != nil {
		return zero, err
	}
	next, err := mutate(cur)
	if err != nil {
		return zero, err
	}
	payload, err := json.Marshal(next)
	if err != nil {
		return zero, err
	}
	if _, err := tx.ExecContext(ctx, s.d.Rebind(`
		UPDATE resource_records SET payload = ?
		WHERE resource = ? AND id = ?
	`), string(payload), s.resource, id); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return next, nil
}

func (s *Store[T]) Remove(ctx context.Context, id int64, guard func(cur T) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := s.load(ctx, tx, id, true)
	if err != nil {
		return err
	}
	if guard != nil {
		if err := guard(cur); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, s.d.Rebind(`
		DELETE FROM resource_records WHERE resource = ? AND id = ?
	`), s.resource, id); err != nil {
		return err
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store[T]) load(ctx context.Context, q queryer, id int64, lock bool) (T, error) {
	var zero T
	query := `SELECT payload FROM resource_records WHERE resource = ? AND id = ?`
	if lock {
		query += s.d.LockSuffix
	}
	var raw []byte
	err := q.QueryRowContext(ctx, s.d.Rebind(query), s.resource, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, resource.ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("decode %s/%d: %w", s.resource, id, err)
	}
	return v, nil
}
