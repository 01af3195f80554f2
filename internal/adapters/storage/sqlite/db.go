package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"procurement-hub/internal/adapters/storage/sqldoc"

	_ "modernc.org/sqlite" // driver pure go
)

// Open abre (o crea) la base SQLite en path y migra el esquema.
// Una sola conexión: SQLite admite un escritor a la vez.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "data/procurement.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := sqldoc.Migrate(ctx, db, sqldoc.SQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
