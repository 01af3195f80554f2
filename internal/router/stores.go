package router

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"procurement-hub/internal/adapters/blob/fs"
	blobmem "procurement-hub/internal/adapters/blob/memory"
	"procurement-hub/internal/adapters/blob/s3"
	"procurement-hub/internal/adapters/storage/dynamodb"
	"procurement-hub/internal/adapters/storage/memory"
	"procurement-hub/internal/adapters/storage/postgres"
	"procurement-hub/internal/adapters/storage/sqldoc"
	"procurement-hub/internal/adapters/storage/sqlite"
	"procurement-hub/internal/config"
	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/ports/blob"
	"procurement-hub/internal/resource"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// backend es el store elegido por STORE_DRIVER, compartido por todos los recursos.
type backend struct {
	driver  string
	db      *sql.DB
	dialect sqldoc.Dialect
	dynamo  dynamodb.API
	table   string
}

func (b *backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func openBackend(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (*backend, error) {
	b := &backend{driver: cfg.Driver}
	switch cfg.Driver {
	case config.StoreMemory:
		return b, nil
	case config.StorePostgres:
		db, err := withRetry(ctx, log, "postgres", func() (*sql.DB, error) { return postgres.Open(ctx, cfg.DSN) })
		if err != nil {
			return nil, err
		}
		b.db, b.dialect = db, sqldoc.Postgres
		return b, nil
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.db, b.dialect = db, sqldoc.SQLite
		return b, nil
	case config.StoreDynamoDB:
		client, err := dynamodb.NewClient(ctx, dynamodb.Config{Region: cfg.Dynamo.Region, Endpoint: cfg.Dynamo.Endpoint})
		if err != nil {
			return nil, err
		}
		if cfg.Dynamo.CreateTable {
			if err := dynamodb.EnsureTable(ctx, client, cfg.Dynamo.Table); err != nil {
				return nil, err
			}
		}
		b.dynamo, b.table = client, cfg.Dynamo.Table
		return b, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// withRetry reintenta la conexión inicial: en docker-compose la base suele arrancar después.
func withRetry(ctx context.Context, log logger.Logger, name string, open func() (*sql.DB, error)) (*sql.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := open()
		if err == nil {
			return db, nil
		}
		lastErr = err
		log.Warn("database not ready", map[string]any{"driver": name, "attempt": attempt, "err": err.Error()})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	return nil, fmt.Errorf("connect %s: %w", name, lastErr)
}

func storeFor[T any](b *backend, name string) resource.Store[T] {
	switch b.driver {
	case config.StorePostgres, config.StoreSQLite:
		return sqldoc.NewStore[T](b.db, b.dialect, name)
	case config.StoreDynamoDB:
		return dynamodb.NewStore[T](b.dynamo, b.table, name)
	default:
		return memory.NewStore[T]()
	}
}

func openBlobs(ctx context.Context, cfg config.BlobConfig) (blob.Store, error) {
	switch blob.Driver(cfg.Driver) {
	case blob.DriverFilesystem:
		st, err := fs.New(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return st, nil
	case blob.DriverS3:
		st, err := s3.New(ctx, s3.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return blobmem.New(), nil
	}
}
