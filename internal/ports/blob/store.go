package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

type Driver string

const (
	DriverMemory     Driver = "memory"
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

var ErrNotFound = errors.New("blob not found")

type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describe un objeto guardado.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store guarda los artefactos de backups y reportes.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Driver() Driver
}
