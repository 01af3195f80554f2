package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"procurement-hub/internal/ports/blob"
)

type object struct {
	data []byte
	info blob.Info
}

// Store es un blob.Store en memoria (dev y tests).
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

func New() *Store {
	return &Store{objects: map[string]object{}, now: time.Now}
}

func (s *Store) Driver() blob.Driver { return blob.DriverMemory }

func (s *Store) Put(_ context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return blob.Info{}, err
	}
	info := blob.Info{Key: key, Size: int64(len(data)), ContentType: opts.ContentType, LastModified: s.now().UTC()}

	s.mu.Lock()
	s.objects[key] = object{data: data, info: info}
	s.mu.Unlock()
	return info, nil
}

func (s *Store) Get(_ context.Context, key string) (blob.Info, io.ReadCloser, error) {
	s.mu.RLock()
	o, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return blob.Info{}, nil, blob.ErrNotFound
	}
	return o.info, io.NopCloser(bytes.NewReader(o.data)), nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}
