package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"procurement-hub/internal/ports/blob"
)

// Store guarda blobs en disco bajo root. Junto a cada archivo va un sidecar
// .meta con content type y tamaño.
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		root = "./data/blobs"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() blob.Driver { return blob.DriverFilesystem }

type metaFile struct {
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// sanitizeKey evita que una key escape de root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func (s *Store) paths(key string) (string, string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	data := filepath.Join(s.root, filepath.FromSlash(k))
	return data, data + ".meta", nil
}

func (s *Store) Put(_ context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return blob.Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return blob.Info{}, err
	}

	// temp + rename: un lector nunca ve un archivo a medias
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return blob.Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	size, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return blob.Info{}, err
	}
	if err := tmp.Close(); err != nil {
		return blob.Info{}, err
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return blob.Info{}, err
	}

	now := time.Now().UTC()
	mf := metaFile{ContentType: opts.ContentType, Size: size, UpdatedAt: now}
	b, _ := json.Marshal(mf)
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		return blob.Info{}, err
	}
	return blob.Info{Key: key, Size: size, ContentType: opts.ContentType, LastModified: now}, nil
}

func (s *Store) Get(_ context.Context, key string) (blob.Info, io.ReadCloser, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return blob.Info{}, nil, err
	}
	f, err := os.Open(dataPath)
	if errors.Is(err, iofs.ErrNotExist) {
		return blob.Info{}, nil, blob.ErrNotFound
	}
	if err != nil {
		return blob.Info{}, nil, err
	}

	var mf metaFile
	if b, err := os.ReadFile(metaPath); err == nil {
		_ = json.Unmarshal(b, &mf)
	}
	if mf.Size == 0 {
		if st, err := f.Stat(); err == nil {
			mf.Size = st.Size()
			mf.UpdatedAt = st.ModTime().UTC()
		}
	}
	return blob.Info{Key: key, Size: mf.Size, ContentType: mf.ContentType, LastModified: mf.UpdatedAt}, f, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dataPath); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return err
	}
	_ = os.Remove(metaPath)
	return nil
}
