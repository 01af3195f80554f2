package fs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"procurement-hub/internal/ports/blob"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	info, err := s.Put(ctx, "backups/2026/10/b1.json", strings.NewReader(`{"ok":true}`), blob.PutOptions{ContentType: "application/json"})
	require.NoError(t, err)
	assert.EqualValues(t, 11, info.Size)

	got, rc, err := s.Get(ctx, "backups/2026/10/b1.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, `{"ok":true}`, string(body))
	assert.Equal(t, "application/json", got.ContentType)
	assert.EqualValues(t, 11, got.Size)

	require.NoError(t, s.Delete(ctx, "backups/2026/10/b1.json"))
	_, _, err = s.Get(ctx, "backups/2026/10/b1.json")
	assert.True(t, errors.Is(err, blob.ErrNotFound))

	// borrar algo que no existe no es error
	assert.NoError(t, s.Delete(ctx, "missing.json"))
}

func TestStore_RejectsTraversal(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../x", "/etc/passwd", "a/../../b", ""} {
		_, err := s.Put(context.Background(), key, strings.NewReader("x"), blob.PutOptions{})
		assert.Error(t, err, key)
	}
}
