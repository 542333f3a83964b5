package backup

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFSStorageSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewFSStorage(t.TempDir())
	require.NoError(t, err)

	n, err := s.Save(ctx, "conn-1-123.json", strings.NewReader(`{"offers":[]}`))
	require.NoError(t, err)
	require.Equal(t, int64(13), n)

	rc, err := s.Load(ctx, "conn-1-123.json")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	require.Equal(t, `{"offers":[]}`, string(body))

	require.NoError(t, s.Delete(ctx, "conn-1-123.json"))
	_, err = s.Load(ctx, "conn-1-123.json")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFSStorageRejectsUnsafeNames(t *testing.T) {
	ctx := context.Background()
	s, err := NewFSStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../escape.json", "a/b.json", "x\x00y"} {
		_, err := s.Save(ctx, name, strings.NewReader("x"))
		require.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestFSStorageDeleteMissing(t *testing.T) {
	s, err := NewFSStorage(t.TempDir())
	require.NoError(t, err)
	require.ErrorIs(t, s.Delete(context.Background(), "gone.json"), ErrNotFound)
}
