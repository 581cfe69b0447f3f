package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileImageStorage_Save(t *testing.T) {
	s, err := NewFileImageStorage(t.TempDir())
	require.NoError(t, err)

	name, err := s.Save(context.Background(), "jpg", []byte("data"))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(name, ".jpg"))

	got, err := os.ReadFile(s.Path(name))
	require.NoError(t, err)
	require.Equal(t, []byte("data"), got)

	other, err := s.Save(context.Background(), ".jpg", []byte("data"))
	require.NoError(t, err)
	require.NotEqual(t, name, other)
}

func TestFileImageStorage_CancelledContext(t *testing.T) {
	s, err := NewFileImageStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Save(ctx, ".png", []byte("data"))
	require.ErrorIs(t, err, context.Canceled)
}
