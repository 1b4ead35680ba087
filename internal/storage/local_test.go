package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "users/profiles/a.png", strings.NewReader("data"), "image/png"))

	ok, err := s.Exists(ctx, "users/profiles/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	size, err := s.GetSize(ctx, "users/profiles/a.png")
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	rc, err := s.Get(ctx, "users/profiles/a.png")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "data", string(body))

	require.NoError(t, s.Delete(ctx, "users/profiles/a.png"))
	ok, err = s.Exists(ctx, "users/profiles/a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	// повторное удаление не ошибка
	assert.NoError(t, s.Delete(ctx, "users/profiles/a.png"))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	err = s.Save(context.Background(), "../escape.png", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestNewStorage_UnknownType(t *testing.T) {
	_, err := NewStorage(Config{Type: "ftp"})
	assert.Error(t, err)
}
