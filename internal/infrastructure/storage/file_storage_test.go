package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_Save(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "reports")
	fs := NewLocalFileStorage(baseDir, zap.NewNop())
	ctx := context.Background()

	t.Run("creates base directory on first write", func(t *testing.T) {
		err := fs.Save(ctx, "voucher_report_2024-05-01.csv", []byte("a,b\n"))
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(baseDir, "voucher_report_2024-05-01.csv"))
		require.NoError(t, err)
		assert.Equal(t, "a,b\n", string(content))
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, "r.csv", []byte("original")))
		require.NoError(t, fs.Save(ctx, "r.csv", []byte("updated")))

		content, err := fs.Read(ctx, "r.csv")
		require.NoError(t, err)
		assert.Equal(t, "updated", string(content))
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		entries, err := os.ReadDir(baseDir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotEqual(t, '.', rune(e.Name()[0]), e.Name())
		}
	})
}

func TestLocalFileStorage_RejectsEscapingPaths(t *testing.T) {
	fs := NewLocalFileStorage(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	for _, p := range []string{"../outside.csv", "a/../../outside.csv", "."} {
		t.Run(p, func(t *testing.T) {
			err := fs.Save(ctx, p, []byte("x"))
			assert.ErrorIs(t, err, ErrPathEscapes)
			assert.False(t, fs.Exists(ctx, p))
		})
	}
}

func TestLocalFileStorage_ExistsAndDelete(t *testing.T) {
	fs := NewLocalFileStorage(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	assert.False(t, fs.Exists(ctx, "r.csv"))
	require.NoError(t, fs.Save(ctx, "r.csv", []byte("x")))
	assert.True(t, fs.Exists(ctx, "r.csv"))

	require.NoError(t, fs.Delete(ctx, "r.csv"))
	assert.False(t, fs.Exists(ctx, "r.csv"))

	// deleting a missing file is fine
	assert.NoError(t, fs.Delete(ctx, "r.csv"))
}
