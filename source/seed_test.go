package source

import (
	"bytes"
	"context"
	"image/jpeg"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"imgbench/model"
)

// TestGenerateAssets testing deterministic, growing, decodable assets
func TestGenerateAssets(t *testing.T) {
	t.Parallel()

	cfg := SeedConfig{Count: 3, BaseSide: 40}

	first, err := GenerateAssets(cfg)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := GenerateAssets(cfg)
	require.NoError(t, err)
	require.Equal(t, first, second)

	for i, a := range first {
		require.Equal(t, AssetName(i+1), a.Name)

		img, err := jpeg.DecodeConfig(bytes.NewReader(a.Data))
		require.NoError(t, err)
		require.Equal(t, int(40*(0.5+0.5*float64(i+1))), img.Width)
	}
}

// TestSeed testing that every target gets identical bytes
func TestSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := NewMemory()
	files := NewFiles(filepath.Join(t.TempDir(), "files"))

	require.NoError(t, mem.Put(ctx, "stale", []byte("old")))

	assets, err := Seed(ctx, SeedConfig{Count: 2, BaseSide: 20}, mem, files)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	keys, err := mem.ListKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"test_image_1.jpg", "test_image_2.jpg"}, keys)

	for _, a := range assets {
		fromMem, err := mem.GetBytes(ctx, a.Name)
		require.NoError(t, err)

		fromFile, err := files.GetBytes(ctx, a.Name)
		require.NoError(t, err)
		require.Equal(t, fromMem, fromFile)
	}
}

// TestGenerateAssets_Invalid testing that impossible counts and qualities are refused
func TestGenerateAssets_Invalid(t *testing.T) {
	t.Parallel()

	for _, cfg := range []SeedConfig{{Count: -1}, {Count: 0}, {Count: 1, Quality: 101}} {
		_, err := GenerateAssets(cfg)
		require.ErrorIs(t, err, model.ErrInvalidRequest, "%+v", cfg)
	}
}

// TestSeed_Logger testing that seeding reports through the configured logger
func TestSeed_Logger(t *testing.T) {
	t.Parallel()

	log, hook := test.NewNullLogger()

	_, err := Seed(context.Background(), SeedConfig{Count: 1, BaseSide: 10, Logger: log}, NewMemory())
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, "seeded test assets", entry.Message)
	require.Equal(t, 1, entry.Data["assets"])
}
