package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"imgbench/bench"
	"imgbench/fetch"
	"imgbench/model"
)

// TestLoadSettings_Defaults testing the built-in defaults
func TestLoadSettings_Defaults(t *testing.T) {
	t.Parallel()

	s, err := loadSettings(newViper())
	require.NoError(t, err)

	require.Equal(t, bench.Sequential, s.Mode)
	require.Equal(t, []model.SourceKind{model.File, model.Blob}, s.Sources)
	require.Equal(t, fetch.Strategies, s.Strategies)
	require.Equal(t, 3, s.Iterations)
	require.Equal(t, bench.DefaultSettleDelay, s.SettleDelay)
	require.Equal(t, 10*time.Second, s.Timeout)
	require.True(t, s.Validate)
	require.Equal(t, "info", s.LogLevel)
	require.Empty(t, s.BlobURL)
}

// TestLoadSettings_File testing values read from a yaml config file
func TestLoadSettings_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "imgbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  dir: /srv/images
bench:
  mode: parallel
  sources: [blob]
  strategies: stream, zerocopy
  iterations: 7
  settle: 5ms
  workers: 3
  validate: false
log:
  level: debug
`), 0o600))

	v := newViper()
	require.NoError(t, readConfigFile(v, path))

	s, err := loadSettings(v)
	require.NoError(t, err)

	require.Equal(t, "/srv/images", s.DataDir)
	require.Equal(t, bench.Parallel, s.Mode)
	require.Equal(t, []model.SourceKind{model.Blob}, s.Sources)
	require.Equal(t, []fetch.Strategy{fetch.Stream, fetch.ZeroCopy}, s.Strategies)
	require.Equal(t, 7, s.Iterations)
	require.Equal(t, 5*time.Millisecond, s.SettleDelay)
	require.Equal(t, 3, s.Workers)
	require.False(t, s.Validate)
	require.Equal(t, "debug", s.LogLevel)
}

// TestLoadSettings_Invalid testing rejection of bad values
func TestLoadSettings_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]any{
		keyMode:        "bursty",
		keySources:     "FILE,TAPE",
		keyStrategies:  "mmap",
		keyIterations:  0,
		keyCacheSize:   -1,
		keySeedCount:   -1,
		keySeedSide:    0,
		keySeedQuality: 101,
	}

	for key, value := range cases {
		v := newViper()
		v.Set(key, value)

		_, err := loadSettings(v)
		require.ErrorIs(t, err, model.ErrInvalidRequest, key)
	}

	require.Error(t, readConfigFile(newViper(), filepath.Join(t.TempDir(), "missing.yaml")))
	require.NoError(t, readConfigFile(newViper(), ""))
}

// TestNewLogger testing level parsing
func TestNewLogger(t *testing.T) {
	t.Parallel()

	log, err := newLogger(os.Stderr, "warn", true)
	require.NoError(t, err)
	require.Equal(t, "warning", log.GetLevel().String())

	_, err = newLogger(os.Stderr, "loud", false)
	require.Error(t, err)
}
