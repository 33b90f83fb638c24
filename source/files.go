package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"imgbench/model"
)

// OSReader reads files from the local file system.
type OSReader struct{}

func (OSReader) ReadBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, errors.Wrapf(model.ErrIO, "read %s: %v", path, err)
	}

	return data, nil
}

// Files serves one file per key out of Dir.
type Files struct {
	Dir    string
	Reader FileReader
}

func NewFiles(dir string) *Files {
	return &Files{Dir: dir, Reader: OSReader{}}
}

// Path maps key to its file, rejecting keys that would leave Dir.
func (f *Files) Path(key string) (string, error) {
	if err := model.CheckItem(key); err != nil {
		return "", err
	}

	if key != filepath.Base(key) || key == "." || key == ".." {
		return "", errors.Wrapf(model.ErrInvalidRequest, "bad file key %q", key)
	}

	return filepath.Join(f.Dir, key), nil
}

func (f *Files) GetBytes(ctx context.Context, key string) ([]byte, error) {
	path, err := f.Path(key)

	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(model.ErrCancelled, "read %s", key)
	}

	return f.Reader.ReadBytes(path)
}

func (f *Files) ListKeys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.Dir)

	if err != nil {
		return nil, errors.Wrapf(model.ErrIO, "list %s: %v", f.Dir, err)
	}

	var keys []string

	for _, e := range entries {
		if e.Type().IsRegular() {
			keys = append(keys, e.Name())
		}
	}

	sort.Strings(keys)

	return keys, nil
}

func (f *Files) Put(ctx context.Context, key string, data []byte) error {
	path, err := f.Path(key)

	if err != nil {
		return err
	}

	if err := os.MkdirAll(f.Dir, 0o750); err != nil {
		return errors.Wrapf(model.ErrIO, "create %s: %v", f.Dir, err)
	}

	if err := os.WriteFile(path, data, 0o640); err != nil {
		return errors.Wrapf(model.ErrIO, "write %s: %v", path, err)
	}

	return nil
}

// ClearAll removes the seeded assets from Dir and leaves other files alone.
func (f *Files) ClearAll(ctx context.Context) error {
	keys, err := f.ListKeys(ctx)

	if errors.Is(err, model.ErrIO) {
		if _, statErr := os.Stat(f.Dir); os.IsNotExist(statErr) {
			return nil
		}
	}

	if err != nil {
		return err
	}

	for _, key := range keys {
		if !strings.HasPrefix(key, AssetPrefix) {
			continue
		}

		if err := os.Remove(filepath.Join(f.Dir, key)); err != nil {
			return errors.Wrapf(model.ErrIO, "remove %s: %v", key, err)
		}
	}

	return nil
}
