package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"imgbench/cache"
	"imgbench/fetch"
	"imgbench/model"
	"imgbench/source"
)

// app holds the stores opened for one command.
type app struct {
	settings Settings
	log      *logrus.Logger
	files    *source.Files
	blobs    source.ByteSource
	cache    cache.Cache
	closers  []func() error
}

func openApp(s Settings, log *logrus.Logger, withCache bool) (*app, error) {
	a := &app{settings: s, log: log, files: source.NewFiles(s.DataDir)}

	if s.BlobURL != "" {
		a.blobs = source.NewHTTP(s.BlobURL, &http.Client{Timeout: s.Timeout})
	} else {
		db, err := source.OpenSQLite(s.DBPath, log)

		if err != nil {
			return nil, err
		}

		a.blobs = db
		a.closers = append(a.closers, db.Close)
	}

	if withCache {
		mem, err := cache.NewMemory(s.CacheSize)

		if err != nil {
			_ = a.Close()
			return nil, err
		}

		disk, err := cache.OpenDisk(cache.DiskConfig{
			Path:     s.CacheDir,
			InMemory: s.CacheDir == "",
			Verbose:  log.IsLevelEnabled(logrus.DebugLevel),
			Logger:   log,
		})

		if err != nil {
			_ = a.Close()
			return nil, err
		}

		a.cache = &cache.Layered{Memory: mem, Disk: disk}
		a.closers = append(a.closers, disk.Close)
	}

	return a, nil
}

func (a *app) origins() map[model.SourceKind]source.ByteSource {
	return map[model.SourceKind]source.ByteSource{
		model.File: a.files,
		model.Blob: a.blobs,
	}
}

func (a *app) loader() (*fetch.Loader, error) {
	return fetch.NewLoader(fetch.LoaderConfig{
		Origins:    a.origins(),
		Strategies: a.settings.Strategies,
		Cache:      a.cache,
	})
}

// items lists the keys present in every selected source.
func (a *app) items(ctx context.Context) ([]string, error) {
	origins := a.origins()
	counts := make(map[string]int)
	var order []string

	for _, kind := range a.settings.Sources {
		keys, err := origins[kind].ListKeys(ctx)

		if err != nil {
			return nil, errors.Wrapf(err, "list %s items", kind)
		}

		for _, k := range keys {
			if counts[k] == 0 {
				order = append(order, k)
			}

			counts[k]++
		}
	}

	var items []string

	for _, k := range order {
		if counts[k] == len(a.settings.Sources) && strings.HasPrefix(k, source.AssetPrefix) {
			items = append(items, k)
		}
	}

	if len(items) == 0 {
		return nil, errors.Wrap(model.ErrNotFound, "no seeded items found, run `imgbench seed` first")
	}

	return items, nil
}

func (a *app) Close() error {
	var first error

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}

	a.closers = nil

	return first
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d)
}
