package cache

import (
	"context"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DiskConfig configures the persistent layer.
type DiskConfig struct {
	// Path is ignored when InMemory is set.
	Path     string
	InMemory bool
	// Verbose routes badger's own logging through Logger.
	Verbose bool
	// Logger defaults to the standard logger.
	Logger logrus.FieldLogger
}

// Disk keeps cached bytes in a badger database.
type Disk struct {
	db  *badger.DB
	log logrus.FieldLogger
}

func OpenDisk(cfg DiskConfig) (*Disk, error) {
	var opts badger.Options

	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("path is required for persistent cache")
		}

		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, errors.Wrapf(err, "create cache directory %s", cfg.Path)
		}

		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Verbose {
		opts = opts.WithLogger(cfg.Logger.WithField("component", "badger"))
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)

	if err != nil {
		return nil, errors.Wrap(err, "open badger cache")
	}

	return &Disk{db: db, log: cfg.Logger}, nil
}

func (d *Disk) Get(_ context.Context, key string) ([]byte, bool) {
	var data []byte

	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))

		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)

		return err
	})

	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			d.log.WithError(err).WithField("key", key).Warn("disk cache read failed")
		}

		return nil, false
	}

	return data, true
}

func (d *Disk) Add(_ context.Context, key string, data []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})

	return errors.Wrapf(err, "cache %s", key)
}

// Clear drops every key. Writes must not run concurrently with it.
func (d *Disk) Clear(context.Context) error {
	return errors.Wrap(d.db.DropAll(), "drop disk cache")
}

func (d *Disk) Close() error {
	return d.db.Close()
}

var _ Cache = (*Disk)(nil)
