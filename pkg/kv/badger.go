package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store implementation backed by BadgerDB v4.
//
// Apply runs inside a single badger transaction, so a batch either commits
// fully or not at all — a crash mid-batch leaves the previously committed
// state intact.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs BadgerDB in memory-only mode (no disk persistence).
	// Useful for testing with a real badger engine.
	InMemory bool

	// Logger receives badger's internal log output. If nil,
	// slog.Default() is used. Debug and info messages are dropped.
	Logger *slog.Logger
}

// NewBadger creates a new BadgerDB-backed Store.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("kv: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(slogAdapter{logger})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("kv: open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, key Key) ([]byte, error) {
	k := encode(key)
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *Badger) Set(_ context.Context, key Key, value []byte) error {
	k := encode(key)
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, value)
	})
}

func (b *Badger) Delete(_ context.Context, key Key) error {
	k := encode(key)
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *Badger) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	p := encode(prefix)
	// Append a separator so the prefix "a:b" does not match "a:bc".
	var prefixBytes []byte
	if len(p) > 0 {
		prefixBytes = append(p, Separator)
	}

	return func(yield func(Entry, error) bool) {
		err := b.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = prefixBytes
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
				item := it.Item()
				keyCopy := item.KeyCopy(nil)

				val, err := item.ValueCopy(nil)
				if err != nil {
					if !yield(Entry{}, err) {
						return nil
					}
					continue
				}

				entry := Entry{Key: decode(keyCopy), Value: val}
				if !yield(entry, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(Entry{}, err)
		}
	}
}

func (b *Badger) Apply(_ context.Context, batch Batch) error {
	if batch.Empty() {
		return nil
	}
	return b.db.Update(func(txn *badger.Txn) error {
		for _, e := range batch.Set {
			if err := txn.Set(encode(e.Key), e.Value); err != nil {
				return err
			}
		}
		for _, key := range batch.Delete {
			if err := txn.Delete(encode(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// slogAdapter routes badger's logger onto slog, suppressing debug and info
// level messages.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Errorf(f string, v ...interface{}) {
	a.l.Error(fmt.Sprintf("badger: "+f, v...))
}

func (a slogAdapter) Warningf(f string, v ...interface{}) {
	a.l.Warn(fmt.Sprintf("badger: "+f, v...))
}

func (slogAdapter) Infof(string, ...interface{})  {}
func (slogAdapter) Debugf(string, ...interface{}) {}
