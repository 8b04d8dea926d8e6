package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotCached is returned by Cache.Get when no record exists.
var ErrNotCached = errors.New("upload: not cached")

// Record is a remembered upload of a file's content.
type Record struct {
	FileID     string    `msgpack:"file_id"`
	Filename   string    `msgpack:"filename"`
	Purpose    string    `msgpack:"purpose"`
	Size       int64     `msgpack:"size"`
	UploadedAt time.Time `msgpack:"uploaded_at"`
}

// Cache maps a content digest to the remote file it was uploaded as.
type Cache interface {
	Get(ctx context.Context, digest string) (*Record, error)
	Put(ctx context.Context, digest string, rec Record) error
	Delete(ctx context.Context, digest string) error
	Close() error
}

// MemoryCache is an in-process Cache. The zero value is ready to use.
type MemoryCache struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{records: make(map[string]Record)}
}

func (m *MemoryCache) Get(_ context.Context, digest string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[digest]
	if !ok {
		return nil, ErrNotCached
	}
	return &rec, nil
}

func (m *MemoryCache) Put(_ context.Context, digest string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = make(map[string]Record)
	}
	m.records[digest] = rec
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, digest)
	return nil
}

func (m *MemoryCache) Close() error { return nil }

// BadgerCache is a Cache persisted in BadgerDB. Records are msgpack-encoded
// under "upload:<digest>".
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// BadgerCacheOptions configures a BadgerCache.
type BadgerCacheOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// TTL expires records after the given duration. Zero keeps them
	// forever. Remote files may be deleted by the service, so a finite
	// TTL is usually wanted.
	TTL time.Duration

	// Logger receives badger warnings and errors. Defaults to slog.Default().
	Logger *slog.Logger
}

// OpenBadgerCache opens or creates a BadgerCache.
func OpenBadgerCache(opts BadgerCacheOptions) (*BadgerCache, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("upload: BadgerCacheOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{log: logger})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("upload: open cache: %w", err)
	}
	return &BadgerCache{db: db, ttl: opts.TTL}, nil
}

func cacheKey(digest string) []byte {
	return []byte("upload:" + digest)
}

func (b *BadgerCache) Get(_ context.Context, digest string) (*Record, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(digest))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("upload: cache get: %w", err)
	}
	var rec Record
	if err := msgpack.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("upload: decode cache record: %w", err)
	}
	return &rec, nil
}

func (b *BadgerCache) Put(_ context.Context, digest string, rec Record) error {
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("upload: encode cache record: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(cacheKey(digest), data)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (b *BadgerCache) Delete(_ context.Context, digest string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cacheKey(digest))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *BadgerCache) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger output to slog, dropping debug and info.
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(f, v...), "component", "badger")
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(f, v...), "component", "badger")
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}
