// Package badger persists named encrypted envelopes in BadgerDB.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"

	vaultconfig "github.com/weisyn/keyring/internal/config/vault"
	logimpl "github.com/weisyn/keyring/internal/core/infrastructure/log"
	keyringintf "github.com/weisyn/keyring/pkg/interfaces/keyring"
	log "github.com/weisyn/keyring/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/keyring/pkg/types"
)

// envelopePrefix namespaces vault entries inside the database.
const envelopePrefix = "vault/envelope/"

var (
	// ErrEntryNotFound no envelope is stored under the name.
	ErrEntryNotFound = errors.New("vault entry not found")
	// ErrStoreClosing the store is shutting down.
	ErrStoreClosing = errors.New("vault store is closing")
)

// Store is a BadgerDB backed keyring.VaultStore.
type Store struct {
	db     *badgerdb.DB
	dir    string
	logger log.Logger

	// writes in flight must finish before Close hands the db back
	closing int32
	writeWg sync.WaitGroup
}

var _ keyringintf.VaultStore = (*Store)(nil)

// New opens the store described by options.
func New(options *vaultconfig.VaultOptions, logger log.Logger) (*Store, error) {
	logger = logimpl.OrNop(logger)
	if options == nil {
		return nil, types.Errorf(types.ErrValidation, "open vault", "missing vault options")
	}

	var opts badgerdb.Options
	if options.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
		logger.Debug("opening in-memory vault store")
	} else {
		if options.Path == "" {
			return nil, types.Errorf(types.ErrValidation, "open vault", "vault path is empty")
		}
		if err := os.MkdirAll(options.Path, 0700); err != nil {
			return nil, fmt.Errorf("create vault directory: %w", err)
		}
		opts = badgerdb.DefaultOptions(options.Path)
		opts.SyncWrites = true
		logger.Debugf("opening vault store at %s", options.Path)
	}

	// envelopes are a few KB; keep the footprint small
	opts.MemTableSize = 8 << 20
	opts.ValueLogFileSize = 16 << 20
	opts.BlockCacheSize = 8 << 20
	opts.IndexCacheSize = 4 << 20
	opts.NumMemtables = 2
	opts.NumCompactors = 2
	opts.Logger = newBadgerLogger(logger)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger vault: %w", err)
	}
	return &Store{db: db, dir: options.Path, logger: logger}, nil
}

func (s *Store) beginWrite() (func(), error) {
	if atomic.LoadInt32(&s.closing) == 1 {
		return nil, ErrStoreClosing
	}
	s.writeWg.Add(1)
	if atomic.LoadInt32(&s.closing) == 1 {
		s.writeWg.Done()
		return nil, ErrStoreClosing
	}
	return s.writeWg.Done, nil
}

func entryKey(name string) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.Errorf(types.ErrValidation, "vault entry", "name must not be empty")
	}
	if strings.ContainsAny(name, "/\x00") {
		return nil, types.Errorf(types.ErrValidation, "vault entry", "name %q contains a reserved character", name)
	}
	return []byte(envelopePrefix + name), nil
}

// Save stores envelope under name, replacing any previous entry.
func (s *Store) Save(ctx context.Context, name string, envelope *types.EncryptedEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := entryKey(name)
	if err != nil {
		return err
	}
	if envelope == nil {
		return types.Errorf(types.ErrValidation, "save vault entry", "envelope is nil")
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	if err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	}); err != nil {
		return fmt.Errorf("badger save %q: %w", name, err)
	}
	s.logger.Debugf("vault entry saved: %s", name)
	return nil
}

// Load returns the envelope stored under name.
func (s *Store) Load(ctx context.Context, name string) (*types.EncryptedEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := entryKey(name)
	if err != nil {
		return nil, err
	}

	var value []byte
	err = s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("badger load %q: %w", name, err)
	}

	var envelope types.EncryptedEnvelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope %q: %w", name, err)
	}
	return &envelope, nil
}

// List returns the stored names in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte(envelopePrefix)
	var names []string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger list: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the entry under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := entryKey(name)
	if err != nil {
		return err
	}

	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	err = s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("badger delete %q: %w", name, err)
	}
	s.logger.Debugf("vault entry deleted: %s", name)
	return nil
}

// Close waits for in-flight writes, compacts the value log once and closes
// the database. Calling Close more than once is a no-op.
func (s *Store) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closing, 0, 1) {
		return nil
	}

	waitCh := make(chan struct{})
	go func() {
		s.writeWg.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
	case <-time.After(10 * time.Second):
		s.logger.Warn("timed out waiting for vault writes, closing anyway")
	}

	if !s.db.Opts().InMemory {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.RunValueLogGC(ctx, 0.5); err != nil {
			s.logger.Warnf("vault value log gc: %v", err)
		}
		cancel()
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger vault: %w", err)
	}
	return nil
}

// badgerLogger routes badger's own logging into the keyring logger.
type badgerLogger struct {
	logger log.Logger
}

func newBadgerLogger(logger log.Logger) *badgerLogger {
	return &badgerLogger{logger: logger.With("component", "badger")}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(strings.TrimSpace(format), args...)
}

// Infof badger is chatty at info level; demote it.
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}
