package badger

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"

	log "github.com/weisyn/keyring/pkg/interfaces/infrastructure/log"
)

// backupFormatVersion is written into every backup header.
const backupFormatVersion = 1

// BackupMetadata heads a vault backup stream.
type BackupMetadata struct {
	FormatVersion int       `json:"format_version"`
	Timestamp     time.Time `json:"timestamp"`
	Entries       []string  `json:"entries"`
}

// Backup writes a full copy of the vault to w. The stream holds only
// encrypted envelopes.
func (s *Store) Backup(ctx context.Context, w io.Writer) (*BackupMetadata, error) {
	names, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	meta := &BackupMetadata{
		FormatVersion: backupFormatVersion,
		Timestamp:     time.Now().UTC(),
		Entries:       names,
	}
	header, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode backup header: %w", err)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(append(header, '\n')); err != nil {
		return nil, fmt.Errorf("write backup header: %w", err)
	}
	if _, err := s.db.Backup(bw, 0); err != nil {
		return nil, fmt.Errorf("badger backup: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("flush backup: %w", err)
	}
	s.logger.Infof("vault backup written: %d entries", len(names))
	return meta, nil
}

// BackupToFile writes a backup to path through a temporary file so a failed
// run never leaves a truncated backup behind.
func (s *Store) BackupToFile(ctx context.Context, path string) (*BackupMetadata, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}
	meta, err := s.Backup(ctx, f)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warnf("remove partial backup: %v", rmErr)
		}
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("finalize backup: %w", err)
	}
	return meta, nil
}

// Restore loads a stream produced by Backup. Entries with the same name are
// overwritten. The stream is staged in an in-memory database and every entry
// is written back as a new version, so entries deleted after the backup was
// taken come back.
func (s *Store) Restore(ctx context.Context, r io.Reader) (*BackupMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	br := bufio.NewReader(r)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read backup header: %w", err)
	}
	var meta BackupMetadata
	if err := json.Unmarshal(line, &meta); err != nil {
		return nil, fmt.Errorf("decode backup header: %w", err)
	}
	if meta.FormatVersion != backupFormatVersion {
		return nil, fmt.Errorf("unsupported backup format %d", meta.FormatVersion)
	}

	staging, err := openStaging(s.logger)
	if err != nil {
		return nil, err
	}
	defer staging.Close()
	if err := staging.Load(br, 16); err != nil {
		return nil, fmt.Errorf("badger restore: %w", err)
	}

	done, err := s.beginWrite()
	if err != nil {
		return nil, err
	}
	defer done()

	restored, err := s.copyEntries(ctx, staging)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("vault restored: %d entries", restored)
	return &meta, nil
}

func openStaging(logger log.Logger) (*badgerdb.DB, error) {
	opts := badgerdb.DefaultOptions("").WithInMemory(true)
	opts.MemTableSize = 8 << 20
	opts.BlockCacheSize = 8 << 20
	opts.IndexCacheSize = 4 << 20
	opts.NumMemtables = 2
	opts.NumCompactors = 2
	opts.Logger = newBadgerLogger(logger)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open restore staging: %w", err)
	}
	return db, nil
}

// copyEntries writes every envelope held by src into the store.
func (s *Store) copyEntries(ctx context.Context, src *badgerdb.DB) (int, error) {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	prefix := []byte(envelopePrefix)
	count := 0
	err := src.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := wb.Set(item.KeyCopy(nil), value); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("badger restore: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("badger restore flush: %w", err)
	}
	return count, nil
}

// RestoreFromFile restores the backup at path.
func (s *Store) RestoreFromFile(ctx context.Context, path string) (*BackupMetadata, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("backup %s does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()
	return s.Restore(ctx, f)
}
