// Package leveldb implements the ability to read and write snapshots to a
// LevelDB database. Every document of a snapshot is stored under its own
// key and a commit is applied as a single batch.
package leveldb

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ponpase/snax/foundation/blockchain/storage"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	metaKey   = "meta"
	docPrefix = "doc:"
)

// LevelDB represents the serialization implementation for storing
// snapshots in LevelDB. This implements the storage.Serializer interface.
type LevelDB struct {
	db *leveldb.DB
}

// New opens or creates a LevelDB database at the specified path.
func New(path string) (*LevelDB, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("leveldb path required")
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve leveldb path: %w", err)
	}

	db, err := leveldb.OpenFile(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}

	return &LevelDB{db: db}, nil
}

// Close releases the underlying LevelDB resources.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Write stores the snapshot in a single synced batch. Documents that are
// not part of the snapshot are removed.
func (l *LevelDB) Write(snapshot storage.Snapshot) error {
	docs := snapshot.Documents
	snapshot.Documents = nil

	meta, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)

	iter := l.db.NewIterator(util.BytesPrefix([]byte(docPrefix)), nil)
	for iter.Next() {
		key := strings.TrimPrefix(string(iter.Key()), docPrefix)
		if _, exists := docs[key]; !exists {
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterate documents: %w", err)
	}

	for key, doc := range docs {
		batch.Put([]byte(docPrefix+key), doc)
	}
	batch.Put([]byte(metaKey), meta)

	if err := l.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	return nil
}

// Read loads the snapshot and all of its documents.
func (l *LevelDB) Read() (storage.Snapshot, error) {
	meta, err := l.db.Get([]byte(metaKey), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return storage.Snapshot{}, storage.ErrNotFound
	case err != nil:
		return storage.Snapshot{}, fmt.Errorf("load meta: %w", err)
	}

	var snapshot storage.Snapshot
	if err := json.Unmarshal(meta, &snapshot); err != nil {
		return storage.Snapshot{}, err
	}

	snapshot.Documents = make(map[string]json.RawMessage)

	iter := l.db.NewIterator(util.BytesPrefix([]byte(docPrefix)), nil)
	defer iter.Release()

	for iter.Next() {
		key := strings.TrimPrefix(string(iter.Key()), docPrefix)
		snapshot.Documents[key] = append(json.RawMessage(nil), iter.Value()...)
	}
	if err := iter.Error(); err != nil {
		return storage.Snapshot{}, fmt.Errorf("iterate documents: %w", err)
	}

	return snapshot, nil
}

// Reset deletes every key in the database.
func (l *LevelDB) Reset() error {
	batch := new(leveldb.Batch)

	iter := l.db.NewIterator(nil, nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	return l.db.Write(batch, nil)
}
