// Package disk implements the ability to read and write snapshots to
// disk as a JSON file.
package disk

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ponpase/snax/foundation/blockchain/storage"
)

const fileName = "snapshot.json"

// Disk represents the serialization implementation for reading and storing
// the latest snapshot in a file on disk. This implements the
// storage.Serializer interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since the file is
// written and closed on every commit.
func (d *Disk) Close() error {
	return nil
}

// Write stores the snapshot. The data is written to a temporary file that
// is renamed over the previous snapshot so a crash never leaves a partial
// file behind.
func (d *Disk) Write(snapshot storage.Snapshot) error {

	// Marshal the snapshot in a more human readable format.
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(d.dbPath, fileName+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, d.path())
}

// Read decodes the snapshot stored on disk.
func (d *Disk) Read() (storage.Snapshot, error) {
	f, err := os.Open(d.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.Snapshot{}, storage.ErrNotFound
		}
		return storage.Snapshot{}, err
	}
	defer f.Close()

	var snapshot storage.Snapshot
	if err := json.NewDecoder(f).Decode(&snapshot); err != nil {
		return storage.Snapshot{}, err
	}

	return snapshot, nil
}

// Reset removes the snapshot from disk.
func (d *Disk) Reset() error {
	if err := os.Remove(d.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *Disk) path() string {
	return filepath.Join(d.dbPath, fileName)
}
