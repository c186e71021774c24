// Package storage defines the snapshot written after every committed
// operation and the interface the serializers implement.
package storage

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ponpase/snax/foundation/blockchain/ledger"
)

// ErrNotFound is returned when nothing has been stored yet.
var ErrNotFound = errors.New("snapshot not found")

// Set of document keys used inside a snapshot.
const (
	KeyLedger         = "ledger"
	KeyEmission       = "emission"
	KeyNonces         = "nonces"
	keyPlatformPrefix = "platform/"
)

// PlatformKey returns the document key for the platform account.
func PlatformKey(account ledger.AccountName) string {
	return keyPlatformPrefix + string(account)
}

// PlatformAccount returns the platform account stored under the key.
func PlatformAccount(key string) (ledger.AccountName, bool) {
	if !strings.HasPrefix(key, keyPlatformPrefix) {
		return "", false
	}
	return ledger.AccountName(strings.TrimPrefix(key, keyPlatformPrefix)), true
}

// =============================================================================

// Snapshot represents the state of every party after a committed
// operation. Documents hold the JSON encoding of each party by key.
type Snapshot struct {
	Number    uint64                     `json:"number"`
	Action    string                     `json:"action"`
	Time      time.Time                  `json:"time"`
	Documents map[string]json.RawMessage `json:"documents"`
}

// Serializer interface represents the behavior required to be implemented
// by any package providing support for storing snapshots.
type Serializer interface {
	Write(snapshot Snapshot) error
	Read() (Snapshot, error)
	Reset() error
	Close() error
}
