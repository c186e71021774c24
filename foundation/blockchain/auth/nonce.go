package auth

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ponpase/snax/foundation/blockchain/ledger"
)

// NonceStore consumes the nonce of a signed action. A nonce must be
// strictly greater than the last one consumed for the account.
type NonceStore interface {
	UseNonce(account ledger.AccountName, nonce uint64) error
}

// Nonces holds the last nonce consumed per account. It is part of the
// persisted state so replayed actions stay rejected across restarts.
type Nonces struct {
	mu   sync.RWMutex
	last map[ledger.AccountName]uint64
}

// NewNonces constructs an empty nonce record.
func NewNonces() *Nonces {
	return &Nonces{
		last: make(map[ledger.AccountName]uint64),
	}
}

// UseNonce advances the nonce of the account or fails with
// ErrUnauthorized when the nonce was already used.
func (n *Nonces) UseNonce(account ledger.AccountName, nonce uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if last := n.last[account]; nonce <= last {
		return fmt.Errorf("%w: nonce %d already used, last %d", ErrUnauthorized, nonce, last)
	}
	n.last[account] = nonce

	return nil
}

// Last returns the last nonce consumed for the account.
func (n *Nonces) Last(account ledger.AccountName) uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.last[account]
}

// Clone makes a deep copy of the nonce record.
func (n *Nonces) Clone() *Nonces {
	n.mu.RLock()
	defer n.mu.RUnlock()

	cpy := NewNonces()
	for account, nonce := range n.last {
		cpy.last[account] = nonce
	}
	return cpy
}

// Replace updates the record with the contents of the specified record.
func (n *Nonces) Replace(other *Nonces) {
	other.mu.RLock()
	last := other.last
	other.mu.RUnlock()

	n.mu.Lock()
	defer n.mu.Unlock()

	n.last = last
}

// MarshalJSON implements the json.Marshaler interface.
func (n *Nonces) MarshalJSON() ([]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return json.Marshal(n.last)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (n *Nonces) UnmarshalJSON(data []byte) error {
	var last map[ledger.AccountName]uint64
	if err := json.Unmarshal(data, &last); err != nil {
		return err
	}
	if last == nil {
		last = make(map[ledger.AccountName]uint64)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.last = last
	return nil
}
