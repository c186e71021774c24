package state

import (
	"fmt"
	"sort"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/emission"
	"github.com/ponpase/snax/foundation/blockchain/genesis"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/platform"
)

// Genesis returns the genesis values the state was built from.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Number returns the number of the last committed operation.
func (s *State) Number() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.number
}

// Nonce returns the last nonce consumed for the account.
func (s *State) Nonce(account ledger.AccountName) uint64 {
	return s.nonces.Last(account)
}

// Balances returns the balances held by the account.
func (s *State) Balances(account ledger.AccountName) []asset.Asset {
	return s.ledger.Balances(account)
}

// Stat returns the supply information of the system token.
func (s *State) Stat() (ledger.Stat, error) {
	return s.ledger.Stat(s.emission.Symbol())
}

// Platforms returns the platforms configured with the emission authority.
func (s *State) Platforms() []emission.PlatformConfig {
	return s.emission.Platforms()
}

// Locks returns the lock history of the platform.
func (s *State) Locks(account ledger.AccountName) []emission.Lock {
	return s.emission.Locks(account)
}

// Requests returns the emission request history of the platform.
func (s *State) Requests(account ledger.AccountName) []emission.Request {
	return s.emission.Requests(account)
}

// Platform returns the live platform for read access.
func (s *State) Platform(account ledger.AccountName) (*platform.Platform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.platforms[account]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, account)
	}
	return p, nil
}

// PlatformAccounts returns the accounts of every known platform.
func (s *State) PlatformAccounts() []ledger.AccountName {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ledger.AccountName, 0, len(s.platforms))
	for account := range s.platforms {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
