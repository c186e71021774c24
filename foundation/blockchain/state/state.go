// Package state is the core API for the ledger and implements the execution
// model every operation runs under. Operations are serialized, run against
// a copy of every party and either fully committed and persisted or fully
// discarded.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/emission"
	"github.com/ponpase/snax/foundation/blockchain/genesis"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/platform"
	"github.com/ponpase/snax/foundation/blockchain/storage"
)

// ErrUnknownPlatform is returned when an operation names a platform that
// was never configured.
var ErrUnknownPlatform = errors.New("unknown platform")

// EventHandler defines a function that is called when events occur in the
// processing of committed operations.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis   genesis.Genesis
	Storage   storage.Serializer
	EvHandler EventHandler
	Now       func() time.Time
}

// State manages the ledger, the emission authority and the platforms.
type State struct {
	mu        sync.Mutex
	genesis   genesis.Genesis
	storage   storage.Serializer
	evHandler EventHandler
	now       func() time.Time
	number    uint64

	ledger    *ledger.Ledger
	emission  *emission.Authority
	nonces    *auth.Nonces
	platforms map[ledger.AccountName]*platform.Platform
}

// New constructs the state, restoring it from storage when a snapshot
// exists or building it from the genesis file otherwise.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	s := State{
		genesis:   cfg.Genesis,
		storage:   cfg.Storage,
		evHandler: ev,
		now:       cfg.Now,
		platforms: make(map[ledger.AccountName]*platform.Platform),
	}

	snapshot, err := cfg.Storage.Read()
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if err := s.fromGenesis(); err != nil {
			return nil, fmt.Errorf("genesis: %w", err)
		}

		if err := s.persist("genesis"); err != nil {
			return nil, err
		}
		s.number++

		ev("state: new: genesis applied: platforms[%d]", len(s.platforms))

	case err != nil:
		return nil, fmt.Errorf("reading snapshot: %w", err)

	default:
		if err := s.fromSnapshot(snapshot); err != nil {
			return nil, fmt.Errorf("restoring snapshot %d: %w", snapshot.Number, err)
		}

		ev("state: new: snapshot restored: number[%d] action[%s]", snapshot.Number, snapshot.Action)
	}

	return &s, nil
}

// Shutdown cleanly brings the state down.
func (s *State) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	return s.storage.Close()
}

// =============================================================================

// Tx provides an operation with the copies of every party it may change.
type Tx struct {
	Ledger    *ledger.Ledger
	Emission  *emission.Authority
	Nonces    *auth.Nonces
	platforms map[ledger.AccountName]*platform.Platform
}

// Platform returns the copy of the specified platform.
func (tx *Tx) Platform(account ledger.AccountName) (*platform.Platform, error) {
	p, exists := tx.platforms[account]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, account)
	}
	return p, nil
}

// Execute runs the operation under the state lock against copies of the
// ledger, the emission authority and the platforms. When the operation
// succeeds the copies are persisted and replace the live parties, then
// the events raised by the operation are delivered. When it fails nothing
// is kept and no event is delivered.
func (s *State) Execute(action string, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []string
	ev := func(v string, args ...any) {
		events = append(events, fmt.Sprintf(v, args...))
	}

	tx := s.begin(ev)

	if err := fn(tx); err != nil {
		s.evHandler("state: %s: rejected: %s", action, err)
		return err
	}

	// New platforms configured by the operation need their own party.
	for _, pc := range tx.Emission.Platforms() {
		if _, exists := tx.platforms[pc.Account]; exists {
			continue
		}
		p, err := s.newPlatform(pc.Account, tx.Ledger, tx.Emission)
		if err != nil {
			return err
		}
		p.SetEventHandler(ev)
		tx.platforms[pc.Account] = p
	}

	if err := s.write(action, tx); err != nil {
		s.evHandler("state: %s: persist: ERROR: %s", action, err)
		return err
	}

	s.commit(tx)

	for _, e := range events {
		s.evHandler("%s", e)
	}
	s.evHandler("state: %s: committed: number[%d]", action, s.number)

	return nil
}

// begin makes the copies an operation runs against. The caller must hold
// the lock.
func (s *State) begin(ev func(v string, args ...any)) *Tx {
	l := s.ledger.Clone()
	l.SetEventHandler(ev)

	e := s.emission.Clone(l)
	e.SetEventHandler(ev)

	platforms := make(map[ledger.AccountName]*platform.Platform, len(s.platforms))
	for account, p := range s.platforms {
		cpy := p.Clone(l, e)
		cpy.SetEventHandler(ev)
		platforms[account] = cpy
	}

	return &Tx{
		Ledger:    l,
		Emission:  e,
		Nonces:    s.nonces.Clone(),
		platforms: platforms,
	}
}

// commit replaces the live parties with the copies. The caller must hold
// the lock.
func (s *State) commit(tx *Tx) {
	s.ledger.Replace(tx.Ledger)
	s.emission.Replace(tx.Emission)
	s.nonces.Replace(tx.Nonces)

	for account, cpy := range tx.platforms {
		p, exists := s.platforms[account]
		if !exists {
			p = cpy.Clone(s.ledger, s.emission)
			s.platforms[account] = p
		} else {
			p.Replace(cpy)
		}
		p.SetEventHandler(nil)
	}

	s.number++
}

// persist writes the live parties to storage. The caller must hold the
// lock or be constructing the state.
func (s *State) persist(action string) error {
	tx := Tx{
		Ledger:    s.ledger,
		Emission:  s.emission,
		Nonces:    s.nonces,
		platforms: s.platforms,
	}
	return s.write(action, &tx)
}

// write marshals every party into a snapshot and hands it to storage.
func (s *State) write(action string, tx *Tx) error {
	snapshot := storage.Snapshot{
		Number:    s.number + 1,
		Action:    action,
		Time:      s.now(),
		Documents: make(map[string]json.RawMessage, len(tx.platforms)+3),
	}

	data, err := json.Marshal(tx.Ledger)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	snapshot.Documents[storage.KeyLedger] = data

	data, err = json.Marshal(tx.Emission)
	if err != nil {
		return fmt.Errorf("marshal emission: %w", err)
	}
	snapshot.Documents[storage.KeyEmission] = data

	data, err = json.Marshal(tx.Nonces)
	if err != nil {
		return fmt.Errorf("marshal nonces: %w", err)
	}
	snapshot.Documents[storage.KeyNonces] = data

	for account, p := range tx.platforms {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal platform %s: %w", account, err)
		}
		snapshot.Documents[storage.PlatformKey(account)] = data
	}

	return s.storage.Write(snapshot)
}

// =============================================================================

// fromGenesis builds every party from the genesis values.
func (s *State) fromGenesis() error {
	gen := s.genesis

	maxSupply, err := gen.Supply()
	if err != nil {
		return err
	}

	s.nonces = auth.NewNonces()

	s.ledger = ledger.New(nil)
	if err := s.ledger.Create(gen.System, maxSupply); err != nil {
		return err
	}

	accounts := make([]ledger.AccountName, 0, len(gen.Balances))
	for account := range gen.Balances {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })

	for _, account := range accounts {
		balance, err := asset.Parse(gen.Balances[account])
		if err != nil {
			return fmt.Errorf("balance of %s: %w", account, err)
		}
		if balance.Symbol != maxSupply.Symbol {
			return fmt.Errorf("balance of %s: %w: %s", account, asset.ErrSymbolMismatch, balance.Symbol)
		}
		if err := s.ledger.Issue(account, balance, "genesis"); err != nil {
			return fmt.Errorf("balance of %s: %w", account, err)
		}
	}

	if s.emission, err = s.newEmission(s.ledger); err != nil {
		return err
	}

	if len(gen.Platforms) > 0 {
		if err := s.emission.SetPlatforms(auth.NewSigners(gen.System), gen.Platforms); err != nil {
			return err
		}
	}

	for _, pc := range gen.Platforms {
		p, err := s.newPlatform(pc.Account, s.ledger, s.emission)
		if err != nil {
			return err
		}

		if name, exists := gen.PlatformNames[pc.Account]; exists {
			init := platform.Init{
				Name:              name,
				EmissionAuthority: gen.System,
				Symbol:            maxSupply.Symbol.Code,
				Precision:         maxSupply.Symbol.Precision,
				Treasury:          gen.Treasury,
			}
			if err := p.Initialize(auth.NewSigners(pc.Account), init); err != nil {
				return err
			}
		}

		s.platforms[pc.Account] = p
	}

	return nil
}

// fromSnapshot restores every party from a stored snapshot.
func (s *State) fromSnapshot(snapshot storage.Snapshot) error {
	s.ledger = ledger.New(nil)
	if err := s.unmarshal(snapshot, storage.KeyLedger, s.ledger); err != nil {
		return err
	}

	var err error
	if s.emission, err = s.newEmission(s.ledger); err != nil {
		return err
	}
	if err := s.unmarshal(snapshot, storage.KeyEmission, s.emission); err != nil {
		return err
	}

	s.nonces = auth.NewNonces()
	if _, exists := snapshot.Documents[storage.KeyNonces]; exists {
		if err := s.unmarshal(snapshot, storage.KeyNonces, s.nonces); err != nil {
			return err
		}
	}

	for key := range snapshot.Documents {
		account, ok := storage.PlatformAccount(key)
		if !ok {
			continue
		}

		p, err := s.newPlatform(account, s.ledger, s.emission)
		if err != nil {
			return err
		}
		if err := s.unmarshal(snapshot, key, p); err != nil {
			return err
		}

		s.platforms[account] = p
	}

	s.number = snapshot.Number

	return nil
}

func (s *State) unmarshal(snapshot storage.Snapshot, key string, v any) error {
	doc, exists := snapshot.Documents[key]
	if !exists {
		return fmt.Errorf("document %q missing", key)
	}

	if err := json.Unmarshal(doc, v); err != nil {
		return fmt.Errorf("document %q: %w", key, err)
	}

	return nil
}

func (s *State) newEmission(l *ledger.Ledger) (*emission.Authority, error) {
	maxSupply, err := s.genesis.Supply()
	if err != nil {
		return nil, err
	}

	cfg := emission.Config{
		Account:      s.genesis.System,
		Symbol:       maxSupply.Symbol,
		Curve:        s.genesis.Curve,
		LockDuration: time.Duration(s.genesis.LockDuration),
		PeriodUnit:   time.Duration(s.genesis.PeriodUnit),
		Now:          s.now,
	}

	return emission.New(cfg, l)
}

func (s *State) newPlatform(account ledger.AccountName, l *ledger.Ledger, e *emission.Authority) (*platform.Platform, error) {
	cfg := platform.Config{
		Account:       account,
		EscrowAccount: s.genesis.Escrow,
		MinAttention:  s.genesis.MinAttention,
		Now:           s.now,
	}

	return platform.New(cfg, l, e)
}
