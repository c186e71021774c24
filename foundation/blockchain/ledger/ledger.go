// Package ledger maintains token supply and account balances. It is the
// currency bookkeeping the emission and platform packages rely on for
// balance lookups, transfers and issuance.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ponpase/snax/foundation/blockchain/asset"
)

// Set of error variables for handling ledger errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrExceedsMaxSupply  = errors.New("quantity exceeds available supply")
	ErrUnknownSymbol     = errors.New("unknown symbol")
	ErrSymbolExists      = errors.New("symbol already exists")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidAccount    = errors.New("invalid account")
)

// AccountName represents the name of an account holding balances.
type AccountName string

// Stat represents the supply information for a symbol.
type Stat struct {
	Symbol    asset.Symbol `json:"symbol"`
	Supply    int64        `json:"supply"`
	MaxSupply int64        `json:"max_supply"`
	Issuer    AccountName  `json:"issuer"`
}

// =============================================================================

// Ledger manages token supply and balances for every account.
type Ledger struct {
	mu        sync.RWMutex
	stats     map[string]Stat
	balances  map[AccountName]map[string]int64
	evHandler func(v string, args ...any)
}

// New constructs an empty ledger. The event handler is optional.
func New(evHandler func(v string, args ...any)) *Ledger {
	return &Ledger{
		stats:     make(map[string]Stat),
		balances:  make(map[AccountName]map[string]int64),
		evHandler: evHandler,
	}
}

// Create registers a new symbol with the maximum supply that can ever
// be issued.
func (l *Ledger) Create(issuer AccountName, maxSupply asset.Asset) error {
	if issuer == "" {
		return ErrInvalidAccount
	}

	if maxSupply.Amount <= 0 {
		return fmt.Errorf("%w: max supply must be positive", ErrInvalidQuantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.stats[maxSupply.Symbol.Code]; exists {
		return fmt.Errorf("%w: %s", ErrSymbolExists, maxSupply.Symbol.Code)
	}

	l.stats[maxSupply.Symbol.Code] = Stat{
		Symbol:    maxSupply.Symbol,
		MaxSupply: maxSupply.Amount,
		Issuer:    issuer,
	}

	return nil
}

// Issue creates new supply and credits it to the specified account.
func (l *Ledger) Issue(to AccountName, quantity asset.Asset, memo string) error {
	if to == "" {
		return ErrInvalidAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	stat, err := l.stat(quantity)
	if err != nil {
		return err
	}

	if quantity.Amount > stat.MaxSupply-stat.Supply {
		return fmt.Errorf("%w: issuing %s, supply %d, max %d", ErrExceedsMaxSupply, quantity, stat.Supply, stat.MaxSupply)
	}

	stat.Supply += quantity.Amount
	l.stats[quantity.Symbol.Code] = stat
	l.credit(to, quantity)

	l.ev("ledger: issue: to[%s] qty[%s] memo[%s]", to, quantity, memo)

	return nil
}

// Transfer moves funds between two accounts.
func (l *Ledger) Transfer(from AccountName, to AccountName, quantity asset.Asset, memo string) error {
	if from == "" || to == "" {
		return ErrInvalidAccount
	}

	if from == to {
		return fmt.Errorf("%w: cannot transfer to self, %s", ErrInvalidAccount, from)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.stat(quantity); err != nil {
		return err
	}

	balance := l.balances[from][quantity.Symbol.Code]
	if balance < quantity.Amount {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from, asset.New(balance, quantity.Symbol), quantity)
	}

	l.debit(from, quantity)
	l.credit(to, quantity)

	l.ev("ledger: transfer: from[%s] to[%s] qty[%s] memo[%s]", from, to, quantity, memo)

	return nil
}

// Balance returns the balance the account holds for the specified symbol.
func (l *Ledger) Balance(account AccountName, symbol asset.Symbol) asset.Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return asset.New(l.balances[account][symbol.Code], symbol)
}

// Balances returns all the balances for the specified account sorted
// by symbol code.
func (l *Ledger) Balances(account AccountName) []asset.Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]asset.Asset, 0, len(l.balances[account]))
	for code, amount := range l.balances[account] {
		out = append(out, asset.New(amount, l.stats[code].Symbol))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol.Code < out[j].Symbol.Code })
	return out
}

// Stat returns the supply information for the symbol.
func (l *Ledger) Stat(symbol asset.Symbol) (Stat, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stat, exists := l.stats[symbol.Code]
	if !exists {
		return Stat{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol.Code)
	}
	return stat, nil
}

// Supply returns the currently issued supply of the symbol.
func (l *Ledger) Supply(symbol asset.Symbol) (asset.Asset, error) {
	stat, err := l.Stat(symbol)
	if err != nil {
		return asset.Asset{}, err
	}
	return asset.New(stat.Supply, stat.Symbol), nil
}

// MaxSupply returns the maximum supply that can be issued for the symbol.
func (l *Ledger) MaxSupply(symbol asset.Symbol) (asset.Asset, error) {
	stat, err := l.Stat(symbol)
	if err != nil {
		return asset.Asset{}, err
	}
	return asset.New(stat.MaxSupply, stat.Symbol), nil
}

// Clone makes a deep copy of the ledger. The copy shares the event handler.
func (l *Ledger) Clone() *Ledger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cpy := New(l.evHandler)
	for code, stat := range l.stats {
		cpy.stats[code] = stat
	}
	for account, bals := range l.balances {
		m := make(map[string]int64, len(bals))
		for code, amount := range bals {
			m[code] = amount
		}
		cpy.balances[account] = m
	}
	return cpy
}

// Replace updates the ledger with the contents of the specified ledger.
func (l *Ledger) Replace(other *Ledger) {
	other.mu.RLock()
	stats, balances := other.stats, other.balances
	other.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats = stats
	l.balances = balances
}

// SetEventHandler replaces the handler used to report ledger activity.
func (l *Ledger) SetEventHandler(evHandler func(v string, args ...any)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evHandler = evHandler
}

// =============================================================================

type ledgerJSON struct {
	Stats    []Stat                           `json:"stats"`
	Balances map[AccountName]map[string]int64 `json:"balances"`
}

// MarshalJSON implements the json.Marshaler interface.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	lj := ledgerJSON{
		Stats:    make([]Stat, 0, len(l.stats)),
		Balances: l.balances,
	}
	for _, stat := range l.stats {
		lj.Stats = append(lj.Stats, stat)
	}
	sort.Slice(lj.Stats, func(i, j int) bool { return lj.Stats[i].Symbol.Code < lj.Stats[j].Symbol.Code })

	return json.Marshal(lj)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var lj ledgerJSON
	if err := json.Unmarshal(data, &lj); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats = make(map[string]Stat, len(lj.Stats))
	for _, stat := range lj.Stats {
		l.stats[stat.Symbol.Code] = stat
	}

	l.balances = lj.Balances
	if l.balances == nil {
		l.balances = make(map[AccountName]map[string]int64)
	}

	return nil
}

// =============================================================================

// stat validates the quantity against the registered symbol. The caller must
// hold the lock.
func (l *Ledger) stat(quantity asset.Asset) (Stat, error) {
	stat, exists := l.stats[quantity.Symbol.Code]
	if !exists {
		return Stat{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, quantity.Symbol.Code)
	}

	if stat.Symbol.Precision != quantity.Symbol.Precision {
		return Stat{}, fmt.Errorf("%w: %s", asset.ErrSymbolMismatch, quantity.Symbol)
	}

	if quantity.Amount <= 0 {
		return Stat{}, fmt.Errorf("%w: %s must be positive", ErrInvalidQuantity, quantity)
	}

	return stat, nil
}

func (l *Ledger) credit(account AccountName, quantity asset.Asset) {
	bals, exists := l.balances[account]
	if !exists {
		bals = make(map[string]int64)
		l.balances[account] = bals
	}
	bals[quantity.Symbol.Code] += quantity.Amount
}

func (l *Ledger) debit(account AccountName, quantity asset.Asset) {
	bals := l.balances[account]
	bals[quantity.Symbol.Code] -= quantity.Amount
	if bals[quantity.Symbol.Code] == 0 {
		delete(bals, quantity.Symbol.Code)
	}
	if len(bals) == 0 {
		delete(l.balances, account)
	}
}

func (l *Ledger) ev(v string, args ...any) {
	if l.evHandler != nil {
		l.evHandler(v, args...)
	}
}
