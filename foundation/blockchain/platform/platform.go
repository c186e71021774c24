// Package platform implements the round based attention ledger of a
// platform: the round state machine, score collection, the paginated
// distribution of the round supply, social transfers with escrow for
// unbound users and the bounty program.
package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/signature"
)

// Set of error variables for handling platform errors.
var (
	ErrNotInitialized     = errors.New("platform must be initialized")
	ErrAlreadyInitialized = errors.New("platform is already initialized")
	ErrWrongPhase         = errors.New("wrong phase")
	ErrAlreadyUpdating    = errors.New("platform is already updating")
	ErrInvalidScore       = errors.New("incorrect attention rate")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUserExists         = errors.New("user already exists")
	ErrAccountBound       = errors.New("account is already bound")
	ErrCreatorExists      = errors.New("creator already registered")
	ErrCreatorNotFound    = errors.New("creator isn't registered")
	ErrSymbolExists       = errors.New("symbol already added")
	ErrSymbolNotAllowed   = errors.New("symbol not allowed")
	ErrArticleExists      = errors.New("article already added")
	ErrArticleNotFound    = errors.New("article not found")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// Ledger represents the currency operations the platform needs.
type Ledger interface {
	Balance(account ledger.AccountName, symbol asset.Symbol) asset.Asset
	Transfer(from ledger.AccountName, to ledger.AccountName, quantity asset.Asset, memo string) error
}

// Emission represents the authority that locks rounds and releases the
// round supply to the platform.
type Emission interface {
	Lock(platform ledger.AccountName) error
	RequestEmission(platform ledger.AccountName) (asset.Asset, error)
}

// =============================================================================

// Config represents the configuration required to construct a platform.
type Config struct {
	Account       ledger.AccountName
	EscrowAccount ledger.AccountName
	MinAttention  float64
	Now           func() time.Time
	EvHandler     func(v string, args ...any)
}

// Platform manages the users of a platform and the rounds that pay them.
type Platform struct {
	cfg      Config
	ledger   Ledger
	emission Emission

	mu          sync.RWMutex
	state       *State
	users       map[uint64]User
	accounts    map[uint64]Account
	ids         []uint64
	handles     map[string]uint64
	names       map[ledger.AccountName]uint64
	escrow      map[string]map[uint64]int64
	creators    map[ledger.AccountName]struct{}
	history     []HistoryRecord
	articles    map[uint64]Article
	permalinks  map[string]uint64
	authors     map[uint64]uint64
	nextArticle uint64
	bounty      *Bounty
}

// New constructs a platform that is not yet initialized.
func New(cfg Config, l Ledger, e Emission) (*Platform, error) {
	if cfg.Account == "" {
		return nil, fmt.Errorf("%w: platform account required", ErrInvalidArgument)
	}

	if cfg.EscrowAccount == "" {
		return nil, fmt.Errorf("%w: escrow account required", ErrInvalidArgument)
	}

	if cfg.MinAttention < 0 {
		return nil, fmt.Errorf("%w: min attention can't be negative", ErrInvalidArgument)
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	p := Platform{
		cfg:      cfg,
		ledger:   l,
		emission: e,
	}
	p.reset()

	return &p, nil
}

// Account returns the ledger account of the platform.
func (p *Platform) Account() ledger.AccountName {
	return p.cfg.Account
}

// Initialize creates the platform singleton.
func (p *Platform) Initialize(signers auth.Authority, init Init) error {
	if err := signers.Require(p.cfg.Account); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != nil {
		return ErrAlreadyInitialized
	}

	if init.Name == "" {
		return fmt.Errorf("%w: platform name can't be empty", ErrInvalidArgument)
	}

	if init.EmissionAuthority == "" || init.Treasury == "" {
		return fmt.Errorf("%w: emission authority and treasury required", ErrInvalidArgument)
	}

	symbol, err := asset.NewSymbol(init.Symbol, init.Precision)
	if err != nil {
		return err
	}

	p.state = &State{
		Name:              init.Name,
		Account:           p.cfg.Account,
		EmissionAuthority: init.EmissionAuthority,
		Treasury:          init.Treasury,
		RoundSupply:       asset.Zero(symbol),
		StepNumber:        1,
		Phase:             PhaseIdle,
		SentAmount:        asset.Zero(symbol),
		TokenSymbols:      []asset.Symbol{symbol},
	}

	p.ev("platform: %s: initialize: name[%s] symbol[%s] treasury[%s]", p.cfg.Account, init.Name, symbol, init.Treasury)

	return nil
}

// =============================================================================

// State returns a copy of the platform singleton.
func (p *Platform) State() (State, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state == nil {
		return State{}, ErrNotInitialized
	}

	s := *p.state
	s.TokenSymbols = append([]asset.Symbol(nil), p.state.TokenSymbols...)

	return s, nil
}

// User returns the user with the specified id.
func (p *Platform) User(id uint64) (User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	user, exists := p.users[id]
	if !exists {
		return User{}, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	return user, nil
}

// UserByHandle returns the user with the specified display handle.
func (p *Platform) UserByHandle(handle string) (User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	id, exists := p.handles[signature.HashString(handle)]
	if !exists {
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, handle)
	}
	return p.users[id], nil
}

// Users returns up to limit users starting at the cursor, in id order.
func (p *Platform) Users(cursor uint64, limit int) []User {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []User
	for i := p.search(cursor); i < len(p.ids) && len(out) < limit; i++ {
		out = append(out, p.users[p.ids[i]])
	}
	return out
}

// AccountOf returns the account of the user with the specified id.
func (p *Platform) AccountOf(id uint64) (Account, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	account, exists := p.accounts[id]
	if !exists {
		return Account{}, fmt.Errorf("%w: %d", ErrAccountNotFound, id)
	}
	return account, nil
}

// Escrow returns the amounts held in escrow for the user, one per symbol.
func (p *Platform) Escrow(id uint64) []asset.Asset {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state == nil {
		return nil
	}

	var out []asset.Asset
	for _, symbol := range p.state.TokenSymbols {
		if amount := p.escrow[symbol.Code][id]; amount > 0 {
			out = append(out, asset.New(amount, symbol))
		}
	}
	return out
}

// History returns the finalized rounds, oldest first.
func (p *Platform) History() []HistoryRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]HistoryRecord(nil), p.history...)
}

// Creators returns the accounts allowed to register users.
func (p *Platform) Creators() []ledger.AccountName {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return sortedNames(p.creators)
}

// =============================================================================

// Clone makes a deep copy of the platform bound to the specified ledger
// and emission authority.
func (p *Platform) Clone(l Ledger, e Emission) *Platform {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cpy := Platform{
		cfg:         p.cfg,
		ledger:      l,
		emission:    e,
		users:       make(map[uint64]User, len(p.users)),
		accounts:    make(map[uint64]Account, len(p.accounts)),
		ids:         append([]uint64(nil), p.ids...),
		handles:     make(map[string]uint64, len(p.handles)),
		names:       make(map[ledger.AccountName]uint64, len(p.names)),
		escrow:      make(map[string]map[uint64]int64, len(p.escrow)),
		creators:    make(map[ledger.AccountName]struct{}, len(p.creators)),
		history:     append([]HistoryRecord(nil), p.history...),
		articles:    make(map[uint64]Article, len(p.articles)),
		permalinks:  make(map[string]uint64, len(p.permalinks)),
		authors:     make(map[uint64]uint64, len(p.authors)),
		nextArticle: p.nextArticle,
	}

	if p.state != nil {
		s := *p.state
		s.TokenSymbols = append([]asset.Symbol(nil), p.state.TokenSymbols...)
		cpy.state = &s
	}

	if p.bounty != nil {
		b := *p.bounty
		cpy.bounty = &b
	}

	for k, v := range p.users {
		cpy.users[k] = v
	}
	for k, v := range p.accounts {
		v.StatDiff = append([]uint32(nil), v.StatDiff...)
		cpy.accounts[k] = v
	}
	for k, v := range p.handles {
		cpy.handles[k] = v
	}
	for k, v := range p.names {
		cpy.names[k] = v
	}
	for code, held := range p.escrow {
		m := make(map[uint64]int64, len(held))
		for id, amount := range held {
			m[id] = amount
		}
		cpy.escrow[code] = m
	}
	for k := range p.creators {
		cpy.creators[k] = struct{}{}
	}
	for k, v := range p.articles {
		cpy.articles[k] = v
	}
	for k, v := range p.permalinks {
		cpy.permalinks[k] = v
	}
	for k, v := range p.authors {
		cpy.authors[k] = v
	}

	return &cpy
}

// Replace updates the platform with the contents of the specified
// platform. The ledger and emission bindings are not changed.
func (p *Platform) Replace(other *Platform) {
	other.mu.RLock()
	defer other.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = other.state
	p.users = other.users
	p.accounts = other.accounts
	p.ids = other.ids
	p.handles = other.handles
	p.names = other.names
	p.escrow = other.escrow
	p.creators = other.creators
	p.history = other.history
	p.articles = other.articles
	p.permalinks = other.permalinks
	p.authors = other.authors
	p.nextArticle = other.nextArticle
	p.bounty = other.bounty
}

// SetEventHandler replaces the handler used to report platform activity.
func (p *Platform) SetEventHandler(evHandler func(v string, args ...any)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cfg.EvHandler = evHandler
}

// =============================================================================

type platformJSON struct {
	State       *State                      `json:"state"`
	Users       []User                      `json:"users"`
	Accounts    []Account                   `json:"accounts"`
	Escrow      map[string]map[uint64]int64 `json:"escrow"`
	Creators    []ledger.AccountName        `json:"creators"`
	History     []HistoryRecord             `json:"history"`
	Articles    []Article                   `json:"articles"`
	NextArticle uint64                      `json:"next_article"`
	Bounty      *Bounty                     `json:"bounty,omitempty"`
}

// MarshalJSON implements the json.Marshaler interface.
func (p *Platform) MarshalJSON() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pj := platformJSON{
		State:       p.state,
		Users:       make([]User, 0, len(p.ids)),
		Accounts:    make([]Account, 0, len(p.ids)),
		Escrow:      p.escrow,
		Creators:    sortedNames(p.creators),
		History:     p.history,
		Articles:    make([]Article, 0, len(p.articles)),
		NextArticle: p.nextArticle,
		Bounty:      p.bounty,
	}

	for _, id := range p.ids {
		pj.Users = append(pj.Users, p.users[id])
		pj.Accounts = append(pj.Accounts, p.accounts[id])
	}

	for _, article := range p.articles {
		pj.Articles = append(pj.Articles, article)
	}
	sort.Slice(pj.Articles, func(i, j int) bool { return pj.Articles[i].Seq < pj.Articles[j].Seq })

	return json.Marshal(pj)
}

// UnmarshalJSON implements the json.Unmarshaler interface. The secondary
// indexes are rebuilt from the primary collections.
func (p *Platform) UnmarshalJSON(data []byte) error {
	var pj platformJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.reset()

	p.state = pj.State
	p.history = pj.History
	p.nextArticle = pj.NextArticle
	p.bounty = pj.Bounty

	for _, user := range pj.Users {
		p.users[user.ID] = user
		p.ids = append(p.ids, user.ID)
		p.handles[signature.HashString(user.Handle)] = user.ID
	}
	sort.Slice(p.ids, func(i, j int) bool { return p.ids[i] < p.ids[j] })

	for _, account := range pj.Accounts {
		if _, exists := p.users[account.ID]; !exists {
			return fmt.Errorf("%w: account %d has no user", ErrUserNotFound, account.ID)
		}
		p.accounts[account.ID] = account
		if account.IsBound() {
			p.names[account.Name] = account.ID
		}
	}

	for code, held := range pj.Escrow {
		p.escrow[code] = held
	}

	for _, name := range pj.Creators {
		p.creators[name] = struct{}{}
	}

	for _, article := range pj.Articles {
		p.articles[article.Seq] = article
		p.permalinks[signature.HashString(article.Permalink)] = article.Seq
		p.authors[article.Author] = article.Seq
	}

	return nil
}

// =============================================================================

// reset empties every collection. The caller must hold the lock.
func (p *Platform) reset() {
	p.state = nil
	p.users = make(map[uint64]User)
	p.accounts = make(map[uint64]Account)
	p.ids = nil
	p.handles = make(map[string]uint64)
	p.names = make(map[ledger.AccountName]uint64)
	p.escrow = make(map[string]map[uint64]int64)
	p.creators = make(map[ledger.AccountName]struct{})
	p.history = nil
	p.articles = make(map[uint64]Article)
	p.permalinks = make(map[string]uint64)
	p.authors = make(map[uint64]uint64)
	p.nextArticle = 0
	p.bounty = nil
}

// requireOperator checks the platform authorized the call and the
// singleton exists. The caller must hold the lock.
func (p *Platform) requireOperator(signers auth.Authority) error {
	if err := signers.Require(p.cfg.Account); err != nil {
		return err
	}
	return p.requireInitialized()
}

// requireInitialized fails if the singleton doesn't exist. The caller
// must hold the lock.
func (p *Platform) requireInitialized() error {
	if p.state == nil {
		return ErrNotInitialized
	}
	return nil
}

// search returns the index of the first id greater than or equal to the
// specified id. The caller must hold the lock.
func (p *Platform) search(id uint64) int {
	return sort.Search(len(p.ids), func(i int) bool { return p.ids[i] >= id })
}

// insertID adds the id to the ordered id list. The caller must hold the lock.
func (p *Platform) insertID(id uint64) {
	i := p.search(id)
	p.ids = append(p.ids, 0)
	copy(p.ids[i+1:], p.ids[i:])
	p.ids[i] = id
}

// removeID removes the id from the ordered id list. The caller must hold
// the lock.
func (p *Platform) removeID(id uint64) {
	i := p.search(id)
	if i < len(p.ids) && p.ids[i] == id {
		p.ids = append(p.ids[:i], p.ids[i+1:]...)
	}
}

// counted reports whether the user contributes to the attention totals
// of the current step. The caller must hold the lock.
func (p *Platform) counted(user User) bool {
	return user.RateVersion == p.state.StepNumber
}

func (p *Platform) ev(v string, args ...any) {
	if p.cfg.EvHandler != nil {
		p.cfg.EvHandler(v, args...)
	}
}

func sortedNames(set map[ledger.AccountName]struct{}) []ledger.AccountName {
	out := make([]ledger.AccountName, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
