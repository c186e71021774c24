// Package emission implements the authority that sizes and releases new
// supply to the configured platforms according to a bonding curve, and
// enforces the cooldown windows between locks and emission requests.
package emission

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
)

// Set of error variables for handling emission errors.
var (
	ErrCooldownActive   = errors.New("cooldown active")
	ErrCurveUnsolvable  = errors.New("curve unsolvable")
	ErrPlatformNotFound = errors.New("platform not found in platforms config")
	ErrInvalidConfig    = errors.New("invalid emission config")
)

// Ledger represents the currency operations the authority needs.
type Ledger interface {
	Balance(account ledger.AccountName, symbol asset.Symbol) asset.Asset
	Supply(symbol asset.Symbol) (asset.Asset, error)
	MaxSupply(symbol asset.Symbol) (asset.Asset, error)
	Issue(to ledger.AccountName, quantity asset.Asset, memo string) error
	Transfer(from ledger.AccountName, to ledger.AccountName, quantity asset.Asset, memo string) error
}

// =============================================================================

// PlatformConfig represents the share of the emission schedule a platform
// receives. Period is expressed in period units (days by default).
type PlatformConfig struct {
	Account ledger.AccountName `json:"account" validate:"required"`
	Weight  float64            `json:"weight" validate:"gte=0,lte=1"`
	Period  int64              `json:"period" validate:"gt=0"`
}

// Lock records the moment a platform locked its round.
type Lock struct {
	Time time.Time `json:"time"`
}

// Request records an emission released to a platform.
type Request struct {
	Time   time.Time   `json:"time"`
	Amount asset.Asset `json:"amount"`
}

// Config represents the parameters of the emission authority.
type Config struct {
	Account      ledger.AccountName
	Symbol       asset.Symbol
	Curve        Curve
	LockDuration time.Duration
	PeriodUnit   time.Duration
	Now          func() time.Time
	EvHandler    func(v string, args ...any)
}

// Authority sizes and releases the round supply of every platform.
type Authority struct {
	cfg    Config
	ledger Ledger

	mu        sync.RWMutex
	platforms map[ledger.AccountName]PlatformConfig
	locks     map[ledger.AccountName][]Lock
	requests  map[ledger.AccountName][]Request
}

// New constructs an emission authority working against the ledger.
func New(cfg Config, l Ledger) (*Authority, error) {
	if cfg.Account == "" {
		return nil, fmt.Errorf("%w: system account required", ErrInvalidConfig)
	}

	if cfg.Symbol.IsZero() {
		return nil, fmt.Errorf("%w: symbol required", ErrInvalidConfig)
	}

	if err := cfg.Curve.Validate(); err != nil {
		return nil, err
	}

	if cfg.LockDuration < 0 {
		return nil, fmt.Errorf("%w: lock duration can't be negative", ErrInvalidConfig)
	}

	if cfg.PeriodUnit <= 0 {
		cfg.PeriodUnit = 24 * time.Hour
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	a := Authority{
		cfg:       cfg,
		ledger:    l,
		platforms: make(map[ledger.AccountName]PlatformConfig),
		locks:     make(map[ledger.AccountName][]Lock),
		requests:  make(map[ledger.AccountName][]Request),
	}

	return &a, nil
}

// Account returns the name of the system account.
func (a *Authority) Account() ledger.AccountName {
	return a.cfg.Account
}

// Symbol returns the symbol the authority emits.
func (a *Authority) Symbol() asset.Symbol {
	return a.cfg.Symbol
}

// SetPlatforms replaces the set of configured platforms. Lock and request
// history of removed platforms is kept so re-adding one can't bypass its
// cooldowns.
func (a *Authority) SetPlatforms(signers auth.Authority, configs []PlatformConfig) error {
	if err := signers.Require(a.cfg.Account); err != nil {
		return err
	}

	var totalWeight float64
	platforms := make(map[ledger.AccountName]PlatformConfig, len(configs))
	for _, pc := range configs {
		if pc.Account == "" {
			return fmt.Errorf("%w: platform account required", ErrInvalidConfig)
		}
		if pc.Weight < 0 {
			return fmt.Errorf("%w: platform %s weight must be greater than 0 or equal to 0", ErrInvalidConfig, pc.Account)
		}
		if pc.Period <= 0 {
			return fmt.Errorf("%w: platform %s period must be greater than 0", ErrInvalidConfig, pc.Account)
		}
		if _, exists := platforms[pc.Account]; exists {
			return fmt.Errorf("%w: platform %s listed twice", ErrInvalidConfig, pc.Account)
		}

		totalWeight += pc.Weight
		platforms[pc.Account] = pc
	}

	if totalWeight > 1 {
		return fmt.Errorf("%w: total weight %g must be less than or equal to 1", ErrInvalidConfig, totalWeight)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.platforms = platforms

	a.ev("emission: setplatforms: count[%d] weight[%g]", len(platforms), totalWeight)

	return nil
}

// Platforms returns the configured platforms sorted by account.
func (a *Authority) Platforms() []PlatformConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]PlatformConfig, 0, len(a.platforms))
	for _, pc := range a.platforms {
		out = append(out, pc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })

	return out
}

// Lock records a lock for the platform. The period of the platform is
// enforced when the emission is requested, so the lock window and the
// period run concurrently.
func (a *Authority) Lock(platform ledger.AccountName) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.platforms[platform]; !exists {
		return fmt.Errorf("%w: %s", ErrPlatformNotFound, platform)
	}

	now := a.cfg.Now()

	a.locks[platform] = append(a.locks[platform], Lock{Time: now})

	a.ev("emission: lock: platform[%s] time[%s]", platform, now.Format(time.RFC3339))

	return nil
}

// RequestEmission computes the share of the round supply that belongs to
// the platform, issues any shortfall of the system account and transfers
// the share to the platform.
func (a *Authority) RequestEmission(platform ledger.AccountName) (asset.Asset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pc, exists := a.platforms[platform]
	if !exists {
		return asset.Asset{}, fmt.Errorf("%w: %s", ErrPlatformNotFound, platform)
	}

	now := a.cfg.Now()

	if err := a.checkPeriod(pc, now); err != nil {
		return asset.Asset{}, err
	}

	if locks := a.locks[platform]; len(locks) > 0 {
		last := locks[len(locks)-1]
		if last.Time.Add(a.cfg.LockDuration).After(now) {
			return asset.Asset{}, fmt.Errorf("%w: platform %s can't request new amount of tokens because of lock, locked at %s", ErrCooldownActive, platform, last.Time.Format(time.RFC3339))
		}
	}

	supply, err := a.supply()
	if err != nil {
		return asset.Asset{}, err
	}

	maxPeriod := a.maxPeriod()

	roundSupply, err := a.cfg.Curve.RoundSupply(supply, maxPeriod)
	if err != nil {
		return asset.Asset{}, err
	}

	share := asset.New(int64(float64(roundSupply)*pc.Weight*float64(pc.Period)/float64(maxPeriod)), a.cfg.Symbol)

	a.ev("emission: request: platform[%s] circulating[%d] round[%d] share[%s]", platform, supply.Circulating(), roundSupply, share)

	if shortfall := share.Amount - supply.System; shortfall > 0 {
		if err := a.ledger.Issue(a.cfg.Account, asset.New(shortfall, a.cfg.Symbol), "amount to issue to pay platform users"); err != nil {
			return asset.Asset{}, err
		}
	}

	if share.IsPositive() {
		if err := a.ledger.Transfer(a.cfg.Account, platform, share, "platform round supply"); err != nil {
			return asset.Asset{}, err
		}
	}

	a.requests[platform] = append(a.requests[platform], Request{Time: now, Amount: share})

	return share, nil
}

// Locks returns the lock history of the platform.
func (a *Authority) Locks(platform ledger.AccountName) []Lock {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return append([]Lock(nil), a.locks[platform]...)
}

// Requests returns the emission request history of the platform.
func (a *Authority) Requests(platform ledger.AccountName) []Request {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return append([]Request(nil), a.requests[platform]...)
}

// Clone makes a deep copy of the authority bound to the specified ledger.
func (a *Authority) Clone(l Ledger) *Authority {
	a.mu.RLock()
	defer a.mu.RUnlock()

	cpy := Authority{
		cfg:       a.cfg,
		ledger:    l,
		platforms: make(map[ledger.AccountName]PlatformConfig, len(a.platforms)),
		locks:     make(map[ledger.AccountName][]Lock, len(a.locks)),
		requests:  make(map[ledger.AccountName][]Request, len(a.requests)),
	}
	for k, v := range a.platforms {
		cpy.platforms[k] = v
	}
	for k, v := range a.locks {
		cpy.locks[k] = append([]Lock(nil), v...)
	}
	for k, v := range a.requests {
		cpy.requests[k] = append([]Request(nil), v...)
	}

	return &cpy
}

// Replace updates the authority with the contents of the specified
// authority. The ledger binding is not changed.
func (a *Authority) Replace(other *Authority) {
	other.mu.RLock()
	platforms, locks, requests := other.platforms, other.locks, other.requests
	other.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.platforms = platforms
	a.locks = locks
	a.requests = requests
}

// SetEventHandler replaces the handler used to report emission activity.
func (a *Authority) SetEventHandler(evHandler func(v string, args ...any)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cfg.EvHandler = evHandler
}

// =============================================================================

type authorityJSON struct {
	Platforms []PlatformConfig                 `json:"platforms"`
	Locks     map[ledger.AccountName][]Lock    `json:"locks"`
	Requests  map[ledger.AccountName][]Request `json:"requests"`
}

// MarshalJSON implements the json.Marshaler interface.
func (a *Authority) MarshalJSON() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	platforms := make([]PlatformConfig, 0, len(a.platforms))
	for _, pc := range a.platforms {
		platforms = append(platforms, pc)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i].Account < platforms[j].Account })

	return json.Marshal(authorityJSON{
		Platforms: platforms,
		Locks:     a.locks,
		Requests:  a.requests,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface. Only the
// persisted history is restored, the config comes from New.
func (a *Authority) UnmarshalJSON(data []byte) error {
	var aj authorityJSON
	if err := json.Unmarshal(data, &aj); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.platforms = make(map[ledger.AccountName]PlatformConfig, len(aj.Platforms))
	for _, pc := range aj.Platforms {
		a.platforms[pc.Account] = pc
	}

	a.locks = aj.Locks
	if a.locks == nil {
		a.locks = make(map[ledger.AccountName][]Lock)
	}

	a.requests = aj.Requests
	if a.requests == nil {
		a.requests = make(map[ledger.AccountName][]Request)
	}

	return nil
}

// =============================================================================

// checkPeriod fails if the last emission request of the platform is still
// inside the platform period. The caller must hold the lock.
func (a *Authority) checkPeriod(pc PlatformConfig, now time.Time) error {
	requests := a.requests[pc.Account]
	if len(requests) == 0 {
		return nil
	}

	last := requests[len(requests)-1]
	if last.Time.Add(time.Duration(pc.Period) * a.cfg.PeriodUnit).After(now) {
		return fmt.Errorf("%w: platform %s can't request new amount of tokens because of period, last request at %s", ErrCooldownActive, pc.Account, last.Time.Format(time.RFC3339))
	}

	return nil
}

// maxPeriod returns the largest period across every configured platform,
// never less than one. The caller must hold the lock.
func (a *Authority) maxPeriod() int64 {
	maxPeriod := int64(1)
	for _, pc := range a.platforms {
		if pc.Period > maxPeriod {
			maxPeriod = pc.Period
		}
	}
	return maxPeriod
}

// supply reads the ledger figures the curve is evaluated against. The
// caller must hold the lock.
func (a *Authority) supply() (Supply, error) {
	maxSupply, err := a.ledger.MaxSupply(a.cfg.Symbol)
	if err != nil {
		return Supply{}, err
	}

	issued, err := a.ledger.Supply(a.cfg.Symbol)
	if err != nil {
		return Supply{}, err
	}

	var platforms int64
	for account := range a.platforms {
		platforms += a.ledger.Balance(account, a.cfg.Symbol).Amount
	}

	s := Supply{
		Max:       maxSupply.Amount,
		Issued:    issued.Amount,
		System:    a.ledger.Balance(a.cfg.Account, a.cfg.Symbol).Amount,
		Platforms: platforms,
		Unit:      a.cfg.Symbol.Unit(),
	}

	return s, nil
}

func (a *Authority) ev(v string, args ...any) {
	if a.cfg.EvHandler != nil {
		a.cfg.EvHandler(v, args...)
	}
}
