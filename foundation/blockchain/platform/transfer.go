package platform

import (
	"fmt"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/signature"
)

// Transfer pays a platform user by id. Users without a bound account
// receive the funds in escrow until they bind one.
func (p *Platform) Transfer(signers auth.Authority, from ledger.AccountName, to uint64, quantity asset.Asset, memo string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := signers.Require(from); err != nil {
		return err
	}

	if err := p.requireInitialized(); err != nil {
		return err
	}

	return p.transfer(from, to, quantity, memo)
}

// TransferToHandle pays a platform user by display handle.
func (p *Platform) TransferToHandle(signers auth.Authority, from ledger.AccountName, handle string, quantity asset.Asset, memo string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := signers.Require(from); err != nil {
		return err
	}

	if err := p.requireInitialized(); err != nil {
		return err
	}

	id, exists := p.handles[signature.HashString(handle)]
	if !exists {
		return fmt.Errorf("%w: to account not found, %s", ErrUserNotFound, handle)
	}

	return p.transfer(from, id, quantity, memo)
}

// =============================================================================

// transfer routes the payment to the bound account of the user or into
// escrow. The caller must hold the lock.
func (p *Platform) transfer(from ledger.AccountName, to uint64, quantity asset.Asset, memo string) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity %s must be positive", ErrInvalidArgument, quantity)
	}

	if !p.allowed(quantity.Symbol) {
		return fmt.Errorf("%w: %s", ErrSymbolNotAllowed, quantity.Symbol)
	}

	if account, exists := p.accounts[to]; exists && account.IsBound() {
		return p.ledger.Transfer(from, account.Name, quantity, memo)
	}

	if err := p.ledger.Transfer(from, p.cfg.EscrowAccount, quantity, memo); err != nil {
		return err
	}

	held, exists := p.escrow[quantity.Symbol.Code]
	if !exists {
		held = make(map[uint64]int64)
		p.escrow[quantity.Symbol.Code] = held
	}
	held[to] += quantity.Amount

	p.ev("platform: %s: escrow: from[%s] to[%d] qty[%s] held[%s]", p.cfg.Account, from, to, quantity, asset.New(held[to], quantity.Symbol))

	return nil
}

// claimEscrow forwards every amount held for the user to the account.
// The caller must hold the lock.
func (p *Platform) claimEscrow(id uint64, account ledger.AccountName) error {
	for _, symbol := range p.state.TokenSymbols {
		held := p.escrow[symbol.Code]

		amount, exists := held[id]
		if !exists {
			continue
		}

		if amount > 0 {
			if err := p.ledger.Transfer(p.cfg.EscrowAccount, account, asset.New(amount, symbol), "social"); err != nil {
				return err
			}
		}

		delete(held, id)
		if len(held) == 0 {
			delete(p.escrow, symbol.Code)
		}

		p.ev("platform: %s: claim: id[%d] account[%s] qty[%s]", p.cfg.Account, id, account, asset.New(amount, symbol))
	}

	return nil
}

// allowed reports whether the symbol is one the platform accepts. The
// caller must hold the lock.
func (p *Platform) allowed(symbol asset.Symbol) bool {
	for _, s := range p.state.TokenSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}
