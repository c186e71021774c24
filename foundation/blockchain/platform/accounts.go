package platform

import (
	"fmt"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/signature"
)

// AddAccount registers a user on behalf of the platform or a registered
// creator. When an account name is provided the user is bound to it and
// any escrow held for the user is released to the account.
func (p *Platform) AddAccount(signers auth.Authority, creator ledger.AccountName, na NewAccount) error {
	return p.AddAccounts(signers, creator, []NewAccount{na})
}

// AddAccounts registers a batch of users.
func (p *Platform) AddAccounts(signers auth.Authority, creator ledger.AccountName, accounts []NewAccount) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireCreator(signers, creator); err != nil {
		return err
	}

	for _, na := range accounts {
		if err := p.addAccount(na); err != nil {
			return err
		}
	}

	return nil
}

// BindAccount binds an existing user to a ledger account.
func (p *Platform) BindAccount(signers auth.Authority, creator ledger.AccountName, id uint64, account ledger.AccountName, verificationPost uint64, verificationSalt string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireCreator(signers, creator); err != nil {
		return err
	}

	user, exists := p.users[id]
	if !exists {
		return fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}

	if account == "" {
		return fmt.Errorf("%w: account name required", ErrInvalidArgument)
	}

	na := NewAccount{
		ID:               id,
		Handle:           user.Handle,
		Account:          account,
		VerificationPost: verificationPost,
		VerificationSalt: verificationSalt,
		StatDiff:         p.accounts[id].StatDiff,
	}

	return p.addAccount(na)
}

// DropAccount unbinds the ledger account of a user. The platform or the
// bound account itself may drop it.
func (p *Platform) DropAccount(signers auth.Authority, initiator ledger.AccountName, id uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := signers.Require(initiator); err != nil {
		return err
	}

	if err := p.requireInitialized(); err != nil {
		return err
	}

	account, exists := p.accounts[id]
	if !exists || !account.IsBound() {
		return fmt.Errorf("%w: %d", ErrAccountNotFound, id)
	}

	if initiator != p.cfg.Account && initiator != account.Name {
		return fmt.Errorf("%w: %s can't drop account %d", auth.ErrUnauthorized, initiator, id)
	}

	if p.state.Phase == PhaseDistributing {
		return fmt.Errorf("%w: accounts can't be dropped during distribution", ErrWrongPhase)
	}

	p.unbind(id)

	return nil
}

// DropUser removes a user and its account, adjusting the platform totals.
// Escrow held for the user is kept and released if the id is bound again.
func (p *Platform) DropUser(signers auth.Authority, id uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return err
	}

	if p.state.Phase == PhaseDistributing {
		return fmt.Errorf("%w: users can't be dropped during distribution", ErrWrongPhase)
	}

	user, exists := p.users[id]
	if !exists {
		return fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}

	if p.accounts[id].IsBound() {
		p.unbind(id)
	}

	if p.counted(user) {
		p.state.TotalAttention -= user.AttentionRate
		p.state.RoundUpdatedCount--
	}
	p.state.TotalUserCount--

	delete(p.users, id)
	delete(p.accounts, id)
	delete(p.handles, signature.HashString(user.Handle))
	p.removeID(id)

	p.ev("platform: %s: dropuser: id[%d] total[%g] users[%d]", p.cfg.Account, id, p.state.TotalAttention, p.state.TotalUserCount)

	return nil
}

// Activate marks the account of the user as eligible for payments.
func (p *Platform) Activate(signers auth.Authority, id uint64) error {
	return p.setActive(signers, id, true)
}

// Deactivate stops payments to the account of the user. The account is
// still processed and marked during distribution.
func (p *Platform) Deactivate(signers auth.Authority, id uint64) error {
	return p.setActive(signers, id, false)
}

// AddCreator allows the account to register users.
func (p *Platform) AddCreator(signers auth.Authority, name ledger.AccountName) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return err
	}

	if name == "" {
		return fmt.Errorf("%w: creator name required", ErrInvalidArgument)
	}

	if _, exists := p.creators[name]; exists {
		return fmt.Errorf("%w: %s", ErrCreatorExists, name)
	}

	p.creators[name] = struct{}{}

	p.ev("platform: %s: addcreator: name[%s]", p.cfg.Account, name)

	return nil
}

// RemoveCreator revokes the right of the account to register users.
func (p *Platform) RemoveCreator(signers auth.Authority, name ledger.AccountName) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return err
	}

	if _, exists := p.creators[name]; !exists {
		return fmt.Errorf("%w: %s", ErrCreatorNotFound, name)
	}

	delete(p.creators, name)

	p.ev("platform: %s: rmcreator: name[%s]", p.cfg.Account, name)

	return nil
}

// AddSymbol adds a currency the platform accepts for social transfers
// and escrow.
func (p *Platform) AddSymbol(signers auth.Authority, code string, precision uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return err
	}

	symbol, err := asset.NewSymbol(code, precision)
	if err != nil {
		return err
	}

	for _, s := range p.state.TokenSymbols {
		if s.Code == symbol.Code {
			return fmt.Errorf("%w: %s", ErrSymbolExists, s)
		}
	}

	p.state.TokenSymbols = append(p.state.TokenSymbols, symbol)

	p.ev("platform: %s: addsymbol: symbol[%s]", p.cfg.Account, symbol)

	return nil
}

// =============================================================================

// requireCreator checks the creator authorized the call and is either the
// platform or a registered creator. The caller must hold the lock.
func (p *Platform) requireCreator(signers auth.Authority, creator ledger.AccountName) error {
	if err := signers.Require(creator); err != nil {
		return err
	}

	if err := p.requireInitialized(); err != nil {
		return err
	}

	if _, exists := p.creators[creator]; creator != p.cfg.Account && !exists {
		return fmt.Errorf("%w: platform or creator authority needed, got %s", auth.ErrUnauthorized, creator)
	}

	return nil
}

// addAccount creates the user if needed and binds it when an account
// name is provided. The caller must hold the lock.
func (p *Platform) addAccount(na NewAccount) error {
	user, exists := p.users[na.ID]
	if exists && (na.Account == "" || p.accounts[na.ID].IsBound()) {
		return fmt.Errorf("%w: %d", ErrUserExists, na.ID)
	}

	if !exists {
		if err := p.checkHandle(na.Handle, na.ID); err != nil {
			return err
		}
	}

	if na.Account != "" {
		if p.state.Phase == PhaseDistributing {
			return fmt.Errorf("%w: accounts can't be bound during distribution", ErrWrongPhase)
		}

		if na.VerificationPost == 0 {
			return fmt.Errorf("%w: verification post status id can't be empty", ErrInvalidArgument)
		}

		if na.VerificationSalt == "" {
			return fmt.Errorf("%w: verification salt can't be empty", ErrInvalidArgument)
		}

		if owner, bound := p.names[na.Account]; bound {
			return fmt.Errorf("%w: %s is bound to user %d", ErrAccountBound, na.Account, owner)
		}
	}

	if !exists {
		user = User{ID: na.ID, Handle: na.Handle}
		p.addUser(user, Account{ID: na.ID, StatDiff: na.StatDiff})
	}

	if na.Account != "" {
		if err := p.bind(na); err != nil {
			return err
		}
	}

	p.ev("platform: %s: addaccount: id[%d] handle[%s] account[%s]", p.cfg.Account, na.ID, user.Handle, na.Account)

	return nil
}

// addUser stores a new user and its placeholder account. The caller must
// hold the lock.
func (p *Platform) addUser(user User, account Account) {
	account.Created = p.cfg.Now()

	p.users[user.ID] = user
	p.accounts[user.ID] = account
	p.handles[signature.HashString(user.Handle)] = user.ID
	p.insertID(user.ID)

	p.state.TotalUserCount++
}

// bind attaches the ledger account to the user and releases the escrow
// held for it. The caller must hold the lock.
func (p *Platform) bind(na NewAccount) error {
	if err := p.claimEscrow(na.ID, na.Account); err != nil {
		return err
	}

	account := p.accounts[na.ID]
	account.Name = na.Account
	account.Active = true
	account.VerificationPost = na.VerificationPost
	account.VerificationSalt = na.VerificationSalt
	account.StatDiff = na.StatDiff
	account.Created = p.cfg.Now()
	p.accounts[na.ID] = account

	p.names[na.Account] = na.ID
	p.state.RegisteredUserCount++

	if user := p.users[na.ID]; p.counted(user) {
		p.state.RegisteredAttention += user.AttentionRate
	}

	return nil
}

// unbind turns the account of the user back into a placeholder. The
// caller must hold the lock.
func (p *Platform) unbind(id uint64) {
	account := p.accounts[id]

	delete(p.names, account.Name)
	p.state.RegisteredUserCount--

	if user := p.users[id]; p.counted(user) {
		p.state.RegisteredAttention -= user.AttentionRate
	}

	p.ev("platform: %s: dropaccount: id[%d] account[%s]", p.cfg.Account, id, account.Name)

	account.Name = ""
	account.Active = false
	account.VerificationPost = 0
	account.VerificationSalt = ""
	p.accounts[id] = account
}

// checkHandle validates the handle of a new user. The caller must hold
// the lock.
func (p *Platform) checkHandle(handle string, id uint64) error {
	if handle == "" {
		return fmt.Errorf("%w: handle of user %d can't be empty", ErrInvalidArgument, id)
	}

	if owner, exists := p.handles[signature.HashString(handle)]; exists && owner != id {
		return fmt.Errorf("%w: handle %q belongs to %d", ErrUserExists, handle, owner)
	}

	return nil
}

func (p *Platform) setActive(signers auth.Authority, id uint64, active bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return err
	}

	account, exists := p.accounts[id]
	if !exists || !account.IsBound() {
		return fmt.Errorf("%w: %d", ErrAccountNotFound, id)
	}

	account.Active = active
	p.accounts[id] = account

	p.ev("platform: %s: setactive: id[%d] active[%t]", p.cfg.Account, id, active)

	return nil
}
