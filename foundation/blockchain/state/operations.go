package state

import (
	"time"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/emission"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/platform"
)

// UseNonce consumes the nonce of a signed action of the account. The nonce
// is persisted with the state so a replayed action stays rejected after
// a restart.
func (s *State) UseNonce(account ledger.AccountName, nonce uint64) error {
	return s.Execute("usenonce", func(tx *Tx) error {
		return tx.Nonces.UseNonce(account, nonce)
	})
}

// Transfer moves funds between two ledger accounts.
func (s *State) Transfer(signers auth.Authority, from ledger.AccountName, to ledger.AccountName, quantity asset.Asset, memo string) error {
	return s.Execute("transfer", func(tx *Tx) error {
		if err := signers.Require(from); err != nil {
			return err
		}
		return tx.Ledger.Transfer(from, to, quantity, memo)
	})
}

// SetPlatforms replaces the platforms receiving a share of the emission.
func (s *State) SetPlatforms(signers auth.Authority, configs []emission.PlatformConfig) error {
	return s.Execute("setplatforms", func(tx *Tx) error {
		return tx.Emission.SetPlatforms(signers, configs)
	})
}

// =============================================================================

// Initialize creates the singleton of the platform.
func (s *State) Initialize(signers auth.Authority, account ledger.AccountName, init platform.Init) error {
	return s.onPlatform("initialize", account, func(p *platform.Platform) error {
		return p.Initialize(signers, init)
	})
}

// OpenRound starts collecting scores on the platform.
func (s *State) OpenRound(signers auth.Authority, account ledger.AccountName) error {
	return s.onPlatform("openround", account, func(p *platform.Platform) error {
		return p.OpenRound(signers)
	})
}

// SubmitScores records a batch of attention scores on the platform.
func (s *State) SubmitScores(signers auth.Authority, account ledger.AccountName, scores []platform.Score, createIfMissing bool) error {
	return s.onPlatform("submitscores", account, func(p *platform.Platform) error {
		return p.SubmitScores(signers, scores, createIfMissing)
	})
}

// RequestLock locks the round of the platform with the emission authority.
func (s *State) RequestLock(signers auth.Authority, account ledger.AccountName) error {
	return s.onPlatform("requestlock", account, func(p *platform.Platform) error {
		return p.RequestLock(signers)
	})
}

// StartDistribution requests the round supply of the platform.
func (s *State) StartDistribution(signers auth.Authority, account ledger.AccountName) error {
	return s.onPlatform("startdistribution", account, func(p *platform.Platform) error {
		return p.StartDistribution(signers)
	})
}

// PayBatch pays the next batch of accounts of the platform.
func (s *State) PayBatch(signers auth.Authority, account ledger.AccountName, cursor uint64, maxCount uint32) (platform.BatchResult, error) {
	var result platform.BatchResult
	err := s.onPlatform("paybatch", account, func(p *platform.Platform) error {
		var err error
		result, err = p.PayBatch(signers, cursor, maxCount)
		return err
	})
	return result, err
}

// DropUser removes a user from the platform.
func (s *State) DropUser(signers auth.Authority, account ledger.AccountName, id uint64) error {
	return s.onPlatform("dropuser", account, func(p *platform.Platform) error {
		return p.DropUser(signers, id)
	})
}

// AddAccounts registers users on the platform.
func (s *State) AddAccounts(signers auth.Authority, account ledger.AccountName, creator ledger.AccountName, accounts []platform.NewAccount) error {
	return s.onPlatform("addaccounts", account, func(p *platform.Platform) error {
		return p.AddAccounts(signers, creator, accounts)
	})
}

// BindAccount binds a user of the platform to a ledger account.
func (s *State) BindAccount(signers auth.Authority, account ledger.AccountName, creator ledger.AccountName, id uint64, name ledger.AccountName, verificationPost uint64, verificationSalt string) error {
	return s.onPlatform("bindaccount", account, func(p *platform.Platform) error {
		return p.BindAccount(signers, creator, id, name, verificationPost, verificationSalt)
	})
}

// DropAccount unbinds the ledger account of a user of the platform.
func (s *State) DropAccount(signers auth.Authority, account ledger.AccountName, initiator ledger.AccountName, id uint64) error {
	return s.onPlatform("dropaccount", account, func(p *platform.Platform) error {
		return p.DropAccount(signers, initiator, id)
	})
}

// SetActive activates or deactivates the account of a user.
func (s *State) SetActive(signers auth.Authority, account ledger.AccountName, id uint64, active bool) error {
	action := "deactivate"
	if active {
		action = "activate"
	}

	return s.onPlatform(action, account, func(p *platform.Platform) error {
		if active {
			return p.Activate(signers, id)
		}
		return p.Deactivate(signers, id)
	})
}

// AddCreator allows an account to register users on the platform.
func (s *State) AddCreator(signers auth.Authority, account ledger.AccountName, creator ledger.AccountName) error {
	return s.onPlatform("addcreator", account, func(p *platform.Platform) error {
		return p.AddCreator(signers, creator)
	})
}

// RemoveCreator revokes the right of an account to register users.
func (s *State) RemoveCreator(signers auth.Authority, account ledger.AccountName, creator ledger.AccountName) error {
	return s.onPlatform("rmcreator", account, func(p *platform.Platform) error {
		return p.RemoveCreator(signers, creator)
	})
}

// AddSymbol adds a currency the platform accepts.
func (s *State) AddSymbol(signers auth.Authority, account ledger.AccountName, code string, precision uint8) error {
	return s.onPlatform("addsymbol", account, func(p *platform.Platform) error {
		return p.AddSymbol(signers, code, precision)
	})
}

// TransferSocial pays a platform user by id.
func (s *State) TransferSocial(signers auth.Authority, account ledger.AccountName, from ledger.AccountName, to uint64, quantity asset.Asset, memo string) error {
	return s.onPlatform("transfersoc", account, func(p *platform.Platform) error {
		return p.Transfer(signers, from, to, quantity, memo)
	})
}

// TransferSocialToHandle pays a platform user by display handle.
func (s *State) TransferSocialToHandle(signers auth.Authority, account ledger.AccountName, from ledger.AccountName, handle string, quantity asset.Asset, memo string) error {
	return s.onPlatform("transfersoca", account, func(p *platform.Platform) error {
		return p.TransferToHandle(signers, from, handle, quantity, memo)
	})
}

// AddArticle enrolls an article in the bounty program of the platform.
func (s *State) AddArticle(signers auth.Authority, account ledger.AccountName, author uint64, permalink string, title string, created time.Time) error {
	return s.onPlatform("addarticle", account, func(p *platform.Platform) error {
		return p.AddArticle(signers, author, permalink, title, created)
	})
}

// RemoveArticle removes an article from the bounty program.
func (s *State) RemoveArticle(signers auth.Authority, account ledger.AccountName, permalink string) error {
	return s.onPlatform("rmarticle", account, func(p *platform.Platform) error {
		return p.RemoveArticle(signers, permalink)
	})
}

// PayBounty pays the author of an article of the bounty program.
func (s *State) PayBounty(signers auth.Authority, account ledger.AccountName, payer ledger.AccountName, permalink string, quantity asset.Asset) error {
	return s.onPlatform("paybounty", account, func(p *platform.Platform) error {
		return p.PayBounty(signers, payer, permalink, quantity)
	})
}

// =============================================================================

func (s *State) onPlatform(action string, account ledger.AccountName, fn func(p *platform.Platform) error) error {
	return s.Execute(action, func(tx *Tx) error {
		p, err := tx.Platform(account)
		if err != nil {
			return err
		}
		return fn(p)
	})
}
