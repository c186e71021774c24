package action

import (
	"encoding/json"
	"fmt"

	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
)

func transfer(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p Transfer
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	quantity, err := parseQuantity(p.Quantity)
	if err != nil {
		return nil, err
	}

	return nil, c.state.Transfer(signers, account, p.To, quantity, p.Memo)
}

func setPlatforms(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p SetPlatforms
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.SetPlatforms(signers, p.Platforms)
}

func initialize(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p Initialize
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.Initialize(signers, p.Platform, p.Init)
}

func openRound(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p Target
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.OpenRound(signers, p.Platform)
}

func submitScores(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p SubmitScores
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.SubmitScores(signers, p.Platform, p.Scores, p.CreateIfMissing)
}

func requestLock(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p Target
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.RequestLock(signers, p.Platform)
}

func startDistribution(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p Target
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.StartDistribution(signers, p.Platform)
}

func payBatch(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p PayBatch
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	result, err := c.state.PayBatch(signers, p.Platform, p.Cursor, p.MaxCount)
	if err != nil {
		return nil, err
	}

	c.metrics.ObservePayBatch(string(p.Platform), result.Paid, result.Sent.Amount, result.Finalized, result.Swept.Amount)

	if pl, err := c.state.Platform(p.Platform); err == nil {
		if st, err := pl.State(); err == nil {
			c.metrics.SetStep(string(p.Platform), st.StepNumber)
		}
	}

	return result, nil
}

func dropUser(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p UserTarget
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.DropUser(signers, p.Platform, p.ID)
}

func addAccounts(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p AddAccounts
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.AddAccounts(signers, p.Platform, account, p.Accounts)
}

func bindAccount(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p BindAccount
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.BindAccount(signers, p.Platform, account, p.ID, p.Account, p.VerificationPost, p.VerificationSalt)
}

func dropAccount(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p UserTarget
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.DropAccount(signers, p.Platform, account, p.ID)
}

func activate(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p UserTarget
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.SetActive(signers, p.Platform, p.ID, true)
}

func deactivate(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p UserTarget
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.SetActive(signers, p.Platform, p.ID, false)
}

func addCreator(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p Creator
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.AddCreator(signers, p.Platform, p.Creator)
}

func removeCreator(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p Creator
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.RemoveCreator(signers, p.Platform, p.Creator)
}

func addSymbol(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p AddSymbol
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.AddSymbol(signers, p.Platform, p.Code, p.Precision)
}

func transferSocial(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p TransferSocial
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	if p.To == 0 {
		return nil, fmt.Errorf("%w: to is required", ErrInvalidPayload)
	}

	quantity, err := parseQuantity(p.Quantity)
	if err != nil {
		return nil, err
	}

	return nil, c.state.TransferSocial(signers, p.Platform, account, p.To, quantity, p.Memo)
}

func transferSocialToHandle(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p TransferSocial
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	if p.Handle == "" {
		return nil, fmt.Errorf("%w: handle is required", ErrInvalidPayload)
	}

	quantity, err := parseQuantity(p.Quantity)
	if err != nil {
		return nil, err
	}

	return nil, c.state.TransferSocialToHandle(signers, p.Platform, account, p.Handle, quantity, p.Memo)
}

func addArticle(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p AddArticle
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.AddArticle(signers, p.Platform, p.Author, p.Permalink, p.Title, p.Created)
}

func removeArticle(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p Article
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	return nil, c.state.RemoveArticle(signers, p.Platform, p.Permalink)
}

func payBounty(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error) {
	var p PayBounty
	if err := decode(data, &p); err != nil {
		return nil, err
	}

	quantity, err := parseQuantity(p.Quantity)
	if err != nil {
		return nil, err
	}

	return nil, c.state.PayBounty(signers, p.Platform, account, p.Permalink, quantity)
}
