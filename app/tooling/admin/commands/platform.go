package commands

import (
	"errors"
	"fmt"

	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/state"
)

// History prints the finalized rounds of the platform.
func History(account string, st *state.State) error {
	if account == "" {
		return errors.New("platform account required")
	}

	p, err := st.Platform(ledger.AccountName(account))
	if err != nil {
		return err
	}

	for _, rec := range p.History() {
		fmt.Printf("Step: %d  Supply: %s  Sent: %s  Swept: %s  Paid: %d/%d  Attention: %g/%g\n",
			rec.StepNumber, rec.RoundSupply, rec.SentAmount, rec.Swept, rec.RoundPaidCount,
			rec.RegisteredUserCount, rec.RegisteredAttention, rec.TotalAttention)
	}

	return nil
}

// Platform prints the state singleton and the emission log of the platform.
func Platform(account string, st *state.State) error {
	if account == "" {
		return errors.New("platform account required")
	}

	p, err := st.Platform(ledger.AccountName(account))
	if err != nil {
		return err
	}

	ps, err := p.State()
	if err != nil {
		return err
	}

	fmt.Printf("Name: %s  Phase: %s  Step: %d\n", ps.Name, ps.Phase, ps.StepNumber)
	fmt.Printf("Users: %d  Registered: %d  Updated: %d  Paid: %d\n", ps.TotalUserCount, ps.RegisteredUserCount, ps.RoundUpdatedCount, ps.RoundPaidCount)
	fmt.Printf("Attention: %g  Registered: %g\n", ps.TotalAttention, ps.RegisteredAttention)
	fmt.Printf("Supply: %s  Sent: %s\n\n", ps.RoundSupply, ps.SentAmount)

	for _, l := range st.Locks(ledger.AccountName(account)) {
		fmt.Printf("Lock: %s\n", l.Time.Format("2006-01-02 15:04:05"))
	}
	for _, r := range st.Requests(ledger.AccountName(account)) {
		fmt.Printf("Request: %s  Amount: %s\n", r.Time.Format("2006-01-02 15:04:05"), r.Amount)
	}

	return nil
}
