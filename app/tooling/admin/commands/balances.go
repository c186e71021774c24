// Package commands contains the functionality of the admin tooling.
package commands

import (
	"errors"
	"fmt"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/state"
	"github.com/ponpase/snax/foundation/blockchain/storage"
)

// Snapshot prints the header of the stored snapshot.
func Snapshot(snapshot storage.Snapshot) {
	fmt.Printf("Number: %d  Action: %s  Time: %s\n", snapshot.Number, snapshot.Action, snapshot.Time.Format("2006-01-02 15:04:05"))
	fmt.Printf("Documents: %d\n", len(snapshot.Documents))
}

// Balances prints the balances of the account.
func Balances(account string, st *state.State) error {
	if account == "" {
		return errors.New("account name required")
	}

	stat, err := st.Stat()
	if err != nil {
		return err
	}
	fmt.Printf("Supply: %s  Max: %s  Issuer: %s\n\n", asset.New(stat.Supply, stat.Symbol), asset.New(stat.MaxSupply, stat.Symbol), stat.Issuer)

	for _, bal := range st.Balances(ledger.AccountName(account)) {
		fmt.Printf("Account: %s  Balance: %s\n", account, bal)
	}

	return nil
}
