package public

import "github.com/ponpase/snax/foundation/blockchain/ledger"

type balances struct {
	Account  ledger.AccountName `json:"account"`
	Balances []string           `json:"balances"`
}

type escrow struct {
	ID   uint64   `json:"id"`
	Held []string `json:"held"`
}
