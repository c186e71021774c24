// Package nameservice reads the zblock/accounts folder and maps the ledger
// account names to the address of the key each account signs with.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
)

// NameService maintains a map of account names to key addresses.
type NameService struct {
	addresses map[ledger.AccountName]string
	names     map[string]ledger.AccountName
}

// New constructs a name service with the keys found in the folder. The
// file name of each key, without the .ecdsa extension, is the account name.
func New(root string) (*NameService, error) {
	ns := NameService{
		addresses: make(map[ledger.AccountName]string),
		names:     make(map[string]ledger.AccountName),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		name := ledger.AccountName(strings.TrimSuffix(path.Base(fileName), ".ecdsa"))
		ns.Register(name, crypto.PubkeyToAddress(privateKey.PublicKey).String())

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Register adds or replaces the address of the account.
func (ns *NameService) Register(account ledger.AccountName, address string) {
	if old, exists := ns.addresses[account]; exists {
		delete(ns.names, old)
	}

	ns.addresses[account] = address
	ns.names[address] = account
}

// Address returns the address of the key registered for the account.
func (ns *NameService) Address(account ledger.AccountName) (string, bool) {
	address, exists := ns.addresses[account]
	return address, exists
}

// Lookup returns the account name for the specified address.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.names[address]
	if !exists {
		return address
	}
	return string(name)
}

// Copy returns a copy of the map of account names and addresses.
func (ns *NameService) Copy() map[ledger.AccountName]string {
	cpy := make(map[ledger.AccountName]string, len(ns.addresses))
	for account, address := range ns.addresses {
		cpy[account] = address
	}
	return cpy
}
