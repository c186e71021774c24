// Package auth provides the authorization checks used by the protocol
// packages and the verification of signed actions submitted to the node.
package auth

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/signature"
)

// ErrUnauthorized is returned when the required account did not authorize
// the call.
var ErrUnauthorized = errors.New("unauthorized")

// Authority represents the set of accounts that authorized a call.
type Authority interface {
	Require(account ledger.AccountName) error
}

// =============================================================================

// Signers is the set of accounts that signed a call.
type Signers map[ledger.AccountName]struct{}

// NewSigners constructs a signer set for the specified accounts.
func NewSigners(accounts ...ledger.AccountName) Signers {
	s := make(Signers, len(accounts))
	for _, account := range accounts {
		s[account] = struct{}{}
	}
	return s
}

// Require fails with ErrUnauthorized if the account is not in the set.
func (s Signers) Require(account ledger.AccountName) error {
	if _, exists := s[account]; !exists {
		return fmt.Errorf("%w: missing authority of %s", ErrUnauthorized, account)
	}
	return nil
}

// =============================================================================

// Action is the payload an account signs to ask the node to run a
// protocol operation on its behalf.
type Action struct {
	Account ledger.AccountName `json:"account" validate:"required"`
	Name    string             `json:"name" validate:"required"`
	Nonce   uint64             `json:"nonce" validate:"required"`
	Data    json.RawMessage    `json:"data"`
}

// Sign signs the action with the private key of the account.
func (a Action) Sign(privateKey *ecdsa.PrivateKey) (SignedAction, error) {
	sig, err := signature.Sign(a, privateKey)
	if err != nil {
		return SignedAction{}, err
	}

	return SignedAction{Action: a, Signature: sig}, nil
}

// SignedAction is an action with the signature of the account.
type SignedAction struct {
	Action
	Signature string `json:"signature" validate:"required"`
}

// =============================================================================

// KeyStore provides the address registered for an account name.
type KeyStore interface {
	Address(account ledger.AccountName) (string, bool)
}

// Verifier validates signed actions against the registered keys and
// consumes their nonces through the nonce store.
type Verifier struct {
	keys   KeyStore
	nonces NonceStore
}

// NewVerifier constructs a verifier for the key store and nonce store.
func NewVerifier(keys KeyStore, nonces NonceStore) *Verifier {
	return &Verifier{
		keys:   keys,
		nonces: nonces,
	}
}

// Verify checks the signature belongs to the key registered for the
// account, consumes the nonce and returns the signer set for the call.
func (v *Verifier) Verify(sa SignedAction) (Signers, error) {
	address, exists := v.keys.Address(sa.Account)
	if !exists {
		return nil, fmt.Errorf("%w: no key registered for %s", ErrUnauthorized, sa.Account)
	}

	signer, err := signature.Recover(sa.Action, sa.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, err)
	}

	if signer != address {
		return nil, fmt.Errorf("%w: signed by %s, expected %s", ErrUnauthorized, signer, address)
	}

	if err := v.nonces.UseNonce(sa.Account, sa.Nonce); err != nil {
		return nil, err
	}

	return NewSigners(sa.Account), nil
}
