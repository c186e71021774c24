// Package signature provides helper functions for signing actions and
// recovering the address of the key that signed them.
package signature

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// snaxID is added to the recovery id so signatures produced here can't be
// replayed as plain Ethereum signatures.
const snaxID = 31

// Set of error variables for handling signature errors.
var (
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrInvalidRecoveryID = errors.New("invalid recovery id")
)

// =============================================================================

// Hash returns a keccak hash of the JSON representation of the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	return hexutil.Encode(crypto.Keccak256(data))
}

// HashString returns a keccak hash of the string. It is used to build
// secondary index keys from free form text like handles and permalinks.
func HashString(s string) string {
	return hexutil.Encode(crypto.Keccak256([]byte(s)))
}

// Sign uses the specified private key to sign the value and returns the
// signature in hex form.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Make sure the key embedded in the signature matches before handing
	// the signature out.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, sig[:crypto.RecoveryIDOffset]) {
		return "", ErrInvalidSignature
	}

	sig[crypto.RecoveryIDOffset] += snaxID

	return hexutil.Encode(sig), nil
}

// Recover extracts the address of the account that signed the value.
func Recover(value any, sigHex string) (string, error) {
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}

	recID := sig[crypto.RecoveryIDOffset] - snaxID
	if recID != 0 && recID != 1 {
		return "", ErrInvalidRecoveryID
	}
	sig[crypto.RecoveryIDOffset] = recID

	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// =============================================================================

// stamp returns a 32 byte hash of the value with the snax stamp embedded
// so the data can't be confused with a signature for another system.
func stamp(value any) ([]byte, error) {
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	stamp := []byte("\x19Snax Signed Action:\n32")

	return crypto.Keccak256(stamp, crypto.Keccak256(v)), nil
}
