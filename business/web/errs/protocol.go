package errs

import (
	"errors"
	"net/http"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/emission"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/platform"
	"github.com/ponpase/snax/foundation/blockchain/signature"
	"github.com/ponpase/snax/foundation/blockchain/state"
)

// statuses maps the protocol errors to the status returned to the caller.
// Errors not listed here are treated as untrusted.
var statuses = []struct {
	err    error
	status int
}{
	{auth.ErrUnauthorized, http.StatusUnauthorized},
	{signature.ErrInvalidSignature, http.StatusUnauthorized},
	{signature.ErrInvalidRecoveryID, http.StatusUnauthorized},

	{platform.ErrNotInitialized, http.StatusConflict},
	{platform.ErrAlreadyInitialized, http.StatusConflict},
	{platform.ErrWrongPhase, http.StatusConflict},
	{platform.ErrAlreadyUpdating, http.StatusConflict},
	{platform.ErrUserExists, http.StatusConflict},
	{platform.ErrAccountBound, http.StatusConflict},
	{platform.ErrCreatorExists, http.StatusConflict},
	{platform.ErrSymbolExists, http.StatusConflict},
	{platform.ErrArticleExists, http.StatusConflict},
	{emission.ErrCooldownActive, http.StatusConflict},
	{ledger.ErrSymbolExists, http.StatusConflict},

	{platform.ErrUserNotFound, http.StatusNotFound},
	{platform.ErrAccountNotFound, http.StatusNotFound},
	{platform.ErrCreatorNotFound, http.StatusNotFound},
	{platform.ErrArticleNotFound, http.StatusNotFound},
	{emission.ErrPlatformNotFound, http.StatusNotFound},
	{state.ErrUnknownPlatform, http.StatusNotFound},

	{platform.ErrInvalidScore, http.StatusBadRequest},
	{platform.ErrInvalidArgument, http.StatusBadRequest},
	{platform.ErrSymbolNotAllowed, http.StatusBadRequest},
	{emission.ErrInvalidConfig, http.StatusBadRequest},
	{ledger.ErrInsufficientFunds, http.StatusBadRequest},
	{ledger.ErrExceedsMaxSupply, http.StatusBadRequest},
	{ledger.ErrUnknownSymbol, http.StatusBadRequest},
	{ledger.ErrInvalidQuantity, http.StatusBadRequest},
	{ledger.ErrInvalidAccount, http.StatusBadRequest},
	{asset.ErrSymbolMismatch, http.StatusBadRequest},
	{asset.ErrInvalidSymbol, http.StatusBadRequest},
	{asset.ErrInvalidAmount, http.StatusBadRequest},

	{emission.ErrCurveUnsolvable, http.StatusInternalServerError},
}

// FromProtocol converts an error returned by the protocol packages into a
// trusted error carrying the matching status. Unknown errors are returned
// unchanged.
func FromProtocol(err error) error {
	if err == nil || IsTrusted(err) {
		return err
	}

	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return NewTrusted(err, s.status)
		}
	}

	return err
}
