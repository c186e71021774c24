// Package action is the core API for the signed actions accounts submit to
// the node. It verifies the signature of an action, decodes and validates
// its payload and runs the matching protocol operation.
package action

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ponpase/snax/business/sys/metrics"
	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/state"
	"github.com/ponpase/snax/foundation/validate"
	"go.uber.org/zap"
)

// ErrUnknownAction is returned when the action name has no handler.
var ErrUnknownAction = errors.New("unknown action")

// ErrInvalidPayload is returned when the action data can't be decoded.
var ErrInvalidPayload = errors.New("invalid payload")

// handler runs a single action for the signing account.
type handler func(c *Core, account ledger.AccountName, signers auth.Signers, data json.RawMessage) (any, error)

var handlers = map[string]handler{
	"transfer":          transfer,
	"setplatforms":      setPlatforms,
	"initialize":        initialize,
	"openround":         openRound,
	"submitscores":      submitScores,
	"requestlock":       requestLock,
	"startdistribution": startDistribution,
	"paybatch":          payBatch,
	"dropuser":          dropUser,
	"addaccounts":       addAccounts,
	"bindaccount":       bindAccount,
	"dropaccount":       dropAccount,
	"activate":          activate,
	"deactivate":        deactivate,
	"addcreator":        addCreator,
	"rmcreator":         removeCreator,
	"addsymbol":         addSymbol,
	"transfersoc":       transferSocial,
	"transfersoca":      transferSocialToHandle,
	"addarticle":        addArticle,
	"rmarticle":         removeArticle,
	"paybounty":         payBounty,
}

// Names returns the sorted names of the supported actions.
func Names() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================

// Core manages the set of APIs for signed action access.
type Core struct {
	log      *zap.SugaredLogger
	state    *state.State
	verifier *auth.Verifier
	metrics  *metrics.Protocol
}

// NewCore constructs a core for signed action api access.
func NewCore(log *zap.SugaredLogger, st *state.State, keys auth.KeyStore) *Core {
	return &Core{
		log:      log,
		state:    st,
		verifier: auth.NewVerifier(keys, st),
		metrics:  metrics.NewProtocol(),
	}
}

// Execute verifies the signed action and runs it against the state.
func (c *Core) Execute(ctx context.Context, sa auth.SignedAction) (Result, error) {
	start := time.Now()

	if err := validate.Check(sa); err != nil {
		return Result{}, err
	}

	h, exists := handlers[sa.Name]
	if !exists {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownAction, sa.Name)
	}

	signers, err := c.verifier.Verify(sa)
	if err != nil {
		c.metrics.ObserveAction(sa.Name, err, start)
		return Result{}, err
	}

	data, err := h(c, sa.Account, signers, sa.Data)
	c.metrics.ObserveAction(sa.Name, err, start)
	if err != nil {
		return Result{}, err
	}

	c.log.Infow("action", "name", sa.Name, "account", sa.Account, "nonce", sa.Nonce, "since", time.Since(start))

	return Result{Action: sa.Name, Number: c.state.Number(), Data: data}, nil
}

// =============================================================================

// decode unmarshals and validates the payload of an action.
func decode(data json.RawMessage, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPayload, err)
	}

	return validate.Check(v)
}

func parseQuantity(s string) (asset.Asset, error) {
	quantity, err := asset.Parse(s)
	if err != nil {
		return asset.Asset{}, fmt.Errorf("quantity: %w", err)
	}
	return quantity, nil
}
