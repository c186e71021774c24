// Package private maintains the group of handlers for operator access.
package private

import (
	"context"
	"net/http"

	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/state"
	"github.com/ponpase/snax/foundation/events"
	"github.com/ponpase/snax/foundation/nameservice"
	"github.com/ponpase/snax/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of operator endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

type platformStatus struct {
	Account    ledger.AccountName `json:"account"`
	Phase      string             `json:"phase"`
	StepNumber uint64             `json:"step_number"`
	Users      uint32             `json:"users"`
	Registered uint32             `json:"registered"`
}

type nodeStatus struct {
	Number      uint64           `json:"number"`
	Subscribers int              `json:"subscribers"`
	Platforms   []platformStatus `json:"platforms"`
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := nodeStatus{
		Number:      h.State.Number(),
		Subscribers: h.Evts.Subscribers(),
	}

	for _, account := range h.State.PlatformAccounts() {
		ps := platformStatus{
			Account: account,
			Phase:   "uninitialized",
		}

		if p, err := h.State.Platform(account); err == nil {
			if st, err := p.State(); err == nil {
				ps.Phase = st.Phase.String()
				ps.StepNumber = st.StepNumber
				ps.Users = st.TotalUserCount
				ps.Registered = st.RegisteredUserCount
			}
		}

		status.Platforms = append(status.Platforms, ps)
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Accounts returns the account names and key addresses the node knows.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.NS.Copy(), http.StatusOK)
}
