// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ponpase/snax/business/core/action"
	"github.com/ponpase/snax/business/web/errs"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/platform"
	"github.com/ponpase/snax/foundation/blockchain/state"
	"github.com/ponpase/snax/foundation/events"
	"github.com/ponpase/snax/foundation/nameservice"
	"github.com/ponpase/snax/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	State  *state.State
	NS     *nameservice.NameService
	WS     websocket.Upgrader
	Evts   *events.Events
	Action *action.Core
}

// Events handles a web socket to provide events to a client. The prefix
// query value limits the stream to the events starting with it.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, r.URL.Query().Get("prefix"))
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitAction verifies and runs a signed action.
func (h Handlers) SubmitAction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var sa auth.SignedAction
	if err := web.Decode(r, &sa); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("submit action", "traceid", v.TraceID, "account", sa.Account, "name", sa.Name, "nonce", sa.Nonce)

	result, err := h.Action.Execute(ctx, sa)
	if err != nil {
		if errors.Is(err, action.ErrUnknownAction) || errors.Is(err, action.ErrInvalidPayload) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	return web.Respond(ctx, w, result, http.StatusOK)
}

// ActionNames returns the names of the supported actions.
func (h Handlers) ActionNames(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, action.Names(), http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Balances returns the balances of the account.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := ledger.AccountName(web.Param(r, "account"))

	bals := h.State.Balances(account)
	out := balances{
		Account:  account,
		Balances: make([]string, len(bals)),
	}
	for i, bal := range bals {
		out.Balances[i] = bal.String()
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// Stat returns the supply information of the system token.
func (h Handlers) Stat(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st, err := h.State.Stat()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// EmissionPlatforms returns the platforms of the emission authority.
func (h Handlers) EmissionPlatforms(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Platforms(), http.StatusOK)
}

// Locks returns the lock history of the platform.
func (h Handlers) Locks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := ledger.AccountName(web.Param(r, "platform"))
	return web.Respond(ctx, w, h.State.Locks(account), http.StatusOK)
}

// Requests returns the emission request history of the platform.
func (h Handlers) Requests(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := ledger.AccountName(web.Param(r, "platform"))
	return web.Respond(ctx, w, h.State.Requests(account), http.StatusOK)
}

// Platforms returns the accounts of the known platforms.
func (h Handlers) Platforms(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.PlatformAccounts(), http.StatusOK)
}

// PlatformState returns the state singleton of the platform.
func (h Handlers) PlatformState(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.platform(r)
	if err != nil {
		return err
	}

	st, err := p.State()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Users returns a page of users ordered by id.
func (h Handlers) Users(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.platform(r)
	if err != nil {
		return err
	}

	cursor, err := web.QueryUint(r, "cursor", 0)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	limit, err := web.QueryUint(r, "limit", 100)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	if limit > 1000 {
		limit = 1000
	}

	return web.Respond(ctx, w, p.Users(cursor, int(limit)), http.StatusOK)
}

// User returns the user with the id.
func (h Handlers) User(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.platform(r)
	if err != nil {
		return err
	}

	id, err := paramID(r)
	if err != nil {
		return err
	}

	user, err := p.User(id)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, user, http.StatusOK)
}

// UserByHandle returns the user with the display handle.
func (h Handlers) UserByHandle(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.platform(r)
	if err != nil {
		return err
	}

	user, err := p.UserByHandle(web.Param(r, "handle"))
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, user, http.StatusOK)
}

// Account returns the account of the user with the id.
func (h Handlers) Account(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.platform(r)
	if err != nil {
		return err
	}

	id, err := paramID(r)
	if err != nil {
		return err
	}

	account, err := p.AccountOf(id)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, account, http.StatusOK)
}

// Escrow returns the amounts held for the user with the id.
func (h Handlers) Escrow(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.platform(r)
	if err != nil {
		return err
	}

	id, err := paramID(r)
	if err != nil {
		return err
	}

	held := p.Escrow(id)
	out := escrow{
		ID:   id,
		Held: make([]string, len(held)),
	}
	for i, a := range held {
		out.Held[i] = a.String()
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// History returns the records of the finalized rounds.
func (h Handlers) History(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.platform(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, p.History(), http.StatusOK)
}

// Creators returns the accounts allowed to register users.
func (h Handlers) Creators(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.platform(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, p.Creators(), http.StatusOK)
}

// Articles returns the articles of the bounty program.
func (h Handlers) Articles(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.platform(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, p.Articles(), http.StatusOK)
}

// Bounty returns the totals of the bounty program.
func (h Handlers) Bounty(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.platform(r)
	if err != nil {
		return err
	}

	bounty, exists := p.Bounty()
	if !exists {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, bounty, http.StatusOK)
}

// =============================================================================

func (h Handlers) platform(r *http.Request) (*platform.Platform, error) {
	return h.State.Platform(ledger.AccountName(web.Param(r, "platform")))
}

func paramID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("id: %w", err), http.StatusBadRequest)
	}
	return id, nil
}
