// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ponpase/snax/app/services/node/handlers/v1/private"
	"github.com/ponpase/snax/app/services/node/handlers/v1/public"
	"github.com/ponpase/snax/business/core/action"
	"github.com/ponpase/snax/foundation/blockchain/state"
	"github.com/ponpase/snax/foundation/events"
	"github.com/ponpase/snax/foundation/nameservice"
	"github.com/ponpase/snax/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:    cfg.Log,
		State:  cfg.State,
		NS:     cfg.NS,
		WS:     websocket.Upgrader{},
		Evts:   cfg.Evts,
		Action: action.NewCore(cfg.Log, cfg.State, cfg.NS),
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/balances/list/:account", pbl.Balances)
	app.Handle(http.MethodGet, version, "/stat", pbl.Stat)
	app.Handle(http.MethodGet, version, "/emission/platforms", pbl.EmissionPlatforms)
	app.Handle(http.MethodGet, version, "/emission/locks/:platform", pbl.Locks)
	app.Handle(http.MethodGet, version, "/emission/requests/:platform", pbl.Requests)
	app.Handle(http.MethodGet, version, "/platforms/list", pbl.Platforms)
	app.Handle(http.MethodGet, version, "/platforms/:platform/state", pbl.PlatformState)
	app.Handle(http.MethodGet, version, "/platforms/:platform/users", pbl.Users)
	app.Handle(http.MethodGet, version, "/platforms/:platform/users/:id", pbl.User)
	app.Handle(http.MethodGet, version, "/platforms/:platform/handles/:handle", pbl.UserByHandle)
	app.Handle(http.MethodGet, version, "/platforms/:platform/accounts/:id", pbl.Account)
	app.Handle(http.MethodGet, version, "/platforms/:platform/escrow/:id", pbl.Escrow)
	app.Handle(http.MethodGet, version, "/platforms/:platform/history", pbl.History)
	app.Handle(http.MethodGet, version, "/platforms/:platform/creators", pbl.Creators)
	app.Handle(http.MethodGet, version, "/platforms/:platform/articles", pbl.Articles)
	app.Handle(http.MethodGet, version, "/platforms/:platform/bounty", pbl.Bounty)
	app.Handle(http.MethodGet, version, "/actions/list", pbl.ActionNames)
	app.Handle(http.MethodPost, version, "/actions/submit", pbl.SubmitAction)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/accounts/list", prv.Accounts)
}
