// Package handlers manages the bank, validator and debug muxes of the node.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/ardanlabs/tnb/app/services/node/handlers/debug/checkgrp"
	v1 "github.com/ardanlabs/tnb/app/services/node/handlers/v1"
	"github.com/ardanlabs/tnb/business/core/ledger"
	"github.com/ardanlabs/tnb/business/web/mid"
	"github.com/ardanlabs/tnb/foundation/events"
	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
	"github.com/ardanlabs/tnb/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown    chan os.Signal
	Log         *zap.SugaredLogger
	Ledger      *ledger.Ledger
	NodeConfig  nodes.ConfigResponse
	Evts        *events.Events
	CORSOrigins []string
}

// BankMux constructs a http.Handler with all the bank routes defined.
func BankMux(cfg MuxConfig) http.Handler {
	app := newApp(cfg)

	v1.BankRoutes(app, v1.Config{
		Log:        cfg.Log,
		Ledger:     cfg.Ledger,
		NodeConfig: cfg.NodeConfig,
		Evts:       cfg.Evts,
	})

	return app
}

// ValidatorMux constructs a http.Handler with all the primary validator
// routes defined.
func ValidatorMux(cfg MuxConfig) http.Handler {
	app := newApp(cfg)

	v1.ValidatorRoutes(app, v1.Config{
		Log:        cfg.Log,
		Ledger:     cfg.Ledger,
		NodeConfig: cfg.NodeConfig,
	})

	return app
}

func newApp(cfg MuxConfig) *web.App {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors(origins...),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests from browser wallets.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h)

	return app
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service. This bypassing the use of the
// DefaultServerMux. Using the DefaultServerMux would be a security risk since
// a dependency could inject a handler into our service without us knowing it.
func DebugMux(build string, log *zap.SugaredLogger, db checkgrp.StatusChecker) http.Handler {
	mux := DebugStandardLibraryMux()

	// Register debug check endpoints.
	cgh := checkgrp.Handlers{
		Build: build,
		Log:   log,
		DB:    db,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	return mux
}
