package mid

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/ardanlabs/tnb/foundation/web"
)

// Panics recovers from panics and converts the panic to an error so it is
// reported in Metrics and handled in Errors.
func Panics() web.Middleware {
	mw := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {

			// Defer a function to recover from a panic and set the err return
			// variable after the fact.
			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					err = fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(trace))

					m.panics.Add(1)
				}
			}()

			return handler(ctx, w, r)
		}

		return h
	}

	return mw
}

// =============================================================================

// m contains the global program counters for the application.
var m = struct {
	requests *expvar.Int
	errors   *expvar.Int
	panics   *expvar.Int
}{
	requests: expvar.NewInt("requests"),
	errors:   expvar.NewInt("errors"),
	panics:   expvar.NewInt("panics"),
}
