package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/tnb/foundation/web"
)

// Metrics updates program counters exposed on the debug vars endpoint.
func Metrics() web.Middleware {
	mw := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			m.requests.Add(1)
			if err != nil {
				m.errors.Add(1)
			}

			return err
		}

		return h
	}

	return mw
}
