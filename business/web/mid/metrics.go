package mid

import (
	"context"
	"net/http"

	"github.com/ponpase/snax/business/sys/metrics"
	"github.com/ponpase/snax/foundation/web"
)

// Metrics updates program counters.
func Metrics() web.Middleware {
	m := metrics.NewHTTP()

	// This is the actual middleware function to be executed.
	mw := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			if v, verr := web.GetValues(ctx); verr == nil {
				m.ObserveRequest(r.Method, v.StatusCode, v.Now)
			}

			// The error has been handled so we can stop propagating it.
			return err
		}

		return h
	}

	return mw
}
