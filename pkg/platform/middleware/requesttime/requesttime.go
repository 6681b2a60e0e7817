// Package requesttime pins "now" for the duration of a request. Status gates,
// restriction windows and payment timestamps all read the same instant.
package requesttime

import (
	"net/http"
	"time"

	"enroll/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
