// Package auth reads the caller's identity. Authentication happens upstream;
// the gateway in front of this service forwards the member id in a header.
package auth

import (
	"log/slog"
	"net/http"

	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/httputil"
	"enroll/pkg/requestcontext"
)

const HeaderUserID = "X-User-ID"

// RequireUser rejects requests without a valid member id.
func RequireUser(logger *slog.Logger) func(http.Handler) http.Handler {
	return identify(logger, true)
}

// OptionalUser records the member id when one is forwarded. Anonymous
// requests pass through.
func OptionalUser(logger *slog.Logger) func(http.Handler) http.Handler {
	return identify(logger, false)
}

func identify(logger *slog.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := r.Header.Get(HeaderUserID)
			if raw == "" {
				if required {
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "member identity required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			userID, err := id.ParseUserID(raw)
			if err != nil {
				logger.WarnContext(ctx, "malformed forwarded identity",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid member identity"))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, userID)))
		})
	}
}
