package http

import (
	"net/http"
	"strings"

	"github.com/notelens/notelens/pkg/domain/model/auth"
	"github.com/notelens/notelens/pkg/usecase"
	"github.com/notelens/notelens/pkg/utils/logging"
)

// authnMiddleware resolves the bearer credential into an identity and
// stores it in the request context. Requests without a valid credential
// never reach the handler.
func authnMiddleware(authUC usecase.AuthUseCaseInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authUC == nil {
				writeUnauthorized(w)
				return
			}

			credential := ""
			if !authUC.IsNoAuthn() {
				credential = bearerToken(r)
				if credential == "" {
					writeUnauthorized(w)
					return
				}
			}

			id, err := authUC.VerifyCredential(r.Context(), credential)
			if err != nil {
				logging.From(r.Context()).Warn("credential rejected", "error", err.Error())
				writeUnauthorized(w)
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorised"}`)) //nolint:errcheck // header already committed
}
