package web

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvviz/internal/core"
	appmw "github.com/JonMunkholm/csvviz/internal/web/middleware"
)

// withClientInfo stores the client address, user agent and request id in
// the request context for the upload audit trail. It runs after
// TrustedRealIP so the address is the real client.
func withClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.WithClientInfo(r.Context(), core.ClientInfo{
			IPAddress: appmw.ClientIP(r),
			UserAgent: r.UserAgent(),
			RequestID: middleware.GetReqID(r.Context()),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
