package middleware

import "net/http"

// DashboardCSP allows the dashboard's own script plus Plotly from its CDN.
const DashboardCSP = "default-src 'self'; " +
	"script-src 'self' https://cdn.plot.ly; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: blob:; " +
	"font-src 'self'; connect-src 'self'"

// SecurityHeaders adds security headers to all responses. When csp is
// false the Content-Security-Policy header is left out.
func SecurityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				h.Set("Content-Security-Policy", DashboardCSP)
			}
			next.ServeHTTP(w, r)
		})
	}
}
