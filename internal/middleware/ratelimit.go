package middleware

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"skinvault/pkg/apierror"
)

// RateLimit caps how often the wrapped routes run, process wide.
// A non-positive rps disables the limit.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}
		lim := rate.NewLimiter(rate.Limit(rps), burst)
		retryAfter := strconv.Itoa(max(1, int(math.Ceil(1/rps))))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, apierror.TooManyRequests("Pipeline triggers are rate limited"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
