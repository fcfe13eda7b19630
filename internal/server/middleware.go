package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	mylog "movieqa/internal/log"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	nbytes int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.nbytes += n
	return n, err
}

// clientIP extracts the best-effort client IP from headers or RemoteAddr.
func clientIP(r *http.Request) string {
	// X-Forwarded-For may contain a comma-separated list; take the first
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		return host[:i]
	}
	return host
}

func (a *API) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// request-id propagation: accept client-provided or generate
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		r = r.WithContext(mylog.WithRequestID(r.Context(), reqID))
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		dur := time.Since(start)
		a.log.Info("http.req",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"userAgent", r.UserAgent(),
			"remoteIP", clientIP(r),
			"status", rec.status,
			"duration_ms", int(dur/time.Millisecond),
			"bytes", rec.nbytes,
		)
		a.metrics.request(r.Method, normalizePath(r.URL.Path), rec.status, dur)
	})
}

// normalizePath collapses variable path segments for metrics labels.
func normalizePath(p string) string {
	switch {
	case strings.HasPrefix(p, "/data/"):
		return "/data/*"
	case p == "/" || p == "/ask" || p == "/search" || p == "/metrics" || p == "/healthz":
		return p
	default:
		return "other"
	}
}

type rateLimits struct {
	global float64
	ip     float64
}

// keyedLimiter hands out one token bucket per key.
type keyedLimiter struct {
	mu       sync.Mutex
	rps      float64
	limiters map[string]*rate.Limiter
}

func newKeyedLimiter(rps float64) *keyedLimiter {
	return &keyedLimiter{rps: rps, limiters: make(map[string]*rate.Limiter)}
}

func (k *keyedLimiter) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(k.rps), burst(k.rps))
		k.limiters[key] = l
	}
	return l
}

func burst(rps float64) int {
	return max(1, int(math.Ceil(rps)))
}

// reserve takes a token from l at now if one is available. Otherwise it
// returns nil and the whole seconds until one would be.
func reserve(l *rate.Limiter, now time.Time) (*rate.Reservation, int) {
	res := l.ReserveN(now, 1)
	if !res.OK() {
		return nil, 1
	}
	d := res.DelayFrom(now)
	if d == 0 {
		return res, 0
	}
	res.CancelAt(now)
	return nil, max(1, int(math.Ceil(d.Seconds())))
}

// rateLimitMiddleware enforces a global RPS limit and a per-client one. A
// zero rate disables that scope.
func (a *API) rateLimitMiddleware(next http.Handler) http.Handler {
	var global *rate.Limiter
	if a.limits.global > 0 {
		global = rate.NewLimiter(rate.Limit(a.limits.global), burst(a.limits.global))
	}
	var perIP *keyedLimiter
	if a.limits.ip > 0 {
		perIP = newKeyedLimiter(a.limits.ip)
	}
	if global == nil && perIP == nil {
		return next
	}
	deny := func(w http.ResponseWriter, wait int) {
		w.Header().Set("Retry-After", strconv.Itoa(wait))
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a request denied by one scope must not spend the other's token
		now := time.Now()
		var granted *rate.Reservation
		if global != nil {
			res, wait := reserve(global, now)
			if res == nil {
				deny(w, wait)
				return
			}
			granted = res
		}
		if perIP != nil {
			if res, wait := reserve(perIP.get(clientIP(r)), now); res == nil {
				if granted != nil {
					granted.CancelAt(now)
				}
				deny(w, wait)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
