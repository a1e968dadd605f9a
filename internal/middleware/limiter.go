package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"pagseguro-checkout/internal/config"
	"pagseguro-checkout/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	tierStrict  = "strict"
	tierGeneral = "general"
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type tier struct {
	limit rate.Limit
	burst int
}

// Limiter keeps one token bucket per client and tier. Idle buckets are swept
// while new ones are handed out.
type Limiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	tiers     map[string]tier
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewLimiter(cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		visitors: make(map[string]*visitor),
		tiers: map[string]tier{
			tierStrict:  {limit: rate.Limit(cfg.StrictRPS), burst: cfg.StrictBurst},
			tierGeneral: {limit: rate.Limit(cfg.GeneralRPS), burst: cfg.GeneralBurst},
		},
		idleTTL: cfg.IdleTTL,
		now:     time.Now,
	}
}

// Middleware rejects a client with 429 once its bucket for the route's tier
// is empty. Mount it after CheckoutSession so buckets follow the session.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := resolveTier(r)

		if !l.allow(clientIdentity(r)+":"+name, l.tiers[name]) {
			logger.FromCtx(r.Context()).Warn("rate limit exceeded",
				zap.String("tier", name),
				zap.String("path", r.URL.Path),
			)
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) allow(key string, t tier) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.idleTTL > 0 && now.Sub(l.lastSweep) > l.idleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// clientIdentity prefers the checkout session and falls back to the peer IP.
func clientIdentity(r *http.Request) string {
	if sid := logger.SessionIDFrom(r.Context()); sid != "" {
		return "session:" + sid
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// resolveTier puts authorize in the strict tier since every call reaches PagSeguro.
func resolveTier(r *http.Request) string {
	if r.Method == http.MethodPost && r.URL.Path == "/checkout/authorize" {
		return tierStrict
	}
	return tierGeneral
}
