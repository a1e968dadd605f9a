package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// AuthorizeStats counts authorize outcomes by terminal state.
type AuthorizeStats struct {
	Attempts      Counter
	Authorized    Counter
	Unavailable   Counter
	Unreachable   Counter
	Malformed     Counter
	Rejected      Counter
	HistoryFailed Counter
	OtherFailed   Counter
	GatewayNanos  Counter
}

func (s *AuthorizeStats) ObserveGateway(d time.Duration) {
	if d > 0 {
		s.GatewayNanos.Add(uint64(d))
	}
}

func (s *AuthorizeStats) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"authorize_attempts":       s.Attempts.Load(),
		"authorize_authorized":     s.Authorized.Load(),
		"authorize_unavailable":    s.Unavailable.Load(),
		"authorize_unreachable":    s.Unreachable.Load(),
		"authorize_malformed":      s.Malformed.Load(),
		"authorize_rejected":       s.Rejected.Load(),
		"authorize_history_failed": s.HistoryFailed.Load(),
		"authorize_other_failed":   s.OtherFailed.Load(),
		"gateway_latency_ns_total": s.GatewayNanos.Load(),
	}
}
