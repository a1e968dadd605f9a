package payment

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const (
	pendingKeyPrefix  = "pagseguro:pending:"
	defaultPendingTTL = 15 * time.Minute
)

// PendingStore holds, per checkout session, the transaction code obtained by
// the last successful authorize until the redirect resolver takes it.
type PendingStore interface {
	// Put replaces the session's pending code.
	Put(ctx context.Context, sessionID, code string) error
	// Take returns and clears the session's pending code. ok is false when
	// nothing is pending.
	Take(ctx context.Context, sessionID string) (code string, ok bool, err error)
}

// ----------------- Redis -----------------

type RedisPendingStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisPendingStore(client redis.Cmdable, ttl time.Duration) *RedisPendingStore {
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &RedisPendingStore{client: client, ttl: ttl}
}

// pendingKey hashes the session id so raw session identifiers never reach Redis.
func pendingKey(sessionID string) string {
	sum := blake2b.Sum256([]byte(sessionID))
	return pendingKeyPrefix + hex.EncodeToString(sum[:])
}

func (s *RedisPendingStore) Put(ctx context.Context, sessionID, code string) error {
	if sessionID == "" {
		return ErrMissingCheckoutSession
	}
	if err := s.client.Set(ctx, pendingKey(sessionID), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET pending code: %w", err)
	}
	return nil
}

func (s *RedisPendingStore) Take(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		return "", false, ErrMissingCheckoutSession
	}

	// GETDEL keeps read-and-clear atomic across replicas.
	code, err := s.client.GetDel(ctx, pendingKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis GETDEL pending code: %w", err)
	}
	return code, true, nil
}

// ----------------- In-memory -----------------

type pendingEntry struct {
	code      string
	expiresAt time.Time
}

// MemoryPendingStore serves single-instance deployments without Redis.
type MemoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]pendingEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryPendingStore(ttl time.Duration) *MemoryPendingStore {
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &MemoryPendingStore{
		entries: make(map[string]pendingEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryPendingStore) Put(_ context.Context, sessionID, code string) error {
	if sessionID == "" {
		return ErrMissingCheckoutSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
	s.entries[sessionID] = pendingEntry{code: code, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryPendingStore) Take(_ context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		return "", false, ErrMissingCheckoutSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok {
		return "", false, nil
	}
	delete(s.entries, sessionID)

	if s.now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.code, true, nil
}
