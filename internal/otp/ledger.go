package otp

import (
	"context"
	"sync"
	"time"
)

// Entry is one outstanding code with its absolute expiry.
type Entry struct {
	Code      string
	ExpiresAt time.Time
}

// Ledger stores outstanding one-time codes keyed by identifier. A given
// key maps to at most one live entry; Put replaces any prior entry.
// Ledgers are not durable: codes do not need to survive a restart.
type Ledger interface {
	Put(ctx context.Context, key, code string, ttl time.Duration) error
	Peek(ctx context.Context, key string) (Entry, bool, error)
	Delete(ctx context.Context, key string) error
}

// MemoryLedger keeps codes in a process-lifetime map. One shared
// instance per process is sufficient; concurrent puts for the same key
// are last-write-wins.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]Entry)}
}

func (l *MemoryLedger) Put(_ context.Context, key, code string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = Entry{
		Code:      code,
		ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (l *MemoryLedger) Peek(_ context.Context, key string) (Entry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[key]
	return entry, ok, nil
}

func (l *MemoryLedger) Delete(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}
