// Package ratelimit implements a fixed-window request limiter over a
// pluggable counter store.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Policy names a limit. The name is part of the counter key, so two policies
// never share counters.
type Policy struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

// Well known policy names.
const (
	PolicyOrderCreation = "order_creation"
	PolicyLogin         = "login"
	PolicyGeneralAPI    = "general_api"
)

// OrderCreation allows 10 order submissions per user per hour.
func OrderCreation(max int, window time.Duration) Policy {
	return Policy{Name: PolicyOrderCreation, MaxRequests: max, Window: window}
}

// Login allows 5 attempts per credential identifier per 15 minutes.
func Login(max int, window time.Duration) Policy {
	return Policy{Name: PolicyLogin, MaxRequests: max, Window: window}
}

// GeneralAPI caps overall request volume per client.
func GeneralAPI(max int, window time.Duration) Policy {
	return Policy{Name: PolicyGeneralAPI, MaxRequests: max, Window: window}
}

func (p Policy) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("rate limit policy name is required")
	}
	if p.MaxRequests <= 0 {
		return fmt.Errorf("rate limit policy %s: max requests must be positive", p.Name)
	}
	if p.Window <= 0 {
		return fmt.Errorf("rate limit policy %s: window must be positive", p.Name)
	}
	return nil
}

// Entry is the stored state of one counter.
type Entry struct {
	Count   int
	ResetAt time.Time
}

func (e Entry) expired(now time.Time) bool {
	return now.After(e.ResetAt)
}

// Result reports the outcome of a check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// ResetLabel renders the reset time as HH:MM in loc.
func (r Result) ResetLabel(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return r.ResetAt.In(loc).Format("15:04")
}

// Store keeps counters. Increment must start a fresh window (count 1, reset
// now+window) when the key is missing or its window has passed.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Increment(ctx context.Context, key string, now time.Time, window time.Duration) (Entry, error)
	Sweep(ctx context.Context, now time.Time) (int, error)
	Delete(ctx context.Context, key string) error
}

type Limiter struct {
	store Store
	now   func() time.Time
	// locks serializes get/increment pairs per counter key within this
	// process. Checks on different keys never wait on each other.
	locks keyLocks
}

type keyLock struct {
	sync.Mutex
	refs int
}

type keyLocks struct {
	mu    sync.Mutex
	byKey map[string]*keyLock
}

// lock acquires the lock for key and returns its release func.
func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	if k.byKey == nil {
		k.byKey = make(map[string]*keyLock)
	}
	l, ok := k.byKey[key]
	if !ok {
		l = &keyLock{}
		k.byKey[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.byKey, key)
		}
		k.mu.Unlock()
	}
}

type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLimiter(store Store, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("rate limit store is required")
	}
	l := &Limiter{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Key builds the counter key for identifier under policy.
func Key(policy Policy, identifier string) string {
	return policy.Name + "_" + identifier
}

// Check counts one request for identifier. Denied requests are not counted.
func (l *Limiter) Check(ctx context.Context, identifier string, policy Policy) (Result, error) {
	if err := policy.validate(); err != nil {
		return Result{}, err
	}
	key := Key(policy, identifier)

	release := l.locks.lock(key)
	defer release()

	now := l.now()
	entry, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("read rate limit %s: %w", key, err)
	}
	if ok && !entry.expired(now) && entry.Count >= policy.MaxRequests {
		return denied(policy, entry), nil
	}

	entry, err = l.store.Increment(ctx, key, now, policy.Window)
	if err != nil {
		return Result{}, fmt.Errorf("increment rate limit %s: %w", key, err)
	}
	// Another instance sharing the store may have raced us past the limit.
	if entry.Count > policy.MaxRequests {
		return denied(policy, entry), nil
	}
	return Result{
		Allowed:   true,
		Limit:     policy.MaxRequests,
		Remaining: policy.MaxRequests - entry.Count,
		ResetAt:   entry.ResetAt,
	}, nil
}

// Status reports the current state without counting a request.
func (l *Limiter) Status(ctx context.Context, identifier string, policy Policy) (Result, error) {
	if err := policy.validate(); err != nil {
		return Result{}, err
	}
	key := Key(policy, identifier)
	now := l.now()
	entry, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("read rate limit %s: %w", key, err)
	}
	if !ok || entry.expired(now) {
		return Result{
			Allowed:   true,
			Limit:     policy.MaxRequests,
			Remaining: policy.MaxRequests,
			ResetAt:   now.Add(policy.Window),
		}, nil
	}
	if entry.Count >= policy.MaxRequests {
		return denied(policy, entry), nil
	}
	return Result{
		Allowed:   true,
		Limit:     policy.MaxRequests,
		Remaining: policy.MaxRequests - entry.Count,
		ResetAt:   entry.ResetAt,
	}, nil
}

// Reset forgets the counter for identifier.
func (l *Limiter) Reset(ctx context.Context, identifier string, policy Policy) error {
	return l.store.Delete(ctx, Key(policy, identifier))
}

// Sweep drops expired counters and returns how many were removed.
func (l *Limiter) Sweep(ctx context.Context) (int, error) {
	return l.store.Sweep(ctx, l.now())
}

func denied(policy Policy, entry Entry) Result {
	return Result{
		Allowed:   false,
		Limit:     policy.MaxRequests,
		Remaining: 0,
		ResetAt:   entry.ResetAt,
	}
}
