// Package ratelimit provides the request gate every external fetcher
// dispatches through. One Limiter guards one external source and keeps
// consecutive dispatches at least 1/maxPerSecond apart.
package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// Limiter enforces a minimum interval between consecutive dispatches.
// The last-dispatch timestamp advances when a request is released, never
// when its response arrives, so slow responses cannot drift the rate.
// Safe for concurrent use; waiting callers serialize through slot
// reservation under the mutex.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewLimiter builds a gate allowing at most maxPerSecond dispatches per
// second. Non-positive ceilings disable throttling.
func NewLimiter(maxPerSecond float64) *Limiter {
	var interval time.Duration
	if maxPerSecond > 0 {
		interval = time.Duration(float64(time.Second) / maxPerSecond)
	}
	return &Limiter{interval: interval}
}

// Wait blocks until the minimum interval since the previous dispatch has
// elapsed, or the context is cancelled. Retries are the caller's
// concern; the gate only spaces dispatches.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.interval)
	l.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Transport is an http.RoundTripper that routes every request through a
// Limiter before dispatching on the base transport.
type Transport struct {
	Base    http.RoundTripper
	Limiter *Limiter
}

// NewTransport wraps base so all requests flow through limiter. A nil
// base falls back to http.DefaultTransport.
func NewTransport(base http.RoundTripper, limiter *Limiter) *Transport {
	return &Transport{Base: base, Limiter: limiter}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t == nil {
		return nil, errors.New("ratelimit: nil transport")
	}
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
