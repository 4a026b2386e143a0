package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// sessionEntry holds the committed session of one plan. gate admits a single writer at a time;
// mu only guards the pointer swap so readers never wait on a writer's persistence calls.
// version changes on every commit and tags values derived from that session.
type sessionEntry struct {
	gate    *semaphore.Weighted
	mu      sync.RWMutex
	session *PlanSession
	version string
}

func (e *sessionEntry) current() *PlanSession {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session
}

// snapshot returns the committed session together with its version.
func (e *sessionEntry) snapshot() (*PlanSession, string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session, e.version
}

func (e *sessionEntry) commit(s *PlanSession) {
	e.mu.Lock()
	e.session = s
	e.version = uuid.NewString()
	e.mu.Unlock()
}

// acquire takes the writer slot. With wait unset a busy slot fails immediately.
func (e *sessionEntry) acquire(ctx context.Context, wait bool) (bool, error) {
	if !wait {
		return e.gate.TryAcquire(1), nil
	}
	if err := e.gate.Acquire(ctx, 1); err != nil {
		return false, err
	}
	return true, nil
}

func (e *sessionEntry) release() {
	e.gate.Release(1)
}

type sessionRegistry struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{entries: make(map[string]*sessionEntry)}
}

func (r *sessionRegistry) entry(planID string) *sessionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[planID]
	if !ok {
		e = &sessionEntry{gate: semaphore.NewWeighted(1)}
		r.entries[planID] = e
	}
	return e
}

// hydrated counts entries that currently hold a session.
func (r *sessionRegistry) hydrated() int {
	r.mu.Lock()
	entries := make([]*sessionEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	n := 0
	for _, e := range entries {
		if e.current() != nil {
			n++
		}
	}
	return n
}
