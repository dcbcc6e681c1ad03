package notifications

import (
	"context"
	"sort"
	"sync"
)

// MemoryPlatform is an in-process Platform. It backs the CLI planner and
// tests, and serves as the platform when no database is configured.
type MemoryPlatform struct {
	mu        sync.Mutex
	pending   map[string]Scheduled
	denied    bool
	schedules int
	cancels   int
}

// NewMemoryPlatform returns an empty, authorized platform.
func NewMemoryPlatform() *MemoryPlatform {
	return &MemoryPlatform{pending: make(map[string]Scheduled)}
}

// SetDenied toggles the permission state.
func (m *MemoryPlatform) SetDenied(denied bool) {
	m.mu.Lock()
	m.denied = denied
	m.mu.Unlock()
}

// Calls returns how many schedule and cancel calls were issued.
func (m *MemoryPlatform) Calls() (schedules, cancels int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedules, m.cancels
}

func (m *MemoryPlatform) Schedule(_ context.Context, d Desired) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denied {
		return ErrPermissionDenied
	}
	m.schedules++
	m.pending[d.Identifier()] = Scheduled{
		Identifier: d.Identifier(),
		EventID:    d.Key.EventID,
		LeadTime:   d.Key.LeadTime,
		TriggerAt:  d.TriggerAt,
		Title:      d.Payload.Title,
		Body:       d.Payload.Body,
	}
	return nil
}

// Put registers a reminder directly, bypassing permission. Used to seed
// foreign identifiers.
func (m *MemoryPlatform) Put(s Scheduled) {
	m.mu.Lock()
	m.pending[s.Identifier] = s
	m.mu.Unlock()
}

func (m *MemoryPlatform) Cancel(_ context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
	delete(m.pending, identifier)
	return nil
}

func (m *MemoryPlatform) ListScheduled(context.Context) ([]Scheduled, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Scheduled, 0, len(m.pending))
	for _, s := range m.pending {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

func (m *MemoryPlatform) Authorized(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.denied, nil
}
