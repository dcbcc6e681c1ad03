package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/region"
)

// Fetcher supplies the current batch of external event records, along with
// the number of rows it had to drop because they could not be decoded.
type Fetcher interface {
	FetchEvents(ctx context.Context) (records []event.ExternalRecord, rejected int, err error)
}

// Snapshot is an immutable result of one recompute. Readers share it
// without locking; a new recompute replaces it wholesale.
type Snapshot struct {
	Generation uint64
	Region     region.Profile
	ComputedAt time.Time
	FetchedAt  time.Time
	Groups     []Group
	Games      []string
	Active     []event.Resolved
	Expired    []event.Resolved
	Permanent  []event.Resolved
	// Rejected counts external rows dropped at decode plus records that
	// failed resolution.
	Rejected int
}

// Events returns active external events followed by permanent events.
func (s *Snapshot) Events() []event.Resolved {
	out := make([]event.Resolved, 0, len(s.Active)+len(s.Permanent))
	out = append(out, s.Active...)
	return append(out, s.Permanent...)
}

// Aggregator owns the current resolved event set. Recomputes are serialized
// and always read a consistent (records, region, now) triple; whichever
// recompute finishes last is authoritative.
type Aggregator struct {
	mu         sync.Mutex
	fetcher    Fetcher
	defs       []event.Definition
	profile    region.Profile
	records    []event.ExternalRecord
	undecoded  int
	fetchedAt  time.Time
	generation uint64

	current atomic.Pointer[Snapshot]

	subsMu  sync.Mutex
	subs    map[int]func(*Snapshot)
	nextSub int

	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New creates an aggregator and computes an initial snapshot from the
// permanent definitions alone. fetcher may be nil when no backend is
// configured.
func New(fetcher Fetcher, defs []event.Definition, profile region.Profile, logger *slog.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Aggregator{
		fetcher: fetcher,
		defs:    defs,
		profile: profile,
		subs:    make(map[int]func(*Snapshot)),
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Recompute()
	return a
}

// Snapshot returns the latest computed snapshot.
func (a *Aggregator) Snapshot() *Snapshot {
	return a.current.Load()
}

// Region returns the active region profile.
func (a *Aggregator) Region() region.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile
}

// Definitions returns the permanent definitions the aggregator resolves.
func (a *Aggregator) Definitions() []event.Definition {
	return a.defs
}

// OnUpdate registers fn to run after every successful recompute. The
// returned function removes the subscription. fn runs outside the
// aggregator's lock and may call any method.
func (a *Aggregator) OnUpdate(fn func(*Snapshot)) func() {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	return func() {
		a.subsMu.Lock()
		defer a.subsMu.Unlock()
		delete(a.subs, id)
	}
}

// Refresh fetches external records and recomputes. On fetch failure the
// last known good records are kept and the error is returned.
func (a *Aggregator) Refresh(ctx context.Context) error {
	if a.fetcher == nil {
		a.Recompute()
		return nil
	}

	records, undecoded, err := a.fetcher.FetchEvents(ctx)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	a.mu.Lock()
	a.records = records
	a.undecoded = undecoded
	a.fetchedAt = a.now()
	snap := a.recomputeLocked()
	a.mu.Unlock()

	a.publish(snap)
	return nil
}

// SetRegion swaps the active region profile and recomputes.
func (a *Aggregator) SetRegion(profile region.Profile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("set region: %w", err)
	}

	a.mu.Lock()
	a.profile = profile
	snap := a.recomputeLocked()
	a.mu.Unlock()

	a.publish(snap)
	return nil
}

// Recompute re-derives the snapshot from the current inputs, typically
// because time has passed or preferences changed.
func (a *Aggregator) Recompute() *Snapshot {
	a.mu.Lock()
	snap := a.recomputeLocked()
	a.mu.Unlock()

	a.publish(snap)
	return snap
}

func (a *Aggregator) recomputeLocked() *Snapshot {
	now := a.now()
	ext := IngestExternal(a.records, a.profile, now, a.logger)
	permanent := IngestPermanent(a.defs, a.profile, now, a.logger)

	a.generation++
	snap := &Snapshot{
		Generation: a.generation,
		Region:     a.profile,
		ComputedAt: now,
		FetchedAt:  a.fetchedAt,
		Groups:     MergeAndBucket(ext.Active, permanent, now),
		Active:     ext.Active,
		Expired:    ext.Expired,
		Permanent:  permanent,
		Rejected:   a.undecoded + ext.Rejected,
	}
	snap.Games = ExtractGames(snap.Events())
	a.current.Store(snap)
	return snap
}

func (a *Aggregator) publish(snap *Snapshot) {
	a.subsMu.Lock()
	fns := make([]func(*Snapshot), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
