package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jllopis/ethos/pkg/corpus"
)

// EventType identifies a registry lifecycle event.
type EventType string

const (
	EventLoaded       EventType = "registry.loaded"
	EventReloaded     EventType = "registry.reloaded"
	EventReloadFailed EventType = "registry.reload_failed"
)

// Event is broadcast to subscribers on every load attempt.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Store owns the current registry snapshot. Reload builds a fresh
// snapshot from the resolver and swaps it in; on failure the previous
// snapshot stays live so readers never observe a broken corpus.
type Store struct {
	mu       sync.RWMutex
	current  *Registry
	shadowed []corpus.Shadowed
	invalid  []corpus.InvalidDocument
	loadedAt time.Time

	resolver *corpus.Resolver
	logger   *slog.Logger

	subMu sync.Mutex
	subs  map[int]chan Event
	nextSub int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a store over the resolver. Call Load before serving.
func NewStore(resolver *corpus.Resolver, opts ...StoreOption) *Store {
	s := &Store{
		resolver: resolver,
		logger:   slog.Default(),
		subs:     make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load performs the initial corpus load. Unlike Reload, a failure here
// is fatal: there is no previous snapshot to keep.
func (s *Store) Load(ctx context.Context) error {
	snapshot, res, err := s.resolve()
	if err != nil {
		s.broadcast(ctx, Event{
			Type:      EventReloadFailed,
			Timestamp: time.Now().UTC(),
			Payload:   map[string]any{"error": err.Error()},
		})
		return err
	}
	s.swap(snapshot, res)
	s.logger.Info("corpus loaded",
		slog.Int("personas", snapshot.Len()),
		slog.Int("shadowed", len(res.Shadowed)),
		slog.Int("invalid", len(res.Invalid)),
		slog.String("fingerprint", snapshot.Fingerprint()))
	s.broadcast(ctx, Event{
		Type:      EventLoaded,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]any{"personas": snapshot.Len(), "fingerprint": snapshot.Fingerprint()},
	})
	return nil
}

// Reload rebuilds the snapshot. On error the previous snapshot is kept
// and a reload_failed event is broadcast.
func (s *Store) Reload(ctx context.Context) error {
	snapshot, res, err := s.resolve()
	if err != nil {
		s.logger.Error("corpus reload failed, keeping previous snapshot",
			slog.String("error", err.Error()))
		s.broadcast(ctx, Event{
			Type:      EventReloadFailed,
			Timestamp: time.Now().UTC(),
			Payload:   map[string]any{"error": err.Error()},
		})
		return err
	}
	previous := s.Current()
	s.swap(snapshot, res)
	changed := previous == nil || previous.Fingerprint() != snapshot.Fingerprint()
	s.logger.Info("corpus reloaded",
		slog.Int("personas", snapshot.Len()),
		slog.Bool("changed", changed))
	s.broadcast(ctx, Event{
		Type:      EventReloaded,
		Timestamp: time.Now().UTC(),
		Payload: map[string]any{
			"personas":    snapshot.Len(),
			"fingerprint": snapshot.Fingerprint(),
			"changed":     changed,
		},
	})
	return nil
}

func (s *Store) resolve() (*Registry, *corpus.Resolution, error) {
	res, err := s.resolver.Resolve()
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := New(res.Personas)
	if err != nil {
		return nil, nil, err
	}
	return snapshot, res, nil
}

func (s *Store) swap(snapshot *Registry, res *corpus.Resolution) {
	s.mu.Lock()
	s.current = snapshot
	s.shadowed = res.Shadowed
	s.invalid = res.Invalid
	s.loadedAt = time.Now().UTC()
	s.mu.Unlock()
}

// Current returns the live snapshot, or nil before the first Load.
func (s *Store) Current() *Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Shadowed returns the duplicate definitions displaced on last load.
func (s *Store) Shadowed() []corpus.Shadowed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shadowed
}

// Invalid returns the documents that failed validation on last load.
func (s *Store) Invalid() []corpus.InvalidDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.invalid
}

// LoadedAt returns the time of the last successful snapshot swap.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Subscribe registers a lifecycle event channel. The returned cancel
// function removes the subscription and closes the channel.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 8)
	s.subs[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// broadcast delivers an event to every subscriber. Slow subscribers
// drop events rather than block the reload path.
func (s *Store) broadcast(ctx context.Context, event Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- event:
		case <-ctx.Done():
			return
		default:
		}
	}
}
