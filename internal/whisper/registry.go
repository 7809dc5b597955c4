package whisper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnknownModel is returned by Acquire for an identifier the registry was
// not constructed with.
var ErrUnknownModel = errors.New("unknown model")

const defaultMaxRetries = 3

// Registry owns the loaded model handles. The identifier set is fixed at
// construction; entries start unset and transition to set on the first
// successful Acquire for that identifier.
type Registry struct {
	load       LoadFunc
	maxRetries int
	sleep      func(time.Duration) // replaced in tests
	entries    map[string]*entry
}

type entry struct {
	spec   ModelSpec
	mu     sync.Mutex   // serializes load attempts for this model
	engine atomic.Value // holds Engine once loaded; read lock-free by Status
}

// NewRegistry creates a registry over the given identifier to model mapping.
func NewRegistry(models map[string]ModelSpec, load LoadFunc) *Registry {
	entries := make(map[string]*entry, len(models))
	for id, spec := range models {
		entries[id] = &entry{spec: spec}
	}
	return &Registry{
		load:       load,
		maxRetries: defaultMaxRetries,
		sleep:      time.Sleep,
		entries:    entries,
	}
}

// Has reports whether id is a member of the registry's identifier set.
func (r *Registry) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// Identifiers returns the fixed identifier set in sorted order.
func (r *Registry) Identifiers() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Loaded reports whether the model for id is currently resident. It never
// blocks, even while a load for id is in flight.
func (r *Registry) Loaded(id string) bool {
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	return e.engine.Load() != nil
}

// Status maps each identifier to "loaded" or "not loaded".
func (r *Registry) Status() map[string]string {
	out := make(map[string]string, len(r.entries))
	for id := range r.entries {
		if r.Loaded(id) {
			out[id] = "loaded"
		} else {
			out[id] = "not loaded"
		}
	}
	return out
}

// Acquire returns the engine for id, loading it on first use. A failed
// attempt i waits 2^i seconds before the next one; after maxRetries failures
// the entry is left unset so a later call retries from scratch. Concurrent
// callers for the same not-yet-loaded identifier are serialized, so the
// model is loaded at most once.
func (r *Registry) Acquire(ctx context.Context, id string) (Engine, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	if eng, ok := e.engine.Load().(Engine); ok {
		return eng, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Another request may have finished loading while we waited for the lock.
	if eng, ok := e.engine.Load().(Engine); ok {
		return eng, nil
	}

	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		log.Info().
			Str("model", id).
			Int("attempt", attempt+1).
			Int("max", r.maxRetries).
			Msg("loading whisper model")
		eng, err := r.load(ctx, e.spec)
		if err == nil {
			e.engine.Store(eng)
			log.Info().Str("model", id).Msg("whisper model loaded")
			return eng, nil
		}
		lastErr = err
		if attempt < r.maxRetries-1 {
			wait := time.Duration(1<<uint(attempt)) * time.Second
			log.Warn().
				Err(err).
				Str("model", id).
				Dur("backoff", wait).
				Msg("model load failed, retrying")
			r.sleep(wait)
		}
	}
	log.Error().
		Err(lastErr).
		Str("model", id).
		Int("attempts", r.maxRetries).
		Msg("giving up loading model")
	return nil, fmt.Errorf("load %s model after %d attempts: %w", id, r.maxRetries, lastErr)
}

// Close releases every loaded engine. Used on server shutdown.
func (r *Registry) Close() error {
	var firstErr error
	for id, e := range r.entries {
		eng, ok := e.engine.Load().(Engine)
		if !ok {
			continue
		}
		if err := eng.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s model: %w", id, err)
		}
	}
	return firstErr
}
