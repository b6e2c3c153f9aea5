package app

import (
	"sync"

	"github.com/spencerjibz/optionbook/internal/apperror"
)

// Registry is the process-wide exchange adapter registry. Its mutex is
// held only across map access and subscription-template
// mutation/serialization, never across network I/O — the transport itself
// lives behind the MessageSource/SubscriptionWriter ports, not here.
type Registry struct {
	mu     sync.Mutex
	venues map[string]VenueAdapter
}

// NewRegistry constructs an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{venues: make(map[string]VenueAdapter)}
}

// Register adds or replaces the adapter for venue.
func (r *Registry) Register(venue string, a VenueAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.venues[venue] = a
}

// Get returns the adapter registered for venue.
func (r *Registry) Get(venue string) (VenueAdapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.venues[venue]
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownExchange, apperror.WithContext(venue))
	}
	return a, nil
}

// SubscriptionFor serializes venue's subscription template for symbol.
// The lock is held for the duration of the adapter's own template
// mutation and marshaling, never for any I/O.
func (r *Registry) SubscriptionFor(venue, symbol string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.venues[venue]
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownExchange, apperror.WithContext(venue))
	}
	payload, err := a.SubscriptionFor(symbol)
	if err != nil {
		return nil, apperror.New(apperror.CodeSerializationError,
			apperror.WithCause(err), apperror.WithContext(venue))
	}
	return payload, nil
}

// Decode looks up venue's adapter and decodes frame. Decoding a frame is
// pure CPU work (no I/O), so it runs without holding the registry lock
// once the adapter reference has been retrieved.
func (r *Registry) Decode(venue string, frame []byte) (*Snapshot, error) {
	a, err := r.Get(venue)
	if err != nil {
		return nil, err
	}
	snap, err := a.Decode(frame)
	if err != nil {
		return nil, apperror.New(apperror.CodeParseError,
			apperror.WithCause(err), apperror.WithContext(venue))
	}
	return snap, nil
}
