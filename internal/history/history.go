// Package history persists the list of past bookings as one JSON document.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wolfman30/ambu-dispatch/internal/booking"
	"github.com/wolfman30/ambu-dispatch/internal/kvstore"
)

// DefaultKey is the key the history document is stored under.
const DefaultKey = "bookingHistory"

// ErrCorrupt is returned by Load when the stored document cannot be decoded.
var ErrCorrupt = errors.New("history: stored booking history is corrupt")

// Store reads and overwrites the history document.
type Store struct {
	kv  kvstore.Store
	key string
}

// NewStore binds a history store to kv under key (DefaultKey when empty).
func NewStore(kv kvstore.Store, key string) *Store {
	if kv == nil {
		panic("history: kv store cannot be nil")
	}
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: kv, key: key}
}

// Key returns the storage key.
func (s *Store) Key() string { return s.key }

// Load returns the stored history, most recent first. A missing document is
// an empty history.
func (s *Store) Load(ctx context.Context) ([]booking.PastBooking, error) {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("history: load: %w", err)
	}
	if !found || raw == "" {
		return []booking.PastBooking{}, nil
	}
	var list []booking.PastBooking
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if list == nil {
		list = []booking.PastBooking{}
	}
	return list, nil
}

// Save overwrites the stored document with list.
func (s *Store) Save(ctx context.Context, list []booking.PastBooking) error {
	if list == nil {
		list = []booking.PastBooking{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("history: save: %w", err)
	}
	return nil
}

// Prepend returns a new slice with entry in front of list.
func Prepend(list []booking.PastBooking, entry booking.PastBooking) []booking.PastBooking {
	out := make([]booking.PastBooking, 0, len(list)+1)
	out = append(out, entry)
	return append(out, list...)
}
