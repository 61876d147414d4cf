package booking

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrFormNotFound is returned for unknown or expired form ids.
var ErrFormNotFound = errors.New("booking: form not found")

const defaultFormTTL = 30 * time.Minute

type formEntry struct {
	mu      sync.Mutex
	form    *Form
	touched time.Time
}

// FormStore keeps in-progress forms for clients that drive the flow over
// HTTP. Forms untouched for longer than the TTL are dropped.
type FormStore struct {
	mu    sync.Mutex
	forms map[string]*formEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewFormStore creates a store; ttl <= 0 selects 30 minutes.
func NewFormStore(ttl time.Duration) *FormStore {
	if ttl <= 0 {
		ttl = defaultFormTTL
	}
	return &FormStore{
		forms: make(map[string]*formEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create registers a new form and returns its id.
func (s *FormStore) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	id := uuid.NewString()
	s.forms[id] = &formEntry{form: NewForm(), touched: now}
	return id
}

// With runs fn against the form while holding that form's lock.
func (s *FormStore) With(id string, fn func(*Form) error) error {
	s.mu.Lock()
	entry, ok := s.forms[id]
	s.mu.Unlock()
	if !ok {
		return ErrFormNotFound
	}

	entry.mu.Lock()
	now := s.now()
	if now.Sub(entry.touched) > s.ttl {
		entry.mu.Unlock()
		s.mu.Lock()
		if s.forms[id] == entry {
			delete(s.forms, id)
		}
		s.mu.Unlock()
		return ErrFormNotFound
	}
	defer entry.mu.Unlock()
	entry.touched = now
	return fn(entry.form)
}

// Delete discards a form. Unknown ids are ignored.
func (s *FormStore) Delete(id string) {
	s.mu.Lock()
	delete(s.forms, id)
	s.mu.Unlock()
}

// Len reports the number of live forms.
func (s *FormStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}

func (s *FormStore) sweepLocked(now time.Time) {
	for id, entry := range s.forms {
		if entry.mu.TryLock() {
			expired := now.Sub(entry.touched) > s.ttl
			entry.mu.Unlock()
			if expired {
				delete(s.forms, id)
			}
		}
	}
}
