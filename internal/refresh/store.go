package refresh

import (
	"sort"
	"sync"
	"time"
)

// Calendar is the latest published conversion of one source.
type Calendar struct {
	ID        string
	Name      string
	Document  string
	Events    int
	FromCache bool
	UpdatedAt time.Time
}

// Store holds published calendars keyed by source id.
type Store struct {
	mu   sync.RWMutex
	cals map[string]Calendar
}

func NewStore() *Store {
	return &Store{cals: make(map[string]Calendar)}
}

func (s *Store) Put(c Calendar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cals[c.ID] = c
}

func (s *Store) Get(id string) (Calendar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cals[id]
	return c, ok
}

// List returns every calendar sorted by id.
func (s *Store) List() []Calendar {
	s.mu.RLock()
	out := make([]Calendar, 0, len(s.cals))
	for _, c := range s.cals {
		out = append(out, c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
