package dataset

import (
	"errors"
	"strconv"
	"sync"
	"time"
)

// ErrNotFound is returned for identifiers the store has never issued.
var ErrNotFound = errors.New("dataset not found")

// Summary is the listing view of a stored dataset.
type Summary struct {
	ID            string
	Filename      string
	Shape         [2]int
	Columns       []string
	MemoryUsage   int64
	MissingValues int
	CreatedAt     time.Time
}

// Store is the process-wide dataset registry. Datasets are never updated
// or removed once stored.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*Dataset
	order   []string
	counter int
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byID: make(map[string]*Dataset),
		now:  time.Now,
	}
}

// Put assigns an identifier to ds and stores it. The identifier is the
// sanitized filename followed by "_" and a counter that increments on
// every Put, so the same filename never collides.
func (s *Store) Put(ds *Dataset) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := SecureFilename(ds.Filename) + "_" + strconv.Itoa(s.counter)
	s.counter++

	ds.ID = id
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = s.now()
	}
	s.byID[id] = ds
	s.order = append(s.order, id)
	return id
}

// Get returns the dataset for id or ErrNotFound.
func (s *Store) Get(id string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ds, nil
}

// List returns summaries in insertion order.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		ds := s.byID[id]
		out = append(out, Summary{
			ID:            ds.ID,
			Filename:      ds.Filename,
			Shape:         ds.Shape(),
			Columns:       ds.ColumnNames(),
			MemoryUsage:   ds.MemoryUsage(),
			MissingValues: ds.MissingValues(),
			CreatedAt:     ds.CreatedAt,
		})
	}
	return out
}

// Len returns the number of stored datasets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// TotalMemory sums the memory estimate of every stored dataset.
func (s *Store) TotalMemory() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, ds := range s.byID {
		total += ds.MemoryUsage()
	}
	return total
}
