package position

// Store is an insertion-ordered map from window identity to saved record.
// Iteration order is save order, so overlapping windows restore in a
// deterministic stacking order. The store is not goroutine-safe: all access
// is expected to happen on the owning control goroutine.
type Store struct {
	records map[string]Record
	order   []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]Record)}
}

// Save upserts a record under its identity. A re-save overwrites the
// geometry but keeps the identity's original position in iteration order.
func (s *Store) Save(rec Record) {
	key := rec.Identity.Key()
	if _, exists := s.records[key]; !exists {
		s.order = append(s.order, key)
	}
	s.records[key] = rec
}

// Get returns the record for an identity, if present.
func (s *Store) Get(id Identity) (Record, bool) {
	rec, ok := s.records[id.Key()]
	return rec, ok
}

// Remove deletes the record for an identity. Reports whether one existed.
func (s *Store) Remove(id Identity) bool {
	key := id.Key()
	if _, ok := s.records[key]; !ok {
		return false
	}
	delete(s.records, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// All returns every record in save order. The slice is a copy; mutating it
// does not affect the store.
func (s *Store) All() []Record {
	out := make([]Record, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.records[key])
	}
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// Load replaces the store contents with the given records, preserving their
// order. Used to repopulate from the persistence layer at startup.
func (s *Store) Load(records []Record) {
	s.records = make(map[string]Record, len(records))
	s.order = s.order[:0]
	for _, rec := range records {
		s.Save(rec)
	}
}
