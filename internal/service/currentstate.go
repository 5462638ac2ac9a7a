package service

import (
	"sync"
	"time"

	"heater_server/internal/models"
)

// CurrentStateStore holds the most recent data point per value type.
// It is the only state shared between the ingestion path, the HTTP
// snapshot reads and the persistence scheduler, so all access goes
// through the RW mutex.
type CurrentStateStore struct {
	mu     sync.RWMutex
	values map[int]models.CurrentValue
}

func NewCurrentStateStore() *CurrentStateStore {
	return &CurrentStateStore{values: make(map[int]models.CurrentValue)}
}

// Seed pre-creates one zero-valued entry per known value type so that
// consumers never observe a missing id for a cataloged type.
func (s *CurrentStateStore) Seed(descriptions map[int]models.ValueDescription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range descriptions {
		if _, ok := s.values[id]; ok {
			continue
		}
		s.values[id] = models.CurrentValue{
			ValueTypeID: id,
			Description: d.Description,
			Unit:        d.Unit,
			IsLogged:    d.IsLogged,
			Latest:      models.DataPoint{Value: models.Numeric(0)},
		}
	}
}

// CompareAndSet stores the point for id if its value differs from the
// stored one (or the id is unknown) and reports whether it did. The
// meta argument only matters when the entry is created ad hoc for an
// id the catalog does not know.
func (s *CurrentStateStore) CompareAndSet(id int, meta models.ValueDescription, point models.DataPoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.values[id]
	if !ok {
		s.values[id] = models.CurrentValue{
			ValueTypeID: id,
			Description: meta.Description,
			Unit:        meta.Unit,
			IsLogged:    meta.IsLogged,
			Latest:      point,
		}
		return true
	}
	if cur.Latest.Value.Equal(point.Value) {
		return false
	}
	cur.Latest = point
	s.values[id] = cur
	return true
}

// SetLogged updates the logging flag of an existing entry.
func (s *CurrentStateStore) SetLogged(id int, isLogged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.values[id]; ok {
		cur.IsLogged = isLogged
		s.values[id] = cur
	}
}

// Snapshot returns a copy of the current mapping.
func (s *CurrentStateStore) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(models.Snapshot, len(s.values))
	for id, v := range s.values {
		out[id] = v
	}
	return out
}

// LoggableHistory returns one history row per loggable value type,
// carrying the latest value and the given timestamp.
func (s *CurrentStateStore) LoggableHistory(now time.Time) []models.HistoryPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.HistoryPoint
	for id, v := range s.values {
		if !v.IsLogged {
			continue
		}
		out = append(out, models.HistoryPoint{
			ValueTypeID: id,
			Value:       v.Latest.Value.Float(),
			Timestamp:   now,
		})
	}
	return out
}
