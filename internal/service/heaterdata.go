package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"heater_server/internal/logger"
	"heater_server/internal/models"
	"heater_server/internal/repository"

	"github.com/google/uuid"
)

// snapshotChanBuffer keeps publishes non-blocking; a slow subscriber
// misses intermediate snapshots, never current ones.
const snapshotChanBuffer = 1

var errDoorOpeningsNotConfigured = errors.New(
	"value description for door openings (id 200) is missing from the catalog")

// HeaterDataService is the ingestion engine: it receives raw readings,
// resolves them against the catalogs, derives the door-opening time,
// keeps the current snapshot and fans changed snapshots out to
// subscribers.
type HeaterDataService struct {
	log  *logger.Logger
	repo repository.Heater

	values  *ValueCatalog
	errors  *ErrorCatalog
	current *CurrentStateStore
	door    *DoorOpeningTracker

	// ready is closed once both catalog loads finished; loadErr holds
	// the outcome. Submissions block on ready and fail on loadErr.
	ready   chan struct{}
	loadErr error

	// mu serializes the ingestion path: door tracker mutation and the
	// warn-once bookkeeping for unknown value types.
	mu     sync.Mutex
	warned map[int]struct{}

	subsMu sync.RWMutex
	subs   map[string]chan models.Snapshot

	now func() time.Time
}

// NewHeaterDataService constructs the engine and starts the one-time
// asynchronous catalog load.
func NewHeaterDataService(ctx context.Context, log *logger.Logger, repo repository.Heater) *HeaterDataService {
	s := &HeaterDataService{
		log:     log,
		repo:    repo,
		values:  NewValueCatalog(),
		errors:  NewErrorCatalog(),
		current: NewCurrentStateStore(),
		door:    NewDoorOpeningTracker(),
		ready:   make(chan struct{}),
		warned:  make(map[int]struct{}),
		subs:    make(map[string]chan models.Snapshot),
		now:     time.Now,
	}
	go s.loadCatalogs(ctx)
	return s
}

// loadCatalogs runs both catalog loads concurrently, validates the
// required door-openings entry and seeds the current-state store.
func (s *HeaterDataService) loadCatalogs(ctx context.Context) {
	defer close(s.ready)

	var wg sync.WaitGroup
	var valueErr, errorErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		valueErr = s.values.Load(ctx, s.repo)
	}()
	go func() {
		defer wg.Done()
		errorErr = s.errors.Load(ctx, s.repo)
	}()
	wg.Wait()

	switch {
	case valueErr != nil:
		s.loadErr = valueErr
	case errorErr != nil:
		s.loadErr = errorErr
	default:
		if _, ok := s.values.Get(models.DoorOpeningsValueID); !ok {
			s.loadErr = errDoorOpeningsNotConfigured
		}
	}

	if s.loadErr != nil {
		s.log.Errorw("catalog_load_failed", "err", s.loadErr)
		return
	}

	s.current.Seed(s.values.All())
	s.log.Infow("catalogs_loaded",
		"value_types", len(s.values.All()),
		"errors", len(s.errors.All()))
}

// awaitCatalogs blocks until the startup load finished or ctx is done.
func (s *HeaterDataService) awaitCatalogs(ctx context.Context) error {
	select {
	case <-s.ready:
		return s.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready blocks until the startup catalog load finished and returns its
// outcome. Startup treats a failure as fatal.
func (s *HeaterDataService) Ready(ctx context.Context) error {
	return s.awaitCatalogs(ctx)
}

// SubmitReadings processes one batch of raw readings in submission
// order. If any reading changed the current state, the full snapshot is
// published once after the batch.
func (s *HeaterDataService) SubmitReadings(ctx context.Context, readings []models.HeaterValue) error {
	if err := s.awaitCatalogs(ctx); err != nil {
		return err
	}

	changed := false
	for _, reading := range readings {
		if s.applyReading(ctx, reading) {
			changed = true
		}
	}

	if changed {
		s.publish(s.current.Snapshot())
	}
	return nil
}

// applyReading resolves one reading and updates the current state.
// Reports whether anything observable changed.
func (s *HeaterDataService) applyReading(ctx context.Context, reading models.HeaterValue) bool {
	now := s.now()
	point := models.DataPoint{TimeStamp: now}

	if reading.Index == models.ErrorValueID {
		text := strings.TrimSpace(reading.Value)
		errorID, err := s.errors.ResolveOrCreate(ctx, s.repo, text)
		if err != nil {
			s.log.Errorw("error_resolve_failed", "text", text, "err", err)
			return false
		}
		point.Value = models.ErrorRef(errorID)
	} else {
		point.Value = models.Numeric(s.parseNumeric(reading))
	}

	meta, known := s.values.Get(reading.Index)
	if !known {
		s.warnUnknownValueType(reading)
		meta = models.ValueDescription{
			ID:          reading.Index,
			Description: reading.Name,
			Unit:        reading.Unit,
		}
	}

	changed := false
	if reading.Index == models.StatusValueID {
		if s.observeStatus(int(point.Value.Float()), now) {
			changed = true
		}
	}

	if s.current.CompareAndSet(reading.Index, meta, point) {
		changed = true
	}
	return changed
}

// parseNumeric converts the raw value, dividing by the scale factor
// (zero treated as one). A malformed value degrades to zero; the batch
// goes on.
func (s *HeaterDataService) parseNumeric(reading models.HeaterValue) float64 {
	scale := reading.Multiplicator
	if scale == 0 {
		scale = 1
	}

	raw, err := strconv.ParseFloat(strings.TrimSpace(reading.Value), 64)
	if err != nil {
		s.log.Errorw("value_parse_failed",
			"value_type", reading.Index, "value", reading.Value, "err", err)
		return 0
	}
	return raw / scale
}

// observeStatus runs the door-opening tracker and, when its state
// changed, writes the recomputed cumulative duration under the
// door-openings value type.
func (s *HeaterDataService) observeStatus(status int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.door.Observe(status) {
		return false
	}

	duration := s.door.OpenDuration().Seconds()
	meta, _ := s.values.Get(models.DoorOpeningsValueID)
	s.current.CompareAndSet(models.DoorOpeningsValueID, meta, models.DataPoint{
		TimeStamp: now,
		Value:     models.Numeric(duration),
	})
	return true
}

// warnUnknownValueType logs once per unknown id, not once per reading.
func (s *HeaterDataService) warnUnknownValueType(reading models.HeaterValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.warned[reading.Index]; seen {
		return
	}
	s.warned[reading.Index] = struct{}{}
	s.log.Warnw("unknown_value_type",
		"value_type", reading.Index, "name", reading.Name)
}

// CurrentSnapshot returns the live snapshot once the catalogs are ready.
func (s *HeaterDataService) CurrentSnapshot(ctx context.Context) (models.Snapshot, error) {
	if err := s.awaitCatalogs(ctx); err != nil {
		return nil, err
	}
	return s.current.Snapshot(), nil
}

// ErrorDictionary returns the known error id to text mapping.
func (s *HeaterDataService) ErrorDictionary(ctx context.Context) (map[int]string, error) {
	if err := s.awaitCatalogs(ctx); err != nil {
		return nil, err
	}
	out := make(map[int]string)
	for id, e := range s.errors.All() {
		out[id] = e.Description
	}
	return out, nil
}

// SetLoggingStates persists changed logging flags and applies them to
// the in-memory catalog and snapshot.
func (s *HeaterDataService) SetLoggingStates(ctx context.Context, states []models.LoggingState) error {
	if err := s.awaitCatalogs(ctx); err != nil {
		return err
	}
	if err := s.repo.SetLoggingStates(ctx, states); err != nil {
		return fmt.Errorf("persist logging states: %w", err)
	}
	for _, st := range states {
		s.values.SetLogged(st.ValueTypeID, st.IsLogged)
		s.current.SetLogged(st.ValueTypeID, st.IsLogged)
	}
	return nil
}

// Subscribe registers a snapshot channel and returns its id for
// unsubscribing. The channel receives the full snapshot whenever a
// batch changed anything.
func (s *HeaterDataService) Subscribe() (string, <-chan models.Snapshot) {
	id := uuid.NewString()
	ch := make(chan models.Snapshot, snapshotChanBuffer)

	s.subsMu.Lock()
	s.subs[id] = ch
	s.subsMu.Unlock()
	return id, ch
}

// Unsubscribe removes and closes the subscriber's channel.
func (s *HeaterDataService) Unsubscribe(id string) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// publish fans the snapshot out without blocking on slow subscribers.
func (s *HeaterDataService) publish(snapshot models.Snapshot) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
			continue
		default:
		}
		// Subscriber lags: replace the pending snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// Store exposes the current-state store for the persistence scheduler.
func (s *HeaterDataService) Store() *CurrentStateStore {
	return s.current
}
