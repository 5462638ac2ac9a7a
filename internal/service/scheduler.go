package service

import (
	"context"
	"sync"
	"time"

	"heater_server/internal/logger"
	"heater_server/internal/models"
	"heater_server/internal/repository"
)

// HistoryScheduler periodically buffers the loggable subset of the
// current snapshot and, on a slower cadence, flushes the buffer to the
// database. It runs out-of-band from ingestion: a slow or failing
// flush delays persistence but never stalls SubmitReadings.
type HistoryScheduler struct {
	log     *logger.Logger
	repo    repository.Heater
	current *CurrentStateStore

	mu     sync.Mutex
	buffer []models.HistoryPoint

	bufferEvery time.Duration
	flushEvery  time.Duration
	now         func() time.Time
}

func NewHistoryScheduler(
	log *logger.Logger,
	repo repository.Heater,
	current *CurrentStateStore,
	bufferEvery, flushEvery time.Duration,
) *HistoryScheduler {
	return &HistoryScheduler{
		log:         log,
		repo:        repo,
		current:     current,
		bufferEvery: bufferEvery,
		flushEvery:  flushEvery,
		now:         time.Now,
	}
}

// Run ticks until ctx is canceled. One final flush attempt is made on
// shutdown so a clean stop loses at most the current buffer interval.
func (s *HistoryScheduler) Run(ctx context.Context) {
	bufferTicker := time.NewTicker(s.bufferEvery)
	flushTicker := time.NewTicker(s.flushEvery)
	defer bufferTicker.Stop()
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			s.flushTick(flushCtx)
			cancel()
			return
		case now := <-bufferTicker.C:
			s.bufferTick(now)
		case <-flushTicker.C:
			s.flushTick(ctx)
		}
	}
}

// bufferTick appends the latest value of every loggable type, at most
// one point per id per tick.
func (s *HistoryScheduler) bufferTick(now time.Time) {
	points := s.current.LoggableHistory(now.UTC())
	if len(points) == 0 {
		return
	}

	s.mu.Lock()
	s.buffer = append(s.buffer, points...)
	buffered := len(s.buffer)
	s.mu.Unlock()

	s.log.Debugw("history_buffered", "points", len(points), "total", buffered)
}

// flushTick writes the buffered points. On failure the buffer is kept
// and retried on the next tick.
func (s *HistoryScheduler) flushTick(ctx context.Context) {
	s.mu.Lock()
	pending := make([]models.HistoryPoint, len(s.buffer))
	copy(pending, s.buffer)
	s.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	if err := s.repo.AddDataPoints(ctx, pending); err != nil {
		s.log.Warnw("history_flush_failed", "points", len(pending), "err", err)
		return
	}

	s.mu.Lock()
	s.buffer = s.buffer[len(pending):]
	s.mu.Unlock()

	s.log.Infow("history_flushed", "points", len(pending))
}

// Buffered returns the number of points waiting to be persisted.
func (s *HistoryScheduler) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}
