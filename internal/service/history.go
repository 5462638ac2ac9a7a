package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"heater_server/internal/logger"
	"heater_server/internal/models"
	"heater_server/internal/repository"
)

// HistoryService answers history range queries and imports raw history
// batches, down-sampled to the store's time resolution.
type HistoryService struct {
	log        *logger.Logger
	repo       repository.Heater
	resolution time.Duration
}

func NewHistoryService(log *logger.Logger, repo repository.Heater, resolution time.Duration) *HistoryService {
	return &HistoryService{log: log, repo: repo, resolution: resolution}
}

// Range returns one series per cataloged value type for the given time
// range, plus the error dictionary so clients can resolve error ids.
// Points whose value type has no description are skipped with a single
// warning per id.
func (s *HistoryService) Range(ctx context.Context, from, to time.Time) (map[int]models.HeaterSeries, map[int]string, error) {
	descriptions, err := s.repo.GetAllValueDescriptions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load value descriptions: %w", err)
	}
	errDescriptions, err := s.repo.GetAllErrors(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load error descriptions: %w", err)
	}
	values, err := s.repo.GetDataValues(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("load data values: %w", err)
	}

	series := make(map[int]models.HeaterSeries, len(descriptions))
	for _, d := range descriptions {
		series[d.ID] = models.HeaterSeries{
			ValueTypeID: d.ID,
			Description: d.Description,
			Unit:        d.Unit,
			IsLogged:    d.IsLogged,
		}
	}

	warned := make(map[int]struct{})
	for _, v := range values {
		entry, ok := series[v.ValueType]
		if !ok {
			if _, seen := warned[v.ValueType]; !seen {
				warned[v.ValueType] = struct{}{}
				s.log.Warnw("history_value_without_description", "value_type", v.ValueType)
			}
			continue
		}

		point := models.DataPoint{TimeStamp: v.TimeStamp, Value: models.Numeric(v.Value)}
		if v.ValueType == models.ErrorValueID {
			point.Value = models.ErrorRef(int(v.Value))
		}
		entry.Data = append(entry.Data, point)
		series[v.ValueType] = entry
	}

	errorTexts := make(map[int]string, len(errDescriptions))
	for _, e := range errDescriptions {
		errorTexts[e.ID] = e.Description
	}
	return series, errorTexts, nil
}

// Import persists a batch of raw timestamped readings, keeping the
// newest reading per value type within each resolution chunk so at most
// one row per id per chunk is written.
func (s *HistoryService) Import(ctx context.Context, readings []models.HistoryReading) error {
	if len(readings) == 0 {
		return nil
	}

	minTS, maxTS := readings[0].Timestamp, readings[0].Timestamp
	for _, r := range readings[1:] {
		if r.Timestamp.Before(minTS) {
			minTS = r.Timestamp
		}
		if r.Timestamp.After(maxTS) {
			maxTS = r.Timestamp
		}
	}

	var points []models.HistoryPoint
	for chunk := minTS.Truncate(s.resolution); !chunk.After(maxTS); chunk = chunk.Add(s.resolution) {
		chunkEnd := chunk.Add(s.resolution)
		latest := make(map[int]models.HistoryReading)

		for _, r := range readings {
			if r.Timestamp.Before(chunk) || !r.Timestamp.Before(chunkEnd) {
				continue
			}
			if prev, ok := latest[r.Index]; !ok || r.Timestamp.After(prev.Timestamp) {
				latest[r.Index] = r
			}
		}

		for _, r := range latest {
			value, err := parseScaled(r.Value, r.Multiplicator)
			if err != nil {
				s.log.Errorw("history_import_parse_failed",
					"value_type", r.Index, "value", r.Value, "err", err)
				continue
			}
			points = append(points, models.HistoryPoint{
				ValueTypeID: r.Index,
				Value:       value,
				Timestamp:   r.Timestamp,
			})
		}
	}

	if len(points) == 0 {
		return nil
	}
	return s.repo.AddDataPoints(ctx, points)
}

// OperatingHours returns the per-day operating-hours aggregate.
func (s *HistoryService) OperatingHours(ctx context.Context, from, to time.Time) ([]models.DayOperatingHours, error) {
	return s.repo.GetOperatingHours(ctx, from, to)
}

// parseScaled converts a raw string value, dividing by the scale factor
// (zero treated as one).
func parseScaled(raw string, scale float64) (float64, error) {
	if scale == 0 {
		scale = 1
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	return v / scale, nil
}
