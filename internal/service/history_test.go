package service

import (
	"context"
	"testing"
	"time"

	"heater_server/internal/logger"
	"heater_server/internal/models"
)

func TestHistoryService_Range(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := &stubHeaterRepo{
		descriptions: testCatalog(),
		errs:         []models.ErrorDescription{{ID: 4, Description: "sensor fault"}},
		dataValues: []models.DataValue{
			{ID: 1, ValueType: models.BufferTopTempValueID, Value: 61.5, TimeStamp: base},
			{ID: 2, ValueType: models.BufferTopTempValueID, Value: 60.0, TimeStamp: base.Add(15 * time.Minute)},
			{ID: 3, ValueType: models.ErrorValueID, Value: 4, TimeStamp: base},
			{ID: 4, ValueType: 77, Value: 1, TimeStamp: base}, // no description
		},
	}
	s := NewHistoryService(logger.Get(logger.ErrorLevel), repo, 15*time.Minute)

	series, errorTexts, err := s.Range(context.Background(), base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}

	temp := series[models.BufferTopTempValueID]
	if len(temp.Data) != 2 {
		t.Fatalf("temperature points: want 2, got %d", len(temp.Data))
	}
	if temp.Unit != "°C" || !temp.IsLogged {
		t.Errorf("series metadata not carried over: %+v", temp)
	}

	errSeries := series[models.ErrorValueID]
	if len(errSeries.Data) != 1 {
		t.Fatalf("error points: want 1, got %d", len(errSeries.Data))
	}
	if got := errSeries.Data[0].Value; got.Kind != models.ValueErrorRef || got.ErrorID != 4 {
		t.Errorf("error point must be an error ref, got %+v", got)
	}
	if errorTexts[4] != "sensor fault" {
		t.Errorf("error dictionary: want text for id 4, got %v", errorTexts)
	}

	if _, ok := series[77]; ok {
		t.Errorf("value type without description must be skipped")
	}
	// Cataloged types with no points still get an empty series.
	if _, ok := series[models.StatusValueID]; !ok {
		t.Errorf("cataloged type missing from result")
	}
}

func TestHistoryService_ImportDownSamples(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := &stubHeaterRepo{}
	s := NewHistoryService(logger.Get(logger.ErrorLevel), repo, 15*time.Minute)

	readings := []models.HistoryReading{
		// Three readings for id 20 in the same chunk; only the newest
		// survives.
		{Index: 20, Value: "600", Multiplicator: 10, Timestamp: base.Add(1 * time.Minute)},
		{Index: 20, Value: "610", Multiplicator: 10, Timestamp: base.Add(5 * time.Minute)},
		{Index: 20, Value: "620", Multiplicator: 10, Timestamp: base.Add(9 * time.Minute)},
		// A different id in the same chunk is kept independently.
		{Index: 21, Value: "500", Multiplicator: 10, Timestamp: base.Add(2 * time.Minute)},
		// Next chunk.
		{Index: 20, Value: "630", Multiplicator: 10, Timestamp: base.Add(20 * time.Minute)},
	}

	if err := s.Import(context.Background(), readings); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(repo.added) != 1 {
		t.Fatalf("persisted batches: want 1, got %d", len(repo.added))
	}

	points := repo.added[0]
	if len(points) != 3 {
		t.Fatalf("persisted points: want 3, got %+v", points)
	}

	var firstChunkTop *models.HistoryPoint
	for i := range points {
		p := points[i]
		if p.ValueTypeID == 20 && p.Timestamp.Before(base.Add(15*time.Minute)) {
			firstChunkTop = &points[i]
		}
	}
	if firstChunkTop == nil {
		t.Fatalf("no first-chunk point for id 20")
	}
	if firstChunkTop.Value != 62 {
		t.Errorf("first-chunk value: want newest (62), got %v", firstChunkTop.Value)
	}
}

func TestHistoryService_ImportSkipsMalformedReadings(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := &stubHeaterRepo{}
	s := NewHistoryService(logger.Get(logger.ErrorLevel), repo, 15*time.Minute)

	readings := []models.HistoryReading{
		{Index: 20, Value: "garbage", Timestamp: base},
		{Index: 21, Value: "48", Timestamp: base},
	}
	if err := s.Import(context.Background(), readings); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(repo.added) != 1 || len(repo.added[0]) != 1 {
		t.Fatalf("persisted points: want just the valid one, got %+v", repo.added)
	}
	if repo.added[0][0].ValueTypeID != 21 {
		t.Errorf("wrong reading survived: %+v", repo.added[0][0])
	}
}

func TestHistoryService_ImportEmptyBatch(t *testing.T) {
	t.Parallel()

	repo := &stubHeaterRepo{}
	s := NewHistoryService(logger.Get(logger.ErrorLevel), repo, 15*time.Minute)

	if err := s.Import(context.Background(), nil); err != nil {
		t.Fatalf("Import(nil): %v", err)
	}
	if len(repo.added) != 0 {
		t.Fatalf("empty batch must not call the repository")
	}
}
