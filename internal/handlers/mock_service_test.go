package handlers

import (
	"context"
	"time"

	"heater_server/internal/models"
	"heater_server/internal/service"
)

// mockHeaterData implements service.HeaterData with injectable funcs.
type mockHeaterData struct {
	readyFn     func(ctx context.Context) error
	submitFn    func(ctx context.Context, readings []models.HeaterValue) error
	snapshotFn  func(ctx context.Context) (models.Snapshot, error)
	errorsFn    func(ctx context.Context) (map[int]string, error)
	loggingFn   func(ctx context.Context, states []models.LoggingState) error
	subscribeFn func() (string, <-chan models.Snapshot)
}

func (m *mockHeaterData) Ready(ctx context.Context) error {
	if m.readyFn != nil {
		return m.readyFn(ctx)
	}
	return nil
}

func (m *mockHeaterData) SubmitReadings(ctx context.Context, readings []models.HeaterValue) error {
	if m.submitFn != nil {
		return m.submitFn(ctx, readings)
	}
	return nil
}

func (m *mockHeaterData) CurrentSnapshot(ctx context.Context) (models.Snapshot, error) {
	if m.snapshotFn != nil {
		return m.snapshotFn(ctx)
	}
	return models.Snapshot{}, nil
}

func (m *mockHeaterData) ErrorDictionary(ctx context.Context) (map[int]string, error) {
	if m.errorsFn != nil {
		return m.errorsFn(ctx)
	}
	return map[int]string{}, nil
}

func (m *mockHeaterData) SetLoggingStates(ctx context.Context, states []models.LoggingState) error {
	if m.loggingFn != nil {
		return m.loggingFn(ctx, states)
	}
	return nil
}

func (m *mockHeaterData) Subscribe() (string, <-chan models.Snapshot) {
	if m.subscribeFn != nil {
		return m.subscribeFn()
	}
	ch := make(chan models.Snapshot)
	return "mock", ch
}

func (m *mockHeaterData) Unsubscribe(id string) {}

// mockHistory implements service.History.
type mockHistory struct {
	rangeFn  func(ctx context.Context, from, to time.Time) (map[int]models.HeaterSeries, map[int]string, error)
	importFn func(ctx context.Context, readings []models.HistoryReading) error
	hoursFn  func(ctx context.Context, from, to time.Time) ([]models.DayOperatingHours, error)
}

func (m *mockHistory) Range(ctx context.Context, from, to time.Time) (map[int]models.HeaterSeries, map[int]string, error) {
	if m.rangeFn != nil {
		return m.rangeFn(ctx, from, to)
	}
	return map[int]models.HeaterSeries{}, map[int]string{}, nil
}

func (m *mockHistory) Import(ctx context.Context, readings []models.HistoryReading) error {
	if m.importFn != nil {
		return m.importFn(ctx, readings)
	}
	return nil
}

func (m *mockHistory) OperatingHours(ctx context.Context, from, to time.Time) ([]models.DayOperatingHours, error) {
	if m.hoursFn != nil {
		return m.hoursFn(ctx, from, to)
	}
	return nil, nil
}

// mockNotifier implements service.Notifier.
type mockNotifier struct {
	configFn    func(ctx context.Context) (models.NotifierConfig, error)
	setConfigFn func(ctx context.Context, cfg models.NotifierConfig) error
}

func (m *mockNotifier) Config(ctx context.Context) (models.NotifierConfig, error) {
	if m.configFn != nil {
		return m.configFn(ctx)
	}
	return models.NotifierConfig{}, nil
}

func (m *mockNotifier) SetConfig(ctx context.Context, cfg models.NotifierConfig) error {
	if m.setConfigFn != nil {
		return m.setConfigFn(ctx, cfg)
	}
	return nil
}

// mockAuth implements service.Authorization.
type mockAuth struct {
	signUpFn func(username, password string) (int, error)
	tokenFn  func(username, password string) (string, error)
	parseFn  func(accessToken string) (int, error)
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	if m.signUpFn != nil {
		return m.signUpFn(username, password)
	}
	return 1, nil
}

func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	if m.tokenFn != nil {
		return m.tokenFn(username, password)
	}
	return "token", nil
}

func (m *mockAuth) ParseToken(accessToken string) (int, error) {
	if m.parseFn != nil {
		return m.parseFn(accessToken)
	}
	return 1, nil
}

type mocks struct {
	heater   *mockHeaterData
	history  *mockHistory
	notifier *mockNotifier
	auth     *mockAuth
}

func newMockService() (*service.Service, *mocks) {
	m := &mocks{
		heater:   &mockHeaterData{},
		history:  &mockHistory{},
		notifier: &mockNotifier{},
		auth:     &mockAuth{},
	}
	return &service.Service{
		HeaterData:    m.heater,
		History:       m.history,
		Notifier:      m.notifier,
		Authorization: m.auth,
	}, m
}
