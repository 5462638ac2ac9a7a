package service

import (
	"context"
	"time"

	"heater_server/internal/logger"
	"heater_server/internal/models"
	"heater_server/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// HeaterData is the ingestion engine surface the HTTP and MQTT layers
// consume.
type HeaterData interface {
	Ready(ctx context.Context) error
	SubmitReadings(ctx context.Context, readings []models.HeaterValue) error
	CurrentSnapshot(ctx context.Context) (models.Snapshot, error)
	ErrorDictionary(ctx context.Context) (map[int]string, error)
	SetLoggingStates(ctx context.Context, states []models.LoggingState) error
	Subscribe() (string, <-chan models.Snapshot)
	Unsubscribe(id string)
}

// History exposes durable history reads and the bulk import.
type History interface {
	Range(ctx context.Context, from, to time.Time) (map[int]models.HeaterSeries, map[int]string, error)
	Import(ctx context.Context, readings []models.HistoryReading) error
	OperatingHours(ctx context.Context, from, to time.Time) ([]models.DayOperatingHours, error)
}

// Notifier exposes the alert configuration; its check loop runs as a
// background task.
type Notifier interface {
	Config(ctx context.Context) (models.NotifierConfig, error)
	SetConfig(ctx context.Context, cfg models.NotifierConfig) error
}

// Config carries the tunables main reads from the config file.
type Config struct {
	BufferInterval    time.Duration // snapshot-to-buffer cadence
	FlushInterval     time.Duration // buffer-to-database cadence
	NotifierInterval  time.Duration // threshold-check cadence
	HistoryResolution time.Duration // import down-sampling chunk size
	JWTSigningKey     string
}

// Service aggregates all sub-services. Scheduler and Mail run as
// background loops started from main.
type Service struct {
	HeaterData
	History
	Notifier
	Authorization

	Scheduler *HistoryScheduler
	Mail      *NotifierService
}

// NewService wires the repository layer into concrete services. The
// engine's catalog load starts immediately in the background.
func NewService(ctx context.Context, repos *repository.Repository, log *logger.Logger, sender MailSender, cfg Config) *Service {
	engine := NewHeaterDataService(ctx, log, repos.Heater)
	mail := NewNotifierService(log, repos.Heater, repos.Notifier, sender, cfg.NotifierInterval)

	return &Service{
		HeaterData:    engine,
		History:       NewHistoryService(log, repos.Heater, cfg.HistoryResolution),
		Notifier:      mail,
		Authorization: NewAuthService(repos.Auth, cfg.JWTSigningKey),
		Scheduler:     NewHistoryScheduler(log, repos.Heater, engine.Store(), cfg.BufferInterval, cfg.FlushInterval),
		Mail:          mail,
	}
}
