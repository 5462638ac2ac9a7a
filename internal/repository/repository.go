package repository

import (
	"context"
	"database/sql"
	"time"

	"heater_server/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// Heater covers all database access for heater values: the value-type
// and error catalogs, durable history and derived aggregates.
type Heater interface {
	GetAllValueDescriptions(ctx context.Context) ([]models.ValueDescription, error)
	GetAllErrors(ctx context.Context) ([]models.ErrorDescription, error)
	CreateError(ctx context.Context, text string) (int, error)
	AddDataPoints(ctx context.Context, points []models.HistoryPoint) error
	GetDataValues(ctx context.Context, from, to time.Time) ([]models.DataValue, error)
	GetLatestDataValues(ctx context.Context) (map[int]models.DataValue, error)
	SetLoggingStates(ctx context.Context, states []models.LoggingState) error
	GetOperatingHours(ctx context.Context, from, to time.Time) ([]models.DayOperatingHours, error)
}

// Notifier stores the threshold alert configuration.
type Notifier interface {
	GetNotifierConfig(ctx context.Context) (models.NotifierConfig, error)
	SetNotifierConfig(ctx context.Context, cfg models.NotifierConfig) error
}

type Repository struct {
	Heater   Heater
	Notifier Notifier
	Auth     Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Heater:   NewHeaterSQLite(db),
		Notifier: NewNotifierSQLite(db),
		Auth:     NewUserRepository(db),
	}
}
