package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"heater_server/internal/models"
)

// NotifierSQLite stores the threshold alert configuration: one
// NotifierConfig row (Id=1) plus one NotifierMails row per recipient.
type NotifierSQLite struct {
	db *sql.DB
}

func NewNotifierSQLite(db *sql.DB) *NotifierSQLite {
	return &NotifierSQLite{db: db}
}

var _ Notifier = (*NotifierSQLite)(nil)

const (
	notifierConfigRowID = 1

	selectThresholdSQL = `SELECT LowerThreshold FROM NotifierConfig WHERE Id = ?`
	selectMailsSQL     = `SELECT Mail FROM NotifierMails ORDER BY Id`

	upsertThresholdSQL = `
		INSERT INTO NotifierConfig (Id, LowerThreshold) VALUES (?, ?)
		ON CONFLICT(Id) DO UPDATE SET LowerThreshold = excluded.LowerThreshold
	`
	deleteMailsSQL = `DELETE FROM NotifierMails`
)

// GetNotifierConfig loads the threshold and recipient list. A missing
// config row yields a zero config, not an error.
func (r *NotifierSQLite) GetNotifierConfig(ctx context.Context) (models.NotifierConfig, error) {
	var cfg models.NotifierConfig

	err := r.db.QueryRowContext(ctx, selectThresholdSQL, notifierConfigRowID).Scan(&cfg.LowerThreshold)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.NotifierConfig{}, fmt.Errorf("select notifier threshold: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectMailsSQL)
	if err != nil {
		return models.NotifierConfig{}, fmt.Errorf("select notifier mails: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var mail string
		if err := rows.Scan(&mail); err != nil {
			return models.NotifierConfig{}, fmt.Errorf("scan notifier mail: %w", err)
		}
		cfg.Mails = append(cfg.Mails, mail)
	}
	return cfg, rows.Err()
}

// SetNotifierConfig replaces the stored configuration in one transaction.
func (r *NotifierSQLite) SetNotifierConfig(ctx context.Context, cfg models.NotifierConfig) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notifier-config transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, upsertThresholdSQL, notifierConfigRowID, cfg.LowerThreshold); err != nil {
		return fmt.Errorf("upsert notifier threshold: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteMailsSQL); err != nil {
		return fmt.Errorf("clear notifier mails: %w", err)
	}

	if len(cfg.Mails) > 0 {
		var sb strings.Builder
		sb.WriteString("INSERT INTO NotifierMails (Mail) VALUES ")
		args := make([]any, 0, len(cfg.Mails))
		for i, mail := range cfg.Mails {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?)")
			args = append(args, mail)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert notifier mails: %w", err)
		}
	}

	return tx.Commit()
}
