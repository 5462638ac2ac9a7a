package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"heater_server/internal/models"
)

// HeaterSQLite implements Heater on the sqlite schema.
type HeaterSQLite struct {
	db *sql.DB
}

func NewHeaterSQLite(db *sql.DB) *HeaterSQLite {
	return &HeaterSQLite{db: db}
}

var _ Heater = (*HeaterSQLite)(nil)

const (
	selectValueDescriptionsSQL = `SELECT Id, Description, Unit, IsLogged FROM ValueDescription`

	selectErrorsSQL = `SELECT Id, Description FROM ErrorList`

	insertErrorSQL = `INSERT INTO ErrorList (Description) VALUES (?)`

	selectDataValuesSQL = `
		SELECT Id, ValueType, Value, Timestamp
		FROM DataValues
		WHERE Timestamp BETWEEN ? AND ?
		ORDER BY Timestamp
	`

	// Latest row per value type; the correlated MAX keeps it a single query.
	selectLatestDataValuesSQL = `
		SELECT d.Id, d.ValueType, d.Value, d.Timestamp
		FROM DataValues d
		WHERE d.Timestamp = (
			SELECT MAX(Timestamp) FROM DataValues WHERE ValueType = d.ValueType
		)
	`

	updateLoggingStateSQL = `UPDATE ValueDescription SET IsLogged = ? WHERE Id = ?`

	// Per-day span of the operating-hours counter.
	selectOperatingHoursSQL = `
		SELECT date(Timestamp), MAX(Value) - MIN(Value), MIN(Value), MAX(Value)
		FROM DataValues
		WHERE ValueType = ? AND date(Timestamp) BETWEEN date(?) AND date(?)
		GROUP BY date(Timestamp)
		ORDER BY date(Timestamp)
	`
)

// GetAllValueDescriptions loads the whole value-type catalog.
func (r *HeaterSQLite) GetAllValueDescriptions(ctx context.Context) ([]models.ValueDescription, error) {
	rows, err := r.db.QueryContext(ctx, selectValueDescriptionsSQL)
	if err != nil {
		return nil, fmt.Errorf("select value descriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.ValueDescription
	for rows.Next() {
		var d models.ValueDescription
		var unit sql.NullString
		if err := rows.Scan(&d.ID, &d.Description, &unit, &d.IsLogged); err != nil {
			return nil, fmt.Errorf("scan value description: %w", err)
		}
		d.Unit = unit.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetAllErrors loads all known error descriptions.
func (r *HeaterSQLite) GetAllErrors(ctx context.Context) ([]models.ErrorDescription, error) {
	rows, err := r.db.QueryContext(ctx, selectErrorsSQL)
	if err != nil {
		return nil, fmt.Errorf("select errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.ErrorDescription
	for rows.Next() {
		var e models.ErrorDescription
		if err := rows.Scan(&e.ID, &e.Description); err != nil {
			return nil, fmt.Errorf("scan error description: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateError inserts a new error text and returns its assigned id.
func (r *HeaterSQLite) CreateError(ctx context.Context, text string) (int, error) {
	res, err := r.db.ExecContext(ctx, insertErrorSQL, text)
	if err != nil {
		return 0, fmt.Errorf("insert error %q: %w", text, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id for error %q: %w", text, err)
	}
	return int(id), nil
}

// AddDataPoints bulk-inserts history rows in a single multi-row statement.
func (r *HeaterSQLite) AddDataPoints(ctx context.Context, points []models.HistoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO DataValues (ValueType, Value, Timestamp) VALUES ")
	args := make([]any, 0, len(points)*3)
	for i, p := range points {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, p.ValueTypeID, p.Value, p.Timestamp.UTC())
	}

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert %d data points: %w", len(points), err)
	}
	return nil
}

// GetDataValues returns all persisted points within [from, to].
func (r *HeaterSQLite) GetDataValues(ctx context.Context, from, to time.Time) ([]models.DataValue, error) {
	rows, err := r.db.QueryContext(ctx, selectDataValuesSQL, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("select data values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.DataValue
	for rows.Next() {
		var v models.DataValue
		if err := rows.Scan(&v.ID, &v.ValueType, &v.Value, &v.TimeStamp); err != nil {
			return nil, fmt.Errorf("scan data value: %w", err)
		}
		v.TimeStamp = v.TimeStamp.UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetLatestDataValues returns the newest persisted point per value type.
func (r *HeaterSQLite) GetLatestDataValues(ctx context.Context) (map[int]models.DataValue, error) {
	rows, err := r.db.QueryContext(ctx, selectLatestDataValuesSQL)
	if err != nil {
		return nil, fmt.Errorf("select latest data values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int]models.DataValue)
	for rows.Next() {
		var v models.DataValue
		if err := rows.Scan(&v.ID, &v.ValueType, &v.Value, &v.TimeStamp); err != nil {
			return nil, fmt.Errorf("scan latest data value: %w", err)
		}
		v.TimeStamp = v.TimeStamp.UTC()
		out[v.ValueType] = v
	}
	return out, rows.Err()
}

// SetLoggingStates updates the logging flag of the given value types
// in one transaction.
func (r *HeaterSQLite) SetLoggingStates(ctx context.Context, states []models.LoggingState) error {
	if len(states) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin logging-state transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range states {
		if _, err := tx.ExecContext(ctx, updateLoggingStateSQL, s.IsLogged, s.ValueTypeID); err != nil {
			return fmt.Errorf("update logging state of %d: %w", s.ValueTypeID, err)
		}
	}
	return tx.Commit()
}

// GetOperatingHours aggregates the operating-hours counter per day in
// the given date range (only the date part of from/to is considered).
func (r *HeaterSQLite) GetOperatingHours(ctx context.Context, from, to time.Time) ([]models.DayOperatingHours, error) {
	rows, err := r.db.QueryContext(ctx, selectOperatingHoursSQL,
		models.OperatingHoursValueID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("select operating hours: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.DayOperatingHours
	for rows.Next() {
		var day string
		var h models.DayOperatingHours
		if err := rows.Scan(&day, &h.Hours, &h.MinHours, &h.MaxHours); err != nil {
			return nil, fmt.Errorf("scan operating hours: %w", err)
		}
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("parse operating-hours day %q: %w", day, err)
		}
		h.Date = date
		out = append(out, h)
	}
	return out, rows.Err()
}
