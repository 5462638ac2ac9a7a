package models

import (
	"encoding/json"
	"time"
)

// Reserved value-type ids from the heater protocol.
const (
	StatusValueID         = 1   // operational status code
	ErrorValueID          = 99  // error text, stored as an error id
	DoorOpeningsValueID   = 200 // derived cumulative door-open time
	OperatingHoursValueID = 180 // operating-hours counter
	BufferTopTempValueID  = 20  // upper buffer temperature
	BufferBottomValueID   = 21  // lower buffer temperature
)

// Status codes relevant to door-opening accounting and alerting.
const (
	StatusHeatingUp    = 2
	StatusBurning      = 3
	StatusEmbers       = 4
	StatusFireOut      = 5
	StatusDoorOpen     = 6
	StatusWaitIgnition = 35
	StatusPreVenting   = 56
)

// ValueDescription is the metadata for one value type. Loaded once at
// startup and treated as immutable, except for the logging flag which
// can be changed through the admin logging-state operation.
type ValueDescription struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Unit        string `json:"unit,omitempty"`
	IsLogged    bool   `json:"is_logged"`
}

// ErrorDescription maps an error id (assigned by the store) to the
// error text reported by the heater.
type ErrorDescription struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// ValueKind discriminates the two payload shapes a data point can carry.
type ValueKind int

const (
	ValueNumeric ValueKind = iota
	ValueErrorRef
)

// PointValue is a measurement value: either a plain number or, for the
// error value type, a reference to an ErrorDescription id.
type PointValue struct {
	Kind    ValueKind
	Number  float64
	ErrorID int
}

// Numeric builds a numeric point value.
func Numeric(v float64) PointValue {
	return PointValue{Kind: ValueNumeric, Number: v}
}

// ErrorRef builds a point value referencing an error id.
func ErrorRef(id int) PointValue {
	return PointValue{Kind: ValueErrorRef, ErrorID: id}
}

// Float returns the value as a float64 regardless of kind.
func (v PointValue) Float() float64 {
	if v.Kind == ValueErrorRef {
		return float64(v.ErrorID)
	}
	return v.Number
}

// Equal reports whether two point values carry the same payload.
func (v PointValue) Equal(o PointValue) bool {
	return v.Kind == o.Kind && v.Float() == o.Float()
}

// MarshalJSON emits the bare number; clients resolve error ids through
// the error dictionary delivered alongside.
func (v PointValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Float())
}

// UnmarshalJSON reads a bare number as a numeric value.
func (v *PointValue) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Numeric(f)
	return nil
}

// DataPoint is one timestamped measurement.
type DataPoint struct {
	TimeStamp time.Time  `json:"timestamp"`
	Value     PointValue `json:"value"`
}

// CurrentValue is the most recent data point for one value type.
type CurrentValue struct {
	ValueTypeID int       `json:"value_type_id"`
	Description string    `json:"description"`
	Unit        string    `json:"unit,omitempty"`
	IsLogged    bool      `json:"is_logged"`
	Latest      DataPoint `json:"latest"`
}

// Snapshot is the full current mapping of value-type id to its latest
// data point.
type Snapshot map[int]CurrentValue

// HeaterValue is one raw reading as submitted by the appliance bridge.
// Field names follow the bridge's wire format.
type HeaterValue struct {
	Name          string  `json:"name"`
	Value         string  `json:"value"`
	Unit          string  `json:"unit"`
	Index         int     `json:"index"`
	Multiplicator float64 `json:"multiplicator"`
}

// HistoryReading is a raw reading carrying its own timestamp, used by
// the bulk history import.
type HistoryReading struct {
	Name          string    `json:"name"`
	Value         string    `json:"value"`
	Unit          string    `json:"unit"`
	Index         int       `json:"index"`
	Multiplicator float64   `json:"multiplicator"`
	Timestamp     time.Time `json:"timestamp"`
}

// HistoryPoint is one row bound for the durable history table.
type HistoryPoint struct {
	ValueTypeID int       `json:"value_type_id"`
	Value       float64   `json:"value"`
	Timestamp   time.Time `json:"timestamp"`
}

// DataValue is one persisted history row read back from the store.
type DataValue struct {
	ID        int       `json:"id"`
	ValueType int       `json:"value_type"`
	Value     float64   `json:"value"`
	TimeStamp time.Time `json:"timestamp"`
}

// HeaterSeries is the history of one value type over a queried range.
type HeaterSeries struct {
	ValueTypeID int         `json:"value_type_id"`
	Description string      `json:"description"`
	Unit        string      `json:"unit,omitempty"`
	IsLogged    bool        `json:"is_logged"`
	Data        []DataPoint `json:"data"`
}

// DoorOpening is one interval during which the heater door was open.
// End is nil while the door is still open.
type DoorOpening struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// LoggingState is the admin request to change whether a value type is
// persisted to history.
type LoggingState struct {
	ValueTypeID int  `json:"value_type_id"`
	IsLogged    bool `json:"is_logged"`
}

// NotifierConfig holds the threshold alerting configuration.
type NotifierConfig struct {
	LowerThreshold float64  `json:"lower_threshold"`
	Mails          []string `json:"mails"`
}

// DayOperatingHours is the aggregated operating-hours counter for one day.
type DayOperatingHours struct {
	Date     time.Time `json:"date"`
	Hours    float64   `json:"hours"`
	MinHours float64   `json:"min_hours"`
	MaxHours float64   `json:"max_hours"`
}
