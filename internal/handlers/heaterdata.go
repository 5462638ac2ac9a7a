package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"heater_server/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errSubmitValues   = "failed to process readings"
	errGetCurrent     = "failed to load current values"
	errGetData        = "failed to load history"
	errImportHistory  = "failed to import history"
	errOperatingHours = "failed to load operating hours"
	errLoggingState   = "failed to update logging state"

	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SubmitValuesRequest documents the submit payload for Swagger.
type SubmitValuesRequest struct {
	// Raw readings from the appliance bridge, in submission order.
	Values []models.HeaterValue `json:"values"`
}

// @Summary      Submit heater readings
// @Description  Accepts a batch of raw readings from the appliance bridge.
// @Tags         heater
// @Accept       json
// @Produce      json
// @Param        body  body   SubmitValuesRequest  true  "Readings batch"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/heater/values [post]
// @Security     BearerAuth
func (h *Handler) submitValues(c *gin.Context) {
	var req SubmitValuesRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	if err := h.services.SubmitReadings(c.Request.Context(), req.Values); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSubmitValues,
			"submit_values_failed", err, "count", len(req.Values))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// @Summary      Current heater values
// @Tags         heater
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "values, errors"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/heater/current [get]
// @Security     BearerAuth
func (h *Handler) getCurrent(c *gin.Context) {
	ctx := c.Request.Context()

	snapshot, err := h.services.CurrentSnapshot(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetCurrent, "get_current_failed", err)
		return
	}
	errorTexts, err := h.services.ErrorDictionary(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetCurrent, "get_error_dictionary_failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"values": snapshot,
		"errors": errorTexts,
	})
}

// @Summary      Heater history
// @Description  Returns one series per value type within [from, to]. Error ids are resolved through the returned error dictionary.
// @Tags         heater
// @Produce      json
// @Param        from  query   string  true   "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        to    query   string  true   "End of range. Date-only is treated as end of day."
// @Success      200   {object}  map[string]interface{}  "series, errors"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/heater/data [get]
// @Security     BearerAuth
func (h *Handler) getData(c *gin.Context) {
	from, to, ok := h.parseRange(c)
	if !ok {
		return
	}

	series, errorTexts, err := h.services.Range(c.Request.Context(), from, to)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetData,
			"get_data_failed", err, "from", from, "to", to)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"series": series,
		"errors": errorTexts,
	})
}

// ImportHistoryRequest documents the bulk import payload for Swagger.
type ImportHistoryRequest struct {
	Readings []models.HistoryReading `json:"readings"`
}

// @Summary      Import raw history readings
// @Description  Down-samples the batch to the configured resolution and persists it.
// @Tags         heater
// @Accept       json
// @Produce      json
// @Param        body  body   ImportHistoryRequest  true  "Raw timestamped readings"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/heater/history [post]
// @Security     BearerAuth
func (h *Handler) importHistory(c *gin.Context) {
	var req ImportHistoryRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	if err := h.services.Import(c.Request.Context(), req.Readings); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errImportHistory,
			"import_history_failed", err, "count", len(req.Readings))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "imported"})
}

// @Summary      Daily operating hours
// @Tags         heater
// @Produce      json
// @Param        from  query   string  true  "Start date"
// @Param        to    query   string  true  "End date"
// @Success      200   {object}  map[string]interface{}  "days"
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/heater/operating-hours [get]
// @Security     BearerAuth
func (h *Handler) getOperatingHours(c *gin.Context) {
	from, to, ok := h.parseRange(c)
	if !ok {
		return
	}

	days, err := h.services.OperatingHours(c.Request.Context(), from, to)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errOperatingHours,
			"get_operating_hours_failed", err, "from", from, "to", to)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

// @Summary      Set logging state
// @Description  Changes which value types are persisted to history.
// @Tags         heater
// @Accept       json
// @Produce      json
// @Param        body  body   []models.LoggingState  true  "Logging states"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/heater/logging-state [put]
// @Security     BearerAuth
func (h *Handler) setLoggingState(c *gin.Context) {
	var states []models.LoggingState
	if ok := h.bindJSONOrBadRequest(c, &states); !ok {
		return
	}

	if err := h.services.SetLoggingStates(c.Request.Context(), states); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoggingState,
			"set_logging_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// parseRange reads the from/to query parameters; a date-only 'to' is
// treated as end-of-day inclusive.
func (h *Handler) parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := parseQueryTime(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
		return time.Time{}, time.Time{}, false
	}

	toRaw := c.Query("to")
	to, err := parseQueryTime(toRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
		return time.Time{}, time.Time{}, false
	}
	if isDateOnly(toRaw) {
		to = to.Add(24*time.Hour - time.Nanosecond).UTC()
	}

	if from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// isDateOnly reports whether the query string has no time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", s)
}
