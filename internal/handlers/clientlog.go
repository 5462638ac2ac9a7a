package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Client log levels as sent by the frontend.
const (
	clientLevelTrace = "trace"
	clientLevelDebug = "debug"
	clientLevelInfo  = "info"
	clientLevelWarn  = "warn"
	clientLevelError = "error"
)

type clientLogMessage struct {
	Level   string `json:"level" binding:"required"`
	Message string `json:"message" binding:"required"`
	Source  string `json:"source"`
}

// @Summary      Submit client log messages
// @Description  Forwards frontend log messages into the server log.
// @Tags         logs
// @Accept       json
// @Produce      json
// @Param        body  body   []clientLogMessage  true  "Log messages"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/logs [post]
// @Security     BearerAuth
func (h *Handler) addClientLogs(c *gin.Context) {
	var messages []clientLogMessage
	if ok := h.bindJSONOrBadRequest(c, &messages); !ok {
		return
	}

	for _, msg := range messages {
		fields := []interface{}{"source", msg.Source, "client", true}
		switch msg.Level {
		case clientLevelTrace, clientLevelDebug:
			h.log.Debugw(msg.Message, fields...)
		case clientLevelWarn:
			h.log.Warnw(msg.Message, fields...)
		case clientLevelError:
			h.log.Errorw(msg.Message, fields...)
		case clientLevelInfo:
			h.log.Infow(msg.Message, fields...)
		default:
			h.log.Infow(msg.Message, append(fields, "client_level", msg.Level)...)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged", "count": len(messages)})
}
