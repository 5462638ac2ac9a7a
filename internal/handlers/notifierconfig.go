package handlers

import (
	"net/http"
	"strings"

	"heater_server/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errGetNotifierConfig = "failed to load notifier config"
	errSetNotifierConfig = "failed to save notifier config"
)

// @Summary      Get notifier configuration
// @Tags         notifier
// @Produce      json
// @Success      200  {object}  models.NotifierConfig
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/notifier/config [get]
// @Security     BearerAuth
func (h *Handler) getNotifierConfig(c *gin.Context) {
	cfg, err := h.services.Config(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetNotifierConfig,
			"get_notifier_config_failed", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// @Summary      Set notifier configuration
// @Tags         notifier
// @Accept       json
// @Produce      json
// @Param        body  body   models.NotifierConfig  true  "Threshold and recipients"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/notifier/config [put]
// @Security     BearerAuth
func (h *Handler) setNotifierConfig(c *gin.Context) {
	var cfg models.NotifierConfig
	if ok := h.bindJSONOrBadRequest(c, &cfg); !ok {
		return
	}

	for _, mail := range cfg.Mails {
		if !strings.Contains(mail, "@") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mail address: " + mail})
			return
		}
	}

	if err := h.services.SetConfig(c.Request.Context(), cfg); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSetNotifierConfig,
			"set_notifier_config_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}
