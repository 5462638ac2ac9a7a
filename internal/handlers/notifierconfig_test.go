package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"heater_server/internal/models"
)

func TestGetNotifierConfig(t *testing.T) {
	router, m := newTestRouter(t)

	m.notifier.configFn = func(ctx context.Context) (models.NotifierConfig, error) {
		return models.NotifierConfig{LowerThreshold: 45, Mails: []string{"owner@example.com"}}, nil
	}

	w := doRequest(router, http.MethodGet, "/api/v1/notifier/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", w.Code)
	}

	var cfg models.NotifierConfig
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if cfg.LowerThreshold != 45 || len(cfg.Mails) != 1 {
		t.Fatalf("config not carried over: %+v", cfg)
	}
}

func TestSetNotifierConfig(t *testing.T) {
	router, m := newTestRouter(t)

	var got models.NotifierConfig
	m.notifier.setConfigFn = func(ctx context.Context, cfg models.NotifierConfig) error {
		got = cfg
		return nil
	}

	body := []byte(`{"lower_threshold":50,"mails":["a@example.com"]}`)
	w := doRequest(router, http.MethodPut, "/api/v1/notifier/config", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d, body %s", w.Code, w.Body.String())
	}
	if got.LowerThreshold != 50 || len(got.Mails) != 1 {
		t.Fatalf("config not passed through: %+v", got)
	}
}

func TestSetNotifierConfigRejectsBadMail(t *testing.T) {
	router, m := newTestRouter(t)

	called := false
	m.notifier.setConfigFn = func(ctx context.Context, cfg models.NotifierConfig) error {
		called = true
		return nil
	}

	body := []byte(`{"lower_threshold":50,"mails":["not-a-mail"]}`)
	w := doRequest(router, http.MethodPut, "/api/v1/notifier/config", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want 400, got %d", w.Code)
	}
	if called {
		t.Fatalf("invalid mail must not reach the service")
	}
}
