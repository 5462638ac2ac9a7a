package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"heater_server/internal/logger"
	"heater_server/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	keepAlive      = 60 * time.Second
	pingTimeout    = 10 * time.Second
	disconnectWait = 250 // ms, passed to paho Disconnect
	subscribeQoS   = 1
)

// Config holds the MQTT ingest configuration.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string // readings topic, e.g. "heater/values"
}

// Submitter is the part of the ingestion engine the MQTT source needs.
type Submitter interface {
	SubmitReadings(ctx context.Context, readings []models.HeaterValue) error
}

// Ingest subscribes to the readings topic and forwards each JSON batch
// to the ingestion engine. It is an alternative transport next to the
// HTTP submit endpoint; payload shape is identical.
type Ingest struct {
	log     *logger.Logger
	client  mqtt.Client
	topic   string
	engine  Submitter
	baseCtx context.Context
}

// NewIngest builds the client; Start connects and subscribes.
func NewIngest(ctx context.Context, cfg Config, log *logger.Logger, engine Submitter) *Ingest {
	i := &Ingest{log: log, topic: cfg.Topic, engine: engine, baseCtx: ctx}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(keepAlive)
	opts.SetPingTimeout(pingTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Infow("mqtt_connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "err", err)
	})

	i.client = mqtt.NewClient(opts)
	return i
}

// Start connects to the broker and subscribes to the readings topic.
func (i *Ingest) Start() error {
	if token := i.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to mqtt broker: %w", token.Error())
	}

	token := i.client.Subscribe(i.topic, subscribeQoS, i.handleMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe to %q: %w", i.topic, token.Error())
	}

	i.log.Infow("mqtt_subscribed", "topic", i.topic)
	return nil
}

// Close disconnects from the broker.
func (i *Ingest) Close() {
	i.client.Disconnect(disconnectWait)
	i.log.Infow("mqtt_disconnected")
}

// handleMessage decodes one readings batch and submits it. A malformed
// payload is logged and dropped; the subscription stays up.
func (i *Ingest) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var readings []models.HeaterValue
	if err := json.Unmarshal(msg.Payload(), &readings); err != nil {
		i.log.Warnw("mqtt_payload_invalid", "topic", msg.Topic(), "err", err)
		return
	}
	if len(readings) == 0 {
		return
	}

	if err := i.engine.SubmitReadings(i.baseCtx, readings); err != nil {
		i.log.Errorw("mqtt_submit_failed", "count", len(readings), "err", err)
	}
}
