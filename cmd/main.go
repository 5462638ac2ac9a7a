package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heater_server/internal/handlers"
	"heater_server/internal/logger"
	"heater_server/internal/mqtt"
	"heater_server/internal/repository"
	"heater_server/internal/repository/db"
	"heater_server/internal/server"
	"heater_server/internal/service"

	_ "heater_server/docs"

	"github.com/spf13/viper"
)

// Fallback intervals when the config omits them.
const (
	defaultBufferInterval   = 15 * time.Minute
	defaultFlushInterval    = 24 * time.Hour
	defaultNotifierInterval = 15 * time.Minute
	defaultResolution       = 15 * time.Minute
)

// @title        Heater Telemetry Server API
// @version      1.0
// @description  Ingestion, current state and history of heater readings.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config.yml first; the log level comes from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(viper.GetString("log_level"))

	// open DB
	database, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wire dependencies
	repos := repository.NewRepository(database)
	sender := service.NewSMTPSender(
		viper.GetString("smtp.host"),
		viper.GetInt("smtp.port"),
		viper.GetString("smtp.username"),
		viper.GetString("smtp.password"),
	)
	services := service.NewService(ctx, repos, log, sender, serviceConfig())
	apiHandler := handlers.NewHandler(services, log)

	// no valid operating mode without the catalogs
	readyCtx, readyCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := services.Ready(readyCtx); err != nil {
		log.Fatalw("failed to load catalogs", "err", err)
	}
	readyCancel()

	// start background loops: history persistence and threshold checks
	go services.Scheduler.Run(ctx)
	go services.Mail.Run(ctx)

	// optional MQTT ingest next to the HTTP submit endpoint
	ingest := startMQTT(ctx, log, services)
	if ingest != nil {
		defer ingest.Close()
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// serviceConfig reads the service tunables, falling back to defaults.
func serviceConfig() service.Config {
	return service.Config{
		BufferInterval:    durationOr("history.buffer_interval", defaultBufferInterval),
		FlushInterval:     durationOr("history.flush_interval", defaultFlushInterval),
		NotifierInterval:  durationOr("notifier.check_interval", defaultNotifierInterval),
		HistoryResolution: durationOr("history.resolution", defaultResolution),
		JWTSigningKey:     viper.GetString("auth.signing_key"),
	}
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if d := viper.GetDuration(key); d > 0 {
		return d
	}
	return fallback
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "heater.db")
		dbPath = "heater.db"
	}
	return db.InitDB(dbPath)
}

// startMQTT connects the MQTT ingest when enabled. A broker that is
// down at startup is logged, not fatal; HTTP ingestion still works.
func startMQTT(ctx context.Context, log *logger.Logger, services *service.Service) *mqtt.Ingest {
	if !viper.GetBool("mqtt.enabled") {
		return nil
	}

	ingest := mqtt.NewIngest(ctx, mqtt.Config{
		Broker:   viper.GetString("mqtt.broker"),
		ClientID: viper.GetString("mqtt.client_id"),
		Username: viper.GetString("mqtt.username"),
		Password: viper.GetString("mqtt.password"),
		Topic:    viper.GetString("mqtt.topic"),
	}, log, services)

	if err := ingest.Start(); err != nil {
		log.Errorw("mqtt ingest failed to start", "err", err)
		return nil
	}
	return ingest
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
