// Entry point for REST API
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"timesheet.service/internal/api"
	"timesheet.service/internal/api/handler"
	"timesheet.service/internal/app"
	"timesheet.service/internal/config"
	"timesheet.service/internal/ports/messaging"
	"timesheet.service/internal/scheduler"
	"timesheet.service/pkg/aws"
	"timesheet.service/pkg/database"
	"timesheet.service/pkg/logger"
	"timesheet.service/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev, "timesheet-api")

	shutdownTracer, err := telemetry.InitTracer("timesheet-api", cfg.OTelExporterEndpoint, cfg.IsLocalDev)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	ctx := context.Background()

	db, err := database.NewInstrumentedConnection(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	producer := messaging.NewSQSProducer(sqs.NewFromConfig(awsCfg), cfg.NotificationSQSQueueURL, cfg.EscalationSQSQueueURL)
	svc, err := app.New(cfg, db, producer)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not build services")
	}
	if err := svc.Repo.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Could not apply database schema")
	}

	var sched *scheduler.Scheduler
	if cfg.DailyCloseEnabled || cfg.DailySummaryEnabled {
		sched = scheduler.New(svc.Worklogs, svc.Location)
		if cfg.DailyCloseEnabled {
			if err := sched.RegisterDailyClose(cfg.DailyCloseCron); err != nil {
				log.Fatal().Err(err).Msg("Could not schedule daily close")
			}
		}
		if cfg.DailySummaryEnabled {
			if err := sched.RegisterDailySummary(cfg.DailySummaryCron, svc.Occurrences); err != nil {
				log.Fatal().Err(err).Msg("Could not schedule daily summary")
			}
		}
		sched.Start()
	}

	router := api.NewRouter(api.Handlers{
		Directory:    &handler.DirectoryHandler{Service: svc.Directory, Clock: svc.Worklogs},
		Occurrences:  &handler.OccurrenceHandler{Service: svc.Occurrences, Clock: svc.Worklogs},
		Worklogs:     &handler.WorklogHandler{Service: svc.Worklogs},
		Integrations: &handler.IntegrationHandler{Service: svc.Sync, Clock: svc.Worklogs},
	})

	// Spans wrap the logger so request logs carry the trace id.
	h := otelhttp.NewHandler(api.LoggerMiddleware(router), "api")

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           api.WithCORS(h, cfg.AllowedOrigins()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("API Service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
