package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/db"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
	"github.com/unclebandit/outreach-backend/internal/sender"
	"github.com/unclebandit/outreach-backend/internal/service"
)

// The worker consumes dispatch jobs published by the server when
// DISPATCH_ASYNC is on and AMQP_URL is set.
func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	config.ConfigureLogger(cfg.Log)

	if cfg.MQ.URL == "" {
		logrus.Fatal("AMQP_URL is required for the worker")
	}

	if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
		logrus.WithError(err).Warn("Sentry disabled")
	}
	defer sentry.Flush(2 * time.Second)

	database, err := db.Open(cfg.DB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close()

	// Repositories
	campaignService := &service.CampaignService{
		CampaignRepo:     &repository.CampaignRepository{DB: database},
		DeliveryRepo:     &repository.DeliveryRepository{DB: database},
		EmailSettingRepo: &repository.EmailSettingRepository{DB: database},
		Recipients: &service.RecipientService{
			DonorRepo:     &repository.DonorRepository{DB: database},
			VolunteerRepo: &repository.VolunteerRepository{DB: database},
		},
		Dispatcher: service.NewDispatcher(
			sender.NewHTTPSender(cfg.Send.URL, cfg.Send.Token, cfg.Send.Timeout),
			cfg.Dispatch.BatchSize,
			cfg.Dispatch.BatchDelay,
		),
	}

	q, err := queue.DialAMQP(cfg.MQ.URL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer q.Close()

	if err := queue.StartDispatchSubscriber(q, cfg.MQ.Queue, func(ctx context.Context, job queue.DispatchJob) error {
		if err := campaignService.HandleDispatchJob(ctx, job); err != nil {
			sentry.CaptureException(err)
			return err
		}
		return nil
	}); err != nil {
		logrus.WithError(err).Fatal("Failed to register consumer")
	}

	logrus.WithField("queue", cfg.MQ.Queue).Info("Worker running, waiting for campaigns")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logrus.Info("Worker stopping, waiting for running campaigns")
	// Deferred in reverse: the queue drains before the database closes.
}
