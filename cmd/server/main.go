// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/outreach-backend/internal/assist"
	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/controller"
	"github.com/unclebandit/outreach-backend/internal/db"
	"github.com/unclebandit/outreach-backend/internal/handler"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
	"github.com/unclebandit/outreach-backend/internal/router"
	"github.com/unclebandit/outreach-backend/internal/sender"
	"github.com/unclebandit/outreach-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	config.ConfigureLogger(cfg.Log)

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
	}); err != nil {
		logrus.WithError(err).Warn("Sentry disabled")
	}
	defer sentry.Flush(2 * time.Second)

	if cfg.Auth.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET is required")
	}

	database, err := db.Open(cfg.DB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close()

	donorRepo := &repository.DonorRepository{DB: database}
	volunteerRepo := &repository.VolunteerRepository{DB: database}
	templateRepo := &repository.TemplateRepository{DB: database}
	campaignRepo := &repository.CampaignRepository{DB: database}
	deliveryRepo := &repository.DeliveryRepository{DB: database}
	emailSettingRepo := &repository.EmailSettingRepository{DB: database}

	recipientService := &service.RecipientService{
		DonorRepo:     donorRepo,
		VolunteerRepo: volunteerRepo,
	}

	httpSender := sender.NewHTTPSender(cfg.Send.URL, cfg.Send.Token, cfg.Send.Timeout)
	campaignService := &service.CampaignService{
		CampaignRepo:     campaignRepo,
		DeliveryRepo:     deliveryRepo,
		EmailSettingRepo: emailSettingRepo,
		Recipients:       recipientService,
		Dispatcher:       service.NewDispatcher(httpSender, cfg.Dispatch.BatchSize, cfg.Dispatch.BatchDelay),
		Async:            cfg.Dispatch.Async,
		Topic:            cfg.MQ.Queue,
	}

	var memQueue *queue.InMemoryQueue
	if cfg.Dispatch.Async {
		if cfg.MQ.URL != "" {
			amqpQueue, err := queue.DialAMQP(cfg.MQ.URL)
			if err != nil {
				logrus.WithError(err).Fatal("Failed to connect to RabbitMQ")
			}
			defer amqpQueue.Close()
			campaignService.Queue = amqpQueue
			logrus.WithField("queue", cfg.MQ.Queue).Info("Dispatching through RabbitMQ, run cmd/worker to consume")
		} else {
			memQueue = queue.NewInMemoryQueue()
			if err := queue.StartDispatchSubscriber(memQueue, cfg.MQ.Queue, campaignService.HandleDispatchJob); err != nil {
				logrus.WithError(err).Fatal("Failed to subscribe dispatcher")
			}
			campaignService.Queue = memQueue
			logrus.Info("Dispatching through in-memory queue")
		}
	}

	templateService := &service.TemplateService{
		TemplateRepo: templateRepo,
		Recipients:   recipientService,
		Campaigns:    campaignService,
	}
	emailSettingService := &service.EmailSettingService{Repo: emailSettingRepo}
	assistService := &assist.Service{
		Client: assist.NewClient(cfg.Assist.URL, cfg.Assist.APIKey, cfg.Assist.Model, cfg.Assist.Timeout),
	}

	h := router.New(router.Deps{
		JWTSecret:    cfg.Auth.JWTSecret,
		Health:       &handler.HealthHandler{DB: database},
		Campaigns:    &controller.CampaignController{CampaignService: campaignService},
		CampaignView: &handler.CampaignHandler{Service: campaignService},
		Templates:    &controller.TemplateController{TemplateService: templateService},
		Recipients:   &controller.RecipientController{Recipients: recipientService},
		EmailSetting: &controller.EmailSettingController{Service: emailSettingService},
		Assist:       &controller.AssistController{Service: assistService},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logrus.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	if memQueue != nil {
		memQueue.Wait()
	}
}
