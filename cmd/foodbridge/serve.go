package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodbridge/internal/db"
	"foodbridge/internal/engine"
	"foodbridge/internal/notify"
	"foodbridge/internal/server"
	"foodbridge/internal/store"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	donationRepo := store.NewDonationRepository(pool)
	requestRepo := store.NewRequestRepository(pool)
	transactionRepo := store.NewTransactionRepository(pool)
	eventRepo := store.NewEventRepository(pool)
	catalogRepo := store.NewCatalogRepository(pool)
	userRepo := store.NewUserRepository(pool)

	var notifier engine.Notifier
	producer, err := notify.NewEventProducer(logger, config.AMQPURL, config.NotificationExchange)
	if err != nil {
		logger.WithError(err).Warn("notification broker unavailable, continuing without notifications")
		notifier = &notify.NopPublisher{Logger: logger}
	} else {
		defer producer.Close()
		notifier = producer
	}

	manager := engine.NewManager(logger, donationRepo, requestRepo, transactionRepo, userRepo, notifier)

	jwkCache, err := jwk.NewCache(context.Background(), httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initilaize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", config.AuthIssuerURL)

	err = jwkCache.Register(context.Background(), jwksURL)
	if err != nil {
		return fmt.Errorf("failed to register jwk with cache: %w", err)
	}

	srv, err := server.New(
		config,
		logger,
		manager,
		donationRepo,
		requestRepo,
		transactionRepo,
		eventRepo,
		catalogRepo,
		jwkCache,
		jwksURL,
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
