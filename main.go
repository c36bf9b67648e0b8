package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raushankrgupta/fitting-room/api"
	"github.com/raushankrgupta/fitting-room/config"
	"github.com/raushankrgupta/fitting-room/garments"
	"github.com/raushankrgupta/fitting-room/notify"
	"github.com/raushankrgupta/fitting-room/render"
	"github.com/raushankrgupta/fitting-room/storage"
	"github.com/raushankrgupta/fitting-room/store"
	"github.com/raushankrgupta/fitting-room/tryon"
	"github.com/raushankrgupta/fitting-room/utils"
)

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return store.OpenPostgres(cfg.DatabaseURL)
	case config.DriverSQLite:
		return store.OpenSQLite(cfg.DatabaseURL)
	default:
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.DBName)
	}
}

func buildNotifier(ctx context.Context, cfg *config.Config, mailer *notify.SendGrid) (notify.Notifier, func(), error) {
	var notifiers notify.Multi
	cleanup := func() {}

	for _, name := range cfg.Notifiers {
		switch name {
		case config.NotifierSendGrid:
			notifiers = append(notifiers, mailer)
		case config.NotifierRabbitMQ:
			publisher, err := notify.NewAMQPPublisher(ctx, cfg.RabbitMQURL, cfg.TryOnQueue)
			if err != nil {
				return nil, cleanup, err
			}
			cleanup = publisher.Close
			notifiers = append(notifiers, publisher)
		case config.NotifierLog:
			notifiers = append(notifiers, notify.Log{})
		}
	}
	return notifiers, cleanup, nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer db.Close(context.Background())

	objects, err := storage.NewS3(ctx, storage.S3Config{
		Bucket:          cfg.AWSBucketName,
		Region:          cfg.AWSRegion,
		EndpointURL:     cfg.S3EndpointURL,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}
	if cfg.S3EndpointURL != "" {
		if err := objects.EnsureBucket(ctx); err != nil {
			log.Fatalf("Failed to prepare bucket %s: %v", cfg.AWSBucketName, err)
		}
	}

	mailer := notify.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromAddress, cfg.OperatorEmail)
	notifier, closeNotifier, err := buildNotifier(ctx, cfg, mailer)
	if err != nil {
		log.Fatalf("Failed to set up notifiers: %v", err)
	}
	defer closeNotifier()

	var previewOpts []garments.Option
	if cfg.PreviewHeadless {
		previewOpts = append(previewOpts, garments.WithHeadless())
	}
	previewer := garments.NewPreviewer(previewOpts...)
	downloader := utils.NewDownloader(cfg.MaxUploadBytes)

	var renderer tryon.Renderer
	if cfg.GeminiAPIKey != "" {
		gemini, err := render.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, downloader)
		if err != nil {
			log.Fatalf("Failed to create Gemini renderer: %v", err)
		}
		defer gemini.Close()
		renderer = gemini
	} else {
		log.Println("GEMINI_API_KEY not set, automatic rendering disabled")
	}

	tryOnCfg := tryon.Config{GalleryURLTTL: cfg.GalleryURLTTL, BasePhotoURLTTL: cfg.BasePhotoURLTTL}
	service := tryon.NewService(objects, db, notifier, tryOnCfg)
	fulfiller := tryon.NewFulfiller(objects, db, renderer, previewer, downloader, tryOnCfg)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewServer(cfg, db, service, fulfiller, previewer, mailer).Routes(),
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}
	}()

	fmt.Printf("Server starting on port %s...\n", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}
	log.Println("Server stopped.")
}
