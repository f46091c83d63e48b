package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/preservd/internal/collection"
	"github.com/your-org/preservd/internal/preservation"
	"github.com/your-org/preservd/pkg/config"
	"github.com/your-org/preservd/pkg/docstore"
	"github.com/your-org/preservd/pkg/kafka"
	"github.com/your-org/preservd/pkg/logger"
	"github.com/your-org/preservd/pkg/storage/archivefs"
	"github.com/your-org/preservd/pkg/storage/objectstore"
	"github.com/your-org/preservd/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		Attributes:  parseResourceAttributes(cfg.Tracing.ResourceAttr),
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	db, err := docstore.NewMongo(connectCtx, docstore.MongoConfig{
		URI:      cfg.Database.URI,
		Database: cfg.Database.Name,
	})
	cancel()
	if err != nil {
		logr.Fatal("init document store", zap.Error(err))
	}

	store, err := objectstore.New(objectstore.Config{
		Provider:  cfg.Storage.Provider,
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		logr.Fatal("init object store", zap.Error(err))
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.IngestionTopic,
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout,
		Compression:  kafka.CompressionFromString(cfg.Kafka.CompressionCodec),
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  cfg.Kafka.Retries,
	})

	artifacts := preservation.NewArtifactStore(db)
	registry := preservation.NewLocationRegistry(artifacts)
	events := preservation.NewEventLog(artifacts)
	ingestor := preservation.NewIngestor(preservation.IngestorParams{
		Store:           artifacts,
		Registry:        registry,
		Events:          events,
		Fixity:          preservation.NewFixityEngine(),
		Objects:         store,
		Producer:        producer,
		Logger:          logr,
		Bucket:          cfg.Storage.Bucket,
		StorageEndpoint: cfg.Storage.Endpoint,
		ExtractMetadata: cfg.Processing.EnableMetadataExtraction,
	})

	artifactHandler := preservation.NewHTTPHandler(ingestor, registry, events, logr,
		cfg.Upload.MaxSizeBytes, cfg.Upload.MultipartMemBytes)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(2 * time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})
	router.Mount("/api/v1/artifacts", artifactHandler.Router())

	if cfg.Archive.Enabled {
		dirs, err := archivefs.NewGlobus(ctx, archivefs.GlobusConfig{
			EndpointID:   cfg.Archive.EndpointID,
			ClientID:     cfg.Archive.ClientID,
			ClientSecret: cfg.Archive.ClientSecret,
			TokenURL:     cfg.Archive.TokenURL,
			TransferURL:  cfg.Archive.TransferURL,
		})
		if err != nil {
			logr.Fatal("init archive filesystem client", zap.Error(err))
		}

		collections := collection.NewService(collection.Params{
			Store:      collection.NewStore(db),
			Dirs:       dirs,
			Logger:     logr,
			BasePath:   cfg.Archive.BasePath,
			EndpointID: cfg.Archive.EndpointID,
		})
		router.Mount("/api/v1/collections", collection.NewHTTPHandler(collections, logr).Router())
	} else {
		logr.Info("archive tier disabled, collection endpoints not mounted")
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("http server shutdown failed", zap.Error(err))
		}
		if err := producer.Close(shutdownCtx); err != nil {
			logr.Error("kafka producer shutdown failed", zap.Error(err))
		}
		if err := store.Close(); err != nil {
			logr.Error("object store shutdown failed", zap.Error(err))
		}
		if err := db.Close(shutdownCtx); err != nil {
			logr.Error("document store shutdown failed", zap.Error(err))
		}
	}()

	logr.Info("preservation service starting", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Fatal("http server failed", zap.Error(err))
	}
}

func parseResourceAttributes(raw string) map[string]string {
	if raw == "" {
		return map[string]string{}
	}
	attrs := map[string]string{}
	pairs := strings.Split(raw, ",")
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if !strings.Contains(pair, "=") {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		attrs[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return attrs
}
