package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"proposalkit/internal/app"
	"proposalkit/internal/artifact"
	"proposalkit/internal/catalog"
	"proposalkit/internal/config"
	"proposalkit/internal/export"
	"proposalkit/internal/logger"
	"proposalkit/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogMode,
		logger.WithRedaction(cfg.LogRedaction),
		logger.WithHashSalt(cfg.LogHashSalt),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	ctx := context.Background()

	registry, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		log.Fatal("catalog load failed", "path", cfg.CatalogPath, "error", err)
	}

	exportOpts := []export.Option{export.WithLogger(log)}
	if cfg.PDFEnabled {
		exportOpts = append(exportOpts, export.WithPDFConverter(export.NewChromeConverter(cfg.PDFTimeout)))
	}
	generator := export.NewService(registry, cfg.TemplatesDir, exportOpts...)

	opts := []app.Option{app.WithLogger(log)}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("database connection failed", "error", err)
		}
		defer db.Close()
		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			log.Fatal("migrations failed", "dir", cfg.MigrationsDir, "error", err)
		}
		opts = append(opts, app.WithAuditStore(store.NewPostgresStore(db)))
		log.Info("generation history enabled")
	}

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		objects, err := artifact.NewObjectStore(artifact.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatal("object storage setup failed", "error", err)
		}
		if err := objects.EnsureBucket(ctx); err != nil {
			log.Fatal("object storage bucket failed", "bucket", cfg.MinioBucket, "error", err)
		}
		opts = append(opts, app.WithObjectStore(objects))
		log.Info("artifact storage enabled", "bucket", cfg.MinioBucket)
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		links, err := artifact.NewLinkStore(cfg.RedisURL, cfg.LinkTTL)
		if err != nil {
			log.Fatal("redis connection failed", "error", err)
		}
		defer links.Close()
		opts = append(opts, app.WithLinkStore(links))
		log.Info("download links enabled", "ttl", links.TTL().String())
	}

	service := app.NewService(generator, opts...)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.PDFTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("proposal API listening", "addr", cfg.Addr, "proposals", len(registry.List()), "pdf", cfg.PDFEnabled)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
