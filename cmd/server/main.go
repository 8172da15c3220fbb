package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appforms "github.com/formflow/backend/internal/application/forms"
	"github.com/formflow/backend/internal/infrastructure/cache"
	"github.com/formflow/backend/internal/infrastructure/config"
	"github.com/formflow/backend/internal/infrastructure/distribution"
	"github.com/formflow/backend/internal/infrastructure/docgen"
	"github.com/formflow/backend/internal/infrastructure/kvstore"
	"github.com/formflow/backend/internal/infrastructure/logger"
	"github.com/formflow/backend/internal/infrastructure/persistence"
	"github.com/formflow/backend/internal/interfaces/http/handler"
	"github.com/formflow/backend/internal/interfaces/http/middleware"
	"github.com/formflow/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting FormFlow Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	// Database, with gorm's query log routed through the service logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Key-value store and schema
	store := kvstore.NewGormStore(db.DB, kvstore.WithLogger(log))
	if err := store.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate storage schema", zap.Error(err))
	}

	// One-time legacy blob migration. Failures are logged but do not
	// prevent startup; unmigrated blobs stay in place for the next run.
	migrator := kvstore.NewMigrator(db.DB, store, log)
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := migrator.MigrateAll(startupCtx); err != nil {
		log.Warn("Legacy data migration incomplete", zap.Error(err))
	}
	cancelStartup()

	// Repositories, with the template read path cached
	submissionRepo := persistence.NewKVSubmissionRepository(store)
	baseTemplateRepo := persistence.NewKVTemplateRepository(store)

	var templateCache cache.TemplateCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisTemplateCache(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cache.WithCacheLogger(log))
		if err != nil {
			log.Warn("Redis unavailable, using in-memory template cache", zap.Error(err))
			templateCache = cache.NewInMemoryTemplateCache(cache.WithInMemoryLogger(log))
		} else {
			templateCache = redisCache
		}
	} else {
		templateCache = cache.NewInMemoryTemplateCache(cache.WithInMemoryLogger(log))
	}
	defer func() {
		_ = templateCache.Close()
	}()
	templateRepo := cache.NewCachedTemplateRepository(baseTemplateRepo, templateCache, log)

	// Document conversion pipeline
	var renderer docgen.ArtifactRenderer
	if cfg.Renderer.Enabled {
		chromeRenderer, err := docgen.NewChromedpRenderer(&docgen.ChromedpConfig{
			DefaultTimeout: cfg.Renderer.Timeout,
			RemoteURL:      cfg.Renderer.RemoteURL,
			NoSandbox:      cfg.Renderer.NoSandbox,
			Logger:         log,
		})
		if err != nil {
			log.Warn("PDF renderer unavailable, using placeholder renderer", zap.Error(err))
			renderer = docgen.NewFallbackRenderer()
		} else {
			renderer = chromeRenderer
		}
	} else {
		log.Info("Document renderer disabled, artifacts are placeholders")
		renderer = docgen.NewFallbackRenderer()
	}
	defer func() {
		_ = renderer.Close()
	}()

	pipeline := docgen.NewPipeline(docgen.NewEngine(),
		docgen.WithRenderer(renderer),
		docgen.WithPipelineLogger(log))

	// Distribution capabilities. Each is optional: a missing capability
	// fails its channel without affecting the others.
	var mailer appforms.Mailer
	if cfg.SMTP.Host != "" {
		smtpMailer, err := distribution.NewSMTPMailer(&cfg.SMTP, distribution.WithLogger(log))
		if err != nil {
			log.Warn("SMTP mailer unavailable", zap.Error(err))
		} else {
			mailer = smtpMailer
		}
	}

	var uploader appforms.ObjectUploader
	if cfg.Storage.Bucket != "" {
		s3Uploader, err := distribution.NewS3Uploader(&cfg.Storage, distribution.WithUploaderLogger(log))
		if err != nil {
			log.Warn("Object storage unavailable", zap.Error(err))
		} else {
			uploader = s3Uploader
		}
	}

	var saverPort appforms.FileSaver
	if saver, err := distribution.NewFileSystemSaver(cfg.Distribution.ServerSaveBasePath, log); err != nil {
		log.Warn("Server save directory unavailable", zap.Error(err))
	} else {
		saverPort = saver
	}

	var artifactPort appforms.ArtifactStore
	if artifactStore, err := distribution.NewFileSystemArtifactStore(
		cfg.Distribution.ArtifactBasePath, cfg.Distribution.ArtifactBaseURL, log); err != nil {
		log.Warn("Artifact directory unavailable", zap.Error(err))
	} else {
		artifactPort = artifactStore
	}

	orchestrator := appforms.NewOrchestrator(mailer, uploader, saverPort, artifactPort,
		appforms.WithOrchestratorLogger(log))

	// Application services
	submissionService := appforms.NewSubmissionService(
		submissionRepo, templateRepo, pipeline, orchestrator,
		appforms.WithChannelTimeout(cfg.Distribution.ChannelTimeout),
		appforms.WithSubmissionLogger(log))
	templateService := appforms.NewTemplateService(templateRepo, log)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.RequestLogger(log),
		logger.Recovery(log),
		middleware.CORS(),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	r := router.NewRouter(engine)
	r.Register(handler.NewSubmissionHandler(submissionService, log))
	r.Register(handler.NewTemplateHandler(templateService, log))
	r.Register(handler.NewStorageHandler(store, log))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop accepting requests, then wait for
	// in-flight distribution runs to settle.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	submissionService.WaitForPipelines()
	log.Info("Shutdown complete")
}
