package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cmapi/internal/artifact"
	"github.com/iliyamo/cmapi/internal/config"
	"github.com/iliyamo/cmapi/internal/database"
	"github.com/iliyamo/cmapi/internal/handler"
	"github.com/iliyamo/cmapi/internal/logging"
	"github.com/iliyamo/cmapi/internal/middleware"
	"github.com/iliyamo/cmapi/internal/queue"
	"github.com/iliyamo/cmapi/internal/repository"
	"github.com/iliyamo/cmapi/internal/router"
	"github.com/iliyamo/cmapi/internal/service"
)

func main() {
	_ = godotenv.Load() // a local .env is optional

	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn(ctx, "redis unavailable; api key cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	blobs, err := newBlobs(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("artifact store: %v", err)
	}
	cache := artifact.NewCache(blobs)

	var events service.EventPublisher = service.NoopPublisher{}
	if cfg.Events.Enabled {
		events = service.NewAMQPPublisher(cfg.Events.URL, logger.With("component", "publisher"))
		consumerLog := logger.With("component", "event-consumer")
		go func() {
			if err := queue.StartEventConsumer(ctx, cfg.Events.URL, cfg.Events.LogPath, consumerLog); err != nil && !errors.Is(err, context.Canceled) {
				consumerLog.Error(ctx, "event consumer stopped", "err", err)
			}
		}()
	}

	users := repository.NewUserRepo(db)
	keys := repository.NewAPIKeyCache(users, rdb, cfg.APIKeyTTL)
	h := handler.New(cfg, users, keys, repository.NewCMRepo(db), cache, events, logger.With("component", "http"))

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLog(logger))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger.With("component", "ratelimit")))

	router.RegisterRoutes(e)
	router.RegisterAccounts(e, h, cfg.Admin)
	router.RegisterArtifacts(e, h)

	addr := ":" + cfg.Port
	logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env, "artifact_store", cfg.Storage.Backend, "data_dir", cfg.Storage.DataDir)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown", "err", err)
	}
}

// newBlobs picks the artifact backend named by ARTIFACT_STORE.
func newBlobs(ctx context.Context, cfg config.StorageConfig) (artifact.Blobs, error) {
	switch cfg.Backend {
	case "s3":
		client, err := artifact.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return artifact.NewS3Blobs(client, cfg.S3Bucket), nil
	case "", "disk":
		return artifact.NewDiskBlobs(cfg.CMsDir, cfg.ReportsDir, cfg.PlotsDir)
	}
	return nil, errors.New("unknown ARTIFACT_STORE " + cfg.Backend)
}
