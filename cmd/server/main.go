package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ajharbinger/intent-signal-hub/internal/api"
	"github.com/ajharbinger/intent-signal-hub/internal/database"
	apperrors "github.com/ajharbinger/intent-signal-hub/internal/errors"
	"github.com/ajharbinger/intent-signal-hub/internal/logger"
	"github.com/ajharbinger/intent-signal-hub/internal/middleware"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
	"github.com/ajharbinger/intent-signal-hub/internal/repository"
	"github.com/ajharbinger/intent-signal-hub/internal/scoring"
	"github.com/ajharbinger/intent-signal-hub/internal/services"
	"github.com/ajharbinger/intent-signal-hub/pkg/config"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Initialize configuration
	cfg := config.New()
	log := logger.New(os.Stdout, cfg.LogLevel)
	if envErr != nil {
		log.Debug("No .env file found")
	}

	// Rule profiles are validated before anything starts serving
	var profiles *scoring.ProfileSet
	if cfg.ProfilesFile != "" {
		loaded, err := scoring.LoadProfiles(cfg.ProfilesFile)
		if err != nil {
			log.Fatal("Failed to load rule profiles",
				apperrors.ConfigurationError("invalid PROFILES_FILE", err), "path", cfg.ProfilesFile)
		}
		profiles = loaded
		log.Info("Rule profiles loaded", "path", cfg.ProfilesFile, "icp", profiles.ICP.Name, "personas", len(profiles.Personas))
	}

	// History sink: Postgres when configured, memory otherwise
	var db *database.DB
	var history repository.HistoryRepository
	if cfg.HasDatabase() {
		var err error
		db, err = database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database", err)
		}
		defer db.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal("Failed to run migrations", err)
		}
		history = repository.NewHistoryRepository(db.DB)
		log.Info("Using Postgres history sink")
	} else {
		history = repository.NewMemoryHistoryRepository(0)
		log.Info("Using in-memory history sink")
	}

	engine := services.NewEngine(cfg.IntentConfig(), profiles)
	svc := services.NewServices(engine, history, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	group, ctx := errgroup.WithContext(ctx)

	monitor := services.NewSpikeMonitor(svc.Intent, log.With("component", "spike_monitor"))
	monitor.OnSpikes(func(spikes []models.SpikeRecord) {
		for _, spike := range spikes {
			log.Info("Intent spike", "entity_id", spike.EntityID, "previous", spike.PreviousScore,
				"current", spike.CurrentScore, "change_percent", spike.ChangePercent)
		}
	})
	if cfg.SpikeMonitorEnabled() {
		monitorConfig := services.DefaultMonitorConfig()
		monitorConfig.Interval = cfg.SpikeMonitorInterval
		if err := monitor.Start(monitorConfig); err != nil {
			log.Fatal("Failed to start spike monitor", err)
		}
		defer monitor.Stop()
	}

	if cfg.ProfileWatchEnabled() {
		watcher, err := services.NewProfileWatcher(cfg.ProfilesFile, svc.Classification, log.With("component", "profile_watcher"))
		if err != nil {
			log.Fatal("Failed to watch rule profiles", err)
		}
		defer watcher.Close()
		group.Go(func() error {
			watcher.Run(ctx)
			return nil
		})
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		log.Fatal("Invalid TRUSTED_PROXIES", err)
	}

	r.Use(gin.Recovery())
	r.Use(middleware.LoggingMiddleware(log.With("component", "http")))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))
	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware(cfg.RateLimitPerMinute))
	}

	if err := api.SetupRoutes(r, svc, monitor, db); err != nil {
		log.Fatal("Failed to setup API routes", err)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	group.Go(func() error {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("Server stopped with error", err)
		return
	}
	log.Info("Server stopped")
}
