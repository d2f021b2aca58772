package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"twelfthman/internal/auth"
	"twelfthman/internal/config"
	cronrunner "twelfthman/internal/cron"
	"twelfthman/internal/db"
	"twelfthman/internal/feedhub"
	"twelfthman/internal/handler"
	"twelfthman/internal/logger"
	"twelfthman/internal/ratelimit"
	gormrepository "twelfthman/internal/repository/gorm"
	"twelfthman/internal/service"

	_ "twelfthman/docs"
)

func main() {
	cfgPath := os.Getenv("TM_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("TM_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}
	if err := cfg.ValidateServer(); err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(context.Background(), cfg.DB, logger)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer dbConn.Close()

	if err := dbConn.AutoMigrate(); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	hub := feedhub.New(logger)
	jwt := auth.JWT{
		Secret:   []byte(cfg.Auth.JWTSecret),
		TokenTTL: cfg.Auth.TokenTTL,
		Issuer:   cfg.Auth.Issuer,
	}

	readyChecks := []handler.ReadyCheck{{
		Name:  "db",
		Check: func(ctx context.Context) error { return dbConn.Ping(ctx) },
	}}

	var (
		counter ratelimit.Counter
		memory  *ratelimit.MemoryCounter
	)
	switch strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend)) {
	case "redis":
		rc := ratelimit.NewRedisCounter(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		defer rc.Close()
		counter = rc
		readyChecks = append(readyChecks, handler.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rc.Client.Ping(ctx).Err() },
		})
	default:
		memory = ratelimit.NewMemoryCounter()
		counter = memory
	}
	limiter := ratelimit.New(counter, logger)

	syncService := &service.TakeSyncService{
		Repo:     store,
		Hub:      hub,
		Logger:   logger,
		MaxBatch: cfg.Sync.MaxBatch,
	}
	feedService := &service.FeedService{
		Repo:         store,
		DefaultLimit: cfg.Feed.DefaultLimit,
		MaxLimit:     cfg.Feed.MaxLimit,
	}
	userService := &service.UserService{Repo: store, Tokens: jwt}
	ratingService := &service.RatingService{Repo: store}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.RequestLogger(logger))
	engine.Use(handler.CORS())
	engine.Use(auth.Optional(jwt))
	engine.Use(limiter.PerIP(cfg.RateLimit.GlobalPerMinute))

	healthHandler := &handler.HealthHandler{Checks: readyChecks}
	healthHandler.Register(engine)
	handler.RegisterIndex(engine)

	requireAuth := auth.Require(jwt)
	authHandler := &handler.AuthHandler{Users: userService, Require: requireAuth, Logger: logger}
	authHandler.Register(engine)
	takeHandler := &handler.TakeHandler{
		Sync:      syncService,
		Feed:      feedService,
		Logger:    logger,
		Require:   requireAuth,
		SyncLimit: limiter.PerUser("sync", cfg.RateLimit.SyncPerMinute),
	}
	takeHandler.Register(engine)
	feedHandler := &handler.FeedHandler{Service: feedService, Hub: hub, Logger: logger}
	feedHandler.Register(engine)
	fixtureHandler := &handler.FixtureHandler{Ratings: ratingService, Logger: logger}
	fixtureHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		if memory != nil {
			_, err := cronRunner.Add("limiter_sweep", cfg.Cron.LimiterSweep, func(ctx context.Context) {
				if n := memory.Sweep(2 * time.Minute); n > 0 {
					logger.Debug("rate limit buckets swept", zap.Int("removed", n), zap.Int("live", memory.Len()))
				}
			})
			if err != nil {
				logger.Warn("cron register limiter sweep failed", zap.Error(err))
			}
		}
		summaryEvery := cronInterval(cfg.Cron.SyncStateSummary, time.Hour)
		_, err = cronRunner.Add("sync_state_summary", cfg.Cron.SyncStateSummary, func(ctx context.Context) {
			states, err := store.ListClientSyncStates(ctx, time.Now().UTC().Add(-summaryEvery))
			if err != nil {
				logger.Warn("list client sync state failed", zap.Error(err))
				return
			}
			var takes, failing int64
			for _, st := range states {
				takes += st.TakeCount
				if st.LastError != nil {
					failing++
				}
			}
			logger.Info("client sync summary",
				zap.Int("active_clients", len(states)),
				zap.Int64("takes_total", takes),
				zap.Int64("clients_with_errors", failing),
			)
			hub.LogStats()
		})
		if err != nil {
			logger.Warn("cron register sync summary failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// cronInterval reads the duration out of an "@every" spec, or returns fallback.
func cronInterval(spec string, fallback time.Duration) time.Duration {
	raw, ok := strings.CutPrefix(strings.TrimSpace(spec), "@every ")
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
