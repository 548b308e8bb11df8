// Package main runs the event lifecycle HTTP server with graceful
// shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Fosho-App/fosho-v1/internal/di"
	"github.com/Fosho-App/fosho-v1/internal/handler"
	"github.com/Fosho-App/fosho-v1/pkg/config"
	"github.com/Fosho-App/fosho-v1/pkg/logger"
	"github.com/Fosho-App/fosho-v1/pkg/middleware"
	"github.com/Fosho-App/fosho-v1/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:        logLevel(cfg),
		ServiceName:  cfg.App.Name,
		Development:  cfg.IsDevelopment(),
		OutputPath:   "stdout",
		OTLPEnabled:  cfg.OTel.Enabled,
		OTLPEndpoint: cfg.OTel.CollectorAddr,
		OTLPInsecure: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:       cfg.OTel.Enabled,
		ServiceName:   cfg.OTel.ServiceName,
		Environment:   cfg.App.Environment,
		CollectorAddr: cfg.OTel.CollectorAddr,
	}); err != nil {
		log.Warn("telemetry disabled", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetry.Shutdown(shutdownCtx); err != nil {
				log.Warn("telemetry shutdown", zap.Error(err))
			}
		}()
	}

	container, err := di.NewContainer(ctx, cfg, log)
	if err != nil {
		log.Fatal("build container", zap.Error(err))
	}
	defer container.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	routerCfg := &handler.RouterConfig{
		Health:    container.HealthHandler,
		Community: container.CommunityHandler,
		Event:     container.EventHandler,
		Attendee:  container.AttendeeHandler,
		JWTSecret: cfg.JWT.Secret,
	}

	if cfg.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.BurstSize = cfg.RateLimit.BurstSize
		if cfg.RateLimit.UseRedis && container.Redis != nil {
			rl.UseRedis = true
			rl.RedisClient = container.Redis
		}
		routerCfg.RateLimit = &rl
	}

	audit := middleware.NewAuditLogger(middleware.DefaultAuditConfig(container.DB.Pool()))
	defer audit.Close()
	routerCfg.Audit = audit

	handler.SetupRouter(engine, routerCfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

func logLevel(cfg *config.Config) string {
	if cfg.App.Debug {
		return "debug"
	}
	return "info"
}
