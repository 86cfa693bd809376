package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vanta-labs/vanta/src/api"
	"github.com/vanta-labs/vanta/src/cache"
	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/dualtrack"
	"github.com/vanta-labs/vanta/src/handlers"
	"github.com/vanta-labs/vanta/src/integration"
	"github.com/vanta-labs/vanta/src/local"
	"github.com/vanta-labs/vanta/src/memory"
	"github.com/vanta-labs/vanta/src/models"
	"github.com/vanta-labs/vanta/src/optimizer"
	"github.com/vanta-labs/vanta/src/router"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using system environment")
	}

	log.SetFormatter(&log.JSONFormatter{})
	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration invalid")
	}
	log.Info("configuration loaded")

	sessions, err := memory.NewSessionStore(&cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("redis connection failed")
	}
	defer sessions.Close()
	log.WithField("address", cfg.Redis.Address).Info("redis connected")

	var respCache *cache.ResponseCache
	if cfg.Optimization.CacheEnabled {
		respCache, err = cache.NewResponseCache(&cfg.Redis)
		if err != nil {
			log.WithError(err).Warn("response cache unavailable, continuing without it")
			respCache = nil
		} else {
			defer respCache.Close()
		}
	}

	catalog := local.NewModelCatalog()
	catalog.Register(local.NewOllamaGenerator(&cfg.LocalModel))

	localCtrl, err := local.NewController(&cfg.LocalModel, catalog)
	if err != nil {
		log.WithError(err).Fatal("local controller init failed")
	}
	defer localCtrl.Unload()
	log.WithField("model", cfg.LocalModel.Model).Info("local track ready")

	providers := make([]models.ChatProvider, 0, len(cfg.APIModel.Providers))
	for _, pc := range cfg.APIModel.Providers {
		providers = append(providers, api.NewOpenAIProvider(pc))
	}
	apiCtrl, err := api.NewController(&cfg.APIModel, providers)
	if err != nil {
		log.WithError(err).Fatal("api controller init failed")
	}
	log.WithField("providers", len(providers)).Info("api track ready")

	sampler, err := optimizer.NewGopsutilSampler()
	if err != nil {
		log.WithError(err).Fatal("resource sampler init failed")
	}
	opt := optimizer.NewDualTrackOptimizer(cfg, sampler, nil)
	opt.Start(context.Background())
	defer opt.Stop()

	processingRouter := router.NewProcessingRouter(&cfg.Router)
	integrator := integration.NewIntegrator(&cfg.Integration)
	executor := dualtrack.NewExecutor(localCtrl, apiCtrl, &cfg.Integration)

	assistHandler := handlers.NewAssistHandler(processingRouter, executor, integrator, opt, sessions, respCache)
	sessionHandler := handlers.NewSessionHandler(sessions)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", assistHandler.HealthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/assist", assistHandler.HandleAssist)
		v1.GET("/metrics", assistHandler.HandleMetrics)
		v1.GET("/status", assistHandler.HandleStatus)

		v1.POST("/sessions", sessionHandler.CreateSession)
		v1.GET("/sessions", sessionHandler.ListSessions)
		v1.GET("/sessions/:session_id", sessionHandler.GetSession)
		v1.DELETE("/sessions/:session_id", sessionHandler.DeleteSession)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()
	log.WithField("port", cfg.Server.Port).Info("vanta core running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("forced shutdown")
	}
	log.Info("server exited")
}
