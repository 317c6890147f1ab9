package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/financialtrading/internal/matchingengine/application"
	httpiface "github.com/wyfcoding/financialtrading/internal/matchingengine/interfaces/http"
	"github.com/wyfcoding/financialtrading/pkg/config"
	"github.com/wyfcoding/financialtrading/pkg/logging"
	"github.com/wyfcoding/financialtrading/pkg/metrics"
	"github.com/wyfcoding/financialtrading/pkg/middleware"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/matchingengine/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}

	// 2. Logger
	if err := logging.Init(logging.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	ctx := context.Background()
	logging.Info(ctx, "matching engine starting", "service", cfg.ServiceName, "environment", cfg.Environment)

	// 3. Metrics
	m := metrics.New(cfg.ServiceName)
	if cfg.Metrics.Enabled {
		if err := m.Register(); err != nil {
			logging.Fatal(ctx, "register metrics failed", "error", err)
		}
		metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 4. Domain engine
	tradedSymbols := make(map[string]bool, len(cfg.Engine.TradedSymbols))
	for _, s := range cfg.Engine.TradedSymbols {
		tradedSymbols[s] = true
	}
	engine := application.NewEngine(application.EngineConfig{
		SymbolLength:    cfg.Engine.SymbolLength,
		MaxGlobalOrders: cfg.Engine.MaxGlobalOrders,
		MaxPriceLevels:  cfg.Engine.MaxPriceLevels,
		MaxTagSize:      cfg.Engine.MaxTagSize,
		MinOrderPrice:   cfg.Engine.MinOrderPrice,
		MaxOrderPrice:   cfg.Engine.MaxOrderPrice,
		MinOrderQty:     cfg.Engine.MinOrderQty,
		MaxOrderQty:     cfg.Engine.MaxOrderQty,
		PriceBand:       cfg.Engine.PriceBand,
		TradedSymbols:   tradedSymbols,
	}, m)

	// 5. HTTP façade
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitBurst, cfg.HTTP.RateLimitPerSecond)
	router.Use(
		middleware.RecoveryMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.CORSMiddleware(),
		middleware.RateLimitMiddleware(limiter),
	)

	httpiface.NewHandler(engine).RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logging.Info(ctx, "http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal(ctx, "http server stopped unexpectedly", "error", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info(ctx, "shutting down matching engine")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "http server shutdown error", "error", err)
	}
	logging.Info(ctx, "matching engine stopped")
}
