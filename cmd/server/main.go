package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"product-analyze-go/config"
	"product-analyze-go/internal/cache"
	"product-analyze-go/internal/handler"
	"product-analyze-go/internal/logger"
	"product-analyze-go/internal/service"
)

func main() {
	// 加载 .env 文件（如果存在）
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		logrus.Fatalf("init logger: %v", err)
	}
	log := logger.Log
	if envErr != nil {
		log.Debug("No .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analysisCache := newCache(ctx, cfg, log)

	svc, err := service.LoadAnalysisService(cfg.DataPath, service.Options{
		Cache:  analysisCache,
		TTL:    cfg.CacheTTL,
		TopN:   cfg.TopCategories,
		Logger: log,
	})
	if err != nil {
		log.WithError(err).Fatalf("load dataset %s", cfg.DataPath)
	}
	log.WithField("rows", humanize.Comma(int64(svc.Rows()))).Infof("Dataset loaded from %s", cfg.DataPath)

	// 创建处理器
	analysisHandler := handler.NewAnalysisHandler(svc, cfg.AnalyzeTimeout, log)
	reportHandler := handler.NewReportHandler(svc, log)
	mux := handler.NewRouter(analysisHandler, reportHandler)

	// 中间件：日志 -> CORS -> 限流
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	var h http.Handler = mux
	h = handler.RateLimit(limiter, log)(h)
	h = handler.CORS(h)
	h = handler.RequestLogging(log)(h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("server shutdown")
		}
	}()

	log.Infof("Server starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Info("Server stopped")
}

// newCache 优先PostgreSQL，其次文件缓存，最后内存缓存
func newCache(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) cache.Cache {
	if cfg.DatabaseURL != "" {
		pg, err := cache.NewPostgresCache(ctx, cfg.DatabaseURL, cache.SourceAnalysis)
		if err == nil {
			log.Info("Using PostgreSQL cache")
			go cleanExpired(ctx, pg, cfg.CacheTTL, log)
			return pg
		}
		log.WithError(err).Warn("Failed to connect to PostgreSQL, falling back")
	}

	if cfg.CacheDir != "" {
		fc, err := cache.NewFileCache(cfg.CacheDir, cache.SourceAnalysis)
		if err == nil {
			log.Infof("Using file cache in %s", cfg.CacheDir)
			return fc
		}
		log.WithError(err).Warn("Failed to create file cache, using memory cache")
	}

	log.Info("Using memory cache")
	return cache.NewMemoryCache()
}

// cleanExpired 定期清理过期的PostgreSQL缓存
func cleanExpired(ctx context.Context, pg *cache.PostgresCache, interval time.Duration, log logrus.FieldLogger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer pg.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := pg.CleanExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("clean expired cache entries")
				continue
			}
			if n > 0 {
				log.WithField("removed", n).Info("expired cache entries cleaned")
			}
		}
	}
}
