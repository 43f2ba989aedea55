package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	ratelimitmw "github.com/danieleon08/Taller3-Movil/internal/http/middleware"
	"github.com/danieleon08/Taller3-Movil/internal/notify"
	"github.com/danieleon08/Taller3-Movil/internal/poi"
	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
	"github.com/danieleon08/Taller3-Movil/internal/presence/handler"
	"github.com/danieleon08/Taller3-Movil/internal/presence/service"
	"github.com/danieleon08/Taller3-Movil/internal/presence/store"
	"github.com/danieleon08/Taller3-Movil/internal/presence/watcher"
	"github.com/danieleon08/Taller3-Movil/pkg/observability"
)

type appConfig struct {
	HTTPAddr    string
	RedisAddr   string
	NATSURL     string
	NATSSubject string
	JWTSecret   string
	JWTTTL      time.Duration
	POIPath     string
	RateLimit   int64
	RateWindow  time.Duration
}

type presenceStore interface {
	domain.Store
	domain.CredentialStore
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.SetupLogger("presence-service")
	defer logger.Sync() //nolint:errcheck

	shutdown, err := observability.SetupTracer(ctx, "presence-service")
	if err != nil {
		logger.Warn("tracer setup failed", zap.Error(err))
	} else {
		defer shutdown(context.Background())
	}

	cfg := loadConfig()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping", zap.Error(err))
		}
		defer redisClient.Close()
	}

	var st presenceStore
	if redisClient != nil {
		st = store.NewRedisStore(redisClient, logger.Named("store"))
	} else {
		logger.Warn("no redis configured, using in-memory store")
		st = store.NewMemoryStore()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		if conn, err := nats.Connect(cfg.NATSURL, nats.Name("presenceservice")); err == nil {
			natsConn = conn
			defer conn.Drain()
		} else {
			logger.Warn("nats connection failed", zap.Error(err))
		}
	}
	notifier := notify.NewNATSNotifier(natsConn, cfg.NATSSubject, logger.Named("notify"))

	w := watcher.New(st, notifier, logger.Named("watcher"))
	if err := w.Start(ctx); err != nil {
		logger.Fatal("start watcher", zap.Error(err))
	}
	defer w.Stop()

	pois, err := poi.Load(cfg.POIPath)
	if err != nil {
		logger.Warn("loading points of interest failed", zap.Error(err))
	}

	svc := service.New(st, st, cfg.JWTSecret, cfg.JWTTTL)
	api := handler.NewHTTP(svc, pois, nil, cfg.JWTSecret)

	r := chi.NewRouter()
	if limiter := ratelimitmw.NewRateLimiter(redisClient, cfg.RateLimit, cfg.RateWindow); limiter != nil {
		r.Use(limiter.Middleware)
	}
	r.Mount("/", api.Router())
	r.Mount("/observability", observability.MetricsRouter())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("presence service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func loadConfig() appConfig {
	return appConfig{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		NATSURL:     os.Getenv("NATS_URL"),
		NATSSubject: getenv("NATS_SUBJECT", notify.DefaultSubject),
		JWTSecret:   getenv("JWT_SECRET", "insecure-dev-secret"),
		JWTTTL:      time.Duration(parseIntEnv("JWT_TTL_HOURS", 24)) * time.Hour,
		POIPath:     os.Getenv("POI_PATH"),
		RateLimit:   int64(parseIntEnv("RATE_LIMIT", 120)),
		RateWindow:  time.Duration(parseIntEnv("RATE_WINDOW_SEC", 60)) * time.Second,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
