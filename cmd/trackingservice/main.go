package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
	"github.com/danieleon08/Taller3-Movil/internal/presence/store"
	"github.com/danieleon08/Taller3-Movil/internal/tracking"
	"github.com/danieleon08/Taller3-Movil/pkg/observability"
)

type appConfig struct {
	HTTPAddr        string
	GRPCAddr        string
	RedisAddr       string
	ThresholdMeters float64
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.SetupLogger("tracking-service")
	defer logger.Sync() //nolint:errcheck

	shutdown, err := observability.SetupTracer(ctx, "tracking-service")
	if err != nil {
		logger.Warn("tracer setup failed", zap.Error(err))
	} else {
		defer shutdown(context.Background())
	}

	cfg := loadConfig()

	var st domain.Store
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping", zap.Error(err))
		}
		defer redisClient.Close()
		st = store.NewRedisStore(redisClient, logger.Named("store"))
	} else {
		logger.Warn("no redis configured, using in-memory store")
		st = store.NewMemoryStore()
	}

	board := tracking.NewSegmentBoard()
	hub := tracking.NewHub(st, board, logger.Named("hub"), tracking.Config{ThresholdMeters: cfg.ThresholdMeters})
	registry := tracking.NewRegistry(st, hub, logger.Named("registry"))
	defer registry.StopAll()

	go runREST(logger, cfg, board, registry)
	go runGRPC(logger, cfg, hub)

	<-ctx.Done()
	logger.Info("shutdown signal received")
}

func runREST(logger *zap.Logger, cfg appConfig, board *tracking.SegmentBoard, registry *tracking.Registry) {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer)

	r.Get("/v1/rutas", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, board.All())
	})
	r.Get("/v1/rutas/{id}", func(w http.ResponseWriter, r *http.Request) {
		seg, ok := board.Segment(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "no route drawn", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, seg)
	})
	r.Post("/v1/seguimiento/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Target string `json:"objetivo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Target == "" {
			http.Error(w, "objetivo is required", http.StatusBadRequest)
			return
		}
		if err := registry.Follow(r.Context(), chi.URLParam(r, "id"), req.Target); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Delete("/v1/seguimiento/{id}", func(w http.ResponseWriter, r *http.Request) {
		registry.Unfollow(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})
	r.Mount("/observability", observability.MetricsRouter())

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("tracking REST listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("tracking rest server", zap.Error(err))
	}
}

func runGRPC(logger *zap.Logger, cfg appConfig, hub *tracking.Hub) {
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("listen grpc", zap.Error(err))
	}

	srv := grpc.NewServer()
	tracking.RegisterFixIngestServer(srv, tracking.NewServer(hub, logger.Named("ingest")))
	logger.Info("fix ingest grpc listening", zap.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil {
		logger.Fatal("grpc serve", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func loadConfig() appConfig {
	return appConfig{
		HTTPAddr:        getenv("HTTP_ADDR", ":8081"),
		GRPCAddr:        getenv("GRPC_ADDR", ":9090"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		ThresholdMeters: parseFloatEnv("MOVEMENT_THRESHOLD_M", tracking.DefaultThresholdMeters),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
