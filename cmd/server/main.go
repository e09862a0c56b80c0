package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ecocommute/internal/db"
	"ecocommute/internal/handlers"
	mw "ecocommute/internal/middleware"
	"ecocommute/internal/services"
	"ecocommute/internal/store"
)

func mustGetenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	mapsAPIKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	if mapsAPIKey == "" {
		slog.Warn("GOOGLE_MAPS_API_KEY not set; /route_with_traffic will return degraded responses")
	}
	genAPIKey := os.Getenv("GEMINI_API_KEY")
	if genAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set; /explain_route will return degraded responses")
	}

	port := mustGetenv("PORT", "8080")
	corsOrigin := mustGetenv("CORS_ORIGIN", "http://localhost:5173")

	dbConn, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	dbConn.SetMaxOpenConns(10)
	dbConn.SetConnMaxLifetime(2 * time.Hour)
	if err = dbConn.Ping(); err != nil {
		slog.Error("failed to ping db", slog.Any("err", err))
		os.Exit(1)
	}
	if err := db.RunMigrations(dbConn); err != nil {
		slog.Error("failed migrations", slog.Any("err", err))
		os.Exit(1)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		slog.Error("failed to init request logger", slog.Any("err", err))
		os.Exit(1)
	}
	defer zapLogger.Sync()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(mw.ZapRequestLogger(zapLogger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	tripStore := store.NewTripStore(dbConn)
	badgeStore := store.NewBadgeStore(dbConn)
	badgeService := services.NewBadgeService(tripStore, badgeStore)

	tripHandler := handlers.NewTripHandler(tripStore, badgeService)
	routeHandler := handlers.NewRouteHandler(
		services.NewTrafficService(mapsAPIKey, ""),
		services.NewExplainService(genAPIKey, ""),
	)
	healthHandler := handlers.NewHealthHandler(dbConn)

	r.Post("/log_trip", tripHandler.LogTrip)
	r.Get("/recommend_mode/{distance_km}", tripHandler.RecommendMode)
	r.Get("/suggest_cleanest_route/{user_id}", tripHandler.CleanestRoute)
	r.Get("/latest_trip/{user_id}", tripHandler.LatestTrip)
	r.Get("/route_with_traffic", routeHandler.RouteWithTraffic)
	r.Post("/explain_route", routeHandler.ExplainRoute)
	r.Get("/health", healthHandler.Get)

	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		slog.Info("server starting", slog.String("addr", ":"+port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.Any("err", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutdown initiated")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	_ = dbConn.Close()
	slog.Info("server stopped")
}
