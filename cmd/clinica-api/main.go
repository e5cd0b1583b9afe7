package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/saudeclin/clinica-api/internal/handlers"
	"github.com/saudeclin/clinica-api/internal/outbox"
	"github.com/saudeclin/clinica-api/internal/storage"
	"github.com/saudeclin/clinica-api/libs/config"
	"github.com/saudeclin/clinica-api/libs/db"
	"github.com/saudeclin/clinica-api/libs/httpx"
	"github.com/saudeclin/clinica-api/libs/kafkax"
	otelx "github.com/saudeclin/clinica-api/libs/otel"
	"github.com/saudeclin/clinica-api/libs/runtime"
)

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func rateLimitMiddleware(logger *slog.Logger) httpx.Middleware {
	limit := config.Int("RATE_LIMIT_REQUESTS", 100)
	window := time.Duration(config.Int("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: config.String("REDIS_PASSWORD", "")})
		limiter := httpx.NewRedisRateLimiter(rdb, limit, window, "ratelimit:clinica-api")
		return limiter.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
	}
	return httpx.NewRateLimiter(limit, window).Middleware()
}

func main() {
	service := config.String("SERVICE_NAME", "clinica-api")
	port, err := config.Port("PORT", "5000")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		MinConns: int32(config.Int("DB_MIN_CONNS", 1)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	directory := storage.NewDirectoryRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	appointments := storage.NewAppointmentRepository(pool, outboxRepo)
	records := storage.NewRecordsRepository(pool)

	brokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	clinicHandler := handlers.NewClinicHandler(directory, appointments, logger)
	bookingHandler := handlers.NewBookingHandler(directory, appointments, logger)
	slotsHandler := handlers.NewSlotsHandler(directory, appointments, logger)
	recordsHandler := handlers.NewRecordsHandler(records, logger)

	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if strings.TrimSpace(brokers) != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	mux := runtime.NewBaseMux(readyChecks...)

	mux.HandleFunc("GET /{$}", clinicHandler.ListClinics)
	mux.HandleFunc("GET /ping", handlers.Ping)
	mux.HandleFunc("GET /c/{clinica}/{$}", clinicHandler.ListSpecialties)
	mux.HandleFunc("GET /c/{clinica}/{especialidade}/{$}", clinicHandler.ListDoctors)
	mux.HandleFunc("GET /a/{clinica}/horarios/{$}", slotsHandler.FreeSlots)
	mux.HandleFunc("POST /a/{clinica}/registar/{$}", bookingHandler.Register)
	mux.HandleFunc("POST /a/{clinica}/cancelar/{$}", bookingHandler.Cancel)
	mux.HandleFunc("GET /a/consultas/{id}/registos/{$}", recordsHandler.ListRecords)

	if tokenHash := config.String("ADMIN_TOKEN_HASH", ""); tokenHash != "" {
		adminHandler := handlers.NewAdminHandler(directory, logger)
		admin := http.NewServeMux()
		admin.HandleFunc("POST /admin/clinicas/{$}", adminHandler.CreateClinic)
		admin.HandleFunc("POST /admin/medicos/{$}", adminHandler.CreateDoctor)
		admin.HandleFunc("POST /admin/pacientes/{$}", adminHandler.CreatePatient)
		admin.HandleFunc("POST /admin/trabalha/{$}", adminHandler.CreateWorksAt)
		admin.HandleFunc("POST /admin/consultas/{id}/receitas/{$}", recordsHandler.AddPrescription)
		admin.HandleFunc("POST /admin/consultas/{id}/observacoes/{$}", recordsHandler.AddObservation)
		mux.Handle("/admin/", handlers.RequireAdmin(admin, tokenHash))
	} else {
		logger.Warn("ADMIN_TOKEN_HASH not set; admin endpoints disabled")
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: splitList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(10*time.Second),
		rateLimitMiddleware(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
