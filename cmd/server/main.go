package main

import (
	"database/sql"
	"net/http"

	"pagseguro-checkout/internal/checkout"
	"pagseguro-checkout/internal/config"
	"pagseguro-checkout/internal/db"
	"pagseguro-checkout/internal/logger"
	"pagseguro-checkout/internal/middleware"
	"pagseguro-checkout/internal/order"
	"pagseguro-checkout/internal/payment"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = http.ListenAndServe
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	router := newServer(cfg, database)

	logger.L().Info("🚀 checkout server running", zap.String("port", cfg.AppPort))
	return startServerFunc(":"+cfg.AppPort, router)
}

func newServer(cfg *config.Config, database *sql.DB) http.Handler {
	orderRepo := order.NewRepository(database)
	historyRepo := payment.NewHistoryRepository(database)

	audit, err := logger.NewAuditLogger(cfg.PagSeguro.AuditLogPath)
	if err != nil {
		logger.L().Error("failed to open PagSeguro audit log; unauthorized attempts will not be recorded",
			zap.String("path", cfg.PagSeguro.AuditLogPath),
			zap.Error(err),
		)
		audit = zap.NewNop()
	}

	creds := payment.NewStaticCredentials(cfg.PagSeguro.AccountEmail, cfg.PagSeguro.AccountToken)

	paymentSvc := payment.NewService(
		payment.Settings{
			AuthorizeEnabled: cfg.PagSeguro.AuthorizeEnabled,
			OpenInOtherPage:  cfg.PagSeguro.OpenInOtherPage,
			RedirectURL:      cfg.PagSeguro.RedirectURL,
			SuccessURL:       cfg.PagSeguro.SuccessURL,
		},
		payment.Deps{
			Credentials: creds,
			Orders:      orderRepo,
			Gateway:     payment.NewPagSeguroGateway(cfg.PagSeguro.APIURL, creds, cfg.PagSeguro.Timeout),
			Pending:     newPendingStore(cfg),
			History:     historyRepo,
			Audit:       audit,
		},
	)

	if cfg.AdminAPISecret == "" {
		logger.L().Warn("ADMIN_API_SECRET not set; session issuance, history and metrics are disabled")
	}

	api := checkout.NewAPI(paymentSvc, orderRepo, middleware.NewLimiter(cfg.RateLimit), checkout.Secrets{
		CheckoutToken: cfg.CheckoutTokenSecret,
		Admin:         cfg.AdminAPISecret,
	})
	return setupRouter(api)
}

func newPendingStore(cfg *config.Config) payment.PendingStore {
	if cfg.RedisAddr == "" {
		logger.L().Warn("REDIS_ADDR not set; pending PagSeguro codes are kept in memory")
		return payment.NewMemoryPendingStore(cfg.PagSeguro.PendingTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return payment.NewRedisPendingStore(client, cfg.PagSeguro.PendingTTL)
}

func setupRouter(api *checkout.API) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	api.AppendRoutes(r)

	return r
}
