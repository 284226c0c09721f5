package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/trustbooks/backend/docs"
	"github.com/trustbooks/backend/internal/config"
	"github.com/trustbooks/backend/internal/database"
	mW "github.com/trustbooks/backend/internal/middleware"
	"github.com/trustbooks/backend/internal/services"
)

// @title Trust Accounting Backend API
// @version 1.0
// @description IOLTA trust ledger engine: client ledgers, transactions, reconciliation
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledgerCfg := config.LoadLedgerConfig()

	ledgerService := services.NewTrustLedgerService(db, redisClient, ledgerCfg)
	settlementService := services.NewSettlementService(db, redisClient, ledgerCfg)
	transactionService := services.NewTransactionService(db, ledgerService, settlementService)
	accountService := services.NewAccountService(db, redisClient, ledgerCfg)
	reconciliationService := services.NewReconciliationService(db, accountService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Trust account and client ledger onboarding
		r.Post("/trust-accounts", accountService.CreateTrustAccount)
		r.Get("/trust-accounts/{accountId}", accountService.GetTrustAccount)
		r.Put("/trust-accounts/{accountId}/close", accountService.CloseTrustAccount)
		r.Post("/ledgers", accountService.CreateClientLedger)
		r.Get("/ledgers/{ledgerId}", accountService.GetClientLedger)
		r.Put("/ledgers/{ledgerId}/close", accountService.CloseClientLedger)

		// Ledger engine
		r.Post("/transactions", transactionService.SubmitTransaction)
		r.Get("/transactions/{txId}", transactionService.GetTransaction)
		r.Post("/transactions/{txId}/settle", transactionService.SettleTransaction)
		r.Get("/transactions/{txId}/disbursement-advice", settlementService.DisbursementAdvice)
		r.Get("/ledgers/{ledgerId}/transactions", transactionService.ListLedgerTransactions)
		r.Get("/ledgers/{ledgerId}/verify", transactionService.VerifyLedger)

		// Reconciliation
		r.Post("/reconciliations", reconciliationService.RunReconciliation)
		r.Get("/reconciliations/{reconId}", reconciliationService.GetReconciliation)
		r.Put("/reconciliations/{reconId}/review", reconciliationService.ReviewReconciliation)
		r.Post("/bank-statements", reconciliationService.RecordBankStatement)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
