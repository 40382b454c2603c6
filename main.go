package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"

	"commercegate-payment-api/config"
	"commercegate-payment-api/database"
	"commercegate-payment-api/handlers"
	"commercegate-payment-api/middleware"
	"commercegate-payment-api/queue"
	"commercegate-payment-api/services/auth"
	"commercegate-payment-api/services/payment"
	"commercegate-payment-api/services/payment/cybersource"
	"commercegate-payment-api/worker"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds | log.LUTC)

	numCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(numCPU)
	log.Printf("Server starting with %d CPUs available", numCPU)

	cfg := config.Load()
	log.Printf("Configuration loaded successfully")

	var db *database.Connection
	var err error
	for retries := 0; retries < 5; retries++ {
		db, err = database.NewConnection(cfg.Database)
		if err == nil {
			break
		}
		retryDelay := time.Duration(retries+1) * time.Second
		log.Printf("Failed to connect to database (attempt %d/5): %v. Retrying in %v...",
			retries+1, err, retryDelay)
		time.Sleep(retryDelay)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()
	log.Println("Successfully connected to database")

	jobQueue, err := queue.NewQueue(cfg.Redis.URL, "payment_jobs")
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer jobQueue.Close()
	log.Println("Successfully connected to Redis")

	rateLimiter, err := middleware.NewRateLimiter(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to initialize rate limiter: %v", err)
	}
	defer rateLimiter.Close()

	paymentService := payment.NewPaymentService(cybersource.Config{
		MerchantID:  cfg.CyberSource.MerchantID,
		Password:    cfg.CyberSource.Password,
		Environment: cfg.CyberSource.Environment,
		Endpoint:    cfg.CyberSource.Endpoint,
		SolutionID:  cfg.CyberSource.SolutionID,
	})

	jwtService := auth.NewJWTService(cfg.Server.JWTSecret, "commercegate-payment-api")

	workerConcurrency := cfg.Redis.WorkerConcurrency
	if workerConcurrency < 2 {
		workerConcurrency = 2
	} else if workerConcurrency > 8 {
		workerConcurrency = 8
	}

	paymentWorker := worker.NewWorker(jobQueue, db, paymentService)
	paymentWorker.Start(workerConcurrency)
	defer paymentWorker.Stop()
	log.Printf("Started payment worker with %d threads", workerConcurrency)

	paymentHandler := handlers.NewPaymentHandler(db, paymentService, jobQueue)
	profileHandler := handlers.NewProfileHandler(db, paymentService, jobQueue)
	threeDSHandler := handlers.NewThreeDSHandler(db, paymentService, cfg.Session.Secret)
	internalHandler := handlers.NewInternalHandler(jwtService)

	router := mux.NewRouter()
	router.Use(middleware.SecurityHeadersMiddleware)
	router.Use(rateLimiter.RateLimitMiddleware())
	router.Use(middleware.LoggingMiddleware)

	// Internal endpoints: shared-secret gated, used by back-office systems to
	// mint API tokens.
	router.HandleFunc("/internal/generate-token",
		internalHandler.RequireInternalSecret(internalHandler.GenerateToken)).Methods("POST")
	router.HandleFunc("/internal/validate-token",
		internalHandler.RequireInternalSecret(internalHandler.ValidateToken)).Methods("POST")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.AuthMiddleware(jwtService))

	payments := api.PathPrefix("/payments").Subrouter()
	payments.HandleFunc("/authorize", paymentHandler.Authorize).Methods("POST")
	payments.HandleFunc("/purchase", paymentHandler.Purchase).Methods("POST")
	payments.HandleFunc("/capture", paymentHandler.Capture).Methods("POST")
	payments.HandleFunc("/capture-later", paymentHandler.CaptureLater).Methods("POST")
	payments.HandleFunc("/void", paymentHandler.Void).Methods("POST")
	payments.HandleFunc("/refund", paymentHandler.Refund).Methods("POST")
	payments.HandleFunc("/credit", paymentHandler.Credit).Methods("POST")
	payments.HandleFunc("/adjust", paymentHandler.Adjust).Methods("POST")
	payments.HandleFunc("/verify", paymentHandler.Verify).Methods("POST")

	api.HandleFunc("/tax/calculate", paymentHandler.CalculateTax).Methods("POST")
	api.HandleFunc("/verify-credentials", paymentHandler.VerifyCredentials).Methods("GET")

	api.HandleFunc("/profiles", profileHandler.Store).Methods("POST")
	api.HandleFunc("/profiles", profileHandler.Update).Methods("PUT")
	api.HandleFunc("/profiles", profileHandler.Unstore).Methods("DELETE")
	api.HandleFunc("/profiles", profileHandler.Retrieve).Methods("GET")
	api.HandleFunc("/profiles/unstore-later", profileHandler.UnstoreLater).Methods("POST")

	api.HandleFunc("/3ds/enroll", threeDSHandler.Enroll).Methods("POST")
	api.HandleFunc("/3ds/complete", threeDSHandler.Complete).Methods("POST")

	transactions := api.PathPrefix("/transactions").Subrouter()
	transactions.Use(middleware.RequireRole("integration"))
	transactions.HandleFunc("", paymentHandler.ListTransactions).Methods("GET")
	transactions.HandleFunc("/lookup", paymentHandler.GetTransaction).Methods("GET")

	startTime := time.Now()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		health := struct {
			Status    string `json:"status"`
			Time      string `json:"time"`
			Database  string `json:"database"`
			Redis     string `json:"redis"`
			Uptime    string `json:"uptime"`
			GoVersion string `json:"go_version"`
		}{
			Status:    "ok",
			Time:      time.Now().Format(time.RFC3339),
			Database:  "connected",
			Redis:     "connected",
			Uptime:    fmt.Sprintf("%v", time.Since(startTime)),
			GoVersion: runtime.Version(),
		}

		dbCtx, dbCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer dbCancel()
		if err := db.GetDB().PingContext(dbCtx); err != nil {
			health.Status = "degraded"
			health.Database = "error"
		}

		redisCtx, redisCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer redisCancel()
		if err := jobQueue.Client().Ping(redisCtx).Err(); err != nil {
			health.Status = "degraded"
			health.Redis = "error"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	}).Methods("GET")

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   45 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	<-stop
	log.Println("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Stopping payment worker...")
	paymentWorker.Stop()
	time.Sleep(2 * time.Second)

	log.Println("Server exited properly")
}
