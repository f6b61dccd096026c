package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/riiy/EMTradingAgent/internal/broker"
	"github.com/riiy/EMTradingAgent/internal/broker/eastmoney"
	"github.com/riiy/EMTradingAgent/internal/config"
	"github.com/riiy/EMTradingAgent/internal/handlers"
	"github.com/riiy/EMTradingAgent/internal/journal"
	"github.com/riiy/EMTradingAgent/internal/middleware"
)

// App holds the application dependencies.
type App struct {
	config         *config.Config
	journal        *journal.Journal
	agent          *eastmoney.TradingAgent
	router         *chi.Mux
	tradingHandler *handlers.TradingHandler
}

func main() {
	// Load configuration
	cfg := config.New()

	// Open the trading journal
	jnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer jnl.Close()

	// A configured vault secret keeps sealed credentials stable across
	// restarts; otherwise each process gets a random secret.
	var vault *broker.Vault
	if cfg.VaultSecret != "" {
		vault, err = broker.NewVault(cfg.VaultSecret)
		if err != nil {
			log.Fatalf("Failed to create credential vault: %v", err)
		}
	}

	// Create the trading agent with the external captcha recognizer
	recognizer := broker.NewHTTPRecognizer(cfg.OCREndpoint)
	agent, err := eastmoney.NewAgent(recognizer, vault)
	if err != nil {
		log.Fatalf("Failed to create trading agent: %v", err)
	}
	agent.SetRetryPolicy(cfg.LoginRetries, cfg.LoginRetryDelay)
	agent.SetSessionDuration(cfg.SessionDuration)

	// Credentials may be provided up front so /api/login can omit them
	if username := os.Getenv("EM_USERNAME"); username != "" {
		if err := agent.SetCredentials(username, os.Getenv("EM_PASSWORD")); err != nil {
			log.Fatalf("Failed to store credentials: %v", err)
		}
	}

	tradingHandler := handlers.NewTradingHandler(agent, jnl)

	app := &App{
		config:         cfg,
		journal:        jnl,
		agent:          agent,
		tradingHandler: tradingHandler,
	}
	app.setupRouter()

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      app.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // login may retry through captcha rounds
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://%s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Drop the brokerage session on the way out
	agent.Logout()

	log.Println("Server stopped")
}

func (app *App) setupRouter() {
	r := chi.NewRouter()

	// Chi middleware (aliased as chimw to avoid conflict with our middleware package)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)

	// Security headers for all responses
	r.Use(middleware.SecurityHeaders)

	// Health check
	r.Get("/health", app.tradingHandler.Health)

	// Session routes, rate limited to stay under the gateway's login
	// throttling
	r.Group(func(r chi.Router) {
		r.Use(middleware.LimitAuth)
		r.Post("/api/login", app.tradingHandler.Login)
		r.Post("/api/logout", app.tradingHandler.Logout)
	})

	// Order mutation routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.LimitTrade)
		r.Post("/api/orders", app.tradingHandler.PlaceOrder)
		r.Delete("/api/orders/{id}", app.tradingHandler.CancelOrder)
	})

	// Read-only query routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.LimitAPI)
		r.Get("/api/account", app.tradingHandler.Account)
		r.Get("/api/positions", app.tradingHandler.Positions)
		r.Get("/api/orders", app.tradingHandler.ListOrders)
		r.Get("/api/quote/{symbol}", app.tradingHandler.Quote)
		r.Get("/api/journal", app.tradingHandler.Journal)
	})

	app.router = r
}
