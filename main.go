// main.go
// VendTrack API - cleaning and fill reports for vending machine routes

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"vendtrack/auth"
	"vendtrack/bootstrap"
	"vendtrack/config"
	"vendtrack/metrics"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
)

const limiterMaxIdle = 10 * time.Minute

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	log.Printf("🚀 Starting VendTrack API Server")
	log.Printf("📍 Environment: %s", cfg.Server.Environment)
	log.Printf("🔧 Port: %s", cfg.Server.Port)

	metrics.Init()

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize backends: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("❌ Failed to close backends: %v", err)
		}
	}()

	unsubscribe := app.Auth.Subscribe(func(ev auth.SessionEvent) {
		metrics.ActiveSessions.Set(float64(app.Sessions.Count()))
		if ev.Kind != auth.SessionRefreshed {
			log.Printf("🔑 Session %s: %s (user: %s)", ev.Kind, ev.SessionID, ev.UserID)
		}
	})
	defer unsubscribe()

	scheduler := startScheduler(app)
	defer scheduler.Stop()

	log.Printf("🔐 JWT Manager initialized (expiration: %v)", cfg.JWT.Expiration)
	log.Printf("🛡️  Rate limiter initialized (%d requests per %v)", cfg.RateLimit.Requests, cfg.RateLimit.Window)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// startScheduler runs the housekeeping jobs that sweep expired sessions and
// idle rate limiters.
func startScheduler(app *bootstrap.App) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)

	if _, err := s.Every(1).Minute().Do(func() {
		if n := app.Sessions.SweepExpired(); n > 0 {
			log.Printf("🧹 Swept %d expired sessions", n)
		}
		metrics.ActiveSessions.Set(float64(app.Sessions.Count()))
	}); err != nil {
		log.Printf("⚠️  Failed to schedule session sweep: %v", err)
	}

	if _, err := s.Every(5).Minutes().Do(func() {
		if n := app.RateLimiter.CleanupOldLimiters(limiterMaxIdle); n > 0 {
			log.Printf("🧹 Removed %d idle rate limiters", n)
		}
	}); err != nil {
		log.Printf("⚠️  Failed to schedule limiter cleanup: %v", err)
	}

	s.StartAsync()
	return s
}
