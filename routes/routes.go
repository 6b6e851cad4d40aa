// Package routes assembles the HTTP API.
package routes

import (
	"net/http"
	"vendtrack/auth"
	"vendtrack/handlers"
	"vendtrack/middleware"
	"vendtrack/models"
	"vendtrack/photo"
	"vendtrack/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the router needs.
type Deps struct {
	JWT            *auth.JWTManager
	Auth           *service.AuthService
	Users          *service.UserService
	Reports        *service.ReportService
	Commodities    *service.CommodityService
	Audit          *service.AuditLogger
	Photos         *photo.Service
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

// New builds the router. Every /api route except login and refresh requires
// a live session.
func New(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Auth, d.JWT)
	reportHandler := handlers.NewReportHandler(d.Reports)
	exportHandler := handlers.NewExportHandler(d.Reports, d.Audit)
	adminHandler := handlers.NewAdminHandler(d.Auth, d.Users, d.Audit)
	commodityHandler := handlers.NewCommodityHandler(d.Commodities)
	photoHandler := handlers.NewPhotoHandler(d.Photos, d.Reports)

	adminOnly := middleware.RequireRole(models.RoleAdmin)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORSMiddleware(d.AllowedOrigins))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware())
	}

	// Public routes (no authentication required)
	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/login", authHandler.Login)
	r.Post("/api/refresh", authHandler.RefreshToken)

	// Protected routes (authentication required)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(d.JWT, d.Auth))

		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
		r.Get("/navigation", authHandler.Navigation)

		r.Route("/reports", func(r chi.Router) {
			r.With(middleware.RequireRole(models.RoleAdmin, models.RoleViewer)).Get("/", reportHandler.GetReports)
			r.Get("/mine", reportHandler.GetMyReports)
			r.With(adminOnly).Get("/daily-count", reportHandler.GetDailyCount)
			r.With(adminOnly).Get("/next-id", reportHandler.GetNextID)
			r.With(middleware.RequireRole(models.RoleAdmin, models.RoleViewer, models.RoleDealer)).Get("/export", exportHandler.ExportReports)
			r.With(middleware.RequireRole(models.RoleRouteman, models.RoleOperator)).Post("/", reportHandler.CreateReport)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", reportHandler.GetReport)
				r.Put("/", reportHandler.UpdateReport)
				r.With(adminOnly).Delete("/", reportHandler.DeleteReport)
				r.Post("/photos/{type}", photoHandler.UploadReportPhoto)
			})
		})

		r.With(middleware.RequireRole(models.RoleDealer, models.RoleAdmin)).Get("/dealer/reports", reportHandler.GetDealerReports)
		r.With(adminOnly).Get("/users/{id}/reports", reportHandler.GetUserReports)

		// Admin endpoints (admin only)
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/users", adminHandler.GetUsers)
			r.Post("/users", adminHandler.CreateUser)
			r.Get("/users/{id}", adminHandler.GetUser)
			r.Put("/users/{id}", adminHandler.UpdateUser)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
			r.Post("/users/{id}/password", adminHandler.ResetPassword)
			r.Get("/audit-logs", adminHandler.GetAuditLogs)
		})

		r.Route("/commodities", func(r chi.Router) {
			r.Get("/", commodityHandler.GetCommodities)
			r.Get("/{id}", commodityHandler.GetCommodity)
			r.With(adminOnly).Post("/", commodityHandler.CreateCommodity)
			r.With(adminOnly).Put("/{id}", commodityHandler.UpdateCommodity)
			r.With(adminOnly).Delete("/{id}", commodityHandler.DeleteCommodity)
		})

		r.Post("/photos", photoHandler.UploadPhotos)
		r.Get("/photos/{key}", photoHandler.GetPhoto)
		r.Delete("/photos/{key}", photoHandler.DeletePhoto)
	})

	return r
}
