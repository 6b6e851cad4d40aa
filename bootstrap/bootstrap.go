// Package bootstrap builds the application from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"vendtrack/auth"
	"vendtrack/config"
	"vendtrack/db"
	"vendtrack/middleware"
	"vendtrack/photo"
	"vendtrack/routes"
	"vendtrack/service"

	firebase "firebase.google.com/go/v4"
	"github.com/hashicorp/go-multierror"
)

// App holds the wired services of one running instance.
type App struct {
	Store       db.Store
	Identity    auth.IdentityProvider
	Sessions    *auth.SessionManager
	JWT         *auth.JWTManager
	Audit       *service.AuditLogger
	Auth        *service.AuthService
	Users       *service.UserService
	Reports     *service.ReportService
	Commodities *service.CommodityService
	Photos      *photo.Service
	RateLimiter *middleware.RateLimiter

	allowedOrigins []string
	closers        []func() error
}

// Build creates the backends selected in cfg and the services on top of them.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{allowedOrigins: cfg.CORS.AllowedOrigins}

	var fbApp *firebase.App
	if cfg.UsesFirebase() {
		var err error
		fbApp, err = db.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath, cfg.Firebase.DatabaseURL)
		if err != nil {
			return nil, err
		}
	}

	store, err := newStore(ctx, cfg, fbApp)
	if err != nil {
		return nil, err
	}
	app.Store = store
	app.closers = append(app.closers, store.Close)

	identity, err := newIdentity(ctx, cfg, fbApp, store)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Identity = identity

	photoStore, err := newPhotoStore(ctx, cfg, fbApp)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Sessions = auth.NewSessionManager(cfg.JWT.SessionTTL)
	app.JWT = auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	app.Audit = service.NewAuditLogger(store)
	app.Auth = service.NewAuthService(store, identity, app.Sessions, app.Audit)
	app.Users = service.NewUserService(store, identity, app.Audit)
	app.Reports = service.NewReportService(store)
	app.Commodities = service.NewCommodityService(store, app.Audit)
	app.Photos = photo.NewService(photoStore)
	app.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	log.Printf("✅ Backends ready (store: %s, auth: %s, photos: %s)", cfg.Store.Backend, cfg.Auth.Provider, cfg.Photos.Backend)
	return app, nil
}

func newStore(ctx context.Context, cfg *config.Config, fbApp *firebase.App) (db.Store, error) {
	switch cfg.Store.Backend {
	case "rtdb":
		return db.NewRTDBStore(ctx, fbApp, cfg.Store.Root)
	case "firestore":
		return db.NewFirestoreStore(ctx, fbApp, cfg.Store.Root)
	case "memory":
		log.Printf("⚠️  Using in-memory store; data is lost on restart")
		return db.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
}

func newIdentity(ctx context.Context, cfg *config.Config, fbApp *firebase.App, store db.Store) (auth.IdentityProvider, error) {
	switch cfg.Auth.Provider {
	case "firebase":
		client, err := fbApp.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("error initializing Firebase auth: %w", err)
		}
		return auth.NewFirebaseIdentity(client, cfg.Firebase.APIKey, cfg.Firebase.IdentityToolkitURL), nil
	case "local":
		return auth.NewLocalIdentity(store), nil
	}
	return nil, fmt.Errorf("unknown auth provider: %s", cfg.Auth.Provider)
}

func newPhotoStore(ctx context.Context, cfg *config.Config, fbApp *firebase.App) (photo.Store, error) {
	switch cfg.Photos.Backend {
	case "local":
		return photo.NewLocalStore(cfg.Photos.Dir)
	case "s3":
		s3cfg := cfg.Photos.S3
		return photo.NewS3Store(ctx, s3cfg.Region, s3cfg.Bucket, s3cfg.AccessKeyID, s3cfg.SecretAccessKey)
	case "firebase":
		client, err := fbApp.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error initializing Firebase storage: %w", err)
		}
		bucket, err := client.Bucket(cfg.Photos.Bucket)
		if err != nil {
			return nil, fmt.Errorf("error opening storage bucket %s: %w", cfg.Photos.Bucket, err)
		}
		log.Printf("✅ Photo store using Firebase Storage bucket %s", cfg.Photos.Bucket)
		return photo.NewGCSStore(bucket), nil
	case "memory":
		return photo.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown photo backend: %s", cfg.Photos.Backend)
}

// Handler returns the HTTP API for the app.
func (a *App) Handler() http.Handler {
	return routes.New(routes.Deps{
		JWT:            a.JWT,
		Auth:           a.Auth,
		Users:          a.Users,
		Reports:        a.Reports,
		Commodities:    a.Commodities,
		Audit:          a.Audit,
		Photos:         a.Photos,
		RateLimiter:    a.RateLimiter,
		AllowedOrigins: a.allowedOrigins,
	})
}

// Close releases every backend, collecting all failures.
func (a *App) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	a.closers = nil
	return errs
}
