//	@title			Gramline API
//	@version		1.0
//	@description	Batch photo publishing to Instagram with S3-compatible archival.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session JWT issued after Instagram login. Format: **Bearer {token}**

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
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/gramline/service/internal/auth"
	"github.com/gramline/service/internal/config"
	"github.com/gramline/service/internal/credential"
	"github.com/gramline/service/internal/db"
	"github.com/gramline/service/internal/hosting"
	"github.com/gramline/service/internal/instagram"
	appMiddleware "github.com/gramline/service/internal/middleware"
	"github.com/gramline/service/internal/publish"
	"github.com/gramline/service/internal/storage"
	"github.com/gramline/service/internal/upload"

	_ "github.com/gramline/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	// Storage may be left unconfigured; the upload pipeline then rejects
	// calls instead of the whole service refusing to boot.
	var store storage.ObjectStore
	if cfg.StorageAccessKey != "" && cfg.StorageSecretKey != "" && cfg.StorageBucket != "" {
		minioStore, err := storage.NewMinioStore(
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageBucket,
			cfg.StorageRegion,
			cfg.StorageUseSSL,
		)
		if err != nil {
			log.Fatalf("object storage init failed: %v", err)
		}
		store = minioStore
	} else {
		log.Println("object storage not configured, upload endpoints disabled")
	}

	// Wire dependencies: store → service → handler
	credStore, err := credential.NewStore(context.Background(), credential.NewPostgresRepository(pool))
	if err != nil {
		log.Fatalf("credential store init failed: %v", err)
	}

	igClient := instagram.NewClient(cfg.InstagramClientID, cfg.InstagramClientSecret, cfg.InstagramRedirectURL)

	authSvc := auth.NewService(igClient, credStore, cfg, nil)
	authHandler := auth.NewHandler(authSvc)

	var host publish.SourceURLProvider
	if store != nil {
		host = hosting.NewHost(store)
	}
	publishSvc := publish.NewService(credStore, igClient, host)
	publishHandler := publish.NewHandler(publishSvc)

	uploadSvc := upload.NewService(store, cfg)
	uploadHandler := upload.NewHandler(uploadSvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints: the callback is reached by the provider
		// redirect, before any session exists.
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", authHandler.Login)
			r.Get("/callback", authHandler.Callback)
			r.Get("/status", authHandler.Status)
			r.Post("/cancel", authHandler.Cancel)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		// Protected pipeline endpoints
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireSession(cfg.JWTSecret))

			r.Post("/media/publish", publishHandler.PublishBatch)

			r.Route("/uploads", func(r chi.Router) {
				r.Post("/", uploadHandler.UploadBatch)
				r.Get("/", uploadHandler.List)
				r.Delete("/", uploadHandler.Delete)
				r.Get("/progress", uploadHandler.Progress)
				r.Get("/url", uploadHandler.PresignURL)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
