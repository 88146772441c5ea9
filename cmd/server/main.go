package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"paperpile/internal/config"
	"paperpile/internal/database"
	"paperpile/internal/handlers"
	"paperpile/internal/security"
	"paperpile/internal/service"
	"paperpile/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.EnsureSchema(); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	// Document store over the database
	st := store.NewSQLStore(db)

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		// Tokens won't survive a restart without a configured secret
		log.Println("Warning: JWT_SECRET not set, using a random secret for this run")
		jwtSecret = randomSecret()
	}

	// Initialize services
	familyService := service.NewFamilyService(st)
	authService := service.NewAuthService(st, familyService, cfg.SessionDuration, jwtSecret)
	documentService := service.NewDocumentService(st)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, limiter)
	authHandler := handlers.NewAuthHandler(authService, oauthProviders, cfg.AppBaseURL)
	familyHandler := handlers.NewFamilyHandler(familyService, emailService)
	documentHandler := handlers.NewDocumentHandler(documentService)

	router := handlers.NewRouter(authHandler, familyHandler, documentHandler, middleware)
	handler := handlers.Logging(router)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}
	return hex.EncodeToString(buf)
}
