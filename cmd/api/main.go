// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unitedhouse/unitedhouse-backend/internal/auth"
	"github.com/unitedhouse/unitedhouse-backend/internal/common/database"
	"github.com/unitedhouse/unitedhouse-backend/internal/community"
	"github.com/unitedhouse/unitedhouse-backend/internal/config"
	"github.com/unitedhouse/unitedhouse-backend/internal/content"
	"github.com/unitedhouse/unitedhouse-backend/internal/handoff"
	"github.com/unitedhouse/unitedhouse-backend/internal/messaging"
	"github.com/unitedhouse/unitedhouse-backend/internal/notification"
	"github.com/unitedhouse/unitedhouse-backend/internal/profile"
	"github.com/unitedhouse/unitedhouse-backend/internal/storage"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("🚀 Starting United House API")
	log.Println("========================================")

	// 1. Load environment variables
	log.Println("📁 Step 1: Loading .env file...")
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found (%v), using environment variables", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// 2. Load and validate configuration
	log.Println("📋 Step 2: Loading configuration...")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Configuration validation failed: ", err)
	}
	log.Println("✅ Configuration loaded")

	// 3. Connect to PostgreSQL
	log.Println("🗄️  Step 3: Connecting to PostgreSQL...")
	db, err := database.NewPostgresDB(cfg.DatabaseURL, database.DefaultPostgresConfig())
	if err != nil {
		log.Fatal("❌ Failed to connect to PostgreSQL: ", err)
	}
	defer db.Close()
	log.Println("✅ Connected to PostgreSQL successfully")

	// 4. Connect to Redis (auth token store; handoff also uses it when present)
	log.Println("📮 Step 4: Connecting to Redis...")
	var redisClient *redis.Client
	redisClient, err = database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatal("❌ Failed to connect to Redis: ", err)
	}
	defer redisClient.Close()
	log.Println("✅ Connected to Redis successfully")

	// 5. Run database migrations
	log.Println("🔨 Step 5: Running database migrations...")
	if err := runMigrations(db); err != nil {
		log.Fatal("❌ Failed to run migrations: ", err)
	}
	log.Println("✅ Database migrations completed")

	// 6. Object storage
	log.Println("🪣 Step 6: Initializing object storage...")
	var store storage.Service
	if cfg.UseS3 {
		awsSession, err := session.NewSession(&aws.Config{
			Region:      aws.String(cfg.AWSRegion),
			Credentials: credentials.NewStaticCredentials(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		})
		if err != nil {
			log.Fatal("❌ Failed to create AWS session: ", err)
		}
		store = storage.NewS3Service(awsSession, cfg.AWSRegion, cfg.MaxUploadSize)
		log.Println("✅ S3 storage ready")
	} else {
		store = storage.NewLocalService(cfg.LocalUploadDir, cfg.BaseURL, cfg.MaxUploadSize)
		log.Println("✅ Local storage ready")
	}

	// 7. Email
	log.Println("✉️  Step 7: Initializing email sender...")
	var emailSender notification.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		emailSender = notification.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFrom)
		log.Println("✅ SendGrid email sender ready")
	default:
		emailSender = notification.NewMockSender()
		log.Println("✅ Mock email sender ready (emails will be logged)")
	}

	// 8. Auth
	log.Println("🔐 Step 8: Initializing auth...")
	authRepo := auth.NewPostgresRepository(db)
	authService := auth.NewService(authRepo, redisClient, emailSender, &auth.Config{
		JWTSecret:          cfg.JWTSecret,
		AccessTokenExpiry:  cfg.AccessTokenExpiry,
		RefreshTokenExpiry: cfg.RefreshTokenExpiry,
		BCryptCost:         cfg.BCryptCost,
		BaseURL:            cfg.BaseURL,
	})
	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.NewMiddleware(authService)
	log.Println("✅ Auth ready")

	// 9. Profiles and verification
	log.Println("👤 Step 9: Initializing profiles...")
	profileRepo := profile.NewPostgresRepository(db)
	profileService := profile.NewService(profileRepo, store, profile.Config{
		AvatarBucket:       cfg.AvatarBucket,
		VerificationBucket: cfg.VerificationBucket,
		SignedURLExpiry:    cfg.SignedURLExpiry,
	})
	profileHandler := profile.NewHandler(profileService)
	log.Println("✅ Profiles ready")

	// 10. Content (posts & projects)
	log.Println("📝 Step 10: Initializing content...")
	contentRepo := content.NewPostgresRepository(db)
	contentService := content.NewService(contentRepo, store, content.Config{
		MediaBucket: cfg.MediaBucket,
	})
	contentHandler := content.NewHandler(contentService)
	log.Println("✅ Content ready")

	// 11. Communities
	log.Println("🏘️  Step 11: Initializing communities...")
	communityRepo := community.NewPostgresRepository(db)
	communityService := community.NewService(communityRepo)
	communityHandler := community.NewHandler(communityService)
	log.Println("✅ Communities ready")

	// 12. Messaging + realtime hub
	log.Println("💬 Step 12: Initializing messaging...")
	hub := messaging.NewHub()
	messagingRepo := messaging.NewPostgresRepository(db)
	messagingService := messaging.NewService(messagingRepo, hub, cfg.MessagePageSize)
	hub.SetService(messagingService)
	go hub.Run()
	messagingHandler := messaging.NewHandler(messagingService, hub)
	log.Println("✅ Messaging ready")

	// 13. Navigation handoff store
	log.Println("🔀 Step 13: Initializing handoff store...")
	handoffStore := handoff.NewRedisStore(redisClient, cfg.HandoffTTL)
	handoffHandler := handoff.NewHandler(handoffStore)
	log.Println("✅ Handoff store ready")

	// 14. Router
	log.Println("🌐 Step 14: Setting up routes...")
	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	if cfg.EnableMetrics {
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	authHandler.RegisterRoutes(router)
	profile.RegisterRoutes(router, profileHandler, authMiddleware)
	content.RegisterRoutes(router, contentHandler, authMiddleware)
	communityHandler.RegisterRoutes(router, authMiddleware)
	messaging.RegisterRoutes(router, messagingHandler, authMiddleware)
	handoffHandler.RegisterRoutes(router, authMiddleware)
	log.Println("✅ Routes registered")

	// 15. Start server with graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server failed: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Shutdown()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server forced to shutdown: ", err)
	}
	log.Println("✅ Server exited cleanly")
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			username TEXT NOT NULL UNIQUE,
			avatar_url TEXT,
			official BOOLEAN NOT NULL DEFAULT FALSE,
			verification_status TEXT NOT NULL DEFAULT 'none',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS verification_requests (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			document_key TEXT NOT NULL,
			selfie_key TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			reviewed_by UUID,
			reviewed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS content_items (
			id UUID PRIMARY KEY,
			kind TEXT NOT NULL CHECK (kind IN ('post', 'project')),
			author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			media_url TEXT,
			score INTEGER NOT NULL DEFAULT 0,
			comment_count INTEGER NOT NULL DEFAULT 0,
			community_id UUID,
			deleted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			item_id UUID NOT NULL REFERENCES content_items(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			value INTEGER NOT NULL CHECK (value IN (-1, 1)),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (item_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id UUID PRIMARY KEY,
			item_id UUID NOT NULL REFERENCES content_items(id) ON DELETE CASCADE,
			author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			parent_id UUID REFERENCES comments(id) ON DELETE CASCADE,
			body TEXT NOT NULL,
			deleted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS communities (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			creator_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS community_members (
			community_id UUID NOT NULL REFERENCES communities(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role TEXT NOT NULL DEFAULT 'member',
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (community_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id UUID PRIMARY KEY,
			user_lo UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			user_hi UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			last_message_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_lo, user_hi)
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_participants (
			conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			last_read_at TIMESTAMPTZ,
			PRIMARY KEY (conversation_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			message_type TEXT NOT NULL DEFAULT 'text',
			edited BOOLEAN NOT NULL DEFAULT FALSE,
			deleted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_last_message ON conversations(last_message_at DESC, id ASC)`,
		`CREATE INDEX IF NOT EXISTS idx_content_items_kind ON content_items(kind, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_item ON comments(item_id, created_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
