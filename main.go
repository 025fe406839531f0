package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/handlers"
	"github.com/paperfix/paperfix/backend/go-services/internal/config"
	"github.com/paperfix/paperfix/backend/go-services/internal/database"
	"github.com/paperfix/paperfix/backend/go-services/internal/document/handler"
	"github.com/paperfix/paperfix/backend/go-services/internal/document/repository"
	"github.com/paperfix/paperfix/backend/go-services/internal/document/service"
	"github.com/paperfix/paperfix/backend/go-services/internal/export"
	"github.com/paperfix/paperfix/backend/go-services/internal/generation"
	"github.com/paperfix/paperfix/backend/go-services/internal/llm"
	"github.com/paperfix/paperfix/backend/go-services/internal/oidc"
	"github.com/paperfix/paperfix/backend/go-services/internal/storage"
	"github.com/paperfix/paperfix/backend/go-services/internal/users"
	"github.com/paperfix/paperfix/backend/go-services/pkg/logger"
	"github.com/paperfix/paperfix/backend/go-services/pkg/metrics"
	"github.com/paperfix/paperfix/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.SetFormat(cfg.Server.LogFormat)
	logger.WithFields(cfg.Summary()).Info("config loaded")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(corsMiddleware(cfg.Server.AllowOrigins))
	r.Use(middleware.ErrorHandler())

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	checks := map[string]handlers.Check{}

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis %s not reachable: %v", cfg.RedisAddr(), err)
		} else {
			logger.Infof("connected to redis at %s", cfg.RedisAddr())
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// the AI limiter runs after optional auth, so it keys on the user when a
	// valid token is sent and on the client IP otherwise
	var aiLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		if cfg.RateLimit.UseRedis && rdb != nil {
			r.Use(middleware.RedisRateLimitMiddleware(rdb, "global", cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
			aiLimit = middleware.RedisRateLimitMiddleware(rdb, "ai", cfg.RateLimit.AIRPS, cfg.RateLimit.AIBurst, win)
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
			aiLimit = middleware.RateLimitMiddleware(cfg.RateLimit.AIRPS, cfg.RateLimit.AIBurst)
		}
	}

	verifier := newVerifier(ctx, cfg, checks)

	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		mongoClient, err = database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			logger.Warnf("could not connect to MongoDB, falling back to in-memory storage: %v", err)
		} else {
			defer func() { _ = mongoClient.Disconnect(context.Background()) }()
			checks["mongo"] = func(ctx context.Context) error { return database.Ping(ctx, mongoClient) }
		}
	}

	var docSvc service.Service
	var userRepo users.UserRepository
	if mongoClient != nil {
		db := mongoClient.Database(cfg.MongoDB.Database)
		docSvc = service.NewMongoService(db.Collection(repository.Collection))
		mur := users.NewMongoUserRepository(db.Collection(users.Collection))
		if err := mur.EnsureIndexes(ctx); err != nil {
			logger.Warnf("users: creating indexes failed: %v", err)
		}
		userRepo = mur
	} else {
		docSvc = service.NewMemoryService()
		userRepo = users.NewMemoryUserRepository()
	}
	userSvc := users.NewService(userRepo)

	provider := newProvider(cfg.LLM)
	checks["llm"] = func(context.Context) error { return nil }
	genSvc := generation.NewService(provider, llm.Options{
		Temperature:     cfg.LLM.Temperature,
		TopP:            cfg.LLM.TopP,
		TopK:            cfg.LLM.TopK,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})
	logger.Infof("llm provider: %s", genSvc.Provider())

	renderer := export.NewRenderer()
	var mailer handlers.Mailer
	if cfg.Email.APIKey != "" {
		mailer = export.NewMailer(renderer, export.NewResendSender(cfg.Email.APIKey), cfg.Email.From, cfg.Email.SenderName)
	} else {
		logger.Warnf("RESEND_API_KEY not set; /api/email is disabled")
	}

	var archiver handler.Archiver
	if cfg.Storage.Endpoint != "" {
		store, err := storage.NewMinIOStorage(ctx, cfg.Storage)
		if err != nil {
			logger.Warnf("object storage unavailable, archive disabled: %v", err)
		} else {
			archiver = export.NewArchiver(renderer, store, cfg.Storage.PresignTTL)
			checks["storage"] = store.Ping
		}
	}

	handlers.RegisterHealth(r, checks)
	handlers.RegisterSwagger(r)
	handlers.RegisterTemplates(r)
	handlers.NewGenerationHandler(genSvc).Register(r, middleware.OptionalAuthMiddleware(verifier), aiLimit)
	handlers.NewExportHandler(renderer, mailer).Register(r)

	authed := r.Group("", middleware.AuthMiddleware(verifier))
	handler.RegisterDocumentRoutes(authed, docSvc, archiver)
	handlers.RegisterMe(authed, userSvc)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("starting paperfix API on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
		cc.AllowCredentials = true
	}
	return cors.New(cc)
}

// newVerifier prefers Keycloak and falls back to the shared-secret verifier.
// With neither configured the document routes answer 503.
func newVerifier(ctx context.Context, cfg *config.Config, checks map[string]handlers.Check) middleware.Verifier {
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		issuer := oidc.IssuerURL(cfg.Keycloak.URL, cfg.Keycloak.Realm)
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err == nil {
			checks["oidc"] = ver.Ping
			logger.Infof("verifying tokens issued by %s", issuer)
			return ver
		}
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
		checks["oidc"] = func(context.Context) error { return err }
	}
	if cfg.JWT.Secret != "" {
		ver, err := oidc.NewHMACVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
		if err == nil {
			logger.Infof("verifying HS256 tokens with the configured JWT secret")
			return ver
		}
	}
	logger.Warnf("no token verifier configured; document routes are disabled")
	return nil
}

func newProvider(c config.LLMConfig) llm.Provider {
	if strings.EqualFold(c.Provider, "local") || c.APIKey == "" {
		if c.APIKey == "" {
			logger.Warnf("GEMINI_API_KEY not set; using the local placeholder provider")
		}
		return llm.NewLocalProvider()
	}
	return llm.NewGemini(llm.GeminiConfig{
		APIKey:  c.APIKey,
		Model:   c.Model,
		BaseURL: c.BaseURL,
		Timeout: c.Timeout,
	})
}
