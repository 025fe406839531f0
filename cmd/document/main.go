// Command document runs the document persistence API on its own, without the
// generation and export routes.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
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
	"github.com/paperfix/paperfix/backend/go-services/internal/oidc"
	"github.com/paperfix/paperfix/backend/go-services/pkg/logger"
	"github.com/paperfix/paperfix/backend/go-services/pkg/metrics"
	"github.com/paperfix/paperfix/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.SetFormat(cfg.Server.LogFormat)

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("DOC_SERVICE_PORT", "5010")
	port := v.GetString("DOC_SERVICE_PORT")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.ErrorHandler())
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	checks := map[string]handlers.Check{}

	var svc service.Service
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 3)
		if err != nil {
			logger.Warnf("cannot connect to MongoDB (%v), using memory-backed repo", err)
			svc = service.NewMemoryService()
		} else {
			defer func() { _ = client.Disconnect(context.Background()) }()
			svc = service.NewMongoService(client.Database(cfg.MongoDB.Database).Collection(repository.Collection))
			checks["mongo"] = func(ctx context.Context) error { return database.Ping(ctx, client) }
		}
	} else {
		svc = service.NewMemoryService()
	}

	var verifier middleware.Verifier
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, oidc.IssuerURL(cfg.Keycloak.URL, cfg.Keycloak.Realm), cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
			checks["oidc"] = ver.Ping
		}
	}
	if verifier == nil && cfg.JWT.Secret != "" {
		if ver, err := oidc.NewHMACVerifier(cfg.JWT.Secret, cfg.JWT.Issuer); err == nil {
			verifier = ver
		}
	}

	handlers.RegisterHealth(r, checks)
	handler.RegisterDocumentRoutes(r.Group("", middleware.AuthMiddleware(verifier)), svc, nil)

	srv := &http.Server{Addr: ":" + port, Handler: r, ReadTimeout: cfg.Server.ReadTimeout}
	go func() {
		logger.Infof("document service listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
