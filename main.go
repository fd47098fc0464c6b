package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/taskhub/api/audit"
	"github.com/dev-mohitbeniwal/taskhub/api/config"
	"github.com/dev-mohitbeniwal/taskhub/api/controller"
	"github.com/dev-mohitbeniwal/taskhub/api/dao"
	"github.com/dev-mohitbeniwal/taskhub/api/db"
	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/middleware"
	pdp_dao "github.com/dev-mohitbeniwal/taskhub/api/pdp/dao"
	"github.com/dev-mohitbeniwal/taskhub/api/pdp/engine"
	"github.com/dev-mohitbeniwal/taskhub/api/router"
	"github.com/dev-mohitbeniwal/taskhub/api/service"
	"github.com/dev-mohitbeniwal/taskhub/api/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	if config.GetString("auth.jwtSecret") == "" {
		logger.Fatal("auth.jwtSecret must be set")
	}

	// Initialize Neo4j
	if err := db.InitNeo4j(); err != nil {
		logger.Fatal("Failed to initialize Neo4j", zap.Error(err))
	}
	defer db.CloseNeo4j()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	redisCache, err := db.NewRedisCache(
		db.RedisClient,
		[]byte(config.GetString("redis.encryptionKey")),
		config.GetDuration("redis.defaultCacheTTL"),
	)
	if err != nil {
		logger.Fatal("Failed to initialize Redis cache", zap.Error(err))
	}

	// Audit trail
	auditRepository, err := audit.NewElasticsearchRepository(
		config.GetString("elasticsearch.url"),
		config.GetString("elasticsearch.auditIndex"),
	)
	if err != nil {
		logger.Fatal("Failed to initialize audit repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)
	audit.SubscribePolicyChanges(eventBus, auditService)

	// Initialize DAOs
	policyDAO := dao.NewPolicyDAO(db.Neo4jDriver)
	userDAO := dao.NewUserDAO(db.Neo4jDriver)
	if err := policyDAO.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to create policy constraints", zap.Error(err))
	}
	if err := userDAO.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to create user constraints", zap.Error(err))
	}

	// Initialize services
	services := service.InitializeServices(
		policyDAO,
		userDAO,
		util.NewValidationUtil(),
		util.NewCacheService(redisCache),
		eventBus,
	)

	// Policy decision point
	var policyStore engine.PolicyStore = pdp_dao.NewPolicyRetrievalDAO(db.Neo4jDriver, config.GetDuration("neo4j.queryTimeout"))
	if config.GetBool("pdp.cacheEnabled") {
		policyStore = pdp_dao.NewCachedPolicyStore(policyStore, redisCache)
	}
	decisionPoint := engine.NewDecisionPoint(policyStore, engine.NewPolicyEvaluator())

	authenticator := middleware.NewAuthenticator(
		[]byte(config.GetString("auth.jwtSecret")),
		config.GetString("auth.issuer"),
		services.User,
	)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	r := router.SetupRouter(
		controller.InitializeControllers(services, decisionPoint, auditService),
		authenticator,
		middleware.NewABAC(decisionPoint, auditService),
		router.RateLimit{
			Store:    redisCache,
			Requests: config.GetInt("ratelimit.requests"),
			Window:   config.GetDuration("ratelimit.window"),
		},
	)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: r,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight audit writes finish before the stores close.
	eventBus.Wait()

	logger.Info("Server exiting")
}
