package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/medtravel/offer-service/internal/db"
	"github.com/medtravel/offer-service/internal/handlers"
	"github.com/medtravel/offer-service/internal/repository"
	"github.com/medtravel/offer-service/internal/router"
	"github.com/medtravel/offer-service/internal/router/config"
	"github.com/medtravel/offer-service/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("error initializing logger: %v", err)
	}
	defer logger.Sync()

	runDBMigration(cfg.MigrationURL, cfg.PostgresConn)

	dbPool, err := db.InitDb(cfg)
	if err != nil {
		logger.Fatal("error initializing database", zap.Error(err))
	}
	defer dbPool.Close()

	ruleCache := initRuleCache(cfg, logger)

	requestRepo := repository.NewPostgresRequestRepository(dbPool)
	ruleRepo := repository.NewPostgresRuleRepository(dbPool)
	offerRepo := repository.NewPostgresOfferRepository(dbPool)
	accountRepo := repository.NewPostgresAccountRepository(dbPool)

	requestService := services.NewRequestService(requestRepo, ruleRepo, offerRepo, accountRepo, ruleCache, logger)
	offerService := services.NewOfferService(requestRepo, offerRepo, accountRepo, logger)

	requestHandler := handlers.NewRequestHandler(requestService, logger, 5*time.Second)
	offerHandler := handlers.NewOfferHandler(offerService, logger, 5*time.Second)

	routes := router.InitRoutes(requestHandler, offerHandler)

	logger.Info("server is listening", zap.String("address", cfg.ServerAddress))
	if err := http.ListenAndServe(cfg.ServerAddress, routes); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// initRuleCache connects to redis when an address is configured. The cache
// is advisory, so a missing or unreachable redis only disables caching.
func initRuleCache(cfg config.Config, logger *zap.Logger) services.RuleCache {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rule caching disabled", zap.Error(err))
		return nil
	}

	ttl := cfg.RuleCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return services.NewRedisRuleCache(client, ttl)
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}
