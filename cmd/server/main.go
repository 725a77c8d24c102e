package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"wikicore/internal/auth"
	"wikicore/internal/cache"
	"wikicore/internal/config"
	wikiRepo "wikicore/internal/domain/repositories/wiki"
	wikiSvc "wikicore/internal/domain/services/wiki"
	"wikicore/internal/handler"
	"wikicore/internal/middleware"
	"wikicore/internal/repository/memory"
	"wikicore/internal/repository/postgres"
	pgwiki "wikicore/internal/repository/postgres/wiki"
	serviceAuth "wikicore/internal/service/auth"
	serviceWiki "wikicore/internal/service/wiki"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store", cfg.StoreDriver,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	// Cache
	policy, err := config.LoadCachePolicy(cfg.CachePolicyFile)
	if err != nil {
		log.Fatalf("Failed to load cache policy: %v", err)
	}
	wikiCache, closeCache, err := openCache(ctx, cfg, policy, logger)
	if err != nil {
		log.Fatalf("Failed to setup cache: %v", err)
	}
	defer closeCache()

	// Permissions
	resolverCfg := serviceWiki.ResolverConfig{
		OwnablePrefixes:         cfg.OwnableTitlePrefixes,
		PersonalNamespacePrefix: cfg.PersonalNamespacePrefix,
		Ownership:               serviceWiki.AllowAllOwnership,
	}
	if cfg.OwnershipFile != "" {
		directory, err := serviceAuth.LoadOwnershipFile(cfg.OwnershipFile, logger)
		if err != nil {
			log.Fatalf("Failed to load ownership file: %v", err)
		}
		resolverCfg.Ownership = directory.Owns
	} else {
		logger.Warn("no OWNERSHIP_FILE configured, every ownership claim is approved")
	}

	engine := serviceWiki.NewEngine(
		store,
		wikiCache,
		serviceWiki.NewPermissionResolver(resolverCfg),
		serviceWiki.Config{
			Policy:            policy,
			ViewFlushInterval: cfg.ViewFlushInterval,
		},
		logger,
	)
	defer engine.Close()

	// Authentication
	var verifier auth.JWTVerifier
	if cfg.JWKSURL != "" {
		v, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer v.Close()
		verifier = v
	} else {
		if cfg.Environment == "prod" {
			log.Fatalf("JWKS_URL is required in production")
		}
		logger.Warn("DEV MODE: no JWKS_URL, trusting the " + middleware.DevActorHeader + " header (NEVER use in production!)")
	}

	logger.Info("services initialized")

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      buildHandler(cfg, engine, verifier, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildHandler registers routes and wraps them in the middleware chain
func buildHandler(cfg *config.Config, engine wikiSvc.Engine, verifier auth.JWTVerifier, logger *slog.Logger) http.Handler {
	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.NewWikiHandler(engine, logger).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestID → Metrics → Auth → Routes
	var h http.Handler = mux
	h = middleware.AuthMiddleware(verifier, logger)(h)
	h = middleware.Metrics(mux)(h)
	h = middleware.RequestID(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader, middleware.DevActorHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	return corsHandler.Handler(h)
}

// openStore connects the configured store driver
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (wikiRepo.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	case "postgres":
	default:
		return nil, nil, errors.New("unknown STORE_DRIVER " + cfg.StoreDriver)
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.RunSchema(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, nil, err
	}

	logger.Info("database connected",
		"max_conns", pool.Config().MaxConns,
		"min_conns", pool.Config().MinConns,
	)

	store := pgwiki.NewStore(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})
	return store, pool.Close, nil
}

// openCache builds the two-tier cache with the configured slow tier
func openCache(ctx context.Context, cfg *config.Config, policy *config.CachePolicy, logger *slog.Logger) (*cache.Cache, func(), error) {
	options := []cache.Option{
		cache.WithLogger(logger),
		cache.WithSlowValidity(policy.SlowTierValidity),
	}
	closeFn := func() {}

	switch cfg.CacheSlowTier {
	case "sqlite":
		tier, err := cache.NewSQLiteTier(ctx, cfg.CacheSQLitePath, cfg.CacheSlowTierMaxEntries)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, cache.WithSlowTier(tier))
		closeFn = func() {
			if err := tier.Close(); err != nil {
				logger.Warn("close slow cache tier", "error", err)
			}
		}
	case "memory":
		options = append(options, cache.WithSlowTier(cache.NewMemoryTier(cfg.CacheSlowTierMaxEntries)))
	case "none", "":
	default:
		return nil, nil, errors.New("unknown CACHE_SLOW_TIER " + cfg.CacheSlowTier)
	}

	logger.Info("cache initialized", "slow_tier", cfg.CacheSlowTier)
	return cache.New(options...), closeFn, nil
}
