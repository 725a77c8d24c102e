package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"wikicore/internal/cache"
	"wikicore/internal/config"
	"wikicore/internal/repository/postgres"
	pgwiki "wikicore/internal/repository/postgres/wiki"
	"wikicore/internal/seed"
	serviceWiki "wikicore/internal/service/wiki"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed pages")
	filler := flag.Int("filler", 0, "Number of lorem ipsum pages to add")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := postgres.DropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.RunSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	store := pgwiki.NewStore(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})

	// Pages go through the engine so revisions and edit counts are recorded
	engine := serviceWiki.NewEngine(
		store,
		cache.New(cache.WithLogger(logger)),
		serviceWiki.NewPermissionResolver(serviceWiki.ResolverConfig{
			OwnablePrefixes:         cfg.OwnableTitlePrefixes,
			PersonalNamespacePrefix: cfg.PersonalNamespacePrefix,
		}),
		serviceWiki.Config{},
		logger,
	)
	defer engine.Close()

	seeder := seed.NewSeeder(store, engine, logger)

	if err := seeder.SeedActors(ctx, seed.DefaultActors); err != nil {
		log.Fatalf("Failed to seed actors: %v", err)
	}

	log.Println("📝 Seeding pages...")
	count, err := seeder.SeedPages(ctx)
	if err != nil {
		log.Fatalf("Failed to seed pages: %v", err)
	}
	log.Printf("✅ Seeded %d pages", count)

	if *filler > 0 {
		if err := seeder.SeedFiller(ctx, *filler, "bob"); err != nil {
			log.Fatalf("Failed to seed filler pages: %v", err)
		}
		log.Printf("✅ Seeded %d filler pages", *filler)
	}

	log.Println("🎉 Seeding complete!")
}
