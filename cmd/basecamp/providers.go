package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/basecamp/internal/config"
	"github.com/cory-johannsen/basecamp/internal/expedition"
	"github.com/cory-johannsen/basecamp/internal/game/biome"
	"github.com/cory-johannsen/basecamp/internal/game/combat"
	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/dice"
	"github.com/cory-johannsen/basecamp/internal/game/event"
	"github.com/cory-johannsen/basecamp/internal/game/ledger"
	"github.com/cory-johannsen/basecamp/internal/game/loot"
	"github.com/cory-johannsen/basecamp/internal/httpapi"
	"github.com/cory-johannsen/basecamp/internal/observability"
	"github.com/cory-johannsen/basecamp/internal/server"
	"github.com/cory-johannsen/basecamp/internal/storage/memory"
	"github.com/cory-johannsen/basecamp/internal/storage/postgres"
)

const (
	shutdownTimeout = 15 * time.Second
	readyTimeout    = 2 * time.Second
)

// providerSet lists every constructor the injector in wire.go draws from.
var providerSet = wire.NewSet(
	provideCatalogs,
	provideSource,
	provideResolver,
	provideEngine,
	observability.NewMetrics,
	wire.Bind(new(expedition.Recorder), new(*observability.Metrics)),
	provideBackend,
	provideStore,
	provideService,
	provideRouter,
	provideHealth,
	provideLifecycle,
	provideApp,
)

// app is the fully wired process.
type app struct {
	lifecycle *server.Lifecycle
	health    *server.HealthService
}

func provideApp(lifecycle *server.Lifecycle, health *server.HealthService) *app {
	return &app{lifecycle: lifecycle, health: health}
}

// backend is the selected store plus its readiness check.
type backend struct {
	store expedition.Store
	// ready is nil for stores that cannot become unavailable.
	ready func() error
}

// provideCatalogs loads species, items and biomes from the configured
// content directories and cross-checks biome references.
func provideCatalogs(cfg config.Config, logger *zap.Logger) (expedition.Catalogs, error) {
	contentStart := time.Now()

	species, err := creature.LoadSpecies(cfg.Expedition.SpeciesDir)
	if err != nil {
		return expedition.Catalogs{}, fmt.Errorf("loading species: %w", err)
	}
	speciesReg, err := creature.NewRegistry(species)
	if err != nil {
		return expedition.Catalogs{}, fmt.Errorf("building species registry: %w", err)
	}

	items, err := loot.LoadItems(cfg.Expedition.ItemsDir)
	if err != nil {
		return expedition.Catalogs{}, fmt.Errorf("loading items: %w", err)
	}
	itemCatalog, err := loot.NewCatalog(items)
	if err != nil {
		return expedition.Catalogs{}, fmt.Errorf("building item catalog: %w", err)
	}

	biomes, err := biome.LoadBiomes(cfg.Expedition.BiomesDir)
	if err != nil {
		return expedition.Catalogs{}, fmt.Errorf("loading biomes: %w", err)
	}
	biomeCatalog, err := biome.NewCatalog(biomes)
	if err != nil {
		return expedition.Catalogs{}, fmt.Errorf("building biome catalog: %w", err)
	}
	hasSpecies := func(id string) bool { _, ok := speciesReg.Get(id); return ok }
	hasItem := func(id string) bool { _, ok := itemCatalog.Get(id); return ok }
	if err := biomeCatalog.CheckReferences(hasSpecies, hasItem); err != nil {
		return expedition.Catalogs{}, err
	}

	logger.Info("content loaded",
		zap.Int("species", len(species)),
		zap.Int("items", len(items)),
		zap.Int("biomes", biomeCatalog.Len()),
		zap.Duration("elapsed", time.Since(contentStart)),
	)
	return expedition.Catalogs{Biomes: biomeCatalog, Species: speciesReg, Items: itemCatalog}, nil
}

// provideSource returns the process-wide dice source wrapped in a debug-logging roller.
func provideSource(cfg config.Config, logger *zap.Logger) dice.Source {
	var base dice.Source
	switch cfg.Expedition.RandomSource {
	case "seeded":
		logger.Warn("using seeded random source", zap.Uint64("seed", cfg.Expedition.Seed))
		base = dice.NewSeededSource(cfg.Expedition.Seed)
	default:
		base = dice.NewCryptoSource()
	}
	return dice.NewLoggedRoller(base, logger)
}

func provideResolver(cfg config.Config, catalogs expedition.Catalogs) (*event.Resolver, error) {
	weights := make([]loot.RarityWeight, 0, len(cfg.Expedition.RarityWeights))
	for _, w := range cfg.Expedition.RarityWeights {
		weights = append(weights, loot.RarityWeight{Rarity: loot.Rarity(w.Rarity), Weight: w.Weight})
	}
	return event.NewResolver(event.Config{
		JitterMin:     cfg.Expedition.JitterMin,
		JitterMax:     cfg.Expedition.JitterMax,
		MaxWildLevel:  cfg.Expedition.MaxWildLevel,
		RarityWeights: weights,
	}, catalogs.Species, catalogs.Items)
}

func provideEngine(src dice.Source, logger *zap.Logger) *combat.Engine {
	return combat.NewEngine(src, logger)
}

// provideBackend opens the store selected by server.mode.
//
// Postcondition: The returned cleanup closes any database pool that was opened.
func provideBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, func(), error) {
	if cfg.Server.Mode != "postgres" {
		logger.Info("using in-memory store")
		return &backend{store: memory.NewStore()}, func() {}, nil
	}

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	b := &backend{
		store: postgres.NewStore(pool.DB()),
		ready: func() error { return pool.Health(context.Background(), readyTimeout) },
	}
	return b, pool.Close, nil
}

func provideStore(b *backend) expedition.Store {
	return b.store
}

func provideService(
	cfg config.Config,
	store expedition.Store,
	catalogs expedition.Catalogs,
	resolver *event.Resolver,
	engine *combat.Engine,
	src dice.Source,
	metrics expedition.Recorder,
	logger *zap.Logger,
) (*expedition.Service, error) {
	var thresholds ledger.Thresholds
	copy(thresholds[:], cfg.Expedition.Thresholds)
	return expedition.NewService(expedition.Config{
		Thresholds:     thresholds,
		StarterSpecies: cfg.Expedition.StarterSpecies,
	}, store, catalogs, resolver, engine, src, metrics, logger)
}

func provideRouter(cfg config.Config, svc *expedition.Service, metrics *observability.Metrics, b *backend, logger *zap.Logger) *gin.Engine {
	gin.SetMode(cfg.HTTP.GinMode)
	return httpapi.NewRouter(svc, logger, httpapi.Options{
		Metrics:  metrics.Handler(),
		Observer: metrics,
		Ready:    b.ready,
	})
}

func provideHealth(cfg config.Config) *server.HealthService {
	return server.NewHealthService(cfg.GRPC.Addr())
}

// provideLifecycle registers the HTTP API and the gRPC health endpoint.
func provideLifecycle(cfg config.Config, router *gin.Engine, health *server.HealthService, logger *zap.Logger) *server.Lifecycle {
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	lifecycle := server.NewLifecycle(logger, shutdownTimeout)
	lifecycle.Add("http", server.NewHTTPService(srv))
	lifecycle.Add("grpc-health", health)
	return lifecycle
}
