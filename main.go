package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	navigatorx "github.com/tanpawarit/Community-Resource-Navigator/agent/agents/navigator"
	orchestratorx "github.com/tanpawarit/Community-Resource-Navigator/agent/agents/orchestrator"
	catalogx "github.com/tanpawarit/Community-Resource-Navigator/agent/catalog"
	historyx "github.com/tanpawarit/Community-Resource-Navigator/agent/history"
	llmx "github.com/tanpawarit/Community-Resource-Navigator/agent/llm"
	promptx "github.com/tanpawarit/Community-Resource-Navigator/agent/prompt"
	sessionx "github.com/tanpawarit/Community-Resource-Navigator/agent/session"
	toolx "github.com/tanpawarit/Community-Resource-Navigator/agent/tool"
	configx "github.com/tanpawarit/Community-Resource-Navigator/pkg/config"
	_ "github.com/tanpawarit/Community-Resource-Navigator/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/Community-Resource-Navigator/pkg/openrouter"
	postgresx "github.com/tanpawarit/Community-Resource-Navigator/pkg/postgres"
)

const (
	driverMemory   = "memory"
	driverPostgres = "postgres"
	driverUpstash  = "upstash"
)

type AppConfig struct {
	CatalogDriver  string `envconfig:"CATALOG_DRIVER" default:"memory"`
	CatalogSeed    bool   `envconfig:"CATALOG_SEED" default:"true"`
	LogStoreDriver string `envconfig:"LOG_STORE_DRIVER" default:"memory"`
	UserID         string `envconfig:"USER_ID" default:"local-user"`
	Location       string `envconfig:"USER_LOCATION"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("navigator exited")
	}
}

func run(ctx context.Context) error {
	appCfg := configx.MustNew[AppConfig]("")
	if err := configx.OneOf("CATALOG_DRIVER", appCfg.CatalogDriver, driverMemory, driverPostgres); err != nil {
		return err
	}
	if err := configx.OneOf("LOG_STORE_DRIVER", appCfg.LogStoreDriver, driverMemory, driverPostgres, driverUpstash); err != nil {
		return err
	}

	llmCfg := configx.MustNew[llmx.Config]("LLM")
	if err := llmCfg.Validate(); err != nil {
		return err
	}
	orCfg := llmCfg.OpenRouter()
	if llmCfg.VerifyModel {
		if err := openrouterx.VerifyModel(ctx, orCfg); err != nil {
			return err
		}
	}
	chatModel, err := orCfg.New(ctx)
	if err != nil {
		return err
	}

	var db *bun.DB
	if strings.EqualFold(appCfg.CatalogDriver, driverPostgres) || strings.EqualFold(appCfg.LogStoreDriver, driverPostgres) {
		dbCfg := configx.MustNew[postgresx.Config]("DATABASE")
		db, err = postgresx.Open(ctx, *dbCfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if dbCfg.AutoMigrate {
			if err := postgresx.Migrate(ctx, db); err != nil {
				return err
			}
		}
	}

	catalog, err := openCatalog(ctx, appCfg, db)
	if err != nil {
		return err
	}
	convLog, err := openLog(appCfg, db)
	if err != nil {
		return err
	}

	navCfg := configx.MustNew[orchestratorx.Config]("NAVIGATOR")
	registry := toolx.NewRegistry(catalog)
	agent, err := navigatorx.New(ctx, chatModel, registry, promptx.LoadPromptSet().Navigator,
		navigatorx.WithMaxIterations(navCfg.MaxIterations))
	if err != nil {
		return err
	}
	orch, err := orchestratorx.New(catalog, convLog, agent, *navCfg)
	if err != nil {
		return err
	}

	log.Info().
		Str("catalog", appCfg.CatalogDriver).
		Str("log_store", appCfg.LogStoreDriver).
		Str("model", orCfg.Model).
		Msg("navigator ready")

	return sessionx.Run(ctx, orch, sessionx.Options{UserID: appCfg.UserID, Location: appCfg.Location}, os.Stdin, os.Stdout)
}

func openCatalog(ctx context.Context, cfg *AppConfig, db *bun.DB) (catalogx.Admin, error) {
	var store catalogx.Admin
	if strings.EqualFold(cfg.CatalogDriver, driverPostgres) {
		store = catalogx.NewPostgresStore(db)
	} else {
		mem, err := catalogx.NewMemoryStore()
		if err != nil {
			return nil, err
		}
		store = mem
	}
	if cfg.CatalogSeed {
		n, err := catalogx.SeedIfEmpty(ctx, store)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			log.Info().Int("count", n).Msg("catalog seeded")
		}
	}
	return store, nil
}

func openLog(cfg *AppConfig, db *bun.DB) (historyx.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LogStoreDriver)) {
	case driverPostgres:
		return historyx.NewPostgresLog(db), nil
	case driverUpstash:
		redisCfg := configx.MustNew[historyx.UpstashRedisConfig]("UPSTASH_REDIS")
		return historyx.NewUpstashLog(*redisCfg)
	default:
		return historyx.NewMemoryLog(), nil
	}
}
