package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"calengine/adapters/api"
	"calengine/adapters/excel"
	"calengine/adapters/postgres"
	"calengine/app"
	"calengine/domain/certificate"
	"calengine/internal"
	"calengine/internal/config"
	"calengine/internal/registry"
	"calengine/ports"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration rejected: %v", err)
	}

	snap, err := buildSnapshot(cfg, logger)
	if err != nil {
		// Configuration errors block startup for the whole set.
		log.Fatalf("configuration set rejected: %v", err)
	}
	logger.Info("configuration snapshot frozen (version=%s hash=%s)", snap.Version(), snap.ConfigHash())

	service, err := app.NewCalibrationService(snap, certificate.NewBuilder(), []byte(cfg.Engine.SealingSecret), logger)
	if err != nil {
		log.Fatalf("service init failed: %v", err)
	}

	var certRepo ports.CertificateRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("failed to connect to certificate store: %v", err)
		}
		repo := postgres.NewCertificateRepository(db).(*postgres.CertificateRepositoryImpl)
		if err := repo.Migrate(context.Background()); err != nil {
			log.Fatalf("certificate store migration failed: %v", err)
		}
		certRepo = repo
	}

	server := api.NewServer(service, certRepo, logger)
	if err := server.ListenAndServe(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// buildSnapshot loads the JSON configuration set, overlays the workbook
// declarations when configured, and freezes the snapshot.
func buildSnapshot(cfg *config.Config, logger *internal.Logger) (*registry.Snapshot, error) {
	set, err := config.LoadConfigurationSet(cfg.Engine.ConfigSetPath)
	if err != nil {
		return nil, err
	}

	if cfg.Engine.CompatXLSXPath != "" {
		reader := excel.NewCompatibilityReader(cfg.Engine.CompatXLSXPath)
		decls, err := reader.LoadDeclarations(context.Background())
		if err != nil {
			return nil, err
		}
		logger.Info("loaded compatibility declarations for %d methods from workbook", len(decls))
		set = config.MergeDeclarations(set, decls)
	}

	return registry.NewSnapshot(set)
}
