package di

import (
	"fmt"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/database"
)

// InitializeDatabases opens and migrates portfolio.db and cache.db.
func InitializeDatabases(cfg *config.Config, container *Container) error {
	portfolioDB, err := database.New(database.Config{
		Path:    cfg.PortfolioDBPath(),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize portfolio database: %w", err)
	}
	container.PortfolioDB = portfolioDB

	cacheDB, err := database.New(database.Config{
		Path:    cfg.CacheDBPath(),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		portfolioDB.Close()
		return fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	for _, db := range []*database.DB{portfolioDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			portfolioDB.Close()
			cacheDB.Close()
			return fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	return nil
}
