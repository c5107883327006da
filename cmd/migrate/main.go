package main

import (
	"go.uber.org/zap"

	"github.com/bolaohub/contest-ledger-poc/internal/persistence"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/config"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/db"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("migrate", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	if err := persistence.Apply(pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	log.Info("schema applied")
}
