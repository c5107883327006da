package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bolaohub/contest-ledger-poc/internal/contest"
	"github.com/bolaohub/contest-ledger-poc/internal/deposit"
	"github.com/bolaohub/contest-ledger-poc/internal/ledger"
	lhttp "github.com/bolaohub/contest-ledger-poc/internal/ledger-service/http"
	"github.com/bolaohub/contest-ledger-poc/internal/ledger-service/producer"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/cache"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/config"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/db"
	skafka "github.com/bolaohub/contest-ledger-poc/internal/shared/kafka"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/logger"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/metrics"
	"github.com/bolaohub/contest-ledger-poc/internal/withdrawal"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("ledger-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "ledger-service"), zap.String("env", cfg.Env))

	// Conexão com Postgres (único dono do estado do ledger)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: cache de leitura dos saldos
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}

	// Kafka writers: saque aprovado (executor externo) e notificação de
	// depósito creditado (usada pelo endpoint de reconciliação)
	wdWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWithdrawalApproved)
	defer wdWriter.Close()
	depWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicDepositCredited)
	defer depWriter.Close()

	// Monta o core: primitive do ledger, engines e workflow
	balCache := ledger.NewBalanceCache(rdb, 30*time.Second)
	led := ledger.New(pg, balCache, cfg.Currency, time.Duration(cfg.LockTimeoutMs)*time.Millisecond)
	eng := contest.NewEngine(log, led)
	wf := withdrawal.NewWorkflow(led)
	dep := deposit.NewService(log, led, deposit.NewKafkaNotifier(depWriter), cfg.MinConfirmations)

	api := lhttp.NewServer(log, led, eng, wf, dep, producer.NewKafkaPublisher(wdWriter))
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8082
		Handler: api.Router(),
	}

	// Servidor de métricas e health check (goroutine própria)
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
