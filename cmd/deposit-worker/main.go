package main

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/bolaohub/contest-ledger-poc/internal/deposit"
	"github.com/bolaohub/contest-ledger-poc/internal/ledger"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/cache"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/config"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/db"
	skafka "github.com/bolaohub/contest-ledger-poc/internal/shared/kafka"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/logger"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/metrics"
	ev "github.com/bolaohub/contest-ledger-poc/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("deposit-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Conexão com banco de dados Postgres (mutações do ledger)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: invalidação do cache de saldos após crédito
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}

	// Kafka consumer: consome eventos de depósito confirmados pelo provedor
	reader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicDepositEvents, "deposit-worker")
	defer reader.Close()

	// Kafka producers: notificação de crédito e DLQ
	creditedWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicDepositCredited)
	defer creditedWriter.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicDepositEventsDLQ != "" {
		dlqWriter = skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicDepositEventsDLQ)
		defer dlqWriter.Close()
	}

	balCache := ledger.NewBalanceCache(rdb, 30*time.Second)
	led := ledger.New(pg, balCache, cfg.Currency, time.Duration(cfg.LockTimeoutMs)*time.Millisecond)
	svc := deposit.NewService(log, led, deposit.NewKafkaNotifier(creditedWriter), cfg.MinConfirmations)

	// Servidor HTTP para métricas Prometheus e healthcheck
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("deposit-worker started", zap.String("consume", cfg.TopicDepositEvents))

	ctx := context.Background()

	// Loop principal: consome eventos, credita via gate de idempotência.
	// Redelivery é esperada; o gate garante no máximo um crédito por evento.
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		var devt ev.DepositEvent
		if jerr := json.Unmarshal(msg.Value, &devt); jerr != nil {
			log.Error("unmarshal deposit_event", zap.Error(jerr))
			continue
		}

		if err := processOne(ctx, log, svc, dlqWriter, &devt); err != nil {
			log.Error("process deposit", zap.String("eventId", devt.EventID), zap.Error(err))
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// processOne credita um evento com retry; erro persistente vai pra DLQ.
// Resultados de negócio (replay, unmatched, abaixo do threshold) não são
// erro: já foram registrados/logados pelo serviço.
func processOne(ctx context.Context, log *zap.Logger, svc *deposit.Service, dlqWriter *kafkago.Writer, devt *ev.DepositEvent) error {
	res, err := svc.Credit(ctx, *devt)
	if err != nil {
		const retries = 3
		for i := 0; i < retries; i++ {
			time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
			if res, err = svc.Credit(ctx, *devt); err == nil {
				break
			}
		}
		if err != nil {
			if dlqWriter != nil {
				_ = skafka.WriteJSON(ctx, dlqWriter, devt.EventID, mustJSON(devt))
			}
			return err
		}
	}

	if res.OK {
		log.Info("deposit credited", zap.String("eventId", devt.EventID), zap.String("amount", devt.Amount))
	}
	return nil
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
