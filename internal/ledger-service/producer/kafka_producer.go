package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bolaohub/contest-ledger-poc/pkg/contracts/events"
)

// KafkaPublisher publica eventos de saque aprovado pro executor externo
type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) PublishWithdrawalApproved(ctx context.Context, e events.WithdrawalApproved) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.RequestID), Value: b})
}
