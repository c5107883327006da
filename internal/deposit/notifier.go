package deposit

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/bolaohub/contest-ledger-poc/pkg/contracts/events"
)

// KafkaNotifier publica DepositCredited no tópico de notificação
type KafkaNotifier struct {
	Writer *kafkago.Writer
}

func NewKafkaNotifier(w *kafkago.Writer) *KafkaNotifier {
	return &KafkaNotifier{Writer: w}
}

func (n *KafkaNotifier) NotifyCredited(ctx context.Context, ev events.DepositCredited) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.Writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(ev.EventID),
		Value: b,
	})
}
