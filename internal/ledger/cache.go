package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// BalanceCache guarda a leitura dos buckets no Redis com TTL curto.
// Mutação de carteira sempre invalida a chave; cache é só pro caminho de leitura.
type BalanceCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewBalanceCache(c *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{Client: c, TTL: ttl}
}

// key gera a chave Redis dos saldos de um usuário
func key(userID string) string { return "balances:" + userID }

func (c *BalanceCache) Get(ctx context.Context, userID string) (Balances, bool) {
	raw, err := c.Client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		return Balances{}, false
	}
	var b Balances
	if err := json.Unmarshal(raw, &b); err != nil {
		return Balances{}, false
	}
	return b, true
}

func (c *BalanceCache) Set(ctx context.Context, userID string, b Balances) {
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	_ = c.Client.Set(ctx, key(userID), raw, c.TTL).Err()
}

func (c *BalanceCache) Invalidate(ctx context.Context, userID string) {
	_ = c.Client.Del(ctx, key(userID)).Err()
}
