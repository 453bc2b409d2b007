package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"folio/internal/application/port"
)

// RedisProvider reads reference prices from a redis hash. Quotes are
// written by an external feeder; a missing field means the symbol is
// simply unpriced, not an error.
type RedisProvider struct {
	rdb       *redis.Client
	keyQuotes string // prefix + ":quotes"
	ttl       time.Duration
}

func NewRedisProvider(rdb *redis.Client, prefix string, ttl time.Duration) *RedisProvider {
	return &RedisProvider{
		rdb:       rdb,
		keyQuotes: prefix + ":quotes",
		ttl:       ttl,
	}
}

func (p *RedisProvider) Quote(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	raw, err := p.rdb.HGet(ctx, p.keyQuotes, symbol).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	return price, true, nil
}

// SetQuote upserts one quote, refreshing the hash TTL.
func (p *RedisProvider) SetQuote(ctx context.Context, symbol string, price decimal.Decimal) error {
	pipe := p.rdb.Pipeline()
	pipe.HSet(ctx, p.keyQuotes, symbol, price.String())
	if p.ttl > 0 {
		pipe.Expire(ctx, p.keyQuotes, p.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

var _ port.PriceProvider = (*RedisProvider)(nil)
