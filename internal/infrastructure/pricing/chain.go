package pricing

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"folio/internal/application/port"
)

// Chain asks each provider in order and returns the first quote found.
// A provider error is logged and skipped so a flaky cache never hides a
// quote the next provider has.
type Chain struct {
	providers []port.PriceProvider
}

func NewChain(providers ...port.PriceProvider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Quote(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	for _, p := range c.providers {
		price, ok, err := p.Quote(ctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("price provider failed, trying next")
			continue
		}
		if ok {
			return price, true, nil
		}
	}
	return decimal.Zero, false, nil
}

var _ port.PriceProvider = (*Chain)(nil)
