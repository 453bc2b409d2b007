package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"folio/internal/application/port"
)

// StaticProvider serves quotes from a fixed table loaded at startup.
type StaticProvider struct {
	quotes map[string]decimal.Decimal
}

func NewStaticProvider(quotes map[string]string) (*StaticProvider, error) {
	parsed := make(map[string]decimal.Decimal, len(quotes))
	for symbol, raw := range quotes {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("static quote %s: %w", symbol, err)
		}
		parsed[symbol] = price
	}
	return &StaticProvider{quotes: parsed}, nil
}

func (p *StaticProvider) Quote(_ context.Context, symbol string) (decimal.Decimal, bool, error) {
	price, ok := p.quotes[symbol]
	return price, ok, nil
}

var _ port.PriceProvider = (*StaticProvider)(nil)
