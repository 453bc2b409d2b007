package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceProvider supplies current prices per symbol. A symbol the
// provider cannot price returns ok=false; derivations treat that as a
// flagged partial result, not an error and not a zero.
type PriceProvider interface {
	Quote(ctx context.Context, symbol string) (price decimal.Decimal, ok bool, err error)
}
