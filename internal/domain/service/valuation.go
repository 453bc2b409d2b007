package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"folio/internal/domain/model"
)

// PriceSource supplies a current price per symbol. The second return is
// false when the source cannot price the symbol; that is not an error.
type PriceSource interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, bool, error)
}

// BuildSnapshot values a folded book with externally supplied prices.
// Symbols the source cannot price are reported in Unpriced and flagged
// via Incomplete; their market value is excluded from TotalValue rather
// than counted as zero.
func BuildSnapshot(ctx context.Context, book *model.Book, at time.Time, prices PriceSource) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		PortfolioID: book.PortfolioID,
		At:          at,
		Cash:        book.Cash,
		TotalValue:  book.Cash,
	}

	for _, pos := range sortedOpen(book) {
		price, ok, err := prices.Quote(ctx, pos.Symbol)
		if err != nil {
			return nil, err
		}
		h := model.Holding{
			Symbol:   pos.Symbol,
			Quantity: pos.Quantity,
			AvgCost:  pos.AvgCost,
			Priced:   ok,
		}
		if ok {
			h.MarketValue = pos.Quantity.Mul(price)
			snap.TotalValue = snap.TotalValue.Add(h.MarketValue)
		} else {
			snap.Unpriced = append(snap.Unpriced, pos.Symbol)
			snap.Incomplete = true
		}
		snap.Holdings = append(snap.Holdings, h)
	}

	return snap, nil
}

// ComputePnL reports realized gain (accumulated during the fold) and
// unrealized gain (mark-to-market against average cost) for a portfolio,
// optionally narrowed to one symbol. Unpriced symbols make the result a
// flagged partial, never a silent zero.
func ComputePnL(ctx context.Context, book *model.Book, symbol string, prices PriceSource) (*model.PnL, error) {
	pnl := &model.PnL{PortfolioID: book.PortfolioID, Symbol: symbol}

	for sym, gain := range book.Realized {
		if symbol != "" && sym != symbol {
			continue
		}
		pnl.Realized = pnl.Realized.Add(gain)
	}

	for _, pos := range sortedOpen(book) {
		if symbol != "" && pos.Symbol != symbol {
			continue
		}
		price, ok, err := prices.Quote(ctx, pos.Symbol)
		if err != nil {
			return nil, err
		}
		if !ok {
			pnl.Unpriced = append(pnl.Unpriced, pos.Symbol)
			pnl.Incomplete = true
			continue
		}
		pnl.Unrealized = pnl.Unrealized.Add(price.Sub(pos.AvgCost).Mul(pos.Quantity))
	}

	return pnl, nil
}

// sortedOpen returns the open positions in symbol order so that derived
// results are deterministic across recomputations.
func sortedOpen(book *model.Book) []model.Position {
	open := book.Open()
	sort.Slice(open, func(i, j int) bool { return open[i].Symbol < open[j].Symbol })
	return open
}
