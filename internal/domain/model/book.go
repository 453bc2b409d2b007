package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the derived holding for one (portfolio, symbol) pair.
// It is a projection of the transaction log, never stored authoritatively.
type Position struct {
	PortfolioID string          `json:"portfolio_id"`
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgCost     decimal.Decimal `json:"avg_cost"` // weighted-average cost per unit
}

// Book is the full derived state of one portfolio: every open position,
// the cash balance, and the realized gain accumulated per symbol. It is
// produced by a single chronological fold over the portfolio's ledger.
type Book struct {
	PortfolioID string
	Positions   map[string]Position        // keyed by symbol
	Cash        decimal.Decimal            // sum of gross minus fees, all types
	Realized    map[string]decimal.Decimal // realized gain per symbol
	AsOf        time.Time                  // executed time of the last folded transaction
}

// NewBook returns an empty derived state for a portfolio.
func NewBook(portfolioID string) *Book {
	return &Book{
		PortfolioID: portfolioID,
		Positions:   make(map[string]Position),
		Realized:    make(map[string]decimal.Decimal),
	}
}

// Open returns the positions with nonzero quantity.
func (b *Book) Open() []Position {
	out := make([]Position, 0, len(b.Positions))
	for _, p := range b.Positions {
		if !p.Quantity.IsZero() {
			out = append(out, p)
		}
	}
	return out
}

// RealizedTotal sums realized gain across all symbols.
func (b *Book) RealizedTotal() decimal.Decimal {
	var total decimal.Decimal
	for _, g := range b.Realized {
		total = total.Add(g)
	}
	return total
}

// Holding is one priced line of a snapshot.
type Holding struct {
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
	MarketValue decimal.Decimal `json:"market_value"`
	Priced      bool            `json:"priced"`
}

// Snapshot is a point-in-time valuation of a portfolio. When any symbol
// could not be priced, Incomplete is true and TotalValue covers only the
// priced holdings plus cash; it is a partial figure, never a silent zero.
type Snapshot struct {
	PortfolioID string          `json:"portfolio_id"`
	At          time.Time       `json:"at"`
	Cash        decimal.Decimal `json:"cash"`
	Holdings    []Holding       `json:"holdings"`
	TotalValue  decimal.Decimal `json:"total_value"`
	Unpriced    []string        `json:"unpriced,omitempty"`
	Incomplete  bool            `json:"incomplete"`
}

// PnL reports realized and unrealized gain for a portfolio, optionally
// narrowed to a single symbol. Unrealized excludes unpriced symbols,
// which are listed and flagged rather than valued at zero.
type PnL struct {
	PortfolioID string          `json:"portfolio_id"`
	Symbol      string          `json:"symbol,omitempty"`
	Realized    decimal.Decimal `json:"realized"`
	Unrealized  decimal.Decimal `json:"unrealized"`
	Unpriced    []string        `json:"unpriced,omitempty"`
	Incomplete  bool            `json:"incomplete"`
}
