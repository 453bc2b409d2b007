package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"folio/internal/domain/model"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Formatter struct {
	BaseCurrency string
}

func NewFormatter(baseCurrency string) *Formatter {
	return &Formatter{BaseCurrency: baseCurrency}
}

// Render produces one report block for a portfolio: a header with cash
// and total value, one line per open holding, and the profit summary.
func (f *Formatter) Render(snap *model.Snapshot, pnl *model.PnL) []string {
	lines := make([]string, 0, len(snap.Holdings)+2)

	header := fmt.Sprintf("%s cash=%s total=%s %s",
		colorize("[FOLIO] "+snap.PortfolioID, ansiDim),
		snap.Cash.StringFixed(2), snap.TotalValue.StringFixed(2), f.BaseCurrency)
	if snap.Incomplete {
		header += " " + colorize("(partial: "+strings.Join(snap.Unpriced, ",")+" unpriced)", ansiYellow)
	}
	lines = append(lines, header)

	for _, h := range snap.Holdings {
		value := "--"
		if h.Priced {
			value = h.MarketValue.StringFixed(2)
		}
		lines = append(lines, fmt.Sprintf("  %-8s qty=%s avg=%s value=%s",
			h.Symbol, h.Quantity.String(), h.AvgCost.StringFixed(2), value))
	}

	unrealized := "--"
	if !pnl.Incomplete {
		unrealized = signed(pnl.Unrealized)
	}
	lines = append(lines, fmt.Sprintf("  realized=%s unrealized=%s", signed(pnl.Realized), unrealized))
	return lines
}

func signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	switch d.Sign() {
	case 1:
		return colorize("+"+s, ansiGreen)
	case -1:
		return colorize(s, ansiRed)
	default:
		return colorize(s, ansiYellow)
	}
}
