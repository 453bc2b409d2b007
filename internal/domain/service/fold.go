package service

import (
	"github.com/shopspring/decimal"

	"folio/internal/domain/model"
)

// FoldBook replays a portfolio's ledger, ordered by executed time with
// the store seq as tie-break, into its derived state: open positions at
// weighted-average cost, the cash balance, and realized gain per symbol.
//
// The fold is a pure left-to-right reduction. Replaying the same log
// always reproduces the same Book, and the input is never mutated.
// Realized gain must be accumulated here rather than recovered from the
// final state: the average cost at the moment of each sale is consumed
// by later acquisitions.
func FoldBook(portfolioID string, txs []model.Transaction) (*model.Book, error) {
	book := model.NewBook(portfolioID)

	for i, tx := range txs {
		if i > 0 && tx.Before(txs[i-1]) {
			return nil, &FoldError{
				Fault:       FaultNonChronologicalReplay,
				PortfolioID: portfolioID,
				Seq:         tx.Seq,
				Detail:      "ledger replay is not in (executed_at, seq) order",
			}
		}

		// Cash effect is type-agnostic: gross minus fee, always.
		book.Cash = book.Cash.Add(tx.Gross).Sub(tx.Fee)

		switch tx.Type {
		case model.TypeBuy:
			pos := book.Positions[tx.Symbol]
			pos.PortfolioID = portfolioID
			pos.Symbol = tx.Symbol
			newQty := pos.Quantity.Add(tx.Quantity)
			if newQty.IsPositive() {
				totalCost := pos.Quantity.Mul(pos.AvgCost).Add(tx.Quantity.Mul(tx.Price))
				pos.AvgCost = totalCost.Div(newQty)
			} else {
				pos.AvgCost = decimal.Zero
			}
			pos.Quantity = newQty
			book.Positions[tx.Symbol] = pos

		case model.TypeSell:
			pos := book.Positions[tx.Symbol]
			if pos.Quantity.LessThan(tx.Quantity) {
				return nil, &FoldError{
					Fault:       FaultInsufficientQuantity,
					PortfolioID: portfolioID,
					Symbol:      tx.Symbol,
					Seq:         tx.Seq,
					Detail:      "sell of " + tx.Quantity.String() + " exceeds held " + pos.Quantity.String(),
				}
			}
			// Average cost is untouched by a sale; only acquisitions move it.
			gain := tx.Price.Sub(pos.AvgCost).Mul(tx.Quantity)
			book.Realized[tx.Symbol] = book.Realized[tx.Symbol].Add(gain)
			pos.Quantity = pos.Quantity.Sub(tx.Quantity)
			book.Positions[tx.Symbol] = pos

		case model.TypeSplit:
			// quantity is the N-for-1 ratio: quantity scales up, average
			// cost scales down, total cost is invariant. No realized gain.
			// A non-positive ratio can only come from a store written
			// around the validator; dividing by it would panic.
			if !tx.Quantity.IsPositive() {
				return nil, &FoldError{
					Fault:       FaultInvalidSplitRatio,
					PortfolioID: portfolioID,
					Symbol:      tx.Symbol,
					Seq:         tx.Seq,
					Detail:      "split ratio must be positive, got " + tx.Quantity.String(),
				}
			}
			pos := book.Positions[tx.Symbol]
			pos.PortfolioID = portfolioID
			pos.Symbol = tx.Symbol
			pos.Quantity = pos.Quantity.Mul(tx.Quantity)
			pos.AvgCost = pos.AvgCost.Div(tx.Quantity)
			book.Positions[tx.Symbol] = pos

		case model.TypeDeposit, model.TypeWithdrawal, model.TypeDividend, model.TypeFee, model.TypeInterest:
			// cash only

		default:
			// A stored type outside the accepted set means the store was
			// written around the validator; surface it, don't skip it.
			return nil, &FoldError{
				Fault:       FaultUnknownStoredType,
				PortfolioID: portfolioID,
				Seq:         tx.Seq,
				Detail:      "unknown stored transaction type " + string(tx.Type),
			}
		}

		book.AsOf = tx.ExecutedAt
	}

	return book, nil
}
