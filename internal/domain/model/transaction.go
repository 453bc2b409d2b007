package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the kind of ledger entry.
type TransactionType string

const (
	TypeBuy        TransactionType = "buy"
	TypeSell       TransactionType = "sell"
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeDividend   TransactionType = "dividend"
	TypeSplit      TransactionType = "split"
	TypeFee        TransactionType = "fee"
	TypeInterest   TransactionType = "interest"
)

// ParseTransactionType parses a string into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TypeBuy, TypeSell, TypeDeposit, TypeWithdrawal, TypeDividend, TypeSplit, TypeFee, TypeInterest:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// IsTrade reports whether the type moves a security position through a
// quantity/price pair (buy, sell, split).
func (t TransactionType) IsTrade() bool {
	return t == TypeBuy || t == TypeSell || t == TypeSplit
}

// NeedsSymbol reports whether the type must reference a security.
func (t TransactionType) NeedsSymbol() bool {
	switch t {
	case TypeBuy, TypeSell, TypeSplit, TypeFee, TypeDividend:
		return true
	}
	return false
}

// Transaction is a single immutable entry in a portfolio's ledger.
// Once accepted it is never updated or deleted; corrections are recorded
// as new compensating transactions.
type Transaction struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolio_id"`
	UserID      string          `json:"user_id"`
	Type        TransactionType `json:"type"`
	Symbol      string          `json:"symbol,omitempty"`
	Quantity    decimal.Decimal `json:"quantity,omitempty"`
	Price       decimal.Decimal `json:"price,omitempty"`
	Gross       decimal.Decimal `json:"gross"` // signed cash-flow effect
	Fee         decimal.Decimal `json:"fee"`   // non-negative, subtracted from cash
	Currency    string          `json:"currency"`
	Reference   string          `json:"reference,omitempty"`
	Note        string          `json:"note,omitempty"`
	ExecutedAt  time.Time       `json:"executed_at"`
	Seq         int64           `json:"seq"` // insertion order, assigned by the store
}

// TradeGross returns the gross amount implied by a trade's quantity and
// price: negative for a buy, positive for a sell. Callers that do not
// supply a gross amount themselves can derive it here before submission.
func TradeGross(t TransactionType, quantity, price decimal.Decimal) decimal.Decimal {
	total := quantity.Mul(price)
	if t == TypeBuy {
		return total.Neg()
	}
	return total
}

// Before reports whether tx orders strictly before other in the ledger,
// by executed time with the store-assigned seq as tie-break.
func (tx Transaction) Before(other Transaction) bool {
	if tx.ExecutedAt.Equal(other.ExecutedAt) {
		return tx.Seq < other.Seq
	}
	return tx.ExecutedAt.Before(other.ExecutedAt)
}
