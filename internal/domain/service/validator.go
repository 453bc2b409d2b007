package service

import (
	"github.com/shopspring/decimal"

	"folio/internal/domain/model"
)

// grossTolerance is the rounding slack allowed when checking a provided
// gross amount against quantity×price: anything within half a cent agrees.
var grossTolerance = decimal.New(5, -3) // 0.005

// rule checks one structural invariant of a transaction.
type rule func(tx *model.Transaction) *RejectedError

// rulesByType is the validation dispatch table. Every accepted type has
// an entry; a type without one is unknown and rejected outright.
var rulesByType = map[model.TransactionType][]rule{
	model.TypeBuy:        {requireSymbol, requireTradeFigures, requireConsistentGross},
	model.TypeSell:       {requireSymbol, requireTradeFigures, requireConsistentGross},
	model.TypeSplit:      {requireSymbol, requireTradeFigures},
	model.TypeDeposit:    {requireNonNegativeGross},
	model.TypeWithdrawal: {requireNonPositiveGross},
	model.TypeDividend:   {requireSymbol, requireNonNegativeGross},
	model.TypeFee:        {requireSymbol, requireNonPositiveGross},
	model.TypeInterest:   {requireNonNegativeGross},
}

// Validator enforces per-type structural and sign invariants on a single
// transaction before it is appended. It is pure: the same transaction
// always produces the same verdict, and no running state is consulted
// (state-dependent checks such as overselling belong to the fold).
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

// Validate returns nil when the transaction may enter the ledger, or a
// *RejectedError naming the violated rule.
func (v *Validator) Validate(tx model.Transaction) error {
	rules, ok := rulesByType[tx.Type]
	if !ok {
		return rejectf(ReasonUnknownType, "type %q", tx.Type)
	}
	if tx.Fee.IsNegative() {
		return rejectf(ReasonSignMismatch, "%s fee must be non-negative, got %s", tx.Type, tx.Fee)
	}
	for _, r := range rules {
		if err := r(&tx); err != nil {
			return err
		}
	}
	return nil
}

func requireSymbol(tx *model.Transaction) *RejectedError {
	if tx.Symbol == "" {
		return rejectf(ReasonMissingSymbol, "%s requires a symbol", tx.Type)
	}
	return nil
}

func requireTradeFigures(tx *model.Transaction) *RejectedError {
	if !tx.Quantity.IsPositive() {
		return rejectf(ReasonMissingQuantityOrPrice, "%s quantity must be positive, got %s", tx.Type, tx.Quantity)
	}
	if tx.Price.IsNegative() {
		return rejectf(ReasonMissingQuantityOrPrice, "%s price must not be negative, got %s", tx.Type, tx.Price)
	}
	return nil
}

// requireConsistentGross checks that a provided gross amount agrees with
// quantity×price. A disagreeing value is an upstream mistake and is
// rejected rather than silently recomputed.
func requireConsistentGross(tx *model.Transaction) *RejectedError {
	want := model.TradeGross(tx.Type, tx.Quantity, tx.Price)
	if tx.Gross.Sub(want).Abs().GreaterThan(grossTolerance) {
		return rejectf(ReasonInconsistentAmount, "%s gross %s disagrees with quantity×price %s", tx.Type, tx.Gross, want)
	}
	return nil
}

func requireNonNegativeGross(tx *model.Transaction) *RejectedError {
	if tx.Gross.IsNegative() {
		return rejectf(ReasonSignMismatch, "%s gross must be non-negative, got %s", tx.Type, tx.Gross)
	}
	return nil
}

func requireNonPositiveGross(tx *model.Transaction) *RejectedError {
	if tx.Gross.IsPositive() {
		return rejectf(ReasonSignMismatch, "%s gross must be non-positive, got %s", tx.Type, tx.Gross)
	}
	return nil
}
