package service

import "fmt"

// RejectReason classifies why a transaction was refused before it could
// enter the ledger.
type RejectReason string

const (
	ReasonSignMismatch           RejectReason = "sign_mismatch"
	ReasonMissingSymbol          RejectReason = "missing_symbol"
	ReasonMissingQuantityOrPrice RejectReason = "missing_quantity_or_price"
	ReasonInconsistentAmount     RejectReason = "inconsistent_amount"
	ReasonUnknownType            RejectReason = "unknown_type"
	ReasonUnknownPortfolio       RejectReason = "unknown_portfolio"
	ReasonUnknownUser            RejectReason = "unknown_user"
)

// RejectedError reports a validation or referential failure. The
// transaction never reaches the store; the caller gets the precise reason.
type RejectedError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("transaction rejected: %s", e.Reason)
	}
	return fmt.Sprintf("transaction rejected: %s: %s", e.Reason, e.Detail)
}

func rejectf(reason RejectReason, format string, args ...any) *RejectedError {
	return &RejectedError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// FoldFault classifies a derivation failure discovered while replaying a
// stored ledger.
type FoldFault string

const (
	FaultInsufficientQuantity   FoldFault = "insufficient_quantity"
	FaultNonChronologicalReplay FoldFault = "non_chronological_replay"
	FaultUnknownStoredType      FoldFault = "unknown_stored_type"
	FaultInvalidSplitRatio      FoldFault = "invalid_split_ratio"
)

// FoldError reports that a stored transaction violates a running-state
// invariant (e.g. a sell exceeding the held quantity) or that the replay
// input was not in ledger order. It names the offending transaction so
// the integrity problem can be located; the fold never skips it.
type FoldError struct {
	Fault       FoldFault
	PortfolioID string
	Symbol      string
	Seq         int64
	Detail      string
}

func (e *FoldError) Error() string {
	return fmt.Sprintf("fold failed for portfolio %s (seq %d): %s: %s", e.PortfolioID, e.Seq, e.Fault, e.Detail)
}
