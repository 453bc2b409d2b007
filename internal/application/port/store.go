package port

import (
	"context"

	"folio/internal/domain/model"
)

// TransactionStore is the append-only persistence boundary for ledgers.
// There is deliberately no update or delete: accepted transactions are
// immutable, and corrections enter as new compensating transactions.
type TransactionStore interface {
	// Append persists tx and assigns its store sequence number. The
	// sequence is strictly increasing in insertion order and serves as
	// the tie-break for equal executed times.
	Append(ctx context.Context, tx *model.Transaction) error

	// ListByPortfolio returns a portfolio's full ledger ordered by
	// executed time, then sequence.
	ListByPortfolio(ctx context.Context, portfolioID string) ([]model.Transaction, error)

	// ListPortfolioIDs returns the ids of all known portfolios.
	ListPortfolioIDs(ctx context.Context) ([]string, error)

	Close() error
}

// IdentityStore answers the referential checks owned by the identity
// collaborator: a transaction may only reference existing entities.
type IdentityStore interface {
	PortfolioExists(ctx context.Context, id string) (bool, error)
	UserExists(ctx context.Context, id string) (bool, error)
}
