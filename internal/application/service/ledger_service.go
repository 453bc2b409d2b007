package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"folio/internal/application/port"
	"folio/internal/domain/model"
	dsvc "folio/internal/domain/service"
)

// LedgerService exposes the ledger operations consumed by the outer
// transport layer: validated append, and the derived position, snapshot
// and profit/loss queries. Appends to one portfolio are serialized so
// the (executed_at, seq) ordering stays deterministic; folds for
// different portfolios run concurrently without shared state.
type LedgerService struct {
	store     port.TransactionStore
	ids       port.IdentityStore
	prices    port.PriceProvider
	validator *dsvc.Validator

	mu    sync.Mutex
	locks map[string]*sync.Mutex // one writer at a time per portfolio
	books map[string]*model.Book // memoized folds, dropped on append
	vers  map[string]uint64      // bumped on append, guards memo fills
}

func NewLedgerService(store port.TransactionStore, ids port.IdentityStore, prices port.PriceProvider) *LedgerService {
	return &LedgerService{
		store:     store,
		ids:       ids,
		prices:    prices,
		validator: dsvc.NewValidator(),
		locks:     make(map[string]*sync.Mutex),
		books:     make(map[string]*model.Book),
		vers:      make(map[string]uint64),
	}
}

// SubmitTransaction validates tx and appends it to its portfolio's
// ledger. A rejected transaction never reaches the store. The accepted
// transaction is returned with its assigned id and sequence.
func (s *LedgerService) SubmitTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	if err := s.checkReferences(ctx, tx); err != nil {
		return tx, err
	}
	if err := s.validator.Validate(tx); err != nil {
		log.Debug().Str("portfolio", tx.PortfolioID).Str("type", string(tx.Type)).Err(err).Msg("transaction rejected")
		return tx, err
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.ExecutedAt.IsZero() {
		tx.ExecutedAt = time.Now().UTC()
	}

	lock := s.portfolioLock(tx.PortfolioID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Append(ctx, &tx); err != nil {
		return tx, fmt.Errorf("append transaction: %w", err)
	}
	s.invalidate(tx.PortfolioID)

	log.Info().
		Str("portfolio", tx.PortfolioID).
		Str("type", string(tx.Type)).
		Str("symbol", tx.Symbol).
		Str("gross", tx.Gross.String()).
		Int64("seq", tx.Seq).
		Msg("transaction accepted")
	return tx, nil
}

// GetPositions returns the derived positions of a portfolio, optionally
// narrowed to one symbol. Closed (zero-quantity) positions are omitted.
func (s *LedgerService) GetPositions(ctx context.Context, portfolioID, symbol string) ([]model.Position, error) {
	book, err := s.book(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	var out []model.Position
	for _, pos := range book.Open() {
		if symbol != "" && pos.Symbol != symbol {
			continue
		}
		out = append(out, pos)
	}
	return out, nil
}

// GetSnapshot values the portfolio's derived state with current prices.
func (s *LedgerService) GetSnapshot(ctx context.Context, portfolioID string) (*model.Snapshot, error) {
	book, err := s.book(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	return dsvc.BuildSnapshot(ctx, book, time.Now().UTC(), s.prices)
}

// GetPnL reports realized and unrealized gain for the portfolio.
func (s *LedgerService) GetPnL(ctx context.Context, portfolioID, symbol string) (*model.PnL, error) {
	book, err := s.book(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	return dsvc.ComputePnL(ctx, book, symbol, s.prices)
}

func (s *LedgerService) checkReferences(ctx context.Context, tx model.Transaction) error {
	ok, err := s.ids.PortfolioExists(ctx, tx.PortfolioID)
	if err != nil {
		return fmt.Errorf("portfolio lookup: %w", err)
	}
	if !ok {
		return &dsvc.RejectedError{Reason: dsvc.ReasonUnknownPortfolio, Detail: tx.PortfolioID}
	}
	ok, err = s.ids.UserExists(ctx, tx.UserID)
	if err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}
	if !ok {
		return &dsvc.RejectedError{Reason: dsvc.ReasonUnknownUser, Detail: tx.UserID}
	}
	return nil
}

// book returns the memoized fold for a portfolio, deriving it from the
// stored ledger on a miss. The portfolio version taken before the store
// read gates the memo fill: an append landing mid-fold bumps the
// version, so a fold over the pre-append ledger is returned to its
// caller but never cached.
func (s *LedgerService) book(ctx context.Context, portfolioID string) (*model.Book, error) {
	s.mu.Lock()
	cached := s.books[portfolioID]
	ver := s.vers[portfolioID]
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	txs, err := s.store.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load ledger for %s: %w", portfolioID, err)
	}
	book, err := dsvc.FoldBook(portfolioID, txs)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.vers[portfolioID] == ver {
		s.books[portfolioID] = book
	}
	s.mu.Unlock()
	return book, nil
}

func (s *LedgerService) portfolioLock(portfolioID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[portfolioID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[portfolioID] = lock
	}
	return lock
}

func (s *LedgerService) invalidate(portfolioID string) {
	s.mu.Lock()
	delete(s.books, portfolioID)
	s.vers[portfolioID]++
	s.mu.Unlock()
}
