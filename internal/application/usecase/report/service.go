package report

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"folio/internal/application/port"
	appservice "folio/internal/application/service"
)

type ServiceDeps struct {
	Ledger        *appservice.LedgerService
	Store         port.TransactionStore
	Sink          port.Sink
	BaseCurrency  string
	PrintEveryMin int
}

// Service periodically renders every portfolio's valued snapshot and
// profit summary to the sink.
type Service struct {
	deps ServiceDeps
	fmt  *Formatter
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		deps: deps,
		fmt:  NewFormatter(deps.BaseCurrency),
	}
}

func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(s.deps.PrintEveryMin) * time.Minute)
	defer ticker.Stop()

	// report once at startup instead of waiting a full interval
	s.reportAll(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			return ctx.Err()
		case now := <-ticker.C:
			s.reportAll(ctx, now)
		}
	}
}

func (s *Service) reportAll(ctx context.Context, now time.Time) {
	ids, err := s.deps.Store.ListPortfolioIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list portfolios failed")
		return
	}
	if len(ids) == 0 {
		return
	}

	var lines []string
	for _, id := range ids {
		block, err := s.render(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("portfolio", id).Msg("report failed")
			continue
		}
		lines = append(lines, block...)
	}
	if len(lines) > 0 {
		_ = s.deps.Sink.WriteReport(now, lines)
	}
}

func (s *Service) render(ctx context.Context, portfolioID string) ([]string, error) {
	snap, err := s.deps.Ledger.GetSnapshot(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	pnl, err := s.deps.Ledger.GetPnL(ctx, portfolioID, "")
	if err != nil {
		return nil, err
	}
	return s.fmt.Render(snap, pnl), nil
}
