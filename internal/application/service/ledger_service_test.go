package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"folio/internal/domain/model"
	dsvc "folio/internal/domain/service"
)

type mockStore struct {
	txs     []model.Transaction
	nextSeq int64
}

func newMockStore() *mockStore { return &mockStore{nextSeq: 1} }

func (m *mockStore) Append(_ context.Context, tx *model.Transaction) error {
	tx.Seq = m.nextSeq
	m.nextSeq++
	m.txs = append(m.txs, *tx)
	return nil
}

func (m *mockStore) ListByPortfolio(_ context.Context, portfolioID string) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, tx := range m.txs {
		if tx.PortfolioID == portfolioID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (m *mockStore) ListPortfolioIDs(_ context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var ids []string
	for _, tx := range m.txs {
		if _, ok := seen[tx.PortfolioID]; !ok {
			seen[tx.PortfolioID] = struct{}{}
			ids = append(ids, tx.PortfolioID)
		}
	}
	return ids, nil
}

func (m *mockStore) Close() error { return nil }

type mockIdentities struct {
	portfolios map[string]bool
	users      map[string]bool
}

func (m *mockIdentities) PortfolioExists(_ context.Context, id string) (bool, error) {
	return m.portfolios[id], nil
}

func (m *mockIdentities) UserExists(_ context.Context, id string) (bool, error) {
	return m.users[id], nil
}

type mockPrices map[string]string

func (m mockPrices) Quote(_ context.Context, symbol string) (decimal.Decimal, bool, error) {
	v, ok := m[symbol]
	if !ok {
		return decimal.Zero, false, nil
	}
	p, err := decimal.NewFromString(v)
	return p, true, err
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestService(prices mockPrices) (*LedgerService, *mockStore) {
	store := newMockStore()
	ids := &mockIdentities{
		portfolios: map[string]bool{"p1": true, "p2": true},
		users:      map[string]bool{"u1": true},
	}
	return NewLedgerService(store, ids, prices), store
}

func submit(t *testing.T, svc *LedgerService, tx model.Transaction) model.Transaction {
	t.Helper()
	accepted, err := svc.SubmitTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("submit %s failed: %v", tx.Type, err)
	}
	return accepted
}

func buyFor(portfolio, symbol, qty, price string) model.Transaction {
	q, p := dec(qty), dec(price)
	return model.Transaction{
		PortfolioID: portfolio, UserID: "u1", Type: model.TypeBuy, Symbol: symbol,
		Quantity: q, Price: p, Gross: model.TradeGross(model.TypeBuy, q, p), Currency: "USD",
	}
}

func TestSubmitAssignsIdentityAndSeq(t *testing.T) {
	svc, store := newTestService(mockPrices{})

	accepted := submit(t, svc, model.Transaction{
		PortfolioID: "p1", UserID: "u1", Type: model.TypeDeposit, Gross: dec("500"), Currency: "USD",
	})

	if accepted.ID == "" {
		t.Error("no id assigned")
	}
	if accepted.Seq != 1 {
		t.Errorf("seq = %d, want 1", accepted.Seq)
	}
	if accepted.ExecutedAt.IsZero() {
		t.Error("executed time not defaulted")
	}
	if len(store.txs) != 1 {
		t.Fatalf("store holds %d transactions, want 1", len(store.txs))
	}
}

func TestSubmitRejectedNeverStored(t *testing.T) {
	svc, store := newTestService(mockPrices{})

	_, err := svc.SubmitTransaction(context.Background(), model.Transaction{
		PortfolioID: "p1", UserID: "u1", Type: model.TypeDeposit, Gross: dec("-500"),
	})
	var rej *dsvc.RejectedError
	if !errors.As(err, &rej) || rej.Reason != dsvc.ReasonSignMismatch {
		t.Fatalf("expected sign mismatch rejection, got %v", err)
	}
	if len(store.txs) != 0 {
		t.Errorf("rejected transaction reached the store")
	}
}

func TestSubmitUnknownReferences(t *testing.T) {
	svc, _ := newTestService(mockPrices{})

	_, err := svc.SubmitTransaction(context.Background(), model.Transaction{
		PortfolioID: "ghost", UserID: "u1", Type: model.TypeDeposit, Gross: dec("1"),
	})
	var rej *dsvc.RejectedError
	if !errors.As(err, &rej) || rej.Reason != dsvc.ReasonUnknownPortfolio {
		t.Fatalf("expected unknown portfolio, got %v", err)
	}

	_, err = svc.SubmitTransaction(context.Background(), model.Transaction{
		PortfolioID: "p1", UserID: "ghost", Type: model.TypeDeposit, Gross: dec("1"),
	})
	if !errors.As(err, &rej) || rej.Reason != dsvc.ReasonUnknownUser {
		t.Fatalf("expected unknown user, got %v", err)
	}
}

func TestGetPositionsAfterTrades(t *testing.T) {
	svc, _ := newTestService(mockPrices{})

	submit(t, svc, model.Transaction{PortfolioID: "p1", UserID: "u1", Type: model.TypeDeposit, Gross: dec("5000"), Currency: "USD"})
	submit(t, svc, buyFor("p1", "AAPL", "10", "100"))

	positions, err := svc.GetPositions(context.Background(), "p1", "")
	if err != nil {
		t.Fatalf("get positions: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(positions))
	}
	if !positions[0].Quantity.Equal(dec("10")) || !positions[0].AvgCost.Equal(dec("100")) {
		t.Errorf("position = %+v, want 10 @ 100", positions[0])
	}

	none, err := svc.GetPositions(context.Background(), "p1", "MSFT")
	if err != nil || len(none) != 0 {
		t.Errorf("symbol filter leaked positions: %v %v", none, err)
	}
}

func TestGetSnapshotAndPnL(t *testing.T) {
	svc, _ := newTestService(mockPrices{"AAPL": "130"})

	submit(t, svc, model.Transaction{PortfolioID: "p1", UserID: "u1", Type: model.TypeDeposit, Gross: dec("2000"), Currency: "USD"})
	buy := buyFor("p1", "AAPL", "10", "100")
	buy.Fee = dec("1")
	submit(t, svc, buy)
	submit(t, svc, model.Transaction{
		PortfolioID: "p1", UserID: "u1", Type: model.TypeSell, Symbol: "AAPL",
		Quantity: dec("4"), Price: dec("120"), Gross: dec("480"), Currency: "USD",
	})

	snap, err := svc.GetSnapshot(context.Background(), "p1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	// cash 2000 - 1000 - 1 + 480 = 1479; market 6*130 = 780
	if !snap.Cash.Equal(dec("1479")) {
		t.Errorf("cash = %s, want 1479", snap.Cash)
	}
	if !snap.TotalValue.Equal(dec("2259")) {
		t.Errorf("total = %s, want 2259", snap.TotalValue)
	}

	pnl, err := svc.GetPnL(context.Background(), "p1", "")
	if err != nil {
		t.Fatalf("pnl: %v", err)
	}
	if !pnl.Realized.Equal(dec("80")) || !pnl.Unrealized.Equal(dec("180")) {
		t.Errorf("pnl = %s/%s, want 80/180", pnl.Realized, pnl.Unrealized)
	}
}

func TestPortfoliosAreIsolated(t *testing.T) {
	svc, _ := newTestService(mockPrices{})

	submit(t, svc, model.Transaction{PortfolioID: "p1", UserID: "u1", Type: model.TypeDeposit, Gross: dec("100"), Currency: "USD"})
	submit(t, svc, buyFor("p2", "AAPL", "1", "10"))

	p1, err := svc.GetPositions(context.Background(), "p1", "")
	if err != nil {
		t.Fatalf("get positions: %v", err)
	}
	if len(p1) != 0 {
		t.Errorf("p2's trade leaked into p1: %+v", p1)
	}
}

func TestBookCacheInvalidatedOnAppend(t *testing.T) {
	svc, _ := newTestService(mockPrices{})

	submit(t, svc, buyFor("p1", "AAPL", "10", "100"))
	first, err := svc.GetPositions(context.Background(), "p1", "AAPL")
	if err != nil || len(first) != 1 {
		t.Fatalf("first read: %v %v", first, err)
	}

	submit(t, svc, buyFor("p1", "AAPL", "10", "200"))
	second, err := svc.GetPositions(context.Background(), "p1", "AAPL")
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if !second[0].Quantity.Equal(dec("20")) || !second[0].AvgCost.Equal(dec("150")) {
		t.Errorf("stale derived state after append: %+v", second[0])
	}
}

// gatedStore pauses after its first ledger read so the test can land an
// append between a fold's store read and its memo fill.
type gatedStore struct {
	*mockStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) ListByPortfolio(ctx context.Context, portfolioID string) ([]model.Transaction, error) {
	txs, err := g.mockStore.ListByPortfolio(ctx, portfolioID)
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return txs, err
}

func TestFoldRacingAppendIsNotCached(t *testing.T) {
	store := &gatedStore{
		mockStore: newMockStore(),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	ids := &mockIdentities{portfolios: map[string]bool{"p1": true}, users: map[string]bool{"u1": true}}
	svc := NewLedgerService(store, ids, mockPrices{})

	submit(t, svc, buyFor("p1", "AAPL", "10", "100"))

	stale := make(chan error, 1)
	go func() {
		_, err := svc.GetPositions(context.Background(), "p1", "AAPL")
		stale <- err
	}()

	// the fold above has read the one-buy ledger and is parked; append a
	// second buy, which must invalidate anything that fold produces
	<-store.entered
	submit(t, svc, buyFor("p1", "AAPL", "10", "200"))
	close(store.release)

	if err := <-stale; err != nil {
		t.Fatalf("racing read failed: %v", err)
	}

	positions, err := svc.GetPositions(context.Background(), "p1", "AAPL")
	if err != nil || len(positions) != 1 {
		t.Fatalf("get positions: %v %v", positions, err)
	}
	if !positions[0].Quantity.Equal(dec("20")) || !positions[0].AvgCost.Equal(dec("150")) {
		t.Errorf("stale derived state served after append: %+v", positions[0])
	}
}

func TestConcurrentSubmitsSamePortfolio(t *testing.T) {
	svc, store := newTestService(mockPrices{})

	const writers = 8
	done := make(chan error, writers)
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < writers; i++ {
		go func() {
			tx := buyFor("p1", "AAPL", "1", "10")
			tx.ExecutedAt = ts // identical times force seq tie-breaks
			_, err := svc.SubmitTransaction(context.Background(), tx)
			done <- err
		}()
	}
	for i := 0; i < writers; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent submit failed: %v", err)
		}
	}

	seqs := map[int64]bool{}
	for _, tx := range store.txs {
		if seqs[tx.Seq] {
			t.Fatalf("duplicate seq %d assigned", tx.Seq)
		}
		seqs[tx.Seq] = true
	}

	positions, err := svc.GetPositions(context.Background(), "p1", "AAPL")
	if err != nil || len(positions) != 1 {
		t.Fatalf("get positions: %v %v", positions, err)
	}
	if !positions[0].Quantity.Equal(dec("8")) {
		t.Errorf("quantity = %s, want 8", positions[0].Quantity)
	}
}
