package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"folio/internal/application/port"
	"folio/internal/domain/model"
)

// Repo is the postgres-backed transaction and identity store, same
// contract as the sqlite one. Seq comes from a BIGSERIAL so insertion
// order is preserved across connections.
type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS portfolios (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  name TEXT NOT NULL,
  currency TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_portfolios_user ON portfolios(user_id);

CREATE TABLE IF NOT EXISTS transactions (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  portfolio_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  symbol TEXT NOT NULL DEFAULT '',
  quantity NUMERIC NOT NULL DEFAULT 0,
  price NUMERIC NOT NULL DEFAULT 0,
  gross NUMERIC NOT NULL,
  fee NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL,
  reference TEXT NOT NULL DEFAULT '',
  note TEXT NOT NULL DEFAULT '',
  executed_at BIGINT NOT NULL,
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tx_portfolio ON transactions(portfolio_id, executed_at, seq);
CREATE INDEX IF NOT EXISTS idx_tx_symbol ON transactions(symbol);
`)
	return err
}

func (r *Repo) CreateUser(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users(id, name, created_at) VALUES($1, $2, $3)
		ON CONFLICT(id) DO NOTHING
	`, id, name, time.Now().UnixMilli())
	return err
}

func (r *Repo) CreatePortfolio(ctx context.Context, id, userID, name, currency string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO portfolios(id, user_id, name, currency, created_at) VALUES($1, $2, $3, $4, $5)
		ON CONFLICT(id) DO NOTHING
	`, id, userID, name, currency, time.Now().UnixMilli())
	return err
}

func (r *Repo) PortfolioExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM portfolios WHERE id=$1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *Repo) UserExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=$1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *Repo) Append(ctx context.Context, tx *model.Transaction) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO transactions(id, portfolio_id, user_id, type, symbol, quantity, price, gross, fee, currency, reference, note, executed_at, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING seq
	`,
		tx.ID, tx.PortfolioID, tx.UserID, string(tx.Type), tx.Symbol,
		tx.Quantity.String(), tx.Price.String(), tx.Gross.String(), tx.Fee.String(),
		tx.Currency, tx.Reference, tx.Note, tx.ExecutedAt.UnixMilli(), time.Now().UnixMilli(),
	).Scan(&tx.Seq)
}

func (r *Repo) ListByPortfolio(ctx context.Context, portfolioID string) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, id, portfolio_id, user_id, type, symbol, quantity::text, price::text, gross::text, fee::text, currency, reference, note, executed_at
		FROM transactions WHERE portfolio_id=$1
		ORDER BY executed_at, seq
	`, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *Repo) ListPortfolioIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM portfolios ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var tx model.Transaction
	var typ, quantity, price, gross, fee string
	var executedAt int64
	if err := rows.Scan(&tx.Seq, &tx.ID, &tx.PortfolioID, &tx.UserID, &typ, &tx.Symbol,
		&quantity, &price, &gross, &fee, &tx.Currency, &tx.Reference, &tx.Note, &executedAt); err != nil {
		return tx, err
	}

	var err error
	if tx.Type, err = model.ParseTransactionType(typ); err != nil {
		return tx, fmt.Errorf("row seq %d: %w", tx.Seq, err)
	}
	if tx.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return tx, fmt.Errorf("row seq %d quantity: %w", tx.Seq, err)
	}
	if tx.Price, err = decimal.NewFromString(price); err != nil {
		return tx, fmt.Errorf("row seq %d price: %w", tx.Seq, err)
	}
	if tx.Gross, err = decimal.NewFromString(gross); err != nil {
		return tx, fmt.Errorf("row seq %d gross: %w", tx.Seq, err)
	}
	if tx.Fee, err = decimal.NewFromString(fee); err != nil {
		return tx, fmt.Errorf("row seq %d fee: %w", tx.Seq, err)
	}
	tx.ExecutedAt = time.UnixMilli(executedAt).UTC()
	return tx, nil
}

var (
	_ port.TransactionStore = (*Repo)(nil)
	_ port.IdentityStore    = (*Repo)(nil)
)
