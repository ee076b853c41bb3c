// Package sqlite is the SQLite storage backend, built on
// modernc.org/sqlite with embedded migrations. Balance maintenance
// uses relative updates (balance_cents = balance_cents + ?) inside the
// same transaction as the row mutation, so the ledger invariant holds
// at every commit point.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
	"github.com/Avishkar0827/Expense-Manager/internal/storage"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

type (
	ledgerStore  Store
	expenseStore Store
	friendStore  Store
	userStore    Store
)

// Open opens (creating if necessary) the database at dbPath and runs
// migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Stores returns the store wired into the storage bundle.
func (s *Store) Stores() storage.Stores {
	return storage.Stores{
		Ledgers:  (*ledgerStore)(s),
		Expenses: (*expenseStore)(s),
		Friends:  (*friendStore)(s),
		Users:    (*userStore)(s),
	}
}

// loadLedger reads the full ledger document inside q (a *sql.Tx or
// the pool itself).
func loadLedger(ctx context.Context, q querier, owner string) (core.Ledger, error) {
	l := core.Ledger{Owner: owner}

	var balance int64
	err := q.QueryRowContext(ctx, `SELECT balance_cents FROM ledgers WHERE owner = ?`, owner).Scan(&balance)
	if err == sql.ErrNoRows {
		return core.Ledger{}, core.NotFoundf("ledger for %s", owner)
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}
	l.Balance = core.Money(balance)

	rows, err := q.QueryContext(ctx,
		`SELECT name FROM ledger_categories WHERE owner = ? ORDER BY rowid`, owner)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return core.Ledger{}, fmt.Errorf("scan category: %w", err)
		}
		l.Categories = append(l.Categories, name)
	}
	if err := rows.Err(); err != nil {
		return core.Ledger{}, fmt.Errorf("iterate categories: %w", err)
	}

	txRows, err := q.QueryContext(ctx,
		`SELECT id, kind, amount_cents, category, description, date
		   FROM transactions WHERE owner = ? ORDER BY rowid`, owner)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load transactions: %w", err)
	}
	defer txRows.Close()
	for txRows.Next() {
		var (
			t        core.Transaction
			amount   int64
			category sql.NullString
		)
		if err := txRows.Scan(&t.ID, &t.Kind, &amount, &category, &t.Description, &t.Date); err != nil {
			return core.Ledger{}, fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount = core.Money(amount)
		if category.Valid {
			t.Category = category.String
		}
		if t.Kind == core.KindIncome {
			l.Incomes = append(l.Incomes, t)
		} else {
			l.Expenses = append(l.Expenses, t)
		}
	}
	if err := txRows.Err(); err != nil {
		return core.Ledger{}, fmt.Errorf("iterate transactions: %w", err)
	}

	return l, nil
}

// querier is the subset of *sql.DB / *sql.Tx the loaders need.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
