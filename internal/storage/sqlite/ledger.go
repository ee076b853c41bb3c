package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
)

func (v *ledgerStore) GetOrCreate(ctx context.Context, owner string) (core.Ledger, error) {
	s := (*Store)(v)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Ledger{}, err
	}
	defer tx.Rollback()

	if err := ensureLedger(ctx, tx, owner); err != nil {
		return core.Ledger{}, err
	}
	led, err := loadLedger(ctx, tx, owner)
	if err != nil {
		return core.Ledger{}, err
	}
	return led, tx.Commit()
}

func (v *ledgerStore) AppendTransaction(ctx context.Context, owner string, t core.Transaction, delta core.Money) (core.Ledger, error) {
	s := (*Store)(v)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Ledger{}, err
	}
	defer tx.Rollback()

	if err := ensureLedger(ctx, tx, owner); err != nil {
		return core.Ledger{}, err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, owner, kind, amount_cents, category, description, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, owner, string(t.Kind), int64(t.Amount), nullable(t.Category), t.Description, t.Date)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("insert transaction: %w", err)
	}

	if err := adjustBalance(ctx, tx, owner, delta); err != nil {
		return core.Ledger{}, err
	}

	led, err := loadLedger(ctx, tx, owner)
	if err != nil {
		return core.Ledger{}, err
	}
	return led, tx.Commit()
}

func (v *ledgerStore) ReplaceTransaction(ctx context.Context, owner string, t core.Transaction, delta core.Money) (core.Ledger, error) {
	s := (*Store)(v)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Ledger{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions
		    SET amount_cents = ?, category = ?, description = ?, date = ?
		  WHERE id = ? AND owner = ?`,
		int64(t.Amount), nullable(t.Category), t.Description, t.Date, t.ID, owner)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Ledger{}, core.NotFoundf("transaction %s", t.ID)
	}

	if err := adjustBalance(ctx, tx, owner, delta); err != nil {
		return core.Ledger{}, err
	}

	led, err := loadLedger(ctx, tx, owner)
	if err != nil {
		return core.Ledger{}, err
	}
	return led, tx.Commit()
}

func (v *ledgerStore) RemoveTransaction(ctx context.Context, owner string, kind core.TransactionKind, id string, delta core.Money) (core.Ledger, error) {
	s := (*Store)(v)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Ledger{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner = ? AND kind = ?`,
		id, owner, string(kind))
	if err != nil {
		return core.Ledger{}, fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Ledger{}, core.NotFoundf("transaction %s", id)
	}

	if err := adjustBalance(ctx, tx, owner, delta); err != nil {
		return core.Ledger{}, err
	}

	led, err := loadLedger(ctx, tx, owner)
	if err != nil {
		return core.Ledger{}, err
	}
	return led, tx.Commit()
}

func (v *ledgerStore) AddCategory(ctx context.Context, owner, name string) (core.Ledger, error) {
	s := (*Store)(v)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Ledger{}, err
	}
	defer tx.Rollback()

	if err := ensureLedger(ctx, tx, owner); err != nil {
		return core.Ledger{}, err
	}
	// Set semantics: inserting an existing name is a no-op.
	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO ledger_categories (owner, name) VALUES (?, ?)`, owner, name)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("insert category: %w", err)
	}

	led, err := loadLedger(ctx, tx, owner)
	if err != nil {
		return core.Ledger{}, err
	}
	return led, tx.Commit()
}

func (v *ledgerStore) RemoveCategory(ctx context.Context, owner, name string) (core.Ledger, error) {
	s := (*Store)(v)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Ledger{}, err
	}
	defer tx.Rollback()

	if err := ensureLedger(ctx, tx, owner); err != nil {
		return core.Ledger{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM ledger_categories WHERE owner = ? AND name = ?`, owner, name); err != nil {
		return core.Ledger{}, fmt.Errorf("delete category: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE owner = ? AND kind = 'expense' AND category = ?`, owner, name); err != nil {
		return core.Ledger{}, fmt.Errorf("cascade expenses: %w", err)
	}

	// Bulk removal: recompute the balance from what is left instead of
	// patching it per deleted row.
	_, err = tx.ExecContext(ctx,
		`UPDATE ledgers
		    SET balance_cents = COALESCE((
		        SELECT SUM(CASE WHEN kind = 'income' THEN amount_cents ELSE -amount_cents END)
		          FROM transactions WHERE owner = ?), 0)
		  WHERE owner = ?`, owner, owner)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("recompute balance: %w", err)
	}

	led, err := loadLedger(ctx, tx, owner)
	if err != nil {
		return core.Ledger{}, err
	}
	return led, tx.Commit()
}

func ensureLedger(ctx context.Context, tx *sql.Tx, owner string) error {
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO ledgers (owner, balance_cents) VALUES (?, 0)`, owner)
	if err != nil {
		return fmt.Errorf("ensure ledger: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		for _, c := range core.DefaultCategories() {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO ledger_categories (owner, name) VALUES (?, ?)`, owner, c); err != nil {
				return fmt.Errorf("seed category: %w", err)
			}
		}
	}
	return nil
}

func adjustBalance(ctx context.Context, tx *sql.Tx, owner string, delta core.Money) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE ledgers SET balance_cents = balance_cents + ? WHERE owner = ?`, int64(delta), owner)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("ledger for %s", owner)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
