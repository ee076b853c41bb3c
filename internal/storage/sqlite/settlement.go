package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
)

// ---- SharedExpenseStore ----

func (v *expenseStore) Insert(ctx context.Context, e core.SharedExpense) error {
	s := (*Store)(v)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO shared_expenses (id, description, amount_cents, paid_by, date)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Description, int64(e.Amount), e.PaidBy, e.Date)
	if err != nil {
		return fmt.Errorf("insert shared expense: %w", err)
	}

	for _, sp := range e.SplitBetween {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO shared_expense_splits (expense_id, user_id, share_cents) VALUES (?, ?, ?)`,
			e.ID, sp.User, int64(sp.Share))
		if err != nil {
			return fmt.Errorf("insert split: %w", err)
		}
	}

	return tx.Commit()
}

func (v *expenseStore) Get(ctx context.Context, id string) (core.SharedExpense, error) {
	s := (*Store)(v)

	var (
		e      core.SharedExpense
		amount int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, description, amount_cents, paid_by, date FROM shared_expenses WHERE id = ?`, id).
		Scan(&e.ID, &e.Description, &amount, &e.PaidBy, &e.Date)
	if err == sql.ErrNoRows {
		return core.SharedExpense{}, core.NotFoundf("expense %s", id)
	}
	if err != nil {
		return core.SharedExpense{}, fmt.Errorf("load shared expense: %w", err)
	}
	e.Amount = core.Money(amount)

	e.SplitBetween, err = loadSplits(ctx, s.db, id)
	if err != nil {
		return core.SharedExpense{}, err
	}
	return e, nil
}

func (v *expenseStore) Delete(ctx context.Context, id string) error {
	s := (*Store)(v)
	res, err := s.db.ExecContext(ctx, `DELETE FROM shared_expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shared expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("expense %s", id)
	}
	return nil
}

func (v *expenseStore) ListForUser(ctx context.Context, user string) ([]core.SharedExpense, error) {
	s := (*Store)(v)

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT e.id, e.description, e.amount_cents, e.paid_by, e.date
		   FROM shared_expenses e
		   LEFT JOIN shared_expense_splits sp ON sp.expense_id = e.id
		  WHERE e.paid_by = ? OR sp.user_id = ?
		  ORDER BY e.date DESC`, user, user)
	if err != nil {
		return nil, fmt.Errorf("list shared expenses: %w", err)
	}
	defer rows.Close()

	var out []core.SharedExpense
	for rows.Next() {
		var (
			e      core.SharedExpense
			amount int64
		)
		if err := rows.Scan(&e.ID, &e.Description, &amount, &e.PaidBy, &e.Date); err != nil {
			return nil, fmt.Errorf("scan shared expense: %w", err)
		}
		e.Amount = core.Money(amount)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared expenses: %w", err)
	}

	for i := range out {
		out[i].SplitBetween, err = loadSplits(ctx, s.db, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func loadSplits(ctx context.Context, q querier, expenseID string) ([]core.Split, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT user_id, share_cents FROM shared_expense_splits WHERE expense_id = ? ORDER BY rowid`,
		expenseID)
	if err != nil {
		return nil, fmt.Errorf("load splits: %w", err)
	}
	defer rows.Close()

	var out []core.Split
	for rows.Next() {
		var (
			sp    core.Split
			share int64
		)
		if err := rows.Scan(&sp.User, &share); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		sp.Share = core.Money(share)
		out = append(out, sp)
	}
	return out, rows.Err()
}

// ---- FriendshipStore ----

func (v *friendStore) Insert(ctx context.Context, f core.Friendship) error {
	s := (*Store)(v)
	f = core.NewFriendship(f.UserA, f.UserB)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO friendships (user_a, user_b, created_at) VALUES (?, ?, ?)`,
		f.UserA, f.UserB, time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "constraint failed") {
			return core.Conflictf("friendship between %s and %s already exists", f.UserA, f.UserB)
		}
		return fmt.Errorf("insert friendship: %w", err)
	}
	return nil
}

func (v *friendStore) Delete(ctx context.Context, f core.Friendship) error {
	s := (*Store)(v)
	f = core.NewFriendship(f.UserA, f.UserB)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM friendships WHERE user_a = ? AND user_b = ?`, f.UserA, f.UserB)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("friendship between %s and %s", f.UserA, f.UserB)
	}
	return nil
}

func (v *friendStore) ListForUser(ctx context.Context, user string) ([]core.Friendship, error) {
	s := (*Store)(v)
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_a, user_b FROM friendships WHERE user_a = ? OR user_b = ? ORDER BY user_a, user_b`,
		user, user)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	defer rows.Close()

	var out []core.Friendship
	for rows.Next() {
		var f core.Friendship
		if err := rows.Scan(&f.UserA, &f.UserB); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ---- UserStore ----

func (v *userStore) Upsert(ctx context.Context, u core.User) error {
	s := (*Store)(v)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     username = CASE WHEN excluded.username != '' THEN excluded.username ELSE users.username END,
		     email    = CASE WHEN excluded.email != '' THEN excluded.email ELSE users.email END`,
		u.ID, u.Username, strings.ToLower(u.Email))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (v *userStore) FindByID(ctx context.Context, id string) (core.User, error) {
	s := (*Store)(v)
	var u core.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Email)
	if err == sql.ErrNoRows {
		return core.User{}, core.NotFoundf("user %s", id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (v *userStore) FindByEmail(ctx context.Context, email string) (core.User, error) {
	s := (*Store)(v)
	var u core.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email FROM users WHERE email = ?`, strings.ToLower(email)).
		Scan(&u.ID, &u.Username, &u.Email)
	if err == sql.ErrNoRows {
		return core.User{}, core.NotFoundf("user with email %s", email)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (v *userStore) Search(ctx context.Context, query, excludeID string) ([]core.User, error) {
	s := (*Store)(v)
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, email FROM users
		  WHERE id != ? AND (LOWER(username) LIKE ? OR email LIKE ?)
		  ORDER BY id`, excludeID, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
