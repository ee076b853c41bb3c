// Package memory is the in-memory storage backend. It is the default
// backend and the one the service tests run against; semantics
// mirror the sqlite and mongo backends, including atomic
// balance-with-mutation updates under a single lock.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
	"github.com/Avishkar0827/Expense-Manager/internal/storage"
)

type Store struct {
	mu       sync.Mutex
	ledgers  map[string]*core.Ledger
	expenses []core.SharedExpense
	friends  map[core.Friendship]struct{}
	users    map[string]core.User
}

// The per-collection stores are views over the same Store; they exist
// because the port interfaces share method names.
type (
	ledgerStore  Store
	expenseStore Store
	friendStore  Store
	userStore    Store
)

func New() *Store {
	return &Store{
		ledgers: make(map[string]*core.Ledger),
		friends: make(map[core.Friendship]struct{}),
		users:   make(map[string]core.User),
	}
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

// ---- LedgerStore ----

func (v *ledgerStore) GetOrCreate(_ context.Context, owner string) (core.Ledger, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.ledger(owner)), nil
}

func (v *ledgerStore) AppendTransaction(_ context.Context, owner string, tx core.Transaction, delta core.Money) (core.Ledger, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledger(owner)
	if tx.Kind == core.KindIncome {
		l.Incomes = append(l.Incomes, tx)
	} else {
		l.Expenses = append(l.Expenses, tx)
	}
	l.Balance += delta
	return snapshot(l), nil
}

func (v *ledgerStore) ReplaceTransaction(_ context.Context, owner string, tx core.Transaction, delta core.Money) (core.Ledger, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledger(owner)
	list := l.Incomes
	if tx.Kind == core.KindExpense {
		list = l.Expenses
	}
	for i := range list {
		if list[i].ID == tx.ID {
			list[i] = tx
			l.Balance += delta
			return snapshot(l), nil
		}
	}
	return core.Ledger{}, core.NotFoundf("transaction %s", tx.ID)
}

func (v *ledgerStore) RemoveTransaction(_ context.Context, owner string, kind core.TransactionKind, id string, delta core.Money) (core.Ledger, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledger(owner)
	list := &l.Incomes
	if kind == core.KindExpense {
		list = &l.Expenses
	}
	for i := range *list {
		if (*list)[i].ID == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			l.Balance += delta
			return snapshot(l), nil
		}
	}
	return core.Ledger{}, core.NotFoundf("transaction %s", id)
}

func (v *ledgerStore) AddCategory(_ context.Context, owner, name string) (core.Ledger, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledger(owner)
	for _, c := range l.Categories {
		if c == name {
			return snapshot(l), nil
		}
	}
	l.Categories = append(l.Categories, name)
	return snapshot(l), nil
}

func (v *ledgerStore) RemoveCategory(_ context.Context, owner, name string) (core.Ledger, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledger(owner)
	cats := l.Categories[:0]
	for _, c := range l.Categories {
		if c != name {
			cats = append(cats, c)
		}
	}
	l.Categories = cats

	kept := l.Expenses[:0]
	for _, t := range l.Expenses {
		if t.Category != name {
			kept = append(kept, t)
		}
	}
	l.Expenses = kept
	l.Balance = l.RecomputeBalance()
	return snapshot(l), nil
}

// ---- SharedExpenseStore ----

func (v *expenseStore) Insert(_ context.Context, e core.SharedExpense) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, copyExpense(e))
	return nil
}

func (v *expenseStore) Get(_ context.Context, id string) (core.SharedExpense, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return copyExpense(e), nil
		}
	}
	return core.SharedExpense{}, core.NotFoundf("expense %s", id)
}

func (v *expenseStore) Delete(_ context.Context, id string) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return core.NotFoundf("expense %s", id)
}

func (v *expenseStore) ListForUser(_ context.Context, user string) ([]core.SharedExpense, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.SharedExpense
	for _, e := range s.expenses {
		if e.Involves(user) {
			out = append(out, copyExpense(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// ---- FriendshipStore ----

func (v *friendStore) Insert(_ context.Context, f core.Friendship) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	f = core.NewFriendship(f.UserA, f.UserB)
	if _, ok := s.friends[f]; ok {
		return core.Conflictf("friendship between %s and %s already exists", f.UserA, f.UserB)
	}
	s.friends[f] = struct{}{}
	return nil
}

func (v *friendStore) Delete(_ context.Context, f core.Friendship) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	f = core.NewFriendship(f.UserA, f.UserB)
	if _, ok := s.friends[f]; !ok {
		return core.NotFoundf("friendship between %s and %s", f.UserA, f.UserB)
	}
	delete(s.friends, f)
	return nil
}

func (v *friendStore) ListForUser(_ context.Context, user string) ([]core.Friendship, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Friendship
	for f := range s.friends {
		if f.Involves(user) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserA != out[j].UserA {
			return out[i].UserA < out[j].UserA
		}
		return out[i].UserB < out[j].UserB
	})
	return out, nil
}

// ---- UserStore ----

func (v *userStore) Upsert(_ context.Context, u core.User) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.users[u.ID]
	cur.ID = u.ID
	if u.Username != "" {
		cur.Username = u.Username
	}
	if u.Email != "" {
		cur.Email = strings.ToLower(u.Email)
	}
	s.users[u.ID] = cur
	return nil
}

func (v *userStore) FindByID(_ context.Context, id string) (core.User, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.NotFoundf("user %s", id)
	}
	return u, nil
}

func (v *userStore) FindByEmail(_ context.Context, email string) (core.User, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, core.NotFoundf("user with email %s", email)
}

func (v *userStore) Search(_ context.Context, query, excludeID string) ([]core.User, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	var out []core.User
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(u.Email, q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ledger(owner string) *core.Ledger {
	l, ok := s.ledgers[owner]
	if !ok {
		created := core.NewLedger(owner)
		l = &created
		s.ledgers[owner] = l
	}
	return l
}

func snapshot(l *core.Ledger) core.Ledger {
	out := *l
	out.Incomes = append([]core.Transaction(nil), l.Incomes...)
	out.Expenses = append([]core.Transaction(nil), l.Expenses...)
	out.Categories = append([]string(nil), l.Categories...)
	return out
}

func copyExpense(e core.SharedExpense) core.SharedExpense {
	e.SplitBetween = append([]core.Split(nil), e.SplitBetween...)
	return e
}
