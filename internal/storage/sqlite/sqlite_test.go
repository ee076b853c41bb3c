package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
	"github.com/Avishkar0827/Expense-Manager/internal/storage"
)

func newTestStores(t *testing.T) storage.Stores {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.Stores()
}

func TestLedgerLifecycle(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	led, err := stores.Ledgers.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if led.Owner != "u1" || led.Balance != 0 {
		t.Fatalf("new ledger = %+v", led)
	}
	if len(led.Categories) != len(core.DefaultCategories()) {
		t.Errorf("new ledger categories = %v", led.Categories)
	}

	tx := core.Transaction{ID: "t1", Kind: core.KindIncome, Amount: 1000, Date: time.Now().UTC()}
	led, err = stores.Ledgers.AppendTransaction(ctx, "u1", tx, 1000)
	if err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}
	if led.Balance != 1000 || len(led.Incomes) != 1 {
		t.Errorf("after append: balance=%d incomes=%d", led.Balance, len(led.Incomes))
	}

	tx.Amount = 700
	led, err = stores.Ledgers.ReplaceTransaction(ctx, "u1", tx, -300)
	if err != nil {
		t.Fatalf("ReplaceTransaction: %v", err)
	}
	if led.Balance != 700 || led.Incomes[0].Amount != 700 {
		t.Errorf("after replace: %+v", led)
	}

	led, err = stores.Ledgers.RemoveTransaction(ctx, "u1", core.KindIncome, "t1", -700)
	if err != nil {
		t.Fatalf("RemoveTransaction: %v", err)
	}
	if led.Balance != 0 || len(led.Incomes) != 0 {
		t.Errorf("after remove: %+v", led)
	}

	if _, err := stores.Ledgers.RemoveTransaction(ctx, "u1", core.KindIncome, "t1", 0); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("remove absent = %v, want ErrNotFound", err)
	}
	if _, err := stores.Ledgers.ReplaceTransaction(ctx, "u1", tx, 0); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("replace absent = %v, want ErrNotFound", err)
	}
}

func TestCategorySetSemantics(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	led, err := stores.Ledgers.AddCategory(ctx, "u1", "Travel")
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	before := len(led.Categories)

	led, err = stores.Ledgers.AddCategory(ctx, "u1", "Travel")
	if err != nil {
		t.Fatalf("AddCategory twice: %v", err)
	}
	if len(led.Categories) != before {
		t.Errorf("duplicate add grew set: %v", led.Categories)
	}
}

func TestRemoveCategoryCascades(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	mustAppend := func(tx core.Transaction, delta core.Money) {
		t.Helper()
		if _, err := stores.Ledgers.AppendTransaction(ctx, "u1", tx, delta); err != nil {
			t.Fatalf("append %s: %v", tx.ID, err)
		}
	}
	mustAppend(core.Transaction{ID: "i1", Kind: core.KindIncome, Amount: 1120, Date: time.Now().UTC()}, 1120)
	mustAppend(core.Transaction{ID: "e1", Kind: core.KindExpense, Amount: 50, Category: "Food", Date: time.Now().UTC()}, -50)
	mustAppend(core.Transaction{ID: "e2", Kind: core.KindExpense, Amount: 70, Category: "Food", Date: time.Now().UTC()}, -70)

	led, err := stores.Ledgers.RemoveCategory(ctx, "u1", "Food")
	if err != nil {
		t.Fatalf("RemoveCategory: %v", err)
	}
	if led.HasCategory("Food") {
		t.Error("Food still in category set")
	}
	if len(led.Expenses) != 0 {
		t.Errorf("expenses not cascaded: %+v", led.Expenses)
	}
	if led.Balance != 1120 {
		t.Errorf("balance = %d, want 1120", led.Balance)
	}
	if err := led.CheckBalance(); err != nil {
		t.Errorf("invariant after cascade: %v", err)
	}
}

func TestSharedExpenses(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	e1 := core.SharedExpense{ID: "x1", Description: "old", Amount: 100, PaidBy: "a",
		SplitBetween: []core.Split{{User: "b", Share: 100}}, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	e2 := core.SharedExpense{ID: "x2", Description: "new", Amount: 200, PaidBy: "b",
		SplitBetween: []core.Split{{User: "a", Share: 200}}, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	for _, e := range []core.SharedExpense{e1, e2} {
		if err := stores.Expenses.Insert(ctx, e); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := stores.Expenses.ListForUser(ctx, "a")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 || got[0].ID != "x2" {
		t.Errorf("list = %+v, want newest first", got)
	}
	if len(got) == 2 && (len(got[1].SplitBetween) != 1 || got[1].SplitBetween[0].User != "b") {
		t.Errorf("splits not loaded: %+v", got[1].SplitBetween)
	}

	if _, err := stores.Expenses.Get(ctx, "x1"); err != nil {
		t.Errorf("Get: %v", err)
	}
	if err := stores.Expenses.Delete(ctx, "x1"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := stores.Expenses.Delete(ctx, "x1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("double delete = %v, want ErrNotFound", err)
	}
}

func TestFriendshipsDedupe(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	if err := stores.Friends.Insert(ctx, core.Friendship{UserA: "a", UserB: "b"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	// Reversed direction is the same pair.
	err := stores.Friends.Insert(ctx, core.Friendship{UserA: "b", UserB: "a"})
	if !errors.Is(err, core.ErrConflict) {
		t.Errorf("reversed insert = %v, want ErrConflict", err)
	}

	list, _ := stores.Friends.ListForUser(ctx, "b")
	if len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}
	if other := list[0].Other("b"); other != "a" {
		t.Errorf("Other = %s, want a", other)
	}

	if err := stores.Friends.Delete(ctx, core.Friendship{UserA: "b", UserB: "a"}); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := stores.Friends.Delete(ctx, core.Friendship{UserA: "a", UserB: "b"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("delete absent = %v, want ErrNotFound", err)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	if err := stores.Users.Upsert(ctx, core.User{ID: "u1", Username: "alice", Email: "Alice@Example.com"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	// Partial upsert keeps existing fields.
	if err := stores.Users.Upsert(ctx, core.User{ID: "u1"}); err != nil {
		t.Fatalf("Upsert partial: %v", err)
	}

	u, err := stores.Users.FindByEmail(ctx, "ALICE@example.COM")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if u.ID != "u1" || u.Username != "alice" {
		t.Errorf("user = %+v", u)
	}

	if _, err := stores.Users.FindByID(ctx, "nobody"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("FindByID absent = %v, want ErrNotFound", err)
	}

	stores.Users.Upsert(ctx, core.User{ID: "u2", Username: "alfred", Email: "alfred@example.com"})
	got, _ := stores.Users.Search(ctx, "al", "u1")
	if len(got) != 1 || got[0].ID != "u2" {
		t.Errorf("Search excluding requester = %+v", got)
	}
}
