package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
	"github.com/Avishkar0827/Expense-Manager/internal/log"
	"github.com/Avishkar0827/Expense-Manager/internal/services"
	"github.com/Avishkar0827/Expense-Manager/internal/storage/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	stores := memory.New().Stores()
	logger := log.New(log.DefaultConfig())
	ledger := services.NewLedgerService(stores.Ledgers, nil, logger)
	settlement := services.NewSettlementService(stores.Expenses, stores.Friends, stores.Users, nil, logger)
	srv := NewServer(":0", ledger, settlement, stores.Users, logger)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set(headerUserID, userID)
		req.Header.Set(headerUserName, "User "+userID)
		req.Header.Set(headerUserEmail, userID+"@example.com")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestServer_IdentityRequired(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/dashboard/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestServer_DashboardFlow(t *testing.T) {
	srv := newTestServer(t)

	t.Run("first access creates a ledger with defaults", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/dashboard/", "alice", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		l := decodeBody[core.Ledger](t, rec)
		if len(l.Categories) != len(core.DefaultCategories()) {
			t.Errorf("len(Categories) = %d, want %d", len(l.Categories), len(core.DefaultCategories()))
		}
	})

	t.Run("add income then expense", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/dashboard/transactions", "alice", map[string]any{
			"type":        "income",
			"amount":      "250.00",
			"description": "salary",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("income status = %d: %s", rec.Code, rec.Body.String())
		}

		rec = doRequest(t, srv, http.MethodPost, "/api/dashboard/transactions", "alice", map[string]any{
			"type":        "expense",
			"amount":      75.5,
			"category":    "Food",
			"description": "groceries",
			"date":        "2024-04-02",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expense status = %d: %s", rec.Code, rec.Body.String())
		}
		l := decodeBody[core.Ledger](t, rec)
		if l.Balance != 17450 {
			t.Errorf("Balance = %d, want 17450", l.Balance)
		}
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/dashboard/transactions", "alice", map[string]any{
			"type":        "expense",
			"amount":      "10.00",
			"category":    "Yachts",
			"description": "boat",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("add category", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/dashboard/categories", "alice", map[string]any{
			"category": "Travel",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		l := decodeBody[core.Ledger](t, rec)
		if !l.HasCategory("Travel") {
			t.Error("Travel should be a category")
		}
	})

	t.Run("edit adjusts balance", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/dashboard/", "alice", nil)
		l := decodeBody[core.Ledger](t, rec)
		id := l.Expenses[0].ID

		rec = doRequest(t, srv, http.MethodPut, "/api/dashboard/transactions/"+id, "alice", map[string]any{
			"amount": "80.00",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		l = decodeBody[core.Ledger](t, rec)
		if l.Balance != 17000 {
			t.Errorf("Balance = %d, want 17000", l.Balance)
		}
	})

	t.Run("delete unknown transaction", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodDelete, "/api/dashboard/transactions/nope", "alice", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("filter by category", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/dashboard/transactions/filter?category=Food", "alice", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		txs := decodeBody[[]core.Transaction](t, rec)
		if len(txs) != 1 || txs[0].Category != "Food" {
			t.Errorf("filtered = %v, want one Food expense", txs)
		}
	})

	t.Run("category delete cascades", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodDelete, "/api/dashboard/categories/Food", "alice", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		l := decodeBody[core.Ledger](t, rec)
		if l.HasCategory("Food") {
			t.Error("Food should be gone")
		}
		if len(l.Expenses) != 0 {
			t.Errorf("len(Expenses) = %d, want 0", len(l.Expenses))
		}
		if l.Balance != 25000 {
			t.Errorf("Balance = %d, want 25000", l.Balance)
		}
	})
}

func TestServer_SplitwiseFlow(t *testing.T) {
	srv := newTestServer(t)

	// Identity mirror is populated by request headers
	doRequest(t, srv, http.MethodGet, "/api/splitwise/current-user", "alice", nil)
	doRequest(t, srv, http.MethodGet, "/api/splitwise/current-user", "bob", nil)

	var expenseID string

	t.Run("create split expense", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/splitwise/expenses", "alice", map[string]any{
			"description": "dinner",
			"amount":      "90.00",
			"splitBetween": []map[string]any{
				{"user": "alice", "amount": "30.00"},
				{"user": "bob", "amount": "30.00"},
				{"user": "carol", "amount": "30.00"},
			},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		e := decodeBody[core.SharedExpense](t, rec)
		if e.PaidBy != "alice" {
			t.Errorf("PaidBy = %q, want alice", e.PaidBy)
		}
		expenseID = e.ID
	})

	t.Run("balances", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/splitwise/balances", "alice", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		report := decodeBody[services.BalanceReport](t, rec)
		if report.YouAreOwed != 6000 || report.NetBalance != 6000 {
			t.Errorf("report = %+v, want owed 6000", report)
		}
	})

	t.Run("uninvolved delete is forbidden", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodDelete, "/api/splitwise/expenses/"+expenseID, "mallory", nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("participant delete succeeds", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodDelete, "/api/splitwise/expenses/"+expenseID, "bob", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("friend lifecycle", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/splitwise/friends", "alice", map[string]any{
			"email": "bob@example.com",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("add friend status = %d: %s", rec.Code, rec.Body.String())
		}

		rec = doRequest(t, srv, http.MethodPost, "/api/splitwise/friends", "bob", map[string]any{
			"email": "alice@example.com",
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("reverse add status = %d, want 409: %s", rec.Code, rec.Body.String())
		}

		rec = doRequest(t, srv, http.MethodGet, "/api/splitwise/friends", "alice", nil)
		friends := decodeBody[[]core.User](t, rec)
		if len(friends) != 1 || friends[0].ID != "bob" {
			t.Errorf("friends = %v, want [bob]", friends)
		}

		rec = doRequest(t, srv, http.MethodDelete, "/api/splitwise/friends/bob", "alice", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("remove status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("self friend rejected", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/splitwise/friends", "alice", map[string]any{
			"email": "alice@example.com",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("user search excludes requester", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/splitwise/users/search?query=example.com", "alice", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		users := decodeBody[[]core.User](t, rec)
		for _, u := range users {
			if u.ID == "alice" {
				t.Error("search should exclude the requester")
			}
		}
	})
}

func TestServer_InvalidBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/dashboard/transactions", bytes.NewBufferString("{not json"))
	req.Header.Set(headerUserID, "alice")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
