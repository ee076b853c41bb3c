package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
	"github.com/Avishkar0827/Expense-Manager/internal/services"
)

type createExpenseRequest struct {
	Description  string       `json:"description"`
	Amount       core.Money   `json:"amount"`
	PaidBy       string       `json:"paidBy"`
	SplitBetween []core.Split `json:"splitBetween"`
	Date         string       `json:"date"`
}

type addFriendRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.settlement.CurrentUser(r.Context(), requestUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.settlement.SearchUsers(r.Context(), r.URL.Query().Get("query"), requestUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	report, err := s.settlement.Balances(r.Context(), requestUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.settlement.ListExpenses(r.Context(), requestUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if expenses == nil {
		expenses = []core.SharedExpense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	e, err := s.settlement.CreateSharedExpense(r.Context(), requestUser(r), services.NewSharedExpense{
		Description:  req.Description,
		Amount:       req.Amount,
		PaidBy:       req.PaidBy,
		SplitBetween: req.SplitBetween,
		Date:         date,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.settlement.DeleteSharedExpense(r.Context(), requestUser(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := s.settlement.ListFriends(r.Context(), requestUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var req addFriendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	friend, err := s.settlement.AddFriend(r.Context(), requestUser(r), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, friend)
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	if err := s.settlement.RemoveFriend(r.Context(), requestUser(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
