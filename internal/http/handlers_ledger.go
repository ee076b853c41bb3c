package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
	"github.com/Avishkar0827/Expense-Manager/internal/services"
)

type addTransactionRequest struct {
	Type        core.TransactionKind `json:"type"`
	Amount      core.Money           `json:"amount"`
	Category    string               `json:"category"`
	Description string               `json:"description"`
	Date        string               `json:"date"`
}

type editTransactionRequest struct {
	Amount      *core.Money `json:"amount"`
	Category    *string     `json:"category"`
	Description *string     `json:"description"`
	Date        *string     `json:"date"`
}

type addCategoryRequest struct {
	Category string `json:"category"`
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledger.GetLedger(r.Context(), requestUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req addTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	l, err := s.ledger.AddTransaction(r.Context(), requestUser(r), services.NewTransaction{
		Kind:        req.Type,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	var req editTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	patch := services.TransactionPatch{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		patch.Date = &date
	}

	l, err := s.ledger.EditTransaction(r.Context(), requestUser(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledger.DeleteTransaction(r.Context(), requestUser(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleFilterTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("startDate"))
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseDate(q.Get("endDate"))
	if err != nil {
		writeError(w, err)
		return
	}

	txs, err := s.ledger.ListTransactions(r.Context(), requestUser(r), core.TransactionFilter{
		Category: q.Get("category"),
		From:     from,
		To:       to,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	l, err := s.ledger.AddCategory(r.Context(), requestUser(r), req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledger.DeleteCategory(r.Context(), requestUser(r), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}
