// Package http exposes the ledger and settlement services over a JSON
// API. Identity arrives on trusted headers set by the fronting auth
// layer; credentials never reach this process.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Avishkar0827/Expense-Manager/internal/log"
	"github.com/Avishkar0827/Expense-Manager/internal/services"
	"github.com/Avishkar0827/Expense-Manager/internal/storage"
)

type Server struct {
	http.Server

	ledger     *services.LedgerService
	settlement *services.SettlementService
	users      storage.UserStore
	logger     *log.Logger

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, ledger *services.LedgerService, settlement *services.SettlementService, users storage.UserStore, logger *log.Logger) *Server {
	s := &Server{
		ledger:      ledger,
		settlement:  settlement,
		users:       users,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogging)
	r.Use(s.securityHeaders)
	r.Use(s.rateLimit)

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.identity)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", s.handleGetLedger)
			r.Post("/categories", s.handleAddCategory)
			r.Delete("/categories/{name}", s.handleDeleteCategory)
			r.Get("/transactions/filter", s.handleFilterTransactions)
			r.Post("/transactions", s.handleAddTransaction)
			r.Put("/transactions/{id}", s.handleEditTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)
		})

		r.Route("/splitwise", func(r chi.Router) {
			r.Get("/current-user", s.handleCurrentUser)
			r.Get("/users/search", s.handleSearchUsers)
			r.Get("/balances", s.handleBalances)
			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleCreateExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)
			r.Get("/friends", s.handleListFriends)
			r.Post("/friends", s.handleAddFriend)
			r.Delete("/friends/{id}", s.handleRemoveFriend)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
