package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Avishkar0827/Expense-Manager/internal/amqp"
	"github.com/Avishkar0827/Expense-Manager/internal/core"
	"github.com/Avishkar0827/Expense-Manager/internal/log"
	"github.com/Avishkar0827/Expense-Manager/internal/storage"
)

// LedgerService orchestrates private-ledger mutations: every write
// pairs the collection change with its balance delta, verifies the
// balance invariant on the result and publishes a mutation event.
type LedgerService struct {
	ledgers    storage.LedgerStore
	amqpClient *amqp.Client
	logger     *log.Logger
}

func NewLedgerService(ledgers storage.LedgerStore, amqpClient *amqp.Client, logger *log.Logger) *LedgerService {
	return &LedgerService{
		ledgers:    ledgers,
		amqpClient: amqpClient,
		logger:     logger.WithComponent(log.ComponentLedger),
	}
}

// NewTransaction carries the caller-supplied fields of a ledger entry.
type NewTransaction struct {
	Kind        core.TransactionKind
	Amount      core.Money
	Category    string
	Description string
	Date        time.Time
}

// TransactionPatch carries the optional fields of an edit. Nil means
// keep the stored value.
type TransactionPatch struct {
	Amount      *core.Money
	Category    *string
	Description *string
	Date        *time.Time
}

// signedEffect is the transaction's contribution to the balance.
func signedEffect(t core.Transaction) core.Money {
	if t.Kind == core.KindIncome {
		return t.Amount
	}
	return -t.Amount
}

// GetLedger returns the owner's ledger, creating it on first access.
func (s *LedgerService) GetLedger(ctx context.Context, owner string) (core.Ledger, error) {
	return s.ledgers.GetOrCreate(ctx, owner)
}

// ListTransactions returns the merged, filtered history newest-first.
func (s *LedgerService) ListTransactions(ctx context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error) {
	l, err := s.ledgers.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return l.Transactions(f), nil
}

// AddTransaction validates the entry against the owner's category set,
// appends it and moves the balance by its signed amount.
func (s *LedgerService) AddTransaction(ctx context.Context, owner string, in NewTransaction) (core.Ledger, error) {
	l, err := s.ledgers.GetOrCreate(ctx, owner)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}

	t := core.Transaction{
		ID:          uuid.NewString(),
		Kind:        in.Kind,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
	}
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	if err := t.Validate(l.Categories); err != nil {
		return core.Ledger{}, err
	}

	updated, err := s.ledgers.AppendTransaction(ctx, owner, t, signedEffect(t))
	if err != nil {
		return core.Ledger{}, fmt.Errorf("append transaction: %w", err)
	}
	if err := updated.CheckBalance(); err != nil {
		return core.Ledger{}, err
	}

	s.publish(ctx, amqp.NewEvent(amqp.EventTransactionAdded, owner, t.ID, int64(signedEffect(t))))
	s.logger.InfoContext(ctx, "Transaction added",
		log.FieldUserID, owner,
		log.FieldTransactionID, t.ID,
		log.FieldKind, string(t.Kind),
		log.FieldAmountCents, int64(t.Amount),
		log.FieldBalanceCents, int64(updated.Balance))
	return updated, nil
}

// EditTransaction applies the patch to the entry with the given id and
// moves the balance by the difference between the old and new effect.
// A category patch on an income entry is ignored; on an expense it must
// name a member of the category set.
func (s *LedgerService) EditTransaction(ctx context.Context, owner, id string, patch TransactionPatch) (core.Ledger, error) {
	l, err := s.ledgers.GetOrCreate(ctx, owner)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}

	t, ok := l.FindTransaction(id)
	if !ok {
		return core.Ledger{}, core.NotFoundf("transaction %s", id)
	}
	oldEffect := signedEffect(t)

	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Category != nil && t.Kind == core.KindExpense {
		t.Category = *patch.Category
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if err := t.Validate(l.Categories); err != nil {
		return core.Ledger{}, err
	}

	updated, err := s.ledgers.ReplaceTransaction(ctx, owner, t, signedEffect(t)-oldEffect)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("replace transaction: %w", err)
	}
	if err := updated.CheckBalance(); err != nil {
		return core.Ledger{}, err
	}

	s.publish(ctx, amqp.NewEvent(amqp.EventTransactionEdited, owner, id, int64(signedEffect(t)-oldEffect)))
	s.logger.InfoContext(ctx, "Transaction edited",
		log.FieldUserID, owner,
		log.FieldTransactionID, id,
		log.FieldBalanceCents, int64(updated.Balance))
	return updated, nil
}

// DeleteTransaction removes the entry and reverses its balance effect.
func (s *LedgerService) DeleteTransaction(ctx context.Context, owner, id string) (core.Ledger, error) {
	l, err := s.ledgers.GetOrCreate(ctx, owner)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}

	t, ok := l.FindTransaction(id)
	if !ok {
		return core.Ledger{}, core.NotFoundf("transaction %s", id)
	}

	updated, err := s.ledgers.RemoveTransaction(ctx, owner, t.Kind, id, -signedEffect(t))
	if err != nil {
		return core.Ledger{}, fmt.Errorf("remove transaction: %w", err)
	}
	if err := updated.CheckBalance(); err != nil {
		return core.Ledger{}, err
	}

	s.publish(ctx, amqp.NewEvent(amqp.EventTransactionDeleted, owner, id, int64(-signedEffect(t))))
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldUserID, owner,
		log.FieldTransactionID, id,
		log.FieldBalanceCents, int64(updated.Balance))
	return updated, nil
}

// AddCategory adds a category name to the owner's set. Adding an
// existing name is a no-op.
func (s *LedgerService) AddCategory(ctx context.Context, owner, name string) (core.Ledger, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Ledger{}, core.Validationf("category name is required")
	}

	updated, err := s.ledgers.AddCategory(ctx, owner, name)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("add category: %w", err)
	}

	s.publish(ctx, amqp.NewEvent(amqp.EventCategoryAdded, owner, name, 0))
	s.logger.InfoContext(ctx, "Category added",
		log.FieldUserID, owner,
		log.FieldCategory, name)
	return updated, nil
}

// DeleteCategory removes the category, cascades the delete to every
// expense tagged with it and recomputes the balance from the survivors.
func (s *LedgerService) DeleteCategory(ctx context.Context, owner, name string) (core.Ledger, error) {
	l, err := s.ledgers.GetOrCreate(ctx, owner)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}
	if !l.HasCategory(name) {
		return core.Ledger{}, core.NotFoundf("category %q", name)
	}

	updated, err := s.ledgers.RemoveCategory(ctx, owner, name)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("remove category: %w", err)
	}
	if err := updated.CheckBalance(); err != nil {
		return core.Ledger{}, err
	}

	s.publish(ctx, amqp.NewEvent(amqp.EventCategoryDeleted, owner, name, 0))
	s.logger.InfoContext(ctx, "Category deleted",
		log.FieldUserID, owner,
		log.FieldCategory, name,
		log.FieldBalanceCents, int64(updated.Balance))
	return updated, nil
}

func (s *LedgerService) publish(ctx context.Context, event *amqp.Event) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			log.FieldEventType, event.Type,
			log.FieldError, err)
		// Don't fail the request, the write already succeeded
	}
}
