package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Avishkar0827/Expense-Manager/internal/amqp"
	"github.com/Avishkar0827/Expense-Manager/internal/core"
	"github.com/Avishkar0827/Expense-Manager/internal/log"
	"github.com/Avishkar0827/Expense-Manager/internal/storage"
)

// SettlementService orchestrates the shared-expense side: creating and
// deleting immutable shared expenses, managing the friend graph and
// netting multi-party debts on read.
type SettlementService struct {
	expenses   storage.SharedExpenseStore
	friends    storage.FriendshipStore
	users      storage.UserStore
	amqpClient *amqp.Client
	logger     *log.Logger
}

func NewSettlementService(
	expenses storage.SharedExpenseStore,
	friends storage.FriendshipStore,
	users storage.UserStore,
	amqpClient *amqp.Client,
	logger *log.Logger,
) *SettlementService {
	return &SettlementService{
		expenses:   expenses,
		friends:    friends,
		users:      users,
		amqpClient: amqpClient,
		logger:     logger.WithComponent(log.ComponentSettlement),
	}
}

// NewSharedExpense carries the caller-supplied fields of a shared
// expense. PaidBy and any split entry with an unset user default to
// the creator.
type NewSharedExpense struct {
	Description  string
	Amount       core.Money
	PaidBy       string
	SplitBetween []core.Split
	Date         time.Time
}

// FriendBalance is one friend's signed position toward the user.
// Positive means the friend owes the user.
type FriendBalance struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Balance core.Money `json:"balance"`
}

// BalanceReport is the netted view of a user's shared expenses.
type BalanceReport struct {
	YouOwe     core.Money      `json:"youOwe"`
	YouAreOwed core.Money      `json:"youAreOwed"`
	NetBalance core.Money      `json:"netBalance"`
	Friends    []FriendBalance `json:"friends"`
}

// CurrentUser returns the stored identity for id.
func (s *SettlementService) CurrentUser(ctx context.Context, id string) (core.User, error) {
	return s.users.FindByID(ctx, id)
}

// SearchUsers matches username or email case-insensitively, never
// returning the requester themselves.
func (s *SettlementService) SearchUsers(ctx context.Context, query, requesterID string) ([]core.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, core.Validationf("search query is required")
	}
	return s.users.Search(ctx, query, requesterID)
}

// CreateSharedExpense validates and stores an immutable shared expense.
// The sum of the shares is deliberately not checked against the amount:
// uneven splits are the caller's prerogative and the netting fold only
// ever consumes the shares.
func (s *SettlementService) CreateSharedExpense(ctx context.Context, creatorID string, in NewSharedExpense) (core.SharedExpense, error) {
	e := core.SharedExpense{
		ID:           uuid.NewString(),
		Description:  in.Description,
		Amount:       in.Amount,
		PaidBy:       in.PaidBy,
		SplitBetween: append([]core.Split(nil), in.SplitBetween...),
		Date:         in.Date,
	}
	if e.PaidBy == "" {
		e.PaidBy = creatorID
	}
	for i := range e.SplitBetween {
		if strings.TrimSpace(e.SplitBetween[i].User) == "" {
			e.SplitBetween[i].User = creatorID
		}
	}
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	if err := e.Validate(); err != nil {
		return core.SharedExpense{}, err
	}

	if err := s.expenses.Insert(ctx, e); err != nil {
		return core.SharedExpense{}, fmt.Errorf("insert shared expense: %w", err)
	}

	s.publish(ctx, amqp.NewEvent(amqp.EventExpenseShared, creatorID, e.ID, int64(e.Amount)))
	s.logger.InfoContext(ctx, "Shared expense created",
		log.FieldUserID, creatorID,
		log.FieldExpenseID, e.ID,
		log.FieldAmountCents, int64(e.Amount))
	return e, nil
}

// DeleteSharedExpense removes an expense. Only the payer or a split
// participant may delete it.
func (s *SettlementService) DeleteSharedExpense(ctx context.Context, requesterID, id string) error {
	e, err := s.expenses.Get(ctx, id)
	if err != nil {
		return err
	}
	if !e.Involves(requesterID) {
		return core.Unauthorizedf("user %s is not involved in expense %s", requesterID, id)
	}

	if err := s.expenses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete shared expense: %w", err)
	}

	s.publish(ctx, amqp.NewEvent(amqp.EventExpenseUnshared, requesterID, id, int64(e.Amount)))
	s.logger.InfoContext(ctx, "Shared expense deleted",
		log.FieldUserID, requesterID,
		log.FieldExpenseID, id)
	return nil
}

// ListExpenses returns every shared expense involving the user, newest
// first.
func (s *SettlementService) ListExpenses(ctx context.Context, userID string) ([]core.SharedExpense, error) {
	return s.expenses.ListForUser(ctx, userID)
}

// Balances nets the user's shared expenses into totals and a per-friend
// breakdown. The friends list follows the friendship relation: a friend
// with no shared expenses appears at zero, and an expense counterparty
// who is not a friend contributes to the totals but is not listed.
func (s *SettlementService) Balances(ctx context.Context, userID string) (BalanceReport, error) {
	expenses, err := s.expenses.ListForUser(ctx, userID)
	if err != nil {
		return BalanceReport{}, fmt.Errorf("list shared expenses: %w", err)
	}
	links, err := s.friends.ListForUser(ctx, userID)
	if err != nil {
		return BalanceReport{}, fmt.Errorf("list friendships: %w", err)
	}

	b := core.ComputeBalances(userID, expenses)
	report := BalanceReport{
		YouOwe:     b.YouOwe,
		YouAreOwed: b.YouAreOwed,
		NetBalance: b.Net(),
		Friends:    make([]FriendBalance, 0, len(links)),
	}

	for _, f := range links {
		id := f.Other(userID)
		name := id
		if u, err := s.users.FindByID(ctx, id); err == nil && u.Username != "" {
			name = u.Username
		}
		report.Friends = append(report.Friends, FriendBalance{ID: id, Name: name, Balance: b.PerFriend[id]})
	}
	sort.Slice(report.Friends, func(i, j int) bool {
		return report.Friends[i].ID < report.Friends[j].ID
	})
	return report, nil
}

// AddFriend links the requester to the user registered under email.
// The pair is undirected; adding it in either direction conflicts with
// an existing link.
func (s *SettlementService) AddFriend(ctx context.Context, requesterID, email string) (core.User, error) {
	email = strings.TrimSpace(email)
	if !core.ValidEmail(email) {
		return core.User{}, core.Validationf("invalid email address")
	}

	friend, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return core.User{}, err
	}
	if friend.ID == requesterID {
		return core.User{}, core.Validationf("cannot add yourself as a friend")
	}

	if err := s.friends.Insert(ctx, core.NewFriendship(requesterID, friend.ID)); err != nil {
		return core.User{}, err
	}

	s.publish(ctx, amqp.NewEvent(amqp.EventFriendAdded, requesterID, friend.ID, 0))
	s.logger.InfoContext(ctx, "Friend added",
		log.FieldUserID, requesterID,
		log.FieldFriendID, friend.ID)
	return friend, nil
}

// RemoveFriend unlinks the pair. Shared expenses between the two are
// left untouched; the netting fold still sees them.
func (s *SettlementService) RemoveFriend(ctx context.Context, requesterID, friendID string) error {
	if err := s.friends.Delete(ctx, core.NewFriendship(requesterID, friendID)); err != nil {
		return err
	}

	s.publish(ctx, amqp.NewEvent(amqp.EventFriendRemoved, requesterID, friendID, 0))
	s.logger.InfoContext(ctx, "Friend removed",
		log.FieldUserID, requesterID,
		log.FieldFriendID, friendID)
	return nil
}

// ListFriends resolves the requester's friend links to identities.
// Links whose counterpart has no stored identity resolve to a bare ID.
func (s *SettlementService) ListFriends(ctx context.Context, userID string) ([]core.User, error) {
	links, err := s.friends.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}

	out := make([]core.User, 0, len(links))
	for _, f := range links {
		other := f.Other(userID)
		u, err := s.users.FindByID(ctx, other)
		if err != nil {
			if core.IsNotFound(err) {
				u = core.User{ID: other}
			} else {
				return nil, fmt.Errorf("resolve friend %s: %w", other, err)
			}
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *SettlementService) publish(ctx context.Context, event *amqp.Event) {
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
