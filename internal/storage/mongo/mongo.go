// Package mongo persists ledgers as single documents, mirroring the
// collection-per-concern layout of the document model: one ledger doc
// per owner with embedded transaction arrays, plus shared_expenses,
// friendships and users collections.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
	"github.com/Avishkar0827/Expense-Manager/internal/storage"
)

const (
	collLedgers     = "ledgers"
	collExpenses    = "shared_expenses"
	collFriendships = "friendships"
	collUsers       = "users"

	connectTimeout = 10 * time.Second
)

// Store provides the storage interfaces backed by a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// View types so one connection can satisfy interfaces that share
// method names.
type (
	ledgerStore  Store
	expenseStore Store
	friendStore  Store
	userStore    Store
)

// Open connects to MongoDB, verifies the connection and creates the
// indexes the stores rely on.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collUsers: {
			{
				Keys: bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "email", Value: bson.D{{Key: "$gt", Value: ""}}}}),
			},
		},
		collExpenses: {
			{Keys: bson.D{{Key: "paid_by", Value: 1}}},
			{Keys: bson.D{{Key: "split_between.user", Value: 1}}},
		},
		collFriendships: {
			{
				Keys:    bson.D{{Key: "user_a", Value: 1}, {Key: "user_b", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Stores returns the storage interfaces backed by this connection.
func (s *Store) Stores() storage.Stores {
	return storage.Stores{
		Ledgers:  (*ledgerStore)(s),
		Expenses: (*expenseStore)(s),
		Friends:  (*friendStore)(s),
		Users:    (*userStore)(s),
	}
}

// ---- document types ----

type txDoc struct {
	ID          string    `bson:"id"`
	Amount      int64     `bson:"amount_cents"`
	Category    string    `bson:"category,omitempty"`
	Description string    `bson:"description"`
	Date        time.Time `bson:"date"`
}

type ledgerDoc struct {
	Owner      string   `bson:"_id"`
	Incomes    []txDoc  `bson:"incomes"`
	Expenses   []txDoc  `bson:"expenses"`
	Categories []string `bson:"categories"`
	Balance    int64    `bson:"balance_cents"`
}

type splitDoc struct {
	User  string `bson:"user"`
	Share int64  `bson:"share_cents"`
}

type expenseDoc struct {
	ID           string     `bson:"_id"`
	Description  string     `bson:"description"`
	Amount       int64      `bson:"amount_cents"`
	PaidBy       string     `bson:"paid_by"`
	Date         time.Time  `bson:"date"`
	SplitBetween []splitDoc `bson:"split_between"`
}

type friendshipDoc struct {
	UserA     string    `bson:"user_a"`
	UserB     string    `bson:"user_b"`
	CreatedAt time.Time `bson:"created_at"`
}

type userDoc struct {
	ID       string `bson:"_id"`
	Username string `bson:"username"`
	Email    string `bson:"email"`
}

func toTxDoc(t core.Transaction) txDoc {
	return txDoc{
		ID:          t.ID,
		Amount:      int64(t.Amount),
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
	}
}

func (d txDoc) transaction(kind core.TransactionKind) core.Transaction {
	return core.Transaction{
		ID:          d.ID,
		Kind:        kind,
		Amount:      core.Money(d.Amount),
		Category:    d.Category,
		Description: d.Description,
		Date:        d.Date,
	}
}

func (d ledgerDoc) ledger() core.Ledger {
	l := core.Ledger{
		Owner:      d.Owner,
		Categories: d.Categories,
		Balance:    core.Money(d.Balance),
	}
	for _, t := range d.Incomes {
		l.Incomes = append(l.Incomes, t.transaction(core.KindIncome))
	}
	for _, t := range d.Expenses {
		l.Expenses = append(l.Expenses, t.transaction(core.KindExpense))
	}
	return l
}

func toExpenseDoc(e core.SharedExpense) expenseDoc {
	d := expenseDoc{
		ID:          e.ID,
		Description: e.Description,
		Amount:      int64(e.Amount),
		PaidBy:      e.PaidBy,
		Date:        e.Date,
	}
	for _, sp := range e.SplitBetween {
		d.SplitBetween = append(d.SplitBetween, splitDoc{User: sp.User, Share: int64(sp.Share)})
	}
	return d
}

func (d expenseDoc) expense() core.SharedExpense {
	e := core.SharedExpense{
		ID:          d.ID,
		Description: d.Description,
		Amount:      core.Money(d.Amount),
		PaidBy:      d.PaidBy,
		Date:        d.Date,
	}
	for _, sp := range d.SplitBetween {
		e.SplitBetween = append(e.SplitBetween, core.Split{User: sp.User, Share: core.Money(sp.Share)})
	}
	return e
}
