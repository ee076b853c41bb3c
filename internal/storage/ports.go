// Package storage defines the persistence contracts of the ledger and
// settlement engine. Backends live in the subpackages memory, sqlite
// and mongo; services depend only on these interfaces.
package storage

import (
	"context"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
)

// LedgerStore persists one ledger document per owner. Every method
// that carries a balance delta must apply the collection mutation and
// the balance increment atomically, so concurrent writers never
// observe a torn state where the sub-ledger changed but the balance
// has not.
type LedgerStore interface {
	// GetOrCreate returns the owner's ledger, creating an empty one
	// with the default category set on first access.
	GetOrCreate(ctx context.Context, owner string) (core.Ledger, error)

	// AppendTransaction pushes tx onto the sub-ledger matching its
	// kind and increments the balance by delta in the same write.
	AppendTransaction(ctx context.Context, owner string, tx core.Transaction, delta core.Money) (core.Ledger, error)

	// ReplaceTransaction swaps the entry with tx.ID in place,
	// preserving position, and increments the balance by delta.
	// Fails with core.ErrNotFound if the id is absent.
	ReplaceTransaction(ctx context.Context, owner string, tx core.Transaction, delta core.Money) (core.Ledger, error)

	// RemoveTransaction pulls the entry with the given id from the
	// sub-ledger matching kind and increments the balance by delta.
	// Fails with core.ErrNotFound if the id is absent.
	RemoveTransaction(ctx context.Context, owner string, kind core.TransactionKind, id string, delta core.Money) (core.Ledger, error)

	// AddCategory adds name to the category set; adding an existing
	// name is a no-op, never an error.
	AddCategory(ctx context.Context, owner, name string) (core.Ledger, error)

	// RemoveCategory removes name from the category set, deletes
	// every expense tagged with it and recomputes the balance from
	// the remaining entries.
	RemoveCategory(ctx context.Context, owner, name string) (core.Ledger, error)
}

// SharedExpenseStore persists the shared-expense collection.
type SharedExpenseStore interface {
	Insert(ctx context.Context, e core.SharedExpense) error
	// Get fails with core.ErrNotFound if the id is absent.
	Get(ctx context.Context, id string) (core.SharedExpense, error)
	Delete(ctx context.Context, id string) error
	// ListForUser returns every expense where user is the payer or a
	// split participant, newest first.
	ListForUser(ctx context.Context, user string) ([]core.SharedExpense, error)
}

// FriendshipStore persists the deduplicated undirected friend pairs.
type FriendshipStore interface {
	// Insert fails with core.ErrConflict if the pair already exists
	// in either direction.
	Insert(ctx context.Context, f core.Friendship) error
	// Delete fails with core.ErrNotFound if the pair is absent.
	Delete(ctx context.Context, f core.Friendship) error
	ListForUser(ctx context.Context, user string) ([]core.Friendship, error)
}

// UserStore mirrors the identities supplied by the external auth
// collaborator, enabling add-friend-by-email and name resolution.
type UserStore interface {
	// Upsert inserts or refreshes the identity; empty fields on u
	// never overwrite stored non-empty values.
	Upsert(ctx context.Context, u core.User) error
	FindByID(ctx context.Context, id string) (core.User, error)
	FindByEmail(ctx context.Context, email string) (core.User, error)
	// Search matches username or email case-insensitively, excluding
	// excludeID.
	Search(ctx context.Context, query, excludeID string) ([]core.User, error)
}

// Stores bundles the four collaborators a backend provides.
type Stores struct {
	Ledgers  LedgerStore
	Expenses SharedExpenseStore
	Friends  FriendshipStore
	Users    UserStore
}
