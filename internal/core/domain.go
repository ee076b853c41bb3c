package core

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// MaxDescriptionLen bounds transaction descriptions.
const MaxDescriptionLen = 100

type (
	// TransactionKind is the tagged variant splitting incomes from
	// expenses. Category is only meaningful on the expense branch.
	TransactionKind string

	// Transaction is a single entry in one user's private ledger.
	Transaction struct {
		ID          string          `json:"id"`
		Kind        TransactionKind `json:"type"`
		Amount      Money           `json:"amount"`
		Category    string          `json:"category,omitempty"`
		Description string          `json:"description"`
		Date        time.Time       `json:"date"`
	}

	// Ledger is one user's complete record: ordered incomes and
	// expenses, the category set and the running balance. The balance
	// is maintained incrementally with every mutation; it is never
	// recomputed lazily except by the category cascade.
	Ledger struct {
		Owner      string        `json:"owner"`
		Incomes    []Transaction `json:"incomes"`
		Expenses   []Transaction `json:"expenses"`
		Categories []string      `json:"categories"`
		Balance    Money         `json:"balance"`
	}

	// Split is one participant's share of a shared expense.
	Split struct {
		User  string `json:"user"`
		Share Money  `json:"amount"`
	}

	// SharedExpense is an expense paid by one user and apportioned
	// across participants. Immutable once created; the only lifecycle
	// operation after creation is full deletion.
	SharedExpense struct {
		ID           string    `json:"id"`
		Description  string    `json:"description"`
		Amount       Money     `json:"amount"`
		PaidBy       string    `json:"paidBy"`
		SplitBetween []Split   `json:"splitBetween"`
		Date         time.Time `json:"date"`
	}

	// Friendship is an undirected, deduplicated pair of users. Stores
	// keep it in normalized form (UserA < UserB).
	Friendship struct {
		UserA string `json:"userA"`
		UserB string `json:"userB"`
	}

	// User mirrors the identity supplied by the external auth
	// collaborator; the engine never validates credentials.
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	// TransactionFilter selects a subset of a ledger's merged entries.
	// Category matches expense entries only; both date bounds are
	// inclusive and optional.
	TransactionFilter struct {
		Category string
		From     time.Time
		To       time.Time
	}
)

var emailRe = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// DefaultCategories is the seed set every new ledger starts with.
func DefaultCategories() []string {
	return []string{"Food", "Transportation", "Entertainment", "Shopping", "Bills"}
}

// NewLedger returns an empty ledger for owner with the default
// category set.
func NewLedger(owner string) Ledger {
	return Ledger{
		Owner:      owner,
		Categories: DefaultCategories(),
	}
}

// Validate checks a transaction against the owning ledger's category
// set. Expense entries must carry a category that is a member of the
// set; income entries must not carry one.
func (t Transaction) Validate(categories []string) error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(t.Description) > MaxDescriptionLen {
		return Validationf("description too long (max %d characters)", MaxDescriptionLen)
	}
	switch t.Kind {
	case KindExpense:
		if strings.TrimSpace(t.Category) == "" {
			return Validationf("category is required for expenses")
		}
		if !contains(categories, t.Category) {
			return Validationf("unknown category %q", t.Category)
		}
	case KindIncome:
		if t.Category != "" {
			return Validationf("income entries cannot carry a category")
		}
	}
	return nil
}

// HasCategory reports membership in the ledger's category set.
func (l Ledger) HasCategory(name string) bool {
	return contains(l.Categories, name)
}

// FindTransaction searches both sub-ledgers by id.
func (l Ledger) FindTransaction(id string) (Transaction, bool) {
	for _, t := range l.Incomes {
		if t.ID == id {
			return t, true
		}
	}
	for _, t := range l.Expenses {
		if t.ID == id {
			return t, true
		}
	}
	return Transaction{}, false
}

// RecomputeBalance folds over both sub-ledgers. Used by the category
// cascade, where an unbounded number of entries may disappear at once,
// and by the defensive invariant check.
func (l Ledger) RecomputeBalance() Money {
	var sum Money
	for _, t := range l.Incomes {
		sum += t.Amount
	}
	for _, t := range l.Expenses {
		sum -= t.Amount
	}
	return sum
}

// CheckBalance verifies balance == sum(incomes) - sum(expenses).
func (l Ledger) CheckBalance() error {
	if want := l.RecomputeBalance(); l.Balance != want {
		return Invariantf("ledger %s balance is %s, transactions sum to %s", l.Owner, l.Balance, want)
	}
	return nil
}

// Transactions merges incomes and expenses, applies the filter and
// returns the result newest-first. It never mutates the ledger.
func (l Ledger) Transactions(f TransactionFilter) []Transaction {
	merged := make([]Transaction, 0, len(l.Incomes)+len(l.Expenses))
	merged = append(merged, l.Incomes...)
	merged = append(merged, l.Expenses...)

	out := merged[:0]
	for _, t := range merged {
		if f.Category != "" && (t.Kind != KindExpense || t.Category != f.Category) {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && t.Date.After(f.To) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Validate checks the creation-time rules for a shared expense. The
// sum of shares is deliberately not compared against the amount; see
// the settlement service for the rationale.
func (e SharedExpense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(e.SplitBetween) == 0 {
		return Validationf("splitBetween cannot be empty")
	}
	if strings.TrimSpace(e.PaidBy) == "" {
		return Validationf("paidBy is required")
	}
	for _, s := range e.SplitBetween {
		if strings.TrimSpace(s.User) == "" {
			return Validationf("split participant is required")
		}
		if err := s.Share.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Involves reports whether user is the payer or a split participant.
func (e SharedExpense) Involves(user string) bool {
	if e.PaidBy == user {
		return true
	}
	for _, s := range e.SplitBetween {
		if s.User == user {
			return true
		}
	}
	return false
}

// NewFriendship returns the normalized pair for a and b.
func NewFriendship(a, b string) Friendship {
	if b < a {
		a, b = b, a
	}
	return Friendship{UserA: a, UserB: b}
}

// Involves reports whether u is one of the two parties.
func (f Friendship) Involves(u string) bool {
	return f.UserA == u || f.UserB == u
}

// Other returns the counterpart of u in the pair.
func (f Friendship) Other(u string) string {
	if f.UserA == u {
		return f.UserB
	}
	return f.UserA
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
