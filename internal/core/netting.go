package core

// Balances is the result of netting a user's shared expenses: total
// owed and owing plus a signed per-friend breakdown. Positive entries
// in PerFriend mean the friend owes the user.
type Balances struct {
	YouOwe     Money
	YouAreOwed Money
	PerFriend  map[string]Money
}

// Net returns youAreOwed - youOwe.
func (b Balances) Net() Money {
	return b.YouAreOwed - b.YouOwe
}

// ComputeBalances folds over the shared expenses that involve user.
// For an expense the user paid, every other participant's share counts
// toward youAreOwed and toward that participant's positive entry. For
// an expense someone else paid, the user's own share counts toward
// youOwe and toward the payer's negative entry. A payer's own share in
// their split nets to zero by construction and never reaches PerFriend.
//
// This is a pure recompute-on-read fold: nothing is cached, so
// staleness is zero at O(expenses) per query.
func ComputeBalances(user string, expenses []SharedExpense) Balances {
	b := Balances{PerFriend: make(map[string]Money)}
	for _, e := range expenses {
		if e.PaidBy == user {
			for _, s := range e.SplitBetween {
				if s.User == user {
					continue
				}
				b.YouAreOwed += s.Share
				b.PerFriend[s.User] += s.Share
			}
			continue
		}
		for _, s := range e.SplitBetween {
			if s.User != user {
				continue
			}
			b.YouOwe += s.Share
			b.PerFriend[e.PaidBy] -= s.Share
			break
		}
	}
	return b
}
