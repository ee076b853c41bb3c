package core

import "testing"

func TestComputeBalancesThreeWay(t *testing.T) {
	expenses := []SharedExpense{
		{
			ID:     "x1",
			Amount: 30000,
			PaidBy: "A",
			SplitBetween: []Split{
				{User: "A", Share: 10000},
				{User: "B", Share: 10000},
				{User: "C", Share: 10000},
			},
		},
	}

	a := ComputeBalances("A", expenses)
	if a.YouOwe != 0 || a.YouAreOwed != 20000 {
		t.Errorf("A: youOwe=%d youAreOwed=%d, want 0/20000", a.YouOwe, a.YouAreOwed)
	}
	if a.PerFriend["B"] != 10000 || a.PerFriend["C"] != 10000 {
		t.Errorf("A.perFriend = %v", a.PerFriend)
	}
	if a.Net() != 20000 {
		t.Errorf("A.Net() = %d, want 20000", a.Net())
	}

	b := ComputeBalances("B", expenses)
	if b.YouOwe != 10000 || b.YouAreOwed != 0 {
		t.Errorf("B: youOwe=%d youAreOwed=%d, want 10000/0", b.YouOwe, b.YouAreOwed)
	}
	if b.PerFriend["A"] != -10000 {
		t.Errorf("B.perFriend[A] = %d, want -10000", b.PerFriend["A"])
	}
	if b.Net() != -10000 {
		t.Errorf("B.Net() = %d, want -10000", b.Net())
	}
}

func TestComputeBalancesSymmetry(t *testing.T) {
	// For any two-party expense, P's view of Q must be the exact
	// negation of Q's view of P.
	shares := []Money{1, 50, 12345, 999999}
	for _, sq := range shares {
		expenses := []SharedExpense{
			{
				ID:     "e",
				Amount: sq * 2,
				PaidBy: "P",
				SplitBetween: []Split{
					{User: "P", Share: sq},
					{User: "Q", Share: sq},
				},
			},
		}
		p := ComputeBalances("P", expenses)
		q := ComputeBalances("Q", expenses)
		if p.PerFriend["Q"] != sq {
			t.Errorf("share %d: P.perFriend[Q] = %d, want %d", sq, p.PerFriend["Q"], sq)
		}
		if q.PerFriend["P"] != -sq {
			t.Errorf("share %d: Q.perFriend[P] = %d, want %d", sq, q.PerFriend["P"], -sq)
		}
		if p.PerFriend["Q"]+q.PerFriend["P"] != 0 {
			t.Errorf("share %d: views do not cancel", sq)
		}
	}
}

func TestComputeBalancesSelfShareExcluded(t *testing.T) {
	expenses := []SharedExpense{
		{
			ID:     "e",
			Amount: 200,
			PaidBy: "P",
			SplitBetween: []Split{
				{User: "P", Share: 100},
				{User: "Q", Share: 100},
			},
		},
	}
	p := ComputeBalances("P", expenses)
	if p.YouOwe != 0 {
		t.Errorf("payer self-share leaked into youOwe: %d", p.YouOwe)
	}
	if p.YouAreOwed != 100 {
		t.Errorf("youAreOwed = %d, want 100", p.YouAreOwed)
	}
	if _, ok := p.PerFriend["P"]; ok {
		t.Error("payer appears in own perFriend map")
	}
}

func TestComputeBalancesAggregatesAcrossExpenses(t *testing.T) {
	expenses := []SharedExpense{
		{ID: "1", Amount: 100, PaidBy: "A", SplitBetween: []Split{{User: "B", Share: 100}}},
		{ID: "2", Amount: 40, PaidBy: "B", SplitBetween: []Split{{User: "A", Share: 40}}},
		{ID: "3", Amount: 25, PaidBy: "A", SplitBetween: []Split{{User: "B", Share: 25}}},
	}
	a := ComputeBalances("A", expenses)
	if a.YouAreOwed != 125 || a.YouOwe != 40 {
		t.Errorf("A: youAreOwed=%d youOwe=%d, want 125/40", a.YouAreOwed, a.YouOwe)
	}
	if a.PerFriend["B"] != 85 {
		t.Errorf("A.perFriend[B] = %d, want 85", a.PerFriend["B"])
	}
	if a.Net() != 85 {
		t.Errorf("A.Net() = %d, want 85", a.Net())
	}
}

func TestComputeBalancesIgnoresUnrelatedExpenses(t *testing.T) {
	expenses := []SharedExpense{
		{ID: "1", Amount: 100, PaidBy: "X", SplitBetween: []Split{{User: "Y", Share: 100}}},
	}
	a := ComputeBalances("A", expenses)
	if a.YouOwe != 0 || a.YouAreOwed != 0 || len(a.PerFriend) != 0 {
		t.Errorf("unrelated expense contributed: %+v", a)
	}
}
