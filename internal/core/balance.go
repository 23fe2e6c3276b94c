package core

import (
	"math"
	"sort"
)

// GroupBalance is the derived view of a group: its allocation ceiling and
// the amount still available after netting transactions against it.
type GroupBalance struct {
	Group
	MaxAmount Money
	Available Money
}

// Summary is the user-wide derived view.
type Summary struct {
	GeneralMax     Money
	TotalAvailable Money
}

// MaxAmount computes a group's allocation ceiling: the group's percentage
// share of the general limit, rounded half-up to whole cents.
func MaxAmount(limit Money, percentage float64) Money {
	return Money{Cents: int64(math.Round(float64(limit.Cents) * percentage / 100.0))}
}

// ComputeBalances derives per-group balances from the general limit and the
// signed per-group nets (income minus expense, in cents). Groups missing
// from nets have no transactions yet. Pure aggregation: calling it twice
// over the same inputs yields identical results.
func ComputeBalances(limit Money, groups []Group, nets map[string]int64) []GroupBalance {
	out := make([]GroupBalance, 0, len(groups))
	for _, g := range groups {
		maxAmt := MaxAmount(limit, g.Percentage)
		out = append(out, GroupBalance{
			Group:     g,
			MaxAmount: maxAmt,
			Available: Money{Cents: maxAmt.Cents + nets[g.ID]},
		})
	}
	return out
}

// ComputeSummary derives the user-wide summary. Ungrouped transactions do
// not belong to any group's balance; their net folds directly into the
// total availability.
func ComputeSummary(limit Money, balances []GroupBalance, ungroupedNet int64) Summary {
	total := ungroupedNet
	for _, b := range balances {
		total += b.Available.Cents
	}
	return Summary{
		GeneralMax:     limit,
		TotalAvailable: Money{Cents: total},
	}
}

// NetByGroup folds a transaction list into signed per-group nets plus the
// net of ungrouped transactions. Useful for stores that materialize rows
// instead of aggregating in SQL.
func NetByGroup(txs []Transaction) (nets map[string]int64, ungrouped int64) {
	nets = make(map[string]int64)
	for _, tx := range txs {
		if tx.GroupID == "" {
			ungrouped += tx.Signed()
			continue
		}
		nets[tx.GroupID] += tx.Signed()
	}
	return nets, ungrouped
}

// SortGroupsByName orders groups by name ascending, the listing order the
// UI expects.
func SortGroupsByName(groups []Group) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
}

// SortTransactionsNewestFirst orders transactions by creation time
// descending.
func SortTransactionsNewestFirst(txs []Transaction) {
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
}
