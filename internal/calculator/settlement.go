package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Tolerance is the amount below which a balance or transfer is treated as settled noise.
var Tolerance = decimal.New(1, -2)

// DebtEdge represents a suggested transfer from one member to another.
type DebtEdge struct {
	From   string          // Member who owes
	To     string          // Member who is owed
	Amount decimal.Decimal // Rounded to 2 decimal places
}

type party struct {
	memberID  string
	remaining decimal.Decimal
}

// PlanSettlements produces the list of transfers that zeroes out the given balances.
//
// Algorithm (greedy, largest amounts first):
//   - Drop members whose |balance| <= Tolerance
//   - Creditors (balance > 0) sorted descending, debtors (balance < 0) sorted ascending;
//     ties keep the input order
//   - Walk both lists with one cursor each, settling min(credit, |debt|) per step and
//     advancing whichever side fell below Tolerance
//
// Remaining amounts are tracked at full precision; only emitted amounts are rounded.
func PlanSettlements(balances []MemberBalance) []DebtEdge {
	var creditors, debtors []party
	for _, b := range balances {
		if b.NetBalance.Abs().LessThanOrEqual(Tolerance) {
			continue
		}
		p := party{memberID: b.MemberID, remaining: b.NetBalance}
		if b.NetBalance.IsPositive() {
			creditors = append(creditors, p)
		} else {
			debtors = append(debtors, p)
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool {
		return creditors[i].remaining.GreaterThan(creditors[j].remaining)
	})
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].remaining.LessThan(debtors[j].remaining)
	})

	edges := []DebtEdge{}
	c, d := 0, 0
	for c < len(creditors) && d < len(debtors) {
		creditor := &creditors[c]
		debtor := &debtors[d]

		amount := decimal.Min(creditor.remaining, debtor.remaining.Abs())

		if amount.GreaterThan(Tolerance) {
			edges = append(edges, DebtEdge{
				From:   debtor.memberID,
				To:     creditor.memberID,
				Amount: amount.Round(2),
			})
		}

		creditor.remaining = creditor.remaining.Sub(amount)
		debtor.remaining = debtor.remaining.Add(amount)

		if creditor.remaining.LessThan(Tolerance) {
			c++
		}
		if debtor.remaining.Abs().LessThan(Tolerance) {
			d++
		}
	}

	return edges
}

// Apply credits each edge's receiver and debits its payer, returning the resulting balances.
// Applying a plan from PlanSettlements leaves every balance within Tolerance of zero.
func Apply(balances []MemberBalance, edges []DebtEdge) map[string]decimal.Decimal {
	result := BalanceMap(balances)
	for _, e := range edges {
		result[e.From] = result[e.From].Add(e.Amount)
		result[e.To] = result[e.To].Sub(e.Amount)
	}
	return result
}
