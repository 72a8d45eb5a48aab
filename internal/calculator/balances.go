package calculator

import "github.com/shopspring/decimal"

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	Amount decimal.Decimal
	PaidBy string
}

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	MemberID   string
	NetBalance decimal.Decimal // Positive = owed money, Negative = owes money
	TotalPaid  decimal.Decimal // Sum of counted expenses this member paid
	TotalOwed  decimal.Decimal // Sum of this member's equal shares
}

// ComputeBalances computes every current member's net balance over the full expense history.
//
// Algorithm:
//   - Every member starts at zero
//   - An expense counts only if its payer is still a member; otherwise it is dropped entirely
//   - A counted expense credits the payer with the full amount and debits every current
//     member (payer included) with amount / len(members)
//
// The result follows the order of members, with duplicates collapsed to their first
// occurrence. No members means no balances. Nothing is rounded here; callers round for display.
func ComputeBalances(members []string, expenses []ExpenseForBalance) []MemberBalance {
	index := make(map[string]int, len(members))
	balances := make([]MemberBalance, 0, len(members))
	for _, m := range members {
		if _, seen := index[m]; seen {
			continue
		}
		index[m] = len(balances)
		balances = append(balances, MemberBalance{
			MemberID:   m,
			NetBalance: decimal.Zero,
			TotalPaid:  decimal.Zero,
			TotalOwed:  decimal.Zero,
		})
	}
	if len(balances) == 0 {
		return balances
	}

	count := decimal.NewFromInt(int64(len(balances)))
	for _, expense := range expenses {
		payer, ok := index[expense.PaidBy]
		if !ok {
			// Payer has left the group: the expense no longer affects anyone.
			continue
		}

		balances[payer].TotalPaid = balances[payer].TotalPaid.Add(expense.Amount)

		share := expense.Amount.Div(count)
		for i := range balances {
			balances[i].TotalOwed = balances[i].TotalOwed.Add(share)
		}
	}

	for i := range balances {
		balances[i].NetBalance = balances[i].TotalPaid.Sub(balances[i].TotalOwed)
	}

	return balances
}

// BalanceMap converts ordered balances into a member ID to net balance mapping.
func BalanceMap(balances []MemberBalance) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(balances))
	for _, b := range balances {
		m[b.MemberID] = b.NetBalance
	}
	return m
}

// Sum returns the total of all net balances. It is zero (within Tolerance) whenever
// no expense was dropped for a departed payer.
func Sum(balances []MemberBalance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.NetBalance)
	}
	return total
}
