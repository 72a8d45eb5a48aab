package service

import (
	"context"
	"fmt"

	"github.com/mmynk/splitgroup/internal/calculator"
	"github.com/mmynk/splitgroup/internal/metrics"
	"github.com/mmynk/splitgroup/internal/models"
	"github.com/mmynk/splitgroup/internal/storage"
)

// groupLedger is a fully materialized snapshot of one group: current members,
// the whole expense history, and every user either of them references.
type groupLedger struct {
	group    *models.Group
	expenses []*models.Expense
	users    map[string]*models.User
}

// loadLedger reads a fresh snapshot. Balances are always recomputed from it;
// nothing derived is cached between calls.
func loadLedger(ctx context.Context, store storage.Store, group *models.Group) (*groupLedger, error) {
	expenses, err := store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	// Payers may have left the group but still need a name in the expense list.
	seen := make(map[string]bool, len(group.Members))
	ids := make([]string, 0, len(group.Members))
	for _, id := range group.Members {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, e := range expenses {
		if !seen[e.PaidBy] {
			seen[e.PaidBy] = true
			ids = append(ids, e.PaidBy)
		}
	}

	users, err := store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve member names: %w", err)
	}

	return &groupLedger{group: group, expenses: expenses, users: users}, nil
}

func (l *groupLedger) name(userID string) string {
	return models.DisplayNameFor(l.users, userID)
}

// balances runs the balance engine over the current members and full history,
// then plans settlements from the result.
func (l *groupLedger) balances(m *metrics.Metrics) ([]*MemberBalance, []*Settlement) {
	input := make([]calculator.ExpenseForBalance, len(l.expenses))
	for i, e := range l.expenses {
		input[i] = calculator.ExpenseForBalance{Amount: e.Amount, PaidBy: e.PaidBy}
	}

	memberBalances := calculator.ComputeBalances(l.group.Members, input)
	edges := calculator.PlanSettlements(memberBalances)
	if m != nil {
		m.SettlementTransfers.Observe(float64(len(edges)))
	}

	balances := make([]*MemberBalance, len(memberBalances))
	for i, b := range memberBalances {
		balances[i] = &MemberBalance{
			MemberID:    b.MemberID,
			DisplayName: l.name(b.MemberID),
			NetBalance:  b.NetBalance.Round(2),
			TotalPaid:   b.TotalPaid.Round(2),
			TotalOwed:   b.TotalOwed.Round(2),
		}
	}

	settlements := make([]*Settlement, len(edges))
	for i, e := range edges {
		settlements[i] = &Settlement{
			From:     e.From,
			FromName: l.name(e.From),
			To:       e.To,
			ToName:   l.name(e.To),
			Amount:   e.Amount,
		}
	}

	return balances, settlements
}

func (l *groupLedger) groupMessage() *Group {
	return toGroupMessage(l.group, l.users)
}

func (l *groupLedger) expenseMessages() []*Expense {
	out := make([]*Expense, len(l.expenses))
	for i, e := range l.expenses {
		out[i] = toExpenseMessage(e, l.name(e.PaidBy))
	}
	return out
}

func toGroupMessage(group *models.Group, users map[string]*models.User) *Group {
	members := make([]*Member, len(group.Members))
	for i, id := range group.Members {
		members[i] = &Member{ID: id, DisplayName: models.DisplayNameFor(users, id)}
	}
	return &Group{
		ID:        group.ID,
		Name:      group.Name,
		CreatedBy: group.CreatedBy,
		Members:   members,
		CreatedAt: group.CreatedAt,
	}
}

func toExpenseMessage(e *models.Expense, paidByName string) *Expense {
	return &Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount,
		PaidBy:      e.PaidBy,
		PaidByName:  paidByName,
		CreatedAt:   e.CreatedAt,
		CreatedBy:   e.CreatedBy,
	}
}

func toUserMessage(u *models.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}
