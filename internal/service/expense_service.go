package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitgroup/internal/feed"
	"github.com/mmynk/splitgroup/internal/membership"
	"github.com/mmynk/splitgroup/internal/metrics"
	"github.com/mmynk/splitgroup/internal/models"
	"github.com/mmynk/splitgroup/internal/storage"
)

// ExpenseService implements the ExpenseService RPC interface.
type ExpenseService struct {
	store    storage.Store
	notifier *feed.Notifier
	metrics  *metrics.Metrics
}

// NewExpenseService creates a new ExpenseService. New expenses are announced on notifier.
func NewExpenseService(store storage.Store, notifier *feed.Notifier, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{store: store, notifier: notifier, metrics: m}
}

// AddExpense records an expense paid by a current member.
func (s *ExpenseService) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"paid_by", req.Msg.PaidBy,
	)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	expense, err := membership.ValidateExpense(group, userID, membership.ExpenseInput{
		Description: req.Msg.Description,
		Amount:      req.Msg.Amount,
		PaidBy:      req.Msg.PaidBy,
	})
	if err != nil {
		slog.Warn("AddExpense rejected", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("AddExpense failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Publish(group.ID)

	payer, err := s.store.GetUsersByIDs(ctx, []string{expense.PaidBy})
	if err != nil {
		return nil, toConnectError(fmt.Errorf("failed to resolve payer name: %w", err))
	}

	slog.Info("Expense added", "expense_id", expense.ID, "group_id", group.ID)
	return connect.NewResponse(&AddExpenseResponse{
		Expense: toExpenseMessage(expense, models.DisplayNameFor(payer, expense.PaidBy)),
	}), nil
}

// ListExpenses returns the group's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListExpenses request received", "group_id", req.Msg.GroupID)

	group, err := viewableGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	ledger, err := loadLedger(ctx, s.store, group)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("ListExpenses successful", "group_id", group.ID, "count", len(ledger.expenses))
	return connect.NewResponse(&ListExpensesResponse{Expenses: ledger.expenseMessages()}), nil
}

// WatchExpenses streams a full snapshot of the group on open and again after every
// change to its expenses or membership. The stream ends when the client goes away or
// the caller stops being a member.
func (s *ExpenseService) WatchExpenses(ctx context.Context, req *connect.Request[WatchExpensesRequest], stream *connect.ServerStream[ExpenseSnapshot]) error {
	userID, err := actingUser(ctx)
	if err != nil {
		return err
	}
	groupID := req.Msg.GroupID
	slog.Info("WatchExpenses request received", "group_id", groupID, "user_id", userID)

	if _, err := viewableGroup(ctx, s.store, groupID, userID); err != nil {
		return toConnectError(err)
	}

	// Subscribe before the first snapshot so no change slips in between.
	changes, cancel := s.notifier.Subscribe(groupID)
	defer cancel()

	if s.metrics != nil {
		s.metrics.ActiveWatchers.Inc()
		defer s.metrics.ActiveWatchers.Dec()
	}

	for {
		snapshot, err := s.snapshot(ctx, groupID, userID)
		if err != nil {
			return toConnectError(err)
		}
		if err := stream.Send(snapshot); err != nil {
			slog.Debug("WatchExpenses send failed", "group_id", groupID, "error", err)
			return err
		}

		select {
		case <-ctx.Done():
			slog.Info("WatchExpenses closed", "group_id", groupID, "user_id", userID)
			return nil
		case <-changes:
		}
	}
}

// snapshot reloads the group and recomputes everything derived from it.
func (s *ExpenseService) snapshot(ctx context.Context, groupID, userID string) (*ExpenseSnapshot, error) {
	group, err := viewableGroup(ctx, s.store, groupID, userID)
	if err != nil {
		return nil, err
	}
	ledger, err := loadLedger(ctx, s.store, group)
	if err != nil {
		return nil, err
	}
	balances, settlements := ledger.balances(s.metrics)
	return &ExpenseSnapshot{
		Group:       ledger.groupMessage(),
		Expenses:    ledger.expenseMessages(),
		Balances:    balances,
		Settlements: settlements,
	}, nil
}
