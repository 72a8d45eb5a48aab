// Package membership holds the authorization guards for group membership and
// expense submission. Every guard takes the acting user explicitly.
package membership

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitgroup/internal/models"
)

// CheckView verifies the acting user may read the group, its expenses and balances.
func CheckView(group *models.Group, actingUser string) error {
	if !group.HasMember(actingUser) {
		return fmt.Errorf("%w: you must be a member of this group", models.ErrUnauthorized)
	}
	return nil
}

// CheckAdd verifies the acting user may add target to the group.
// The creator or any existing member may add; target must not already be a member.
// Whether target exists in the user directory is the caller's concern.
func CheckAdd(group *models.Group, actingUser, target string) error {
	if err := CheckAddPermission(group, actingUser); err != nil {
		return err
	}
	if group.HasMember(target) {
		return fmt.Errorf("%w: user is already a member of this group", models.ErrInvalidInput)
	}
	return nil
}

// CheckAddPermission verifies the acting user may add members at all. Services call it
// before resolving the target so outsiders cannot probe the user directory.
func CheckAddPermission(group *models.Group, actingUser string) error {
	if actingUser != group.CreatedBy && !group.HasMember(actingUser) {
		return fmt.Errorf("%w: you do not have permission to add members to this group", models.ErrUnauthorized)
	}
	return nil
}

// CheckRemove verifies the acting user may remove target from the group.
// Only the creator may remove, and never themselves.
func CheckRemove(group *models.Group, actingUser, target string) error {
	if actingUser != group.CreatedBy {
		return fmt.Errorf("%w: only the group creator can remove members", models.ErrUnauthorized)
	}
	if target == group.CreatedBy {
		return fmt.Errorf("%w: the creator cannot be removed from the group", models.ErrInvalidInput)
	}
	if !group.HasMember(target) {
		return fmt.Errorf("%w: user is not a member of this group", models.ErrNotFound)
	}
	return nil
}

// ExpenseInput is an unvalidated expense submission.
type ExpenseInput struct {
	Description string
	Amount      string
	PaidBy      string
}

// ValidateExpense checks an expense submission against the group's current state and
// returns the expense to store (without ID or timestamp).
func ValidateExpense(group *models.Group, actingUser string, in ExpenseInput) (*models.Expense, error) {
	if !group.HasMember(actingUser) {
		return nil, fmt.Errorf("%w: you must be a member to add expenses", models.ErrUnauthorized)
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", models.ErrInvalidInput)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q is not a number", models.ErrInvalidInput, in.Amount)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidInput)
	}

	if in.PaidBy == "" {
		return nil, fmt.Errorf("%w: payer is required", models.ErrInvalidInput)
	}
	if !group.HasMember(in.PaidBy) {
		return nil, fmt.Errorf("%w: payer must be a member of the group", models.ErrInvalidInput)
	}

	return &models.Expense{
		GroupID:     group.ID,
		Description: description,
		Amount:      amount,
		PaidBy:      in.PaidBy,
		CreatedBy:   actingUser,
	}, nil
}
