package models

import "github.com/shopspring/decimal"

// Expense is an immutable record of money paid by one member on behalf of the group.
// Expenses are append-only; there is no edit or delete.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is a non-empty, trimmed label (e.g., "Groceries").
	Description string

	// Amount is the positive amount paid.
	Amount decimal.Decimal

	// PaidBy is the user ID of the payer. It referenced a member when the
	// expense was created, but the payer may have been removed since.
	PaidBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded this expense.
	CreatedBy string
}
