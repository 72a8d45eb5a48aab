// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/splitgroup/internal/models"
)

// Store defines the persistence operations the services depend on.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Lookups of absent records return an error wrapping models.ErrNotFound.
type Store interface {
	UserStore

	// CreateGroup persists a new group with its creator as the only member.
	// The group.ID, CreatedAt and Members fields will be populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members in insertion order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForMember returns the groups userID belongs to, newest first.
	ListGroupsForMember(ctx context.Context, userID string) ([]*models.Group, error)

	// AddGroupMember appends userID to the group's member set.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// RemoveGroupMember removes userID from the group's member set.
	RemoveGroupMember(ctx context.Context, groupID, userID string) error

	// CreateExpense persists a new expense. ID and CreatedAt are populated if empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpensesByGroup returns the group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// Close releases any resources held by the store.
	Close() error
}

// UserStore is the user directory.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to User. Unknown IDs are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}
