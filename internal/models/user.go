package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account. Its ID is the member ID used in groups.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's lowercased email address (unique).
	Email string

	// DisplayName is the name shown to other group members.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last profile change.
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail trims and lowercases an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseEmail normalizes an email address and rejects malformed input.
func ParseEmail(email string) (string, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", fmt.Errorf("%w: malformed email %q", ErrInvalidInput, email)
	}
	return normalized, nil
}

// DisplayNameFor resolves a member ID to a human-readable name.
// It falls back to the email's local part, then to a truncated ID
// when the user is unknown or has no name.
func DisplayNameFor(users map[string]*User, userID string) string {
	if u, ok := users[userID]; ok && u != nil {
		if u.DisplayName != "" {
			return u.DisplayName
		}
		if local, _, found := strings.Cut(u.Email, "@"); found && local != "" {
			return local
		}
	}
	if len(userID) > 8 {
		return userID[:8]
	}
	return userID
}
