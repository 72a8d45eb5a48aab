package auth

import (
	"context"

	"github.com/mmynk/splitgroup/internal/models"
)

// Authenticator creates accounts and verifies credentials for AuthService.
// PasswordAuthenticator is the only implementation.
type Authenticator interface {
	// Register validates the email, display name and credential, then creates the user.
	// Fails with ErrEmailExists for a taken address, models.ErrInvalidInput for a
	// malformed one, ErrMissingName or ErrWeakPassword.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user whose credential matches. Every mismatch,
	// including an unknown email, is ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential reports whether credential is acceptable for a new account.
	ValidateCredential(credential string) error
}
