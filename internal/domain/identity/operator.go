package identity

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// Operator is a back-office user. Operators sign in, appear as actors in
// the audit trail, and re-confirm their password before sensitive actions.
type Operator struct {
	shared.BaseAggregateRoot
	Username          string
	DisplayName       string
	PasswordHash      string
	Active            bool
	LastLoginAt       *time.Time
	PasswordChangedAt *time.Time
}

// NewOperator creates an active operator with a hashed password
func NewOperator(username, password string) (*Operator, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	now := time.Now()
	return &Operator{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(strings.TrimSpace(username)),
		PasswordHash:      hash,
		Active:            true,
		PasswordChangedAt: &now,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (o *Operator) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the password
func (o *Operator) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	now := time.Now()
	o.PasswordHash = hash
	o.PasswordChangedAt = &now
	o.Touch(now)
	return nil
}

// RecordLogin stamps a successful sign-in
func (o *Operator) RecordLogin(at time.Time) {
	o.LastLoginAt = &at
	o.Touch(at)
}

// Deactivate prevents the operator from signing in or confirming actions
func (o *Operator) Deactivate() {
	o.Active = false
	o.Touch(time.Now())
}

// OperatorRepository defines the interface for operator persistence
type OperatorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Operator, error)
	FindByUsername(ctx context.Context, username string) (*Operator, error)
	Save(ctx context.Context, operator *Operator) error
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return shared.NewValidationError("username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewValidationError("username cannot exceed 100 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewValidationError("username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewValidationError("password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewValidationError("password cannot exceed 72 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
