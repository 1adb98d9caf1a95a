package identity

import (
	"time"

	"github.com/google/uuid"
)

// LoginInput contains the input for operator login
type LoginInput struct {
	Username string
	Password string
	IP       string
}

// TokenResult carries a freshly issued token pair
type TokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	TokenResult
	Operator OperatorInfo
}

// OperatorInfo contains basic operator information returned after login
type OperatorInfo struct {
	ID          uuid.UUID
	Username    string
	DisplayName string
	LastLoginAt *time.Time
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput contains the input for operator logout
type LogoutInput struct {
	OperatorID uuid.UUID
	TokenJTI   string
	TokenTTL   time.Duration
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	OperatorID  uuid.UUID
	OldPassword string
	NewPassword string
}
