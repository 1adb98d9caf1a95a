package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/identity"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	// InvalidationTTL is how long an operator-wide token invalidation is
	// remembered. It must cover the refresh token lifetime.
	InvalidationTTL time.Duration
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{InvalidationTTL: 7 * 24 * time.Hour}
}

// AuthService handles operator authentication and the password
// re-confirmation required before sensitive actions.
type AuthService struct {
	operatorRepo identity.OperatorRepository
	jwtService   *auth.JWTService
	blacklist    auth.TokenBlacklist
	config       AuthServiceConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	operatorRepo identity.OperatorRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		operatorRepo: operatorRepo,
		jwtService:   jwtService,
		blacklist:    blacklist,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

// Login authenticates an operator and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	operator, err := s.operatorRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("Failed to load operator during login", zap.Error(err))
			return nil, err
		}
		s.logger.Warn("Operator not found during login", zap.String("username", input.Username))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}
	if !operator.Active {
		s.logger.Warn("Login attempt for deactivated account", zap.String("username", input.Username))
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}
	if !operator.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt",
			zap.String("username", input.Username),
			zap.String("ip", input.IP))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	pair, err := s.jwtService.GenerateTokenPair(operator.ID, operator.Username)
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	operator.RecordLogin(s.now())
	if err := s.operatorRepo.Save(ctx, operator); err != nil {
		// The login itself succeeded; only the timestamp is lost.
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	s.logger.Info("Operator logged in",
		zap.String("username", operator.Username),
		zap.String("operator_id", operator.ID.String()))

	return &LoginResult{
		TokenResult: tokenResult(pair),
		Operator: OperatorInfo{
			ID:          operator.ID,
			Username:    operator.Username,
			DisplayName: operator.DisplayName,
			LastLoginAt: operator.LastLoginAt,
		},
	}, nil
}

// RefreshToken exchanges a refresh token for a new pair, provided the
// operator is still active and has not been signed out everywhere.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*TokenResult, error) {
	pair, claims, err := s.jwtService.RefreshTokenPair(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	if revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID); err != nil {
		return nil, err
	} else if revoked {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
	}
	if invalidated, err := s.blacklist.IsOperatorTokenInvalidated(ctx, claims.OperatorID, claims.GetIssuedAtTime()); err != nil {
		return nil, err
	} else if invalidated {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
	}

	operatorID, err := claims.GetOperatorUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid operator ID in token")
	}
	operator, err := s.operatorRepo.FindByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Operator no longer exists")
		}
		return nil, err
	}
	if !operator.Active {
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}

	// The consumed refresh token must not be usable twice.
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke consumed refresh token", zap.Error(err))
	}

	result := tokenResult(pair)
	return &result, nil
}

// Logout revokes the presented access token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI == "" || input.TokenTTL <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
		s.logger.Error("Failed to blacklist token on logout", zap.Error(err))
		return err
	}
	s.logger.Info("Operator logged out", zap.String("operator_id", input.OperatorID.String()))
	return nil
}

// ChangePassword replaces the operator's password and invalidates every
// token issued before the change.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	operator, err := s.operatorRepo.FindByID(ctx, input.OperatorID)
	if err != nil {
		return err
	}
	if !operator.VerifyPassword(input.OldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if err := operator.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if err := s.operatorRepo.Save(ctx, operator); err != nil {
		return err
	}
	if err := s.blacklist.AddOperatorTokensToBlacklist(ctx, operator.ID.String(), s.config.InvalidationTTL); err != nil {
		s.logger.Error("Failed to invalidate tokens after password change", zap.Error(err))
	}

	s.logger.Info("Operator password changed", zap.String("operator_id", operator.ID.String()))
	return nil
}

// VerifySensitiveAction checks the operator's password re-confirmation.
// Any mismatch, including an unknown or deactivated operator, is FORBIDDEN.
func (s *AuthService) VerifySensitiveAction(ctx context.Context, operatorID uuid.UUID, password string) error {
	if password == "" {
		return shared.NewDomainError(shared.CodeForbidden, "Password confirmation is required")
	}
	operator, err := s.operatorRepo.FindByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeForbidden, "Password confirmation failed")
		}
		return err
	}
	if !operator.Active || !operator.VerifyPassword(password) {
		s.logger.Warn("Sensitive action confirmation rejected", zap.String("operator_id", operatorID.String()))
		return shared.NewDomainError(shared.CodeForbidden, "Password confirmation failed")
	}
	return nil
}

func tokenResult(pair *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
