package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/identity"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/infrastructure/auth"
	"github.com/opsledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockOperatorRepository is a mock implementation of identity.OperatorRepository
type MockOperatorRepository struct {
	mock.Mock
}

func (m *MockOperatorRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Operator, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Operator), args.Error(1)
}

func (m *MockOperatorRepository) FindByUsername(ctx context.Context, username string) (*identity.Operator, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Operator), args.Error(1)
}

func (m *MockOperatorRepository) Save(ctx context.Context, operator *identity.Operator) error {
	args := m.Called(ctx, operator)
	return args.Error(0)
}

const testPassword = "correct-horse-battery"

func createTestOperator(t *testing.T) *identity.Operator {
	t.Helper()
	operator, err := identity.NewOperator("ana.souza", testPassword)
	require.NoError(t, err)
	return operator
}

type authFixture struct {
	repo      *MockOperatorRepository
	blacklist *auth.InMemoryTokenBlacklist
	jwt       *auth.JWTService
	service   *AuthService
}

func newAuthFixture() *authFixture {
	repo := new(MockOperatorRepository)
	blacklist := auth.NewInMemoryTokenBlacklist()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "opsledger-test",
		MaxRefreshCount:        5,
	})
	return &authFixture{
		repo:      repo,
		blacklist: blacklist,
		jwt:       jwtService,
		service:   NewAuthService(repo, jwtService, blacklist, DefaultAuthServiceConfig(), zap.NewNop()),
	}
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	operator := createTestOperator(t)

	f.repo.On("FindByUsername", ctx, "ana.souza").Return(operator, nil)
	f.repo.On("Save", ctx, operator).Return(nil)

	result, err := f.service.Login(ctx, LoginInput{Username: "ana.souza", Password: testPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, operator.ID, result.Operator.ID)
	assert.NotNil(t, result.Operator.LastLoginAt)

	claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, operator.ID.String(), claims.OperatorID)
	f.repo.AssertExpectations(t)
}

func TestAuthService_Login_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown username", func(t *testing.T) {
		f := newAuthFixture()
		f.repo.On("FindByUsername", ctx, "ghost").Return(nil, shared.ErrNotFound)
		_, err := f.service.Login(ctx, LoginInput{Username: "ghost", Password: testPassword})
		assertDomainCode(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture()
		f.repo.On("FindByUsername", ctx, "ana.souza").Return(createTestOperator(t), nil)
		_, err := f.service.Login(ctx, LoginInput{Username: "ana.souza", Password: "wrong-password"})
		assertDomainCode(t, err, "INVALID_CREDENTIALS")
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("deactivated", func(t *testing.T) {
		f := newAuthFixture()
		operator := createTestOperator(t)
		operator.Deactivate()
		f.repo.On("FindByUsername", ctx, "ana.souza").Return(operator, nil)
		_, err := f.service.Login(ctx, LoginInput{Username: "ana.souza", Password: testPassword})
		assertDomainCode(t, err, "ACCOUNT_DEACTIVATED")
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	operator := createTestOperator(t)
	f.repo.On("FindByID", ctx, operator.ID).Return(operator, nil)

	pair, err := f.jwt.GenerateTokenPair(operator.ID, operator.Username)
	require.NoError(t, err)

	refreshed, err := f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken)

	// The consumed refresh token cannot be replayed.
	_, err = f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
	assertDomainCode(t, err, "TOKEN_REVOKED")
}

func TestAuthService_RefreshToken_InvalidToken(t *testing.T) {
	f := newAuthFixture()
	_, err := f.service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "garbage"})
	assertDomainCode(t, err, "TOKEN_INVALID")
}

func TestAuthService_Logout_BlacklistsToken(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, f.service.Logout(ctx, LogoutInput{OperatorID: uuid.New(), TokenJTI: "jti-1", TokenTTL: time.Minute}))

	revoked, err := f.blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidates earlier tokens", func(t *testing.T) {
		f := newAuthFixture()
		operator := createTestOperator(t)
		f.repo.On("FindByID", ctx, operator.ID).Return(operator, nil)
		f.repo.On("Save", ctx, operator).Return(nil)

		err := f.service.ChangePassword(ctx, ChangePasswordInput{
			OperatorID:  operator.ID,
			OldPassword: testPassword,
			NewPassword: "a-brand-new-password",
		})
		require.NoError(t, err)
		assert.True(t, operator.VerifyPassword("a-brand-new-password"))

		invalidated, err := f.blacklist.IsOperatorTokenInvalidated(ctx, operator.ID.String(), time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, invalidated)
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture()
		operator := createTestOperator(t)
		f.repo.On("FindByID", ctx, operator.ID).Return(operator, nil)

		err := f.service.ChangePassword(ctx, ChangePasswordInput{
			OperatorID:  operator.ID,
			OldPassword: "not-it-at-all",
			NewPassword: "a-brand-new-password",
		})
		assertDomainCode(t, err, "INVALID_PASSWORD")
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestAuthService_VerifySensitiveAction(t *testing.T) {
	ctx := context.Background()
	operator := createTestOperator(t)
	inactive := createTestOperator(t)
	inactive.Deactivate()
	missing := uuid.New()

	f := newAuthFixture()
	f.repo.On("FindByID", ctx, operator.ID).Return(operator, nil)
	f.repo.On("FindByID", ctx, inactive.ID).Return(inactive, nil)
	f.repo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)

	require.NoError(t, f.service.VerifySensitiveAction(ctx, operator.ID, testPassword))

	tests := []struct {
		name       string
		operatorID uuid.UUID
		password   string
	}{
		{"empty password", operator.ID, ""},
		{"wrong password", operator.ID, "nope-nope-nope"},
		{"deactivated operator", inactive.ID, testPassword},
		{"unknown operator", missing, testPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.VerifySensitiveAction(ctx, tt.operatorID, tt.password)
			assert.ErrorIs(t, err, shared.ErrForbidden)
		})
	}
}
