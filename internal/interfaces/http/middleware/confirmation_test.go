package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/interfaces/http/dto"
	"github.com/opsledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) VerifySensitiveAction(ctx context.Context, operatorID uuid.UUID, password string) error {
	return m.Called(ctx, operatorID, password).Error(0)
}

func newConfirmationRouter(verifier SensitiveActionVerifier, operatorID string) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if operatorID != "" {
			c.Set(JWTOperatorIDKey, operatorID)
		}
	})
	router.Use(SensitiveConfirmation(verifier, nil))
	router.DELETE("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"confirmed": reconciliation.SensitiveConfirmed(c.Request.Context()),
			"header":    c.GetHeader(ConfirmPasswordHeader),
		})
	})
	return router
}

func TestSensitiveConfirmation(t *testing.T) {
	operatorID := uuid.New()

	t.Run("no header passes through unconfirmed", func(t *testing.T) {
		verifier := new(mockVerifier)
		w := testutil.PerformRequest(t, newConfirmationRouter(verifier, operatorID.String()), http.MethodDelete, "/test", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		body := testutil.DecodeJSON[map[string]any](t, w)
		assert.Equal(t, false, body["confirmed"])
		verifier.AssertNotCalled(t, "VerifySensitiveAction", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("correct password confirms and strips header", func(t *testing.T) {
		verifier := new(mockVerifier)
		verifier.On("VerifySensitiveAction", mock.Anything, operatorID, "s3cret").Return(nil)

		w := testutil.PerformRequest(t, newConfirmationRouter(verifier, operatorID.String()), http.MethodDelete, "/test", nil,
			map[string]string{ConfirmPasswordHeader: "s3cret"})

		assert.Equal(t, http.StatusOK, w.Code)
		body := testutil.DecodeJSON[map[string]any](t, w)
		assert.Equal(t, true, body["confirmed"])
		assert.Equal(t, "", body["header"])
		verifier.AssertExpectations(t)
	})

	t.Run("wrong password is forbidden", func(t *testing.T) {
		verifier := new(mockVerifier)
		verifier.On("VerifySensitiveAction", mock.Anything, operatorID, "wrong").
			Return(shared.NewDomainError(shared.CodeForbidden, "Password confirmation failed"))

		w := testutil.PerformRequest(t, newConfirmationRouter(verifier, operatorID.String()), http.MethodDelete, "/test", nil,
			map[string]string{ConfirmPasswordHeader: "wrong"})

		testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
	})

	t.Run("header without authenticated operator", func(t *testing.T) {
		verifier := new(mockVerifier)
		w := testutil.PerformRequest(t, newConfirmationRouter(verifier, ""), http.MethodDelete, "/test", nil,
			map[string]string{ConfirmPasswordHeader: "s3cret"})

		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	})
}
