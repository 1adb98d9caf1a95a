package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ConfirmPasswordHeader carries the operator's password for sensitive actions
const ConfirmPasswordHeader = "X-Confirm-Password"

// SensitiveActionVerifier re-checks an operator's password
type SensitiveActionVerifier interface {
	VerifySensitiveAction(ctx context.Context, operatorID uuid.UUID, password string) error
}

// SensitiveConfirmation verifies X-Confirm-Password when present and marks
// the request context as confirmed. Requests without the header pass through
// unconfirmed; the reconciliation engine refuses rollbacks and deletions on
// such requests. A wrong password is answered with 403 right away.
// Must run after JWT authentication.
func SensitiveConfirmation(verifier SensitiveActionVerifier, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		password := c.GetHeader(ConfirmPasswordHeader)
		if password == "" {
			c.Next()
			return
		}
		// The password must never reach access logs or traces
		c.Request.Header.Del(ConfirmPasswordHeader)

		operatorID, err := uuid.Parse(GetJWTOperatorID(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", getRequestIDFromContext(c)))
			return
		}

		if err := verifier.VerifySensitiveAction(c.Request.Context(), operatorID, password); err != nil {
			log.Warn("sensitive action confirmation failed",
				zap.String("operator_id", operatorID.String()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Password confirmation failed", getRequestIDFromContext(c)))
			return
		}

		c.Request = c.Request.WithContext(reconciliation.WithSensitiveConfirmation(c.Request.Context()))
		c.Next()
	}
}
