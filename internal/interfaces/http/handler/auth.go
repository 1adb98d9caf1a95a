package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/opsledger/backend/internal/application/identity"
	"github.com/opsledger/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication-related API endpoints
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Username: req.Username,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LoginResponse{
		Token: toTokenResponse(result.TokenResult),
		Operator: OperatorResponse{
			ID:          result.Operator.ID,
			Username:    result.Operator.Username,
			DisplayName: result.Operator.DisplayName,
			LastLoginAt: result.Operator.LastLoginAt,
		},
	})
}

// RefreshToken handles POST /auth/refresh. The presented refresh token is
// consumed; replaying it fails with ERR_TOKEN_REVOKED.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), identity.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, RefreshTokenResponse{Token: toTokenResponse(*result)})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	operatorID, err := claims.GetOperatorUUID()
	if err != nil {
		h.BadRequest(c, "Invalid operator ID in token")
		return
	}

	err = h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		OperatorID: operatorID,
		TokenJTI:   claims.ID,
		TokenTTL:   claims.GetRemainingTTL(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "Logged out successfully"})
}

// CurrentOperator handles GET /auth/me
func (h *AuthHandler) CurrentOperator(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	operatorID, err := claims.GetOperatorUUID()
	if err != nil {
		h.BadRequest(c, "Invalid operator ID in token")
		return
	}

	resp := CurrentOperatorResponse{ID: operatorID, Username: claims.Username}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	h.Success(c, resp)
}

// ChangePassword handles PUT /auth/password. Every token issued before the
// change stops working, including the one used for this request.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	operatorID, err := claims.GetOperatorUUID()
	if err != nil {
		h.BadRequest(c, "Invalid operator ID in token")
		return
	}

	err = h.authService.ChangePassword(c.Request.Context(), identity.ChangePasswordInput{
		OperatorID:  operatorID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "Password changed successfully"})
}

func toTokenResponse(t identity.TokenResult) TokenResponse {
	return TokenResponse{
		AccessToken:           t.AccessToken,
		RefreshToken:          t.RefreshToken,
		AccessTokenExpiresAt:  t.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: t.RefreshTokenExpiresAt,
		TokenType:             t.TokenType,
	}
}
