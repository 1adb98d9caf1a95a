package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/opsledger/backend/internal/interfaces/http/dto"
	"github.com/opsledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type competencyRequest struct {
	Competency string `json:"competency" binding:"required,yearmonth"`
	Amount     int64  `json:"amount" binding:"required,min=1"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req competencyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NoError(t, v.Var("2024-12", "yearmonth"))
	assert.Error(t, v.Var("2024-13", "yearmonth"))
	assert.Error(t, v.Var("12/2024", "yearmonth"))
}

func TestRegisterValidations(t *testing.T) {
	v := validator.New()
	require.NoError(t, registerValidations(v, customValidations))
	assert.NoError(t, v.Var("2026-01", "yearmonth"))

	err := registerValidations(validator.New(), map[string]validator.Func{"": validateYearMonth})
	assert.Error(t, err)
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("lists failed fields by json name", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodPost, "/test",
			map[string]any{"competency": "2024-13", "amount": 0}, nil)

		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		resp := testutil.DecodeJSON[dto.Response](t, w)
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "competency", resp.Error.Details[0].Field)
		assert.Equal(t, "yearmonth", resp.Error.Details[0].Tag)
		assert.Equal(t, "Must be a YYYY-MM month", resp.Error.Details[0].Message)
		assert.Equal(t, "amount", resp.Error.Details[1].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"competency":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeInvalidJSON)
	})

	t.Run("valid input", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodPost, "/test",
			map[string]any{"competency": "2024-12", "amount": 150000}, nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("request id echoed", func(t *testing.T) {
		w := testutil.PerformRequest(t, router, http.MethodPost, "/test",
			map[string]any{"competency": "bad"}, map[string]string{RequestIDHeader: "req-42"})

		resp := testutil.DecodeJSON[dto.Response](t, w)
		assert.Equal(t, "req-42", resp.Error.RequestID)
	})
}
