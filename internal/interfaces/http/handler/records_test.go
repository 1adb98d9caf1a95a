package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/application/reconciliation"
	"github.com/opsledger/backend/internal/application/records"
	"github.com/opsledger/backend/internal/domain/fleet"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/domain/shared/valueobject"
	"github.com/opsledger/backend/internal/infrastructure/persistence"
	"github.com/opsledger/backend/internal/interfaces/http/dto"
	"github.com/opsledger/backend/internal/interfaces/http/middleware"
	"github.com/opsledger/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const confirmPassword = "correct-horse-battery"

type apiResponse[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data"`
	Meta    *dto.Meta `json:"meta"`
}

type passwordVerifier struct{}

func (passwordVerifier) VerifySensitiveAction(_ context.Context, _ uuid.UUID, password string) error {
	if password != confirmPassword {
		return shared.ErrForbidden
	}
	return nil
}

func newRecordsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	middleware.SetupValidator()

	db := testutil.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	logger := zap.NewNop()
	publisher := testutil.NewRecordingPublisher()
	engine := reconciliation.NewEngine(scope, publisher, logger,
		reconciliation.WithRecurrence(reconciliation.NewRecurrenceGenerator(scope, fleet.DefaultRecurrencePolicy(), publisher, nil, logger)))
	svc := records.NewService(engine, records.Repositories{
		Payments:    persistence.NewGormPayrollPaymentRepository(db),
		Vacations:   persistence.NewGormVacationPeriodRepository(db),
		Bonuses:     persistence.NewGormBonusInstallmentRepository(db),
		Maintenance: persistence.NewGormMaintenanceTaskRepository(db),
		Ledger:      persistence.NewGormLedgerEntryRepository(db),
	}, valueobject.BRL, logger)

	operatorID := uuid.New()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.JWTOperatorIDKey, operatorID.String())
		c.Next()
	})
	r.Use(middleware.SensitiveConfirmation(passwordVerifier{}, logger))

	payroll := NewPayrollHandler(svc)
	r.POST("/payroll/payments", payroll.Create)
	r.GET("/payroll/payments", payroll.List)
	r.GET("/payroll/payments/:id", payroll.GetByID)
	r.PUT("/payroll/payments/:id", payroll.Update)
	r.DELETE("/payroll/payments/:id", payroll.Delete)

	vacations := NewVacationHandler(svc)
	r.POST("/payroll/vacations", vacations.Schedule)
	r.GET("/payroll/vacations", vacations.List)
	r.PUT("/payroll/vacations/:id", vacations.Update)

	bonuses := NewYearEndBonusHandler(svc)
	r.POST("/payroll/year-end-bonuses", bonuses.Generate)
	r.GET("/payroll/year-end-bonuses/:id", bonuses.GetByID)
	r.PUT("/payroll/year-end-bonuses/:id/installments", bonuses.UpdateInstallments)

	maintenance := NewMaintenanceHandler(svc)
	r.POST("/fleet/maintenance", maintenance.Schedule)
	r.GET("/fleet/maintenance/:id", maintenance.GetByID)
	r.PUT("/fleet/maintenance/:id", maintenance.Update)

	ledger := NewLedgerHandler(svc)
	r.GET("/finance/ledger", ledger.List)
	r.GET("/finance/ledger/:id", ledger.GetByID)
	r.GET("/finance/cash-flow", ledger.CashFlow)

	r.POST("/reconciliation/status-changes", NewStatusChangeHandler(svc).Apply)
	return r
}

func salaryBody(employeeID uuid.UUID) map[string]any {
	return map[string]any{
		"employee_id":    employeeID,
		"competency":     "2026-09",
		"kind":           "SALARY",
		"base_amount":    "5000.00",
		"overtime_hours": "10",
		"overtime_value": "200.00",
		"deductions":     "100.00",
	}
}

func createPayment(t *testing.T, r *gin.Engine) uuid.UUID {
	t.Helper()
	w := testutil.PerformRequest(t, r, http.MethodPost, "/payroll/payments", salaryBody(uuid.New()), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.PayrollPaymentResponse]]](t, w)
	return resp.Data.RecordID
}

func TestPayrollHandler_PayFlow(t *testing.T) {
	r := newRecordsRouter(t)
	id := createPayment(t, r)
	path := "/payroll/payments/" + id.String()

	w := testutil.PerformRequest(t, r, http.MethodPut, path, map[string]any{
		"status":       "PAID",
		"payment_date": "2026-10-05T00:00:00Z",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.PayrollPaymentResponse]]](t, w)
	assert.Equal(t, "APPLIED", paid.Data.Outcome)
	require.Len(t, paid.Data.LedgerChanges, 1)
	assert.Equal(t, "CREATE", paid.Data.LedgerChanges[0].Action)
	assert.True(t, decimal.RequireFromString("5100").Equal(paid.Data.LedgerChanges[0].Amount))
	entryID := paid.Data.LedgerChanges[0].EntryID

	t.Run("repeating the update is a no-op", func(t *testing.T) {
		w := testutil.PerformRequest(t, r, http.MethodPut, path, map[string]any{"status": "PAID"}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		again := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.PayrollPaymentResponse]]](t, w)
		assert.Equal(t, "NOOP", again.Data.Outcome)
		assert.Empty(t, again.Data.LedgerChanges)
	})

	t.Run("ledger lists the entry", func(t *testing.T) {
		w := testutil.PerformRequest(t, r, http.MethodGet, "/finance/ledger?category=PAYROLL", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		list := testutil.DecodeJSON[apiResponse[[]records.LedgerEntryResponse]](t, w)
		require.Len(t, list.Data, 1)
		require.NotNil(t, list.Meta)
		assert.Equal(t, int64(1), list.Meta.Total)
		assert.Equal(t, "OUTFLOW", list.Data[0].Direction)

		w = testutil.PerformRequest(t, r, http.MethodGet, "/finance/ledger/"+entryID.String(), nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		entry := testutil.DecodeJSON[apiResponse[records.LedgerEntryResponse]](t, w)
		require.NotNil(t, entry.Data.PayrollPaymentID)
		assert.Equal(t, id, *entry.Data.PayrollPaymentID)
	})

	t.Run("cash flow totals the period", func(t *testing.T) {
		w := testutil.PerformRequest(t, r, http.MethodGet, "/finance/cash-flow?from=2026-10-01&to=2026-10-31", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		flow := testutil.DecodeJSON[apiResponse[records.CashFlowResponse]](t, w)
		assert.True(t, decimal.RequireFromString("5100").Equal(flow.Data.Outflow))
		assert.True(t, decimal.RequireFromString("-5100").Equal(flow.Data.Net))
	})

	t.Run("rollback requires confirmation", func(t *testing.T) {
		body := map[string]any{"status": "PENDING"}
		w := testutil.PerformRequest(t, r, http.MethodPut, path, body, nil)
		testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeForbidden)

		w = testutil.PerformRequest(t, r, http.MethodPut, path, body,
			map[string]string{middleware.ConfirmPasswordHeader: "wrong-password"})
		testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeForbidden)

		w = testutil.PerformRequest(t, r, http.MethodPut, path, body,
			map[string]string{middleware.ConfirmPasswordHeader: confirmPassword})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		rolled := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.PayrollPaymentResponse]]](t, w)
		require.Len(t, rolled.Data.LedgerChanges, 1)
		assert.Equal(t, "DELETE", rolled.Data.LedgerChanges[0].Action)

		w = testutil.PerformRequest(t, r, http.MethodGet, "/finance/ledger/"+entryID.String(), nil, nil)
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}

func TestPayrollHandler_Errors(t *testing.T) {
	r := newRecordsRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{
			name:   "missing employee",
			method: http.MethodPost,
			path:   "/payroll/payments",
			body:   map[string]any{"competency": "2026-09", "kind": "SALARY"},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name:   "malformed competency",
			method: http.MethodPost,
			path:   "/payroll/payments",
			body:   map[string]any{"employee_id": uuid.New(), "competency": "09/2026", "kind": "SALARY"},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name:   "created as paid",
			method: http.MethodPost,
			path:   "/payroll/payments",
			body:   map[string]any{"employee_id": uuid.New(), "competency": "2026-09", "kind": "SALARY", "status": "PAID"},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name:   "malformed id",
			method: http.MethodGet,
			path:   "/payroll/payments/not-a-uuid",
			status: http.StatusBadRequest,
			code:   dto.ErrCodeBadRequest,
		},
		{
			name:   "unknown payment",
			method: http.MethodGet,
			path:   "/payroll/payments/" + uuid.NewString(),
			status: http.StatusNotFound,
			code:   dto.ErrCodeNotFound,
		},
		{
			name:   "inverted cash-flow period",
			method: http.MethodGet,
			path:   "/finance/cash-flow?from=2026-10-31&to=2026-10-01",
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name:   "cash-flow without period",
			method: http.MethodGet,
			path:   "/finance/cash-flow",
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.PerformRequest(t, r, tt.method, tt.path, tt.body, nil)
			testutil.AssertErrorResponse(t, w, tt.status, tt.code)
		})
	}
}

func TestPayrollHandler_ListAndDelete(t *testing.T) {
	r := newRecordsRouter(t)
	first := createPayment(t, r)
	createPayment(t, r)
	createPayment(t, r)

	w := testutil.PerformRequest(t, r, http.MethodGet, "/payroll/payments?page=1&page_size=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := testutil.DecodeJSON[apiResponse[[]records.PayrollPaymentResponse]](t, w)
	assert.Len(t, list.Data, 2)
	require.NotNil(t, list.Meta)
	assert.Equal(t, int64(3), list.Meta.Total)
	assert.Equal(t, 2, list.Meta.TotalPages)

	w = testutil.PerformRequest(t, r, http.MethodGet, "/payroll/payments?page_size=500", nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	path := "/payroll/payments/" + first.String()
	w = testutil.PerformRequest(t, r, http.MethodDelete, path, nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeForbidden)

	w = testutil.PerformRequest(t, r, http.MethodDelete, path, nil,
		map[string]string{middleware.ConfirmPasswordHeader: confirmPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.PerformRequest(t, r, http.MethodGet, path, nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestVacationHandler_ScheduleAndSkipAhead(t *testing.T) {
	r := newRecordsRouter(t)

	w := testutil.PerformRequest(t, r, http.MethodPost, "/payroll/vacations", map[string]any{
		"employee_id":       uuid.New(),
		"acquisition_start": "2025-01-01T00:00:00Z",
		"acquisition_end":   "2025-12-31T00:00:00Z",
		"gross_value":       "3000.00",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.VacationPeriodResponse]]](t, w)
	require.NotNil(t, created.Data.Record)
	assert.Equal(t, "SCHEDULED", created.Data.Record.Status)
	assert.True(t, decimal.RequireFromString("4000").Equal(created.Data.Record.SettledAmount))

	w = testutil.PerformRequest(t, r, http.MethodPut, "/payroll/vacations/"+created.Data.RecordID.String(),
		map[string]any{"status": "PAID"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInvalidTransition)

	w = testutil.PerformRequest(t, r, http.MethodGet, "/payroll/vacations?status=SCHEDULED", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := testutil.DecodeJSON[apiResponse[[]records.VacationPeriodResponse]](t, w)
	assert.Len(t, list.Data, 1)
}

func TestYearEndBonusHandler_Installments(t *testing.T) {
	r := newRecordsRouter(t)

	w := testutil.PerformRequest(t, r, http.MethodPost, "/payroll/year-end-bonuses", map[string]any{
		"employee_id":    uuid.New(),
		"reference_year": 2026,
		"monthly_salary": "3600.00",
		"months_worked":  6,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.YearEndBonusResponse]]](t, w)
	require.NotNil(t, created.Data.Record)
	assert.True(t, decimal.RequireFromString("900").Equal(created.Data.Record.FirstInstallment))

	path := "/payroll/year-end-bonuses/" + created.Data.RecordID.String()
	w = testutil.PerformRequest(t, r, http.MethodPut, path+"/installments", map[string]any{"first_paid": true}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.YearEndBonusResponse]]](t, w)
	assert.Equal(t, "PARTIAL", updated.Data.Record.Status)
	require.Len(t, updated.Data.LedgerChanges, 1)
	require.NotNil(t, updated.Data.LedgerChanges[0].PaymentID)

	w = testutil.PerformRequest(t, r, http.MethodGet, "/payroll/payments/"+updated.Data.LedgerChanges[0].PaymentID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	projection := testutil.DecodeJSON[apiResponse[records.PayrollPaymentResponse]](t, w)
	assert.True(t, projection.Data.ReadOnly)

	w = testutil.PerformRequest(t, r, http.MethodPut, path+"/installments", map[string]any{"first_paid": false}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeForbidden)

	w = testutil.PerformRequest(t, r, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	current := testutil.DecodeJSON[apiResponse[records.YearEndBonusResponse]](t, w)
	assert.True(t, current.Data.FirstPaid)
}

func TestMaintenanceHandler_RecurringCompletion(t *testing.T) {
	r := newRecordsRouter(t)

	w := testutil.PerformRequest(t, r, http.MethodPost, "/fleet/maintenance", map[string]any{
		"vehicle_id":     uuid.New(),
		"type":           "PREVENTIVE",
		"description":    "Oil change",
		"scheduled_date": "2026-08-25T00:00:00Z",
		"recurring":      true,
		"interval_days":  30,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.MaintenanceTaskResponse]]](t, w)

	w = testutil.PerformRequest(t, r, http.MethodPut, "/fleet/maintenance/"+created.Data.RecordID.String(), map[string]any{
		"status":         "COMPLETED",
		"completed_date": "2026-09-01T00:00:00Z",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	completed := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.MaintenanceTaskResponse]]](t, w)
	require.NotNil(t, completed.Data.NextOccurrenceID)

	w = testutil.PerformRequest(t, r, http.MethodGet, "/fleet/maintenance/"+completed.Data.NextOccurrenceID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	next := testutil.DecodeJSON[apiResponse[records.MaintenanceTaskResponse]](t, w)
	assert.Equal(t, "PENDING", next.Data.Status)
	require.NotNil(t, next.Data.RecurredFromID)
	assert.Equal(t, created.Data.RecordID, *next.Data.RecurredFromID)

	t.Run("unknown type is rejected", func(t *testing.T) {
		w := testutil.PerformRequest(t, r, http.MethodPost, "/fleet/maintenance", map[string]any{
			"vehicle_id":  uuid.New(),
			"type":        "COSMETIC",
			"description": "Paint",
		}, nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("scheduled date is required", func(t *testing.T) {
		w := testutil.PerformRequest(t, r, http.MethodPost, "/fleet/maintenance", map[string]any{
			"vehicle_id":  uuid.New(),
			"type":        "PREVENTIVE",
			"description": "Oil change",
		}, nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})
}

func TestStatusChangeHandler_Apply(t *testing.T) {
	r := newRecordsRouter(t)

	w := testutil.PerformRequest(t, r, http.MethodPost, "/fleet/maintenance", map[string]any{
		"vehicle_id":     uuid.New(),
		"type":           "CORRECTIVE",
		"description":    "Brake pads",
		"scheduled_date": "2026-08-12T00:00:00Z",
		"estimated_cost": "480.00",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.MaintenanceTaskResponse]]](t, w)

	body := map[string]any{
		"kind":      "MAINTENANCE_TASK",
		"record_id": created.Data.RecordID,
		"change":    map[string]any{"is_paid": true},
	}
	w = testutil.PerformRequest(t, r, http.MethodPost, "/reconciliation/status-changes", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	applied := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.MaintenanceTaskResponse]]](t, w)
	assert.Equal(t, "APPLIED", applied.Data.Outcome)
	assert.Equal(t, "MAINTENANCE_TASK", applied.Data.Kind)
	require.Len(t, applied.Data.LedgerChanges, 1)
	assert.True(t, decimal.RequireFromString("480").Equal(applied.Data.LedgerChanges[0].Amount))
	require.NotNil(t, applied.Data.Record)
	assert.True(t, applied.Data.Record.IsPaid)

	w = testutil.PerformRequest(t, r, http.MethodPost, "/reconciliation/status-changes", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	again := testutil.DecodeJSON[apiResponse[records.ChangeResponse[records.MaintenanceTaskResponse]]](t, w)
	assert.Equal(t, "NOOP", again.Data.Outcome)

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{
			name: "unknown kind",
			body: map[string]any{"kind": "INVOICE", "record_id": created.Data.RecordID, "change": map[string]any{}},
			code: dto.ErrCodeValidation,
		},
		{
			name: "missing change",
			body: map[string]any{"kind": "MAINTENANCE_TASK", "record_id": created.Data.RecordID},
			code: dto.ErrCodeValidation,
		},
		{
			name: "change fails validation",
			body: map[string]any{
				"kind":      "MAINTENANCE_TASK",
				"record_id": created.Data.RecordID,
				"change":    map[string]any{"priority": "SOMEDAY"},
			},
			code: dto.ErrCodeValidation,
		},
		{
			name: "change of the wrong shape",
			body: map[string]any{
				"kind":      "PAYROLL_PAYMENT",
				"record_id": created.Data.RecordID,
				"change":    map[string]any{"base_amount": []int{1}},
			},
			code: dto.ErrCodeInvalidJSON,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.PerformRequest(t, r, http.MethodPost, "/reconciliation/status-changes", tt.body, nil)
			testutil.AssertErrorResponse(t, w, http.StatusBadRequest, tt.code)
		})
	}
}
