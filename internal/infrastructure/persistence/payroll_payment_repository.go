package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/payroll"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPayrollPaymentRepository implements PayrollPaymentRepository using GORM
type GormPayrollPaymentRepository struct {
	db *gorm.DB
}

// NewGormPayrollPaymentRepository creates a new GormPayrollPaymentRepository
func NewGormPayrollPaymentRepository(db *gorm.DB) *GormPayrollPaymentRepository {
	return &GormPayrollPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPayrollPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payroll.PayrollPayment, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds a payment by ID with a row lock
func (r *GormPayrollPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payroll.PayrollPayment, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

// FindBySource finds the payment projected from a vacation period or bonus installment
func (r *GormPayrollPaymentRepository) FindBySource(ctx context.Context, kind payroll.SourceKind, sourceID uuid.UUID, installment int) (*payroll.PayrollPayment, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("source_kind = ? AND source_id = ? AND installment = ?", kind, sourceID, installment))
}

func (r *GormPayrollPaymentRepository) first(query *gorm.DB) (*payroll.PayrollPayment, error) {
	var model models.PayrollPaymentModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds payments matching the filter
func (r *GormPayrollPaymentRepository) FindAll(ctx context.Context, filter payroll.PaymentFilter) ([]payroll.PayrollPayment, error) {
	var paymentModels []models.PayrollPaymentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PayrollPaymentModel{}), filter)
	query = paginate(query, filter.Filter, PayrollPaymentSortFields, "competency")
	if err := query.Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]payroll.PayrollPayment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments, nil
}

// Count counts payments matching the filter
func (r *GormPayrollPaymentRepository) Count(ctx context.Context, filter payroll.PaymentFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.PayrollPaymentModel{}), filter).Count(&count).Error
	return count, err
}

// Save inserts or updates a payment with an optimistic version check
func (r *GormPayrollPaymentRepository) Save(ctx context.Context, payment *payroll.PayrollPayment) error {
	model := models.PayrollPaymentModelFromDomain(payment)
	if err := saveVersioned(r.db.WithContext(ctx), model, "payroll payment"); err != nil {
		return err
	}
	payment.Version = model.Version
	return nil
}

// Delete deletes a payment
func (r *GormPayrollPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PayrollPaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "payroll payment")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormPayrollPaymentRepository) applyFilter(query *gorm.DB, filter payroll.PaymentFilter) *gorm.DB {
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.Competency != nil {
		query = query.Where("competency = ?", filter.Competency.String())
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("description LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormPayrollPaymentRepository implements PayrollPaymentRepository
var _ payroll.PayrollPaymentRepository = (*GormPayrollPaymentRepository)(nil)
