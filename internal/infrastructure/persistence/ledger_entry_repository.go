package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/finance"
	"github.com/opsledger/backend/internal/domain/shared"
	"github.com/opsledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements LedgerEntryRepository using GORM
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// FindByID finds a ledger entry by its ID
func (r *GormLedgerEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.LedgerEntry, error) {
	var model models.LedgerEntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPayrollPayment returns every entry that references the payment
func (r *GormLedgerEntryRepository) FindByPayrollPayment(ctx context.Context, paymentID uuid.UUID) ([]finance.LedgerEntry, error) {
	return r.findWhere(ctx, "payroll_payment_id = ?", paymentID)
}

// FindByMaintenanceTask returns every entry that references the task
func (r *GormLedgerEntryRepository) FindByMaintenanceTask(ctx context.Context, taskID uuid.UUID) ([]finance.LedgerEntry, error) {
	return r.findWhere(ctx, "maintenance_task_id = ?", taskID)
}

func (r *GormLedgerEntryRepository) findWhere(ctx context.Context, cond string, id uuid.UUID) ([]finance.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).Where(cond, id).Order("created_at ASC").Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toLedgerEntries(entryModels), nil
}

// FindAll finds entries matching the filter
func (r *GormLedgerEntryRepository) FindAll(ctx context.Context, filter finance.LedgerFilter) ([]finance.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}), filter),
		filter.Filter, LedgerEntrySortFields, "entry_date")
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toLedgerEntries(entryModels), nil
}

// Count counts entries matching the filter
func (r *GormLedgerEntryRepository) Count(ctx context.Context, filter finance.LedgerFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}), filter).Count(&count).Error
	return count, err
}

// Create inserts a new entry. A second entry for the same record violates a
// unique index and is reported as a conflict.
func (r *GormLedgerEntryRepository) Create(ctx context.Context, entry *finance.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	return translateError(r.db.WithContext(ctx).Create(model).Error, "ledger entry")
}

// Update writes an existing entry if its version is unchanged
func (r *GormLedgerEntryRepository) Update(ctx context.Context, entry *finance.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	current := entry.Version
	model.Version = current + 1
	result := r.db.WithContext(ctx).
		Model(model).
		Where("version = ?", current).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "ledger entry")
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("ledger entry %s was modified by another transaction", entry.ID)
	}
	entry.Version = model.Version
	return nil
}

// Delete deletes an entry
func (r *GormLedgerEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.LedgerEntryModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "ledger entry")
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("ledger entry %s was removed by another transaction", id)
	}
	return nil
}

// SummarizeCashFlow totals entries by category and direction within [from, to]
func (r *GormLedgerEntryRepository) SummarizeCashFlow(ctx context.Context, from, to time.Time) ([]finance.CashFlowLine, error) {
	var rows []models.CashFlowRow
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select("category, direction, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("entry_date >= ? AND entry_date <= ?", finance.DateOf(from), finance.DateOf(to)).
		Group("category, direction").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]finance.CashFlowLine, len(rows))
	for i, row := range rows {
		lines[i] = finance.CashFlowLine{
			Category:  row.Category,
			Direction: row.Direction,
			Total:     row.Total,
			Count:     row.Count,
		}
	}
	return lines, nil
}

func (r *GormLedgerEntryRepository) applyFilter(query *gorm.DB, filter finance.LedgerFilter) *gorm.DB {
	if filter.Direction != nil {
		query = query.Where("direction = ?", *filter.Direction)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.FromDate != nil {
		query = query.Where("entry_date >= ?", finance.DateOf(*filter.FromDate))
	}
	if filter.ToDate != nil {
		query = query.Where("entry_date <= ?", finance.DateOf(*filter.ToDate))
	}
	if filter.Search != "" {
		query = query.Where("description LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

func toLedgerEntries(entryModels []models.LedgerEntryModel) []finance.LedgerEntry {
	entries := make([]finance.LedgerEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries
}

// Ensure GormLedgerEntryRepository implements LedgerEntryRepository
var _ finance.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
