package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

// statusGuard mirrors model.StatusSupersedes. SET expressions read the pre-update row.
const statusGuard = "(status_event_at IS NULL OR status_event_at < ? OR " +
	"(status_event_at = ? AND ? >= CASE status WHEN 'paid' THEN 2 WHEN 'failed' THEN 1 ELSE 0 END))"

type purchaseRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPurchaseRepository creates a new purchase ledger repository
func NewPurchaseRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PurchaseRepository {
	return &purchaseRepository{
		db:     db,
		logger: logger,
	}
}

// CreateIfAbsent inserts with ON CONFLICT (provider_session_id) DO NOTHING
func (r *purchaseRepository) CreateIfAbsent(ctx context.Context, p *model.Purchase) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_session_id"}},
			DoNothing: true,
		}).
		Create(p)

	if result.Error != nil {
		r.logger.Error("Failed to create purchase",
			zap.String("session_id", p.ProviderSessionID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to create purchase: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *purchaseRepository) FindBySessionID(ctx context.Context, sessionID string) (*model.Purchase, error) {
	var purchase model.Purchase

	err := r.db.WithContext(ctx).
		Where("provider_session_id = ?", sessionID).
		First(&purchase).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	return &purchase, nil
}

func (r *purchaseRepository) UpdateBySessionID(ctx context.Context, sessionID string, upd model.PurchaseUpdate) (int64, error) {
	return r.update(ctx, upd, "provider_session_id = ?", sessionID)
}

func (r *purchaseRepository) UpdateByInvoiceID(ctx context.Context, invoiceID string, upd model.PurchaseUpdate) (int64, error) {
	return r.update(ctx, upd, "provider_invoice_id = ?", invoiceID)
}

// UpdateLatestBySubscriptionID targets id = (SELECT id ... ORDER BY created_at DESC LIMIT 1)
func (r *purchaseRepository) UpdateLatestBySubscriptionID(ctx context.Context, subscriptionID string, upd model.PurchaseUpdate) (int64, error) {
	latest := r.db.Model(&model.Purchase{}).
		Select("id").
		Where("provider_subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		Limit(1)

	return r.update(ctx, upd, "id = (?)", latest)
}

func (r *purchaseRepository) update(ctx context.Context, upd model.PurchaseUpdate, query string, args ...interface{}) (int64, error) {
	if upd.Empty() {
		return 0, nil
	}

	cols := upd.Columns()
	cols["updated_at"] = time.Now()
	if upd.Status != nil {
		guardArgs := []interface{}{upd.StatusAt, upd.StatusAt, upd.Status.Rank()}
		cols["status"] = gorm.Expr("CASE WHEN "+statusGuard+" THEN ? ELSE status END",
			append(guardArgs, *upd.Status)...)
		cols["status_event_at"] = gorm.Expr("CASE WHEN "+statusGuard+" THEN ? ELSE status_event_at END",
			append(guardArgs, upd.StatusAt)...)
	}

	result := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where(query, args...).
		Updates(cols)

	if result.Error != nil {
		r.logger.Error("Failed to update purchase",
			zap.String("query", query),
			zap.Error(result.Error))
		return 0, fmt.Errorf("failed to update purchase: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *purchaseRepository) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]model.Purchase, int64, error) {
	var (
		purchases []model.Purchase
		total     int64
	)

	query := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("student_id = ?", studentID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&purchases).Error
	if err != nil {
		r.logger.Error("Failed to list purchases",
			zap.String("student_id", studentID),
			zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list purchases: %w", err)
	}

	return purchases, total, nil
}
