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

type enrollmentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *gorm.DB, logger *zap.Logger) domainRepo.EnrollmentRepository {
	return &enrollmentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *enrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	return r.findOne(ctx, "student_id = ? AND course_id = ?", studentID, courseID)
}

func (r *enrollmentRepository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*model.Enrollment, error) {
	return r.findOne(ctx, "provider_subscription_id = ?", subscriptionID)
}

func (r *enrollmentRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.Enrollment, error) {
	var enrollment model.Enrollment

	err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("updated_at DESC").
		First(&enrollment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get enrollment",
			zap.String("query", query),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return &enrollment, nil
}

// CreateIfAbsent inserts with ON CONFLICT (student_id, course_id) DO NOTHING
func (r *enrollmentRepository) CreateIfAbsent(ctx context.Context, e *model.Enrollment) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(e)

	if result.Error != nil {
		r.logger.Error("Failed to create enrollment",
			zap.String("student_id", e.StudentID),
			zap.String("course_id", e.CourseID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to create enrollment: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// CompareAndSwap issues UPDATE ... WHERE id = ? AND version = ?
func (r *enrollmentRepository) CompareAndSwap(ctx context.Context, e *model.Enrollment, expectedVersion int64) (bool, error) {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("id = ? AND version = ?", e.ID, expectedVersion).
		Updates(map[string]interface{}{
			"enrollment_type":          e.EnrollmentType,
			"status":                   e.Status,
			"provider_subscription_id": e.ProviderSubscriptionID,
			"has_used_trial":           e.HasUsedTrial,
			"trial_status":             e.TrialStatus,
			"trial_end_date":           e.TrialEndDate,
			"cancellation_date":        e.CancellationDate,
			"cancellation_reason":      e.CancellationReason,
			"last_event_at":            e.LastEventAt,
			"version":                  expectedVersion + 1,
			"updated_at":               now,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update enrollment",
			zap.String("enrollment_id", e.ID.String()),
			zap.Int64("expected_version", expectedVersion),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to update enrollment: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return false, nil
	}

	e.Version = expectedVersion + 1
	e.UpdatedAt = now
	return true, nil
}

func (r *enrollmentRepository) ExpireCancellations(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("status = ? AND cancellation_date IS NOT NULL AND cancellation_date <= ?",
			model.EnrollmentStatusAppliedForCancel, now).
		Updates(map[string]interface{}{
			"status":       model.EnrollmentStatusCancelled,
			"trial_status": false,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   now,
		})

	if result.Error != nil {
		r.logger.Error("Failed to expire scheduled cancellations", zap.Error(result.Error))
		return 0, fmt.Errorf("failed to expire cancellations: %w", result.Error)
	}

	return result.RowsAffected, nil
}
