package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository reads the courses table maintained by the catalog service
func NewCourseRepository(db *gorm.DB) domainRepo.CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) FindByID(ctx context.Context, courseID string) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

type payoutAccountRepository struct {
	db *gorm.DB
}

// NewPayoutAccountRepository reads teachers' connected payout accounts
func NewPayoutAccountRepository(db *gorm.DB) domainRepo.PayoutAccountRepository {
	return &payoutAccountRepository{db: db}
}

func (r *payoutAccountRepository) FindByTeacherID(ctx context.Context, teacherID string) (*model.PayoutAccount, error) {
	var account model.PayoutAccount
	if err := r.db.WithContext(ctx).Where("teacher_id = ?", teacherID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payout account: %w", err)
	}
	return &account, nil
}
