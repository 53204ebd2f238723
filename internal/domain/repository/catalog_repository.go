package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

// CourseRepository reads courses owned by the catalog.
type CourseRepository interface {
	FindByID(ctx context.Context, courseID string) (*model.Course, error)
}

// PayoutAccountRepository reads teachers' connected payout accounts.
type PayoutAccountRepository interface {
	FindByTeacherID(ctx context.Context, teacherID string) (*model.PayoutAccount, error)
}
