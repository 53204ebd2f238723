package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/enrollment"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

const eventAccessCheck = "access.check"

// AccessGate answers whether a student may open a course's content.
// Every call reads the store; results are never cached.
type AccessGate struct {
	enrollmentRepo repository.EnrollmentRepository
	writer         *enrollmentWriter
	metrics        Metrics
	logger         *zap.Logger
}

func NewAccessGate(enrollmentRepo repository.EnrollmentRepository, notifier Notifier, metrics Metrics, maxRetries int, logger *zap.Logger) *AccessGate {
	writer := newEnrollmentWriter(enrollmentRepo, notifier, metrics, maxRetries, logger)
	return &AccessGate{
		enrollmentRepo: enrollmentRepo,
		writer:         writer,
		metrics:        writer.metrics,
		logger:         logger,
	}
}

// WithClock replaces the time source
func (g *AccessGate) WithClock(now func() time.Time) *AccessGate {
	g.writer.now = now
	return g
}

// Check applies a due scheduled cancellation before deciding, so a record past its
// cancellation date is never granted.
func (g *AccessGate) Check(ctx context.Context, studentID, courseID string) (enrollment.Access, error) {
	load := func(ctx context.Context) (*model.Enrollment, error) {
		return g.enrollmentRepo.FindByStudentAndCourse(ctx, studentID, courseID)
	}

	stored, _, err := g.writer.write(ctx, eventAccessCheck, load, enrollment.Resolve)
	if err != nil {
		return enrollment.Access{}, err
	}

	access := enrollment.Decide(stored)
	g.metrics.AccessChecked(access.Granted)
	g.logger.Debug("access checked",
		zap.String("student_id", studentID),
		zap.String("course_id", courseID),
		zap.Bool("granted", access.Granted),
		zap.String("status", string(access.Status)))
	return access, nil
}
