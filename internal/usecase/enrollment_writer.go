package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/wekeepgrowing/semo-enrollment/internal/domain/errors"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

const defaultMaxTransitionRetries = 5

type (
	loadFunc       func(ctx context.Context) (*model.Enrollment, error)
	transitionFunc func(current *model.Enrollment, now time.Time) (model.Enrollment, bool)
)

// enrollmentWriter runs read -> pure transition -> conditional write until the
// write wins or retries run out. No lock is held across the loop.
type enrollmentWriter struct {
	repo       repository.EnrollmentRepository
	notifier   Notifier
	metrics    Metrics
	maxRetries int
	now        func() time.Time
	logger     *zap.Logger
}

func newEnrollmentWriter(repo repository.EnrollmentRepository, notifier Notifier, metrics Metrics, maxRetries int, logger *zap.Logger) *enrollmentWriter {
	if maxRetries <= 0 {
		maxRetries = defaultMaxTransitionRetries
	}
	if notifier == nil {
		notifier = NoopNotifier()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	return &enrollmentWriter{
		repo:       repo,
		notifier:   notifier,
		metrics:    metrics,
		maxRetries: maxRetries,
		now:        time.Now,
		logger:     logger,
	}
}

// write returns the stored record after the transition and whether it changed.
func (w *enrollmentWriter) write(ctx context.Context, event string, load loadFunc, transition transitionFunc) (*model.Enrollment, bool, error) {
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		current, err := load(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load enrollment: %w", err)
		}

		next, changed := transition(current, w.now())
		if !changed {
			return current, false, nil
		}

		var won bool
		if current == nil {
			next.ID = uuid.New()
			won, err = w.repo.CreateIfAbsent(ctx, &next)
		} else {
			won, err = w.repo.CompareAndSwap(ctx, &next, current.Version)
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to write enrollment: %w", err)
		}

		if won {
			w.committed(ctx, event, current, &next)
			return &next, true, nil
		}

		w.metrics.EnrollmentConflict(event)
		w.logger.Debug("enrollment write lost the race, retrying",
			zap.String("event", event),
			zap.Int("attempt", attempt))
	}

	w.logger.Warn("enrollment write retries exhausted",
		zap.String("event", event),
		zap.Int("max_retries", w.maxRetries))
	return nil, false, domainErrors.ErrConcurrentUpdate
}

func (w *enrollmentWriter) committed(ctx context.Context, event string, before, after *model.Enrollment) {
	var from model.EnrollmentStatus
	if before != nil {
		from = before.Status
	}

	w.metrics.EnrollmentTransition(event, from, after.Status)
	w.logger.Info("enrollment updated",
		zap.String("event", event),
		zap.String("enrollment_id", after.ID.String()),
		zap.String("student_id", after.StudentID),
		zap.String("course_id", after.CourseID),
		zap.String("from", string(from)),
		zap.String("to", string(after.Status)))

	w.notifier.EnrollmentChanged(ctx, EnrollmentChange{
		EnrollmentID:   after.ID.String(),
		StudentID:      after.StudentID,
		CourseID:       after.CourseID,
		EnrollmentType: after.EnrollmentType,
		Event:          event,
		From:           from,
		To:             after.Status,
		OccurredAt:     w.now(),
	})
}
