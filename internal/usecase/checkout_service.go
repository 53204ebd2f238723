package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/enrollment"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/semo-enrollment/internal/domain/errors"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/provider"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

// CheckoutInput is a student's request to enroll in a course
type CheckoutInput struct {
	CourseID  string
	StudentID string
	// PaymentType optionally pins the type the client expects the course to have.
	PaymentType model.PaymentType
}

// CheckoutResult is either a free enrollment or a provider checkout page
type CheckoutResult struct {
	Free         bool   `json:"free,omitempty"`
	EnrollmentID string `json:"enrollmentId,omitempty"`
	URL          string `json:"url,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
	SuccessURL   string `json:"successUrl,omitempty"`
	CancelURL    string `json:"cancelUrl,omitempty"`
}

// CheckoutConfig holds the checkout settings taken from service configuration
type CheckoutConfig struct {
	ClientURL          string
	PlatformFeePercent float64
}

type CheckoutService struct {
	courseRepo      repository.CourseRepository
	payoutRepo      repository.PayoutAccountRepository
	enrollmentRepo  repository.EnrollmentRepository
	paymentProvider provider.PaymentProvider
	writer          *enrollmentWriter
	metrics         Metrics
	cfg             CheckoutConfig
	logger          *zap.Logger
}

func NewCheckoutService(
	courseRepo repository.CourseRepository,
	payoutRepo repository.PayoutAccountRepository,
	enrollmentRepo repository.EnrollmentRepository,
	paymentProvider provider.PaymentProvider,
	notifier Notifier,
	metrics Metrics,
	cfg CheckoutConfig,
	maxRetries int,
	logger *zap.Logger,
) *CheckoutService {
	writer := newEnrollmentWriter(enrollmentRepo, notifier, metrics, maxRetries, logger)
	return &CheckoutService{
		courseRepo:      courseRepo,
		payoutRepo:      payoutRepo,
		enrollmentRepo:  enrollmentRepo,
		paymentProvider: paymentProvider,
		writer:          writer,
		metrics:         writer.metrics,
		cfg:             cfg,
		logger:          logger,
	}
}

// WithClock replaces the time source
func (s *CheckoutService) WithClock(now func() time.Time) *CheckoutService {
	s.writer.now = now
	return s
}

// CreateSession validates the request and either enrolls a free course directly
// or creates a provider checkout session. Paid flows change no local state.
func (s *CheckoutService) CreateSession(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	course, err := s.courseRepo.FindByID(ctx, in.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if course == nil {
		return nil, domainErrors.NewCourseNotFoundError(in.StudentID, in.CourseID)
	}

	if course.PaymentType == nil || !course.PaymentType.Valid() {
		return nil, domainErrors.NewPaymentTypeMissingError(in.StudentID, in.CourseID)
	}
	paymentType := *course.PaymentType
	if in.PaymentType != "" && in.PaymentType != paymentType {
		return nil, domainErrors.NewPaymentTypeMismatchError(in.StudentID, in.CourseID, string(paymentType), string(in.PaymentType))
	}

	current, err := s.enrollmentRepo.FindByStudentAndCourse(ctx, in.StudentID, in.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	if current != nil {
		resolved, _ := enrollment.Resolve(current, s.writer.now())
		if resolved.Status != model.EnrollmentStatusCancelled {
			return nil, domainErrors.NewAlreadyEnrolledError(in.StudentID, in.CourseID, string(resolved.Status))
		}
	}

	correlation := entity.Correlation{
		StudentID:   in.StudentID,
		CourseID:    course.ID,
		TeacherID:   course.TeacherID,
		PaymentType: paymentType,
	}

	if paymentType == model.PaymentTypeFree {
		return s.enrollFree(ctx, correlation)
	}

	account, err := s.payoutRepo.FindByTeacherID(ctx, course.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payout account: %w", err)
	}
	if !account.ReadyForPayouts() {
		return nil, domainErrors.NewPayoutNotOnboardedError(in.StudentID, in.CourseID)
	}

	req := &provider.CheckoutSessionRequest{
		Course:               course,
		Mode:                 paymentType,
		Correlation:          correlation,
		DestinationAccountID: account.ProviderAccountID,
		PlatformFeePercent:   s.cfg.PlatformFeePercent,
		SuccessURL:           s.successURL(course.ID),
		CancelURL:            s.cancelURL(course.ID),
	}
	// The single trial-eligibility decision: one trial per (student, course).
	if paymentType == model.PaymentTypeSubscription && course.TrialPeriodDays > 0 &&
		(current == nil || !current.HasUsedTrial) {
		req.TrialPeriodDays = course.TrialPeriodDays
	}

	session, err := s.paymentProvider.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.logger.Error("failed to create checkout session",
			zap.String("student_id", in.StudentID),
			zap.String("course_id", in.CourseID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.metrics.CheckoutSessionCreated(paymentType)
	s.logger.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.String("student_id", in.StudentID),
		zap.String("course_id", in.CourseID),
		zap.String("payment_type", string(paymentType)),
		zap.Int("trial_period_days", req.TrialPeriodDays))

	return &CheckoutResult{
		URL:        session.URL,
		SessionID:  session.ID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	}, nil
}

func (s *CheckoutService) enrollFree(ctx context.Context, c entity.Correlation) (*CheckoutResult, error) {
	load := func(ctx context.Context) (*model.Enrollment, error) {
		return s.enrollmentRepo.FindByStudentAndCourse(ctx, c.StudentID, c.CourseID)
	}
	transition := func(current *model.Enrollment, now time.Time) (model.Enrollment, bool) {
		return enrollment.Enroll(current, c, model.EnrollmentTypeFree, now, now)
	}

	stored, _, err := s.writer.write(ctx, "checkout.free", load, transition)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("free enrollment for course %s was not stored", c.CourseID)
	}

	s.metrics.CheckoutSessionCreated(model.PaymentTypeFree)
	return &CheckoutResult{Free: true, EnrollmentID: stored.ID.String()}, nil
}

func (s *CheckoutService) successURL(courseID string) string {
	// {CHECKOUT_SESSION_ID} is substituted by the provider and must stay unescaped.
	return s.clientBase() + "/courses/" + url.PathEscape(courseID) + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
}

func (s *CheckoutService) cancelURL(courseID string) string {
	return s.clientBase() + "/courses/" + url.PathEscape(courseID) + "?checkout=cancelled"
}

func (s *CheckoutService) clientBase() string {
	return strings.TrimRight(s.cfg.ClientURL, "/")
}
