package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/enrollment"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/semo-enrollment/internal/domain/errors"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/provider"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

// Event names reported to metrics, logs and notifications
const (
	EventCheckoutCompleted       = "checkout.session.completed"
	EventInvoiceUpdated          = "invoice.updated"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventInvoicePaymentFailed    = "invoice.payment_failed"
	EventSubscriptionUpdated     = "customer.subscription.updated"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
)

// ReconcileService applies decoded provider events to the ledger and to enrollments.
// Every method is idempotent: replaying an event converges on the same state.
type ReconcileService struct {
	purchaseRepo    repository.PurchaseRepository
	enrollmentRepo  repository.EnrollmentRepository
	paymentProvider provider.PaymentProvider
	writer          *enrollmentWriter
	feePercent      float64
	logger          *zap.Logger
}

func NewReconcileService(
	purchaseRepo repository.PurchaseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	paymentProvider provider.PaymentProvider,
	notifier Notifier,
	metrics Metrics,
	feePercent float64,
	maxRetries int,
	logger *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		purchaseRepo:    purchaseRepo,
		enrollmentRepo:  enrollmentRepo,
		paymentProvider: paymentProvider,
		writer:          newEnrollmentWriter(enrollmentRepo, notifier, metrics, maxRetries, logger),
		feePercent:      feePercent,
		logger:          logger,
	}
}

// WithClock replaces the time source
func (s *ReconcileService) WithClock(now func() time.Time) *ReconcileService {
	s.writer.now = now
	return s
}

// Checkout records the ledger entry of a completed checkout session and grants
// or maps the enrollment for its payment type.
func (s *ReconcileService) Checkout(ctx context.Context, ev entity.CheckoutCompleted) error {
	c := ev.Correlation
	if !c.Complete() {
		s.logger.Warn("checkout session without correlation metadata",
			zap.String("session_id", ev.SessionID))
		return domainErrors.ErrMissingCorrelation
	}

	paymentType := c.PaymentType
	if !paymentType.Valid() {
		paymentType = ev.Mode
	}

	if err := s.recordCheckoutPurchase(ctx, ev, paymentType); err != nil {
		return err
	}

	switch paymentType {
	case model.PaymentTypeFree, model.PaymentTypeOneTime:
		if paymentType == model.PaymentTypeOneTime && !ev.Paid {
			s.logger.Info("checkout completed without captured payment, enrollment deferred",
				zap.String("session_id", ev.SessionID))
			return nil
		}
		_, _, err := s.writer.write(ctx, EventCheckoutCompleted,
			s.byStudentCourse(c),
			func(current *model.Enrollment, now time.Time) (model.Enrollment, bool) {
				return enrollment.Enroll(current, c, paymentType.EnrollmentType(), ev.OccurredAt, now)
			})
		return err

	case model.PaymentTypeSubscription:
		if ev.SubscriptionID == "" {
			s.logger.Warn("subscription checkout without subscription id",
				zap.String("session_id", ev.SessionID))
			return nil
		}

		sub, err := s.paymentProvider.GetSubscription(ctx, ev.SubscriptionID)
		if err != nil {
			return fmt.Errorf("failed to retrieve subscription %s: %w", ev.SubscriptionID, err)
		}
		if !sub.Correlation.Complete() {
			sub.Correlation = c
		}

		_, _, err = s.writer.write(ctx, EventCheckoutCompleted,
			s.bySubscription(sub.ID, sub.Correlation),
			func(current *model.Enrollment, now time.Time) (model.Enrollment, bool) {
				return enrollment.ApplySubscription(current, *sub, ev.OccurredAt, now)
			})
		return err
	}

	s.logger.Warn("checkout session with unknown payment type",
		zap.String("session_id", ev.SessionID),
		zap.String("payment_type", string(paymentType)))
	return nil
}

func (s *ReconcileService) recordCheckoutPurchase(ctx context.Context, ev entity.CheckoutCompleted, paymentType model.PaymentType) error {
	amount := model.AmountFromMinor(ev.AmountTotal, ev.Currency)
	fee, earning := model.SplitFee(amount, s.feePercent, ev.Currency)

	upd := model.PurchaseUpdate{
		Amount:         &amount,
		PlatformFee:    &fee,
		TeacherEarning: &earning,
	}
	if ev.Paid {
		paid := model.PurchaseStatusPaid
		upd.Status = &paid
		upd.StatusAt = ev.OccurredAt
	}
	if ev.SubscriptionID != "" {
		upd.ProviderSubscriptionID = &ev.SubscriptionID
	}
	if ev.InvoiceID != "" {
		upd.ProviderInvoiceID = &ev.InvoiceID
	}

	switch {
	case paymentType == model.PaymentTypeOneTime && ev.PaymentIntentID != "":
		receipt, err := s.paymentProvider.GetPaymentIntentReceiptURL(ctx, ev.PaymentIntentID)
		if err != nil {
			s.logger.Warn("receipt enrichment failed",
				zap.String("session_id", ev.SessionID),
				zap.String("payment_intent_id", ev.PaymentIntentID),
				zap.Error(err))
		}
		upd.ReceiptURL = nonEmpty(receipt)
	case paymentType == model.PaymentTypeSubscription && ev.InvoiceID != "":
		links, err := s.paymentProvider.GetInvoiceLinks(ctx, ev.InvoiceID)
		if err != nil {
			s.logger.Warn("invoice enrichment failed",
				zap.String("session_id", ev.SessionID),
				zap.String("invoice_id", ev.InvoiceID),
				zap.Error(err))
		} else if links != nil {
			upd.InvoiceURL = nonEmpty(links.HostedURL)
			upd.InvoicePDF = nonEmpty(links.PDF)
		}
	}

	purchase := &model.Purchase{
		ID:                uuid.New(),
		ProviderSessionID: ev.SessionID,
		StudentID:         ev.Correlation.StudentID,
		CourseID:          ev.Correlation.CourseID,
		TeacherID:         ev.Correlation.TeacherID,
		Currency:          ev.Currency,
		PaymentType:       paymentType,
		Status:            model.PurchaseStatusDraft,
	}
	upd.ApplyTo(purchase)

	created, err := s.purchaseRepo.CreateIfAbsent(ctx, purchase)
	if err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	if created {
		s.logger.Info("purchase recorded",
			zap.String("session_id", ev.SessionID),
			zap.String("student_id", purchase.StudentID),
			zap.String("course_id", purchase.CourseID),
			zap.String("amount", amount.String()),
			zap.String("currency", ev.Currency))
		return nil
	}

	// Redelivery: rewrite only the fields this handler owns. From the first
	// invoice on, amounts, links and the invoice id of a subscription purchase
	// belong to the invoice handlers.
	if paymentType == model.PaymentTypeSubscription {
		upd = model.PurchaseUpdate{
			Status:                 upd.Status,
			StatusAt:               upd.StatusAt,
			ProviderSubscriptionID: upd.ProviderSubscriptionID,
		}
	}
	if _, err := s.purchaseRepo.UpdateBySessionID(ctx, ev.SessionID, upd); err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}
	return nil
}

// InvoiceUpdated refreshes invoice links and amount for invoice.created and
// invoice.finalized. It never writes the purchase status.
func (s *ReconcileService) InvoiceUpdated(ctx context.Context, ev entity.InvoiceEvent) error {
	if ev.InvoiceID == "" {
		return nil
	}

	upd := s.invoiceAmounts(ev.AmountDue, ev.Currency)
	upd.InvoiceURL = nonEmpty(ev.HostedInvoiceURL)
	upd.InvoicePDF = nonEmpty(ev.InvoicePDF)

	n, err := s.purchaseRepo.UpdateByInvoiceID(ctx, ev.InvoiceID, upd)
	if err != nil {
		return fmt.Errorf("failed to update purchase by invoice: %w", err)
	}
	if n == 0 {
		s.logger.Debug("no purchase for invoice yet",
			zap.String("invoice_id", ev.InvoiceID))
	}
	return nil
}

// InvoicePaymentSucceeded marks the most recent purchase of the subscription paid
// and settles PAST_DUE or trial enrollments. A status observed later is kept.
func (s *ReconcileService) InvoicePaymentSucceeded(ctx context.Context, ev entity.InvoiceEvent) error {
	upd := s.invoiceAmounts(ev.AmountPaid, ev.Currency)
	paid := model.PurchaseStatusPaid
	upd.Status = &paid
	upd.StatusAt = ev.OccurredAt
	upd.InvoiceURL = nonEmpty(ev.HostedInvoiceURL)
	upd.InvoicePDF = nonEmpty(ev.InvoicePDF)
	upd.ReceiptURL = nonEmpty(s.invoiceReceiptURL(ctx, ev))

	if err := s.updateInvoicePurchase(ctx, ev, upd); err != nil {
		return err
	}

	if ev.SubscriptionID == "" {
		return nil
	}
	_, _, err := s.writer.write(ctx, EventInvoicePaymentSucceeded,
		s.bySubscription(ev.SubscriptionID, entity.Correlation{}),
		func(current *model.Enrollment, now time.Time) (model.Enrollment, bool) {
			return enrollment.InvoicePaid(current, ev.SubscriptionID, ev.AmountPaid, ev.OccurredAt, now)
		})
	return err
}

// InvoicePaymentFailed marks the purchase failed and the enrollment PAST_DUE.
func (s *ReconcileService) InvoicePaymentFailed(ctx context.Context, ev entity.InvoiceEvent) error {
	failed := model.PurchaseStatusFailed
	upd := model.PurchaseUpdate{Status: &failed, StatusAt: ev.OccurredAt}
	upd.InvoiceURL = nonEmpty(ev.HostedInvoiceURL)
	upd.InvoicePDF = nonEmpty(ev.InvoicePDF)

	if err := s.updateInvoicePurchase(ctx, ev, upd); err != nil {
		return err
	}

	if ev.SubscriptionID == "" {
		return nil
	}
	_, _, err := s.writer.write(ctx, EventInvoicePaymentFailed,
		s.bySubscription(ev.SubscriptionID, entity.Correlation{}),
		func(current *model.Enrollment, now time.Time) (model.Enrollment, bool) {
			return enrollment.InvoicePaymentFailed(current, ev.SubscriptionID, ev.OccurredAt, now)
		})
	return err
}

// SubscriptionUpdated maps the absolute subscription state onto the enrollment.
// When the update overtakes checkout completion the record is created from the
// subscription metadata.
func (s *ReconcileService) SubscriptionUpdated(ctx context.Context, ev entity.SubscriptionEvent) error {
	sub := ev.Subscription
	stored, _, err := s.writer.write(ctx, EventSubscriptionUpdated,
		s.bySubscription(sub.ID, sub.Correlation),
		func(current *model.Enrollment, now time.Time) (model.Enrollment, bool) {
			return enrollment.ApplySubscription(current, sub, ev.OccurredAt, now)
		})
	if err != nil {
		return err
	}
	if stored == nil && !sub.Correlation.Complete() {
		s.logger.Warn("subscription update matches no enrollment and carries no correlation",
			zap.String("subscription_id", sub.ID))
		return domainErrors.ErrMissingCorrelation
	}
	return nil
}

// SubscriptionDeleted cancels the enrollment bound to the subscription.
func (s *ReconcileService) SubscriptionDeleted(ctx context.Context, ev entity.SubscriptionEvent) error {
	sub := ev.Subscription
	stored, _, err := s.writer.write(ctx, EventSubscriptionDeleted,
		s.bySubscription(sub.ID, sub.Correlation),
		func(current *model.Enrollment, now time.Time) (model.Enrollment, bool) {
			return enrollment.SubscriptionDeleted(current, sub, ev.OccurredAt, now)
		})
	if err != nil {
		return err
	}
	if stored == nil {
		s.logger.Info("deleted subscription matches no enrollment",
			zap.String("subscription_id", sub.ID))
	}
	return nil
}

func (s *ReconcileService) updateInvoicePurchase(ctx context.Context, ev entity.InvoiceEvent, upd model.PurchaseUpdate) error {
	var (
		n   int64
		err error
	)
	if ev.SubscriptionID != "" {
		if ev.InvoiceID != "" {
			upd.ProviderInvoiceID = &ev.InvoiceID
		}
		n, err = s.purchaseRepo.UpdateLatestBySubscriptionID(ctx, ev.SubscriptionID, upd)
		if err != nil {
			return fmt.Errorf("failed to update purchase by subscription: %w", err)
		}
	}
	if n == 0 && ev.InvoiceID != "" {
		upd.ProviderInvoiceID = nil
		n, err = s.purchaseRepo.UpdateByInvoiceID(ctx, ev.InvoiceID, upd)
		if err != nil {
			return fmt.Errorf("failed to update purchase by invoice: %w", err)
		}
	}
	if n == 0 {
		s.logger.Info("invoice matches no purchase",
			zap.String("invoice_id", ev.InvoiceID),
			zap.String("subscription_id", ev.SubscriptionID))
	}
	return nil
}

func (s *ReconcileService) invoiceReceiptURL(ctx context.Context, ev entity.InvoiceEvent) string {
	var (
		receipt string
		err     error
	)
	switch {
	case ev.ChargeID != "":
		receipt, err = s.paymentProvider.GetChargeReceiptURL(ctx, ev.ChargeID)
	case ev.PaymentIntentID != "":
		receipt, err = s.paymentProvider.GetPaymentIntentReceiptURL(ctx, ev.PaymentIntentID)
	default:
		return ""
	}
	if err != nil {
		s.logger.Warn("receipt enrichment failed",
			zap.String("invoice_id", ev.InvoiceID),
			zap.String("charge_id", ev.ChargeID),
			zap.Error(err))
		return ""
	}
	return receipt
}

func (s *ReconcileService) invoiceAmounts(minor int64, currency string) model.PurchaseUpdate {
	if currency == "" {
		return model.PurchaseUpdate{}
	}
	amount := model.AmountFromMinor(minor, currency)
	fee, earning := model.SplitFee(amount, s.feePercent, currency)
	return model.PurchaseUpdate{
		Amount:         decimalPtr(amount),
		PlatformFee:    decimalPtr(fee),
		TeacherEarning: decimalPtr(earning),
	}
}

func (s *ReconcileService) byStudentCourse(c entity.Correlation) loadFunc {
	return func(ctx context.Context) (*model.Enrollment, error) {
		return s.enrollmentRepo.FindByStudentAndCourse(ctx, c.StudentID, c.CourseID)
	}
}

// bySubscription prefers the record bound to the subscription and falls back to
// the (student, course) key from metadata.
func (s *ReconcileService) bySubscription(subscriptionID string, c entity.Correlation) loadFunc {
	return func(ctx context.Context) (*model.Enrollment, error) {
		if subscriptionID != "" {
			e, err := s.enrollmentRepo.FindBySubscriptionID(ctx, subscriptionID)
			if err != nil || e != nil {
				return e, err
			}
		}
		if !c.Complete() {
			return nil, nil
		}
		return s.enrollmentRepo.FindByStudentAndCourse(ctx, c.StudentID, c.CourseID)
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
