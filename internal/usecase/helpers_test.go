package usecase_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/provider"
)

// MockPaymentProvider is a mock implementation of provider.PaymentProvider
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateCheckoutSession(ctx context.Context, req *provider.CheckoutSessionRequest) (*provider.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) GetSubscription(ctx context.Context, subscriptionID string) (*entity.SubscriptionState, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SubscriptionState), args.Error(1)
}

func (m *MockPaymentProvider) GetPaymentIntentReceiptURL(ctx context.Context, paymentIntentID string) (string, error) {
	args := m.Called(ctx, paymentIntentID)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) GetChargeReceiptURL(ctx context.Context, chargeID string) (string, error) {
	args := m.Called(ctx, chargeID)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) GetInvoiceLinks(ctx context.Context, invoiceID string) (*provider.InvoiceLinks, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.InvoiceLinks), args.Error(1)
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.Add(time.Duration(n) * 24 * time.Hour) }

func ptr[T any](v T) *T { return &v }

// clock is a settable time source shared by the services under test.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func correlation(pt model.PaymentType) entity.Correlation {
	return entity.Correlation{StudentID: "student-1", CourseID: "course-1", TeacherID: "teacher-1", PaymentType: pt}
}

func course(pt *model.PaymentType, trialDays int) model.Course {
	return model.Course{
		ID:              "course-1",
		TeacherID:       "teacher-1",
		Title:           "Go in practice",
		PaymentType:     pt,
		Price:           decimal.RequireFromString("49.00"),
		Currency:        "usd",
		TrialPeriodDays: trialDays,
	}
}
