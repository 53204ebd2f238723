package usecase

import "github.com/wekeepgrowing/semo-enrollment/internal/domain/model"

// Metrics receives business counters from the usecases
type Metrics interface {
	EnrollmentTransition(event string, from, to model.EnrollmentStatus)
	EnrollmentConflict(event string)
	CheckoutSessionCreated(paymentType model.PaymentType)
	AccessChecked(granted bool)
}

type noopMetrics struct{}

// NoopMetrics discards every observation
func NoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) EnrollmentTransition(string, model.EnrollmentStatus, model.EnrollmentStatus) {}
func (noopMetrics) EnrollmentConflict(string)                                                   {}
func (noopMetrics) CheckoutSessionCreated(model.PaymentType)                                    {}
func (noopMetrics) AccessChecked(bool)                                                          {}
