package model

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType is the pricing model a course declares
type PaymentType string

const (
	PaymentTypeFree         PaymentType = "FREE"
	PaymentTypeOneTime      PaymentType = "ONETIME"
	PaymentTypeSubscription PaymentType = "SUBSCRIPTION"
)

// Valid reports whether t is one of the known payment types.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeFree, PaymentTypeOneTime, PaymentTypeSubscription:
		return true
	}
	return false
}

// EnrollmentType maps a payment type to the enrollment it produces.
func (t PaymentType) EnrollmentType() EnrollmentType {
	switch t {
	case PaymentTypeFree:
		return EnrollmentTypeFree
	case PaymentTypeSubscription:
		return EnrollmentTypeSubscription
	default:
		return EnrollmentTypeOneTime
	}
}

// PurchaseStatus represents the state of a ledger entry
type PurchaseStatus string

const (
	PurchaseStatusDraft  PurchaseStatus = "draft"
	PurchaseStatusPaid   PurchaseStatus = "paid"
	PurchaseStatusFailed PurchaseStatus = "failed"
)

// Scan implements sql.Scanner interface
func (s *PurchaseStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = PurchaseStatus(v)
	case []byte:
		*s = PurchaseStatus(v)
	default:
		*s = PurchaseStatusDraft
	}
	return nil
}

// Value implements driver.Valuer interface
func (s PurchaseStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Rank orders statuses observed at the same instant. paid outranks failed.
func (s PurchaseStatus) Rank() int {
	switch s {
	case PurchaseStatusPaid:
		return 2
	case PurchaseStatusFailed:
		return 1
	}
	return 0
}

// StatusSupersedes reports whether status observed at at replaces a stored status
// observed at storedAt. A nil storedAt never blocks.
func StatusSupersedes(status PurchaseStatus, at time.Time, stored PurchaseStatus, storedAt *time.Time) bool {
	if storedAt == nil || at.After(*storedAt) {
		return true
	}
	return at.Equal(*storedAt) && status.Rank() >= stored.Rank()
}

// Purchase is the ledger entry of one payment attempt
type Purchase struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProviderSessionID      string          `gorm:"size:255;not null;uniqueIndex" json:"provider_session_id"`
	ProviderSubscriptionID *string         `gorm:"size:255;index" json:"provider_subscription_id,omitempty"`
	ProviderInvoiceID      *string         `gorm:"size:255;index" json:"provider_invoice_id,omitempty"`
	StudentID              string          `gorm:"size:64;not null;index" json:"student_id"`
	CourseID               string          `gorm:"size:64;not null" json:"course_id"`
	TeacherID              string          `gorm:"size:64;not null" json:"teacher_id"`
	Amount                 decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"amount"`
	Currency               string          `gorm:"size:3;not null" json:"currency"`
	PaymentType            PaymentType     `gorm:"size:32;not null" json:"payment_type"`
	Status                 PurchaseStatus  `gorm:"size:16;not null;default:'draft'" json:"status"`
	StatusEventAt          *time.Time      `json:"-"`
	ReceiptURL             *string         `json:"receipt_url,omitempty"`
	InvoiceURL             *string         `json:"invoice_url,omitempty"`
	InvoicePDF             *string         `json:"invoice_pdf,omitempty"`
	PlatformFee            decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"platform_fee"`
	TeacherEarning         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"teacher_earning"`
	CreatedAt              time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt              time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Purchase) TableName() string {
	return "purchases"
}

// PurchaseUpdate carries the fields one handler owns. Nil fields are left as stored.
// Status is written only when StatusAt is not older than the stored status_event_at.
type PurchaseUpdate struct {
	Status                 *PurchaseStatus
	StatusAt               time.Time
	ProviderSubscriptionID *string
	ProviderInvoiceID      *string
	ReceiptURL             *string
	InvoiceURL             *string
	InvoicePDF             *string
	Amount                 *decimal.Decimal
	PlatformFee            *decimal.Decimal
	TeacherEarning         *decimal.Decimal
}

// Empty reports whether the update would touch no column.
func (u PurchaseUpdate) Empty() bool {
	return u.Status == nil && len(u.Columns()) == 0
}

// Columns returns the unconditional column/value pairs of a single UPDATE statement.
// The guarded status pair is left to the store.
func (u PurchaseUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.ProviderSubscriptionID != nil {
		cols["provider_subscription_id"] = *u.ProviderSubscriptionID
	}
	if u.ProviderInvoiceID != nil {
		cols["provider_invoice_id"] = *u.ProviderInvoiceID
	}
	if u.ReceiptURL != nil {
		cols["receipt_url"] = *u.ReceiptURL
	}
	if u.InvoiceURL != nil {
		cols["invoice_url"] = *u.InvoiceURL
	}
	if u.InvoicePDF != nil {
		cols["invoice_pdf"] = *u.InvoicePDF
	}
	if u.Amount != nil {
		cols["amount"] = *u.Amount
	}
	if u.PlatformFee != nil {
		cols["platform_fee"] = *u.PlatformFee
	}
	if u.TeacherEarning != nil {
		cols["teacher_earning"] = *u.TeacherEarning
	}
	return cols
}

// ApplyTo copies the set fields onto p.
func (u PurchaseUpdate) ApplyTo(p *Purchase) {
	if u.Status != nil && StatusSupersedes(*u.Status, u.StatusAt, p.Status, p.StatusEventAt) {
		at := u.StatusAt
		p.Status = *u.Status
		p.StatusEventAt = &at
	}
	if u.ProviderSubscriptionID != nil {
		p.ProviderSubscriptionID = stringPtr(*u.ProviderSubscriptionID)
	}
	if u.ProviderInvoiceID != nil {
		p.ProviderInvoiceID = stringPtr(*u.ProviderInvoiceID)
	}
	if u.ReceiptURL != nil {
		p.ReceiptURL = stringPtr(*u.ReceiptURL)
	}
	if u.InvoiceURL != nil {
		p.InvoiceURL = stringPtr(*u.InvoiceURL)
	}
	if u.InvoicePDF != nil {
		p.InvoicePDF = stringPtr(*u.InvoicePDF)
	}
	if u.Amount != nil {
		p.Amount = *u.Amount
	}
	if u.PlatformFee != nil {
		p.PlatformFee = *u.PlatformFee
	}
	if u.TeacherEarning != nil {
		p.TeacherEarning = *u.TeacherEarning
	}
}

func stringPtr(s string) *string { return &s }

// zeroDecimalCurrencies are charged in whole units by the provider.
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

// CurrencyExponent returns the number of minor-unit digits for an ISO currency.
func CurrencyExponent(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// AmountFromMinor converts a provider minor-unit amount into a currency amount.
func AmountFromMinor(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -CurrencyExponent(currency))
}

// AmountToMinor converts a currency amount into provider minor units.
func AmountToMinor(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(CurrencyExponent(currency)).Round(0).IntPart()
}

// SplitFee divides amount into the platform fee and the teacher's earning.
// The fee is rounded to the currency exponent; earning takes the remainder.
func SplitFee(amount decimal.Decimal, feePercent float64, currency string) (platformFee, teacherEarning decimal.Decimal) {
	platformFee = amount.Mul(decimal.NewFromFloat(feePercent)).Div(decimal.NewFromInt(100)).Round(CurrencyExponent(currency))
	return platformFee, amount.Sub(platformFee)
}
