package model

import "github.com/shopspring/decimal"

// Course is the read model of a course owned by the catalog service.
type Course struct {
	ID              string          `gorm:"primaryKey;size:64" json:"id"`
	TeacherID       string          `gorm:"size:64;not null;index" json:"teacher_id"`
	Title           string          `gorm:"size:255;not null" json:"title"`
	PaymentType     *PaymentType    `gorm:"size:32" json:"payment_type,omitempty"`
	Price           decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"price"`
	Currency        string          `gorm:"size:3;not null;default:'usd'" json:"currency"`
	TrialPeriodDays int             `gorm:"not null;default:0" json:"trial_period_days"`
	ProviderPriceID *string         `gorm:"size:255" json:"provider_price_id,omitempty"`
}

// TableName specifies the table name for GORM
func (Course) TableName() string {
	return "courses"
}
