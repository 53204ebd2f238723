package model

// PayoutAccount is a teacher's connected provider account.
type PayoutAccount struct {
	TeacherID           string `gorm:"primaryKey;size:64" json:"teacher_id"`
	ProviderAccountID   string `gorm:"size:255;not null" json:"provider_account_id"`
	OnboardingCompleted bool   `gorm:"not null;default:false" json:"onboarding_completed"`
}

// TableName specifies the table name for GORM
func (PayoutAccount) TableName() string {
	return "payout_accounts"
}

// ReadyForPayouts reports whether checkout may route funds to this account.
func (a *PayoutAccount) ReadyForPayouts() bool {
	return a != nil && a.ProviderAccountID != "" && a.OnboardingCompleted
}
