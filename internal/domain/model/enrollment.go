package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// EnrollmentType is how the student obtained access to the course
type EnrollmentType string

const (
	EnrollmentTypeFree              EnrollmentType = "FREE"
	EnrollmentTypeOneTime           EnrollmentType = "ONETIME"
	EnrollmentTypeSubscription      EnrollmentType = "SUBSCRIPTION"
	EnrollmentTypeTeacherEnrollment EnrollmentType = "TEACHERENROLLMENT"
)

// EnrollmentStatus represents the access state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusActive           EnrollmentStatus = "ACTIVE"
	EnrollmentStatusTrial            EnrollmentStatus = "TRIAL"
	EnrollmentStatusPastDue          EnrollmentStatus = "PAST_DUE"
	EnrollmentStatusAppliedForCancel EnrollmentStatus = "APPLIEDFORCANCEL"
	EnrollmentStatusCancelled        EnrollmentStatus = "CANCELLED"
)

// Scan implements sql.Scanner interface
func (s *EnrollmentStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = EnrollmentStatus(v)
	case []byte:
		*s = EnrollmentStatus(v)
	default:
		*s = EnrollmentStatusCancelled
	}
	return nil
}

// Value implements driver.Valuer interface
func (s EnrollmentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// GrantsAccess reports whether the status lets the student into course content.
func (s EnrollmentStatus) GrantsAccess() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusTrial, EnrollmentStatusAppliedForCancel, EnrollmentStatusPastDue:
		return true
	}
	return false
}

// Enrollment is a student's access-state record for one course.
// One row exists per (student_id, course_id); re-enrollment reuses it.
type Enrollment struct {
	ID                     uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID              string           `gorm:"size:64;not null;uniqueIndex:idx_enrollments_student_course" json:"student_id"`
	CourseID               string           `gorm:"size:64;not null;uniqueIndex:idx_enrollments_student_course" json:"course_id"`
	EnrollmentType         EnrollmentType   `gorm:"size:32;not null" json:"enrollment_type"`
	Status                 EnrollmentStatus `gorm:"size:32;not null;index" json:"status"`
	ProviderSubscriptionID *string          `gorm:"size:255;index" json:"provider_subscription_id,omitempty"`
	HasUsedTrial           bool             `gorm:"not null;default:false" json:"has_used_trial"`
	TrialStatus            bool             `gorm:"not null;default:false" json:"trial_status"`
	TrialEndDate           *time.Time       `json:"trial_end_date,omitempty"`
	CancellationDate       *time.Time       `gorm:"index" json:"cancellation_date,omitempty"`
	CancellationReason     *string          `gorm:"size:100" json:"cancellation_reason,omitempty"`
	Version                int64            `gorm:"not null;default:1" json:"version"`
	LastEventAt            *time.Time       `json:"last_event_at,omitempty"`
	CreatedAt              time.Time        `gorm:"default:now()" json:"created_at"`
	UpdatedAt              time.Time        `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Enrollment) TableName() string {
	return "enrollments"
}

// BoundTo reports whether the record is tied to the given provider subscription.
func (e *Enrollment) BoundTo(subscriptionID string) bool {
	return subscriptionID != "" && e.ProviderSubscriptionID != nil && *e.ProviderSubscriptionID == subscriptionID
}

// CanRenew is true only for cancelled subscription enrollments.
func (e *Enrollment) CanRenew() bool {
	return e.Status == EnrollmentStatusCancelled && e.EnrollmentType == EnrollmentTypeSubscription
}
