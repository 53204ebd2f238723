package entity

import (
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

// Metadata keys attached to every provider object created at checkout.
const (
	MetadataStudentID   = "studentId"
	MetadataCourseID    = "courseId"
	MetadataTeacherID   = "teacherId"
	MetadataPaymentType = "paymentType"
)

// Correlation ties a provider object back to platform identifiers.
type Correlation struct {
	StudentID   string
	CourseID    string
	TeacherID   string
	PaymentType model.PaymentType
}

// CorrelationFromMetadata reads the checkout metadata. Missing keys stay empty.
func CorrelationFromMetadata(md map[string]string) Correlation {
	return Correlation{
		StudentID:   md[MetadataStudentID],
		CourseID:    md[MetadataCourseID],
		TeacherID:   md[MetadataTeacherID],
		PaymentType: model.PaymentType(md[MetadataPaymentType]),
	}
}

// Metadata renders the correlation for a provider object.
func (c Correlation) Metadata() map[string]string {
	return map[string]string{
		MetadataStudentID:   c.StudentID,
		MetadataCourseID:    c.CourseID,
		MetadataTeacherID:   c.TeacherID,
		MetadataPaymentType: string(c.PaymentType),
	}
}

// Complete reports whether the (student, course) key can be resolved.
func (c Correlation) Complete() bool {
	return c.StudentID != "" && c.CourseID != ""
}
