package enrollment

import (
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

// Access is the answer of the access gate for one (student, course).
type Access struct {
	Granted      bool                   `json:"granted"`
	Status       model.EnrollmentStatus `json:"status,omitempty"`
	CanRenew     bool                   `json:"canRenew"`
	EnrollmentID string                 `json:"enrollmentId,omitempty"`
}

// Decide translates an already resolved record into an access decision.
// No record means no access and nothing to renew.
func Decide(e *model.Enrollment) Access {
	if e == nil {
		return Access{}
	}
	return Access{
		Granted:      e.Status.GrantsAccess(),
		Status:       e.Status,
		CanRenew:     e.CanRenew(),
		EnrollmentID: e.ID.String(),
	}
}
