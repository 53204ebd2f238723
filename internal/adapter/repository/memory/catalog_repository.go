package memory

import (
	"context"
	"sync"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

// CourseRepository serves courses registered with Put
type CourseRepository struct {
	mu   sync.RWMutex
	rows map[string]model.Course
}

var _ domainRepo.CourseRepository = (*CourseRepository)(nil)

func NewCourseRepository() *CourseRepository {
	return &CourseRepository{rows: make(map[string]model.Course)}
}

func (r *CourseRepository) Put(c model.Course) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID] = c
}

func (r *CourseRepository) FindByID(_ context.Context, courseID string) (*model.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.rows[courseID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// PayoutAccountRepository serves payout accounts registered with Put
type PayoutAccountRepository struct {
	mu   sync.RWMutex
	rows map[string]model.PayoutAccount
}

var _ domainRepo.PayoutAccountRepository = (*PayoutAccountRepository)(nil)

func NewPayoutAccountRepository() *PayoutAccountRepository {
	return &PayoutAccountRepository{rows: make(map[string]model.PayoutAccount)}
}

func (r *PayoutAccountRepository) Put(a model.PayoutAccount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[a.TeacherID] = a
}

func (r *PayoutAccountRepository) FindByTeacherID(_ context.Context, teacherID string) (*model.PayoutAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.rows[teacherID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}
