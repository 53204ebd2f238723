package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/semo-enrollment/internal/adapter/repository"
	"github.com/wekeepgrowing/semo-enrollment/internal/adapter/repository/memory"
	"github.com/wekeepgrowing/semo-enrollment/internal/config"
	domainRepo "github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Course        domainRepo.CourseRepository
	PayoutAccount domainRepo.PayoutAccountRepository
	Enrollment    domainRepo.EnrollmentRepository
	Purchase      domainRepo.PurchaseRepository
	WebhookEvent  domainRepo.WebhookEventRepository

	// db is nil for the memory driver
	db *gorm.DB
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Course:        repository.NewCourseRepository(db),
		PayoutAccount: repository.NewPayoutAccountRepository(db),
		Enrollment:    repository.NewEnrollmentRepository(db, logger),
		Purchase:      repository.NewPurchaseRepository(db, logger),
		WebhookEvent:  repository.NewWebhookEventRepository(db, logger),
		db:            db,
	}
}

// NewMemoryRepositories keeps every store in process
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Course:        memory.NewCourseRepository(),
		PayoutAccount: memory.NewPayoutAccountRepository(),
		Enrollment:    memory.NewEnrollmentRepository(),
		Purchase:      memory.NewPurchaseRepository(),
		WebhookEvent:  memory.NewWebhookEventRepository(),
	}
}

// Open builds the repositories for the configured driver, connecting and
// migrating when the driver is postgres.
func Open(cfg *config.DatabaseConfig, logger *zap.Logger) (*Repositories, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory stores; state is lost on restart")
		return NewMemoryRepositories(), nil
	case config.DriverPostgres, "":
		db, err := NewConnection(cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := Migrate(db, logger); err != nil {
			_ = Close(db, logger)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return NewRepositories(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Close releases the database connection, if any
func (r *Repositories) Close(logger *zap.Logger) error {
	if r.db == nil {
		return nil
	}
	return Close(r.db, logger)
}
