package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

type PurchaseService struct {
	purchaseRepo repository.PurchaseRepository
	logger       *zap.Logger
}

func NewPurchaseService(purchaseRepo repository.PurchaseRepository, logger *zap.Logger) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		logger:       logger,
	}
}

// ListStudentPurchases returns one page of the student's ledger, newest first
func (s *PurchaseService) ListStudentPurchases(ctx context.Context, studentID string, params entity.PaginationParams) (*entity.PaginatedPurchasesResponse, error) {
	params.Normalize()

	purchases, total, err := s.purchaseRepo.ListByStudent(ctx, studentID, params.Limit, params.Offset())
	if err != nil {
		s.logger.Error("failed to list purchases",
			zap.String("student_id", studentID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	if purchases == nil {
		purchases = []model.Purchase{}
	}

	return &entity.PaginatedPurchasesResponse{
		Data:       purchases,
		Pagination: entity.NewPaginationMeta(params.Page, params.Limit, total),
	}, nil
}
