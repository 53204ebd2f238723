package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/adapter/repository/memory"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	"github.com/wekeepgrowing/semo-enrollment/internal/usecase"
)

func TestPurchaseService_ListStudentPurchases(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewPurchaseRepository()
	for i, id := range []string{"cs_1", "cs_2", "cs_3"} {
		_, err := repo.CreateIfAbsent(ctx, &model.Purchase{
			ProviderSessionID: id, StudentID: "student-1", CreatedAt: day(i),
		})
		require.NoError(t, err)
	}
	service := usecase.NewPurchaseService(repo, zap.NewNop())

	t.Run("defaults apply to zero params", func(t *testing.T) {
		res, err := service.ListStudentPurchases(ctx, "student-1", entity.PaginationParams{})
		require.NoError(t, err)
		assert.Len(t, res.Data, 3)
		assert.Equal(t, entity.PaginationMeta{CurrentPage: 1, PerPage: entity.DefaultPageSize, Total: 3, TotalPages: 1}, res.Pagination)
	})

	t.Run("second page", func(t *testing.T) {
		res, err := service.ListStudentPurchases(ctx, "student-1", entity.PaginationParams{Page: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, res.Data, 1)
		assert.Equal(t, "cs_1", res.Data[0].ProviderSessionID)
		assert.Equal(t, 2, res.Pagination.TotalPages)
	})

	t.Run("unknown student gets an empty list", func(t *testing.T) {
		res, err := service.ListStudentPurchases(ctx, "nobody", entity.PaginationParams{})
		require.NoError(t, err)
		assert.NotNil(t, res.Data)
		assert.Empty(t, res.Data)
	})
}
