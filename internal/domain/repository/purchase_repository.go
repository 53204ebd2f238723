package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

// PurchaseRepository persists ledger entries. Every update is one conditional statement.
type PurchaseRepository interface {
	// CreateIfAbsent inserts p unless a row with the same provider session id exists.
	CreateIfAbsent(ctx context.Context, p *model.Purchase) (bool, error)
	FindBySessionID(ctx context.Context, sessionID string) (*model.Purchase, error)

	UpdateBySessionID(ctx context.Context, sessionID string, upd model.PurchaseUpdate) (int64, error)
	UpdateByInvoiceID(ctx context.Context, invoiceID string, upd model.PurchaseUpdate) (int64, error)
	// UpdateLatestBySubscriptionID touches only the most recently created row of the subscription.
	UpdateLatestBySubscriptionID(ctx context.Context, subscriptionID string, upd model.PurchaseUpdate) (int64, error)

	ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]model.Purchase, int64, error)
}
