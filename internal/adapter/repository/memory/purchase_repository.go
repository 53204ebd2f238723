package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

// PurchaseRepository is a mutex-guarded ledger kept in insertion order
type PurchaseRepository struct {
	mu   sync.RWMutex
	rows []model.Purchase
}

var _ domainRepo.PurchaseRepository = (*PurchaseRepository)(nil)

func NewPurchaseRepository() *PurchaseRepository {
	return &PurchaseRepository{}
}

func (r *PurchaseRepository) CreateIfAbsent(_ context.Context, p *model.Purchase) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rows {
		if existing.ProviderSessionID == p.ProviderSessionID {
			return false, nil
		}
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = model.PurchaseStatusDraft
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	r.rows = append(r.rows, *copyPurchase(*p))
	return true, nil
}

func (r *PurchaseRepository) FindBySessionID(_ context.Context, sessionID string) (*model.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.rows {
		if p.ProviderSessionID == sessionID {
			return copyPurchase(p), nil
		}
	}
	return nil, nil
}

func (r *PurchaseRepository) UpdateBySessionID(_ context.Context, sessionID string, upd model.PurchaseUpdate) (int64, error) {
	return r.update(upd, func(p *model.Purchase) bool { return p.ProviderSessionID == sessionID }), nil
}

func (r *PurchaseRepository) UpdateByInvoiceID(_ context.Context, invoiceID string, upd model.PurchaseUpdate) (int64, error) {
	return r.update(upd, func(p *model.Purchase) bool {
		return p.ProviderInvoiceID != nil && *p.ProviderInvoiceID == invoiceID
	}), nil
}

func (r *PurchaseRepository) UpdateLatestBySubscriptionID(_ context.Context, subscriptionID string, upd model.PurchaseUpdate) (int64, error) {
	if upd.Empty() {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	latest := -1
	for i, p := range r.rows {
		if p.ProviderSubscriptionID == nil || *p.ProviderSubscriptionID != subscriptionID {
			continue
		}
		// later insertion wins ties on created_at
		if latest < 0 || !p.CreatedAt.Before(r.rows[latest].CreatedAt) {
			latest = i
		}
	}
	if latest < 0 {
		return 0, nil
	}

	upd.ApplyTo(&r.rows[latest])
	r.rows[latest].UpdatedAt = time.Now()
	return 1, nil
}

func (r *PurchaseRepository) update(upd model.PurchaseUpdate, match func(*model.Purchase) bool) int64 {
	if upd.Empty() {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for i := range r.rows {
		if !match(&r.rows[i]) {
			continue
		}
		upd.ApplyTo(&r.rows[i])
		r.rows[i].UpdatedAt = time.Now()
		n++
	}
	return n
}

func (r *PurchaseRepository) ListByStudent(_ context.Context, studentID string, limit, offset int) ([]model.Purchase, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []model.Purchase
	for _, p := range r.rows {
		if p.StudentID == studentID {
			matched = append(matched, *copyPurchase(p))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.Purchase{}, total, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func copyPurchase(p model.Purchase) *model.Purchase {
	out := p
	out.ProviderSubscriptionID = copyString(p.ProviderSubscriptionID)
	out.ProviderInvoiceID = copyString(p.ProviderInvoiceID)
	out.ReceiptURL = copyString(p.ReceiptURL)
	out.InvoiceURL = copyString(p.InvoiceURL)
	out.InvoicePDF = copyString(p.InvoicePDF)
	out.StatusEventAt = copyTime(p.StatusEventAt)
	return &out
}
