package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountFromMinor(t *testing.T) {
	tests := []struct {
		minor    int64
		currency string
		want     string
	}{
		{1999, "usd", "19.99"},
		{1999, "EUR", "19.99"},
		{15000, "krw", "15000"},
		{500, "JPY", "500"},
	}

	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			got := AmountFromMinor(tt.minor, tt.currency)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			assert.Equal(t, tt.minor, AmountToMinor(got, tt.currency))
		})
	}
}

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		feePercent  float64
		currency    string
		wantFee     string
		wantEarning string
	}{
		{"usd ten percent", "19.99", 10, "usd", "2", "17.99"},
		{"usd rounds half up", "0.05", 10, "usd", "0.01", "0.04"},
		{"krw whole units", "15000", 12.5, "krw", "1875", "13125"},
		{"zero fee", "100", 0, "usd", "0", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			fee, earning := SplitFee(amount, tt.feePercent, tt.currency)

			assert.True(t, decimal.RequireFromString(tt.wantFee).Equal(fee), "fee %s", fee)
			assert.True(t, decimal.RequireFromString(tt.wantEarning).Equal(earning), "earning %s", earning)
			assert.True(t, amount.Equal(fee.Add(earning)))
		})
	}
}

func TestPurchaseUpdate(t *testing.T) {
	paid := PurchaseStatusPaid
	url := "https://pay.stripe.com/receipts/1"
	upd := PurchaseUpdate{Status: &paid, StatusAt: time.Unix(100, 0), ReceiptURL: &url}

	assert.False(t, upd.Empty())
	assert.Equal(t, map[string]interface{}{"receipt_url": url}, upd.Columns())

	p := &Purchase{Status: PurchaseStatusDraft, InvoiceURL: &url}
	upd.ApplyTo(p)
	assert.Equal(t, PurchaseStatusPaid, p.Status)
	require.NotNil(t, p.StatusEventAt)
	assert.True(t, p.StatusEventAt.Equal(time.Unix(100, 0)))
	assert.Equal(t, url, *p.ReceiptURL)
	assert.Equal(t, url, *p.InvoiceURL)

	assert.True(t, PurchaseUpdate{}.Empty())
	assert.False(t, PurchaseUpdate{Status: &paid}.Empty())
}

func TestPurchaseUpdate_StaleStatusKeepsStored(t *testing.T) {
	failed := PurchaseStatusFailed
	url := "https://invoice/2"
	p := &Purchase{Status: PurchaseStatusPaid, StatusEventAt: ptrTime(time.Unix(200, 0))}

	PurchaseUpdate{Status: &failed, StatusAt: time.Unix(100, 0), InvoiceURL: &url}.ApplyTo(p)

	assert.Equal(t, PurchaseStatusPaid, p.Status)
	assert.True(t, p.StatusEventAt.Equal(time.Unix(200, 0)))
	assert.Equal(t, url, *p.InvoiceURL, "unguarded fields still apply")
}

func TestStatusSupersedes(t *testing.T) {
	at := time.Unix(100, 0)
	tests := []struct {
		name     string
		status   PurchaseStatus
		at       time.Time
		stored   PurchaseStatus
		storedAt *time.Time
		want     bool
	}{
		{"nothing stored", PurchaseStatusFailed, at, PurchaseStatusDraft, nil, true},
		{"newer wins", PurchaseStatusFailed, at.Add(time.Second), PurchaseStatusPaid, &at, true},
		{"older loses", PurchaseStatusFailed, at.Add(-time.Second), PurchaseStatusPaid, &at, false},
		{"tie paid over failed", PurchaseStatusPaid, at, PurchaseStatusFailed, &at, true},
		{"tie failed under paid", PurchaseStatusFailed, at, PurchaseStatusPaid, &at, false},
		{"tie same status", PurchaseStatusPaid, at, PurchaseStatusPaid, &at, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusSupersedes(tt.status, tt.at, tt.stored, tt.storedAt))
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
