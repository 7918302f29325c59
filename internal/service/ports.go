package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/diegonaranjo/fiserv-gateway/internal/model"
	"github.com/diegonaranjo/fiserv-gateway/internal/repository"
)

// TransactionStore is the persistence surface the payment and notification
// services need. Implemented by repository.TransactionRepository.
type TransactionStore interface {
	GetByReference(ctx context.Context, reference string) (*model.Transaction, error)
	FindReusable(ctx context.Context, orderID string) (*model.Transaction, error)
	Insert(ctx context.Context, t *model.Transaction) error
	Update(ctx context.Context, t *model.Transaction) error
}

// OrderStore covers order reads, the line price updater and the order
// confirmation trigger. Implemented by repository.OrderRepository.
type OrderStore interface {
	GetByID(ctx context.Context, id string) (*model.Order, error)
	Lines(ctx context.Context, orderID string) ([]model.OrderLine, error)
	UpdateLinePrices(ctx context.Context, updates []repository.LinePriceUpdate) error
	UpsertAdjustmentLine(ctx context.Context, orderID string, price, priceTotal float64) error
	SetTotals(ctx context.Context, orderID string, untaxed, tax, total float64, adjusted bool) error
	MarkAdjusted(ctx context.Context, orderID string) error
	Confirm(ctx context.Context, orderID string, amountPaid float64) error
}

// CardConfigStore is the read-only card brand and installment plan source.
type CardConfigStore interface {
	GetByCode(ctx context.Context, code string) (*model.CardConfig, error)
	ActivePlans(ctx context.Context, code string) ([]model.InstallmentPlan, error)
	ListActive(ctx context.Context) ([]model.CardConfig, error)
}

// AuditSink receives best-effort audit events. Implementations must never
// block or fail a state transition.
type AuditSink interface {
	Append(ctx context.Context, category, reference string, payload map[string]any)
}

// TaxCalculator computes a line's tax-inclusive total.
type TaxCalculator interface {
	TotalIncluded(price, quantity decimal.Decimal, taxed bool) decimal.Decimal
}

// FixedIVA applies the flat Argentine 21% VAT to taxed lines.
type FixedIVA struct{}

// IVAFactor is the tax-inclusive multiplier for taxed lines. The rounding
// adjustment line backs its price out of this same factor.
var IVAFactor = decimal.RequireFromString("1.21")

func (FixedIVA) TotalIncluded(price, quantity decimal.Decimal, taxed bool) decimal.Decimal {
	subtotal := price.Mul(quantity)
	if !taxed {
		return subtotal
	}
	return subtotal.Mul(IVAFactor)
}
