package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/diegonaranjo/fiserv-gateway/internal/fiserv"
	"github.com/diegonaranjo/fiserv-gateway/internal/model"
	"github.com/diegonaranjo/fiserv-gateway/internal/repository"
)

// Reconciliation tolerances: totals within acceptTolerance need no work at
// all; after line adjustment a residual below residualThreshold is absorbed
// silently, anything larger gets the synthetic adjustment line.
var (
	acceptTolerance   = decimal.RequireFromString("0.001")
	residualThreshold = decimal.RequireFromString("0.01")
)

// ReconcileService aligns an order's line prices with the gateway-reported
// total once installment interest is included. The adjusted flag is sticky:
// a reconciled order is never touched again unless the flag is reset.
type ReconcileService struct {
	orders OrderStore
	tax    TaxCalculator
	audit  AuditSink
}

func NewReconcileService(orders OrderStore, tax TaxCalculator, audit AuditSink) *ReconcileService {
	return &ReconcileService{orders: orders, tax: tax, audit: audit}
}

// Reconcile scales every non-adjustment line by gatewayTotal/localTotal and
// absorbs whatever rounding residue remains. Only upward gaps are corrected:
// a gateway total at or below the local total leaves the order untouched.
func (s *ReconcileService) Reconcile(ctx context.Context, orderID string, gatewayTotal decimal.Decimal) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.IsAdjustable() {
		return nil
	}

	lines, err := s.orders.Lines(ctx, orderID)
	if err != nil {
		return err
	}
	localTotal := s.computeTotal(lines)

	s.audit.Append(ctx, "reconcile", order.Name, map[string]any{
		"order_id":      order.ID,
		"gateway_total": gatewayTotal.String(),
		"local_total":   localTotal.String(),
		"difference":    gatewayTotal.Sub(localTotal).String(),
	})

	if gatewayTotal.Sub(localTotal).Abs().LessThanOrEqual(acceptTolerance) {
		return s.orders.MarkAdjusted(ctx, orderID)
	}
	if gatewayTotal.LessThanOrEqual(localTotal) {
		// Downward corrections are unsupported: interest only raises totals.
		log.Warn().Str("order", order.Name).
			Str("gateway_total", gatewayTotal.String()).
			Str("local_total", localTotal.String()).
			Msg("gateway total at or below local total, skipping reconciliation")
		return nil
	}

	factor := gatewayTotal.Div(localTotal)
	factorFloat, _ := factor.Float64()

	updates := make([]repository.LinePriceUpdate, 0, len(lines))
	for _, line := range lines {
		if line.IsAdjustment {
			continue
		}
		price := decimal.NewFromFloat(line.PriceUnit)
		qty := decimal.NewFromFloat(line.Quantity)
		newPrice := fiserv.RoundHalfDown(price.Mul(factor), 3)
		updates = append(updates, repository.LinePriceUpdate{
			LineID:        line.ID,
			NewPrice:      fiserv.ToFloat(newPrice),
			OriginalPrice: line.PriceUnit,
			Coefficient:   factorFloat,
			PriceSubtotal: fiserv.ToFloat(newPrice.Mul(qty)),
			PriceTotal:    fiserv.ToFloat(s.tax.TotalIncluded(newPrice, qty, line.Taxed)),
		})
	}
	if err := s.orders.UpdateLinePrices(ctx, updates); err != nil {
		return fmt.Errorf("apply line adjustments: %w", err)
	}

	return s.AbsorbResidual(ctx, orderID, gatewayTotal)
}

// AbsorbResidual compares the order's recomputed total against the gateway
// total and books the single rounding adjustment line when the gap is at
// least the residual threshold. The line's price backs the 21% tax factor
// out of the difference so its tax-inclusive total equals the residual
// exactly; the order total is then forced to the gateway total.
func (s *ReconcileService) AbsorbResidual(ctx context.Context, orderID string, gatewayTotal decimal.Decimal) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.AmountAdjusted {
		return nil
	}

	lines, err := s.orders.Lines(ctx, orderID)
	if err != nil {
		return err
	}
	untaxed, taxAmount, recomputed := s.computeBreakdown(lines)

	difference := gatewayTotal.Sub(recomputed)
	if difference.Abs().LessThan(residualThreshold) {
		return s.orders.SetTotals(ctx, orderID,
			fiserv.ToFloat(untaxed), fiserv.ToFloat(taxAmount), fiserv.ToFloat(recomputed), true)
	}

	linePrice := difference.Div(IVAFactor).Round(2)
	if err := s.orders.UpsertAdjustmentLine(ctx, orderID,
		fiserv.ToFloat(linePrice), fiserv.ToFloat(difference)); err != nil {
		return fmt.Errorf("book adjustment line: %w", err)
	}

	s.audit.Append(ctx, "reconcile", order.Name, map[string]any{
		"order_id":        order.ID,
		"adjustment_line": linePrice.String(),
		"residual":        difference.String(),
	})

	return s.orders.SetTotals(ctx, orderID,
		fiserv.ToFloat(untaxed.Add(linePrice)),
		fiserv.ToFloat(taxAmount.Add(difference.Sub(linePrice))),
		fiserv.ToFloat(gatewayTotal), true)
}

func (s *ReconcileService) computeTotal(lines []model.OrderLine) decimal.Decimal {
	_, _, total := s.computeBreakdown(lines)
	return total
}

func (s *ReconcileService) computeBreakdown(lines []model.OrderLine) (untaxed, tax, total decimal.Decimal) {
	untaxed, tax = decimal.Zero, decimal.Zero
	for _, line := range lines {
		price := decimal.NewFromFloat(line.PriceUnit)
		qty := decimal.NewFromFloat(line.Quantity)
		subtotal := price.Mul(qty)
		lineTotal := s.tax.TotalIncluded(price, qty, line.Taxed)
		untaxed = untaxed.Add(subtotal)
		tax = tax.Add(lineTotal.Sub(subtotal))
	}
	return untaxed, tax, untaxed.Add(tax)
}
