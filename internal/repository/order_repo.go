package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diegonaranjo/fiserv-gateway/internal/model"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// LinePriceUpdate is one entry of the batch write applied after a
// proportional interest adjustment.
type LinePriceUpdate struct {
	LineID        string
	NewPrice      float64
	OriginalPrice float64
	Coefficient   float64
	PriceSubtotal float64
	PriceTotal    float64
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, state, amount_untaxed, amount_tax, amount_total,
			amount_paid, amount_adjusted, created_at
		FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.State, &o.AmountUntaxed, &o.AmountTax,
		&o.AmountTotal, &o.AmountPaid, &o.AmountAdjusted, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &o, nil
}

func (r *OrderRepository) Lines(ctx context.Context, orderID string) ([]model.OrderLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, description, quantity, price_unit,
			COALESCE(original_price, 0), COALESCE(interest_coefficient, 0),
			price_subtotal, price_total, taxed, is_adjustment, sequence
		FROM order_lines WHERE order_id = $1 ORDER BY sequence, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.Description, &l.Quantity, &l.PriceUnit,
			&l.OriginalPrice, &l.InterestCoefficient, &l.PriceSubtotal, &l.PriceTotal,
			&l.Taxed, &l.IsAdjustment, &l.Sequence); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// UpdateLinePrices applies a proportional adjustment batch in one database
// transaction. The pre-adjustment price is stored for audit and reversal.
func (r *OrderRepository) UpdateLinePrices(ctx context.Context, updates []LinePriceUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin line update transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE order_lines SET
				price_unit = $2,
				original_price = $3,
				interest_coefficient = $4,
				price_subtotal = $5,
				price_total = $6
			WHERE id = $1`,
			u.LineID, u.NewPrice, u.OriginalPrice, u.Coefficient, u.PriceSubtotal, u.PriceTotal,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range updates {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("update line %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close line update batch: %w", err)
	}

	return tx.Commit(ctx)
}

// UpsertAdjustmentLine creates or updates the single synthetic rounding
// adjustment line of an order.
func (r *OrderRepository) UpsertAdjustmentLine(ctx context.Context, orderID string, price, priceTotal float64) error {
	var existingID string
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM order_lines WHERE order_id = $1 AND is_adjustment LIMIT 1`,
		orderID).Scan(&existingID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = r.pool.Exec(ctx,
			`INSERT INTO order_lines (order_id, description, quantity, price_unit,
				price_subtotal, price_total, taxed, is_adjustment, sequence)
			VALUES ($1, 'Ajuste por redondeo tarjetas', 1.0, $2, $2, $3, TRUE, TRUE, 999)`,
			orderID, price, priceTotal)
		if err != nil {
			return fmt.Errorf("insert adjustment line: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("find adjustment line: %w", err)
	default:
		_, err = r.pool.Exec(ctx,
			`UPDATE order_lines SET price_unit = $2, quantity = 1.0,
				price_subtotal = $2, price_total = $3
			WHERE id = $1`, existingID, price, priceTotal)
		if err != nil {
			return fmt.Errorf("update adjustment line: %w", err)
		}
		return nil
	}
}

// SetTotals writes the recomputed order totals and the sticky adjusted flag.
func (r *OrderRepository) SetTotals(ctx context.Context, orderID string, untaxed, tax, total float64, adjusted bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET amount_untaxed = $2, amount_tax = $3, amount_total = $4,
			amount_adjusted = $5
		WHERE id = $1`,
		orderID, untaxed, tax, total, adjusted)
	if err != nil {
		return fmt.Errorf("set order totals: %w", err)
	}
	return nil
}

// MarkAdjusted sets the sticky reconciliation flag without touching totals.
func (r *OrderRepository) MarkAdjusted(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET amount_adjusted = TRUE WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("mark order adjusted: %w", err)
	}
	return nil
}

// Confirm transitions a draft or sent order to sale and records the paid
// amount. Orders in other states are left unchanged.
func (r *OrderRepository) Confirm(ctx context.Context, orderID string, amountPaid float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET state = 'sale', amount_paid = $2
		WHERE id = $1 AND state IN ('draft', 'sent')`,
		orderID, amountPaid)
	if err != nil {
		return fmt.Errorf("confirm order %s: %w", orderID, err)
	}
	return nil
}
