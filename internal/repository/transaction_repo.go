package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diegonaranjo/fiserv-gateway/internal/fiserv"
	"github.com/diegonaranjo/fiserv-gateway/internal/model"
)

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, reference, order_id, COALESCE(provider_txn_id, ''),
	amount, total_with_interest, interest_amount, interest_rate, installments,
	COALESCE(card_brand, ''), COALESCE(card_last4, ''), COALESCE(card_holder, ''),
	COALESCE(approval_code, ''), COALESCE(response_code, ''), COALESCE(error_message, ''),
	state, created_at, updated_at`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var t model.Transaction
	err := row.Scan(
		&t.ID, &t.Reference, &t.OrderID, &t.ProviderTxnID,
		&t.Amount, &t.TotalWithInterest, &t.InterestAmount, &t.InterestRate, &t.Installments,
		&t.CardBrand, &t.CardLast4, &t.CardHolder,
		&t.ApprovalCode, &t.ResponseCode, &t.ErrorMessage,
		&t.State, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByReference loads the transaction the gateway's oid refers to.
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE reference = $1`, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: reference %s", fiserv.ErrTransactionNotFound, reference)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", reference, err)
	}
	return t, nil
}

// FindReusable returns the most recent draft or pending transaction for an
// order, so redirect preparation updates it instead of creating duplicates.
func (r *TransactionRepository) FindReusable(ctx context.Context, orderID string) (*model.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE order_id = $1 AND state IN ('draft', 'pending')
		ORDER BY created_at DESC LIMIT 1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reusable transaction for order %s: %w", orderID, err)
	}
	return t, nil
}

func (r *TransactionRepository) Insert(ctx context.Context, t *model.Transaction) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO transactions (reference, order_id, amount, total_with_interest,
			interest_amount, interest_rate, installments, card_brand, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
		RETURNING id, created_at, updated_at`,
		t.Reference, t.OrderID, t.Amount, t.TotalWithInterest,
		t.InterestAmount, t.InterestRate, t.Installments, t.CardBrand, t.State,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// Update persists every mutable field and the state in a single statement,
// so a notification's field updates and its state transition land atomically.
func (r *TransactionRepository) Update(ctx context.Context, t *model.Transaction) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions SET
			provider_txn_id = NULLIF($2, ''),
			amount = $3,
			total_with_interest = $4,
			interest_amount = $5,
			interest_rate = $6,
			installments = $7,
			card_brand = NULLIF($8, ''),
			card_last4 = NULLIF($9, ''),
			card_holder = NULLIF($10, ''),
			approval_code = NULLIF($11, ''),
			response_code = NULLIF($12, ''),
			error_message = NULLIF($13, ''),
			state = $14,
			updated_at = now()
		WHERE id = $1`,
		t.ID, t.ProviderTxnID, t.Amount, t.TotalWithInterest, t.InterestAmount,
		t.InterestRate, t.Installments, t.CardBrand, t.CardLast4, t.CardHolder,
		t.ApprovalCode, t.ResponseCode, t.ErrorMessage, t.State,
	)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.Reference, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %s", fiserv.ErrTransactionNotFound, t.ID)
	}
	return nil
}
