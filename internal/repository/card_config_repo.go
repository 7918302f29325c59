package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diegonaranjo/fiserv-gateway/internal/model"
)

type CardConfigRepository struct {
	pool *pgxpool.Pool
}

func NewCardConfigRepository(pool *pgxpool.Pool) *CardConfigRepository {
	return &CardConfigRepository{pool: pool}
}

// GetByCode loads an active card brand configuration without its plans.
func (r *CardConfigRepository) GetByCode(ctx context.Context, code string) (*model.CardConfig, error) {
	var c model.CardConfig
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, name, credit, debit, active, created_at
		FROM card_configs WHERE code = $1 AND active`, code,
	).Scan(&c.ID, &c.Code, &c.Name, &c.Credit, &c.Debit, &c.Active, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card config %s: %w", code, err)
	}
	return &c, nil
}

// ActivePlans returns the active installment plans for a brand.
func (r *CardConfigRepository) ActivePlans(ctx context.Context, code string) ([]model.InstallmentPlan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.card_config_id, p.label, p.installments, p.interest_rate,
			p.installment_to_send, p.active
		FROM installment_plans p
		JOIN card_configs c ON c.id = p.card_config_id
		WHERE c.code = $1 AND c.active AND p.active
		ORDER BY p.installments`, code)
	if err != nil {
		return nil, fmt.Errorf("query installment plans: %w", err)
	}
	defer rows.Close()

	var plans []model.InstallmentPlan
	for rows.Next() {
		var p model.InstallmentPlan
		if err := rows.Scan(&p.ID, &p.CardConfigID, &p.Label, &p.Installments,
			&p.InterestRate, &p.SendCode, &p.Active); err != nil {
			return nil, fmt.Errorf("scan installment plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// ListActive returns all active card brand configurations.
func (r *CardConfigRepository) ListActive(ctx context.Context) ([]model.CardConfig, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name, credit, debit, active, created_at
		FROM card_configs WHERE active ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query card configs: %w", err)
	}
	defer rows.Close()

	var configs []model.CardConfig
	for rows.Next() {
		var c model.CardConfig
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Credit, &c.Debit, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan card config: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}
