package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/diegonaranjo/fiserv-gateway/internal/fiserv"
)

// Default installment plans created for every seeded brand:
// (installments, interest rate %).
var defaultInstallments = [][2]float64{
	{1, 0.0},
	{3, 10.0},
	{6, 18.0},
	{9, 32.0},
	{12, 44.0},
}

// SeedCardConfigs inserts the supported card brand table and the default
// installment plans for each brand. Runs once per deployment; existing
// brands and plans are left untouched so operator edits survive restarts.
func SeedCardConfigs(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	seeded := 0
	for code, brand := range fiserv.SupportedCardBrands {
		var configID string
		err := tx.QueryRow(ctx,
			`INSERT INTO card_configs (code, name, credit, debit)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (code) DO NOTHING
			RETURNING id`,
			code, brand.Name, brand.Credit, brand.Debit,
		).Scan(&configID)
		if errors.Is(err, pgx.ErrNoRows) {
			// Brand already present, keep operator edits.
			continue
		}
		if err != nil {
			return fmt.Errorf("seed brand %s: %w", code, err)
		}
		seeded++

		for _, plan := range defaultInstallments {
			count := int(plan[0])
			if _, err := tx.Exec(ctx,
				`INSERT INTO installment_plans (card_config_id, label, installments, interest_rate, installment_to_send)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (card_config_id, installments) DO NOTHING`,
				configID, fmt.Sprintf("%d", count), count, plan[1], fmt.Sprintf("%d", count),
			); err != nil {
				return fmt.Errorf("seed plan %d for %s: %w", count, code, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}

	log.Info().Int("brands_seeded", seeded).Msg("card configurations seeded")
	return nil
}
