package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// AuditRepository persists audit events. It is advisory: Append never
// returns an error to the caller, a failed insert is only logged.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Append(ctx context.Context, category, reference string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("category", category).Msg("audit payload not serializable")
		return
	}
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO audit_events (category, reference, payload)
		VALUES ($1, NULLIF($2, ''), $3)`,
		category, reference, data); err != nil {
		log.Warn().Err(err).Str("category", category).Str("reference", reference).
			Msg("audit event not persisted")
	}
}
