package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/domain/repository"
)

var _ repository.SyncRunRepository = (*SyncRunRepo)(nil)

// SyncRunRepo implementación del puerto SyncRunRepository sobre PostgreSQL.
// Los contadores se guardan en columnas (para listar y filtrar) y el resultado completo en JSONB.
type SyncRunRepo struct {
	q Querier
}

// NewSyncRunRepository construye el adaptador. Acepta pool o tx (Querier).
func NewSyncRunRepository(q Querier) *SyncRunRepo {
	return &SyncRunRepo{q: q}
}

const syncRunColumns = `id, kind, dry_run, fx_rate, markup_pct, result, started_at, finished_at`

// Create persiste una ejecución terminada.
func (r *SyncRunRepo) Create(ctx context.Context, run *entity.SyncRun) error {
	payload, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("serializar resultado: %w", err)
	}
	query := `
		INSERT INTO sync_runs (id, kind, dry_run, fx_rate, markup_pct, attempted, created, updated, skipped,
			not_found, failed, cancelled, result, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	res := run.Result
	_, err = r.q.Exec(ctx, query,
		run.ID, run.Kind, run.DryRun, run.FXRate, run.MarkupPct,
		res.Attempted, res.Created, res.Updated, res.Skipped, res.NotFound, res.Failed, res.Cancelled,
		payload, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ValidationError{Field: "run.id", Reason: "ejecución ya registrada"}
		}
		return fmt.Errorf("insert sync_run: %w", err)
	}
	return nil
}

// GetByID obtiene una ejecución. Devuelve nil, nil si no existe o el id no es un UUID.
func (r *SyncRunRepo) GetByID(ctx context.Context, id string) (*entity.SyncRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE id = $1`
	run, err := scanSyncRun(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sync_run: %w", err)
	}
	return run, nil
}

// List lista las ejecuciones más recientes; kind vacío = todas.
func (r *SyncRunRepo) List(ctx context.Context, kind string, limit, offset int) ([]*entity.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT ` + syncRunColumns + `
		FROM sync_runs
		WHERE ($1 = '' OR kind = $1)
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, kind, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sync_runs: %w", err)
	}
	defer rows.Close()

	var list []*entity.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync_run: %w", err)
		}
		list = append(list, run)
	}
	return list, rows.Err()
}

func scanSyncRun(row pgx.Row) (*entity.SyncRun, error) {
	var (
		run       entity.SyncRun
		id        uuid.UUID
		fx        *decimal.Decimal
		markup    *decimal.Decimal
		rawResult []byte
	)
	if err := row.Scan(&id, &run.Kind, &run.DryRun, &fx, &markup, &rawResult, &run.StartedAt, &run.FinishedAt); err != nil {
		return nil, err
	}
	run.ID = id.String()
	run.FXRate = fx
	run.MarkupPct = markup
	if err := json.Unmarshal(rawResult, &run.Result); err != nil {
		return nil, fmt.Errorf("deserializar resultado: %w", err)
	}
	return &run, nil
}
