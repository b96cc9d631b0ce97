package pricefeed

import (
	"context"
	"time"

	"github.com/jhoicas/catalogo-sync/internal/application/audit"
	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/pkg/logger"
)

// PriceSyncUseCase normaliza feeds de precios y los reconcilia contra la tienda destino.
type PriceSyncUseCase struct {
	normalizer *Normalizer
	reconciler *BatchReconciler
	recorder   *audit.RunRecorder
	log        *logger.Logger
}

// NewPriceSyncUseCase construye el caso de uso. normalizer y recorder pueden ser nil.
func NewPriceSyncUseCase(store ports.ProductStore, normalizer *Normalizer, recorder *audit.RunRecorder, log *logger.Logger) *PriceSyncUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if normalizer == nil {
		normalizer = NewNormalizer()
	}
	return &PriceSyncUseCase{
		normalizer: normalizer,
		reconciler: NewBatchReconciler(store, log),
		recorder:   recorder,
		log:        log,
	}
}

// ReconcilePrices reconcilia filas ya normalizadas.
func (uc *PriceSyncUseCase) ReconcilePrices(ctx context.Context, rows []entity.PriceRow, cfg entity.PricingConfig, opts ReconcileOptions) (*entity.ReconciliationResult, error) {
	return uc.reconcile(ctx, rows, nil, cfg, opts)
}

// ReconcileFeed normaliza las filas crudas y reconcilia las válidas. Las rechazadas se cuentan
// como intentadas y aparecen en Skipped con su motivo.
func (uc *PriceSyncUseCase) ReconcileFeed(ctx context.Context, raw []entity.FeedRow, cfg entity.PricingConfig, opts ReconcileOptions) (*entity.ReconciliationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rows, rejected := uc.normalizer.NormalizeAll(raw)
	if len(rejected) > 0 {
		uc.log.Warn().Int("rejected", len(rejected)).Int("rows", len(raw)).Msg("precios: filas rechazadas por el normalizador")
	}
	return uc.reconcile(ctx, rows, rejected, cfg, opts)
}

func (uc *PriceSyncUseCase) reconcile(ctx context.Context, rows []entity.PriceRow, rejected []Rejection, cfg entity.PricingConfig, opts ReconcileOptions) (*entity.ReconciliationResult, error) {
	started := time.Now()
	runID := uc.recorder.NewRunID()
	log := uc.log.Child("run_id", runID)

	result := entity.NewReconciliationResult(opts.DryRun)
	result.RunID = runID
	for _, rej := range rejected {
		result.Attempted++
		result.AddSkipped(entity.Sample{Key: rej.SKU, Reason: rej.Reason, Line: rej.Line})
	}

	userProgress := opts.OnProgress
	opts.OnProgress = func(p Progress) {
		log.Info().Int("chunk", p.Chunk).Int("chunks", p.Chunks).Int("processed", p.Processed).Int("total", p.Total).Msg("precios: progreso")
		if userProgress != nil {
			userProgress(p)
		}
	}

	log.Info().Int("rows", len(rows)).Bool("dry_run", opts.DryRun).Bool("publish", opts.Publish).Msg("precios: reconciliando")
	if err := uc.reconciler.run(ctx, rows, cfg, opts, result); err != nil {
		return nil, err
	}
	log.Info().
		Int("attempted", result.Attempted).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("not_found", result.NotFound).
		Int("failed", result.Failed).
		Bool("cancelled", result.Cancelled).
		Msg("precios: reconciliación terminada")

	fx, markup := cfg.FXRate, cfg.MarkupPct
	uc.recorder.Record(&entity.SyncRun{
		ID:         runID,
		Kind:       entity.SyncKindPrices,
		DryRun:     opts.DryRun,
		FXRate:     &fx,
		MarkupPct:  &markup,
		Result:     *result,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
	return result, nil
}
