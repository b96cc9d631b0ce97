package pricefeed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/domain/pricing"
	"github.com/jhoicas/catalogo-sync/pkg/logger"
)

const (
	DefaultConcurrency = 4
	DefaultChunkSize   = 500
	DefaultCallTimeout = 15 * time.Second

	// maxBodyLen tope del cuerpo de respuesta guardado en una muestra de fallo.
	maxBodyLen = 200

	ReasonUnchanged = "unchanged"
	ReasonNotFound  = "sku not found"
)

// Progress avance reportado al terminar cada bloque.
type Progress struct {
	Chunk     int `json:"chunk"`
	Chunks    int `json:"chunks"`
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// ReconcileOptions parámetros de ejecución. Los ceros toman los valores por defecto.
// SkipUnchanged cuenta como Skipped ("unchanged") las filas cuyo precio, estado y stock ya
// coinciden con la tienda, sin escribirlas. Por defecto toda fila encontrada cuenta como Updated.
type ReconcileOptions struct {
	Concurrency   int
	DryRun        bool
	Publish       bool
	SkipUnchanged bool
	ChunkSize     int
	CallTimeout   time.Duration
	OnProgress    func(Progress)
}

func (o ReconcileOptions) withDefaults() (ReconcileOptions, error) {
	if o.Concurrency < 0 {
		return o, &domain.ValidationError{Field: "concurrency", Reason: "debe ser >= 1"}
	}
	if o.ChunkSize < 0 {
		return o, &domain.ValidationError{Field: "chunk_size", Reason: "debe ser >= 1"}
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	return o, nil
}

// BatchReconciler aplica precios a productos por SKU con un pool fijo de workers.
type BatchReconciler struct {
	store ports.ProductStore
	log   *logger.Logger
}

// NewBatchReconciler construye el reconciliador.
func NewBatchReconciler(store ports.ProductStore, log *logger.Logger) *BatchReconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &BatchReconciler{store: store, log: log}
}

// Reconcile procesa todas las filas. El fallo de una fila no detiene el resto; el error solo es
// distinto de nil si la configuración u opciones son inválidas (antes de cualquier llamada).
// Una cancelación devuelve el resultado parcial con Cancelled = true.
func (r *BatchReconciler) Reconcile(ctx context.Context, rows []entity.PriceRow, cfg entity.PricingConfig, opts ReconcileOptions) (*entity.ReconciliationResult, error) {
	result := entity.NewReconciliationResult(opts.DryRun)
	if err := r.run(ctx, rows, cfg, opts, result); err != nil {
		return nil, err
	}
	return result, nil
}

// resultRecorder serializa el acceso de los workers al resultado agregado.
type resultRecorder struct {
	mu     sync.Mutex
	result *entity.ReconciliationResult
}

func (rr *resultRecorder) record(fn func(*entity.ReconciliationResult)) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.result.Attempted++
	fn(rr.result)
}

func (r *BatchReconciler) run(ctx context.Context, rows []entity.PriceRow, cfg entity.PricingConfig, opts ReconcileOptions, result *entity.ReconciliationResult) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	rec := &resultRecorder{result: result}
	total := len(rows)
	chunks := (total + opts.ChunkSize - 1) / opts.ChunkSize
	var processed atomic.Int64

	for c := 0; c < chunks; c++ {
		if ctx.Err() != nil {
			break
		}
		start := c * opts.ChunkSize
		end := min(start+opts.ChunkSize, total)
		chunk := rows[start:end]

		var cursor atomic.Int64
		var g errgroup.Group
		for w := 0; w < min(opts.Concurrency, len(chunk)); w++ {
			g.Go(func() error {
				for {
					if ctx.Err() != nil {
						return nil
					}
					i := int(cursor.Add(1)) - 1
					if i >= len(chunk) {
						return nil
					}
					r.reconcileRow(ctx, chunk[i], cfg, opts, rec)
					processed.Add(1)
				}
			})
		}
		_ = g.Wait() // los workers no devuelven error: cada fila registra el suyo

		p := Progress{Chunk: c + 1, Chunks: chunks, Processed: int(processed.Load()), Total: total}
		r.log.Debug().Int("chunk", p.Chunk).Int("chunks", p.Chunks).Int("processed", p.Processed).Msg("precios: bloque terminado")
		if opts.OnProgress != nil {
			opts.OnProgress(p)
		}
	}
	if ctx.Err() != nil && int(processed.Load()) < total {
		result.Cancelled = true
		r.log.Warn().Int("remaining", total-int(processed.Load())).Msg("precios: cancelado, filas restantes sin procesar")
	}
	return nil
}

func (r *BatchReconciler) reconcileRow(ctx context.Context, row entity.PriceRow, cfg entity.PricingConfig, opts ReconcileOptions, rec *resultRecorder) {
	base := entity.Sample{Key: row.SKU, Line: row.Line}
	if row.SKU == "" {
		base.Reason = domain.ReasonMissingSKU
		rec.record(func(res *entity.ReconciliationResult) { res.AddSkipped(base) })
		return
	}
	price, ok := pricing.TargetPrice(row, cfg)
	if !ok {
		base.Reason = domain.ReasonInvalidPrice
		rec.record(func(res *entity.ReconciliationResult) { res.AddSkipped(base) })
		return
	}
	base.Price = pricing.FormatPrice(price)

	product, err := r.findProduct(ctx, row.SKU, opts.CallTimeout)
	if err != nil {
		base.Reason = err.Error()
		rec.record(func(res *entity.ReconciliationResult) { res.AddFailed(base) })
		r.log.Debug().Err(err).Str("sku", row.SKU).Msg("precios: lectura fallida")
		return
	}
	if product == nil {
		base.Reason = ReasonNotFound
		rec.record(func(res *entity.ReconciliationResult) { res.AddNotFound(base) })
		return
	}
	base.TargetID = product.ID

	if opts.SkipUnchanged && unchanged(product, price, row.StockQuantity, opts.Publish) {
		base.Reason = ReasonUnchanged
		rec.record(func(res *entity.ReconciliationResult) { res.AddSkipped(base) })
		return
	}
	if opts.DryRun {
		rec.record(func(res *entity.ReconciliationResult) { res.AddUpdated(base) })
		return
	}

	patch := entity.ProductPatch{RegularPrice: price, Publish: opts.Publish, StockQuantity: row.StockQuantity}
	callCtx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
	defer cancel()
	upd, err := r.store.UpdateProduct(callCtx, product.ID, patch)
	switch {
	case err != nil:
		base.Reason = err.Error()
	case !upd.OK:
		base.Reason = fmt.Sprintf("HTTP %d: %s", upd.Status, truncate(upd.Body, maxBodyLen))
	default:
		rec.record(func(res *entity.ReconciliationResult) { res.AddUpdated(base) })
		return
	}
	rec.record(func(res *entity.ReconciliationResult) { res.AddFailed(base) })
	r.log.Debug().Str("sku", row.SKU).Str("reason", base.Reason).Msg("precios: actualización fallida")
}

func (r *BatchReconciler) findProduct(ctx context.Context, sku string, timeout time.Duration) (*entity.TargetProduct, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p, err := r.store.FindProductBySKU(callCtx, sku)
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", sku, err)
	}
	return p, nil
}

// unchanged indica si el producto ya tiene el precio, estado y stock que se enviarían.
func unchanged(p *entity.TargetProduct, price decimal.Decimal, stock *int, publish bool) bool {
	current, err := decimal.NewFromString(p.RegularPrice)
	if err != nil || current.StringFixed(2) != pricing.FormatPrice(price) {
		return false
	}
	if publish && p.Status != entity.ProductStatusPublish {
		return false
	}
	if stock != nil && (p.StockQuantity == nil || *p.StockQuantity != *stock) {
		return false
	}
	return true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
