package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/catalogo-sync/internal/application/pricefeed"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

// CategoryPlanRequest entrada para planificar (o planificar y aplicar) la sincronización de categorías.
type CategoryPlanRequest struct {
	Roots  []int64 `json:"roots" validate:"required,min=1"`
	DryRun bool    `json:"dry_run"`
}

// PlanItemDTO una fila del plan. Se usa tanto en la respuesta del plan como en la entrada del apply.
type PlanItemDTO struct {
	SourceID        int64  `json:"source_id"`
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	ParentSourceID  int64  `json:"parent_source_id,omitempty"`
	ParentTargetID  int64  `json:"parent_target_id,omitempty"`
	Action          string `json:"action"`
	TargetID        int64  `json:"target_id,omitempty"`
	CurrentName     string `json:"current_name,omitempty"`
	CurrentParentID int64  `json:"current_parent_id,omitempty"`
	Warning         string `json:"warning,omitempty"`
	ParentFallback  bool   `json:"parent_fallback,omitempty"`
}

// CategoryPlanResponse plan calculado con totales por acción.
type CategoryPlanResponse struct {
	Items  []PlanItemDTO `json:"items"`
	Create int           `json:"create"`
	Update int           `json:"update"`
	Noop   int           `json:"noop"`
}

// CategoryApplyRequest plan (previamente revisado) a aplicar.
type CategoryApplyRequest struct {
	Plan   []PlanItemDTO `json:"plan" validate:"required"`
	DryRun bool          `json:"dry_run"`
}

// PricingDTO parámetros de precio. Los campos vacíos toman el valor de la configuración del servicio.
type PricingDTO struct {
	FXRate       string `json:"fx_rate,omitempty"`
	MarkupPct    string `json:"markup_pct,omitempty"`
	RoundingStep string `json:"rounding_step,omitempty"`
	RoundingMode string `json:"rounding_mode,omitempty"`
}

// PriceSyncRequest filas crudas del feed más opciones de la corrida.
// Publish y SkipUnchanged nulos toman el valor de la configuración del servicio.
type PriceSyncRequest struct {
	Rows          []map[string]any `json:"rows" validate:"required"`
	Pricing       PricingDTO       `json:"pricing"`
	DryRun        bool             `json:"dry_run"`
	Publish       *bool            `json:"publish"`
	SkipUnchanged *bool            `json:"skip_unchanged"`
	Concurrency   int              `json:"concurrency" validate:"min=0"`
}

// SyncRunResponse resumen de una ejecución auditada.
type SyncRunResponse struct {
	ID         string                      `json:"id"`
	Kind       string                      `json:"kind"`
	DryRun     bool                        `json:"dry_run"`
	FXRate     *string                     `json:"fx_rate,omitempty"`
	MarkupPct  *string                     `json:"markup_pct,omitempty"`
	Result     entity.ReconciliationResult `json:"result"`
	StartedAt  time.Time                   `json:"started_at"`
	FinishedAt time.Time                   `json:"finished_at"`
}

// SyncRunListResponse lista paginada de ejecuciones.
type SyncRunListResponse struct {
	Items []SyncRunResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ToPlanItemDTOs convierte el plan del dominio a su forma JSON.
func ToPlanItemDTOs(items []entity.PlanItem) []PlanItemDTO {
	out := make([]PlanItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, PlanItemDTO{
			SourceID:        it.SourceID,
			Slug:            it.Slug,
			Name:            it.Name,
			ParentSourceID:  it.ParentSourceID,
			ParentTargetID:  it.ParentTargetID,
			Action:          string(it.Action),
			TargetID:        it.TargetID,
			CurrentName:     it.CurrentName,
			CurrentParentID: it.CurrentParentID,
			Warning:         it.Warning,
			ParentFallback:  it.ParentFallback,
		})
	}
	return out
}

// ToPlanItems convierte el plan recibido al dominio. La validación estructural la hace el caso de uso.
func ToPlanItems(in []PlanItemDTO) []entity.PlanItem {
	out := make([]entity.PlanItem, 0, len(in))
	for _, it := range in {
		out = append(out, entity.PlanItem{
			SourceID:        it.SourceID,
			Slug:            it.Slug,
			Name:            it.Name,
			ParentSourceID:  it.ParentSourceID,
			ParentTargetID:  it.ParentTargetID,
			Action:          entity.PlanAction(it.Action),
			TargetID:        it.TargetID,
			CurrentName:     it.CurrentName,
			CurrentParentID: it.CurrentParentID,
			Warning:         it.Warning,
		})
	}
	return out
}

// NewCategoryPlanResponse arma la respuesta del plan con sus totales.
func NewCategoryPlanResponse(items []entity.PlanItem) CategoryPlanResponse {
	resp := CategoryPlanResponse{Items: ToPlanItemDTOs(items)}
	for _, it := range items {
		switch it.Action {
		case entity.ActionCreate:
			resp.Create++
		case entity.ActionUpdate:
			resp.Update++
		default:
			resp.Noop++
		}
	}
	return resp
}

// ToFeedRows convierte las filas JSON al tipo del dominio.
func ToFeedRows(rows []map[string]any) []entity.FeedRow {
	out := make([]entity.FeedRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, entity.FeedRow(r))
	}
	return out
}

// Merge sobreescribe base con los campos informados. Devuelve ValidationError si alguno no es numérico.
func (p PricingDTO) Merge(base entity.PricingConfig) (entity.PricingConfig, error) {
	out := base
	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"fx_rate", p.FXRate, &out.FXRate},
		{"markup_pct", p.MarkupPct, &out.MarkupPct},
		{"rounding_step", p.RoundingStep, &out.RoundingStep},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, present, err := pricefeed.ParseAmount(f.value)
		if err != nil || !present {
			return out, &domain.ValidationError{Field: f.name, Reason: "no es un número válido"}
		}
		*f.dst = d
	}
	if p.RoundingMode != "" {
		mode, err := entity.ParseRoundingMode(p.RoundingMode)
		if err != nil {
			return out, err
		}
		out.RoundingMode = mode
	}
	return out, out.Validate()
}

// ToSyncRunResponse convierte una ejecución auditada.
func ToSyncRunResponse(run *entity.SyncRun) SyncRunResponse {
	resp := SyncRunResponse{
		ID:         run.ID,
		Kind:       run.Kind,
		DryRun:     run.DryRun,
		Result:     run.Result,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	if run.FXRate != nil {
		s := run.FXRate.String()
		resp.FXRate = &s
	}
	if run.MarkupPct != nil {
		s := run.MarkupPct.String()
		resp.MarkupPct = &s
	}
	return resp
}

// CategorySyncResponse plan aplicado y su resultado (POST /api/sync/categories).
type CategorySyncResponse struct {
	Plan   CategoryPlanResponse         `json:"plan"`
	Result *entity.ReconciliationResult `json:"result"`
}
