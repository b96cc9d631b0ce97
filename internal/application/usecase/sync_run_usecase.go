package usecase

import (
	"context"

	"github.com/jhoicas/catalogo-sync/internal/application/dto"
	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/domain/repository"
)

// SyncRunUseCase consulta de la auditoría de ejecuciones y su reporte PDF.
type SyncRunUseCase struct {
	repo    repository.SyncRunRepository
	reports ports.RunReportGenerator
}

// NewSyncRunUseCase construye el caso de uso. repo nil = auditoría deshabilitada (listas vacías).
func NewSyncRunUseCase(repo repository.SyncRunRepository, reports ports.RunReportGenerator) *SyncRunUseCase {
	return &SyncRunUseCase{repo: repo, reports: reports}
}

// List lista ejecuciones, opcionalmente filtradas por tipo, con paginación.
func (uc *SyncRunUseCase) List(ctx context.Context, kind string, page dto.PageRequest) (*dto.SyncRunListResponse, error) {
	switch kind {
	case "", entity.SyncKindCategories, entity.SyncKindPrices:
	default:
		return nil, &domain.ValidationError{Field: "kind", Reason: "debe ser categories o prices"}
	}
	page.DefaultPage()
	resp := &dto.SyncRunListResponse{
		Items: []dto.SyncRunResponse{},
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	if uc.repo == nil {
		return resp, nil
	}
	list, err := uc.repo.List(ctx, kind, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	for _, run := range list {
		resp.Items = append(resp.Items, dto.ToSyncRunResponse(run))
	}
	return resp, nil
}

// GetByID obtiene una ejecución. Devuelve domain.ErrNotFound si no existe.
func (uc *SyncRunUseCase) GetByID(ctx context.Context, id string) (*dto.SyncRunResponse, error) {
	run, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToSyncRunResponse(run)
	return &resp, nil
}

// Report genera el PDF de una ejecución.
func (uc *SyncRunUseCase) Report(ctx context.Context, id string) ([]byte, error) {
	if uc.reports == nil {
		return nil, domain.ErrNotFound
	}
	run, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.reports.GenerateRunReport(ctx, run)
}

func (uc *SyncRunUseCase) find(ctx context.Context, id string) (*entity.SyncRun, error) {
	if uc.repo == nil {
		return nil, domain.ErrNotFound
	}
	run, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrNotFound
	}
	return run, nil
}
