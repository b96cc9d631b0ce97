package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/domain/repository"
)

var _ repository.SyncRunRepository = (*SyncRuns)(nil)

// SyncRuns auditoría de ejecuciones en memoria (CLI sin base de datos y tests).
type SyncRuns struct {
	mu   sync.Mutex
	runs map[string]entity.SyncRun
}

// NewSyncRuns construye un registro vacío.
func NewSyncRuns() *SyncRuns {
	return &SyncRuns{runs: make(map[string]entity.SyncRun)}
}

func (s *SyncRuns) Create(_ context.Context, run *entity.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; ok {
		return &domain.ValidationError{Field: "run.id", Reason: "ejecución ya registrada"}
	}
	s.runs[run.ID] = *run
	return nil
}

func (s *SyncRuns) GetByID(_ context.Context, id string) (*entity.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

// List ordena por inicio descendente, igual que el repositorio PostgreSQL.
func (s *SyncRuns) List(_ context.Context, kind string, limit, offset int) ([]*entity.SyncRun, error) {
	s.mu.Lock()
	all := make([]*entity.SyncRun, 0, len(s.runs))
	for _, run := range s.runs {
		if kind != "" && run.Kind != kind {
			continue
		}
		r := run
		all = append(all, &r)
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].StartedAt.After(all[j].StartedAt) })
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 || offset >= len(all) {
		return []*entity.SyncRun{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
