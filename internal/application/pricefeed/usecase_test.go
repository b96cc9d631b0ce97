package pricefeed_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-sync/internal/application/audit"
	"github.com/jhoicas/catalogo-sync/internal/application/pricefeed"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/memory"
)

type runRepoMock struct {
	mu   sync.Mutex
	runs []*entity.SyncRun
}

func (m *runRepoMock) Create(_ context.Context, run *entity.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *runRepoMock) GetByID(context.Context, string) (*entity.SyncRun, error) { return nil, nil }

func (m *runRepoMock) List(context.Context, string, int, int) ([]*entity.SyncRun, error) {
	return nil, nil
}

func TestReconcileFeed_RechazosEnSkipped(t *testing.T) {
	store := memory.NewStore()
	store.SeedProduct("A", "0.00", entity.ProductStatusDraft)
	store.SeedProduct("B", "0.00", entity.ProductStatusDraft)
	repo := &runRepoMock{}
	uc := pricefeed.NewPriceSyncUseCase(store, nil, audit.NewRunRecorder(repo, nil), nil)

	var calls int
	result, err := uc.ReconcileFeed(context.Background(), []entity.FeedRow{
		{"SKU": "A", "Price": "10"},
		{"Price": "10"},
		{"SKU": "B", "SEK": "abc"},
		{"SKU": "B", "SEK": "99"},
		{"SKU": "ZZ", "SEK": "5"},
	}, testConfig(), pricefeed.ReconcileOptions{ChunkSize: 2, OnProgress: func(pricefeed.Progress) { calls++ }})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Attempted)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 1, result.NotFound)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, calls, "el progreso del llamador se sigue invocando")

	reasons := map[string]bool{}
	for _, s := range result.Samples.Skipped {
		reasons[s.Reason] = true
	}
	assert.True(t, reasons[domain.ReasonMissingSKU])
	assert.True(t, reasons[domain.ReasonInvalidPrice])

	b, _ := store.Product("B")
	assert.Equal(t, "99.00", b.RegularPrice)

	require.Len(t, repo.runs, 1)
	run := repo.runs[0]
	assert.Equal(t, entity.SyncKindPrices, run.Kind)
	assert.Equal(t, result.RunID, run.ID)
	require.NotNil(t, run.FXRate)
	assert.Equal(t, "13", run.FXRate.String())
	assert.Equal(t, 2, run.Result.Updated)
}

func TestReconcileFeed_ConfigInvalida(t *testing.T) {
	uc := pricefeed.NewPriceSyncUseCase(memory.NewStore(), nil, nil, nil)
	cfg := testConfig()
	cfg.RoundingMode = "banker"

	_, err := uc.ReconcileFeed(context.Background(), []entity.FeedRow{{"SKU": "A", "Price": "1"}}, cfg, pricefeed.ReconcileOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReconcilePrices_Redondeo(t *testing.T) {
	store := memory.NewStore()
	store.SeedProduct("R", "0.00", entity.ProductStatusDraft)
	uc := pricefeed.NewPriceSyncUseCase(store, nil, nil, nil)
	cfg := testConfig()
	cfg.MarkupPct = *dec("0")
	cfg.FXRate = *dec("1")
	cfg.RoundingStep = *dec("5")
	cfg.RoundingMode = entity.RoundUp

	result, err := uc.ReconcilePrices(context.Background(), []entity.PriceRow{{SKU: "R", SourceAmount: dec("101")}}, cfg, pricefeed.ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	p, _ := store.Product("R")
	assert.Equal(t, "105.00", p.RegularPrice)
}
