package entity_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

func TestParseRoundingMode(t *testing.T) {
	cases := map[string]entity.RoundingMode{
		"nearest": entity.RoundNearest,
		" UP ":    entity.RoundUp,
		"Down":    entity.RoundDown,
		"none":    entity.RoundNone,
		"":        entity.RoundNone,
	}
	for in, want := range cases {
		got, err := entity.ParseRoundingMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := entity.ParseRoundingMode("banker")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPricingConfig_Validate(t *testing.T) {
	valid := entity.PricingConfig{
		FXRate:       decimal.NewFromInt(13),
		MarkupPct:    decimal.NewFromInt(20),
		RoundingStep: decimal.NewFromInt(5),
		RoundingMode: entity.RoundNearest,
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*entity.PricingConfig)
		field  string
	}{
		{"fx cero", func(c *entity.PricingConfig) { c.FXRate = decimal.Zero }, "fx_rate"},
		{"markup negativo", func(c *entity.PricingConfig) { c.MarkupPct = decimal.NewFromInt(-1) }, "markup_pct"},
		{"paso negativo", func(c *entity.PricingConfig) { c.RoundingStep = decimal.NewFromInt(-5) }, "rounding_step"},
		{"modo desconocido", func(c *entity.PricingConfig) { c.RoundingMode = "banker" }, "rounding_mode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestSourceNode_ChildSetYTitulo(t *testing.T) {
	n := entity.SourceNode{
		ID:       9,
		Children: []entity.SourceNode{{ID: 3}, {ID: 4}},
		ChildIDs: []int64{4, 0, -2, 7, 3},
	}
	assert.Equal(t, []int64{3, 4, 7}, n.ChildSet())
	assert.Equal(t, "Category 9", n.DisplayTitle())

	n.Title = "Frenos"
	assert.Equal(t, "Frenos", n.DisplayTitle())
}

func TestReconciliationResult_MuestrasAcotadas(t *testing.T) {
	res := entity.NewReconciliationResult(false)
	for i := 0; i < 25; i++ {
		res.AddFailed(entity.Sample{Key: fmt.Sprintf("SKU-%d", i)})
		res.AddWarning("padre sin resolver")
	}
	res.AddCreated(entity.Sample{Key: "a"})
	res.AddSkipped(entity.Sample{Key: "b"})

	assert.Equal(t, 25, res.Failed)
	assert.Len(t, res.Samples.Failed, entity.MaxSamples)
	assert.Equal(t, "SKU-0", res.Samples.Failed[0].Key)
	assert.Len(t, res.Warnings, entity.MaxSamples)
	assert.Equal(t, 2, res.Succeeded())
	assert.True(t, res.OK, "OK no depende de los fallos")
	assert.NotNil(t, res.Samples.NotFound)
}

func TestPlanAction_Valid(t *testing.T) {
	assert.True(t, entity.ActionCreate.Valid())
	assert.True(t, entity.ActionNoop.Valid())
	assert.False(t, entity.PlanAction("delete").Valid())
}
