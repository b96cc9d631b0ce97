// Package pdf genera el reporte imprimible de una ejecución de sincronización.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tipo de ejecución + modo  │  Run ID + Fecha        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PARÁMETROS: Tasa de cambio / Margen / Duración              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CONTADORES: Intentados | Creados | Actualizados | ...       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MUESTRAS: Clave | Id destino | Precio | Motivo (por grupo)  │
//	│  ADVERTENCIAS                                                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el Run ID                                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

var _ ports.RunReportGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa ports.RunReportGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	author string
}

// NewMarotoPDFGenerator construye el generador. author aparece en los metadatos del PDF.
func NewMarotoPDFGenerator(author string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{author: nonEmpty(author, "catalogo-sync")}
}

// GenerateRunReport genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateRunReport(_ context.Context, run *entity.SyncRun) ([]byte, error) {
	if run == nil {
		return nil, fmt.Errorf("pdf: ejecución nula")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de sincronización "+run.ID, true).
		WithAuthor(g.author, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(run))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(parametersRow(run))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(countersRows(&run.Result)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	res := run.Result
	groups := []struct {
		title   string
		samples []entity.Sample
	}{
		{"Creados", res.Samples.Created},
		{"Actualizados", res.Samples.Updated},
		{"Omitidos", res.Samples.Skipped},
		{"No encontrados", res.Samples.NotFound},
		{"Fallidos", res.Samples.Failed},
	}
	for _, grp := range groups {
		m.AddRows(sampleRows(grp.title, grp.samples)...)
	}
	m.AddRows(warningRows(res.Warnings)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(run))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: tipo de ejecución + modo (izq) y run id + fecha (der).
func headerRow(run *entity.SyncRun) core.Row {
	mode := "EN VIVO"
	if run.DryRun {
		mode = "SIMULACIÓN (DRY RUN)"
	}
	if run.Result.Cancelled {
		mode += " · CANCELADA"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("Sincronización de "+kindLabel(run.Kind), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(mode, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("REPORTE DE EJECUCIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(run.ID, props.Text{
				Size: 7, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+run.StartedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
		),
	)
}

// parametersRow: tasa de cambio, margen y duración.
func parametersRow(run *entity.SyncRun) core.Row {
	fx, markup := "-", "-"
	if run.FXRate != nil {
		fx = run.FXRate.String()
	}
	if run.MarkupPct != nil {
		markup = run.MarkupPct.String() + "%"
	}
	duration := run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
	return row.New(12).Add(
		col.New(12).Add(
			text.New("PARÁMETROS", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Tasa de cambio: %s   |   Margen: %s   |   Duración: %s",
				fx, markup, duration,
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// countersRows: etiquetas y valores de los contadores en seis columnas.
func countersRows(res *entity.ReconciliationResult) []core.Row {
	counters := []struct {
		label string
		value int
	}{
		{"Intentados", res.Attempted},
		{"Creados", res.Created},
		{"Actualizados", res.Updated},
		{"Omitidos", res.Skipped},
		{"No encontrados", res.NotFound},
		{"Fallidos", res.Failed},
	}
	labels := make([]core.Col, 0, len(counters))
	values := make([]core.Col, 0, len(counters))
	for _, c := range counters {
		labels = append(labels, col.New(2).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Center, Color: colorPrimary, Top: 1,
		})))
		valueProps := props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Center, Top: 1}
		if c.label == "Fallidos" && c.value > 0 {
			valueProps.Color = colorRed
		}
		values = append(values, col.New(2).Add(text.New(strconv.Itoa(c.value), valueProps)))
	}
	return []core.Row{row.New(6).Add(labels...), row.New(9).Add(values...)}
}

// sampleRows: título del grupo, cabecera y una fila por muestra. Grupos vacíos se omiten.
func sampleRows(title string, samples []entity.Sample) []core.Row {
	if len(samples) == 0 {
		return nil
	}
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(
			text.New(fmt.Sprintf("%s (muestra de %d)", title, len(samples)), props.Text{
				Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2,
			}),
		)),
		sampleHeaderRow(),
	}
	for _, s := range samples {
		key := s.Key
		if s.Line > 0 {
			key = fmt.Sprintf("%s (línea %d)", nonEmpty(s.Key, "-"), s.Line)
		}
		reason := s.Reason
		if s.Fallback {
			reason = nonEmpty(reason, "creada en el nivel superior")
		}
		rows = append(rows, row.New(6).Add(
			col.New(4).Add(text.New(nonEmpty(key, "-"), props.Text{Size: 7.5, Top: 1, Left: 1})),
			col.New(2).Add(text.New(idOrDash(s.TargetID), props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(nonEmpty(s.Price, "-"), props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1})),
			col.New(4).Add(text.New(nonEmpty(reason, s.Name), props.Text{Size: 7.5, Top: 1, Left: 1, Color: colorGray})),
		))
	}
	return rows
}

func sampleHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a, Top: 1, Left: 1, Right: 1,
		}))
	}
	return row.New(6).Add(
		h("Clave", 4, align.Left),
		h("Id destino", 2, align.Right),
		h("Precio", 2, align.Right),
		h("Motivo / Nombre", 4, align.Left),
	)
}

func warningRows(warnings []string) []core.Row {
	if len(warnings) == 0 {
		return nil
	}
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(
			text.New("ADVERTENCIAS", props.Text{Style: fontstyle.Bold, Size: 9, Color: colorRed, Top: 2}),
		)),
	}
	for _, w := range warnings {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("• "+w, props.Text{Size: 7.5, Top: 0.5, Left: 2, Color: colorGray}),
		)))
	}
	return rows
}

// footerRow: QR con el run id para ubicar la ejecución en GET /api/sync/runs/:id.
func footerRow(run *entity.SyncRun) core.Row {
	return row.New(30).Add(
		col.New(3).Add(code.NewQr(run.ID, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Escanea el código para consultar esta ejecución\nen la API de sincronización.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Los contadores reflejan escrituras reales salvo en modo simulación.", props.Text{
				Size: 7, Top: 16, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func kindLabel(kind string) string {
	switch kind {
	case entity.SyncKindCategories:
		return "categorías"
	case entity.SyncKindPrices:
		return "precios"
	default:
		return nonEmpty(kind, "-")
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func idOrDash(id int64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}
