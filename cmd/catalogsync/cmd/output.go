package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jhoicas/catalogo-sync/internal/application/dto"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPlan tabla ACCIÓN | SLUG | NOMBRE | PADRE con los totales al final.
func printPlan(w io.Writer, items []entity.PlanItem) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCIÓN\tSLUG\tNOMBRE\tPADRE\tNOTA")
	for _, it := range items {
		parent := "-"
		if it.ParentSourceID != 0 {
			parent = fmt.Sprintf("%d", it.ParentSourceID)
		}
		note := it.Warning
		if it.Action == entity.ActionUpdate && it.CurrentName != "" && it.CurrentName != it.Name {
			note = fmt.Sprintf("antes: %q", it.CurrentName)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.Action, it.Slug, it.Name, parent, note)
	}
	tw.Flush()
	resp := dto.NewCategoryPlanResponse(items)
	fmt.Fprintf(w, "\ncrear: %d  actualizar: %d  sin cambios: %d\n", resp.Create, resp.Update, resp.Noop)
}

// printResult resumen "N de M" más las muestras de fallos, no encontrados y advertencias.
func printResult(w io.Writer, res *entity.ReconciliationResult) {
	mode := "en vivo"
	if res.DryRun {
		mode = "dry-run"
	}
	if res.Cancelled {
		mode += ", cancelada"
	}
	fmt.Fprintf(w, "ejecución %s (%s): %d de %d sin fallos\n", res.RunID, mode, res.Succeeded(), res.Attempted)
	fmt.Fprintf(w, "  creados: %d  actualizados: %d  omitidos: %d  no encontrados: %d  fallidos: %d\n",
		res.Created, res.Updated, res.Skipped, res.NotFound, res.Failed)
	printSamples(w, "fallidos", res.Samples.Failed)
	printSamples(w, "no encontrados", res.Samples.NotFound)
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  advertencia: %s\n", warn)
	}
}

func printSamples(w io.Writer, title string, samples []entity.Sample) {
	if len(samples) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s (muestra):\n", title)
	for _, s := range samples {
		line := ""
		if s.Line > 0 {
			line = fmt.Sprintf(" [línea %d]", s.Line)
		}
		fmt.Fprintf(w, "    - %s%s: %s\n", s.Key, line, s.Reason)
	}
}
