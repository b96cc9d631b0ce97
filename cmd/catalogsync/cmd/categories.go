package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jhoicas/catalogo-sync/internal/application/catalogsync"
	"github.com/jhoicas/catalogo-sync/internal/application/dto"
	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/memory"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/sourcecatalog"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/woocommerce"
)

func newCategoriesCmd(c *cli) *cobra.Command {
	var (
		roots      []int64
		dryRun     bool
		planOnly   bool
		sourceFile string
	)
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Sincroniza el árbol de categorías desde una o más raíces",
		Long: `Recorre el árbol del catálogo origen desde las raíces indicadas, calcula el plan
create/update/noop contra las categorías de la tienda y lo aplica padre antes que hijo.

Examples:
  catalogsync categories --root 12 --root 40 --dry-run
  catalogsync categories --root 12 --plan-only
  catalogsync categories --root 1 --source-file export.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			source, err := c.sourceCatalog(sourceFile)
			if err != nil {
				return err
			}
			if c.cfg.Store.BaseURL == "" {
				return fmt.Errorf("STORE_BASE_URL requerido")
			}
			store := woocommerce.NewClient(c.cfg.Store.BaseURL, c.cfg.Store.ConsumerKey, c.cfg.Store.ConsumerSecret, c.cfg.Store.Timeout)

			rec, closeRec, err := c.recorder(ctx)
			if err != nil {
				return err
			}
			defer closeRec()

			uc := catalogsync.NewCategorySyncUseCase(source, store, rec, c.cfg.Sync.CallTimeout, c.log)
			out := cmd.OutOrStdout()

			if planOnly {
				items, err := uc.PlanCategorySync(ctx, roots)
				if err != nil {
					return err
				}
				if c.asJSON {
					return printJSON(out, dto.NewCategoryPlanResponse(items))
				}
				printPlan(out, items)
				return nil
			}

			items, result, err := uc.SyncCategories(ctx, roots, dryRun)
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(out, dto.CategorySyncResponse{Plan: dto.NewCategoryPlanResponse(items), Result: result})
			}
			printPlan(out, items)
			fmt.Fprintln(out)
			printResult(out, result)
			return nil
		},
	}
	cmd.Flags().Int64SliceVar(&roots, "root", nil, "id de categoría raíz en el catálogo origen (repetible)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "calcular y contar sin escribir en la tienda")
	cmd.Flags().BoolVar(&planOnly, "plan-only", false, "solo mostrar el plan")
	cmd.Flags().StringVar(&sourceFile, "source-file", "", "snapshot JSON del catálogo origen (en lugar de la API)")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}

// sourceCatalog API del catálogo origen, o un snapshot local si se indicó archivo.
func (c *cli) sourceCatalog(path string) (ports.SourceCatalog, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("abrir snapshot: %w", err)
		}
		defer f.Close()
		catalog, err := memory.LoadSnapshot(f)
		if err != nil {
			return nil, err
		}
		return catalog, nil
	}
	if c.cfg.Source.BaseURL == "" {
		return nil, fmt.Errorf("SOURCE_BASE_URL requerido (o usar --source-file)")
	}
	return sourcecatalog.NewClient(c.cfg.Source.BaseURL, c.cfg.Source.APIToken, c.cfg.Source.Timeout), nil
}
