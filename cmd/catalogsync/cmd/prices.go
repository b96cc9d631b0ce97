package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jhoicas/catalogo-sync/internal/application/dto"
	"github.com/jhoicas/catalogo-sync/internal/application/pricefeed"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/feed"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/woocommerce"
)

func newPricesCmd(c *cli) *cobra.Command {
	var (
		file        string
		dryRun      bool
		publish     bool
		skip        bool
		concurrency int
		pricing     dto.PricingDTO
	)
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Reconcilia precios y stock desde un feed CSV o XML",
		Long: `Normaliza cada fila del feed (SKU, precio en moneda origen o destino, stock opcional),
calcula el precio destino con tasa de cambio, margen y redondeo, y actualiza los productos
de la tienda por SKU con concurrencia acotada. Un fallo en una fila no afecta al resto.

Los parámetros de precio no indicados se toman de PRICING_* en la configuración.

Examples:
  catalogsync prices --file feed.csv --dry-run
  catalogsync prices --file feed.xml --fx 13.2 --markup 20 --step 5 --mode nearest --publish`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			base, err := c.cfg.Pricing.ToEntity()
			if err != nil {
				base = entity.PricingConfig{RoundingMode: entity.RoundNone}
			}
			cfg, err := pricing.Merge(base)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("abrir feed: %w", err)
			}
			rows, err := feed.Read(file, f)
			f.Close()
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

			opts := pricefeed.ReconcileOptions{
				Concurrency:   c.cfg.Sync.Concurrency,
				ChunkSize:     c.cfg.Sync.ChunkSize,
				CallTimeout:   c.cfg.Sync.CallTimeout,
				DryRun:        dryRun,
				Publish:       c.cfg.Sync.Publish,
				SkipUnchanged: c.cfg.Sync.SkipUnchanged,
			}
			if cmd.Flags().Changed("publish") {
				opts.Publish = publish
			}
			if cmd.Flags().Changed("skip-unchanged") {
				opts.SkipUnchanged = skip
			}
			if cmd.Flags().Changed("concurrency") {
				opts.Concurrency = concurrency
			}
			if !c.quiet && !c.asJSON {
				errOut := cmd.ErrOrStderr()
				opts.OnProgress = func(p pricefeed.Progress) {
					fmt.Fprintf(errOut, "\rbloque %d/%d  filas %d/%d", p.Chunk, p.Chunks, p.Processed, p.Total)
					if p.Chunk == p.Chunks {
						fmt.Fprintln(errOut)
					}
				}
			}

			uc := pricefeed.NewPriceSyncUseCase(store, pricefeed.NewNormalizer(), rec, c.log)
			result, err := uc.ReconcileFeed(ctx, rows, cfg, opts)
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "feed CSV o XML")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "calcular y contar sin escribir en la tienda")
	cmd.Flags().BoolVar(&publish, "publish", false, "publicar los productos actualizados")
	cmd.Flags().BoolVar(&skip, "skip-unchanged", false, "no reescribir productos cuyo precio ya coincide (cuentan como skipped)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "peticiones simultáneas a la tienda")
	cmd.Flags().StringVar(&pricing.FXRate, "fx", "", "tasa de cambio origen → destino")
	cmd.Flags().StringVar(&pricing.MarkupPct, "markup", "", "margen en porcentaje")
	cmd.Flags().StringVar(&pricing.RoundingStep, "step", "", "paso de redondeo (0 = sin paso)")
	cmd.Flags().StringVar(&pricing.RoundingMode, "mode", "", "nearest, up, down o none")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
