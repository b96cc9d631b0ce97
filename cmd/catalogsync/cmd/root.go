package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/catalogo-sync/internal/application/audit"
	"github.com/jhoicas/catalogo-sync/internal/domain/repository"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/postgres"
	"github.com/jhoicas/catalogo-sync/pkg/config"
	"github.com/jhoicas/catalogo-sync/pkg/logger"
)

// cli estado compartido por los subcomandos, inicializado en PersistentPreRunE.
type cli struct {
	cfg    *config.Config
	log    *logger.Logger
	quiet  bool
	asJSON bool
}

// NewRootCmd construye el árbol de comandos.
func NewRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "catalogsync",
		Short: "Sincroniza categorías y precios del catálogo origen con la tienda destino",
		Long: `catalogsync recorre el árbol de categorías del catálogo origen y lo refleja en la
tienda destino, y reconcilia precios y stock a partir de un feed CSV o XML.

Todas las operaciones son re-ejecutables: --dry-run calcula exactamente lo que se haría
sin escribir, y una segunda ejecución en vivo no duplica trabajo.

La configuración se lee de variables de entorno (o .env): SOURCE_BASE_URL, STORE_BASE_URL,
STORE_CONSUMER_KEY, STORE_CONSUMER_SECRET, PRICING_*, SYNC_*, DATABASE_URL.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			c.cfg = cfg
			if c.quiet {
				c.log = logger.Nop()
			} else {
				c.log = logger.New(logger.Config{Env: "development", Level: cfg.App.LogLevel, Out: cmd.ErrOrStderr()})
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "sin logs, solo el resultado")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "imprimir el resultado como JSON")

	root.AddCommand(newCategoriesCmd(c), newPricesCmd(c), newTokenCmd(c))
	return root
}

// Execute ejecuta el comando raíz.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// recorder abre la auditoría en PostgreSQL si está configurada. close libera el pool.
func (c *cli) recorder(ctx context.Context) (rec *audit.RunRecorder, closeFn func(), err error) {
	var repo repository.SyncRunRepository
	closeFn = func() {}
	if c.cfg.Sync.AuditEnabled && c.cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, c.cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		repo = postgres.NewSyncRunRepository(pool)
		closeFn = pool.Close
	}
	return audit.NewRunRecorder(repo, c.log), closeFn, nil
}
