package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/catalogo-sync/pkg/jwt"
)

func newTokenCmd(c *cli) *cobra.Command {
	var (
		subject string
		role    string
		minutes int
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un token JWT de operador para la API",
		Long: `Firma un token con JWT_SECRET para llamar a /api/sync/*.

Examples:
  catalogsync token --subject cron-nightly --role sync
  catalogsync token --subject ana --role admin --minutes 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != jwt.RoleAdmin && role != jwt.RoleSync {
				return fmt.Errorf("rol inválido %q: debe ser %s o %s", role, jwt.RoleAdmin, jwt.RoleSync)
			}
			if minutes <= 0 {
				minutes = c.cfg.JWT.Expiration
			}
			tok, err := jwt.Generate(c.cfg.JWT.Secret, subject, role, c.cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "operador o proceso que usará el token")
	cmd.Flags().StringVar(&role, "role", jwt.RoleSync, "admin o sync")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "vigencia en minutos (por defecto JWT_EXPIRATION_MINUTES)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
