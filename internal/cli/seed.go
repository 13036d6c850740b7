package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alp4ka/keyset/internal/meter"
	"github.com/Alp4ka/keyset/internal/store"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Recreate the resource and meter tables with demo data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := store.Open(a.cfg.DB, a.debug)
			if err != nil {
				return err
			}
			defer st.Close()

			if err = st.WithSession(cmd.Context(), meter.Seed); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "seeded 10 resources and 20 meters")

			return err
		},
	}
}
