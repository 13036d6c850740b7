package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Alp4ka/keyset/internal/config"
	"github.com/Alp4ka/keyset/internal/meter"
	"github.com/Alp4ka/keyset/internal/store"
)

func newListCmd(a *app) *cobra.Command {
	var (
		req    meter.ListRequest
		raw    bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the latest meter of every (resource, counter) pair",
		Long: `Lists meters ordered by counter name and resource id, both descending.

The page starts after the row named by --counter-name/--resource-id or after
the --token printed by the previous page. --limit -1 lists everything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("limit") {
				req.Limit = a.cfg.Page.Limit
			}

			page, err := a.list(cmd, req, raw)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(page)
			}

			return printPage(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().IntVar(&req.Limit, "limit", 0, "page size, 0 for an empty page, -1 for no limit (default from config)")
	cmd.Flags().StringVar(&req.Token, "token", "", "continue after the page that printed this token")
	cmd.Flags().StringVar(&req.CounterName, "counter-name", "", "counter name of the row to continue after")
	cmd.Flags().StringVar(&req.ResourceID, "resource-id", "", "resource id of the row to continue after")
	cmd.Flags().BoolVar(&raw, "raw", false, "query with raw SQL through pgx (postgres only)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the page as JSON")
	cmd.MarkFlagsMutuallyExclusive("token", "counter-name")
	cmd.MarkFlagsMutuallyExclusive("token", "resource-id")

	return cmd
}

func (a *app) list(cmd *cobra.Command, req meter.ListRequest, raw bool) (meter.Page, error) {
	ctx := cmd.Context()

	if raw {
		if a.cfg.DB.Driver != config.DriverPostgres {
			return meter.Page{}, fmt.Errorf("--raw needs the %s driver, got %s", config.DriverPostgres, a.cfg.DB.Driver)
		}

		pool, err := store.NewPool(ctx, a.cfg.DB.DSN)
		if err != nil {
			return meter.Page{}, err
		}
		defer pool.Close()

		return meter.ListRaw(ctx, pool, req)
	}

	st, err := store.Open(a.cfg.DB, a.debug)
	if err != nil {
		return meter.Page{}, err
	}
	defer st.Close()

	var page meter.Page
	err = st.WithSession(ctx, func(tx *gorm.DB) error {
		page, err = meter.List(ctx, tx, req)
		return err
	})

	return page, err
}

func printPage(w io.Writer, page meter.Page) error {
	for _, r := range page.Rows {
		_, err := fmt.Fprintf(w, "name=%s type=%s unit=%s resource_id=%s project_id=%s user_id=%s\n",
			r.CounterName, r.CounterType, r.CounterUnit, r.ResourceID, r.ProjectID, r.UserID)
		if err != nil {
			return err
		}
	}

	if page.NextToken == "" {
		_, err := fmt.Fprintln(w, "-- last page")
		return err
	}

	_, err := fmt.Fprintf(w, "-- next token: %s\n", page.NextToken)

	return err
}
