package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"skinvault/internal/config"
)

// NewFetchInventoryCommand creates fetch-inv: expand containers and print the summary.
func NewFetchInventoryCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "fetch-inv",
		Short: "Expand the inventory and print a summary without writing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd, func(cfg *config.Config) {
				if cmd.Flags().Changed("container-limit") {
					cfg.Sync.ContainerLimit = limit
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()

			exp, err := a.Inventory.Expand(cmd.Context(), a.Session)
			if err != nil {
				return err
			}
			lines := []string{
				fmt.Sprintf("total items:          %d", exp.Summary.TotalItems),
				fmt.Sprintf("containers:           %d", exp.Summary.ContainerCount),
				fmt.Sprintf("items in containers:  %d", exp.Summary.ItemsInContainers),
			}
			if len(exp.FailedContainers) > 0 {
				lines = append(lines, "failed containers:    "+strings.Join(exp.FailedContainers, ", "))
			}
			return opts.output(cmd).Result(map[string]any{
				"summary":           exp.Summary,
				"failed_containers": exp.FailedContainers,
			}, lines...)
		},
	}
	cmd.Flags().IntVar(&limit, "container-limit", 0, "expand at most this many containers (0 = all)")
	return cmd
}

// NewSyncCommand creates sync-db: expand and persist the inventory.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	var (
		batchSize     int
		retireOnEmpty bool
	)

	cmd := &cobra.Command{
		Use:   "sync-db",
		Short: "Expand the inventory and upsert it into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd, func(cfg *config.Config) {
				if cmd.Flags().Changed("batch-size") {
					cfg.Sync.BatchSize = batchSize
				}
				if cmd.Flags().Changed("retire-on-empty") {
					cfg.Sync.RetireOnEmpty = retireOnEmpty
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Inventory.Sync(cmd.Context(), a.Session)
			if err != nil {
				return err
			}
			return opts.output(cmd).Result(res,
				fmt.Sprintf("run:       %s", res.RunID),
				fmt.Sprintf("expanded:  %d items (%d containers)", res.Expansion.TotalItems, res.Expansion.ContainerCount),
				fmt.Sprintf("upserted:  %d of %d (%d skipped)", res.Write.Upserted, res.Write.Total, res.Write.Skipped),
				fmt.Sprintf("retired:   %d", res.Write.Retired),
			)
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 500, "rows per upsert transaction")
	cmd.Flags().BoolVar(&retireOnEmpty, "retire-on-empty", true, "retire stored items when the inventory is empty; false skips retirement for empty runs")
	return cmd
}

// NewPricesCommand creates prices-update: fetch the listing and reconcile current prices.
func NewPricesCommand(opts *RootOptions) *cobra.Command {
	var (
		currency string
		tradable bool
	)

	cmd := &cobra.Command{
		Use:   "prices-update",
		Short: "Fetch the bulk price listing and update current prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			q := a.Prices.Defaults()
			if cmd.Flags().Changed("currency") {
				q.Currency = strings.ToUpper(strings.TrimSpace(currency))
			}
			if cmd.Flags().Changed("tradable") {
				q.Tradable = tradable
			}

			res, err := a.Prices.Refresh(cmd.Context(), q)
			if err != nil {
				return err
			}
			return opts.output(cmd).Result(res,
				fmt.Sprintf("run:        %s", res.RunID),
				fmt.Sprintf("source:     %s (%s)", res.Source, q.Currency),
				fmt.Sprintf("fetched:    %d", res.Fetched),
				fmt.Sprintf("snapshots:  %d", res.Snapshots),
				fmt.Sprintf("updated:    %d", res.Updated),
			)
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "EUR", "listing currency")
	cmd.Flags().BoolVar(&tradable, "tradable", true, "only tradable listings")
	return cmd
}

// NewBackfillCommand creates defs-backfill: create missing definitions and link items.
func NewBackfillCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "defs-backfill",
		Short: "Create item definitions from stored names and link items to them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := store.BackfillDefinitions(cmd.Context())
			if err != nil {
				return err
			}
			return opts.output(cmd).Result(res,
				fmt.Sprintf("definitions created: %d", res.Created),
				fmt.Sprintf("items linked:        %d", res.Linked),
			)
		},
	}
}

// NewMigrateCommand creates migrate: create missing tables and indexes.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			return opts.output(cmd).Result(map[string]string{"backend": store.Backend(), "status": "migrated"},
				fmt.Sprintf("%s schema is up to date", store.Backend()))
		},
	}
}
