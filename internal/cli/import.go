package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
	sigpostgres "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/infrastructure/postgres"
	"github.com/phunnicutt1/synapse-app-sub001/internal/signatures/library"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <library.yaml>",
		Short: "Import a signature library into the database",
		Long:  "Creates every library signature whose name and equipment type are not yet registered. Re-running is a no-op.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drafts, err := library.LoadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				if opts.format == "json" {
					return printJSON(out, map[string]any{"ok": true, "parsed": len(drafts)})
				}
				fmt.Fprintf(out, "%s: %d signatures parsed\n", args[0], len(drafts))
				return nil
			}

			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			registry, err := sigapp.NewRegistry(sigpostgres.NewRepository(db))
			if err != nil {
				return err
			}
			result, err := library.Import(cmd.Context(), registry, drafts)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return printJSON(out, result)
			}
			fmt.Fprintf(out, "created %s, skipped %d\n", good(len(result.Created)), len(result.Skipped))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the library without writing")
	return cmd
}
