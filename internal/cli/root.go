// Package cli implements the synapsectl commands.
package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/phunnicutt1/synapse-app-sub001/internal/config"
)

type rootOptions struct {
	dbURL   string
	format  string
	noColor bool
}

// NewRootCmd builds the synapsectl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "synapsectl",
		Short:         "Offline signature matching and point review tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", opts.format)
			}
			if opts.noColor {
				color.NoColor = true
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.dbURL, "db", "", "Postgres URL (default: $DATABASE_URL or $PG_DSN)")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newCategorizeCmd(opts),
		newMatchCmd(opts),
		newImportCmd(opts),
		newReportCmd(opts),
		newTokenCmd(),
	)
	return root
}

func (o *rootOptions) openDB() (*sql.DB, error) {
	url := o.dbURL
	if url == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		url = cfg.DatabaseURL
	}
	if url == "" {
		return nil, errors.New("no database: pass --db or set DATABASE_URL")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func printJSON(w io.Writer, value any) error {
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
