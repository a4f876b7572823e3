package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
	sigmemory "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/infrastructure/memory"
	"github.com/phunnicutt1/synapse-app-sub001/internal/signatures/library"
)

// libraryMatcher loads a signature library into an in-memory registry.
func libraryMatcher(ctx context.Context, path string) (*sigapp.Matcher, error) {
	drafts, err := library.LoadFile(path)
	if err != nil {
		return nil, err
	}
	repo := sigmemory.NewRepository()
	registry, err := sigapp.NewRegistry(repo)
	if err != nil {
		return nil, err
	}
	if _, err := library.Import(ctx, registry, drafts); err != nil {
		return nil, err
	}
	return sigapp.NewMatcher(repo)
}

type matchResult struct {
	EquipmentID string             `json:"equipment_id"`
	Candidates  []sigapp.Candidate `json:"candidates"`
}

func newMatchCmd(opts *rootOptions) *cobra.Command {
	var (
		equipmentPath string
		libraryPath   string
	)
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Rank library signatures against equipment point lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if libraryPath == "" {
				return errors.New("--library is required")
			}
			data, err := readInput(equipmentPath)
			if err != nil {
				return err
			}
			items, err := decodeEquipment(data)
			if err != nil {
				return err
			}
			matcher, err := libraryMatcher(cmd.Context(), libraryPath)
			if err != nil {
				return err
			}

			results := make([]matchResult, 0, len(items))
			for _, item := range items {
				candidates, err := matcher.CandidateSignatures(cmd.Context(), item)
				if err != nil {
					return err
				}
				results = append(results, matchResult{EquipmentID: item.ID, Candidates: candidates})
			}

			out := cmd.OutOrStdout()
			if opts.format == "json" {
				return printJSON(out, results)
			}
			for _, res := range results {
				fmt.Fprintf(out, "%s\n", res.EquipmentID)
				if len(res.Candidates) == 0 {
					fmt.Fprintln(out, "  no signatures for this equipment type")
					continue
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, c := range res.Candidates {
					fmt.Fprintf(tw, "  %s\t%d/%d\t%s\tconfidence %d\n", c.Signature.Name,
						c.Coverage.MatchedCount, c.Coverage.TotalSignaturePoints,
						paintRatio(c.Coverage.Ratio(), c.FullMatch), c.Signature.Confidence)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&equipmentPath, "equipment", "e", "", "Equipment JSON file (default: stdin)")
	cmd.Flags().StringVarP(&libraryPath, "library", "l", "", "Signature library YAML file")
	return cmd
}
