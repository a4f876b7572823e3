package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	eqmemory "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/infrastructure/memory"
	eqpostgres "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/infrastructure/postgres"
	"github.com/phunnicutt1/synapse-app-sub001/internal/reports"
	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
	sigpostgres "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/infrastructure/postgres"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		kind          string
		outPath       string
		equipmentType string
		equipmentPath string
		libraryPath   string
		reviewHighMin int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the point review report as xlsx or pdf",
		Long:  "Reads equipment from --equipment (offline) or the database and writes a review workbook or PDF.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var render func(*reports.ReviewReport) ([]byte, error)
			switch kind {
			case "xlsx":
				render = reports.BuildReviewXLSX
			case "pdf":
				render = reports.BuildReviewPDF
			default:
				return fmt.Errorf("unknown report kind %q (want xlsx or pdf)", kind)
			}
			if outPath == "" {
				return errors.New("--out is required")
			}

			var (
				source     reports.EquipmentSource
				candidates reports.CandidateFinder
			)
			if equipmentPath != "" {
				data, err := readInput(equipmentPath)
				if err != nil {
					return err
				}
				items, err := decodeEquipment(data)
				if err != nil {
					return err
				}
				source = eqmemory.NewRepository(items...)
				if libraryPath != "" {
					matcher, err := libraryMatcher(cmd.Context(), libraryPath)
					if err != nil {
						return err
					}
					candidates = matcher
				}
			} else {
				db, err := opts.openDB()
				if err != nil {
					return err
				}
				defer db.Close()
				source = eqpostgres.NewRepository(db)
				matcher, err := sigapp.NewMatcher(sigpostgres.NewRepository(db))
				if err != nil {
					return err
				}
				candidates = matcher
			}

			builder, err := reports.NewBuilder(source, candidates, reviewHighMin)
			if err != nil {
				return err
			}
			report, err := builder.Build(cmd.Context(), equipmentType)
			if err != nil {
				return err
			}
			data, err := render(report)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d equipment, %d points, %d need review)\n",
				outPath, len(report.Equipment), len(report.Points), len(report.NeedsReview()))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "xlsx", "Report kind: xlsx or pdf")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file")
	cmd.Flags().StringVar(&equipmentType, "equipment-type", "", "Restrict to one equipment type")
	cmd.Flags().StringVarP(&equipmentPath, "equipment", "e", "", "Equipment JSON file instead of the database")
	cmd.Flags().StringVarP(&libraryPath, "library", "l", "", "Signature library for offline candidate ranking")
	cmd.Flags().IntVar(&reviewHighMin, "review-high-min", 0, "Review threshold (default 80)")
	return cmd
}
