package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
)

func newCategorizeCmd(opts *rootOptions) *cobra.Command {
	var (
		reviewHighMin int
		tier          string
		review        string
	)
	cmd := &cobra.Command{
		Use:   "categorize [points.json]",
		Short: "Categorize points and bucket their confidence",
		Long:  "Reads a JSON point list (file or stdin) and prints category, tier and review bucket per point.\n--tier and --review narrow the listed points; the summary always covers the whole input.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readInput(path)
			if err != nil {
				return err
			}
			filter, err := points.ParsePointFilter(tier, review)
			if err != nil {
				return err
			}
			all, err := decodePoints(data)
			if err != nil {
				return err
			}
			list := filter.Apply(all, reviewHighMin)
			classifications := points.ClassifyAll(list, reviewHighMin)
			summary := points.Summarize(all, reviewHighMin)

			out := cmd.OutOrStdout()
			if opts.format == "json" {
				return printJSON(out, map[string]any{"classifications": classifications, "summary": summary})
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "POINT\tNAME\tCATEGORY\tTIER\tREVIEW")
			for i, c := range classifications {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.PointID, list[i].DisplayName, c.Category, paintTier(c.Tier), paintBucket(c.ReviewBucket))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d points, %d normalized (%s), average confidence %.1f\n",
				summary.TotalPoints, summary.NormalizedPoints, percent(summary.NormalizationRate), summary.AverageConfidence)
			for _, category := range points.Categories {
				if n := summary.ByCategory[category]; n > 0 {
					fmt.Fprintf(out, "  %-12s %d\n", category, n)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&reviewHighMin, "review-high-min", points.ReviewHighMin, "Minimum confidence of the high-confidence review bucket")
	cmd.Flags().StringVar(&tier, "tier", "", "Only list points in this tier (none|low|medium|high)")
	cmd.Flags().StringVar(&review, "review", "", "Only list points in this review bucket (unscored|needs_review|high_confidence)")
	return cmd
}
