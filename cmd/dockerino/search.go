// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dockerino/dockerino/internal/config"
	"github.com/dockerino/dockerino/internal/images"
	"github.com/dockerino/dockerino/internal/issue"
	"github.com/dockerino/dockerino/internal/query"
)

func newSearchCommand(app *App) *cobra.Command {
	var (
		limit     int
		stars     int
		official  bool
		automated bool
		noTrunc   bool
	)

	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Search a registry for images",
		Example: `  dockerino search redis --official
  dockerino search nginx --stars 100 --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string) error {
			fb := query.NewSearchFilterBuilder()
			if cmd.Flags().Changed("stars") {
				fb.MinimumStars(stars)
			}
			if cmd.Flags().Changed("official") {
				fb.IsOfficial(official)
			}
			if cmd.Flags().Changed("automated") {
				fb.IsAutomated(automated)
			}
			opts := images.SearchOptions{Limit: limit, Filters: fb.Build()}

			var results []images.SearchResult
			err := app.withImages(func(svc ImageService) error {
				var err error
				results, err = svc.Search(cmd.Context(), args[0], opts)
				return err
			})
			if err != nil {
				return issue.FromEngineError(err, "search images", args[0])
			}

			if app.output() != config.OutputTable {
				return writeStructured(app.stdout, app.output(), "results", results)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				desc := r.Description
				if !noTrunc {
					desc = truncate(desc, 45)
				}
				rows = append(rows, []string{r.Name, desc, strconv.Itoa(r.StarCount), okMark(r.IsOfficial), okMark(r.IsAutomated)})
			}
			writeTable(app.stdout, []string{"NAME", "DESCRIPTION", "STARS", "OFFICIAL", "AUTOMATED"}, rows)
			return nil
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (engine default when 0)")
	cmd.Flags().IntVarP(&stars, "stars", "s", 0, "only show results with at least this many stars")
	cmd.Flags().BoolVar(&official, "official", false, "only show official images")
	cmd.Flags().BoolVar(&automated, "automated", false, "only show automated builds")
	cmd.Flags().BoolVar(&noTrunc, "no-trunc", false, "don't truncate descriptions")

	return cmd
}

func okMark(b bool) string {
	if b {
		return "[OK]"
	}
	return ""
}
