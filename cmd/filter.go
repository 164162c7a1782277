package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzielin/tender-harvester/internal/docfilter"
)

// newFilterCmd creates the 'filter' subcommand: scan stored document
// metadata for filenames matching a named pattern and write the matches to
// the output file.
func newFilterCmd() *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "List stored documents whose filenames match a pattern",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			finder := docfilter.NewFinder(app.Store.TendersPath(), app.Logger)
			entries, err := finder.ExtractFileNames()
			if err != nil {
				return err
			}

			matches, err := finder.FindMatching(entries, pattern)
			if err != nil {
				return err
			}

			target, err := finder.WriteResults(matches, app.OutputPath(), app.Config.Filter.OutputFile, pattern)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Matched %d of %d documents, results in %s\n",
				len(matches), len(entries), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "kosztorys", "registered filename pattern to match")

	return cmd
}
