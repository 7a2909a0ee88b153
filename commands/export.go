// Package commands holds the CLI subcommands registered on the PocketBase
// root command.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"bqestimator/services"
)

// OptionsLoader returns the estimator options; main passes the config loader.
type OptionsLoader func() (services.EstimatorOptions, error)

// NewExportCommand returns the estimate-export command. It renders a
// project's estimate from pb_data without starting the server.
func NewExportCommand(app *pocketbase.PocketBase, load OptionsLoader) *cobra.Command {
	var format, out, search, status, cols string

	cmd := &cobra.Command{
		Use:   "estimate-export <projectId>",
		Short: "Export a project's estimate as xlsx or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := load()
			if err != nil {
				return err
			}
			columns, err := services.ParseColumns(cols, opts.Columns)
			if err != nil {
				return err
			}
			st := strings.ToLower(strings.TrimSpace(status))
			if st != "" && st != services.StatusAll && !services.ValidStatus(st) {
				return fmt.Errorf("unknown status %q", status)
			}

			est := services.NewEstimator(services.NewRecordStore(app), opts)
			res, err := est.Export(cmd.Context(), args[0], services.ExportRequest{
				Format:  format,
				Filter:  services.Filter{Search: search, Status: st},
				Columns: columns,
			})
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = res.Filename
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.WriteFile(path, res.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(res.Body))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", services.FormatSpreadsheet, "output format: xlsx or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <project>_estimate.<format>)")
	cmd.Flags().StringVar(&search, "search", "", "keep only items whose description contains this text")
	cmd.Flags().StringVar(&status, "status", "", "keep only items with this status")
	cmd.Flags().StringVar(&cols, "cols", "", "comma separated columns, or \"all\"")
	return cmd
}
