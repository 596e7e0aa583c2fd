package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typemap/internal/output"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [root...]",
		Short: "Scan roots and print the index report",
		Long: `Scan roots and print how many keys and values each index holds,
together with the roots, entries and failures seen.

A root is a directory, a zip or jar file, a tar stream (.tar, .tar.gz,
.tar.zst, .tar.lz4) or a path inside an archive such as
app.war!/WEB-INF/lib/core.jar.`,
		Example: `  # Scan the project roots from .typemap.yaml
  typemap scan

  # Scan a jar and a directory with four workers
  typemap scan lib/core.jar build/classes --workers 4

  # Machine readable report
  typemap scan --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildMap(cmd, scanOptions{roots: args, summary: true})
			if err != nil {
				return err
			}
			r := output.NewReportRenderer(cmd.OutOrStdout(), noColor || !output.IsTTY(cmd.OutOrStdout()))
			if jsonOutput {
				return r.RenderJSON(m.Report())
			}
			return r.Render(m.Report())
		},
	}
}
