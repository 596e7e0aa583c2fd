package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typemap/internal/output"
)

func newHierarchyCmd() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "hierarchy <type>",
		Short: "Print the subtype tree below a type",
		Example: `  typemap hierarchy com.acme.Service
  typemap hierarchy java.lang.Exception --depth 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildMap(cmd, scanOptions{})
			if err != nil {
				return err
			}
			tree, err := output.Hierarchy(args[0], m.DirectSubTypesOf, depth)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tree)
			return err
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 0, "Maximum depth (0 for unlimited)")

	return cmd
}
