package cmd

import (
	"github.com/spf13/cobra"
)

func newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources <regex>",
		Short: "List resources whose file name matches a pattern",
		Long: `List the paths of non-source entries whose file name matches the
regular expression. The whole name must match.`,
		Example: `  typemap resources '.*\.properties'
  typemap resources 'persistence\.xml'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildMap(cmd, scanOptions{})
			if err != nil {
				return err
			}
			paths, err := m.ResourcesMatching(args[0])
			if err != nil {
				return err
			}
			return printList(cmd, paths)
		},
	}
}
