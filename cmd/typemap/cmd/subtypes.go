package cmd

import (
	"github.com/spf13/cobra"
)

func newSubtypesCmd() *cobra.Command {
	var direct bool

	cmd := &cobra.Command{
		Use:   "subtypes <type>",
		Short: "List the subtypes of a type",
		Long: `List every type that extends or implements the given type, directly
or transitively. The type itself is not listed.`,
		Example: `  typemap subtypes com.acme.Service
  typemap subtypes java.io.Serializable --direct`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildMap(cmd, scanOptions{})
			if err != nil {
				return err
			}
			query := m.SubTypesOf
			if direct {
				query = m.DirectSubTypesOf
			}
			types, err := query(args[0])
			if err != nil {
				return err
			}
			return printList(cmd, types)
		},
	}

	cmd.Flags().BoolVar(&direct, "direct", false, "Only direct subtypes")

	return cmd
}
