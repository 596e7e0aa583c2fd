package cmd

import (
	"github.com/spf13/cobra"
)

func newTaggedCmd() *cobra.Command {
	var inherited bool

	cmd := &cobra.Command{
		Use:   "tagged <annotation>",
		Short: "List the types carrying an annotation",
		Long: `List the types carrying an annotation.

By default annotations on annotations count and every subtype of a
matching type matches too. With --inherited only annotations that are
themselves @Inherited propagate, and only from classes to subclasses.`,
		Example: `  typemap tagged com.acme.Component
  typemap tagged com.acme.Audited --inherited`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildMap(cmd, scanOptions{})
			if err != nil {
				return err
			}
			types, err := m.TypesTaggedWith(args[0], inherited)
			if err != nil {
				return err
			}
			return printList(cmd, types)
		},
	}

	cmd.Flags().BoolVar(&inherited, "inherited", false, "Honor @Inherited semantics")

	return cmd
}
