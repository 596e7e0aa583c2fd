package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typemap/internal/metadata"
)

func newTypesCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List scanned types",
		Long: `List scanned types, optionally of one kind: class, interface, enum,
annotation or record.

Without --kind the subtypes scanner must keep java.lang.Object
(subtypes.exclude_object: false).`,
		Example: `  typemap types --kind interface`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := buildMap(cmd, scanOptions{})
			if err != nil {
				return err
			}
			var types []string
			if kind != "" {
				types, err = m.TypesOfKind(metadata.Kind(kind))
			} else {
				types, err = m.AllTypes()
			}
			if err != nil {
				return err
			}
			return printList(cmd, types)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only types of this kind")

	return cmd
}
