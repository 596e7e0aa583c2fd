package cmd

import (
	"github.com/spf13/cobra"
)

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "fields <annotation>",
		Short:   "List the fields carrying an annotation",
		Example: `  typemap fields javax.inject.Inject`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildMap(cmd, scanOptions{})
			if err != nil {
				return err
			}
			fields, err := m.FieldsTaggedWith(args[0])
			if err != nil {
				return err
			}
			return printList(cmd, fields)
		},
	}
}
