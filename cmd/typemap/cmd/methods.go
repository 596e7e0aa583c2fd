package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typemap/pkg/typemap"
)

func newMethodsCmd() *cobra.Command {
	var (
		tagged       string
		params       []string
		noParams     bool
		returns      string
		paramTag     string
		constructors bool
	)

	cmd := &cobra.Command{
		Use:   "methods",
		Short: "List methods or constructors by annotation or signature",
		Long: `List methods, or constructors with --constructors, selected by exactly
one of --tagged, --params, --no-params, --returns or --param-tagged.

Results are printed as Type.name(p1, p2); constructors are named <init>.`,
		Example: `  typemap methods --tagged com.acme.Handler
  typemap methods --params java.lang.String,int
  typemap methods --constructors --no-params
  typemap methods --returns java.util.List`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			selected := 0
			for _, set := range []bool{tagged != "", len(params) > 0, noParams, returns != "", paramTag != ""} {
				if set {
					selected++
				}
			}
			if selected != 1 {
				return fmt.Errorf("exactly one of --tagged, --params, --no-params, --returns or --param-tagged is required")
			}
			if returns != "" && constructors {
				return fmt.Errorf("--returns does not apply to constructors")
			}

			m, err := buildMap(cmd, scanOptions{})
			if err != nil {
				return err
			}
			keys, err := selectMembers(m, memberQuery{
				tagged: tagged, params: params, noParams: noParams,
				returns: returns, paramTag: paramTag, constructors: constructors,
			})
			if err != nil {
				return err
			}
			return printList(cmd, keys)
		},
	}

	cmd.Flags().StringVar(&tagged, "tagged", "", "Annotation on the method")
	cmd.Flags().StringSliceVar(&params, "params", nil, "Exact parameter types, in order")
	cmd.Flags().BoolVar(&noParams, "no-params", false, "Methods without parameters")
	cmd.Flags().StringVar(&returns, "returns", "", "Return type")
	cmd.Flags().StringVar(&paramTag, "param-tagged", "", "Annotation on any parameter")
	cmd.Flags().BoolVar(&constructors, "constructors", false, "List constructors instead of methods")

	return cmd
}

type memberQuery struct {
	tagged       string
	params       []string
	noParams     bool
	returns      string
	paramTag     string
	constructors bool
}

func selectMembers(m *typemap.Map, q memberQuery) ([]string, error) {
	switch {
	case q.tagged != "" && q.constructors:
		return m.ConstructorsTaggedWith(q.tagged)
	case q.tagged != "":
		return m.MethodsTaggedWith(q.tagged)
	case (len(q.params) > 0 || q.noParams) && q.constructors:
		return m.ConstructorsMatchParams(q.params...)
	case len(q.params) > 0 || q.noParams:
		return m.MethodsMatchParams(q.params...)
	case q.returns != "":
		return m.MethodsReturn(q.returns)
	case q.constructors:
		return m.ConstructorsWithAnyParamTagged(q.paramTag)
	default:
		return m.MethodsWithAnyParamTagged(q.paramTag)
	}
}
