package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func (c *CLI) planCommand() *cobra.Command {
	var policyName string

	cmd := &cobra.Command{
		Use:   "plan [pipeline.toml]",
		Short: "Compile a pipeline definition and print the resulting plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, err := parsePolicy(policyName)
			if err != nil {
				return err
			}
			specs, p, err := c.compile(args[0], pol)
			if err != nil {
				return err
			}
			return c.printPlanSummary(os.Stdout, specs, p, pol)
		},
	}

	cmd.Flags().StringVar(&policyName, "policy", policyLegacy, "shape propagation policy (legacy, formula)")
	return cmd
}
