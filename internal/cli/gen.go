package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkrawiec/fieldgraph/codegen"
	"github.com/mkrawiec/fieldgraph/plan"
)

func (c *CLI) genCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "gen [pipeline.toml]",
		Short: "Compile a pipeline definition and emit its Lua conversion module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := c.compile(args[0], plan.LegacyPolicy{})
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create conversion module: %w", err)
			}
			defer f.Close()

			if err := codegen.Emit(f, p); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close conversion module: %w", err)
			}
			c.Logger.Info("Wrote conversion module", "path", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "convert.lua", "conversion module output path")
	return cmd
}
