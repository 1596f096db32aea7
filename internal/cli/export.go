package cli

import (
	"github.com/spf13/cobra"

	"github.com/mkrawiec/fieldgraph/export"
	"github.com/mkrawiec/fieldgraph/plan"
)

func (c *CLI) exportCommand() *cobra.Command {
	var (
		output     string
		formatName string
	)

	cmd := &cobra.Command{
		Use:   "export [pipeline.toml]",
		Short: "Compile a pipeline definition and write its manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			_, p, err := c.compile(args[0], plan.LegacyPolicy{})
			if err != nil {
				return err
			}
			manifest, err := export.NewManifest(p)
			if err != nil {
				return err
			}
			if err := export.NewWriter(format).Save(output, manifest); err != nil {
				return err
			}
			c.Logger.Info("Wrote manifest", "path", output, "format", format.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "manifest.json", "manifest output path")
	cmd.Flags().StringVarP(&formatName, "format", "f", "json", "manifest format (json, binary)")
	return cmd
}
