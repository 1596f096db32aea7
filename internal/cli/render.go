package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkrawiec/fieldgraph/plan"
	"github.com/mkrawiec/fieldgraph/render"
)

func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatName string
		detailed   bool
	)

	cmd := &cobra.Command{
		Use:   "render [pipeline.toml]",
		Short: "Compile a pipeline definition and draw its layer graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch formatName {
			case "dot", "svg", "png":
			default:
				return fmt.Errorf("unknown render format %q (want dot, svg or png)", formatName)
			}

			_, p, err := c.compile(args[0], plan.LegacyPolicy{})
			if err != nil {
				return err
			}

			dot := render.ToDOT(p.Graph, render.Options{Detailed: detailed})

			var data []byte
			switch formatName {
			case "dot":
				data = []byte(dot)
			case "svg":
				data, err = render.SVG(dot)
			case "png":
				data, err = render.PNG(dot)
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write diagram: %w", err)
			}
			c.Logger.Info("Wrote diagram", "path", output, "format", formatName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "graph.svg", "diagram output path")
	cmd.Flags().StringVarP(&formatName, "format", "f", "svg", "diagram format (dot, svg, png)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label nodes with their operation and attributes")
	return cmd
}
