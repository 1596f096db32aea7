package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/mkrawiec/fieldgraph/pipeline"
	"github.com/mkrawiec/fieldgraph/plan"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	fieldStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// printPlanSummary writes a human-readable account of a compiled plan:
// the sample tensor size, then per field its extents, placement and the
// shape of the data after every stage. Shapes are re-traced with the
// same providers and policy the plan was compiled with.
func (c *CLI) printPlanSummary(w io.Writer, specs []pipeline.Spec, p *pipeline.Plan, pol plan.Policy) error {
	fmt.Fprintln(w, titleStyle.Render("Pipeline plan"))
	fmt.Fprintf(w, "  %s %s    %s %s    %s %s\n",
		labelStyle.Render("fields:"), countStyle.Render(fmt.Sprintf("%d", len(p.Fields))),
		labelStyle.Render("sample tensor:"), countStyle.Render(fmt.Sprintf("%d elements", p.TotalSize)),
		labelStyle.Render("graph nodes:"), countStyle.Render(fmt.Sprintf("%d", p.Graph.Len())))

	for i := range p.Fields {
		fp := &p.Fields[i]
		builder := plan.Builder{Dims: specs[i].Dims, Channels: specs[i].Channels, Policy: pol}
		shapes, err := builder.Trace(fp.Field, fp.Stack)
		if err != nil {
			return err
		}

		placement := fp.Shape.Placement()
		fmt.Fprintf(w, "\n%s %s\n",
			fieldStyle.Render(fp.Field.VariableName),
			labelStyle.Render("("+dimsOf(shapes[0])+")"))
		fmt.Fprintf(w, "  %s [%d, %d]\n", labelStyle.Render("placement"), placement.Start, placement.Size)

		fmt.Fprintf(w, "  %s\n", labelStyle.Render("stages"))
		for j := range fp.Stack {
			fmt.Fprintf(w, "    %2d  %-18s %s -> %s\n",
				j, fp.Build.Chain[j].Op.String(), dimsOf(shapes[j]), dimsOf(shapes[j+1]))
		}
		fmt.Fprintf(w, "        %-18s -> %s\n",
			"Reshape", countStyle.Render(fmt.Sprintf("%d features", fp.Build.OutputShape.TotalSize())))
	}
	return nil
}

func dimsOf(s plan.Shape) string {
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Channels)
}
