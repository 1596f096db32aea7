// Package codegen emits the conversion procedures the external tensor
// runtime needs around a compiled plan: a per-field decoder plus the batch
// assembly and disassembly pair. The runtime is Torch-flavored and 1-based,
// which is why every offset in the emitted source starts at 1.
package codegen

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/mkrawiec/fieldgraph/export"
	"github.com/mkrawiec/fieldgraph/pipeline"
)

const convertSrc = `-- Generated by fieldgraph {{.Version}}. Do not edit.

local M = {}
{{range .Fields}}
-- Decode one raw {{.Name}} record into its {{.Width}}x{{.Height}}x{{.Channels}} slot.
function M.decode{{title .Name}}ToTensor(sample, raw)
  local view = sample:narrow(1, {{.Start}}, {{.Size}}):view({{.Width}}, {{.Height}}, {{.Channels}})
  view:copy(raw)
  return view
end
{{end}}
-- Pack decoded samples into one batch tensor of row length {{.TotalSize}}.
function M.assembleBatch(samples)
  local batch = torch.Tensor(#samples, {{.TotalSize}})
  for i = 1, #samples do
{{- range .Fields}}
    batch[i]:narrow(1, {{.Start}}, {{.Size}}):copy(samples[i].{{.Name}})
{{- end}}
  end
  return batch
end

-- Split a batch back into per-sample field tensors.
function M.disassembleBatch(batch)
  local samples = {}
  for i = 1, batch:size(1) do
    samples[i] = {
{{- range .Fields}}
      {{.Name}} = batch[i]:narrow(1, {{.Start}}, {{.Size}}),
{{- end}}
    }
  end
  return samples
end

return M
`

var convertTmpl = template.Must(template.New("convert").
	Funcs(template.FuncMap{"title": title}).
	Parse(convertSrc))

type fieldData struct {
	Name     string
	Width    int
	Height   int
	Channels int
	Start    int
	Size     int
}

type templateData struct {
	Version   string
	TotalSize int
	Fields    []fieldData
}

// Emit writes the conversion module for a compiled plan. Output depends only
// on the plan's resolved shapes and placements, so equal plans emit equal
// source.
func Emit(w io.Writer, p *pipeline.Plan) error {
	data := templateData{
		Version:   export.ManifestVersion,
		TotalSize: p.TotalSize,
		Fields:    make([]fieldData, 0, len(p.Fields)),
	}
	for _, fp := range p.Fields {
		if len(fp.Shape.Dimensions) != 3 {
			return fmt.Errorf("field %q has rank %d, want 3", fp.Field.VariableName, len(fp.Shape.Dimensions))
		}
		placement := fp.Shape.Placement()
		data.Fields = append(data.Fields, fieldData{
			Name:     fp.Field.VariableName,
			Width:    fp.Shape.Dimensions[0].Size,
			Height:   fp.Shape.Dimensions[1].Size,
			Channels: fp.Shape.Dimensions[2].Size,
			Start:    placement.Start,
			Size:     placement.Size,
		})
	}
	return convertTmpl.Execute(w, data)
}

// title upper-cases the first byte. Variable names are ASCII identifiers, so
// byte indexing is safe here.
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
