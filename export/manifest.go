// Package export assembles a compiled plan into a manifest the hosting
// pipeline consumes, and writes it as JSON or as a protobuf-encoded binary.
// Both formats encode the identical tree, and equal plans always produce
// byte-identical output.
package export

import (
	"encoding/json"

	"github.com/mkrawiec/fieldgraph/faults"
	"github.com/mkrawiec/fieldgraph/graph"
	"github.com/mkrawiec/fieldgraph/pipeline"
)

// ManifestVersion tags the manifest layout.
const ManifestVersion = "1.0.0"

// Manifest is the complete description of a compiled pipeline: the sample
// tensor reservation plus, per field, its layout and its chain of graph
// nodes. The manifest deliberately carries no timestamps so equal plans
// export to equal bytes.
type Manifest struct {
	Version   string          `json:"version"`
	Generator string          `json:"generator"`
	TotalSize int             `json:"total_size"`
	Fields    []FieldManifest `json:"fields"`
}

// FieldManifest describes one image field.
type FieldManifest struct {
	Name       string         `json:"name"`
	Dimensions []DimManifest  `json:"dimensions"`
	Placement  RangeManifest  `json:"placement"`
	Features   int            `json:"features"`
	Nodes      []NodeManifest `json:"nodes"`
}

// DimManifest is one labeled axis.
type DimManifest struct {
	Size  int    `json:"size"`
	Label string `json:"label"`
}

// RangeManifest locates a field in the flat sample tensor, 1-based.
type RangeManifest struct {
	Start int `json:"start"`
	Size  int `json:"size"`
}

// NodeManifest is one graph node in splice order.
type NodeManifest struct {
	Name   string         `json:"name"`
	Op     string         `json:"op"`
	Attrs  map[string]any `json:"attrs,omitempty"`
	Inputs []string       `json:"inputs,omitempty"`
}

// NewManifest builds the manifest for a compiled plan.
func NewManifest(p *pipeline.Plan) (*Manifest, error) {
	m := &Manifest{
		Version:   ManifestVersion,
		Generator: "fieldgraph",
		TotalSize: p.TotalSize,
		Fields:    make([]FieldManifest, 0, len(p.Fields)),
	}

	for _, fp := range p.Fields {
		fm := FieldManifest{
			Name:      fp.Field.VariableName,
			Placement: RangeManifest(fp.Shape.Placement()),
			Features:  fp.Build.OutputShape.TotalSize(),
		}
		for _, d := range fp.Shape.Dimensions {
			fm.Dimensions = append(fm.Dimensions, DimManifest(d))
		}

		nodes := make([]*graph.Node, 0, len(fp.Build.Chain)+2)
		nodes = append(nodes, fp.Input)
		nodes = append(nodes, fp.Build.Chain...)
		nodes = append(nodes, fp.Group)
		for _, n := range nodes {
			fm.Nodes = append(fm.Nodes, NodeManifest{
				Name:   n.Name,
				Op:     n.Op.String(),
				Attrs:  n.Attrs,
				Inputs: n.InputNames(),
			})
		}

		m.Fields = append(m.Fields, fm)
	}

	return m.normalized()
}

// normalized passes the manifest through JSON once. Attribute values then
// hold the canonical JSON types in every format, so a written manifest reads
// back equal to the one that was written.
func (m *Manifest) normalized() (*Manifest, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, faults.Wrap(faults.ErrCodeEncode, err, "normalize manifest")
	}
	var out Manifest
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, faults.Wrap(faults.ErrCodeEncode, err, "normalize manifest")
	}
	return &out, nil
}

// tree returns the manifest as a plain key-value tree for encoders that do
// not work from struct tags.
func (m *Manifest) tree() (map[string]any, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, faults.Wrap(faults.ErrCodeEncode, err, "flatten manifest")
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, faults.Wrap(faults.ErrCodeEncode, err, "flatten manifest")
	}
	return tree, nil
}
