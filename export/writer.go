package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mkrawiec/fieldgraph/faults"
)

// Format defines the manifest serialization format.
type Format int

const (
	FormatJSON Format = iota
	FormatBinary
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "JSON"
	case FormatBinary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// ParseFormat maps a user-supplied format name to its Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "binary":
		return FormatBinary, nil
	default:
		return 0, fmt.Errorf("unsupported manifest format: %q (want json or binary)", s)
	}
}

// Writer writes manifests in a fixed format.
type Writer struct {
	format Format
}

// NewWriter creates a writer for the specified format.
func NewWriter(format Format) *Writer {
	return &Writer{format: format}
}

// Write encodes the manifest to out.
func (w *Writer) Write(out io.Writer, m *Manifest) error {
	switch w.format {
	case FormatJSON:
		return writeJSON(out, m)
	case FormatBinary:
		return writeBinary(out, m)
	default:
		return fmt.Errorf("unsupported manifest format: %s", w.format)
	}
}

// Save writes the manifest to a file.
func (w *Writer) Save(path string, m *Manifest) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest file: %w", err)
	}
	defer file.Close()
	return w.Write(file, m)
}

// Read decodes a manifest from r.
func (w *Writer) Read(r io.Reader) (*Manifest, error) {
	switch w.format {
	case FormatJSON:
		return readJSON(r)
	case FormatBinary:
		return readBinary(r)
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", w.format)
	}
}

// Load reads a manifest from a file.
func (w *Writer) Load(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest file: %w", err)
	}
	defer file.Close()
	return w.Read(file)
}

func writeJSON(out io.Writer, m *Manifest) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return faults.Wrap(faults.ErrCodeEncode, err, "encode manifest as JSON")
	}
	return nil
}

func readJSON(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, faults.Wrap(faults.ErrCodeEncode, err, "decode manifest from JSON")
	}
	return &m, nil
}

// writeBinary encodes the manifest tree as a protobuf Struct. Marshaling is
// deterministic so equal manifests produce equal bytes.
func writeBinary(out io.Writer, m *Manifest) error {
	tree, err := m.tree()
	if err != nil {
		return err
	}
	s, err := structpb.NewStruct(tree)
	if err != nil {
		return faults.Wrap(faults.ErrCodeEncode, err, "encode manifest as protobuf struct")
	}
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return faults.Wrap(faults.ErrCodeEncode, err, "marshal manifest")
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func readBinary(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, faults.Wrap(faults.ErrCodeEncode, err, "unmarshal manifest")
	}
	tree, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, faults.Wrap(faults.ErrCodeEncode, err, "decode manifest tree")
	}
	var m Manifest
	if err := json.Unmarshal(tree, &m); err != nil {
		return nil, faults.Wrap(faults.ErrCodeEncode, err, "decode manifest tree")
	}
	return &m, nil
}
