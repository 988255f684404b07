package adapter

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	m "github.com/mouse-blink/loom/internal/model"
)

// DefaultManifestName is the manifest looked up in the working directory when
// no --config flag is given.
const DefaultManifestName = "loom.hcl"

// Manifest is the decoded run manifest. All fields are optional; command-line
// flags override what the file sets.
type Manifest struct {
	Sources []string
	Output  string
	Defines []m.Define
}

type manifestRoot struct {
	Sources []string        `hcl:"sources,optional"`
	Output  string          `hcl:"output,optional"`
	Defines []*definesBlock `hcl:"defines,block"`
}

// definesBlock keeps its body undecoded so arbitrary attribute names can be
// read out as defines.
type definesBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// LoadManifest parses and decodes an HCL run manifest.
func LoadManifest(path string) (*Manifest, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}

	var root manifestRoot

	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}

	manifest := &Manifest{Sources: root.Sources, Output: root.Output}

	for _, block := range root.Defines {
		defines, err := decodeDefines(block.Body)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}

		manifest.Defines = append(manifest.Defines, defines...)
	}

	sortDefines(manifest.Defines)

	return manifest, nil
}

func decodeDefines(body hcl.Body) ([]m.Define, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("defines block: %w", diags)
	}

	defines := make([]m.Define, 0, len(attrs))

	for name, attr := range attrs {
		value, valDiags := attr.Expr.Value(nil)
		if valDiags.HasErrors() {
			return nil, fmt.Errorf("define %s: %w", name, valDiags)
		}

		native, err := ctyToNative(value)
		if err != nil {
			return nil, fmt.Errorf("define %s: %w", name, err)
		}

		defines = append(defines, m.Define{
			Name:   name,
			Value:  native,
			Origin: spanFromRange(attr.Range),
		})
	}

	sortDefines(defines)

	return defines, nil
}

// ctyToNative recursively converts a cty value to its most natural Go
// counterpart. Whole numbers come back as int64 so scripted bodies can use
// them where an integer is required.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		f := v.AsBigFloat()

		if i, acc := f.Int64(); acc == big.Exact {
			return i, nil
		}

		d, _ := f.Float64()

		return d, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0)

		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()

			native, err := ctyToNative(val)
			if err != nil {
				return nil, err
			}

			slice = append(slice, native)
		}

		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)

		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()

			native, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", keyStr, err)
			}

			goMap[keyStr] = native
		}

		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}

// ParseDefineFlag turns one --define NAME=VALUE argument into a define.
// Values that read as integer, float, or bool literals take those types;
// everything else stays a string.
func ParseDefineFlag(arg string) (m.Define, error) {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return m.Define{}, fmt.Errorf("define %q must have the form NAME=VALUE", arg)
	}

	return m.Define{
		Name:   name,
		Value:  literalValue(raw),
		Origin: m.Span{Source: "(command line)"},
	}, nil
}

func literalValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}

	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}

	return raw
}

// MergeDefines layers flag defines over manifest defines. A flag define wins
// over a manifest define of the same name.
func MergeDefines(manifest, flags []m.Define) []m.Define {
	byName := make(map[string]m.Define, len(manifest)+len(flags))

	for _, d := range manifest {
		byName[d.Name] = d
	}

	for _, d := range flags {
		byName[d.Name] = d
	}

	merged := make([]m.Define, 0, len(byName))
	for _, d := range byName {
		merged = append(merged, d)
	}

	sortDefines(merged)

	return merged
}

func sortDefines(defines []m.Define) {
	sort.Slice(defines, func(i, j int) bool { return defines[i].Name < defines[j].Name })
}

func spanFromRange(r hcl.Range) m.Span {
	return m.Span{Source: m.Path(r.Filename), Start: r.Start.Line, End: r.End.Line}
}
