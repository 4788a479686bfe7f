package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/latticego/internal/ctxlog"
	"github.com/vk/latticego/internal/expr"
)

// Loader reads lattice description files (.hcl) into Sequence models.
type Loader struct{}

// NewLoader creates a new lattice description loader.
func NewLoader() *Loader { return &Loader{} }

var latticeFileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "lattice", LabelNames: []string{"name"}},
	},
}

var latticeBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "length"},
		{Name: "rbarc"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "beam"},
		{Type: "variables"},
		{Type: "element", LabelNames: []string{"type", "name"}},
	},
}

var beamSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "particle"},
		{Name: "beta"},
		{Name: "charge"},
		{Name: "pc"},
	},
}

var elementBlockSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "field_errors"},
		{Type: "align_errors"},
		{Type: "phase_errors"},
	},
}

var fieldErrorsSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "dkn"}, {Name: "dks"}},
}

var phaseErrorsSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "dpn"}, {Name: "dps"}},
}

var alignErrorsSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "dx"}, {Name: "dy"}, {Name: "ds"},
		{Name: "dphi"}, {Name: "dtheta"}, {Name: "dpsi"},
		{Name: "arex"}, {Name: "arey"},
	},
}

// Load walks the given paths for .hcl files and returns the lattice named
// name. With an empty name the description must define exactly one lattice.
func (l *Loader) Load(ctx context.Context, name string, paths ...string) (*Sequence, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findLatticeFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered lattice files.", "count", len(files))

	parser := hclparse.NewParser()
	type foundLattice struct {
		block *hcl.Block
		src   []byte
	}
	var found []foundLattice

	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("source: reading %s: %w", file, err)
		}
		hclFile, diags := parser.ParseHCL(src, file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("source: parsing %s: %w", file, diags)
		}
		content, diags := hclFile.Body.Content(latticeFileSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("source: decoding %s: %w", file, diags)
		}
		for _, blk := range content.Blocks {
			found = append(found, foundLattice{block: blk, src: src})
		}
	}

	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("source: no lattice block found in %d file(s)", len(files))
	case name == "" && len(found) > 1:
		return nil, fmt.Errorf("source: %d lattices defined, a lattice name is required", len(found))
	}

	for _, f := range found {
		if name == "" || f.block.Labels[0] == name {
			seq, err := buildSequence(f.block, f.src)
			if err != nil {
				return nil, err
			}
			logger.Debug("Lattice loaded.", "name", seq.Name, "records", len(seq.Records), "variables", len(seq.Variables))
			return seq, nil
		}
	}
	return nil, fmt.Errorf("source: lattice %q not found", name)
}

// ParseSequence decodes a single in-memory lattice description. It expects
// exactly one lattice block and is the entry point used by tests.
func ParseSequence(filename string, src []byte) (*Sequence, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("source: parsing %s: %w", filename, diags)
	}
	content, diags := hclFile.Body.Content(latticeFileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("source: decoding %s: %w", filename, diags)
	}
	if len(content.Blocks) != 1 {
		return nil, fmt.Errorf("source: expected one lattice block in %s, got %d", filename, len(content.Blocks))
	}
	return buildSequence(content.Blocks[0], src)
}

func buildSequence(block *hcl.Block, src []byte) (*Sequence, error) {
	seq := &Sequence{
		Name: block.Labels[0],
		Beam: Beam{Beta: 1, Charge: 1},
	}

	content, diags := block.Body.Content(latticeBodySchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("source: lattice %q: %w", seq.Name, diags)
	}

	// The variable table comes first: sequence-level scalars may reference it.
	for _, blk := range content.Blocks {
		if blk.Type != "variables" {
			continue
		}
		defs, err := decodeVariables(blk.Body)
		if err != nil {
			return nil, fmt.Errorf("source: lattice %q: %w", seq.Name, err)
		}
		seq.Variables = append(seq.Variables, defs...)
	}

	scope := expr.NewScope()
	for _, d := range seq.Variables {
		v, err := scope.Eval(d.Expr)
		if err != nil {
			return nil, fmt.Errorf("source: lattice %q: variable %q: %w", seq.Name, d.Name, err)
		}
		scope.SetVar(d.Name, v)
	}

	if attr, ok := content.Attributes["length"]; ok {
		v, err := scope.Eval(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("source: lattice %q: length: %w", seq.Name, err)
		}
		seq.Length = v
	}
	if attr, ok := content.Attributes["rbarc"]; ok {
		cv, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("source: lattice %q: rbarc: %w", seq.Name, diags)
		}
		seq.RBarc = cv.True()
	}

	for _, blk := range content.Blocks {
		switch blk.Type {
		case "beam":
			if err := decodeBeam(blk.Body, scope, &seq.Beam); err != nil {
				return nil, fmt.Errorf("source: lattice %q: beam: %w", seq.Name, err)
			}
		case "element":
			rec, err := decodeElement(blk, src, scope)
			if err != nil {
				return nil, fmt.Errorf("source: lattice %q: %w", seq.Name, err)
			}
			seq.Records = append(seq.Records, rec)
		}
	}
	return seq, nil
}

// decodeVariables returns the variable definitions in file order.
func decodeVariables(body hcl.Body) ([]VarDef, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("variables: %w", diags)
	}
	defs := make([]VarDef, 0, len(attrs))
	for _, attr := range attrs {
		defs = append(defs, VarDef{Name: attr.Name, Expr: attr.Expr})
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Expr.Range().Start.Byte < defs[j].Expr.Range().Start.Byte
	})
	return defs, nil
}

func decodeBeam(body hcl.Body, scope *expr.Scope, beam *Beam) error {
	content, diags := body.Content(beamSchema)
	if diags.HasErrors() {
		return fmt.Errorf("%w", diags)
	}
	if attr, ok := content.Attributes["particle"]; ok {
		cv, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("particle: %w", diags)
		}
		beam.Particle = cv.AsString()
	}
	for name, dst := range map[string]*float64{
		"beta": &beam.Beta, "charge": &beam.Charge, "pc": &beam.PC,
	} {
		if attr, ok := content.Attributes[name]; ok {
			v, err := scope.Eval(attr.Expr)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = v
		}
	}
	return nil
}

func decodeElement(blk *hcl.Block, src []byte, scope *expr.Scope) (*Record, error) {
	rec := &Record{
		DeclaredType: blk.Labels[0],
		Name:         blk.Labels[1],
		params:       make(map[string]hcl.Expression),
		src:          src,
	}

	content, remain, diags := blk.Body.PartialContent(elementBlockSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("element %q: %w", rec.Name, diags)
	}
	attrs, diags := remain.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("element %q: %w", rec.Name, diags)
	}
	for _, attr := range attrs {
		if attr.Name == "base_type" {
			cv, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("element %q: base_type: %w", rec.Name, diags)
			}
			rec.BaseType = cv.AsString()
			continue
		}
		rec.params[attr.Name] = attr.Expr
	}

	for _, sub := range content.Blocks {
		var err error
		switch sub.Type {
		case "field_errors":
			rec.FieldErrors, err = decodeFieldErrors(sub.Body, src, scope)
		case "align_errors":
			rec.AlignErrors, err = decodeAlignErrors(sub.Body, scope)
		case "phase_errors":
			rec.PhaseErrors, err = decodePhaseErrors(sub.Body, src, scope)
		}
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", rec.Name, err)
		}
	}
	return rec, nil
}

func decodeFieldErrors(body hcl.Body, src []byte, scope *expr.Scope) (*FieldErrors, error) {
	content, diags := body.Content(fieldErrorsSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("field_errors: %w", diags)
	}
	out := &FieldErrors{}
	var err error
	if attr, ok := content.Attributes["dkn"]; ok {
		if out.Dkn, err = evalFloatList(attr.Expr, src, scope); err != nil {
			return nil, fmt.Errorf("field_errors dkn: %w", err)
		}
	}
	if attr, ok := content.Attributes["dks"]; ok {
		if out.Dks, err = evalFloatList(attr.Expr, src, scope); err != nil {
			return nil, fmt.Errorf("field_errors dks: %w", err)
		}
	}
	return out, nil
}

func decodePhaseErrors(body hcl.Body, src []byte, scope *expr.Scope) (*PhaseErrors, error) {
	content, diags := body.Content(phaseErrorsSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("phase_errors: %w", diags)
	}
	out := &PhaseErrors{}
	var err error
	if attr, ok := content.Attributes["dpn"]; ok {
		if out.Dpn, err = evalFloatList(attr.Expr, src, scope); err != nil {
			return nil, fmt.Errorf("phase_errors dpn: %w", err)
		}
	}
	if attr, ok := content.Attributes["dps"]; ok {
		if out.Dps, err = evalFloatList(attr.Expr, src, scope); err != nil {
			return nil, fmt.Errorf("phase_errors dps: %w", err)
		}
	}
	return out, nil
}

func decodeAlignErrors(body hcl.Body, scope *expr.Scope) (*AlignErrors, error) {
	content, diags := body.Content(alignErrorsSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("align_errors: %w", diags)
	}
	out := &AlignErrors{}
	for name, dst := range map[string]*float64{
		"dx": &out.Dx, "dy": &out.Dy, "ds": &out.Ds,
		"dphi": &out.Dphi, "dtheta": &out.Dtheta, "dpsi": &out.Dpsi,
		"arex": &out.Arex, "arey": &out.Arey,
	} {
		if attr, ok := content.Attributes[name]; ok {
			v, err := scope.Eval(attr.Expr)
			if err != nil {
				return nil, fmt.Errorf("align_errors %s: %w", name, err)
			}
			*dst = v
		}
	}
	return out, nil
}

// evalFloatList evaluates a list-valued attribute to plain numbers. Error
// overlays are numeric by construction; they never stay symbolic.
func evalFloatList(e hcl.Expression, src []byte, scope *expr.Scope) ([]float64, error) {
	v, err := expr.FromExpression(e, src, scope, false)
	if err != nil {
		return nil, err
	}
	items := v.Items()
	out := make([]float64, len(items))
	for i, it := range items {
		if out[i], err = it.Float(scope); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// findLatticeFiles walks all given paths and returns the .hcl files found,
// deduplicated, in walk order.
func findLatticeFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("source: accessing %s: %w", path, err)
		}
		if info.IsDir() {
			err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && filepath.Ext(p) == ".hcl" {
					if _, wasSeen := seen[p]; !wasSeen {
						all = append(all, p)
						seen[p] = struct{}{}
					}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			if _, wasSeen := seen[path]; !wasSeen {
				all = append(all, path)
				seen[path] = struct{}{}
			}
		}
	}
	return all, nil
}
