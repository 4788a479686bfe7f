// Package element is the target-element catalogue of the lattice translation
// engine: simulation-ready typed tracking elements, the arena that backs
// their parameter storage, and the ordered named-element line they are
// inserted into. Element attributes are addressed by name through explicit
// per-type dispatch tables, never reflection, so the symbolic-variable
// manager can write updated values through a stable interface.
package element

import "fmt"

// Tag identifies an element type in the catalogue.
type Tag string

const (
	TagDrift                  Tag = "Drift"
	TagMarker                 Tag = "Marker"
	TagMultipole              Tag = "Multipole"
	TagBend                   Tag = "Bend"
	TagCombinedFunctionMagnet Tag = "CombinedFunctionMagnet"
	TagDipoleEdge             Tag = "DipoleEdge"
	TagQuadrupole             Tag = "Quadrupole"
	TagSextupole              Tag = "Sextupole"
	TagSolenoid               Tag = "Solenoid"
	TagCavity                 Tag = "Cavity"
	TagRFMultipole            Tag = "RFMultipole"
	TagWire                   Tag = "Wire"
	TagSRotation              Tag = "SRotation"
	TagXRotation              Tag = "XRotation"
	TagYRotation              Tag = "YRotation"
	TagXYShift                Tag = "XYShift"
	TagFirstOrderTaylorMap    Tag = "FirstOrderTaylorMap"
	TagNonLinearLens          Tag = "NonLinearLens"
	TagBeamBeam4D             Tag = "BeamBeam4D"
	TagInterpolatedProfile    Tag = "InterpolatedProfile"
	TagLimitRect              Tag = "LimitRect"
	TagLimitEllipse           Tag = "LimitEllipse"
	TagLimitRectEllipse       Tag = "LimitRectEllipse"
	TagLimitRacetrack         Tag = "LimitRacetrack"
	TagLimitPolygon           Tag = "LimitPolygon"
)

// Element is the uniform attribute surface of every tracking element. Scalar
// attributes are set and read by name; list attributes additionally support
// indexed writes so expression bindings can target single entries.
type Element interface {
	Tag() Tag
	SetAttr(name string, v float64) error
	SetAttrIndex(name string, i int, v float64) error
	SetAttrList(name string, vals []float64) error
	SetAttrStr(name, s string) error
	Attr(name string) (float64, error)
	AttrList(name string) ([]float64, error)
}

// attrRefs is the per-instance dispatch table mapping attribute names onto
// the element's own struct fields.
type attrRefs struct {
	scalars map[string]*float64
	vectors map[string]*[]float64
	strs    map[string]*string
}

// base carries the dispatch table and the owning arena; every concrete
// element embeds it.
type base struct {
	tag   Tag
	arena *Arena
	refs  attrRefs
}

// Tag reports the element's catalogue tag.
func (b *base) Tag() Tag { return b.tag }

// SetAttr writes a named scalar attribute.
func (b *base) SetAttr(name string, v float64) error {
	if p, ok := b.refs.scalars[name]; ok {
		*p = v
		return nil
	}
	return fmt.Errorf("element %s: no scalar attribute %q", b.tag, name)
}

// SetAttrIndex writes one entry of a named list attribute. The list must
// already have been sized by SetAttrList.
func (b *base) SetAttrIndex(name string, i int, v float64) error {
	p, ok := b.refs.vectors[name]
	if !ok {
		return fmt.Errorf("element %s: no list attribute %q", b.tag, name)
	}
	if i < 0 || i >= len(*p) {
		return fmt.Errorf("element %s: index %d out of range for %q (len %d)", b.tag, i, name, len(*p))
	}
	(*p)[i] = v
	return nil
}

// SetAttrList replaces a named list attribute with an arena-backed copy of
// vals.
func (b *base) SetAttrList(name string, vals []float64) error {
	p, ok := b.refs.vectors[name]
	if !ok {
		return fmt.Errorf("element %s: no list attribute %q", b.tag, name)
	}
	*p = b.arena.Copy(vals)
	return nil
}

// SetAttrStr writes a named string attribute.
func (b *base) SetAttrStr(name, s string) error {
	if p, ok := b.refs.strs[name]; ok {
		*p = s
		return nil
	}
	return fmt.Errorf("element %s: no string attribute %q", b.tag, name)
}

// Attr reads a named scalar attribute.
func (b *base) Attr(name string) (float64, error) {
	if p, ok := b.refs.scalars[name]; ok {
		return *p, nil
	}
	return 0, fmt.Errorf("element %s: no scalar attribute %q", b.tag, name)
}

// AttrList reads a named list attribute.
func (b *base) AttrList(name string) ([]float64, error) {
	if p, ok := b.refs.vectors[name]; ok {
		return *p, nil
	}
	return nil, fmt.Errorf("element %s: no list attribute %q", b.tag, name)
}
