package convert

import (
	"strings"

	"github.com/vk/latticego/internal/expr"
	"github.com/vk/latticego/internal/source"
)

// ElemView adapts one source record for conversion. Attribute reads go
// through the expression facade: depending on the linked flag a parameter
// that references variables either stays symbolic or is snapshot-evaluated.
// Reads are cached so that merge operations can mutate the view in place.
type ElemView struct {
	Name string

	rec    *source.Record
	seq    *source.Sequence
	sc     *expr.Scope
	linked bool

	fieldErrors *source.FieldErrors
	alignErrors *source.AlignErrors
	phaseErrors *source.PhaseErrors

	cache map[string]expr.Value
}

// NewView wraps a record. It fails fast on misalignment attributes carried by
// anything that is not a translation, since those cannot be represented on
// the target side.
func NewView(rec *source.Record, seq *source.Sequence, sc *expr.Scope, linked bool, namePrefix string) (*ElemView, error) {
	v := &ElemView{
		Name:        namePrefix + rec.Name,
		rec:         rec,
		seq:         seq,
		sc:          sc,
		linked:      linked,
		fieldErrors: rec.FieldErrors.Clone(),
		alignErrors: rec.AlignErrors,
		phaseErrors: rec.PhaseErrors,
		cache:       make(map[string]expr.Value),
	}
	if v.Type() != "translation" {
		for _, attr := range []string{"dphi", "dtheta", "dpsi", "dx", "dy", "ds"} {
			av, err := v.Attr(attr)
			if err != nil {
				return nil, err
			}
			if av.Nonzero() {
				return nil, unsupportedf(
					"element %q of type %s carries misalignment attribute %q",
					v.Name, strings.Join(v.TypeChain(), "/"), attr)
			}
		}
	}
	return v, nil
}

// Type returns the canonical type used for conversion dispatch.
func (v *ElemView) Type() string { return v.rec.Type() }

// TypeChain returns the declared type ancestry, most specific first.
func (v *ElemView) TypeChain() []string { return v.rec.TypeChain() }

// Has reports whether the parameter was set in the source description.
func (v *ElemView) Has(name string) bool {
	if _, ok := v.cache[name]; ok {
		return true
	}
	_, ok := v.rec.Param(name)
	return ok
}

// Attr reads a parameter as an expression facade value. Parameters that were
// never set read as literal zero.
func (v *ElemView) Attr(name string) (expr.Value, error) {
	if cached, ok := v.cache[name]; ok {
		return cached, nil
	}
	e, ok := v.rec.Param(name)
	if !ok {
		return expr.Lit(0), nil
	}
	val, err := expr.FromExpression(e, v.rec.Src(), v.sc, v.linked)
	if err != nil {
		return expr.Value{}, err
	}
	v.cache[name] = val
	return val, nil
}

// StrAttr reads a string parameter, falling back to def when unset.
func (v *ElemView) StrAttr(name, def string) (string, error) {
	val, err := v.Attr(name)
	if err != nil {
		return "", err
	}
	if val.Kind() != expr.KindString {
		return def, nil
	}
	return val.StrVal(), nil
}

// SetAttr overrides a parameter in the view's cache.
func (v *ElemView) SetAttr(name string, val expr.Value) {
	v.cache[name] = val
}

// FieldErrors returns the record's multipole field error overlay, if any.
func (v *ElemView) FieldErrors() *source.FieldErrors { return v.fieldErrors }

// AlignErrors returns the record's alignment error overlay, if any.
func (v *ElemView) AlignErrors() *source.AlignErrors { return v.alignErrors }

// PhaseErrors returns the record's RF phase error overlay, if any.
func (v *ElemView) PhaseErrors() *source.PhaseErrors { return v.phaseErrors }

// HasAperture reports whether the record carries a non-trivial aperture: a
// nonzero first aperture parameter, more than one aperture parameter, or a
// polygon vertex list with at least three points.
func (v *ElemView) HasAperture() (bool, error) {
	ap, err := v.Attr("aperture")
	if err != nil {
		return false, err
	}
	if items := ap.Items(); len(items) > 1 || (len(items) == 1 && items[0].Nonzero()) {
		return true, nil
	}
	if !ap.IsList() && ap.Nonzero() {
		return true, nil
	}
	vx, err := v.Attr("aper_vx")
	if err != nil {
		return false, err
	}
	return len(vx.Items()) > 2, nil
}

// IsEmptyMarker reports whether the record is a plain marker with no
// aperture, the only kind the skip-markers policy may drop.
func (v *ElemView) IsEmptyMarker() (bool, error) {
	if v.Type() != "marker" {
		return false, nil
	}
	has, err := v.HasAperture()
	if err != nil {
		return false, err
	}
	return !has, nil
}

// AddLength folds another record's length into this view, used by the
// drift-merging policy. Symbolic lengths stay symbolic.
func (v *ElemView) AddLength(other *ElemView) error {
	a, err := v.Attr("l")
	if err != nil {
		return err
	}
	b, err := other.Attr("l")
	if err != nil {
		return err
	}
	sum, err := expr.Add(v.sc, a, b)
	if err != nil {
		return err
	}
	v.SetAttr("l", sum)
	return nil
}

// sameAperture reports whether two views have identical aperture settings,
// the precondition for multipole merging.
func (v *ElemView) sameAperture(other *ElemView) (bool, error) {
	for _, attr := range []string{"aperture", "aper_offset", "aper_tilt", "aper_vx", "aper_vy", "apertype"} {
		a, err := v.Attr(attr)
		if err != nil {
			return false, err
		}
		b, err := other.Attr(attr)
		if err != nil {
			return false, err
		}
		if !a.Equal(b) {
			return false, nil
		}
	}
	return true, nil
}

func sameAlignErrors(a, b *source.AlignErrors) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// MergeMultipole attempts to fold another thin multipole into this one.
// Merging requires identical aperture, alignment errors, tilt and angle; on
// success the strength arrays and field errors are accumulated elementwise
// (zero-padded) and the names joined with an underscore. On mismatch the view
// is left untouched and false is returned.
func (v *ElemView) MergeMultipole(other *ElemView) (bool, error) {
	same, err := v.sameAperture(other)
	if err != nil {
		return false, err
	}
	if !same || !sameAlignErrors(v.alignErrors, other.alignErrors) {
		return false, nil
	}
	for _, attr := range []string{"tilt", "angle"} {
		a, err := v.Attr(attr)
		if err != nil {
			return false, err
		}
		b, err := other.Attr(attr)
		if err != nil {
			return false, err
		}
		if !a.Equal(b) {
			return false, nil
		}
	}

	for _, attr := range []string{"knl", "ksl"} {
		a, err := v.Attr(attr)
		if err != nil {
			return false, err
		}
		b, err := other.Attr(attr)
		if err != nil {
			return false, err
		}
		n := len(a.Items())
		if len(b.Items()) > n {
			n = len(b.Items())
		}
		merged, err := expr.AddLists(v.sc, a.Items(), b.Items(), n)
		if err != nil {
			return false, err
		}
		v.SetAttr(attr, expr.ListOf(merged...))
	}

	if v.fieldErrors != nil && other.fieldErrors != nil {
		v.fieldErrors.Dkn = addFloats(v.fieldErrors.Dkn, other.fieldErrors.Dkn)
		v.fieldErrors.Dks = addFloats(v.fieldErrors.Dks, other.fieldErrors.Dks)
	}
	v.Name = v.Name + "_" + other.Name
	return true, nil
}

func addFloats(a, b []float64) []float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]float64, n)
	for i := range out {
		if i < len(a) {
			out[i] += a[i]
		}
		if i < len(b) {
			out[i] += b[i]
		}
	}
	return out
}
