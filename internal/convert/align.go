package convert

import (
	"math"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/expr"
)

const rad2deg = 180 / math.Pi

// Alignment synthesizes the frame transforms that realize an element's tilt
// and alignment errors: an SRotation/XYShift pair before the core and its
// exact inverse after, so entry and exit compose to the identity.
type Alignment struct {
	t    *Translator
	v    *ElemView
	tilt expr.Value
	dx   float64
	dy   float64
}

// newAlignment reads the element's own tilt (radians in the source, degrees
// on the target side), folds in an optional extra tilt from the conversion
// rule (e.g. the skew-quadrupole decomposition), and, when alignment errors
// are enabled, the error offsets and roll.
func newAlignment(t *Translator, v *ElemView, customTilt *expr.Value) (*Alignment, error) {
	a := &Alignment{t: t, v: v}

	tilt, err := v.Attr("tilt")
	if err != nil {
		return nil, err
	}
	if a.tilt, err = expr.Scale(t.sc, tilt, rad2deg); err != nil {
		return nil, err
	}
	if customTilt != nil {
		extra, err := expr.Scale(t.sc, *customTilt, rad2deg)
		if err != nil {
			return nil, err
		}
		if a.tilt, err = expr.Add(t.sc, a.tilt, extra); err != nil {
			return nil, err
		}
	}

	if t.opts.EnableAlignErrors && v.AlignErrors() != nil {
		ae := v.AlignErrors()
		a.dx = ae.Dx
		a.dy = ae.Dy
		if a.tilt, err = expr.Add(t.sc, a.tilt, expr.Lit(ae.Dpsi*rad2deg)); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Entry returns the transforms to place before the element core.
func (a *Alignment) Entry() []*Builder {
	var out []*Builder
	if a.tilt.Nonzero() {
		out = append(out, a.t.build(a.v, a.v.Name+"_tilt_entry", element.TagSRotation).
			Set("angle", a.tilt))
	}
	if a.dx != 0 || a.dy != 0 {
		out = append(out, a.t.build(a.v, a.v.Name+"_offset_entry", element.TagXYShift).
			Set("dx", expr.Lit(a.dx)).
			Set("dy", expr.Lit(a.dy)))
	}
	return out
}

// Exit returns the inverse transforms to place after the element core.
func (a *Alignment) Exit() ([]*Builder, error) {
	var out []*Builder
	if a.dx != 0 || a.dy != 0 {
		out = append(out, a.t.build(a.v, a.v.Name+"_offset_exit", element.TagXYShift).
			Set("dx", expr.Lit(-a.dx)).
			Set("dy", expr.Lit(-a.dy)))
	}
	if a.tilt.Nonzero() {
		neg, err := expr.Neg(a.t.sc, a.tilt)
		if err != nil {
			return nil, err
		}
		out = append(out, a.t.build(a.v, a.v.Name+"_tilt_exit", element.TagSRotation).
			Set("angle", neg))
	}
	return out, nil
}
