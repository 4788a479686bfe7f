package convert

import (
	"math"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/expr"
)

// Aperture synthesizes an element's aperture chain: an optional tilted and
// offset frame wrapping the limit element(s) for the declared aperture shape.
type Aperture struct {
	t    *Translator
	v    *ElemView
	tilt expr.Value
	dx   expr.Value
	dy   expr.Value
}

func newAperture(t *Translator, v *ElemView) (*Aperture, error) {
	a := &Aperture{t: t, v: v}

	tilt, err := v.Attr("aper_tilt")
	if err != nil {
		return nil, err
	}
	if a.tilt, err = expr.Scale(t.sc, tilt, rad2deg); err != nil {
		return nil, err
	}

	offset, err := v.Attr("aper_offset")
	if err != nil {
		return nil, err
	}
	a.dx, a.dy = expr.Lit(0), expr.Lit(0)
	items := offset.Items()
	if !offset.IsList() {
		a.dx = offset
	} else if len(items) > 0 {
		a.dx = items[0]
		if len(items) > 1 {
			a.dy = items[1]
		}
	}
	if t.opts.EnableAlignErrors && v.AlignErrors() != nil {
		if a.dx, err = expr.Add(t.sc, a.dx, expr.Lit(v.AlignErrors().Arex)); err != nil {
			return nil, err
		}
		if a.dy, err = expr.Add(t.sc, a.dy, expr.Lit(v.AlignErrors().Arey)); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Entry returns the frame transforms placed before the limit elements.
func (a *Aperture) Entry() []*Builder {
	var out []*Builder
	if a.tilt.Nonzero() {
		out = append(out, a.t.build(a.v, a.v.Name+"_aper_tilt_entry", element.TagSRotation).
			Set("angle", a.tilt))
	}
	if a.dx.Nonzero() || a.dy.Nonzero() {
		out = append(out, a.t.build(a.v, a.v.Name+"_aper_offset_entry", element.TagXYShift).
			Set("dx", a.dx).
			Set("dy", a.dy))
	}
	return out
}

// Exit returns the inverse frame transforms placed after the limit elements.
func (a *Aperture) Exit() ([]*Builder, error) {
	var out []*Builder
	if a.dx.Nonzero() || a.dy.Nonzero() {
		ndx, err := expr.Neg(a.t.sc, a.dx)
		if err != nil {
			return nil, err
		}
		ndy, err := expr.Neg(a.t.sc, a.dy)
		if err != nil {
			return nil, err
		}
		out = append(out, a.t.build(a.v, a.v.Name+"_aper_offset_exit", element.TagXYShift).
			Set("dx", ndx).
			Set("dy", ndy))
	}
	if a.tilt.Nonzero() {
		neg, err := expr.Neg(a.t.sc, a.tilt)
		if err != nil {
			return nil, err
		}
		out = append(out, a.t.build(a.v, a.v.Name+"_aper_tilt_exit", element.TagSRotation).
			Set("angle", neg))
	}
	return out, nil
}

// Limits returns the limit element(s) for the view's aperture: a direct
// polygon when explicit vertex lists are given, else the converter registered
// for the declared shape keyword.
func (a *Aperture) Limits() ([]*Builder, error) {
	vx, err := a.v.Attr("aper_vx")
	if err != nil {
		return nil, err
	}
	if len(vx.Items()) > 2 {
		vy, err := a.v.Attr("aper_vy")
		if err != nil {
			return nil, err
		}
		return []*Builder{
			a.t.build(a.v, a.v.Name+"_aper", element.TagLimitPolygon).
				Set("x_vertices", vx).
				Set("y_vertices", vy),
		}, nil
	}

	shape, err := a.v.StrAttr("apertype", "circle")
	if err != nil {
		return nil, err
	}
	conv, ok := a.t.shapes[shape]
	if !ok {
		return nil, unsupportedf("aperture type %q on element %q", shape, a.v.Name)
	}
	return conv(a.t, a.v)
}

type shapeFunc func(*Translator, *ElemView) ([]*Builder, error)

func shapeConverters() map[string]shapeFunc {
	return map[string]shapeFunc{
		"rectangle":   convertRectangle,
		"racetrack":   convertRacetrack,
		"ellipse":     convertEllipse,
		"circle":      convertCircle,
		"rectellipse": convertRectEllipse,
		"octagon":     convertOctagon,
		"polygon":     convertPolygon,
	}
}

// aperParams returns the first n aperture parameters, zero-padded.
func aperParams(v *ElemView, n int) ([]expr.Value, error) {
	ap, err := v.Attr("aperture")
	if err != nil {
		return nil, err
	}
	items := ap.Items()
	if !ap.IsList() {
		items = []expr.Value{ap}
	}
	out := make([]expr.Value, n)
	for i := range out {
		if i < len(items) {
			out[i] = items[i]
		} else {
			out[i] = expr.Lit(0)
		}
	}
	return out, nil
}

func convertRectangle(t *Translator, v *ElemView) ([]*Builder, error) {
	p, err := aperParams(v, 2)
	if err != nil {
		return nil, err
	}
	h, ve := p[0], p[1]
	nh, err := expr.Neg(t.sc, h)
	if err != nil {
		return nil, err
	}
	nv, err := expr.Neg(t.sc, ve)
	if err != nil {
		return nil, err
	}
	return []*Builder{
		t.build(v, v.Name+"_aper", element.TagLimitRect).
			Set("min_x", nh).Set("max_x", h).
			Set("min_y", nv).Set("max_y", ve),
	}, nil
}

func convertRacetrack(t *Translator, v *ElemView) ([]*Builder, error) {
	p, err := aperParams(v, 4)
	if err != nil {
		return nil, err
	}
	h, ve, ra, rb := p[0], p[1], p[2], p[3]
	nh, err := expr.Neg(t.sc, h)
	if err != nil {
		return nil, err
	}
	nv, err := expr.Neg(t.sc, ve)
	if err != nil {
		return nil, err
	}
	return []*Builder{
		t.build(v, v.Name+"_aper", element.TagLimitRacetrack).
			Set("min_x", nh).Set("max_x", h).
			Set("min_y", nv).Set("max_y", ve).
			Set("a", ra).Set("b", rb),
	}, nil
}

func convertEllipse(t *Translator, v *ElemView) ([]*Builder, error) {
	p, err := aperParams(v, 2)
	if err != nil {
		return nil, err
	}
	return []*Builder{
		t.build(v, v.Name+"_aper", element.TagLimitEllipse).
			Set("a", p[0]).Set("b", p[1]),
	}, nil
}

func convertCircle(t *Translator, v *ElemView) ([]*Builder, error) {
	p, err := aperParams(v, 1)
	if err != nil {
		return nil, err
	}
	return []*Builder{
		t.build(v, v.Name+"_aper", element.TagLimitEllipse).
			Set("a", p[0]).Set("b", p[0]),
	}, nil
}

func convertRectEllipse(t *Translator, v *ElemView) ([]*Builder, error) {
	p, err := aperParams(v, 4)
	if err != nil {
		return nil, err
	}
	return []*Builder{
		t.build(v, v.Name+"_aper", element.TagLimitRectEllipse).
			Set("max_x", p[0]).Set("max_y", p[1]).
			Set("a", p[2]).Set("b", p[3]),
	}, nil
}

// convertOctagon builds an eight-point polygon from two half-apertures and
// two corner angles. The construction is numeric; octagon parameters cannot
// stay symbolic.
func convertOctagon(t *Translator, v *ElemView) ([]*Builder, error) {
	p, err := aperParams(v, 4)
	if err != nil {
		return nil, err
	}
	var a [4]float64
	for i := range a {
		if a[i], err = p[i].Float(t.sc); err != nil {
			return nil, err
		}
	}
	v1x, v1y := a[0], a[0]*math.Tan(a[2])
	v2x, v2y := a[1]/math.Tan(a[3]), a[1]
	xs := []float64{v1x, v2x, -v2x, -v1x, -v1x, -v2x, v2x, v1x}
	ys := []float64{v1y, v2y, v2y, v1y, -v1y, -v2y, -v2y, -v1y}
	return []*Builder{
		t.build(v, v.Name+"_aper", element.TagLimitPolygon).
			Set("x_vertices", litList(xs)).
			Set("y_vertices", litList(ys)),
	}, nil
}

// convertPolygon reads interleaved vertex lists: x coordinates from the even
// slots of aper_vx, y coordinates from the odd slots of aper_vy.
func convertPolygon(t *Translator, v *ElemView) ([]*Builder, error) {
	vx, err := v.Attr("aper_vx")
	if err != nil {
		return nil, err
	}
	vy, err := v.Attr("aper_vy")
	if err != nil {
		return nil, err
	}
	return []*Builder{
		t.build(v, v.Name+"_aper", element.TagLimitPolygon).
			Set("x_vertices", expr.ListOf(stride(vx.Items(), 0)...)).
			Set("y_vertices", expr.ListOf(stride(vy.Items(), 1)...)),
	}, nil
}

func stride(items []expr.Value, start int) []expr.Value {
	var out []expr.Value
	for i := start; i < len(items); i += 2 {
		out = append(out, items[i])
	}
	return out
}

func litList(vals []float64) expr.Value {
	items := make([]expr.Value, len(vals))
	for i, f := range vals {
		items[i] = expr.Lit(f)
	}
	return expr.ListOf(items...)
}
