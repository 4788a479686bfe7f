package convert

import (
	"fmt"
	"math"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/expr"
)

const (
	clight = 299792458

	// Number of multipole kicks applied inside a bend that carries a
	// sextupole component.
	defaultBendMultKicks = 5
)

func converterRegistry() map[string]convertFunc {
	return map[string]convertFunc{
		"drift":       convertDrift,
		"marker":      convertMarker,
		"monitor":     convertDriftLike,
		"hmonitor":    convertDriftLike,
		"vmonitor":    convertDriftLike,
		"collimator":  convertDriftLike,
		"rcollimator": convertDriftLike,
		"elseparator": convertDriftLike,
		"instrument":  convertDriftLike,
		"solenoid":    convertSolenoid,
		"multipole":   convertMultipole,
		"kicker":      convertKicker,
		"tkicker":     convertKicker,
		"hkicker":     convertHKicker,
		"vkicker":     convertVKicker,
		"dipedge":     convertDipedge,
		"rfcavity":    convertRFCavity,
		"rfmultipole": convertRFMultipole,
		"wire":        convertWire,
		"crabcavity":  convertCrabCavity,
		"quadrupole":  convertQuadrupole,
		"sbend":       convertBend,
		"rbend":       convertBend,
		"sextupole":   convertSextupole,
		"octupole":    convertOctupole,
		"srotation":   convertSRotation,
		"xrotation":   convertXRotation,
		"yrotation":   convertYRotation,
		"translation": convertTranslation,
		"nllens":      convertNLLens,
		"matrix":      convertMatrix,
		"placeholder": convertPlaceholder,
	}
}

func adderRegistry() map[string]addFunc {
	return map[string]addFunc{
		"beambeam": addBeamBeam,
	}
}

func convertDrift(t *Translator, v *ElemView) ([]LineBuilder, error) {
	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	return []LineBuilder{
		t.build(v, v.Name, element.TagDrift).Set("length", l),
	}, nil
}

func convertMarker(t *Translator, v *ElemView) ([]LineBuilder, error) {
	return t.makeCompound(v, []*Builder{t.build(v, v.Name, element.TagMarker)}, nil)
}

func convertDriftLike(t *Translator, v *ElemView) ([]LineBuilder, error) {
	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	core := t.build(v, v.Name, element.TagDrift).Set("length", l)
	return t.makeCompound(v, []*Builder{core}, nil)
}

// convertSolenoid builds a thick solenoid. A zero-length solenoid has no
// tracking model yet: it degrades to a drift with a warning, the sole
// non-fatal deviation of the engine.
func convertSolenoid(t *Translator, v *ElemView) ([]LineBuilder, error) {
	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	lv, err := l.Float(t.sc)
	if err != nil {
		return nil, err
	}
	if lv == 0 {
		t.log.Warn("Thin solenoids are not implemented, importing as a drift.",
			"element", v.Name)
		return convertDriftLike(t, v)
	}

	ks, err := v.Attr("ks")
	if err != nil {
		return nil, err
	}
	ksi, err := v.Attr("ksi")
	if err != nil {
		return nil, err
	}
	core := t.build(v, v.Name, element.TagSolenoid).
		Set("length", l).
		Set("ks", ks).
		Set("ksi", ksi)
	return t.makeCompound(v, []*Builder{core}, nil)
}

func truncItems(items []expr.Value, n int) []expr.Value {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func convertMultipole(t *Translator, v *ElemView) ([]LineBuilder, error) {
	if err := t.assertThin(v); err != nil {
		return nil, err
	}
	knlAttr, err := v.Attr("knl")
	if err != nil {
		return nil, err
	}
	kslAttr, err := v.Attr("ksl")
	if err != nil {
		return nil, err
	}
	knl, ksl := knlAttr.Items(), kslAttr.Items()

	lmax := 1
	for _, n := range []int{expr.NonzeroLen(knl), expr.NonzeroLen(ksl)} {
		if n > lmax {
			lmax = n
		}
	}
	if fe := v.FieldErrors(); fe != nil && t.opts.EnableFieldErrors {
		dkn := litList(fe.Dkn).Items()
		dks := litList(fe.Dks).Items()
		for _, n := range []int{expr.NonzeroLen(dkn), expr.NonzeroLen(dks)} {
			if n > lmax {
				lmax = n
			}
		}
		if knl, err = expr.AddLists(t.sc, knl, dkn, lmax); err != nil {
			return nil, err
		}
		if ksl, err = expr.AddLists(t.sc, ksl, dks, lmax); err != nil {
			return nil, err
		}
	}

	core := t.build(v, v.Name, element.TagMultipole).
		Set("knl", expr.ListOf(truncItems(knl, lmax)...)).
		Set("ksl", expr.ListOf(truncItems(ksl, lmax)...))

	angle, err := v.Attr("angle")
	if err != nil {
		return nil, err
	}
	if angle.Nonzero() {
		core.Set("hxl", angle)
	} else {
		// Dipole convention: with no declared angle the first strengths
		// double as curvature.
		hxl, hyl := expr.Lit(0), expr.Lit(0)
		if items := knlAttr.Items(); len(items) > 0 {
			hxl = items[0]
		}
		if items := kslAttr.Items(); len(items) > 0 {
			hyl = items[0]
		}
		core.Set("hxl", hxl)
		core.Set("hyl", hyl)
	}

	lrad, err := v.Attr("lrad")
	if err != nil {
		return nil, err
	}
	core.Set("length", lrad)
	return t.makeCompound(v, []*Builder{core}, nil)
}

// thinKickSandwich wraps a thin kick in half-drift slices when the source
// element occupies a nonzero length.
func (t *Translator) thinKickSandwich(v *ElemView, thin *Builder) ([]*Builder, error) {
	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	lv, err := l.Float(t.sc)
	if err != nil {
		return nil, err
	}
	if lv == 0 {
		return []*Builder{thin}, nil
	}
	if !t.opts.AllowThick {
		if err := t.assertThin(v); err != nil {
			return nil, err
		}
	}
	head, err := t.driftSlice(v, 0.5, "drift_%s..1")
	if err != nil {
		return nil, err
	}
	tail, err := t.driftSlice(v, 0.5, "drift_%s..2")
	if err != nil {
		return nil, err
	}
	return []*Builder{head, thin, tail}, nil
}

func (t *Translator) convertKickerWith(v *ElemView, hAttr, vAttr string) ([]LineBuilder, error) {
	hkick, err := v.Attr(hAttr)
	if err != nil {
		return nil, err
	}
	vkick, err := v.Attr(vAttr)
	if err != nil {
		return nil, err
	}

	var knl, ksl []expr.Value
	if hkick.Nonzero() {
		neg, err := expr.Neg(t.sc, hkick)
		if err != nil {
			return nil, err
		}
		knl = []expr.Value{neg}
	}
	if vkick.Nonzero() {
		ksl = []expr.Value{vkick}
	}

	lrad, err := v.Attr("lrad")
	if err != nil {
		return nil, err
	}
	thin := t.build(v, v.Name, element.TagMultipole).
		Set("knl", expr.ListOf(knl...)).
		Set("ksl", expr.ListOf(ksl...)).
		Set("length", lrad).
		Set("hxl", expr.Lit(0)).
		Set("hyl", expr.Lit(0))

	seq, err := t.thinKickSandwich(v, thin)
	if err != nil {
		return nil, err
	}
	return t.makeCompound(v, seq, nil)
}

func convertKicker(t *Translator, v *ElemView) ([]LineBuilder, error) {
	return t.convertKickerWith(v, "hkick", "vkick")
}

func convertHKicker(t *Translator, v *ElemView) ([]LineBuilder, error) {
	hkick, err := v.Attr("hkick")
	if err != nil {
		return nil, err
	}
	if hkick.Nonzero() {
		return nil, unsupportedf("hkicker %q sets hkick, use kick instead", v.Name)
	}
	return t.convertKickerWith(v, "kick", "")
}

func convertVKicker(t *Translator, v *ElemView) ([]LineBuilder, error) {
	vkick, err := v.Attr("vkick")
	if err != nil {
		return nil, err
	}
	if vkick.Nonzero() {
		return nil, unsupportedf("vkicker %q sets vkick, use kick instead", v.Name)
	}
	return t.convertKickerWith(v, "", "kick")
}

func convertDipedge(t *Translator, v *ElemView) ([]LineBuilder, error) {
	core := t.build(v, v.Name, element.TagDipoleEdge)
	for _, attr := range []string{"h", "e1", "hgap", "fint"} {
		val, err := v.Attr(attr)
		if err != nil {
			return nil, err
		}
		core.Set(attr, val)
	}
	return t.makeCompound(v, []*Builder{core}, nil)
}

func convertRFCavity(t *Translator, v *ElemView) ([]LineBuilder, error) {
	freq, err := v.Attr("freq")
	if err != nil {
		return nil, err
	}
	freqVal, err := freq.Float(t.sc)
	if err != nil {
		return nil, err
	}
	harmon, err := v.Attr("harmon")
	if err != nil {
		return nil, err
	}

	var frequency expr.Value
	if freqVal == 0 && harmon.Nonzero() {
		// Harmonic number given instead of a frequency: derive it from the
		// revolution frequency of the reference particle.
		frequency, err = expr.Scale(t.sc, harmon, t.seq.Beam.Beta*clight/t.seq.Length)
	} else {
		frequency, err = expr.Scale(t.sc, freq, 1e6)
	}
	if err != nil {
		return nil, err
	}

	scaleVoltage := 1.0
	if t.seq.Beam.Particle == "ion" {
		scaleVoltage = 1 / t.seq.Beam.Charge
	}
	volt, err := v.Attr("volt")
	if err != nil {
		return nil, err
	}
	voltage, err := expr.Scale(t.sc, volt, scaleVoltage*1e6)
	if err != nil {
		return nil, err
	}
	lag, err := v.Attr("lag")
	if err != nil {
		return nil, err
	}
	lagDeg, err := expr.Scale(t.sc, lag, 360)
	if err != nil {
		return nil, err
	}

	thin := t.build(v, v.Name, element.TagCavity).
		Set("voltage", voltage).
		Set("frequency", frequency).
		Set("lag", lagDeg)

	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	lv, err := l.Float(t.sc)
	if err != nil {
		return nil, err
	}
	seq := []*Builder{thin}
	if lv != 0 {
		head, err := t.driftSlice(v, 0.5, "drift_%s..1")
		if err != nil {
			return nil, err
		}
		tail, err := t.driftSlice(v, 0.5, "drift_%s..2")
		if err != nil {
			return nil, err
		}
		seq = []*Builder{head, thin, tail}
	}
	return t.makeCompound(v, seq, nil)
}

func scaleItems(sc *expr.Scope, items []expr.Value, k float64) ([]expr.Value, error) {
	out := make([]expr.Value, len(items))
	for i, it := range items {
		scaled, err := expr.Scale(sc, it, k)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

func convertRFMultipole(t *Translator, v *ElemView) ([]LineBuilder, error) {
	if err := t.assertThin(v); err != nil {
		return nil, err
	}
	harmon, err := v.Attr("harmon")
	if err != nil {
		return nil, err
	}
	if harmon.Nonzero() {
		return nil, unsupportedf("rfmultipole %q with harmonic number", v.Name)
	}
	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	if l.Nonzero() {
		return nil, unsupportedf("rfmultipole %q with nonzero length", v.Name)
	}

	volt, err := v.Attr("volt")
	if err != nil {
		return nil, err
	}
	voltage, err := expr.Scale(t.sc, volt, 1e6)
	if err != nil {
		return nil, err
	}
	freq, err := v.Attr("freq")
	if err != nil {
		return nil, err
	}
	frequency, err := expr.Scale(t.sc, freq, 1e6)
	if err != nil {
		return nil, err
	}
	lag, err := v.Attr("lag")
	if err != nil {
		return nil, err
	}
	lagDeg, err := expr.Scale(t.sc, lag, 360)
	if err != nil {
		return nil, err
	}
	knl, err := v.Attr("knl")
	if err != nil {
		return nil, err
	}
	ksl, err := v.Attr("ksl")
	if err != nil {
		return nil, err
	}
	pnl, err := v.Attr("pnl")
	if err != nil {
		return nil, err
	}
	psl, err := v.Attr("psl")
	if err != nil {
		return nil, err
	}
	pn, err := scaleItems(t.sc, pnl.Items(), 360)
	if err != nil {
		return nil, err
	}
	ps, err := scaleItems(t.sc, psl.Items(), 360)
	if err != nil {
		return nil, err
	}

	core := t.build(v, v.Name, element.TagRFMultipole).
		Set("voltage", voltage).
		Set("frequency", frequency).
		Set("lag", lagDeg).
		Set("knl", knl).
		Set("ksl", ksl).
		Set("pn", expr.ListOf(pn...)).
		Set("ps", expr.ListOf(ps...))
	return t.makeCompound(v, []*Builder{core}, nil)
}

// firstItem unwraps single-valued list parameters, passing scalars through.
func firstItem(val expr.Value) expr.Value {
	if !val.IsList() {
		return val
	}
	if items := val.Items(); len(items) > 0 {
		return items[0]
	}
	return expr.Lit(0)
}

func convertWire(t *Translator, v *ElemView) ([]LineBuilder, error) {
	if err := t.assertThin(v); err != nil {
		return nil, err
	}
	lphy, err := v.Attr("l_phy")
	if err != nil {
		return nil, err
	}
	if lphy.IsList() && len(lphy.Items()) > 1 {
		return nil, unsupportedf("element %q defines multiple wires", v.Name)
	}

	core := t.build(v, v.Name, element.TagWire)
	for _, attr := range []string{"l_phy", "l_int", "current", "xma", "yma"} {
		val, err := v.Attr(attr)
		if err != nil {
			return nil, err
		}
		core.Set(attr, firstItem(val))
	}
	return t.makeCompound(v, []*Builder{core}, nil)
}

func convertCrabCavity(t *Translator, v *ElemView) ([]LineBuilder, error) {
	if err := t.assertThin(v); err != nil {
		return nil, err
	}
	freq, err := v.Attr("freq")
	if err != nil {
		return nil, err
	}
	frequency, err := expr.Scale(t.sc, freq, 1e6)
	if err != nil {
		return nil, err
	}
	volt, err := v.Attr("volt")
	if err != nil {
		return nil, err
	}
	// Source voltage is in MV, the beam momentum in GeV.
	kick, err := expr.Scale(t.sc, volt, 1e-3/t.seq.Beam.PC)
	if err != nil {
		return nil, err
	}
	lag, err := v.Attr("lag")
	if err != nil {
		return nil, err
	}
	phase, err := expr.Synth(t.sc, "%s * 360 + 90", lag)
	if err != nil {
		return nil, err
	}

	tilt, err := v.Attr("tilt")
	if err != nil {
		return nil, err
	}
	tiltVal, err := tilt.Float(t.sc)
	if err != nil {
		return nil, err
	}

	core := t.build(v, v.Name, element.TagRFMultipole).
		Set("frequency", frequency)
	if math.Abs(tiltVal-math.Pi/2) < 1e-9 {
		neg, err := expr.Neg(t.sc, kick)
		if err != nil {
			return nil, err
		}
		core.Set("ksl", expr.ListOf(neg)).
			Set("ps", expr.ListOf(phase))
		// The tilt is absorbed into the skew component.
		v.SetAttr("tilt", expr.Lit(0))
	} else {
		core.Set("knl", expr.ListOf(kick)).
			Set("pn", expr.ListOf(phase))
	}
	return t.makeCompound(v, []*Builder{core}, nil)
}

func convertQuadrupole(t *Translator, v *ElemView) ([]LineBuilder, error) {
	if !t.opts.AllowThick {
		return nil, fmt.Errorf("%w: element %q: quadrupoles are thick, set allow_thick to import them",
			ErrThick, v.Name)
	}
	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	lv, err := l.Float(t.sc)
	if err != nil {
		return nil, err
	}
	if lv == 0 {
		return nil, unsupportedf("thick quadrupole %q with zero length", v.Name)
	}

	k1, err := v.Attr("k1")
	if err != nil {
		return nil, err
	}
	k1s, err := v.Attr("k1s")
	if err != nil {
		return nil, err
	}
	var customTilt *expr.Value
	if k1s.Nonzero() {
		// Skew decomposition: rotate the frame and track a normal gradient.
		tilt, err := expr.Synth(t.sc, "-atan2(%s, %s) / 2", k1s, k1)
		if err != nil {
			return nil, err
		}
		if k1, err = expr.Synth(t.sc, "0.5 * sqrt(pow(%s, 2) + pow(%s, 2))", k1s, k1); err != nil {
			return nil, err
		}
		customTilt = &tilt
	}

	core := t.build(v, v.Name, element.TagQuadrupole).
		Set("k1", k1).
		Set("length", l)
	return t.makeCompound(v, []*Builder{core}, customTilt)
}

func convertBend(t *Translator, v *ElemView) ([]LineBuilder, error) {
	if !t.opts.AllowThick {
		return nil, fmt.Errorf("%w: element %q: bends are thick, set allow_thick to import them",
			ErrThick, v.Name)
	}

	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	angle, err := v.Attr("angle")
	if err != nil {
		return nil, err
	}

	lCurv := l
	h, err := expr.Synth(t.sc, "%s / %s", angle, l)
	if err != nil {
		return nil, err
	}
	if v.Type() == "rbend" && t.seq.RBarc && angle.Nonzero() {
		// The declared length is the chord; recover the arc.
		radius, err := expr.Synth(t.sc, "0.5 * %s / sin(0.5 * %s)", l, angle)
		if err != nil {
			return nil, err
		}
		if lCurv, err = expr.Mul(t.sc, radius, angle); err != nil {
			return nil, err
		}
		if h, err = expr.Synth(t.sc, "1 / %s", radius); err != nil {
			return nil, err
		}
	}

	k0, err := v.Attr("k0")
	if err != nil {
		return nil, err
	}
	if !k0.Nonzero() {
		k0 = h
	}

	k1, err := v.Attr("k1")
	if err != nil {
		return nil, err
	}
	k2, err := v.Attr("k2")
	if err != nil {
		return nil, err
	}
	numKicks := 0.0
	if k2.Nonzero() {
		numKicks = defaultBendMultKicks
	}
	k2l, err := expr.Mul(t.sc, k2, lCurv)
	if err != nil {
		return nil, err
	}

	tag := element.TagBend
	if k1.Nonzero() {
		tag = element.TagCombinedFunctionMagnet
	}
	core := t.build(v, v.Name, tag).
		Set("k0", k0).
		Set("h", h).
		Set("length", lCurv)
	if tag == element.TagCombinedFunctionMagnet {
		core.Set("k1", k1)
	}
	core.Set("knl", expr.ListOf(expr.Lit(0), expr.Lit(0), k2l)).
		Set("num_multipole_kicks", expr.Lit(numKicks))

	e1, err := v.Attr("e1")
	if err != nil {
		return nil, err
	}
	e2, err := v.Attr("e2")
	if err != nil {
		return nil, err
	}
	if v.Type() == "rbend" {
		half, err := expr.Scale(t.sc, angle, 0.5)
		if err != nil {
			return nil, err
		}
		if e1, err = expr.Add(t.sc, e1, half); err != nil {
			return nil, err
		}
		if e2, err = expr.Add(t.sc, e2, half); err != nil {
			return nil, err
		}
	}

	e1fd, err := expr.Synth(t.sc, "(%s - %s) * %s / 2", k0, h, lCurv)
	if err != nil {
		return nil, err
	}
	hgap, err := v.Attr("hgap")
	if err != nil {
		return nil, err
	}
	fint, err := v.Attr("fint")
	if err != nil {
		return nil, err
	}
	// An absent or negative fintx means the exit face reuses the entry
	// fringe integral.
	exitFint := fint
	if v.Has("fintx") {
		fintx, err := v.Attr("fintx")
		if err != nil {
			return nil, err
		}
		fintxVal, err := fintx.Float(t.sc)
		if err != nil {
			return nil, err
		}
		if fintxVal >= 0 {
			exitFint = fintx
		}
	}

	entry := t.build(v, v.Name+"_den", element.TagDipoleEdge).
		Set("e1", e1).
		Set("e1_fd", e1fd).
		Set("fint", fint).
		Set("hgap", hgap).
		Set("k", k0).
		Set("side", expr.Str("entry"))
	exit := t.build(v, v.Name+"_dex", element.TagDipoleEdge).
		Set("e1", e2).
		Set("e1_fd", e1fd).
		Set("fint", exitFint).
		Set("hgap", hgap).
		Set("k", k0).
		Set("side", expr.Str("exit"))

	return t.makeCompound(v, []*Builder{entry, core, exit}, nil)
}

func convertSextupole(t *Translator, v *ElemView) ([]LineBuilder, error) {
	k2, err := v.Attr("k2")
	if err != nil {
		return nil, err
	}
	k2s, err := v.Attr("k2s")
	if err != nil {
		return nil, err
	}
	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	core := t.build(v, v.Name, element.TagSextupole).
		Set("k2", k2).
		Set("k2s", k2s).
		Set("length", l)
	return t.makeCompound(v, []*Builder{core}, nil)
}

func convertOctupole(t *Translator, v *ElemView) ([]LineBuilder, error) {
	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	k3, err := v.Attr("k3")
	if err != nil {
		return nil, err
	}
	k3s, err := v.Attr("k3s")
	if err != nil {
		return nil, err
	}
	k3l, err := expr.Mul(t.sc, k3, l)
	if err != nil {
		return nil, err
	}
	k3sl, err := expr.Mul(t.sc, k3s, l)
	if err != nil {
		return nil, err
	}

	thin := t.build(v, v.Name, element.TagMultipole).
		Set("knl", expr.ListOf(expr.Lit(0), expr.Lit(0), expr.Lit(0), k3l)).
		Set("ksl", expr.ListOf(expr.Lit(0), expr.Lit(0), expr.Lit(0), k3sl)).
		Set("length", l)

	seq, err := t.thinKickSandwich(v, thin)
	if err != nil {
		return nil, err
	}
	return t.makeCompound(v, seq, nil)
}

func (t *Translator) convertRotation(v *ElemView, tag element.Tag) ([]LineBuilder, error) {
	angle, err := v.Attr("angle")
	if err != nil {
		return nil, err
	}
	deg, err := expr.Scale(t.sc, angle, rad2deg)
	if err != nil {
		return nil, err
	}
	core := t.build(v, v.Name, tag).Set("angle", deg)
	return t.makeCompound(v, []*Builder{core}, nil)
}

func convertSRotation(t *Translator, v *ElemView) ([]LineBuilder, error) {
	return t.convertRotation(v, element.TagSRotation)
}

func convertXRotation(t *Translator, v *ElemView) ([]LineBuilder, error) {
	return t.convertRotation(v, element.TagXRotation)
}

func convertYRotation(t *Translator, v *ElemView) ([]LineBuilder, error) {
	return t.convertRotation(v, element.TagYRotation)
}

func convertTranslation(t *Translator, v *ElemView) ([]LineBuilder, error) {
	ds, err := v.Attr("ds")
	if err != nil {
		return nil, err
	}
	if ds.Nonzero() {
		return nil, unsupportedf("translation %q shifts longitudinally (ds)", v.Name)
	}
	dx, err := v.Attr("dx")
	if err != nil {
		return nil, err
	}
	dy, err := v.Attr("dy")
	if err != nil {
		return nil, err
	}
	core := t.build(v, v.Name, element.TagXYShift).
		Set("dx", dx).
		Set("dy", dy)
	return t.makeCompound(v, []*Builder{core}, nil)
}

func convertNLLens(t *Translator, v *ElemView) ([]LineBuilder, error) {
	knll, err := v.Attr("knll")
	if err != nil {
		return nil, err
	}
	cnll, err := v.Attr("cnll")
	if err != nil {
		return nil, err
	}
	core := t.build(v, v.Name, element.TagNonLinearLens).
		Set("knll", knll).
		Set("cnll", cnll)
	return t.makeCompound(v, []*Builder{core}, nil)
}

func convertMatrix(t *Translator, v *ElemView) ([]LineBuilder, error) {
	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	m0 := make([]expr.Value, 6)
	for i := range m0 {
		if m0[i], err = v.Attr(fmt.Sprintf("kick%d", i+1)); err != nil {
			return nil, err
		}
	}
	m1 := make([]expr.Value, 0, 36)
	for i := 1; i <= 6; i++ {
		for j := 1; j <= 6; j++ {
			val, err := v.Attr(fmt.Sprintf("rm%d%d", i, j))
			if err != nil {
				return nil, err
			}
			m1 = append(m1, val)
		}
	}
	core := t.build(v, v.Name, element.TagFirstOrderTaylorMap).
		Set("length", l).
		Set("m0", expr.ListOf(m0...)).
		Set("m1", expr.ListOf(m1...))
	return t.makeCompound(v, []*Builder{core}, nil)
}

func convertPlaceholder(t *Translator, v *ElemView) ([]LineBuilder, error) {
	slot, err := v.Attr("slot_id")
	if err != nil {
		return nil, err
	}
	slotVal, err := slot.Float(t.sc)
	if err != nil {
		return nil, err
	}
	var core *Builder
	switch slotVal {
	case 1, 2:
		return nil, unsupportedf("placeholder %q uses discontinued slot %v", v.Name, slotVal)
	case 3:
		core = t.build(v, v.Name, element.TagInterpolatedProfile)
	default:
		l, err := v.Attr("l")
		if err != nil {
			return nil, err
		}
		core = t.build(v, v.Name, element.TagDrift).Set("length", l)
	}
	return t.makeCompound(v, []*Builder{core}, nil)
}

// addBeamBeam inserts a 4D beam-beam lens with placeholder optics. The lens
// is configured by the collider setup after translation, so it is built with
// a plain builder and never expression-linked.
func addBeamBeam(t *Translator, v *ElemView, line *element.Line) error {
	if err := t.assertThin(v); err != nil {
		return err
	}
	core := NewBuilder(t.sc, v.Name, element.TagBeamBeam4D).
		Set("n_particles", expr.Lit(0)).
		Set("q0", expr.Lit(0)).
		Set("beta0", expr.Lit(1)).
		Set("mean_x", expr.Lit(0)).
		Set("mean_y", expr.Lit(0)).
		Set("sigma_x", expr.Lit(1)).
		Set("sigma_y", expr.Lit(1)).
		Set("d_px", expr.Lit(0)).
		Set("d_py", expr.Lit(0))

	builders, err := t.makeCompound(v, []*Builder{core}, nil)
	if err != nil {
		return err
	}
	for _, b := range builders {
		if _, err := b.AddToLine(line); err != nil {
			return err
		}
	}
	return nil
}
