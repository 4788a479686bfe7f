package element

// The catalogue below defines one struct per target element type. Parameter
// names follow the tracking convention: lengths in metres, angles for the
// rotation transforms in degrees, multipole strengths as integrated knl/ksl
// arrays. Constructors wire the per-instance attribute dispatch table.

// Drift is a field-free straight section.
type Drift struct {
	base
	Length float64
}

func newDrift(a *Arena) *Drift {
	e := &Drift{}
	e.base = base{tag: TagDrift, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"length": &e.Length},
	}}
	return e
}

// Marker is a zero-length named position.
type Marker struct {
	base
}

func newMarker(a *Arena) *Marker {
	e := &Marker{}
	e.base = base{tag: TagMarker, arena: a}
	return e
}

// Multipole is a thin multipole kick with integrated normal and skew
// strengths.
type Multipole struct {
	base
	Knl    []float64
	Ksl    []float64
	Hxl    float64
	Hyl    float64
	Length float64
}

func newMultipole(a *Arena) *Multipole {
	e := &Multipole{}
	e.base = base{tag: TagMultipole, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"hxl": &e.Hxl, "hyl": &e.Hyl, "length": &e.Length},
		vectors: map[string]*[]float64{"knl": &e.Knl, "ksl": &e.Ksl},
	}}
	return e
}

// Order returns the multipole order implied by the strength arrays. The order
// is derived on read rather than fixed at construction, so it stays correct
// when knl/ksl are replaced or resized after a merge.
func (e *Multipole) Order() int {
	n := len(e.Knl)
	if len(e.Ksl) > n {
		n = len(e.Ksl)
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

// Bend is a thick dipole with curvature h and optional multipole kicks.
type Bend struct {
	base
	K0                float64
	H                 float64
	Length            float64
	Knl               []float64
	NumMultipoleKicks float64
}

func newBend(a *Arena) *Bend {
	e := &Bend{}
	e.base = base{tag: TagBend, arena: a, refs: attrRefs{
		scalars: map[string]*float64{
			"k0": &e.K0, "h": &e.H, "length": &e.Length,
			"num_multipole_kicks": &e.NumMultipoleKicks,
		},
		vectors: map[string]*[]float64{"knl": &e.Knl},
	}}
	return e
}

// CombinedFunctionMagnet is a thick dipole with a superimposed quadrupole
// gradient.
type CombinedFunctionMagnet struct {
	base
	K0                float64
	K1                float64
	H                 float64
	Length            float64
	Knl               []float64
	NumMultipoleKicks float64
}

func newCombinedFunctionMagnet(a *Arena) *CombinedFunctionMagnet {
	e := &CombinedFunctionMagnet{}
	e.base = base{tag: TagCombinedFunctionMagnet, arena: a, refs: attrRefs{
		scalars: map[string]*float64{
			"k0": &e.K0, "k1": &e.K1, "h": &e.H, "length": &e.Length,
			"num_multipole_kicks": &e.NumMultipoleKicks,
		},
		vectors: map[string]*[]float64{"knl": &e.Knl},
	}}
	return e
}

// DipoleEdge is the synthesized fringe effect at a bend face.
type DipoleEdge struct {
	base
	E1   float64
	E1Fd float64
	Fint float64
	Hgap float64
	K    float64
	H    float64
	Side string
}

func newDipoleEdge(a *Arena) *DipoleEdge {
	e := &DipoleEdge{}
	e.base = base{tag: TagDipoleEdge, arena: a, refs: attrRefs{
		scalars: map[string]*float64{
			"e1": &e.E1, "e1_fd": &e.E1Fd, "fint": &e.Fint,
			"hgap": &e.Hgap, "k": &e.K, "h": &e.H,
		},
		strs: map[string]*string{"side": &e.Side},
	}}
	return e
}

// Quadrupole is a thick normal quadrupole.
type Quadrupole struct {
	base
	K1     float64
	Length float64
}

func newQuadrupole(a *Arena) *Quadrupole {
	e := &Quadrupole{}
	e.base = base{tag: TagQuadrupole, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"k1": &e.K1, "length": &e.Length},
	}}
	return e
}

// Sextupole is a thick sextupole with normal and skew components.
type Sextupole struct {
	base
	K2     float64
	K2s    float64
	Length float64
}

func newSextupole(a *Arena) *Sextupole {
	e := &Sextupole{}
	e.base = base{tag: TagSextupole, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"k2": &e.K2, "k2s": &e.K2s, "length": &e.Length},
	}}
	return e
}

// Solenoid is a thick solenoid.
type Solenoid struct {
	base
	Length float64
	Ks     float64
	Ksi    float64
}

func newSolenoid(a *Arena) *Solenoid {
	e := &Solenoid{}
	e.base = base{tag: TagSolenoid, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"length": &e.Length, "ks": &e.Ks, "ksi": &e.Ksi},
	}}
	return e
}

// Cavity is a zero-length RF cavity (voltage in V, frequency in Hz, lag in
// degrees).
type Cavity struct {
	base
	Voltage   float64
	Frequency float64
	Lag       float64
}

func newCavity(a *Arena) *Cavity {
	e := &Cavity{}
	e.base = base{tag: TagCavity, arena: a, refs: attrRefs{
		scalars: map[string]*float64{
			"voltage": &e.Voltage, "frequency": &e.Frequency, "lag": &e.Lag,
		},
	}}
	return e
}

// RFMultipole is a thin RF multipole with per-order phase arrays.
type RFMultipole struct {
	base
	Voltage   float64
	Frequency float64
	Lag       float64
	Knl       []float64
	Ksl       []float64
	Pn        []float64
	Ps        []float64
}

func newRFMultipole(a *Arena) *RFMultipole {
	e := &RFMultipole{}
	e.base = base{tag: TagRFMultipole, arena: a, refs: attrRefs{
		scalars: map[string]*float64{
			"voltage": &e.Voltage, "frequency": &e.Frequency, "lag": &e.Lag,
		},
		vectors: map[string]*[]float64{
			"knl": &e.Knl, "ksl": &e.Ksl, "pn": &e.Pn, "ps": &e.Ps,
		},
	}}
	return e
}

// Wire is a single current-carrying wire.
type Wire struct {
	base
	LPhy    float64
	LInt    float64
	Current float64
	Xma     float64
	Yma     float64
}

func newWire(a *Arena) *Wire {
	e := &Wire{}
	e.base = base{tag: TagWire, arena: a, refs: attrRefs{
		scalars: map[string]*float64{
			"l_phy": &e.LPhy, "l_int": &e.LInt, "current": &e.Current,
			"xma": &e.Xma, "yma": &e.Yma,
		},
	}}
	return e
}

// SRotation rotates the transverse frame about the beam axis (degrees).
type SRotation struct {
	base
	Angle float64
}

func newSRotation(a *Arena) *SRotation {
	e := &SRotation{}
	e.base = base{tag: TagSRotation, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"angle": &e.Angle},
	}}
	return e
}

// XRotation rotates the frame about the horizontal axis (degrees).
type XRotation struct {
	base
	Angle float64
}

func newXRotation(a *Arena) *XRotation {
	e := &XRotation{}
	e.base = base{tag: TagXRotation, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"angle": &e.Angle},
	}}
	return e
}

// YRotation rotates the frame about the vertical axis (degrees).
type YRotation struct {
	base
	Angle float64
}

func newYRotation(a *Arena) *YRotation {
	e := &YRotation{}
	e.base = base{tag: TagYRotation, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"angle": &e.Angle},
	}}
	return e
}

// XYShift displaces the transverse frame.
type XYShift struct {
	base
	Dx float64
	Dy float64
}

func newXYShift(a *Arena) *XYShift {
	e := &XYShift{}
	e.base = base{tag: TagXYShift, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"dx": &e.Dx, "dy": &e.Dy},
	}}
	return e
}

// FirstOrderTaylorMap is an arbitrary first-order transfer map: a 6-vector
// kick m0 and a 6x6 matrix m1 stored row-major.
type FirstOrderTaylorMap struct {
	base
	Length float64
	M0     []float64
	M1     []float64
}

func newFirstOrderTaylorMap(a *Arena) *FirstOrderTaylorMap {
	e := &FirstOrderTaylorMap{}
	e.base = base{tag: TagFirstOrderTaylorMap, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"length": &e.Length},
		vectors: map[string]*[]float64{"m0": &e.M0, "m1": &e.M1},
	}}
	return e
}

// NonLinearLens is the nonlinear insert lens.
type NonLinearLens struct {
	base
	Knll float64
	Cnll float64
}

func newNonLinearLens(a *Arena) *NonLinearLens {
	e := &NonLinearLens{}
	e.base = base{tag: TagNonLinearLens, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"knll": &e.Knll, "cnll": &e.Cnll},
	}}
	return e
}

// BeamBeam4D is a weak-strong 4D beam-beam lens placeholder populated by the
// external collider setup after translation.
type BeamBeam4D struct {
	base
	NParticles float64
	Q0         float64
	Beta0      float64
	MeanX      float64
	MeanY      float64
	SigmaX     float64
	SigmaY     float64
	DPx        float64
	DPy        float64
}

func newBeamBeam4D(a *Arena) *BeamBeam4D {
	e := &BeamBeam4D{}
	e.base = base{tag: TagBeamBeam4D, arena: a, refs: attrRefs{
		scalars: map[string]*float64{
			"n_particles": &e.NParticles, "q0": &e.Q0, "beta0": &e.Beta0,
			"mean_x": &e.MeanX, "mean_y": &e.MeanY,
			"sigma_x": &e.SigmaX, "sigma_y": &e.SigmaY,
			"d_px": &e.DPx, "d_py": &e.DPy,
		},
	}}
	return e
}

// InterpolatedProfile is the space-charge profile placeholder element.
type InterpolatedProfile struct {
	base
}

func newInterpolatedProfile(a *Arena) *InterpolatedProfile {
	e := &InterpolatedProfile{}
	e.base = base{tag: TagInterpolatedProfile, arena: a}
	return e
}

// LimitRect is a rectangular aperture limit.
type LimitRect struct {
	base
	MinX float64
	MaxX float64
	MinY float64
	MaxY float64
}

func newLimitRect(a *Arena) *LimitRect {
	e := &LimitRect{}
	e.base = base{tag: TagLimitRect, arena: a, refs: attrRefs{
		scalars: map[string]*float64{
			"min_x": &e.MinX, "max_x": &e.MaxX, "min_y": &e.MinY, "max_y": &e.MaxY,
		},
	}}
	return e
}

// LimitEllipse is an elliptical aperture limit with half-axes a and b.
type LimitEllipse struct {
	base
	A float64
	B float64
}

func newLimitEllipse(a *Arena) *LimitEllipse {
	e := &LimitEllipse{}
	e.base = base{tag: TagLimitEllipse, arena: a, refs: attrRefs{
		scalars: map[string]*float64{"a": &e.A, "b": &e.B},
	}}
	return e
}

// LimitRectEllipse is the intersection of a rectangle and an ellipse.
type LimitRectEllipse struct {
	base
	MaxX float64
	MaxY float64
	A    float64
	B    float64
}

func newLimitRectEllipse(a *Arena) *LimitRectEllipse {
	e := &LimitRectEllipse{}
	e.base = base{tag: TagLimitRectEllipse, arena: a, refs: attrRefs{
		scalars: map[string]*float64{
			"max_x": &e.MaxX, "max_y": &e.MaxY, "a": &e.A, "b": &e.B,
		},
	}}
	return e
}

// LimitRacetrack is a rectangle with rounded corners of half-axes a and b.
type LimitRacetrack struct {
	base
	MinX float64
	MaxX float64
	MinY float64
	MaxY float64
	A    float64
	B    float64
}

func newLimitRacetrack(a *Arena) *LimitRacetrack {
	e := &LimitRacetrack{}
	e.base = base{tag: TagLimitRacetrack, arena: a, refs: attrRefs{
		scalars: map[string]*float64{
			"min_x": &e.MinX, "max_x": &e.MaxX, "min_y": &e.MinY, "max_y": &e.MaxY,
			"a": &e.A, "b": &e.B,
		},
	}}
	return e
}

// LimitPolygon is an arbitrary polygon aperture limit.
type LimitPolygon struct {
	base
	XVertices []float64
	YVertices []float64
}

func newLimitPolygon(a *Arena) *LimitPolygon {
	e := &LimitPolygon{}
	e.base = base{tag: TagLimitPolygon, arena: a, refs: attrRefs{
		vectors: map[string]*[]float64{
			"x_vertices": &e.XVertices, "y_vertices": &e.YVertices,
		},
	}}
	return e
}
