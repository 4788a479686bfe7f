package convert_test

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/latticego/internal/convert"
	"github.com/vk/latticego/internal/ctxlog"
	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/source"
)

func translate(t *testing.T, src string, opts convert.Options) (*element.Line, error) {
	t.Helper()
	seq, err := source.ParseSequence("test.hcl", []byte(src))
	require.NoError(t, err)
	tr, err := convert.NewTranslator(seq, opts)
	require.NoError(t, err)
	return tr.Translate(context.Background())
}

func mustTranslate(t *testing.T, src string, opts convert.Options) *element.Line {
	t.Helper()
	line, err := translate(t, src, opts)
	require.NoError(t, err)
	return line
}

func getElem(t *testing.T, line *element.Line, name string) element.Element {
	t.Helper()
	el, ok := line.Get(name)
	require.True(t, ok, "element %q not found in line %v", name, line.Names())
	return el
}

func scalar(t *testing.T, line *element.Line, name, attr string) float64 {
	t.Helper()
	f, err := getElem(t, line, name).Attr(attr)
	require.NoError(t, err)
	return f
}

func list(t *testing.T, line *element.Line, name, attr string) []float64 {
	t.Helper()
	vals, err := getElem(t, line, name).AttrList(attr)
	require.NoError(t, err)
	return vals
}

func TestTranslate_EmptySequence(t *testing.T) {
	_, err := translate(t, `lattice "ring" {}`, convert.DefaultOptions())
	require.ErrorIs(t, err, convert.ErrEmptySequence)
}

func TestNewTranslator_OptionConflicts(t *testing.T) {
	seq := &source.Sequence{Name: "ring"}

	t.Run("thick with field errors", func(t *testing.T) {
		opts := convert.DefaultOptions()
		opts.AllowThick = true
		opts.EnableFieldErrors = true
		_, err := convert.NewTranslator(seq, opts)
		require.ErrorIs(t, err, convert.ErrConfig)
	})

	t.Run("expression allow-list without expressions", func(t *testing.T) {
		opts := convert.DefaultOptions()
		opts.ExpressionsForTypes = []string{"quadrupole"}
		_, err := convert.NewTranslator(seq, opts)
		require.ErrorIs(t, err, convert.ErrConfig)
	})
}

func TestTranslate_MergeDrifts(t *testing.T) {
	src := `
lattice "ring" {
  element "drift" "d1" { l = 1.0 }
  element "drift" "d2" { l = 2.0 }
  element "drift" "d3" { l = 0.5 }
}
`
	opts := convert.DefaultOptions()
	opts.MergeDrifts = true
	line := mustTranslate(t, src, opts)

	require.Equal(t, []string{"d1"}, line.Names())
	require.Equal(t, element.TagDrift, getElem(t, line, "d1").Tag())
	require.InDelta(t, 3.5, scalar(t, line, "d1", "length"), 1e-12)
}

func TestTranslate_NameUniqueness(t *testing.T) {
	src := `
lattice "ring" {
  element "marker" "ip" {}
  element "marker" "ip" {}
  element "marker" "ip" {}
}
`
	line := mustTranslate(t, src, convert.DefaultOptions())
	require.Equal(t, []string{"ip", "ip:0", "ip:1"}, line.Names())
}

func TestTranslate_SkipMarkers(t *testing.T) {
	src := `
lattice "ring" {
  element "marker" "m1" {}
  element "drift" "d" { l = 1 }
  element "marker" "m2" {
    apertype = "circle"
    aperture = [0.02]
  }
}
`
	opts := convert.DefaultOptions()
	opts.SkipMarkers = true
	opts.EnableApertures = true
	line := mustTranslate(t, src, opts)

	require.False(t, line.Has("m1"), "empty marker should be skipped")
	require.True(t, line.Has("d"))
	// A marker with an aperture is not empty and survives as a compound.
	require.True(t, line.Has("m2"))
	require.True(t, line.Has("m2_aper"))
	require.Equal(t, element.TagLimitEllipse, getElem(t, line, "m2_aper").Tag())
}

func TestTranslate_IgnoreTypes(t *testing.T) {
	src := `
lattice "ring" {
  element "drift" "d1" { l = 1 }
  element "instrument" "bpm" { l = 0.2 }
  element "drift" "d2" { l = 1 }
}
`
	opts := convert.DefaultOptions()
	opts.IgnoreTypes = []string{"instrument"}
	line := mustTranslate(t, src, opts)
	require.Equal(t, []string{"d1", "d2"}, line.Names())
}

func TestTranslate_ThickPolicy(t *testing.T) {
	src := `
lattice "ring" {
  element "quadrupole" "q" {
    l  = 3.1
    k1 = 0.008
  }
}
`
	t.Run("thin mode rejects", func(t *testing.T) {
		_, err := translate(t, src, convert.DefaultOptions())
		require.ErrorIs(t, err, convert.ErrThick)
		require.Contains(t, err.Error(), "allow_thick")
	})

	t.Run("thick mode converts", func(t *testing.T) {
		opts := convert.DefaultOptions()
		opts.AllowThick = true
		line := mustTranslate(t, src, opts)

		require.Equal(t, []string{"q_entry", "q", "q_exit"}, line.Names())
		require.Equal(t, element.TagQuadrupole, getElem(t, line, "q").Tag())
		require.InDelta(t, 0.008, scalar(t, line, "q", "k1"), 1e-15)
		require.InDelta(t, 3.1, scalar(t, line, "q", "length"), 1e-15)

		c, ok := line.Compounds().Get("q")
		require.True(t, ok)
		require.Equal(t, []string{"q"}, c.Core)
		require.Equal(t, "q_entry", c.Entry)
		require.Equal(t, "q_exit", c.Exit)
	})
}

func TestTranslate_SkewQuadrupoleDecomposition(t *testing.T) {
	src := `
lattice "ring" {
  element "quadrupole" "qs" {
    l   = 1.0
    k1  = 0.3
    k1s = 0.4
  }
}
`
	opts := convert.DefaultOptions()
	opts.AllowThick = true
	line := mustTranslate(t, src, opts)

	require.InDelta(t, 0.5*math.Sqrt(0.3*0.3+0.4*0.4), scalar(t, line, "qs", "k1"), 1e-12)

	wantTilt := -math.Atan2(0.4, 0.3) / 2 * 180 / math.Pi
	require.InDelta(t, wantTilt, scalar(t, line, "qs_tilt_entry", "angle"), 1e-12)
	require.InDelta(t, -wantTilt, scalar(t, line, "qs_tilt_exit", "angle"), 1e-12)
}

func TestTranslate_SolenoidZeroLengthDegradesWithWarning(t *testing.T) {
	src := `
lattice "ring" {
  element "solenoid" "sol" {
    ks = 0.1
  }
}
`
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	seq, err := source.ParseSequence("test.hcl", []byte(src))
	require.NoError(t, err)
	tr, err := convert.NewTranslator(seq, convert.DefaultOptions())
	require.NoError(t, err)
	line, err := tr.Translate(ctx)
	require.NoError(t, err)

	require.Equal(t, element.TagDrift, getElem(t, line, "sol").Tag())
	require.Contains(t, buf.String(), "drift")
	require.Contains(t, buf.String(), "sol")
}

func TestTranslate_ThickSolenoid(t *testing.T) {
	src := `
lattice "ring" {
  element "solenoid" "sol" {
    l  = 2.0
    ks = 0.1
  }
}
`
	line := mustTranslate(t, src, convert.DefaultOptions())
	require.Equal(t, element.TagSolenoid, getElem(t, line, "sol").Tag())
	require.InDelta(t, 0.1, scalar(t, line, "sol", "ks"), 1e-15)
}

func TestTranslate_MultipoleMerge(t *testing.T) {
	src := `
lattice "ring" {
  element "multipole" "m1" { knl = [0.1, 0.2] }
  element "multipole" "m2" { knl = [0.3] }
}
`
	opts := convert.DefaultOptions()
	opts.MergeMultipoles = true
	line := mustTranslate(t, src, opts)

	require.True(t, line.Has("m1_m2"), "merged element expected, got %v", line.Names())
	knl := list(t, line, "m1_m2", "knl")
	require.Len(t, knl, 2)
	require.InDelta(t, 0.4, knl[0], 1e-12)
	require.InDelta(t, 0.2, knl[1], 1e-12)
}

func TestTranslate_MultipoleMergeMismatchKeepsBoth(t *testing.T) {
	src := `
lattice "ring" {
  element "multipole" "m1" { knl = [0.1] }
  element "multipole" "m2" {
    knl  = [0.3]
    tilt = 0.1
  }
}
`
	opts := convert.DefaultOptions()
	opts.MergeMultipoles = true
	line := mustTranslate(t, src, opts)

	require.True(t, line.Has("m1"))
	require.True(t, line.Has("m2"))
	require.False(t, line.Has("m1_m2"))
}

func TestTranslate_MultipoleFieldErrors(t *testing.T) {
	src := `
lattice "ring" {
  element "multipole" "m" {
    knl = [0.1]
    field_errors {
      dkn = [0.01, 0, 0.02]
    }
  }
}
`
	opts := convert.DefaultOptions()
	opts.EnableFieldErrors = true
	line := mustTranslate(t, src, opts)

	knl := list(t, line, "m", "knl")
	require.Len(t, knl, 3)
	require.InDelta(t, 0.11, knl[0], 1e-12)
	require.InDelta(t, 0.0, knl[1], 1e-12)
	require.InDelta(t, 0.02, knl[2], 1e-12)
}

func TestTranslate_KickerSandwich(t *testing.T) {
	src := `
lattice "ring" {
  element "kicker" "k" {
    l     = 0.4
    hkick = 0.001
    vkick = 0.002
  }
}
`
	opts := convert.DefaultOptions()
	opts.AllowThick = true
	line := mustTranslate(t, src, opts)

	require.Equal(t,
		[]string{"k_entry", "drift_k..1", "k", "drift_k..2", "k_exit"},
		line.Names())
	require.InDelta(t, 0.2, scalar(t, line, "drift_k..1", "length"), 1e-15)
	require.InDelta(t, 0.2, scalar(t, line, "drift_k..2", "length"), 1e-15)

	knl := list(t, line, "k", "knl")
	require.Equal(t, []float64{-0.001}, knl)
	ksl := list(t, line, "k", "ksl")
	require.Equal(t, []float64{0.002}, ksl)
}

func TestTranslate_BendRBarcCorrection(t *testing.T) {
	src := `
lattice "ring" {
  rbarc = true
  element "rbend" "b" {
    l     = 2.0
    angle = 0.2
  }
}
`
	opts := convert.DefaultOptions()
	opts.AllowThick = true
	line := mustTranslate(t, src, opts)

	require.Equal(t, []string{"b_entry", "b_den", "b", "b_dex", "b_exit"}, line.Names())

	radius := 0.5 * 2.0 / math.Sin(0.1)
	require.InDelta(t, radius*0.2, scalar(t, line, "b", "length"), 1e-9)
	require.InDelta(t, 1/radius, scalar(t, line, "b", "h"), 1e-12)
	// k0 defaults to the curvature.
	require.InDelta(t, 1/radius, scalar(t, line, "b", "k0"), 1e-12)

	// rbend faces pick up half the bend angle.
	require.InDelta(t, 0.1, scalar(t, line, "b_den", "e1"), 1e-12)
	require.InDelta(t, 0.1, scalar(t, line, "b_dex", "e1"), 1e-12)
	// k0 == h makes the face strength correction vanish.
	require.InDelta(t, 0.0, scalar(t, line, "b_den", "e1_fd"), 1e-12)
}

func TestTranslate_SBendVariants(t *testing.T) {
	src := `
lattice "ring" {
  element "sbend" "cb" {
    l     = 1.0
    angle = 0.1
    k1    = 0.02
    k2    = 0.3
    fint  = 0.5
  }
}
`
	opts := convert.DefaultOptions()
	opts.AllowThick = true
	line := mustTranslate(t, src, opts)

	core := getElem(t, line, "cb")
	require.Equal(t, element.TagCombinedFunctionMagnet, core.Tag())
	require.InDelta(t, 0.02, scalar(t, line, "cb", "k1"), 1e-15)
	require.InDelta(t, 5, scalar(t, line, "cb", "num_multipole_kicks"), 1e-15)
	knl := list(t, line, "cb", "knl")
	require.Len(t, knl, 3)
	require.InDelta(t, 0.3, knl[2], 1e-12)

	// Without fintx the exit face reuses the entry fringe integral.
	require.InDelta(t, 0.5, scalar(t, line, "cb_dex", "fint"), 1e-15)
}

func TestTranslate_RFCavityHarmonic(t *testing.T) {
	src := `
lattice "ring" {
  beam {
    beta = 0.5
  }
  length = 100.0
  element "rfcavity" "c" {
    volt   = 2.0
    harmon = 10
    lag    = 0.25
  }
}
`
	line := mustTranslate(t, src, convert.DefaultOptions())

	require.Equal(t, element.TagCavity, getElem(t, line, "c").Tag())
	require.InDelta(t, 10*0.5*299792458.0/100.0, scalar(t, line, "c", "frequency"), 1e-3)
	require.InDelta(t, 2e6, scalar(t, line, "c", "voltage"), 1e-6)
	require.InDelta(t, 90, scalar(t, line, "c", "lag"), 1e-12)
}

func TestTranslate_IonCavityVoltageScaling(t *testing.T) {
	src := `
lattice "ring" {
  beam {
    particle = "ion"
    charge   = 2
  }
  element "rfcavity" "c" {
    volt = 4.0
    freq = 400.0
  }
}
`
	line := mustTranslate(t, src, convert.DefaultOptions())
	require.InDelta(t, 2e6, scalar(t, line, "c", "voltage"), 1e-6)
	require.InDelta(t, 4e8, scalar(t, line, "c", "frequency"), 1e-3)
}

func TestTranslate_CrabCavitySkew(t *testing.T) {
	src := `
lattice "ring" {
  beam {
    pc = 7000.0
  }
  element "crabcavity" "cc" {
    volt = 3.0
    freq = 400.0
    tilt = pi / 2
  }
}
`
	line := mustTranslate(t, src, convert.DefaultOptions())

	cc := getElem(t, line, "cc")
	require.Equal(t, element.TagRFMultipole, cc.Tag())
	ksl := list(t, line, "cc", "ksl")
	require.Len(t, ksl, 1)
	require.InDelta(t, -3.0/7000.0*1e-3, ksl[0], 1e-15)
	ps := list(t, line, "cc", "ps")
	require.Equal(t, []float64{90}, ps)
	// The tilt was absorbed into the skew component: no rotation transforms.
	require.False(t, line.Has("cc_tilt_entry"))
}

func TestTranslate_AlignmentEntryExitIdentity(t *testing.T) {
	src := `
lattice "ring" {
  element "sextupole" "s" {
    l    = 0.3
    k2   = 0.1
    tilt = 0.1
    align_errors {
      dx   = 1e-4
      dpsi = 0.002
    }
  }
}
`
	opts := convert.DefaultOptions()
	opts.EnableAlignErrors = true
	line := mustTranslate(t, src, opts)

	wantTilt := (0.1 + 0.002) * 180 / math.Pi
	require.InDelta(t, wantTilt, scalar(t, line, "s_tilt_entry", "angle"), 1e-12)
	require.InDelta(t, -wantTilt, scalar(t, line, "s_tilt_exit", "angle"), 1e-12)
	require.InDelta(t, 1e-4, scalar(t, line, "s_offset_entry", "dx"), 1e-18)
	require.InDelta(t, -1e-4, scalar(t, line, "s_offset_exit", "dx"), 1e-18)

	c, ok := line.Compounds().Get("s")
	require.True(t, ok)
	require.Equal(t, []string{"s_tilt_entry", "s_offset_entry"}, c.EntryTransform)
	require.Equal(t, []string{"s_offset_exit", "s_tilt_exit"}, c.ExitTransform)
	require.Equal(t,
		[]string{"s_entry", "s_tilt_entry", "s_offset_entry", "s", "s_offset_exit", "s_tilt_exit", "s_exit"},
		c.Names())
}

func TestTranslate_OctagonAperture(t *testing.T) {
	src := `
lattice "ring" {
  element "marker" "m" {
    apertype = "octagon"
    aperture = [0.05, 0.04, 0.3, 0.4]
  }
}
`
	opts := convert.DefaultOptions()
	opts.EnableApertures = true
	line := mustTranslate(t, src, opts)

	xs := list(t, line, "m_aper", "x_vertices")
	ys := list(t, line, "m_aper", "y_vertices")
	require.Len(t, xs, 8)
	require.Len(t, ys, 8)

	require.InDelta(t, 0.05, xs[0], 1e-15)
	require.InDelta(t, 0.05*math.Tan(0.3), ys[0], 1e-15)
	require.InDelta(t, 0.04/math.Tan(0.4), xs[1], 1e-15)
	require.InDelta(t, 0.04, ys[1], 1e-15)

	// Mirror symmetry about the horizontal axis.
	for i := 0; i < 4; i++ {
		require.InDelta(t, xs[i], xs[7-i], 1e-15)
		require.InDelta(t, -ys[i], ys[7-i], 1e-15)
	}
}

func TestTranslate_RepeatedNamesAcrossCompounds(t *testing.T) {
	src := `
lattice "ring" {
  element "monitor" "bpm" { l = 0.5 }
  element "monitor" "bpm" { l = 0.5 }
}
`
	line := mustTranslate(t, src, convert.DefaultOptions())

	require.Equal(t,
		[]string{"bpm_entry", "bpm", "bpm_exit", "bpm_entry:0", "bpm:0", "bpm_exit:0"},
		line.Names())
	require.Equal(t, []string{"bpm", "bpm:0"}, line.Compounds().Names())

	second, ok := line.Compounds().Get("bpm:0")
	require.True(t, ok)
	require.Equal(t, []string{"bpm:0"}, second.Core)
	require.Equal(t, "bpm_entry:0", second.Entry)
	require.Equal(t, "bpm_exit:0", second.Exit)
}

func TestTranslate_ApertureFrameEntryExitIdentity(t *testing.T) {
	src := `
lattice "ring" {
  element "marker" "m" {
    apertype    = "circle"
    aperture    = [0.02]
    aper_tilt   = 0.1
    aper_offset = [0.001, -0.002]
  }
}
`
	opts := convert.DefaultOptions()
	opts.EnableApertures = true
	line := mustTranslate(t, src, opts)

	wantTilt := 0.1 * 180 / math.Pi
	require.InDelta(t, wantTilt, scalar(t, line, "m_aper_tilt_entry", "angle"), 1e-12)
	require.InDelta(t, -wantTilt, scalar(t, line, "m_aper_tilt_exit", "angle"), 1e-12)
	require.InDelta(t, 0.001, scalar(t, line, "m_aper_offset_entry", "dx"), 1e-18)
	require.InDelta(t, -0.002, scalar(t, line, "m_aper_offset_entry", "dy"), 1e-18)
	require.InDelta(t, -0.001, scalar(t, line, "m_aper_offset_exit", "dx"), 1e-18)
	require.InDelta(t, 0.002, scalar(t, line, "m_aper_offset_exit", "dy"), 1e-18)

	c, ok := line.Compounds().Get("m")
	require.True(t, ok)
	require.Equal(t,
		[]string{"m_aper_tilt_entry", "m_aper_offset_entry", "m_aper", "m_aper_offset_exit", "m_aper_tilt_exit"},
		c.Aperture)
}

func TestTranslate_ApertureShapes(t *testing.T) {
	cases := []struct {
		name     string
		apertype string
		aperture string
		tag      element.Tag
		attrs    map[string]float64
	}{
		{
			name:     "rectangle",
			apertype: "rectangle",
			aperture: "[0.02, 0.03]",
			tag:      element.TagLimitRect,
			attrs: map[string]float64{
				"min_x": -0.02, "max_x": 0.02, "min_y": -0.03, "max_y": 0.03,
			},
		},
		{
			name:     "racetrack",
			apertype: "racetrack",
			aperture: "[0.02, 0.03, 0.01, 0.005]",
			tag:      element.TagLimitRacetrack,
			attrs: map[string]float64{
				"min_x": -0.02, "max_x": 0.02, "min_y": -0.03, "max_y": 0.03,
				"a": 0.01, "b": 0.005,
			},
		},
		{
			name:     "ellipse",
			apertype: "ellipse",
			aperture: "[0.04, 0.05]",
			tag:      element.TagLimitEllipse,
			attrs:    map[string]float64{"a": 0.04, "b": 0.05},
		},
		{
			name:     "rectellipse",
			apertype: "rectellipse",
			aperture: "[0.02, 0.03, 0.04, 0.05]",
			tag:      element.TagLimitRectEllipse,
			attrs: map[string]float64{
				"max_x": 0.02, "max_y": 0.03, "a": 0.04, "b": 0.05,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := `
lattice "ring" {
  element "marker" "m" {
    apertype = "` + tc.apertype + `"
    aperture = ` + tc.aperture + `
  }
}
`
			opts := convert.DefaultOptions()
			opts.EnableApertures = true
			line := mustTranslate(t, src, opts)

			require.Equal(t, tc.tag, getElem(t, line, "m_aper").Tag())
			for attr, want := range tc.attrs {
				require.InDelta(t, want, scalar(t, line, "m_aper", attr), 1e-15, attr)
			}
		})
	}
}

func TestTranslate_PolygonAperture(t *testing.T) {
	src := `
lattice "ring" {
  element "marker" "m" {
    apertype = "polygon"
    aperture = [0.01]
    aper_vx  = [0.1, 0.0, 0.2, 0.0]
    aper_vy  = [0.0, 0.3, 0.0, 0.4]
  }
}
`
	opts := convert.DefaultOptions()
	opts.EnableApertures = true
	line := mustTranslate(t, src, opts)

	// Explicit vertex lists take priority over the shape keyword: with more
	// than two x vertices the polygon is taken verbatim.
	xs := list(t, line, "m_aper", "x_vertices")
	require.Equal(t, []float64{0.1, 0.0, 0.2, 0.0}, xs)
}

func TestTranslate_UseCompoundElementsDisabled(t *testing.T) {
	src := `
lattice "ring" {
  element "monitor" "bpm" { l = 0.5 }
}
`
	opts := convert.DefaultOptions()
	opts.UseCompoundElements = false
	line := mustTranslate(t, src, opts)

	require.Equal(t, []string{"bpm"}, line.Names())
	require.Zero(t, line.Compounds().Len())
}

func TestTranslate_NamePrefix(t *testing.T) {
	src := `
lattice "ring" {
  element "drift" "d" { l = 1 }
}
`
	opts := convert.DefaultOptions()
	opts.NamePrefix = "b2_"
	line := mustTranslate(t, src, opts)
	require.Equal(t, []string{"b2_d"}, line.Names())
}

func TestTranslate_PlaceholderSlots(t *testing.T) {
	t.Run("interpolated profile slot", func(t *testing.T) {
		src := `
lattice "ring" {
  element "placeholder" "sc" { slot_id = 3 }
}
`
		line := mustTranslate(t, src, convert.DefaultOptions())
		require.Equal(t, element.TagInterpolatedProfile, getElem(t, line, "sc").Tag())
	})

	t.Run("default slot is a drift", func(t *testing.T) {
		src := `
lattice "ring" {
  element "placeholder" "ph" {
    l       = 0.5
    slot_id = 9
  }
}
`
		line := mustTranslate(t, src, convert.DefaultOptions())
		require.Equal(t, element.TagDrift, getElem(t, line, "ph").Tag())
		require.InDelta(t, 0.5, scalar(t, line, "ph", "length"), 1e-15)
	})

	t.Run("discontinued slot is fatal", func(t *testing.T) {
		src := `
lattice "ring" {
  element "placeholder" "ph" { slot_id = 1 }
}
`
		_, err := translate(t, src, convert.DefaultOptions())
		require.ErrorIs(t, err, convert.ErrUnsupported)
	})
}

func TestTranslate_Matrix(t *testing.T) {
	src := `
lattice "ring" {
  element "matrix" "map" {
    l     = 0.0
    kick1 = 0.001
    rm11  = 1.0
    rm22  = 1.0
  }
}
`
	line := mustTranslate(t, src, convert.DefaultOptions())

	m0 := list(t, line, "map", "m0")
	require.Len(t, m0, 6)
	require.InDelta(t, 0.001, m0[0], 1e-15)
	m1 := list(t, line, "map", "m1")
	require.Len(t, m1, 36)
	require.InDelta(t, 1.0, m1[0], 1e-15)
	require.InDelta(t, 1.0, m1[7], 1e-15)
	require.InDelta(t, 0.0, m1[1], 1e-15)
}

func TestTranslate_BeamBeamAdder(t *testing.T) {
	src := `
lattice "ring" {
  element "beambeam" "bb" {}
}
`
	line := mustTranslate(t, src, convert.DefaultOptions())
	bb := getElem(t, line, "bb")
	require.Equal(t, element.TagBeamBeam4D, bb.Tag())
	require.InDelta(t, 1.0, scalar(t, line, "bb", "beta0"), 1e-15)
	require.InDelta(t, 1.0, scalar(t, line, "bb", "sigma_x"), 1e-15)
}

func TestTranslate_UnsupportedConstructs(t *testing.T) {
	cases := []struct {
		name string
		src  string
		opts func(*convert.Options)
	}{
		{
			name: "unknown element type",
			src: `
lattice "ring" {
  element "undulator" "u" {}
}
`,
		},
		{
			name: "longitudinal translation",
			src: `
lattice "ring" {
  element "translation" "t1" {
    dx = 0.1
    ds = 0.5
  }
}
`,
		},
		{
			name: "misalignment on non-translation element",
			src: `
lattice "ring" {
  element "drift" "d" {
    l    = 1
    dphi = 0.1
  }
}
`,
		},
		{
			name: "rfmultipole with harmonic",
			src: `
lattice "ring" {
  element "rfmultipole" "rf" { harmon = 2 }
}
`,
		},
		{
			name: "hkicker with hkick alias",
			src: `
lattice "ring" {
  element "hkicker" "hk" { hkick = 0.001 }
}
`,
		},
		{
			name: "multiwire",
			src: `
lattice "ring" {
  element "wire" "w" {
    l_phy   = [1.0, 2.0]
    current = [10, 20]
  }
}
`,
		},
		{
			name: "unknown aperture shape",
			src: `
lattice "ring" {
  element "marker" "m" {
    apertype = "hexagon"
    aperture = [0.01, 0.01]
  }
}
`,
			opts: func(o *convert.Options) { o.EnableApertures = true },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := convert.DefaultOptions()
			if tc.opts != nil {
				tc.opts(&opts)
			}
			_, err := translate(t, tc.src, opts)
			require.ErrorIs(t, err, convert.ErrUnsupported)
		})
	}
}

func TestTranslate_ExpressionPropagation(t *testing.T) {
	src := `
lattice "ring" {
  variables {
    kq = 0.01
  }
  element "quadrupole" "q" {
    l  = 1.0
    k1 = kq * 2
  }
}
`
	opts := convert.DefaultOptions()
	opts.AllowThick = true
	opts.EnableExpressions = true
	line := mustTranslate(t, src, opts)

	require.NotNil(t, line.Vars)
	require.GreaterOrEqual(t, line.Vars.Bindings(), 1)
	require.InDelta(t, 0.02, scalar(t, line, "q", "k1"), 1e-15)

	require.NoError(t, line.Vars.Set("kq", 0.02))
	require.InDelta(t, 0.04, scalar(t, line, "q", "k1"), 1e-15)
}

func TestTranslate_ExpressionAllowList(t *testing.T) {
	src := `
lattice "ring" {
  variables {
    kq = 0.01
  }
  element "quadrupole" "q" {
    l  = 1.0
    k1 = kq * 2
  }
}
`
	opts := convert.DefaultOptions()
	opts.AllowThick = true
	opts.EnableExpressions = true
	opts.ExpressionsForTypes = []string{"sextupole"}
	line := mustTranslate(t, src, opts)

	// The quadrupole is outside the allow-list: its parameters were snapshot
	// evaluated and stay frozen when the variable changes.
	require.Zero(t, line.Vars.Bindings())
	require.NoError(t, line.Vars.Set("kq", 0.5))
	require.InDelta(t, 0.02, scalar(t, line, "q", "k1"), 1e-15)
}

func TestTranslate_Rotations(t *testing.T) {
	src := `
lattice "ring" {
  element "srotation" "r1" { angle = 0.1 }
  element "yrotation" "r2" { angle = -0.2 }
}
`
	line := mustTranslate(t, src, convert.DefaultOptions())
	require.InDelta(t, 0.1*180/math.Pi, scalar(t, line, "r1", "angle"), 1e-12)
	require.Equal(t, element.TagYRotation, getElem(t, line, "r2").Tag())
	require.InDelta(t, -0.2*180/math.Pi, scalar(t, line, "r2", "angle"), 1e-12)
}

func TestTranslate_Translation(t *testing.T) {
	src := `
lattice "ring" {
  element "translation" "t1" {
    dx = 0.001
    dy = -0.002
  }
}
`
	line := mustTranslate(t, src, convert.DefaultOptions())
	require.Equal(t, element.TagXYShift, getElem(t, line, "t1").Tag())
	require.InDelta(t, 0.001, scalar(t, line, "t1", "dx"), 1e-15)
	require.InDelta(t, -0.002, scalar(t, line, "t1", "dy"), 1e-15)
}

func TestTranslate_Octupole(t *testing.T) {
	src := `
lattice "ring" {
  element "octupole" "o" {
    l  = 0.2
    k3 = 10.0
  }
}
`
	opts := convert.DefaultOptions()
	opts.AllowThick = true
	line := mustTranslate(t, src, opts)

	knl := list(t, line, "o", "knl")
	require.Len(t, knl, 4)
	require.InDelta(t, 10.0*0.2, knl[3], 1e-12)
	require.True(t, line.Has("drift_o..1"))
	require.True(t, line.Has("drift_o..2"))
}
