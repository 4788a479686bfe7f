package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/latticego/internal/ctxlog"
	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/expr"
	"github.com/vk/latticego/internal/source"
	"github.com/vk/latticego/internal/vars"
)

// Options configures a Translator. The koanf tags make the struct loadable
// from an options file and environment overrides.
type Options struct {
	EnableExpressions   bool     `koanf:"enable_expressions"`
	EnableFieldErrors   bool     `koanf:"enable_field_errors"`
	EnableAlignErrors   bool     `koanf:"enable_align_errors"`
	EnableApertures     bool     `koanf:"enable_apertures"`
	SkipMarkers         bool     `koanf:"skip_markers"`
	MergeDrifts         bool     `koanf:"merge_drifts"`
	MergeMultipoles     bool     `koanf:"merge_multipoles"`
	AllowThick          bool     `koanf:"allow_thick"`
	UseCompoundElements bool     `koanf:"use_compound_elements"`
	IgnoreTypes         []string `koanf:"ignore_types"`
	ExpressionsForTypes []string `koanf:"expressions_for_types"`
	NamePrefix          string   `koanf:"name_prefix"`
}

// DefaultOptions returns the option defaults: everything off except compound
// grouping.
func DefaultOptions() Options {
	return Options{UseCompoundElements: true}
}

type convertFunc func(*Translator, *ElemView) ([]LineBuilder, error)

// addFunc inserts elements directly, bypassing the builder list; used for
// composite insertions that must never be expression-linked.
type addFunc func(*Translator, *ElemView, *element.Line) error

// Translator drives one sequence-to-line conversion. It is single-use: make
// a new one per Translate call site.
type Translator struct {
	opts Options
	seq  *source.Sequence

	sc  *expr.Scope
	mgr *vars.Manager
	log *slog.Logger

	converters map[string]convertFunc
	adders     map[string]addFunc
	shapes     map[string]shapeFunc
	ignore     map[string]struct{}
	exprTypes  map[string]struct{}
}

// NewTranslator validates the option set against the sequence and builds the
// dispatch registries.
func NewTranslator(seq *source.Sequence, opts Options) (*Translator, error) {
	if opts.AllowThick && opts.EnableFieldErrors {
		return nil, configErrf("field errors are not supported for thick elements")
	}
	if len(opts.ExpressionsForTypes) > 0 && !opts.EnableExpressions {
		return nil, configErrf("expressions_for_types requires enable_expressions")
	}

	t := &Translator{
		opts:       opts,
		seq:        seq,
		converters: converterRegistry(),
		adders:     adderRegistry(),
		shapes:     shapeConverters(),
		ignore:     make(map[string]struct{}),
	}
	for _, name := range opts.IgnoreTypes {
		t.ignore[name] = struct{}{}
	}
	if len(opts.ExpressionsForTypes) > 0 {
		t.exprTypes = make(map[string]struct{})
		for _, name := range opts.ExpressionsForTypes {
			t.exprTypes[name] = struct{}{}
		}
	}
	return t, nil
}

// Translate converts the sequence into a fresh line. With expressions
// enabled the returned line carries the variable manager with every symbolic
// parameter bound.
func (t *Translator) Translate(ctx context.Context) (*element.Line, error) {
	t.log = ctxlog.FromContext(ctx)

	if t.seq == nil || len(t.seq.Records) == 0 {
		return nil, fmt.Errorf("%w: lattice %q", ErrEmptySequence, t.seqName())
	}

	line := element.NewLine(nil)
	if t.opts.EnableExpressions {
		t.mgr = vars.New()
		defs := make([]vars.Def, len(t.seq.Variables))
		for i, d := range t.seq.Variables {
			defs[i] = vars.Def{Name: d.Name, Expr: d.Expr}
		}
		if err := t.mgr.Seed(defs); err != nil {
			return nil, err
		}
		t.sc = t.mgr.Scope()
		line.Vars = t.mgr
	} else {
		t.sc = expr.NewScope()
		for _, d := range t.seq.Variables {
			v, err := t.sc.Eval(d.Expr)
			if err != nil {
				return nil, fmt.Errorf("convert: variable %q: %w", d.Name, err)
			}
			t.sc.SetVar(d.Name, v)
		}
	}

	total := len(t.seq.Records)
	count := 0
	emit := func(v *ElemView) error {
		if err := t.dispatch(v, line); err != nil {
			return err
		}
		count++
		if count%100 == 0 {
			t.log.Debug("Converting sequence.",
				"name", t.seqName(), "progress_pct", count*100/total)
		}
		return nil
	}

	var pending *ElemView
	for _, rec := range t.seq.Records {
		v, err := t.newView(rec)
		if err != nil {
			return nil, err
		}

		emptyMarker, err := v.IsEmptyMarker()
		if err != nil {
			return nil, err
		}
		switch {
		case t.opts.SkipMarkers && emptyMarker:
		case t.opts.MergeDrifts && pending != nil &&
			pending.Type() == "drift" && v.Type() == "drift":
			if err := pending.AddLength(v); err != nil {
				return nil, err
			}
		case t.opts.MergeMultipoles && pending != nil &&
			pending.Type() == "multipole" && v.Type() == "multipole":
			merged, err := pending.MergeMultipole(v)
			if err != nil {
				return nil, err
			}
			if !merged {
				if err := emit(pending); err != nil {
					return nil, err
				}
				pending = v
			}
		default:
			if _, skip := t.ignore[v.Type()]; skip {
				continue
			}
			if pending != nil {
				if err := emit(pending); err != nil {
					return nil, err
				}
			}
			pending = v
		}
	}
	if pending != nil {
		if err := emit(pending); err != nil {
			return nil, err
		}
	}

	t.log.Info("Sequence converted.",
		"name", t.seqName(), "source_records", total, "line_elements", line.Len())
	return line, nil
}

func (t *Translator) seqName() string {
	if t.seq == nil {
		return ""
	}
	return t.seq.Name
}

func (t *Translator) newView(rec *source.Record) (*ElemView, error) {
	linked := t.opts.EnableExpressions
	if linked && t.exprTypes != nil {
		_, linked = t.exprTypes[rec.Type()]
	}
	return NewView(rec, t.seq, t.sc, linked, t.opts.NamePrefix)
}

// dispatch routes one view through the adder or converter registered for its
// type; an unregistered type is fatal.
func (t *Translator) dispatch(v *ElemView, line *element.Line) error {
	if adder, ok := t.adders[v.Type()]; ok {
		return adder(t, v, line)
	}
	conv, ok := t.converters[v.Type()]
	if !ok {
		return unsupportedf("element %q of type %s has no conversion rule",
			v.Name, strings.Join(v.TypeChain(), "/"))
	}
	builders, err := conv(t, v)
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

// build returns an element builder for the view, expression-linked when the
// view is.
func (t *Translator) build(v *ElemView, name string, tag element.Tag) *Builder {
	if v.linked && t.mgr != nil {
		return NewExprBuilder(t.sc, t.mgr, name, tag)
	}
	return NewBuilder(t.sc, name, tag)
}

// assertThin enforces the thin-element policy: a nonzero-length element of a
// thin-only type is fatal, with the error distinguishing "enable allow_thick"
// guidance from genuinely unsupported thick types.
func (t *Translator) assertThin(v *ElemView) error {
	l, err := v.Attr("l")
	if err != nil {
		return err
	}
	lv, err := l.Float(t.sc)
	if err != nil {
		return err
	}
	if lv == 0 {
		return nil
	}
	if t.opts.AllowThick {
		return unsupportedf("cannot load element %q: thick elements of type %s are not supported",
			v.Name, strings.Join(v.TypeChain(), "/"))
	}
	return fmt.Errorf("%w: element %q is thick, but importing thick elements is disabled; set allow_thick to import it",
		ErrThick, v.Name)
}

// driftSlice builds one half of the drift sandwich around a thin kick placed
// inside a nonzero-length slot.
func (t *Translator) driftSlice(v *ElemView, weight float64, pattern string) (*Builder, error) {
	l, err := v.Attr("l")
	if err != nil {
		return nil, err
	}
	part, err := expr.Scale(t.sc, l, weight)
	if err != nil {
		return nil, err
	}
	return t.build(v, fmt.Sprintf(pattern, v.Name), element.TagDrift).
		Set("length", part), nil
}

// makeCompound wraps converted core elements with the element's alignment
// transforms and aperture chain and groups everything as a compound. Lone
// drift slices and markers stay bare, and compound grouping can be disabled
// wholesale.
func (t *Translator) makeCompound(v *ElemView, core []*Builder, customTilt *expr.Value) ([]LineBuilder, error) {
	align, err := newAlignment(t, v, customTilt)
	if err != nil {
		return nil, err
	}

	var apertureSeq []*Builder
	if t.opts.EnableApertures {
		has, err := v.HasAperture()
		if err != nil {
			return nil, err
		}
		if has {
			aper, err := newAperture(t, v)
			if err != nil {
				return nil, err
			}
			limits, err := aper.Limits()
			if err != nil {
				return nil, err
			}
			aperExit, err := aper.Exit()
			if err != nil {
				return nil, err
			}
			apertureSeq = append(apertureSeq, aper.Entry()...)
			apertureSeq = append(apertureSeq, limits...)
			apertureSeq = append(apertureSeq, aperExit...)
		}
	}

	alignEntry := align.Entry()
	alignExit, err := align.Exit()
	if err != nil {
		return nil, err
	}

	flat := make([]LineBuilder, 0, len(apertureSeq)+len(alignEntry)+len(core)+len(alignExit))
	for _, b := range apertureSeq {
		flat = append(flat, b)
	}
	for _, b := range alignEntry {
		flat = append(flat, b)
	}
	for _, b := range core {
		flat = append(flat, b)
	}
	for _, b := range alignExit {
		flat = append(flat, b)
	}

	if !t.opts.UseCompoundElements {
		return flat, nil
	}

	if len(flat) == 1 {
		if b, ok := flat[0].(*Builder); ok {
			if b.Tag() == element.TagDrift && strings.HasPrefix(v.Name, "drift_") {
				return flat, nil
			}
			if b.Tag() == element.TagMarker {
				return flat, nil
			}
		}
	}

	return []LineBuilder{&CompoundBuilder{
		name:           v.Name,
		sc:             t.sc,
		core:           core,
		entryTransform: alignEntry,
		exitTransform:  alignExit,
		aperture:       apertureSeq,
	}}, nil
}
