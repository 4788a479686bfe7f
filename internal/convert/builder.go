package convert

import (
	"fmt"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/expr"
	"github.com/vk/latticego/internal/vars"
)

// LineBuilder is a deferred element insertion: conversion rules produce
// builders, and the orchestrator materializes them onto the line in order.
type LineBuilder interface {
	// ElemName returns the name the builder will try to insert under.
	ElemName() string
	// AddToLine materializes the element(s) and returns the name actually
	// used after collision suffixing.
	AddToLine(line *element.Line) (string, error)
}

// Builder accumulates attributes for one target element. Attributes are
// expression facade values; materialization evaluates them to numbers and,
// when a variable manager is attached, re-walks them and binds every symbolic
// entry so later variable assignments propagate into the element.
type Builder struct {
	name  string
	tag   element.Tag
	order []string
	attrs map[string]expr.Value
	sc    *expr.Scope
	mgr   *vars.Manager
}

// NewBuilder returns a plain builder that materializes literally.
func NewBuilder(sc *expr.Scope, name string, tag element.Tag) *Builder {
	return &Builder{name: name, tag: tag, attrs: make(map[string]expr.Value), sc: sc}
}

// NewExprBuilder returns a builder that additionally records expression
// bindings on the manager at materialization time.
func NewExprBuilder(sc *expr.Scope, mgr *vars.Manager, name string, tag element.Tag) *Builder {
	b := NewBuilder(sc, name, tag)
	b.mgr = mgr
	return b
}

// ElemName returns the builder's element name.
func (b *Builder) ElemName() string { return b.name }

// Tag returns the target element tag.
func (b *Builder) Tag() element.Tag { return b.tag }

// Set records an attribute, keeping first-set order for materialization.
func (b *Builder) Set(name string, v expr.Value) *Builder {
	if _, ok := b.attrs[name]; !ok {
		b.order = append(b.order, name)
	}
	b.attrs[name] = v
	return b
}

// Attr reads back a recorded attribute.
func (b *Builder) Attr(name string) (expr.Value, bool) {
	v, ok := b.attrs[name]
	return v, ok
}

// AddToLine instantiates the element, writes the current numeric value of
// every attribute, appends it under a collision-free name, and finally binds
// symbolic attributes (per-index for lists) through the variable manager.
func (b *Builder) AddToLine(line *element.Line) (string, error) {
	el, err := element.New(b.tag, line.Arena())
	if err != nil {
		return "", err
	}
	for _, attr := range b.order {
		v := b.attrs[attr]
		switch {
		case v.Kind() == expr.KindString:
			err = el.SetAttrStr(attr, v.StrVal())
		case v.IsList():
			items := v.Items()
			vals := make([]float64, len(items))
			for i, it := range items {
				if vals[i], err = it.Float(b.sc); err != nil {
					return "", fmt.Errorf("convert: element %q attribute %s[%d]: %w", b.name, attr, i, err)
				}
			}
			err = el.SetAttrList(attr, vals)
		default:
			var f float64
			if f, err = v.Float(b.sc); err != nil {
				return "", fmt.Errorf("convert: element %q attribute %s: %w", b.name, attr, err)
			}
			err = el.SetAttr(attr, f)
		}
		if err != nil {
			return "", fmt.Errorf("convert: element %q: %w", b.name, err)
		}
	}

	final := line.Append(b.name, el)

	if b.mgr != nil {
		for _, attr := range b.order {
			v := b.attrs[attr]
			switch {
			case v.IsSymbolic():
				b.mgr.Bind(el, attr, -1, v.Expr())
			case v.IsList():
				for i, it := range v.Items() {
					if it.IsSymbolic() {
						b.mgr.Bind(el, attr, i, it.Expr())
					}
				}
			}
		}
	}
	return final, nil
}

// CompoundBuilder materializes a logical source element as a run of line
// elements bracketed by entry/exit markers, and registers the grouping on the
// line's compound registry.
type CompoundBuilder struct {
	name           string
	sc             *expr.Scope
	core           []*Builder
	entryTransform []*Builder
	exitTransform  []*Builder
	aperture       []*Builder
}

// ElemName returns the logical compound name.
func (c *CompoundBuilder) ElemName() string { return c.name }

// AddToLine appends the constituents in the fixed order entry marker,
// aperture, entry transforms, core, exit transforms, exit marker, then
// defines the compound under the logical name.
func (c *CompoundBuilder) AddToLine(line *element.Line) (string, error) {
	entry := NewBuilder(c.sc, c.name+"_entry", element.TagMarker)
	exit := NewBuilder(c.sc, c.name+"_exit", element.TagMarker)

	addGroup := func(group []*Builder) ([]string, error) {
		names := make([]string, 0, len(group))
		for _, b := range group {
			n, err := b.AddToLine(line)
			if err != nil {
				return nil, err
			}
			names = append(names, n)
		}
		return names, nil
	}

	entryName, err := entry.AddToLine(line)
	if err != nil {
		return "", err
	}
	aperture, err := addGroup(c.aperture)
	if err != nil {
		return "", err
	}
	entryTransform, err := addGroup(c.entryTransform)
	if err != nil {
		return "", err
	}
	core, err := addGroup(c.core)
	if err != nil {
		return "", err
	}
	exitTransform, err := addGroup(c.exitTransform)
	if err != nil {
		return "", err
	}
	exitName, err := exit.AddToLine(line)
	if err != nil {
		return "", err
	}

	final, err := line.DefineCompound(c.name, element.Compound{
		Core:           core,
		Aperture:       aperture,
		EntryTransform: entryTransform,
		ExitTransform:  exitTransform,
		Entry:          entryName,
		Exit:           exitName,
	})
	if err != nil {
		return "", fmt.Errorf("convert: %w", err)
	}
	return final, nil
}
