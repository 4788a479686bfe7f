// Package vars implements the symbolic-variable manager attached to a
// translated line. It owns the variable table, evaluates lattice expressions
// against it, and keeps live bindings from expressions to element attributes
// so that assigning a variable propagates into every already-built element
// that depends on it.
package vars

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/latticego/internal/expr"
)

// Attrable is the write surface the manager needs on a bound element. The
// element catalogue satisfies it; keeping the interface local avoids coupling
// the manager to concrete element types.
type Attrable interface {
	SetAttr(name string, v float64) error
	SetAttrIndex(name string, i int, v float64) error
}

// Def is one variable definition from the lattice description, in file order.
type Def struct {
	Name string
	Expr hcl.Expression
}

// binding links one symbolic expression to one element attribute slot.
type binding struct {
	target Attrable
	attr   string
	index  int // -1 for a scalar attribute
	e      hcl.Expression
	roots  []string
}

// Manager is the per-line symbolic-variable manager. It is written only
// during table seeding and builder materialization and is owned exclusively
// by the translation engine for the conversion's duration; no locking.
type Manager struct {
	scope    *expr.Scope
	order    []string
	varExprs map[string]hcl.Expression
	varRefs  map[string][]string
	bindings []binding
	byRoot   map[string][]int
}

// New returns a manager with an empty variable table.
func New() *Manager {
	return &Manager{
		scope:    expr.NewScope(),
		varExprs: make(map[string]hcl.Expression),
		varRefs:  make(map[string][]string),
		byRoot:   make(map[string][]int),
	}
}

// Scope exposes the evaluation scope backed by the variable table.
func (m *Manager) Scope() *expr.Scope { return m.scope }

// Seed evaluates the variable definitions in order, populating the table.
// Definitions that reference other variables keep their expression recorded
// so later assignments re-derive them.
func (m *Manager) Seed(defs []Def) error {
	for _, d := range defs {
		v, err := m.scope.Eval(d.Expr)
		if err != nil {
			return fmt.Errorf("vars: seeding %q: %w", d.Name, err)
		}
		m.scope.SetVar(d.Name, v)
		m.order = append(m.order, d.Name)
		if refs := expr.References(d.Expr); len(refs) > 0 {
			m.varExprs[d.Name] = d.Expr
			m.varRefs[d.Name] = refs
		}
	}
	return nil
}

// Get reads the current value of a variable; unknown names read as 0.
func (m *Manager) Get(name string) float64 { return m.scope.Var(name) }

// Bind records that the element attribute (attr, or attr[index] when index
// >= 0) is driven by the expression. The caller has already written the
// expression's current value into the element.
func (m *Manager) Bind(target Attrable, attr string, index int, e hcl.Expression) {
	b := binding{target: target, attr: attr, index: index, e: e, roots: expr.References(e)}
	idx := len(m.bindings)
	m.bindings = append(m.bindings, b)
	for _, root := range b.roots {
		m.byRoot[root] = append(m.byRoot[root], idx)
	}
}

// Bindings returns the number of live expression bindings.
func (m *Manager) Bindings() int { return len(m.bindings) }

// Set assigns a variable and propagates: dependent variables are re-derived
// in definition order, then every binding touched by a changed variable is
// re-evaluated and written through to its element attribute.
func (m *Manager) Set(name string, v float64) error {
	m.scope.SetVar(name, v)
	dirty := map[string]struct{}{name: {}}

	// Variable-to-variable dependencies run in definition order; one pass per
	// definition level is enough because definitions only look backwards.
	for changed := true; changed; {
		changed = false
		for _, vn := range m.order {
			e, ok := m.varExprs[vn]
			if !ok || !touches(m.varRefs[vn], dirty) {
				continue
			}
			nv, err := m.scope.Eval(e)
			if err != nil {
				return fmt.Errorf("vars: re-deriving %q: %w", vn, err)
			}
			if nv != m.scope.Var(vn) {
				m.scope.SetVar(vn, nv)
				dirty[vn] = struct{}{}
				changed = true
			}
		}
	}

	seen := make(map[int]struct{})
	for root := range dirty {
		for _, idx := range m.byRoot[root] {
			if _, done := seen[idx]; done {
				continue
			}
			seen[idx] = struct{}{}
			if err := m.apply(m.bindings[idx]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) apply(b binding) error {
	v, err := m.scope.Eval(b.e)
	if err != nil {
		return fmt.Errorf("vars: re-evaluating binding for %q: %w", b.attr, err)
	}
	if b.index >= 0 {
		return b.target.SetAttrIndex(b.attr, b.index, v)
	}
	return b.target.SetAttr(b.attr, v)
}

func touches(refs []string, dirty map[string]struct{}) bool {
	for _, r := range refs {
		if _, ok := dirty[r]; ok {
			return true
		}
	}
	return false
}
