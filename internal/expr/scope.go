package expr

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Scope is the evaluation environment for symbolic expressions: a flat
// variable table plus the math function catalogue. Variables that have never
// been assigned read as 0, matching the source-description convention that
// every symbol has a current numeric value.
type Scope struct {
	vars  map[string]cty.Value
	funcs map[string]function.Function
}

// NewScope returns a scope with the math functions installed and pi
// pre-defined.
func NewScope() *Scope {
	return &Scope{
		vars:  map[string]cty.Value{"pi": cty.NumberFloatVal(pi)},
		funcs: mathFunctions(),
	}
}

// SetVar assigns the current numeric value of a variable.
func (s *Scope) SetVar(name string, v float64) {
	s.vars[name] = cty.NumberFloatVal(v)
}

// Var reads the current value of a variable; unknown names read as 0.
func (s *Scope) Var(name string) float64 {
	cv, ok := s.vars[name]
	if !ok {
		return 0
	}
	f, _ := cv.AsBigFloat().Float64()
	return f
}

// Has reports whether the variable has ever been assigned.
func (s *Scope) Has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// Names returns the assigned variable names in sorted order.
func (s *Scope) Names() []string {
	out := make([]string, 0, len(s.vars))
	for k := range s.vars {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Eval evaluates an expression against the scope and returns its number.
// Referenced variables that are not yet assigned are seeded with 0 first, so
// an expression over a not-yet-defined symbol evaluates instead of failing.
func (s *Scope) Eval(e hcl.Expression) (float64, error) {
	for _, trav := range e.Variables() {
		root := trav.RootName()
		if _, ok := s.vars[root]; !ok {
			s.vars[root] = cty.Zero
		}
	}
	cv, diags := e.Value(s.evalContext())
	if diags.HasErrors() {
		return 0, fmt.Errorf("expr: evaluation failed: %w", diags)
	}
	return ctyFloat(cv)
}

func (s *Scope) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{Variables: s.vars, Functions: s.funcs}
}

func ctyFloat(cv cty.Value) (float64, error) {
	if cv.Type() != cty.Number {
		return 0, fmt.Errorf("expr: expected a number, got %s", cv.Type().FriendlyName())
	}
	f, _ := cv.AsBigFloat().Float64()
	return f, nil
}

// FromExpression classifies a parsed attribute expression into a Value.
// Tuple constructors become lists item by item. An expression that references
// no variable is evaluated eagerly and stays literal. Anything else either
// becomes Symbolic (when symbolic values are wanted) or is snapshot-evaluated
// to a literal against the scope's current variable values.
func FromExpression(e hcl.Expression, src []byte, sc *Scope, keepSymbolic bool) (Value, error) {
	if tup, ok := e.(*hclsyntax.TupleConsExpr); ok {
		items := make([]Value, 0, len(tup.Exprs))
		for _, item := range tup.Exprs {
			v, err := FromExpression(item, src, sc, keepSymbolic)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return ListOf(items...), nil
	}

	if len(e.Variables()) == 0 {
		cv, diags := e.Value(&hcl.EvalContext{Functions: sc.funcs})
		if diags.HasErrors() {
			return Value{}, fmt.Errorf("expr: constant evaluation failed: %w", diags)
		}
		switch cv.Type() {
		case cty.String:
			return Str(cv.AsString()), nil
		case cty.Bool:
			if cv.True() {
				return Lit(1), nil
			}
			return Lit(0), nil
		}
		f, err := ctyFloat(cv)
		if err != nil {
			return Value{}, err
		}
		return Lit(f), nil
	}

	if keepSymbolic {
		return Symbolic(e, rawText(e, src)), nil
	}
	f, err := sc.Eval(e)
	if err != nil {
		return Value{}, err
	}
	return Lit(f), nil
}

// rawText slices the original source bytes spanned by the expression. When
// the bytes are unavailable the HCL range string is used, which is still a
// stable merge-comparison key even though it cannot be re-parsed.
func rawText(e hcl.Expression, src []byte) string {
	rng := e.Range()
	if src != nil && rng.Start.Byte >= 0 && rng.End.Byte <= len(src) && rng.Start.Byte < rng.End.Byte {
		return string(src[rng.Start.Byte:rng.End.Byte])
	}
	return rng.String()
}

// References returns the sorted unique root variable names an expression
// depends on.
func References(e hcl.Expression) []string {
	seen := make(map[string]struct{})
	for _, trav := range e.Variables() {
		seen[trav.RootName()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
