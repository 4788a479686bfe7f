// Package expr implements the literal-or-symbolic value facade used by the
// lattice translation engine. A parameter read from a lattice description is
// either a plain number, a string, a list, or a symbolic HCL expression over
// the sequence's variable table. The Value type keeps the two worlds apart so
// that a symbolically-zero parameter is never mistaken for a numeric zero.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Kind discriminates the variants of a Value.
type Kind int

const (
	// KindLiteral is a plain float64. The zero Value is Literal(0).
	KindLiteral Kind = iota
	// KindString is a literal string parameter (e.g. an aperture shape name).
	KindString
	// KindList is an ordered list whose items are independently
	// literal-or-symbolic.
	KindList
	// KindSymbolic wraps an unevaluated HCL expression that references at
	// least one variable of the shared table.
	KindSymbolic
)

// Value is the tagged union Literal | String | List | Symbolic.
type Value struct {
	kind  Kind
	num   float64
	str   string
	items []Value
	expr  hcl.Expression
	raw   string
}

// Lit returns a literal numeric Value.
func Lit(v float64) Value { return Value{kind: KindLiteral, num: v} }

// Str returns a literal string Value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// ListOf returns a list Value over the given items.
func ListOf(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, items: items}
}

// Symbolic wraps an HCL expression together with its source text. The source
// text is what allows derived expressions to be synthesized later.
func Symbolic(e hcl.Expression, raw string) Value {
	return Value{kind: KindSymbolic, expr: e, raw: raw}
}

// Kind reports which variant this Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsSymbolic reports whether the value is an unevaluated expression.
func (v Value) IsSymbolic() bool { return v.kind == KindSymbolic }

// IsList reports whether the value is a list.
func (v Value) IsList() bool { return v.kind == KindList }

// Nonzero is the two-path truthiness predicate. A symbolic value is ALWAYS
// treated as nonzero, regardless of its current numeric evaluation; testing a
// symbolic value against zero would silently drop the expression dependence.
// A literal is nonzero iff its number is not 0, a string iff non-empty, and a
// list iff any item is Nonzero.
func (v Value) Nonzero() bool {
	switch v.kind {
	case KindSymbolic:
		return true
	case KindLiteral:
		return v.num != 0
	case KindString:
		return v.str != ""
	case KindList:
		for _, it := range v.items {
			if it.Nonzero() {
				return true
			}
		}
		return false
	}
	return false
}

// Float resolves the value to its current number. Symbolic values are
// evaluated against the scope; lists and strings are an error.
func (v Value) Float(sc *Scope) (float64, error) {
	switch v.kind {
	case KindLiteral:
		return v.num, nil
	case KindSymbolic:
		if sc == nil {
			sc = NewScope()
		}
		return sc.Eval(v.expr)
	default:
		return 0, fmt.Errorf("expr: value of kind %d has no scalar form", v.kind)
	}
}

// StrVal returns the string payload, or "" for non-string values.
func (v Value) StrVal() string { return v.str }

// Items returns the list payload. Non-list values yield an empty slice so
// list-shaped parameters that were never set behave as empty lists.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Expr returns the wrapped HCL expression for symbolic values, else nil.
func (v Value) Expr() hcl.Expression { return v.expr }

// Raw returns the source text of the value: the original expression text for
// symbolic values, a shortest round-trip decimal for literals.
func (v Value) Raw() string {
	switch v.kind {
	case KindSymbolic:
		return v.raw
	case KindLiteral:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.str)
	}
	parts := make([]string, len(v.items))
	for i, it := range v.items {
		parts[i] = it.Raw()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Equal compares two values structurally. Symbolic values compare by source
// text, which is exact enough for merge-compatibility checks.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindLiteral:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindSymbolic:
		return v.raw == o.raw
	case KindList:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Synth composes a new value from a printf-style arithmetic template, e.g.
// Synth(sc, "-atan2(%s, %s) / 2", k1s, k1). Literal operands are substituted
// as decimals, symbolic ones as their parenthesized source text. When every
// operand is literal the result is evaluated immediately and stays literal;
// otherwise the composed text is re-parsed into a new symbolic expression, so
// derived parameters keep their variable dependence.
func Synth(sc *Scope, format string, args ...Value) (Value, error) {
	parts := make([]any, len(args))
	symbolic := false
	for i, a := range args {
		switch a.kind {
		case KindSymbolic:
			symbolic = true
			parts[i] = "(" + a.raw + ")"
		case KindLiteral:
			parts[i] = "(" + strconv.FormatFloat(a.num, 'g', -1, 64) + ")"
		default:
			return Value{}, fmt.Errorf("expr: cannot synthesize from value of kind %d", a.kind)
		}
	}
	src := fmt.Sprintf(format, parts...)
	e, diags := hclsyntax.ParseExpression([]byte(src), "<synthetic>", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return Value{}, fmt.Errorf("expr: bad synthetic expression %q: %w", src, diags)
	}
	if !symbolic {
		if sc == nil {
			sc = NewScope()
		}
		num, err := sc.Eval(e)
		if err != nil {
			return Value{}, err
		}
		return Lit(num), nil
	}
	return Symbolic(e, src), nil
}

// Add returns a + b, staying symbolic if either side is.
func Add(sc *Scope, a, b Value) (Value, error) {
	if a.kind == KindLiteral && b.kind == KindLiteral {
		return Lit(a.num + b.num), nil
	}
	return Synth(sc, "%s + %s", a, b)
}

// Neg returns -a.
func Neg(sc *Scope, a Value) (Value, error) {
	if a.kind == KindLiteral {
		return Lit(-a.num), nil
	}
	return Synth(sc, "-%s", a)
}

// Scale returns a * k for a plain numeric factor.
func Scale(sc *Scope, a Value, k float64) (Value, error) {
	if a.kind == KindLiteral {
		return Lit(a.num * k), nil
	}
	return Synth(sc, "%s * %s", a, Lit(k))
}

// Mul returns a * b, staying symbolic if either side is.
func Mul(sc *Scope, a, b Value) (Value, error) {
	if a.kind == KindLiteral && b.kind == KindLiteral {
		return Lit(a.num * b.num), nil
	}
	return Synth(sc, "%s * %s", a, b)
}

// AddLists adds two item lists elementwise up to length n, zero-padding the
// shorter one. Symbolic items propagate through Add.
func AddLists(sc *Scope, a, b []Value, n int) ([]Value, error) {
	out := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		var c Value
		var err error
		switch {
		case i < len(a) && i < len(b):
			c, err = Add(sc, a[i], b[i])
		case i < len(a):
			c = a[i]
		case i < len(b):
			c = b[i]
		default:
			c = Lit(0)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// NonzeroLen returns the length of the list once trailing (numerically or
// symbolically) zero items are dropped. A trailing symbolic item counts as
// nonzero, again to avoid severing expression dependence.
func NonzeroLen(items []Value) int {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Nonzero() {
			return i + 1
		}
	}
	return 0
}
