// Package source loads machine-readable lattice descriptions: an expanded
// sequence of device records whose parameters are HCL expressions over a
// shared variable table. The package is purely a front end; it performs no
// physics interpretation, leaving literal-vs-symbolic classification to the
// translation engine.
package source

import "github.com/hashicorp/hcl/v2"

// Beam carries the sequence-level reference particle scalars.
type Beam struct {
	Particle string
	Beta     float64
	Charge   float64
	PC       float64
}

// FieldErrors is the per-element multipole field error overlay, already
// evaluated to numbers.
type FieldErrors struct {
	Dkn []float64
	Dks []float64
}

// Clone returns a deep copy, needed when merge accumulation mutates errors.
func (f *FieldErrors) Clone() *FieldErrors {
	if f == nil {
		return nil
	}
	out := &FieldErrors{Dkn: make([]float64, len(f.Dkn)), Dks: make([]float64, len(f.Dks))}
	copy(out.Dkn, f.Dkn)
	copy(out.Dks, f.Dks)
	return out
}

// PhaseErrors is the per-element RF phase error overlay.
type PhaseErrors struct {
	Dpn []float64
	Dps []float64
}

// AlignErrors is the per-element alignment error overlay.
type AlignErrors struct {
	Dx     float64
	Dy     float64
	Ds     float64
	Dphi   float64
	Dtheta float64
	Dpsi   float64
	Arex   float64
	Arey   float64
}

// VarDef is one entry of the sequence's variable table, in file order.
type VarDef struct {
	Name string
	Expr hcl.Expression
}

// Record is one device description of the expanded sequence. Parameters stay
// as raw HCL expressions; src keeps the bytes of the defining file so the
// translation engine can recover expression source text.
type Record struct {
	DeclaredType string
	BaseType     string
	Name         string
	FieldErrors  *FieldErrors
	AlignErrors  *AlignErrors
	PhaseErrors  *PhaseErrors

	params map[string]hcl.Expression
	src    []byte
}

// Param returns the raw expression of a named parameter.
func (r *Record) Param(name string) (hcl.Expression, bool) {
	e, ok := r.params[name]
	return e, ok
}

// Src returns the bytes of the file the record was parsed from.
func (r *Record) Src() []byte { return r.src }

// TypeChain returns the type ancestry, most specific first.
func (r *Record) TypeChain() []string {
	if r.BaseType == "" || r.BaseType == r.DeclaredType {
		return []string{r.DeclaredType}
	}
	return []string{r.DeclaredType, r.BaseType}
}

// Type returns the canonical (base) type used for conversion dispatch.
func (r *Record) Type() string {
	if r.BaseType != "" {
		return r.BaseType
	}
	return r.DeclaredType
}

// Sequence is one fully expanded lattice: ordered records plus the shared
// variable table and sequence-level scalars.
type Sequence struct {
	Name      string
	Beam      Beam
	Length    float64
	RBarc     bool
	Variables []VarDef
	Records   []*Record
}
