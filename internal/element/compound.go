package element

import "fmt"

// Compound records which line elements together realize one logical source
// record: the physics core, its aperture chain, the entry/exit alignment
// transforms, and the boundary markers. Compounds are read-only after
// registration.
type Compound struct {
	Core           []string
	Aperture       []string
	EntryTransform []string
	ExitTransform  []string
	Entry          string
	Exit           string
}

// Names returns all constituent element names in line order.
func (c Compound) Names() []string {
	out := make([]string, 0, 2+len(c.Core)+len(c.Aperture)+len(c.EntryTransform)+len(c.ExitTransform))
	out = append(out, c.Entry)
	out = append(out, c.Aperture...)
	out = append(out, c.EntryTransform...)
	out = append(out, c.Core...)
	out = append(out, c.ExitTransform...)
	out = append(out, c.Exit)
	return out
}

// CompoundRegistry maps logical compound names to their constituents for the
// lifetime of the line.
type CompoundRegistry struct {
	order  []string
	byName map[string]Compound
}

func newCompoundRegistry() *CompoundRegistry {
	return &CompoundRegistry{byName: make(map[string]Compound)}
}

// Define registers a compound on the line and returns the logical name
// actually used. A taken name gets the same name:0, name:1, ... suffixing as
// Append, so repeated source records register without failing. Every
// constituent element must already exist in the line.
func (l *Line) DefineCompound(name string, c Compound) (string, error) {
	for _, elName := range c.Names() {
		if !l.Has(elName) {
			return "", fmt.Errorf("compound %q lists element %q which is not in the line", name, elName)
		}
	}
	final := name
	if _, taken := l.compounds.byName[name]; taken {
		for i := 0; ; i++ {
			final = fmt.Sprintf("%s:%d", name, i)
			if _, taken := l.compounds.byName[final]; !taken {
				break
			}
		}
	}
	l.compounds.order = append(l.compounds.order, final)
	l.compounds.byName[final] = c
	return final, nil
}

// Get returns the compound registered under name.
func (r *CompoundRegistry) Get(name string) (Compound, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns the compound names in registration order.
func (r *CompoundRegistry) Names() []string { return r.order }

// Len returns the number of registered compounds.
func (r *CompoundRegistry) Len() int { return len(r.order) }
