package element

import (
	"fmt"

	"github.com/vk/latticego/internal/vars"
)

// Line is the ordered named-element collection produced by a translation:
// (name, element) pairs in lattice order, backed by one arena, together with
// the compound registry and, when expression linkage is enabled, the
// symbolic-variable manager.
type Line struct {
	arena     *Arena
	names     []string
	elems     map[string]Element
	compounds *CompoundRegistry

	// Vars is the symbolic-variable manager attached to this line, or nil
	// when expressions were not enabled.
	Vars *vars.Manager
}

// NewLine returns an empty line. A nil arena allocates a fresh one.
func NewLine(arena *Arena) *Line {
	if arena == nil {
		arena = NewArena()
	}
	return &Line{
		arena:     arena,
		elems:     make(map[string]Element),
		compounds: newCompoundRegistry(),
	}
}

// Arena returns the arena backing this line's element parameters.
func (l *Line) Arena() *Arena { return l.arena }

// Compounds returns the line's compound registry.
func (l *Line) Compounds() *CompoundRegistry { return l.compounds }

// Append inserts the element under a collision-free variant of name and
// returns the name actually used: the base name if free, otherwise name:0,
// name:1, ... in first-seen order.
func (l *Line) Append(name string, el Element) string {
	final := name
	if _, taken := l.elems[name]; taken {
		for i := 0; ; i++ {
			final = fmt.Sprintf("%s:%d", name, i)
			if _, taken := l.elems[final]; !taken {
				break
			}
		}
	}
	l.names = append(l.names, final)
	l.elems[final] = el
	return final
}

// Get returns the element stored under name.
func (l *Line) Get(name string) (Element, bool) {
	el, ok := l.elems[name]
	return el, ok
}

// Has reports whether an element is stored under name.
func (l *Line) Has(name string) bool {
	_, ok := l.elems[name]
	return ok
}

// Names returns the element names in insertion order. The returned slice is
// the line's own backing array; callers must not mutate it.
func (l *Line) Names() []string { return l.names }

// Len returns the number of elements in the line.
func (l *Line) Len() int { return len(l.names) }
