package element

// Arena is a chunked bump allocator for the float64 parameter storage of all
// elements belonging to one line. Slices handed out never move, so attribute
// references into them stay valid for the lifetime of the line. Not safe for
// concurrent use; the translation engine is the only writer.
type Arena struct {
	chunks    [][]float64
	off       int
	chunkSize int
	used      int
}

const defaultChunkSize = 4096

// NewArena returns an arena with the default chunk size.
func NewArena() *Arena { return NewArenaSize(defaultChunkSize) }

// NewArenaSize returns an arena whose chunks hold chunkSize float64 values.
func NewArenaSize(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Arena{chunkSize: chunkSize}
}

// AllocFloats returns a zeroed slice of n float64 backed by the arena. The
// returned slice has capacity exactly n so appends cannot bleed into
// neighbouring allocations.
func (a *Arena) AllocFloats(n int) []float64 {
	if n == 0 {
		return nil
	}
	if len(a.chunks) == 0 || a.off+n > len(a.chunks[len(a.chunks)-1]) {
		size := a.chunkSize
		if n > size {
			size = n
		}
		a.chunks = append(a.chunks, make([]float64, size))
		a.off = 0
	}
	chunk := a.chunks[len(a.chunks)-1]
	s := chunk[a.off : a.off+n : a.off+n]
	a.off += n
	a.used += n
	return s
}

// Copy allocates arena storage for vals and copies them in.
func (a *Arena) Copy(vals []float64) []float64 {
	s := a.AllocFloats(len(vals))
	copy(s, vals)
	return s
}

// Used returns the number of float64 slots handed out so far.
func (a *Arena) Used() int { return a.used }

// Chunks returns the number of backing chunks allocated.
func (a *Arena) Chunks() int { return len(a.chunks) }
