package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/latticego/internal/source"
)

const ringSrc = `
lattice "ring" {
  beam {
    particle = "proton"
    beta     = 0.999
    pc       = 7000
  }
  length = 100.0
  rbarc  = true

  variables {
    kq  = 0.008
    ang = 2 * pi / 8
  }

  element "drift" "d1" {
    l = 1.5
  }

  element "quadrupole" "mq.12" {
    l  = 3.1
    k1 = kq / 2
    align_errors {
      dx   = 1e-4
      dpsi = 0.002
    }
  }

  element "mq_type" "mq.13" {
    base_type = "quadrupole"
    l         = 3.1
    field_errors {
      dkn = [0, 1e-5]
    }
  }
}
`

func TestParseSequence(t *testing.T) {
	seq, err := source.ParseSequence("ring.hcl", []byte(ringSrc))
	require.NoError(t, err)

	require.Equal(t, "ring", seq.Name)
	require.Equal(t, 100.0, seq.Length)
	require.True(t, seq.RBarc)

	t.Run("beam", func(t *testing.T) {
		require.Equal(t, "proton", seq.Beam.Particle)
		require.Equal(t, 0.999, seq.Beam.Beta)
		require.Equal(t, 7000.0, seq.Beam.PC)
		// Unset beam scalars keep their defaults.
		require.Equal(t, 1.0, seq.Beam.Charge)
	})

	t.Run("variables in file order", func(t *testing.T) {
		require.Len(t, seq.Variables, 2)
		require.Equal(t, "kq", seq.Variables[0].Name)
		require.Equal(t, "ang", seq.Variables[1].Name)
	})

	t.Run("records", func(t *testing.T) {
		require.Len(t, seq.Records, 3)

		d := seq.Records[0]
		require.Equal(t, "d1", d.Name)
		require.Equal(t, "drift", d.Type())
		_, ok := d.Param("l")
		require.True(t, ok)
		_, ok = d.Param("k1")
		require.False(t, ok)

		q := seq.Records[1]
		require.Equal(t, []string{"quadrupole"}, q.TypeChain())
		require.NotNil(t, q.AlignErrors)
		require.Equal(t, 1e-4, q.AlignErrors.Dx)
		require.Equal(t, 0.002, q.AlignErrors.Dpsi)

		derived := seq.Records[2]
		require.Equal(t, "quadrupole", derived.Type())
		require.Equal(t, []string{"mq_type", "quadrupole"}, derived.TypeChain())
		require.NotNil(t, derived.FieldErrors)
		require.Equal(t, []float64{0, 1e-5}, derived.FieldErrors.Dkn)
		_, ok = derived.Param("base_type")
		require.False(t, ok, "base_type must not leak into the parameter map")
	})
}

func TestParseSequence_Errors(t *testing.T) {
	t.Run("no lattice block", func(t *testing.T) {
		_, err := source.ParseSequence("empty.hcl", []byte(""))
		require.Error(t, err)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := source.ParseSequence("bad.hcl", []byte(`lattice "x" {`))
		require.Error(t, err)
	})
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ring.hcl"), []byte(ringSrc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.hcl"), []byte(`
lattice "booster" {
  element "drift" "d" { l = 1 }
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	loader := source.NewLoader()
	ctx := context.Background()

	t.Run("by name", func(t *testing.T) {
		seq, err := loader.Load(ctx, "booster", dir)
		require.NoError(t, err)
		require.Equal(t, "booster", seq.Name)
		require.Len(t, seq.Records, 1)
	})

	t.Run("ambiguous without name", func(t *testing.T) {
		_, err := loader.Load(ctx, "", dir)
		require.Error(t, err)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := loader.Load(ctx, "lhc", dir)
		require.Error(t, err)
	})
}
