package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		key  uint8
	}{
		{"C4", 60},
		{"C6", 84},
		{"A4", 69},
		{"A#5", 82},
		{"Bb5", 82},
		{"c-1", 0},
		{"G9", 127},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.key, p.Key())
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, name := range []string{"", "H4", "C", "C#x", "G#9", "Cb-1"} {
		_, err := Parse(name)
		assert.ErrorIs(t, err, ErrInvalidPitch, name)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "C4", Pitch(60).String())
	assert.Equal(t, "A#5", MustParse("Bb5").String())
	assert.Equal(t, "C-1", Pitch(0).String())
}

func TestBuild(t *testing.T) {
	m, err := Build("C6", 48)
	require.NoError(t, err)
	require.Equal(t, 48, m.Len())

	assert.Equal(t, "C6", m.At(0))
	assert.Equal(t, "B5", m.At(1))
	assert.Equal(t, "A#5", m.At(2))
	assert.Equal(t, "C5", m.At(12))
	assert.Equal(t, "C#2", m.At(47))
	assert.Equal(t, "", m.At(48))

	row, ok := m.Row("Bb5")
	assert.True(t, ok)
	assert.Equal(t, 2, row)

	_, ok = m.Row("C1")
	assert.False(t, ok)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build("nope", 4)
	assert.ErrorIs(t, err, ErrInvalidPitch)

	_, err = Build("C0", 20)
	assert.ErrorIs(t, err, ErrInvalidPitch)

	m, err := Build("C4", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}
