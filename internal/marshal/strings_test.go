package marshal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckTerminable(t *testing.T) {
	assert.NoError(t, CheckTerminable(""))
	assert.NoError(t, CheckTerminable("Skyrim.esm"))
	assert.ErrorIs(t, CheckTerminable("bad\x00name.esp"), ErrEmbeddedNUL)
	assert.ErrorIs(t, CheckTerminable("\x00"), ErrEmbeddedNUL)
}

func TestTerminable(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, nil},
		{"empty", []string{}, nil},
		{"all valid", []string{"B.esm", "A.esp"}, []string{"B.esm", "A.esp"}},
		{"drops embedded nul", []string{"B.esm", "x\x00y.esp", "A.esp"}, []string{"B.esm", "A.esp"}},
		{"all dropped", []string{"\x00"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Terminable(tc.in))
		})
	}
}

func TestTerminableDoesNotAlias(t *testing.T) {
	in := []string{"A.esp", "B.esp"}
	out := Terminable(in)
	out[0] = "changed"
	assert.Equal(t, "A.esp", in[0])
}

func TestListReleasable(t *testing.T) {
	assert.False(t, ListReleasable(false, 0))
	assert.False(t, ListReleasable(true, 0))
	assert.False(t, ListReleasable(false, 3))
	assert.True(t, ListReleasable(true, 1))
}
