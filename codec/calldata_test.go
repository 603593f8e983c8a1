package codec

import (
	"math/big"
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct{ a, b uint64 }

func (p pair) CairoSerialize() ([]*felt.Felt, error) {
	return Compile(p.a, p.b)
}

func TestCompile(t *testing.T) {
	out, err := Compile(
		FromUint64(5),
		uint64(6),
		uint32(7),
		8,
		big.NewInt(9),
		"0xa",
		[]*felt.Felt{FromUint64(11), FromUint64(12)},
		pair{13, 14},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"0x5", "0x6", "0x7", "0x8", "0x9", "0xa", "0x2", "0xb", "0xc", "0xd", "0xe"}, HexList(out))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"nil felt", (*felt.Felt)(nil)},
		{"negative int", -1},
		{"bad string", "xyz"},
		{"unsupported", 1.5},
		{"nil array element", []*felt.Felt{nil}},
		{"nil interface", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.value)
			assert.ErrorIs(t, err, ErrEncoding)
		})
	}
}

func TestReader(t *testing.T) {
	data, err := Compile(uint64(1), []*felt.Felt{FromUint64(2), FromUint64(3)}, uint64(4))
	require.NoError(t, err)

	r := NewReader(data)
	v, err := r.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	arr, err := r.Array()
	require.NoError(t, err)
	assert.Equal(t, []string{"0x2", "0x3"}, HexList(arr))

	assert.Error(t, r.Done())
	f, err := r.Felt()
	require.NoError(t, err)
	assert.Equal(t, "0x4", Hex(f))
	assert.NoError(t, r.Done())

	_, err = r.Felt()
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestReaderArrayTooLong(t *testing.T) {
	r := NewReader([]*felt.Felt{FromUint64(3), FromUint64(1)})
	_, err := r.Array()
	assert.ErrorIs(t, err, ErrEncoding)
}
