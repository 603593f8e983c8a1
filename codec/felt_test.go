package codec

import (
	"math/big"
	"strings"
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFelt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0x5", "0x5"},
		{"0X00ff", "0xff"},
		{"42", "0x2a"},
		{"  0xA1 ", "0xa1"},
		{"deadbeef", "0xdeadbeef"},
		{"10", "0xa"},
		{"1f", "0x1f"},
		{"0x10", "0x10"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := ParseFelt(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Hex(f))
		})
	}
}

func TestParseFeltErrors(t *testing.T) {
	for _, in := range []string{"", "0x", "0xzz", "-1", "1_000", "0x800000000000011000000000000000000000000000000000000000000000001"} {
		_, err := ParseFelt(in)
		assert.ErrorIs(t, err, ErrEncoding, in)
	}
}

func TestFromBigRange(t *testing.T) {
	_, err := FromBig(new(big.Int).Sub(fieldPrime, big.NewInt(1)))
	assert.NoError(t, err)
	_, err = FromBig(fieldPrime)
	assert.ErrorIs(t, err, ErrEncoding)
	_, err = FromBig(nil)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestIntegerConversions(t *testing.T) {
	v, err := ToUint64(FromUint64(1 << 40))
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), v)

	wide := MustParseFelt("0x10000000000000000")
	_, err = ToUint64(wide)
	assert.ErrorIs(t, err, ErrEncoding)

	u, err := ToUint128(wide)
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000", u.Text(16))

	_, err = ToUint128(MustParseFelt("0x100000000000000000000000000000000"))
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestShortStrings(t *testing.T) {
	f, err := EncodeShortString("SN_SEPOLIA")
	require.NoError(t, err)
	assert.Equal(t, "0x534e5f5345504f4c4941", Hex(f))
	assert.Equal(t, "SN_SEPOLIA", DecodeShortString(f))

	assert.Equal(t, "0x414e595f43414c4c4552", Hex(MustEncodeShortString("ANY_CALLER")))

	_, err = EncodeShortString(strings.Repeat("a", 32))
	assert.ErrorIs(t, err, ErrEncoding)
	_, err = EncodeShortString("héllo")
	assert.ErrorIs(t, err, ErrEncoding)

	empty, err := EncodeShortString("")
	require.NoError(t, err)
	assert.Equal(t, "0x0", Hex(empty))
}

func TestSelector(t *testing.T) {
	assert.Equal(t, "0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e", Hex(Selector("transfer")))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(FromUint64(1), nil))
	assert.True(t, Equal(FromUint64(1), MustParseFelt("1")))
}

func TestFeltLists(t *testing.T) {
	fs, err := ParseFeltList([]string{"0x1", "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0x1", "0x2"}, HexList(fs))

	_, err = ParseFeltList([]string{"0x1", "nope"})
	assert.ErrorIs(t, err, ErrEncoding)

	assert.Empty(t, HexList([]*felt.Felt{}))
}
