package codec

import (
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
)

// Serializer is implemented by structured values that know their Cairo serialization.
type Serializer interface {
	CairoSerialize() ([]*felt.Felt, error)
}

// Compile flattens values into calldata. Supported values are field elements, unsigned
// integers, big integers, numeric strings, Serializers and slices of field elements, which
// are prefixed with their length.
func Compile(values ...interface{}) ([]*felt.Felt, error) {
	out := make([]*felt.Felt, 0, len(values))
	for i, v := range values {
		encoded, err := compileValue(v)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out = append(out, encoded...)
	}
	return out, nil
}

func compileValue(v interface{}) ([]*felt.Felt, error) {
	switch t := v.(type) {
	case *felt.Felt:
		if t == nil {
			return nil, fmt.Errorf("%w: nil field element", ErrEncoding)
		}
		return []*felt.Felt{t}, nil
	case uint64:
		return []*felt.Felt{FromUint64(t)}, nil
	case uint32:
		return []*felt.Felt{FromUint64(uint64(t))}, nil
	case int:
		if t < 0 {
			return nil, fmt.Errorf("%w: negative integer %d", ErrEncoding, t)
		}
		return []*felt.Felt{FromUint64(uint64(t))}, nil
	case *big.Int:
		f, err := FromBig(t)
		if err != nil {
			return nil, err
		}
		return []*felt.Felt{f}, nil
	case string:
		f, err := ParseFelt(t)
		if err != nil {
			return nil, err
		}
		return []*felt.Felt{f}, nil
	case []*felt.Felt:
		out := make([]*felt.Felt, 0, len(t)+1)
		out = append(out, FromUint64(uint64(len(t))))
		for _, e := range t {
			if e == nil {
				return nil, fmt.Errorf("%w: nil array element", ErrEncoding)
			}
			out = append(out, e)
		}
		return out, nil
	case Serializer:
		return t.CairoSerialize()
	default:
		return nil, fmt.Errorf("%w: unsupported calldata type %T", ErrEncoding, v)
	}
}

// Reader consumes calldata sequentially.
type Reader struct {
	data []*felt.Felt
	pos  int
}

// NewReader returns a Reader over data.
func NewReader(data []*felt.Felt) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread elements.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Felt reads a single element.
func (r *Reader) Felt() (*felt.Felt, error) {
	if r.pos >= len(r.data) {
		return nil, fmt.Errorf("%w: calldata too short at offset %d", ErrEncoding, r.pos)
	}
	f := r.data[r.pos]
	r.pos++
	return f, nil
}

// Uint64 reads an element that must fit in 64 bits.
func (r *Reader) Uint64() (uint64, error) {
	f, err := r.Felt()
	if err != nil {
		return 0, err
	}
	return ToUint64(f)
}

// Array reads a length-prefixed array of elements.
func (r *Reader) Array() ([]*felt.Felt, error) {
	n, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%w: array length %d exceeds remaining calldata", ErrEncoding, n)
	}
	out := make([]*felt.Felt, n)
	copy(out, r.data[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}

// Done returns an error if unread elements remain.
func (r *Reader) Done() error {
	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing calldata elements", ErrEncoding, r.Remaining())
	}
	return nil
}
