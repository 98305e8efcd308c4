package rlwe

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/latticeforge/fhe-eval/utils/bignum"
	"github.com/latticeforge/fhe-eval/utils/buffer"
)

// ScalePrecision is the default precision in bits for the big.Float
// values backing a Scale.
const ScalePrecision = uint(128)

// Scale is a struct that represents a numerical value along with its
// scaling factor and level. BFV does not have an explicit scale, but
// its plaintext modulus and exact-arithmetic encodings are expressed
// through this same type so that scheme-agnostic code (modulus
// switching, relinearization, dispatch validation) can reason about
// "scale" uniformly for BFV and CKKS ciphertexts.
type Scale struct {
	Value big.Float
}

// NewScale instantiates a new Scale. The given value can be of type
// Scale, uint64, int64, int, float64, *big.Float or *big.Int.
func NewScale(v interface{}) (s Scale) {
	s = Scale{Value: *bignum.ToFloat(v, ScalePrecision)}
	return
}

// NewScaleModT instantiates a new Scale for the exact-arithmetic (BFV)
// setting, where the effective scaling factor is T^{-1} mod Q, computed
// lazily by the caller; it is a plain wrapper identical to NewScale and
// exists to make call sites self-documenting.
func NewScaleModT(v interface{}) Scale {
	return NewScale(v)
}

// Mul multiplies the target Scale with s2 and returns the result in a
// new Scale struct.
func (s Scale) Mul(s2 Scale) (sout Scale) {
	sout = Scale{}
	sout.Value.Mul(&s.Value, &s2.Value)
	return
}

// Div divides the target Scale by s2 and returns the result in a new
// Scale struct.
func (s Scale) Div(s2 Scale) (sout Scale) {
	sout = Scale{}
	sout.Value.Quo(&s.Value, &s2.Value)
	return
}

// Cmp compares the target Scale with s2. It returns 0 if the two
// scales are equal, -1 if the target is smaller and 1 if the target
// is bigger.
func (s Scale) Cmp(s2 Scale) int {
	return s.Value.Cmp(&s2.Value)
}

// Max returns the largest of the target Scale and s2.
func (s Scale) Max(s2 Scale) Scale {
	if s.Cmp(s2) < 0 {
		return s2
	}
	return s
}

// InDelta returns true if the target Scale and s2 differ by a
// multiplicative factor smaller than 2^{-delta}.
func (s Scale) InDelta(s2 Scale, delta float64) bool {
	if s.Value.Sign() == 0 || s2.Value.Sign() == 0 {
		return s.Value.Sign() == s2.Value.Sign()
	}

	ratio := new(big.Float).Quo(&s.Value, &s2.Value)
	ratio.Sub(ratio, new(big.Float).SetInt64(1))
	ratio.Abs(ratio)

	f, _ := ratio.Float64()

	return f < math.Exp2(-delta)
}

// Equal returns true if the target Scale and s2 are equal.
func (s Scale) Equal(s2 Scale) bool {
	return s.Cmp(s2) == 0
}

// Uint64 returns the receiver rounded to the nearest uint64.
func (s Scale) Uint64() uint64 {
	u, _ := s.Value.Uint64()
	return u
}

// Float64 returns the receiver as a float64.
func (s Scale) Float64() float64 {
	f, _ := s.Value.Float64()
	return f
}

// Log2 returns log2(scale), used to report the current precision in bits of
// a CKKS plaintext or ciphertext.
func (s Scale) Log2() float64 {
	return math.Log2(s.Float64())
}

// CopyNew creates a new Scale that is a copy of the target one.
func (s Scale) CopyNew() (sout Scale) {
	sout = Scale{}
	sout.Value.Copy(&s.Value)
	return
}

// BinarySize returns the serialized size of the object in bytes.
func (s Scale) BinarySize() int {
	return 8
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
func (s Scale) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:
		f, _ := s.Value.Float64()
		var inc int64
		if inc, err = buffer.WriteAsUint64(w, math.Float64bits(f)); err != nil {
			return n + inc, err
		}
		return n + inc, nil
	default:
		return s.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface.
func (s *Scale) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:
		var bits uint64
		var inc int64
		if inc, err = buffer.ReadAsUint64(r, &bits); err != nil {
			return n + inc, err
		}
		s.Value = *new(big.Float).SetPrec(ScalePrecision).SetFloat64(math.Float64frombits(bits))
		return n + inc, nil
	default:
		return s.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinarySize is an alias of BinarySize, kept for naming parity
// with types that expose both a generic BinarySize and a scheme
// specific MarshalBinarySize.
func (s Scale) MarshalBinarySize() int {
	return s.BinarySize()
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (s Scale) MarshalBinary() (data []byte, err error) {
	buf := buffer.NewBufferSize(s.BinarySize())
	_, err = s.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (s *Scale) UnmarshalBinary(data []byte) (err error) {
	_, err = s.ReadFrom(buffer.NewBuffer(data))
	return
}

// MarshalJSON encodes the scale's value as a decimal string.
func (s Scale) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.Value.Text('f', -1))), nil
}

// UnmarshalJSON decodes a scale encoded by MarshalJSON.
func (s *Scale) UnmarshalJSON(data []byte) (err error) {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	v, _, err := big.ParseFloat(str, 10, ScalePrecision, big.ToNearestEven)
	if err != nil {
		return err
	}
	s.Value = *v
	return nil
}
