package hefloat

import (
	"fmt"
	"math"
	"math/big"

	"github.com/latticeforge/fhe-eval/ring"
	"github.com/latticeforge/fhe-eval/rlwe"
	"github.com/latticeforge/fhe-eval/utils"
	"github.com/latticeforge/fhe-eval/utils/bignum"
)

// GaloisGen is an integer of order N/2 modulo M and that spans Z_M with the integer -1.
// The j-th ring automorphism takes the root zeta to zeta^(5j).
const GaloisGen uint64 = ring.GaloisGen

// Encoder is a type that implements the encoding and decoding interface for the CKKS
// scheme. It provides methods to encode/decode []complex128/[]bignum.Complex and
// []float64/[]big.Float types into/from Plaintext types.
//
// Two different encoding domains are provided:
//
//   - Coefficients: the values are directly embedded as the coefficients of the
//     plaintext polynomial. This only accepts []float64/[]big.Float slices of size up
//     to N and does not preserve point-wise multiplication under ciphertext
//     multiplication (which instead yields a negacyclic convolution).
//
//   - Slots: the values are first mapped through a special Fourier transform before
//     being embedded via the coefficient encoding. This accepts []complex128,
//     []bignum.Complex, []float64 and []big.Float slices of size at most N/2 and
//     preserves point-wise complex multiplication, i.e. a ciphertext multiplication
//     results in an element-wise multiplication in the plaintext domain. It also
//     enables cyclic rotation of plaintext slots and is the default CKKS encoding.
type Encoder struct {
	parameters Parameters

	prec uint

	m        int
	rotGroup []int

	roots interface{}

	buffQ ring.RNSPoly
	buffB []big.Int

	buffComplex interface{}
}

// NewEncoder creates a new Encoder from the target parameters. The optional
// precision argument overrides the parameters' default encoding precision: a
// precision <= 53 selects the float64/complex128 fast path, anything above
// selects the arbitrary-precision big.Float/bignum.Complex path.
func NewEncoder(parameters Parameters, precision ...uint) (ecd *Encoder) {

	m := int(parameters.RingQ().NthRoot())

	rotGroup := make([]int, m>>2)
	fivePows := 1
	for i := 0; i < m>>2; i++ {
		rotGroup[i] = fivePows
		fivePows *= int(GaloisGen)
		fivePows &= m - 1
	}

	var prec uint
	if len(precision) != 0 && precision[0] != 0 {
		prec = precision[0]
	} else {
		prec = parameters.EncodingPrecision()
	}

	ecd = &Encoder{
		prec:       prec,
		parameters: parameters,
		m:          m,
		rotGroup:   rotGroup,
		buffQ:      parameters.RingQ().NewRNSPoly(),
	}

	if parameters.LogMaxDimensions().Cols < parameters.LogN() {
		ecd.buffB = make([]big.Int, parameters.N())
	}

	if prec <= 53 {
		ecd.roots = GetRootsComplex128(m)
		ecd.buffComplex = make([]complex128, m>>2)
	} else {
		ecd.roots = GetRootsBigComplex(m, prec)
		buff := make([]bignum.Complex, m>>2)
		for i := range buff {
			buff[i].SetPrec(prec)
		}
		ecd.buffComplex = buff
	}

	return
}

// Prec returns the precision in bits used by the target Encoder. A precision
// <= 53 uses float64, else big.Float.
func (ecd Encoder) Prec() uint {
	return ecd.prec
}

// GetParameters returns the CKKS parameters used by the target Encoder.
func (ecd Encoder) GetParameters() Parameters {
	return ecd.parameters
}

// GetRLWEParameters returns the underlying rlwe.Parameters of the target object.
func (ecd Encoder) GetRLWEParameters() *rlwe.Parameters {
	return &ecd.parameters.Parameters
}

// Encode encodes values on the target plaintext. Encoding is done at the level and
// scale of the plaintext and follows the domain (Coefficients or Slots) selected by
// pt.IsBatched. The imaginary part is discarded if the ring type is ConjugateInvariant.
// The caller must ensure that 1 <= len(values) <= 2^pt.LogDimensions.Cols.
func (ecd Encoder) Encode(values interface{}, pt *rlwe.Plaintext) (err error) {
	if pt.IsBatched {
		return ecd.Embed(values, pt.MetaData, pt.Q)
	}

	N := ecd.parameters.N()

	switch values := values.(type) {
	case []float64:

		if len(values) > N {
			return fmt.Errorf("cannot Encode: maximum number of values is %d but len(values) is %d", N, len(values))
		}

		Float64ToFixedPointCRT(ecd.parameters.RingQ().AtLevel(pt.Level()), values, pt.Scale.Float64(), pt.Q)

	case []big.Float:

		if len(values) > N {
			return fmt.Errorf("cannot Encode: maximum number of values is %d but len(values) is %d", N, len(values))
		}

		BigFloatToFixedPointCRT(ecd.parameters.RingQ().AtLevel(pt.Level()), values, &pt.Scale.Value, pt.Q)

	default:
		return fmt.Errorf("cannot Encode: supported values.(type) for IsBatched=false is []float64 or []big.Float, but %T was given", values)
	}

	ecd.parameters.RingQ().AtLevel(pt.Level()).NTT(pt.Q, pt.Q)

	return
}

// Decode decodes the input plaintext into values.
func (ecd Encoder) Decode(pt *rlwe.Plaintext, values interface{}) (err error) {
	return ecd.DecodePublic(pt, values, 0)
}

// DecodePublic decodes the input plaintext into values. If logprec is not 0, each
// decoded value is rounded to the nearest multiple of 2^{-logprec} before it is
// written to values; logprec = 0 disables the rounding.
func (ecd Encoder) DecodePublic(pt *rlwe.Plaintext, values interface{}, logprec float64) (err error) {

	logSlots := pt.LogDimensions.Cols
	slots := 1 << logSlots

	if maxLogCols := ecd.parameters.LogMaxDimensions().Cols; logSlots > maxLogCols || logSlots < 0 {
		return fmt.Errorf("cannot Decode: ensure that 0 <= logSlots (%d) <= %d", logSlots, maxLogCols)
	}

	buff := ecd.parameters.RingQ().NewRNSPoly()
	if pt.IsNTT {
		ecd.parameters.RingQ().AtLevel(pt.Level()).INTT(pt.Q, buff)
	} else {
		buff.CopyLvl(pt.Level(), &pt.Q)
	}

	switch values.(type) {
	case []complex128, []float64, []bignum.Complex, []big.Float:
	default:
		return fmt.Errorf("cannot Decode: values.(type) accepted are []complex128, []float64, []bignum.Complex, []big.Float but is %T", values)
	}

	if !pt.IsBatched {
		return ecd.plaintextToFloat(pt.Level(), pt.Scale, logSlots, buff, values)
	}

	if ecd.prec <= 53 {

		buffCmplx := ecd.buffComplex.([]complex128)

		if err = ecd.plaintextToComplex(pt.Level(), pt.Scale, logSlots, buff, buffCmplx[:slots]); err != nil {
			return
		}

		if err = ecd.FFT(buffCmplx[:slots], logSlots); err != nil {
			return
		}

		if logprec != 0 {
			scale := math.Exp2(logprec)
			for i := 0; i < slots; i++ {
				re := math.Round(real(buffCmplx[i])*scale) / scale
				var im float64
				if _, isReal := values.([]float64); !isReal {
					im = math.Round(imag(buffCmplx[i])*scale) / scale
				}
				buffCmplx[i] = complex(re, im)
			}
		}

		switch values := values.(type) {
		case []float64:
			n := utils.Min(len(values), slots)
			for i := 0; i < n; i++ {
				values[i] = real(buffCmplx[i])
			}
		case []complex128:
			copy(values, buffCmplx)
		case []big.Float:
			n := utils.Min(len(values), slots)
			for i := 0; i < n; i++ {
				values[i].SetFloat64(real(buffCmplx[i]))
			}
		case []bignum.Complex:
			n := utils.Min(len(values), slots)
			for i := 0; i < n; i++ {
				values[i][0].SetFloat64(real(buffCmplx[i]))
				values[i][1].SetFloat64(imag(buffCmplx[i]))
			}
		}

		return
	}

	buffCmplx := ecd.buffComplex.([]bignum.Complex)

	if err = ecd.plaintextToComplex(pt.Level(), pt.Scale, logSlots, buff, buffCmplx[:slots]); err != nil {
		return
	}

	if err = ecd.FFT(buffCmplx[:slots], logSlots); err != nil {
		return
	}

	if logprec != 0 {
		scale := new(big.Float).SetFloat64(math.Exp2(logprec))
		r := new(big.Int)
		for i := 0; i < slots; i++ {
			for j := range buffCmplx[i] {
				v := &buffCmplx[i][j]
				v.Mul(v, scale)
				v.Add(v, big.NewFloat(math.Copysign(0.5, float64(v.Sign()))))
				v.Int(r)
				v.Quo(v.SetInt(r), scale)
			}
		}
	}

	switch values := values.(type) {
	case []float64:
		n := utils.Min(len(values), slots)
		for i := 0; i < n; i++ {
			values[i], _ = buffCmplx[i][0].Float64()
		}
	case []complex128:
		n := utils.Min(len(values), slots)
		for i := 0; i < n; i++ {
			values[i] = buffCmplx[i].Complex128()
		}
	case []big.Float:
		n := utils.Min(len(values), slots)
		for i := 0; i < n; i++ {
			values[i].Set(&buffCmplx[i][0])
		}
	case []bignum.Complex:
		n := utils.Min(len(values), slots)
		for i := 0; i < n; i++ {
			values[i][0].Set(&buffCmplx[i][0])
			values[i][1].Set(&buffCmplx[i][1])
		}
	}

	return
}

// Embed is a generic method to encode values on the target polyOut, according to
// the given metadata. Accepted polyOut.(type) are ring.Point and ring.RNSPoly. The
// imaginary part is discarded if the ring type is ConjugateInvariant.
func (ecd Encoder) Embed(values interface{}, metadata *rlwe.MetaData, polyOut interface{}) (err error) {
	if ecd.prec <= 53 {
		return ecd.embedDouble(values, metadata, polyOut)
	}
	return ecd.embedArbitrary(values, metadata, polyOut)
}

// embedDouble encodes values on polyOut using complex128 arithmetic.
func (ecd Encoder) embedDouble(values interface{}, metadata *rlwe.MetaData, polyOut interface{}) (err error) {

	if maxLogCols := ecd.parameters.LogMaxDimensions().Cols; metadata.LogDimensions.Cols < 0 || metadata.LogDimensions.Cols > maxLogCols {
		return fmt.Errorf("cannot Embed: logSlots (%d) must be in [0, %d]", metadata.LogDimensions.Cols, maxLogCols)
	}

	slots := 1 << metadata.LogDimensions.Cols

	buffCmplx := ecd.buffComplex.([]complex128)

	var lenValues int
	switch values := values.(type) {
	case []complex128:
		lenValues = len(values)
		if maxCols := ecd.parameters.MaxDimensions().Cols; lenValues > maxCols || lenValues > slots {
			return fmt.Errorf("cannot Embed: ensure that #values (%d) <= slots (%d) <= maxCols (%d)", lenValues, slots, maxCols)
		}
		if ecd.parameters.RingType() == ring.ConjugateInvariant {
			for i := range values {
				buffCmplx[i] = complex(real(values[i]), 0)
			}
		} else {
			copy(buffCmplx[:lenValues], values)
		}
	case []bignum.Complex:
		lenValues = len(values)
		if maxCols := ecd.parameters.MaxDimensions().Cols; lenValues > maxCols || lenValues > slots {
			return fmt.Errorf("cannot Embed: ensure that #values (%d) <= slots (%d) <= maxCols (%d)", lenValues, slots, maxCols)
		}
		if ecd.parameters.RingType() == ring.ConjugateInvariant {
			for i := range values {
				f64, _ := values[i][0].Float64()
				buffCmplx[i] = complex(f64, 0)
			}
		} else {
			for i := range values {
				buffCmplx[i] = values[i].Complex128()
			}
		}
	case []float64:
		lenValues = len(values)
		if maxCols := ecd.parameters.MaxDimensions().Cols; lenValues > maxCols || lenValues > slots {
			return fmt.Errorf("cannot Embed: ensure that #values (%d) <= slots (%d) <= maxCols (%d)", lenValues, slots, maxCols)
		}
		for i := range values {
			buffCmplx[i] = complex(values[i], 0)
		}
	case []big.Float:
		lenValues = len(values)
		if maxCols := ecd.parameters.MaxDimensions().Cols; lenValues > maxCols || lenValues > slots {
			return fmt.Errorf("cannot Embed: ensure that #values (%d) <= slots (%d) <= maxCols (%d)", lenValues, slots, maxCols)
		}
		for i := range values {
			f64, _ := values[i].Float64()
			buffCmplx[i] = complex(f64, 0)
		}
	default:
		return fmt.Errorf("cannot Embed: values.(type) must be []complex128, []bignum.Complex, []float64 or []big.Float, but is %T", values)
	}

	for i := lenValues; i < slots; i++ {
		buffCmplx[i] = 0
	}

	if err = ecd.IFFT(buffCmplx[:slots], metadata.LogDimensions.Cols); err != nil {
		return
	}

	switch p := polyOut.(type) {
	case ring.Point:

		Complex128ToFixedPointCRT(ecd.parameters.RingQ().AtLevel(p.Q.Level()), buffCmplx[:slots], metadata.Scale.Float64(), p.Q)
		rlwe.NTTSparseAndMontgomery(ecd.parameters.RingQ().AtLevel(p.Q.Level()), metadata, p.Q)

		if p.P.Level() > -1 {
			Complex128ToFixedPointCRT(ecd.parameters.RingP().AtLevel(p.P.Level()), buffCmplx[:slots], metadata.Scale.Float64(), p.P)
			rlwe.NTTSparseAndMontgomery(ecd.parameters.RingP().AtLevel(p.P.Level()), metadata, p.P)
		}

	case ring.RNSPoly:

		Complex128ToFixedPointCRT(ecd.parameters.RingQ().AtLevel(p.Level()), buffCmplx[:slots], metadata.Scale.Float64(), p)
		rlwe.NTTSparseAndMontgomery(ecd.parameters.RingQ().AtLevel(p.Level()), metadata, p)

	default:
		return fmt.Errorf("cannot Embed: invalid polyOut.(type), must be ring.Point or ring.RNSPoly")
	}

	return
}

// embedArbitrary encodes values on polyOut using big.Float/bignum.Complex arithmetic.
func (ecd Encoder) embedArbitrary(values interface{}, metadata *rlwe.MetaData, polyOut interface{}) (err error) {

	if maxLogCols := ecd.parameters.LogMaxDimensions().Cols; metadata.LogDimensions.Cols < 0 || metadata.LogDimensions.Cols > maxLogCols {
		return fmt.Errorf("cannot Embed: logSlots (%d) must be in [0, %d]", metadata.LogDimensions.Cols, maxLogCols)
	}

	slots := 1 << metadata.LogDimensions.Cols

	buffCmplx := ecd.buffComplex.([]bignum.Complex)

	var lenValues int
	switch values := values.(type) {
	case []complex128:
		lenValues = len(values)
		if maxCols := ecd.parameters.MaxDimensions().Cols; lenValues > maxCols || lenValues > slots {
			return fmt.Errorf("cannot Embed: ensure that #values (%d) <= slots (%d) <= maxCols (%d)", lenValues, slots, maxCols)
		}
		if ecd.parameters.RingType() == ring.ConjugateInvariant {
			for i := range values {
				buffCmplx[i][0].SetFloat64(real(values[i]))
				buffCmplx[i][1].SetFloat64(0)
			}
		} else {
			for i := range values {
				buffCmplx[i][0].SetFloat64(real(values[i]))
				buffCmplx[i][1].SetFloat64(imag(values[i]))
			}
		}
	case []bignum.Complex:
		lenValues = len(values)
		if maxCols := ecd.parameters.MaxDimensions().Cols; lenValues > maxCols || lenValues > slots {
			return fmt.Errorf("cannot Embed: ensure that #values (%d) <= slots (%d) <= maxCols (%d)", lenValues, slots, maxCols)
		}
		if ecd.parameters.RingType() == ring.ConjugateInvariant {
			for i := range values {
				buffCmplx[i][0].Set(&values[i][0])
				buffCmplx[i][1].SetFloat64(0)
			}
		} else {
			for i := range values {
				buffCmplx[i].Set(&values[i])
			}
		}
	case []float64:
		lenValues = len(values)
		if maxCols := ecd.parameters.MaxDimensions().Cols; lenValues > maxCols || lenValues > slots {
			return fmt.Errorf("cannot Embed: ensure that #values (%d) <= slots (%d) <= maxCols (%d)", lenValues, slots, maxCols)
		}
		for i := range values {
			buffCmplx[i][0].SetFloat64(values[i])
			buffCmplx[i][1].SetFloat64(0)
		}
	case []big.Float:
		lenValues = len(values)
		if maxCols := ecd.parameters.MaxDimensions().Cols; lenValues > maxCols || lenValues > slots {
			return fmt.Errorf("cannot Embed: ensure that #values (%d) <= slots (%d) <= maxCols (%d)", lenValues, slots, maxCols)
		}
		for i := range values {
			buffCmplx[i][0].Set(&values[i])
			buffCmplx[i][1].SetFloat64(0)
		}
	default:
		return fmt.Errorf("cannot Embed: values.(type) must be []complex128, []bignum.Complex, []float64 or []big.Float, but is %T", values)
	}

	for i := lenValues; i < slots; i++ {
		buffCmplx[i][0].SetFloat64(0)
		buffCmplx[i][1].SetFloat64(0)
	}

	if err = ecd.IFFT(buffCmplx[:slots], metadata.LogDimensions.Cols); err != nil {
		return
	}

	switch p := polyOut.(type) {
	case ring.Point:

		ComplexArbitraryToFixedPointCRT(ecd.parameters.RingQ().AtLevel(p.Q.Level()), buffCmplx[:slots], &metadata.Scale.Value, p.Q)
		rlwe.NTTSparseAndMontgomery(ecd.parameters.RingQ().AtLevel(p.Q.Level()), metadata, p.Q)

		if p.P.Level() > -1 {
			ComplexArbitraryToFixedPointCRT(ecd.parameters.RingP().AtLevel(p.P.Level()), buffCmplx[:slots], &metadata.Scale.Value, p.P)
			rlwe.NTTSparseAndMontgomery(ecd.parameters.RingP().AtLevel(p.P.Level()), metadata, p.P)
		}

	case ring.RNSPoly:

		ComplexArbitraryToFixedPointCRT(ecd.parameters.RingQ().AtLevel(p.Level()), buffCmplx[:slots], &metadata.Scale.Value, p)
		rlwe.NTTSparseAndMontgomery(ecd.parameters.RingQ().AtLevel(p.Level()), metadata, p)

	default:
		return fmt.Errorf("cannot Embed: invalid polyOut.(type), must be ring.Point or ring.RNSPoly")
	}

	return
}

// IFFT evaluates the special 2^{logN}-th encoding discrete Fourier transform in place.
func (ecd Encoder) IFFT(values interface{}, logN int) (err error) {
	switch values := values.(type) {
	case []complex128:
		roots, ok := ecd.roots.([]complex128)
		if !ok {
			return fmt.Errorf("cannot IFFT: values.(type)=%T does not match roots.(type)=%T", values, ecd.roots)
		}
		if logN < 4 {
			SpecialIFFTDouble(values, 1<<logN, ecd.m, ecd.rotGroup, roots)
		} else {
			SpecialIFFTDoubleUL8(values, 1<<logN, ecd.m, ecd.rotGroup, roots)
		}
	case []bignum.Complex:
		roots, ok := ecd.roots.([]bignum.Complex)
		if !ok {
			return fmt.Errorf("cannot IFFT: values.(type)=%T does not match roots.(type)=%T", values, ecd.roots)
		}
		SpecialIFFTArbitrary(values, 1<<logN, ecd.m, ecd.rotGroup, roots)
	default:
		return fmt.Errorf("cannot IFFT: invalid values.(type), accepted types are []complex128 and []bignum.Complex but is %T", values)
	}
	return
}

// FFT evaluates the special 2^{logN}-th decoding discrete Fourier transform in place.
func (ecd Encoder) FFT(values interface{}, logN int) (err error) {
	switch values := values.(type) {
	case []complex128:
		roots, ok := ecd.roots.([]complex128)
		if !ok {
			return fmt.Errorf("cannot FFT: values.(type)=%T does not match roots.(type)=%T", values, ecd.roots)
		}
		if logN < 4 {
			SpecialFFTDouble(values, 1<<logN, ecd.m, ecd.rotGroup, roots)
		} else {
			SpecialFFTDoubleUL8(values, 1<<logN, ecd.m, ecd.rotGroup, roots)
		}
	case []bignum.Complex:
		roots, ok := ecd.roots.([]bignum.Complex)
		if !ok {
			return fmt.Errorf("cannot FFT: values.(type)=%T does not match roots.(type)=%T", values, ecd.roots)
		}
		SpecialFFTArbitrary(values, 1<<logN, ecd.m, ecd.rotGroup, roots)
	default:
		return fmt.Errorf("cannot FFT: invalid values.(type), accepted types are []complex128 and []bignum.Complex but is %T", values)
	}
	return
}

// plaintextToComplex maps a CRT polynomial to a complex valued slice.
func (ecd Encoder) plaintextToComplex(level int, scale rlwe.Scale, logSlots int, p ring.RNSPoly, values interface{}) (err error) {
	isReal := ecd.parameters.RingType() == ring.ConjugateInvariant
	if level == 0 {
		return polyToComplexNoCRT(p.At(0), values, scale, logSlots, isReal, ecd.parameters.RingQ().AtLevel(level))
	}
	return polyToComplexCRT(ecd.parameters.RingQ().AtLevel(level), p, ecd.buffB, values, scale, logSlots, isReal)
}

// plaintextToFloat maps a CRT polynomial to a real valued slice.
func (ecd Encoder) plaintextToFloat(level int, scale rlwe.Scale, logSlots int, p ring.RNSPoly, values interface{}) (err error) {
	if level == 0 {
		return ecd.polyToFloatNoCRT(p.At(0), values, scale, ecd.parameters.RingQ().AtLevel(level))
	}
	return ecd.polyToFloatCRT(p, values, scale, ecd.parameters.RingQ().AtLevel(level))
}

// polyToComplexNoCRT decodes a single-modulus polynomial on a complex valued slice.
func polyToComplexNoCRT(coeffs []uint64, values interface{}, scale rlwe.Scale, logSlots int, isReal bool, r ring.RNSRing) (err error) {

	slots := 1 << logSlots
	maxCols := int(r.NthRoot() >> 2)
	gap := maxCols / slots
	Q := r[0].Modulus

	var c uint64

	switch values := values.(type) {
	case []complex128:

		for i, idx := 0, 0; i < slots; i, idx = i+1, idx+gap {
			c = coeffs[idx]
			if c >= Q>>1 {
				values[i] = complex(-float64(Q-c), 0)
			} else {
				values[i] = complex(float64(c), 0)
			}
		}

		if !isReal {
			for i, idx := 0, maxCols; i < slots; i, idx = i+1, idx+gap {
				c = coeffs[idx]
				if c >= Q>>1 {
					values[i] += complex(0, -float64(Q-c))
				} else {
					values[i] += complex(0, float64(c))
				}
			}
		} else {
			for i := 1; i < slots; i++ {
				values[i] -= complex(0, real(values[slots-i]))
			}
		}

		divideComplex128SliceUL8(values, complex(scale.Float64(), 0))

	case []bignum.Complex:

		for i, idx := 0, 0; i < slots; i, idx = i+1, idx+gap {
			if c = coeffs[idx]; c >= Q>>1 {
				values[i][0].SetInt64(-int64(Q - c))
			} else {
				values[i][0].SetInt64(int64(c))
			}
		}

		if !isReal {
			for i, idx := 0, maxCols; i < slots; i, idx = i+1, idx+gap {
				if c = coeffs[idx]; c >= Q>>1 {
					values[i][1].SetInt64(-int64(Q - c))
				} else {
					values[i][1].SetInt64(int64(c))
				}
			}
		} else {
			for i := 1; i < slots; i++ {
				values[i][1].Sub(&values[i][1], &values[slots-i][0])
			}
		}

		s := &scale.Value
		for i := range values {
			values[i][0].Quo(&values[i][0], s)
			values[i][1].Quo(&values[i][1], s)
		}

	default:
		return fmt.Errorf("cannot polyToComplexNoCRT: values.(type) must be []complex128 or []bignum.Complex but is %T", values)
	}

	return
}

// polyToComplexCRT decodes a multi-modulus polynomial on a complex valued slice.
func polyToComplexCRT(r ring.RNSRing, p ring.RNSPoly, buffB []big.Int, values interface{}, scale rlwe.Scale, logSlots int, isReal bool) (err error) {

	maxCols := int(r.NthRoot() >> 2)
	slots := 1 << logSlots
	gap := maxCols / slots

	r.PolyToBigintCentered(p, gap, buffB)

	switch values := values.(type) {
	case []complex128:

		scalef64 := scale.Float64()

		for i := 0; i < slots; i++ {
			values[i] = complex(scaleDown(&buffB[i], scalef64), 0)
		}

		if !isReal {
			for i, j := 0, slots; i < slots; i, j = i+1, j+1 {
				values[i] += complex(0, scaleDown(&buffB[j], scalef64))
			}
		} else {
			for i := 1; i < slots; i++ {
				values[i] -= complex(0, real(values[slots-i]))
			}
		}

	case []bignum.Complex:

		for i := 0; i < slots; i++ {
			values[i][0].SetInt(&buffB[i])
		}

		if !isReal {
			for i, j := 0, slots; i < slots; i, j = i+1, j+1 {
				values[i][1].SetInt(&buffB[j])
			}
		} else {
			for i := 1; i < slots; i++ {
				values[i][1].Sub(&values[i][1], &values[slots-i][0])
			}
		}

		s := &scale.Value
		for i := range values {
			values[i][0].Quo(&values[i][0], s)
			values[i][1].Quo(&values[i][1], s)
		}

	default:
		return fmt.Errorf("cannot polyToComplexCRT: values.(type) must be []complex128 or []bignum.Complex but is %T", values)
	}

	return
}

// polyToFloatCRT decodes a multi-modulus polynomial on a real valued slice.
func (ecd Encoder) polyToFloatCRT(p ring.RNSPoly, values interface{}, scale rlwe.Scale, r ring.RNSRing) (err error) {

	var slots int
	switch values := values.(type) {
	case []float64:
		slots = utils.Min(len(p.At(0)), len(values))
	case []complex128:
		slots = utils.Min(len(p.At(0)), len(values))
	case []big.Float:
		slots = utils.Min(len(p.At(0)), len(values))
	case []bignum.Complex:
		slots = utils.Min(len(p.At(0)), len(values))
	default:
		return fmt.Errorf("cannot polyToFloatCRT: values.(type) must be []complex128, []bignum.Complex, []float64 or []big.Float but is %T", values)
	}

	r.PolyToBigintCentered(p, 1, ecd.buffB)

	switch values := values.(type) {
	case []float64:
		sf64 := scale.Float64()
		for i := 0; i < slots; i++ {
			values[i] = scaleDown(&ecd.buffB[i], sf64)
		}
	case []complex128:
		sf64 := scale.Float64()
		for i := 0; i < slots; i++ {
			values[i] = complex(scaleDown(&ecd.buffB[i], sf64), 0)
		}
	case []big.Float:
		s := &scale.Value
		for i := 0; i < slots; i++ {
			values[i].SetInt(&ecd.buffB[i])
			values[i].Quo(&values[i], s)
		}
	case []bignum.Complex:
		s := &scale.Value
		for i := 0; i < slots; i++ {
			values[i][0].SetInt(&ecd.buffB[i])
			values[i][0].Quo(&values[i][0], s)
		}
	}

	return
}

// polyToFloatNoCRT decodes a single-modulus polynomial on a real valued slice.
func (ecd Encoder) polyToFloatNoCRT(coeffs []uint64, values interface{}, scale rlwe.Scale, r ring.RNSRing) (err error) {

	Q := r[0].Modulus

	var slots int
	switch values := values.(type) {
	case []float64:
		slots = utils.Min(len(coeffs), len(values))
	case []complex128:
		slots = utils.Min(len(coeffs), len(values))
	case []big.Float:
		slots = utils.Min(len(coeffs), len(values))
	case []bignum.Complex:
		slots = utils.Min(len(coeffs), len(values))
	default:
		return fmt.Errorf("cannot polyToFloatNoCRT: values.(type) must be []complex128, []bignum.Complex, []float64 or []big.Float but is %T", values)
	}

	switch values := values.(type) {
	case []float64:
		sf64 := scale.Float64()
		for i := 0; i < slots; i++ {
			if coeffs[i] >= Q>>1 {
				values[i] = -float64(Q-coeffs[i]) / sf64
			} else {
				values[i] = float64(coeffs[i]) / sf64
			}
		}
	case []complex128:
		sf64 := scale.Float64()
		for i := 0; i < slots; i++ {
			if coeffs[i] >= Q>>1 {
				values[i] = complex(-float64(Q-coeffs[i])/sf64, 0)
			} else {
				values[i] = complex(float64(coeffs[i])/sf64, 0)
			}
		}
	case []big.Float:
		s := &scale.Value
		for i := 0; i < slots; i++ {
			if coeffs[i] >= Q>>1 {
				values[i].SetInt64(-int64(Q - coeffs[i]))
			} else {
				values[i].SetInt64(int64(coeffs[i]))
			}
			values[i].Quo(&values[i], s)
		}
	case []bignum.Complex:
		s := &scale.Value
		for i := 0; i < slots; i++ {
			if coeffs[i] >= Q>>1 {
				values[i][0].SetInt64(-int64(Q - coeffs[i]))
			} else {
				values[i][0].SetInt64(int64(coeffs[i]))
			}
			values[i][0].Quo(&values[i][0], s)
		}
	}

	return
}

// ShallowCopy returns a lightweight copy of the target object that can be used
// concurrently with the original object.
func (ecd Encoder) ShallowCopy() *Encoder {

	var buffB []big.Int
	if ecd.parameters.LogMaxDimensions().Cols < ecd.parameters.LogN() {
		buffB = make([]big.Int, ecd.parameters.N())
	}

	var buffComplex interface{}
	if ecd.prec <= 53 {
		buffComplex = make([]complex128, ecd.m>>2)
	} else {
		buff := make([]bignum.Complex, ecd.m>>2)
		for i := range buff {
			buff[i].SetPrec(ecd.prec)
		}
		buffComplex = buff
	}

	return &Encoder{
		prec:        ecd.prec,
		parameters:  ecd.parameters,
		m:           ecd.m,
		rotGroup:    ecd.rotGroup,
		roots:       ecd.roots,
		buffQ:       ecd.parameters.RingQ().NewRNSPoly(),
		buffB:       buffB,
		buffComplex: buffComplex,
	}
}
