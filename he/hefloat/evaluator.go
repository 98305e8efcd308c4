package hefloat

import (
	"fmt"
	"math/big"

	"github.com/latticeforge/fhe-eval/ring"
	"github.com/latticeforge/fhe-eval/rlwe"
	"github.com/latticeforge/fhe-eval/utils/bignum"
)

// Evaluator is a struct that holds the necessary elements to perform the homomorphic
// operations between ciphertexts and/or plaintexts. It also holds a memory buffer
// used to store intermediate computations.
type Evaluator struct {
	*rlwe.Evaluator
	*Encoder
	parameters Parameters
}

// NewEvaluator creates a new Evaluator, that can be used to do homomorphic
// operations on ciphertexts and/or plaintexts. It stores a memory buffer
// and ciphertexts that will be used for intermediate values.
func NewEvaluator(parameters Parameters, evk rlwe.EvaluationKeySet) *Evaluator {
	return &Evaluator{
		Evaluator:  rlwe.NewEvaluator(parameters.Parameters, evk),
		Encoder:    NewEncoder(parameters),
		parameters: parameters,
	}
}

// GetParameters returns a pointer to the underlying hefloat.Parameters.
func (eval Evaluator) GetParameters() *Parameters {
	return &eval.parameters
}

// GetRLWEParameters returns a pointer to the underlying rlwe.Parameters.
func (eval Evaluator) GetRLWEParameters() *rlwe.Parameters {
	return eval.Evaluator.GetRLWEParameters()
}

// ShallowCopy creates a shallow copy of this Evaluator in which the read-only
// data-structures are shared with the receiver.
func (eval Evaluator) ShallowCopy() *Evaluator {
	return &Evaluator{
		Evaluator:  eval.Evaluator.ShallowCopy(),
		Encoder:    eval.Encoder.ShallowCopy(),
		parameters: eval.parameters,
	}
}

// WithKey creates a shallow copy of this Evaluator in which the read-only
// data-structures are shared with the receiver but the EvaluationKey is evk.
func (eval Evaluator) WithKey(evk rlwe.EvaluationKeySet) *Evaluator {
	return &Evaluator{
		Evaluator:  eval.Evaluator.WithKey(evk),
		Encoder:    eval.Encoder,
		parameters: eval.parameters,
	}
}

// LevelsConsumedPerRescaling returns the number of levels consumed by a rescaling.
func (eval Evaluator) LevelsConsumedPerRescaling() int {
	return eval.parameters.LevelsConsumedPerRescaling()
}

func (eval Evaluator) newCiphertextBinary(op0, op1 rlwe.Element) (op2 *rlwe.Ciphertext) {
	return NewCiphertext(eval.parameters, max(op0.Degree(), op1.Degree()), min(op0.Level(), op1.Level()))
}

// Add adds op1 to op0 and returns the result in op2.
// The following types are accepted for op1:
//   - [rlwe.Element]
//   - *big.Float, *bignum.Complex, complex128, float64, *big.Int, uint64, int64, int
//   - []big.Float, []bignum.Complex, []complex128 or []float64
//
// If op1 is an [rlwe.Element] and the scales of op0 and op1 do not match, the operand
// with the smaller scale is scaled up by the integer ratio between the two scales before
// the addition is carried out. For this reason it is preferable to ensure that all
// operands are already at the same scale when calling this method.
func (eval Evaluator) Add(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext) (err error) {
	return eval.addition(op0, op1, op2, true)
}

// AddNew adds op1 to op0 and returns the result in a new *rlwe.Ciphertext op2.
func (eval Evaluator) AddNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (op2 *rlwe.Ciphertext, err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:
		op2 = eval.newCiphertextBinary(op0, op1)
	default:
		op2 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	}
	return op2, eval.Add(op0, op1, op2)
}

// Sub subtracts op1 from op0 and returns the result in op2.
func (eval Evaluator) Sub(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext) (err error) {
	return eval.addition(op0, op1, op2, false)
}

// SubNew subtracts op1 from op0 and returns the result in a new *rlwe.Ciphertext op2.
func (eval Evaluator) SubNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (op2 *rlwe.Ciphertext, err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:
		op2 = eval.newCiphertextBinary(op0, op1)
	default:
		op2 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	}
	return op2, eval.Sub(op0, op1, op2)
}

func (eval Evaluator) addition(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext, positive bool) (err error) {

	rQ := eval.parameters.RingQ()

	switch op1 := op1.(type) {
	case rlwe.Element:

		el1 := op1.AsCiphertext()

		degree, level, err := eval.InitOutputBinaryOp(op0, el1, op0.Degree()+op1.Degree(), op2)
		if err != nil {
			return fmt.Errorf("cannot Add: %w", err)
		}

		op2.ResizeQ(level)
		op2.ResizeDegree(degree)

		if positive {
			if op0.Scale.Cmp(el1.Scale) == 0 {
				eval.evaluateInPlace(level, op0, el1, op2, rQ.AtLevel(level).Add)
			} else {
				eval.matchScaleThenEvaluateInPlace(level, op0, el1, op2, rQ.AtLevel(level).Add)
			}
		} else {
			if op0.Scale.Cmp(el1.Scale) == 0 {
				eval.evaluateInPlace(level, op0, el1, op2, rQ.AtLevel(level).Sub)
			} else {
				eval.matchScaleThenEvaluateInPlace(level, op0, el1, op2, rQ.AtLevel(level).Sub)
			}
		}

	case complex128, float64, *big.Float, *bignum.Complex, *big.Int, uint64, int64, int,
		[]complex128, []float64, []big.Float, []bignum.Complex:

		_, level, err := eval.InitOutputUnaryOp(op0, op2)
		if err != nil {
			return fmt.Errorf("cannot Add: %w", err)
		}

		op2.ResizeQ(level)
		op2.ResizeDegree(op0.Degree())

		pt, err := rlwe.NewPlaintextAtLevelFromPoly(level, -1, eval.BuffQ[0], ring.RNSPoly{})

		// This error should not happen, unless the evaluator's buffer were
		// improperly tempered with. If it does happen, there is no way to
		// recover from it.
		if err != nil {
			panic(err)
		}

		pt.MetaData = op0.MetaData.Clone()

		values := broadcastToSlots(op1, 1<<op0.LogDimensions.Cols)

		if err := eval.Encoder.Encode(values, pt); err != nil {
			return fmt.Errorf("cannot Add: %w", err)
		}

		if op2 != op0 {
			op2.ResizeDegree(op0.Degree())
			for i := 1; i < op0.Degree()+1; i++ {
				op2.Q[i].CopyLvl(level, &op0.Q[i])
			}
		}

		if positive {
			rQ.AtLevel(level).Add(op0.Q[0], pt.Q, op2.Q[0])
		} else {
			rQ.AtLevel(level).Sub(op0.Q[0], pt.Q, op2.Q[0])
		}

		op2.Scale = op0.Scale

	default:
		return fmt.Errorf("invalid op1.(Type), expected rlwe.Element or a scalar/slice of numerical values, but got %T", op1)
	}

	return
}

// broadcastToSlots expands a scalar addend into a slice of size n so that it can be
// encoded and added homomorphically to every slot of a batched plaintext. Slice
// addends are returned unchanged.
func broadcastToSlots(v interface{}, n int) interface{} {
	switch v := v.(type) {
	case []complex128, []float64, []big.Float, []bignum.Complex:
		return v
	case complex128:
		s := make([]complex128, n)
		for i := range s {
			s[i] = v
		}
		return s
	case float64:
		s := make([]complex128, n)
		for i := range s {
			s[i] = complex(v, 0)
		}
		return s
	case *big.Int:
		f := *new(big.Float).SetInt(v)
		s := make([]big.Float, n)
		for i := range s {
			s[i] = f
		}
		return s
	case uint64:
		return broadcastToSlots(float64(v), n)
	case int64:
		return broadcastToSlots(float64(v), n)
	case int:
		return broadcastToSlots(float64(v), n)
	case *big.Float:
		s := make([]big.Float, n)
		for i := range s {
			s[i] = *v
		}
		return s
	case *bignum.Complex:
		s := make([]bignum.Complex, n)
		for i := range s {
			s[i] = *v
		}
		return s
	default:
		return v
	}
}

func (eval Evaluator) evaluateInPlace(level int, el0, el1, elOut *rlwe.Ciphertext, evaluate func(ring.RNSPoly, ring.RNSPoly, ring.RNSPoly)) {

	smallest, largest, _ := rlwe.GetSmallestLargest(el0, el1)

	for i := 0; i < smallest.Degree()+1; i++ {
		evaluate(el0.Q[i], el1.Q[i], elOut.Q[i])
	}

	// If the inputs degrees differ, it copies the remaining degree on the receiver.
	if largest.Vector != nil && largest.Vector != elOut.Vector {
		for i := smallest.Degree() + 1; i < largest.Degree()+1; i++ {
			elOut.Q[i].CopyLvl(level, &largest.Q[i])
		}
	}

	elOut.Scale = el0.Scale
}

// matchScaleThenEvaluateInPlace scales up the operand of smallest scale by the
// rounded integer ratio between the two scales, so that the addition/subtraction
// is performed between operands of (approximately) equal scale.
func (eval Evaluator) matchScaleThenEvaluateInPlace(level int, el0, el1, elOut *rlwe.Ciphertext, evaluate func(ring.RNSPoly, ring.RNSPoly, ring.RNSPoly)) {

	rQ := eval.parameters.RingQ().AtLevel(level)

	if el0.Scale.Cmp(el1.Scale) > 0 {

		ratio := new(big.Int)
		new(big.Float).Quo(&el0.Scale.Value, &el1.Scale.Value).Int(ratio)

		for i := 0; i < el1.Degree()+1; i++ {
			rQ.MulScalarBigint(el1.Q[i], ratio, elOut.Q[i])
		}

		for i := el1.Degree() + 1; i < elOut.Degree()+1; i++ {
			elOut.Q[i].Zero()
		}

		for i := 0; i < el0.Degree()+1; i++ {
			evaluate(el0.Q[i], elOut.Q[i], elOut.Q[i])
		}

		elOut.Scale = el0.Scale

	} else {

		ratio := new(big.Int)
		new(big.Float).Quo(&el1.Scale.Value, &el0.Scale.Value).Int(ratio)

		for i := 0; i < el0.Degree()+1; i++ {
			rQ.MulScalarBigint(el0.Q[i], ratio, elOut.Q[i])
		}

		for i := el0.Degree() + 1; i < elOut.Degree()+1; i++ {
			elOut.Q[i].Zero()
		}

		for i := 0; i < el1.Degree()+1; i++ {
			evaluate(elOut.Q[i], el1.Q[i], elOut.Q[i])
		}

		elOut.Scale = el1.Scale
	}
}

// DropLevel reduces the level of op0 by levels. No rescaling is applied during this procedure.
func (eval Evaluator) DropLevel(op0 *rlwe.Ciphertext, levels int) {
	op0.ResizeQ(op0.Level() - levels)
}

// DropLevelNew reduces the level of op0 by levels and returns the result in a newly created element.
func (eval Evaluator) DropLevelNew(op0 *rlwe.Ciphertext, levels int) (op1 *rlwe.Ciphertext) {
	op1 = op0.Clone()
	eval.DropLevel(op1, levels)
	return
}

// ScaleUp multiplies op0 by a scalar such that its new scale becomes scale, and returns the result in op1.
func (eval Evaluator) ScaleUp(op0 *rlwe.Ciphertext, scale rlwe.Scale, op1 *rlwe.Ciphertext) (err error) {

	ratio := new(big.Int)
	new(big.Float).Quo(&scale.Value, &op0.Scale.Value).Int(ratio)

	rQ := eval.parameters.RingQ().AtLevel(op0.Level())

	for i := range op0.Q {
		rQ.MulScalarBigint(op0.Q[i], ratio, op1.Q[i])
	}

	*op1.MetaData = *op0.MetaData
	op1.Scale = op0.Scale.Mul(eval.parameters.NewScale(ratio))

	return
}

// ScaleUpNew multiplies op0 by a scalar such that its new scale becomes scale, and returns the result in a new ciphertext.
func (eval Evaluator) ScaleUpNew(op0 *rlwe.Ciphertext, scale rlwe.Scale) (op1 *rlwe.Ciphertext, err error) {
	op1 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	return op1, eval.ScaleUp(op0, scale, op1)
}

// SetScale sets the scale of op0 to scale, multiplying its coefficients by the
// integer ratio between the two scales.
func (eval Evaluator) SetScale(op0 *rlwe.Ciphertext, scale rlwe.Scale) (err error) {
	return eval.ScaleUp(op0, scale, op0)
}

// Rescale divides op0 by LevelsConsumedPerRescaling() primes of the moduli
// chain (1 in PREC64, 2 in PREC128), updates its scale accordingly and writes
// the result in op2. The level of op0 must be at least LevelsConsumedPerRescaling().
func (eval Evaluator) Rescale(op0, op2 *rlwe.Ciphertext) (err error) {

	if op0.MetaData == nil || op2.MetaData == nil {
		return fmt.Errorf("cannot Rescale: op0.MetaData or op2.MetaData is nil")
	}

	nbRescales := eval.LevelsConsumedPerRescaling()

	if op0.Level() < nbRescales {
		return fmt.Errorf("cannot rescale: op0.Level() < LevelsConsumedPerRescaling()")
	}

	if op2.Level() < op0.Level()-nbRescales {
		return fmt.Errorf("cannot rescale: op2.Level() < op0.Level()-LevelsConsumedPerRescaling()")
	}

	if op2 != op0 {
		op2.ResizeQ(op0.Level())
		op2.ResizeDegree(op0.Degree())
		for i := range op0.Q {
			op2.Q[i].CopyLvl(op0.Level(), &op0.Q[i])
		}
		*op2.MetaData = *op0.MetaData
	}

	scaleDiv := eval.parameters.NewScale(1)

	for k := 0; k < nbRescales; k++ {

		level := op2.Level()
		rQ := eval.parameters.RingQ().AtLevel(level)

		for i := range op2.Q {
			rQ.DivRoundByLastModulusNTT(op2.Q[i], eval.BuffQ[0], op2.Q[i])
		}

		scaleDiv = scaleDiv.Mul(eval.parameters.NewScale(rQ[level].Modulus))

		op2.ResizeQ(level - 1)
	}

	op2.Scale = op0.Scale.Div(scaleDiv)

	return
}

// RescaleTo divides op0 by as many primes of the moduli chain as needed for the
// new scale to be close to minScale (within a factor of two), and returns the
// result in opOut.
func (eval Evaluator) RescaleTo(op0 *rlwe.Ciphertext, minScale rlwe.Scale, opOut *rlwe.Ciphertext) (err error) {

	if op0.Level() == 0 {
		return fmt.Errorf("cannot RescaleTo: op0 already at level 0")
	}

	*opOut.MetaData = *op0.MetaData

	if opOut != op0 {
		opOut.ResizeQ(op0.Level())
		opOut.ResizeDegree(op0.Degree())
		for i := range op0.Q {
			opOut.Q[i].CopyLvl(op0.Level(), &op0.Q[i])
		}
	}

	half := new(big.Float).Quo(&minScale.Value, big.NewFloat(2))

	nbRescales := eval.LevelsConsumedPerRescaling()

	for opOut.Level() >= nbRescales {

		// Stops if the next rescaling would bring the scale below minScale/2.
		next := opOut.Scale
		for k := 0; k < nbRescales; k++ {
			next = next.Div(eval.parameters.NewScale(eval.parameters.RingQ()[opOut.Level()-k].Modulus))
		}

		if next.Value.Cmp(half) < 0 {
			break
		}

		if err = eval.Rescale(opOut, opOut); err != nil {
			return fmt.Errorf("cannot RescaleTo: %w", err)
		}
	}

	return
}

// Mul multiplies op0 with op1 without relinearization, and returns the result in op2.
// This tensoring increases the ciphertext degree and multiplies the scale of the two
// operands; it will usually need to be followed by a relinearization and a rescaling.
//
// The following types are accepted for op1:
//   - [rlwe.Element]
//   - *big.Float, *bignum.Complex, complex128, float64, *big.Int, uint64, int64, int
//   - []big.Float, []bignum.Complex, []complex128 or []float64
func (eval Evaluator) Mul(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext) (err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:

		el := op1.AsCiphertext()

		_, level, err := eval.InitOutputBinaryOp(op0, el, 2, op2)
		if err != nil {
			return fmt.Errorf("cannot Mul: %w", err)
		}

		op2.ResizeQ(level)

		if err = eval.tensorStandard(op0, el, false, op2); err != nil {
			return fmt.Errorf("cannot Mul: %w", err)
		}

	case complex128, float64, *big.Float, *bignum.Complex, *big.Int, uint64, int64, int,
		[]complex128, []float64, []big.Float, []bignum.Complex:

		_, level, err := eval.InitOutputUnaryOp(op0, op2)
		if err != nil {
			return fmt.Errorf("cannot Mul: %w", err)
		}

		op2.ResizeQ(level)
		op2.ResizeDegree(op0.Degree())

		pt, err := rlwe.NewPlaintextAtLevelFromPoly(level, -1, eval.BuffQ[0], ring.RNSPoly{})
		if err != nil {
			panic(err)
		}

		pt.MetaData = op0.MetaData.Clone()
		pt.Scale = eval.parameters.DefaultScale()

		values := broadcastToSlots(op1, 1<<op0.LogDimensions.Cols)

		if err := eval.Encoder.Encode(values, pt); err != nil {
			return fmt.Errorf("cannot Mul: %w", err)
		}

		if err = eval.tensorStandard(op0, pt.AsCiphertext(), false, op2); err != nil {
			return fmt.Errorf("cannot Mul: %w", err)
		}

	default:
		return fmt.Errorf("invalid op1.(Type), expected rlwe.Element or a scalar/slice of numerical values, but got %T", op1)
	}

	return
}

// MulNew multiplies op0 with op1 without relinearization, and returns the result in a new *rlwe.Ciphertext op2.
func (eval Evaluator) MulNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (op2 *rlwe.Ciphertext, err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:
		op2 = NewCiphertext(eval.parameters, op0.Degree()+op1.Degree(), min(op0.Level(), op1.Level()))
	default:
		op2 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	}
	return op2, eval.Mul(op0, op1, op2)
}

// MulRelin multiplies op0 with op1 with relinearization, and returns the result in op2.
// The procedure will return an error if op0.Degree() + op1.Degree() is greater than 2.
// The procedure will return an error if the evaluator was not created with a relinearization key.
func (eval Evaluator) MulRelin(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext) (err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:

		el := op1.AsCiphertext()

		_, level, err := eval.InitOutputBinaryOp(op0, el, 2, op2)
		if err != nil {
			return fmt.Errorf("cannot MulRelin: %w", err)
		}

		op2.ResizeQ(level)

		if err = eval.tensorStandard(op0, el, true, op2); err != nil {
			return fmt.Errorf("cannot MulRelin: %w", err)
		}

	default:
		if err = eval.Mul(op0, op1, op2); err != nil {
			return fmt.Errorf("cannot MulRelin: %w", err)
		}
	}

	return
}

// MulRelinNew multiplies op0 with op1 with relinearization, and returns the result in a new *rlwe.Ciphertext op2.
func (eval Evaluator) MulRelinNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (op2 *rlwe.Ciphertext, err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:
		op2 = NewCiphertext(eval.parameters, 1, min(op0.Level(), op1.Level()))
	default:
		op2 = NewCiphertext(eval.parameters, 1, op0.Level())
	}
	return op2, eval.MulRelin(op0, op1, op2)
}

// tensorStandardDegreeTwo computes the degree-2 tensor product of op0 and op1, writing
// c0, c1 into op2.Q[0], op2.Q[1] and c2 into the caller-supplied buffer c2.
func (eval Evaluator) tensorStandardDegreeTwo(LevelQ int, op0, op1, op2 *rlwe.Ciphertext, c2 ring.RNSPoly) {

	rQ := eval.parameters.RingQ().AtLevel(LevelQ)

	c00 := eval.BuffQ[0]
	c01 := eval.BuffQ[1]

	// Avoid overwriting if the second input is the output.
	if op1.Vector == op2.Vector {
		op0, op1 = op1, op0
	}

	c0 := op2.Q[0]
	c1 := op2.Q[1]

	rQ.MForm(op0.Q[0], c00)
	rQ.MForm(op0.Q[1], c01)

	if op0.Vector == op1.Vector { // squaring case
		rQ.MulCoeffsMontgomery(c00, op1.Q[0], c0) // c0 = c[0]*c[0]
		rQ.MulCoeffsMontgomery(c01, op1.Q[1], c2) // c2 = c[1]*c[1]
		rQ.MulCoeffsMontgomery(c00, op1.Q[1], c1) // c1 = 2*c[0]*c[1]
		rQ.Add(c1, c1, c1)
	} else { // regular case
		rQ.MulCoeffsMontgomery(c00, op1.Q[0], c0) // c0 = c0[0]*c1[0]
		rQ.MulCoeffsMontgomery(c01, op1.Q[1], c2) // c2 = c0[1]*c1[1]
		rQ.MulCoeffsMontgomery(c00, op1.Q[1], c1)
		rQ.MulCoeffsMontgomeryThenAdd(c01, op1.Q[0], c1) // c1 = c0[0]*c1[1] + c0[1]*c1[0]
	}
}

func (eval Evaluator) tensorStandard(op0, op1 *rlwe.Ciphertext, relin bool, op2 *rlwe.Ciphertext) (err error) {

	level := op2.Level()

	op2.Scale = op0.Scale.Mul(op1.Scale)

	rQ := eval.parameters.RingQ().AtLevel(level)

	// Case Ciphertext (x) Ciphertext
	if op0.Degree() == 1 && op1.Degree() == 1 {

		if !relin {
			op2.ResizeDegree(2)
			eval.tensorStandardDegreeTwo(level, op0, op1, op2, op2.Q[2])
		} else {
			op2.ResizeDegree(1)
			eval.tensorStandardDegreeTwo(level, op0, op1, op2, eval.BuffQ[2])

			if err = eval.RelinearizeInplace(op2, eval.BuffQ[2]); err != nil {
				return fmt.Errorf("eval.RelinearizeInplace: %w", err)
			}
		}

		// Case Plaintext (x) Ciphertext or Ciphertext (x) Plaintext
	} else {

		if op0.Degree() < op1.Degree() {
			op0, op1 = op1, op0
		}

		c00 := eval.BuffQ[0]
		rQ.MForm(op1.Q[0], c00)

		if relin && op0.Degree() == 2 {

			if op0 != op2 {
				op2.ResizeDegree(1)
			}

			rQ.MulCoeffsMontgomery(op0.Q[0], c00, op2.Q[0])
			rQ.MulCoeffsMontgomery(op0.Q[1], c00, op2.Q[1])
			rQ.MulCoeffsMontgomery(op0.Q[2], c00, eval.BuffQ[2])

			if err = eval.RelinearizeInplace(op2, eval.BuffQ[2]); err != nil {
				return fmt.Errorf("eval.RelinearizeInplace: %w", err)
			}

		} else {

			if op0 != op2 {
				op2.ResizeDegree(op0.Degree())
			}

			for i := range op0.Q {
				rQ.MulCoeffsMontgomery(op0.Q[i], c00, op2.Q[i])
			}
		}
	}

	return
}

// MulThenAdd multiplies op0 with op1 without relinearization and adds the result on op2.
// The procedure will return an error if either op0 == op2 or op1 == op2.
func (eval Evaluator) MulThenAdd(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext) (err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:

		el := op1.AsCiphertext()

		_, level, err := eval.InitOutputBinaryOp(op0, el, 2, op2)
		if err != nil {
			return fmt.Errorf("cannot MulThenAdd: %w", err)
		}

		if op0.Vector == op2.Vector || el.Vector == op2.Vector {
			return fmt.Errorf("cannot MulThenAdd: op2 must be different from op0 and op1")
		}

		op2.ResizeQ(level)

		return eval.mulRelinThenAdd(op0, el, false, op2)

	default:
		tmp, err := eval.MulNew(op0, op1)
		if err != nil {
			return fmt.Errorf("cannot MulThenAdd: %w", err)
		}

		return eval.Add(op2, tmp, op2)
	}
}

// MulRelinThenAdd multiplies op0 with op1 with relinearization and adds the result on op2.
// The procedure will return an error if op0.Degree() + op1.Degree() is greater than 2.
// The procedure will return an error if either op0 == op2 or op1 == op2.
func (eval Evaluator) MulRelinThenAdd(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext) (err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:

		if op1.Degree() == 0 {
			return eval.MulThenAdd(op0, op1, op2)
		}

		el := op1.AsCiphertext()

		_, level, err := eval.InitOutputBinaryOp(op0, el, 2, op2)
		if err != nil {
			return fmt.Errorf("cannot MulRelinThenAdd: %w", err)
		}

		if op0.Vector == op2.Vector || el.Vector == op2.Vector {
			return fmt.Errorf("cannot MulRelinThenAdd: op2 must be different from op0 and op1")
		}

		op2.ResizeQ(level)

		return eval.mulRelinThenAdd(op0, el, true, op2)

	default:
		return eval.MulThenAdd(op0, op1, op2)
	}
}

func (eval Evaluator) mulRelinThenAdd(op0, op1 *rlwe.Ciphertext, relin bool, op2 *rlwe.Ciphertext) (err error) {

	level := op2.Level()

	rQ := eval.parameters.RingQ().AtLevel(level)

	resScale := op0.Scale.Mul(op1.Scale)

	var ratio *big.Int
	switch op2.Scale.Cmp(resScale) {
	case 1:
		// op2 has the larger scale: the product is scaled up before being accumulated.
		ratio = new(big.Int)
		new(big.Float).Quo(&op2.Scale.Value, &resScale.Value).Int(ratio)
	case -1:
		// The product has the larger scale: op2 is scaled up to it first.
		up := new(big.Int)
		new(big.Float).Quo(&resScale.Value, &op2.Scale.Value).Int(up)
		for i := range op2.Q {
			rQ.MulScalarBigint(op2.Q[i], up, op2.Q[i])
		}
	}

	accumulate := func(src, dst ring.RNSPoly) {
		if ratio != nil {
			rQ.MulScalarBigintThenAdd(src, ratio, dst)
		} else {
			rQ.Add(dst, src, dst)
		}
	}

	if op0.Degree() == 1 && op1.Degree() == 1 {

		c2 := eval.BuffQ[2]

		tmp := NewCiphertext(eval.parameters, 2, level)
		eval.tensorStandardDegreeTwo(level, op0, op1, tmp, c2)

		if relin {
			if err = eval.RelinearizeInplace(tmp, c2); err != nil {
				return fmt.Errorf("eval.RelinearizeInplace: %w", err)
			}
		} else {
			tmp.Q[2].CopyLvl(level, &c2)
			tmp.ResizeDegree(2)
			accumulate(tmp.Q[2], op2.Q[2])
		}

		accumulate(tmp.Q[0], op2.Q[0])
		accumulate(tmp.Q[1], op2.Q[1])

	} else {

		tmp, err := eval.MulNew(op0, op1)
		if err != nil {
			return fmt.Errorf("cannot mulRelinThenAdd: %w", err)
		}

		for i := range tmp.Q {
			accumulate(tmp.Q[i], op2.Q[i])
		}
	}

	if ratio == nil {
		op2.Scale = resScale
	}

	return
}

// RelinearizeNew applies the relinearization procedure on op0 and returns the result in a new op1.
func (eval Evaluator) RelinearizeNew(op0 *rlwe.Ciphertext) (op1 *rlwe.Ciphertext, err error) {
	op1 = NewCiphertext(eval.parameters, 1, op0.Level())
	return op1, eval.Relinearize(op0, op1)
}

// ApplyEvaluationKeyNew re-encrypts op0 under a different key and returns the result in a new op1.
func (eval Evaluator) ApplyEvaluationKeyNew(op0 *rlwe.Ciphertext, evk *rlwe.EvaluationKey) (op1 *rlwe.Ciphertext, err error) {
	op1 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	return op1, eval.ApplyEvaluationKey(op0, evk, op1)
}

// RotateNew rotates the slots of op0 by k positions to the left, and returns the result in a newly created element.
// The procedure will return an error if the corresponding Galois key has not been generated and attributed to the evaluator.
func (eval Evaluator) RotateNew(op0 *rlwe.Ciphertext, k int) (op1 *rlwe.Ciphertext, err error) {
	op1 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	return op1, eval.Rotate(op0, k, op1)
}

// Rotate rotates the slots of op0 by k positions to the left and returns the result in op1.
func (eval Evaluator) Rotate(op0 *rlwe.Ciphertext, k int, op1 *rlwe.Ciphertext) (err error) {
	return eval.Automorphism(op0, eval.parameters.GaloisElement(k), op1)
}

// ConjugateNew conjugates the slots of op0 and returns the result in a newly created element.
// The procedure will return an error if the ring is a ConjugateInvariant ring.
func (eval Evaluator) ConjugateNew(op0 *rlwe.Ciphertext) (op1 *rlwe.Ciphertext, err error) {
	if eval.parameters.RingType() == ring.ConjugateInvariant {
		return nil, fmt.Errorf("cannot Conjugate: method is not supported when the ring type is ConjugateInvariant")
	}
	op1 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	return op1, eval.Conjugate(op0, op1)
}

// Conjugate conjugates the slots of op0 and returns the result in op1.
func (eval Evaluator) Conjugate(op0, op1 *rlwe.Ciphertext) (err error) {
	if eval.parameters.RingType() == ring.ConjugateInvariant {
		return fmt.Errorf("cannot Conjugate: method is not supported when the ring type is ConjugateInvariant")
	}
	return eval.Automorphism(op0, eval.parameters.GaloisElementOrderTwoOrthogonalSubgroup(), op1)
}

// RotateHoistedNew applies a series of rotations on the same ciphertext and returns
// each different rotation in a map indexed by the rotation.
func (eval Evaluator) RotateHoistedNew(op0 *rlwe.Ciphertext, rotations []int) (cts map[int]*rlwe.Ciphertext, err error) {

	level := op0.Level()

	buf := eval.NewHoistingBuffer(level, eval.parameters.MaxLevelP())

	cts = make(map[int]*rlwe.Ciphertext)
	for _, k := range rotations {
		if k != 0 {
			cts[k] = NewCiphertext(eval.parameters, 1, level)
			if err = eval.AutomorphismHoisted(op0, buf, eval.parameters.GaloisElement(k), cts[k]); err != nil {
				return nil, fmt.Errorf("cannot RotateHoistedNew: %w", err)
			}
		}
	}

	return
}

// RotateHoistedLazyNew applies a series of rotations on the same ciphertext and returns
// each different rotation in a map indexed by the rotation. Results are not rescaled by P.
func (eval Evaluator) RotateHoistedLazyNew(level int, rotations []int, op0 *rlwe.Ciphertext, buf rlwe.HoistingBuffer) (cts map[int]*rlwe.Ciphertext, err error) {
	cts = make(map[int]*rlwe.Ciphertext)
	for _, k := range rotations {
		if k != 0 {
			cts[k] = rlwe.NewCiphertext(eval.parameters, 1, level, eval.parameters.MaxLevelP())
			if err = eval.AutomorphismHoistedLazy(level, op0, buf, eval.parameters.GaloisElement(k), cts[k]); err != nil {
				return nil, fmt.Errorf("cannot RotateHoistedLazyNew: %w", err)
			}
		}
	}

	return
}
