package heint

import (
	"fmt"
	"math"
	"math/big"

	"github.com/latticeforge/fhe-eval/ring"
	"github.com/latticeforge/fhe-eval/rlwe"
	"github.com/latticeforge/fhe-eval/utils"
)

// Evaluator carries out the homomorphic operations between ciphertexts
// and/or plaintexts for the exact-arithmetic (BFV-style) scheme. Besides
// the generic rlwe.Evaluator and the scheme Encoder, it owns the BEHZ
// auxiliary-base precomputations (behzState) and scratch buffers
// (behzBuffers) needed to carry out scale-invariant tensoring.
type Evaluator struct {
	*behzState
	*behzBuffers
	*rlwe.Evaluator
	*Encoder
}

// behzState holds the precomputed constants of the BEHZ extended-basis
// multiplier: the plaintext modulus lifted into Montgomery form over Q,
// the auxiliary level to pair with every Q level, and half the auxiliary
// modulus product (used to re-center values lifted from Q to the
// auxiliary basis).
type behzState struct {
	plainScaleMont ring.RNSScalar
	auxLevelOf     []int      // auxiliary-basis level to use for a given Q level
	auxModHalf     []*big.Int // floor(prod(auxModuli) / 2) at every auxiliary level
	auxLiftScratch ring.RNSPoly
}

func (s behzState) ShallowCopy() *behzState {
	return &behzState{
		plainScaleMont: s.plainScaleMont,
		auxLevelOf:     s.auxLevelOf,
		auxModHalf:     s.auxModHalf,
		auxLiftScratch: *s.auxLiftScratch.Clone(),
	}
}

func newBEHZState(parameters Parameters) *behzState {
	rQ := parameters.RingQ()
	rAux := parameters.RQMul
	t := parameters.PlaintextModulus()

	auxLevelOf := make([]int, rQ.ModuliChainLength())
	Q := new(big.Int).SetUint64(1)
	for i := range auxLevelOf {
		Q.Mul(Q, new(big.Int).SetUint64(rQ[i].Modulus))
		auxLevelOf[i] = int(math.Ceil(float64(Q.BitLen()+parameters.LogN())/61.0)) - 1
	}

	auxModHalf := make([]*big.Int, rAux.ModuliChainLength())

	auxProd := new(big.Int).SetUint64(1)
	for i := range auxModHalf {
		auxProd.Mul(auxProd, new(big.Int).SetUint64(rAux[i].Modulus))
		auxModHalf[i] = new(big.Int).Rsh(auxProd, 1)
	}

	// t * 2^{64} mod Q, so that multiplying by it both scales by the
	// plaintext modulus and switches the operand into Montgomery form.
	plainScaleMont := rQ.NewRNSScalarFromBigint(new(big.Int).Lsh(new(big.Int).SetUint64(t), 64))
	rQ.MFormRNSScalar(plainScaleMont, plainScaleMont)

	return &behzState{
		plainScaleMont: plainScaleMont,
		auxLevelOf:     auxLevelOf,
		auxModHalf:     auxModHalf,
		auxLiftScratch: rAux.NewRNSPoly(),
	}
}

// behzBuffers are the scratch polynomials, expressed in the auxiliary
// basis, used while computing a scale-invariant tensor product.
type behzBuffers struct {
	extBuf [7]ring.RNSPoly
}

func newBEHZBuffers(params Parameters) *behzBuffers {

	rAux := params.RQMul

	return &behzBuffers{
		extBuf: [7]ring.RNSPoly{
			rAux.NewRNSPoly(),
			rAux.NewRNSPoly(),
			rAux.NewRNSPoly(),
			rAux.NewRNSPoly(),
			rAux.NewRNSPoly(),
			rAux.NewRNSPoly(),
			rAux.NewRNSPoly(),
		},
	}
}

// NewEvaluator creates a new Evaluator, that can be used to do homomorphic
// operations on ciphertexts and/or plaintexts. It stores a memory buffer
// and ciphertexts that will be used for intermediate values.
func NewEvaluator(parameters Parameters, evk rlwe.EvaluationKeySet) *Evaluator {
	ev := new(Evaluator)
	ev.behzState = newBEHZState(parameters)
	ev.behzBuffers = newBEHZBuffers(parameters)
	ev.Evaluator = rlwe.NewEvaluator(parameters.Parameters, evk)
	ev.Encoder = NewEncoder(parameters)

	return ev
}

// GetParameters returns a pointer to the underlying heint.Parameters.
func (eval Evaluator) GetParameters() *Parameters {
	return &eval.Encoder.parameters
}

// ShallowCopy creates a shallow copy of this Evaluator in which the read-only data-structures are
// shared with the receiver.
func (eval Evaluator) ShallowCopy() *Evaluator {
	return &Evaluator{
		behzState:   eval.behzState.ShallowCopy(),
		Evaluator:   eval.Evaluator.ShallowCopy(),
		behzBuffers: newBEHZBuffers(*eval.GetParameters()),
		Encoder:     eval.Encoder.ShallowCopy(),
	}
}

// WithKey creates a shallow copy of this Evaluator in which the read-only data-structures are
// shared with the receiver but the EvaluationKey is evaluationKey.
func (eval Evaluator) WithKey(evk rlwe.EvaluationKeySet) *Evaluator {
	return &Evaluator{
		behzState:   eval.behzState,
		Evaluator:   eval.Evaluator.WithKey(evk),
		behzBuffers: eval.behzBuffers,
		Encoder:     eval.Encoder,
	}
}

// LevelsConsumedPerRescaling returns the number of levels consumed by a rescaling.
func (eval Evaluator) LevelsConsumedPerRescaling() int {
	return 1
}

// encodeOperand encodes values (a []uint64 or []int64 slice) into a
// transient plaintext built over the evaluator's scratch buffer, at the
// given level and scale, with op0's batching metadata.
func (eval Evaluator) encodeOperand(op0 *rlwe.Ciphertext, level int, scale rlwe.Scale, values interface{}) (pt *rlwe.Plaintext, err error) {
	pt, err = rlwe.NewPlaintextAtLevelFromPoly(level, -1, eval.BuffQ[0], ring.RNSPoly{})

	// This error should not happen, unless the evaluator's buffer were
	// improperly tempered with. If it does happen, there is no way to
	// recover from it.
	if err != nil {
		panic(err)
	}

	pt.MetaData = op0.MetaData.Clone()
	pt.Scale = scale

	if err = eval.Encoder.Encode(values, pt); err != nil {
		return nil, err
	}

	return pt, nil
}

// centerModT reduces v modulo t and, if the reduced value exceeds t/2,
// subtracts t so that the representative with smallest absolute value is
// used, minimizing the noise contribution of a plaintext operand. v is
// mutated in place and returned.
func centerModT(v *big.Int, t uint64) *big.Int {
	tBig := new(big.Int).SetUint64(t)
	v.Mod(v, tBig)
	if v.Cmp(new(big.Int).Rsh(tBig, 1)) == 1 {
		v.Sub(v, tBig)
	}
	return v
}

// Add adds op1 to op0 and returns the result in op2.
// The following types are accepted for op1:
//   - rlwe.Element
//   - *big.Int, uint64, int64, int
//   - []uint64 or []int64 (of size at most N where N is the smallest integer satisfying PlaintextModulus = 1 mod 2N)
//
// If op1 is an rlwe.Element and the scales of op0, op1 and op2 do not match, then a scale matching operation will
// be automatically carried out to ensure that addition is performed between operands of the same scale.
// This scale matching operation will increase the noise by a small factor.
// For this reason it is preferable to ensure that all operands are already at the same scale when calling this method.
func (eval Evaluator) Add(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext) (err error) {
	return eval.addition(op0, op1, op2, true)
}

// AddNew adds op1 to op0 and returns the result on a new *rlwe.Ciphertext op2.
// The accepted types for op1 are the same as for Add.
func (eval Evaluator) AddNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (op2 *rlwe.Ciphertext, err error) {

	switch op1 := op1.(type) {
	case rlwe.Element:
		op2 = eval.allocateBinaryOutput(op0, op1)
	default:
		op2 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	}

	return op2, eval.Add(op0, op1, op2)
}

// Sub subtracts op1 from op0 and returns the result in op2.
// The accepted types for op1 are the same as for Add.
func (eval Evaluator) Sub(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext) (err error) {
	return eval.addition(op0, op1, op2, false)
}

// SubNew subtracts op1 from op0 and returns the result in a new *rlwe.Ciphertext op2.
// The accepted types for op1 are the same as for Add.
func (eval Evaluator) SubNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (op2 *rlwe.Ciphertext, err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:
		op2 = eval.allocateBinaryOutput(op0, op1)
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
				eval.matchScaleThenEvaluateInPlace(level, op0, el1, op2, rQ.AtLevel(level).MulScalarThenAdd)
			}
		} else {
			if op0.Scale.Cmp(el1.Scale) == 0 {
				eval.evaluateInPlace(level, op0, el1, op2, rQ.AtLevel(level).Sub)
			} else {
				eval.matchScaleThenEvaluateInPlace(level, op0, el1, op2, rQ.AtLevel(level).MulScalarThenSub)
			}
		}

	case *big.Int:

		_, level, err := eval.InitOutputUnaryOp(op0, op2)
		if err != nil {
			return fmt.Errorf("cannot Add: %w", err)
		}

		op2.ResizeQ(level)
		op2.ResizeDegree(op0.Degree())

		// Scales op1 by the ciphertext's current scale and centers it
		// modulo T before scaling it down by T^{-1} mod Q.
		op1.Mul(op1, new(big.Int).SetUint64(op0.Scale.Uint64()))
		centerModT(op1, eval.parameters.RT.Modulus)
		op1.Mul(op1, eval.tInvModQ[level])

		if positive {
			rQ.AtLevel(level).AddScalarBigint(op0.Q[0], op1, op2.Q[0])
		} else {
			rQ.AtLevel(level).SubScalarBigint(op0.Q[0], op1, op2.Q[0])
		}

		if op0.Vector != op2.Vector {
			for i := 1; i < op0.Degree()+1; i++ {
				op2.Q[i].CopyLvl(level, &op0.Q[i])
			}
		}

	case uint64:
		return eval.addition(op0, new(big.Int).SetUint64(op1), op2, positive)
	case int64:
		return eval.addition(op0, new(big.Int).SetInt64(op1), op2, positive)
	case int:
		return eval.addition(op0, new(big.Int).SetInt64(int64(op1)), op2, positive)
	case []uint64, []int64:

		_, level, err := eval.InitOutputUnaryOp(op0, op2)
		if err != nil {
			return fmt.Errorf("cannot Add: %w", err)
		}

		op2.ResizeQ(level)
		op2.ResizeDegree(op0.Degree())

		pt, err := eval.encodeOperand(op0, level, op0.Scale, op1)
		if err != nil {
			return err
		}

		if positive {
			eval.evaluateInPlace(level, op0, pt.AsCiphertext(), op2, eval.parameters.RingQ().AtLevel(level).Add)
		} else {
			eval.evaluateInPlace(level, op0, pt.AsCiphertext(), op2, eval.parameters.RingQ().AtLevel(level).Sub)
		}
	default:
		return fmt.Errorf("invalid op1.(Type), expected rlwe.Element, []uint64, []int64, *big.Int, uint64, int64 or int, but got %T", op1)
	}

	return
}

func (eval Evaluator) evaluateInPlace(level int, el0, el1, elOut *rlwe.Ciphertext, evaluate func(ring.RNSPoly, ring.RNSPoly, ring.RNSPoly)) {

	smallest, largest, _ := rlwe.GetSmallestLargest(el0, el1)

	for i := 0; i < smallest.Degree()+1; i++ {
		evaluate(el0.Q[i], el1.Q[i], elOut.Q[i])
	}

	// Copies over the remaining degrees of the larger-degree operand when it is not the receiver.
	if largest.Vector != nil && largest.Vector != elOut.Vector {
		for i := smallest.Degree() + 1; i < largest.Degree()+1; i++ {
			elOut.Q[i].CopyLvl(level, &largest.Q[i])
		}
	}

	elOut.Scale = el0.Scale
}

func (eval Evaluator) matchScaleThenEvaluateInPlace(level int, el0, el1, elOut *rlwe.Ciphertext, evaluate func(ring.RNSPoly, uint64, ring.RNSPoly)) {

	r0, r1, _ := eval.reconcileScales(el0.Scale.Uint64(), el1.Scale.Uint64())

	for i := range el0.Q {
		eval.parameters.RingQ().AtLevel(level).MulScalar(el0.Q[i], r0, elOut.Q[i])
	}

	for i := el0.Degree() + 1; i < elOut.Degree()+1; i++ {
		elOut.Q[i].Zero()
	}

	for i := range el1.Q {
		evaluate(el1.Q[i], r1, elOut.Q[i])
	}

	elOut.Scale = el0.Scale.Mul(eval.parameters.NewScale(r0))
}

func (eval Evaluator) allocateBinaryOutput(op0, op1 rlwe.Element) (op2 *rlwe.Ciphertext) {
	return NewCiphertext(*eval.GetParameters(), max(op0.Degree(), op1.Degree()), min(op0.Level(), op1.Level()))
}

// DropLevel reduces the level of op0 by levels.
// No rescaling is applied during this procedure.
func (eval Evaluator) DropLevel(op0 *rlwe.Ciphertext, levels int) {
	op0.ResizeQ(op0.Level() - levels)
}

// Mul multiplies op0 with op1 without relinearization and using standard tensoring (BGV/CKKS-style), and returns the result in op2.
// This tensoring increases the noise by a multiplicative factor of the plaintext and noise norms of the operands and will usually
// require to be followed by a rescaling operation to avoid an exponential growth of the noise from subsequent multiplications.
// The procedure will return an error if op0.Degree() + op1.Degree() > 2.
//
// The accepted types for op1 are the same as for Add.
//
// If op1 is an [rlwe.Element]:
//   - the level of op2 will be updated to min(op0.Level(), op1.Level())
//   - the scale of op2 will be updated to op0.Scale * op1.Scale
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

	case *big.Int:

		_, level, err := eval.InitOutputUnaryOp(op0, op2)
		if err != nil {
			return fmt.Errorf("cannot Mul: %w", err)
		}

		op2.ResizeQ(level)
		op2.ResizeDegree(op0.Degree())

		rQ := eval.parameters.RingQ().AtLevel(level)

		centerModT(op1, eval.parameters.RT.Modulus)

		for i := 0; i < op0.Degree()+1; i++ {
			rQ.MulScalarBigint(op0.Q[i], op1, op2.Q[i])
		}

	case uint64:
		return eval.Mul(op0, new(big.Int).SetUint64(op1), op2)
	case int:
		return eval.Mul(op0, new(big.Int).SetInt64(int64(op1)), op2)
	case int64:
		return eval.Mul(op0, new(big.Int).SetInt64(op1), op2)
	case []uint64, []int64:

		_, level, err := eval.InitOutputUnaryOp(op0, op2)
		if err != nil {
			return fmt.Errorf("cannot Mul: %w", err)
		}

		op2.ResizeQ(level)
		op2.ResizeDegree(op0.Degree())

		pt, err := eval.encodeOperand(op0, level, rlwe.NewScale(1), op1)
		if err != nil {
			return err
		}

		if err = eval.tensorStandard(op0, pt.AsCiphertext(), false, op2); err != nil {
			return fmt.Errorf("cannot Mul: %w", err)
		}
	default:
		return fmt.Errorf("invalid op1.(Type), expected rlwe.Element, []uint64, []int64, *big.Int, uint64, int64 or int, but got %T", op1)
	}

	return
}

// MulNew multiplies op0 with op1 without relinearization and using standard tensoring (BGV/CKKS-style), and returns the result in a new *rlwe.Ciphertext op2.
// The accepted types for op1 are the same as for Add.
func (eval Evaluator) MulNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (op2 *rlwe.Ciphertext, err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:
		op2 = NewCiphertext(eval.parameters, op0.Degree()+op1.Degree(), min(op0.Level(), op1.Level()))
	default:
		op2 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	}

	return op2, eval.Mul(op0, op1, op2)
}

// MulRelin multiplies op0 with op1 with relinearization and using standard tensoring (BGV/CKKS-style), and returns the result in op2.
// The procedure will return an error if op0.Degree() + op1.Degree() > 2.
// The procedure will return an error if the evaluator was not created with an relinearization key.
//
// The accepted types for op1 are the same as for Add.
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

// MulRelinNew multiplies op0 with op1 with relinearization and using standard tensoring (BGV/CKKS-style), returns the result in a new *rlwe.Ciphertext op2.
// The accepted types for op1 are the same as for Add.
func (eval Evaluator) MulRelinNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (op2 *rlwe.Ciphertext, err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:
		op2 = NewCiphertext(eval.parameters, 1, min(op0.Level(), op1.Level()))
	default:
		op2 = NewCiphertext(eval.parameters, 1, op0.Level())
	}

	return op2, eval.MulRelin(op0, op1, op2)
}

// tensorPure computes the degree-2 tensor product of op0 and op1 under the
// standard (non scale-invariant) tensoring, writing c0, c1 into op2.Q[0],
// op2.Q[1] and c2 into the caller-supplied buffer.
func (eval Evaluator) tensorPure(LevelQ int, op0, op1, op2 *rlwe.Ciphertext, c2 ring.RNSPoly) {

	rQ := eval.parameters.RingQ().AtLevel(LevelQ)

	c00 := eval.BuffQ[0]
	c01 := eval.BuffQ[1]

	// Avoid overwriting if the second input is the output
	if op1.Vector == op2.Vector {
		op0, op1 = op1, op0
	}

	c0 := op2.Q[0]
	c1 := op2.Q[1]

	// Multiply by T * 2^{64} * 2^{64} -> result multipled by T and switched in the Montgomery domain
	rQ.MulRNSScalarMontgomery(op0.Q[0], eval.plainScaleMont, c00)
	rQ.MulRNSScalarMontgomery(op0.Q[1], eval.plainScaleMont, c01)

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
			eval.tensorPure(level, op0, op1, op2, op2.Q[2])
		} else {
			op2.ResizeDegree(1)
			eval.tensorPure(level, op0, op1, op2, eval.BuffQ[2])

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
		// Multiply by T * 2^{64} * 2^{64} -> result multipled by T and switched in the Montgomery domain
		rQ.MulRNSScalarMontgomery(op1.Q[0], eval.plainScaleMont, c00)

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

// MulScaleInvariant multiplies op0 with op1 without relinearization and using scale invariant tensoring (BFV-style), and returns the result in op2.
// This tensoring increases the noise by a constant factor regardless of the current noise, thus no rescaling is required with subsequent multiplications if they are
// performed with the invariant tensoring procedure. Rescaling can still be useful to reduce the size of the ciphertext, once the noise is higher than the prime
// that will be used for the rescaling or to ensure that the noise is minimal before using the regular tensoring.
// The procedure will return an error if op0.Degree() + op1.Degree() > 2.
//
// The accepted types for op1 are the same as for Add.
//
// If op1 is an [rlwe.Element]:
//   - the level of op2 will be updated to min(op0.Level(), op1.Level())
//   - the scale of op2 will be to op0.Scale * op1.Scale * (-Q mod T)^{-1} mod T
func (eval Evaluator) MulScaleInvariant(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext) (err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:

		el := op1.AsCiphertext()

		_, level, err := eval.InitOutputBinaryOp(op0, el, 2, op2)
		if err != nil {
			return fmt.Errorf("cannot MulInvariant: %w", err)
		}

		op2.ResizeQ(level)

		if el.Degree() == 0 || op0.Degree() == 0 {

			if err = eval.tensorStandard(op0, el, false, op2); err != nil {
				return fmt.Errorf("cannot MulInvariant: %w", err)
			}

		} else {

			if err = eval.tensorInvariant(op0, el, false, op2); err != nil {
				return fmt.Errorf("cannot MulInvariant: %w", err)
			}
		}
	case []uint64, []int64:

		_, level, err := eval.InitOutputUnaryOp(op0, op2)
		if err != nil {
			return fmt.Errorf("cannot MulInvariant: %w", err)
		}

		op2.ResizeQ(level)
		op2.ResizeDegree(op0.Degree())

		pt, err := eval.encodeOperand(op0, level, rlwe.NewScale(1), op1)
		if err != nil {
			return err
		}

		if err = eval.tensorStandard(op0, pt.AsCiphertext(), false, op2); err != nil {
			return fmt.Errorf("cannot MulInvariant: %w", err)
		}

	default:
		if err = eval.Mul(op0, op1, op2); err != nil {
			return fmt.Errorf("cannot MulInvariant: %w", err)
		}
	}
	return
}

// MulScaleInvariantNew multiplies op0 with op1 without relinearization and using scale invariant tensoring (BFV-style), and returns the result in a new *rlwe.Ciphertext op2.
// See MulScaleInvariant for the accepted types of op1.
func (eval Evaluator) MulScaleInvariantNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (op2 *rlwe.Ciphertext, err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:
		op2 = NewCiphertext(eval.parameters, op0.Degree()+op1.Degree(), min(op0.Level(), op1.Level()))
	default:
		op2 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	}
	return op2, eval.MulScaleInvariant(op0, op1, op2)
}

// MulRelinScaleInvariant multiplies op0 with op1 with relinearization and using scale invariant tensoring (BFV-style), and returns the result in op2.
// See MulScaleInvariant for the noise behavior of the scale-invariant tensoring.
// The procedure will return an error if op0.Degree() + op1.Degree() > 2.
// The procedure will return an error if the evaluator was not created with an relinearization key.
//
// The accepted types for op1 are the same as for Add, with the exception that vector operands must be []uint64 or []int64.
func (eval Evaluator) MulRelinScaleInvariant(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext) (err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:

		el := op1.AsCiphertext()

		_, level, err := eval.InitOutputBinaryOp(op0, el, 2, op2)
		if err != nil {
			return fmt.Errorf("cannot MulRelinInvariant: %w", err)
		}

		op2.ResizeQ(level)

		if el.Degree() == 0 {

			if err = eval.tensorStandard(op0, el, true, op2); err != nil {
				return fmt.Errorf("cannot MulRelinInvariant: %w", err)
			}

		} else {

			if err = eval.tensorInvariant(op0, el, true, op2); err != nil {
				return fmt.Errorf("cannot MulRelinInvariant: %w", err)
			}
		}

	case []uint64, []int64:

		_, level, err := eval.InitOutputUnaryOp(op0, op2)

		if err != nil {
			return fmt.Errorf("cannot MulRelinInvariant: %w", err)
		}

		op2.ResizeQ(level)
		op2.ResizeDegree(op0.Degree())

		pt, err := eval.encodeOperand(op0, level, rlwe.NewScale(1), op1)
		if err != nil {
			return fmt.Errorf("cannot MulRelinInvariant: %w", err)
		}

		if err = eval.tensorStandard(op0, pt.AsCiphertext(), true, op2); err != nil {
			return fmt.Errorf("cannot MulRelinInvariant: %w", err)
		}

	case uint64, int64, int, *big.Int:
		if err = eval.Mul(op0, op1, op2); err != nil {
			return fmt.Errorf("cannot MulRelinInvariant: %w", err)
		}
	default:
		return fmt.Errorf("cannot MulRelinInvariant: invalid op1.(Type), expected rlwe.Element, []uint64, []int64, uint64, int64 or int, but got %T", op1)
	}
	return
}

// MulRelinScaleInvariantNew multiplies op0 with op1 with relinearization and using scale invariant tensoring (BFV-style), and returns the result in a new *rlwe.Ciphertext op2.
// See MulRelinScaleInvariant for the accepted types of op1.
func (eval Evaluator) MulRelinScaleInvariantNew(op0 *rlwe.Ciphertext, op1 rlwe.Operand) (op2 *rlwe.Ciphertext, err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:
		op2 = NewCiphertext(eval.parameters, 1, min(op0.Level(), op1.Level()))
	default:
		op2 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	}

	if err = eval.MulRelinScaleInvariant(op0, op1, op2); err != nil {
		return nil, fmt.Errorf("cannot MulRelinInvariantNew: %w", err)
	}
	return
}

// tensorInvariant computes (op0 x op1) * (t/Q) and stores the result in op2:
// it lifts both operands into the auxiliary basis, tensors them there and
// in Q simultaneously, then folds the auxiliary-basis result back down to
// recover the scale-invariant product.
func (eval Evaluator) tensorInvariant(op0, op1 *rlwe.Ciphertext, relin bool, op2 *rlwe.Ciphertext) (err error) {

	level := min(min(op0.Level(), op1.Level()), op2.Level())

	auxLevel := eval.auxLevelOf[level]

	// Avoid overwriting if the second input is the output
	var base0, base1 *rlwe.Ciphertext
	if op1.Vector == op2.Vector {
		base0, base1 = op1, op0
	} else {
		base0, base1 = op0, op1
	}

	aux0 := &rlwe.Ciphertext{}
	aux0.Vector = &ring.Vector{}
	aux0.Q = eval.extBuf[0:3]

	aux1 := &rlwe.Ciphertext{}
	aux1.Vector = &ring.Vector{}
	aux1.Q = eval.extBuf[3:5]

	auxOut := aux0

	eval.liftToAuxBasis(level, auxLevel, base0, aux0)

	if base0.Vector != base1.Vector {
		eval.liftToAuxBasis(level, auxLevel, base1, aux1)
	}

	var c2 ring.RNSPoly
	if !relin {
		op2.ResizeQ(level)
		op2.ResizeDegree(2)
		c2 = op2.Q[2]
	} else {
		op2.ResizeQ(level)
		op2.ResizeDegree(1)
		c2 = eval.BuffQ[2]
	}

	baseOut, err := rlwe.NewCiphertextAtLevelFromPoly(level, -1, []ring.RNSPoly{op2.Q[0], op2.Q[1], c2}, nil)
	if err != nil {
		panic(err)
	}

	eval.tensorExtended(level, auxLevel, base0, base1, baseOut, aux0, aux1, auxOut)

	eval.foldToBase(level, auxLevel, baseOut.Q[0], auxOut.Q[0])
	eval.foldToBase(level, auxLevel, baseOut.Q[1], auxOut.Q[1])
	eval.foldToBase(level, auxLevel, baseOut.Q[2], auxOut.Q[2])

	if relin {
		if err = eval.RelinearizeInplace(op2, c2); err != nil {
			return fmt.Errorf("eval.RelinearizeInplace: %w", err)
		}
	}

	op2.Scale = UpdateScaleInvariant(eval.parameters, op0.Scale, base1.Scale, level)

	return
}

// UpdateScaleInvariant returns c = a * b / (-Q[level] mod PlaintextModulus), where a, b are the input scale,
// level the level at which the operation is carried out and and c is the new scale after performing the
// invariant tensoring (BFV-style).
func UpdateScaleInvariant(params Parameters, a, b rlwe.Scale, level int) (c rlwe.Scale) {
	c = a.Mul(b)
	qModTNeg := new(big.Int).Mod(params.RingQ().AtLevel(level).Modulus(), new(big.Int).SetUint64(params.PlaintextModulus())).Uint64()
	qModTNeg = params.PlaintextModulus() - qModTNeg
	c = c.Div(params.NewScale(qModTNeg))
	return
}

// liftToAuxBasis raises every polynomial of ctQ0 (expressed in the Q basis,
// NTT domain) to the auxiliary basis and writes the lazily-NTT-transformed
// result into ctQ1.
func (eval Evaluator) liftToAuxBasis(level, auxLevel int, ctQ0, ctQ1 *rlwe.Ciphertext) {
	rQ, rAux := eval.parameters.RingQ().AtLevel(level), eval.parameters.RQMul.AtLevel(auxLevel)
	for i := range ctQ0.Q {
		rQ.INTT(ctQ0.Q[i], eval.BuffQ[0])
		rQ.ModUp(rAux, eval.BuffQ[0], eval.auxLiftScratch, ctQ1.Q[i])
		rAux.NTTLazy(ctQ1.Q[i], ctQ1.Q[i])
	}
}

// tensorExtended tensors the Q-basis and auxiliary-basis representations of
// two degree-1 ciphertexts in lockstep, producing the degree-2 product in
// both bases simultaneously.
func (eval Evaluator) tensorExtended(level, auxLevel int, op0Q0, op1Q0, op2Q0, op0Q1, op1Q1, op2Q1 *rlwe.Ciphertext) {

	rQ, rAux := eval.parameters.RingQ().AtLevel(level), eval.parameters.RQMul.AtLevel(auxLevel)

	c00 := eval.BuffQ[0]
	c01 := eval.BuffQ[1]

	rQ.MForm(op0Q0.Q[0], c00)
	rQ.MForm(op0Q0.Q[1], c01)

	c00Aux := eval.extBuf[5]
	c01Aux := eval.extBuf[6]

	rAux.MForm(op0Q1.Q[0], c00Aux)
	rAux.MForm(op0Q1.Q[1], c01Aux)

	// Squaring case
	if op0Q0.Vector == op1Q0.Vector {
		rQ.MulCoeffsMontgomery(c00, op0Q0.Q[0], op2Q0.Q[0]) // c0 = c0[0]*c0[0]
		rQ.MulCoeffsMontgomery(c01, op0Q0.Q[1], op2Q0.Q[2]) // c2 = c0[1]*c0[1]
		rQ.MulCoeffsMontgomery(c00, op0Q0.Q[1], op2Q0.Q[1]) // c1 = 2*c0[0]*c0[1]
		rQ.AddLazy(op2Q0.Q[1], op2Q0.Q[1], op2Q0.Q[1])

		rAux.MulCoeffsMontgomery(c00Aux, op0Q1.Q[0], op2Q1.Q[0])
		rAux.MulCoeffsMontgomery(c01Aux, op0Q1.Q[1], op2Q1.Q[2])
		rAux.MulCoeffsMontgomery(c00Aux, op0Q1.Q[1], op2Q1.Q[1])
		rAux.AddLazy(op2Q1.Q[1], op2Q1.Q[1], op2Q1.Q[1])

		// Normal case
	} else {
		rQ.MulCoeffsMontgomery(c00, op1Q0.Q[0], op2Q0.Q[0]) // c0 = c0[0]*c1[0]
		rQ.MulCoeffsMontgomery(c01, op1Q0.Q[1], op2Q0.Q[2]) // c2 = c0[1]*c1[1]
		rQ.MulCoeffsMontgomery(c00, op1Q0.Q[1], op2Q0.Q[1]) // c1 = c0[0]*c1[1] + c0[1]*c1[0]
		rQ.MulCoeffsMontgomeryThenAddLazy(c01, op1Q0.Q[0], op2Q0.Q[1])

		rAux.MulCoeffsMontgomery(c00Aux, op1Q1.Q[0], op2Q1.Q[0])
		rAux.MulCoeffsMontgomery(c01Aux, op1Q1.Q[1], op2Q1.Q[2])
		rAux.MulCoeffsMontgomery(c00Aux, op1Q1.Q[1], op2Q1.Q[1])
		rAux.MulCoeffsMontgomeryThenAddLazy(c01Aux, op1Q1.Q[0], op2Q1.Q[1])
	}
}

// foldToBase takes a degree-2 coefficient pair expressed in (Q, auxiliary)
// basis, divides it by Q/t and folds it back down to a single polynomial in
// the Q basis, in the NTT domain.
func (eval Evaluator) foldToBase(level, auxLevel int, cQ, cAux ring.RNSPoly) {

	rQ, rAux := eval.parameters.RingQ().AtLevel(level), eval.parameters.RQMul.AtLevel(auxLevel)

	// Leaves the NTT domain, scales down by t/q and switches the basis from (Q, aux) back to Q.

	rQ.INTTLazy(cQ, cQ)
	rAux.INTTLazy(cAux, cAux)

	// Extends the basis Q of ct(x) to the auxiliary basis and divides (ct(x)Q -> aux) by Q
	rAux.ModDown(rQ, cAux, cQ, eval.BuffModDownQ, eval.auxLiftScratch, cAux)

	// Centers ct(x)aux by (aux-1)/2 and extends ct(x)aux back to the basis Q
	rAux.ModUp(rQ, cAux, eval.auxLiftScratch, cQ)

	// (ct(x)/Q)*T, doing so only requires that Q*aux > Q*Q, faster but adds error ~|T|
	rQ.MulScalar(cQ, eval.parameters.PlaintextModulus(), cQ)

	rQ.NTT(cQ, cQ)
}

// MulThenAdd multiplies op0 with op1 using standard tensoring and without relinearization, and adds the result on op2.
// The procedure will return an error if op0.Degree() + op1.Degree() > 2.
// The procedure will return an error if either op0 == op2 or op1 == op2.
//
// The accepted types for op1 are the same as for Add.
//
// If op1 is an [rlwe.Element] and op2.Scale != op1.Scale * op0.Scale, then a scale matching operation will
// be automatically carried out to ensure that addition is performed between operands of the same scale.
// This scale matching operation will increase the noise by a small factor.
// For this reason it is preferable to ensure that op2.Scale == op1.Scale * op0.Scale when calling this method.
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

		if err = eval.mulRelinThenAdd(op0, el, false, op2); err != nil {
			return fmt.Errorf("cannot MulThenAdd: %w", err)
		}

	case *big.Int:

		_, level, err := eval.InitOutputUnaryOp(op0, op2)

		if err != nil {
			return fmt.Errorf("cannot MulThenAdd: %w", err)
		}

		op2.ResizeQ(op2.Level())

		rQ := eval.parameters.RingQ().AtLevel(level)

		s := eval.parameters.RT

		// op1 *= (op2.Scale / op0.Scale)
		if op0.Scale.Cmp(op2.Scale) != 0 {
			ratio := ring.ModExp(op0.Scale.Uint64(), s.Phi()-1, s.Modulus)
			ratio = ring.BRed(ratio, op2.Scale.Uint64(), s.Modulus, s.BRedConstant)
			op1.Mul(op1, new(big.Int).SetUint64(ratio))
		}

		centerModT(op1, s.Modulus)

		for i := 0; i < op0.Degree()+1; i++ {
			rQ.MulScalarBigintThenAdd(op0.Q[i], op1, op2.Q[i])
		}

	case int:
		return eval.MulThenAdd(op0, new(big.Int).SetInt64(int64(op1)), op2)
	case int64:
		return eval.MulThenAdd(op0, new(big.Int).SetInt64(op1), op2)
	case uint64:
		return eval.MulThenAdd(op0, new(big.Int).SetUint64(op1), op2)
	case []uint64, []int64:

		_, level, err := eval.InitOutputUnaryOp(op0, op2)

		if err != nil {
			return fmt.Errorf("cannot MulThenAdd: %w", err)
		}

		op2.ResizeQ(op2.Level())

		// op1 *= (op2.Scale / op0.Scale)
		var ptScale rlwe.Scale
		if op0.Scale.Cmp(op2.Scale) != 0 {
			s := eval.parameters.RT
			ratio := ring.ModExp(op0.Scale.Uint64(), s.Phi()-1, s.Modulus)
			ptScale = rlwe.NewScale(ring.BRed(ratio, op2.Scale.Uint64(), s.Modulus, s.BRedConstant))
		} else {
			ptScale = rlwe.NewScale(1)
		}

		pt, err := eval.encodeOperand(op0, level, ptScale, op1)
		if err != nil {
			return fmt.Errorf("cannot MulThenAdd: %w", err)
		}

		if err = eval.MulThenAdd(op0, pt, op2); err != nil {
			return fmt.Errorf("cannot MulThenAdd: %w", err)
		}

	default:
		return fmt.Errorf("cannot MulThenAdd: invalid op1.(Type), expected rlwe.Element, []uint64, []int64, *big.Int, uint64, int64 or int, but got %T", op1)
	}

	return
}

// MulRelinThenAdd multiplies op0 with op1 using standard tensoring and with relinearization, and adds the result on op2.
// The procedure will return an error if op0.Degree() + op1.Degree() > 2.
// The procedure will return an error if either op0 == op2 or op1 == op2.
//
// See MulThenAdd for the accepted types of op1.
func (eval Evaluator) MulRelinThenAdd(op0 *rlwe.Ciphertext, op1 rlwe.Operand, op2 *rlwe.Ciphertext) (err error) {
	switch op1 := op1.(type) {
	case rlwe.Element:
		if op1.Degree() == 0 {
			return eval.MulThenAdd(op0, op1, op2)
		}

		el := op1.AsCiphertext()

		_, level, err := eval.InitOutputBinaryOp(op0, el, 2, op2)
		if err != nil {
			return fmt.Errorf("cannot MulThenAdd: %w", err)
		}

		if op0.Vector == op2.Vector || el.Vector == op2.Vector {
			return fmt.Errorf("cannot MulThenAdd: op2 must be different from op0 and op1")
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
	sT := eval.parameters.RT

	var c00, c01, c0, c1, c2 ring.RNSPoly

	// Case Ciphertext (x) Ciphertext
	if op0.Degree() == 1 && op1.Degree() == 1 {

		c00 = eval.BuffQ[0]
		c01 = eval.BuffQ[1]

		c0 = op2.Q[0]
		c1 = op2.Q[1]

		if !relin {
			op2.ResizeQ(level)
			op2.ResizeDegree(2)
			c2 = op2.Q[2]
		} else {
			op2.ResizeQ(level)
			op2.ResizeDegree(max(1, op2.Degree()))
			c2 = eval.BuffQ[2]
		}

		tmp0, tmp1 := op0, op1

		// If op0.Scale * op1.Scale != op2.Scale then
		// updates op1.Scale and op2.Scale
		var r0 uint64 = 1
		if targetScale := ring.BRed(op0.Scale.Uint64(), op1.Scale.Uint64(), sT.Modulus, sT.BRedConstant); op2.Scale.Cmp(eval.parameters.NewScale(targetScale)) != 0 {
			var r1 uint64
			r0, r1, _ = eval.reconcileScales(targetScale, op2.Scale.Uint64())

			for i := range op2.Q {
				rQ.MulScalar(op2.Q[i], r1, op2.Q[i])
			}

			op2.Scale = op2.Scale.Mul(eval.parameters.NewScale(r1))
		}

		// Multiply by T * 2^{64} * 2^{64} -> result multipled by T and switched in the Montgomery domain
		rQ.MulRNSScalarMontgomery(tmp0.Q[0], eval.plainScaleMont, c00)
		rQ.MulRNSScalarMontgomery(tmp0.Q[1], eval.plainScaleMont, c01)

		// Scales the input to the output scale
		if r0 != 1 {
			rQ.MulScalar(c00, r0, c00)
			rQ.MulScalar(c01, r0, c01)
		}

		rQ.MulCoeffsMontgomeryThenAdd(c00, tmp1.Q[0], c0) // c0 += c[0]*c[0]
		rQ.MulCoeffsMontgomeryThenAdd(c00, tmp1.Q[1], c1) // c1 += c[0]*c[1]
		rQ.MulCoeffsMontgomeryThenAdd(c01, tmp1.Q[0], c1) // c1 += c[1]*c[0]

		if relin {
			rQ.MulCoeffsMontgomery(c01, tmp1.Q[1], c2) // c2 += c[1]*c[1]
			if err := eval.RelinearizeInplace(op2, c2); err != nil {
				return fmt.Errorf("eval.RelinearizeInplace: %w", err)
			}
		} else {
			rQ.MulCoeffsMontgomeryThenAdd(c01, tmp1.Q[1], c2) // c2 += c[1]*c[1]
		}

		// Case Plaintext (x) Ciphertext or Ciphertext (x) Plaintext
	} else {

		op2.ResizeQ(level)
		op2.ResizeDegree(max(op0.Degree(), op2.Degree()))

		c00 := eval.BuffQ[0]

		// Multiply by T * 2^{64} * 2^{64} -> result multipled by T and switched in the Montgomery domain
		rQ.MulRNSScalarMontgomery(op1.Q[0], eval.plainScaleMont, c00)

		// If op0.Scale * op1.Scale != op2.Scale then
		// updates op1.Scale and op2.Scale
		var r0 = uint64(1)
		if targetScale := ring.BRed(op0.Scale.Uint64(), op1.Scale.Uint64(), sT.Modulus, sT.BRedConstant); op2.Scale.Cmp(eval.parameters.NewScale(targetScale)) != 0 {
			var r1 uint64
			r0, r1, _ = eval.reconcileScales(targetScale, op2.Scale.Uint64())

			for i := range op2.Q {
				rQ.MulScalar(op2.Q[i], r1, op2.Q[i])
			}

			op2.Scale = op2.Scale.Mul(eval.parameters.NewScale(r1))
		}

		if r0 != 1 {
			rQ.MulScalar(c00, r0, c00)
		}

		for i := range op0.Q {
			rQ.MulCoeffsMontgomeryThenAdd(op0.Q[i], c00, op2.Q[i])
		}
	}

	return
}

// Rescale divides (rounded) op0 by the last prime of the moduli chain and returns the result on op2.
// This procedure divides the noise by the last prime of the moduli chain while preserving
// the MSB-plaintext bits.
// The procedure will return an error if:
//   - op0.Level() == 0 (the input ciphertext is already at the last prime)
//   - op2.Level() < op0.Level() - 1 (not enough space to store the result)
//
// The scale of op2 will be updated to op0.Scale * qi^{-1} mod PlaintextModulus where qi is the prime consumed by
// the rescaling operation.
func (eval Evaluator) Rescale(op0, op2 *rlwe.Ciphertext) (err error) {

	if op0.MetaData == nil || op2.MetaData == nil {
		return fmt.Errorf("cannot Rescale: op0.MetaData or op2.MetaData is nil")
	}

	if op0.Level() == 0 {
		return fmt.Errorf("cannot rescale: op0 already at level 0")
	}

	if op2.Level() < op0.Level()-1 {
		return fmt.Errorf("cannot rescale: op2.Level() < op0.Level()-1")
	}

	level := op0.Level()
	rQ := eval.parameters.RingQ().AtLevel(level)

	for i := range op2.Q {
		rQ.DivRoundByLastModulusNTT(op0.Q[i], eval.BuffQ[0], op2.Q[i])
	}

	op2.ResizeQ(level - 1)

	*op2.MetaData = *op0.MetaData
	op2.Scale = op0.Scale.Div(eval.parameters.NewScale(rQ[level].Modulus))
	return
}

// RelinearizeNew applies the relinearization procedure on op0 and returns the result in a new op1.
func (eval Evaluator) RelinearizeNew(op0 *rlwe.Ciphertext) (op1 *rlwe.Ciphertext, err error) {
	op1 = NewCiphertext(eval.parameters, 1, op0.Level())
	return op1, eval.Relinearize(op0, op1)
}

// ApplyEvaluationKeyNew re-encrypts op0 under a different key and returns the result in a new op1.
// It requires a EvaluationKey, which is computed from the key under which the Ciphertext is currently encrypted,
// and the key under which the Ciphertext will be re-encrypted.
// The procedure will return an error if either op0.Degree() or op1.Degree() != 1.
func (eval Evaluator) ApplyEvaluationKeyNew(op0 *rlwe.Ciphertext, evk *rlwe.EvaluationKey) (op1 *rlwe.Ciphertext, err error) {
	op1 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	return op1, eval.ApplyEvaluationKey(op0, evk, op1)
}

// RotateColumnsNew rotates the columns of op0 by k positions to the left, and returns the result in a newly created element.
// The procedure will return an error if the corresponding Galois key has not been generated and attributed to the evaluator.
// The procedure will return an error if op0.Degree() != 1.
func (eval Evaluator) RotateColumnsNew(op0 *rlwe.Ciphertext, k int) (op1 *rlwe.Ciphertext, err error) {
	op1 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	return op1, eval.RotateColumns(op0, k, op1)
}

// RotateColumns rotates the columns of op0 by k positions to the left and returns the result in op1.
// The procedure will return an error if the corresponding Galois key has not been generated and attributed to the evaluator.
// The procedure will return an error if either op0.Degree() or op1.Degree() != 1.
func (eval Evaluator) RotateColumns(op0 *rlwe.Ciphertext, k int, op1 *rlwe.Ciphertext) (err error) {
	return eval.Automorphism(op0, eval.parameters.GaloisElement(k), op1)
}

// RotateRowsNew swaps the rows of op0 and returns the result in a new op1.
// The procedure will return an error if the corresponding Galois key has not been generated and attributed to the evaluator.
// The procedure will return an error if op0.Degree() != 1.
func (eval Evaluator) RotateRowsNew(op0 *rlwe.Ciphertext) (op1 *rlwe.Ciphertext, err error) {
	op1 = NewCiphertext(eval.parameters, op0.Degree(), op0.Level())
	return op1, eval.RotateRows(op0, op1)
}

// RotateRows swaps the rows of op0 and returns the result in op1.
// The procedure will return an error if the corresponding Galois key has not been generated and attributed to the evaluator.
// The procedure will return an error if either op0.Degree() or op1.Degree() != 1.
func (eval Evaluator) RotateRows(op0, op1 *rlwe.Ciphertext) (err error) {
	return eval.Automorphism(op0, eval.parameters.GaloisElementForRowRotation(), op1)
}

// RotateHoistedLazyNew applies a series of rotations on the same ciphertext and returns each different rotation in a map indexed by the rotation.
// Results are not rescaled by P.
func (eval Evaluator) RotateHoistedLazyNew(level int, rotations []int, op0 *rlwe.Ciphertext, buf rlwe.HoistingBuffer) (op1 map[int]*rlwe.Ciphertext, err error) {
	op1 = make(map[int]*rlwe.Ciphertext)
	for _, i := range rotations {
		if i != 0 {
			op1[i] = rlwe.NewCiphertext(eval.parameters, 1, level, eval.parameters.MaxLevelP())
			if err = eval.AutomorphismHoistedLazy(level, op0, buf, eval.parameters.GaloisElement(i), op1[i]); err != nil {
				return
			}
		}
	}

	return
}

// MatchScalesAndLevel updates the both input ciphertexts to ensures that their scale matches.
// To do so it computes t0 * a = op1 * b such that:
//   - op0.Scale * a = op1.Scale * b: make the scales match.
//   - gcd(a, PlaintextModulus) == gcd(b, PlaintextModulus) == 1: ensure that the new scale is not a zero divisor if PlaintextModulus is not prime.
//   - |a+b| is minimal: minimize the added noise by the procedure.
func (eval Evaluator) MatchScalesAndLevel(op0, op1 *rlwe.Ciphertext) {

	r0, r1, _ := eval.reconcileScales(op0.Scale.Uint64(), op1.Scale.Uint64())

	level := min(op0.Level(), op1.Level())

	rQ := eval.parameters.RingQ().AtLevel(level)

	for _, el := range op0.Q {
		rQ.MulScalar(el, r0, el)
	}

	op0.ResizeQ(level)
	op0.Scale = op0.Scale.Mul(eval.parameters.NewScale(r0))

	for _, el := range op1.Q {
		rQ.MulScalar(el, r1, el)
	}

	op1.ResizeQ(level)
	op1.Scale = op1.Scale.Mul(eval.parameters.NewScale(r1))
}

func (eval Evaluator) GetRLWEParameters() *rlwe.Parameters {
	return eval.Evaluator.GetRLWEParameters()
}

// reconcileScales finds a pair (r0, r1) such that scale0*r0 ≡ scale1*r1 (mod t),
// gcd(r0, t) = gcd(r1, t) = 1, and |r0| + |r1| (in centered representation) is
// minimal, using the extended Euclidean algorithm over Z/tZ. This is used
// whenever two operands at different scales need to be brought to a common
// scale while minimizing the noise the matching introduces.
func (eval Evaluator) reconcileScales(scale0, scale1 uint64) (r0, r1, e uint64) {

	rT := eval.parameters.RT

	t := rT.Modulus
	tHalf := t >> 1
	BRedConstant := rT.BRedConstant

	// This should never happen; if it did there would be no way to recover.
	if utils.GCD(scale0, t) != 1 {
		panic("cannot reconcileScales: invalid ciphertext scale: gcd(scale, t) != 1")
	}

	var a = t
	var b uint64 = 0
	var A = ring.BRed(ring.ModExp(scale0, rT.Phi()-1, t), scale1, t, BRedConstant)
	var B uint64 = 1

	r0, r1 = A, B

	e = centerMod(A, tHalf, t) + 1

	for A != 0 {

		q := a / A
		a, A = A, a%A
		b, B = B, ring.CRed(t+b-ring.BRed(B, q, t, BRedConstant), t)

		if A != 0 && utils.GCD(A, t) == 1 {
			tmp := centerMod(A, tHalf, t) + centerMod(B, tHalf, t)
			if tmp < e {
				e = tmp
				r0, r1 = A, B
			}
		}
	}

	return
}

// centerMod returns the smallest-magnitude representative of x mod t, i.e.
// t-x when x falls in the upper half of [0, t).
func centerMod(x, tHalf, t uint64) uint64 {
	if x >= tHalf {
		return t - x
	}
	return x
}
