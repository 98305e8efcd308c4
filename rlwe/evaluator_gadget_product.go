package rlwe

import (
	"fmt"

	"github.com/latticeforge/fhe-eval/ring"
)

// overflowGuard tracks how many lazy (un-reduced) accumulations have piled
// up into a destination polynomial and forces a Barrett reduction once the
// count reaches the ring's overflow margin, so that repeated
// MulCoeffsMontgomeryLazy accumulation never overflows uint64 lanes.
type overflowGuard struct {
	count     int
	threshold int
}

func newOverflowGuard(threshold int) overflowGuard {
	return overflowGuard{threshold: threshold}
}

// tick advances the guard by one accumulation and reports whether the
// caller must reduce now.
func (g *overflowGuard) tick() bool {
	g.count++
	return g.threshold > 0 && g.count%g.threshold == g.threshold-1
}

// due reports whether a final reduction is needed after the loop exits,
// i.e. the last tick did not already land on a reduction boundary.
func (g overflowGuard) due() bool {
	return g.threshold == 0 || g.count%g.threshold != 0
}

// PrecomputeLevelAware coalesces gadgetCt's digits ahead of a gadget product
// whenever the full auxiliary basis P would otherwise be wasted on a
// shallower Q. It is a no-op whenever:
//  1. no auxiliary prime is configured at all,
//  2. gadgetCt already applies digit decomposition on top of the RNS split,
//  3. gadgetCt is not encrypted at the evaluator's maximum level.
func (eval Evaluator) PrecomputeLevelAware(LevelQ int, gadgetCt *GadgetCiphertext, buf []uint64) *GadgetCiphertext {

	applicable := eval.params.MaxLevelP() != -1
	applicable = applicable && gadgetCt.DigitDecomposition.Type == 0
	applicable = applicable && gadgetCt.LevelQ() == eval.params.MaxLevelQ()
	applicable = applicable && gadgetCt.LevelP() == eval.params.MaxLevelP()

	if applicable {

		// Counting in moduli rather than levels keeps the arithmetic below readable.
		pDigitCount := gadgetCt.LevelP() + 1

		// Round the Q digit count down to a multiple of the P digit count.
		qDigitCount := ((gadgetCt.LevelQ() + 1) / pDigitCount) * pDigitCount

		// Nothing to coalesce if the caller's level already exceeds the coalescible span.
		if LevelQ+1 > qDigitCount {
			return gadgetCt
		}

		if factor := gadgetCt.OptimalCoalescingFactor(LevelQ); factor != 0 {
			return gadgetCt.Coalesce(eval.params, LevelQ, factor, buf)
		}
	}

	return gadgetCt
}

// GadgetProduct evaluates poly x Gadget -> RLWE, i.e.
//
// ct = [<decomp(cx), gadget[0]>, <decomp(cx), gadget[1]>] mod Q
func (eval Evaluator) GadgetProduct(LevelQ int, cx ring.RNSPoly, cxIsNTT bool, gadgetCt *GadgetCiphertext, ct *Ciphertext) {

	gadgetCt = eval.PrecomputeLevelAware(LevelQ, gadgetCt, eval.BuffGadgetCt)

	LevelP := gadgetCt.LevelP()

	scratch := &Ciphertext{}
	scratch.Vector = &ring.Vector{}
	scratch.Q = []ring.RNSPoly{ct.Q[0], ct.Q[1]}
	if LevelP > -1 {
		scratch.P = []ring.RNSPoly{
			eval.BuffGadgetP[0],
			eval.BuffGadgetP[1],
		}
	}
	scratch.MetaData = ct.MetaData.Clone()
	scratch.IsNTT = true // GadgetProductLazy always returns in the NTT domain

	if err := eval.GadgetProductLazy(LevelQ, true, cx, cxIsNTT, gadgetCt, scratch); err != nil {
		panic(fmt.Errorf("eval.GadgetProductLazy: %w", err))
	}

	eval.ModDown(LevelQ, LevelP, scratch, ct)
}

// ModDown takes elQP expressed modulo QP and writes elQ = round(elQP/P) mod Q,
// switching the NTT domain of the source and destination as needed.
func (eval Evaluator) ModDown(LevelQ, LevelP int, elQP, elQ *Ciphertext) {

	rQ := eval.params.RingQ().AtLevel(LevelQ)

	if LevelP != -1 {

		rQ := eval.params.RingQ().AtLevel(LevelQ)
		coalesce := max(0, ((LevelP+1)/eval.params.PCount())-1)
		rP := eval.params.CoalescedRingP(coalesce).AtLevel(LevelP)

		if elQP.IsNTT {
			if elQ.IsNTT {
				// NTT -> NTT
				rQ.ModDownNTT(rP, elQP.Q[0], elQP.P[0], eval.BuffModDownQ, eval.BuffModDownP, elQ.Q[0])
				rQ.ModDownNTT(rP, elQP.Q[1], elQP.P[1], eval.BuffModDownQ, eval.BuffModDownP, elQ.Q[1])
			} else {
				// NTT -> INTT
				rQ.INTTLazy(elQP.Q[0], elQP.Q[0])
				rQ.INTTLazy(elQP.Q[1], elQP.Q[1])
				rP.INTTLazy(elQP.P[0], elQP.P[0])
				rP.INTTLazy(elQP.P[1], elQP.P[1])
				rQ.ModDown(rP, elQP.Q[0], elQP.P[0], eval.BuffModDownQ, eval.BuffModDownP, elQ.Q[0])
				rQ.ModDown(rP, elQP.Q[1], elQP.P[1], eval.BuffModDownQ, eval.BuffModDownP, elQ.Q[1])
			}
		} else {
			if elQ.IsNTT {
				// INTT -> NTT
				rQ.ModDown(rP, elQP.Q[0], elQP.P[0], eval.BuffModDownQ, eval.BuffModDownP, elQ.Q[0])
				rQ.ModDown(rP, elQP.Q[1], elQP.P[1], eval.BuffModDownQ, eval.BuffModDownP, elQ.Q[1])

				rQ.NTT(elQ.Q[0], elQ.Q[0])
				rQ.NTT(elQ.Q[1], elQ.Q[1])

			} else {
				// INTT -> INTT
				rQ.ModDown(rP, elQP.Q[0], elQP.P[0], eval.BuffModDownQ, eval.BuffModDownP, elQ.Q[0])
				rQ.ModDown(rP, elQP.Q[1], elQP.P[1], eval.BuffModDownQ, eval.BuffModDownP, elQ.Q[1])
			}
		}
	} else {
		if elQP.IsNTT {
			if elQ.IsNTT {
				// NTT -> NTT
				elQP.Q[0].CopyLvl(LevelQ, &elQ.Q[0])
				elQP.Q[1].CopyLvl(LevelQ, &elQ.Q[1])
			} else {
				// NTT -> INTT
				rQ.INTT(elQP.Q[0], elQ.Q[0])
				rQ.INTT(elQP.Q[1], elQ.Q[1])
			}
		} else {
			if elQ.IsNTT {
				// INTT -> NTT
				rQ.NTT(elQP.Q[0], elQ.Q[0])
				rQ.NTT(elQP.Q[1], elQ.Q[1])

			} else {
				// INTT -> INTT
				elQP.Q[0].CopyLvl(LevelQ, &elQ.Q[0])
				elQP.Q[1].CopyLvl(LevelQ, &elQ.Q[1])
			}
		}
	}
}

// GadgetProductLazy evaluates poly x Gadget -> RLWE, i.e.
//
// ct = [<decomp(cx), gadget[0]>, <decomp(cx), gadget[1]>] mod QP
//
// The result is always written (overwrite = true) or accumulated
// (overwrite = false) into ct in the NTT domain, regardless of ct's NTT flag.
func (eval Evaluator) GadgetProductLazy(LevelQ int, overwrite bool, cx ring.RNSPoly, cxIsNTT bool, gadgetCt *GadgetCiphertext, ct *Ciphertext) (err error) {

	if ct.LevelP() < gadgetCt.LevelP() {
		return fmt.Errorf("ct.LevelP()=%d < gadgetCt.LevelP()=%d", ct.LevelP(), gadgetCt.LevelP())
	}

	switch gadgetCt.DigitDecomposition.Type {
	case Signed, SignedBalanced:
		eval.gadgetProductSignedDigits(LevelQ, overwrite, cx, cxIsNTT, gadgetCt, ct)
	case Unsigned:
		eval.gadgetProductUnsignedDigits(LevelQ, overwrite, cx, cxIsNTT, gadgetCt, ct)
	default:
		eval.gadgetProductRNSOnly(LevelQ, overwrite, cx, cxIsNTT, gadgetCt, ct)
	}

	return
}

// gadgetProductRNSOnly implements the gadget product when the gadget
// ciphertext carries pure RNS decomposition (no additional digit split).
func (eval Evaluator) gadgetProductRNSOnly(LevelQ int, overwrite bool, cx ring.RNSPoly, cxIsNTT bool, gadgetCt *GadgetCiphertext, ct *Ciphertext) {

	LevelP := gadgetCt.LevelP()
	rQ := eval.params.RingQ().AtLevel(LevelQ)
	guardQ := newOverflowGuard(eval.params.QiOverflowMargin(LevelQ) >> 1)

	var rP ring.RNSRing
	guardP := newOverflowGuard(0)
	if LevelP != -1 {
		rP = eval.RingP[gadgetCt.CoalescingFactor].AtLevel(LevelP)
		guardP = newOverflowGuard(rP.OverflowMargin() >> 1)
	}

	digitQP := eval.BuffGadgetQP

	cxNTT := eval.BuffNTT
	cxINTT := eval.BuffInvNTT

	rows := gadgetCt.Vector

	if cxIsNTT {

		if gadgetCt.CoalescingFactor != 0 {
			rQ.MulRNSScalarMontgomery(cx, gadgetCt.CoalescingConstant, cxNTT)
		} else {
			cxNTT = cx
		}

		rQ.INTT(cxNTT, cxINTT)
	} else {
		if gadgetCt.CoalescingFactor != 0 {
			rQ.MulRNSScalarMontgomery(cx, gadgetCt.CoalescingConstant, cxINTT)
		} else {
			cxINTT = cx
		}

		rQ.NTT(cxINTT, cxNTT)
	}

	for i := range eval.params.DecompositionMatrixDimensions(LevelQ, LevelP, DigitDecomposition{}) {

		eval.DecomposeSingleNTT(LevelQ, LevelP, i, cxNTT, cxINTT, digitQP[0], digitQP[1])

		if i == 0 && overwrite {

			rQ.MulCoeffsMontgomeryLazy(rows[0].Q[i][0], digitQP[0], ct.Q[0])
			rQ.MulCoeffsMontgomeryLazy(rows[1].Q[i][0], digitQP[0], ct.Q[1])

			if LevelP > -1 {
				rP.MulCoeffsMontgomeryLazy(rows[0].P[i][0], digitQP[1], ct.P[0])
				rP.MulCoeffsMontgomeryLazy(rows[1].P[i][0], digitQP[1], ct.P[1])
			}

		} else {

			rQ.MulCoeffsMontgomeryLazyThenAddLazy(rows[0].Q[i][0], digitQP[0], ct.Q[0])
			rQ.MulCoeffsMontgomeryLazyThenAddLazy(rows[1].Q[i][0], digitQP[0], ct.Q[1])

			if LevelP > -1 {
				rP.MulCoeffsMontgomeryLazyThenAddLazy(rows[0].P[i][0], digitQP[1], ct.P[0])
				rP.MulCoeffsMontgomeryLazyThenAddLazy(rows[1].P[i][0], digitQP[1], ct.P[1])
			}
		}

		if guardQ.tick() {
			rQ.Reduce(ct.Q[0], ct.Q[0])
			rQ.Reduce(ct.Q[1], ct.Q[1])
		}

		if LevelP > -1 && guardP.tick() {
			rP.Reduce(ct.P[0], ct.P[0])
			rP.Reduce(ct.P[1], ct.P[1])
		}
	}

	if guardQ.due() {
		rQ.Reduce(ct.Q[0], ct.Q[0])
		rQ.Reduce(ct.Q[1], ct.Q[1])
	}

	if LevelP > -1 && guardP.due() {
		rP.Reduce(ct.P[0], ct.P[0])
		rP.Reduce(ct.P[1], ct.P[1])
	}
}

func (eval Evaluator) gadgetProductSignedDigits(LevelQ int, overwrite bool, cx ring.RNSPoly, cxIsNTT bool, gadgetCt *GadgetCiphertext, ct *Ciphertext) {

	LevelP := gadgetCt.LevelP()

	rQ := eval.params.RingQ().AtLevel(LevelQ)

	var cxINTT ring.RNSPoly
	if cxIsNTT {
		cxINTT = eval.BuffInvNTT
		rQ.INTT(cx, cxINTT)
	} else {
		cxINTT = cx
	}

	rows := LevelQ + 1
	dims := gadgetCt.Dims()

	log2basis := gadgetCt.DigitDecomposition.Log2Basis

	centered := eval.BuffInvNTT.At(0)
	carry := eval.BuffDigitDecomp[0]
	digit := eval.BuffDigitDecomp[1]
	digitNTT := digit

	var decompose func(s *ring.Ring, i int, log2basis uint64, in, carry, out []uint64)
	switch gadgetCt.DigitDecomposition.Type {
	case Signed:
		decompose = func(s *ring.Ring, i int, log2basis uint64, in, carry, out []uint64) {
			s.DecomposeSigned(i, log2basis, in, carry, out)
		}
	case SignedBalanced:
		decompose = func(s *ring.Ring, i int, log2basis uint64, in, carry, out []uint64) {
			s.DecomposeSignedBalanced(i, log2basis, in, carry, out)
		}
	}

	guardQ := newOverflowGuard(eval.params.QiOverflowMargin(LevelQ) >> 1)

	var rP ring.RNSRing
	guardP := newOverflowGuard(0)
	if LevelP != -1 {
		rP = eval.params.RingP().AtLevel(LevelP)
		guardP = newOverflowGuard(rP.OverflowMargin() >> 1)
	}

	gadget := gadgetCt.Vector

	// Re-encrypts each CRT residue one digit at a time.
	for i := 0; i < rows; i++ {

		rQ[i].CenterModU64(cxINTT.At(i), centered)

		for u, s := range rQ {

			guardQ.count = 0

			for j := 0; j < dims[i]; j++ {

				decompose(s, j, uint64(log2basis), centered, carry, digit)
				s.NTTLazy(digit, digitNTT)

				if i == 0 && j == 0 && overwrite {
					s.MulCoeffsMontgomeryLazy(gadget[0].Q[i][j].At(u), digitNTT, ct.Q[0].At(u))
					s.MulCoeffsMontgomeryLazy(gadget[1].Q[i][j].At(u), digitNTT, ct.Q[1].At(u))
				} else {
					s.MulCoeffsMontgomeryLazyThenAddLazy(gadget[0].Q[i][j].At(u), digitNTT, ct.Q[0].At(u))
					s.MulCoeffsMontgomeryLazyThenAddLazy(gadget[1].Q[i][j].At(u), digitNTT, ct.Q[1].At(u))
				}

				if guardQ.tick() {
					s.Reduce(ct.Q[0].At(u), ct.Q[0].At(u))
					s.Reduce(ct.Q[1].At(u), ct.Q[1].At(u))
				}
			}
		}

		for u, s := range rP {

			guardP.count = 0

			for j := 0; j < dims[i]; j++ {

				decompose(s, j, uint64(log2basis), centered, carry, digit)
				s.NTTLazy(digit, digitNTT)

				if i == 0 && j == 0 && overwrite {
					s.MulCoeffsMontgomeryLazy(gadget[0].P[i][j].At(u), digitNTT, ct.P[0].At(u))
					s.MulCoeffsMontgomeryLazy(gadget[1].P[i][j].At(u), digitNTT, ct.P[1].At(u))
				} else {
					s.MulCoeffsMontgomeryLazyThenAddLazy(gadget[0].P[i][j].At(u), digitNTT, ct.P[0].At(u))
					s.MulCoeffsMontgomeryLazyThenAddLazy(gadget[1].P[i][j].At(u), digitNTT, ct.P[1].At(u))
				}

				if guardP.tick() {
					s.Reduce(ct.P[0].At(u), ct.P[0].At(u))
					s.Reduce(ct.P[1].At(u), ct.P[1].At(u))
				}
			}
		}
	}

	if guardQ.due() {
		rQ.Reduce(ct.Q[0], ct.Q[0])
		rQ.Reduce(ct.Q[1], ct.Q[1])
	}

	if rP.Level() > -1 && guardP.due() {
		rP.Reduce(ct.P[0], ct.P[0])
		rP.Reduce(ct.P[1], ct.P[1])
	}
}

func (eval Evaluator) gadgetProductUnsignedDigits(LevelQ int, overwrite bool, cx ring.RNSPoly, cxIsNTT bool, gadgetCt *GadgetCiphertext, ct *Ciphertext) {

	LevelP := gadgetCt.LevelP()

	rQ := eval.params.RingQ().AtLevel(LevelQ)

	var cxINTT ring.RNSPoly
	if cxIsNTT {
		cxINTT = eval.BuffInvNTT
		rQ.INTT(cx, cxINTT)
	} else {
		cxINTT = cx
	}

	log2basis := gadgetCt.DigitDecomposition.Log2Basis

	digit := eval.BuffDigitDecomp[0]
	digitNTT := eval.BuffDigitDecomp[1]

	guardQ := newOverflowGuard(eval.params.QiOverflowMargin(LevelQ) >> 1)

	var rP ring.RNSRing
	guardP := newOverflowGuard(0)
	if LevelP != -1 {
		rP = eval.params.RingP().AtLevel(LevelP)
		guardP = newOverflowGuard(rP.OverflowMargin() >> 1)
	}

	gadget := gadgetCt.Vector

	rows := LevelQ + 1
	dims := gadgetCt.Dims()

	for i := 0; i < rows; i++ {

		guardP.count = 0
		guardQ.count = 0

		for j := 0; j < dims[i]; j++ {

			rQ[0].DecomposeUnsigned(j, uint64(log2basis), cxINTT.At(i), digit)

			for u, s := range rQ {

				s.NTTLazy(digit, digitNTT)

				if i == 0 && j == 0 && overwrite {
					s.MulCoeffsMontgomeryLazy(gadget[0].Q[i][j].At(u), digitNTT, ct.Q[0].At(u))
					s.MulCoeffsMontgomeryLazy(gadget[1].Q[i][j].At(u), digitNTT, ct.Q[1].At(u))
				} else {
					s.MulCoeffsMontgomeryLazyThenAddLazy(gadget[0].Q[i][j].At(u), digitNTT, ct.Q[0].At(u))
					s.MulCoeffsMontgomeryLazyThenAddLazy(gadget[1].Q[i][j].At(u), digitNTT, ct.Q[1].At(u))
				}
			}

			if guardQ.tick() {
				rQ.Reduce(ct.Q[0], ct.Q[0])
				rQ.Reduce(ct.Q[1], ct.Q[1])
			}

			for u, s := range rP {

				s.NTTLazy(digit, digitNTT)

				if i == 0 && j == 0 && overwrite {
					s.MulCoeffsMontgomeryLazy(gadget[0].P[i][j].At(u), digitNTT, ct.P[0].At(u))
					s.MulCoeffsMontgomeryLazy(gadget[1].P[i][j].At(u), digitNTT, ct.P[1].At(u))
				} else {
					s.MulCoeffsMontgomeryLazyThenAddLazy(gadget[0].P[i][j].At(u), digitNTT, ct.P[0].At(u))
					s.MulCoeffsMontgomeryLazyThenAddLazy(gadget[1].P[i][j].At(u), digitNTT, ct.P[1].At(u))
				}
			}

			if rP.Level() != -1 && guardP.tick() {
				rP.Reduce(ct.P[0], ct.P[0])
				rP.Reduce(ct.P[1], ct.P[1])
			}
		}
	}

	if guardQ.due() {
		rQ.Reduce(ct.Q[0], ct.Q[0])
		rQ.Reduce(ct.Q[1], ct.Q[1])
	}

	if rP.Level() != -1 && guardP.due() {
		rP.Reduce(ct.P[0], ct.P[0])
		rP.Reduce(ct.P[1], ct.P[1])
	}
}

// GadgetProductHoisted applies the key switch to the pre-decomposed
// polynomial carried in buf (modulo QP), folds the auxiliary basis P back
// down into Q, and writes the result into ct.
//
// ct = [<buf, gadget[0]>, <buf, gadget[1]>] mod Q
//
// buf is expected to already be in the NTT domain; the result's NTT domain
// follows ct's own IsNTT flag.
func (eval Evaluator) GadgetProductHoisted(LevelQ int, buf HoistingBuffer, gadgetCt *GadgetCiphertext, ct *Ciphertext) {

	scratch := &Ciphertext{}
	scratch.Vector = &ring.Vector{}
	scratch.Q = []ring.RNSPoly{ct.Q[0], ct.Q[1]}
	scratch.P = []ring.RNSPoly{eval.BuffGadgetP[0], eval.BuffGadgetP[1]}
	scratch.MetaData = ct.MetaData.Clone()
	scratch.IsNTT = true // GadgetProductHoistedLazy always returns in the NTT domain

	if err := eval.GadgetProductHoistedLazy(LevelQ, true, buf, gadgetCt, scratch); err != nil {
		panic(fmt.Errorf("eval.GadgetProductHoistedLazy: %w", err))
	}

	eval.ModDown(LevelQ, gadgetCt.LevelP(), scratch, ct)
}

// GadgetProductHoistedLazy applies the gadget product to the
// already-decomposed polynomial in buf (modulo QP):
//
// (c0, c1) = dot(buf, gadgetCt[0]) mod QP
//
// buf is expected to already be in the NTT domain. The result is always
// written (overwrite = true) or accumulated (overwrite = false) into ct in
// the NTT domain, regardless of ct's IsNTT flag.
func (eval Evaluator) GadgetProductHoistedLazy(LevelQ int, overwrite bool, buf HoistingBuffer, gadgetCt *GadgetCiphertext, ct *Ciphertext) (err error) {

	if int(gadgetCt.DigitDecomposition.Type) != 0 {
		return fmt.Errorf("cannot GadgetProductHoistedLazy: method is unsupported for BaseTwoDecomposition != 0")
	}

	if ct.LevelP() < gadgetCt.LevelP() {
		return fmt.Errorf("ct.LevelP()=%d < gadgetCt.LevelP()=%d", ct.LevelP(), gadgetCt.LevelP())
	}

	eval.gadgetProductHoistedRNSOnly(LevelQ, overwrite, buf, gadgetCt, ct)

	return
}

func (eval Evaluator) gadgetProductHoistedRNSOnly(LevelQ int, overwrite bool, buf HoistingBuffer, gadgetCt *GadgetCiphertext, ct *Ciphertext) {

	LevelP := gadgetCt.LevelP()

	rQ := eval.params.RingQ().AtLevel(LevelQ)
	rP := eval.params.RingP().AtLevel(LevelP)

	guardQ := newOverflowGuard(eval.params.QiOverflowMargin(LevelQ) >> 1)
	guardP := newOverflowGuard(eval.params.PiOverflowMargin(LevelP) >> 1)

	rows := gadgetCt.Vector

	for i := range eval.params.DecompositionMatrixDimensions(LevelQ, LevelP, DigitDecomposition{}) {

		if i == 0 && overwrite {
			rQ.MulCoeffsMontgomeryLazy(rows[0].Q[i][0], buf[i].Q, ct.Q[0])
			rQ.MulCoeffsMontgomeryLazy(rows[1].Q[i][0], buf[i].Q, ct.Q[1])
			rP.MulCoeffsMontgomeryLazy(rows[0].P[i][0], buf[i].P, ct.P[0])
			rP.MulCoeffsMontgomeryLazy(rows[1].P[i][0], buf[i].P, ct.P[1])
		} else {
			rQ.MulCoeffsMontgomeryLazyThenAddLazy(rows[0].Q[i][0], buf[i].Q, ct.Q[0])
			rQ.MulCoeffsMontgomeryLazyThenAddLazy(rows[1].Q[i][0], buf[i].Q, ct.Q[1])
			rP.MulCoeffsMontgomeryLazyThenAddLazy(rows[0].P[i][0], buf[i].P, ct.P[0])
			rP.MulCoeffsMontgomeryLazyThenAddLazy(rows[1].P[i][0], buf[i].P, ct.P[1])
		}

		if guardQ.tick() {
			rQ.Reduce(ct.Q[0], ct.Q[0])
			rQ.Reduce(ct.Q[1], ct.Q[1])
		}

		if guardP.tick() {
			rP.Reduce(ct.P[0], ct.P[0])
			rP.Reduce(ct.P[1], ct.P[1])
		}
	}

	if guardQ.due() {
		rQ.Reduce(ct.Q[0], ct.Q[0])
		rQ.Reduce(ct.Q[1], ct.Q[1])
	}

	if guardP.due() {
		rP.Reduce(ct.P[0], ct.P[0])
		rP.Reduce(ct.P[1], ct.P[1])
	}
}

// FillHoistingBuffer fills buf with the digit decomposition of cx, in both
// the Q and P bases, ready for repeated use by GadgetProductHoistedLazy
// across several key switches that share the same decomposed input.
// Entries of buf are left in the NTT domain.
func (eval Evaluator) FillHoistingBuffer(LevelQ, LevelP int, cx ring.RNSPoly, cxIsNTT bool, buf HoistingBuffer) {

	rQ := eval.params.RingQAtLevel(LevelQ)

	var ntt, invNTT ring.RNSPoly

	if cxIsNTT {
		ntt = cx
		invNTT = eval.BuffInvNTT
		rQ.INTT(ntt, invNTT)
	} else {
		ntt = eval.BuffInvNTT
		invNTT = cx
		rQ.NTT(invNTT, ntt)
	}

	for i := range eval.params.DecompositionMatrixDimensions(LevelQ, LevelP, DigitDecomposition{}) {
		eval.DecomposeSingleNTT(LevelQ, LevelP, i, ntt, invNTT, buf[i].Q, buf[i].P)
	}
}

// DecomposeSingleNTT splits the input polynomial (given both in and out of
// the NTT domain as ntt/invNTT) along the RNS basis, writing the digit
// indexed by digitIndex into outQ (mod Q) and outP (mod P), both returned
// in the NTT domain.
func (eval Evaluator) DecomposeSingleNTT(LevelQ, LevelP, digitIndex int, ntt, invNTT, outQ, outP ring.RNSPoly) {

	rQ := eval.params.RingQAtLevel(LevelQ)
	coalesce := max(0, (LevelP+1)/eval.params.PCount()-1)
	rP := eval.RingP[coalesce].AtLevel(LevelP)
	decomposer := eval.Decomposers[coalesce]

	decomposer.DecomposeAndSplit(LevelQ, LevelP, digitIndex, invNTT, outQ, outP)

	start := digitIndex * (LevelP + 1)
	end := start + (LevelP + 1)

	// The digit's own moduli are already reduced mod qi; NTT-transform only the rest.
	for x := 0; x < LevelQ+1; x++ {
		if start <= x && x < end {
			copy(outQ.At(x), ntt.At(x))
		} else {
			rQ[x].NTT(outQ.At(x), outQ.At(x))
		}
	}

	if LevelP > -1 {
		rP.NTT(outP, outP)
	}
}
