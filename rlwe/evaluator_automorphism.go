package rlwe

import (
	"fmt"

	"github.com/latticeforge/fhe-eval/ring"
)

// permuteKeySwitched adds ctIn.Q[0] back onto the key-switched degree-0 limb
// held in switched, then applies the Galois permutation X -> X^galEl (via
// the precomputed NTT-domain index when in the NTT domain, or directly on
// the coefficient representation otherwise) to both limbs, writing the
// result into opOut.
func (eval Evaluator) permuteKeySwitched(rQ ring.RNSRing, ctIn, switched, opOut *Ciphertext, galEl uint64) {

	rQ.Add(switched.Q[0], ctIn.Q[0], switched.Q[0])

	if ctIn.IsNTT {
		index := eval.automorphismIndex[galEl]
		rQ.AutomorphismNTTWithIndex(switched.Q[0], index, opOut.Q[0])
		rQ.AutomorphismNTTWithIndex(switched.Q[1], index, opOut.Q[1])
	} else {
		rQ.Automorphism(switched.Q[0], galEl, opOut.Q[0])
		rQ.Automorphism(switched.Q[1], galEl, opOut.Q[1])
	}

	*opOut.MetaData = *ctIn.MetaData
}

// Automorphism computes phi(ct), where phi is the map X -> X^galEl. The method requires
// that the corresponding RotationKey has been added to the Evaluator. The method will
// return an error if either ctIn or opOut degree is not equal to 1.
func (eval Evaluator) Automorphism(ctIn *Ciphertext, galEl uint64, opOut *Ciphertext) (err error) {

	if ctIn.Degree() != 1 || opOut.Degree() != 1 {
		return fmt.Errorf("cannot apply Automorphism: input and output [rlwe.Ciphertext] must be of degree 1")
	}

	if galEl == 1 {
		if opOut != ctIn {
			opOut.Copy(ctIn)
		}
		return
	}

	var evk *GaloisKey
	if evk, err = eval.CheckAndGetGaloisKey(galEl); err != nil {
		return fmt.Errorf("cannot apply Automorphism: %w", err)
	}

	level := min(ctIn.Level(), opOut.Level())

	opOut.ResizeQ(level)

	rQ := eval.params.RingQ().AtLevel(level)

	switched := &Ciphertext{}
	switched.Vector = &ring.Vector{}
	switched.Q = []ring.RNSPoly{eval.BuffQ[0], eval.BuffQ[1]}
	switched.MetaData = ctIn.MetaData

	eval.GadgetProduct(level, ctIn.Q[1], ctIn.IsNTT, &evk.GadgetCiphertext, switched)

	eval.permuteKeySwitched(rQ, ctIn, switched, opOut, galEl)

	return
}

// AutomorphismHoisted is similar to Automorphism, except that it takes as input ctIn and c1DecompQP, where c1DecompQP is the RNS
// decomposition of its element of degree 1. This decomposition can be obtained with DecomposeNTT.
// The method requires that the corresponding RotationKey has been added to the Evaluator.
// The method will return an error if either ctIn or opOut degree is not equal to 1.
func (eval Evaluator) AutomorphismHoisted(ctIn *Ciphertext, buf HoistingBuffer, galEl uint64, opOut *Ciphertext) (err error) {

	if ctIn.Degree() != 1 || opOut.Degree() != 1 {
		return fmt.Errorf("cannot apply AutomorphismHoisted: input and output [rlwe.Ciphertext] must be of degree 1")
	}

	level := min(ctIn.Level(), opOut.Level())

	if galEl == 1 {
		if ctIn != opOut {
			opOut.Copy(ctIn)
		}
		return
	}

	var evk *GaloisKey
	if evk, err = eval.CheckAndGetGaloisKey(galEl); err != nil {
		return fmt.Errorf("cannot apply AutomorphismHoisted: %w", err)
	}

	opOut.ResizeQ(level)

	rQ := eval.params.RingQ().AtLevel(level)

	switched := &Ciphertext{}
	switched.Vector = &ring.Vector{}
	switched.Q = []ring.RNSPoly{eval.BuffQ[0], eval.BuffQ[1]} // GadgetProductHoisted reuses these as its QP scratch ciphertext
	switched.MetaData = ctIn.MetaData

	eval.GadgetProductHoisted(level, buf, &evk.EvaluationKey.GadgetCiphertext, switched)

	eval.permuteKeySwitched(rQ, ctIn, switched, opOut, galEl)

	return
}

// AutomorphismHoistedLazy is similar to AutomorphismHoisted, except that it returns a ciphertext modulo QP and scaled by P.
// The method requires that the corresponding RotationKey has been added to the Evaluator.
// Accepts `ctIn` in NTT and outside of NTT domain, but `ctQP` is always returned in the NTT domain.
func (eval Evaluator) AutomorphismHoistedLazy(LevelQ int, ctIn *Ciphertext, buf HoistingBuffer, galEl uint64, ctQP *Ciphertext) (err error) {

	var evk *GaloisKey
	if evk, err = eval.CheckAndGetGaloisKey(galEl); err != nil {
		return fmt.Errorf("cannot apply AutomorphismHoistedLazy: %w", err)
	}

	LevelP := evk.LevelP()

	if ctQP.LevelP() < LevelP {
		return fmt.Errorf("ctQP.LevelP()=%d < GaloisKey[%d].LevelP()=%d", ctQP.LevelP(), galEl, LevelP)
	}

	switchedQP := &Ciphertext{}
	switchedQP.Vector = &ring.Vector{}
	switchedQP.Q = []ring.RNSPoly{eval.BuffQ[0], eval.BuffQ[1]}
	switchedQP.P = []ring.RNSPoly{eval.BuffP[0], eval.BuffP[1]}
	switchedQP.MetaData = ctIn.MetaData.Clone()
	switchedQP.IsNTT = true // GadgetProductHoistedLazy always returns in the NTT domain

	if err = eval.GadgetProductHoistedLazy(LevelQ, true, buf, &evk.GadgetCiphertext, switchedQP); err != nil {
		return fmt.Errorf("eval.GadgetProductHoistedLazy: %w", err)
	}

	rQ := eval.params.RingQAtLevel(LevelQ)
	rP := eval.params.RingPAtLevel(LevelP)

	index := eval.automorphismIndex[galEl]

	// The degree-1 limb needs no P-scaled ctIn contribution, so it can be permuted directly.
	rQ.AutomorphismNTTWithIndex(switchedQP.Q[1], index, ctQP.Q[1])

	if LevelP > -1 {
		rP.AutomorphismNTTWithIndex(switchedQP.P[1], index, ctQP.P[1])
		rQ.MulScalarBigint(ctIn.Q[0], rP.Modulus(), switchedQP.Q[1])

		if !ctIn.IsNTT {
			rQ.NTT(switchedQP.Q[1], switchedQP.Q[1])
		}

		rQ.Add(switchedQP.Q[0], switchedQP.Q[1], switchedQP.Q[0])
	}

	rQ.AutomorphismNTTWithIndex(switchedQP.Q[0], index, ctQP.Q[0])
	if LevelP > -1 {
		rP.AutomorphismNTTWithIndex(switchedQP.P[0], index, ctQP.P[0])
	}

	ctQP.MetaData = switchedQP.MetaData.Clone()

	return
}
