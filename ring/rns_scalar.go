package ring

import (
	"math/big"
)

// RNSScalar represents a scalar value in the Ring (i.e., a degree-0 polynomial) in RNS form.
type RNSScalar []uint64

// NewRNSScalar creates a new Scalar value.
func (r RNSRing) NewRNSScalar() RNSScalar {
	return make(RNSScalar, r.ModuliChainLength())
}

// NewRNSScalarFromUInt64 creates a new Scalar initialized with value v.
func (r RNSRing) NewRNSScalarFromUInt64(v uint64) (rns RNSScalar) {
	rns = make(RNSScalar, r.ModuliChainLength())
	for limb, s := range r {
		rns[limb] = v % s.Modulus
	}
	return rns
}

// NewRNSScalarFromBigint creates a new Scalar initialized with value v.
func (r RNSRing) NewRNSScalarFromBigint(v *big.Int) (rns RNSScalar) {
	rns = make(RNSScalar, r.ModuliChainLength())
	tmp0 := new(big.Int)
	tmp1 := new(big.Int)
	for limb, s := range r {
		rns[limb] = tmp0.Mod(v, tmp1.SetUint64(s.Modulus)).Uint64()
	}
	return rns
}

// MFormRNSScalar switches an RNS scalar to the Montgomery domain.
// s2 = s1<<64 mod Q
func (r RNSRing) MFormRNSScalar(s1, s2 RNSScalar) {
	for limb, s := range r {
		s2[limb] = MForm(s1[limb], s.Modulus, s.BRedConstant)
	}
}

// NegRNSScalar evaluates s2 = -s1.
func (r RNSRing) NegRNSScalar(s1, s2 RNSScalar) {
	for limb, s := range r {
		s2[limb] = s.Modulus - s1[limb]
	}
}

// SubRNSScalar evaluates sout = s1 - s2.
func (r RNSRing) SubRNSScalar(s1, s2, sout RNSScalar) {
	for limb, s := range r {
		if s2[limb] > s1[limb] {
			sout[limb] = s1[limb] + s.Modulus - s2[limb]
		} else {
			sout[limb] = s1[limb] - s2[limb]
		}
	}
}

// MulRNSScalar evaluates sout = s1 * s2 via lazy Montgomery multiplication.
func (r RNSRing) MulRNSScalar(s1, s2, sout RNSScalar) {
	for limb, s := range r {
		sout[limb] = MRedLazy(s1[limb], s2[limb], s.Modulus, s.MRedConstant)
	}
}

// Inverse computes the modular inverse of a scalar a expressed in RNS/CRT form, in place.
// a is assumed to already be in Montgomery form.
func (r RNSRing) Inverse(a RNSScalar) {
	for limb, s := range r {
		a[limb] = ModExpMontgomery(a[limb], s.Modulus-2, s.Modulus, s.MRedConstant, s.BRedConstant)
	}
}
