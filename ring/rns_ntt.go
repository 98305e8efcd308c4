package ring

// NTT applies the per-modulus NTT limb-wise, evaluating p2 = NTT(p1).
func (r RNSRing) NTT(p1, p2 RNSPoly) {
	for limb, s := range r {
		s.NTT(p1.At(limb), p2.At(limb))
	}
}

// NTTLazy is NTT but leaves each limb of p2 in the lazy range [0, 2*modulus-1].
func (r RNSRing) NTTLazy(p1, p2 RNSPoly) {
	for limb, s := range r {
		s.NTTLazy(p1.At(limb), p2.At(limb))
	}
}

// INTT applies the per-modulus inverse NTT limb-wise, evaluating p2 = INTT(p1).
func (r RNSRing) INTT(p1, p2 RNSPoly) {
	for limb, s := range r {
		s.INTT(p1.At(limb), p2.At(limb))
	}
}

// INTTLazy is INTT but leaves each limb of p2 in the lazy range [0, 2*modulus-1].
func (r RNSRing) INTTLazy(p1, p2 RNSPoly) {
	for limb, s := range r {
		s.INTTLazy(p1.At(limb), p2.At(limb))
	}
}
