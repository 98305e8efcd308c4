package ring

import (
	"fmt"
	"math/big"
)

// IsPrime returns true if x is a prime number, false otherwise.
func IsPrime(x uint64) bool {
	return new(big.Int).SetUint64(x).ProbablyPrime(20)
}

// NTTFriendlyPrimesGenerator searches for primes of a fixed bit-size that are
// congruent to 1 mod NthRoot, i.e. suitable moduli for a negacyclic NTT of
// the given order. Primes are found by walking outward from 2^(logQ-1) (the
// smallest logQ-bit value): NextUpstreamPrimes moves towards 2^logQ,
// NextDownstreamPrimes moves towards 2^(logQ-1), and NextAlternatingPrimes
// interleaves the two directions to keep the returned primes close in size.
type NTTFriendlyPrimesGenerator struct {
	logQ           uint64
	nthRoot        uint64
	nextUpstream   uint64
	nextDownstream uint64
}

// NewNTTFriendlyPrimesGenerator returns a generator for primes of exactly
// logQ bits, congruent to 1 mod NthRoot.
func NewNTTFriendlyPrimesGenerator(logQ, NthRoot uint64) *NTTFriendlyPrimesGenerator {
	return &NTTFriendlyPrimesGenerator{
		logQ:           logQ,
		nthRoot:        NthRoot,
		nextUpstream:   uint64(1) << (logQ - 1),
		nextDownstream: (uint64(1) << logQ) - 1,
	}
}

// NextUpstreamPrimes returns the next n primes found by searching upward
// from the generator's current position.
func (g *NTTFriendlyPrimesGenerator) NextUpstreamPrimes(n int) (primes []uint64, err error) {

	upper := uint64(1) << g.logQ

	for len(primes) < n {

		for g.nextUpstream < upper && !(g.nextUpstream%g.nthRoot == 1 && IsPrime(g.nextUpstream)) {
			g.nextUpstream++
		}

		if g.nextUpstream >= upper {
			return nil, fmt.Errorf("NTTFriendlyPrimesGenerator: could not find %d upstream prime(s) of %d bits congruent to 1 mod %d", n, g.logQ, g.nthRoot)
		}

		primes = append(primes, g.nextUpstream)
		g.nextUpstream++
	}

	return
}

// NextDownstreamPrimes returns the next n primes found by searching downward
// from the generator's current position.
func (g *NTTFriendlyPrimesGenerator) NextDownstreamPrimes(n int) (primes []uint64, err error) {

	lower := uint64(1) << (g.logQ - 1)

	for len(primes) < n {

		for g.nextDownstream >= lower && !(g.nextDownstream%g.nthRoot == 1 && IsPrime(g.nextDownstream)) {
			g.nextDownstream--
		}

		if g.nextDownstream < lower {
			return nil, fmt.Errorf("NTTFriendlyPrimesGenerator: could not find %d downstream prime(s) of %d bits congruent to 1 mod %d", n, g.logQ, g.nthRoot)
		}

		primes = append(primes, g.nextDownstream)
		g.nextDownstream--
	}

	return
}

// NextAlternatingPrimes returns the next n primes, alternating between the
// upstream and downstream search directions so that the returned primes stay
// close in magnitude.
func (g *NTTFriendlyPrimesGenerator) NextAlternatingPrimes(n int) (primes []uint64, err error) {

	for i := 0; i < n; i++ {

		var p []uint64

		if i%2 == 0 {
			p, err = g.NextDownstreamPrimes(1)
		} else {
			p, err = g.NextUpstreamPrimes(1)
		}

		if err != nil {
			return nil, err
		}

		primes = append(primes, p...)
	}

	return
}
