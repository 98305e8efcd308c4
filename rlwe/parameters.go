package rlwe

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"math/bits"
	"slices"

	"github.com/google/go-cmp/cmp"

	"github.com/latticeforge/fhe-eval/ring"
	"github.com/latticeforge/fhe-eval/utils/buffer"
)

// MaxLogN is the log2 of the largest supported polynomial modulus degree.
const MaxLogN = 20

// MinLogN is the log2 of the smallest supported polynomial modulus degree (needed to ensure NTT correctness).
const MinLogN = 4

// MaxModuliSize is the largest bit-length supported for the moduli in the RNS representation.
const MaxModuliSize = 60

// DefaultXe is the default error distribution used when a ParametersLiteral leaves Xe unset.
var DefaultXe = ring.DiscreteGaussian{Sigma: 3.2, Bound: 19.2}

// DefaultXs is the default secret distribution used when a ParametersLiteral leaves Xs unset.
var DefaultXs = ring.Ternary{H: 192}

// ParameterProvider is implemented by every scheme-specific Parameters type
// (heint.Parameters, hefloat.Parameters, ...) and gives generic code
// (evaluators, key generators, gadget products) access to the underlying
// generic RLWE parameters without depending on the concrete scheme package.
type ParameterProvider interface {
	GetRLWEParameters() *Parameters
}

// Parameters represents a set of generic RLWE parameters. Its fields are private and
// immutable. See ParametersLiteral for user-specified parameters.
type Parameters struct {
	logN         int
	logNthRoot   int
	qi           []uint64
	pi           []uint64
	xe           ring.DistributionParameters
	xs           ring.DistributionParameters
	ringQ        ring.RNSRing
	ringP        ring.RNSRing
	ringType     ring.Type
	defaultScale Scale
	nttFlag      bool
}

// NewParameters returns a new set of generic RLWE parameters from the given ring degree logn, moduli q and p, and
// error distributions xs (secret) and xe (error). It returns the empty Parameters{} and a non-nil error if the
// specified parameters are invalid.
func NewParameters(logn, logNthRoot int, q, p []uint64, xs, xe ring.DistributionParameters, ringType ring.Type, defaultScale Scale, nttFlag bool) (params Parameters, err error) {

	if err = checkSizeParams(logn); err != nil {
		return Parameters{}, err
	}

	if err = CheckModuli(q, p); err != nil {
		return Parameters{}, err
	}

	params = Parameters{
		logN:         logn,
		logNthRoot:   logNthRoot,
		qi:           slices.Clone(q),
		pi:           slices.Clone(p),
		xs:           xs,
		xe:           xe,
		ringType:     ringType,
		defaultScale: defaultScale,
		nttFlag:      nttFlag,
	}

	switch xs.(type) {
	case ring.Ternary, ring.DiscreteGaussian, *ring.Ternary, *ring.DiscreteGaussian:
	default:
		return Parameters{}, fmt.Errorf("secret distribution type must be Ternary or DiscreteGaussian but is %T", xs)
	}

	switch xe.(type) {
	case ring.Ternary, ring.DiscreteGaussian, *ring.Ternary, *ring.DiscreteGaussian:
	default:
		return Parameters{}, fmt.Errorf("error distribution type must be Ternary or DiscreteGaussian but is %T", xe)
	}

	if err = params.initRings(); err != nil {
		return Parameters{}, fmt.Errorf("cannot NewParameters: %w", err)
	}

	return params, nil
}

// NewParametersFromLiteral instantiates a set of generic RLWE parameters from a ParametersLiteral specification.
// It returns the empty Parameters{} and a non-nil error if the specified parameters are invalid.
//
// If the moduli chain is specified through the LogQ and LogP fields, the method generates a moduli chain matching
// the specified sizes (see GenModuli).
//
// If Xs or Xe are left unset, DefaultXs and DefaultXe are substituted.
//
// If RingType is left unset, the default value is ring.Standard.
func NewParametersFromLiteral(pl ParametersLiteral) (params Parameters, err error) {

	if pl.Xs == nil {
		pl.Xs = DefaultXs
	}

	if pl.Xe == nil {
		pl.Xe = DefaultXe
	}

	if pl.DefaultScale.Value.Sign() == 0 {
		pl.DefaultScale = NewScale(1)
	}

	if pl.Q == nil && pl.LogQ == nil {
		return Parameters{}, fmt.Errorf("rlwe.NewParametersFromLiteral: both Q and LogQ fields are empty")
	}
	if pl.Q != nil && pl.LogQ != nil {
		return Parameters{}, fmt.Errorf("rlwe.NewParametersFromLiteral: both Q and LogQ fields are set")
	}
	if pl.P != nil && pl.LogP != nil {
		return Parameters{}, fmt.Errorf("rlwe.NewParametersFromLiteral: both P and LogP fields are set")
	}

	logNthRoot := pl.LogNthRoot
	if logNthRoot == 0 {
		switch pl.RingType {
		case ring.ConjugateInvariant:
			logNthRoot = pl.LogN + 2
		default:
			logNthRoot = pl.LogN + 1
		}
	}

	var q, p []uint64
	if pl.LogQ != nil || pl.LogP != nil {
		if q, p, err = GenModuli(logNthRoot, pl.LogQ, pl.LogP); err != nil {
			return Parameters{}, fmt.Errorf("rlwe.NewParametersFromLiteral: unable to generate moduli chain: %w", err)
		}
	}

	if q == nil {
		q = pl.Q
	}
	if p == nil {
		p = pl.P
	}

	return NewParameters(pl.LogN, logNthRoot, q, p, pl.Xs, pl.Xe, pl.RingType, pl.DefaultScale, pl.NTTFlag)
}

// StandardParameters returns an RLWE parameter set that corresponds to the standard dual of a
// conjugate invariant parameter set. If the receiver is already a standard set, the method
// returns the receiver unchanged.
func (p Parameters) StandardParameters() (pStd Parameters, err error) {
	switch p.ringType {
	case ring.Standard:
		return p, nil
	case ring.ConjugateInvariant:
		pStd = p
		pStd.logN = p.logN + 1
		pStd.logNthRoot = p.logNthRoot
		pStd.ringType = ring.Standard
		err = pStd.initRings()
		return
	default:
		return Parameters{}, fmt.Errorf("invalid ring type")
	}
}

// ParametersLiteral returns the ParametersLiteral of the target Parameters.
func (p Parameters) ParametersLiteral() ParametersLiteral {
	return ParametersLiteral{
		LogN:         p.logN,
		LogNthRoot:   p.logNthRoot,
		Q:            slices.Clone(p.qi),
		P:            slices.Clone(p.pi),
		Xe:           p.xe,
		Xs:           p.xs,
		RingType:     p.ringType,
		DefaultScale: p.defaultScale,
		NTTFlag:      p.nttFlag,
	}
}

// GetRLWEParameters returns a pointer to the underlying RLWE parameters, satisfying ParameterProvider.
func (p *Parameters) GetRLWEParameters() *Parameters {
	return p
}

// NewScale creates a new Scale using the parameters' default scale as a precision template.
func (p Parameters) NewScale(scale interface{}) Scale {
	return NewScale(scale)
}

// N returns the ring degree.
func (p Parameters) N() int {
	return 1 << p.logN
}

// LogN returns log2 of the ring degree.
func (p Parameters) LogN() int {
	return p.logN
}

// NthRoot returns the NthRoot used to define the cyclotomic ring.
func (p Parameters) NthRoot() uint64 {
	if p.ringQ != nil {
		return p.ringQ.NthRoot()
	}
	return uint64(1) << p.logNthRoot
}

// LogNthRoot returns log2 of the NthRoot.
func (p Parameters) LogNthRoot() int {
	return p.logNthRoot
}

// DefaultScale returns the default plaintext scale.
func (p Parameters) DefaultScale() Scale {
	return p.defaultScale
}

// RingQ returns the RNS ring associated with the ciphertext modulus Q.
func (p Parameters) RingQ() ring.RNSRing {
	return p.ringQ
}

// RingP returns the RNS ring associated with the auxiliary modulus P, or nil if PCount() == 0.
func (p Parameters) RingP() ring.RNSRing {
	return p.ringP
}

// RingQAtLevel returns the RNS ring associated with the ciphertext modulus Q, truncated to level.
func (p Parameters) RingQAtLevel(level int) ring.RNSRing {
	return p.ringQ.AtLevel(level)
}

// RingPAtLevel returns the RNS ring associated with the auxiliary modulus P, truncated to level.
func (p Parameters) RingPAtLevel(level int) ring.RNSRing {
	if p.ringP == nil {
		return nil
	}
	return p.ringP.AtLevel(level)
}

// CoalescedRingP returns the RNS ring for the auxiliary modulus P after merging `coalescing`
// additional blocks of len(P) primes into it, for use by the coalesced gadget product
// (see GadgetCiphertext.Coalesce). coalescing == 0 returns RingP() unchanged.
func (p Parameters) CoalescedRingP(coalescing int) ring.RNSRing {

	if coalescing <= 0 || p.ringP == nil {
		return p.ringP
	}

	pi := p.P()
	lenP := len(pi)
	if lenP == 0 {
		return p.ringP
	}

	bitSize := uint64(bits.Len64(pi[0]))

	g := ring.NewNTTFriendlyPrimesGenerator(bitSize, p.NthRoot())

	extra, err := g.NextAlternatingPrimes(coalescing * lenP)
	if err != nil {
		panic(fmt.Errorf("cannot CoalescedRingP: %w", err))
	}

	moduli := make([]uint64, 0, lenP+len(extra))
	moduli = append(moduli, pi...)
	moduli = append(moduli, extra...)

	r, err := ring.NewRNSRingFromType(p.N(), moduli, p.ringType)
	if err != nil {
		panic(fmt.Errorf("cannot CoalescedRingP: %w", err))
	}

	return r
}

// MaxCoalescing returns the largest coalescing factor that GadgetCiphertext.OptimalCoalescingFactor
// can ever select for these parameters, i.e. the largest k such that (k+1) blocks of len(P) primes
// still fit within MaxLevelQ+1 moduli. Evaluator sizes its per-coalescing-factor RingP and Decomposers
// caches to MaxCoalescing()+1 entries so that every value OptimalCoalescingFactor can return is valid.
func (p Parameters) MaxCoalescing() int {
	pCount := p.PCount()
	if pCount == 0 {
		return 0
	}
	k := p.QCount()/pCount - 1
	if k < 0 {
		return 0
	}
	return k
}

// NTTFlag returns true if ciphertexts are stored by default in the NTT domain.
func (p Parameters) NTTFlag() bool {
	return p.nttFlag
}

// Xs returns the parameters of the secret distribution.
func (p Parameters) Xs() ring.DistributionParameters {
	return p.xs
}

// XsHammingWeight returns the expected Hamming weight of the secret.
func (p Parameters) XsHammingWeight() int {
	switch xs := p.xs.(type) {
	case ring.Ternary:
		if xs.H != 0 {
			return xs.H
		}
		return int(math.Ceil(float64(p.N()) * xs.P))
	case *ring.Ternary:
		if xs.H != 0 {
			return xs.H
		}
		return int(math.Ceil(float64(p.N()) * xs.P))
	case ring.DiscreteGaussian:
		return int(math.Ceil(float64(p.N()) * xs.Sigma * math.Sqrt(2.0/math.Pi)))
	case *ring.DiscreteGaussian:
		return int(math.Ceil(float64(p.N()) * xs.Sigma * math.Sqrt(2.0/math.Pi)))
	default:
		panic(fmt.Sprintf("invalid secret distribution: must be DiscreteGaussian or Ternary but is %T", xs))
	}
}

// Xe returns the parameters of the error distribution.
func (p Parameters) Xe() ring.DistributionParameters {
	return p.xe
}

func (p Parameters) noiseStd() float64 {
	switch xe := p.xe.(type) {
	case ring.DiscreteGaussian:
		return xe.Sigma
	case *ring.DiscreteGaussian:
		return xe.Sigma
	default:
		return 3.2
	}
}

// NoiseFreshSK returns the standard deviation of a fresh encryption under the secret key.
func (p Parameters) NoiseFreshSK() float64 {
	return p.noiseStd()
}

// NoiseFreshPK returns the standard deviation of a fresh encryption under the public key.
func (p Parameters) NoiseFreshPK() (std float64) {

	std = float64(p.XsHammingWeight() + 1)

	if p.RingP() != nil {
		std *= 1 / 12.0
	} else {
		sigma := p.noiseStd()
		std *= sigma * sigma
	}

	if p.RingType() == ring.ConjugateInvariant {
		std *= 2
	}

	return math.Sqrt(std)
}

// RingType returns the type of the underlying ring.
func (p Parameters) RingType() ring.Type {
	return p.ringType
}

// MaxLevel returns the maximum level of a ciphertext, i.e. MaxLevelQ().
func (p Parameters) MaxLevel() int {
	return p.MaxLevelQ()
}

// MaxLevelQ returns the maximum level of the modulus Q.
func (p Parameters) MaxLevelQ() int {
	return p.QCount() - 1
}

// MaxLevelP returns the maximum level of the modulus P.
func (p Parameters) MaxLevelP() int {
	return p.PCount() - 1
}

// Q returns a new slice with the factors of the ciphertext modulus Q.
func (p Parameters) Q() []uint64 {
	return slices.Clone(p.qi)
}

// QCount returns the number of factors of the ciphertext modulus Q.
func (p Parameters) QCount() int {
	return len(p.qi)
}

// P returns a new slice with the factors of the auxiliary modulus P.
func (p Parameters) P() []uint64 {
	return slices.Clone(p.pi)
}

// PCount returns the number of factors of the auxiliary modulus P.
func (p Parameters) PCount() int {
	return len(p.pi)
}

// LogQ returns the size of the modulus Q in bits.
func (p Parameters) LogQ() float64 {
	if p.ringQ == nil {
		return 0
	}
	return p.ringQ.LogModuli()
}

// LogP returns the size of the modulus P in bits.
func (p Parameters) LogP() float64 {
	if p.ringP == nil {
		return 0
	}
	return p.ringP.LogModuli()
}

// LogQP returns the size of the extended modulus QP in bits.
func (p Parameters) LogQP() float64 {
	return p.LogQ() + p.LogP()
}

// QiOverflowMargin returns floor(2^64 / max(Qi[:level+1])), i.e. the number of times elements
// of Z_max{Qi} can be added together before overflowing 2^64. Returns -1 for an empty chain.
func (p Parameters) QiOverflowMargin(level int) int {
	if len(p.qi) == 0 {
		return -1
	}
	return int(math.Exp2(64) / float64(slices.Max(p.qi[:level+1])))
}

// PiOverflowMargin returns floor(2^64 / max(Pi[:level+1])). Returns -1 for an empty chain.
func (p Parameters) PiOverflowMargin(level int) int {
	if len(p.pi) == 0 {
		return -1
	}
	return int(math.Exp2(64) / float64(slices.Max(p.pi[:level+1])))
}

// BaseRNSDecompositionVectorSize returns the number of rows in the RNS gadget decomposition
// basis: ceil((levelQ+1) / (levelP+1)).
func (p Parameters) BaseRNSDecompositionVectorSize(levelQ, levelP int) int {
	if levelP == -1 {
		return levelQ + 1
	}
	return (levelQ + levelP + 1) / (levelP + 1)
}

// DecompositionMatrixDimensions returns, for a gadget ciphertext at the given LevelQ, LevelP and
// digit decomposition, the number of columns of each row of its decomposition matrix.
//
// When levelP >= 0 the decomposition is the standard RNS-basis one: one row per group of
// levelP+1 consecutive primes of Q, each row holding a single column.
//
// When levelP == -1, the ciphertext instead uses a base 2^Log2Basis digit decomposition of each
// individual Qi (or a trivial one-digit decomposition if dd is the zero value).
func (p Parameters) DecompositionMatrixDimensions(levelQ, levelP int, dd DigitDecomposition) (dims []int) {

	if levelP >= 0 {
		nrows := p.BaseRNSDecompositionVectorSize(levelQ, levelP)
		dims = make([]int, nrows)
		for i := range dims {
			dims[i] = 1
		}
		return
	}

	dims = make([]int, levelQ+1)

	if dd.Type == DigitDecompositionType(0) || dd.Log2Basis == 0 {
		for i := range dims {
			dims[i] = 1
		}
		return
	}

	for i := 0; i <= levelQ; i++ {
		dims[i] = (bits.Len64(p.qi[i]) + dd.Log2Basis - 1) / dd.Log2Basis
	}

	return
}

// GaloisElements takes a list of integers k and returns [GaloisElement(k[0]), GaloisElement(k[1]), ...].
func (p Parameters) GaloisElements(k []int) (galEls []uint64) {
	galEls = make([]uint64, len(k))
	for i, ki := range k {
		galEls[i] = p.GaloisElement(ki)
	}
	return
}

// GaloisElement takes an integer k and returns GaloisGen^{k} mod NthRoot.
func (p Parameters) GaloisElement(k int) uint64 {
	NthRoot := p.NthRoot()
	return ring.ModExp(ring.GaloisGen, uint64(k)&(NthRoot-1), NthRoot)
}

// ModInvGaloisElement takes a Galois element of the form GaloisGen^{k} mod NthRoot and returns
// GaloisGen^{-k} mod NthRoot.
func (p Parameters) ModInvGaloisElement(galEl uint64) uint64 {
	NthRoot := p.NthRoot()
	return ring.ModExp(galEl, NthRoot-1, NthRoot)
}

// GaloisElementOrderTwoOrthogonalSubgroup returns GaloisGen^{-1} mod NthRoot, i.e. the Galois
// element generating the order-2 subgroup orthogonal to the row/column split of a batched plaintext.
func (p Parameters) GaloisElementOrderTwoOrthogonalSubgroup() uint64 {
	if p.ringType == ring.ConjugateInvariant {
		panic("cannot GaloisElementOrderTwoOrthogonalSubgroup if ringType is ConjugateInvariant")
	}
	return p.NthRoot() - 1
}

// SolveDiscreteLogGaloisElement takes a Galois element of the form GaloisGen^{k} mod NthRoot and returns k.
func (p Parameters) SolveDiscreteLogGaloisElement(galEl uint64) (k int) {

	NthRoot := p.NthRoot()

	var kuint uint64

	x := NthRoot >> 3

	for {
		if ring.ModExpPow2(ring.GaloisGen, kuint, NthRoot) != ring.ModExpPow2(galEl, x, NthRoot) {
			kuint |= NthRoot >> 3
		}

		if x == 1 {
			return int(kuint)
		}

		x >>= 1
		kuint >>= 1
	}
}

// Equal checks two Parameters structs for equality.
func (p Parameters) Equal(other *Parameters) (res bool) {
	if other == nil {
		return false
	}
	res = p.logN == other.logN
	res = res && p.logNthRoot == other.logNthRoot
	res = res && cmp.Equal(p.qi, other.qi)
	res = res && cmp.Equal(p.pi, other.pi)
	res = res && (p.ringType == other.ringType)
	res = res && p.defaultScale.Equal(other.defaultScale)
	res = res && (p.nttFlag == other.nttFlag)
	return
}

// MarshalBinary returns a []byte representation of the parameter set.
func (p Parameters) MarshalBinary() ([]byte, error) {
	buf := buffer.NewBufferSize(p.BinarySize())
	_, err := p.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes on the target Parameters.
func (p *Parameters) UnmarshalBinary(data []byte) (err error) {
	_, err = p.ReadFrom(buffer.NewBuffer(data))
	return
}

// MarshalJSON returns a JSON representation of this parameter set.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ParametersLiteral())
}

// UnmarshalJSON reads a JSON representation of a parameter set into the receiver.
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var pl ParametersLiteral
	if err = json.Unmarshal(data, &pl); err != nil {
		return err
	}
	*p, err = NewParametersFromLiteral(pl)
	return
}

// BinarySize returns the size in bytes of the marshalled Parameters object.
func (p Parameters) BinarySize() int {
	return p.ParametersLiteral().BinarySize()
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo interface, and will
// write exactly object.BinarySize() bytes on w.
func (p Parameters) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:
		return p.ParametersLiteral().WriteTo(w)
	default:
		return p.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Reader. It implements the io.ReaderFrom interface.
func (p *Parameters) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:
		var pl ParametersLiteral
		if n, err = pl.ReadFrom(r); err != nil {
			return
		}
		*p, err = NewParametersFromLiteral(pl)
		return
	default:
		return p.ReadFrom(bufio.NewReader(r))
	}
}

// UnpackLevelParams unpacks level values passed as a variadic function parameter into (levelQ, levelP).
func (p Parameters) UnpackLevelParams(args []int) (levelQ, levelP int) {
	switch len(args) {
	case 0:
		return p.MaxLevelQ(), p.MaxLevelP()
	case 1:
		return args[0], p.MaxLevelP()
	default:
		return args[0], args[1]
	}
}

// CheckModuli checks that the provided q and p correspond to a valid moduli chain.
func CheckModuli(q, p []uint64) error {

	for i, qi := range q {
		if uint64(bits.Len64(qi)-1) > MaxModuliSize+1 {
			return fmt.Errorf("a Qi bit-size (i=%d) is larger than %d", i, MaxModuliSize)
		}
	}

	for i, qi := range q {
		if !ring.IsPrime(qi) {
			return fmt.Errorf("a Qi (i=%d) is not a prime", i)
		}
	}

	for i, pi := range p {
		if uint64(bits.Len64(pi)-1) > MaxModuliSize+2 {
			return fmt.Errorf("a Pi (i=%d) is not a prime", i)
		}
	}

	for i, pi := range p {
		if !ring.IsPrime(pi) {
			return fmt.Errorf("a Pi (i=%d) is not a prime", i)
		}
	}

	return nil
}

// UnpackLevelParams is an internal function for unpacking level values passed as variadic
// function parameters (see checkSizeParams for the LogN bounds it relies on).
func checkSizeParams(logN int) error {
	if logN > MaxLogN {
		return fmt.Errorf("logN=%d is larger than MaxLogN=%d", logN, MaxLogN)
	}
	if logN < MinLogN {
		return fmt.Errorf("logN=%d is smaller than MinLogN=%d", logN, MinLogN)
	}
	return nil
}

func checkModuliLogSize(logQ, logP []int) error {

	for i, qi := range logQ {
		if qi <= 0 || qi > MaxModuliSize {
			return fmt.Errorf("logQ[%d]=%d is not in ]0, %d]", i, qi, MaxModuliSize)
		}
	}

	for i, pi := range logP {
		if pi <= 0 || pi > MaxModuliSize+1 {
			return fmt.Errorf("logP[%d]=%d is not in ]0,%d]", i, pi, MaxModuliSize+1)
		}
	}

	return nil
}

// GenModuli generates a valid moduli chain from the provided moduli sizes.
func GenModuli(logNthRoot int, logQ, logP []int) (q, p []uint64, err error) {

	if err = checkModuliLogSize(logQ, logP); err != nil {
		return
	}

	primesbitlen := make(map[int]int)
	for _, qi := range logQ {
		primesbitlen[qi]++
	}
	for _, pj := range logP {
		primesbitlen[pj]++
	}

	primes := make(map[int][]uint64)
	for bitSize, count := range primesbitlen {

		g := ring.NewNTTFriendlyPrimesGenerator(uint64(bitSize), uint64(1)<<uint(logNthRoot))

		if bitSize == 61 {
			if primes[bitSize], err = g.NextDownstreamPrimes(count); err != nil {
				return q, p, fmt.Errorf("cannot GenModuli: failed to generate %d primes of bit-size=61 for LogNthRoot=%d: %w", count, logNthRoot, err)
			}
		} else {
			if primes[bitSize], err = g.NextAlternatingPrimes(count); err != nil {
				return q, p, fmt.Errorf("cannot GenModuli: failed to generate %d primes of bit-size=%d for LogNthRoot=%d: %w", count, bitSize, logNthRoot, err)
			}
		}
	}

	for _, qi := range logQ {
		q = append(q, primes[qi][0])
		primes[qi] = primes[qi][1:]
	}

	for _, pj := range logP {
		p = append(p, primes[pj][0])
		primes[pj] = primes[pj][1:]
	}

	return
}

func (p *Parameters) initRings() (err error) {
	if p.ringQ, err = ring.NewRNSRingFromType(1<<p.logN, p.qi, p.ringType); err != nil {
		return fmt.Errorf("initRings/ringQ: %w", err)
	}
	if len(p.pi) != 0 {
		if p.ringP, err = ring.NewRNSRingFromType(1<<p.logN, p.pi, p.ringType); err != nil {
			return fmt.Errorf("initRings/ringP: %w", err)
		}
	}
	return
}
