package rlwe

import (
	"fmt"

	"github.com/latticeforge/fhe-eval/ring"
)

// SecretKey is a type for generic RLWE secret keys. The secret key is always
// sampled from a negative binary, ternary or Gaussian distribution and stored
// in the NTT and Montgomery domains.
type SecretKey struct {
	ring.Point
}

// NewSecretKey generates a new SecretKey with zero values.
func NewSecretKey(params ParameterProvider) (sk *SecretKey) {
	p := params.GetRLWEParameters()
	return &SecretKey{Point: *ring.NewPoint(p.N(), p.MaxLevelQ(), p.MaxLevelP())}
}

// AsPoint wraps the receiver into a [ring.Point].
func (sk *SecretKey) AsPoint() *ring.Point {
	return &sk.Point
}

// Clone returns a deep copy of the receiver.
func (sk *SecretKey) Clone() *SecretKey {
	return &SecretKey{Point: *sk.Point.Clone()}
}

// Equal performs a deep equal check between the receiver and the provided key.
func (sk *SecretKey) Equal(other *SecretKey) bool {
	if other == nil {
		return false
	}
	return sk.Point.Equal(&other.Point)
}

// PublicKey is a type for generic RLWE public keys, stored as a degree-1
// [ring.Vector] encrypting zero under the associated secret key.
type PublicKey struct {
	*MetaData
	*ring.Vector
}

// NewPublicKey generates a new PublicKey with zero values.
func NewPublicKey(params ParameterProvider) (pk *PublicKey) {
	p := params.GetRLWEParameters()
	pk = new(PublicKey)
	pk.Vector = new(ring.Vector)
	size := pk.Vector.BufferSize(p.N(), p.MaxLevelQ(), p.MaxLevelP(), 2)
	pk.Vector.FromBuffer(p.N(), p.MaxLevelQ(), p.MaxLevelP(), 2, make([]uint64, size))
	pk.MetaData = &MetaData{IsNTT: true, IsMontgomery: true}
	return
}

// AsVector wraps the receiver into a [ring.Vector].
func (pk *PublicKey) AsVector() *ring.Vector {
	return pk.Vector
}

// AsCiphertext wraps the receiver into an [rlwe.Ciphertext] of degree 1, sharing
// its backing array. This lets the public key be used directly as the target
// of an EncryptZero call during key generation.
func (pk *PublicKey) AsCiphertext() *Ciphertext {
	return &Ciphertext{Vector: pk.Vector, MetaData: pk.MetaData}
}

// Equal performs a deep equal check between the receiver and the provided key.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if other == nil {
		return false
	}
	return pk.Vector.Equal(other.Vector)
}

// EvaluationKey is a type for generic RLWE evaluation keys, i.e. gadget
// ciphertexts encrypting a re-encryption of a secret key (or a function of
// it) under another secret key. RelinearizationKey and GaloisKey both embed
// an EvaluationKey.
type EvaluationKey struct {
	GadgetCiphertext
}

// NewEvaluationKey returns a new EvaluationKey with pre-allocated zero-values.
func NewEvaluationKey(params ParameterProvider, evkParams ...EvaluationKeyParameters) (evk *EvaluationKey) {
	levelQ, levelP, dd := ResolveEvaluationKeyParameters(params, evkParams)
	return &EvaluationKey{GadgetCiphertext: *NewGadgetCiphertext(params, 1, levelQ, levelP, dd)}
}

// Equal performs a deep equal check between the receiver and the provided key.
func (evk *EvaluationKey) Equal(other *EvaluationKey) bool {
	if other == nil {
		return false
	}
	return evk.GadgetCiphertext.Equal(&other.GadgetCiphertext)
}

// RelinearizationKey is a type for generic RLWE relinearization keys. It
// stores an EvaluationKey enabling the re-encryption of (the quadratic term
// arising from multiplying) a ciphertext under sk^2 into a ciphertext under sk.
type RelinearizationKey struct {
	EvaluationKey
}

// NewRelinearizationKey returns a new RelinearizationKey with pre-allocated zero-values.
func NewRelinearizationKey(params ParameterProvider, evkParams ...EvaluationKeyParameters) (rlk *RelinearizationKey) {
	return &RelinearizationKey{EvaluationKey: *NewEvaluationKey(params, evkParams...)}
}

// Equal performs a deep equal check between the receiver and the provided key.
func (rlk *RelinearizationKey) Equal(other *RelinearizationKey) bool {
	if other == nil {
		return false
	}
	return rlk.EvaluationKey.Equal(&other.EvaluationKey)
}

// GaloisKey is a type for generic RLWE public Galois keys. It stores an
// EvaluationKey enabling the re-encryption of a ciphertext under sk into a
// ciphertext encrypting the Galois automorphism X -> X^{GaloisElement} applied
// to the original plaintext, still under sk.
type GaloisKey struct {
	EvaluationKey
	GaloisElement uint64
	NthRoot       uint64
}

// NewGaloisKey returns a new GaloisKey with pre-allocated zero-values.
func NewGaloisKey(params ParameterProvider, evkParams ...EvaluationKeyParameters) (gk *GaloisKey) {
	p := params.GetRLWEParameters()
	return &GaloisKey{
		EvaluationKey: *NewEvaluationKey(params, evkParams...),
		NthRoot:       p.NthRoot(),
	}
}

// Equal performs a deep equal check between the receiver and the provided key.
func (gk *GaloisKey) Equal(other *GaloisKey) bool {
	if other == nil {
		return false
	}
	return gk.EvaluationKey.Equal(&other.EvaluationKey) && gk.GaloisElement == other.GaloisElement && gk.NthRoot == other.NthRoot
}

// EvaluationKeyParameters is an optional set of parameters used to specify the
// LevelQ, LevelP and DigitDecomposition of a newly generated EvaluationKey,
// RelinearizationKey or GaloisKey. Unset (nil) fields fall back to the
// defaults returned by ResolveEvaluationKeyParameters.
type EvaluationKeyParameters struct {
	LevelQ             *int
	LevelP             *int
	DigitDecomposition DigitDecomposition
}

// ResolveEvaluationKeyParameters extracts the LevelQ, LevelP and
// DigitDecomposition to apply to a new evaluation key, given at most one
// EvaluationKeyParameters override and the provided RLWE parameters.
// Defaults to the maximum LevelQ and LevelP and no digit decomposition.
func ResolveEvaluationKeyParameters(params ParameterProvider, evkParams []EvaluationKeyParameters) (levelQ, levelP int, dd DigitDecomposition) {

	p := params.GetRLWEParameters()

	levelQ = p.MaxLevelQ()
	levelP = p.MaxLevelP()
	dd = DigitDecomposition{}

	if len(evkParams) == 0 {
		return
	}

	if len(evkParams) > 1 {
		panic(fmt.Errorf("cannot ResolveEvaluationKeyParameters: at most one EvaluationKeyParameters can be provided"))
	}

	evkParam := evkParams[0]

	if evkParam.LevelQ != nil {
		levelQ = *evkParam.LevelQ
	}

	if evkParam.LevelP != nil {
		levelP = *evkParam.LevelP
	}

	dd = evkParam.DigitDecomposition

	return
}

// EvaluationKeySet is the interface implemented by types providing the
// evaluation keys (relinearization key and Galois keys) an [Evaluator]
// requires to evaluate a circuit.
type EvaluationKeySet interface {
	GetRelinearizationKey() (*RelinearizationKey, error)
	GetGaloisKey(galEl uint64) (*GaloisKey, error)
	GetGaloisKeysList() []uint64
}

// MemEvaluationKeySet is a simple in-memory EvaluationKeySet, backed by a
// single optional RelinearizationKey and a map of GaloisKeys indexed by their
// Galois element.
type MemEvaluationKeySet struct {
	RelinearizationKey *RelinearizationKey
	GaloisKeys         map[uint64]*GaloisKey
}

// NewMemEvaluationKeySet returns a new MemEvaluationKeySet, optionally
// populated with the given RelinearizationKey and GaloisKeys.
func NewMemEvaluationKeySet(rlk *RelinearizationKey, gks ...*GaloisKey) (evk *MemEvaluationKeySet) {
	evk = &MemEvaluationKeySet{
		RelinearizationKey: rlk,
		GaloisKeys:         make(map[uint64]*GaloisKey, len(gks)),
	}
	for _, gk := range gks {
		evk.GaloisKeys[gk.GaloisElement] = gk
	}
	return
}

// GetRelinearizationKey returns the stored RelinearizationKey, or an error if none was set.
func (evk *MemEvaluationKeySet) GetRelinearizationKey() (*RelinearizationKey, error) {
	if evk.RelinearizationKey == nil {
		return nil, fmt.Errorf("cannot GetRelinearizationKey: no relinearization key set")
	}
	return evk.RelinearizationKey, nil
}

// GetGaloisKey returns the GaloisKey for the requested Galois element, or an error if none was set.
func (evk *MemEvaluationKeySet) GetGaloisKey(galEl uint64) (*GaloisKey, error) {
	gk, ok := evk.GaloisKeys[galEl]
	if !ok {
		return nil, fmt.Errorf("cannot GetGaloisKey: no Galois key for galEl=%d", galEl)
	}
	return gk, nil
}

// GetGaloisKeysList returns the list of Galois elements for which a GaloisKey is available.
func (evk *MemEvaluationKeySet) GetGaloisKeysList() (galEls []uint64) {
	galEls = make([]uint64, 0, len(evk.GaloisKeys))
	for galEl := range evk.GaloisKeys {
		galEls = append(galEls, galEl)
	}
	return
}
