// Package hefloat provides Homomorphic Encryption for encrypted approximate
// fixed-point arithmetic over the complex or real numbers. It is implemented
// as an RNS-accelerated version of the Homomorphic Encryption for Arithmetic
// of Approximate Numbers (HEAAN, a.k.a. CKKS) scheme.
package hefloat

import (
	"github.com/latticeforge/fhe-eval/rlwe"
)

// NewPlaintext allocates a new rlwe.Plaintext.
//
// inputs:
//   - params: the hefloat.Parameters
//   - level: the level of the plaintext
//
// output: a newly allocated rlwe.Plaintext at the specified level.
//
// Note: the user can update the field `MetaData` to set a specific scaling factor,
// plaintext dimensions or encoding domain, before encoding values on the created
// plaintext.
func NewPlaintext(params Parameters, level int) (pt *rlwe.Plaintext) {
	pt = rlwe.NewPlaintext(params, level, -1)
	pt.IsBatched = true
	pt.Scale = params.DefaultScale()
	pt.LogDimensions = params.LogMaxDimensions()
	return
}

// NewCiphertext allocates a new rlwe.Ciphertext.
//
// inputs:
//   - params: the hefloat.Parameters
//   - degree: the degree of the ciphertext
//   - level: the level of the Ciphertext
//
// output: a newly allocated rlwe.Ciphertext of the specified degree and level.
func NewCiphertext(params Parameters, degree, level int) (ct *rlwe.Ciphertext) {
	ct = rlwe.NewCiphertext(params, degree, level, -1)
	ct.IsBatched = true
	ct.Scale = params.DefaultScale()
	ct.LogDimensions = params.LogMaxDimensions()
	return
}
