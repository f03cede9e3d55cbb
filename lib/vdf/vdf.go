// Package vdf implements a MiMC-based verifiable delay function over a
// 256-bit prime field, plus the puzzle framing used on the wire.
//
// Evaluation walks the MiMC permutation backward, one modular cube root
// per step, so its cost is linear in the step count and inherently
// sequential. Verification walks forward with one cubing per step, which
// is orders of magnitude cheaper. That asymmetry is the admission
// argument: an honest peer burns wall-clock time, the verifier does not.
package vdf

import (
	"math/big"
)

// modulus is the field prime 2^256 - 351*2^32 + 1. It satisfies
// p = 2 (mod 3), so x -> x^3 permutes the field and every element has a
// unique cube root x^((2p-1)/3).
var modulus = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 256)
	p.Sub(p, new(big.Int).Lsh(big.NewInt(351), 32))
	return p.Add(p, big.NewInt(1))
}()

// cubeRootExp is (2p-1)/3, the exponent inverting x -> x^3 mod p.
var cubeRootExp = func() *big.Int {
	e := new(big.Int).Lsh(modulus, 1)
	e.Sub(e, big.NewInt(1))
	return e.Div(e, big.NewInt(3))
}()

// roundConstants are the 64 MiMC round constants (i^7 XOR 42).
var roundConstants = func() [64]*big.Int {
	var rc [64]*big.Int
	for i := int64(0); i < 64; i++ {
		c := i * i * i * i * i * i * i
		rc[i] = big.NewInt(c ^ 42)
	}
	return rc
}()

// Modulus returns a copy of the field prime.
func Modulus() *big.Int {
	return new(big.Int).Set(modulus)
}

// Eval computes the delay function witness for seed over the given number
// of steps. The seed is reduced into the field first. Cost is one modular
// exponentiation per step; the work cannot be parallelized because each
// step consumes the previous result.
func Eval(seed *big.Int, steps uint64) *big.Int {
	x := new(big.Int).Mod(seed, modulus)
	if steps == 0 {
		return x
	}
	for i := steps - 1; i >= 1; i-- {
		x.Sub(x, roundConstants[i%64])
		x.Mod(x, modulus)
		x.Exp(x, cubeRootExp, modulus)
	}
	return x
}

// Verify checks that witness is the evaluation of seed over steps.
// It walks the permutation forward (cubing), so the cost is a small
// fraction of Eval. Returns false on any malformed input: nil values,
// a negative seed, zero steps, or a witness outside [0, p).
func Verify(seed *big.Int, steps uint64, witness *big.Int) bool {
	if seed == nil || witness == nil || steps == 0 {
		return false
	}
	if seed.Sign() < 0 || witness.Sign() < 0 || witness.Cmp(modulus) >= 0 {
		return false
	}

	x := new(big.Int).Set(witness)
	square := new(big.Int)
	for i := uint64(1); i < steps; i++ {
		square.Mul(x, x)
		x.Mul(square, x)
		x.Add(x, roundConstants[i%64])
		x.Mod(x, modulus)
	}

	expect := new(big.Int).Mod(seed, modulus)
	return x.Cmp(expect) == 0
}
