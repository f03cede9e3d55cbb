package vdf

import (
	"math/big"
	"testing"
)

// testSteps keeps evaluation fast enough for unit tests while still
// exercising the full round-constant window.
const testSteps uint64 = 96

func TestEvalVerify_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		seed *big.Int
	}{
		{"zero seed", big.NewInt(0)},
		{"small seed", big.NewInt(42)},
		{"max u64 seed", new(big.Int).SetUint64(^uint64(0))},
		{"seed above modulus", new(big.Int).Add(Modulus(), big.NewInt(7))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			witness := Eval(tt.seed, testSteps)
			if witness.Sign() < 0 || witness.Cmp(Modulus()) >= 0 {
				t.Fatalf("witness %v outside the field", witness)
			}
			if !Verify(tt.seed, testSteps, witness) {
				t.Errorf("Verify rejected the witness produced by Eval")
			}
		})
	}
}

func TestEval_Deterministic(t *testing.T) {
	seed := big.NewInt(123456789)
	a := Eval(seed, testSteps)
	b := Eval(seed, testSteps)
	if a.Cmp(b) != 0 {
		t.Errorf("Eval is not deterministic: %v != %v", a, b)
	}
}

func TestVerify_RejectsTampering(t *testing.T) {
	seed := big.NewInt(987654321)
	witness := Eval(seed, testSteps)

	t.Run("tampered witness", func(t *testing.T) {
		bad := new(big.Int).Add(witness, big.NewInt(1))
		if Verify(seed, testSteps, bad) {
			t.Error("Verify accepted a tampered witness")
		}
	})

	t.Run("different seed", func(t *testing.T) {
		if Verify(big.NewInt(987654322), testSteps, witness) {
			t.Error("Verify accepted a witness for a different seed")
		}
	})

	t.Run("different steps", func(t *testing.T) {
		if Verify(seed, testSteps+1, witness) {
			t.Error("Verify accepted a witness for a different step count")
		}
	})

	t.Run("zero witness", func(t *testing.T) {
		if Verify(seed, testSteps, big.NewInt(0)) {
			t.Error("Verify accepted a zero witness")
		}
	})
}

func TestVerify_MalformedInput(t *testing.T) {
	seed := big.NewInt(5)
	witness := Eval(seed, testSteps)

	tests := []struct {
		name    string
		seed    *big.Int
		steps   uint64
		witness *big.Int
	}{
		{"nil seed", nil, testSteps, witness},
		{"nil witness", seed, testSteps, nil},
		{"zero steps", seed, 0, witness},
		{"negative seed", big.NewInt(-1), testSteps, witness},
		{"negative witness", seed, testSteps, big.NewInt(-1)},
		{"witness at modulus", seed, testSteps, Modulus()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Verify(tt.seed, tt.steps, tt.witness) {
				t.Error("Verify accepted malformed input")
			}
		})
	}
}

func TestVerify_Idempotent(t *testing.T) {
	seed := big.NewInt(31337)
	witness := Eval(seed, testSteps)

	for i := 0; i < 3; i++ {
		if !Verify(seed, testSteps, witness) {
			t.Fatalf("Verify flipped to false on repetition %d", i)
		}
	}

	bad := new(big.Int).Add(witness, big.NewInt(2))
	for i := 0; i < 3; i++ {
		if Verify(seed, testSteps, bad) {
			t.Fatalf("Verify flipped to true on repetition %d", i)
		}
	}
}

func TestEval_SingleStep(t *testing.T) {
	seed := big.NewInt(77)
	witness := Eval(seed, 1)
	if witness.Cmp(seed) != 0 {
		t.Errorf("single-step Eval = %v, want the seed itself", witness)
	}
	if !Verify(seed, 1, witness) {
		t.Error("single-step Verify rejected its own witness")
	}
}

func TestModulus_Properties(t *testing.T) {
	p := Modulus()

	// p = 2 (mod 3) makes cubing a permutation.
	rem := new(big.Int).Mod(p, big.NewInt(3))
	if rem.Int64() != 2 {
		t.Errorf("modulus %% 3 = %v, want 2", rem)
	}

	if !p.ProbablyPrime(32) {
		t.Error("modulus is not prime")
	}

	// Returned value must be a copy.
	p.SetInt64(0)
	if Modulus().Sign() == 0 {
		t.Error("Modulus() exposed internal state")
	}
}
