package crypto

import (
	crand "crypto/rand"
	"fmt"
)

// ShamirShare is one (index, data) pair of a threshold split. Index is
// 1-based; index 0 is reserved for the secret itself in polynomial
// evaluation and must never be issued as a share.
type ShamirShare struct {
	Index byte
	Data  []byte
}

// ShamirSplit splits secret into n shares such that any threshold of them
// reconstruct it, using Shamir's scheme over GF(256) applied byte-wise.
func ShamirSplit(secret []byte, n, threshold int) ([]ShamirShare, error) {
	if threshold < 1 || threshold > n || n > 255 {
		return nil, newErr("ShamirSplit", ReasonMalformedInput, fmt.Errorf("invalid n=%d threshold=%d", n, threshold))
	}
	shares := make([]ShamirShare, n)
	for i := range shares {
		shares[i] = ShamirShare{Index: byte(i + 1), Data: make([]byte, len(secret))}
	}
	for b, secretByte := range secret {
		coeffs := make([]byte, threshold)
		coeffs[0] = secretByte
		rnd := make([]byte, threshold-1)
		if _, err := crand.Read(rnd); err != nil {
			return nil, newErr("ShamirSplit", ReasonInternal, err)
		}
		copy(coeffs[1:], rnd)
		for i, sh := range shares {
			shares[i].Data[b] = evalPoly(coeffs, sh.Index)
		}
	}
	return shares, nil
}

// ShamirCombine reconstructs a secret of length byteLen from at least
// threshold shares via Lagrange interpolation at x=0.
func ShamirCombine(shares []ShamirShare, threshold, byteLen int) ([]byte, error) {
	if threshold < 1 || len(shares) < threshold {
		return nil, newErr("ShamirCombine", ReasonMalformedInput, fmt.Errorf("need %d shares, got %d", threshold, len(shares)))
	}
	use := shares[:threshold]
	for i, s := range use {
		if s.Index == 0 || len(s.Data) < byteLen {
			return nil, newErr("ShamirCombine", ReasonMalformedInput, fmt.Errorf("malformed share at position %d", i))
		}
		for _, o := range use[:i] {
			if o.Index == s.Index {
				return nil, newErr("ShamirCombine", ReasonMalformedInput, fmt.Errorf("duplicate share index %d", s.Index))
			}
		}
	}
	secret := make([]byte, byteLen)
	for i := 0; i < threshold; i++ {
		li := lagrangeCoeffAtZero(i, use)
		for b := 0; b < byteLen; b++ {
			secret[b] ^= gfMul(li, use[i].Data[b])
		}
	}
	return secret, nil
}

func evalPoly(coeffs []byte, x byte) byte {
	var result byte
	var xPow byte = 1
	for _, c := range coeffs {
		result ^= gfMul(c, xPow)
		xPow = gfMul(xPow, x)
	}
	return result
}

// lagrangeCoeffAtZero computes the i-th Lagrange basis polynomial evaluated
// at x=0 (the secret's x-coordinate) over the given shares.
func lagrangeCoeffAtZero(i int, shares []ShamirShare) byte {
	xi := shares[i].Index
	num, den := byte(1), byte(1)
	for j, s := range shares {
		if j == i {
			continue
		}
		xj := s.Index
		num = gfMul(num, xj)
		den = gfMul(den, xj^xi)
	}
	return gfDiv(num, den)
}

// gfMul multiplies two elements of GF(2^8) under the AES irreducible
// polynomial x^8+x^4+x^3+x+1 (0x11B).
func gfMul(a, b byte) byte {
	var p byte
	for b > 0 {
		if b&1 == 1 {
			p ^= a
		}
		hi := a & 0x80
		a <<= 1
		if hi != 0 {
			a ^= 0x1B
		}
		b >>= 1
	}
	return p
}

// gfInv returns the multiplicative inverse of a in GF(2^8) via brute-force
// search over the 255-element multiplicative group — simple and constant
// enough for share counts this scheme is meant for (n <= 255).
func gfInv(a byte) byte {
	if a == 0 {
		panic("crypto: shamir: inverse of zero")
	}
	for cand := 1; cand < 256; cand++ {
		if gfMul(a, byte(cand)) == 1 {
			return byte(cand)
		}
	}
	panic("crypto: shamir: no inverse found, GF(256) table is broken")
}

func gfDiv(a, b byte) byte { return gfMul(a, gfInv(b)) }
