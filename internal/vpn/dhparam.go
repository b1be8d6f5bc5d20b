package vpn

import (
	"context"
	"crypto/rand"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"math/big"
)

// DHBits is the modulus size used for generated parameters.
const DHBits = 2048

// ParamSource produces PEM-encoded DH parameters. Generation can take
// many minutes at 2048 bits, so implementations must honor ctx and abort
// promptly when it expires.
type ParamSource interface {
	Params(ctx context.Context, bits int) ([]byte, error)
}

// SafePrimeSource generates parameters with a freshly drawn safe prime
// and generator 2, matching what `openssl dhparam` emits.
type SafePrimeSource struct{}

// pkcs3Params is the DER structure inside a DH PARAMETERS PEM block.
type pkcs3Params struct {
	P *big.Int
	G *big.Int
}

// Params implements ParamSource.
func (SafePrimeSource) Params(ctx context.Context, bits int) ([]byte, error) {
	p, err := safePrime(ctx, bits)
	if err != nil {
		return nil, err
	}
	der, err := asn1.Marshal(pkcs3Params{P: p, G: big.NewInt(2)})
	if err != nil {
		return nil, fmt.Errorf("encode dh parameters: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "DH PARAMETERS", Bytes: der}), nil
}

// safePrime draws candidate primes q until p = 2q+1 is also prime. The
// ctx check sits between candidates; a single candidate draw is fast
// relative to the job's soft deadline.
func safePrime(ctx context.Context, bits int) (*big.Int, error) {
	one := big.NewInt(1)
	two := big.NewInt(2)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, err := rand.Prime(rand.Reader, bits-1)
		if err != nil {
			return nil, fmt.Errorf("draw prime candidate: %w", err)
		}
		p := new(big.Int).Mul(q, two)
		p.Add(p, one)
		if p.ProbablyPrime(20) {
			return p, nil
		}
	}
}
