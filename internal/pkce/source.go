package pkce

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

const verifierBytes = 32

// Source generates verifier/challenge pairs. A nil Rand reads from crypto/rand.
type Source struct {
	Rand io.Reader
}

func (p Source) randBytes(n int) ([]byte, error) {
	r := p.Rand
	if r == nil {
		r = rand.Reader
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("reading random bytes: %w", err)
	}

	return b, nil
}

// Verifier returns 32 random bytes, lower-hex encoded (64 characters).
func (p Source) Verifier() (string, error) {
	b, err := p.randBytes(verifierBytes)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

func (p Source) PKCE() (PKCE, error) {
	verifier, err := p.Verifier()
	if err != nil {
		return PKCE{}, err
	}

	return PKCE{
		Verifier:  verifier,
		Challenge: Challenge(verifier),
		Method:    MethodS256,
	}, nil
}
