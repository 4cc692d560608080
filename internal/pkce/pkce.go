package pkce

import (
	"crypto/sha256"
	"encoding/base64"
)

const MethodS256 = "S256"

type PKCE struct {
	Verifier  string
	Challenge string
	Method    string
}

// Challenge derives the S256 code challenge: unpadded base64url of the
// SHA-256 digest of the verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
