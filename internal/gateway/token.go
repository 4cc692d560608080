package gateway

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4/jwt"
)

// IsTokenValid reports whether token is a three segment JWT whose payload
// carries an exp claim strictly after now. Only the payload is read; the
// header and signature segments are ignored, padded or not.
func IsTokenValid(token string, now time.Time) bool {
	if token == "" {
		return false
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return false
	}

	// Only exp is read.
	var claims struct {
		Expiry *jwt.NumericDate `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return false
	}

	if claims.Expiry == nil {
		return false
	}

	return int64(*claims.Expiry) > now.Unix()
}
