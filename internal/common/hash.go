package common

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Sha256Hex returns the SHA-256 digest of the input encoded as lowercase hex.
func Sha256Hex(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}

// HashJSON returns the hex digest of v's JSON encoding. Struct field order is
// fixed, so equal values hash equally.
func HashJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Sha256Hex(b), nil
}
