package download

import (
	"crypto/rand"
	"math/big"
)

// TokenLength is the number of characters in a generated token.
const TokenLength = 30

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// TokenGenerator produces opaque download tokens.
type TokenGenerator func() (string, error)

// GenerateToken returns a TokenLength-character alphanumeric token drawn from crypto/rand.
func GenerateToken() (string, error) {
	base := big.NewInt(int64(len(alphabet)))
	b := make([]byte, TokenLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
