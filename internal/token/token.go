// Package token generates unpredictable alphanumeric secrets.
package token

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/samber/oops"
)

// DefaultLength is the length of password reset tokens.
const DefaultLength = 24

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var alphabetSize = big.NewInt(int64(len(alphabet)))

// Generate returns a string of exactly length characters, each drawn uniformly
// from [A-Za-z0-9] using crypto/rand.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", oops.Code("TOKEN_INVALID_LENGTH").
			With("length", length).
			Errorf("token length must be positive")
	}

	var b strings.Builder
	b.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", oops.Code("TOKEN_GENERATE_FAILED").
				With("requested_length", length).
				Wrap(err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}

	return b.String(), nil
}
