// Package credential computes and verifies salted one-way password digests.
package credential

import (
	"strings"

	"github.com/samber/oops"
)

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("CREDENTIAL_EMPTY_PASSWORD").Errorf("password cannot be empty")

// Hasher hashes and verifies passwords.
type Hasher interface {
	// Hash returns a digest with a fresh random salt, so two calls on the same
	// input never return the same string.
	Hash(password string) (string, error)

	// Verify returns (true, nil) on match, (false, nil) on mismatch and
	// (false, err) when the digest cannot be interpreted.
	Verify(password, digest string) (bool, error)
}

// Multi hashes with one algorithm and verifies digests of any supported
// algorithm, picked by the digest prefix.
type Multi struct {
	primary  Hasher
	argon2id *Argon2id
	bcrypt   *Bcrypt
}

// NewHasher returns a Multi hasher whose new digests use algorithm.
func NewHasher(algorithm string, bcryptCost int) (*Multi, error) {
	m := &Multi{
		argon2id: NewArgon2id(),
		bcrypt:   NewBcrypt(bcryptCost),
	}

	switch algorithm {
	case AlgorithmArgon2id, "":
		m.primary = m.argon2id
	case AlgorithmBcrypt:
		m.primary = m.bcrypt
	default:
		return nil, oops.Code("CREDENTIAL_UNKNOWN_ALGORITHM").
			With("algorithm", algorithm).
			Errorf("unsupported password hash algorithm")
	}
	return m, nil
}

func (m *Multi) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m *Multi) Verify(password, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return m.argon2id.Verify(password, digest)
	case isBcryptDigest(digest):
		return m.bcrypt.Verify(password, digest)
	default:
		return false, oops.Code("CREDENTIAL_INVALID_DIGEST").Errorf("unrecognized digest format")
	}
}
