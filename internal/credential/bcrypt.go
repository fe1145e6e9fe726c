package credential

import (
	"errors"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes passwords with bcrypt. Digests written by the original
// service are bcrypt, so verification stays supported even when new digests
// use argon2id.
type Bcrypt struct {
	cost int
}

func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (h *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("CREDENTIAL_HASH_FAILED").
			With("algorithm", AlgorithmBcrypt).
			Wrap(err)
	}
	return string(digest), nil
}

func (h *Bcrypt) Verify(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("CREDENTIAL_INVALID_DIGEST").
			With("algorithm", AlgorithmBcrypt).
			Wrap(err)
	}
}

func isBcryptDigest(digest string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(digest, prefix) {
			return true
		}
	}
	return false
}
