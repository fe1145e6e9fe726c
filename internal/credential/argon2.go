package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

// Argon2id hashes passwords into PHC strings:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2id struct{}

func NewArgon2id() *Argon2id {
	return &Argon2id{}
}

func (h *Argon2id) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("CREDENTIAL_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2id) Verify(password, digest string) (bool, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, oops.Code("CREDENTIAL_INVALID_DIGEST").Errorf("invalid argon2id digest format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("CREDENTIAL_INVALID_DIGEST").Wrap(err)
	}
	if version != argon2.Version {
		return false, oops.Code("CREDENTIAL_INVALID_DIGEST").
			With("version", version).
			Errorf("unsupported argon2 version")
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("CREDENTIAL_INVALID_DIGEST").Wrap(err)
	}
	if threads == 0 || threads > 255 || time == 0 {
		return false, oops.Code("CREDENTIAL_INVALID_DIGEST").
			With("threads", threads).
			With("time", time).
			Errorf("argon2id parameters out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("CREDENTIAL_INVALID_DIGEST").Wrap(err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("CREDENTIAL_INVALID_DIGEST").Wrap(err)
	}
	if len(expected) == 0 || len(expected) > 1<<10 {
		return false, oops.Code("CREDENTIAL_INVALID_DIGEST").
			With("key_length", len(expected)).
			Errorf("invalid argon2id key length")
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
