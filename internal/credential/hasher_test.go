package credential_test

import (
	"strings"
	"testing"

	"github.com/ErlanBelekov/charon/internal/credential"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestArgon2id_HashIsSaltedAndVerifies(t *testing.T) {
	h := credential.NewArgon2id()

	first, err := h.Hash("Secret1")
	require.NoError(t, err)
	second, err := h.Hash("Secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password must differ")
	assert.True(t, strings.HasPrefix(first, "$argon2id$v=19$m=65536,t=1,p=4$"))

	for _, digest := range []string{first, second} {
		ok, err := h.Verify("Secret1", digest)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestArgon2id_WrongPasswordIsMismatchNotError(t *testing.T) {
	h := credential.NewArgon2id()
	digest, err := h.Hash("Secret1")
	require.NoError(t, err)

	ok, err := h.Verify("secret1", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2id_EmptyPassword(t *testing.T) {
	_, err := credential.NewArgon2id().Hash("")
	require.Error(t, err)
}

func TestArgon2id_MalformedDigest(t *testing.T) {
	h := credential.NewArgon2id()

	tests := []struct {
		name   string
		digest string
	}{
		{"empty", ""},
		{"wrong part count", "$argon2id$v=19$m=65536,t=1,p=4$onlysalt"},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAA"},
		{"bad version", "$argon2id$v=x$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAA"},
		{"bad params", "$argon2id$v=19$m=abc$AAAAAAAAAAAAAAAAAAAAAA$AAAA"},
		{"zero threads", "$argon2id$v=19$m=65536,t=1,p=0$AAAAAAAAAAAAAAAAAAAAAA$AAAA"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=1,p=4$!!!$AAAA"},
		{"bad hash encoding", "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify("Secret1", tt.digest)
			require.Error(t, err)
			assert.False(t, ok)

			oopsErr, isOops := oops.AsOops(err)
			require.True(t, isOops)
			assert.Equal(t, "CREDENTIAL_INVALID_DIGEST", oopsErr.Code())
		})
	}
}

func TestBcrypt_HashAndVerify(t *testing.T) {
	h := credential.NewBcrypt(bcrypt.MinCost)

	first, err := h.Hash("Secret1")
	require.NoError(t, err)
	second, err := h.Hash("Secret1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	ok, err := h.Verify("Secret1", first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcrypt_MalformedDigest(t *testing.T) {
	ok, err := credential.NewBcrypt(bcrypt.MinCost).Verify("Secret1", "$2a$not-a-digest")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestBcrypt_OutOfRangeCostFallsBackToDefault(t *testing.T) {
	h := credential.NewBcrypt(1)
	digest, err := h.Hash("Secret1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestNewHasher_UnknownAlgorithm(t *testing.T) {
	_, err := credential.NewHasher("md5", 0)
	require.Error(t, err)
}

func TestMulti_VerifiesBothFormats(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("Secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	h, err := credential.NewHasher(credential.AlgorithmArgon2id, bcrypt.MinCost)
	require.NoError(t, err)

	fresh, err := h.Hash("Secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fresh, "$argon2id$"))

	for _, digest := range []string{fresh, string(legacy)} {
		ok, err := h.Verify("Secret1", digest)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = h.Verify("nope", digest)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestMulti_BcryptPrimary(t *testing.T) {
	h, err := credential.NewHasher(credential.AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	digest, err := h.Hash("Secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$2a$"))
}

func TestMulti_UnknownDigestIsError(t *testing.T) {
	h, err := credential.NewHasher("", 0)
	require.NoError(t, err)

	ok, err := h.Verify("Secret1", "Secret1")
	require.Error(t, err)
	assert.False(t, ok)
}
