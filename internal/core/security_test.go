// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	ok, rehash, err := h.Verify("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)

	ok, _, err = h.Verify("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_SaltsEachHash(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHasher_TruncatesAt72Bytes(t *testing.T) {
	h := newTestHasher(t)

	prefix := strings.Repeat("a", MaxPasswordBytes)
	hash, err := h.Hash(prefix + "first-suffix")
	require.NoError(t, err)

	ok, _, err := h.Verify(prefix+"a-different-suffix", hash)
	require.NoError(t, err)
	assert.True(t, ok, "bytes past the limit are ignored")

	ok, _, err = h.Verify(prefix[:MaxPasswordBytes-1], hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_RehashOnCostChange(t *testing.T) {
	old, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	hash, err := old.Hash("password123")
	require.NoError(t, err)

	current, err := NewHasher(bcrypt.MinCost + 1)
	require.NoError(t, err)

	ok, rehash, err := current.Verify("password123", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, rehash)

	cost, err := bcrypt.Cost([]byte(rehash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestHasher_VerifyTimingSafeWithoutHash(t *testing.T) {
	h := newTestHasher(t)

	ok, rehash, err := h.VerifyTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)

	empty := ""
	ok, _, err = h.VerifyTimingSafe("anything", &empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewHasher_RejectsOutOfRangeCost(t *testing.T) {
	_, err := NewHasher(bcrypt.MaxCost + 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	h, err := NewHasher(0)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(18)
	require.NoError(t, err)
	b, err := GenerateSecureToken(18)
	require.NoError(t, err)

	assert.Len(t, a, 24)
	assert.NotEqual(t, a, b)
}
