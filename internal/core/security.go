// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit. Longer passwords are truncated
// to this many bytes before hashing and verifying.
const MaxPasswordBytes = 72

const dummyPassword = "dummy_password_for_timing_attack_prevention"

type Hasher struct {
	cost      int
	dummyHash string
}

func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range: %w", cost, ErrInvalidInput)
	}

	h := &Hasher{cost: cost}

	dummy, err := h.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	h.dummyHash = dummy

	return h, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches encodedHash. When the stored hash
// was produced with a different cost, a replacement hash is returned as well.
func (h *Hasher) Verify(password, encodedHash string) (bool, string, error) {
	err := bcrypt.CompareHashAndPassword(
		[]byte(encodedHash),
		truncatePassword(password),
	)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("verify password: %w", err)
	}

	if !h.needsRehash(encodedHash) {
		return true, "", nil
	}

	newHash, err := h.Hash(password)
	if err != nil {
		//nolint:nilerr // password verified successfully; rehash failure is non-critical
		return true, "", nil
	}

	return true, newHash, nil
}

// VerifyTimingSafe always spends one bcrypt comparison, even when there is no
// stored hash, so unknown accounts cannot be told apart by response time.
func (h *Hasher) VerifyTimingSafe(
	password string,
	encodedHash *string,
) (bool, string, error) {
	if encodedHash == nil || *encodedHash == "" {
		//nolint:errcheck // result intentionally discarded
		_, _, _ = h.Verify(password, h.dummyHash)
		return false, "", nil
	}

	return h.Verify(password, *encodedHash)
}

func (h *Hasher) needsRehash(encodedHash string) bool {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return true
	}
	return cost != h.cost
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}

func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
