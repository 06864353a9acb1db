package cryptox

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 16
	HashSize = sha256.Size
	KeySize  = 32
)

// KDFParams are the Argon2id cost parameters. They are stored with each
// user so a later change of defaults does not change existing keys.
type KDFParams struct {
	Time      uint32 // iterations
	MemoryKiB uint32
	Threads   uint8
}

// DefaultKDFParams takes a few hundred milliseconds on a current laptop.
var DefaultKDFParams = KDFParams{Time: 3, MemoryKiB: 64 * 1024, Threads: 4}

// Validate reports whether every cost parameter is set.
func (p KDFParams) Validate() error {
	if p.Time == 0 || p.MemoryKiB == 0 || p.Threads == 0 {
		return fmt.Errorf("%w: zero cost parameter", ErrKeyDerivation)
	}
	return nil
}

// DeriveKey derives the KeySize encryption key from the master password
// with Argon2id. It is deterministic for identical inputs and blocks for
// the whole derivation.
func DeriveKey(password, salt []byte, p KDFParams) ([]byte, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("%w: empty password", ErrKeyDerivation)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes", ErrKeyDerivation, SaltSize)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, KeySize), nil
}

// HashForStorage computes SHA-256(password || salt), the value stored to
// verify logins. It shares no computation with DeriveKey, so the stored
// hash does not yield the encryption key.
func HashForStorage(password, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes", ErrKeyDerivation, SaltSize)
	}

	h := sha256.New()
	h.Write(password)
	h.Write(salt)
	return h.Sum(nil), nil
}
