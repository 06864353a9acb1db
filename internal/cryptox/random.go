package cryptox

import (
	"crypto/rand"
	"fmt"
	"io"
)

// RandomSource produces unpredictable bytes for salts and nonces.
type RandomSource interface {
	Generate(n int) ([]byte, error)
}

// ReaderSource reads random bytes from an io.Reader. The zero value reads
// from crypto/rand.
type ReaderSource struct {
	Reader io.Reader
}

// SystemRandom is backed by the operating system CSPRNG.
var SystemRandom RandomSource = ReaderSource{}

// Generate returns exactly n random bytes. A short read is an error.
func (s ReaderSource) Generate(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrRandomGeneration, n)
	}

	r := s.Reader
	if r == nil {
		r = rand.Reader
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomGeneration, err)
	}
	return b, nil
}

// Generate reads n bytes from SystemRandom.
func Generate(n int) ([]byte, error) {
	return SystemRandom.Generate(n)
}

// NewSalt returns a fresh SaltSize salt.
func NewSalt(rs RandomSource) ([]byte, error) {
	return rs.Generate(SaltSize)
}

// Wipe overwrites b with zeros. Nil is allowed.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
