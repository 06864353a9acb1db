package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

const (
	NonceSize = 12
	TagSize   = 16
)

// Cipher is AES-256-GCM with a fresh random nonce per Encrypt call.
type Cipher struct {
	rand RandomSource
}

// NewCipher returns a Cipher drawing nonces from rs. A nil rs means
// SystemRandom.
func NewCipher(rs RandomSource) *Cipher {
	if rs == nil {
		rs = SystemRandom
	}
	return &Cipher{rand: rs}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under key. The returned ciphertext carries the
// 16-byte tag at its end; the nonce must be stored next to it.
func (c *Cipher) Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, fmt.Errorf("%w: key must be %d bytes", ErrEncryption, KeySize)
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}

	nonce, err = c.rand.Generate(NonceSize)
	if err != nil {
		return nil, nil, err
	}

	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt verifies and opens ciphertext. On any failure it returns
// ErrDecryption and no plaintext.
func (c *Cipher) Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	switch {
	case len(key) != KeySize:
		return nil, fmt.Errorf("%w: key must be %d bytes", ErrDecryption, KeySize)
	case len(nonce) != NonceSize:
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrDecryption, NonceSize)
	case len(ciphertext) < TagSize:
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", ErrDecryption)
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, ErrDecryption
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	if plaintext == nil {
		// Open returns nil for an empty message; callers expect a slice.
		plaintext = []byte{}
	}
	return plaintext, nil
}

var defaultCipher = NewCipher(nil)

// Encrypt seals plaintext with a nonce from SystemRandom.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	return defaultCipher.Encrypt(plaintext, key)
}

// Decrypt opens ciphertext produced by Encrypt.
func Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	return defaultCipher.Decrypt(ciphertext, key, nonce)
}
