package cryptox

import "errors"

var (
	// ErrRandomGeneration means the OS entropy source failed or returned
	// fewer bytes than requested. There is no fallback.
	ErrRandomGeneration = errors.New("random generation failed")

	// ErrKeyDerivation is returned for invalid KDF inputs (empty password,
	// wrong salt length, zero cost parameters).
	ErrKeyDerivation = errors.New("key derivation failed")

	// ErrEncryption is returned when encryption cannot start, e.g. the key
	// has the wrong size.
	ErrEncryption = errors.New("encryption failed")

	// ErrDecryption covers every decryption failure. A wrong key, a wrong
	// nonce and tampered data all produce this same error.
	ErrDecryption = errors.New("decryption failed")

	// ErrPasswordLength is returned by GeneratePassword for a length
	// outside [MinPasswordLength, MaxPasswordLength].
	ErrPasswordLength = errors.New("password length out of range")
)
