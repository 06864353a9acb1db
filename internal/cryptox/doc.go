// Package cryptox implements the credential cryptography pipeline:
// secure random bytes, password-based key derivation, the login
// verification hash, AES-256-GCM authenticated encryption and random
// password generation.
//
// Sizes are fixed:
//   - salt: 16 bytes, random per user
//   - verification hash: 32 bytes, SHA-256(password || salt)
//   - derived key: 32 bytes, Argon2id(password, salt)
//   - nonce: 12 bytes, random per encryption
//   - tag: 16 bytes, appended to the ciphertext
//
// Callers match failures with errors.Is against the sentinel errors
// declared in errors.go.
package cryptox
