// Package models defines the persisted records of the vault.
package models

import "time"

// User is a registered vault owner. Salt and Verifier are stored in
// plaintext; the master password and the derived key never are.
type User struct {
	ID       int64
	UserName string
	Salt     []byte
	Verifier []byte

	// Argon2id cost used to derive this user's key.
	KDFTime      uint32
	KDFMemoryKiB uint32
	KDFThreads   uint8

	CreatedAt time.Time
}
