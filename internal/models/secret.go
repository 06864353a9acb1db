package models

import "time"

// Secret is one encrypted credential record. Ciphertext includes the GCM
// tag; Nonce is the value it was sealed with and is replaced together with
// Ciphertext on every update.
//
// URL is stored in the clear like Service and Account. Notes are sealed
// under the same key with their own NotesNonce; both are nil when the
// record has no notes.
type Secret struct {
	ID         int64
	UserID     int64
	Service    string
	Account    string
	URL        string
	Ciphertext []byte
	Nonce      []byte
	Notes      []byte
	NotesNonce []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
