package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cryptify/internal/common"
	"github.com/dmitrijs2005/cryptify/internal/cryptox"
	"github.com/dmitrijs2005/cryptify/internal/dbx"
	"github.com/dmitrijs2005/cryptify/internal/keyhandle"
	"github.com/dmitrijs2005/cryptify/internal/logging"
	"github.com/dmitrijs2005/cryptify/internal/models"
	"github.com/dmitrijs2005/cryptify/internal/repositories/secrets"
	"github.com/google/uuid"
)

// State is where a Session is in its login lifecycle. StateAuthenticating
// is observable while Login checks the password and derives the key.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Secret is a decrypted record. Plaintext and Notes belong to the caller;
// Wipe clears them.
type Secret struct {
	Service   string
	Account   string
	URL       string
	Plaintext []byte
	Notes     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Wipe zeroes the plaintext and the notes.
func (s *Secret) Wipe() {
	cryptox.Wipe(s.Plaintext)
	cryptox.Wipe(s.Notes)
}

// SecretOption sets optional fields of a new secret.
type SecretOption func(*secretDetails)

type secretDetails struct {
	url   string
	notes []byte
}

// WithURL records the site the secret belongs to. It is stored unencrypted,
// like the service and account names.
func WithURL(url string) SecretOption {
	return func(d *secretDetails) { d.url = url }
}

// WithNotes attaches free-form notes. They are encrypted with their own
// nonce under the session key. The caller keeps ownership of notes.
func WithNotes(notes []byte) SecretOption {
	return func(d *secretDetails) { d.notes = notes }
}

// Entry is one row of ListSecrets. When Err is set Plaintext is nil and
// the rest of the listing is unaffected.
type Entry struct {
	Secret
	Err error
}

// Session is one user's authenticated context. It owns the derived key
// through a keyhandle.Handle. Methods are safe for concurrent use; reads
// and writes of secrets share the session, while Login, Logout and
// ChangePassword are exclusive.
type Session struct {
	vault  *Vault
	logger logging.Logger

	mu       sync.RWMutex
	state    State
	attempt  uint64
	id       string
	userID   int64
	username string
	key      *keyhandle.Handle
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ID is a random identifier assigned at login, empty when anonymous.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Register creates a new user through the session's vault. It is only
// allowed while the session is anonymous.
func (s *Session) Register(ctx context.Context, username string, password []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateAnonymous {
		return ErrAlreadyAuthenticated
	}
	return s.vault.Register(ctx, username, password)
}

// Login authenticates the session. Whatever user was logged in before is
// logged out first. While the password is being checked the session is
// StateAuthenticating; a concurrent Login fails with ErrLoginInProgress and
// a Logout abandons the attempt. On failure the session is left anonymous.
func (s *Session) Login(ctx context.Context, username string, password []byte) error {
	s.mu.Lock()
	if s.state == StateAuthenticating {
		s.mu.Unlock()
		return ErrLoginInProgress
	}
	s.closeLocked(ctx)
	s.state = StateAuthenticating
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()

	user, key, err := s.vault.authenticate(ctx, username, password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticating || s.attempt != attempt {
		cryptox.Wipe(key)
		if err != nil {
			return err
		}
		return ErrNotAuthenticated
	}

	if err != nil {
		s.state = StateAnonymous
		if errors.Is(err, ErrAuthentication) {
			s.vault.logger.Warn(ctx, "login failed", "username", username)
		}
		return err
	}

	h, err := keyhandle.New(key)
	if err != nil {
		cryptox.Wipe(key)
		s.state = StateAnonymous
		return err
	}

	s.id = uuid.NewString()
	s.userID = user.ID
	s.username = user.UserName
	s.key = h
	s.state = StateAuthenticated
	s.logger = s.vault.logger.With("session_id", s.id, "username", s.username)

	s.logger.Info(ctx, "login succeeded")
	return nil
}

// Logout destroys the key and returns the session to anonymous. A login
// still in progress is abandoned. Calling it on an anonymous session does
// nothing.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked(ctx)
}

func (s *Session) closeLocked(ctx context.Context) {
	switch s.state {
	case StateAnonymous:
		return
	case StateAuthenticating:
		s.state = StateAnonymous
		return
	}

	if s.key != nil {
		s.key.Destroy()
	}
	s.logger.Info(ctx, "session closed")

	s.key = nil
	s.id = ""
	s.userID = 0
	s.username = ""
	s.state = StateAnonymous
	s.logger = s.vault.logger
}

func (s *Session) requireAuthLocked() error {
	if s.state != StateAuthenticated || s.key == nil {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *Session) encrypt(plaintext []byte) (ciphertext, nonce []byte, err error) {
	err = s.key.Use(func(key []byte) error {
		ciphertext, nonce, err = s.vault.cipher.Encrypt(plaintext, key)
		return err
	})
	if errors.Is(err, keyhandle.ErrDestroyed) {
		return nil, nil, ErrNotAuthenticated
	}
	return ciphertext, nonce, err
}

func (s *Session) decrypt(ciphertext, nonce []byte) (plaintext []byte, err error) {
	err = s.key.Use(func(key []byte) error {
		plaintext, err = s.vault.cipher.Decrypt(ciphertext, key, nonce)
		return err
	})
	if errors.Is(err, keyhandle.ErrDestroyed) {
		return nil, ErrNotAuthenticated
	}
	return plaintext, err
}

// open decrypts the secret value of rec and its notes, if any.
func (s *Session) open(rec *models.Secret) (plaintext, notes []byte, err error) {
	plaintext, err = s.decrypt(rec.Ciphertext, rec.Nonce)
	if err != nil {
		return nil, nil, err
	}
	if len(rec.Notes) == 0 {
		return plaintext, nil, nil
	}
	notes, err = s.decrypt(rec.Notes, rec.NotesNonce)
	if err != nil {
		cryptox.Wipe(plaintext)
		return nil, nil, err
	}
	return plaintext, notes, nil
}

// SaveSecret encrypts plaintext and stores it under service. The caller
// keeps ownership of plaintext.
func (s *Session) SaveSecret(ctx context.Context, service, account string, plaintext []byte, opts ...SecretOption) error {
	var details secretDetails
	for _, opt := range opts {
		opt(&details)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireAuthLocked(); err != nil {
		return err
	}
	if strings.TrimSpace(service) == "" {
		return ErrInvalidService
	}

	ciphertext, nonce, err := s.encrypt(plaintext)
	if err != nil {
		return err
	}

	rec := &models.Secret{
		UserID:     s.userID,
		Service:    service,
		Account:    account,
		URL:        details.url,
		Ciphertext: ciphertext,
		Nonce:      nonce,
	}
	if len(details.notes) > 0 {
		rec.Notes, rec.NotesNonce, err = s.encrypt(details.notes)
		if err != nil {
			return err
		}
	}
	if _, err := s.vault.repomanager.Secrets(s.vault.db).Create(ctx, rec); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return ErrDuplicateService
		}
		return fmt.Errorf("error saving secret: %w", err)
	}

	s.logger.Info(ctx, "secret saved", "service", service)
	return nil
}

// ReadSecret returns the decrypted secret stored under service.
// Decryption failures are returned as cryptox.ErrDecryption.
func (s *Session) ReadSecret(ctx context.Context, service string) (*Secret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireAuthLocked(); err != nil {
		return nil, err
	}

	rec, err := s.lookup(ctx, s.vault.db, service)
	if err != nil {
		return nil, err
	}

	plaintext, notes, err := s.open(rec)
	if err != nil {
		return nil, err
	}
	return secretFrom(rec, plaintext, notes), nil
}

// ListSecrets decrypts every record of the user, ordered by service. A
// record that fails to decrypt is reported in its Entry and does not stop
// the listing.
func (s *Session) ListSecrets(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireAuthLocked(); err != nil {
		return nil, err
	}

	recs, err := s.vault.repomanager.Secrets(s.vault.db).ListByUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("error listing secrets: %w", err)
	}

	entries := make([]Entry, 0, len(recs))
	for _, rec := range recs {
		plaintext, notes, err := s.open(rec)
		if err != nil {
			if errors.Is(err, ErrNotAuthenticated) {
				return nil, err
			}
			s.logger.Warn(ctx, "secret could not be decrypted", "service", rec.Service)
			entries = append(entries, Entry{Secret: *secretFrom(rec, nil, nil), Err: err})
			continue
		}
		entries = append(entries, Entry{Secret: *secretFrom(rec, plaintext, notes)})
	}
	return entries, nil
}

// UpdateSecret replaces the secret under service, sealing it with a fresh
// nonce. Ciphertext and nonce change together.
func (s *Session) UpdateSecret(ctx context.Context, service string, plaintext []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireAuthLocked(); err != nil {
		return err
	}

	ciphertext, nonce, err := s.encrypt(plaintext)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.vault.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := s.lookup(ctx, tx, service)
		if err != nil {
			return err
		}
		return s.vault.repomanager.Secrets(tx).Update(ctx, rec.ID, ciphertext, nonce)
	})
	if err != nil {
		return mapSecretErr("error updating secret", err)
	}

	s.logger.Info(ctx, "secret updated", "service", service)
	return nil
}

// DeleteSecret removes the secret stored under service.
func (s *Session) DeleteSecret(ctx context.Context, service string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireAuthLocked(); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.vault.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := s.lookup(ctx, tx, service)
		if err != nil {
			return err
		}
		return s.vault.repomanager.Secrets(tx).Delete(ctx, rec.ID)
	})
	if err != nil {
		return mapSecretErr("error deleting secret", err)
	}

	s.logger.Info(ctx, "secret deleted", "service", service)
	return nil
}

// ChangePassword replaces the master password. Every record is decrypted
// under the current key and sealed again under the new one inside a single
// transaction, together with the new salt and verifier. If any step fails
// nothing is changed and the session keeps its current key.
func (s *Session) ChangePassword(ctx context.Context, current, next []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthLocked(); err != nil {
		return err
	}
	if len(next) == 0 {
		return fmt.Errorf("%w: empty password", cryptox.ErrKeyDerivation)
	}

	v := s.vault
	user, err := v.repomanager.Users(v.db).GetByUsername(ctx, s.username)
	if err != nil {
		return fmt.Errorf("error loading user: %w", err)
	}
	if !v.checkVerifier(current, user.Salt, user.Verifier) {
		s.logger.Warn(ctx, "password change rejected")
		return ErrAuthentication
	}

	salt, err := cryptox.NewSalt(v.rand)
	if err != nil {
		return err
	}
	verifier, err := cryptox.HashForStorage(next, salt)
	if err != nil {
		return err
	}
	newKey, err := cryptox.DeriveKey(next, salt, v.kdf)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(newKey)

	var count int
	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := v.repomanager.Secrets(tx)

		recs, err := repo.ListByUser(ctx, s.userID)
		if err != nil {
			return fmt.Errorf("error listing secrets: %w", err)
		}

		for _, rec := range recs {
			if err := s.reseal(ctx, repo, rec, newKey); err != nil {
				return err
			}
		}
		count = len(recs)

		user.Salt = salt
		user.Verifier = verifier
		user.KDFTime = v.kdf.Time
		user.KDFMemoryKiB = v.kdf.MemoryKiB
		user.KDFThreads = v.kdf.Threads
		if err := v.repomanager.Users(tx).UpdateCredentials(ctx, user); err != nil {
			return fmt.Errorf("error updating credentials: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "password change failed", "error", err)
		return err
	}

	h, err := keyhandle.New(newKey)
	if err != nil {
		return err
	}
	s.key.Destroy()
	s.key = h

	s.logger.Info(ctx, "password changed", "records", count)
	return nil
}

// reseal moves one record, notes included, from the session key to newKey.
func (s *Session) reseal(ctx context.Context, repo secrets.Repository, rec *models.Secret, newKey []byte) error {
	plaintext, notes, err := s.open(rec)
	if err != nil {
		return fmt.Errorf("secret %q: %w", rec.Service, err)
	}
	defer cryptox.Wipe(plaintext)
	defer cryptox.Wipe(notes)

	ciphertext, nonce, err := s.vault.cipher.Encrypt(plaintext, newKey)
	if err != nil {
		return fmt.Errorf("secret %q: %w", rec.Service, err)
	}
	if err := repo.Update(ctx, rec.ID, ciphertext, nonce); err != nil {
		return fmt.Errorf("secret %q: %w", rec.Service, err)
	}

	if notes == nil {
		return nil
	}
	sealed, notesNonce, err := s.vault.cipher.Encrypt(notes, newKey)
	if err != nil {
		return fmt.Errorf("secret %q notes: %w", rec.Service, err)
	}
	if err := repo.UpdateNotes(ctx, rec.ID, sealed, notesNonce); err != nil {
		return fmt.Errorf("secret %q notes: %w", rec.Service, err)
	}
	return nil
}

func (s *Session) lookup(ctx context.Context, db dbx.DBTX, service string) (*models.Secret, error) {
	rec, err := s.vault.repomanager.Secrets(db).GetByService(ctx, s.userID, service)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrSecretNotFound
		}
		return nil, fmt.Errorf("error loading secret: %w", err)
	}
	return rec, nil
}

func mapSecretErr(msg string, err error) error {
	if errors.Is(err, ErrSecretNotFound) || errors.Is(err, common.ErrorNotFound) {
		return ErrSecretNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func secretFrom(rec *models.Secret, plaintext, notes []byte) *Secret {
	return &Secret{
		Service:   rec.Service,
		Account:   rec.Account,
		URL:       rec.URL,
		Plaintext: plaintext,
		Notes:     notes,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
