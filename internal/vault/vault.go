// Package vault ties a master password to the ability to read stored
// secrets.
//
// Registration stores a random salt and SHA-256(password||salt). Login
// recomputes that hash, compares it in constant time and, on a match,
// derives the Argon2id encryption key into a session-owned key handle.
// Every secret is sealed with AES-256-GCM under that key and a fresh nonce.
// Neither the password nor the key is ever written to storage.
package vault

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cryptify/internal/common"
	"github.com/dmitrijs2005/cryptify/internal/cryptox"
	"github.com/dmitrijs2005/cryptify/internal/logging"
	"github.com/dmitrijs2005/cryptify/internal/models"
	"github.com/dmitrijs2005/cryptify/internal/repositories/repomanager"
)

// Vault registers users and opens sessions. It holds no per-user state and
// is safe for concurrent use.
type Vault struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	kdf         cryptox.KDFParams
	rand        cryptox.RandomSource
	cipher      *cryptox.Cipher

	// Login for an unknown user is checked against these so it costs the
	// same as a wrong password.
	decoySalt []byte
	decoyHash []byte
}

type Option func(*Vault)

// WithKDFParams sets the Argon2id costs used for new registrations and
// password changes.
func WithKDFParams(p cryptox.KDFParams) Option {
	return func(v *Vault) { v.kdf = p }
}

// WithRandomSource replaces the source of salts and nonces.
func WithRandomSource(rs cryptox.RandomSource) Option {
	return func(v *Vault) {
		v.rand = rs
		v.cipher = cryptox.NewCipher(rs)
	}
}

func New(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, opts ...Option) (*Vault, error) {
	v := &Vault{
		db:          db,
		repomanager: m,
		logger:      logger,
		kdf:         cryptox.DefaultKDFParams,
		rand:        cryptox.SystemRandom,
		cipher:      cryptox.NewCipher(cryptox.SystemRandom),
	}
	for _, opt := range opts {
		opt(v)
	}

	if err := v.kdf.Validate(); err != nil {
		return nil, err
	}

	var err error
	if v.decoySalt, err = cryptox.NewSalt(v.rand); err != nil {
		return nil, err
	}
	if v.decoyHash, err = v.rand.Generate(cryptox.HashSize); err != nil {
		return nil, err
	}

	return v, nil
}

// Register creates a user. The password is not retained.
func (v *Vault) Register(ctx context.Context, username string, password []byte) error {
	if strings.TrimSpace(username) == "" {
		return ErrInvalidUsername
	}
	if len(password) == 0 {
		return fmt.Errorf("%w: empty password", cryptox.ErrKeyDerivation)
	}

	salt, err := cryptox.NewSalt(v.rand)
	if err != nil {
		return err
	}
	hash, err := cryptox.HashForStorage(password, salt)
	if err != nil {
		return err
	}

	user := &models.User{
		UserName:     username,
		Salt:         salt,
		Verifier:     hash,
		KDFTime:      v.kdf.Time,
		KDFMemoryKiB: v.kdf.MemoryKiB,
		KDFThreads:   v.kdf.Threads,
	}

	if _, err := v.repomanager.Users(v.db).Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("error creating user: %w", err)
	}

	v.logger.Info(ctx, "user registered", "username", username)
	return nil
}

// NewSession returns an anonymous session.
func (v *Vault) NewSession() *Session {
	return &Session{vault: v, logger: v.logger}
}

// Login opens a new authenticated session. On failure no session is
// returned.
func (v *Vault) Login(ctx context.Context, username string, password []byte) (*Session, error) {
	s := v.NewSession()
	if err := s.Login(ctx, username, password); err != nil {
		return nil, err
	}
	return s, nil
}

// authenticate verifies the password and derives the user's key. The
// caller owns the returned key and must wipe it.
func (v *Vault) authenticate(ctx context.Context, username string, password []byte) (*models.User, []byte, error) {
	user, err := v.repomanager.Users(v.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			v.checkVerifier(password, v.decoySalt, v.decoyHash)
			return nil, nil, ErrAuthentication
		}
		return nil, nil, fmt.Errorf("error loading user: %w", err)
	}

	if !v.checkVerifier(password, user.Salt, user.Verifier) {
		return nil, nil, ErrAuthentication
	}

	key, err := cryptox.DeriveKey(password, user.Salt, kdfParamsOf(user))
	if err != nil {
		return nil, nil, err
	}
	return user, key, nil
}

func (v *Vault) checkVerifier(password, salt, verifier []byte) bool {
	candidate, err := cryptox.HashForStorage(password, salt)
	if err != nil {
		return false
	}
	defer cryptox.Wipe(candidate)
	return subtle.ConstantTimeCompare(candidate, verifier) == 1
}

func kdfParamsOf(u *models.User) cryptox.KDFParams {
	return cryptox.KDFParams{Time: u.KDFTime, MemoryKiB: u.KDFMemoryKiB, Threads: u.KDFThreads}
}
