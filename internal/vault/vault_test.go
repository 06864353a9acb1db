package vault

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cryptify/internal/cryptox"
	"github.com/dmitrijs2005/cryptify/internal/logging"
	"github.com/dmitrijs2005/cryptify/internal/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKDF = cryptox.KDFParams{Time: 1, MemoryKiB: 1024, Threads: 1}

func openDB(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	db, rm, err := repomanager.Open(context.Background(), repomanager.DriverSQLite, filepath.Join(t.TempDir(), "vault.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, rm
}

func newTestVault(t *testing.T, opts ...Option) (*Vault, *sql.DB) {
	t.Helper()
	db, rm := openDB(t)
	v, err := New(db, rm, logging.Discard(), append([]Option{WithKDFParams(testKDF)}, opts...)...)
	require.NoError(t, err)
	return v, db
}

type failingSource struct{}

func (failingSource) Generate(int) ([]byte, error) {
	return nil, cryptox.ErrRandomGeneration
}

func TestNew_RejectsBadParams(t *testing.T) {
	db, rm := openDB(t)

	_, err := New(db, rm, logging.Discard(), WithKDFParams(cryptox.KDFParams{}))
	require.ErrorIs(t, err, cryptox.ErrKeyDerivation)

	_, err = New(db, rm, logging.Discard(), WithRandomSource(failingSource{}))
	require.ErrorIs(t, err, cryptox.ErrRandomGeneration)
}

func TestRegister_StoresSaltAndHashOnly(t *testing.T) {
	v, db := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, v.Register(ctx, "alice", []byte("Secr3t!")))

	var salt, hash []byte
	var kt, km, kp int64
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT salt, verification_hash, kdf_time, kdf_memory, kdf_threads FROM users WHERE username = ?`, "alice").
		Scan(&salt, &hash, &kt, &km, &kp))

	require.Len(t, salt, cryptox.SaltSize)
	want := sha256.Sum256(append([]byte("Secr3t!"), salt...))
	assert.Equal(t, want[:], hash)
	assert.Equal(t, []int64{1, 1024, 1}, []int64{kt, km, kp})
	assert.False(t, bytes.Contains(hash, []byte("Secr3t!")))
}

func TestRegister_Errors(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, v.Register(ctx, "alice", []byte("Secr3t!")))

	require.ErrorIs(t, v.Register(ctx, "alice", []byte("other")), ErrDuplicateUser)
	require.ErrorIs(t, v.Register(ctx, "", []byte("pw")), ErrInvalidUsername)
	require.ErrorIs(t, v.Register(ctx, "   ", []byte("pw")), ErrInvalidUsername)
	require.ErrorIs(t, v.Register(ctx, "bob", nil), cryptox.ErrKeyDerivation)
}

func TestRegister_SaltsDifferForSamePassword(t *testing.T) {
	v, db := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, v.Register(ctx, "alice", []byte("same")))
	require.NoError(t, v.Register(ctx, "bob", []byte("same")))

	var a, b []byte
	require.NoError(t, db.QueryRow(`SELECT verification_hash FROM users WHERE username = 'alice'`).Scan(&a))
	require.NoError(t, db.QueryRow(`SELECT verification_hash FROM users WHERE username = 'bob'`).Scan(&b))
	assert.NotEqual(t, a, b)
}

func TestRegister_RandomFailure(t *testing.T) {
	db, rm := openDB(t)
	v, err := New(db, rm, logging.Discard(), WithKDFParams(testKDF))
	require.NoError(t, err)

	v.rand = failingSource{}
	require.ErrorIs(t, v.Register(context.Background(), "alice", []byte("pw")), cryptox.ErrRandomGeneration)
}

func TestLogin_Flow(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()
	require.NoError(t, v.Register(ctx, "alice", []byte("Secr3t!")))

	s, err := v.Login(ctx, "alice", []byte("Secr3t!"))
	require.NoError(t, err)
	closeOnCleanup(t, s)
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "alice", s.Username())
	assert.NotEmpty(t, s.ID())

	_, errWrong := v.Login(ctx, "alice", []byte("wrong"))
	require.ErrorIs(t, errWrong, ErrAuthentication)

	_, errUnknown := v.Login(ctx, "mallory", []byte("Secr3t!"))
	require.ErrorIs(t, errUnknown, ErrAuthentication)

	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestLogin_FailureLeavesSessionAnonymous(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()
	require.NoError(t, v.Register(ctx, "alice", []byte("Secr3t!")))

	s := v.NewSession()
	closeOnCleanup(t, s)
	assert.Equal(t, StateAnonymous, s.State())

	require.ErrorIs(t, s.Login(ctx, "alice", []byte("nope")), ErrAuthentication)
	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, s.ID())

	require.NoError(t, s.Login(ctx, "alice", []byte("Secr3t!")))
	assert.Equal(t, StateAuthenticated, s.State())
}

func TestLogin_SessionIDsAreUnique(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()
	require.NoError(t, v.Register(ctx, "alice", []byte("Secr3t!")))

	a, err := v.Login(ctx, "alice", []byte("Secr3t!"))
	require.NoError(t, err)
	closeOnCleanup(t, a)
	b, err := v.Login(ctx, "alice", []byte("Secr3t!"))
	require.NoError(t, err)
	closeOnCleanup(t, b)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestLogin_UsesStoredKDFParams(t *testing.T) {
	db, rm := openDB(t)
	ctx := context.Background()

	v1, err := New(db, rm, logging.Discard(), WithKDFParams(testKDF))
	require.NoError(t, err)
	require.NoError(t, v1.Register(ctx, "alice", []byte("Secr3t!")))

	s1, err := v1.Login(ctx, "alice", []byte("Secr3t!"))
	require.NoError(t, err)
	closeOnCleanup(t, s1)
	require.NoError(t, s1.SaveSecret(ctx, "github", "alice", []byte("tok_abc123")))

	v2, err := New(db, rm, logging.Discard(), WithKDFParams(cryptox.KDFParams{Time: 2, MemoryKiB: 2048, Threads: 1}))
	require.NoError(t, err)
	s2, err := v2.Login(ctx, "alice", []byte("Secr3t!"))
	require.NoError(t, err)
	closeOnCleanup(t, s2)

	got, err := s2.ReadSecret(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, []byte("tok_abc123"), got.Plaintext)
}

func TestLogin_StorageErrorIsNotAuthenticationError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	v, err := New(db, repomanager.NewSQLiteRepositoryManager(), logging.Discard(), WithKDFParams(testKDF))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM users`).WillReturnError(errors.New("disk I/O error"))

	_, err = v.Login(context.Background(), "alice", []byte("pw"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthentication)
	assert.Contains(t, err.Error(), "disk I/O error")
}

// slowUserLookup makes the next user query answer alice's credentials after
// delay, so a login stays in StateAuthenticating for that long.
func slowUserLookup(t *testing.T, delay time.Duration) *Vault {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	v, err := New(db, repomanager.NewSQLiteRepositoryManager(), logging.Discard(), WithKDFParams(testKDF))
	require.NoError(t, err)

	salt := bytes.Repeat([]byte{7}, cryptox.SaltSize)
	hash, err := cryptox.HashForStorage([]byte("Secr3t!"), salt)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "username", "salt", "verification_hash", "kdf_time", "kdf_memory", "kdf_threads", "created_at"}).
		AddRow(int64(1), "alice", salt, hash, int64(testKDF.Time), int64(testKDF.MemoryKiB), int64(testKDF.Threads), time.Now())
	mock.ExpectQuery(`SELECT .* FROM users`).WithArgs("alice").WillDelayFor(delay).WillReturnRows(rows)
	return v
}

func TestLogin_AuthenticatingStateIsObservable(t *testing.T) {
	v := slowUserLookup(t, 300*time.Millisecond)
	ctx := context.Background()
	s := v.NewSession()
	closeOnCleanup(t, s)

	done := make(chan error, 1)
	go func() { done <- s.Login(ctx, "alice", []byte("Secr3t!")) }()

	require.Eventually(t, func() bool { return s.State() == StateAuthenticating }, time.Second, 5*time.Millisecond)
	require.ErrorIs(t, s.Login(ctx, "alice", []byte("Secr3t!")), ErrLoginInProgress)
	require.ErrorIs(t, s.Register(ctx, "bob", []byte("pw")), ErrAlreadyAuthenticated)
	_, err := s.ReadSecret(ctx, "github")
	require.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, <-done)
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "alice", s.Username())
}

func TestLogin_LogoutAbandonsPendingLogin(t *testing.T) {
	v := slowUserLookup(t, 300*time.Millisecond)
	ctx := context.Background()
	s := v.NewSession()

	done := make(chan error, 1)
	go func() { done <- s.Login(ctx, "alice", []byte("Secr3t!")) }()

	require.Eventually(t, func() bool { return s.State() == StateAuthenticating }, time.Second, 5*time.Millisecond)
	s.Logout(ctx)
	assert.Equal(t, StateAnonymous, s.State())

	require.ErrorIs(t, <-done, ErrNotAuthenticated)
	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.key)
	assert.Empty(t, s.ID())
}

func TestSession_RegisterOnlyWhileAnonymous(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()
	s := v.NewSession()

	require.NoError(t, s.Register(ctx, "alice", []byte("Secr3t!")))
	require.ErrorIs(t, s.Register(ctx, "alice", []byte("again")), ErrDuplicateUser)

	require.NoError(t, s.Login(ctx, "alice", []byte("Secr3t!")))
	closeOnCleanup(t, s)
	require.ErrorIs(t, s.Register(ctx, "bob", []byte("Other1")), ErrAlreadyAuthenticated)

	_, err := v.Login(ctx, "bob", []byte("Other1"))
	require.ErrorIs(t, err, ErrAuthentication)

	s.Logout(ctx)
	require.NoError(t, s.Register(ctx, "bob", []byte("Other1")))
}
