package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/cryptify/internal/cryptox"
	"github.com/dmitrijs2005/cryptify/internal/logging"
	"github.com/dmitrijs2005/cryptify/internal/vault"
)

// Session is the part of *vault.Session the CLI drives.
type Session interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) error
	Logout(ctx context.Context)
	State() vault.State
	Username() string
	SaveSecret(ctx context.Context, service, account string, plaintext []byte, opts ...vault.SecretOption) error
	ReadSecret(ctx context.Context, service string) (*vault.Secret, error)
	ListSecrets(ctx context.Context) ([]vault.Entry, error)
	UpdateSecret(ctx context.Context, service string, plaintext []byte) error
	DeleteSecret(ctx context.Context, service string) error
	ChangePassword(ctx context.Context, current, next []byte) error
}

type App struct {
	session     Session
	rand        cryptox.RandomSource
	logger      logging.Logger
	reader      *bufio.Reader
	out         io.Writer
	idleTimeout time.Duration

	mu           sync.Mutex
	lastActivity time.Time
	now          func() time.Time
}

func NewApp(s Session, logger logging.Logger, in io.Reader, out io.Writer, idleTimeout time.Duration) *App {
	return &App{
		session:      s,
		rand:         cryptox.SystemRandom,
		logger:       logger,
		reader:       bufio.NewReader(in),
		out:          out,
		idleTimeout:  idleTimeout,
		now:          time.Now,
		lastActivity: time.Now(),
	}
}

// Run starts the REPL and returns when the user exits or input ends. The
// session is logged out on return.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.session.Logout(context.Background())

	fmt.Fprintln(a.out, "Welcome to cryptify (type 'help' for commands)")

	if a.idleTimeout > 0 {
		go a.StartIdleWatcher(ctx, a.idleTimeout)
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == vault.StateAuthenticated
}

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return ""
	}
	return fmt.Sprintf("(%s)", a.session.Username())
}

func (a *App) markActive() {
	a.mu.Lock()
	a.lastActivity = a.now()
	a.mu.Unlock()
}

func (a *App) idleFor() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.now().Sub(a.lastActivity)
}
