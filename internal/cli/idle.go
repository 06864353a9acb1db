package cli

import (
	"context"
	"time"
)

// idleCheckInterval bounds how late an idle logout may happen.
func idleCheckInterval(timeout time.Duration) time.Duration {
	interval := timeout / 10
	switch {
	case interval < 10*time.Millisecond:
		return 10 * time.Millisecond
	case interval > time.Second:
		return time.Second
	}
	return interval
}

// StartIdleWatcher logs the session out once no command has been entered
// for timeout. It returns when ctx is done.
func (a *App) StartIdleWatcher(ctx context.Context, timeout time.Duration) {
	ticker := time.NewTicker(idleCheckInterval(timeout))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if a.isLoggedIn() && a.idleFor() >= timeout {
				a.session.Logout(ctx)
				a.logger.Info(ctx, "session closed after inactivity", "idle_timeout", timeout.String())
				hint(a.out, "Logged out after %s of inactivity", timeout)
			}
		case <-ctx.Done():
			return
		}
	}
}
