package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	markActive()
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Add(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Update(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Passwd(ctx context.Context) error
	Gen(ctx context.Context, args []string) error
}

const (
	helpAnonymous     = "Available commands: register, login, gen [length], help, exit"
	helpAuthenticated = "Available commands: add [service] [-g], show [service], (l)ist, update [service], delete [service], gen [length], passwd, logout, help, exit"
)

// runREPL reads commands from reader until EOF, "exit" or "quit" and
// dispatches them to a. The first token is the command, the rest are its
// arguments. Handlers report their own failures, so returned errors are
// dropped here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "cryptify%s> ", statusFn())
		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		a.markActive()

		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpAuthenticated)
			} else {
				fmt.Fprintln(w, helpAnonymous)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "add":
			_ = a.Add(ctx, args)

		case "show":
			_ = a.Show(ctx, args)

		case "l", "list":
			_ = a.List(ctx)

		case "update":
			_ = a.Update(ctx, args)

		case "delete":
			_ = a.Delete(ctx, args)

		case "passwd":
			_ = a.Passwd(ctx)

		case "gen":
			_ = a.Gen(ctx, args)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
