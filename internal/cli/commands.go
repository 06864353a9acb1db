package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/cryptify/internal/cryptox"
	"github.com/dmitrijs2005/cryptify/internal/vault"
	"github.com/fatih/color"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errPasswordMismatch = errors.New("passwords do not match")

// report prints err, if any, and passes it through.
func (a *App) report(err error) error {
	if err != nil {
		failure(a.out, err)
	}
	return err
}

// argOrPrompt returns args[0] or asks for the value.
func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	v, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", ErrEmptyInput
	}
	return v, nil
}

// newPassword reads a password twice and returns it when both match.
func (a *App) newPassword(prompt string) ([]byte, error) {
	pw, err := getPassword(prompt, a.out)
	if err != nil {
		return nil, err
	}
	confirm, err := getPassword("Repeat "+prompt, a.out)
	if err != nil {
		cryptox.Wipe(pw)
		return nil, err
	}
	defer cryptox.Wipe(confirm)

	if !bytes.Equal(pw, confirm) {
		cryptox.Wipe(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

// Register prompts for a username and a confirmed master password and
// creates the account. The password is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	if a.isLoggedIn() {
		return a.report(vault.ErrAlreadyAuthenticated)
	}

	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return a.report(err)
	}

	password, err := a.newPassword("master password")
	if err != nil {
		return a.report(err)
	}
	defer cryptox.Wipe(password)

	if err := a.session.Register(ctx, username, password); err != nil {
		return a.report(err)
	}

	success(a.out, "Registered %s", username)
	hint(a.out, "Run login to open the vault")
	return nil
}

// Login prompts for credentials and authenticates the session. Key
// derivation runs behind a spinner.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return a.report(err)
	}

	password, err := getPassword("Master password", a.out)
	if err != nil {
		return a.report(err)
	}
	defer cryptox.Wipe(password)

	err = withSpinner(a.out, "Unlocking vault...", func() error {
		return a.session.Login(ctx, username, password)
	})
	if err != nil {
		return a.report(err)
	}

	success(a.out, "Logged in as %s", username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.report(vault.ErrNotAuthenticated)
	}
	a.session.Logout(ctx)
	success(a.out, "Logged out")
	return nil
}

// Add stores a new secret. The service may be given as an argument; with
// -g or --generate the secret is generated instead of prompted for. URL and
// notes are optional.
func (a *App) Add(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return a.report(vault.ErrNotAuthenticated)
	}

	args, generate := splitGenerateFlag(args)

	service, err := a.argOrPrompt(args, "Enter service")
	if err != nil {
		return a.report(err)
	}
	account, err := getSimpleText(a.reader, "Enter account", a.out)
	if err != nil {
		return a.report(err)
	}
	url, err := getSimpleText(a.reader, "Enter URL (optional)", a.out)
	if err != nil {
		return a.report(err)
	}
	notes, err := getSimpleText(a.reader, "Enter notes (optional)", a.out)
	if err != nil {
		return a.report(err)
	}
	notesBytes := []byte(notes)
	defer cryptox.Wipe(notesBytes)

	var secret []byte
	if generate {
		secret, err = cryptox.GeneratePassword(a.rand, cryptox.DefaultPasswordLength, cryptox.DefaultPasswordOptions)
	} else {
		secret, err = getPassword("Secret", a.out)
	}
	if err != nil {
		return a.report(err)
	}
	defer cryptox.Wipe(secret)

	opts := []vault.SecretOption{vault.WithURL(url)}
	if len(notesBytes) > 0 {
		opts = append(opts, vault.WithNotes(notesBytes))
	}
	if err := a.session.SaveSecret(ctx, service, account, secret, opts...); err != nil {
		return a.report(err)
	}

	success(a.out, "Saved secret for %s", service)
	if generate {
		hint(a.out, "Generated a %d character secret, run show %s to see it", len(secret), service)
	}
	return nil
}

// splitGenerateFlag removes -g/--generate from args and reports whether it
// was present.
func splitGenerateFlag(args []string) ([]string, bool) {
	rest := make([]string, 0, len(args))
	generate := false
	for _, arg := range args {
		switch arg {
		case "-g", "--generate":
			generate = true
		default:
			rest = append(rest, arg)
		}
	}
	return rest, generate
}

// Gen prints a random password. An optional argument sets its length.
func (a *App) Gen(ctx context.Context, args []string) error {
	length := cryptox.DefaultPasswordLength
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return a.report(fmt.Errorf("invalid length %q", args[0]))
		}
		length = n
	}

	pw, err := cryptox.GeneratePassword(a.rand, length, cryptox.DefaultPasswordOptions)
	if err != nil {
		return a.report(err)
	}
	defer cryptox.Wipe(pw)

	fmt.Fprintf(a.out, "%s\n", pw)
	return nil
}

// Show prints one decrypted secret.
func (a *App) Show(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return a.report(vault.ErrNotAuthenticated)
	}

	service, err := a.argOrPrompt(args, "Enter service")
	if err != nil {
		return a.report(err)
	}

	s, err := a.session.ReadSecret(ctx, service)
	if err != nil {
		return a.report(err)
	}
	defer s.Wipe()

	fmt.Fprintf(a.out, "Service: %s\nAccount: %s\n", s.Service, s.Account)
	if s.URL != "" {
		fmt.Fprintf(a.out, "URL:     %s\n", s.URL)
	}
	fmt.Fprintf(a.out, "Secret:  %s\n", s.Plaintext)
	if len(s.Notes) > 0 {
		fmt.Fprintf(a.out, "Notes:   %s\n", s.Notes)
	}
	return nil
}

// List prints service and account of every secret. Values are not shown;
// records that fail to decrypt are flagged.
func (a *App) List(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.report(vault.ErrNotAuthenticated)
	}

	entries, err := a.session.ListSecrets(ctx)
	if err != nil {
		return a.report(err)
	}

	if len(entries) == 0 {
		hint(a.out, "No secrets yet, use add to store one")
		return nil
	}

	for _, e := range entries {
		if e.Err != nil {
			fmt.Fprintf(a.out, "%s %-20s %s (%v)\n", color.RedString("✗"), e.Service, e.Account, e.Err)
			continue
		}
		e.Wipe()
		fmt.Fprintf(a.out, "  %-20s %s\n", e.Service, e.Account)
	}
	return nil
}

// Update replaces the value of an existing secret.
func (a *App) Update(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return a.report(vault.ErrNotAuthenticated)
	}

	service, err := a.argOrPrompt(args, "Enter service")
	if err != nil {
		return a.report(err)
	}
	secret, err := getPassword("New secret", a.out)
	if err != nil {
		return a.report(err)
	}
	defer cryptox.Wipe(secret)

	if err := a.session.UpdateSecret(ctx, service, secret); err != nil {
		return a.report(err)
	}

	success(a.out, "Updated secret for %s", service)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return a.report(vault.ErrNotAuthenticated)
	}

	service, err := a.argOrPrompt(args, "Enter service")
	if err != nil {
		return a.report(err)
	}

	if err := a.session.DeleteSecret(ctx, service); err != nil {
		return a.report(err)
	}

	success(a.out, "Deleted secret for %s", service)
	return nil
}

// Passwd changes the master password and re-encrypts every secret.
func (a *App) Passwd(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.report(vault.ErrNotAuthenticated)
	}

	current, err := getPassword("Current master password", a.out)
	if err != nil {
		return a.report(err)
	}
	defer cryptox.Wipe(current)

	next, err := a.newPassword("new master password")
	if err != nil {
		return a.report(err)
	}
	defer cryptox.Wipe(next)

	err = withSpinner(a.out, "Re-encrypting secrets...", func() error {
		return a.session.ChangePassword(ctx, current, next)
	})
	if err != nil {
		return a.report(err)
	}

	success(a.out, "Master password changed")
	return nil
}
