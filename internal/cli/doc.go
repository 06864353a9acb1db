// Package cli is the interactive front end of cryptify.
//
// A single read–eval–print loop reads commands from the input, prompts for
// their arguments and calls into a vault.Session. Passwords and secret
// values are read without echo; everything else is read as a line.
//
// When an idle timeout is configured, a background watcher logs the session
// out after that long without a command.
package cli
