package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// ErrEmptyInput is returned when a required value was left blank.
var ErrEmptyInput = errors.New("input must not be empty")

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	return readLine(reader)
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints prompt to w and reads a value from the terminal
// without echo. A newline is printed after the read to keep the UI tidy.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetPassword(prompt string, w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, ErrEmptyInput
	}
	return pw, nil
}
