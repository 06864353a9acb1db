package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func failure(w io.Writer, err error) {
	fmt.Fprintln(w, color.RedString("✗")+" "+err.Error())
}

func hint(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.CyanString("→")+" "+fmt.Sprintf(format, args...))
}

// withSpinner shows message with a spinner on w while fn runs. The spinner
// only animates when stdout is a terminal.
func withSpinner(w io.Writer, message string, fn func() error) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	_ = s.Color("cyan")

	s.Start()
	defer s.Stop()

	return fn()
}
