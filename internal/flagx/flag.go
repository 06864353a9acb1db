// Package flagx picks individual flags out of a command line so that
// separate loaders can each parse only the flags they own.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps only the flags named in allowedFlags, together with their
// values. Both "-c conf.json" and "-c=conf.json" forms are recognised. A
// following token that starts with "-" is never taken as a value.
//
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigPath returns the JSON config file named by -c or -config in args
// (without the program name), or "" when neither is present. When both are
// given the last one wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
