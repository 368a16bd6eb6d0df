// Package flagx contains small helpers for sharing os.Args between several
// independent flag sets: the JSON config loader, the config flag parser and
// the command dispatcher each look only at the tokens they own.
package flagx

import (
	"flag"
	"strings"
)

// ConfigFileFlags are the flags that select a JSON config file.
var ConfigFileFlags = []string{"-c", "-config"}

// FilterArgs returns the allowed flags (and their values) from args, in the
// order they appear.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      -config=conf.json
//
// A token that starts with '-' is never consumed as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			break
		}

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
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

// Positional returns the tokens of args that are neither flags nor values of
// flags listed in valuedFlags. Everything after a "--" terminator is
// positional.
//
//	Positional([]string{"-w", "4", "send", "a.bin"}, []string{"-w"}) // ["send", "a.bin"]
func Positional(args []string, valuedFlags []string) []string {
	valued := make(map[string]struct{}, len(valuedFlags))
	for _, f := range valuedFlags {
		valued[f] = struct{}{}
	}

	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			return append(out, args[i+1:]...)
		}

		if !strings.HasPrefix(arg, "-") || arg == "-" {
			out = append(out, arg)
			continue
		}

		if strings.Contains(arg, "=") {
			continue
		}

		if _, ok := valued[arg]; ok && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}

	return out
}

// JSONConfigPath extracts the config file path given via -c or -config.
// Other arguments are ignored so the caller's own flag set is not disturbed.
// If neither flag is present, an empty string is returned.
func JSONConfigPath(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, ConfigFileFlags))

	return config
}
