// Package flagx lets several configuration layers read their own flags from
// the same command line without tripping over each other's definitions.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns only the allowed flags (and their values) from args.
//
// Both "-c conf.json" and "--config=conf.json" forms are recognised. A value
// is taken from the following argument only when it does not start with "-".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

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

// ConfigFiles names the optional files that overlay the built-in defaults.
type ConfigFiles struct {
	// JSON is set by -c / -config.
	JSON string
	// Env is set by -env; empty means ".env" in the working directory.
	Env string
}

// ConfigFileFlags extracts the config file locations from args (usually
// os.Args[1:]). Unrelated flags are ignored.
func ConfigFileFlags(args []string) ConfigFiles {
	var files ConfigFiles

	filtered := FilterArgs(args, []string{"-c", "-config", "-env"})

	fs := flag.NewFlagSet("config-files", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&files.JSON, "config", "", "path to JSON config file")
	fs.StringVar(&files.JSON, "c", "", "path to JSON config file (short)")
	fs.StringVar(&files.Env, "env", "", "path to .env file")
	_ = fs.Parse(filtered)

	return files
}
