package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/classroom/internal/flagx"
)

var serverFlags = []string{"-a", "-h", "-d", "-s", "-t", "-x", "-n", "-r", "-o", "-p", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-h string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-s string   session JWT HMAC secret key
//	-t int      session token validity, minutes
//	-x int      default access token validity, days
//	-n int      access token secret size, random bytes
//	-r int      secret collision retry budget
//	-o string   comma separated CORS origins
//	-p int      expired token prune interval, minutes (0 disables)
//	-l string   log level
//
// Only the flags listed above are taken from args, so the -c/-env flags
// consumed by other layers don't cause parse errors.
func parseFlags(config *Config, args []string) {
	filtered := flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "h", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session secret key")

	sessionMinutes := fs.Int("t", int(config.SessionTokenValidityDuration.Minutes()), "session token validity (in minutes)")
	accessDays := fs.Int("x", int(config.AccessTokenValidityDuration.Hours()/24), "access token validity (in days)")

	fs.IntVar(&config.AccessTokenSecretSize, "n", config.AccessTokenSecretSize, "access token secret size (bytes)")
	fs.IntVar(&config.AccessTokenRetryBudget, "r", config.AccessTokenRetryBudget, "secret collision retry budget")

	origins := fs.String("o", "", "CORS allowed origins (comma separated)")
	pruneMinutes := fs.Int("p", int(config.PruneInterval.Minutes()), "prune interval (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(filtered); err != nil {
		panic(err)
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["t"] {
		config.SessionTokenValidityDuration = time.Duration(*sessionMinutes) * time.Minute
	}
	if set["x"] {
		config.AccessTokenValidityDuration = time.Duration(*accessDays) * 24 * time.Hour
	}
	if set["p"] {
		config.PruneInterval = time.Duration(*pruneMinutes) * time.Minute
	}
	if set["o"] {
		config.CORSAllowedOrigins = splitList(*origins)
	}
}
