package config

import (
	"flag"
	"os"
)

// parseFlags overlays selected Config fields from command-line flags.
// Flags win over environment values because they are applied last.
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)

	fs.StringVar(&config.Address, "a", config.Address, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")
	sessionTTL := fs.Duration("t", config.SessionTokenTTL, "session token validity duration")

	_ = fs.Parse(os.Args[1:])

	config.SessionTokenTTL = *sessionTTL
}
