package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/VentixeAssignment/authservice/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-w string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-k string   JWT signing key
//	-l string   log level
//	-dev        append internal error detail to failure messages
//
// Args are filtered with flagx.FilterArgs first so that -c and unknown flags
// do not fail the parse.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-w", "-d", "-k", "-l", "-dev"})

	fs := flag.NewFlagSet("authservice", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.GRPCAddress, "a", config.GRPCAddress, "gRPC address and port")
	fs.StringVar(&config.HTTPAddress, "w", config.HTTPAddress, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.JWTKey, "k", config.JWTKey, "JWT signing key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.ExposeErrors, "dev", config.ExposeErrors, "expose internal error detail")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
