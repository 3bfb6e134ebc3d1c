package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/VentixeAssignment/authservice/internal/flagx"
	"github.com/VentixeAssignment/authservice/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Absent keys leave the
// current value untouched, so every field is a pointer or a nil-able slice.
type JsonConfig struct {
	GRPCAddress    *string         `json:"grpc_address"`
	HTTPAddress    *string         `json:"http_address"`
	DatabaseDSN    *string         `json:"database_dsn"`
	JWTKey         *string         `json:"jwt_key"`
	Issuer         *string         `json:"jwt_issuer"`
	Audiences      []string        `json:"jwt_audiences"`
	Hasher         *string         `json:"password_hasher"`
	BcryptCost     *int            `json:"bcrypt_cost"`
	CodeLifetime   *timex.Duration `json:"code_lifetime"`
	SMTPHost       *string         `json:"smtp_host"`
	SMTPPort       *int            `json:"smtp_port"`
	SMTPUsername   *string         `json:"smtp_username"`
	SMTPPassword   *string         `json:"smtp_password"`
	MailFrom       *string         `json:"mail_from"`
	MailOutbox     *string         `json:"mail_outbox"`
	LogBackend     *string         `json:"log_backend"`
	LogLevel       *string         `json:"log_level"`
	OTLPEndpoint   *string         `json:"otlp_endpoint"`
	ExposeErrors   *bool           `json:"expose_errors"`
	RequireToken   *bool           `json:"require_token"`
	AllowedOrigins []string        `json:"allowed_origins"`
}

// parseJson loads the file named by -c or -config in args, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	set(&config.GRPCAddress, c.GRPCAddress)
	set(&config.HTTPAddress, c.HTTPAddress)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.JWTKey, c.JWTKey)
	set(&config.Issuer, c.Issuer)
	set(&config.Hasher, c.Hasher)
	set(&config.BcryptCost, c.BcryptCost)
	set(&config.SMTPHost, c.SMTPHost)
	set(&config.SMTPPort, c.SMTPPort)
	set(&config.SMTPUsername, c.SMTPUsername)
	set(&config.SMTPPassword, c.SMTPPassword)
	set(&config.MailFrom, c.MailFrom)
	set(&config.MailOutbox, c.MailOutbox)
	set(&config.LogBackend, c.LogBackend)
	set(&config.LogLevel, c.LogLevel)
	set(&config.OTLPEndpoint, c.OTLPEndpoint)
	set(&config.ExposeErrors, c.ExposeErrors)
	set(&config.RequireToken, c.RequireToken)

	if c.CodeLifetime != nil {
		config.CodeLifetime = c.CodeLifetime.Duration
	}
	if c.Audiences != nil {
		config.Audiences = c.Audiences
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
