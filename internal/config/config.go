// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types, applies defaults and
// validates that required values are present so they can be reused across
// the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Accept the variable names the backend function already uses
//     (ADMIN_ACCESS_KEY, USERS_TABLE_NAME, ...).
//   - Validate required values so the app fails fast on bad/missing config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/fleet-gateway/internal/errs"
	"github.com/deppfellow/fleet-gateway/internal/validation"
	// Side-effect import: if a `.env` file exists it is loaded into the
	// process env before anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read with the prefix GOMGMT_. The prefix is removed, the
	rest lower-cased, and a double underscore marks nesting:

	  GOMGMT_SERVER__PORT           -> server.port
	  GOMGMT_BACKEND__FUNCTION_NAME -> backend.function_name

	A handful of unprefixed names are accepted as aliases, see legacyKeys.
	Sources load in this order, later ones overriding earlier ones:

	  ADMIN_SECRET_KEY < other legacy names (ADMIN_ACCESS_KEY, ...) < GOMGMT_*
*/

// EnvPrefix is the prefix of every configuration variable.
const EnvPrefix = "GOMGMT_"

// legacyAliases are older names of legacyKeys entries. They load first so
// the current name wins when both are set.
var legacyAliases = map[string]string{
	"ADMIN_SECRET_KEY": "handler.admin_access_key",
}

// legacyKeys maps the environment the backend function is deployed with to
// koanf keys. Prefixed variables win over these.
var legacyKeys = map[string]string{
	"ADMIN_ACCESS_KEY":       "handler.admin_access_key",
	"USERS_TABLE_NAME":       "handler.users_table",
	"TRUCK_TABLE_NAME":       "handler.truck_table",
	"RESERVATION_TABLE_NAME": "handler.reservation_table",
	"AWS_REGION":             "aws.region",
}

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Handler       HandlerConfig        `koanf:"handler" validate:"required"`
	Backend       BackendConfig        `koanf:"backend" validate:"required"`
	AWS           AWSConfig            `koanf:"aws"`
	Routes        RoutesConfig         `koanf:"routes"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	BodyLimit          string   `koanf:"body_limit" validate:"required"`
}

// HandlerConfig is the process-wide configuration handed to the backend
// handler on every invocation: the admin secret and the three table
// identifiers. It is built once at startup and never mutated.
type HandlerConfig struct {
	AdminAccessKey   string `koanf:"admin_access_key" validate:"required"`
	UsersTable       string `koanf:"users_table" validate:"required"`
	TruckTable       string `koanf:"truck_table" validate:"required"`
	ReservationTable string `koanf:"reservation_table" validate:"required"`
}

// Tables lists the table identifiers in a stable order.
func (h *HandlerConfig) Tables() []string {
	return []string{h.UsersTable, h.TruckTable, h.ReservationTable}
}

const (
	BackendLambda = "lambda"
	BackendHTTP   = "http"
)

// BackendConfig selects how the backend handler is reached.
//
//   - lambda: synchronous invoke of FunctionName through the AWS SDK
//   - http: forward to URL (a locally served backend)
type BackendConfig struct {
	Mode         string        `koanf:"mode" validate:"required,oneof=lambda http"`
	FunctionName string        `koanf:"function_name" validate:"required_if=Mode lambda"`
	URL          string        `koanf:"url" validate:"required_if=Mode http,omitempty,url"`
	Timeout      time.Duration `koanf:"timeout" validate:"min=1s"`
}

// AWSConfig holds SDK settings. Endpoint overrides the service endpoint for
// local emulators (DynamoDB Local, LocalStack).
type AWSConfig struct {
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
}

// RoutesConfig points at an alternative route catalog file. Empty means the
// catalog embedded in the binary.
type RoutesConfig struct {
	CatalogPath string `koanf:"catalog_path"`
}

// Original table names of the fleet management stack.
const (
	DefaultUsersTable       = "UserManagementTable"
	DefaultTruckTable       = "TruckManagementTable"
	DefaultReservationTable = "ReservationManagementTable"
)

// Load loads configuration from environment variables, unmarshals it into
// Config, applies defaults, validates it, and returns the resulting config.
//
// Every failure is returned to the caller; a missing admin secret surfaces
// here as a *ValidationError.
func Load() (*Config, error) {
	k := koanf.New(".")

	for _, keys := range []map[string]string{legacyAliases, legacyKeys} {
		err := k.Load(env.Provider("", ".", func(s string) string {
			return keys[s]
		}), nil)
		if err != nil {
			return nil, fmt.Errorf("could not load legacy env variables: %w", err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	// Observability is pre-filled so unset toggles keep their defaults.
	mainConfig := &Config{Observability: DefaultObservabilityConfig()}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	mainConfig.applyDefaults()

	if err := validation.NewStructValidator().Struct(mainConfig); err != nil {
		return nil, describe(err)
	}

	mainConfig.Observability.ServiceName = "fleet-gateway"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}
	if c.Server.BodyLimit == "" {
		c.Server.BodyLimit = "1M"
	}

	if c.Handler.UsersTable == "" {
		c.Handler.UsersTable = DefaultUsersTable
	}
	if c.Handler.TruckTable == "" {
		c.Handler.TruckTable = DefaultTruckTable
	}
	if c.Handler.ReservationTable == "" {
		c.Handler.ReservationTable = DefaultReservationTable
	}

	if c.Backend.Mode == "" {
		c.Backend.Mode = BackendLambda
	}
	// API Gateway's own integration limit.
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 29 * time.Second
	}

	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}
	c.Observability.fillDefaults()
}

// describe turns validator errors into one readable error listing each field.
func describe(err error) error {
	fieldErrors := validation.StructErrors(err)

	parts := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		parts = append(parts, fe.Field+" "+fe.Message)
	}

	return &ValidationError{
		Fields: fieldErrors,
		err:    errors.New("config validation failed: " + strings.Join(parts, "; ")),
	}
}

// ValidationError is returned by Load when required settings are missing or
// malformed.
type ValidationError struct {
	Fields []errs.FieldError
	err    error
}

func (e *ValidationError) Error() string {
	return e.err.Error()
}

// HasField reports whether field (e.g. "handler.admin_access_key") failed.
func (e *ValidationError) HasField(field string) bool {
	for _, fe := range e.Fields {
		if fe.Field == field {
			return true
		}
	}
	return false
}
