package config

import (
	"time"

	"github.com/creasty/defaults"
)

// Configuration holds the settings of the proxy. The flag tag names the
// command-line flag a field is bound to and is used in validation messages.
type Configuration struct {
	Server      Server
	Credentials Credentials
	Garmin      Garmin
	Log         Log

	Timezone   string `default:"UTC" flag:"tz" validate:"required"`
	AsgiApp    string `flag:"asgi-app"`
	NumWorkers int    `default:"4" flag:"num-workers" validate:"min=1,max=64"`
}

type Server struct {
	HTTPPort        int           `default:"8080" flag:"server-http-port" validate:"min=1,max=65535"`
	APIKey          string        `flag:"api-key"`
	TLS             bool          `flag:"server-tls"`
	ShutdownTimeout time.Duration `default:"10s" flag:"server-shutdown-timeout" validate:"min=0"`
}

// Credentials holds the default credential locations. GARMINTOKENS_PATH still
// overrides SingleFile at resolution time.
type Credentials struct {
	TokensFile string `default:"/data/garmintokens.json" flag:"tokens-file" validate:"required"`
	TokensDir  string `default:"/data/garmin_tokens" flag:"tokens-dir" validate:"required"`
}

type Garmin struct {
	URL        string        `default:"https://connectapi.garmin.com" flag:"garmin-url" validate:"required,url"`
	UserAgent  string        `flag:"garmin-user-agent"`
	Timeout    time.Duration `default:"30s" flag:"garmin-timeout" validate:"min=0"`
	RateLimit  float64       `default:"5" flag:"garmin-rate-limit" validate:"min=0"`
	RateBurst  int           `default:"5" flag:"garmin-rate-burst" validate:"min=1"`
	MaxRetries uint          `default:"2" flag:"garmin-max-retries" validate:"max=10"`
}

type Log struct {
	Level  string `default:"info" flag:"log-level" validate:"oneof=debug info warn error"`
	Format string `default:"console" flag:"log-format" validate:"oneof=console json"`
}

type ConfigurationOption func(*Configuration)

func WithServer(s Server) ConfigurationOption {
	return func(c *Configuration) {
		c.Server = s
	}
}

func WithCredentials(cr Credentials) ConfigurationOption {
	return func(c *Configuration) {
		c.Credentials = cr
	}
}

func WithGarmin(g Garmin) ConfigurationOption {
	return func(c *Configuration) {
		c.Garmin = g
	}
}

func NewConfigurationWithOptions(opts ...ConfigurationOption) *Configuration {
	c := &Configuration{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewConfigurationWithOptionsAndDefaults fills the zero fields from their
// default tag before applying opts.
func NewConfigurationWithOptionsAndDefaults(opts ...ConfigurationOption) *Configuration {
	c := &Configuration{}
	defaults.MustSet(c)
	for _, o := range opts {
		o(c)
	}
	return c
}
