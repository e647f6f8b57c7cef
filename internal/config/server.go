package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Server stores all configuration for the HTTP server.
type Server struct {
	Port           int           `mapstructure:"TEDS_PORT"`
	ReadTimeout    time.Duration `mapstructure:"TEDS_READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"TEDS_WRITE_TIMEOUT"`
	MaxRequestSize int           `mapstructure:"TEDS_MAX_REQUEST_SIZE"`
	Concurrency    int           `mapstructure:"TEDS_CONCURRENCY"`
	MaxNodes       int           `mapstructure:"TEDS_MAX_NODES"`
	Algorithm      string        `mapstructure:"TEDS_ALGORITHM"`
	WarmUp         bool          `mapstructure:"TEDS_WARM_UP"`
	LogFile        string        `mapstructure:"TEDS_LOG_FILE"`
	MetricConfig   string        `mapstructure:"TEDS_METRIC_CONFIG"`
}

// DefaultServerMaxNodes bounds the trees the server scores unless
// TEDS_MAX_NODES says otherwise. Tree edit distance memory grows with the
// product of both tree sizes.
const DefaultServerMaxNodes = 2000

var serverKeys = []string{
	"TEDS_PORT", "TEDS_READ_TIMEOUT", "TEDS_WRITE_TIMEOUT", "TEDS_MAX_REQUEST_SIZE",
	"TEDS_CONCURRENCY", "TEDS_MAX_NODES", "TEDS_ALGORITHM", "TEDS_WARM_UP",
	"TEDS_LOG_FILE", "TEDS_METRIC_CONFIG",
}

// LoadServer reads server configuration from envFile (if present) and
// environment variables. Environment variables win over the file.
func LoadServer(envFile string) (*Server, error) {
	v := viper.New()
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		// A missing file is fine; production configures through the environment.
		_ = v.ReadInConfig()
	}
	v.AutomaticEnv()
	// AutomaticEnv only consults keys viper already knows about.
	for _, key := range serverKeys {
		_ = v.BindEnv(key)
	}

	v.SetDefault("TEDS_PORT", 8080)
	v.SetDefault("TEDS_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("TEDS_WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("TEDS_MAX_REQUEST_SIZE", 10*1024*1024)
	v.SetDefault("TEDS_CONCURRENCY", 256*1024)
	v.SetDefault("TEDS_MAX_NODES", DefaultServerMaxNodes)
	v.SetDefault("TEDS_ALGORITHM", "dp")
	v.SetDefault("TEDS_WARM_UP", true)
	v.SetDefault("TEDS_LOG_FILE", "")
	v.SetDefault("TEDS_METRIC_CONFIG", "")

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding server config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the server configuration.
func (s *Server) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	if s.MaxNodes < 0 {
		return ErrInvalidMaxNodes
	}
	if s.MaxRequestSize <= 0 {
		return fmt.Errorf("invalid max request size %d", s.MaxRequestSize)
	}
	return nil
}
