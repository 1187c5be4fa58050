package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort           = 8080
	DefaultHost           = "0.0.0.0"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 50 * 1024 * 1024 // 50MB
	DefaultTableSeparator = "    "
	DefaultRateBurst      = 10

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment variable read by Load
	EnvPrefix = "DOCINDEX"
)

// ErrVersionRequested is returned by Load when --version is passed
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the document index service
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// DocumentDirectory bounds the files the MCP tools may open
	DocumentDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum upload size in bytes

	// Processing configuration
	TableSeparator  string
	StrictPageRange bool
	ComposeUnicode  bool // match terms in Unicode NFC form

	// HTTP configuration
	RateLimit      float64 // requests per second, 0 disables limiting
	RateBurst      int
	AllowedOrigins []string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:              ModeServer,
		Host:              DefaultHost,
		Port:              DefaultPort,
		DocumentDirectory: currentDir,
		Version:           "1.0.0",
		ServerName:        "docindex",
		LogLevel:          DefaultLogLevel,
		MaxFileSize:       DefaultMaxFileSize,
		TableSeparator:    DefaultTableSeparator,
		RateBurst:         DefaultRateBurst,
		AllowedOrigins:    []string{"*"},
	}
}

// LoadFromFlags parses the process arguments and environment
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[0], os.Args[1:], os.Stderr)
}

// Load parses args and the DOCINDEX_* environment into a validated
// configuration. Flags take precedence over the environment. The listen port
// may also be given as a bare PORT variable, as container platforms do.
func Load(program string, args []string, usage io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return nil, ErrVersionRequested
		}
	}

	v := viper.New()
	setupViperEnvironment(v, cfg)

	flags := pflag.NewFlagSet(program, pflag.ContinueOnError)
	flags.SetOutput(usage)
	defineCommandLineFlags(flags, cfg)
	flags.Usage = usageFunc(flags, program, usage)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	populateConfigFromViper(v, cfg)

	if cfg.DocumentDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DocumentDirectory); err == nil {
			cfg.DocumentDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT")

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.DocumentDirectory)
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("max-file-size", cfg.MaxFileSize)
	v.SetDefault("table-separator", cfg.TableSeparator)
	v.SetDefault("strict-page-range", cfg.StrictPageRange)
	v.SetDefault("compose-unicode", cfg.ComposeUnicode)
	v.SetDefault("rate-limit", cfg.RateLimit)
	v.SetDefault("rate-burst", cfg.RateBurst)
	v.SetDefault("allowed-origins", cfg.AllowedOrigins)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("mode", cfg.Mode, "Run mode: 'server' for the HTTP API, 'stdio' for MCP standard I/O")
	flags.String("host", cfg.Host, "Server host address (server mode only)")
	flags.Int("port", cfg.Port, "Server port (server mode only)")
	flags.String("dir", cfg.DocumentDirectory, "Directory of PDF files the MCP tools may read (stdio mode only)")
	flags.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("max-file-size", cfg.MaxFileSize, "Maximum upload size in bytes")
	flags.String("table-separator", cfg.TableSeparator, "Separator between the fields of consolidated table lines")
	flags.Bool("strict-page-range", cfg.StrictPageRange, "Reject page ranges that do not fit the PDF instead of searching all pages")
	flags.Bool("compose-unicode", cfg.ComposeUnicode, "Compare PDF text and terms in Unicode NFC form")
	flags.Float64("rate-limit", cfg.RateLimit, "Requests per second accepted by the HTTP API (0 disables limiting)")
	flags.Int("rate-burst", cfg.RateBurst, "Burst size of the HTTP rate limiter")
	flags.StringSlice("allowed-origins", cfg.AllowedOrigins, "Origins allowed by CORS ('*' allows any)")
}

// usageFunc builds the custom usage message
func usageFunc(flags *pflag.FlagSet, program string, w io.Writer) func() {
	return func() {
		fmt.Fprintf(w, "Usage of %s:\n", program)
		fmt.Fprintf(w, "\ndocindex - builds book indexes from Word and PDF documents\n\n")
		fmt.Fprintf(w, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  %s                                  # HTTP API on 0.0.0.0:8080 (default)\n", program)
		fmt.Fprintf(w, "  %s --port=9090 --rate-limit=5       # HTTP API with rate limiting\n", program)
		fmt.Fprintf(w, "  %s --mode=stdio --dir=/path/to/pdfs # MCP server over standard I/O\n", program)
		fmt.Fprintf(w, "\nEnvironment Variables:\n")
		fmt.Fprintf(w, "  DOCINDEX_MODE              Run mode\n")
		fmt.Fprintf(w, "  DOCINDEX_HOST              Server host\n")
		fmt.Fprintf(w, "  DOCINDEX_PORT, PORT        Server port\n")
		fmt.Fprintf(w, "  DOCINDEX_DIR               Document directory\n")
		fmt.Fprintf(w, "  DOCINDEX_LOG_LEVEL         Log level\n")
		fmt.Fprintf(w, "  DOCINDEX_MAX_FILE_SIZE     Maximum upload size\n")
		fmt.Fprintf(w, "  DOCINDEX_TABLE_SEPARATOR   Consolidated line separator\n")
		fmt.Fprintf(w, "  DOCINDEX_STRICT_PAGE_RANGE Reject invalid page ranges\n")
		fmt.Fprintf(w, "  DOCINDEX_COMPOSE_UNICODE   Match in Unicode NFC form\n")
		fmt.Fprintf(w, "  DOCINDEX_RATE_LIMIT        Requests per second\n")
		fmt.Fprintf(w, "  DOCINDEX_RATE_BURST        Rate limiter burst\n")
		fmt.Fprintf(w, "  DOCINDEX_ALLOWED_ORIGINS   CORS origins, comma separated\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.DocumentDirectory = v.GetString("dir")
	cfg.LogLevel = strings.ToLower(v.GetString("log-level"))
	cfg.MaxFileSize = v.GetInt64("max-file-size")
	cfg.TableSeparator = v.GetString("table-separator")
	cfg.StrictPageRange = v.GetBool("strict-page-range")
	cfg.ComposeUnicode = v.GetBool("compose-unicode")
	cfg.RateLimit = v.GetFloat64("rate-limit")
	cfg.RateBurst = v.GetInt("rate-burst")
	cfg.AllowedOrigins = splitOrigins(v.GetStringSlice("allowed-origins"))
}

// splitOrigins accepts both repeated values and comma separated lists
func splitOrigins(values []string) []string {
	var origins []string
	for _, value := range values {
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	return origins
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.DocumentDirectory == "" {
		return errors.New("document directory cannot be empty")
	}

	// The MCP tools read from the directory, so only stdio mode creates it
	if c.Mode == ModeStdio {
		if _, err := os.Stat(c.DocumentDirectory); os.IsNotExist(err) {
			if err := os.MkdirAll(c.DocumentDirectory, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create document directory %s: %w", c.DocumentDirectory, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access document directory %s: %w", c.DocumentDirectory, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.TableSeparator == "" {
		return errors.New("table separator cannot be empty")
	}

	if c.RateLimit < 0 {
		return errors.New("rate limit cannot be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return errors.New("rate burst must be at least 1 when rate limiting is enabled")
	}

	if len(c.AllowedOrigins) == 0 {
		return errors.New("at least one allowed origin is required")
	}

	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured log level
func (c *Config) SlogLevel() slog.Level {
	return logLevels[c.LogLevel]
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, DocumentDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"StrictPageRange: %t, RateLimit: %g}",
		c.Mode, c.Host, c.Port, c.DocumentDirectory, c.LogLevel, c.MaxFileSize, c.StrictPageRange, c.RateLimit)
}

// IsServerMode returns true if the HTTP API should be served
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the MCP server should run over standard I/O
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
