package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/jacoelho/remo/bounded"
	"github.com/jacoelho/remo/internal/cloud"
	"github.com/jacoelho/remo/internal/exit"
	"github.com/jacoelho/remo/internal/formatter"
	"github.com/jacoelho/remo/internal/source"
)

const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// DefaultInterval paces repeated polls. The API allows 30 requests per
	// 5 minutes per token.
	DefaultInterval = 30 * time.Second

	// TokenEnv names the environment variable holding the access token.
	TokenEnv = "REMO_TOKEN"
)

var (
	ErrNoArguments     = errors.New("no arguments provided")
	ErrNoCommand       = errors.New("command must be devices or appliances")
	ErrTooManyInputs   = errors.New("at most one input file may be given")
	ErrRepeatStdin     = errors.New("stdin cannot be read more than once")
	ErrNegativeTimeout = errors.New("timeout must not be negative")
	ErrNoTemplate      = errors.New("--format template requires --template")
	ErrStrayTemplate   = errors.New("--template is only used with --format template")
)

// Config represents the complete configuration for the remo tool.
type Config struct {
	Document cloud.Document

	// Input is a file path, source.Stdin, or empty to poll the API.
	Input string

	// API access
	Endpoint       string
	Token          string
	RequestTimeout time.Duration
	Insecure       bool
	CACertFile     string

	// Polling
	Repeat   int // Additional polls after the first (negative = forever)
	Interval time.Duration

	// Decoding and output
	Overflow    bounded.Policy
	Format      formatter.Format
	Template    string
	Filter      string
	ChangedOnly bool
	Store       string
	Debug       bool
}

// fileConfig is the YAML form read with -config. Durations are Go duration
// strings such as "30s".
type fileConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Token       string `yaml:"token"`
	Timeout     string `yaml:"timeout"`
	Insecure    bool   `yaml:"insecure"`
	CACert      string `yaml:"cacert"`
	Repeat      *int   `yaml:"repeat"`
	Interval    string `yaml:"interval"`
	Overflow    string `yaml:"overflow"`
	Format      string `yaml:"format"`
	Template    string `yaml:"template"`
	Filter      string `yaml:"filter"`
	ChangedOnly bool   `yaml:"changed_only"`
	Store       string `yaml:"store"`
	Debug       bool   `yaml:"debug"`
}

// TLSConfig returns a TLS configuration based on the config settings.
func (c *Config) TLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: c.Insecure,
	}

	if c.CACertFile != "" {
		caCertPool, err := x509.SystemCertPool()
		if err != nil {
			caCertPool = x509.NewCertPool()
		}

		caCert, err := os.ReadFile(c.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file %s: %w", c.CACertFile, err)
		}

		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate from %s", c.CACertFile)
		}

		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}

// HTTPClient creates an HTTP client configured with the settings from this Config.
func (c *Config) HTTPClient() (*http.Client, error) {
	tlsConfig, err := c.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
	}
	return cloud.NewHTTPClient(tlsConfig, c.RequestTimeout), nil
}

// Polling reports whether listings come from the API.
func (c *Config) Polling() bool {
	return c.Input == ""
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Polling() && c.Token == "" {
		return fmt.Errorf("%w (use -token, the config file or %s)", cloud.ErrNoToken, TokenEnv)
	}

	if c.Input == source.Stdin && c.Repeat != 0 {
		return ErrRepeatStdin
	}

	if c.Input != "" && c.Input != source.Stdin {
		if _, err := os.Stat(c.Input); err != nil {
			return fmt.Errorf("input file %s not found: %w", c.Input, err)
		}
	}

	if c.RequestTimeout < 0 {
		return ErrNegativeTimeout
	}

	if c.CACertFile != "" {
		if _, err := os.Stat(c.CACertFile); err != nil {
			return fmt.Errorf("CA certificate file %s not found: %w", c.CACertFile, err)
		}
	}

	if c.Format == formatter.FormatTemplate && c.Template == "" {
		return ErrNoTemplate
	}
	if c.Format != formatter.FormatTemplate && c.Template != "" {
		return ErrStrayTemplate
	}

	return nil
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) < 2 {
		return nil, exit.Usagef("Error: %v\n\n%s", ErrNoArguments, Usage())
	}
	switch args[1] {
	case "-h", "-help", "--help", "help":
		return nil, exit.Success(Usage())
	}

	document, err := cloud.ParseDocument(args[1])
	if err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", ErrNoCommand, Usage())
	}

	fs := flag.NewFlagSet(args[0]+" "+args[1], flag.ContinueOnError)

	// Suppress the default usage output since we handle it ourselves
	fs.Usage = func() {}
	// Suppress error output since we handle it ourselves
	fs.SetOutput(io.Discard)

	var (
		configFile  = fs.String("config", "", "Path to YAML configuration file")
		endpoint    = fs.String("endpoint", cloud.DefaultEndpoint, "API endpoint")
		token       = fs.String("token", "", "API access token")
		timeout     = fs.Duration("timeout", DefaultTimeout, "API request timeout")
		insecure    = fs.Bool("insecure", false, "Skip TLS certificate verification")
		caCertFile  = fs.String("cacert", "", "Path to CA certificate file for TLS verification")
		repeat      = fs.Int("repeat", 0, "Number of additional polls after the first (negative for forever)")
		interval    = fs.Duration("interval", DefaultInterval, "Minimum time between polls")
		overflow    = fs.String("overflow", "truncate", "Strings longer than their field: truncate or reject")
		format      = fs.String("format", "text", "Output format: text, yaml, cbor or template")
		template    = fs.String("template", "", "Go template rendered once per record with --format template")
		filter      = fs.String("filter", "", "Only emit records matching this expression")
		changedOnly = fs.Bool("changed-only", false, "Emit nothing when the listing did not change since the last poll")
		store       = fs.String("store", "", "Record listings in this SQLite database")
		debug       = fs.Bool("debug", false, "Enable debug logging")
	)

	if err := fs.Parse(args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Usagef("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	if fs.NArg() > 1 {
		return nil, exit.Usagef("Error: %v\n\n%s", ErrTooManyInputs, Usage())
	}

	config := &Config{
		Document:       document,
		Input:          fs.Arg(0),
		Endpoint:       *endpoint,
		RequestTimeout: *timeout,
		Repeat:         *repeat,
		Interval:       *interval,
	}

	// File values apply first; flags given on the command line override them.
	if *configFile != "" {
		if err := loadConfigFile(*configFile, config); err != nil {
			return nil, exit.Errorf("Error: failed to load config file: %v\n", err)
		}
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "endpoint":
			config.Endpoint = *endpoint
		case "token":
			config.Token = *token
		case "timeout":
			config.RequestTimeout = *timeout
		case "insecure":
			config.Insecure = *insecure
		case "cacert":
			config.CACertFile = *caCertFile
		case "repeat":
			config.Repeat = *repeat
		case "interval":
			config.Interval = *interval
		case "overflow":
			config.Overflow, flagErr = bounded.ParsePolicy(*overflow)
		case "format":
			config.Format, flagErr = formatter.ParseFormat(*format)
		case "template":
			config.Template = *template
		case "filter":
			config.Filter = *filter
		case "changed-only":
			config.ChangedOnly = *changedOnly
		case "store":
			config.Store = *store
		case "debug":
			config.Debug = *debug
		}
	})
	if flagErr != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", flagErr, Usage())
	}

	if config.Token == "" {
		config.Token = os.Getenv(TokenEnv)
	}

	if err := config.Validate(); err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
	}

	return config, nil
}

// loadConfigFile overlays the values present in filename onto config.
func loadConfigFile(filename string, config *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var fc fileConfig
	if err := yaml.UnmarshalWithOptions(data, &fc, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	if fc.Endpoint != "" {
		config.Endpoint = fc.Endpoint
	}
	if fc.Token != "" {
		config.Token = fc.Token
	}
	if fc.Timeout != "" {
		if config.RequestTimeout, err = time.ParseDuration(fc.Timeout); err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
	}
	if fc.Interval != "" {
		if config.Interval, err = time.ParseDuration(fc.Interval); err != nil {
			return fmt.Errorf("interval: %w", err)
		}
	}
	if fc.Repeat != nil {
		config.Repeat = *fc.Repeat
	}
	if fc.Overflow != "" {
		if config.Overflow, err = bounded.ParsePolicy(fc.Overflow); err != nil {
			return err
		}
	}
	if fc.Format != "" {
		if config.Format, err = formatter.ParseFormat(fc.Format); err != nil {
			return err
		}
	}
	config.Insecure = config.Insecure || fc.Insecure
	config.ChangedOnly = config.ChangedOnly || fc.ChangedOnly
	config.Debug = config.Debug || fc.Debug
	if fc.CACert != "" {
		config.CACertFile = fc.CACert
	}
	if fc.Template != "" {
		config.Template = fc.Template
	}
	if fc.Filter != "" {
		config.Filter = fc.Filter
	}
	if fc.Store != "" {
		config.Store = fc.Store
	}

	return nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `remo - Nature Remo listing decoder

Usage: remo devices|appliances [options] [file|-]

Reads the listing from file, from stdin when file is "-", or from the
Nature Remo cloud API when no file is given. Files ending in .gz, .zst or
.lz4 are decompressed.

Options:
  --config FILE           Path to YAML configuration file
  --endpoint URL          API endpoint (default: https://api.nature.global)
  --token TOKEN           API access token (default: $REMO_TOKEN)
  --timeout DURATION      API request timeout (default: 30s)
  --insecure              Skip TLS certificate verification
  --cacert FILE           Path to CA certificate file for TLS verification
  --repeat N              Number of additional polls after the first (negative for forever)
  --interval DURATION     Minimum time between polls (default: 30s)
  --overflow POLICY       Strings longer than their field: truncate or reject (default: truncate)
  --format FORMAT         Output format: text, yaml, cbor or template (default: text)
  --template TEXT         Go template rendered once per record with --format template
  --filter EXPR           Only emit records matching this expression
  --changed-only          Emit nothing when the listing did not change since the last poll
  --store FILE            Record listings in this SQLite database
  --debug                 Enable debug logging
  -h, --help              Show this help message

Examples:
  remo devices                                     # Poll the API once
  remo devices --repeat -1 --interval 1m --store remo.sqlite
  remo appliances --format yaml appliances.json.gz
  remo devices --format template --template '{{.kind}} {{default "-" .name}}' devices.json
  remo appliances --filter 'kind == "echonetlite_property" && epc == 231' -
  curl -s -H "Authorization: Bearer $REMO_TOKEN" https://api.nature.global/1/devices | remo devices -`
}
