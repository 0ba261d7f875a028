// ABOUTME: Configuration loading and parsing for modx-proxy
// ABOUTME: Supports YAML files with environment variable expansion and MODX_* overrides

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConnectorPath is the stock MODX connector location.
const DefaultConnectorPath = "/connectors/"

// DefaultAdminPath is the stock MODX manager location.
const DefaultAdminPath = "/manager/"

// DefaultMCPConnectorPath is where the modx-mcp extra installs its
// discovery connector.
const DefaultMCPConnectorPath = "/assets/components/modxmcp/connector.php"

// Config represents the complete modx-proxy configuration
type Config struct {
	MODX    MODXConfig    `yaml:"modx"`
	Logging LoggingConfig `yaml:"logging"`
	Audit   AuditConfig   `yaml:"audit"`
}

// MODXConfig holds the remote MODX installation settings
type MODXConfig struct {
	BaseURL          string `yaml:"base_url"`
	ConnectorPath    string `yaml:"connector_path"`
	AdminPath        string `yaml:"admin_path"`
	MCPConnectorPath string `yaml:"mcp_connector_path"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuditConfig holds tool-call audit log configuration
type AuditConfig struct {
	// Path to the SQLite database file. Empty disables auditing.
	Path string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded, MODX_* variables
// override their file counterparts, and paths are normalized. A missing file is
// not an error: the proxy can be configured entirely from the environment.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
		// env-only configuration
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.normalize()

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnvOverrides lets MODX_* environment variables take precedence over the
// file. This matches how the proxy is typically wired into an MCP host, where
// per-server env blocks are the only configuration surface.
func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"MODX_BASE_URL", &c.MODX.BaseURL},
		{"MODX_CONNECTOR_PATH", &c.MODX.ConnectorPath},
		{"MODX_ADMIN_PATH", &c.MODX.AdminPath},
		{"MODX_MCP_CONNECTOR_PATH", &c.MODX.MCPConnectorPath},
		{"MODX_USERNAME", &c.MODX.Username},
		{"MODX_PASSWORD", &c.MODX.Password},
		{"MODX_TIMEOUT", &c.MODX.TimeoutRaw},
		{"MODX_AUDIT_DB", &c.Audit.Path},
		{"MODX_LOG_LEVEL", &c.Logging.Level},
	}

	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// applyDefaults fills in stock MODX paths where the config is silent.
func (c *Config) applyDefaults() {
	if c.MODX.ConnectorPath == "" {
		c.MODX.ConnectorPath = DefaultConnectorPath
	}
	if c.MODX.AdminPath == "" {
		c.MODX.AdminPath = DefaultAdminPath
	}
	if c.MODX.MCPConnectorPath == "" {
		c.MODX.MCPConnectorPath = DefaultMCPConnectorPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.MODX.BaseURL == "" {
		return fmt.Errorf("modx.base_url is required (or set MODX_BASE_URL)")
	}
	if !strings.HasPrefix(c.MODX.BaseURL, "http://") && !strings.HasPrefix(c.MODX.BaseURL, "https://") {
		return fmt.Errorf("modx.base_url must be an http(s) URL, got %q", c.MODX.BaseURL)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func (c *Config) parseDurations() error {
	c.MODX.Timeout = 30 * time.Second

	if c.MODX.TimeoutRaw != "" {
		d, err := time.ParseDuration(c.MODX.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing modx.timeout %q: %w", c.MODX.TimeoutRaw, err)
		}
		c.MODX.Timeout = d
	}

	return nil
}

// normalize applies the path shape invariants: the base URL never ends with a
// slash (it is concatenated with paths), and server-relative paths always
// begin and end with one.
func (c *Config) normalize() {
	c.MODX.BaseURL = strings.TrimRight(c.MODX.BaseURL, "/")
	c.MODX.ConnectorPath = NormalizePath(c.MODX.ConnectorPath)
	c.MODX.AdminPath = NormalizePath(c.MODX.AdminPath)
	// The MCP connector path points at a file, so it only needs the leading slash.
	if !strings.HasPrefix(c.MODX.MCPConnectorPath, "/") {
		c.MODX.MCPConnectorPath = "/" + c.MODX.MCPConnectorPath
	}
}

// NormalizePath ensures a server-relative path starts and ends with "/".
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p = p + "/"
	}
	return p
}
