package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/cmsctl"
	ConfigFileName    = "cmsctl.yml"
	DefaultEnvFile    = ".env"
)

// Attribute sources
const (
	SourceDefault     = "default"
	SourceFile        = "file"
	SourceEnvFile     = "env_file"
	SourceEnvironment = "environment"
)

// ValidDBClients lists the database clients Directus supports here.
var ValidDBClients = []string{"pg", "postgres", "mysql", "sqlite3"}

// ValidLogLevels lists the accepted CMSCTL_LOG_LEVEL values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Config holds all cmsctl settings.
type Config struct {
	Port      int    `yaml:"port" envconfig:"PORT"`
	Host      string `yaml:"host" envconfig:"HOST"`
	PublicURL string `yaml:"public_url" envconfig:"PUBLIC_URL"`

	DBClient   string `yaml:"db_client" envconfig:"DB_CLIENT"`
	DBHost     string `yaml:"db_host" envconfig:"DB_HOST"`
	DBPort     int    `yaml:"db_port" envconfig:"DB_PORT"`
	DBDatabase string `yaml:"db_database" envconfig:"DB_DATABASE"`
	DBUser     string `yaml:"db_user" envconfig:"DB_USER"`
	DBPassword string `yaml:"db_password" envconfig:"DB_PASSWORD"`

	Key    string `yaml:"key" envconfig:"KEY"`
	Secret string `yaml:"secret" envconfig:"SECRET"`

	AdminEmail    string `yaml:"admin_email" envconfig:"ADMIN_EMAIL"`
	AdminPassword string `yaml:"admin_password" envconfig:"ADMIN_PASSWORD"`
	AdminToken    string `yaml:"admin_token" envconfig:"ADMIN_TOKEN"`

	NodeEnv     string `yaml:"node_env" envconfig:"NODE_ENV"`
	NodeBinary  string `yaml:"node_binary" envconfig:"NODE_BINARY"`
	DirectusCLI string `yaml:"directus_cli" envconfig:"DIRECTUS_CLI"`

	RequestTimeout     time.Duration `yaml:"request_timeout" envconfig:"CMSCTL_REQUEST_TIMEOUT"`
	JournalDatabaseURL string        `yaml:"journal_database_url" envconfig:"JOURNAL_DATABASE_URL"`
	LogLevel           string        `yaml:"log_level" envconfig:"CMSCTL_LOG_LEVEL"`

	// sources tracks where each value came from
	sources map[string]string

	configFilePath string
	envFilePath    string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Env    string `json:"env"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

type attributeDef struct {
	name   string
	env    string
	secret bool
}

// attributeDefs is the display order of configuration attributes.
var attributeDefs = []attributeDef{
	{name: "port", env: "PORT"},
	{name: "host", env: "HOST"},
	{name: "public_url", env: "PUBLIC_URL"},
	{name: "db_client", env: "DB_CLIENT"},
	{name: "db_host", env: "DB_HOST"},
	{name: "db_port", env: "DB_PORT"},
	{name: "db_database", env: "DB_DATABASE"},
	{name: "db_user", env: "DB_USER"},
	{name: "db_password", env: "DB_PASSWORD", secret: true},
	{name: "key", env: "KEY", secret: true},
	{name: "secret", env: "SECRET", secret: true},
	{name: "admin_email", env: "ADMIN_EMAIL"},
	{name: "admin_password", env: "ADMIN_PASSWORD", secret: true},
	{name: "admin_token", env: "ADMIN_TOKEN", secret: true},
	{name: "node_env", env: "NODE_ENV"},
	{name: "node_binary", env: "NODE_BINARY"},
	{name: "directus_cli", env: "DIRECTUS_CLI"},
	{name: "request_timeout", env: "CMSCTL_REQUEST_TIMEOUT"},
	{name: "journal_database_url", env: "JOURNAL_DATABASE_URL", secret: true},
	{name: "log_level", env: "CMSCTL_LOG_LEVEL"},
}

// Global singleton config
var (
	globalConfig *Config
	loadErr      error // Why the last load fell back to defaults
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
			loadErr = err
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Current is Get for callers that must not run on defaults: it returns the
// error that made the last load fail.
func Current() (*Config, error) {
	cfg := Get()
	configMu.RLock()
	defer configMu.RUnlock()
	if loadErr != nil {
		return nil, loadErr
	}
	return cfg, nil
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()

	configMu.Lock()
	defer configMu.Unlock()
	loadErr = err
	if err != nil {
		if globalConfig == nil {
			globalConfig = newDefault()
		}
		return err
	}
	globalConfig = cfg
	return nil
}

func newDefault() *Config {
	c := &Config{
		Port:           8055,
		Host:           "0.0.0.0",
		DBClient:       "pg",
		NodeEnv:        "production",
		NodeBinary:     "node",
		DirectusCLI:    filepath.Join("node_modules", "directus", "cli.js"),
		RequestTimeout: 30 * time.Second,
		LogLevel:       "info",
		sources:        make(map[string]string),
	}
	for _, def := range attributeDefs {
		c.sources[def.name] = SourceDefault
	}
	return c
}

// Load loads configuration from the config file, the .env file and
// environment variables. Environment variables take precedence.
func Load() (*Config, error) {
	config := newDefault()

	configPath := os.Getenv("CMSCTL_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		if err := config.applyFileConfig(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
	}

	config.envFilePath = os.Getenv("CMSCTL_ENV_FILE")
	if config.envFilePath == "" {
		config.envFilePath = DefaultEnvFile
	}
	fromEnvFile, err := loadEnvFile(config.envFilePath)
	if err != nil {
		return nil, err
	}

	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	for _, def := range attributeDefs {
		if _, ok := os.LookupEnv(def.env); !ok {
			continue
		}
		if fromEnvFile[def.env] {
			config.sources[def.name] = SourceEnvFile
		} else {
			config.sources[def.name] = SourceEnvironment
		}
	}

	if config.PublicURL == "" {
		config.PublicURL = fmt.Sprintf("http://localhost:%d", config.Port)
	}

	return config, nil
}

func (c *Config) applyFileConfig(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	var present map[string]interface{}
	if err := yaml.Unmarshal(data, &present); err != nil {
		return err
	}
	for _, def := range attributeDefs {
		if _, ok := present[def.name]; ok {
			c.sources[def.name] = SourceFile
		}
	}
	return nil
}

// loadEnvFile loads a dotenv file without overriding variables that are
// already set and returns the keys it introduced. A missing file is not an
// error.
func loadEnvFile(path string) (map[string]bool, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	introduced := make(map[string]bool)
	for key := range values {
		if _, ok := os.LookupEnv(key); !ok {
			introduced[key] = true
		}
	}
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return introduced, nil
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// EnvFilePath returns the path of the .env file that was consulted
func (c *Config) EnvFilePath() string {
	return c.envFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return SourceDefault
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return SourceDefault
}

// ListenAddress returns host:port.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HasCredentials reports whether plans can authenticate.
func (c *Config) HasCredentials() bool {
	return c.AdminToken != "" || (c.AdminEmail != "" && c.AdminPassword != "")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	u, err := url.Parse(c.PublicURL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid public_url: %q", c.PublicURL)
	}

	if !contains(ValidDBClients, c.DBClient) {
		return fmt.Errorf("invalid db_client: %s", c.DBClient)
	}

	if c.DBPort < 0 || c.DBPort > 65535 {
		return fmt.Errorf("invalid db_port: %d", c.DBPort)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request_timeout: %s", c.RequestTimeout)
	}

	if !contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	return nil
}

func (c *Config) value(name string) string {
	switch name {
	case "port":
		return strconv.Itoa(c.Port)
	case "host":
		return c.Host
	case "public_url":
		return c.PublicURL
	case "db_client":
		return c.DBClient
	case "db_host":
		return c.DBHost
	case "db_port":
		if c.DBPort == 0 {
			return ""
		}
		return strconv.Itoa(c.DBPort)
	case "db_database":
		return c.DBDatabase
	case "db_user":
		return c.DBUser
	case "db_password":
		return c.DBPassword
	case "key":
		return c.Key
	case "secret":
		return c.Secret
	case "admin_email":
		return c.AdminEmail
	case "admin_password":
		return c.AdminPassword
	case "admin_token":
		return c.AdminToken
	case "node_env":
		return c.NodeEnv
	case "node_binary":
		return c.NodeBinary
	case "directus_cli":
		return c.DirectusCLI
	case "request_timeout":
		return c.RequestTimeout.String()
	case "journal_database_url":
		return c.JournalDatabaseURL
	case "log_level":
		return c.LogLevel
	}
	return ""
}

// Attributes returns all configuration attributes with their values and
// sources. Secret values are reported as SET or NOT SET.
func (c *Config) Attributes() []Attribute {
	attrs := make([]Attribute, 0, len(attributeDefs))
	for _, def := range attributeDefs {
		value := c.value(def.name)
		if def.secret {
			value = presence(value)
		}
		attrs = append(attrs, Attribute{Name: def.name, Env: def.env, Value: value, Source: c.Source(def.name)})
	}
	return attrs
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("Env file:    %s\n\n", c.envFilePath))
	sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"env_file":    c.envFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func presence(value string) string {
	if value == "" {
		return "NOT SET"
	}
	return "SET"
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// LauncherEnv returns base with PORT, HOST and PUBLIC_URL set to the
// resolved values. Everything else in base is passed through unchanged.
func (c *Config) LauncherEnv(base []string) []string {
	overrides := map[string]string{
		"PORT":       strconv.Itoa(c.Port),
		"HOST":       c.Host,
		"PUBLIC_URL": c.PublicURL,
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if _, ok := overrides[key]; ok {
			continue
		}
		env = append(env, kv)
	}
	for _, key := range []string{"PORT", "HOST", "PUBLIC_URL"} {
		env = append(env, key+"="+overrides[key])
	}
	return env
}

// DiagnosticEnv returns the environment summary reported by the diagnostic
// server. Values that were never configured read NOT SET.
func (c *Config) DiagnosticEnv() map[string]string {
	explicit := func(name, value string) string {
		if c.Source(name) == SourceDefault || value == "" {
			return "NOT SET"
		}
		return value
	}
	return map[string]string{
		"DB_HOST":     explicit("db_host", c.DBHost),
		"DB_DATABASE": explicit("db_database", c.DBDatabase),
		"PUBLIC_URL":  explicit("public_url", c.PublicURL),
		"KEY":         presence(c.Key),
		"SECRET":      presence(c.Secret),
		"NODE_ENV":    explicit("node_env", c.NodeEnv),
	}
}
