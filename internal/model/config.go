package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

// ServerConfig describes one JIRA endpoint. The secret is not part of the
// file; it lives in the credential store under the server's ID.
type ServerConfig struct {
	// ID is the unique identifier nodes use to reference this server.
	ID string `mapstructure:"id" yaml:"id"`

	// Name is the user-defined label for this server.
	Name string `mapstructure:"name" yaml:"name"`

	// BaseURL is the REST root, e.g. https://jira.example.com/rest/api/2/.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Username is sent with the stored secret as HTTP basic auth.
	Username string `mapstructure:"username" yaml:"username"`

	// PageSize is the number of issues requested per search page.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
}

// NodeConfig describes one configured node instance.
type NodeConfig struct {
	ID     string `mapstructure:"id" yaml:"id"`
	Type   string `mapstructure:"type" yaml:"type"`
	Name   string `mapstructure:"name" yaml:"name"`
	Server string `mapstructure:"server" yaml:"server"`

	// JQL and Fields are search defaults a message may override.
	JQL    string   `mapstructure:"jql" yaml:"jql"`
	Fields []string `mapstructure:"fields" yaml:"fields"`

	// PageSize overrides the server page size for this node.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	// Split forwards one message per issue from a search.
	Split bool `mapstructure:"split" yaml:"split"`
}

// HistoryConfig controls the local invocation history.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`

	// RetentionDays prunes older records on startup. Zero keeps everything.
	RetentionDays int `mapstructure:"retention_days" yaml:"retention_days"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	LogLevel string         `mapstructure:"log_level" yaml:"log_level"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
	Servers  []ServerConfig `mapstructure:"servers" yaml:"servers"`
	Nodes    []NodeConfig   `mapstructure:"nodes" yaml:"nodes"`
}

// DefaultPageSize is the search page size used when a server does not set
// one.
const DefaultPageSize = 100

// configDir returns ~/.config/jiraflow, or the working directory when the
// home directory cannot be determined.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "jiraflow")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/jiraflow/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultHistoryPath returns the default SQLite history database path.
func DefaultHistoryPath() string {
	return filepath.Join(configDir(), "history.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		LogLevel: "info",
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath(),
		},
		Servers: []ServerConfig{},
		Nodes:   []NodeConfig{},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration. Scalar
// top-level settings may be overridden by JIRAFLOW_* environment variables
// (e.g. JIRAFLOW_LOG_LEVEL).
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("jiraflow")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("log_level", "info")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", DefaultHistoryPath())
	v.SetDefault("history.retention_days", 0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	for i := range cfg.Servers {
		if cfg.Servers[i].PageSize == 0 {
			cfg.Servers[i].PageSize = DefaultPageSize
		}
		if cfg.Servers[i].Name == "" {
			cfg.Servers[i].Name = cfg.Servers[i].ID
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("log_level", cfg.LogLevel)
	v.Set("history", cfg.History)
	v.Set("servers", cfg.Servers)
	v.Set("nodes", cfg.Nodes)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// Server returns the server with the given ID.
func (c *AppConfig) Server(id string) (ServerConfig, bool) {
	for _, s := range c.Servers {
		if s.ID == id {
			return s, true
		}
	}
	return ServerConfig{}, false
}

// Node returns the node with the given ID.
func (c *AppConfig) Node(id string) (NodeConfig, bool) {
	for _, n := range c.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeConfig{}, false
}

// Validate checks every server and node and reports all problems at once.
// Node types are checked by the node registry when nodes are built.
func (c *AppConfig) Validate() error {
	var result *multierror.Error

	servers := make(map[string]bool, len(c.Servers))
	for i, s := range c.Servers {
		if err := s.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("servers[%d] %q: %w", i, s.ID, err))
		}
		if servers[s.ID] {
			result = multierror.Append(result, fmt.Errorf("servers[%d]: duplicate id %q", i, s.ID))
		}
		servers[s.ID] = true
	}

	nodes := make(map[string]bool, len(c.Nodes))
	for i, n := range c.Nodes {
		if err := n.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("nodes[%d] %q: %w", i, n.ID, err))
		}
		if n.Server != "" && !servers[n.Server] {
			result = multierror.Append(result,
				fmt.Errorf("nodes[%d] %q: unknown server %q", i, n.ID, n.Server))
		}
		if nodes[n.ID] {
			result = multierror.Append(result, fmt.Errorf("nodes[%d]: duplicate id %q", i, n.ID))
		}
		nodes[n.ID] = true
	}

	return result.ErrorOrNil()
}

// Validate checks a single server entry.
func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.BaseURL, validation.Required, is.RequestURL),
		validation.Field(&s.Username, validation.Required),
		validation.Field(&s.PageSize, validation.Min(0)),
	)
}

// Validate checks a single node entry.
func (n NodeConfig) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.ID, validation.Required),
		validation.Field(&n.Type, validation.Required),
		validation.Field(&n.Server, validation.Required),
		validation.Field(&n.PageSize, validation.Min(0)),
	)
}
