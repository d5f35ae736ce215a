// Package config builds the runtime configuration from defaults, an optional
// YAML file, and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all settings for the tool servers.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
	Git       GitConfig       `yaml:"git" mapstructure:"git"`
	Docs      DocsConfig      `yaml:"docs" mapstructure:"docs"`
	Templates TemplatesConfig `yaml:"templates" mapstructure:"templates"`
	GitHub    GitHubConfig    `yaml:"github" mapstructure:"github"`
	GitLab    GitLabConfig    `yaml:"gitlab" mapstructure:"gitlab"`
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

type WorkspaceConfig struct {
	Root string `yaml:"root" mapstructure:"root"`
}

type GitConfig struct {
	Binary  string        `yaml:"binary" mapstructure:"binary"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type DocsConfig struct {
	Dir                string   `yaml:"dir" mapstructure:"dir"`
	DefaultDocType     string   `yaml:"default_doc_type" mapstructure:"default_doc_type"`
	DefaultBaseBranch  string   `yaml:"default_base_branch" mapstructure:"default_base_branch"`
	SupportedLanguages []string `yaml:"supported_languages" mapstructure:"supported_languages"`
}

type TemplatesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type GitHubConfig struct {
	Token     string `yaml:"token" mapstructure:"token"`
	APIURL    string `yaml:"api_url" mapstructure:"api_url"`
	Host      string `yaml:"host" mapstructure:"host"`
	RateLimit int    `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
}

type GitLabConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	APIURL string `yaml:"api_url" mapstructure:"api_url"`
	Host   string `yaml:"host" mapstructure:"host"`
}

type APIConfig struct {
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// Default returns the built-in defaults. The workspace root falls back to
// the current directory.
func Default() *Config {
	cwd, _ := os.Getwd()
	return &Config{
		Workspace: WorkspaceConfig{Root: cwd},
		Git: GitConfig{
			Binary:  "git",
			Timeout: 30 * time.Second,
		},
		Docs: DocsConfig{
			Dir:                "docs",
			DefaultDocType:     "feature_overview",
			DefaultBaseBranch:  "main",
			SupportedLanguages: []string{"python"},
		},
		GitHub: GitHubConfig{
			Host:      "github.com",
			RateLimit: 10,
		},
		GitLab: GitLabConfig{
			Host: "gitlab.com",
		},
		API: APIConfig{
			Timeout:        30 * time.Second,
			MaxRetries:     3,
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     60 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds configuration in three stages: defaults, an optional YAML
// config file, then environment variables. Later stages override earlier
// ones.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("workspace.root", cfg.Workspace.Root)
	v.SetDefault("git.binary", cfg.Git.Binary)
	v.SetDefault("git.timeout", cfg.Git.Timeout)
	v.SetDefault("docs.dir", cfg.Docs.Dir)
	v.SetDefault("docs.default_doc_type", cfg.Docs.DefaultDocType)
	v.SetDefault("docs.default_base_branch", cfg.Docs.DefaultBaseBranch)
	v.SetDefault("docs.supported_languages", cfg.Docs.SupportedLanguages)
	v.SetDefault("templates.path", cfg.Templates.Path)
	v.SetDefault("github.host", cfg.GitHub.Host)
	v.SetDefault("github.rate_limit", cfg.GitHub.RateLimit)
	v.SetDefault("gitlab.host", cfg.GitLab.Host)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.max_retries", cfg.API.MaxRetries)
	v.SetDefault("api.initial_backoff", cfg.API.InitialBackoff)
	v.SetDefault("api.max_backoff", cfg.API.MaxBackoff)
	v.SetDefault("log.level", cfg.Log.Level)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".docscopilot")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".docscopilot"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Missing config file is fine; defaults apply.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variables on top of the file/default
// values. Env always wins.
func applyEnvOverrides(cfg *Config) {
	if root := os.Getenv("WORKSPACE_ROOT"); root != "" {
		cfg.Workspace.Root = expandPath(root)
	}
	if binary := os.Getenv("GIT_BINARY"); binary != "" {
		cfg.Git.Binary = binary
	}
	if timeout := os.Getenv("GIT_COMMAND_TIMEOUT"); timeout != "" {
		cfg.Git.Timeout = parseDuration(timeout, cfg.Git.Timeout)
	}

	if dir := os.Getenv("DOCS_DIR"); dir != "" {
		cfg.Docs.Dir = dir
	}
	if docType := os.Getenv("DEFAULT_DOC_TYPE"); docType != "" {
		cfg.Docs.DefaultDocType = docType
	}
	if branch := os.Getenv("DEFAULT_BASE_BRANCH"); branch != "" {
		cfg.Docs.DefaultBaseBranch = branch
	}
	if langs := os.Getenv("SUPPORTED_LANGUAGES"); langs != "" {
		cfg.Docs.SupportedLanguages = splitList(langs)
	}

	if path := os.Getenv("DOCSCOPILOT_TEMPLATES_PATH"); path != "" {
		cfg.Templates.Path = expandPath(path)
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if url := os.Getenv("GITHUB_API_URL"); url != "" {
		cfg.GitHub.APIURL = url
	}
	if host := os.Getenv("GITHUB_HOST"); host != "" {
		cfg.GitHub.Host = host
	}
	if rateLimit := os.Getenv("GITHUB_RATE_LIMIT"); rateLimit != "" {
		if rate, err := strconv.Atoi(rateLimit); err == nil {
			cfg.GitHub.RateLimit = rate
		}
	}

	if token := os.Getenv("GITLAB_TOKEN"); token != "" {
		cfg.GitLab.Token = token
	}
	if url := os.Getenv("GITLAB_API_URL"); url != "" {
		cfg.GitLab.APIURL = url
	}
	if host := os.Getenv("GITLAB_HOST"); host != "" {
		cfg.GitLab.Host = host
	}

	if timeout := os.Getenv("API_TIMEOUT"); timeout != "" {
		cfg.API.Timeout = parseDuration(timeout, cfg.API.Timeout)
	}
	if retries := os.Getenv("RETRY_MAX_ATTEMPTS"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil {
			cfg.API.MaxRetries = n
		}
	}
	if backoff := os.Getenv("RETRY_INITIAL_BACKOFF"); backoff != "" {
		cfg.API.InitialBackoff = parseDuration(backoff, cfg.API.InitialBackoff)
	}
	if backoff := os.Getenv("RETRY_MAX_BACKOFF"); backoff != "" {
		cfg.API.MaxBackoff = parseDuration(backoff, cfg.API.MaxBackoff)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

// normalize resolves the workspace root to an absolute path and validates
// values with fixed domains.
func normalize(cfg *Config) error {
	root, err := filepath.Abs(expandPath(cfg.Workspace.Root))
	if err != nil {
		return fmt.Errorf("invalid workspace root %q: %w", cfg.Workspace.Root, err)
	}
	cfg.Workspace.Root = root

	if cfg.Git.Timeout <= 0 {
		cfg.Git.Timeout = 30 * time.Second
	}
	if cfg.API.MaxRetries < 0 {
		cfg.API.MaxRetries = 0
	}
	return nil
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// parseDuration accepts Go duration strings and bare integers (seconds).
func parseDuration(raw string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
