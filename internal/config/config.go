// Package config manages YAML-based configuration, CLI flags, and the set of
// served repositories.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Repo identifies one served repository: the owner/name pair used in URLs
// and the local path of the git repository backing it.
type Repo struct {
	Owner      string `yaml:"owner" json:"owner"`
	Name       string `yaml:"name" json:"name"`
	Path       string `yaml:"path" json:"path"`
	DefaultRef string `yaml:"default_ref,omitempty" json:"default_ref,omitempty"`
}

// Key returns the owner/name route key for the repository.
func (r Repo) Key() string {
	return r.Owner + "/" + r.Name
}

// Config holds all configuration options for the server.
type Config struct {
	Repos           []Repo `yaml:"repos"`
	Port            int    `yaml:"port"`
	Watch           bool   `yaml:"watch"`
	CommitCacheSize int    `yaml:"commit_cache_size,omitempty"`

	// Internal: path to the loaded config file
	configPath string
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Port:            8080,
		Watch:           true,
		CommitCacheSize: 512,
	}
}

// GetConfigDir returns the config directory path.
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/repoview"
	}
	return filepath.Join(home, ".config", "repoview")
}

// GetConfigPath returns the full path to the config file.
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load loads configuration from the environment, config file, and command
// line flags, in increasing order of precedence.
func Load() (*Config, error) {
	// .env values become plain environment variables; a missing file is fine
	_ = godotenv.Load()

	cfg := DefaultConfig()

	port := flag.Int("port", 0, "HTTP server port")
	watch := flag.Bool("watch", true, "Watch repositories for ref updates")
	repo := flag.String("repo", "", "Serve a single repository, as owner/name=path")
	ref := flag.String("ref", "", "Default ref for the -repo repository")
	configFile := flag.String("config", "", "Configuration file path")

	flag.Parse()

	var cfgPath string
	if *configFile != "" {
		cfgPath = *configFile
	} else {
		globalConfig := GetConfigPath()
		if _, err := os.Stat(globalConfig); err == nil {
			cfgPath = globalConfig
		} else if _, err := os.Stat("repoview.yaml"); err == nil {
			cfgPath = "repoview.yaml"
		}
	}

	if cfgPath != "" {
		if err := cfg.loadFile(cfgPath); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("REPOVIEW_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REPOVIEW_PORT %q: %w", v, err)
		}
		cfg.Port = p
	}

	if *port != 0 {
		cfg.Port = *port
	}
	cfg.Watch = *watch

	if *repo != "" {
		r, err := ParseRepoFlag(*repo)
		if err != nil {
			return nil, err
		}
		r.DefaultRef = *ref
		cfg.Repos = append(cfg.Repos, r)
	}

	cfg.normalize()

	if len(cfg.Repos) == 0 {
		return nil, fmt.Errorf("no repositories configured (use -repo owner/name=path or a config file)")
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

// ParseRepoFlag parses an "owner/name=path" repository specification.
func ParseRepoFlag(spec string) (Repo, error) {
	key, path, ok := strings.Cut(spec, "=")
	if !ok {
		return Repo{}, fmt.Errorf("invalid -repo %q: expected owner/name=path", spec)
	}
	owner, name, ok := strings.Cut(key, "/")
	if !ok || owner == "" || name == "" || path == "" {
		return Repo{}, fmt.Errorf("invalid -repo %q: expected owner/name=path", spec)
	}
	return Repo{Owner: owner, Name: name, Path: path}, nil
}

// normalize fills per-repo defaults and makes repository paths absolute.
func (c *Config) normalize() {
	for i := range c.Repos {
		if c.Repos[i].DefaultRef == "" {
			c.Repos[i].DefaultRef = "HEAD"
		}
		if abs, err := filepath.Abs(c.Repos[i].Path); err == nil {
			c.Repos[i].Path = abs
		}
	}
}

// FindRepo looks up a repository by its owner/name pair.
func (c *Config) FindRepo(owner, name string) (Repo, bool) {
	for _, r := range c.Repos {
		if r.Owner == owner && r.Name == name {
			return r, true
		}
	}
	return Repo{}, false
}

// GetConfigFilePath returns the path of the loaded config file.
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}
