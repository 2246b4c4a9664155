package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".onioncrawl"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk YAML configuration. It carries the settings that
// are awkward on the command line, chiefly login credentials.
//
//	delay: 10s
//	workers: 2
//	userAgent: "my-crawler/1.0"
//	login:
//	  url: http://example.onion/login
//	  form:
//	    username: crawler
//	    password: hunter2
type File struct {
	// Delay overrides the politeness delay when set. Parsed as a Go
	// duration string ("10s", "1m30s").
	Delay string `yaml:"delay,omitempty"`

	// Workers overrides the worker count when non-zero.
	Workers int `yaml:"workers,omitempty"`

	// UserAgent overrides the request User-Agent when non-empty.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Login describes the pre-crawl authentication step.
	Login LoginConfig `yaml:"login,omitempty"`
}

// LoginConfig holds the form login performed before crawling.
type LoginConfig struct {
	// URL is the login form endpoint.
	URL string `yaml:"url,omitempty"`

	// Form maps form field names to values.
	Form map[string]string `yaml:"form,omitempty"`
}

// LoadFile loads the YAML configuration from path. A missing file is
// ErrConfigNotFound; callers decide whether that is fatal based on
// whether the user asked for the file explicitly.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindFile locates the configuration file: the explicit path if given,
// otherwise .onioncrawl in the current directory, then in the home
// directory. Returns "" when nothing is found.
func FindFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// Apply merges file settings into cfg. CLI flags win where both are set;
// the login section in particular only applies when no --login-url flag
// was given.
func (f *File) Apply(cfg *Config) error {
	if f.Delay != "" {
		d, err := time.ParseDuration(f.Delay)
		if err != nil {
			return fmt.Errorf("invalid delay in config file: %w", err)
		}
		cfg.Delay = d
	}
	if f.Workers > 0 {
		cfg.Workers = f.Workers
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.Login.URL != "" && cfg.LoginURL == "" {
		cfg.LoginURL = f.Login.URL
		for k, v := range f.Login.Form {
			cfg.LoginData = append(cfg.LoginData, k+"="+v)
		}
	}
	return nil
}
