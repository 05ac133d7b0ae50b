package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"sched2ics/internal/ics"
	appLog "sched2ics/internal/log"
)

// SourceConfig describes one remote spreadsheet export that the refresh
// job converts and publishes under /calendars/{id}.ics.
type SourceConfig struct {
	// ID names the published calendar. It must be unique.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label used for the download file name.
	Name string `yaml:"name" json:"name"`
	// URL is the xlsx or JSON snapshot endpoint.
	URL string `yaml:"url" json:"url"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for `serve`.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the TZID stamped on every DTSTART/DTEND. It must be one of
	// the compiled-in zones.
	Timezone string `yaml:"timezone" json:"timezone"`

	ProductID string `yaml:"product_id" json:"product_id"`
	UIDDomain string `yaml:"uid_domain" json:"uid_domain"`

	// Sheet selects the worksheet in workbook input. Empty means the first.
	Sheet string `yaml:"sheet,omitempty" json:"sheet,omitempty"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a standard five-field cron expression for re-fetching sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	PreviewWeeks int `yaml:"preview_weeks" json:"preview_weeks"`

	// CacheDir holds the per-source HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Sources []SourceConfig `yaml:"sources" json:"sources"`

	// BasicAuth, if set with both fields, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen       = "127.0.0.1:8080"
	defaultRefreshCron  = "0 * * * *"
	defaultPreviewWeeks = 2
	defaultCacheDir     = "./var/source-cache"
	defaultLogLevel     = "INFO"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       defaultListen,
		Timezone:     ics.DefaultZoneID,
		ProductID:    ics.DefaultProductID,
		UIDDomain:    ics.DefaultUIDDomain,
		LogLevel:     defaultLogLevel,
		RefreshCron:  defaultRefreshCron,
		PreviewWeeks: defaultPreviewWeeks,
		CacheDir:     defaultCacheDir,
		Sources:      []SourceConfig{},
	}
}

// Normalize fills in missing values so partially-filled files still work.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.ProductID == "" {
		c.ProductID = d.ProductID
	}
	if c.UIDDomain == "" {
		c.UIDDomain = d.UIDDomain
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.PreviewWeeks <= 0 {
		c.PreviewWeeks = d.PreviewWeeks
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		c.BasicAuth = nil
	}
}

// Validate reports every setting that would make conversion or serving fail.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := ics.LookupZone(c.Timezone); !ok {
		errs = append(errs, fmt.Errorf("timezone %q is not supported (known: %v)", c.Timezone, ics.ZoneIDs()))
	}
	if _, err := appLog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs = append(errs, fmt.Errorf("refresh %q: %w", c.RefreshCron, err))
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		switch {
		case s.ID == "":
			errs = append(errs, fmt.Errorf("sources[%d]: id is empty", i))
		case seen[s.ID]:
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = true
		if s.URL == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: url is empty", i))
		}
	}
	return errors.Join(errs...)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is read, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return &cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".sched2ics-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
