// Package config loads meetwise settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	// Embedded zone database, so event zones resolve on hosts without one.
	_ "time/tzdata"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/teemow/meetwise/internal/availability"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "MEETWISE_"

// Defaults.
const (
	DefaultListen              = "0.0.0.0:8085"
	DefaultTimezone            = "+05:30"
	DefaultEventTimeZone       = "Asia/Kolkata"
	DefaultCredentialsFile     = "service_account.json"
	DefaultOnboardingURL       = "http://127.0.0.1:8000"
	DefaultOnboardingListen    = "127.0.0.1:8000"
	DefaultClientSecretFile    = "client_secret.json"
	DefaultConflictHorizonDays = 60
	DefaultReadHorizonDays     = 30
	DefaultShownSlots          = 3
	DefaultCacheTTL            = 5 * time.Minute
)

// ICSFeed maps a calendar owner to a published iCalendar URL.
type ICSFeed struct {
	Owner string `yaml:"owner"`
	URL   string `yaml:"url"`
}

// WorkingHours is the daily window slots may fall in, as whole local hours.
type WorkingHours struct {
	Start int `yaml:"start" env:"START"`
	End   int `yaml:"end" env:"END"`
}

// Onboarding configures the web flow users follow to share their calendar.
type Onboarding struct {
	// URL is the public address shown to users who still need to onboard.
	URL              string `yaml:"url" env:"URL"`
	Listen           string `yaml:"listen" env:"LISTEN"`
	ClientSecretFile string `yaml:"client_secret_file" env:"CLIENT_SECRET_FILE"`
}

// Config is the top-level application configuration.
type Config struct {
	Listen          string `yaml:"listen" env:"LISTEN"`
	CredentialsFile string `yaml:"credentials_file" env:"CREDENTIALS_FILE"`

	// AuthToken is the bearer token MCP clients must present over HTTP.
	AuthToken string `yaml:"auth_token" env:"AUTH_TOKEN"`
	// OwnerPhone is returned by the validate tool.
	OwnerPhone string `yaml:"owner_phone" env:"OWNER_PHONE"`

	// Timezone is where working hours apply: an IANA name or a fixed
	// offset such as "+05:30".
	Timezone string `yaml:"timezone" env:"TIMEZONE"`
	// EventTimeZone is the IANA zone attached to created events.
	EventTimeZone string `yaml:"event_timezone" env:"EVENT_TIMEZONE"`

	WorkingHours        WorkingHours `yaml:"working_hours" envPrefix:"WORKING_HOURS_"`
	SlotHorizonDays     int          `yaml:"slot_horizon_days" env:"SLOT_HORIZON_DAYS"`
	ConflictHorizonDays int          `yaml:"conflict_horizon_days" env:"CONFLICT_HORIZON_DAYS"`
	ReadHorizonDays     int          `yaml:"read_horizon_days" env:"READ_HORIZON_DAYS"`
	MaxSlots            int          `yaml:"max_slots" env:"MAX_SLOTS"`
	ShownSlots          int          `yaml:"shown_slots" env:"SHOWN_SLOTS"`

	RedisURL string        `yaml:"redis_url" env:"REDIS_URL"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`

	Onboarding Onboarding `yaml:"onboarding" envPrefix:"ONBOARDING_"`
	ICSFeeds   []ICSFeed  `yaml:"ics_feeds"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = DefaultCredentialsFile
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.EventTimeZone == "" {
		c.EventTimeZone = DefaultEventTimeZone
	}
	if c.WorkingHours.Start == 0 && c.WorkingHours.End == 0 {
		c.WorkingHours = WorkingHours{Start: availability.DefaultDayStartHour, End: availability.DefaultDayEndHour}
	}
	if c.SlotHorizonDays <= 0 {
		c.SlotHorizonDays = availability.DefaultSearchHorizonDays
	}
	if c.ConflictHorizonDays <= 0 {
		c.ConflictHorizonDays = DefaultConflictHorizonDays
	}
	if c.ReadHorizonDays <= 0 {
		c.ReadHorizonDays = DefaultReadHorizonDays
	}
	if c.MaxSlots <= 0 {
		c.MaxSlots = availability.DefaultMaxResults
	}
	if c.ShownSlots <= 0 {
		c.ShownSlots = DefaultShownSlots
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.Onboarding.URL == "" {
		c.Onboarding.URL = DefaultOnboardingURL
	}
	if c.Onboarding.Listen == "" {
		c.Onboarding.Listen = DefaultOnboardingListen
	}
	if c.Onboarding.ClientSecretFile == "" {
		c.Onboarding.ClientSecretFile = DefaultClientSecretFile
	}
	if c.ICSFeeds == nil {
		c.ICSFeeds = []ICSFeed{}
	}
}

// Validate checks the normalized configuration.
func (c *Config) Validate() error {
	if _, err := ParseLocation(c.Timezone); err != nil {
		return err
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if c.ShownSlots > c.MaxSlots {
		return fmt.Errorf("shown_slots (%d) cannot exceed max_slots (%d)", c.ShownSlots, c.MaxSlots)
	}
	for i, f := range c.ICSFeeds {
		if f.Owner == "" || f.URL == "" {
			return fmt.Errorf("ics_feeds[%d]: owner and url are required", i)
		}
	}
	return nil
}

// Location returns the working-hours location.
func (c *Config) Location() (*time.Location, error) {
	return ParseLocation(c.Timezone)
}

// Policy builds the working-hours policy for slot searches.
func (c *Config) Policy() (availability.WorkingHoursPolicy, error) {
	loc, err := ParseLocation(c.Timezone)
	if err != nil {
		return availability.WorkingHoursPolicy{}, err
	}
	p := availability.WorkingHoursPolicy{
		DayStartHour:      c.WorkingHours.Start,
		DayEndHour:        c.WorkingHours.End,
		Location:          loc,
		SearchHorizonDays: c.SlotHorizonDays,
		MaxResults:        c.MaxSlots,
	}
	return p, p.Validate()
}

// Feeds returns the ICS feeds keyed by owner.
func (c *Config) Feeds() map[string]string {
	feeds := make(map[string]string, len(c.ICSFeeds))
	for _, f := range c.ICSFeeds {
		feeds[f.Owner] = f.URL
	}
	return feeds
}

// ParseLocation accepts an IANA zone name, "UTC", or a fixed offset of the
// form "+05:30" / "-0800".
func ParseLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "UTC") || name == "Z" {
		return time.UTC, nil
	}
	if name[0] == '+' || name[0] == '-' {
		digits := strings.ReplaceAll(name[1:], ":", "")
		if len(digits) != 4 {
			return nil, fmt.Errorf("invalid UTC offset %q", name)
		}
		h, herr := strconv.Atoi(digits[:2])
		m, merr := strconv.Atoi(digits[2:])
		if herr != nil || merr != nil || h > 14 || m > 59 {
			return nil, fmt.Errorf("invalid UTC offset %q", name)
		}
		offset := h*3600 + m*60
		if name[0] == '-' {
			offset = -offset
		}
		return time.FixedZone(name, offset), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// ApplyEnv overrides cfg from MEETWISE_* variables in environ. A nil environ
// reads the process environment, which also honours the legacy PUCH_TOKEN
// and MY_PHONE_NUMBER variables.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	legacy := environ == nil
	if legacy {
		environ = envMap()
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	if legacy {
		if cfg.AuthToken == "" {
			cfg.AuthToken = environ["PUCH_TOKEN"]
		}
		if cfg.OwnerPhone == "" {
			cfg.OwnerPhone = environ["MY_PHONE_NUMBER"]
		}
	}
	return nil
}

func envMap() map[string]string {
	m := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. A missing file is not an error: defaults are used.
func Load(path string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := ApplyEnv(cfg, environ); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions. Secrets are
// written as configured, so keep the file private.
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

	tmp, err := os.CreateTemp(dir, ".meetwise-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
