// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone database for minimal containers
)

// Config is the complete runtime configuration.
type Config struct {
	Pipedrive PipedriveConfig `koanf:"pipedrive"`
	Fields    FieldsConfig    `koanf:"fields"`
	Status    StatusConfig    `koanf:"status"`
	Activity  ActivityConfig  `koanf:"activity"`
	Gate      GateConfig      `koanf:"gate"`
	Sweep     SweepConfig     `koanf:"sweep"`
	Registry  RegistryConfig  `koanf:"registry"`
	Redis     RedisConfig     `koanf:"redis"`
	Events    EventsConfig    `koanf:"events"`
	Webhook   WebhookConfig   `koanf:"webhook"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// PipedriveConfig holds API access settings.
type PipedriveConfig struct {
	Token   string        `koanf:"token"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond and Burst pace outbound calls so sweeps and bursts of
	// webhooks stay under the account's API quota.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	// TestDealID is the default deal for `dealctl check`.
	TestDealID int64 `koanf:"test_deal_id"`
}

// FieldsConfig maps logical fields to Pipedrive custom field keys (40-char hashes).
type FieldsConfig struct {
	StartDate      string `koanf:"start_date"`
	Status         string `koanf:"status"`
	ContractsEnd   string `koanf:"contracts_end"`
	ITBIEnd        string `koanf:"itbi_end"`
	PrenotationDue string `koanf:"prenotation_due"`
}

// StatusConfig identifies the status options that drive the workflow.
// An option is recognised by its numeric id or by its label word.
type StatusConfig struct {
	FinalizedID    int    `koanf:"finalized_id"`
	StartingID     int    `koanf:"starting_id"`
	ObjectionID    int    `koanf:"objection_id"`
	FinalizedLabel string `koanf:"finalized_label"`
	StartingLabel  string `koanf:"starting_label"`
	ObjectionLabel string `koanf:"objection_label"`
}

// ActivityConfig controls how reminders are created.
type ActivityConfig struct {
	Type             string        `koanf:"type"`
	DueTime          string        `koanf:"due_time"`
	TimeZone         string        `koanf:"time_zone"`
	DealCacheTTL     time.Duration `koanf:"deal_cache_ttl"`
	ActivityCacheTTL time.Duration `koanf:"activity_cache_ttl"`
}

// Location loads the reference time zone used for elapsed-day arithmetic.
func (a ActivityConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", a.TimeZone, err)
	}
	return loc, nil
}

// GateConfig holds the event gate windows.
type GateConfig struct {
	DuplicateBucket time.Duration `koanf:"duplicate_bucket"`
	DuplicateTTL    time.Duration `koanf:"duplicate_ttl"`
	DebounceWindow  time.Duration `koanf:"debounce_window"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	RateLimitMax    int           `koanf:"rate_limit_max"`
	SweepInterval   time.Duration `koanf:"sweep_interval"`
}

// SweepConfig controls the periodic re-evaluation of tracked deals.
type SweepConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Interval         time.Duration `koanf:"interval"`
	MaxConcurrent    int           `koanf:"max_concurrent"`
	ExecutionTimeout time.Duration `koanf:"execution_timeout"`
}

// RegistryConfig locates the tracked-deal store. An empty Path keeps it in memory.
type RegistryConfig struct {
	Path       string        `koanf:"path"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// RedisConfig enables gate decision statistics in Redis.
type RedisConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Prefix   string        `koanf:"prefix"`
	TTL      time.Duration `koanf:"ttl"`
}

// EventsConfig controls publication of created-activity events. With an
// empty NATSURL events stay in process and feed the audit log only.
type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	NATSURL string `koanf:"nats_url"`
	Topic   string `koanf:"topic"`
}

// WebhookConfig covers inbound authentication and self-registration.
type WebhookConfig struct {
	Username        string `koanf:"username"`
	Password        string `koanf:"password"`
	SubscriptionURL string `koanf:"subscription_url"`
}

// AuthEnabled reports whether inbound webhooks must carry basic auth.
func (w WebhookConfig) AuthEnabled() bool {
	return w.Username != "" || w.Password != ""
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig protects the admin endpoints.
type SecurityConfig struct {
	AdminAPIKey       string        `koanf:"admin_api_key"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in that order of precedence (last wins).
func Load() (*Config, error) {
	return LoadWithKoanf()
}
