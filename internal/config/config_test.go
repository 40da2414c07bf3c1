// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setupTestEnv clears the environment, applies envVars and isolates the
// working directory so no stray config.yaml is picked up.
func setupTestEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	os.Clearenv()
	t.Chdir(t.TempDir())
	for k, v := range envVars {
		t.Setenv(k, v)
	}
}

func requiredEnv() map[string]string {
	return map[string]string{
		"PIPEDRIVE_TOKEN":              "tok-123",
		"CAMPO_DATA_INICIO_REGISTRO":   "f_start",
		"CAMPO_STATUS_REGISTRO":        "f_status",
		"CAMPO_DATA_TERMINO_CONTRATOS": "f_contracts",
		"CAMPO_DATA_TERMINO_ITBI":      "f_itbi",
	}
}

func withEnv(overrides map[string]string) map[string]string {
	env := requiredEnv()
	for k, v := range overrides {
		env[k] = v
	}
	return env
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Pipedrive.BaseURL != "https://api.pipedrive.com/v1" {
		t.Errorf("Pipedrive.BaseURL = %q", cfg.Pipedrive.BaseURL)
	}
	if cfg.Activity.Type != "Averbações" {
		t.Errorf("Activity.Type = %q, want Averbações", cfg.Activity.Type)
	}
	if cfg.Activity.DueTime != "09:00" {
		t.Errorf("Activity.DueTime = %q, want 09:00", cfg.Activity.DueTime)
	}
	if cfg.Activity.TimeZone != "America/Sao_Paulo" {
		t.Errorf("Activity.TimeZone = %q", cfg.Activity.TimeZone)
	}
	if cfg.Activity.DealCacheTTL != time.Minute || cfg.Activity.ActivityCacheTTL != 5*time.Minute {
		t.Errorf("cache TTLs = %v/%v, want 1m/5m", cfg.Activity.DealCacheTTL, cfg.Activity.ActivityCacheTTL)
	}

	gate := cfg.Gate
	if gate.DuplicateBucket != 10*time.Second {
		t.Errorf("Gate.DuplicateBucket = %v, want 10s", gate.DuplicateBucket)
	}
	if gate.DuplicateTTL != 120*time.Second {
		t.Errorf("Gate.DuplicateTTL = %v, want 120s", gate.DuplicateTTL)
	}
	if gate.DebounceWindow != 60*time.Second {
		t.Errorf("Gate.DebounceWindow = %v, want 60s", gate.DebounceWindow)
	}
	if gate.RateLimitWindow != 60*time.Second || gate.RateLimitMax != 30 {
		t.Errorf("rate limit = %d per %v, want 30 per 60s", gate.RateLimitMax, gate.RateLimitWindow)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoad_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		drop    string
		wantErr string
	}{
		{"missing token", "PIPEDRIVE_TOKEN", "PIPEDRIVE_TOKEN is required"},
		{"missing status field", "CAMPO_STATUS_REGISTRO", "CAMPO_STATUS_REGISTRO is required"},
		{"missing start field", "CAMPO_DATA_INICIO_REGISTRO", "CAMPO_DATA_INICIO_REGISTRO is required"},
		{"missing contracts field", "CAMPO_DATA_TERMINO_CONTRATOS", "CAMPO_DATA_TERMINO_CONTRATOS is required"},
		{"missing itbi field", "CAMPO_DATA_TERMINO_ITBI", "CAMPO_DATA_TERMINO_ITBI is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := requiredEnv()
			delete(env, tt.drop)
			setupTestEnv(t, env)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvMapping(t *testing.T) {
	setupTestEnv(t, withEnv(map[string]string{
		"PIPEDRIVE_API":         "https://example.pipedrive.com/v1",
		"CAMPO_DATA_VENCIMENTO": "f_due",
		"OPTION_ID_FINALIZADO":  "87",
		"OPTION_ID_INICIAR":     "81",
		"TIPO_ATIVIDADE":        "Registro",
		"HORARIO_PADRAO":        "14:30",
		"DEAL_ID_TESTE":         "1234",
		"GATE_RATE_LIMIT_MAX":   "10",
		"GATE_DEBOUNCE_WINDOW":  "30s",
		"HTTP_PORT":             "9090",
		"CORS_ORIGINS":          "https://a.example, https://b.example,",
		"LOG_LEVEL":             "debug",
		"UNRELATED_VARIABLE":    "ignored",
	}))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pipedrive.Token != "tok-123" {
		t.Errorf("Token = %q", cfg.Pipedrive.Token)
	}
	if cfg.Pipedrive.BaseURL != "https://example.pipedrive.com/v1" {
		t.Errorf("BaseURL = %q", cfg.Pipedrive.BaseURL)
	}
	if cfg.Pipedrive.TestDealID != 1234 {
		t.Errorf("TestDealID = %d, want 1234", cfg.Pipedrive.TestDealID)
	}
	if cfg.Fields.Status != "f_status" || cfg.Fields.PrenotationDue != "f_due" {
		t.Errorf("Fields = %+v", cfg.Fields)
	}
	if cfg.Status.FinalizedID != 87 || cfg.Status.StartingID != 81 {
		t.Errorf("Status ids = %d/%d, want 87/81", cfg.Status.FinalizedID, cfg.Status.StartingID)
	}
	if cfg.Activity.Type != "Registro" || cfg.Activity.DueTime != "14:30" {
		t.Errorf("Activity = %+v", cfg.Activity)
	}
	if cfg.Gate.RateLimitMax != 10 {
		t.Errorf("Gate.RateLimitMax = %d, want 10", cfg.Gate.RateLimitMax)
	}
	if cfg.Gate.DebounceWindow != 30*time.Second {
		t.Errorf("Gate.DebounceWindow = %v, want 30s", cfg.Gate.DebounceWindow)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 entries", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_ConfigFileThenEnv(t *testing.T) {
	setupTestEnv(t, nil)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
pipedrive:
  token: file-token
fields:
  start_date: y_start
  status: y_status
  contracts_end: y_contracts
  itbi_end: y_itbi
activity:
  due_time: "08:15"
server:
  port: 7000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pipedrive.Token != "file-token" {
		t.Errorf("Token = %q, want file-token", cfg.Pipedrive.Token)
	}
	if cfg.Activity.DueTime != "08:15" {
		t.Errorf("DueTime = %q, want 08:15", cfg.Activity.DueTime)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want env override 7100", cfg.Server.Port)
	}
	if cfg.Activity.Type != "Averbações" {
		t.Errorf("Activity.Type = %q, want default", cfg.Activity.Type)
	}
}

func TestFindConfigFile(t *testing.T) {
	setupTestEnv(t, nil)

	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}

	t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() with missing CONFIG_PATH = %q, want empty", got)
	}

	if err := os.WriteFile("config.yml", []byte("{}"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := findConfigFile(); got != "config.yml" {
		t.Errorf("findConfigFile() = %q, want config.yml", got)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Pipedrive.Token = "t"
		cfg.Fields = FieldsConfig{StartDate: "a", Status: "b", ContractsEnd: "c", ITBIEnd: "d"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad due time", func(c *Config) { c.Activity.DueTime = "9:00" }, "HORARIO_PADRAO"},
		{"hour out of range", func(c *Config) { c.Activity.DueTime = "24:00" }, "HORARIO_PADRAO"},
		{"bad zone", func(c *Config) { c.Activity.TimeZone = "Mars/Olympus" }, "time zone"},
		{"zero rate max", func(c *Config) { c.Gate.RateLimitMax = 0 }, "GATE_RATE_LIMIT_MAX"},
		{"zero debounce", func(c *Config) { c.Gate.DebounceWindow = 0 }, "GATE_DEBOUNCE_WINDOW"},
		{"ttl below bucket", func(c *Config) { c.Gate.DuplicateTTL = time.Second }, "GATE_DUPLICATE_TTL"},
		{"same status ids", func(c *Config) { c.Status.FinalizedID, c.Status.StartingID = 5, 5 }, "must differ"},
		{"no finalized id or label", func(c *Config) { c.Status.FinalizedLabel = "" }, "OPTION_ID_FINALIZADO"},
		{"redis without addr", func(c *Config) { c.Redis.Enabled, c.Redis.Addr = true, "" }, "REDIS_ADDR"},
		{"events without topic", func(c *Config) { c.Events.Topic = " " }, "EVENTS_TOPIC"},
		{"events bad nats url", func(c *Config) { c.Events.NATSURL = "http://nats:4222" }, "EVENTS_NATS_URL"},
		{"events nats url", func(c *Config) { c.Events.NATSURL = "nats://nats:4222" }, ""},
		{"webhook user only", func(c *Config) { c.Webhook.Username = "u" }, "set together"},
		{"bad subscription url", func(c *Config) { c.Webhook.SubscriptionURL = "ftp://x" }, "scheme"},
		{"api url with query", func(c *Config) { c.Pipedrive.BaseURL = "https://api.pipedrive.com/v1?x=1" }, "query"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"short sweep", func(c *Config) { c.Sweep.Interval = time.Second }, "SWEEP_INTERVAL"},
		{"sweep disabled skips checks", func(c *Config) { c.Sweep.Enabled, c.Sweep.Interval = false, 0 }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://hooks.example.com/api/v1/webhooks/pipedrive", false},
		{"http://10.0.0.5:8080/", false},
		{"ftp://example.com", true},
		{"https://", true},
		{"://bad", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := validateHTTPURL(tt.url, "URL")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateHTTPURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestWebhookAuthEnabled(t *testing.T) {
	if (WebhookConfig{}).AuthEnabled() {
		t.Error("empty credentials should disable auth")
	}
	if !(WebhookConfig{Username: "u", Password: "p"}).AuthEnabled() {
		t.Error("credentials should enable auth")
	}
}
