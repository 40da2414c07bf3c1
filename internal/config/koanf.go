// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/dealwatch/config.yaml",
	"/etc/dealwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. They are loaded first and then
// overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Pipedrive: PipedriveConfig{
			BaseURL:           "https://api.pipedrive.com/v1",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 8,
			Burst:             16,
		},
		Status: StatusConfig{
			FinalizedLabel: "finalizado",
			StartingLabel:  "iniciar",
			ObjectionLabel: "atendendo nota devolutiva",
		},
		Activity: ActivityConfig{
			Type:             "Averbações",
			DueTime:          "09:00",
			TimeZone:         "America/Sao_Paulo",
			DealCacheTTL:     time.Minute,
			ActivityCacheTTL: 5 * time.Minute,
		},
		Gate: GateConfig{
			DuplicateBucket: 10 * time.Second,
			DuplicateTTL:    120 * time.Second,
			DebounceWindow:  60 * time.Second,
			RateLimitWindow: 60 * time.Second,
			RateLimitMax:    30,
			SweepInterval:   time.Minute,
		},
		Sweep: SweepConfig{
			Enabled:          true,
			Interval:         time.Hour,
			MaxConcurrent:    4,
			ExecutionTimeout: 2 * time.Minute,
		},
		Registry: RegistryConfig{
			GCInterval: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:   "127.0.0.1:6379",
			Prefix: "dealwatch:gate",
			TTL:    24 * time.Hour,
		},
		Events: EventsConfig{
			Enabled: true,
			Topic:   "dealwatch.activities.created",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// sliceConfigPaths are keys that arrive from env as comma-separated strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// envMappings translates environment variable names (lowercased) to koanf
// paths. The Portuguese field names are kept for deployments that already
// export them.
var envMappings = map[string]string{
	"pipedrive_token":   "pipedrive.token",
	"pipedrive_api":     "pipedrive.base_url",
	"pipedrive_timeout": "pipedrive.timeout",
	"pipedrive_rps":     "pipedrive.requests_per_second",
	"pipedrive_burst":   "pipedrive.burst",
	"deal_id_teste":     "pipedrive.test_deal_id",

	"campo_data_inicio_registro":   "fields.start_date",
	"campo_status_registro":        "fields.status",
	"campo_data_termino_contratos": "fields.contracts_end",
	"campo_data_termino_itbi":      "fields.itbi_end",
	"campo_data_vencimento":        "fields.prenotation_due",

	"option_id_finalizado":      "status.finalized_id",
	"option_id_iniciar":         "status.starting_id",
	"option_id_nota_devolutiva": "status.objection_id",
	"status_label_finalizado":   "status.finalized_label",
	"status_label_iniciar":      "status.starting_label",
	"status_label_devolutiva":   "status.objection_label",

	"tipo_atividade":     "activity.type",
	"horario_padrao":     "activity.due_time",
	"timezone":           "activity.time_zone",
	"deal_cache_ttl":     "activity.deal_cache_ttl",
	"activity_cache_ttl": "activity.activity_cache_ttl",

	"gate_duplicate_bucket":  "gate.duplicate_bucket",
	"gate_duplicate_ttl":     "gate.duplicate_ttl",
	"gate_debounce_window":   "gate.debounce_window",
	"gate_rate_limit_window": "gate.rate_limit_window",
	"gate_rate_limit_max":    "gate.rate_limit_max",
	"gate_sweep_interval":    "gate.sweep_interval",

	"sweep_enabled":        "sweep.enabled",
	"sweep_interval":       "sweep.interval",
	"sweep_max_concurrent": "sweep.max_concurrent",
	"sweep_exec_timeout":   "sweep.execution_timeout",

	"registry_path":        "registry.path",
	"registry_gc_interval": "registry.gc_interval",

	"events_enabled":  "events.enabled",
	"events_nats_url": "events.nats_url",
	"events_topic":    "events.topic",

	"redis_enabled":  "redis.enabled",
	"redis_addr":     "redis.addr",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",
	"redis_prefix":   "redis.prefix",
	"redis_ttl":      "redis.ttl",

	"webhook_user":             "webhook.username",
	"webhook_password":         "webhook.password",
	"webhook_subscription_url": "webhook.subscription_url",

	"http_host":        "server.host",
	"http_port":        "server.port",
	"server_timeout":   "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	"admin_api_key":      "security.admin_api_key",
	"rate_limit_reqs":    "security.rate_limit_reqs",
	"rate_limit_window":  "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",
	"cors_origins":       "security.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables: explicit mapping, highest priority
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// processSliceFields splits comma-separated env values into string slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps an environment variable to its koanf path.
// Unmapped variables return "" and are skipped, so unrelated environment
// never leaks into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
