// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var dueTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validatePipedrive,
		c.validateFields,
		c.validateStatus,
		c.validateActivity,
		c.validateGate,
		c.validateSweep,
		c.validateRedis,
		c.validateEvents,
		c.validateWebhook,
		c.validateServer,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validatePipedrive() error {
	if strings.TrimSpace(c.Pipedrive.Token) == "" {
		return fmt.Errorf("PIPEDRIVE_TOKEN is required")
	}
	if err := validateAPIBaseURL(c.Pipedrive.BaseURL, "PIPEDRIVE_API"); err != nil {
		return err
	}
	if c.Pipedrive.Timeout <= 0 {
		return fmt.Errorf("PIPEDRIVE_TIMEOUT must be positive, got %v", c.Pipedrive.Timeout)
	}
	if c.Pipedrive.RequestsPerSecond <= 0 {
		return fmt.Errorf("PIPEDRIVE_RPS must be positive, got %v", c.Pipedrive.RequestsPerSecond)
	}
	if c.Pipedrive.Burst < 1 {
		return fmt.Errorf("PIPEDRIVE_BURST must be at least 1, got %d", c.Pipedrive.Burst)
	}
	return nil
}

func (c *Config) validateFields() error {
	required := []struct {
		value string
		env   string
	}{
		{c.Fields.StartDate, "CAMPO_DATA_INICIO_REGISTRO"},
		{c.Fields.Status, "CAMPO_STATUS_REGISTRO"},
		{c.Fields.ContractsEnd, "CAMPO_DATA_TERMINO_CONTRATOS"},
		{c.Fields.ITBIEnd, "CAMPO_DATA_TERMINO_ITBI"},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is required", f.env)
		}
	}
	return nil
}

func (c *Config) validateStatus() error {
	s := c.Status
	if s.FinalizedID < 0 || s.StartingID < 0 || s.ObjectionID < 0 {
		return fmt.Errorf("status option ids must not be negative")
	}
	if s.FinalizedID == 0 && strings.TrimSpace(s.FinalizedLabel) == "" {
		return fmt.Errorf("either OPTION_ID_FINALIZADO or a finalized label is required")
	}
	if s.StartingID == 0 && strings.TrimSpace(s.StartingLabel) == "" {
		return fmt.Errorf("either OPTION_ID_INICIAR or a starting label is required")
	}
	if s.FinalizedID != 0 && s.FinalizedID == s.StartingID {
		return fmt.Errorf("OPTION_ID_FINALIZADO and OPTION_ID_INICIAR must differ")
	}
	return nil
}

func (c *Config) validateActivity() error {
	if strings.TrimSpace(c.Activity.Type) == "" {
		return fmt.Errorf("TIPO_ATIVIDADE must not be empty")
	}
	if !dueTimePattern.MatchString(c.Activity.DueTime) {
		return fmt.Errorf("HORARIO_PADRAO must be HH:MM, got %q", c.Activity.DueTime)
	}
	if _, err := c.Activity.Location(); err != nil {
		return err
	}
	if c.Activity.DealCacheTTL < 0 || c.Activity.ActivityCacheTTL < 0 {
		return fmt.Errorf("cache TTLs must not be negative")
	}
	return nil
}

func (c *Config) validateGate() error {
	g := c.Gate
	durations := map[string]time.Duration{
		"GATE_DUPLICATE_BUCKET":  g.DuplicateBucket,
		"GATE_DUPLICATE_TTL":     g.DuplicateTTL,
		"GATE_DEBOUNCE_WINDOW":   g.DebounceWindow,
		"GATE_RATE_LIMIT_WINDOW": g.RateLimitWindow,
		"GATE_SWEEP_INTERVAL":    g.SweepInterval,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	if g.RateLimitMax < 1 {
		return fmt.Errorf("GATE_RATE_LIMIT_MAX must be at least 1, got %d", g.RateLimitMax)
	}
	if g.DuplicateTTL < g.DuplicateBucket {
		return fmt.Errorf("GATE_DUPLICATE_TTL (%v) must cover at least one bucket (%v)", g.DuplicateTTL, g.DuplicateBucket)
	}
	return nil
}

func (c *Config) validateSweep() error {
	if !c.Sweep.Enabled {
		return nil
	}
	if c.Sweep.Interval < time.Minute {
		return fmt.Errorf("SWEEP_INTERVAL must be at least 1m, got %v", c.Sweep.Interval)
	}
	if c.Sweep.MaxConcurrent < 1 {
		return fmt.Errorf("SWEEP_MAX_CONCURRENT must be at least 1, got %d", c.Sweep.MaxConcurrent)
	}
	if c.Sweep.ExecutionTimeout <= 0 {
		return fmt.Errorf("SWEEP_EXEC_TIMEOUT must be positive, got %v", c.Sweep.ExecutionTimeout)
	}
	return nil
}

func (c *Config) validateRedis() error {
	if !c.Redis.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Events.Topic) == "" {
		return fmt.Errorf("EVENTS_TOPIC is required when EVENTS_ENABLED=true")
	}
	if u := c.Events.NATSURL; u != "" && !strings.HasPrefix(u, "nats://") && !strings.HasPrefix(u, "tls://") {
		return fmt.Errorf("EVENTS_NATS_URL must use nats:// or tls://, got %q", u)
	}
	return nil
}

func (c *Config) validateWebhook() error {
	w := c.Webhook
	if (w.Username == "") != (w.Password == "") {
		return fmt.Errorf("WEBHOOK_USER and WEBHOOK_PASSWORD must be set together")
	}
	if w.SubscriptionURL != "" {
		if err := validateHTTPURL(w.SubscriptionURL, "WEBHOOK_SUBSCRIPTION_URL"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive")
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQS must be at least 1 unless DISABLE_RATE_LIMIT=true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
