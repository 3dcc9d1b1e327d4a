package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "CRITICA_"

// Config is loaded from defaults overridden by CRITICA_* environment
// variables (CRITICA_ADDR, CRITICA_JWT_SECRET, CRITICA_SMTP_HOST, ...).
type Config struct {
	Addr   string `koanf:"addr"`
	DBPath string `koanf:"db_path"`

	JWTSecret  string        `koanf:"jwt_secret"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`

	// Requests per minute per IP on the auth endpoints.
	AuthRateLimit int `koanf:"auth_rate_limit"`

	SMTPHost string `koanf:"smtp_host"`
	SMTPPort int    `koanf:"smtp_port"`
	SMTPUser string `koanf:"smtp_user"`
	SMTPPass string `koanf:"smtp_pass"`
	MailFrom string `koanf:"mail_from"`
}

func defaultConfig() Config {
	return Config{
		Addr:          ":8080",
		DBPath:        "./critica.db",
		AccessTTL:     24 * time.Hour,
		RefreshTTL:    30 * 24 * time.Hour,
		AuthRateLimit: 20,
		SMTPPort:      587,
		MailFrom:      "noreply@critica.local",
	}
}

func loadConfig() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("CRITICA_JWT_SECRET is required")
	}
	return cfg, nil
}
