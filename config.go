package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenPort string `yaml:"listen_port"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OracleModel     string `yaml:"oracle_model"`

	SinkWebhookURL string `yaml:"sink_webhook_url"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	DBPath        string `yaml:"db_path"`
	OverridesPath string `yaml:"overrides_path"`

	// Complaints treated as already seen at startup, compared against but
	// never re-appended.
	SeedComplaints []string `yaml:"seed_complaints"`

	SlackBotToken      string `yaml:"slack_bot_token"`
	AlertChannelID     string `yaml:"alert_channel_id"`
	DigestCronSchedule string `yaml:"digest_cron_schedule"`

	ReplyFromAddress string `yaml:"reply_from_address"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ListenPort, "LISTEN_PORT")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OracleModel, "ORACLE_MODEL")
	envOverride(&cfg.SinkWebhookURL, "SINK_WEBHOOK_URL")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.OverridesPath, "OVERRIDES_PATH")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.AlertChannelID, "ALERT_CHANNEL_ID")
	envOverride(&cfg.DigestCronSchedule, "DIGEST_CRON_SCHEDULE")
	envOverride(&cfg.ReplyFromAddress, "REPLY_FROM_ADDRESS")

	if seeds := os.Getenv("SEED_COMPLAINTS"); seeds != "" {
		cfg.SeedComplaints = nil
		for _, s := range strings.Split(seeds, ";") {
			s = strings.TrimSpace(s)
			if s != "" {
				cfg.SeedComplaints = append(cfg.SeedComplaints, s)
			}
		}
	}

	// Defaults
	if cfg.ListenPort == "" {
		cfg.ListenPort = "5000"
	}
	if cfg.OracleModel == "" {
		cfg.OracleModel = defaultOracleModel
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = 30
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./triagebot.db"
	}
	if cfg.ReplyFromAddress == "" {
		cfg.ReplyFromAddress = "support@example.com"
	}

	// Validate required fields. Neither value has a built-in fallback:
	// secrets and endpoints come from config or env, nowhere else.
	required := map[string]string{
		"anthropic_api_key": cfg.AnthropicAPIKey,
		"sink_webhook_url":  cfg.SinkWebhookURL,
	}
	for name, val := range required {
		if val == "" {
			log.Fatalf("Required config '%s' is not set (via config.yaml or env var)", name)
		}
	}

	if cfg.ExternalHTTPTimeoutSeconds < 1 {
		log.Fatalf("invalid external_http_timeout_seconds '%d': must be >= 1", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.OverridesPath != "" {
		if _, err := LoadOverrides(cfg.OverridesPath); err != nil {
			log.Fatalf("invalid overrides_path '%s': %v", cfg.OverridesPath, err)
		}
	}
	if cfg.DigestCronSchedule != "" && !cfg.SlackConfigured() {
		log.Fatalf("digest_cron_schedule requires slack_bot_token and alert_channel_id to be set")
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.AlertChannelID != ""
}
