package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Interval is the wait after a successful or empty cycle. It accepts a Go
	// duration ("5m"), an @every descriptor or a 5-field cron expression.
	Interval      string           `yaml:"interval"`
	RetryInterval time.Duration    `yaml:"retry_interval"`
	Log           LogConfig        `yaml:"log"`
	Google        GoogleConfig     `yaml:"google"`
	Source        SourceConfig     `yaml:"source"`
	Summarizer    SummarizerConfig `yaml:"summarizer"`
	Publisher     PublisherConfig  `yaml:"publisher"`
	Archive       ArchiveConfig    `yaml:"archive"`
	Status        StatusConfig     `yaml:"status"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GoogleConfig points at the OAuth client and the cached user-consented
// token shared by the gmail publisher and the gdrive source.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenFile    string `yaml:"token_file"`
}

type SourceConfig struct {
	Type    string        `yaml:"type"`
	OneNote OneNoteConfig `yaml:"onenote"`
	GDrive  GDriveConfig  `yaml:"gdrive"`
}

// OneNoteConfig configures the Microsoft Graph source. The client
// credentials are exchanged for an app-only bearer token.
type OneNoteConfig struct {
	TenantID       string        `yaml:"tenant_id"`
	ClientID       string        `yaml:"client_id"`
	ClientSecret   string        `yaml:"client_secret"`
	User           string        `yaml:"user"`
	BaseURL        string        `yaml:"base_url"`
	TokenURL       string        `yaml:"token_url"`
	Top            int           `yaml:"top"`
	ModifiedWithin time.Duration `yaml:"modified_within"`
}

type GDriveConfig struct {
	Top            int           `yaml:"top"`
	ModifiedWithin time.Duration `yaml:"modified_within"`
}

type SummarizerConfig struct {
	Type          string `yaml:"type"`
	Model         string `yaml:"model"`
	APIKey        string `yaml:"api_key"`
	MaxTokens     int    `yaml:"max_tokens"`
	MaxInputChars int    `yaml:"max_input_chars"`
	BaseURL       string `yaml:"base_url"`
}

type PublisherConfig struct {
	Type    string        `yaml:"type"`
	Gmail   GmailConfig   `yaml:"gmail"`
	Email   EmailConfig   `yaml:"email"`
	Discord DiscordConfig `yaml:"discord"`
}

type GmailConfig struct {
	To []string `yaml:"to"`
}

type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type EmailConfig struct {
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

type ArchiveConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config enables the digest archive when Bucket is set.
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// StatusConfig enables the HTTP status server when Addr is set.
type StatusConfig struct {
	Addr string `yaml:"addr"`
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-20250514",
	"cohere":    "command-r",
}

var apiKeyEnvVars = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"cohere":    "COHERE_API_KEY",
}

func setDefaults(cfg *Config) {
	if cfg.Interval == "" {
		cfg.Interval = "5m"
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = "onenote"
	}
	if cfg.Source.OneNote.BaseURL == "" {
		cfg.Source.OneNote.BaseURL = "https://graph.microsoft.com/v1.0"
	}
	if cfg.Source.OneNote.Top == 0 {
		cfg.Source.OneNote.Top = 20
	}
	if cfg.Source.GDrive.Top == 0 {
		cfg.Source.GDrive.Top = 20
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "openai"
	}
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = defaultModels[cfg.Summarizer.Type]
	}
	if cfg.Summarizer.MaxTokens == 0 {
		cfg.Summarizer.MaxTokens = 150
	}
	if cfg.Summarizer.MaxInputChars == 0 {
		cfg.Summarizer.MaxInputChars = 12000
	}
	if cfg.Publisher.Type == "" {
		cfg.Publisher.Type = "gmail"
	}
	if cfg.Publisher.Email.SMTPPort == 0 {
		cfg.Publisher.Email.SMTPPort = 587
	}
}

func validate(cfg *Config) error {
	if cfg.RetryInterval < 0 {
		return fmt.Errorf("config: retry_interval must not be negative")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unsupported log level %q (supported: debug, info, warn, error)", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported log format %q (supported: text, json)", cfg.Log.Format)
	}

	switch cfg.Source.Type {
	case "onenote":
		on := cfg.Source.OneNote
		if on.TenantID == "" && on.TokenURL == "" {
			return fmt.Errorf("config: source.onenote.tenant_id is required for onenote source")
		}
		if on.ClientID == "" || on.ClientSecret == "" {
			return fmt.Errorf("config: source.onenote.client_id and client_secret are required (set CLIENT_ID and CLIENT_SECRET env vars)")
		}
		// Client-credentials tokens are app-only; Graph rejects /me for them.
		if on.User == "" || strings.EqualFold(on.User, "me") {
			return fmt.Errorf("config: source.onenote.user must be a Graph user id or UPN for onenote source (set ONENOTE_USER env var)")
		}
	case "gdrive":
		if err := validateGoogle(cfg.Google); err != nil {
			return err
		}
	default:
		return fmt.Errorf("config: unsupported source type %q (supported: onenote, gdrive)", cfg.Source.Type)
	}

	if _, ok := defaultModels[cfg.Summarizer.Type]; !ok {
		return fmt.Errorf("config: unsupported summarizer type %q (supported: openai, anthropic, cohere)", cfg.Summarizer.Type)
	}
	if cfg.Summarizer.APIKey == "" {
		return fmt.Errorf("config: summarizer.api_key is required (set %s env var)", apiKeyEnvVars[cfg.Summarizer.Type])
	}
	if cfg.Summarizer.MaxTokens < 0 || cfg.Summarizer.MaxInputChars < 0 {
		return fmt.Errorf("config: summarizer.max_tokens and max_input_chars must not be negative")
	}

	switch cfg.Publisher.Type {
	case "gmail":
		if err := validateGoogle(cfg.Google); err != nil {
			return err
		}
		if len(cfg.Publisher.Gmail.To) == 0 {
			return fmt.Errorf("config: publisher.gmail.to is required for gmail publisher")
		}
	case "email":
		if cfg.Publisher.Email.SMTPHost == "" {
			return fmt.Errorf("config: publisher.email.smtp_host is required for email publisher")
		}
		if len(cfg.Publisher.Email.To) == 0 {
			return fmt.Errorf("config: publisher.email.to is required for email publisher")
		}
		if cfg.Publisher.Email.From == "" {
			return fmt.Errorf("config: publisher.email.from is required for email publisher")
		}
	case "discord":
		if cfg.Publisher.Discord.WebhookURL == "" {
			return fmt.Errorf("config: publisher.discord.webhook_url is required for discord publisher")
		}
	case "stdout":
	default:
		return fmt.Errorf("config: unsupported publisher type %q (supported: gmail, email, discord, stdout)", cfg.Publisher.Type)
	}
	return nil
}

func validateGoogle(g GoogleConfig) error {
	if g.ClientID == "" || g.ClientSecret == "" {
		return fmt.Errorf("config: google.client_id and google.client_secret are required (set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars)")
	}
	return nil
}

// Load reads the config file, expands environment variables, applies defaults,
// and validates the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
