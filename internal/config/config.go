package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported values for the enumerated settings.
const (
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
	ProviderNone     = "none"
	TelegramModeHook = "webhook"
	TelegramModePoll = "poll"
	StorageSQLite    = "sqlite"
	StoragePostgres  = "postgres"
)

const (
	defaultTimezone    = "UTC"
	defaultPushTime    = "06:00"
	defaultReaderURL   = "https://readwise.io/api/v3"
	defaultTelegramURL = "https://api.telegram.org"

	configPathEnv     = "CAPTURE_ROUTER_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	portEnv           = "PORT"
	publicURLEnv      = "PUBLIC_URL"
	readerTokenEnv    = "READWISE_TOKEN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	telegramSecretEnv = "TELEGRAM_WEBHOOK_SECRET"
	llmProviderEnv    = "LLM_PROVIDER"
	llmAPIKeyEnv      = "LLM_API_KEY"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	llmModelEnv       = "LLM_MODEL"
	databaseDSNEnv    = "DATABASE_DSN"
	databaseDriverEnv = "DATABASE_DRIVER"
	digestPushTimeEnv = "DAILY_PUSH_TIME"
	digestTimezoneEnv = "DIGEST_TIMEZONE"
)

// ErrInvalid is returned by Validate when required settings are missing.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting the process needs; it is loaded and validated once.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Telegram TelegramConfig `yaml:"telegram"`
	Reader   ReaderConfig   `yaml:"reader"`
	LLM      LLMConfig      `yaml:"llm"`
	Capture  CaptureConfig  `yaml:"capture"`
	Digest   DigestConfig   `yaml:"digest"`
	Storage  StorageConfig  `yaml:"storage"`
	Domains  []DomainConfig `yaml:"domains"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig describes the webhook HTTP listener.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	PublicURL string `yaml:"publicUrl"`
}

// TelegramConfig wires the bot and the single authorized chat.
type TelegramConfig struct {
	BotToken      string        `yaml:"botToken"`
	ChatID        int64         `yaml:"chatId"`
	WebhookSecret string        `yaml:"webhookSecret"`
	Mode          string        `yaml:"mode"`
	PollTimeout   time.Duration `yaml:"pollTimeout"`
	APIBaseURL    string        `yaml:"apiBaseUrl"`
}

// ReaderConfig points at the Readwise Reader API.
type ReaderConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Token   string `yaml:"token"`
}

// LLMConfig selects and configures the generative backend.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	// Endpoint is the OpenAI-compatible chat completions URL.
	Endpoint string `yaml:"endpoint"`
	// GeminiEndpoint overrides the Gemini API base URL; empty keeps the SDK default.
	GeminiEndpoint string        `yaml:"geminiEndpoint"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"apiKey"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Enabled reports whether a backend should be constructed.
func (l LLMConfig) Enabled() bool {
	return l.Provider != ProviderNone && l.Provider != "" && l.APIKey != ""
}

// CaptureConfig tunes the capture flow.
type CaptureConfig struct {
	BaseTag        string `yaml:"baseTag"`
	TitleMaxLength int    `yaml:"titleMaxLength"`
}

// DigestConfig tunes the daily digest run.
type DigestConfig struct {
	Label      string         `yaml:"label"`
	PushTime   string         `yaml:"pushTime"`
	Timezone   string         `yaml:"timezone"`
	SinceHours int            `yaml:"sinceHours"`
	Location   string         `yaml:"location"`
	MaxResults int            `yaml:"maxResults"`
	PushedTag  string         `yaml:"pushedTag"`
	Interests  string         `yaml:"interests"`
	RunDomains bool           `yaml:"runDomains"`
	location   *time.Location `yaml:"-"`
}

// TimeLocation resolves the digest timezone string to a time.Location.
func (d DigestConfig) TimeLocation() *time.Location {
	if d.location != nil {
		return d.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// StorageConfig describes the capture audit log database.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// DomainConfig describes one per-domain digest and its feeds.
type DomainConfig struct {
	Key         string       `yaml:"key"`
	Name        string       `yaml:"name"`
	Glyph       string       `yaml:"glyph"`
	MaxItems    int          `yaml:"maxItems"`
	UseAIFilter bool         `yaml:"useAiFilter"`
	Feeds       []FeedConfig `yaml:"feeds"`
}

// FeedConfig is one syndicated source of a domain digest.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Kind string `yaml:"kind"`
}

// Domain looks up a domain digest by key.
func (c Config) Domain(key string) (DomainConfig, bool) {
	for _, d := range c.Domains {
		if d.Key == key {
			return d, true
		}
	}
	return DomainConfig{}, false
}

// Load reads .env, the YAML file (if present) and environment overrides.
// An empty path falls back to CAPTURE_ROUTER_CONFIG.
func Load(path string) Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: cannot read .env: %v", err)
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Validate reports every missing required setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Reader.Token == "" {
		errs = append(errs, fmt.Errorf("%s is required", readerTokenEnv))
	}
	if c.Telegram.BotToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", telegramTokenEnv))
	}
	if c.Telegram.ChatID == 0 {
		errs = append(errs, fmt.Errorf("%s is required", telegramChatIDEnv))
	}
	switch c.Telegram.Mode {
	case TelegramModeHook, TelegramModePoll:
	default:
		errs = append(errs, fmt.Errorf("telegram mode %q is not supported", c.Telegram.Mode))
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("llm provider %q is not supported", c.LLM.Provider))
	}
	switch c.Storage.Driver {
	case StorageSQLite, StoragePostgres, "":
	default:
		errs = append(errs, fmt.Errorf("storage driver %q is not supported", c.Storage.Driver))
	}
	if _, err := ParsePushTime(c.Digest.PushTime); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// ParsePushTime converts an "HH:MM" string into an offset from midnight.
func ParsePushTime(value string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("push time %q must look like HH:MM", value)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(portEnv); v != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv(publicURLEnv); v != "" {
		c.Server.PublicURL = v
	}

	if v := os.Getenv(readerTokenEnv); v != "" {
		c.Reader.Token = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err != nil {
			log.Printf("config: %s is not numeric: %v", telegramChatIDEnv, err)
		} else {
			c.Telegram.ChatID = id
		}
	}
	if v := os.Getenv(telegramSecretEnv); v != "" {
		c.Telegram.WebhookSecret = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
		c.LLM.Provider = ProviderOpenAI
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
		c.LLM.Provider = ProviderGemini
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(digestPushTimeEnv); v != "" {
		c.Digest.PushTime = v
	}
	if v := os.Getenv(digestTimezoneEnv); v != "" {
		c.Digest.Timezone = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Digest.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Digest.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.PublicURL != "" {
		base.Server.PublicURL = override.Server.PublicURL
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != 0 {
		base.Telegram.ChatID = override.Telegram.ChatID
	}
	if override.Telegram.WebhookSecret != "" {
		base.Telegram.WebhookSecret = override.Telegram.WebhookSecret
	}
	if override.Telegram.Mode != "" {
		base.Telegram.Mode = override.Telegram.Mode
	}
	if override.Telegram.PollTimeout != 0 {
		base.Telegram.PollTimeout = override.Telegram.PollTimeout
	}
	if override.Telegram.APIBaseURL != "" {
		base.Telegram.APIBaseURL = override.Telegram.APIBaseURL
	}

	if override.Reader.BaseURL != "" {
		base.Reader.BaseURL = override.Reader.BaseURL
	}
	if override.Reader.Token != "" {
		base.Reader.Token = override.Reader.Token
	}

	if override.LLM.Provider != "" {
		base.LLM.Provider = override.LLM.Provider
	}
	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.GeminiEndpoint != "" {
		base.LLM.GeminiEndpoint = override.LLM.GeminiEndpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Timeout != 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}

	if override.Capture.BaseTag != "" {
		base.Capture.BaseTag = override.Capture.BaseTag
	}
	if override.Capture.TitleMaxLength > 0 {
		base.Capture.TitleMaxLength = override.Capture.TitleMaxLength
	}

	if override.Digest.Label != "" {
		base.Digest.Label = override.Digest.Label
	}
	if override.Digest.PushTime != "" {
		base.Digest.PushTime = override.Digest.PushTime
	}
	if override.Digest.Timezone != "" {
		base.Digest.Timezone = override.Digest.Timezone
	}
	if override.Digest.SinceHours > 0 {
		base.Digest.SinceHours = override.Digest.SinceHours
	}
	if override.Digest.Location != "" {
		base.Digest.Location = override.Digest.Location
	}
	if override.Digest.MaxResults > 0 {
		base.Digest.MaxResults = override.Digest.MaxResults
	}
	if override.Digest.PushedTag != "" {
		base.Digest.PushedTag = override.Digest.PushedTag
	}
	if override.Digest.Interests != "" {
		base.Digest.Interests = override.Digest.Interests
	}
	if override.Digest.RunDomains {
		base.Digest.RunDomains = true
	}

	if override.Storage.Driver != "" {
		base.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.DSN != "" {
		base.Storage.DSN = override.Storage.DSN
	}

	if len(override.Domains) > 0 {
		base.Domains = override.Domains
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: ":8080"},
		Telegram: TelegramConfig{
			Mode:        TelegramModeHook,
			PollTimeout: 30 * time.Second,
			APIBaseURL:  defaultTelegramURL,
		},
		Reader: ReaderConfig{BaseURL: defaultReaderURL},
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			Timeout:  30 * time.Second,
		},
		Capture: CaptureConfig{BaseTag: "#tg-capture", TitleMaxLength: 30},
		Digest: DigestConfig{
			Label:      "Daily picks",
			PushTime:   defaultPushTime,
			Timezone:   defaultTimezone,
			SinceHours: 24,
			Location:   "feed",
			MaxResults: 10,
			PushedTag:  "#pushed",
			Interests: `Reader interests:
1. Medicine: cardiac surgery, ECMO, VAD, clinical research
2. AI: LLM applications, AI tooling, coding agents
3. International affairs: geopolitics, international relations
4. Knowledge management: PKM, note-taking methods, learning techniques`,
			location: tz,
		},
		Storage: StorageConfig{Driver: StorageSQLite, DSN: "file:captures.db?_pragma=busy_timeout(5000)"},
		Domains: defaultDomains(),
	}
}

func defaultDomains() []DomainConfig {
	return []DomainConfig{
		{
			Key: "ai", Name: "AI", Glyph: "🤖", MaxItems: 8, UseAIFilter: true,
			Feeds: []FeedConfig{
				{Name: "Simon Willison", URL: "https://simonwillison.net/atom/everything/"},
				{Name: "Anthropic", URL: "https://www.anthropic.com/rss.xml"},
				{Name: "Latent Space", URL: "https://www.latent.space/feed"},
				{Name: "Import AI", URL: "https://importai.substack.com/feed"},
				{Name: "arXiv cs.AI", URL: "https://export.arxiv.org/list/cs.AI/new", Kind: "arxiv"},
			},
		},
		{
			Key: "international", Name: "International", Glyph: "🌍", MaxItems: 6, UseAIFilter: true,
			Feeds: []FeedConfig{
				{Name: "Foreign Affairs", URL: "https://www.foreignaffairs.com/rss.xml"},
				{Name: "Foreign Policy", URL: "https://foreignpolicy.com/feed/"},
				{Name: "Project Syndicate", URL: "https://www.project-syndicate.org/rss"},
			},
		},
		{
			Key: "github", Name: "GitHub", Glyph: "💻", MaxItems: 8, UseAIFilter: false,
			Feeds: []FeedConfig{
				{Name: "GitHub Trending (Go)", URL: "https://mshibanami.github.io/GitHubTrendingRSS/daily/go.xml"},
				{Name: "GitHub Trending (All)", URL: "https://mshibanami.github.io/GitHubTrendingRSS/daily/all.xml"},
			},
		},
		{
			Key: "knowledge", Name: "Knowledge & Productivity", Glyph: "📚", MaxItems: 6, UseAIFilter: true,
			Feeds: []FeedConfig{
				{Name: "Ness Labs", URL: "https://nesslabs.com/feed"},
				{Name: "Cal Newport", URL: "https://calnewport.com/feed/"},
				{Name: "Forte Labs", URL: "https://fortelabs.com/feed/"},
			},
		},
	}
}
