// Package config loads the service configuration from flags, environment
// variables, an optional .env file and an optional YAML file, in that order
// of precedence. Any value given by a flag or a variable wins over the file,
// including an explicit false or zero.
package config

import (
    "errors"
    "fmt"
    "io/fs"
    "os"
    "strings"
    "time"

    "github.com/jessevdk/go-flags"
    "github.com/joho/godotenv"
    "gopkg.in/yaml.v3"
)

const (
    StrategyDirect   = "direct"
    StrategyStepwise = "stepwise"

    PhonePolicyExtract = "extract"
    PhonePolicyFixed   = "fixed"
)

type Config struct {
    ConfigFile string `short:"f" long:"config" env:"CONFIG_FILE" description:"optional YAML config file" yaml:"-"`

    Port     string `short:"p" long:"port" env:"PORT" description:"listen port" yaml:"port"`
    DemoMode bool   `long:"demo" env:"DEMO_MODE" description:"simulate the voice platform locally" yaml:"demo_mode"`
    Strategy string `long:"strategy" env:"STRATEGY" description:"dispatch strategy: direct|stepwise" yaml:"strategy"`
    PlanSteps bool  `long:"plan-steps" env:"PLAN_STEPS" description:"attach planned steps to workflow responses" yaml:"plan_steps"`

    RegistryBaseURL string `long:"registry-url" env:"REGISTRY_BASE_URL" description:"agent registry origin" yaml:"registry_base_url"`
    DispatchBaseURL string `long:"dispatch-url" env:"DISPATCH_BASE_URL" description:"call dispatch origin" yaml:"dispatch_base_url"`
    WebhookURL      string `long:"webhook-url" env:"WEBHOOK_URL" description:"callback URL baked into the concierge agent" yaml:"webhook_url"`
    HTTPTimeout     time.Duration `long:"http-timeout" env:"HTTP_TIMEOUT" description:"transport timeout for platform calls" yaml:"http_timeout"`

    PhonePolicy        string `long:"phone-policy" env:"PHONE_POLICY" description:"extract|fixed" yaml:"phone_policy"`
    DefaultPhoneNumber string `long:"default-phone" env:"DEFAULT_PHONE_NUMBER" yaml:"default_phone_number"`
    DemoPhoneNumber    string `long:"demo-phone" env:"DEMO_PHONE_NUMBER" yaml:"demo_phone_number"`

    CalendarID       string `long:"calendar-id" env:"GOOGLE_CALENDAR_ID" yaml:"calendar_id"`
    CredentialsFile  string `long:"credentials" env:"GOOGLE_APPLICATION_CREDENTIALS" yaml:"credentials_file"`
    CalendarTimeZone string `long:"calendar-tz" env:"CALENDAR_TIME_ZONE" yaml:"calendar_time_zone"`

    SearchURL string `long:"search-url" env:"SEARCH_URL" description:"search endpoint used by stepwise web_search steps; query appended as q=" yaml:"search_url"`

    LedgerRedisAddr     string        `long:"ledger-redis" env:"LEDGER_REDIS_ADDR" yaml:"ledger_redis_addr"`
    LedgerRedisPassword string        `long:"ledger-redis-password" env:"LEDGER_REDIS_PASSWORD" yaml:"ledger_redis_password"`
    LedgerTTL           time.Duration `long:"ledger-ttl" env:"LEDGER_TTL" yaml:"ledger_ttl"`

    DemoCallbackDelay time.Duration `long:"demo-callback-delay" env:"DEMO_CALLBACK_DELAY" yaml:"demo_callback_delay"`
    DemoResponseDelay time.Duration `long:"demo-response-delay" env:"DEMO_RESPONSE_DELAY" yaml:"demo_response_delay"`

    LogLevel  string `long:"log-level" env:"LOG_LEVEL" yaml:"log_level"`
    LogFormat string `long:"log-format" env:"LOG_FORMAT" description:"text|json" yaml:"log_format"`
}

// Load parses args (without the program name) into a Config.
func Load(args []string) (*Config, error) {
    envFile := os.Getenv("DOTENV_FILE")
    if envFile == "" { envFile = ".env" }
    if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
        return nil, fmt.Errorf("load %s: %w", envFile, err)
    }

    // first pass only finds the config file
    var first Config
    if _, err := flags.NewParser(&first, flags.HelpFlag|flags.PassDoubleDash).ParseArgs(args); err != nil {
        return nil, err
    }
    cfg := &Config{}
    if first.ConfigFile != "" {
        fileCfg, err := readYAML(first.ConfigFile)
        if err != nil { return nil, err }
        cfg = fileCfg
    }
    // options without a default are left alone unless a flag or variable sets them
    if _, err := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash).ParseArgs(args); err != nil {
        return nil, err
    }
    cfg.applyDefaults()
    if err := cfg.Validate(); err != nil { return nil, err }
    return cfg, nil
}

func readYAML(path string) (*Config, error) {
    b, err := os.ReadFile(path)
    if err != nil { return nil, fmt.Errorf("read config file: %w", err) }
    var c Config
    if err := yaml.Unmarshal(b, &c); err != nil {
        return nil, fmt.Errorf("parse config file %s: %w", path, err)
    }
    return &c, nil
}

func (c *Config) applyDefaults() {
    if c.Port == "" { c.Port = "5000" }
    if c.Strategy == "" { c.Strategy = StrategyDirect }
    if c.RegistryBaseURL == "" { c.RegistryBaseURL = "http://localhost:5001" }
    if c.DispatchBaseURL == "" { c.DispatchBaseURL = c.RegistryBaseURL }
    if c.WebhookURL == "" { c.WebhookURL = "http://localhost:" + c.Port + "/omnidim-webhook" }
    if c.HTTPTimeout <= 0 { c.HTTPTimeout = 30 * time.Second }
    if c.PhonePolicy == "" { c.PhonePolicy = PhonePolicyExtract }
    if c.DefaultPhoneNumber == "" { c.DefaultPhoneNumber = "+15551234567" }
    if c.DemoPhoneNumber == "" { c.DemoPhoneNumber = "+919319063787" }
    if c.CalendarTimeZone == "" { c.CalendarTimeZone = "UTC" }
    if c.LedgerTTL <= 0 { c.LedgerTTL = 7 * 24 * time.Hour }
    if c.DemoCallbackDelay <= 0 { c.DemoCallbackDelay = 2 * time.Second }
    if c.DemoResponseDelay <= 0 { c.DemoResponseDelay = 3 * time.Second }
    if c.LogLevel == "" { c.LogLevel = "info" }
    if c.LogFormat == "" { c.LogFormat = "text" }
    c.RegistryBaseURL = strings.TrimRight(c.RegistryBaseURL, "/")
    c.DispatchBaseURL = strings.TrimRight(c.DispatchBaseURL, "/")
}

func (c *Config) Validate() error {
    switch c.Strategy {
    case StrategyDirect, StrategyStepwise:
    default:
        return fmt.Errorf("unknown strategy %q", c.Strategy)
    }
    switch c.PhonePolicy {
    case PhonePolicyExtract, PhonePolicyFixed:
    default:
        return fmt.Errorf("unknown phone policy %q", c.PhonePolicy)
    }
    return nil
}

// CalendarConfigured reports whether both the target calendar and the
// service-account credentials are set.
func (c *Config) CalendarConfigured() bool {
    return c.CalendarID != "" && c.CredentialsFile != ""
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Port }
