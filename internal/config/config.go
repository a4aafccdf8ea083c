package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/iplan/cellact/internal/parser"
	"github.com/iplan/cellact/internal/phone"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	Gateway    GatewayConfig  `mapstructure:"gateway"`
	Phone      PhoneConfig    `mapstructure:"phone"`
	Parsing    ParsingConfig  `mapstructure:"parsing"`
	HTTP       HTTPConfig     `mapstructure:"http"`
	Webhook    WebhookConfig  `mapstructure:"webhook"`
	MySQL      DatabaseConfig `mapstructure:"mysql"`
	ClickHouse DatabaseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	Dedupe     DedupeConfig   `mapstructure:"dedupe"`
	Puller     PullerConfig   `mapstructure:"puller"`
	Log        LogConfig      `mapstructure:"log"`
}

// ---- Leaf structs ----

type GatewayConfig struct {
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	Company   string        `mapstructure:"company"`
	URLs      GatewayURLs   `mapstructure:"urls"`
	TimeZone  string        `mapstructure:"time_zone"`
	TimeoutMs int           `mapstructure:"timeout_ms"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

type GatewayURLs struct {
	SendSMS    string `mapstructure:"send_sms"`
	ReportPull string `mapstructure:"report_pull"`
}

type BreakerConfig struct {
	FailThreshold int `mapstructure:"fail_threshold"`
	OpenForMs     int `mapstructure:"open_for_ms"`
}

type PhoneConfig struct {
	CountryCode        string `mapstructure:"country_code"`
	CellularLength     int    `mapstructure:"cellular_length"`
	LandLineLengths    []int  `mapstructure:"land_line_lengths"`
	SenderNumberPolicy string `mapstructure:"sender_number_policy"`
}

type ParsingConfig struct {
	ReplyDialect    string `mapstructure:"reply_dialect"`
	ReplyDatePolicy string `mapstructure:"reply_date_policy"`
}

type HTTPConfig struct {
	Addr        string `mapstructure:"addr"`
	SendEnabled bool   `mapstructure:"send_enabled"`
}

type WebhookConfig struct {
	Token     string          `mapstructure:"token"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers           []string      `mapstructure:"brokers"`
	NotificationTopic string        `mapstructure:"notification_topic"`
	ReplyTopic        string        `mapstructure:"reply_topic"`
	BatchTimeout      time.Duration `mapstructure:"batch_timeout"`
}

type DedupeConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type PullerConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (CELLACT_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// env override (CELLACT_GATEWAY_USERNAME, ...)
	v.SetEnvPrefix("CELLACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if !phone.SenderPolicy(c.Phone.SenderNumberPolicy).Valid() {
		return fmt.Errorf("phone.sender_number_policy: unknown policy %q", c.Phone.SenderNumberPolicy)
	}
	if !parser.Dialect(c.Parsing.ReplyDialect).Valid() {
		return fmt.Errorf("parsing.reply_dialect: unknown dialect %q", c.Parsing.ReplyDialect)
	}
	if !parser.DatePolicy(c.Parsing.ReplyDatePolicy).Valid() {
		return fmt.Errorf("parsing.reply_date_policy: unknown policy %q", c.Parsing.ReplyDatePolicy)
	}

	return nil
}

// Location resolves the gateway time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Gateway.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("gateway.time_zone: %w", err)
	}

	return loc, nil
}

// RequireCredentials is checked by commands that talk to the gateway.
func (c Config) RequireCredentials() error {
	for _, f := range []struct{ name, value string }{
		{"gateway.username", c.Gateway.Username},
		{"gateway.password", c.Gateway.Password},
		{"gateway.company", c.Gateway.Company},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("missing required attribute %s", f.name)
		}
	}

	return nil
}

func (c Config) Plan() phone.Plan {
	return phone.Plan{
		CountryCode:     c.Phone.CountryCode,
		CellularLength:  c.Phone.CellularLength,
		LandLineLengths: c.Phone.LandLineLengths,
		SenderPolicy:    phone.SenderPolicy(c.Phone.SenderNumberPolicy),
	}
}

// ParserOptions bundles what every parser needs. The location must come
// from Location().
func (c Config) ParserOptions(loc *time.Location) parser.Options {
	return parser.Options{
		Location:        loc,
		Plan:            c.Plan(),
		ReplyDatePolicy: parser.DatePolicy(c.Parsing.ReplyDatePolicy),
	}
}
