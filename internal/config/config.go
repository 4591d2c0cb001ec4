package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Delivery channel names accepted by delivery.channel.
const (
	ChannelResend   = "resend"
	ChannelPostmark = "postmark"
	ChannelSMTP     = "smtp"
	ChannelGmail    = "gmail"
	ChannelSheets   = "sheets"
	ChannelFile     = "file"
)

const (
	defaultOwnerEmail = "default@resend.dev"
	defaultFromEmail  = "onboarding@resend.dev"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Clinic    ClinicConfig    `mapstructure:"clinic"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// AllowedOrigins is the CORS allowlist for the marketing front end.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding
	// headers name the real client. Empty means the peer address is used.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ClinicConfig holds the branding used in rendered emails
type ClinicConfig struct {
	Name string `mapstructure:"name"`
	// Timezone is an IANA zone name used to display submission times.
	Timezone string `mapstructure:"timezone"`
}

// DeliveryConfig selects and configures the single outbound channel
type DeliveryConfig struct {
	// Channel is one of resend, postmark, smtp, gmail, sheets, file.
	Channel string `mapstructure:"channel"`
	// OwnerEmail receives form submissions.
	OwnerEmail string `mapstructure:"owner_email"`
	// FromEmail is the sender address.
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`

	Resend   ResendConfig   `mapstructure:"resend"`
	Postmark PostmarkConfig `mapstructure:"postmark"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Gmail    GmailConfig    `mapstructure:"gmail"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	File     FileConfig     `mapstructure:"file"`
}

// ResendConfig holds Resend API configuration
type ResendConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// PostmarkConfig holds Postmark API configuration
type PostmarkConfig struct {
	ServerToken  string `mapstructure:"server_token"`
	AccountToken string `mapstructure:"account_token"`
}

// SMTPConfig holds SMTP relay configuration
type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// Secure selects implicit TLS (usually port 465). When false the
	// connection is upgraded with STARTTLS if the server offers it.
	Secure bool   `mapstructure:"secure"`
	User   string `mapstructure:"user"`
	Pass   string `mapstructure:"pass"`
}

// GmailConfig holds Gmail API configuration
type GmailConfig struct {
	// CredentialsJSON is a service account key with domain-wide delegation.
	CredentialsJSON string `mapstructure:"credentials_json"`
	// ClientID, ClientSecret and RefreshToken are the OAuth2 alternative.
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
}

// SheetsConfig holds Google Sheets configuration
type SheetsConfig struct {
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	// Range is the A1 range rows are appended to.
	Range               string `mapstructure:"range"`
	ServiceAccountEmail string `mapstructure:"service_account_email"`
	// PrivateKey is the PEM key; literal "\n" sequences are accepted.
	PrivateKey string `mapstructure:"private_key"`
	// CredentialsJSON may replace ServiceAccountEmail and PrivateKey.
	CredentialsJSON string `mapstructure:"credentials_json"`
}

// FileConfig holds the development file sink configuration
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

// RateLimitConfig holds intake rate limiting configuration
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds PostgreSQL configuration for the delivery log
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
	// AutoMigrate applies the embedded schema at server start.
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Owner returns the address that receives submissions.
func (c DeliveryConfig) Owner() string {
	if c.OwnerEmail != "" {
		return c.OwnerEmail
	}
	if c.FromEmail != "" {
		return c.FromEmail
	}
	return defaultOwnerEmail
}

// Sender returns the From address for outgoing email.
func (c DeliveryConfig) Sender() string {
	if c.FromEmail != "" {
		return c.FromEmail
	}
	if c.Channel == ChannelSMTP && c.SMTP.User != "" {
		return c.SMTP.User
	}
	return defaultFromEmail
}

// Missing lists the required settings of the selected channel that are empty.
// An unknown channel name is reported as a missing setting too.
func (c DeliveryConfig) Missing() []string {
	var missing []string
	need := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	switch c.Channel {
	case ChannelResend:
		need(c.Resend.APIKey, "API key")
	case ChannelPostmark:
		need(c.Postmark.ServerToken, "server token")
	case ChannelSMTP:
		need(c.SMTP.Host, "host")
		if c.SMTP.Port <= 0 {
			missing = append(missing, "port")
		}
		need(c.SMTP.User, "user")
		need(c.SMTP.Pass, "password")
	case ChannelGmail:
		if c.Gmail.CredentialsJSON == "" {
			need(c.Gmail.ClientID, "client ID")
			need(c.Gmail.ClientSecret, "client secret")
			need(c.Gmail.RefreshToken, "refresh token")
		}
		need(c.FromEmail, "from address")
	case ChannelSheets:
		need(c.Sheets.SpreadsheetID, "spreadsheet ID")
		if c.Sheets.CredentialsJSON == "" {
			need(c.Sheets.ServiceAccountEmail, "service account email")
			need(c.Sheets.PrivateKey, "private key")
		}
	case ChannelFile:
		need(c.File.Dir, "directory")
	default:
		missing = append(missing, fmt.Sprintf("known channel (got %q)", c.Channel))
	}

	return missing
}

// Configured reports whether the selected channel has every required setting.
func (c DeliveryConfig) Configured() bool {
	return len(c.Missing()) == 0
}

// legacyEnv maps config keys to the variable names used by earlier
// deployments of the clinic backend.
var legacyEnv = map[string]string{
	"server.port":                           "PORT",
	"server.allowed_origins":                "FRONTEND_URL",
	"delivery.owner_email":                  "OWNER_EMAIL",
	"delivery.from_email":                   "RESEND_FROM_EMAIL",
	"delivery.resend.api_key":               "RESEND_API_KEY",
	"delivery.postmark.server_token":        "POSTMARK_SERVER_TOKEN",
	"delivery.postmark.account_token":       "POSTMARK_ACCOUNT_TOKEN",
	"delivery.smtp.host":                    "SMTP_HOST",
	"delivery.smtp.port":                    "SMTP_PORT",
	"delivery.smtp.secure":                  "SMTP_SECURE",
	"delivery.smtp.user":                    "SMTP_USER",
	"delivery.smtp.pass":                    "SMTP_PASS",
	"delivery.sheets.spreadsheet_id":        "GOOGLE_SHEET_ID",
	"delivery.sheets.service_account_email": "GOOGLE_SERVICE_ACCOUNT_EMAIL",
	"delivery.sheets.private_key":           "GOOGLE_PRIVATE_KEY",
}

const envPrefix = "FORMRELAY"

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/formrelay")

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Bind environment variables
	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	// Prefixed names win over the legacy ones
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(replacer.Replace(key))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", legacy, err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Delivery.Channel = strings.ToLower(strings.TrimSpace(cfg.Delivery.Channel))

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.trusted_proxies", []string{})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Clinic defaults
	v.SetDefault("clinic.name", "Unveiled Echo Clinic")
	v.SetDefault("clinic.timezone", "UTC")

	// Delivery defaults
	v.SetDefault("delivery.channel", ChannelResend)
	v.SetDefault("delivery.owner_email", "")
	v.SetDefault("delivery.from_email", "")
	v.SetDefault("delivery.from_name", "")
	v.SetDefault("delivery.resend.api_key", "")
	v.SetDefault("delivery.postmark.server_token", "")
	v.SetDefault("delivery.postmark.account_token", "")
	v.SetDefault("delivery.smtp.host", "")
	v.SetDefault("delivery.smtp.port", 587)
	v.SetDefault("delivery.smtp.secure", false)
	v.SetDefault("delivery.smtp.user", "")
	v.SetDefault("delivery.smtp.pass", "")
	v.SetDefault("delivery.gmail.credentials_json", "")
	v.SetDefault("delivery.gmail.client_id", "")
	v.SetDefault("delivery.gmail.client_secret", "")
	v.SetDefault("delivery.gmail.refresh_token", "")
	v.SetDefault("delivery.sheets.spreadsheet_id", "")
	v.SetDefault("delivery.sheets.range", "Sheet1!A:E")
	v.SetDefault("delivery.sheets.service_account_email", "")
	v.SetDefault("delivery.sheets.private_key", "")
	v.SetDefault("delivery.sheets.credentials_json", "")
	v.SetDefault("delivery.file.dir", "./outbox")

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.limit", 5)
	v.SetDefault("rate_limit.window", "10m")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "formrelay")
	v.SetDefault("database.user", "formrelay")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.auto_migrate", true)
}
