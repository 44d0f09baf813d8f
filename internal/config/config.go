package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Scraper  ScraperConfig
	Alerts   AlertsConfig
	Reports  ReportsConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

// ScraperConfig covers the external scraping actor and the dispatch surface.
// Token is the only required credential: without it the dispatch endpoint
// refuses with a service-unavailable class error instead of half-working.
type ScraperConfig struct {
	Endpoint        string
	Token           string
	Timeout         time.Duration
	CallbackBaseURL string
	CallbackSecret  string
	DispatchAPIKey  string
	MaxInFlight     int
	DispatchCron    string
	StaleTimeout    time.Duration
}

type AlertsConfig struct {
	DiscordWebhookURLs []string
	SlackWebhookURL    string
	TelegramBotToken   string
	TelegramChatID     int64
}

type ReportsConfig struct {
	Threshold       int
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SCRAPER_TIMEOUT", "30s")
	viper.SetDefault("DISPATCH_MAX_INFLIGHT", 4)
	viper.SetDefault("STALE_JOB_TIMEOUT", "0")
	viper.SetDefault("REPORT_THRESHOLD", 5)
	viper.SetDefault("RATE_LIMIT_MAX", 5)
	viper.SetDefault("RATE_LIMIT_WINDOW", "15m")

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Scraper: ScraperConfig{
			Endpoint:        viper.GetString("SCRAPER_ENDPOINT"),
			Token:           viper.GetString("SCRAPER_TOKEN"),
			Timeout:         durationOr("SCRAPER_TIMEOUT", 30*time.Second),
			CallbackBaseURL: viper.GetString("CALLBACK_BASE_URL"),
			CallbackSecret:  viper.GetString("CALLBACK_SECRET"),
			DispatchAPIKey:  viper.GetString("DISPATCH_API_KEY"),
			MaxInFlight:     viper.GetInt("DISPATCH_MAX_INFLIGHT"),
			DispatchCron:    viper.GetString("DISPATCH_CRON"),
			StaleTimeout:    durationOr("STALE_JOB_TIMEOUT", 0),
		},
		Alerts: AlertsConfig{
			DiscordWebhookURLs: splitList(viper.GetString("DISCORD_WEBHOOK_URLS")),
			SlackWebhookURL:    viper.GetString("SLACK_WEBHOOK_URL"),
			TelegramBotToken:   viper.GetString("TELEGRAM_BOT_TOKEN"),
			TelegramChatID:     viper.GetInt64("TELEGRAM_CHAT_ID"),
		},
		Reports: ReportsConfig{
			Threshold:       viper.GetInt("REPORT_THRESHOLD"),
			RateLimitMax:    viper.GetInt("RATE_LIMIT_MAX"),
			RateLimitWindow: durationOr("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Scraper.Token == "" {
		log.Println("WARNING: SCRAPER_TOKEN is not set, dispatch is disabled")
	}

	return cfg, nil
}

// LoadDatabaseOnly reads only the database settings, for the bootstrap flag.
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	_ = godotenv.Load()
	viper.AutomaticEnv()
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")

	return &DatabaseConfig{
		Host:    viper.GetString("DB_HOST"),
		Port:    viper.GetString("DB_PORT"),
		Name:    viper.GetString("DB_NAME"),
		User:    viper.GetString("DB_USER"),
		Pass:    viper.GetString("DB_PASS"),
		Charset: viper.GetString("DB_CHARSET"),
	}, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}

func durationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	if raw == "" || raw == "0" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
