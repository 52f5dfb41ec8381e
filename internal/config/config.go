package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"timesheet.service/internal/core/worklog"
)

// Deployed pods get their settings as environment variables. Locally an
// optional .env file is read first.

type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	IsLocalDev bool   `mapstructure:"IS_LOCAL_DEV"`

	AWSRegion               string `mapstructure:"AWS_REGION"`
	AWSEndpoint             string `mapstructure:"AWS_ENDPOINT"`
	NotificationSQSQueueURL string `mapstructure:"NOTIFICATION_SQS_QUEUE_URL"`
	EscalationSQSQueueURL   string `mapstructure:"ESCALATION_SQS_QUEUE_URL"`
	OTelExporterEndpoint    string `mapstructure:"OTEL_EXPORTER_ENDPOINT"`

	ProviderBaseURL       string `mapstructure:"PROVIDER_BASE_URL"`
	ProviderAPIKey        string `mapstructure:"PROVIDER_API_KEY"`
	ProviderAPIKeyHeader  string `mapstructure:"PROVIDER_API_KEY_HEADER"`
	ProviderEmployeesPath string `mapstructure:"PROVIDER_EMPLOYEES_PATH"`
	ProviderPunchesPath   string `mapstructure:"PROVIDER_PUNCHES_PATH"`

	ChatAPIURL    string `mapstructure:"CHAT_API_URL"`
	ChatBotToken  string `mapstructure:"CHAT_BOT_TOKEN"`
	HREmail       string `mapstructure:"HR_EMAIL"`
	HRChatChannel string `mapstructure:"HR_CHAT_CHANNEL"`
	EmailSender   string `mapstructure:"EMAIL_SENDER"`

	DailyCloseCron      string `mapstructure:"DAILY_CLOSE_CRON"`
	DailyCloseEnabled   bool   `mapstructure:"DAILY_CLOSE_ENABLED"`
	DailySummaryCron    string `mapstructure:"DAILY_SUMMARY_CRON"`
	DailySummaryEnabled bool   `mapstructure:"DAILY_SUMMARY_ENABLED"`
	TZ                  string `mapstructure:"TZ"`

	WorkdayStartHour     int `mapstructure:"WORKDAY_START_HOUR"`
	WorkdayStartMinute   int `mapstructure:"WORKDAY_START_MINUTE"`
	WorkdayEndHour       int `mapstructure:"WORKDAY_END_HOUR"`
	WorkdayEndMinute     int `mapstructure:"WORKDAY_END_MINUTE"`
	WorkdayExpectedMins  int `mapstructure:"WORKDAY_EXPECTED_MINUTES"`
	WorkdayToleranceMins int `mapstructure:"WORKDAY_TOLERANCE_MINUTES"`
	LunchEnabled         bool `mapstructure:"LUNCH_ENABLED"`
	LunchStartHour       int  `mapstructure:"LUNCH_START_HOUR"`
	LunchStartMinute     int  `mapstructure:"LUNCH_START_MINUTE"`
	LunchDurationMinutes int  `mapstructure:"LUNCH_DURATION_MINUTES"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// LoadConfig reads configuration from an optional .env file and the
// environment. Environment variables win over the file.
func LoadConfig() (config Config, err error) {
	// A missing .env is the normal case outside a laptop.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}
	return config, config.Validate()
}

func setDefaults(v *viper.Viper) {
	def := worklog.DefaultWorkdayConfig()

	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "timesheet_db")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("IS_LOCAL_DEV", false)

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("NOTIFICATION_SQS_QUEUE_URL", "http://localstack:4566/000000000000/notification-queue")
	v.SetDefault("ESCALATION_SQS_QUEUE_URL", "http://localstack:4566/000000000000/escalation-queue")
	v.SetDefault("OTEL_EXPORTER_ENDPOINT", "jaeger:4317")

	v.SetDefault("PROVIDER_BASE_URL", "http://localhost:8081")
	v.SetDefault("PROVIDER_API_KEY", "")
	v.SetDefault("PROVIDER_API_KEY_HEADER", "Authorization")
	v.SetDefault("PROVIDER_EMPLOYEES_PATH", "/employees")
	v.SetDefault("PROVIDER_PUNCHES_PATH", "/punches")

	v.SetDefault("CHAT_API_URL", "https://slack.com/api")
	v.SetDefault("CHAT_BOT_TOKEN", "")
	v.SetDefault("HR_EMAIL", "rh@example.com")
	v.SetDefault("HR_CHAT_CHANNEL", "")
	v.SetDefault("EMAIL_SENDER", "noreply@example.com")

	v.SetDefault("DAILY_CLOSE_CRON", "30 18 * * 1-5")
	v.SetDefault("DAILY_CLOSE_ENABLED", true)
	// After the close, so the day's occurrences exist.
	v.SetDefault("DAILY_SUMMARY_CRON", "45 18 * * 1-5")
	v.SetDefault("DAILY_SUMMARY_ENABLED", true)
	v.SetDefault("TZ", "America/Maceio")

	v.SetDefault("WORKDAY_START_HOUR", def.ExpectedStartHour)
	v.SetDefault("WORKDAY_START_MINUTE", def.ExpectedStartMinute)
	v.SetDefault("WORKDAY_END_HOUR", def.ExpectedEndHour)
	v.SetDefault("WORKDAY_END_MINUTE", def.ExpectedEndMinute)
	v.SetDefault("WORKDAY_EXPECTED_MINUTES", def.ExpectedWorkMinutes)
	v.SetDefault("WORKDAY_TOLERANCE_MINUTES", def.ToleranceMinutes)
	v.SetDefault("LUNCH_ENABLED", true)
	v.SetDefault("LUNCH_START_HOUR", def.LunchPolicy.StartHour)
	v.SetDefault("LUNCH_START_MINUTE", def.LunchPolicy.StartMinute)
	v.SetDefault("LUNCH_DURATION_MINUTES", def.LunchPolicy.DurationMinutes)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
}

// Workday converts the WORKDAY_* and LUNCH_* keys for the calculator.
func (c Config) Workday() worklog.WorkdayConfig {
	w := worklog.WorkdayConfig{
		ExpectedStartHour:   c.WorkdayStartHour,
		ExpectedStartMinute: c.WorkdayStartMinute,
		ExpectedEndHour:     c.WorkdayEndHour,
		ExpectedEndMinute:   c.WorkdayEndMinute,
		ExpectedWorkMinutes: c.WorkdayExpectedMins,
		ToleranceMinutes:    c.WorkdayToleranceMins,
	}
	if c.LunchEnabled {
		w.LunchPolicy = &worklog.LunchPolicy{
			StartHour:       c.LunchStartHour,
			StartMinute:     c.LunchStartMinute,
			DurationMinutes: c.LunchDurationMinutes,
		}
	}
	return w
}

// Location loads TZ, falling back to UTC when it is empty.
func (c Config) Location() (*time.Location, error) {
	if c.TZ == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.TZ)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate rejects workday settings the calculator cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.WorkdayExpectedMins <= 0 {
		errs = append(errs, errors.New("WORKDAY_EXPECTED_MINUTES must be positive"))
	}
	if c.WorkdayToleranceMins < 0 {
		errs = append(errs, errors.New("WORKDAY_TOLERANCE_MINUTES cannot be negative"))
	}
	if !validClock(c.WorkdayStartHour, c.WorkdayStartMinute) {
		errs = append(errs, errors.New("WORKDAY_START_HOUR/MINUTE is not a valid time of day"))
	}
	if !validClock(c.WorkdayEndHour, c.WorkdayEndMinute) {
		errs = append(errs, errors.New("WORKDAY_END_HOUR/MINUTE is not a valid time of day"))
	}
	if c.LunchEnabled {
		if !validClock(c.LunchStartHour, c.LunchStartMinute) {
			errs = append(errs, errors.New("LUNCH_START_HOUR/MINUTE is not a valid time of day"))
		}
		if c.LunchDurationMinutes < 0 {
			errs = append(errs, errors.New("LUNCH_DURATION_MINUTES cannot be negative"))
		}
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("TZ: %w", err))
	}
	return errors.Join(errs...)
}

func validClock(hour, minute int) bool {
	return hour >= 0 && hour < 24 && minute >= 0 && minute < 60
}
