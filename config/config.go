package config

import (
	"flag"
	"os"
	"sync"
)

const (
	defaultServerAddress = ":8080"
	defaultDatabaseDSN   = ""
	defaultMailFrom      = "CasePlus <orders@caseplus.example>"
	defaultLogLevel      = "debug"
)

type Config struct {
	ServerAddr          string
	DatabaseDSN         string
	StripeAPIKey        string
	StripeWebhookSecret string
	ResendAPIKey        string
	MailFrom            string
	AuthTokenKey        string
	LogLevel            string
}

var (
	once      sync.Once
	singleton *Config
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		cfg := Config{}

		// initialize flags
		flag.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "server address")
		flag.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "database DSN")
		flag.StringVar(&cfg.MailFrom, "f", defaultMailFrom, "confirmation mail sender")
		flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")

		flag.Parse()

		// if environment variable is set, then using it
		if runAddrEnv := os.Getenv("RUN_ADDRESS"); runAddrEnv != "" {
			cfg.ServerAddr = runAddrEnv
		}
		if dataBaseURIEnv := os.Getenv("DATABASE_URI"); dataBaseURIEnv != "" {
			cfg.DatabaseDSN = dataBaseURIEnv
		}
		if mailFromEnv := os.Getenv("MAIL_FROM"); mailFromEnv != "" {
			cfg.MailFrom = mailFromEnv
		}
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			cfg.LogLevel = logLevelEnv
		}

		// secrets are taken from environment only
		cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")
		cfg.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
		cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
		cfg.AuthTokenKey = os.Getenv("AUTH_TOKEN_KEY")

		singleton = &cfg
	})

	return singleton, nil
}
