package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must(); the
// rest fall back to development defaults.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBDriver string // "mysql" (default) or "sqlite"
	DBUser   string // database username
	DBPass   string // database password (optional)
	DBHost   string // database host address
	DBPort   string // database port number
	DBName   string // database name
	DBPath   string // sqlite file path or ":memory:" when DBDriver is sqlite

	JWTSecret     string        // secret used to sign session tokens
	SessionTTL    time.Duration // lifetime of a session token
	ResetTokenTTL time.Duration // lifetime of a password reset token
	BcryptCost    int           // bcrypt cost for password hashing
	AdminEmails   map[string]bool

	FrontendURL string // base URL used to build password reset links

	BookingAllowWalkUp bool // create users on first booking instead of rejecting unknown emails
	BookingSeedReview  bool // append the "Booked N seat(s)" review on each booking

	TMDBAPIKey  string
	TMDBBaseURL string
	TMDBTimeout time.Duration

	AMQPURL         string // RabbitMQ URL; empty disables booking events
	BookingLogDir   string // directory the booking consumer appends to
	MailerSendKey   string
	MailFromName    string
	MailFromAddress string

	CORSOrigins []string
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:                envStr("APP_ENV", "dev"),
		Port:               envStr("APP_PORT", envStr("PORT", "5000")),
		DBDriver:           strings.ToLower(envStr("DB_DRIVER", "mysql")),
		DBPath:             envStr("DB_PATH", "cinebook.db"),
		JWTSecret:          must("JWT_SECRET"),
		SessionTTL:         envDur("SESSION_TTL", time.Hour),
		ResetTokenTTL:      envDur("RESET_TOKEN_TTL", time.Hour),
		BcryptCost:         envInt("BCRYPT_COST", 10),
		AdminEmails:        parseEmails(os.Getenv("ADMIN_EMAILS")),
		FrontendURL:        strings.TrimRight(envStr("FRONTEND_URL", "http://localhost:3000"), "/"),
		BookingAllowWalkUp: envBool("BOOKING_ALLOW_WALKUP", true),
		BookingSeedReview:  envBool("BOOKING_SEED_REVIEW", true),
		TMDBAPIKey:         os.Getenv("TMDB_API_KEY"),
		TMDBBaseURL:        envStr("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBTimeout:        envDur("TMDB_TIMEOUT", 10*time.Second),
		AMQPURL:            envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		BookingLogDir:      envStr("BOOKING_LOG_DIR", "logs"),
		MailerSendKey:      os.Getenv("MAILERSEND_API_KEY"),
		MailFromName:       envStr("MAIL_FROM_NAME", "Cinebook"),
		MailFromAddress:    os.Getenv("MAIL_FROM_ADDRESS"),
		CORSOrigins:        splitList(envStr("CORS_ORIGINS", "*")),
	}
	if cfg.DBDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// IsProduction reports whether the app runs with APP_ENV=prod or production.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func parseEmails(s string) map[string]bool {
	m := map[string]bool{}
	for _, e := range splitList(s) {
		m[strings.ToLower(e)] = true
	}
	return m
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
