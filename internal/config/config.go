package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The values are read once at process start and the
// struct is passed by value into handlers; nothing reads the environment
// after Load returns.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	SessionSecret   string // secret used to sign first-party session JWTs
	BuilderSecret   string // secret used to sign builder capability tokens
	BuilderBaseURL  string // base URL of the external visual builder
	AccessTTLMin    int    // session access token time-to-live in minutes
	RefreshTTLDays  int    // session refresh token time-to-live in days
	BuilderTTLHours int    // builder capability token time-to-live in hours
	BcryptCost      int    // bcrypt cost for password hashing
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first if it exists
// (missing files are fine; real environments set variables directly).
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message; an unset signing secret is a
// deployment error, not something to handle at request time.
func Load() Config {
	_ = godotenv.Load() // best effort; absence of .env is not an error

	return Config{
		Env:             must("APP_ENV"),                              // environment (dev/test/prod)
		Port:            must("APP_PORT"),                             // port to bind the HTTP server
		DBUser:          must("DB_USER"),                              // database user
		DBPass:          os.Getenv("DB_PASS"),                         // database password (empty allowed)
		DBHost:          must("DB_HOST"),                              // database host
		DBPort:          must("DB_PORT"),                              // database port
		DBName:          must("DB_NAME"),                              // database name
		SessionSecret:   must("SESSION_JWT_SECRET"),                   // secret for dashboard session tokens
		BuilderSecret:   must("BUILDER_JWT_SECRET"),                   // secret for builder capability tokens
		BuilderBaseURL:  must("BUILDER_BASE_URL"),                     // where builder deeplinks point
		AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),              // TTL for session access tokens in minutes
		RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),            // TTL for refresh tokens in days
		BuilderTTLHours: envIntDefault("BUILDER_TOKEN_TTL_HOURS", 24), // capability tokens default to 24h
		BcryptCost:      mustInt("BCRYPT_COST"),                       // bcrypt cost factor
	}
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envIntDefault reads an optional integer variable, falling back to def when
// the variable is unset or malformed.
func envIntDefault(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
