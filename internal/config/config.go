package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time.Duration for window and interval settings
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The types reflect how the values are used
// in the application: strings for identifiers and secrets, durations for
// the reservation window and sweep cadence.
type Config struct {
    Env               string        // application environment (e.g. "dev", "prod")
    Port              string        // HTTP port to listen on
    DBUser            string        // database username
    DBPass            string        // database password (optional)
    DBHost            string        // database host address
    DBPort            string        // database port number
    DBName            string        // database name
    DBMaxConns        int           // connection pool cap
    DBConnLifetime    time.Duration // connection recycle age
    JWTSecret         string        // secret used to sign JWTs
    AccessTTLMin      int           // access token time-to-live in minutes
    RefreshTTLDays    int           // refresh token time-to-live in days
    BcryptCost        int           // bcrypt cost for password hashing
    ReservationWindow time.Duration // how long a booking may stay PENDING
    SweepInterval     time.Duration // how often the expiry sweeper runs
    LockTTL           time.Duration // TTL on per-seat reservation locks
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The reservation
// window doubles as the lock TTL unless overridden: a crashed process
// must not pin seats longer than the booking it abandoned.
func Load() Config {
    cfg := Config{
        Env:               must("APP_ENV"),
        Port:              must("APP_PORT"),
        DBUser:            must("DB_USER"),
        DBPass:            os.Getenv("DB_PASS"), // empty allowed
        DBHost:            must("DB_HOST"),
        DBPort:            must("DB_PORT"),
        DBName:            must("DB_NAME"),
        DBMaxConns:        envInt("DB_MAX_CONNS", 25),
        DBConnLifetime:    envDur("DB_CONN_LIFETIME", 30*time.Minute),
        JWTSecret:         must("JWT_SECRET"),
        AccessTTLMin:      mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:    mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:        mustInt("BCRYPT_COST"),
        ReservationWindow: envDur("RESERVATION_WINDOW", 180*time.Second),
        SweepInterval:     envDur("SWEEP_INTERVAL", 30*time.Second),
    }
    cfg.LockTTL = envDur("LOCK_TTL", cfg.ReservationWindow)
    return cfg
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

// envInt reads an optional integer variable and falls back to the
// provided default when unset or malformed.
func envInt(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    if n, err := strconv.Atoi(v); err == nil && n > 0 {
        return n
    }
    return def
}

// envDur reads an optional duration variable ("90s", "3m") and falls back
// to the provided default when unset or malformed.
func envDur(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    if d, err := time.ParseDuration(v); err == nil && d > 0 {
        return d
    }
    return def
}
