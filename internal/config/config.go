// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first (if present); real
// environment variables win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	DBPath   string `envconfig:"DB_PATH" default:"data/grocery.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Auth
	JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL            time.Duration `envconfig:"JWT_TTL" default:"15m"`
	BcryptCost        int           `envconfig:"BCRYPT_COST" default:"12"`
	AuthRatePerMinute int           `envconfig:"AUTH_RATE_PER_MINUTE" default:"10"`

	// SMS. All three empty means reminders are logged, not sent.
	TwilioAccountSID  string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `envconfig:"TWILIO_PHONE_NUMBER"`

	// Recipes
	SpoonacularAPIKey  string        `envconfig:"SPOONACULAR_API_KEY"`
	SpoonacularBaseURL string        `envconfig:"SPOONACULAR_BASE_URL" default:"https://api.spoonacular.com"`
	RecipeTimeout      time.Duration `envconfig:"RECIPE_TIMEOUT" default:"10s"`

	// Expiry sweep
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"24h"`
	ExpiryWindow  time.Duration `envconfig:"EXPIRY_WINDOW" default:"48h"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// TwilioConfigured reports whether all Twilio credentials are present.
func (c Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

// Load reads .env (optional) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values envconfig can parse but the server can't use.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL must be positive"))
	}
	if c.ExpiryWindow <= 0 {
		errs = append(errs, errors.New("EXPIRY_WINDOW must be positive"))
	}
	if c.AuthRatePerMinute < 0 {
		errs = append(errs, errors.New("AUTH_RATE_PER_MINUTE must not be negative"))
	}
	set := 0
	for _, v := range []string{c.TwilioAccountSID, c.TwilioAuthToken, c.TwilioPhoneNumber} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_PHONE_NUMBER must be set together"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
