package config

import (
	"fmt"
	"os"
)

type Config struct {
	Port         string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	AutoMigrate  bool
	GinMode      string
	StoreName    string
	SharedSecret string
	Environment  string // "test" or "prod"
	BaseURL      string // merchant site root, used to build response URLs
	MerchantName string // dynamicMerchantName on the hosted payment page
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "fiserv"),
		DBPassword:   getEnv("DB_PASSWORD", "fiserv_secret"),
		DBName:       getEnv("DB_NAME", "fiserv"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		AutoMigrate:  getEnv("AUTO_MIGRATE", "false") == "true",
		GinMode:      getEnv("GIN_MODE", "debug"),
		StoreName:    getEnv("FISERV_STORE_NAME", ""),
		SharedSecret: getEnv("FISERV_SHARED_SECRET", ""),
		Environment:  getEnv("FISERV_ENVIRONMENT", "test"),
		BaseURL:      getEnv("FISERV_BASE_URL", "https://localhost"),
		MerchantName: getEnv("FISERV_MERCHANT_NAME", "Company"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.StoreName == "" || c.SharedSecret == "" {
		return fmt.Errorf("missing gateway credentials (FISERV_STORE_NAME, FISERV_SHARED_SECRET)")
	}
	// Gateway limit on store identifiers.
	if len(c.StoreName) > 15 {
		return fmt.Errorf("store name must not exceed 15 characters")
	}
	if c.Environment != "test" && c.Environment != "prod" {
		return fmt.Errorf("invalid payment environment %q", c.Environment)
	}
	return nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
