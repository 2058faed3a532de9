package config

import (
	"fmt"
	"os"
)

// Config holds the application configuration
type Config struct {
	Port string

	// WhatsApp Cloud API
	VerifyToken   string
	WhatsAppToken string
	PhoneNumberID string
	AppSecret     string // webhook HMAC secret; empty enables unauthenticated mode
	GraphVersion  string

	// Persistence: DATABASE_URL selects postgres, otherwise sqlite in DataDir
	DatabaseURL string
	DataDir     string

	// Payment provider
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	// AI fallback
	SarvamAPIKey string

	// Booking id composition
	OrgPrefix string

	// Dev admin bootstrap
	DevAdminPhone string
	DevAdminKey   string

	TithiDataFile string
}

// Load reads configuration from environment variables or defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		VerifyToken:           os.Getenv("VERIFY_TOKEN"),
		WhatsAppToken:         os.Getenv("WHATSAPP_TOKEN"),
		PhoneNumberID:         os.Getenv("PHONE_NUMBER_ID"),
		AppSecret:             os.Getenv("APP_SECRET"),
		GraphVersion:          getEnv("GRAPH_API_VERSION", "v18.0"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		DataDir:               getEnv("DATA_DIR", "data"),
		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		SarvamAPIKey:          os.Getenv("SARVAM_API_KEY"),
		OrgPrefix:             getEnv("ORG_PREFIX", "SPJRSD"),
		DevAdminPhone:         os.Getenv("DEV_ADMIN_PHONE"),
		DevAdminKey:           os.Getenv("DEV_ADMIN_KEY"),
		TithiDataFile:         getEnv("TITHI_DATA_FILE", "data/special_days_2026.json"),
	}

	for _, req := range []struct{ name, value string }{
		{"VERIFY_TOKEN", cfg.VerifyToken},
		{"WHATSAPP_TOKEN", cfg.WhatsAppToken},
		{"PHONE_NUMBER_ID", cfg.PhoneNumberID},
	} {
		if req.value == "" {
			return nil, fmt.Errorf("missing required environment variable %s", req.name)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
