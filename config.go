package main

import (
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config is read from the environment. A .env file next to the binary is
// loaded first.
type Config struct {
	Port   string
	DBPath string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	ToEmail  string

	AdminUsername string
	AdminPassword string

	PlayTimeout   time.Duration
	OutboundQueue int
}

func loadConfig() Config {
	cfg := Config{
		Port:          getenv("PORT", "8080"),
		DBPath:        getenv("DB_PATH", "folio.db"),
		SMTPHost:      getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getenv("SMTP_PORT", "587"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		ToEmail:       os.Getenv("TO_EMAIL"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		PlayTimeout:   10 * time.Second,
		OutboundQueue: 64,
	}

	if v := os.Getenv("PLAY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Printf("WARNING: invalid PLAY_TIMEOUT %q, using %s", v, cfg.PlayTimeout)
		} else {
			cfg.PlayTimeout = d
		}
	}
	if v := os.Getenv("WS_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Printf("WARNING: invalid WS_QUEUE_SIZE %q, using %d", v, cfg.OutboundQueue)
		} else {
			cfg.OutboundQueue = n
		}
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
