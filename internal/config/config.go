package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN              string
	HTTPAddr           string
	Environment        string
	MigrationsPath     string
	GranularityMinutes int
	ClosedDays         []time.Weekday
	AutoCancelInterval time.Duration
	SendgridAPIKey     string
	NotifyFromEmail    string
}

func Load() (*Config, error) {
	// .env is optional; environment variables win either way.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:           os.Getenv("DB_DSN"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		Environment:     os.Getenv("ENV"),
		MigrationsPath:  os.Getenv("MIGRATIONS_PATH"),
		SendgridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		NotifyFromEmail: os.Getenv("NOTIFY_FROM_EMAIL"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	granularity := os.Getenv("SLOT_GRANULARITY_MINUTES")
	if granularity == "" {
		cfg.GranularityMinutes = 30
	} else {
		minutes, err := strconv.Atoi(granularity)
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("invalid SLOT_GRANULARITY_MINUTES %q", granularity)
		}
		cfg.GranularityMinutes = minutes
	}

	closedDays, err := parseClosedDays(os.Getenv("CLINIC_CLOSED_DAYS"))
	if err != nil {
		return nil, err
	}
	cfg.ClosedDays = closedDays

	interval := os.Getenv("AUTO_CANCEL_INTERVAL")
	if interval == "" {
		cfg.AutoCancelInterval = time.Hour
	} else {
		d, err := time.ParseDuration(interval)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid AUTO_CANCEL_INTERVAL %q", interval)
		}
		cfg.AutoCancelInterval = d
	}

	return cfg, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// parseClosedDays reads a comma-separated weekday list. Empty input keeps the
// clinic default of Sundays closed.
func parseClosedDays(raw string) ([]time.Weekday, error) {
	if strings.TrimSpace(raw) == "" {
		return []time.Weekday{time.Sunday}, nil
	}

	var days []time.Weekday
	for _, part := range strings.Split(raw, ",") {
		day, ok := weekdays[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return nil, fmt.Errorf("invalid CLINIC_CLOSED_DAYS entry %q", part)
		}
		days = append(days, day)
	}

	return days, nil
}
