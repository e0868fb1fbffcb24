package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"seatserve/internal/model"
)

// Config holds everything the binaries need: infrastructure endpoints plus
// the injected domain configuration (seat universe, shift windows, fee
// table, lifecycle policy). Domain values are read once here and passed to
// components as immutable structs; nothing reads ambient state later.
type Config struct {
	Env        string
	ServerPort string

	StoreBackend string // "firestore" or "memory"
	StoreTimeout time.Duration

	FirebaseProjectID   string
	FirebaseClientEmail string
	FirebasePrivateKey  string

	RedisAddr    string
	QueueBackend string // "direct" or "redis"

	PushTimeout         time.Duration
	DispatchConcurrency int

	SeatCount int
	Windows   model.ShiftWindows
	Fees      map[model.Shift]int
	Policy    model.LifecyclePolicy

	LogLevel  string
	LogFormat string
}

// Load populates Config from the environment, with a .env file as fallback.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Env:        getEnv("APP_ENV", "dev"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		StoreBackend: getEnv("STORE_BACKEND", "firestore"),
		StoreTimeout: durationEnv("STORE_TIMEOUT", 10*time.Second),

		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseClientEmail: os.Getenv("FIREBASE_CLIENT_EMAIL"),
		FirebasePrivateKey:  os.Getenv("FIREBASE_PRIVATE_KEY"),

		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		QueueBackend: getEnv("QUEUE_BACKEND", "direct"),

		PushTimeout:         durationEnv("PUSH_TIMEOUT", 10*time.Second),
		DispatchConcurrency: intEnv("DISPATCH_CONCURRENCY", 4),

		SeatCount: intEnv("SEAT_COUNT", 50),
		Policy: model.LifecyclePolicy{
			OverdueGraceDays:        intEnv("OVERDUE_GRACE_DAYS", 5),
			WipeHistoryOnReactivate: boolEnv("WIPE_HISTORY_ON_REACTIVATE", true),
		},
		Fees: map[model.Shift]int{
			model.ShiftMorning: intEnv("FEE_MORNING", 600),
			model.ShiftEvening: intEnv("FEE_EVENING", 600),
			model.ShiftFullday: intEnv("FEE_FULLDAY", 1000),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	windows := model.DefaultShiftWindows()
	for shift, key := range map[model.Shift]string{
		model.ShiftMorning: "WINDOW_MORNING",
		model.ShiftEvening: "WINDOW_EVENING",
		model.ShiftFullday: "WINDOW_FULLDAY",
	} {
		if raw := os.Getenv(key); raw != "" {
			w, err := parseWindow(raw)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", key, err)
			}
			windows[shift] = w
		}
	}
	cfg.Windows = windows

	if cfg.SeatCount <= 0 {
		return nil, fmt.Errorf("SEAT_COUNT must be positive, got %d", cfg.SeatCount)
	}

	return cfg, nil
}

// FirebaseCredentialsJSON assembles the service account document the Google
// clients expect from the individual env vars. Returns nil when credentials
// are not configured, in which case clients fall back to application default
// credentials.
func (c *Config) FirebaseCredentialsJSON() []byte {
	if c.FirebaseClientEmail == "" || c.FirebasePrivateKey == "" {
		return nil
	}
	creds := map[string]string{
		"type":         "service_account",
		"project_id":   c.FirebaseProjectID,
		"client_email": c.FirebaseClientEmail,
		"private_key":  strings.ReplaceAll(c.FirebasePrivateKey, `\n`, "\n"),
		"token_uri":    "https://oauth2.googleapis.com/token",
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return nil
	}
	return data
}

// SeatUniverse returns the fixed, enumerable seat inventory 1..SeatCount.
func (c *Config) SeatUniverse() []int {
	seats := make([]int, c.SeatCount)
	for i := range seats {
		seats[i] = i + 1
	}
	return seats
}

// parseWindow reads "07:00-14:00" into a model.Window.
func parseWindow(raw string) (model.Window, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return model.Window{}, fmt.Errorf("expected HH:MM-HH:MM, got %q", raw)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return model.Window{}, err
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return model.Window{}, err
	}
	if end <= start {
		return model.Window{}, fmt.Errorf("window end %q is not after start %q", parts[1], parts[0])
	}
	return model.Window{StartMin: start, EndMin: end}, nil
}

func parseClock(raw string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func boolEnv(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
