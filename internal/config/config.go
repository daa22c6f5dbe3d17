package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretKeyLength = 32

var (
	ErrSecretKeyMissing     = errors.New("SECRET_KEY is required")
	ErrSecretKeyPlaceholder = errors.New("SECRET_KEY uses an insecure placeholder value")
	ErrSecretKeyTooShort    = errors.New("SECRET_KEY must be at least 32 characters")
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

type Config struct {
	Env          string
	Port         string
	DBPath       string
	Location     *time.Location
	CookieSecure bool
	LogFile      string

	HFToken         string
	HFBaseURL       string
	EmotionModel    string
	ChatAPIKey      string
	ChatBaseURL     string
	ChatModel       string
	ChatTemperature float64

	RedisAddr    string
	RedisChannel string

	TelegramBotToken string

	SpinSessionTTL time.Duration
}

// Load reads .env (if present) and then the process environment.
// Environment variables win over .env values. SECRET_KEY is not checked here;
// only commands that sign tokens call ResolveSecretKey.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Env:          get("APP_ENV", "dev"),
		Port:         get("PORT", "8080"),
		DBPath:       get("DB_PATH", filepath.Join("data", "moodify.db")),
		Location:     loadLocation(get("TZ", "UTC")),
		CookieSecure: getBool("COOKIE_SECURE", false),
		LogFile:      get("LOG_FILE", ""),

		HFToken:         get("HF_API_TOKEN", ""),
		HFBaseURL:       get("HF_BASE_URL", "https://api-inference.huggingface.co"),
		EmotionModel:    get("HF_EMOTION_MODEL", "j-hartmann/emotion-english-distilroberta-base"),
		ChatAPIKey:      get("CHAT_API_KEY", ""),
		ChatBaseURL:     get("CHAT_BASE_URL", "https://api.groq.com/openai/v1"),
		ChatModel:       get("CHAT_MODEL", "llama3-8b-8192"),
		ChatTemperature: getFloat("CHAT_TEMPERATURE", 0.7),

		RedisAddr:    get("REDIS_ADDR", ""),
		RedisChannel: get("REDIS_CHANNEL", "moodify:snapshots"),

		TelegramBotToken: get("TELEGRAM_BOT_TOKEN", ""),

		SpinSessionTTL: getDuration("SPIN_SESSION_TTL", 2*time.Hour),
	}, nil
}

func ResolveSecretKey() (string, error) {
	secret := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secret == "" {
		return "", ErrSecretKeyMissing
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secret)]; insecure {
		return "", ErrSecretKeyPlaceholder
	}
	if len(secret) < minSecretKeyLength {
		return "", ErrSecretKeyTooShort
	}
	return secret, nil
}

func loadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return location
}

func get(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	switch strings.ToLower(get(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getFloat(key string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(get(key, ""), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	parsed, err := time.ParseDuration(get(key, ""))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
