package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	DBDriver    string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	SickLeaveTotal   int
	CasualLeaveTotal int

	TelegramToken string
	TelegramDebug bool

	HolidaysFile string

	LogLevel  string
	LogFormat string

	SeedAdminEmail string
	SeedAdminPass  string
}

var instance *Config
var once sync.Once

// Get loads the configuration once from the environment (and .env when present).
func Get() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Debugf("no .env file loaded: %s", err.Error())
		}

		instance = &Config{
			HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout:  getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:      getEnvAsList("CORS_ORIGINS"),
			DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DatabaseURL:      getEnv("DATABASE_URL", "crm.db"),
			JWTSecret:        getEnv("JWT_SECRET", ""),
			JWTTTL:           getEnvAsDuration("JWT_TTL", 7*24*time.Hour),
			SickLeaveTotal:   getEnvAsInt("LEAVE_SICK_TOTAL", 6),
			CasualLeaveTotal: getEnvAsInt("LEAVE_CASUAL_TOTAL", 6),
			TelegramToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			TelegramDebug:    getEnvAsBool("TELEGRAM_DEBUG", false),
			HolidaysFile:     getEnv("HOLIDAYS_FILE", ""),
			LogLevel:         getEnv("LOG_LEVEL", "info"),
			LogFormat:        getEnv("LOG_FORMAT", "text"),
			SeedAdminEmail:   getEnv("SEED_ADMIN_EMAIL", "admin@glowcrm.com"),
			SeedAdminPass:    getEnv("SEED_ADMIN_PASS", "Admin@123"),
		}

		if instance.JWTSecret == "" {
			logrus.Fatal("could not get jwt secret")
		}
		if instance.DatabaseURL == "" {
			logrus.Fatal("could not get db url")
		}
		if instance.SickLeaveTotal < 0 || instance.CasualLeaveTotal < 0 {
			logrus.Fatal("leave totals must not be negative")
		}
	})

	return instance
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	valStr := getEnv(name, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsList(name string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(name, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
