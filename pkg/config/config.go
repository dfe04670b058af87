package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Scan       ScanConfig
	Attendance AttendanceConfig
	Archive    ArchiveConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ScanConfig carries the shared secrets used by scanning devices.
type ScanConfig struct {
	QRSecret          string
	DeviceTokenSecret string
	ScheduleCacheTTL  time.Duration
}

// AttendanceConfig tunes the slot resolution rules.
type AttendanceConfig struct {
	// StrictSequential requires am-in before am-out, am-out before pm-in and
	// pm-in before pm-out. Disabling it accepts any configured slot whose
	// window matches.
	StrictSequential bool
	// ToleranceMinutes opens each slot window this many minutes early.
	ToleranceMinutes int
	// DurationMinutes keeps each slot window open this long past the slot time.
	DurationMinutes int
	// Timezone is the campus-local zone all scan times are evaluated in.
	Timezone string
}

// ArchiveConfig controls the past-event archival job.
type ArchiveConfig struct {
	Enabled  bool
	Interval time.Duration
	Workers  int
	Retries  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scan = ScanConfig{
		QRSecret:          v.GetString("SCAN_QR_SECRET"),
		DeviceTokenSecret: v.GetString("SCAN_DEVICE_TOKEN_SECRET"),
		ScheduleCacheTTL:  parseDuration(v.GetString("SCAN_SCHEDULE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Attendance = AttendanceConfig{
		StrictSequential: v.GetBool("ATTENDANCE_STRICT_SEQUENTIAL"),
		ToleranceMinutes: v.GetInt("ATTENDANCE_TOLERANCE_MINUTES"),
		DurationMinutes:  v.GetInt("ATTENDANCE_DURATION_MINUTES"),
		Timezone:         v.GetString("ATTENDANCE_TIMEZONE"),
	}

	cfg.Archive = ArchiveConfig{
		Enabled:  v.GetBool("ARCHIVE_ENABLED"),
		Interval: parseDuration(v.GetString("ARCHIVE_INTERVAL"), 24*time.Hour),
		Workers:  v.GetInt("ARCHIVE_WORKERS"),
		Retries:  v.GetInt("ARCHIVE_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCAN_QR_SECRET", "dev_qr_secret")
	v.SetDefault("SCAN_DEVICE_TOKEN_SECRET", "dev_device_secret")
	v.SetDefault("SCAN_SCHEDULE_CACHE_TTL", "5m")

	v.SetDefault("ATTENDANCE_STRICT_SEQUENTIAL", true)
	v.SetDefault("ATTENDANCE_TOLERANCE_MINUTES", 15)
	v.SetDefault("ATTENDANCE_DURATION_MINUTES", 30)
	v.SetDefault("ATTENDANCE_TIMEZONE", "Asia/Manila")

	v.SetDefault("ARCHIVE_ENABLED", false)
	v.SetDefault("ARCHIVE_INTERVAL", "24h")
	v.SetDefault("ARCHIVE_WORKERS", 1)
	v.SetDefault("ARCHIVE_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
