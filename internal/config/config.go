package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Redis      RedisConfig
	Payroll    PayrollConfig
	Leave      LeaveConfig
	Attendance AttendanceConfig
	Storage    StorageConfig
	SMTP       SMTPConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxConns      int32
	MinConns      int32
	RunMigrations bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// RedisConfig holds the working-days cache connection. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type PayrollConfig struct {
	// Workers bounds how many employees are loaded concurrently during a run.
	Workers int
}

// LeaveConfig holds the yearly allocations used when a balance is created.
type LeaveConfig struct {
	SickDays     float64
	CasualDays   float64
	VacationDays float64
}

type AttendanceConfig struct {
	WorkStart    string // HH:MM, UTC
	LateGrace    time.Duration
	HalfDayHours float64
	// Check-ins must come from within FenceRadius meters of the office. Zero disables the check.
	OfficeLatitude  float64
	OfficeLongitude float64
	FenceRadius     float64
}

// SMTPConfig holds the outgoing mail server. An empty Host disables email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type StorageConfig struct {
	UploadDir string
	BaseURL   string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, reading configuration from environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:          getEnv("DB_HOST", "localhost"),
		Port:          dbPort,
		User:          getEnv("DB_USER", "postgres"),
		Password:      getEnv("DB_PASSWORD", ""),
		Name:          getEnv("DB_NAME", "cmlabs_hris_payroll"),
		SSLMode:       getEnv("DB_SSL_MODE", "disable"),
		MaxConns:      int32(maxConns),
		MinConns:      int32(minConns),
		RunMigrations: getEnvBool("DB_RUN_MIGRATIONS", true),
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	redisTTL, err := time.ParseDuration(getEnv("REDIS_WORKING_DAYS_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_WORKING_DAYS_TTL: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
		TTL:      redisTTL,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Payroll configuration
	workers, err := strconv.Atoi(getEnv("PAYROLL_WORKERS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_WORKERS: %w", err)
	}
	config.Payroll = PayrollConfig{Workers: workers}

	// Leave allocations
	sick, err := strconv.ParseFloat(getEnv("LEAVE_DEFAULT_SICK", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_DEFAULT_SICK: %w", err)
	}
	casual, err := strconv.ParseFloat(getEnv("LEAVE_DEFAULT_CASUAL", "12"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_DEFAULT_CASUAL: %w", err)
	}
	vacation, err := strconv.ParseFloat(getEnv("LEAVE_DEFAULT_VACATION", "15"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_DEFAULT_VACATION: %w", err)
	}
	config.Leave = LeaveConfig{
		SickDays:     sick,
		CasualDays:   casual,
		VacationDays: vacation,
	}

	// Attendance configuration
	lateGrace, err := time.ParseDuration(getEnv("ATTENDANCE_LATE_GRACE", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_LATE_GRACE: %w", err)
	}
	halfDayHours, err := strconv.ParseFloat(getEnv("ATTENDANCE_HALF_DAY_HOURS", "4"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_HALF_DAY_HOURS: %w", err)
	}
	officeLat, err := strconv.ParseFloat(getEnv("ATTENDANCE_OFFICE_LATITUDE", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_OFFICE_LATITUDE: %w", err)
	}
	officeLng, err := strconv.ParseFloat(getEnv("ATTENDANCE_OFFICE_LONGITUDE", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_OFFICE_LONGITUDE: %w", err)
	}
	fenceRadius, err := strconv.ParseFloat(getEnv("ATTENDANCE_FENCE_RADIUS_METERS", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_FENCE_RADIUS_METERS: %w", err)
	}
	config.Attendance = AttendanceConfig{
		WorkStart:       getEnv("ATTENDANCE_WORK_START", "09:00"),
		LateGrace:       lateGrace,
		HalfDayHours:    halfDayHours,
		OfficeLatitude:  officeLat,
		OfficeLongitude: officeLng,
		FenceRadius:     fenceRadius,
	}

	config.Storage = StorageConfig{
		UploadDir: getEnv("STORAGE_UPLOAD_DIR", "./uploads"),
		BaseURL:   getEnv("STORAGE_BASE_URL", "/uploads"),
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "no-reply@hris.local"),
		FromName: getEnv("SMTP_FROM_NAME", "HRIS"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.Workers < 1 {
		return fmt.Errorf("PAYROLL_WORKERS must be at least 1")
	}
	if _, err := time.Parse("15:04", c.Attendance.WorkStart); err != nil {
		return fmt.Errorf("ATTENDANCE_WORK_START must be HH:MM: %w", err)
	}
	if c.Attendance.FenceRadius < 0 {
		return fmt.Errorf("ATTENDANCE_FENCE_RADIUS_METERS must not be negative")
	}
	if c.Leave.SickDays < 0 || c.Leave.CasualDays < 0 || c.Leave.VacationDays < 0 {
		return fmt.Errorf("leave allocations must not be negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
