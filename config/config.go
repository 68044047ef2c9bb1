package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTAccessSecret    string
	JWTRefreshSecret   string
	JWTAccessTTLHours  int
	JWTRefreshTTLHours int

	// Redis Config
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka Config
	KafkaBrokers    string
	KafkaAuditTopic string

	// SMTP Config
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromName  string
	SMTPFromEmail string

	// Studio timezone: all recurrence arithmetic is done in this zone,
	// never in the server's ambient zone.
	Timezone string
	Location *time.Location

	// Default forward horizon (days) for materializing occurrences when a
	// pattern does not carry its own.
	GenerationHorizonDays int

	UploadDir string
}

// Load reads environment variables and returns a Config object
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using environment variables")
	}

	accessTTL, _ := strconv.Atoi(os.Getenv("JWT_ACCESS_TTL_HOURS"))
	refreshTTL, _ := strconv.Atoi(os.Getenv("JWT_REFRESH_TTL_HOURS"))
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	horizon, _ := strconv.Atoi(os.Getenv("GENERATION_HORIZON_DAYS"))
	if horizon <= 0 {
		horizon = 90
	}

	tz := os.Getenv("STUDIO_TIMEZONE")
	if tz == "" {
		tz = "America/Los_Angeles"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Invalid STUDIO_TIMEZONE %q, falling back to UTC: %v", tz, err)
		loc = time.UTC
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "/data/uploads"
	}

	return &Config{
		Port: os.Getenv("PORT"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		JWTAccessSecret:    os.Getenv("JWT_ACCESS_SECRET"),
		JWTRefreshSecret:   os.Getenv("JWT_REFRESH_SECRET"),
		JWTAccessTTLHours:  accessTTL,
		JWTRefreshTTLHours: refreshTTL,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		KafkaAuditTopic: os.Getenv("KAFKA_AUDIT_TOPIC"),

		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      os.Getenv("SMTP_PORT"),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFromName:  os.Getenv("SMTP_FROM_NAME"),
		SMTPFromEmail: os.Getenv("SMTP_FROM_EMAIL"),

		Timezone: tz,
		Location: loc,

		GenerationHorizonDays: horizon,

		UploadDir: uploadDir,
	}
}
