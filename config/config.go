package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"wanotify/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB        *gorm.DB
	AppConfig Config
	// OrgLocation is the organization timezone every schedule and rendered
	// date/time uses. Loaded once in LoadConfig.
	OrgLocation *time.Location
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// WhatsAppConfig holds the WhatsApp gateway proxy settings
type WhatsAppConfig struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"-"`
}

// VoiceConfig holds the voice-calling provider settings
type VoiceConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"-"`
	AgentID string `json:"agent_id"`
}

type Config struct {
	Environment      string         `json:"environment"`
	ServerPort       string         `json:"server_port"`
	JWTSecret        string         `json:"-"`
	DBHost           string         `json:"db_host"`
	DBPort           string         `json:"db_port"`
	DBUser           string         `json:"db_user"`
	DBPassword       string         `json:"-"`
	DBName           string         `json:"db_name"`
	DBSSLMode        string         `json:"db_ssl_mode"`
	DBMaxIdleConns   int            `json:"db_max_idle_conns"`
	DBMaxOpenConns   int            `json:"db_max_open_conns"`
	OrgTimezone      string         `json:"org_timezone"`
	DispatchInterval int            `json:"dispatch_interval_seconds"`
	RateLimitSend    int            `json:"rate_limit_send"`
	SentryDSN        string         `json:"-"`
	Redis            RedisConfig    `json:"redis"`
	WhatsApp         WhatsAppConfig `json:"whatsapp"`
	Voice            VoiceConfig    `json:"voice"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		ServerPort:       getEnv("SERVER_PORT", "5000"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", ""),
		DBName:           getEnv("DB_NAME", "wanotify"),
		DBSSLMode:        getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:   getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		OrgTimezone:      getEnv("ORG_TIMEZONE", "Asia/Kolkata"),
		DispatchInterval: getEnvAsInt("DISPATCH_INTERVAL_SECONDS", 15),
		RateLimitSend:    getEnvAsInt("RATE_LIMIT_SEND", 10),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "") == "true",
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		WhatsApp: WhatsAppConfig{
			BaseURL: getEnv("WA_GATEWAY_URL", ""),
			Token:   getEnv("WA_GATEWAY_TOKEN", ""),
		},
		Voice: VoiceConfig{
			BaseURL: getEnv("VOICE_API_URL", "https://api.bolna.dev"),
			APIKey:  getEnv("VOICE_API_KEY", ""),
			AgentID: getEnv("VOICE_AGENT_ID", ""),
		},
	}

	// Validate required configurations
	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if AppConfig.Environment == "production" {
		if AppConfig.WhatsApp.BaseURL == "" || AppConfig.WhatsApp.Token == "" {
			return fmt.Errorf("WhatsApp gateway credentials are required in production")
		}
	}

	loc, err := time.LoadLocation(AppConfig.OrgTimezone)
	if err != nil {
		return fmt.Errorf("invalid ORG_TIMEZONE %q: %w", AppConfig.OrgTimezone, err)
	}
	OrgLocation = loc

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Org Timezone: %s", AppConfig.OrgTimezone)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("Integrations: WhatsApp(%t), Voice(%t), Sentry(%t)",
		AppConfig.WhatsApp.BaseURL != "",
		AppConfig.Voice.APIKey != "",
		AppConfig.SentryDSN != "")
}

func migrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Workshop{},
		&models.WhatsAppGroup{},
		&models.WorkshopGroup{},
		&models.Lead{},
		&models.Template{},
		&models.Sequence{},
		&models.SequenceStep{},
		&models.Tag{},
		&models.WorkshopVariable{},
		&models.ScheduledMessage{},
		&models.CallCampaign{},
		&models.CallRecord{},
	); err != nil {
		return err
	}

	// A re-run may never duplicate a live (workshop, step, group) message.
	// Cancelled records stay out of the constraint so a cancelled slot can be
	// scheduled again.
	return db.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_run_slot
        ON scheduled_messages (workshop_id, step_id, group_id)
        WHERE status <> 'cancelled' AND step_id IS NOT NULL AND deleted_at IS NULL
    `).Error
}
