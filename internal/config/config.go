package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath   string
	DataDir  string
	Timezone string

	StoreBackend string // local | drive
	StoreRoot    string // top-level folder of the persisted hierarchy

	DriveClientID     string
	DriveClientSecret string
	DriveRedirectURI  string
	DriveRefreshToken string
	DriveSharedDrive  string

	OpenAIBaseURL     string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAITimeoutMs   int
	ExtractMaxRetries int

	ChannelSecret      string
	ChannelAccessToken string
	GatewayAPIBaseURL  string
	GatewayDataBaseURL string
	WebhookAddr        string

	SupplierTagsFile     string
	PurchaseTemplateFile string
	PurchaseDocMaxRows   int

	BacklogIncludeUndated bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:   getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		DataDir:  getEnv("DATA_DIR", filepath.Join(cwd, "data")),
		Timezone: getEnv("TIMEZONE", "Asia/Tokyo"),

		StoreBackend: getEnv("STORE_BACKEND", "local"),
		StoreRoot:    getEnv("STORE_ROOT", "OrderIntake"),

		DriveClientID:     getEnv("DRIVE_CLIENT_ID", ""),
		DriveClientSecret: getEnv("DRIVE_CLIENT_SECRET", ""),
		DriveRedirectURI:  getEnv("DRIVE_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		DriveRefreshToken: getEnv("DRIVE_REFRESH_TOKEN", ""),
		DriveSharedDrive:  getEnv("DRIVE_SHARED_DRIVE_ID", ""),

		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAITimeoutMs:   getEnvInt("OPENAI_TIMEOUT_MS", 60000),
		ExtractMaxRetries: getEnvInt("EXTRACT_MAX_RETRIES", 3),

		ChannelSecret:      getEnv("CHANNEL_SECRET", ""),
		ChannelAccessToken: getEnv("CHANNEL_ACCESS_TOKEN", ""),
		GatewayAPIBaseURL:  getEnv("GATEWAY_API_BASE_URL", "https://api.line.me"),
		GatewayDataBaseURL: getEnv("GATEWAY_DATA_BASE_URL", "https://api-data.line.me"),
		WebhookAddr:        getEnv("WEBHOOK_ADDR", ":10000"),

		SupplierTagsFile:     getEnv("SUPPLIER_TAGS_FILE", "SupplierTags.xlsx"),
		PurchaseTemplateFile: getEnv("PURCHASE_TEMPLATE_FILE", "PurchaseOrderTemplate.xlsx"),
		PurchaseDocMaxRows:   getEnvInt("PURCHASE_DOC_MAX_ROWS", 20),

		BacklogIncludeUndated: getEnvBool("BACKLOG_INCLUDE_UNDATED", false),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
