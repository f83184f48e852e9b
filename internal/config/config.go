package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AdminAPIURL string

	Superadmin struct {
		Username string
		Password string
	}

	Import struct {
		DeleteDelay  time.Duration
		AssetDelay   time.Duration
		ProductDelay time.Duration
		ListPageSize int
		DefaultStock int
	}
}

func Load() (*Config, error) {
	config := &Config{
		AdminAPIURL: getEnv("ADMIN_API_URL", "http://localhost:3000/admin-api"),
	}

	// Superadmin credentials for the Vendure admin API
	config.Superadmin.Username = getEnv("SUPERADMIN_USERNAME", "superadmin")
	config.Superadmin.Password = getEnv("SUPERADMIN_PASSWORD", "superadmin")

	// Rate-limit courtesy delays between backend calls
	config.Import.DeleteDelay = getEnvMillis("IMPORT_DELETE_DELAY_MS", 100)
	config.Import.AssetDelay = getEnvMillis("IMPORT_ASSET_DELAY_MS", 200)
	config.Import.ProductDelay = getEnvMillis("IMPORT_PRODUCT_DELAY_MS", 500)

	config.Import.ListPageSize = getEnvInt("IMPORT_LIST_PAGE_SIZE", 1000)
	config.Import.DefaultStock = getEnvInt("IMPORT_DEFAULT_STOCK", 100)

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Millisecond
}
