package config

// Storage drivers for the local preference store
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// StorageConfig chọn backend cho preference store (favorites, session key, tokens)
type StorageConfig struct {
	Driver     string
	SQLitePath string // file path, ":memory:" allowed
}

// LoadStorageConfig đọc storage config từ environment variables
func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:     getEnv("STORAGE_DRIVER", StorageSQLite),
		SQLitePath: getEnv("STORAGE_SQLITE_PATH", "storefront-profile.db"),
	}
}
