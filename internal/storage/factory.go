package storage

import (
	"strings"

	"github.com/timmy/semindex/internal/config"
)

// NewStorage creates an S3 client from the storage section of the config.
// The bucket is chosen per object with WithBucket.
// Parameters:
//   - cfg: storage configuration including endpoint and credentials.
// Returns:
//   - *S3Storage: initialized storage client.
//   - error: non-nil if the client cannot be created.
func NewStorage(cfg config.StorageConfig) (*S3Storage, error) {
	storeType := StorageType(cfg.Type)
	// Auto-detect storage type if not specified
	if storeType == "" {
		storeType = detectStorageType(cfg.Endpoint)
	}

	return NewS3Storage(&S3Config{
		Type:      storeType,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Region:    cfg.Region,
	})
}

// detectStorageType attempts to detect the storage type from the endpoint
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case endpoint == "":
		return StorageTypeS3
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
