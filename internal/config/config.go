package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig             `mapstructure:"server"`
	Database   DatabaseConfig           `mapstructure:"database"`
	Qdrant     QdrantConfig             `mapstructure:"qdrant"`
	Storage    StorageConfig            `mapstructure:"storage"`
	Embeddings []EmbeddingConfig        `mapstructure:"embeddings"`
	Ingest     IngestConfig             `mapstructure:"ingest"`
	Datasets   map[string]DatasetConfig `mapstructure:"datasets"`
	Query      QueryConfig              `mapstructure:"query"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// DatabaseConfig configures the optional ingest run ledger.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"` // sqlite, postgres
	Path    string `mapstructure:"path"`
	URL     string `mapstructure:"url"`
}

// DSN returns the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	return c.Path
}

type QdrantConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	UseTLS bool   `mapstructure:"use_tls"`
}

// StorageConfig configures the S3-compatible store used for s3:// inputs.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // r2, s3, s3compatible
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

type IngestConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	BaseDelay       time.Duration `mapstructure:"base_delay"`
	BatchDelay      time.Duration `mapstructure:"batch_delay"`
	UpsertBatchSize int           `mapstructure:"upsert_batch_size"`
	UpsertRate      float64       `mapstructure:"upsert_rate"` // batches per second, 0 = unlimited
	OnExhausted     string        `mapstructure:"on_exhausted"`
	Mode            string        `mapstructure:"mode"`
}

// DatasetConfig binds a dataset to its input, index and embedding profile.
type DatasetConfig struct {
	Input     string          `mapstructure:"input"`
	Index     string          `mapstructure:"index"`
	Embedding string          `mapstructure:"embedding"`
	BatchSize int             `mapstructure:"batch_size"`
	Metric    string          `mapstructure:"metric"`
	Hybrid    bool            `mapstructure:"hybrid"`
	Placement PlacementConfig `mapstructure:"placement"`
}

// PlacementConfig describes where and how the index is provisioned.
type PlacementConfig struct {
	ShardNumber       uint32 `mapstructure:"shard_number"`
	ReplicationFactor uint32 `mapstructure:"replication_factor"`
	OnDisk            bool   `mapstructure:"on_disk"`
}

type QueryConfig struct {
	Dataset string `mapstructure:"dataset"`
	TopK    int    `mapstructure:"top_k"`
}

// Dataset returns the named dataset configuration.
func (c *Config) Dataset(name string) (DatasetConfig, error) {
	ds, ok := c.Datasets[name]
	if !ok {
		return DatasetConfig{}, fmt.Errorf("dataset %q is not configured", name)
	}
	return ds, nil
}

// Embedding returns the embedding profile with the given name, with env
// references resolved.
func (c *Config) Embedding(name string) (*EmbeddingConfig, error) {
	for i := range c.Embeddings {
		if c.Embeddings[i].Name == name {
			emb := c.Embeddings[i].Clone()
			emb.ResolveEnvVars()
			return emb, nil
		}
	}
	return nil, fmt.Errorf("embedding %q is not configured", name)
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("qdrant.host", "QDRANT_HOST")
	v.BindEnv("qdrant.port", "QDRANT_PORT")
	v.BindEnv("qdrant.api_key", "QDRANT_API_KEY")
	v.BindEnv("qdrant.use_tls", "QDRANT_USE_TLS")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("storage.region", "S3_REGION")
	v.BindEnv("database.enabled", "DATABASE_ENABLED")
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("ingest.on_exhausted", "INGEST_ON_EXHAUSTED")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/ingest.db")

	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)

	v.SetDefault("storage.use_ssl", true)

	v.SetDefault("embeddings", []map[string]interface{}{
		{
			"name":       "minilm",
			"provider":   "local",
			"model":      "sentence-transformers/all-MiniLM-L6-v2",
			"model_path": "./models/all-MiniLM-L6-v2",
			"dimensions": 384,
		},
		{
			"name":        "openai-large",
			"provider":    "openai",
			"model":       "text-embedding-3-large",
			"api_key_env": "OPENAI_API_KEY",
			"dimensions":  3072,
		},
	})

	v.SetDefault("ingest.max_retries", 3)
	v.SetDefault("ingest.base_delay", 5*time.Second)
	v.SetDefault("ingest.batch_delay", 5*time.Second)
	v.SetDefault("ingest.upsert_batch_size", 100)
	v.SetDefault("ingest.upsert_rate", 0.0)
	v.SetDefault("ingest.on_exhausted", "prompt")
	v.SetDefault("ingest.mode", "rebuild")

	v.SetDefault("datasets", map[string]interface{}{
		"phones": map[string]interface{}{
			"input":      "MobilePhonePrice.csv",
			"index":      "phone-prices-index",
			"embedding":  "minilm",
			"batch_size": 32,
			"metric":     "cosine",
		},
		"movies": map[string]interface{}{
			"input":      "tmdb_5000_movies.csv",
			"index":      "hybrid-movies-index",
			"embedding":  "openai-large",
			"batch_size": 20,
			"metric":     "cosine",
			"hybrid":     true,
		},
	})

	v.SetDefault("query.dataset", "movies")
	v.SetDefault("query.top_k", 5)
}
